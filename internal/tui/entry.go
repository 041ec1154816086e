package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/fentz26/tasklist/internal/models"
)

// Entry is a parsed quick-entry line such as
// "Buy milk #shopping !high @2025-01-20".
type Entry struct {
	Text     string
	Category models.Category
	Priority models.Priority
	Due      *models.Date

	HasCategory bool
	HasPriority bool
}

// ParseEntry splits a quick-entry line into text and tagged fields.
// #word is a category, !word a priority and @date a due date
// (YYYY-MM-DD, "today" or "tomorrow"). A marked word that is not a valid
// tag stays part of the text.
func ParseEntry(line string, cats models.CategorySet, today time.Time) Entry {
	var e Entry
	var words []string

	for _, tok := range strings.Fields(line) {
		if len(tok) > 1 {
			switch tok[0] {
			case '#':
				if c, err := cats.Parse(tok[1:]); err == nil {
					e.Category, e.HasCategory = c, true
					continue
				}
			case '!':
				if p, err := models.ParsePriority(tok[1:]); err == nil {
					e.Priority, e.HasPriority = p, true
					continue
				}
			case '@':
				if d, err := ParseDue(tok[1:], today); err == nil {
					e.Due = &d
					continue
				}
			}
		}
		words = append(words, tok)
	}
	e.Text = strings.Join(words, " ")
	return e
}

// ParseDue accepts YYYY-MM-DD, "today" or "tomorrow".
func ParseDue(s string, today time.Time) (models.Date, error) {
	switch strings.ToLower(s) {
	case "today":
		return models.DateOf(today), nil
	case "tomorrow":
		return models.DateOf(today.AddDate(0, 0, 1)), nil
	}
	return models.ParseDate(s)
}

// FormatEntry renders t back into quick-entry form for editing.
func FormatEntry(t models.Task) string {
	s := fmt.Sprintf("%s #%s !%s", t.Text, t.Category, t.Priority)
	if t.DueDate != nil {
		s += " @" + t.DueDate.String()
	}
	return s
}
