package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/tasklist/internal/models"
)

// Suggestions provides autocomplete for quick-entry tags
type Suggestions struct {
	categories  []SuggestionItem
	filtered    []SuggestionItem
	selectedIdx int
	visible     bool
	prefix      string // "#", "!", or "@"
}

// SuggestionItem represents a single autocomplete suggestion
type SuggestionItem struct {
	Text        string
	Description string
}

var prioritySuggestions = []SuggestionItem{
	{Text: "!high", Description: "Sorts to the top"},
	{Text: "!medium", Description: "Default urgency"},
	{Text: "!low", Description: "Whenever there is time"},
}

var dateSuggestions = []SuggestionItem{
	{Text: "@today", Description: "Due today"},
	{Text: "@tomorrow", Description: "Due tomorrow"},
}

// NewSuggestions creates a suggestions handler for the given categories
func NewSuggestions(cats models.CategorySet) *Suggestions {
	items := make([]SuggestionItem, len(cats))
	for i, c := range cats {
		items[i] = SuggestionItem{Text: "#" + string(c), Description: "Category"}
	}
	return &Suggestions{categories: items}
}

// Update recomputes suggestions from the word currently being typed
func (s *Suggestions) Update(input string) {
	word := lastWord(input)
	if word == "" {
		s.hide()
		return
	}

	var items []SuggestionItem
	switch word[0] {
	case '#':
		items = s.categories
	case '!':
		items = prioritySuggestions
	case '@':
		items = dateSuggestions
	default:
		s.hide()
		return
	}

	s.prefix = word[:1]
	s.visible = true
	s.filter(items, strings.ToLower(word))
}

func (s *Suggestions) hide() {
	s.visible = false
	s.filtered = nil
	s.prefix = ""
}

func (s *Suggestions) filter(items []SuggestionItem, query string) {
	s.filtered = []SuggestionItem{}
	for _, item := range items {
		if strings.HasPrefix(item.Text, query) && item.Text != query {
			s.filtered = append(s.filtered, item)
		}
	}
	s.selectedIdx = 0
}

// Next moves to the next suggestion
func (s *Suggestions) Next() {
	if len(s.filtered) == 0 {
		return
	}
	s.selectedIdx = (s.selectedIdx + 1) % len(s.filtered)
}

// Prev moves to the previous suggestion
func (s *Suggestions) Prev() {
	if len(s.filtered) == 0 {
		return
	}
	s.selectedIdx--
	if s.selectedIdx < 0 {
		s.selectedIdx = len(s.filtered) - 1
	}
}

// Selected returns the currently selected suggestion
func (s *Suggestions) Selected() *SuggestionItem {
	if !s.visible || len(s.filtered) == 0 || s.selectedIdx >= len(s.filtered) {
		return nil
	}
	return &s.filtered[s.selectedIdx]
}

// IsVisible returns whether suggestions are currently visible
func (s *Suggestions) IsVisible() bool {
	return s.visible && len(s.filtered) > 0
}

// Complete replaces the word being typed in input with the selected suggestion.
func (s *Suggestions) Complete(input string) string {
	sel := s.Selected()
	if sel == nil {
		return input
	}
	word := lastWord(input)
	out := strings.TrimSuffix(input, word) + sel.Text + " "
	s.hide()
	return out
}

// lastWord returns the trailing, not yet terminated word of input.
func lastWord(input string) string {
	if input == "" || strings.HasSuffix(input, " ") {
		return ""
	}
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// Render renders the suggestions dropdown
func (s *Suggestions) Render(width int) string {
	if !s.IsVisible() {
		return ""
	}

	var b strings.Builder

	suggestionStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(secondaryColor).
		Padding(0, 1).
		Width(max(width-4, 20))

	itemStyle := lipgloss.NewStyle().
		Foreground(fgColor)

	descStyle := lipgloss.NewStyle().
		Foreground(mutedColor).
		Italic(true)

	var header string
	switch s.prefix {
	case "#":
		header = "Categories"
	case "!":
		header = "Priorities"
	case "@":
		header = "Due dates"
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(primaryColor).Render(header))
	b.WriteString("\n")

	// Show max 5 suggestions
	maxVisible := 5
	for i, item := range s.filtered {
		if i >= maxVisible {
			more := len(s.filtered) - maxVisible
			b.WriteString(descStyle.Render(fmt.Sprintf("  ... and %d more", more)))
			break
		}

		var line string
		if i == s.selectedIdx {
			line = selectedStyle.Render("▶ "+item.Text) + " " + selectedStyle.Render(item.Description)
		} else {
			line = itemStyle.Render("  "+item.Text) + " " + descStyle.Render(item.Description)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return suggestionStyle.Render(b.String())
}
