// Package view turns the visible task list into display-ready rows.
package view

import (
	"strings"
	"time"

	"github.com/fentz26/tasklist/internal/models"
)

// dueLayout renders dates as "Jan 5, 2025".
const dueLayout = "Jan 2, 2006"

// NoDueDate is shown for tasks without a due date.
const NoDueDate = "No due date"

// PriorityIcon prefixes every priority label.
const PriorityIcon = "⚑"

// Row is one task as the user sees it.
type Row struct {
	ID            int64
	Checked       bool
	Text          string
	Struck        bool
	Priority      models.Priority
	PriorityLabel string
	CategoryLabel string
	DueLabel      string
	Overdue       bool
}

// Model is everything a presenter needs to draw the list.
type Model struct {
	Rows  []Row
	Stats models.Stats
	Empty bool
}

// Build converts tasks, already filtered and ordered, into rows.
func Build(tasks []models.Task, stats models.Stats, today models.Date) Model {
	m := Model{
		Rows:  make([]Row, 0, len(tasks)),
		Stats: stats,
		Empty: len(tasks) == 0,
	}
	for _, t := range tasks {
		m.Rows = append(m.Rows, NewRow(t, today))
	}
	return m
}

// NewRow formats a single task.
func NewRow(t models.Task, today models.Date) Row {
	return Row{
		ID:            t.ID,
		Checked:       t.Completed,
		Text:          t.Text,
		Struck:        t.Completed,
		Priority:      t.Priority,
		PriorityLabel: PriorityIcon + " " + Capitalize(string(t.Priority)),
		CategoryLabel: Capitalize(string(t.Category)),
		DueLabel:      FormatDueDate(t.DueDate),
		Overdue:       t.IsOverdue(today),
	}
}

// FormatDueDate renders d as "Jan 5, 2025", or NoDueDate when absent.
func FormatDueDate(d *models.Date) string {
	if d == nil {
		return NoDueDate
	}
	return d.Time(time.UTC).Format(dueLayout)
}

// Capitalize upper-cases the first letter of s.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
