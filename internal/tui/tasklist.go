package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/tasklist/internal/models"
	"github.com/fentz26/tasklist/internal/view"
)

var (
	priorityHigh   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")) // Red
	priorityMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("3")) // Yellow
	priorityLow    = lipgloss.NewStyle().Foreground(lipgloss.Color("2")) // Green

	categoryStyle = lipgloss.NewStyle().Foreground(cyanColor)
	dueStyle      = lipgloss.NewStyle().Foreground(mutedColor)
	overdueStyle  = lipgloss.NewStyle().Foreground(warningColor).Bold(true)
	doneTextStyle = lipgloss.NewStyle().Foreground(mutedColor).Strikethrough(true)
)

const overdueMarker = "⚠ overdue"

func formatPriority(p models.Priority, label string) string {
	switch p {
	case models.PriorityHigh:
		return priorityHigh.Render(label)
	case models.PriorityMedium:
		return priorityMedium.Render(label)
	case models.PriorityLow:
		return priorityLow.Render(label)
	default:
		return label
	}
}

func checkbox(checked bool) string {
	if checked {
		return "[x]"
	}
	return "[ ]"
}

// formatDue renders the due label with the overdue marker when it applies.
func formatDue(r view.Row) string {
	if r.Overdue {
		return overdueStyle.Render(r.DueLabel + " " + overdueMarker)
	}
	return dueStyle.Render(r.DueLabel)
}

// formatRow renders a row with colours.
func formatRow(r view.Row) string {
	text := r.Text
	if r.Struck {
		text = doneTextStyle.Render(text)
	}
	return fmt.Sprintf("%s %s  %s  %s  %s",
		checkbox(r.Checked), text,
		formatPriority(r.Priority, r.PriorityLabel),
		categoryStyle.Render(r.CategoryLabel),
		formatDue(r))
}

// formatRowPlain renders a row without inner styles, for the highlighted line.
func formatRowPlain(r view.Row) string {
	due := r.DueLabel
	if r.Overdue {
		due += " " + overdueMarker
	}
	return fmt.Sprintf("%s %s  %s  %s  %s", checkbox(r.Checked), r.Text, r.PriorityLabel, r.CategoryLabel, due)
}

func (a *App) renderTaskList(height int) string {
	if a.model.Empty {
		if a.model.Stats.Total == 0 {
			return "\n  " + helpStyle.Render("No tasks yet. Press a to add one.") + "\n"
		}
		return "\n  " + helpStyle.Render("No tasks match the current filter.") + "\n"
	}

	var lines []string
	for i, row := range a.model.Rows {
		if i == a.selectedIdx {
			lines = append(lines, selectedStyle.Render("▶ "+formatRowPlain(row)))
		} else {
			lines = append(lines, taskItemStyle.Render(formatRow(row)))
		}
	}

	// Limit visible lines
	if len(lines) > height {
		start := a.selectedIdx - height/2
		if start < 0 {
			start = 0
		}
		end := start + height
		if end > len(lines) {
			end = len(lines)
			start = max(0, end-height)
		}
		lines = lines[start:end]
	}

	return strings.Join(lines, "\n")
}
