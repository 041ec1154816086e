package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fentz26/tasklist/internal/models"
)

func date(t *testing.T, s string) *models.Date {
	t.Helper()
	d, err := models.ParseDate(s)
	require.NoError(t, err)
	return &d
}

func TestFormatDueDate(t *testing.T) {
	assert.Equal(t, "Jan 5, 2025", FormatDueDate(date(t, "2025-01-05")))
	assert.Equal(t, "Dec 31, 2024", FormatDueDate(date(t, "2024-12-31")))
	assert.Equal(t, NoDueDate, FormatDueDate(nil))
}

func TestNewRow(t *testing.T) {
	today := *date(t, "2025-01-10")
	task := models.Task{
		ID:       7,
		Text:     "Buy milk",
		Category: "shopping",
		Priority: models.PriorityHigh,
		DueDate:  date(t, "2025-01-05"),
	}

	row := NewRow(task, today)
	assert.Equal(t, int64(7), row.ID)
	assert.False(t, row.Checked)
	assert.False(t, row.Struck)
	assert.Equal(t, "⚑ High", row.PriorityLabel)
	assert.Equal(t, "Shopping", row.CategoryLabel)
	assert.Equal(t, "Jan 5, 2025", row.DueLabel)
	assert.True(t, row.Overdue)
}

func TestOverdue(t *testing.T) {
	today := *date(t, "2025-01-10")
	done := time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		task models.Task
		want bool
	}{
		{"past due open", models.Task{DueDate: date(t, "2025-01-09")}, true},
		{"due today", models.Task{DueDate: date(t, "2025-01-10")}, false},
		{"due tomorrow", models.Task{DueDate: date(t, "2025-01-11")}, false},
		{"past due completed", models.Task{DueDate: date(t, "2025-01-01"), Completed: true, CompletedAt: &done}, false},
		{"no due date", models.Task{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NewRow(tc.task, today).Overdue)
		})
	}
}

func TestBuild(t *testing.T) {
	today := *date(t, "2025-01-10")
	at := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	tasks := []models.Task{
		{ID: 1, Text: "a", Category: "work", Priority: models.PriorityLow},
		{ID: 2, Text: "b", Category: "work", Priority: models.PriorityMedium, Completed: true, CompletedAt: &at},
	}
	stats := models.Stats{Total: 5, Pending: 3, Completed: 2}

	m := Build(tasks, stats, today)
	require.Len(t, m.Rows, 2)
	assert.False(t, m.Empty)
	assert.Equal(t, stats, m.Stats)
	assert.True(t, m.Rows[1].Struck)
	assert.Equal(t, NoDueDate, m.Rows[0].DueLabel)

	empty := Build(nil, stats, today)
	assert.True(t, empty.Empty)
	assert.Empty(t, empty.Rows)
}
