package store

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/fentz26/tasklist/internal/models"
)

// timeLayout is a fixed-width RFC 3339 form so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// record is the persisted shape of a task before validation. Every field is
// kept loose so a single malformed entry can be rejected on its own.
type record struct {
	ID          int64   `json:"id"`
	Text        string  `json:"text"`
	Completed   bool    `json:"completed"`
	Category    string  `json:"category"`
	Priority    string  `json:"priority"`
	DueDate     *string `json:"dueDate"`
	CreatedAt   string  `json:"createdAt"`
	CompletedAt *string `json:"completedAt,omitempty"`
}

func toRecord(t models.Task) record {
	r := record{
		ID:        t.ID,
		Text:      t.Text,
		Completed: t.Completed,
		Category:  string(t.Category),
		Priority:  string(t.Priority),
		CreatedAt: t.CreatedAt.UTC().Format(timeLayout),
	}
	if t.DueDate != nil {
		d := t.DueDate.String()
		r.DueDate = &d
	}
	if t.CompletedAt != nil {
		at := t.CompletedAt.UTC().Format(timeLayout)
		r.CompletedAt = &at
	}
	return r
}

// toTask validates r. Unknown enum values, empty text and unparsable dates are
// errors; a completed flag that disagrees with completedAt is repaired.
func (r record) toTask(cats models.CategorySet) (models.Task, error) {
	text := strings.TrimSpace(r.Text)
	if text == "" {
		return models.Task{}, fmt.Errorf("empty text")
	}
	prio := models.Priority(r.Priority)
	if !prio.Valid() {
		return models.Task{}, fmt.Errorf("unknown priority %q", r.Priority)
	}
	cat := models.Category(r.Category)
	if cat == "" || (len(cats) > 0 && !cats.Contains(cat)) {
		return models.Task{}, fmt.Errorf("unknown category %q", r.Category)
	}
	created, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
	if err != nil {
		return models.Task{}, fmt.Errorf("bad createdAt %q", r.CreatedAt)
	}

	t := models.Task{
		ID:        r.ID,
		Text:      text,
		Completed: r.Completed,
		Category:  cat,
		Priority:  prio,
		CreatedAt: created.UTC(),
	}
	if r.DueDate != nil && strings.TrimSpace(*r.DueDate) != "" {
		d, err := models.ParseDate(*r.DueDate)
		if err != nil {
			return models.Task{}, err
		}
		t.DueDate = &d
	}
	if r.CompletedAt != nil {
		if at, err := time.Parse(time.RFC3339Nano, *r.CompletedAt); err == nil {
			at = at.UTC()
			t.CompletedAt = &at
		}
	}

	switch {
	case t.Completed && t.CompletedAt == nil:
		at := t.CreatedAt
		t.CompletedAt = &at
	case !t.Completed && t.CompletedAt != nil:
		t.CompletedAt = nil
	}
	return t, nil
}

// sanitize converts records to tasks, dropping invalid entries and duplicate ids.
func sanitize(records []record, cats models.CategorySet, logger *log.Logger) []models.Task {
	seen := make(map[int64]bool, len(records))
	tasks := make([]models.Task, 0, len(records))
	for _, r := range records {
		if seen[r.ID] {
			logger.Printf("load: dropping task %d: duplicate id", r.ID)
			continue
		}
		t, err := r.toTask(cats)
		if err != nil {
			logger.Printf("load: dropping task %d: %v", r.ID, err)
			continue
		}
		seen[r.ID] = true
		tasks = append(tasks, t)
	}
	return tasks
}
