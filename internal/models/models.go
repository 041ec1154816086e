// Package models defines the core domain types for tasklist.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Priority is the urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists every priority from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Rank returns the sort weight of p: high=3, medium=2, low=1, unknown=0.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// ParsePriority converts a user-supplied string into a Priority.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown priority %q (want low, medium or high)", s)
	}
	return p, nil
}

// Category groups tasks. The valid set comes from configuration.
type Category string

// CategoryAll is the view selection that matches every category.
const CategoryAll = "all"

// DefaultCategories is the category set used when none is configured.
var DefaultCategories = []Category{"personal", "work", "shopping", "other"}

// CategorySet is an ordered, validated set of categories.
type CategorySet []Category

// Contains reports whether c is a member of the set.
func (s CategorySet) Contains(c Category) bool {
	for _, x := range s {
		if x == c {
			return true
		}
	}
	return false
}

// Parse normalises s and checks it against the set.
func (s CategorySet) Parse(raw string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Contains(c) {
		return "", fmt.Errorf("unknown category %q", raw)
	}
	return c, nil
}

// Filter selects tasks by completion state.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterPending   Filter = "pending"
	FilterCompleted Filter = "completed"
)

// Filters lists every completion filter in display order.
var Filters = []Filter{FilterAll, FilterPending, FilterCompleted}

// ParseFilter converts a string into a Filter.
func ParseFilter(s string) (Filter, error) {
	f := Filter(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FilterAll, FilterPending, FilterCompleted:
		return f, nil
	}
	return "", fmt.Errorf("unknown filter %q (want all, pending or completed)", s)
}

// Matches reports whether a task with the given completion state passes f.
func (f Filter) Matches(completed bool) bool {
	switch f {
	case FilterPending:
		return !completed
	case FilterCompleted:
		return completed
	default:
		return true
	}
}

// Task is a single to-do item.
type Task struct {
	ID          int64      `json:"id"`
	Text        string     `json:"text"`
	Completed   bool       `json:"completed"`
	Category    Category   `json:"category"`
	Priority    Priority   `json:"priority"`
	DueDate     *Date      `json:"dueDate"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Clone returns a deep copy of t so callers cannot alias stored pointers.
func (t Task) Clone() Task {
	c := t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	return c
}

// IsOverdue reports whether the task is still open and due strictly before today.
func (t Task) IsOverdue(today Date) bool {
	if t.Completed || t.DueDate == nil {
		return false
	}
	return t.DueDate.Before(today)
}

// ViewState is the transient selection that controls which tasks are visible.
type ViewState struct {
	Filter      Filter `json:"filter"`
	Category    string `json:"category"` // CategoryAll or a member of the category set
	SearchQuery string `json:"searchQuery"`
	EditingID   *int64 `json:"editingId,omitempty"`
}

// DefaultViewState shows everything.
func DefaultViewState() ViewState {
	return ViewState{Filter: FilterAll, Category: CategoryAll}
}

// Stats holds aggregate counts over the whole collection.
type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
}

// Activity is one entry of the mutation journal.
type Activity struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	TaskID     int64     `json:"task_id"`
	InputsHash string    `json:"inputs_hash"`
	Details    string    `json:"details,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// dateLayout is the wire and storage form of a Date.
const dateLayout = "2006-01-02"

// Date is a calendar day with no time component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the current local calendar day.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return DateOf(t), nil
}

// String formats d as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Time returns midnight of d in loc.
func (d Date) Time(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// MarshalJSON encodes d as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "YYYY-MM-DD".
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
