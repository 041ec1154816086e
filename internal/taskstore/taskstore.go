// Package taskstore holds the in-memory task collection, the current view
// selection, and the filter/sort pipeline that derives the visible list.
package taskstore

import (
	"errors"
	"io"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fentz26/tasklist/internal/models"
)

// Persistence loads and saves the whole task collection as a unit.
type Persistence interface {
	Load() ([]models.Task, error)
	Save(tasks []models.Task) error
}

// Recorder receives one entry per successful mutation.
type Recorder interface {
	Record(action string, inputs interface{}, taskID int64, details string) error
}

// Option configures a TaskStore.
type Option func(*TaskStore)

// WithCategories sets the valid category set.
func WithCategories(cats []models.Category) Option {
	return func(s *TaskStore) {
		if len(cats) > 0 {
			s.categories = append(models.CategorySet(nil), cats...)
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *TaskStore) { s.now = now }
}

// WithRecorder attaches an activity journal.
func WithRecorder(r Recorder) Option {
	return func(s *TaskStore) { s.recorder = r }
}

// WithLogger sets the logger used for non-fatal problems.
func WithLogger(l *log.Logger) Option {
	return func(s *TaskStore) { s.logger = l }
}

// TaskStore owns the task collection and the view selection.
// Every operation holds mu for its whole duration, so the mutate-then-save
// sequence always covers the full collection.
type TaskStore struct {
	mu         sync.Mutex
	persist    Persistence
	recorder   Recorder
	logger     *log.Logger
	now        func() time.Time
	categories models.CategorySet
	tasks      []models.Task
	view       models.ViewState
	maxID      int64

	// dirty is set by a mutation whose save has not yet succeeded.
	dirty bool
	// loadFailed means the stored collection was never read, so it must not
	// be overwritten by Close.
	loadFailed bool
}

// New creates a TaskStore and loads the collection from p.
// A load error is logged and the store starts empty.
func New(p Persistence, opts ...Option) (*TaskStore, error) {
	if p == nil {
		return nil, errors.New("taskstore: nil persistence")
	}
	s := &TaskStore{
		persist:    p,
		logger:     log.New(io.Discard, "", 0),
		now:        time.Now,
		categories: append(models.CategorySet(nil), models.DefaultCategories...),
		view:       models.DefaultViewState(),
	}
	for _, opt := range opts {
		opt(s)
	}

	loaded, err := p.Load()
	if err != nil {
		s.logger.Printf("load tasks: %v (starting empty)", err)
		loaded = nil
		s.loadFailed = true
	}
	s.tasks = make([]models.Task, 0, len(loaded))
	for _, t := range loaded {
		s.tasks = append(s.tasks, t.Clone())
		if t.ID > s.maxID {
			s.maxID = t.ID
		}
	}
	return s, nil
}

// Categories returns the configured category set.
func (s *TaskStore) Categories() models.CategorySet {
	return append(models.CategorySet(nil), s.categories...)
}

// --- Mutations ---

// AddTask creates a task. On a save failure the task is kept and returned
// together with a *SaveError.
func (s *TaskStore) AddTask(text string, category models.Category, priority models.Priority, due *models.Date) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	text, err := s.validate(text, category, priority)
	if err != nil {
		return models.Task{}, err
	}

	task := models.Task{
		ID:        s.nextID(),
		Text:      text,
		Category:  category,
		Priority:  priority,
		DueDate:   copyDate(due),
		CreatedAt: s.now().UTC(),
	}
	s.tasks = append(s.tasks, task)

	err = s.save("add task")
	s.record("task.add", map[string]interface{}{"text": text, "category": category, "priority": priority, "due": dateString(due)}, task.ID, "")
	return task.Clone(), err
}

// ToggleTask flips the completion state of a task.
func (s *TaskStore) ToggleTask(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return notFound(id)
	}

	t := &s.tasks[i]
	t.Completed = !t.Completed
	if t.Completed {
		at := s.now().UTC()
		t.CompletedAt = &at
	} else {
		t.CompletedAt = nil
	}

	err := s.save("toggle task")
	details := "reopened"
	if t.Completed {
		details = "completed"
	}
	s.record("task.toggle", map[string]int64{"id": id}, id, details)
	return err
}

// DeleteTask removes a task. Confirmation is the caller's concern.
func (s *TaskStore) DeleteTask(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return notFound(id)
	}

	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	if s.view.EditingID != nil && *s.view.EditingID == id {
		s.view.EditingID = nil
	}

	err := s.save("delete task")
	s.record("task.delete", map[string]int64{"id": id}, id, "")
	return err
}

// EditTask overwrites the editable fields of a task in place.
// Completion state and timestamps are left untouched.
func (s *TaskStore) EditTask(id int64, text string, category models.Category, priority models.Priority, due *models.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	text, err := s.validate(text, category, priority)
	if err != nil {
		return err
	}
	i := s.indexOf(id)
	if i < 0 {
		return notFound(id)
	}

	t := &s.tasks[i]
	t.Text = text
	t.Category = category
	t.Priority = priority
	t.DueDate = copyDate(due)
	if s.view.EditingID != nil && *s.view.EditingID == id {
		s.view.EditingID = nil
	}

	err = s.save("edit task")
	s.record("task.edit", map[string]interface{}{"id": id, "text": text, "category": category, "priority": priority, "due": dateString(due)}, id, "")
	return err
}

// Close retries the save of any mutation that failed to persist. It writes
// nothing when every mutation was saved, or when the initial load failed.
func (s *TaskStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}
	if s.loadFailed {
		s.logger.Printf("close: not saving, the stored collection was never loaded")
		return nil
	}
	return s.save("close")
}

// --- View state ---

// SetFilter selects the completion filter.
func (s *TaskStore) SetFilter(filter string) error {
	f, err := models.ParseFilter(filter)
	if err != nil {
		return validationf("%v", err)
	}
	s.mu.Lock()
	s.view.Filter = f
	s.mu.Unlock()
	return nil
}

// SetCategory selects a category, or models.CategoryAll.
func (s *TaskStore) SetCategory(category string) error {
	c := strings.ToLower(strings.TrimSpace(category))
	if c != models.CategoryAll && !s.categories.Contains(models.Category(c)) {
		return validationf("unknown category %q", category)
	}
	s.mu.Lock()
	s.view.Category = c
	s.mu.Unlock()
	return nil
}

// SetSearchQuery sets the search string. Matching is case-insensitive at query time.
func (s *TaskStore) SetSearchQuery(query string) {
	s.mu.Lock()
	s.view.SearchQuery = query
	s.mu.Unlock()
}

// BeginEdit marks a task as open for editing.
func (s *TaskStore) BeginEdit(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(id) < 0 {
		return notFound(id)
	}
	s.view.EditingID = &id
	return nil
}

// CancelEdit clears the editing selection.
func (s *TaskStore) CancelEdit() {
	s.mu.Lock()
	s.view.EditingID = nil
	s.mu.Unlock()
}

// View returns a copy of the current view state.
func (s *TaskStore) View() models.ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.view
	if v.EditingID != nil {
		id := *v.EditingID
		v.EditingID = &id
	}
	return v
}

// --- Queries ---

// Get returns a copy of a single task.
func (s *TaskStore) Get(id int64) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return models.Task{}, notFound(id)
	}
	return s.tasks[i].Clone(), nil
}

// All returns a copy of the collection in stored order.
func (s *TaskStore) All() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out
}

// VisibleTasks filters the collection by the current view state and sorts it:
// open tasks first, then higher priority, then newest. Ties keep stored order.
func (s *TaskStore) VisibleTasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Visible(s.tasks, s.view)
}

// Visible applies the filter/sort pipeline to tasks without modifying them.
func Visible(tasks []models.Task, view models.ViewState) []models.Task {
	query := strings.ToLower(view.SearchQuery)

	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if !view.Filter.Matches(t.Completed) {
			continue
		}
		if view.Category != "" && view.Category != models.CategoryAll && string(t.Category) != view.Category {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(t.Text), query) {
			continue
		}
		out = append(out, t.Clone())
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Completed != b.Completed {
			return !a.Completed
		}
		if ra, rb := a.Priority.Rank(), b.Priority.Rank(); ra != rb {
			return ra > rb
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return out
}

// Stats counts total, pending and completed tasks.
func (s *TaskStore) Stats() models.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := models.Stats{Total: len(s.tasks)}
	for _, t := range s.tasks {
		if t.Completed {
			st.Completed++
		}
	}
	st.Pending = st.Total - st.Completed
	return st
}

// --- Helpers ---

func (s *TaskStore) validate(text string, category models.Category, priority models.Priority) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", validationf("task text is empty")
	}
	if !s.categories.Contains(category) {
		return "", validationf("unknown category %q", category)
	}
	if !priority.Valid() {
		return "", validationf("unknown priority %q", priority)
	}
	return text, nil
}

func (s *TaskStore) indexOf(id int64) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// nextID hands out millisecond timestamps, bumped past the largest id seen.
func (s *TaskStore) nextID() int64 {
	id := s.now().UnixMilli()
	if id <= s.maxID {
		id = s.maxID + 1
	}
	s.maxID = id
	return id
}

func (s *TaskStore) save(op string) error {
	s.dirty = true
	snapshot := make([]models.Task, len(s.tasks))
	for i, t := range s.tasks {
		snapshot[i] = t.Clone()
	}
	if err := s.persist.Save(snapshot); err != nil {
		s.logger.Printf("%s: save failed, keeping in-memory state: %v", op, err)
		return &SaveError{Op: op, Err: err}
	}
	s.dirty = false
	return nil
}

func (s *TaskStore) record(action string, inputs interface{}, id int64, details string) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(action, inputs, id, details); err != nil {
		s.logger.Printf("record %s: %v", action, err)
	}
}

func copyDate(d *models.Date) *models.Date {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

func dateString(d *models.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}
