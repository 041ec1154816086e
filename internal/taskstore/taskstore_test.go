package taskstore

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fentz26/tasklist/internal/models"
)

// memPersistence keeps the last saved collection in memory.
type memPersistence struct {
	tasks   []models.Task
	saves   int
	saveErr error
	loadErr error
}

func (m *memPersistence) Load() ([]models.Task, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return append([]models.Task(nil), m.tasks...), nil
}

func (m *memPersistence) Save(tasks []models.Task) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.tasks = append([]models.Task(nil), tasks...)
	return nil
}

type recordedAction struct {
	action string
	taskID int64
}

type fakeRecorder struct {
	entries []recordedAction
}

func (f *fakeRecorder) Record(action string, inputs interface{}, taskID int64, details string) error {
	f.entries = append(f.entries, recordedAction{action, taskID})
	return nil
}

// stepClock advances one minute on every call.
func stepClock(start time.Time) func() time.Time {
	now := start
	return func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
}

func newTestTaskStore(t *testing.T) (*TaskStore, *memPersistence) {
	t.Helper()
	p := &memPersistence{}
	s, err := New(p, WithClock(stepClock(time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC))))
	require.NoError(t, err)
	return s, p
}

func mustAdd(t *testing.T, s *TaskStore, text string, prio models.Priority) models.Task {
	t.Helper()
	task, err := s.AddTask(text, "personal", prio, nil)
	require.NoError(t, err)
	return task
}

func checkCompletedInvariant(t *testing.T, tasks []models.Task) {
	t.Helper()
	for _, task := range tasks {
		assert.Equal(t, task.Completed, task.CompletedAt != nil, "task %d completed/completedAt mismatch", task.ID)
	}
}

func TestAddTask(t *testing.T) {
	s, p := newTestTaskStore(t)

	due, err := models.ParseDate("2025-01-05")
	require.NoError(t, err)

	task, err := s.AddTask("  Buy milk  ", "shopping", models.PriorityHigh, &due)
	require.NoError(t, err)

	assert.NotZero(t, task.ID)
	assert.Equal(t, "Buy milk", task.Text)
	assert.False(t, task.Completed)
	assert.Nil(t, task.CompletedAt)
	assert.Equal(t, models.Category("shopping"), task.Category)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, "2025-01-05", task.DueDate.String())
	assert.False(t, task.CreatedAt.IsZero())

	assert.Equal(t, 1, p.saves)
	require.Len(t, p.tasks, 1)
	assert.Equal(t, task.ID, p.tasks[0].ID)
}

func TestAddTask_EmptyTextRejected(t *testing.T) {
	s, p := newTestTaskStore(t)
	mustAdd(t, s, "existing", models.PriorityLow)

	for _, text := range []string{"", "   ", "\t\n"} {
		_, err := s.AddTask(text, "work", models.PriorityLow, nil)
		assert.ErrorIs(t, err, ErrValidation)
	}
	assert.Len(t, s.All(), 1)
	assert.Equal(t, 1, p.saves)
}

func TestAddTask_UnknownEnumsRejected(t *testing.T) {
	s, _ := newTestTaskStore(t)

	_, err := s.AddTask("x", "garden", models.PriorityLow, nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.AddTask("x", "work", models.Priority("urgent"), nil)
	assert.ErrorIs(t, err, ErrValidation)

	assert.Empty(t, s.All())
}

func TestAddTask_UniqueIncreasingIDs(t *testing.T) {
	p := &memPersistence{}
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s, err := New(p, WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)

	seen := map[int64]bool{}
	var last int64
	for i := 0; i < 50; i++ {
		task := mustAdd(t, s, "same instant", models.PriorityLow)
		assert.False(t, seen[task.ID], "duplicate id %d", task.ID)
		assert.Greater(t, task.ID, last)
		seen[task.ID] = true
		last = task.ID
	}
}

func TestNew_IDsContinuePastLoaded(t *testing.T) {
	future := time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	p := &memPersistence{tasks: []models.Task{{ID: future, Text: "a", Category: "work", Priority: models.PriorityLow}}}
	s, err := New(p, WithClock(func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }))
	require.NoError(t, err)

	task := mustAdd(t, s, "b", models.PriorityLow)
	assert.Equal(t, future+1, task.ID)
}

func TestNew_LoadErrorStartsEmpty(t *testing.T) {
	s, err := New(&memPersistence{loadErr: errors.New("corrupt")})
	require.NoError(t, err)
	assert.Empty(t, s.All())
}

func TestToggleTask(t *testing.T) {
	s, p := newTestTaskStore(t)
	task := mustAdd(t, s, "walk dog", models.PriorityMedium)

	require.NoError(t, s.ToggleTask(task.ID))
	got, err := s.Get(task.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)
	require.NotNil(t, got.CompletedAt)
	checkCompletedInvariant(t, s.All())

	require.NoError(t, s.ToggleTask(task.ID))
	got, _ = s.Get(task.ID)
	assert.False(t, got.Completed)
	assert.Nil(t, got.CompletedAt)
	checkCompletedInvariant(t, p.tasks)
	assert.Equal(t, 3, p.saves)
}

func TestUnknownIDFailsWithoutMutation(t *testing.T) {
	s, p := newTestTaskStore(t)
	task := mustAdd(t, s, "keep me", models.PriorityLow)
	before := s.All()
	saves := p.saves

	assert.ErrorIs(t, s.ToggleTask(42), ErrNotFound)
	assert.ErrorIs(t, s.DeleteTask(42), ErrNotFound)
	assert.ErrorIs(t, s.EditTask(42, "new", "work", models.PriorityHigh, nil), ErrNotFound)
	assert.ErrorIs(t, s.BeginEdit(42), ErrNotFound)
	_, err := s.Get(42)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, before, s.All())
	assert.Equal(t, saves, p.saves)
	assert.Equal(t, task.ID, s.All()[0].ID)
}

func TestDeleteTask(t *testing.T) {
	s, p := newTestTaskStore(t)
	a := mustAdd(t, s, "a", models.PriorityLow)
	b := mustAdd(t, s, "b", models.PriorityLow)

	require.NoError(t, s.BeginEdit(a.ID))
	require.NoError(t, s.DeleteTask(a.ID))

	all := s.All()
	require.Len(t, all, 1)
	assert.Equal(t, b.ID, all[0].ID)
	assert.Nil(t, s.View().EditingID)
	assert.Len(t, p.tasks, 1)
}

func TestEditTask(t *testing.T) {
	s, _ := newTestTaskStore(t)
	task := mustAdd(t, s, "draft", models.PriorityLow)
	require.NoError(t, s.ToggleTask(task.ID))
	before, _ := s.Get(task.ID)

	due, _ := models.ParseDate("2025-03-01")
	require.NoError(t, s.EditTask(task.ID, " final ", "work", models.PriorityHigh, &due))

	got, _ := s.Get(task.ID)
	assert.Equal(t, "final", got.Text)
	assert.Equal(t, models.Category("work"), got.Category)
	assert.Equal(t, models.PriorityHigh, got.Priority)
	assert.Equal(t, "2025-03-01", got.DueDate.String())
	assert.Equal(t, before.CreatedAt, got.CreatedAt)
	assert.Equal(t, before.Completed, got.Completed)
	assert.Equal(t, before.CompletedAt, got.CompletedAt)

	require.NoError(t, s.EditTask(task.ID, "final", "work", models.PriorityHigh, nil))
	got, _ = s.Get(task.ID)
	assert.Nil(t, got.DueDate)
}

func TestEditTask_ValidationBeforeLookup(t *testing.T) {
	s, _ := newTestTaskStore(t)
	task := mustAdd(t, s, "keep", models.PriorityLow)

	assert.ErrorIs(t, s.EditTask(task.ID, "  ", "work", models.PriorityLow, nil), ErrValidation)
	assert.ErrorIs(t, s.EditTask(999, "", "work", models.PriorityLow, nil), ErrValidation)

	got, _ := s.Get(task.ID)
	assert.Equal(t, "keep", got.Text)
}

func TestViewStateSetters(t *testing.T) {
	s, _ := newTestTaskStore(t)

	assert.NoError(t, s.SetFilter("pending"))
	assert.NoError(t, s.SetCategory("Work"))
	s.SetSearchQuery("Anything At All")

	v := s.View()
	assert.Equal(t, models.FilterPending, v.Filter)
	assert.Equal(t, "work", v.Category)
	assert.Equal(t, "Anything At All", v.SearchQuery)

	assert.ErrorIs(t, s.SetFilter("done"), ErrValidation)
	assert.ErrorIs(t, s.SetCategory("garden"), ErrValidation)
	assert.Equal(t, v, s.View())

	assert.NoError(t, s.SetCategory("all"))
	assert.Equal(t, models.CategoryAll, s.View().Category)
}

func TestVisibleTasks_SortOrder(t *testing.T) {
	t1 := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	t3 := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	done := t3.Add(time.Hour)

	p := &memPersistence{tasks: []models.Task{
		{ID: 3, Text: "C", Completed: true, CompletedAt: &done, Category: "work", Priority: models.PriorityHigh, CreatedAt: t3},
		{ID: 1, Text: "A", Category: "work", Priority: models.PriorityLow, CreatedAt: t1},
		{ID: 2, Text: "B", Category: "work", Priority: models.PriorityHigh, CreatedAt: t2},
	}}
	s, err := New(p)
	require.NoError(t, err)

	var got []string
	for _, task := range s.VisibleTasks() {
		got = append(got, task.Text)
	}
	assert.Equal(t, []string{"B", "A", "C"}, got)

	// Stored order is untouched.
	assert.Equal(t, int64(3), s.All()[0].ID)
}

func TestVisibleTasks_NewestFirstWithinPriority(t *testing.T) {
	s, _ := newTestTaskStore(t)
	old := mustAdd(t, s, "old", models.PriorityMedium)
	mid := mustAdd(t, s, "mid", models.PriorityMedium)
	recent := mustAdd(t, s, "new", models.PriorityMedium)

	visible := s.VisibleTasks()
	require.Len(t, visible, 3)
	assert.Equal(t, []int64{recent.ID, mid.ID, old.ID}, []int64{visible[0].ID, visible[1].ID, visible[2].ID})
}

func TestVisibleTasks_StableForTies(t *testing.T) {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	p := &memPersistence{tasks: []models.Task{
		{ID: 10, Text: "first", Category: "work", Priority: models.PriorityLow, CreatedAt: at},
		{ID: 11, Text: "second", Category: "work", Priority: models.PriorityLow, CreatedAt: at},
		{ID: 12, Text: "third", Category: "work", Priority: models.PriorityLow, CreatedAt: at},
	}}
	s, err := New(p)
	require.NoError(t, err)

	visible := s.VisibleTasks()
	assert.Equal(t, []int64{10, 11, 12}, []int64{visible[0].ID, visible[1].ID, visible[2].ID})
}

func TestVisibleTasks_FilterPending(t *testing.T) {
	s, _ := newTestTaskStore(t)
	for i := 0; i < 5; i++ {
		task := mustAdd(t, s, "task", models.PriorityLow)
		if i < 3 {
			require.NoError(t, s.ToggleTask(task.ID))
		}
	}

	require.NoError(t, s.SetFilter("pending"))
	visible := s.VisibleTasks()
	assert.Len(t, visible, 2)
	for _, task := range visible {
		assert.False(t, task.Completed)
	}

	require.NoError(t, s.SetFilter("completed"))
	assert.Len(t, s.VisibleTasks(), 3)
}

func TestVisibleTasks_CategoryAndSearch(t *testing.T) {
	s, _ := newTestTaskStore(t)
	_, err := s.AddTask("Buy milk", "shopping", models.PriorityLow, nil)
	require.NoError(t, err)
	_, err = s.AddTask("Write report", "work", models.PriorityHigh, nil)
	require.NoError(t, err)
	_, err = s.AddTask("Buy stamps", "personal", models.PriorityLow, nil)
	require.NoError(t, err)

	s.SetSearchQuery("MILK")
	visible := s.VisibleTasks()
	require.Len(t, visible, 1)
	assert.Equal(t, "Buy milk", visible[0].Text)

	s.SetSearchQuery("buy")
	assert.Len(t, s.VisibleTasks(), 2)

	require.NoError(t, s.SetCategory("personal"))
	visible = s.VisibleTasks()
	require.Len(t, visible, 1)
	assert.Equal(t, "Buy stamps", visible[0].Text)

	s.SetSearchQuery("")
	require.NoError(t, s.SetCategory("work"))
	assert.Len(t, s.VisibleTasks(), 1)
}

func TestVisibleTasks_Deterministic(t *testing.T) {
	s, _ := newTestTaskStore(t)
	for _, prio := range []models.Priority{models.PriorityLow, models.PriorityHigh, models.PriorityMedium, models.PriorityHigh} {
		mustAdd(t, s, "t", prio)
	}
	first := s.VisibleTasks()
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, s.VisibleTasks())
	}
}

func TestVisibleTasks_ReturnsCopies(t *testing.T) {
	s, _ := newTestTaskStore(t)
	task := mustAdd(t, s, "orig", models.PriorityLow)

	visible := s.VisibleTasks()
	visible[0].Text = "mutated"

	got, _ := s.Get(task.ID)
	assert.Equal(t, "orig", got.Text)
}

func TestStats(t *testing.T) {
	s, _ := newTestTaskStore(t)
	assert.Equal(t, models.Stats{}, s.Stats())

	a := mustAdd(t, s, "a", models.PriorityLow)
	mustAdd(t, s, "b", models.PriorityLow)
	mustAdd(t, s, "c", models.PriorityLow)
	require.NoError(t, s.ToggleTask(a.ID))

	assert.Equal(t, models.Stats{Total: 3, Pending: 2, Completed: 1}, s.Stats())
}

func TestSaveFailureKeepsMutation(t *testing.T) {
	p := &memPersistence{saveErr: errors.New("disk full")}
	s, err := New(p)
	require.NoError(t, err)

	task, err := s.AddTask("still here", "work", models.PriorityLow, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSave)

	var saveErr *SaveError
	require.True(t, errors.As(err, &saveErr))
	assert.Equal(t, "add task", saveErr.Op)

	assert.NotZero(t, task.ID)
	assert.Len(t, s.All(), 1)

	assert.ErrorIs(t, s.ToggleTask(task.ID), ErrSave)
	got, _ := s.Get(task.ID)
	assert.True(t, got.Completed)
}

func TestClose_WithoutMutationDoesNotSave(t *testing.T) {
	p := &memPersistence{tasks: []models.Task{{ID: 1, Text: "kept", Priority: models.PriorityLow, Category: "work"}}}
	s, err := New(p)
	require.NoError(t, err)

	require.NoError(t, s.SetFilter("pending"))
	s.SetSearchQuery("kept")
	_ = s.VisibleTasks()

	require.NoError(t, s.Close())
	assert.Zero(t, p.saves)
}

func TestClose_AfterSavedMutationDoesNotSaveAgain(t *testing.T) {
	s, p := newTestTaskStore(t)
	mustAdd(t, s, "saved", models.PriorityLow)
	require.Equal(t, 1, p.saves)

	require.NoError(t, s.Close())
	assert.Equal(t, 1, p.saves)
}

func TestClose_RetriesFailedSave(t *testing.T) {
	p := &memPersistence{saveErr: errors.New("disk full")}
	s, err := New(p)
	require.NoError(t, err)

	_, err = s.AddTask("pending write", "work", models.PriorityLow, nil)
	require.ErrorIs(t, err, ErrSave)

	p.saveErr = nil
	require.NoError(t, s.Close())
	assert.Equal(t, 2, p.saves)
	require.Len(t, p.tasks, 1)
	assert.Equal(t, "pending write", p.tasks[0].Text)
}

func TestClose_AfterLoadErrorDoesNotOverwrite(t *testing.T) {
	p := &memPersistence{loadErr: errors.New("corrupt")}
	s, err := New(p)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.Zero(t, p.saves)

	p.saveErr = errors.New("read-only")
	_, err = s.AddTask("new", "work", models.PriorityLow, nil)
	require.ErrorIs(t, err, ErrSave)

	p.saveErr = nil
	require.NoError(t, s.Close())
	assert.Equal(t, 1, p.saves)
}

func TestRecorderReceivesMutations(t *testing.T) {
	rec := &fakeRecorder{}
	s, err := New(&memPersistence{}, WithRecorder(rec))
	require.NoError(t, err)

	task, err := s.AddTask("journal", "work", models.PriorityLow, nil)
	require.NoError(t, err)
	require.NoError(t, s.ToggleTask(task.ID))
	require.NoError(t, s.EditTask(task.ID, "journal 2", "work", models.PriorityLow, nil))
	require.NoError(t, s.DeleteTask(task.ID))
	_, _ = s.AddTask("", "work", models.PriorityLow, nil)

	var actions []string
	for _, e := range rec.entries {
		actions = append(actions, e.action)
		assert.Equal(t, task.ID, e.taskID)
	}
	assert.Equal(t, []string{"task.add", "task.toggle", "task.edit", "task.delete"}, actions)
}

func TestWithCategories(t *testing.T) {
	s, err := New(&memPersistence{}, WithCategories([]models.Category{"home", "garden"}))
	require.NoError(t, err)

	_, err = s.AddTask("weed", "garden", models.PriorityLow, nil)
	assert.NoError(t, err)
	_, err = s.AddTask("email", "work", models.PriorityLow, nil)
	assert.ErrorIs(t, err, ErrValidation)
	assert.NoError(t, s.SetCategory("home"))
}
