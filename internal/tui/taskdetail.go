package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/tasklist/internal/models"
	"github.com/fentz26/tasklist/internal/taskstore"
	"github.com/fentz26/tasklist/internal/view"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("240"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))
)

const timestampLayout = "Jan 2, 2006 15:04"

// TaskDetailModel manages the task detail screen
type TaskDetailModel struct {
	store   *taskstore.TaskStore
	now     func() time.Time
	taskID  int64
	task    *models.Task
	width   int
	height  int
	loading bool
	scroll  int
}

// NewTaskDetailModel creates a new task detail model
func NewTaskDetailModel(store *taskstore.TaskStore, now func() time.Time) *TaskDetailModel {
	return &TaskDetailModel{
		store:  store,
		now:    now,
		height: 20,
	}
}

// SetTask sets the task ID to display
func (m *TaskDetailModel) SetTask(id int64) {
	m.taskID = id
	m.task = nil
	m.scroll = 0
}

// TaskID returns the task being displayed.
func (m *TaskDetailModel) TaskID() int64 {
	return m.taskID
}

// SetSize sets the dimensions
func (m *TaskDetailModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Refresh re-reads the task from the store
func (m *TaskDetailModel) Refresh() tea.Cmd {
	m.loading = true
	id := m.taskID
	return func() tea.Msg {
		t, err := m.store.Get(id)
		if err != nil {
			return errMsg{err}
		}
		return taskDetailLoadedMsg{&t}
	}
}

// Update handles messages
func (m *TaskDetailModel) Update(msg tea.Msg) {
	switch msg := msg.(type) {
	case taskDetailLoadedMsg:
		if msg.task.ID != m.taskID {
			return
		}
		m.loading = false
		m.task = msg.task

	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			m.scroll++
		case "k", "up":
			if m.scroll > 0 {
				m.scroll--
			}
		}
	}
}

// View renders the task detail
func (m *TaskDetailModel) View() string {
	if m.loading || m.task == nil {
		return "Loading task details..."
	}

	t := m.task
	row := view.NewRow(*t, models.DateOf(m.now()))

	var b strings.Builder
	b.WriteString(headerStyle.Render(t.Text))
	b.WriteString("\n\n")

	status := "Pending"
	if t.Completed {
		status = "Completed"
	}
	b.WriteString(m.renderField("ID", fmt.Sprintf("%d", t.ID)))
	b.WriteString(m.renderField("Status", status))
	b.WriteString(m.renderField("Priority", formatPriority(row.Priority, row.PriorityLabel)))
	b.WriteString(m.renderField("Category", row.CategoryLabel))
	b.WriteString(m.renderField("Due", formatDue(row)))
	b.WriteString(m.renderField("Created", t.CreatedAt.Local().Format(timestampLayout)))
	if t.CompletedAt != nil {
		b.WriteString(m.renderField("Completed", t.CompletedAt.Local().Format(timestampLayout)))
	}

	// Apply scroll
	lines := strings.Split(b.String(), "\n")
	if m.scroll >= len(lines) {
		m.scroll = len(lines) - 1
	}
	if m.scroll < 0 {
		m.scroll = 0
	}
	visible := lines[m.scroll:]
	if m.height > 0 && len(visible) > m.height {
		visible = visible[:m.height]
	}

	return strings.Join(visible, "\n")
}

func (m *TaskDetailModel) renderField(label, value string) string {
	return fmt.Sprintf("%s %s\n", labelStyle.Render(label+":"), valueStyle.Render(value))
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}

type taskDetailLoadedMsg struct {
	task *models.Task
}
