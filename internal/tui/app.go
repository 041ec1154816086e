// Package tui provides the interactive terminal UI for tasklist.
package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/tasklist/internal/models"
	"github.com/fentz26/tasklist/internal/taskstore"
	"github.com/fentz26/tasklist/internal/view"
)

var (
	// Colors
	primaryColor   = lipgloss.Color("#7C3AED")
	secondaryColor = lipgloss.Color("#6366F1")
	successColor   = lipgloss.Color("#10B981")
	warningColor   = lipgloss.Color("#F59E0B")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#6B7280")
	fgColor        = lipgloss.Color("#F9FAFB")
	cyanColor      = lipgloss.Color("#06B6D4")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	taskItemStyle = lipgloss.NewStyle().
			Padding(0, 2)

	selectedStyle = lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(fgColor).
			Bold(true).
			Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	statPendingStyle = lipgloss.NewStyle().
				Foreground(warningColor).
				Bold(true)

	statDoneStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)
)

// Modes
const (
	modeList    = "list"
	modeAdd     = "add"
	modeEdit    = "edit"
	modeSearch  = "search"
	modeConfirm = "confirm"
	modeDetail  = "detail"
)

const entryPlaceholder = "Buy milk #shopping !high @tomorrow"

// Config carries the defaults applied to quick entries.
type Config struct {
	DefaultCategory models.Category
	DefaultPriority models.Priority
	// Now overrides the clock used for "today", overdue markers and @dates.
	Now func() time.Time
}

// App is the main TUI application model.
type App struct {
	store         *taskstore.TaskStore
	categories    models.CategorySet
	defaultCat    models.Category
	defaultPrio   models.Priority
	now           func() time.Time
	model         view.Model
	selectedIdx   int
	input         textinput.Model
	width         int
	height        int
	mode          string
	message       string
	pendingDelete int64
	suggestions   *Suggestions
	detail        *TaskDetailModel
}

// New creates a TUI application over store.
func New(store *taskstore.TaskStore, cfg Config) *App {
	ti := textinput.New()
	ti.Placeholder = entryPlaceholder
	ti.CharLimit = 256
	ti.Width = 80

	cats := store.Categories()
	if cfg.DefaultCategory == "" || !cats.Contains(cfg.DefaultCategory) {
		cfg.DefaultCategory = cats[0]
	}
	if !cfg.DefaultPriority.Valid() {
		cfg.DefaultPriority = models.PriorityMedium
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	a := &App{
		store:       store,
		categories:  cats,
		defaultCat:  cfg.DefaultCategory,
		defaultPrio: cfg.DefaultPriority,
		now:         cfg.Now,
		input:       ti,
		mode:        modeList,
		suggestions: NewSuggestions(cats),
		detail:      NewTaskDetailModel(store, cfg.Now),
	}
	a.refresh()
	return a
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		switch a.mode {
		case modeAdd, modeEdit, modeSearch:
			return a.updateInput(msg)
		case modeConfirm:
			return a.updateConfirm(msg)
		case modeDetail:
			return a.updateDetail(msg)
		default:
			return a.updateList(msg)
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.input.Width = msg.Width - 4
		a.detail.SetSize(msg.Width, msg.Height-6)

	case taskDetailLoadedMsg:
		a.detail.Update(msg)

	case commandResultMsg:
		a.message = msg.message
		if a.mode != modeDetail {
			a.closeInput()
		}
		a.refresh()
		if a.mode == modeDetail {
			return a, a.detail.Refresh()
		}

	case errMsg:
		a.message = "Error: " + msg.err.Error()
		// A validation error leaves the entry open so it can be corrected.
		if !errors.Is(msg.err, taskstore.ErrValidation) {
			if errors.Is(msg.err, taskstore.ErrNotFound) && a.mode == modeDetail {
				a.mode = modeList
			}
			if a.mode != modeDetail {
				a.closeInput()
			}
		}
		a.refresh()
	}
	return a, nil
}

func (a *App) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit

	case "up", "k":
		if a.selectedIdx > 0 {
			a.selectedIdx--
		}

	case "down", "j":
		if a.selectedIdx < len(a.model.Rows)-1 {
			a.selectedIdx++
		}

	case " ", "x":
		if row := a.selectedRow(); row != nil {
			return a, a.toggleTask(row.ID)
		}

	case "a", "i", "n":
		a.openInput(modeAdd, "")

	case "e":
		row := a.selectedRow()
		if row == nil {
			return a, nil
		}
		return a, a.beginEdit(row.ID)

	case "d", "delete":
		if row := a.selectedRow(); row != nil {
			a.pendingDelete = row.ID
			a.mode = modeConfirm
			a.message = ""
		}

	case "/":
		a.openInput(modeSearch, a.store.View().SearchQuery)

	case "f", "tab":
		a.cycleFilter()

	case "c":
		a.cycleCategory()

	case "enter":
		if row := a.selectedRow(); row != nil {
			a.mode = modeDetail
			a.detail.SetTask(row.ID)
			return a, a.detail.Refresh()
		}

	case "esc":
		if a.store.View().SearchQuery != "" {
			a.store.SetSearchQuery("")
			a.message = ""
			a.refresh()
		}
	}
	return a, nil
}

func (a *App) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if a.mode == modeEdit {
			a.store.CancelEdit()
		}
		a.closeInput()
		return a, nil

	case "tab":
		if a.suggestions.IsVisible() {
			a.input.SetValue(a.suggestions.Complete(a.input.Value()))
			a.input.CursorEnd()
		}
		return a, nil

	case "up":
		if a.suggestions.IsVisible() {
			a.suggestions.Prev()
		}
		return a, nil

	case "down":
		if a.suggestions.IsVisible() {
			a.suggestions.Next()
		}
		return a, nil

	case "enter":
		if a.suggestions.IsVisible() {
			a.input.SetValue(a.suggestions.Complete(a.input.Value()))
			a.input.CursorEnd()
			return a, nil
		}
		return a, a.submit(strings.TrimSpace(a.input.Value()))
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	if a.mode == modeSearch {
		a.store.SetSearchQuery(a.input.Value())
		a.refresh()
	} else {
		a.suggestions.Update(a.input.Value())
	}
	return a, cmd
}

func (a *App) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := a.pendingDelete
	a.pendingDelete = 0
	a.mode = modeList
	if msg.String() == "y" || msg.String() == "Y" {
		return a, a.deleteTask(id)
	}
	a.message = "Delete cancelled"
	return a, nil
}

func (a *App) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := a.detail.TaskID()
	switch msg.String() {
	case "esc", "enter", "q":
		a.mode = modeList
		a.refresh()
	case " ", "x":
		return a, a.toggleTask(id)
	case "e":
		a.mode = modeList
		return a, a.beginEdit(id)
	case "d":
		a.pendingDelete = id
		a.mode = modeConfirm
	default:
		a.detail.Update(msg)
	}
	return a, nil
}

func (a *App) submit(value string) tea.Cmd {
	switch a.mode {
	case modeSearch:
		a.closeInput()
		return nil
	case modeAdd:
		return a.addTask(value)
	case modeEdit:
		if id := a.store.View().EditingID; id != nil {
			return a.editTask(*id, value)
		}
		a.closeInput()
	}
	return nil
}

// --- Store commands ---

func (a *App) addTask(line string) tea.Cmd {
	return func() tea.Msg {
		e := ParseEntry(line, a.categories, a.now())
		if !e.HasCategory {
			e.Category = a.defaultCat
		}
		if !e.HasPriority {
			e.Priority = a.defaultPrio
		}
		t, err := a.store.AddTask(e.Text, e.Category, e.Priority, e.Due)
		if err != nil {
			return errMsg{err}
		}
		return commandResultMsg{fmt.Sprintf("✓ Added: %s", t.Text)}
	}
}

func (a *App) editTask(id int64, line string) tea.Cmd {
	return func() tea.Msg {
		cur, err := a.store.Get(id)
		if err != nil {
			return errMsg{err}
		}
		e := ParseEntry(line, a.categories, a.now())
		if !e.HasCategory {
			e.Category = cur.Category
		}
		if !e.HasPriority {
			e.Priority = cur.Priority
		}
		if err := a.store.EditTask(id, e.Text, e.Category, e.Priority, e.Due); err != nil {
			return errMsg{err}
		}
		return commandResultMsg{"✓ Task updated"}
	}
}

func (a *App) toggleTask(id int64) tea.Cmd {
	return func() tea.Msg {
		if err := a.store.ToggleTask(id); err != nil {
			return errMsg{err}
		}
		t, err := a.store.Get(id)
		if err == nil && t.Completed {
			return commandResultMsg{"✓ Completed: " + t.Text}
		}
		return commandResultMsg{"Reopened task"}
	}
}

func (a *App) deleteTask(id int64) tea.Cmd {
	return func() tea.Msg {
		if err := a.store.DeleteTask(id); err != nil {
			return errMsg{err}
		}
		return commandResultMsg{"✓ Task deleted"}
	}
}

func (a *App) beginEdit(id int64) tea.Cmd {
	t, err := a.store.Get(id)
	if err == nil {
		err = a.store.BeginEdit(id)
	}
	if err != nil {
		return func() tea.Msg { return errMsg{err} }
	}
	a.openInput(modeEdit, FormatEntry(t))
	return nil
}

// --- View state ---

func (a *App) cycleFilter() {
	cur := a.store.View().Filter
	next := models.Filters[0]
	for i, f := range models.Filters {
		if f == cur {
			next = models.Filters[(i+1)%len(models.Filters)]
			break
		}
	}
	if err := a.store.SetFilter(string(next)); err != nil {
		a.message = "Error: " + err.Error()
		return
	}
	a.selectedIdx = 0
	a.refresh()
}

func (a *App) cycleCategory() {
	options := make([]string, 0, len(a.categories)+1)
	options = append(options, models.CategoryAll)
	for _, c := range a.categories {
		options = append(options, string(c))
	}

	cur := a.store.View().Category
	next := options[0]
	for i, c := range options {
		if c == cur {
			next = options[(i+1)%len(options)]
			break
		}
	}
	if err := a.store.SetCategory(next); err != nil {
		a.message = "Error: " + err.Error()
		return
	}
	a.selectedIdx = 0
	a.refresh()
}

func (a *App) openInput(mode, value string) {
	a.mode = mode
	a.message = ""
	a.input.SetValue(value)
	a.input.CursorEnd()
	if mode == modeSearch {
		a.input.Placeholder = "Search tasks..."
	} else {
		a.input.Placeholder = entryPlaceholder
	}
	a.input.Focus()
	a.suggestions.Update("")
}

func (a *App) closeInput() {
	if a.mode == modeEdit {
		a.store.CancelEdit()
	}
	a.mode = modeList
	a.input.SetValue("")
	a.input.Blur()
	a.suggestions.Update("")
}

// refresh rebuilds the view model from the store.
func (a *App) refresh() {
	a.model = view.Build(a.store.VisibleTasks(), a.store.Stats(), models.DateOf(a.now()))
	if a.selectedIdx >= len(a.model.Rows) {
		a.selectedIdx = max(0, len(a.model.Rows)-1)
	}
}

func (a *App) selectedRow() *view.Row {
	if a.selectedIdx < 0 || a.selectedIdx >= len(a.model.Rows) {
		return nil
	}
	return &a.model.Rows[a.selectedIdx]
}

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	stats := a.model.Stats
	header := titleStyle.Render("✔ TASKLIST")
	header += "  " + lipgloss.NewStyle().Foreground(cyanColor).Render(fmt.Sprintf("%d total", stats.Total))
	header += "  " + statPendingStyle.Render(fmt.Sprintf("%d pending", stats.Pending))
	header += "  " + statDoneStyle.Render(fmt.Sprintf("%d done", stats.Completed))

	b.WriteString(header + "\n")
	b.WriteString(strings.Repeat("─", max(a.width, 20)) + "\n")

	contentHeight := a.height - 8
	if contentHeight < 5 {
		contentHeight = 5
	}

	switch a.mode {
	case modeDetail:
		b.WriteString(a.detail.View())
	default:
		b.WriteString(a.renderViewBar() + "\n")
		b.WriteString(a.renderTaskList(contentHeight - 1))
	}

	// Message bar
	if a.mode == modeConfirm {
		b.WriteString("\n" + lipgloss.NewStyle().Foreground(warningColor).Bold(true).
			Render(fmt.Sprintf("Delete %q? (y/n)", a.pendingText())))
	} else if a.message != "" {
		msgStyle := lipgloss.NewStyle().Foreground(successColor)
		if strings.HasPrefix(a.message, "Error") {
			msgStyle = lipgloss.NewStyle().Foreground(errorColor)
		}
		b.WriteString("\n" + msgStyle.Render(a.message))
	} else {
		b.WriteString("\n")
	}

	if a.inputActive() {
		b.WriteString("\n")
		b.WriteString(inputBoxStyle.Render(a.input.View()))
		if a.suggestions.IsVisible() {
			b.WriteString("\n")
			b.WriteString(a.suggestions.Render(a.width))
		}
	}
	b.WriteString("\n")

	var status string
	switch a.mode {
	case modeAdd:
		status = " New task | #category !priority @date | Tab:complete | Enter:save | Esc:cancel"
	case modeEdit:
		status = " Editing | Enter:save | Esc:cancel"
	case modeSearch:
		status = " Search | Enter:keep | Esc:close"
	case modeConfirm:
		status = " y:delete | any other key:cancel"
	case modeDetail:
		status = " Space:toggle | e:edit | d:delete | Esc:back"
	default:
		status = fmt.Sprintf(" Tasks: %d | ↑↓:nav | Space:done | a:add | e:edit | d:delete | /:search | f:filter | c:category | q:quit", len(a.model.Rows))
	}
	b.WriteString(statusBarStyle.Width(max(a.width, 20)).Render(status))

	return b.String()
}

func (a *App) renderViewBar() string {
	v := a.store.View()
	label := fmt.Sprintf(" Filter: [%s]  Category: [%s]", strings.ToUpper(string(v.Filter)), strings.ToUpper(v.Category))
	if v.SearchQuery != "" {
		label += fmt.Sprintf("  Search: %q", v.SearchQuery)
	}
	return lipgloss.NewStyle().Foreground(mutedColor).Render(label)
}

func (a *App) inputActive() bool {
	return a.mode == modeAdd || a.mode == modeEdit || a.mode == modeSearch
}

func (a *App) pendingText() string {
	if t, err := a.store.Get(a.pendingDelete); err == nil {
		return truncate(t.Text, 40)
	}
	return fmt.Sprintf("task %d", a.pendingDelete)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

type commandResultMsg struct {
	message string
}

type errMsg struct {
	err error
}
