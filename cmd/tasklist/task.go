package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fentz26/tasklist/internal/models"
	"github.com/fentz26/tasklist/internal/taskstore"
	"github.com/fentz26/tasklist/internal/tui"
	"github.com/fentz26/tasklist/internal/view"
)

var addCmd = &cobra.Command{
	Use:   "add [text...]",
	Short: "Add a new task",
	Long: `Add a new task. The text may carry quick-entry tags:
  #category  !priority  @YYYY-MM-DD | @today | @tomorrow
Flags override tags.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	RunE:    runList,
}

var showCmd = &cobra.Command{
	Use:   "show [task-id]",
	Short: "Show task details",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var toggleCmd = &cobra.Command{
	Use:   "toggle [task-id...]",
	Short: "Mark tasks done, or reopen completed ones",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runToggle,
}

var editCmd = &cobra.Command{
	Use:   "edit [task-id]",
	Short: "Edit a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runEdit,
}

var rmCmd = &cobra.Command{
	Use:     "rm [task-id]",
	Aliases: []string{"delete"},
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	RunE:    runRm,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show task counts",
	RunE:  runStats,
}

var (
	taskCategory string
	taskPriority string
	taskDue      string
	taskText     string
	clearDue     bool

	listFilter   string
	listCategory string
	listSearch   string

	assumeYes bool
)

func init() {
	addCmd.Flags().StringVarP(&taskCategory, "category", "c", "", "Task category (default from config)")
	addCmd.Flags().StringVarP(&taskPriority, "priority", "p", "", "Task priority: low, medium, high (default from config)")
	addCmd.Flags().StringVar(&taskDue, "due", "", "Due date: YYYY-MM-DD, today or tomorrow")

	addViewFlags(listCmd)

	editCmd.Flags().StringVar(&taskText, "text", "", "New task text")
	editCmd.Flags().StringVarP(&taskCategory, "category", "c", "", "New category")
	editCmd.Flags().StringVarP(&taskPriority, "priority", "p", "", "New priority")
	editCmd.Flags().StringVar(&taskDue, "due", "", "New due date: YYYY-MM-DD, today or tomorrow")
	editCmd.Flags().BoolVar(&clearDue, "no-due", false, "Remove the due date")

	rmCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Delete without asking")
}

// addViewFlags registers the view selection flags shared by list and export.
func addViewFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&listFilter, "filter", string(models.FilterAll), "Completion filter: all, pending, completed")
	cmd.Flags().StringVar(&listCategory, "category", models.CategoryAll, "Category, or all")
	cmd.Flags().StringVarP(&listSearch, "search", "s", "", "Only tasks whose text contains this (case-insensitive)")
}

// applyView pushes the view flags into the store.
func applyView(ts *taskstore.TaskStore) error {
	if err := ts.SetFilter(listFilter); err != nil {
		return err
	}
	if err := ts.SetCategory(listCategory); err != nil {
		return err
	}
	ts.SetSearchQuery(listSearch)
	return nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	return withSession(func(s *session) error {
		entry := tui.ParseEntry(strings.Join(args, " "), s.tasks.Categories(), time.Now())

		cat := models.Category(cfg.DefaultCategory)
		if entry.HasCategory {
			cat = entry.Category
		}
		if taskCategory != "" {
			cat = models.Category(strings.ToLower(taskCategory))
		}

		prio := models.Priority(cfg.DefaultPriority)
		if entry.HasPriority {
			prio = entry.Priority
		}
		if taskPriority != "" {
			p, err := models.ParsePriority(taskPriority)
			if err != nil {
				return err
			}
			prio = p
		}

		due := entry.Due
		if taskDue != "" {
			d, err := tui.ParseDue(taskDue, time.Now())
			if err != nil {
				return err
			}
			due = &d
		}

		// A failed save still leaves the task in the collection, so its id
		// is reported before the error.
		t, err := s.tasks.AddTask(entry.Text, cat, prio, due)
		if t.ID != 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "Created task: %d\n", t.ID)
		}
		return err
	})
}

func runList(cmd *cobra.Command, args []string) error {
	return withSession(func(s *session) error {
		if err := applyView(s.tasks); err != nil {
			return err
		}
		m := view.Build(s.tasks.VisibleTasks(), s.tasks.Stats(), models.Today())
		printRows(cmd.OutOrStdout(), m)
		return nil
	})
}

func printRows(out io.Writer, m view.Model) {
	if m.Empty {
		fmt.Fprintln(out, "No tasks found")
	} else {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDONE\tTASK\tPRIORITY\tCATEGORY\tDUE")
		for _, r := range m.Rows {
			done := "[ ]"
			if r.Checked {
				done = "[x]"
			}
			due := r.DueLabel
			if r.Overdue {
				due += " (overdue)"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", r.ID, done, truncate(r.Text, 50), r.PriorityLabel, r.CategoryLabel, due)
		}
		w.Flush()
	}
	fmt.Fprintf(out, "\n%d total, %d pending, %d completed\n", m.Stats.Total, m.Stats.Pending, m.Stats.Completed)
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withSession(func(s *session) error {
		t, err := s.tasks.Get(id)
		if err != nil {
			return err
		}
		r := view.NewRow(t, models.Today())
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ID:        %d\n", t.ID)
		fmt.Fprintf(out, "Text:      %s\n", t.Text)
		status := "pending"
		if t.Completed {
			status = "completed"
		}
		fmt.Fprintf(out, "Status:    %s\n", status)
		fmt.Fprintf(out, "Priority:  %s\n", r.PriorityLabel)
		fmt.Fprintf(out, "Category:  %s\n", r.CategoryLabel)
		due := r.DueLabel
		if r.Overdue {
			due += " (overdue)"
		}
		fmt.Fprintf(out, "Due:       %s\n", due)
		fmt.Fprintf(out, "Created:   %s\n", t.CreatedAt.Local().Format(time.RFC3339))
		if t.CompletedAt != nil {
			fmt.Fprintf(out, "Completed: %s\n", t.CompletedAt.Local().Format(time.RFC3339))
		}
		return nil
	})
}

func runToggle(cmd *cobra.Command, args []string) error {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := parseID(a)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}
	return withSession(func(s *session) error {
		for _, id := range ids {
			if err := s.tasks.ToggleTask(id); err != nil {
				return err
			}
			t, err := s.tasks.Get(id)
			if err != nil {
				return err
			}
			if t.Completed {
				fmt.Fprintf(cmd.OutOrStdout(), "Completed task %d\n", id)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Reopened task %d\n", id)
			}
		}
		return nil
	})
}

func runEdit(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	return withSession(func(s *session) error {
		t, err := s.tasks.Get(id)
		if err != nil {
			return err
		}
		if flags.Changed("text") {
			t.Text = taskText
		}
		if flags.Changed("category") {
			t.Category = models.Category(strings.ToLower(taskCategory))
		}
		if flags.Changed("priority") {
			if t.Priority, err = models.ParsePriority(taskPriority); err != nil {
				return err
			}
		}
		switch {
		case clearDue:
			t.DueDate = nil
		case flags.Changed("due"):
			d, err := tui.ParseDue(taskDue, time.Now())
			if err != nil {
				return err
			}
			t.DueDate = &d
		}

		if err := s.tasks.EditTask(id, t.Text, t.Category, t.Priority, t.DueDate); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated task %d\n", id)
		return nil
	})
}

func runRm(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withSession(func(s *session) error {
		t, err := s.tasks.Get(id)
		if err != nil {
			return err
		}
		if !assumeYes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete task %d %q?", id, t.Text)) {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
			return nil
		}
		if err := s.tasks.DeleteTask(id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %d\n", id)
		return nil
	})
}

func runStats(cmd *cobra.Command, args []string) error {
	return withSession(func(s *session) error {
		st := s.tasks.Stats()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Total:     %d\n", st.Total)
		fmt.Fprintf(out, "Pending:   %d\n", st.Pending)
		fmt.Fprintf(out, "Completed: %d\n", st.Completed)
		return nil
	})
}

// --- Helpers ---

// confirm asks a y/N question on out and reads the answer from in.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}
