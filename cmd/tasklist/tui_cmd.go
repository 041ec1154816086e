package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/fentz26/tasklist/internal/models"
	"github.com/fentz26/tasklist/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive TUI",
	RunE:  runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	// The TUI owns the terminal, so log output goes to a file.
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	f, err := tea.LogToFile(cfg.LogFile, "tasklist")
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	s, err := openSession(cfg, log.Default())
	if err != nil {
		return err
	}

	app := tui.New(s.tasks, tui.Config{
		DefaultCategory: models.Category(cfg.DefaultCategory),
		DefaultPriority: models.Priority(cfg.DefaultPriority),
	})
	runErr := app.Run()

	if err := s.Close(); err != nil {
		log.Printf("close: %v", err)
		if runErr == nil {
			return err
		}
	}
	if runErr != nil {
		return fmt.Errorf("TUI error: %w", runErr)
	}
	return nil
}
