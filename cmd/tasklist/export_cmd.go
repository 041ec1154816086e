package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fentz26/tasklist/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the visible task list",
	Long:  `Export the tasks matching --filter, --category and --search as json, csv, pdf or ics.`,
	RunE:  runExport,
}

var (
	exportFormat string
	exportOutput string
)

func init() {
	addViewFlags(exportCmd)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", export.FormatJSON, "Output format: "+strings.Join(export.Formats, ", "))
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to file instead of stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	format := strings.ToLower(exportFormat)
	if format == export.FormatPDF && exportOutput == "" {
		return fmt.Errorf("pdf export needs --output")
	}

	return withSession(func(s *session) error {
		if err := applyView(s.tasks); err != nil {
			return err
		}

		if exportOutput == "" {
			if err := export.New().Export(cmd.OutOrStdout(), format, s.tasks.VisibleTasks(), s.tasks.Stats()); err != nil {
				return fmt.Errorf("export %s: %w", format, err)
			}
			return nil
		}

		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportOutput, err)
		}
		if err := export.New().Export(f, format, s.tasks.VisibleTasks(), s.tasks.Stats()); err != nil {
			f.Close()
			return fmt.Errorf("export %s: %w", format, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s: %w", exportOutput, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", exportOutput)
		return nil
	})
}
