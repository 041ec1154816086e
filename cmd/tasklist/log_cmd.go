package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show recent task activity",
	Long:  `Show the activity journal: one entry per add, toggle, edit and delete. Requires the sqlite or mysql backend.`,
	RunE:  runLog,
}

var logLimit int

func init() {
	logCmd.Flags().IntVarP(&logLimit, "limit", "n", 20, "Number of entries to show")
}

func runLog(cmd *cobra.Command, args []string) error {
	return withSession(func(s *session) error {
		if s.journal == nil {
			return fmt.Errorf("the %s backend has no activity journal", cfg.Backend)
		}
		items, err := s.journal.Recent(logLimit)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No activity recorded")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tACTION\tTASK\tDETAILS\tINPUTS")
		for _, a := range items {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
				a.Timestamp.Local().Format(time.DateTime), a.Action, a.TaskID, truncate(a.Details, 40), a.InputsHash[:min(12, len(a.InputsHash))])
		}
		return w.Flush()
	})
}

