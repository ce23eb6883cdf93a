package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/skillbridge/skillbridge/internal/config"
	"github.com/skillbridge/skillbridge/internal/journal"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent career pivot runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := config.LoadSettings()
		if !settings.JournalEnabled() {
			return fmt.Errorf("run journal is disabled (JOURNAL_PATH=%q)", settings.JournalPath)
		}
		limit, _ := cmd.Flags().GetInt("limit")

		j, err := journal.Open(settings.JournalPath)
		if err != nil {
			return err
		}
		defer j.Close()

		runs, err := j.Recent(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tRUN\tSTATUS\tROLE\tPASSES\tCONVERGED\tDURATION")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%t\t%s\n",
				r.StartedAt.Local().Format("2006-01-02 15:04"),
				r.ID, r.Status, r.TargetRole, r.WritingPasses, r.Converged,
				r.Duration().Round(time.Millisecond))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 10, "Number of runs to show")
}
