package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"relpack/internal/history"
)

func newRunsCommand() *cobra.Command {
	var limit int
	var historyPath string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded workflow runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := history.Open(historyPath)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded yet")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				status := "completed"
				if run.Aborted {
					status = "aborted"
				} else if run.Failed > 0 {
					status = "completed with failures"
				}
				rows = append(rows, []string{
					run.StartedAt.Local().Format("2006-01-02 15:04:05"),
					fmt.Sprintf("%s - %s", run.Artist, run.Title),
					status,
					fmt.Sprintf("%d/%d/%d", run.Succeeded, run.Skipped, run.Failed),
					run.Elapsed.Round(time.Millisecond).String(),
					run.ErrorMessage,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Started", "Release", "Status", "OK/Skip/Fail", "Elapsed", "Error"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	cmd.Flags().StringVar(&historyPath, "history", defaultHistoryPath, "Run history database location")
	return cmd
}
