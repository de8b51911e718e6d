package commands

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"composewait/internal/db"
)

// HistoryCommand creates the history command
func HistoryCommand(deps *Dependencies) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded poll runs, or the attempts of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := deps.Config().HistoryPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); os.IsNotExist(err) {
				fmt.Fprintln(deps.out(), "No runs recorded.")
				return nil
			}

			database, err := db.Open(path)
			if err != nil {
				return err
			}
			defer database.Close()
			repo := db.NewRunRepository(database)

			if len(args) == 1 {
				return printAttempts(cmd, deps, repo, args[0])
			}
			return printRuns(cmd, deps, repo, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")

	return cmd
}

func printRuns(cmd *cobra.Command, deps *Dependencies, repo db.RunManager, limit int) error {
	runs, err := repo.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(deps.out(), "No runs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(deps.out(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSTATUS\tATTEMPTS\tCOMPOSE FILE\tSTARTED\tDURATION")
	for _, run := range runs {
		duration := "-"
		if run.FinishedAt.Valid {
			duration = run.Duration().Round(time.Millisecond).String()
		}
		fmt.Fprintf(w, "%s\t%s\t%d/%d\t%s\t%s\t%s\n",
			run.ID, run.Status, run.Attempts, run.MaxRetries, run.ComposeFile,
			run.StartedAt.Local().Format(time.DateTime), duration)
	}
	return w.Flush()
}

func printAttempts(cmd *cobra.Command, deps *Dependencies, repo db.RunManager, runID string) error {
	if _, err := repo.GetRun(cmd.Context(), runID); err != nil {
		return err
	}
	attempts, err := repo.ListAttempts(cmd.Context(), runID)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(deps.out(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ATTEMPT\tHEALTHY\tREADY\tNOT READY\tSKIPPED\tERROR")
	for _, a := range attempts {
		errMsg := a.Error
		if errMsg == "" {
			errMsg = "-"
		}
		fmt.Fprintf(w, "%d\t%t\t%d\t%d\t%d\t%s\n", a.Attempt, a.Healthy, a.Ready, a.NotReady, a.Skipped, errMsg)
	}
	return w.Flush()
}
