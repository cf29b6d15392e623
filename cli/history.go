package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yllada/nebula-tower/history"
)

var historyLimit int

func init() {
	rootCmd.AddCommand(cmdHistory)
	cmdHistory.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of runs to show")
}

var cmdHistory = &cobra.Command{
	Use:   "history",
	Short: "List recent nebula runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyLimit <= 0 {
			return errors.New("limit must be greater than 0")
		}
		paths, err := appPaths()
		if err != nil {
			return err
		}
		if err := paths.Ensure(); err != nil {
			return err
		}
		store, err := history.Open(paths.HistoryFile())
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.Recent(commandContext(cmd), historyLimit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, "No runs recorded yet.")
			return nil
		}

		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Last %d runs", len(runs))))
		now := time.Now()
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tPID\tDURATION\tEND\tSTATUS")
		for _, run := range runs {
			end, status := "running", ""
			if run.Ended() {
				end, status = string(run.Reason), run.ExitStatus
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
				run.StartedAt.Format(time.DateTime),
				run.PID,
				run.Duration(now).Round(time.Second),
				end,
				orDash(status),
			)
		}
		return w.Flush()
	},
}
