package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yllada/nebula-tower/common"
	"github.com/yllada/nebula-tower/history"
	"github.com/yllada/nebula-tower/tray"
)

func init() {
	rootCmd.AddCommand(cmdRun)
}

var cmdRun = &cobra.Command{
	Use:   "run",
	Short: "Supervise nebula without the tray indicator",
	Long: `Starts nebula and supervises it from the terminal until interrupted.
Latency and state changes are written to the log; an unexpected exit of nebula
is reported but does not end the command.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := appPaths()
		if err != nil {
			return err
		}
		if err := paths.Ensure(); err != nil {
			return err
		}
		logger := common.GetLogger()

		opts := tray.Options{
			Paths:     paths,
			Logger:    logger,
			Publisher: tray.NewLogPublisher(logger),
			Notifier:  tray.LogNotifier{Logger: logger},
		}
		if store, err := history.Open(paths.HistoryFile()); err != nil {
			common.LogWarn("Run history disabled: %v", err)
		} else {
			defer store.Close()
			opts.Recorder = store
		}
		app := tray.NewApplication(opts)

		if _, err := app.Store().Bootstrap(); err != nil {
			return err
		}
		if err := app.Toggle(); err != nil {
			if errors.Is(err, common.ErrNotReady) {
				return fmt.Errorf("%w (run '%s check' for details)", err, rootCmd.Name())
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s nebula running, press Ctrl+C to stop\n", mark(true))

		return app.Run(commandContext(cmd))
	},
}
