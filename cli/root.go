// Package cli provides the command-line interface for Nebula Tower.
// Without a subcommand the tray indicator is started; subcommands allow
// headless supervision, readiness checks and invite redemption from a terminal.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yllada/nebula-tower/common"
)

// BuildInfo is injected by main from ldflags.
type BuildInfo struct {
	Version   string
	BuildTime string
	Commit    string
}

var (
	buildInfo = BuildInfo{Version: "dev", BuildTime: "unknown", Commit: "unknown"}

	verbose    bool
	appDirFlag string
)

var rootCmd = &cobra.Command{
	Use:   "nebula-tower [command]",
	Short: "Nebula Tower: tray supervisor for the nebula mesh VPN",
	Long: `Nebula Tower starts, stops and monitors a nebula process from the system tray,
and provisions certificates by redeeming invites from an enrollment server.

Run without a command to start the tray indicator.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTray(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&appDirFlag, "app-dir", "", "Application directory (default $"+common.HomeEnv+" or the user config directory)")
}

// Execute runs the command tree. Signals cancel the command context.
func Execute(info BuildInfo) error {
	buildInfo = info

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer common.CloseLogger()

	return rootCmd.ExecuteContext(ctx)
}

// commandContext returns the command context, or Background when the command
// was invoked directly.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// appPaths resolves the application directory from --app-dir or the default.
func appPaths() (common.Paths, error) {
	if appDirFlag != "" {
		return common.NewPaths(appDirFlag), nil
	}
	dir, err := common.DefaultAppDir()
	if err != nil {
		return common.Paths{}, err
	}
	return common.NewPaths(dir), nil
}

// setupLogging sends logs to stderr and appends them to the debug log.
func setupLogging(cmd *cobra.Command, args []string) error {
	paths, err := appPaths()
	if err != nil {
		return err
	}

	level := common.LevelInfo
	if verbose {
		level = common.LevelDebug
	}
	if err := common.InitLogger(common.LogConfig{
		Level:    level,
		FilePath: paths.LogFile(),
		Console:  os.Stderr,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not initialize file logging: %v\n", err)
		common.GetLogger().SetLevel(level)
	}
	return nil
}
