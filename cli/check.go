package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yllada/nebula-tower/common"
	"github.com/yllada/nebula-tower/config"
	"github.com/yllada/nebula-tower/nebula"
)

func init() {
	rootCmd.AddCommand(cmdCheck)
}

var cmdCheck = &cobra.Command{
	Use:   "check",
	Short: "Report whether nebula can be started",
	Long:  `Runs every readiness check (binary, config and certificates, ping host) and prints each result. Exits non-zero unless nebula is ready.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := appPaths()
		if err != nil {
			return err
		}
		logger := common.GetLogger()
		settings := config.NewStore(paths, logger).Load()
		locator := nebula.NewLocator(paths, logger)
		result := nebula.NewEvaluator(locator).Check(settings)

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, titleStyle.Render("Nebula readiness"))
		fmt.Fprintf(out, "  %s binary       %s\n", mark(result.BinaryPresent), orDash(result.BinaryPath))
		if result.BinaryPresent {
			version, _ := locator.Version(commandContext(cmd), result.BinaryPath)
			fmt.Fprintf(out, "    version      %s\n", orDash(version))
		}
		fmt.Fprintf(out, "  %s config+certs %s\n", mark(result.ConfigAndCertsPresent), settings.ConfigPath)
		fmt.Fprintf(out, "  %s ping host    %s\n", mark(result.PingHostValid), orDash(settings.PingHost))

		state := result.State()
		style := okStyle
		if state != nebula.Ready {
			style = failStyle
		}
		fmt.Fprintf(out, "State: %s\n", style.Render(state.String()))

		if state != nebula.Ready {
			return fmt.Errorf("%w: %s", common.ErrNotReady, state)
		}
		return nil
	},
}
