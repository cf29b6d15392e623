package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yllada/nebula-tower/common"
	"github.com/yllada/nebula-tower/config"
	"github.com/yllada/nebula-tower/nebula"
)

var (
	setPingHost   string
	setConfigPath string
	setLighthouse string
)

func init() {
	rootCmd.AddCommand(cmdSettings)
	cmdSettings.AddCommand(cmdSettingsSet)
	cmdSettingsSet.Flags().StringVar(&setPingHost, "ping-host", "", "Host pinged to measure tunnel latency")
	cmdSettingsSet.Flags().StringVar(&setConfigPath, "config-path", "", "nebula config file; relative paths resolve against the app directory")
	cmdSettingsSet.Flags().StringVar(&setLighthouse, "lighthouse", "", "Enrollment server polled for status (host or host:port); empty disables polling")
}

var cmdSettings = &cobra.Command{
	Use:   "settings",
	Short: "Show the current settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := appPaths()
		if err != nil {
			return err
		}
		settings := config.NewStore(paths, common.GetLogger()).Load()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s\n", titleStyle.Render("Settings"), mutedStyle.Render(paths.SettingsFile()))
		fmt.Fprintf(out, "  config_path: %s\n", settings.ConfigPath)
		fmt.Fprintf(out, "  ping_host:   %s\n", orDash(settings.PingHost))
		fmt.Fprintf(out, "  lighthouse:  %s\n", orDash(settings.Lighthouse))
		return nil
	},
}

var cmdSettingsSet = &cobra.Command{
	Use:   "set",
	Short: "Change settings",
	Long:  `Updates the settings file. Only the flags given are changed. Pass --config-path "" to return to the default config location.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if !flags.Changed("ping-host") && !flags.Changed("config-path") && !flags.Changed("lighthouse") {
			return errors.New("nothing to change: pass --ping-host, --config-path or --lighthouse")
		}

		paths, err := appPaths()
		if err != nil {
			return err
		}
		store := config.NewStore(paths, common.GetLogger())
		settings := store.Load()

		if flags.Changed("ping-host") {
			host := strings.TrimSpace(setPingHost)
			if !nebula.ValidPingHost(host) {
				return errors.New("ping host must not be empty")
			}
			settings.PingHost = host
		}
		if flags.Changed("config-path") {
			update := config.Settings{ConfigPath: setConfigPath}
			settings.ConfigPath = update.ResolvedConfigPath(paths)
		}

		if flags.Changed("lighthouse") {
			settings.Lighthouse = strings.TrimSpace(setLighthouse)
		}

		if err := store.Save(settings); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Settings saved to %s\n", mark(true), paths.SettingsFile())
		return nil
	},
}
