package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yllada/nebula-tower/common"
	"github.com/yllada/nebula-tower/nebula"
)

func init() {
	rootCmd.AddCommand(cmdVersion)
}

var cmdVersion = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s\n", common.AppName, buildInfo.Version)
		fmt.Fprintf(out, "  build:  %s\n", buildInfo.BuildTime)
		fmt.Fprintf(out, "  commit: %s\n", buildInfo.Commit)

		paths, err := appPaths()
		if err != nil {
			return err
		}
		locator := nebula.NewLocator(paths, common.GetLogger())
		path, ok := locator.Locate()
		if !ok {
			fmt.Fprintf(out, "  nebula: %s\n", mutedStyle.Render("not installed"))
			return nil
		}
		version, ok := locator.Version(commandContext(cmd), path)
		if !ok {
			version = "version unknown"
		}
		fmt.Fprintf(out, "  nebula: %s (%s)\n", version, path)
		return nil
	},
}
