// Package main provides the entry point for Nebula Tower.
// Nebula Tower is a system tray supervisor for the nebula mesh VPN: it starts
// and stops the nebula process, shows tunnel latency, and provisions
// certificates by redeeming invites from an enrollment server.
//
// Features:
//   - One-click start and stop of nebula from the tray menu
//   - Readiness checks for the binary, config and certificates
//   - Periodic latency probe against a configurable host
//   - Invite redemption and certificate installation
//   - Run history kept in a local SQLite database
//   - Headless supervision and scripting through subcommands
//
// Usage:
//
//	nebula-tower [command] [flags]
//
// Environment:
//
//	NEBULA_TOWER_HOME overrides the application directory.
package main

import (
	"fmt"
	"os"

	"github.com/yllada/nebula-tower/cli"
)

// Build-time variables injected via ldflags (-X main.appVersion=x.y.z)
// Default values are used for local development builds
var (
	appVersion = "dev"
	buildTime  = "unknown"
	commitSHA  = "unknown"
)

func main() {
	if err := cli.Execute(cli.BuildInfo{
		Version:   appVersion,
		BuildTime: buildTime,
		Commit:    commitSHA,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
