// Package common provides shared constants, types, and utilities
// used across the Nebula Tower application.
package common

import "time"

// Application metadata.
const (
	// AppID is the desktop entry name, sent with notifications.
	AppID = "com.nebulatower.menubar"
	// AppName is the display name of the application.
	AppName = "Nebula Tower"
	// AppDirName is the name of the application's private directory.
	AppDirName = "nebula-tower"
	// LogTag is the fixed prefix carried by every log line.
	LogTag = "nebula-tower"
	// HomeEnv overrides the location of the application's private directory.
	HomeEnv = "NEBULA_TOWER_HOME"
)

// Managed binary.
const (
	// BinaryName is the executable supervised by the application.
	BinaryName = "nebula"
	// ReleasesURL is opened when no installer script is available.
	ReleasesURL = "https://github.com/slackhq/nebula/releases"
)

// File names used by the application.
const (
	SettingsFileName = "settings.yaml"
	ConfigFileName   = "config.yaml"
	LogFileName      = "debug.log"
	HistoryFileName  = "history.db"
	BinDirName       = "bin"
	InstallScript    = "scripts/install_nebula.sh"
)

// Certificate artifacts expected next to the config file.
const (
	HostKeyFileName = "host.key"
	HostCrtFileName = "host.crt"
	CACrtFileName   = "ca.crt"
)

// CertFileNames lists the artifacts that must sit beside the config file.
var CertFileNames = []string{HostKeyFileName, HostCrtFileName, CACrtFileName}

// Default settings.
const (
	DefaultPingHost = "8.8.8.8"
)

// Timeouts and intervals.
const (
	// ExitPollInterval is how often the supervisor checks for an exited process.
	ExitPollInterval = 2 * time.Second
	// ProbeInterval is the period of the health prober.
	ProbeInterval = 5 * time.Second
	// ProbeTimeout bounds a single latency probe.
	ProbeTimeout = 3 * time.Second
	// LighthouseInterval is the period of the lighthouse status poller.
	LighthouseInterval = 5 * time.Second
	// LighthouseTimeout bounds a single lighthouse status request.
	LighthouseTimeout = 3 * time.Second
	// RedeemTimeout bounds the invite redemption HTTP call.
	RedeemTimeout = 30 * time.Second
	// VersionTimeout bounds the managed binary's version query.
	VersionTimeout = 3 * time.Second
	// ShutdownTimeout bounds the wait for the process at application exit.
	ShutdownTimeout = 3 * time.Second
	// WaitDelay bounds Wait when descendants keep output pipes open.
	WaitDelay = 2 * time.Second
)

// UI constants.
const (
	// TrayIconSize is the size of the system tray icon.
	TrayIconSize = 22
)
