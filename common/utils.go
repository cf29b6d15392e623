// Package common provides shared constants, types, and utilities
// used across the Nebula Tower application.
package common

import (
	"os"
	"path/filepath"
	"strings"
)

// Paths resolves every location inside the application's private directory.
type Paths struct {
	Root string
}

// NewPaths returns Paths rooted at dir.
func NewPaths(dir string) Paths {
	return Paths{Root: dir}
}

// DefaultAppDir returns $NEBULA_TOWER_HOME, or <user config dir>/nebula-tower.
func DefaultAppDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, herr := os.UserHomeDir()
		if herr != nil {
			return "", WrapError(err, "failed to resolve config directory")
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, AppDirName), nil
}

// BinDir is where an app-managed nebula binary is installed.
func (p Paths) BinDir() string { return filepath.Join(p.Root, BinDirName) }

// LocalBinary is the app-managed nebula binary path.
func (p Paths) LocalBinary() string { return filepath.Join(p.BinDir(), binaryFileName()) }

// SettingsFile is the persisted settings record.
func (p Paths) SettingsFile() string { return filepath.Join(p.Root, SettingsFileName) }

// DefaultConfigFile is the nebula config used when settings do not name one.
func (p Paths) DefaultConfigFile() string { return filepath.Join(p.Root, ConfigFileName) }

// LogFile is the append-only debug log.
func (p Paths) LogFile() string { return filepath.Join(p.Root, LogFileName) }

// HistoryFile is the run history database.
func (p Paths) HistoryFile() string { return filepath.Join(p.Root, HistoryFileName) }

// InstallerScript is the optional nebula installer.
func (p Paths) InstallerScript() string { return filepath.Join(p.Root, filepath.FromSlash(InstallScript)) }

// Ensure creates the application directory.
func (p Paths) Ensure() error {
	if err := os.MkdirAll(p.Root, 0700); err != nil {
		return WrapError(err, "failed to create application directory")
	}
	return nil
}

// CertPaths returns the certificate artifacts expected beside configPath.
func CertPaths(configPath string) []string {
	dir := filepath.Dir(configPath)
	paths := make([]string, 0, len(CertFileNames))
	for _, name := range CertFileNames {
		paths = append(paths, filepath.Join(dir, name))
	}
	return paths
}

// FileExists checks if a file exists at the given path.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// PrependPath returns env with dir placed first on PATH. An existing entry
// equal to dir is moved rather than duplicated.
func PrependPath(env []string, dir string) []string {
	const key = "PATH="
	out := make([]string, 0, len(env)+1)
	current := ""
	found := false
	for _, kv := range env {
		if pathKey(kv) {
			if !found {
				current = kv[len(key):]
				found = true
			}
			continue
		}
		out = append(out, kv)
	}

	parts := []string{dir}
	if current != "" {
		for _, p := range filepath.SplitList(current) {
			if p == dir || p == "" {
				continue
			}
			parts = append(parts, p)
		}
	}
	return append(out, key+strings.Join(parts, string(os.PathListSeparator)))
}

func pathKey(kv string) bool {
	if len(kv) < 5 || kv[4] != '=' {
		return false
	}
	return strings.EqualFold(kv[:4], "PATH")
}
