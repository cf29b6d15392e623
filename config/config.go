// Package config provides settings management for Nebula Tower.
// It handles loading, saving, and defaulting the user-configurable parameters.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/yllada/nebula-tower/common"
	"gopkg.in/yaml.v3"
)

// Settings represents the user-configurable parameters.
// They are persisted to a YAML file in the application directory.
type Settings struct {
	// ConfigPath is the nebula config file. Empty means the default location.
	ConfigPath string `yaml:"config_path,omitempty"`
	// PingHost is the peer whose round-trip latency is shown in the tray.
	PingHost string `yaml:"ping_host"`
	// Lighthouse is the enrollment server address polled for status.
	Lighthouse string `yaml:"lighthouse,omitempty"`
}

// DefaultSettings returns the default settings for an application directory.
func DefaultSettings(paths common.Paths) *Settings {
	return &Settings{
		ConfigPath: paths.DefaultConfigFile(),
		PingHost:   common.DefaultPingHost,
	}
}

// ResolvedConfigPath returns the absolute nebula config path. An empty
// ConfigPath means the default file; relative paths resolve against the
// application directory.
func (s *Settings) ResolvedConfigPath(paths common.Paths) string {
	p := strings.TrimSpace(s.ConfigPath)
	if p == "" {
		return paths.DefaultConfigFile()
	}
	if !filepath.IsAbs(p) {
		return filepath.Join(paths.Root, p)
	}
	return p
}

// Store loads and saves Settings.
type Store struct {
	mu     sync.Mutex
	paths  common.Paths
	logger common.Logger
}

// NewStore creates a store for the settings file inside paths.
func NewStore(paths common.Paths, logger common.Logger) *Store {
	return &Store{paths: paths, logger: common.OrDefault(logger)}
}

// Paths returns the application paths the store resolves against.
func (s *Store) Paths() common.Paths {
	return s.paths
}

// Load reads the settings. A missing file is created with defaults; a corrupt
// file yields defaults and is left in place. The returned value is a fresh
// copy, with ConfigPath already resolved.
func (s *Store) Load() *Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.paths.SettingsFile()
	data, err := os.ReadFile(path)
	if err != nil {
		cfg := DefaultSettings(s.paths)
		if errors.Is(err, os.ErrNotExist) {
			if err := s.write(cfg); err != nil {
				s.logger.Warn("Could not write default settings: %v", err)
			}
		} else {
			s.logger.Warn("Could not read settings, using defaults: %v", err)
		}
		return cfg
	}

	cfg, err := decode(data)
	if err != nil {
		s.logger.Warn("Invalid settings file %s, using defaults: %v", path, err)
		return DefaultSettings(s.paths)
	}
	cfg.ConfigPath = cfg.ResolvedConfigPath(s.paths)
	return cfg
}

func decode(data []byte) (*Settings, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Strict validation: reject unknown fields

	var cfg Settings
	if err := decoder.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty settings file")
		}
		return nil, err
	}
	return &cfg, nil
}

// placeholderConfig is written on first launch so the config path exists.
const placeholderConfig = "# nebula config\n"

// Bootstrap prepares the application directory on first launch: it creates
// the directory, writes default settings when missing, and creates an empty
// nebula config at the default location. Certificates are never created.
func (s *Store) Bootstrap() (*Settings, error) {
	if err := s.paths.Ensure(); err != nil {
		return nil, err
	}
	cfg := s.Load()

	defaultConfig := s.paths.DefaultConfigFile()
	if cfg.ConfigPath == defaultConfig && !common.FileExists(defaultConfig) {
		if err := os.WriteFile(defaultConfig, []byte(placeholderConfig), 0600); err != nil {
			return cfg, common.WrapError(err, "failed to create default nebula config")
		}
		s.logger.Info("Created placeholder nebula config at %s", defaultConfig)
	}
	return cfg, nil
}

// Save persists settings immediately.
func (s *Store) Save(cfg *Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(cfg); err != nil {
		return fmt.Errorf("%w: %v", common.ErrPersistFailure, err)
	}
	return nil
}

// write must be called with s.mu held.
func (s *Store) write(cfg *Settings) error {
	if err := s.paths.Ensure(); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error serializing settings: %w", err)
	}

	path := s.paths.SettingsFile()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("error saving settings: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("error saving settings: %w", err)
	}
	return nil
}
