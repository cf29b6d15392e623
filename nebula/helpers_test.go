package nebula

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yllada/nebula-tower/common"
	"github.com/yllada/nebula-tower/config"
)

// staticSettings is a SettingsSource whose value can be changed by tests.
type staticSettings struct {
	mu       sync.Mutex
	settings config.Settings
}

func (s *staticSettings) Load() *config.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings := s.settings
	return &settings
}

func (s *staticSettings) setPingHost(host string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.PingHost = host
}

func newObservedLogger() (*common.AppLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return common.NewAppLogger(zap.New(core)), logs
}

func notOnPath(string) (string, error) {
	return "", errors.New("not found")
}

func newTestLocator(paths common.Paths, logger common.Logger) *Locator {
	l := NewLocator(paths, logger)
	l.lookPath = notOnPath
	return l
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake nebula binaries are shell scripts")
	}
}

// writeScript installs a shell script as an executable.
func writeScript(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
}

// writeProvisioned creates a config file and its certificates.
func writeProvisioned(t *testing.T, configPath string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(configPath), 0755))
	require.NoError(t, os.WriteFile(configPath, []byte("pki: {}\n"), 0600))
	for _, path := range common.CertPaths(configPath) {
		require.NoError(t, os.WriteFile(path, []byte("pem"), 0600))
	}
}

type fakeRecorder struct {
	mu     sync.Mutex
	starts []RunInfo
	ends   []RunEnd
}

func (r *fakeRecorder) RecordStart(info RunInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts = append(r.starts, info)
	return nil
}

func (r *fakeRecorder) RecordEnd(end RunEnd) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ends = append(r.ends, end)
	return nil
}

func (r *fakeRecorder) snapshot() ([]RunInfo, []RunEnd) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RunInfo(nil), r.starts...), append([]RunEnd(nil), r.ends...)
}

func removeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.Remove(path))
}
