package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yllada/nebula-tower/common"
)

func newTestStore(t *testing.T) (*Store, common.Paths) {
	t.Helper()
	paths := common.NewPaths(t.TempDir())
	return NewStore(paths, common.NewAppLogger(zap.NewNop())), paths
}

func TestLoad_MissingFileWritesDefaults(t *testing.T) {
	store, paths := newTestStore(t)

	cfg := store.Load()
	assert.Equal(t, common.DefaultPingHost, cfg.PingHost)
	assert.Equal(t, paths.DefaultConfigFile(), cfg.ConfigPath)
	assert.FileExists(t, paths.SettingsFile())
}

func TestLoad_CorruptFileFallsBackToDefaults(t *testing.T) {
	tests := map[string]string{
		"garbage":       "::: not yaml [",
		"unknown field": "ping_host: 10.0.0.1\ntheme: dark\n",
		"empty":         "",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			store, paths := newTestStore(t)
			require.NoError(t, os.WriteFile(paths.SettingsFile(), []byte(content), 0600))

			cfg := store.Load()
			assert.Equal(t, DefaultSettings(paths), cfg)

			data, err := os.ReadFile(paths.SettingsFile())
			require.NoError(t, err)
			assert.Equal(t, content, string(data), "corrupt file must be left untouched")
		})
	}
}

func TestSaveThenLoad(t *testing.T) {
	store, paths := newTestStore(t)
	custom := filepath.Join(paths.Root, "orgs", "acme", "config.yaml")

	require.NoError(t, store.Save(&Settings{ConfigPath: custom, PingHost: "fdc8:d559:029d::1"}))

	cfg := store.Load()
	assert.Equal(t, custom, cfg.ConfigPath)
	assert.Equal(t, "fdc8:d559:029d::1", cfg.PingHost)
}

func TestLoad_RelativeAndEmptyConfigPath(t *testing.T) {
	store, paths := newTestStore(t)

	require.NoError(t, store.Save(&Settings{ConfigPath: "net/config.yaml", PingHost: "1.1.1.1"}))
	assert.Equal(t, filepath.Join(paths.Root, "net", "config.yaml"), store.Load().ConfigPath)

	require.NoError(t, store.Save(&Settings{PingHost: "1.1.1.1"}))
	assert.Equal(t, paths.DefaultConfigFile(), store.Load().ConfigPath)
}

func TestSave_PersistFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))

	// The app dir is a regular file, so it cannot be created.
	store := NewStore(common.NewPaths(filepath.Join(blocker, "app")), common.NewAppLogger(zap.NewNop()))
	err := store.Save(&Settings{PingHost: "1.1.1.1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrPersistFailure))
}

func TestBootstrap(t *testing.T) {
	paths := common.NewPaths(filepath.Join(t.TempDir(), "nebula-tower"))
	store := NewStore(paths, common.NewAppLogger(zap.NewNop()))

	cfg, err := store.Bootstrap()
	require.NoError(t, err)
	assert.Equal(t, paths.DefaultConfigFile(), cfg.ConfigPath)
	assert.FileExists(t, paths.SettingsFile())

	data, err := os.ReadFile(paths.DefaultConfigFile())
	require.NoError(t, err)
	assert.Equal(t, "# nebula config\n", string(data))

	// An existing config is never replaced.
	require.NoError(t, os.WriteFile(paths.DefaultConfigFile(), []byte("pki: {}\n"), 0600))
	_, err = store.Bootstrap()
	require.NoError(t, err)
	data, err = os.ReadFile(paths.DefaultConfigFile())
	require.NoError(t, err)
	assert.Equal(t, "pki: {}\n", string(data))

	for _, cert := range common.CertPaths(paths.DefaultConfigFile()) {
		assert.NoFileExists(t, cert)
	}
}

func TestBootstrap_CustomConfigPathUntouched(t *testing.T) {
	store, paths := newTestStore(t)
	custom := filepath.Join(paths.Root, "custom.yaml")
	require.NoError(t, store.Save(&Settings{ConfigPath: custom, PingHost: "1.1.1.1"}))

	_, err := store.Bootstrap()
	require.NoError(t, err)
	assert.NoFileExists(t, custom)
	assert.NoFileExists(t, paths.DefaultConfigFile())
}
