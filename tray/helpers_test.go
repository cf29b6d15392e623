package tray

import (
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
)

type fakePublisher struct {
	mu     sync.Mutex
	models []MenuModel
}

func (p *fakePublisher) Publish(model MenuModel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.models = append(p.models, model)
}

func (p *fakePublisher) last() (MenuModel, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.models) == 0 {
		return MenuModel{}, false
	}
	return p.models[len(p.models)-1], true
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.models)
}

type fakeOpener struct {
	mu     sync.Mutex
	opened []string
}

func (o *fakeOpener) Open(target string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened = append(o.opened, target)
	return nil
}

func (o *fakeOpener) targets() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.opened...)
}

type fakeNotifier struct {
	mu     sync.Mutex
	titles []string
}

func (n *fakeNotifier) Notify(title, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.titles = append(n.titles, title)
	return nil
}

func (n *fakeNotifier) sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.titles...)
}

func newObservedLogger() (*common.AppLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return common.NewAppLogger(zap.New(core)), logs
}

// isolate hides any system nebula binary and returns fresh app paths.
func isolate(t *testing.T) common.Paths {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake nebula binaries are shell scripts")
	}
	t.Setenv("PATH", t.TempDir())
	return common.NewPaths(t.TempDir())
}

func installFakeNebula(t *testing.T, paths common.Paths) {
	t.Helper()
	script := `#!/bin/sh
if [ "$1" = "-version" ]; then
  echo "Version: 1.9.5"
  exit 0
fi
exec /bin/sleep 30
`
	require.NoError(t, os.MkdirAll(paths.BinDir(), 0755))
	require.NoError(t, os.WriteFile(paths.LocalBinary(), []byte(script), 0755))
}

func provision(t *testing.T, paths common.Paths) {
	t.Helper()
	require.NoError(t, os.MkdirAll(paths.Root, 0700))
	require.NoError(t, os.WriteFile(paths.DefaultConfigFile(), []byte("pki: {}\n"), 0600))
	for _, name := range common.CertFileNames {
		require.NoError(t, os.WriteFile(filepath.Join(paths.Root, name), []byte("pem"), 0600))
	}
}
