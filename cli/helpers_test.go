package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/yllada/nebula-tower/common"
)

// withAppDir points --app-dir at a fresh directory and hides any nebula
// installed on the host.
func withAppDir(t *testing.T) common.Paths {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses shell scripts")
	}
	t.Setenv("PATH", t.TempDir())

	dir := filepath.Join(t.TempDir(), "app")
	orig := appDirFlag
	appDirFlag = dir
	t.Cleanup(func() { appDirFlag = orig })
	return common.NewPaths(dir)
}

// withOutput captures cmd output and feeds it input.
func withOutput(t *testing.T, cmd *cobra.Command, input string) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetIn(strings.NewReader(input))
	t.Cleanup(func() {
		cmd.SetOut(nil)
		cmd.SetIn(nil)
	})
	return buf
}

// setFlag sets a flag as if given on the command line.
func setFlag(t *testing.T, cmd *cobra.Command, name, value string) {
	t.Helper()
	flag := cmd.Flags().Lookup(name)
	require.NotNil(t, flag, name)
	require.NoError(t, cmd.Flags().Set(name, value))
	t.Cleanup(func() {
		flag.Value.Set(flag.DefValue)
		flag.Changed = false
	})
}

func withTerminal(t *testing.T, interactive bool, secret string) {
	t.Helper()
	origIn, origOut, origRead := stdinIsTerminal, stdoutIsTerminal, readSecret
	stdinIsTerminal = func() bool { return interactive }
	stdoutIsTerminal = func() bool { return false }
	readSecret = func() (string, error) { return secret, nil }
	t.Cleanup(func() {
		stdinIsTerminal, stdoutIsTerminal, readSecret = origIn, origOut, origRead
	})
}

type fakeNotifier struct {
	mu     sync.Mutex
	titles []string
	closed bool
}

func (n *fakeNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	return nil
}

func (n *fakeNotifier) isClosed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.closed
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

func withNotifier(t *testing.T) *fakeNotifier {
	t.Helper()
	fake := &fakeNotifier{}
	orig := newDesktopNotifier
	newDesktopNotifier = func(common.Logger) desktopNotifier { return fake }
	t.Cleanup(func() { newDesktopNotifier = orig })
	return fake
}

// installFakeNebula puts a script answering -version into the app bin dir.
func installFakeNebula(t *testing.T, paths common.Paths) {
	t.Helper()
	require.NoError(t, os.MkdirAll(paths.BinDir(), 0o755))
	script := "#!/bin/sh\nif [ \"$1\" = \"-version\" ]; then echo 'Version: 1.9.5'; exit 0; fi\nexec /bin/sleep 30\n"
	require.NoError(t, os.WriteFile(paths.LocalBinary(), []byte(script), 0o755))
}

// writeProvisioned writes a config and certificates to the default locations.
func writeProvisioned(t *testing.T, paths common.Paths) {
	t.Helper()
	require.NoError(t, paths.Ensure())
	config := paths.DefaultConfigFile()
	require.NoError(t, os.WriteFile(config, []byte("pki: {}\n"), 0o600))
	for _, cert := range common.CertPaths(config) {
		require.NoError(t, os.WriteFile(cert, []byte("x"), 0o600))
	}
}
