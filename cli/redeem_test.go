package cli

import (
	"archive/zip"
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yllada/nebula-tower/common"
	"github.com/yllada/nebula-tower/provision"
)

func inviteArchive(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range map[string]string{
		"config.yaml": "pki:\n  ca: ca.crt\n",
		"host.key":    "key",
		"host.crt":    "crt",
		"ca.crt":      "ca",
	} {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// enrollmentServer answers redeems for code with an invite archive.
func enrollmentServer(t *testing.T, code string) (peer string, hits *atomic.Int32) {
	t.Helper()
	archive := inviteArchive(t)
	hits = new(atomic.Int32)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != provision.RedeemPath || r.URL.Query().Get("invite_code") != code {
			http.Error(w, "invalid invite", http.StatusForbidden)
			return
		}
		w.Write(archive)
	}))
	t.Cleanup(srv.Close)
	return strings.TrimPrefix(srv.URL, "http://"), hits
}

func TestRedeemCodeFromArgs(t *testing.T) {
	paths := withAppDir(t)
	withTerminal(t, false, "")
	notifier := withNotifier(t)
	peer, _ := enrollmentServer(t, "abc123")
	buf := withOutput(t, cmdRedeem, "")

	require.NoError(t, cmdRedeem.RunE(cmdRedeem, []string{peer, "abc123"}))

	assert.Contains(t, buf.String(), "Invite redeemed")
	assert.Contains(t, buf.String(), "host.key")
	for _, name := range []string{"config.yaml", "host.key", "host.crt", "ca.crt"} {
		assert.FileExists(t, filepath.Join(paths.Root, name))
	}
	assert.Equal(t, []string{"Invite redeemed"}, notifier.sent())
	assert.True(t, notifier.isClosed())

	assert.Contains(t, buf.String(), "Lighthouse: "+peer)
	assert.Equal(t, peer, loadSettings(t, paths).Lighthouse)
}

func TestRedeemCodeFromStdin(t *testing.T) {
	paths := withAppDir(t)
	withTerminal(t, false, "")
	withNotifier(t)
	peer, _ := enrollmentServer(t, "abc123")
	withOutput(t, cmdRedeem, "  abc123\n")

	require.NoError(t, cmdRedeem.RunE(cmdRedeem, []string{peer}))
	assert.True(t, provision.CheckExistingCerts(paths.DefaultConfigFile()))
}

func TestRedeemCodeFromTerminal(t *testing.T) {
	withAppDir(t)
	withTerminal(t, true, "abc123")
	withNotifier(t)
	peer, _ := enrollmentServer(t, "abc123")
	buf := withOutput(t, cmdRedeem, "")

	require.NoError(t, cmdRedeem.RunE(cmdRedeem, []string{peer}))
	assert.Contains(t, buf.String(), "Invite code: ")
	assert.NotContains(t, buf.String(), "abc123")
}

func TestRedeemEmptyCode(t *testing.T) {
	withAppDir(t)
	withTerminal(t, false, "")
	peer, hits := enrollmentServer(t, "abc123")
	withOutput(t, cmdRedeem, "\n")

	require.Error(t, cmdRedeem.RunE(cmdRedeem, []string{peer}))
	assert.Zero(t, hits.Load())
}

func TestRedeemRejected(t *testing.T) {
	paths := withAppDir(t)
	withTerminal(t, false, "")
	notifier := withNotifier(t)
	peer, _ := enrollmentServer(t, "abc123")
	withOutput(t, cmdRedeem, "")

	err := cmdRedeem.RunE(cmdRedeem, []string{peer, "wrong"})
	require.ErrorIs(t, err, common.ErrRedeemRejected)
	assert.Contains(t, err.Error(), "invalid invite")
	assert.False(t, provision.CheckExistingCerts(paths.DefaultConfigFile()))
	assert.Equal(t, []string{"Invite redemption failed"}, notifier.sent())
	assert.True(t, notifier.isClosed())
	assert.Empty(t, loadSettings(t, paths).Lighthouse)
}

func TestRedeemKeepsCertsWithoutTerminal(t *testing.T) {
	paths := withAppDir(t)
	writeProvisioned(t, paths)
	withTerminal(t, false, "")
	peer, hits := enrollmentServer(t, "abc123")
	withOutput(t, cmdRedeem, "y\n")

	err := cmdRedeem.RunE(cmdRedeem, []string{peer, "abc123"})
	require.ErrorIs(t, err, errOverwriteDeclined)
	assert.Zero(t, hits.Load())

	data, err := os.ReadFile(paths.DefaultConfigFile())
	require.NoError(t, err)
	assert.Equal(t, "pki: {}\n", string(data))
}

func TestRedeemConfirmOverwrite(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		replace bool
	}{
		{"yes", "y\n", true},
		{"full yes", "YES\n", true},
		{"no", "n\n", false},
		{"default", "\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths := withAppDir(t)
			writeProvisioned(t, paths)
			withTerminal(t, true, "")
			withNotifier(t)
			peer, hits := enrollmentServer(t, "abc123")
			buf := withOutput(t, cmdRedeem, tt.answer)

			err := cmdRedeem.RunE(cmdRedeem, []string{peer, "abc123"})
			assert.Contains(t, buf.String(), "[y/N]")

			data, readErr := os.ReadFile(paths.DefaultConfigFile())
			require.NoError(t, readErr)
			if tt.replace {
				require.NoError(t, err)
				assert.EqualValues(t, 1, hits.Load())
				assert.Contains(t, string(data), "ca: ca.crt")
			} else {
				require.ErrorIs(t, err, errOverwriteDeclined)
				assert.Zero(t, hits.Load())
				assert.Equal(t, "pki: {}\n", string(data))
			}
		})
	}
}

func TestRedeemOverwriteFlagSkipsPrompt(t *testing.T) {
	paths := withAppDir(t)
	writeProvisioned(t, paths)
	withTerminal(t, false, "")
	withNotifier(t)
	peer, _ := enrollmentServer(t, "abc123")
	buf := withOutput(t, cmdRedeem, "")
	setFlag(t, cmdRedeem, "overwrite", "true")

	require.NoError(t, cmdRedeem.RunE(cmdRedeem, []string{peer, "abc123"}))
	assert.NotContains(t, buf.String(), "[y/N]")

	data, err := os.ReadFile(paths.DefaultConfigFile())
	require.NoError(t, err)
	assert.Contains(t, string(data), "ca: ca.crt")
}
