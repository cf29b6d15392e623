package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yllada/nebula-tower/common"
	"github.com/yllada/nebula-tower/history"
	"github.com/yllada/nebula-tower/nebula"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRunNotReady(t *testing.T) {
	withAppDir(t)
	withOutput(t, cmdRun, "")

	err := cmdRun.RunE(cmdRun, nil)
	require.ErrorIs(t, err, common.ErrNotReady)
	assert.Contains(t, err.Error(), "check")
}

func TestRunSupervisesUntilCancelled(t *testing.T) {
	paths := withAppDir(t)
	installFakeNebula(t, paths)
	writeProvisioned(t, paths)

	out := &syncBuffer{}
	cmdRun.SetOut(out)
	ctx, cancel := context.WithCancel(context.Background())
	cmdRun.SetContext(ctx)
	t.Cleanup(func() {
		cancel()
		cmdRun.SetOut(nil)
		cmdRun.SetContext(context.Background())
	})

	errc := make(chan error, 1)
	go func() { errc <- cmdRun.RunE(cmdRun, nil) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "nebula running")
	}, 5*time.Second, 20*time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("run did not return after cancel")
	}

	store, err := history.Open(paths.HistoryFile())
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Ended())
	assert.Equal(t, nebula.EndShutdown, runs[0].Reason)
}
