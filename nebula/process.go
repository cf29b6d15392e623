package nebula

import (
	"bufio"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/yllada/nebula-tower/common"
)

const maxLineSize = 1024 * 1024

// processHandle is exclusive ownership of one running nebula process and the
// goroutines tied to it.
type processHandle struct {
	cmd        *exec.Cmd
	runID      string
	binary     string
	configPath string
	startedAt  time.Time

	done       chan struct{}
	waitErr    error
	forwarders sync.WaitGroup
}

func newProcessHandle(cmd *exec.Cmd, runID, binary, configPath string) *processHandle {
	return &processHandle{
		cmd:        cmd,
		runID:      runID,
		binary:     binary,
		configPath: configPath,
		startedAt:  time.Now(),
		done:       make(chan struct{}),
	}
}

func (h *processHandle) pid() int {
	if h.cmd == nil || h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

// exited reports, without blocking, whether the process has been reaped.
func (h *processHandle) exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// wait reaps the process, then closes the output pipes so the forwarders
// reach end of stream.
func (h *processHandle) wait(pipes ...*io.PipeWriter) {
	h.waitErr = h.cmd.Wait()
	for _, w := range pipes {
		w.Close()
	}
	close(h.done)
}

// exitStatus describes how the process ended. Only valid once done is closed.
func (h *processHandle) exitStatus() string {
	if h.cmd.ProcessState != nil {
		return h.cmd.ProcessState.String()
	}
	if h.waitErr != nil {
		return h.waitErr.Error()
	}
	return "unknown"
}

func (h *processHandle) exitCode() int {
	if h.cmd.ProcessState == nil {
		return -1
	}
	return h.cmd.ProcessState.ExitCode()
}

// forward logs each line of r tagged with stream until r reaches end of stream.
func (h *processHandle) forward(r *io.PipeReader, stream string, logger common.Logger) {
	h.forwarders.Add(1)
	go func() {
		defer h.forwarders.Done()
		defer r.Close()

		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			logger.Info("[nebula %s] %s", stream, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			logger.Warn("Stopped forwarding nebula %s: %v", stream, err)
			// Keep draining so the process never blocks on a full pipe.
			io.Copy(io.Discard, r)
		}
	}()
}
