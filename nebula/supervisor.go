package nebula

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yllada/nebula-tower/common"
	"github.com/yllada/nebula-tower/config"
)

// SettingsSource provides the current settings. *config.Store satisfies it.
type SettingsSource interface {
	Load() *config.Settings
}

// EndReason describes why a run ended.
type EndReason string

const (
	// EndStopped is an explicit stop.
	EndStopped EndReason = "stopped"
	// EndExited is an exit observed by the exit detector.
	EndExited EndReason = "exited"
	// EndShutdown is the application shutting down.
	EndShutdown EndReason = "shutdown"
)

// RunInfo describes a started process.
type RunInfo struct {
	ID         string
	PID        int
	Binary     string
	ConfigPath string
	StartedAt  time.Time
}

// RunEnd describes how a process ended.
type RunEnd struct {
	ID         string
	EndedAt    time.Time
	Reason     EndReason
	ExitStatus string
	ExitCode   int
}

// RunRecorder persists run history. Failures are logged and otherwise ignored.
type RunRecorder interface {
	RecordStart(info RunInfo) error
	RecordEnd(end RunEnd) error
}

// Supervisor owns the nebula process lifecycle.
type Supervisor struct {
	state        *State
	locator      *Locator
	settings     SettingsSource
	paths        common.Paths
	logger       common.Logger
	pollInterval time.Duration
	stopTimeout  time.Duration

	mu       sync.RWMutex
	launcher Launcher
	recorder RunRecorder
	onChange func()
	onExit   func(end RunEnd)
}

// NewSupervisor creates a supervisor using the platform's default launcher.
func NewSupervisor(state *State, locator *Locator, settings SettingsSource, paths common.Paths, logger common.Logger) *Supervisor {
	return &Supervisor{
		state:        state,
		locator:      locator,
		settings:     settings,
		paths:        paths,
		logger:       common.OrDefault(logger),
		pollInterval: common.ExitPollInterval,
		stopTimeout:  common.ShutdownTimeout,
		launcher:     DefaultLauncher(),
	}
}

// SetLauncher replaces the launcher.
func (s *Supervisor) SetLauncher(launcher Launcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.launcher = launcher
}

// SetRecorder sets the run history recorder.
func (s *Supervisor) SetRecorder(recorder RunRecorder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorder = recorder
}

// SetOnChange sets a callback invoked after every start, stop and detected exit.
func (s *Supervisor) SetOnChange(callback func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = callback
}

// SetOnExit sets a callback for exits the user did not request.
func (s *Supervisor) SetOnExit(callback func(end RunEnd)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onExit = callback
}

// State returns the shared state.
func (s *Supervisor) State() *State {
	return s.state
}

// Running reports whether a process is held.
func (s *Supervisor) Running() bool {
	return s.state.Running()
}

// Start launches nebula. It is a no-op when nebula is already running.
// Errors match common.ErrBinaryNotFound or common.ErrSpawnFailure.
func (s *Supervisor) Start() error {
	if !s.state.beginStart() {
		s.logger.Debug("Start ignored: nebula already running")
		return nil
	}

	h, err := s.spawn()
	if err != nil {
		s.state.abortStart()
		s.logger.Error("Failed to start nebula: %v", err)
		s.changed()
		return err
	}
	// Recorded before the handle is published so an end can never precede it.
	s.withRecorder(func(r RunRecorder) error {
		return r.RecordStart(RunInfo{
			ID:         h.runID,
			PID:        h.pid(),
			Binary:     h.binary,
			ConfigPath: h.configPath,
			StartedAt:  h.startedAt,
		})
	})
	s.state.finishStart(h)

	s.logger.Info("nebula started (pid %d, run %s)", h.pid(), h.runID)
	s.changed()
	return nil
}

func (s *Supervisor) spawn() (*processHandle, error) {
	binary, ok := s.locator.Locate()
	if !ok {
		return nil, common.ErrBinaryNotFound
	}
	if err := s.paths.Ensure(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrSpawnFailure, err)
	}

	configPath := s.settings.Load().ConfigPath
	inv := Invocation{
		Binary: binary,
		Args:   []string{"-config", configPath},
		Dir:    s.paths.Root,
		Env:    common.PrependPath(os.Environ(), s.paths.BinDir()),
	}
	s.logger.Debug("Launching %s -config %s in %s", binary, configPath, inv.Dir)

	s.mu.RLock()
	cmd := s.launcher.Command(inv)
	s.mu.RUnlock()

	stdoutR, stdoutW := io.Pipe()
	stderrR, stderrW := io.Pipe()
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW
	cmd.WaitDelay = common.WaitDelay

	if err := cmd.Start(); err != nil {
		stdoutW.Close()
		stderrW.Close()
		return nil, fmt.Errorf("%w: %v", common.ErrSpawnFailure, err)
	}

	h := newProcessHandle(cmd, uuid.NewString(), binary, configPath)
	h.forward(stdoutR, "stdout", s.logger)
	h.forward(stderrR, "stderr", s.logger)
	go h.wait(stdoutW, stderrW)
	return h, nil
}

// Stop kills nebula and blocks until it has been reaped. It is a no-op when
// nebula is not running. Kill failures are logged, never returned.
func (s *Supervisor) Stop() {
	h := s.state.take()
	if h == nil {
		return
	}
	s.terminate(h, EndStopped, 0)
	s.changed()
}

// Shutdown kills nebula, waiting at most common.ShutdownTimeout for it to exit.
func (s *Supervisor) Shutdown() {
	h := s.state.take()
	if h == nil {
		return
	}
	s.terminate(h, EndShutdown, s.stopTimeout)
}

// terminate kills a taken handle. A zero timeout waits indefinitely.
func (s *Supervisor) terminate(h *processHandle, reason EndReason, timeout time.Duration) {
	if h.cmd.Process != nil {
		if err := h.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			s.logger.Warn("Failed to kill nebula (pid %d): %v", h.pid(), err)
		}
	}

	if timeout > 0 {
		select {
		case <-h.done:
		case <-time.After(timeout):
			s.logger.Warn("nebula (pid %d) did not exit within %v", h.pid(), timeout)
			// The exit status is still being collected by wait.
			s.record(RunEnd{
				ID:         h.runID,
				EndedAt:    time.Now(),
				Reason:     reason,
				ExitStatus: "unknown",
				ExitCode:   -1,
			})
			return
		}
	} else {
		<-h.done
	}
	h.forwarders.Wait()

	s.logger.Info("nebula stopped (run %s): %s", h.runID, h.exitStatus())
	s.recordEnd(h, reason)
}

// DetectExit clears the handle if its process has exited on its own.
// It reports whether an exit was observed.
func (s *Supervisor) DetectExit() bool {
	h := s.state.takeExited()
	if h == nil {
		return false
	}
	h.forwarders.Wait()

	s.logger.Warn("nebula exited (run %s): %s", h.runID, h.exitStatus())
	end := s.recordEnd(h, EndExited)

	s.mu.RLock()
	onExit := s.onExit
	s.mu.RUnlock()
	if onExit != nil {
		onExit(end)
	}
	s.changed()
	return true
}

// RunExitDetector polls for unexpected exits until ctx is cancelled.
func (s *Supervisor) RunExitDetector(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.DetectExit()
		}
	}
}

// recordEnd must only be called once h.done is closed.
func (s *Supervisor) recordEnd(h *processHandle, reason EndReason) RunEnd {
	return s.record(RunEnd{
		ID:         h.runID,
		EndedAt:    time.Now(),
		Reason:     reason,
		ExitStatus: h.exitStatus(),
		ExitCode:   h.exitCode(),
	})
}

func (s *Supervisor) record(end RunEnd) RunEnd {
	s.withRecorder(func(r RunRecorder) error {
		return r.RecordEnd(end)
	})
	return end
}

func (s *Supervisor) withRecorder(fn func(RunRecorder) error) {
	s.mu.RLock()
	recorder := s.recorder
	s.mu.RUnlock()
	if recorder == nil {
		return
	}
	if err := fn(recorder); err != nil {
		s.logger.Warn("Failed to record run history: %v", err)
	}
}

func (s *Supervisor) changed() {
	s.mu.RLock()
	onChange := s.onChange
	s.mu.RUnlock()
	if onChange != nil {
		onChange()
	}
}
