package nebula

import (
	"sync"
	"time"
)

// State is the record shared by the supervisor, exit detector, prober and
// synchronizer. The lock is never held across process or network I/O.
type State struct {
	mu        sync.Mutex
	handle    *processHandle
	starting  bool
	latencyMs int64

	lighthouse LighthouseStatus
}

// Snapshot is a point-in-time copy of State.
type Snapshot struct {
	Running   bool
	LatencyMs int64
	RunID     string
	PID       int
	StartedAt time.Time

	Lighthouse LighthouseStatus
}

// NewState creates an empty state.
func NewState() *State {
	return &State{}
}

// Running reports whether a process handle is held.
func (s *State) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle != nil
}

// SetLatency records the latest probe result in milliseconds.
func (s *State) SetLatency(ms int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latencyMs = ms
}

// setLatencyIfRunning records ms while a process is held and 0 otherwise.
// It returns the recorded value.
func (s *State) setLatencyIfRunning(ms int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil {
		ms = 0
	}
	s.latencyMs = ms
	return ms
}

// Latency returns the latest probe result in milliseconds.
func (s *State) Latency() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latencyMs
}

// Lighthouse returns the latest lighthouse poll result.
func (s *State) Lighthouse() LighthouseStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lighthouse
}

// setLighthouse records status and returns the previous one.
func (s *State) setLighthouse(status LighthouseStatus) LighthouseStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous := s.lighthouse
	s.lighthouse = status
	return previous
}

// Snapshot returns a copy of the state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{Running: s.handle != nil, LatencyMs: s.latencyMs, Lighthouse: s.lighthouse}
	if h := s.handle; h != nil {
		snap.RunID = h.runID
		snap.PID = h.pid()
		snap.StartedAt = h.startedAt
	}
	return snap
}

// beginStart reserves the handle slot. It fails when a process is held or
// another start is in flight.
func (s *State) beginStart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle != nil || s.starting {
		return false
	}
	s.starting = true
	return true
}

func (s *State) finishStart(h *processHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handle = h
	s.starting = false
}

func (s *State) abortStart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starting = false
}

// take clears the slot and returns its handle, if any. Latency resets with it.
func (s *State) take() *processHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.handle
	s.handle = nil
	s.latencyMs = 0
	return h
}

// takeExited clears the slot only if its process has already exited.
func (s *State) takeExited() *processHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil || !s.handle.exited() {
		return nil
	}
	h := s.handle
	s.handle = nil
	s.latencyMs = 0
	return h
}
