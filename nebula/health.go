package nebula

import (
	"context"
	"errors"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yllada/nebula-tower/common"
)

// Pinger measures the round-trip time to a host.
type Pinger interface {
	Ping(ctx context.Context, host string) (time.Duration, error)
}

// ExecPinger sends a single ICMP echo using the system ping command.
type ExecPinger struct {
	Timeout time.Duration
}

var (
	pingTimeRe    = regexp.MustCompile(`time=([0-9]+(?:\.[0-9]+)?)\s*ms`)
	pingSubMillRe = regexp.MustCompile(`time<1\s*ms`)

	errNoPingTime = errors.New("no round-trip time in ping output")
)

// Ping implements Pinger.
func (p ExecPinger) Ping(ctx context.Context, host string) (time.Duration, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = common.ProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "ping", pingArgs(host)...).Output()
	if err != nil {
		return 0, err
	}
	return ParsePingOutput(string(out))
}

// ParsePingOutput extracts the round-trip time from ping output.
func ParsePingOutput(out string) (time.Duration, error) {
	if m := pingTimeRe.FindStringSubmatch(out); m != nil {
		ms, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, err
		}
		return time.Duration(math.Round(ms * float64(time.Millisecond))), nil
	}
	if pingSubMillRe.MatchString(out) {
		return 0, nil
	}
	return 0, errNoPingTime
}

// HealthProber periodically records latency to the configured ping host
// while nebula is running.
type HealthProber struct {
	state    *State
	settings SettingsSource
	logger   common.Logger
	interval time.Duration

	mu       sync.RWMutex
	pinger   Pinger
	onChange func()
}

// NewHealthProber creates a prober using the system ping command.
func NewHealthProber(state *State, settings SettingsSource, logger common.Logger) *HealthProber {
	return &HealthProber{
		state:    state,
		settings: settings,
		logger:   common.OrDefault(logger),
		interval: common.ProbeInterval,
		pinger:   ExecPinger{Timeout: common.ProbeTimeout},
	}
}

// SetPinger replaces the pinger.
func (p *HealthProber) SetPinger(pinger Pinger) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pinger = pinger
}

// SetOnChange sets a callback invoked after every tick.
func (p *HealthProber) SetOnChange(callback func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = callback
}

// Tick performs one probe and returns the recorded latency in milliseconds.
// Nothing is sent while nebula is stopped; failures record 0.
func (p *HealthProber) Tick(ctx context.Context) int64 {
	var latency int64
	if p.state.Running() {
		latency = p.probe(ctx)
	}
	// nebula may have stopped while the probe was in flight.
	latency = p.state.setLatencyIfRunning(latency)

	p.mu.RLock()
	onChange := p.onChange
	p.mu.RUnlock()
	if onChange != nil {
		onChange()
	}
	return latency
}

func (p *HealthProber) probe(ctx context.Context) int64 {
	host := strings.TrimSpace(p.settings.Load().PingHost)
	if host == "" {
		return 0
	}

	p.mu.RLock()
	pinger := p.pinger
	p.mu.RUnlock()

	rtt, err := pinger.Ping(ctx, host)
	if err != nil {
		p.logger.Debug("Ping to %s failed: %v", host, err)
		return 0
	}
	return rtt.Milliseconds()
}

// Run ticks immediately and then on every interval until ctx is cancelled.
func (p *HealthProber) Run(ctx context.Context) {
	p.logger.Info("Health prober started (interval: %v)", p.interval)
	defer p.logger.Info("Health prober stopped")

	p.Tick(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}
