package nebula

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/yllada/nebula-tower/common"
)

// LighthouseInfoPath is the enrollment server's status endpoint.
const LighthouseInfoPath = "/client/api/info"

// LighthouseInfo is the status reported by the lighthouse.
type LighthouseInfo struct {
	Message             string `json:"message"`
	CompanyName         string `json:"company_name"`
	PublicIP            string `json:"public_ip"`
	NebulaIP            string `json:"nebula_ip"`
	LighthouseIsRunning bool   `json:"lighthouse_is_running"`
}

// LighthouseStatus is the latest poll result. Info is only meaningful when
// Connected is true.
type LighthouseStatus struct {
	Connected bool
	Info      LighthouseInfo
}

// LighthouseInfoURL builds the status URL for a lighthouse address, which may
// carry a port.
func LighthouseInfoURL(address string) string {
	host := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(address), "http://"), "/")
	u := url.URL{Scheme: "http", Host: host, Path: LighthouseInfoPath}
	return u.String()
}

// LighthousePoller periodically fetches the lighthouse status from the
// address in settings.
type LighthousePoller struct {
	state      *State
	settings   SettingsSource
	logger     common.Logger
	httpClient *http.Client
	interval   time.Duration

	mu       sync.RWMutex
	onChange func()
}

// NewLighthousePoller creates a poller.
func NewLighthousePoller(state *State, settings SettingsSource, logger common.Logger) *LighthousePoller {
	return &LighthousePoller{
		state:      state,
		settings:   settings,
		logger:     common.OrDefault(logger),
		httpClient: &http.Client{Timeout: common.LighthouseTimeout},
		interval:   common.LighthouseInterval,
	}
}

// SetOnChange sets a callback invoked after every poll.
func (p *LighthousePoller) SetOnChange(callback func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = callback
}

// Tick polls once and records the result. Any failure records a
// disconnected status.
func (p *LighthousePoller) Tick(ctx context.Context) LighthouseStatus {
	var status LighthouseStatus
	address := strings.TrimSpace(p.settings.Load().Lighthouse)
	if address != "" {
		info, err := p.fetch(ctx, address)
		if err != nil {
			p.logger.Debug("Lighthouse %s unreachable: %v", address, err)
		} else {
			status = LighthouseStatus{Connected: true, Info: *info}
		}
	}

	if previous := p.state.setLighthouse(status); previous.Connected != status.Connected {
		if status.Connected {
			p.logger.Info("Connected to lighthouse %s (nebula ip %s)", address, orUnknown(status.Info.NebulaIP))
		} else {
			p.logger.Warn("Lost connection to lighthouse")
		}
	}

	p.mu.RLock()
	onChange := p.onChange
	p.mu.RUnlock()
	if onChange != nil {
		onChange()
	}
	return status
}

func (p *LighthousePoller) fetch(ctx context.Context, address string) (*LighthouseInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, LighthouseInfoURL(address), nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var info LighthouseInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decoding status: %w", err)
	}
	return &info, nil
}

// Run polls immediately and then on every interval until ctx is cancelled.
func (p *LighthousePoller) Run(ctx context.Context) {
	p.logger.Info("Lighthouse poller started (interval: %v)", p.interval)
	defer p.logger.Info("Lighthouse poller stopped")

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

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
