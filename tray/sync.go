package tray

import (
	"context"
	"sync"

	"github.com/yllada/nebula-tower/common"
	"github.com/yllada/nebula-tower/nebula"
)

// Publisher renders a menu model.
type Publisher interface {
	Publish(model MenuModel)
}

// Synchronizer is the single place the tray menu is rebuilt from. Refresh is
// called after every state change and is safe to call concurrently.
type Synchronizer struct {
	state     *nebula.State
	settings  nebula.SettingsSource
	locator   *nebula.Locator
	evaluator *nebula.Evaluator
	logger    common.Logger

	mu        sync.Mutex
	publisher Publisher
	current   MenuModel
	published bool
}

// NewSynchronizer creates a synchronizer. The publisher may be set later.
func NewSynchronizer(state *nebula.State, settings nebula.SettingsSource, locator *nebula.Locator, logger common.Logger) *Synchronizer {
	return &Synchronizer{
		state:     state,
		settings:  settings,
		locator:   locator,
		evaluator: nebula.NewEvaluator(locator),
		logger:    common.OrDefault(logger),
	}
}

// SetPublisher replaces the publisher.
func (s *Synchronizer) SetPublisher(publisher Publisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publisher = publisher
}

// Refresh recomputes the menu from current state and publishes it.
func (s *Synchronizer) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := s.settings.Load()
	readiness := s.evaluator.Evaluate(settings)
	snap := s.state.Snapshot()

	var version string
	if readiness != nebula.BinaryMissing {
		if path, ok := s.locator.Locate(); ok {
			version, _ = s.locator.Version(context.Background(), path)
		}
	}

	model := BuildMenu(MenuInput{
		Readiness:  readiness,
		Running:    snap.Running,
		LatencyMs:  snap.LatencyMs,
		Version:    version,
		Lighthouse: snap.Lighthouse,
	})
	if !s.published || !model.Equal(s.current) {
		s.logger.Debug("Tray: %s", model.Summary())
	}
	s.current = model
	s.published = true

	if s.publisher != nil {
		s.publisher.Publish(model)
	}
}

// Current returns the last built model.
func (s *Synchronizer) Current() MenuModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
