package tray

import (
	"sync"

	"github.com/yllada/nebula-tower/common"
)

// LogPublisher logs menu changes instead of drawing a tray. Used headless.
type LogPublisher struct {
	logger common.Logger

	mu   sync.Mutex
	last *MenuModel
}

// NewLogPublisher creates a logging publisher.
func NewLogPublisher(logger common.Logger) *LogPublisher {
	return &LogPublisher{logger: common.OrDefault(logger)}
}

// Publish implements Publisher.
func (p *LogPublisher) Publish(model MenuModel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last != nil && p.last.Equal(model) {
		return
	}
	p.last = &model
	p.logger.Info("%s", model.Summary())
}
