package tray

import (
	"sync"

	"fyne.io/systray"

	"github.com/yllada/nebula-tower/common"
)

// SystrayPublisher renders menu models into the system tray.
type SystrayPublisher struct {
	dispatch func(ItemID)
	logger   common.Logger

	mu      sync.Mutex
	ready   bool
	pending *MenuModel
	current *MenuModel
	stop    chan struct{}
}

// NewSystrayPublisher creates a publisher sending clicks to dispatch.
func NewSystrayPublisher(dispatch func(ItemID), logger common.Logger) *SystrayPublisher {
	return &SystrayPublisher{dispatch: dispatch, logger: common.OrDefault(logger)}
}

// Run starts the tray event loop and blocks until systray.Quit. It must be
// called from the main goroutine. onReady runs once the tray exists.
func (p *SystrayPublisher) Run(onReady, onExit func()) {
	systray.Run(func() {
		systray.SetIcon(iconStopped)
		systray.SetTitle(common.AppName)
		systray.SetTooltip(common.AppName)

		p.mu.Lock()
		p.ready = true
		pending := p.pending
		p.pending = nil
		p.mu.Unlock()

		if pending != nil {
			p.Publish(*pending)
		}
		if onReady != nil {
			onReady()
		}
	}, func() {
		p.mu.Lock()
		if p.stop != nil {
			close(p.stop)
			p.stop = nil
		}
		p.mu.Unlock()

		if onExit != nil {
			onExit()
		}
		p.logger.Info("Tray indicator cleanup completed")
	})
}

// Quit exits the tray event loop.
func (p *SystrayPublisher) Quit() {
	systray.Quit()
}

// Publish implements Publisher. The menu is rebuilt only when it changed.
func (p *SystrayPublisher) Publish(model MenuModel) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.ready {
		p.pending = &model
		return
	}
	if p.current != nil && p.current.Equal(model) {
		return
	}

	// Click listeners of the previous menu exit when stop closes.
	if p.stop != nil {
		close(p.stop)
	}
	p.stop = make(chan struct{})

	systray.ResetMenu()
	for i, item := range model.Items {
		if i > 0 && separatorBefore(item.ID) {
			systray.AddSeparator()
		}
		mi := systray.AddMenuItem(item.Title, item.Tooltip)
		if !item.Enabled {
			mi.Disable()
			continue
		}
		go p.listen(mi, item.ID, p.stop)
	}

	systray.SetIcon(IconFor(model))
	systray.SetTooltip(model.Tooltip)
	p.current = &model
}

func (p *SystrayPublisher) listen(mi *systray.MenuItem, id ItemID, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-mi.ClickedCh:
			p.dispatch(id)
		}
	}
}

func separatorBefore(id ItemID) bool {
	return id == ItemSettings || id == ItemQuit
}
