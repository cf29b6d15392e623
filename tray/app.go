package tray

import (
	"context"
	"fmt"
	"sync"

	"github.com/yllada/nebula-tower/common"
	"github.com/yllada/nebula-tower/config"
	"github.com/yllada/nebula-tower/nebula"
)

// Options configures an Application. Zero values select the defaults.
type Options struct {
	Paths     common.Paths
	Logger    common.Logger
	Publisher Publisher
	Notifier  common.Notifier
	Opener    Opener
	Launcher  nebula.Launcher
	Recorder  nebula.RunRecorder
}

// Application wires the supervisor, prober and synchronizer together and
// handles menu actions.
type Application struct {
	paths      common.Paths
	logger     common.Logger
	store      *config.Store
	state      *nebula.State
	locator    *nebula.Locator
	evaluator  *nebula.Evaluator
	supervisor *nebula.Supervisor
	prober     *nebula.HealthProber
	lighthouse *nebula.LighthousePoller
	sync       *Synchronizer
	notifier   common.Notifier
	opener     Opener
	installer  *Installer

	mu     sync.Mutex
	cancel context.CancelFunc
	onQuit func()
}

// NewApplication creates an application rooted at opts.Paths.
func NewApplication(opts Options) *Application {
	logger := common.OrDefault(opts.Logger)
	opener := opts.Opener
	if opener == nil {
		opener = SystemOpener{}
	}

	store := config.NewStore(opts.Paths, logger)
	state := nebula.NewState()
	locator := nebula.NewLocator(opts.Paths, logger)

	a := &Application{
		paths:      opts.Paths,
		logger:     logger,
		store:      store,
		state:      state,
		locator:    locator,
		evaluator:  nebula.NewEvaluator(locator),
		supervisor: nebula.NewSupervisor(state, locator, store, opts.Paths, logger),
		prober:     nebula.NewHealthProber(state, store, logger),
		lighthouse: nebula.NewLighthousePoller(state, store, logger),
		sync:       NewSynchronizer(state, store, locator, logger),
		notifier:   opts.Notifier,
		opener:     opener,
		installer:  NewInstaller(opts.Paths, opener, logger),
	}
	if opts.Publisher != nil {
		a.sync.SetPublisher(opts.Publisher)
	}
	if opts.Launcher != nil {
		a.supervisor.SetLauncher(opts.Launcher)
	}
	if opts.Recorder != nil {
		a.supervisor.SetRecorder(opts.Recorder)
	}

	a.supervisor.SetOnChange(a.sync.Refresh)
	a.supervisor.SetOnExit(a.onUnexpectedExit)
	a.prober.SetOnChange(a.sync.Refresh)
	a.lighthouse.SetOnChange(a.sync.Refresh)
	return a
}

// SetPublisher replaces the menu publisher.
func (a *Application) SetPublisher(publisher Publisher) {
	a.sync.SetPublisher(publisher)
}

// SetOnQuit sets a callback invoked after Quit has stopped nebula.
func (a *Application) SetOnQuit(callback func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onQuit = callback
}

// Supervisor returns the process supervisor.
func (a *Application) Supervisor() *nebula.Supervisor { return a.supervisor }

// Synchronizer returns the menu synchronizer.
func (a *Application) Synchronizer() *Synchronizer { return a.sync }

// Store returns the settings store.
func (a *Application) Store() *config.Store { return a.store }

// Run prepares the application directory, starts the background loops and
// blocks until ctx is cancelled or Quit is called. nebula is shut down
// before Run returns.
func (a *Application) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.mu.Lock()
	a.cancel = cancel
	a.mu.Unlock()

	if _, err := a.store.Bootstrap(); err != nil {
		return err
	}
	a.logger.Info("%s started (app dir: %s)", common.AppName, a.paths.Root)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		a.supervisor.RunExitDetector(ctx)
	}()
	go func() {
		defer wg.Done()
		a.prober.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		a.lighthouse.Run(ctx)
	}()

	a.sync.Refresh()

	<-ctx.Done()
	wg.Wait()
	a.supervisor.Shutdown()
	a.logger.Info("%s stopped", common.AppName)
	return nil
}

// Dispatch performs the action behind a menu item.
func (a *Application) Dispatch(id ItemID) {
	a.logger.Debug("Tray: %s clicked", id)

	switch id {
	case ItemToggle:
		if err := a.Toggle(); err != nil {
			a.logger.Warn("Toggle failed: %v", err)
		}
	case ItemSettings:
		a.open(a.paths.SettingsFile())
	case ItemOpenLog:
		a.open(a.paths.LogFile())
	case ItemInstall:
		if err := a.installer.Install(context.Background()); err != nil {
			a.logger.Error("Install failed: %v", err)
			a.notify("Nebula install failed", err.Error())
		}
		a.sync.Refresh()
	case ItemQuit:
		a.Quit()
	default:
		a.logger.Debug("Tray: ignoring %s", id)
	}
}

// Toggle stops nebula when running, otherwise starts it. Readiness is checked
// again here since the menu that was clicked may be stale; stopping is
// always allowed.
func (a *Application) Toggle() error {
	if a.supervisor.Running() {
		a.supervisor.Stop()
		return nil
	}

	settings := a.store.Load()
	if state := a.evaluator.Evaluate(settings); state != nebula.Ready {
		a.sync.Refresh()
		return fmt.Errorf("%w: %s", common.ErrNotReady, state)
	}

	if err := a.supervisor.Start(); err != nil {
		a.notify("Nebula failed to start", err.Error())
		return err
	}
	return nil
}

// Quit shuts nebula down and stops Run.
func (a *Application) Quit() {
	a.logger.Info("Quit requested")
	a.supervisor.Shutdown()

	a.mu.Lock()
	cancel, onQuit := a.cancel, a.onQuit
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if onQuit != nil {
		onQuit()
	}
}

func (a *Application) onUnexpectedExit(end nebula.RunEnd) {
	a.notify("Nebula stopped", fmt.Sprintf("nebula exited unexpectedly (%s)", end.ExitStatus))
}

func (a *Application) open(path string) {
	if err := a.opener.Open(path); err != nil {
		a.logger.Warn("Could not open %s: %v", path, err)
	}
}

func (a *Application) notify(title, message string) {
	if a.notifier == nil {
		return
	}
	if err := a.notifier.Notify(title, message); err != nil {
		a.logger.Debug("Notification failed: %v", err)
	}
}
