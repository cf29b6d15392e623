package cli

import (
	"context"
	"sync/atomic"

	"github.com/yllada/nebula-tower/common"
	"github.com/yllada/nebula-tower/history"
	"github.com/yllada/nebula-tower/tray"
)

// runTray runs the tray indicator on the calling goroutine until Quit or ctx
// is cancelled.
func runTray(ctx context.Context) error {
	paths, err := appPaths()
	if err != nil {
		return err
	}
	if err := paths.Ensure(); err != nil {
		return err
	}
	logger := common.GetLogger()
	common.LogInfo("Starting %s %s", common.AppName, buildInfo.Version)

	notifier := tray.NewDBusNotifier(logger)
	defer notifier.Close()

	opts := tray.Options{Paths: paths, Logger: logger, Notifier: notifier}
	if store, err := history.Open(paths.HistoryFile()); err != nil {
		common.LogWarn("Run history disabled: %v", err)
	} else {
		defer store.Close()
		opts.Recorder = store
	}

	app := tray.NewApplication(opts)
	publisher := tray.NewSystrayPublisher(app.Dispatch, logger)
	app.SetPublisher(publisher)
	app.SetOnQuit(publisher.Quit)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var started atomic.Bool
	errc := make(chan error, 1)
	publisher.Run(func() {
		started.Store(true)
		go func() {
			errc <- app.Run(ctx)
			// Also covers a signal arriving before Quit was clicked.
			publisher.Quit()
		}()
	}, cancel)

	cancel()
	if !started.Load() {
		return nil
	}
	return <-errc
}
