/*
Package nebula supervises the managed nebula process.

It contains:
  - Locator: resolves the nebula binary (app bin directory, then PATH) and
    queries its version
  - Evaluator: classifies readiness as BinaryMissing, ConfigMissing or Ready
  - Launcher: builds the process invocation, elevated where the platform needs it
  - Supervisor: owns the single process handle, forwards its output to the
    log and detects unexpected exits
  - HealthProber: measures latency to the configured ping host while running
  - LighthousePoller: fetches the enrollment server's status report

All components share one State record. A handle is only ever owned by one
caller: Stop, the exit detector and Shutdown take it from State under its
mutex, so exactly one of them observes a given process ending.

Usage:

	state := nebula.NewState()
	locator := nebula.NewLocator(paths, logger)
	sup := nebula.NewSupervisor(state, locator, store, paths, logger)
	sup.SetOnChange(synchronizer.Refresh)

	go sup.RunExitDetector(ctx)
	if err := sup.Start(); err != nil {
		// errors.Is(err, common.ErrBinaryNotFound) or common.ErrSpawnFailure
	}
	defer sup.Shutdown()
*/
package nebula
