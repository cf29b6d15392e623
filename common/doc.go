// Package common provides shared constants, types, utilities, and interfaces
// used throughout the Nebula Tower application.
//
// This package serves as the foundation for cross-cutting concerns:
//
//   - Constants: file names, intervals and timeouts
//   - Paths: every location inside the application's private directory
//   - Errors: sentinel and typed errors for supervision and provisioning
//   - Logger: zap-backed log sink shared by the app and the managed process output
//   - Utils: file checks and PATH manipulation for child processes
//
// # Usage
//
//	paths := common.NewPaths(dir)
//	common.LogInfo("Using nebula from %s", paths.LocalBinary())
//
//	if errors.Is(err, common.ErrBinaryNotFound) {
//	    // offer the install action
//	}
package common
