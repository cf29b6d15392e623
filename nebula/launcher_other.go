//go:build !darwin

package nebula

// DefaultLauncher returns the launcher for this platform.
func DefaultLauncher() Launcher {
	return DirectLauncher{}
}
