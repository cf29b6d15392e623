//go:build darwin

package nebula

// DefaultLauncher returns the launcher for this platform. On macOS nebula
// needs root to configure its tun device.
func DefaultLauncher() Launcher {
	return ElevatedLauncher{}
}
