//go:build !darwin && !windows

package tray

func openCommand(target string) (string, []string) {
	return "xdg-open", []string{target}
}
