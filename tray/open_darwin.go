//go:build darwin

package tray

func openCommand(target string) (string, []string) {
	return "open", []string{target}
}
