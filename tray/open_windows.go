//go:build windows

package tray

func openCommand(target string) (string, []string) {
	return "cmd", []string{"/C", "start", "", target}
}
