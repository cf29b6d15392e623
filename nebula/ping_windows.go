//go:build windows

package nebula

func pingArgs(host string) []string {
	return []string{"-n", "1", host}
}
