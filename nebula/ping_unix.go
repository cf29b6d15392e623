//go:build !windows

package nebula

func pingArgs(host string) []string {
	return []string{"-c", "1", host}
}
