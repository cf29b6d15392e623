//go:build windows

package common

func binaryFileName() string { return BinaryName + ".exe" }
