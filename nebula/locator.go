package nebula

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/yllada/nebula-tower/common"
)

// Locator resolves the nebula binary and queries its version.
type Locator struct {
	paths          common.Paths
	logger         common.Logger
	lookPath       func(string) (string, error)
	versionTimeout time.Duration

	mu       sync.Mutex
	versions map[string]versionEntry
}

type versionEntry struct {
	modTime time.Time
	size    int64
	version string
}

// NewLocator creates a locator for the app-managed binary under paths.
func NewLocator(paths common.Paths, logger common.Logger) *Locator {
	return &Locator{
		paths:          paths,
		logger:         common.OrDefault(logger),
		lookPath:       exec.LookPath,
		versionTimeout: common.VersionTimeout,
		versions:       make(map[string]versionEntry),
	}
}

// Locate returns the nebula binary path. The app bin directory is preferred
// over the system search path.
func (l *Locator) Locate() (string, bool) {
	local := l.paths.LocalBinary()
	if info, err := os.Stat(local); err == nil && !info.IsDir() {
		return local, true
	}
	if path, err := l.lookPath(common.BinaryName); err == nil {
		return path, true
	}
	return "", false
}

// Version runs "<path> -version" and returns the first non-empty output line.
// Results are cached until the binary changes; failures are not cached.
func (l *Locator) Version(ctx context.Context, path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return "", false
	}

	l.mu.Lock()
	entry, ok := l.versions[path]
	l.mu.Unlock()
	if ok && entry.size == info.Size() && entry.modTime.Equal(info.ModTime()) {
		return entry.version, true
	}

	ctx, cancel := context.WithTimeout(ctx, l.versionTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		l.logger.Debug("Version query failed for %s: %v", path, err)
		return "", false
	}
	version := firstLine(out)
	if version == "" {
		return "", false
	}

	l.mu.Lock()
	l.versions[path] = versionEntry{modTime: info.ModTime(), size: info.Size(), version: version}
	l.mu.Unlock()
	return version, true
}

func firstLine(out []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line
		}
	}
	return ""
}
