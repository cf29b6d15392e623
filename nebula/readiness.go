package nebula

import (
	"strings"

	"github.com/yllada/nebula-tower/common"
	"github.com/yllada/nebula-tower/config"
)

// ReadinessState classifies whether nebula may be started.
type ReadinessState int

const (
	// BinaryMissing means no nebula binary could be found.
	BinaryMissing ReadinessState = iota
	// ConfigMissing means the config, its certificates or the ping host are missing.
	ConfigMissing
	// Ready means nebula can be started.
	Ready
)

// String returns a human-readable representation of the readiness state.
func (s ReadinessState) String() string {
	switch s {
	case BinaryMissing:
		return "Binary missing"
	case ConfigMissing:
		return "Config missing"
	case Ready:
		return "Ready"
	default:
		return "Unknown"
	}
}

// ReadinessResult holds every readiness check, without short-circuiting.
type ReadinessResult struct {
	BinaryPresent         bool
	BinaryPath            string
	ConfigAndCertsPresent bool
	PingHostValid         bool
}

// State classifies the result.
func (r ReadinessResult) State() ReadinessState {
	return Classify(r.BinaryPresent, r.ConfigAndCertsPresent, r.PingHostValid)
}

// Classify combines the three checks. Binary presence takes precedence over
// config files, which take precedence over the ping host.
func Classify(binaryPresent, configAndCertsPresent, pingHostValid bool) ReadinessState {
	switch {
	case !binaryPresent:
		return BinaryMissing
	case !configAndCertsPresent, !pingHostValid:
		return ConfigMissing
	default:
		return Ready
	}
}

// ValidPingHost reports whether host is usable as a ping target.
func ValidPingHost(host string) bool {
	return strings.TrimSpace(host) != ""
}

// ConfigFilesPresent reports whether configPath and the certificates beside it exist.
func ConfigFilesPresent(configPath string) bool {
	if configPath == "" || !common.FileExists(configPath) {
		return false
	}
	for _, path := range common.CertPaths(configPath) {
		if !common.FileExists(path) {
			return false
		}
	}
	return true
}

// Evaluator computes readiness from the filesystem. It is never cached, since
// the binary or certificates may appear at any time.
type Evaluator struct {
	locator *Locator
}

// NewEvaluator creates an evaluator backed by locator.
func NewEvaluator(locator *Locator) *Evaluator {
	return &Evaluator{locator: locator}
}

// Evaluate returns the readiness state, stopping at the first failed check.
func (e *Evaluator) Evaluate(settings *config.Settings) ReadinessState {
	if _, ok := e.locator.Locate(); !ok {
		return BinaryMissing
	}
	if !ConfigFilesPresent(settings.ConfigPath) {
		return ConfigMissing
	}
	if !ValidPingHost(settings.PingHost) {
		return ConfigMissing
	}
	return Ready
}

// Check runs every check and reports each outcome.
func (e *Evaluator) Check(settings *config.Settings) ReadinessResult {
	path, ok := e.locator.Locate()
	return ReadinessResult{
		BinaryPresent:         ok,
		BinaryPath:            path,
		ConfigAndCertsPresent: ConfigFilesPresent(settings.ConfigPath),
		PingHostValid:         ValidPingHost(settings.PingHost),
	}
}
