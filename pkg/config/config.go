// Package config loads the environment-driven defaults for the callguard
// CLI and any long-running integration built on top of the guard
// package: which bundle to load, which mode to run in, and where to send
// audit events when no explicit flag or option overrides them.
package config

import "os"

// Config holds the environment-derived defaults a caller can fall back to
// when a flag or constructor option was not supplied explicitly.
type Config struct {
	BundlePath   string
	Mode         string // "enforce" or "observe"
	LogLevel     string
	AuditSinkURL string // optional HTTP sink target; empty means stdout only
}

// Load reads configuration from environment variables, applying the same
// conventions as the rest of callguard's defaults.
func Load() *Config {
	bundlePath := os.Getenv("CALLGUARD_BUNDLE")

	mode := os.Getenv("CALLGUARD_MODE")
	if mode == "" {
		mode = "enforce"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "INFO"
	}

	return &Config{
		BundlePath:   bundlePath,
		Mode:         mode,
		LogLevel:     logLevel,
		AuditSinkURL: os.Getenv("CALLGUARD_AUDIT_SINK_URL"),
	}
}
