// Package config defines process configuration and loading.
//
// Conventions:
// - Defaults come from New; Load layers a YAML file and SIDEOUT_ env vars on top.
// - External errors must be wrapped via this package's error helpers.
package config

import "runtime"

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ReplayQueueSize bounds the in-memory replay verification queue.
	ReplayQueueSize int `koanf:"replay_queue_size"`

	// WorkerCount sets the number of replay verification workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the submission deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`
}

// New creates a Config with default values.
func New() *Config {
	workers := 2
	if n := runtime.NumCPU(); n < workers {
		workers = n
	}
	return &Config{
		LogLevel:        "info",
		Addr:            ":8080",
		ReplayQueueSize: 1024,
		WorkerCount:     workers,
		DedupeSize:      50_000,
	}
}
