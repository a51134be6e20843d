// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load(ctx) layers defaults, optional YAML file, and env vars.
// - External errors must be wrapped via this package's error helpers.
package config

import "runtime"

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// CacheTTLHours bounds how long a cached aggregate is served before a
	// rebuild is forced.
	CacheTTLHours int `koanf:"cache_ttl_hours"`

	// ProviderTimeoutMS caps the data provider fetch; the fallback path
	// triggers on timeout.
	ProviderTimeoutMS int `koanf:"provider_timeout_ms"`

	// WorkerCount sets the number of async rebuild workers.
	WorkerCount int `koanf:"worker_count"`

	// RebuildQueueSize bounds the in-memory rebuild queue.
	RebuildQueueSize int `koanf:"rebuild_queue_size"`

	// InFlightSize bounds the in-flight build tracker.
	InFlightSize int `koanf:"in_flight_size"`

	// StorePath is the SQLite file backing the cache, status map and
	// audit log. Empty selects the in-memory store.
	StorePath string `koanf:"store_path"`

	// Provider selects the data provider: "synthetic" or "file".
	Provider string `koanf:"provider"`

	// ProviderFile is the fixture path for the file provider.
	ProviderFile string `koanf:"provider_file"`

	// MaxRankingLimit caps GET /fleet/ranking?limit.
	MaxRankingLimit int `koanf:"max_ranking_limit"`

	// ActorID is recorded on audit entries emitted by this process.
	ActorID string `koanf:"actor_id"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9090",
		CacheTTLHours:     24,
		ProviderTimeoutMS: 5000,
		WorkerCount:       runtime.NumCPU() * 2,
		RebuildQueueSize:  10_000,
		InFlightSize:      10_000,
		StorePath:         "",
		Provider:          "synthetic",
		ProviderFile:      "",
		MaxRankingLimit:   100,
		ActorID:           "system",
	}
}
