// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Loading layers defaults, an optional YAML file and env vars (see Load).
package config

import (
	"runtime"
	"time"
)

// TierThresholds holds the lower bounds of the rated tiers.
type TierThresholds struct {
	Excellent float64 `koanf:"excellent"`
	Good      float64 `koanf:"good"`
	Average   float64 `koanf:"average"`
}

// Valid reports whether the bounds split [0,100] into four non-empty tiers.
func (t TierThresholds) Valid() bool {
	return t.Average > 0 && t.Good > t.Average && t.Excellent > t.Good && t.Excellent <= 100
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoder: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// BackendURL is the base URL of the internship REST backend.
	BackendURL string `koanf:"backend_url"`

	// BackendToken is a static bearer token. When empty the service logs in
	// with BackendEmail/BackendPassword.
	BackendToken    string `koanf:"backend_token"`
	BackendEmail    string `koanf:"backend_email"`
	BackendPassword string `koanf:"backend_password"`

	// BackendTimeoutMS bounds every backend call.
	BackendTimeoutMS int `koanf:"backend_timeout_ms"`

	// RosterTTLMS is how long a fetched roster is served before refetching.
	RosterTTLMS int `koanf:"roster_ttl_ms"`

	// MaxRankingLimit caps GET /rankings?limit.
	MaxRankingLimit int `koanf:"max_ranking_limit"`

	// LORQueueSize bounds the in-memory LOR job queue.
	LORQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of LOR workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize and DedupeTTL bound the idempotency-key cache.
	DedupeSize int           `koanf:"dedupe_size"`
	DedupeTTL  time.Duration `koanf:"dedupe_ttl"`

	// LORMaxAttempts and LORRetryBackoffMS control LOR retries.
	LORMaxAttempts    int `koanf:"lor_max_attempts"`
	LORRetryBackoffMS int `koanf:"lor_retry_backoff_ms"`

	// TierMissingPolicy is "unrated" or "lowest".
	TierMissingPolicy string `koanf:"tier_missing_policy"`

	// TierZeroIsMissing renders an exact 0 as missing.
	TierZeroIsMissing bool `koanf:"tier_zero_is_missing"`

	// TierThresholds overrides the canonical table. From the environment use
	// INTERNBOARD_TIER_THRESHOLDS__EXCELLENT and friends.
	TierThresholds TierThresholds `koanf:"tier_thresholds"`

	// SubScoreWeights maps sub-metric names to weights for the average, e.g.
	// INTERNBOARD_SUBSCORE_WEIGHTS__TASK_QUALITY=2.
	SubScoreWeights map[string]float64 `koanf:"subscore_weights"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		BackendURL:        "http://localhost:5000/api",
		BackendTimeoutMS:  5000,
		RosterTTLMS:       30_000,
		MaxRankingLimit:   100,
		LORQueueSize:      1_000,
		WorkerCount:       runtime.NumCPU(),
		DedupeSize:        10_000,
		DedupeTTL:         10 * time.Minute,
		LORMaxAttempts:    3,
		LORRetryBackoffMS: 500,
		TierMissingPolicy: "unrated",
		TierThresholds: TierThresholds{
			Excellent: 85,
			Good:      70,
			Average:   50,
		},
		SubScoreWeights: map[string]float64{},
	}
}

// BackendTimeout returns BackendTimeoutMS as a duration.
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.BackendTimeoutMS) * time.Millisecond
}

// RosterTTL returns RosterTTLMS as a duration.
func (c *Config) RosterTTL() time.Duration {
	return time.Duration(c.RosterTTLMS) * time.Millisecond
}

// LORRetryBackoff returns LORRetryBackoffMS as a duration.
func (c *Config) LORRetryBackoff() time.Duration {
	return time.Duration(c.LORRetryBackoffMS) * time.Millisecond
}
