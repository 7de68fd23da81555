package repository

import "time"

// Option applies a configuration option to the SnapshotStore.
type Option func(*SnapshotStore)

// WithTTL sets how long a published roster stays fresh.
func WithTTL(ttl time.Duration) Option {
	return func(s *SnapshotStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *SnapshotStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *SnapshotStore) {
		if now != nil {
			s.now = now
		}
	}
}
