package metrics

import (
	"slices"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Manager.
type Option func(*Manager)

// WithNamespace overrides the "internboard" metric name prefix.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem overrides the "dashboard" metric subsystem.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithLatencyBuckets sets the millisecond buckets of the backend and HTTP
// latency histograms. Buckets are sorted and non-positive values dropped.
func WithLatencyBuckets(buckets []float64) Option {
	return func(m *Manager) {
		kept := slices.DeleteFunc(slices.Clone(buckets), func(b float64) bool { return b <= 0 })
		if len(kept) == 0 {
			return
		}
		slices.Sort(kept)
		m.histogramBuckets = slices.Compact(kept)
	}
}

// WithMetricsEnabled turns recording on or off. A disabled manager still
// registers its collectors so /healthz keeps a stable shape.
func WithMetricsEnabled(enabled bool) Option {
	return func(m *Manager) {
		m.enabled = enabled
	}
}

// WithConstLabels attaches labels such as env or instance to every series.
// Empty keys are ignored.
func WithConstLabels(labels map[string]string) Option {
	return func(m *Manager) {
		for k, v := range labels {
			if k != "" {
				m.customLabels[k] = v
			}
		}
	}
}

// WithPrometheusRegistry registers collectors on registry instead of the
// default registerer.
func WithPrometheusRegistry(registry prometheus.Registerer) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}
