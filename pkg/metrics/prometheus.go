// Package metrics provides Prometheus metrics for the internboard dashboard service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Backend API
	backendRequests *prometheus.CounterVec
	backendLatency  *prometheus.HistogramVec
	backendRelogins prometheus.Counter

	// Roster snapshot
	rosterCacheHits   prometheus.Counter
	rosterCacheMisses prometheus.Counter
	rosterSize        prometheus.Gauge

	// Tiers
	tierClassifications *prometheus.CounterVec

	// LOR pipeline
	lorEnqueued   *prometheus.CounterVec
	lorDuplicates prometheus.Counter
	lorCompleted  *prometheus.CounterVec
	lorDuration   prometheus.Histogram
	lorRetries    prometheus.Counter

	// Queue and workers
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueErrors prometheus.Counter
	workerCount        prometheus.Gauge
	workerBusy         prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // private registry, no default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager. Collectors are registered on the
// configured registry (prometheus.DefaultRegisterer unless overridden).
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "internboard",
		subsystem:        "dashboard",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels, Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.backendRequests = m.counterVec("backend_requests_total",
		"Requests sent to the internship backend by operation and outcome", "operation", "status")
	m.backendLatency = m.histogramVec("backend_request_duration_milliseconds",
		"Backend request latency in milliseconds", "operation")
	m.backendRelogins = m.counter("backend_relogins_total",
		"Logins performed because the backend token was missing or expired")

	m.rosterCacheHits = m.counter("roster_cache_hits_total", "Roster reads served from the snapshot")
	m.rosterCacheMisses = m.counter("roster_cache_misses_total", "Roster reads that had to call the backend")
	m.rosterSize = m.gauge("roster_size", "Interns in the current roster snapshot")

	m.tierClassifications = m.counterVec("tier_classifications_total",
		"Scores classified by resulting tier", "tier")

	m.lorEnqueued = m.counterVec("lor_jobs_enqueued_total", "LOR jobs accepted by action", "action")
	m.lorDuplicates = m.counter("lor_jobs_duplicate_total", "LOR triggers answered from an existing job")
	m.lorCompleted = m.counterVec("lor_jobs_completed_total",
		"LOR jobs that reached a final state", "action", "status")
	m.lorDuration = m.histogram("lor_job_duration_milliseconds",
		"Time from dequeue to final state of a LOR job", m.histogramBuckets)
	m.lorRetries = m.counter("lor_job_retries_total", "LOR backend calls retried after a failure")

	m.queueSize = m.gauge("queue_size", "Current number of queued LOR jobs")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum number of queued LOR jobs")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue size divided by capacity")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "LOR jobs rejected by the queue")
	m.workerCount = m.gauge("worker_count", "Configured LOR workers")
	m.workerBusy = m.gauge("worker_busy", "LOR workers currently running a job")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_by_component_total",
		"Errors by component and type", "component", "error_type")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total",
		"HTTP errors by endpoint, method and type", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Average GC pause in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Enabled reports whether observations are recorded.
func (m *Manager) Enabled() bool { return m.enabled }

// BackendRequest records one backend call.
func (m *Manager) BackendRequest(operation, status string, latencyMs float64) {
	if !m.enabled {
		return
	}
	m.backendRequests.WithLabelValues(operation, status).Inc()
	m.backendLatency.WithLabelValues(operation).Observe(latencyMs)
}

// BackendRelogin records a token refresh.
func (m *Manager) BackendRelogin() {
	if m.enabled {
		m.backendRelogins.Inc()
	}
}

// RosterCache records a snapshot hit or miss.
func (m *Manager) RosterCache(hit bool) {
	if !m.enabled {
		return
	}
	if hit {
		m.rosterCacheHits.Inc()
		return
	}
	m.rosterCacheMisses.Inc()
}

// RosterSize sets the snapshot size.
func (m *Manager) RosterSize(n int) {
	if m.enabled {
		m.rosterSize.Set(float64(n))
	}
}

// TierClassified counts one classification.
func (m *Manager) TierClassified(tier string) {
	if m.enabled {
		m.tierClassifications.WithLabelValues(tier).Inc()
	}
}

// LOREnqueued counts an accepted LOR job.
func (m *Manager) LOREnqueued(action string) {
	if m.enabled {
		m.lorEnqueued.WithLabelValues(action).Inc()
	}
}

// LORDuplicate counts a deduplicated trigger.
func (m *Manager) LORDuplicate() {
	if m.enabled {
		m.lorDuplicates.Inc()
	}
}

// LORCompleted records a finished job.
func (m *Manager) LORCompleted(action, status string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.lorCompleted.WithLabelValues(action, status).Inc()
	m.lorDuration.Observe(durationMs)
}

// LORRetry counts a retried backend call.
func (m *Manager) LORRetry() {
	if m.enabled {
		m.lorRetries.Inc()
	}
}

// Queue sets queue size, capacity and utilization.
func (m *Manager) Queue(size, capacity int) {
	if !m.enabled {
		return
	}
	m.queueSize.Set(float64(size))
	m.queueCapacity.Set(float64(capacity))
	if capacity > 0 {
		m.queueUtilization.Set(float64(size) / float64(capacity))
	}
}

// QueueEnqueueError counts a rejected job.
func (m *Manager) QueueEnqueueError() {
	if m.enabled {
		m.queueEnqueueErrors.Inc()
	}
}

// Workers sets the configured worker count.
func (m *Manager) Workers(n int) {
	if m.enabled {
		m.workerCount.Set(float64(n))
	}
}

// WorkerBusy adjusts the busy-worker gauge by delta.
func (m *Manager) WorkerBusy(delta int) {
	if m.enabled {
		m.workerBusy.Add(float64(delta))
	}
}

// HTTPRequest records an HTTP request and its duration.
func (m *Manager) HTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// ErrorByComponent records an error in a component.
func (m *Manager) ErrorByComponent(component, errorType string) {
	if m.enabled {
		m.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// ErrorByEndpoint records an HTTP error.
func (m *Manager) ErrorByEndpoint(endpoint, method, errorType string) {
	if m.enabled {
		m.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// System sets memory and goroutine gauges and observes the GC pause.
func (m *Manager) System(memBytes uint64, goroutines int, gcPauseMs float64) {
	if !m.enabled {
		return
	}
	m.systemMemoryUsage.Set(float64(memBytes))
	m.systemGoroutineCount.Set(float64(goroutines))
	if gcPauseMs > 0 {
		m.systemGCPauseTime.Observe(gcPauseMs)
	}
}

// Global helpers, all recording on the private registry.

// RecordBackendRequest records one backend call.
func RecordBackendRequest(operation, status string, latencyMs float64) {
	globalManager.BackendRequest(operation, status, latencyMs)
}

// RecordBackendRelogin records a token refresh.
func RecordBackendRelogin() { globalManager.BackendRelogin() }

// RecordRosterCache records a snapshot hit or miss.
func RecordRosterCache(hit bool) { globalManager.RosterCache(hit) }

// UpdateRosterSize sets the snapshot size.
func UpdateRosterSize(n int) { globalManager.RosterSize(n) }

// RecordTierClassified counts one classification.
func RecordTierClassified(tier string) { globalManager.TierClassified(tier) }

// RecordLOREnqueued counts an accepted LOR job.
func RecordLOREnqueued(action string) { globalManager.LOREnqueued(action) }

// RecordLORDuplicate counts a deduplicated trigger.
func RecordLORDuplicate() { globalManager.LORDuplicate() }

// RecordLORCompleted records a finished job.
func RecordLORCompleted(action, status string, durationMs float64) {
	globalManager.LORCompleted(action, status, durationMs)
}

// RecordLORRetry counts a retried backend call.
func RecordLORRetry() { globalManager.LORRetry() }

// UpdateQueue sets queue size, capacity and utilization.
func UpdateQueue(size, capacity int) { globalManager.Queue(size, capacity) }

// RecordQueueEnqueueError counts a rejected job.
func RecordQueueEnqueueError() { globalManager.QueueEnqueueError() }

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(n int) { globalManager.Workers(n) }

// AddWorkerBusy adjusts the busy-worker gauge.
func AddWorkerBusy(delta int) { globalManager.WorkerBusy(delta) }

// RecordHTTPRequest records an HTTP request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.HTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordErrorByComponent records an error in a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.ErrorByComponent(component, errorType)
}

// RecordErrorByEndpoint records an HTTP error.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.ErrorByEndpoint(endpoint, method, errorType)
}

// UpdateSystem sets the system gauges.
func UpdateSystem(memBytes uint64, goroutines int, gcPauseMs float64) {
	globalManager.System(memBytes, goroutines, gcPauseMs)
}

// GetRegistry returns the private registry all global metrics live on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
