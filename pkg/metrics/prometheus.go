// Package metrics provides Prometheus metrics for the sideout scouting service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the sideout service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Core scouting metrics.
	eventsApplied   prometheus.Counter
	eventsRejected  *prometheus.CounterVec
	eventsDuplicate prometheus.Counter
	eventsUndone    prometheus.Counter
	pointsScored    *prometheus.CounterVec
	rotations       prometheus.Counter
	substitutions   prometheus.Counter
	applyLatency    prometheus.Histogram

	// Set lifecycle metrics.
	setsStarted   prometheus.Counter
	setsCompleted prometheus.Counter
	activeSets    prometheus.Gauge

	// Replay metrics.
	replays          prometheus.Counter
	replayMismatches prometheus.Counter
	replayDuration   prometheus.Histogram

	// Queue and worker health.
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueErrors prometheus.Counter
	workerCount        prometheus.Gauge
	workerErrors       prometheus.Counter

	// HTTP performance metrics.
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "sideout",
		subsystem:        "scout",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.eventsApplied = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_applied_total",
		Help:      "Total number of scouting events applied to a snapshot",
	})

	m.eventsRejected = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "events_rejected_total",
			Help:      "Total number of events rejected before application, by reason",
		},
		[]string{"reason"},
	)

	m.eventsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_duplicate_total",
		Help:      "Total number of duplicate event submissions detected",
	})

	m.eventsUndone = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_undone_total",
		Help:      "Total number of events removed via truncate-and-replay undo",
	})

	m.pointsScored = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "points_scored_total",
			Help:      "Total points recorded, by side",
		},
		[]string{"side"},
	)

	m.rotations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rotations_total",
		Help:      "Total clockwise rotations applied on side-out to break transitions",
	})

	m.substitutions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "substitutions_total",
		Help:      "Total substitutions recorded",
	})

	m.applyLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "apply_latency_milliseconds",
		Help:      "Histogram of single-event apply latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.setsStarted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sets_started_total",
		Help:      "Total sets started",
	})

	m.setsCompleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sets_completed_total",
		Help:      "Total sets that reached a winner",
	})

	m.activeSets = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "active_sets",
		Help:      "Number of sets currently tracked by the service",
	})

	m.replays = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "replays_total",
		Help:      "Total full-log replays performed",
	})

	m.replayMismatches = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "replay_mismatches_total",
		Help:      "Total replays whose rebuilt score diverged from the recorded one",
	})

	m.replayDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "replay_duration_milliseconds",
		Help:      "Histogram of full-log replay duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "replay_queue_size",
		Help:      "Current size of the replay job queue",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "replay_queue_capacity",
		Help:      "Maximum capacity of the replay job queue",
	})

	m.queueEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "replay_queue_enqueue_errors_total",
		Help:      "Total replay jobs dropped due to backpressure or closed queue",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "replay_worker_count",
		Help:      "Current number of replay workers",
	})

	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "replay_worker_errors_total",
		Help:      "Total replay worker failures",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "Histogram of HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// Core scouting metrics functions.

// RecordEventApplied increments the applied events counter.
func RecordEventApplied() {
	globalManager.eventsApplied.Inc()
}

// RecordEventRejected increments the rejected events counter for a reason.
func RecordEventRejected(reason string) {
	globalManager.eventsRejected.WithLabelValues(reason).Inc()
}

// RecordEventDuplicate increments the duplicate submissions counter.
func RecordEventDuplicate() {
	globalManager.eventsDuplicate.Inc()
}

// RecordEventUndone increments the undo counter.
func RecordEventUndone() {
	globalManager.eventsUndone.Inc()
}

// RecordPointScored increments the points counter for a side ("us" or "them").
func RecordPointScored(side string) {
	globalManager.pointsScored.WithLabelValues(side).Inc()
}

// RecordRotation increments the rotations counter.
func RecordRotation() {
	globalManager.rotations.Inc()
}

// RecordSubstitution increments the substitutions counter.
func RecordSubstitution() {
	globalManager.substitutions.Inc()
}

// RecordApplyLatency records single-event apply latency.
func RecordApplyLatency(latencyMs float64) {
	globalManager.applyLatency.Observe(latencyMs)
}

// Set lifecycle metrics functions.

// RecordSetStarted increments the sets started counter.
func RecordSetStarted() {
	globalManager.setsStarted.Inc()
}

// RecordSetCompleted increments the sets completed counter.
func RecordSetCompleted() {
	globalManager.setsCompleted.Inc()
}

// UpdateActiveSets sets the number of tracked sets.
func UpdateActiveSets(count int) {
	globalManager.activeSets.Set(float64(count))
}

// Replay metrics functions.

// RecordReplay increments the replay counter.
func RecordReplay() {
	globalManager.replays.Inc()
}

// RecordReplayMismatch increments the replay mismatch counter.
func RecordReplayMismatch() {
	globalManager.replayMismatches.Inc()
}

// RecordReplayDuration records the duration of a full-log replay.
func RecordReplayDuration(latencyMs float64) {
	globalManager.replayDuration.Observe(latencyMs)
}

// Queue and worker metrics functions.

// UpdateQueueSize sets the current replay queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum replay queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the number of replay workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// HTTP metrics functions.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
