// Package metrics provides Prometheus metrics for the spotrank service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every metric exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Ranking sessions
	sessionsStarted     *prometheus.CounterVec
	sessionsCommitted   *prometheus.CounterVec
	sessionsCancelled   *prometheus.CounterVec
	comparisons         prometheus.Histogram
	commitLatency       prometheus.Histogram
	persistenceFailures prometheus.Counter
	activeSessions      prometheus.Gauge
	rankedItems         *prometheus.GaugeVec
	rejectedCandidates  *prometheus.CounterVec

	// Store
	storeLatency *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec

	// Activity queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueue       prometheus.Counter
	queueDequeue       prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Activity workers
	workerCount             prometheus.Gauge
	workerProcessed         prometheus.Counter
	workerErrors            prometheus.Counter
	workerProcessingLatency prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "spotrank",
		subsystem:        "ranking",
		histogramBuckets: prometheus.DefBuckets,
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.sessionsStarted = m.counterVec("sessions_started_total", "Ranking sessions started by kind (add, edit)", "kind")
	m.sessionsCommitted = m.counterVec("sessions_committed_total", "Committed ranking mutations by kind (add, edit, delete)", "kind")
	m.sessionsCancelled = m.counterVec("sessions_cancelled_total", "Ranking sessions cancelled by phase", "phase")
	m.comparisons = m.histogram("comparisons_per_session", "Pairwise comparisons needed to place one item",
		[]float64{0, 1, 2, 3, 4, 5, 6, 8, 10})
	m.commitLatency = m.histogram("commit_latency_milliseconds", "Latency of the normalize and full-replace commit", m.histogramBuckets)
	m.persistenceFailures = m.counter("persistence_failures_total", "Commits rejected by the ranking store")
	m.activeSessions = m.gauge("active_sessions", "Ranking sessions currently in progress")
	m.rankedItems = m.gaugeVec("ranked_items", "Ranked items per tier across loaded lists", "tier")
	m.rejectedCandidates = m.counterVec("rejected_candidates_total", "Candidates rejected before a session starts", "reason")

	m.storeLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "store_latency_milliseconds",
		Help:    "Ranking store call latency by operation",
		Buckets: m.histogramBuckets,
	}, []string{"op"})
	m.storeErrors = m.counterVec("store_errors_total", "Ranking store failures by operation", "op")

	m.queueSize = m.gauge("activity_queue_size", "Activities waiting to be recorded")
	m.queueCapacity = m.gauge("activity_queue_capacity", "Capacity of the activity queue")
	m.queueEnqueue = m.counter("activity_queue_enqueue_total", "Activities enqueued")
	m.queueDequeue = m.counter("activity_queue_dequeue_total", "Activities dequeued")
	m.queueEnqueueErrors = m.counter("activity_queue_enqueue_errors_total", "Activities dropped on enqueue")

	m.workerCount = m.gauge("activity_worker_count", "Activity workers running")
	m.workerProcessed = m.counter("activity_worker_processed_total", "Activities recorded by workers")
	m.workerErrors = m.counter("activity_worker_errors_total", "Activities workers failed to record")
	m.workerProcessingLatency = m.histogram("activity_worker_latency_milliseconds", "Time to record one activity",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100})

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "http_request_duration_milliseconds",
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Allocated heap memory in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Average GC pause in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

// RecordSessionStarted counts a new add or edit session.
func RecordSessionStarted(kind string) {
	globalManager.sessionsStarted.WithLabelValues(kind).Inc()
}

// RecordSessionCommitted counts a committed mutation and the comparisons it took.
func RecordSessionCommitted(kind string, comparisons int) {
	globalManager.sessionsCommitted.WithLabelValues(kind).Inc()
	globalManager.comparisons.Observe(float64(comparisons))
}

// RecordSessionCancelled counts a cancelled session by the phase it was in.
func RecordSessionCancelled(phase string) {
	globalManager.sessionsCancelled.WithLabelValues(phase).Inc()
}

// RecordCommitLatency records the commit protocol latency in milliseconds.
func RecordCommitLatency(latencyMs float64) {
	globalManager.commitLatency.Observe(latencyMs)
}

// RecordPersistenceFailure counts a commit the store refused.
func RecordPersistenceFailure() {
	globalManager.persistenceFailures.Inc()
}

// UpdateActiveSessions sets the number of in-progress sessions.
func UpdateActiveSessions(count int) {
	globalManager.activeSessions.Set(float64(count))
}

// UpdateRankedItems sets the number of ranked items in a tier.
func UpdateRankedItems(tier string, count int) {
	globalManager.rankedItems.WithLabelValues(tier).Set(float64(count))
}

// RecordRejectedCandidate counts a candidate refused before a session starts.
func RecordRejectedCandidate(reason string) {
	globalManager.rejectedCandidates.WithLabelValues(reason).Inc()
}

// RecordStoreLatency records a store call latency in milliseconds.
func RecordStoreLatency(op string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordStoreError counts a failed store call.
func RecordStoreError(op string) {
	globalManager.storeErrors.WithLabelValues(op).Inc()
}

// UpdateQueueSize sets the activity queue length.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the activity queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue counts an enqueued activity.
func RecordQueueEnqueue() {
	globalManager.queueEnqueue.Inc()
}

// RecordQueueDequeue counts a dequeued activity.
func RecordQueueDequeue() {
	globalManager.queueDequeue.Inc()
}

// RecordQueueEnqueueError counts a dropped activity.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the number of activity workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessed counts a recorded activity and its latency.
func RecordWorkerProcessed(latencyMs float64) {
	globalManager.workerProcessed.Inc()
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError counts an activity a worker failed to record.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
