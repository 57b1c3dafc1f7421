// Package metrics provides Prometheus metrics for the tally counting service.
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
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Game metrics
	submissions       *prometheus.CounterVec
	ignoredMessages   *prometheus.CounterVec
	resets            *prometheus.CounterVec
	personalBests     prometheus.Counter
	rankChanges       prometheus.Counter
	currentCount      prometheus.Gauge
	participants      prometheus.Gauge
	submissionLatency prometheus.Histogram

	// Ingestion metrics
	messagesProcessed prometheus.Counter
	messagesDuplicate prometheus.Counter

	// Persistence metrics
	persistLatency *prometheus.HistogramVec
	persistSaves   *prometheus.CounterVec
	persistDirty   prometheus.Gauge

	// Chat metrics
	messengerEffects *prometheus.CounterVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Queue metrics
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueueTotal      prometheus.Counter
	queueDequeueTotal      prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Worker metrics
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Error metrics
	errorsByComponent *prometheus.CounterVec
	errorsByType      *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tally",
		subsystem:        "counting",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
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
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	// Game
	m.submissions = m.counterVec("submissions_total",
		"Total number of numeric submissions by outcome", "outcome")
	m.ignoredMessages = m.counterVec("ignored_messages_total",
		"Total number of messages ignored before reaching the game", "reason")
	m.resets = m.counterVec("resets_total",
		"Total number of count resets by reason", "reason")
	m.personalBests = m.counter("personal_bests_total",
		"Total number of personal bests beaten")
	m.rankChanges = m.counter("rank_improvements_total",
		"Total number of leaderboard rank improvements")
	m.currentCount = m.gauge("current_count",
		"Last successfully reached count")
	m.participants = m.gauge("participants",
		"Number of users on the leaderboard")
	m.submissionLatency = m.histogram("submission_latency_milliseconds",
		"Time spent applying a submission including persistence", m.histogramBuckets)

	// Ingestion
	m.messagesProcessed = m.counter("messages_processed_total",
		"Total number of chat messages handled")
	m.messagesDuplicate = m.counter("messages_duplicate_total",
		"Total number of redelivered chat messages dropped")

	// Persistence
	m.persistLatency = m.histogramVec("persist_latency_milliseconds",
		"Document load and save latency in milliseconds", "operation")
	m.persistSaves = m.counterVec("persist_saves_total",
		"Total number of document saves by result", "result")
	m.persistDirty = m.gauge("persist_dirty",
		"1 when in-memory state has not reached durable storage")

	// Chat
	m.messengerEffects = m.counterVec("messenger_effects_total",
		"Total number of chat effects delivered by kind and result", "kind", "result")

	// HTTP
	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	// Queue
	m.queueSize = m.gauge("queue_size", "Current number of queued messages")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio",
		"Queue utilization ratio (current size / capacity)")
	m.queueEnqueueTotal = m.counter("queue_enqueue_total", "Total number of messages enqueued")
	m.queueDequeueTotal = m.counter("queue_dequeue_total", "Total number of messages dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Total number of enqueue errors")
	m.queueProcessingLatency = m.histogram("queue_processing_latency_milliseconds",
		"Time messages waited in the queue in milliseconds", m.histogramBuckets)

	// Worker
	m.workerCount = m.gauge("worker_count", "Configured number of workers")
	m.workerActiveCount = m.gauge("worker_active_count", "Number of running workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds",
		"Worker handling latency in milliseconds", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Total number of worker handling errors")

	// Errors
	m.errorsByComponent = m.counterVec("errors_by_component_total",
		"Total number of errors by component", "component", "error_type")
	m.errorsByType = m.counterVec("errors_by_type_total",
		"Total number of errors by type", "error_type", "severity")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Total number of errors by endpoint", "endpoint", "method", "error_type")

	// System
	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap memory in use in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Game Metrics Functions.

// RecordSubmission counts a numeric submission by its outcome label.
func RecordSubmission(outcome string) {
	globalManager.submissions.WithLabelValues(outcome).Inc()
}

// RecordIgnoredMessage counts a message dropped before the game saw it.
func RecordIgnoredMessage(reason string) {
	globalManager.ignoredMessages.WithLabelValues(reason).Inc()
}

// RecordReset counts a return to the baseline.
func RecordReset(reason string) {
	globalManager.resets.WithLabelValues(reason).Inc()
}

// RecordPersonalBest counts a beaten personal best.
func RecordPersonalBest() {
	globalManager.personalBests.Inc()
}

// RecordRankImprovement counts a leaderboard climb.
func RecordRankImprovement() {
	globalManager.rankChanges.Inc()
}

// UpdateCurrentCount sets the current count.
func UpdateCurrentCount(count int64) {
	globalManager.currentCount.Set(float64(count))
}

// UpdateParticipants sets the number of leaderboard entries.
func UpdateParticipants(count int) {
	globalManager.participants.Set(float64(count))
}

// RecordSubmissionLatency records how long a submission took end to end.
func RecordSubmissionLatency(latencyMs float64) {
	globalManager.submissionLatency.Observe(latencyMs)
}

// Ingestion Metrics Functions.

// RecordMessageProcessed counts a handled chat message.
func RecordMessageProcessed() {
	globalManager.messagesProcessed.Inc()
}

// RecordMessageDuplicate counts a redelivered chat message.
func RecordMessageDuplicate() {
	globalManager.messagesDuplicate.Inc()
}

// Persistence Metrics Functions.

// RecordPersistLatency records a load or save latency.
func RecordPersistLatency(operation string, latencyMs float64) {
	globalManager.persistLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordPersistSave counts a save attempt by result ("ok", "failed", "retried").
func RecordPersistSave(result string) {
	globalManager.persistSaves.WithLabelValues(result).Inc()
}

// UpdatePersistDirty flags unsaved state.
func UpdatePersistDirty(dirty bool) {
	v := 0.0
	if dirty {
		v = 1
	}
	globalManager.persistDirty.Set(v)
}

// Chat Metrics Functions.

// RecordMessengerEffect counts a reaction or reply by delivery result.
func RecordMessengerEffect(kind, result string) {
	globalManager.messengerEffects.WithLabelValues(kind, result).Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Queue Metrics Functions.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueTotal.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueTotal.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueProcessingLatency records queue processing latency.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// Worker Metrics Functions.

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Metrics Functions.

// UpdateSystemMemoryUsage sets the memory usage in bytes.
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
