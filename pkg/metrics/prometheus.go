// Package metrics provides Prometheus metrics for the neural-interfaces service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Signal processing
	samplesProcessed  prometheus.Counter
	blocksProcessed   prometheus.Counter
	blocksEmpty       prometheus.Counter
	blocksMalformed   prometheus.Counter
	processingLatency prometheus.Histogram

	// Detection and rhythm outputs
	detectionEvents     *prometheus.CounterVec
	detectionSuppressed *prometheus.GaugeVec
	rhythmReadings      prometheus.Counter
	rhythmAlpha         prometheus.Gauge
	rhythmBeta          prometheus.Gauge
	rhythmRatio         prometheus.Gauge

	// Sources and sinks
	sourceBlocks     *prometheus.CounterVec
	sourcePullErrors *prometheus.CounterVec
	sinkPublished    *prometheus.CounterVec
	sinkErrors       *prometheus.CounterVec
	sinkDropped      *prometheus.CounterVec

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
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

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "neuro",
		subsystem:        "pipeline",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
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

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)

	m.samplesProcessed = m.counter("samples_processed_total", "Total number of samples pushed through the pipeline")
	m.blocksProcessed = m.counter("blocks_processed_total", "Total number of sample blocks processed")
	m.blocksEmpty = m.counter("blocks_empty_total", "Total number of empty pulls (no new data)")
	m.blocksMalformed = m.counter("blocks_malformed_total", "Total number of blocks skipped for a missing channel or misaligned timestamps")
	m.processingLatency = m.histogram("block_processing_latency_milliseconds", "Time spent running one block through detectors and analyzer", m.histogramBuckets)

	m.detectionEvents = m.counterVec("detection_events_total", "Detection events emitted by kind", "kind")
	m.detectionSuppressed = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "detection_suppressed",
		Help:      "Qualifying samples dropped by debounce, by kind",
	}, []string{"kind"})
	m.rhythmReadings = m.counter("rhythm_readings_total", "Total number of rhythm readings emitted")
	m.rhythmAlpha = m.gauge("rhythm_alpha_power", "Alpha band power of the latest reading")
	m.rhythmBeta = m.gauge("rhythm_beta_power", "Beta band power of the latest reading")
	m.rhythmRatio = m.gauge("rhythm_alpha_beta_ratio", "Alpha to beta ratio of the latest reading")

	m.sourceBlocks = m.counterVec("source_blocks_total", "Non-empty blocks pulled by source", "source")
	m.sourcePullErrors = m.counterVec("source_pull_errors_total", "Failed pulls by source", "source")
	m.sinkPublished = m.counterVec("sink_published_total", "Messages published by sink", "sink")
	m.sinkErrors = m.counterVec("sink_errors_total", "Publish failures by sink", "sink")
	m.sinkDropped = m.counterVec("sink_dropped_total", "Messages dropped because the sink buffer was full", "sink")

	m.queueSize = m.gauge("queue_size", "Current number of blocks waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum capacity of the block queue")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue utilization ratio (current / capacity)")
	m.queueEnqueueRate = m.counter("queue_enqueue_total", "Total number of blocks enqueued")
	m.queueDequeueRate = m.counter("queue_dequeue_total", "Total number of blocks dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Total number of enqueue failures")

	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Time from dequeue to processed block", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Total number of blocks the worker failed to process")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordBlockProcessed counts one processed block and its samples.
func RecordBlockProcessed(samples int, latencyMs float64) {
	globalManager.blocksProcessed.Inc()
	globalManager.samplesProcessed.Add(float64(samples))
	globalManager.processingLatency.Observe(latencyMs)
}

// RecordEmptyPull counts a pull that returned no data.
func RecordEmptyPull() {
	globalManager.blocksEmpty.Inc()
}

// RecordMalformedBlock counts a skipped block.
func RecordMalformedBlock() {
	globalManager.blocksMalformed.Inc()
}

// RecordDetectionEvent counts an emitted event of kind.
func RecordDetectionEvent(kind string) {
	globalManager.detectionEvents.WithLabelValues(kind).Inc()
}

// UpdateDetectionSuppressed sets the running debounce suppression count for kind.
func UpdateDetectionSuppressed(kind string, count uint64) {
	globalManager.detectionSuppressed.WithLabelValues(kind).Set(float64(count))
}

// RecordRhythmReading stores the latest band powers.
func RecordRhythmReading(alpha, beta, ratio float64) {
	globalManager.rhythmReadings.Inc()
	globalManager.rhythmAlpha.Set(alpha)
	globalManager.rhythmBeta.Set(beta)
	globalManager.rhythmRatio.Set(ratio)
}

// RecordSourceBlock counts a non-empty block pulled from source.
func RecordSourceBlock(source string) {
	globalManager.sourceBlocks.WithLabelValues(source).Inc()
}

// RecordSourcePullError counts a failed pull from source.
func RecordSourcePullError(source string) {
	globalManager.sourcePullErrors.WithLabelValues(source).Inc()
}

// RecordSinkPublished counts a published message.
func RecordSinkPublished(sink string) {
	globalManager.sinkPublished.WithLabelValues(sink).Inc()
}

// RecordSinkError counts a failed publish.
func RecordSinkError(sink string) {
	globalManager.sinkErrors.WithLabelValues(sink).Inc()
}

// RecordSinkDropped counts a message dropped by a full sink buffer.
func RecordSinkDropped(sink string) {
	globalManager.sinkDropped.WithLabelValues(sink).Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordWorkerProcessingLatency records worker latency in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
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

// RecordErrorByComponent counts an error raised by component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// Configure rebuilds the global manager on a fresh registry with opts. It is
// meant for process startup, before metrics are recorded or served.
func Configure(opts ...Option) {
	customRegistry = prometheus.NewRegistry()
	globalManager = NewManager(append([]Option{WithPrometheusRegistry(customRegistry)}, opts...)...)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
