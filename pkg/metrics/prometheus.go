// Package metrics provides Prometheus metrics for the vehicle
// intelligence engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns all Prometheus collectors for the service.
type Manager struct {
	namespace string
	subsystem string
	registry  *prometheus.Registry

	// Aggregate build pipeline
	buildsTotal    prometheus.Counter
	buildFallbacks prometheus.Counter
	buildDuration  prometheus.Histogram

	// Cache behavior
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter
	cacheExpiries prometheus.Counter

	// VIO generation
	vioGenerated prometheus.Counter
	vioFailed    prometheus.Counter

	// Async rebuild pipeline
	rebuildQueueSize     prometheus.Gauge
	rebuildQueueCapacity prometheus.Gauge
	rebuildEnqueued      prometheus.Counter
	rebuildDuplicates    prometheus.Counter
	workerCount          prometheus.Gauge

	// Fleet ranking
	fleetSize prometheus.Gauge

	// HTTP surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "torque",
		subsystem: "intelligence",
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	factory := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help}
	}
	gaugeOpts := func(name, help string) prometheus.GaugeOpts {
		return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help}
	}

	m.buildsTotal = prometheus.NewCounter(factory("builds_total", "Total aggregate builds attempted."))
	m.buildFallbacks = prometheus.NewCounter(factory("build_fallbacks_total", "Builds that returned the fallback aggregate."))
	m.buildDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "build_duration_seconds", Help: "Aggregate build latency.",
		Buckets: prometheus.DefBuckets,
	})

	m.cacheHits = prometheus.NewCounter(factory("cache_hits_total", "Aggregate cache hits."))
	m.cacheMisses = prometheus.NewCounter(factory("cache_misses_total", "Aggregate cache misses."))
	m.cacheExpiries = prometheus.NewCounter(factory("cache_expiries_total", "Aggregate cache entries found expired."))

	m.vioGenerated = prometheus.NewCounter(factory("vio_generated_total", "Successful VIO generations."))
	m.vioFailed = prometheus.NewCounter(factory("vio_failed_total", "Failed VIO generations."))

	m.rebuildQueueSize = prometheus.NewGauge(gaugeOpts("rebuild_queue_size", "Pending async rebuild requests."))
	m.rebuildQueueCapacity = prometheus.NewGauge(gaugeOpts("rebuild_queue_capacity", "Async rebuild queue capacity."))
	m.rebuildEnqueued = prometheus.NewCounter(factory("rebuilds_enqueued_total", "Async rebuild requests accepted."))
	m.rebuildDuplicates = prometheus.NewCounter(factory("rebuilds_deduplicated_total", "Async rebuild requests collapsed onto an in-flight build."))
	m.workerCount = prometheus.NewGauge(gaugeOpts("worker_count", "Rebuild worker goroutines."))

	m.fleetSize = prometheus.NewGauge(gaugeOpts("fleet_size", "Vehicles tracked in the fleet ranking."))

	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_requests_total", Help: "HTTP requests by endpoint and status.",
	}, []string{"endpoint", "status"})
	m.httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_request_duration_seconds", Help: "HTTP request latency by endpoint.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	m.registry.MustRegister(
		m.buildsTotal, m.buildFallbacks, m.buildDuration,
		m.cacheHits, m.cacheMisses, m.cacheExpiries,
		m.vioGenerated, m.vioFailed,
		m.rebuildQueueSize, m.rebuildQueueCapacity, m.rebuildEnqueued, m.rebuildDuplicates,
		m.workerCount, m.fleetSize,
		m.httpRequests, m.httpRequestDuration,
	)
}

// Handler returns the HTTP handler exposing this manager's registry.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Global manager instance.
var globalManager = NewManager() //nolint:gochecknoglobals // singleton metrics manager

// Handler exposes the global registry.
func Handler() http.Handler { return globalManager.Handler() }

// Package-level helpers delegating to the global manager.

func RecordBuild() { globalManager.buildsTotal.Inc() }

func RecordBuildFallback() { globalManager.buildFallbacks.Inc() }

func ObserveBuildDuration(seconds float64) { globalManager.buildDuration.Observe(seconds) }

func RecordCacheHit() { globalManager.cacheHits.Inc() }

func RecordCacheMiss() { globalManager.cacheMisses.Inc() }

func RecordCacheExpiry() { globalManager.cacheExpiries.Inc() }

func RecordVIOGenerated() { globalManager.vioGenerated.Inc() }

func RecordVIOFailed() { globalManager.vioFailed.Inc() }

func UpdateRebuildQueueSize(n int) { globalManager.rebuildQueueSize.Set(float64(n)) }

func UpdateRebuildQueueCapacity(n int) { globalManager.rebuildQueueCapacity.Set(float64(n)) }

func RecordRebuildEnqueued() { globalManager.rebuildEnqueued.Inc() }

func RecordRebuildDuplicate() { globalManager.rebuildDuplicates.Inc() }

func UpdateWorkerCount(n int) { globalManager.workerCount.Set(float64(n)) }

func UpdateFleetSize(n int) { globalManager.fleetSize.Set(float64(n)) }

func RecordHTTPRequest(endpoint, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, status).Inc()
}

func ObserveHTTPDuration(endpoint string, seconds float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint).Observe(seconds)
}
