// Package metrics provides Prometheus metrics for the retention dashboard service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the retention service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// Upstream Metrics - backend API and PostgREST calls
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	upstreamErrors   *prometheus.CounterVec
	schemaRejections *prometheus.CounterVec

	// Dashboard Metrics - what the current view holds
	recordsLoaded prometheus.Gauge
	riskTier      *prometheus.GaugeVec
	viewLoads     *prometheus.CounterVec
	csvExports    prometheus.Counter
	csvRows       prometheus.Counter

	errorsByComponent *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
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
		namespace:        "retention",
		subsystem:        "dashboard",
		histogramBuckets: prometheus.DefBuckets,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	return m.metricPrefix + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
		Buckets:     m.histogramBuckets,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpErrors = auto.NewCounterVec(
		m.counterOpts("http_errors_total", "Total number of HTTP error responses by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.upstreamRequests = auto.NewCounterVec(
		m.counterOpts("upstream_requests_total", "Total number of upstream fetches by source and resource"),
		[]string{"source", "resource", "outcome"},
	)
	m.upstreamLatency = auto.NewHistogramVec(
		m.histogramOpts("upstream_latency_milliseconds", "Upstream fetch latency in milliseconds"),
		[]string{"source", "resource"},
	)
	m.upstreamErrors = auto.NewCounterVec(
		m.counterOpts("upstream_errors_total", "Total number of failed upstream fetches"),
		[]string{"source", "resource", "error_type"},
	)
	m.schemaRejections = auto.NewCounterVec(
		m.counterOpts("schema_rejections_total", "Records dropped because they failed schema validation"),
		[]string{"resource"},
	)

	m.recordsLoaded = auto.NewGauge(m.gaugeOpts("records_loaded", "Prediction records held by the dashboard view"))
	m.riskTier = auto.NewGaugeVec(
		m.gaugeOpts("risk_tier_records", "Prediction records per risk tier"),
		[]string{"level"},
	)
	m.viewLoads = auto.NewCounterVec(
		m.counterOpts("view_loads_total", "Dashboard loads by outcome"),
		[]string{"view", "outcome"},
	)
	m.csvExports = auto.NewCounter(m.counterOpts("csv_exports_total", "Total number of CSV exports served"))
	m.csvRows = auto.NewCounter(m.counterOpts("csv_rows_total", "Total number of rows written to CSV exports"))

	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
}

// Upstream Metrics Functions.

// RecordUpstreamRequest records one upstream fetch and its latency.
func RecordUpstreamRequest(source, resource string, ok bool, latencyMs float64) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	globalManager.upstreamRequests.WithLabelValues(source, resource, outcome).Inc()
	globalManager.upstreamLatency.WithLabelValues(source, resource).Observe(latencyMs)
}

// RecordUpstreamError records a failed upstream fetch by error type.
func RecordUpstreamError(source, resource, errorType string) {
	globalManager.upstreamErrors.WithLabelValues(source, resource, errorType).Inc()
}

// RecordSchemaRejections adds n rejected records for resource.
func RecordSchemaRejections(resource string, n int) {
	if n <= 0 {
		return
	}
	globalManager.schemaRejections.WithLabelValues(resource).Add(float64(n))
}

// Dashboard Metrics Functions.

// UpdateRecordsLoaded sets the number of records in the dashboard view.
func UpdateRecordsLoaded(count int) {
	globalManager.recordsLoaded.Set(float64(count))
}

// UpdateRiskTier sets the record count for one risk tier.
func UpdateRiskTier(level string, count int) {
	globalManager.riskTier.WithLabelValues(level).Set(float64(count))
}

// RecordViewLoad records a dashboard load outcome.
func RecordViewLoad(view string, ok bool) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	globalManager.viewLoads.WithLabelValues(view, outcome).Inc()
}

// RecordCSVExport records one CSV export of rows records.
func RecordCSVExport(rows int) {
	globalManager.csvExports.Inc()
	if rows > 0 {
		globalManager.csvRows.Add(float64(rows))
	}
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RefreshInterval is how often system gauges should be refreshed.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
