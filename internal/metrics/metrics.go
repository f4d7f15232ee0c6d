package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all the application metrics
type Metrics struct {
	// Fixture server request metrics
	HTTPRequestTotal    *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Outbound backend calls made by the HTTP gateway
	GatewayRequestTotal    *prometheus.CounterVec
	GatewayRequestDuration *prometheus.HistogramVec

	// Store state transitions (fetch, toggle, navigate, ...)
	StoreTransitionTotal *prometheus.CounterVec

	// Preference storage metrics
	StorageOperationTotal    *prometheus.CounterVec
	StorageOperationDuration *prometheus.HistogramVec

	// Event publishing metrics
	EventPublishTotal    *prometheus.CounterVec
	EventPublishDuration *prometheus.HistogramVec

	// Response schema validation metrics
	SchemaValidationTotal    *prometheus.CounterVec
	SchemaValidationDuration *prometheus.HistogramVec
}

// Global metrics instance with mutex for thread safety
var (
	globalMetrics *Metrics
	metricsMutex  sync.Mutex
)

// NewMetrics returns the process-wide Metrics, creating and registering it on first use.
func NewMetrics() *Metrics {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()

	if globalMetrics != nil {
		return globalMetrics
	}

	m := &Metrics{
		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "album_http_requests_total",
			Help: "Total number of HTTP requests served by the fixture server",
		}, []string{"method", "path", "status"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "album_http_request_duration_seconds",
			Help:    "Fixture server request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),

		GatewayRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "album_gateway_requests_total",
			Help: "Total number of backend API calls",
		}, []string{"operation", "status"}),

		GatewayRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "album_gateway_request_duration_seconds",
			Help:    "Backend API call duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "status"}),

		StoreTransitionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "album_store_transitions_total",
			Help: "Total number of store operations by outcome",
		}, []string{"store", "operation", "outcome"}),

		StorageOperationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "album_storage_operations_total",
			Help: "Total number of preference storage operations",
		}, []string{"operation", "status"}),

		StorageOperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "album_storage_operation_duration_seconds",
			Help:    "Preference storage operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "status"}),

		EventPublishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "album_event_publish_total",
			Help: "Total number of event publish operations",
		}, []string{"event_type", "status"}),

		EventPublishDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "album_event_publish_duration_seconds",
			Help:    "Event publish duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"event_type", "status"}),

		SchemaValidationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "album_schema_validation_total",
			Help: "Total number of response schema validations",
		}, []string{"kind", "status"}),

		SchemaValidationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "album_schema_validation_duration_seconds",
			Help:    "Response schema validation duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind", "status"}),
	}

	registerMetrics(m)
	globalMetrics = m
	return m
}

// registerMetrics registers all metrics with the default registry
func registerMetrics(m *Metrics) {
	registerOrGet(m.HTTPRequestTotal)
	registerOrGet(m.HTTPRequestDuration)
	registerOrGet(m.GatewayRequestTotal)
	registerOrGet(m.GatewayRequestDuration)
	registerOrGet(m.StoreTransitionTotal)
	registerOrGet(m.StorageOperationTotal)
	registerOrGet(m.StorageOperationDuration)
	registerOrGet(m.EventPublishTotal)
	registerOrGet(m.EventPublishDuration)
	registerOrGet(m.SchemaValidationTotal)
	registerOrGet(m.SchemaValidationDuration)
}

// registerOrGet tries to register a metric, returns the existing one if already registered
func registerOrGet(c prometheus.Collector) prometheus.Collector {
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
	}
	return c
}

// Outcome maps an error to the "ok"/"error" label used by the counters above.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
