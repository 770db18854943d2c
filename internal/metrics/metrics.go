// Package metrics exposes Prometheus instrumentation for the matching service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns the service collectors.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	fulfillments        *prometheus.CounterVec
	fulfillmentDuration *prometheus.HistogramVec

	cacheLookups *prometheus.CounterVec

	directoryRequests *prometheus.CounterVec
	directoryDuration *prometheus.HistogramVec

	resolverPaths *prometheus.CounterVec

	rankedCandidates prometheus.Histogram

	analyticsEvents *prometheus.CounterVec

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Option configures a Manager.
type Option func(*Manager)

// WithNamespace sets the metric namespace.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithHistogramBuckets overrides the latency buckets.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// WithPrometheusRegistry registers collectors on the given registerer.
func WithPrometheusRegistry(registry prometheus.Registerer) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

var customRegistry = prometheus.NewRegistry()

var globalManager = NewManager(WithPrometheusRegistry(customRegistry))

// NewManager creates a manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pawmatch",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.fulfillments = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "fulfillment",
		Name:      "requests_total",
		Help:      "Fulfillment requests handled by tag and response status",
	}, []string{"tag", "status"})

	m.fulfillmentDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "fulfillment",
		Name:      "duration_seconds",
		Help:      "Fulfillment handling latency by tag",
		Buckets:   m.histogramBuckets,
	}, []string{"tag"})

	m.cacheLookups = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Cache lookups by entry type and result (hit, miss, error)",
	}, []string{"type", "result"})

	m.directoryRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "directory",
		Name:      "requests_total",
		Help:      "Directory API calls by operation and outcome",
	}, []string{"operation", "outcome"})

	m.directoryDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "directory",
		Name:      "duration_seconds",
		Help:      "Directory API latency including retries",
		Buckets:   m.histogramBuckets,
	}, []string{"operation"})

	m.resolverPaths = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "resolver",
		Name:      "resolutions_total",
		Help:      "Utterance resolutions by serving path",
	}, []string{"path"})

	m.rankedCandidates = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "ranking",
		Name:      "candidates",
		Help:      "Number of candidates scored per ranking call",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
	})

	m.analyticsEvents = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "analytics",
		Name:      "events_total",
		Help:      "Analytics events by outcome (published, dropped, failed)",
	}, []string{"outcome"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// GetRegistry returns the registry backing the package level recorders.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

func RecordFulfillment(tag, status string) {
	globalManager.fulfillments.WithLabelValues(tag, status).Inc()
}

func RecordFulfillmentDuration(tag string, seconds float64) {
	globalManager.fulfillmentDuration.WithLabelValues(tag).Observe(seconds)
}

func RecordCacheLookup(entryType, result string) {
	globalManager.cacheLookups.WithLabelValues(entryType, result).Inc()
}

func RecordDirectoryRequest(operation, outcome string) {
	globalManager.directoryRequests.WithLabelValues(operation, outcome).Inc()
}

func RecordDirectoryDuration(operation string, seconds float64) {
	globalManager.directoryDuration.WithLabelValues(operation).Observe(seconds)
}

func RecordResolverPath(path string) {
	globalManager.resolverPaths.WithLabelValues(path).Inc()
}

func RecordRankedCandidates(count int) {
	globalManager.rankedCandidates.Observe(float64(count))
}

func RecordAnalyticsEvent(outcome string) {
	globalManager.analyticsEvents.WithLabelValues(outcome).Inc()
}

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, seconds float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(seconds)
}
