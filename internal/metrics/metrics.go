// Package metrics provides the centralized Prometheus registry for navwatch.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "navwatch"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	IngestRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingest_requests_total",
		Help:      "Total number of snapshot updates by result kind",
	}, []string{"result"})
	DashboardRendersTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dashboard_renders_total",
		Help:      "Total number of dashboard renders",
	})
	StoreErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_errors_total",
		Help:      "Total number of datastore failures by operation",
	}, []string{"operation"})
)

// Gauge metrics
var (
	ActiveStrategies = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_strategies",
		Help:      "Number of strategies shown on the last dashboard render",
	})
)

// Histogram metrics
var (
	IngestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ingest_duration_seconds",
		Help:      "Duration of snapshot update handling in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	DashboardRenderDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "dashboard_render_duration_seconds",
		Help:      "Duration of dashboard view building in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(collectors.NewGoCollector())
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		// Register counter metrics
		registry.MustRegister(IngestRequestsTotal)
		registry.MustRegister(DashboardRendersTotal)
		registry.MustRegister(StoreErrorsTotal)

		// Register gauge metrics
		registry.MustRegister(ActiveStrategies)

		// Register histogram metrics
		registry.MustRegister(IngestDuration)
		registry.MustRegister(DashboardRenderDuration)

		// Register strategy metrics
		registry.MustRegister(StrategyNav)
		registry.MustRegister(StrategyUpdateAgeMinutes)

		// Register HTTP metrics
		registry.MustRegister(HTTPRequestsTotal)
		registry.MustRegister(HTTPRequestDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordIngest records the outcome of one snapshot update.
func RecordIngest(result string, durationSeconds float64) {
	IngestRequestsTotal.WithLabelValues(result).Inc()
	IngestDuration.Observe(durationSeconds)
}

// RecordDashboardRender records a dashboard render.
func RecordDashboardRender(durationSeconds float64) {
	DashboardRendersTotal.Inc()
	DashboardRenderDuration.Observe(durationSeconds)
}

// RecordStoreError records a datastore failure.
// operation should be one of: "upsert", "list"
func RecordStoreError(operation string) {
	StoreErrorsTotal.WithLabelValues(operation).Inc()
}

// UpdateActiveStrategies updates the active strategies gauge.
func UpdateActiveStrategies(count float64) {
	ActiveStrategies.Set(count)
}
