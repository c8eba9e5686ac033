package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistry(t *testing.T) {
	InitRegistry()
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
	assert.Same(t, registry, InitRegistry())
}

func TestRecordIngest(t *testing.T) {
	InitRegistry()

	before := testutil.ToFloat64(IngestRequestsTotal.WithLabelValues("InvalidNav"))
	RecordIngest("InvalidNav", 0.002)
	RecordIngest("InvalidNav", 0.003)
	after := testutil.ToFloat64(IngestRequestsTotal.WithLabelValues("InvalidNav"))

	assert.Equal(t, 2.0, after-before)
}

func TestRecordStoreError(t *testing.T) {
	InitRegistry()

	tests := []struct {
		name      string
		operation string
	}{
		{name: "upsert failure", operation: "upsert"},
		{name: "list failure", operation: "list"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(StoreErrorsTotal.WithLabelValues(tt.operation))
			RecordStoreError(tt.operation)
			assert.Equal(t, before+1, testutil.ToFloat64(StoreErrorsTotal.WithLabelValues(tt.operation)))
		})
	}
}

func TestDashboardMetrics(t *testing.T) {
	InitRegistry()

	before := testutil.ToFloat64(DashboardRendersTotal)
	RecordDashboardRender(0.01)
	UpdateActiveStrategies(3)

	assert.Equal(t, before+1, testutil.ToFloat64(DashboardRendersTotal))
	assert.Equal(t, 3.0, testutil.ToFloat64(ActiveStrategies))
}

func TestStrategyMetrics(t *testing.T) {
	InitRegistry()

	UpdateStrategyNav("btc_usdt_strategy_1", 10250.4568)
	assert.Equal(t, 10250.4568, testutil.ToFloat64(StrategyNav.WithLabelValues("btc_usdt_strategy_1")))

	UpdateStrategyAge("btc_usdt_strategy_1", "success", 2)
	UpdateStrategyAge("btc_usdt_strategy_1", "danger", 30)

	// Only the latest status keeps a series.
	assert.Equal(t, 1, testutil.CollectAndCount(StrategyUpdateAgeMinutes, "navwatch_strategy_update_age_minutes"))
	assert.Equal(t, 30.0, testutil.ToFloat64(StrategyUpdateAgeMinutes.WithLabelValues("btc_usdt_strategy_1", "danger")))
}

func TestRecordHTTPRequest(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordHTTPRequest("/api/update", http.MethodPost, http.StatusOK, 0.004)
	})
	assert.GreaterOrEqual(t, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/api/update", "POST", "200")), 1.0)
}

func TestMetricsHandler(t *testing.T) {
	InitRegistry()
	RecordIngest("success", 0.001)

	handler := Handler()
	require.NotNil(t, handler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "navwatch_ingest_requests_total")
}

func BenchmarkRecordIngest(b *testing.B) {
	InitRegistry()

	for i := 0; i < b.N; i++ {
		RecordIngest("success", 0.001)
	}
}
