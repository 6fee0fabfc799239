package monitoring

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/larderly/server/internal/application/nutrition"
	"github.com/larderly/server/internal/infrastructure/config"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCollector(t *testing.T) *MetricsCollector {
	t.Helper()
	return NewMetricsCollector(NewRegistry(), zap.NewNop())
}

func TestMetricsCollector_NutritionMetrics(t *testing.T) {
	m := newCollector(t)

	m.RecordCalculation(nutrition.OutcomeDeterministic)
	m.RecordCalculation(nutrition.OutcomeDeterministic)
	m.RecordCalculation(nutrition.OutcomeCacheHit)
	m.ObserveEstimator(2*time.Second, nil)
	m.ObserveEstimator(time.Second, errors.New("timeout"))
	m.RecordUnresolved(nutrition.UnresolvedUnit)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.calculationsTotal.WithLabelValues("deterministic")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calculationsTotal.WithLabelValues("cache_hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.estimatorErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.unresolvedTotal.WithLabelValues("unit")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.estimatorDuration))
}

func TestMetricsCollector_Middleware(t *testing.T) {
	m := newCollector(t)
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})

	for _, id := range []string{"1", "2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/"+id, nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/items/{id}", "418")))
}

func TestMetricsCollector_Handler(t *testing.T) {
	m := newCollector(t)
	m.RecordCalculation(nutrition.OutcomeEstimated)
	m.UpdateCacheHitRatio("redis", 0.75)
	rec := httptest.NewRecorder()

	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `larderly_nutrition_calculations_total{outcome="estimated"} 1`)
	assert.Contains(t, body, `larderly_cache_hit_ratio{backend="redis"} 0.75`)
	assert.Contains(t, body, "go_goroutines")
}

func TestTracingProvider_Disabled(t *testing.T) {
	tp, err := NewTracingProvider(config.AppConfig{Name: "larderly"}, config.MonitoringConfig{}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, tp.Enabled())
	_, span := tp.Tracer().Start(context.Background(), "noop")
	span.End()
	assert.False(t, span.SpanContext().IsValid())
	assert.NoError(t, tp.Shutdown(context.Background()))
}
