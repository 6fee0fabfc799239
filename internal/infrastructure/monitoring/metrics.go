package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/larderly/server/internal/application/nutrition"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "larderly"

var _ nutrition.Metrics = (*MetricsCollector)(nil)

// MetricsCollector handles Prometheus metrics collection
type MetricsCollector struct {
	logger   *zap.Logger
	gatherer prometheus.Gatherer

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// Nutrition metrics
	calculationsTotal *prometheus.CounterVec
	estimatorDuration prometheus.Histogram
	estimatorErrors   prometheus.Counter
	unresolvedTotal   *prometheus.CounterVec

	// Cache metrics
	cacheHitRatio *prometheus.GaugeVec
}

// NewRegistry returns a registry carrying the Go runtime and process
// collectors
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewMetricsCollector registers every metric with reg
func NewMetricsCollector(reg *prometheus.Registry, logger *zap.Logger) *MetricsCollector {
	factory := promauto.With(reg)

	return &MetricsCollector{
		logger:   logger,
		gatherer: reg,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status_code"},
		),
		httpResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_response_size_bytes",
				Help:      "HTTP response size in bytes",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "route"},
		),

		calculationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nutrition_calculations_total",
				Help:      "Nutrition calculations by how they were answered",
			},
			[]string{"outcome"},
		),
		estimatorDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "nutrition_estimator_duration_seconds",
				Help:      "Time spent waiting on the nutrition estimator",
				Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 45, 90},
			},
		),
		estimatorErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nutrition_estimator_errors_total",
				Help:      "Estimator calls that failed or timed out",
			},
		),
		unresolvedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nutrition_unresolved_total",
				Help:      "Ingredient lines the knowledge base could not resolve",
			},
			[]string{"reason"},
		),

		cacheHitRatio: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "cache_hit_ratio",
				Help:      "Cache hit ratio by backend",
			},
			[]string{"backend"},
		),
	}
}

// Middleware records request count, latency and response size keyed by the
// chi route pattern, so path parameters don't explode cardinality
func (m *MetricsCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := routePattern(r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		statusCode := strconv.Itoa(status)

		m.httpRequestsTotal.WithLabelValues(r.Method, route, statusCode).Inc()
		m.httpRequestDuration.WithLabelValues(r.Method, route, statusCode).Observe(time.Since(start).Seconds())
		m.httpResponseSize.WithLabelValues(r.Method, route).Observe(float64(ww.BytesWritten()))
	})
}

// RecordCalculation counts one answered calculation
func (m *MetricsCollector) RecordCalculation(outcome nutrition.Outcome) {
	m.calculationsTotal.WithLabelValues(string(outcome)).Inc()
}

// ObserveEstimator records an estimator round trip
func (m *MetricsCollector) ObserveEstimator(duration time.Duration, err error) {
	m.estimatorDuration.Observe(duration.Seconds())
	if err != nil {
		m.estimatorErrors.Inc()
	}
}

// RecordUnresolved counts a line that fell through to the estimator
func (m *MetricsCollector) RecordUnresolved(reason string) {
	m.unresolvedTotal.WithLabelValues(reason).Inc()
}

// UpdateCacheHitRatio publishes a backend's hit ratio
func (m *MetricsCollector) UpdateCacheHitRatio(backend string, ratio float64) {
	m.cacheHitRatio.WithLabelValues(backend).Set(ratio)
}

// Handler returns the Prometheus metrics HTTP handler for this registry
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{
		ErrorLog: zap.NewStdLog(m.logger),
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
