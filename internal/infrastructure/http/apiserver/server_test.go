package apiserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	nutritionapp "github.com/larderly/server/internal/application/nutrition"
	recipeapp "github.com/larderly/server/internal/application/recipe"
	"github.com/larderly/server/internal/domain/nutrition"
	"github.com/larderly/server/internal/infrastructure/ai"
	"github.com/larderly/server/internal/infrastructure/cache"
	"github.com/larderly/server/internal/infrastructure/config"
	"github.com/larderly/server/internal/infrastructure/http/handlers"
	"github.com/larderly/server/internal/infrastructure/http/middleware"
	"github.com/larderly/server/internal/infrastructure/monitoring"
	"github.com/larderly/server/pkg/healthcheck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type ServerTestSuite struct {
	suite.Suite
	server *Server
}

func (s *ServerTestSuite) SetupTest() {
	mon := config.MonitoringConfig{EnableMetrics: true, HealthCheckPath: "/health", MetricsPath: "/metrics"}
	cfg := &config.Config{
		App:        config.AppConfig{Name: "larderly-test", Version: "test"},
		Server:     config.ServerConfig{Host: "127.0.0.1", Port: 0, MaxBodyBytes: 1 << 16},
		Monitoring: mon,
		RateLimit:  config.RateLimitConfig{Enable: true, RequestsPerMin: 600, BurstSize: 3},
	}
	log := zap.NewNop()

	metrics := monitoring.NewMetricsCollector(monitoring.NewRegistry(), log)
	nutritionService := nutritionapp.NewService(
		nutrition.DefaultKnowledgeBase(),
		cache.NewMemoryCache(),
		ai.DisabledEstimator{},
		log,
		nutritionapp.WithMetrics(metrics),
	)
	h := handlers.NewNutritionHandlers(nutritionService, recipeapp.NewRecipeService(nutritionService, log), log)
	health := healthcheck.New("test", log)

	s.server = NewServer(cfg, log, h, health, metrics, middleware.NewRateLimiter(cfg.RateLimit))
}

func (s *ServerTestSuite) TearDownTest() {
	s.server.limiter.Stop()
}

func (s *ServerTestSuite) send(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (s *ServerTestSuite) TestCalculate_EndToEnd() {
	rec := s.send(http.MethodPost, "/api/v1/nutrition/calculate",
		`{"ingredients":[{"name":"flour","quantity":"1","unit":"cup"},{"name":"sugar","quantity":"1/2","unit":"cup"}],"servings":4}`)

	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Data struct {
			Nutrition map[string]*float64 `json:"nutrition"`
			Available bool                `json:"available"`
		} `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.True(body.Data.Available)
	s.InDelta((364*1.2+387*1.0)/4, *body.Data.Nutrition["calories"], 1e-6)
	s.NotEmpty(rec.Header().Get(middleware.RequestIDHeader))
	s.Equal("nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func (s *ServerTestSuite) TestCalculate_UnknownIngredientWithoutEstimator() {
	rec := s.send(http.MethodPost, "/api/v1/nutrition/calculate",
		`{"ingredients":[{"name":"flour","quantity":"1","unit":"cup"},{"name":"moon cheese"}]}`)

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"available":false`)
}

func (s *ServerTestSuite) TestEnrich_EndToEnd() {
	rec := s.send(http.MethodPost, "/api/v1/recipes/enrich",
		`{"title":"Sweet dough","servings":"Serves 4","ingredients":[{"name":"flour","quantity":"1","unit":"cup"},{"name":"sugar","quantity":"1/2","unit":"cup"}]}`)

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"nutrition":{"calories":`)
}

func (s *ServerTestSuite) TestResolve_EndToEnd() {
	rec := s.send(http.MethodGet, "/api/v1/nutrition/ingredients/resolve?name=eggs&quantity=2&unit=piece", "")

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"key":"egg"`)
	s.Contains(rec.Body.String(), `"grams":100`)
}

func (s *ServerTestSuite) TestJSONOnly() {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/nutrition/calculate", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()

	s.server.Handler().ServeHTTP(rec, req)

	s.Equal(http.StatusUnsupportedMediaType, rec.Code)
}

func (s *ServerTestSuite) TestRateLimit() {
	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		codes = append(codes, s.send(http.MethodGet, "/api/v1/nutrition/ingredients/resolve?name=rice", "").Code)
	}

	s.Equal([]int{http.StatusOK, http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	s.Equal(http.StatusOK, s.send(http.MethodGet, "/health", "").Code, "probes are not rate limited")
}

func (s *ServerTestSuite) TestNotFoundAndMethodNotAllowed() {
	s.Equal(http.StatusNotFound, s.send(http.MethodGet, "/api/v1/nope", "").Code)
	s.Equal(http.StatusMethodNotAllowed, s.send(http.MethodGet, "/api/v1/nutrition/calculate", "").Code)
}

func (s *ServerTestSuite) TestProbesAndMetrics() {
	s.send(http.MethodPost, "/api/v1/nutrition/calculate", `{"ingredients":[{"name":"rice","quantity":"100","unit":"g"}]}`)

	s.Equal(http.StatusOK, s.send(http.MethodGet, "/health", "").Code)
	s.Equal(http.StatusOK, s.send(http.MethodGet, "/ready", "").Code)
	s.Equal(http.StatusOK, s.send(http.MethodGet, "/live", "").Code)

	metrics := s.send(http.MethodGet, "/metrics", "")
	s.Equal(http.StatusOK, metrics.Code)
	s.Contains(metrics.Body.String(), `larderly_nutrition_calculations_total{outcome="deterministic"} 1`)
	s.Contains(metrics.Body.String(), `route="/api/v1/nutrition/calculate"`)
}

func (s *ServerTestSuite) TestOpenAPISpec() {
	rec := s.send(http.MethodGet, "/api/v1/openapi.yaml", "")

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "/nutrition/calculate")
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func TestServer_StartShutdown(t *testing.T) {
	cfg := &config.Config{
		App:        config.AppConfig{Name: "larderly-test"},
		Server:     config.ServerConfig{Host: "127.0.0.1", Port: 0},
		Monitoring: config.MonitoringConfig{HealthCheckPath: "/health", MetricsPath: "/metrics"},
	}
	log := zap.NewNop()
	h := handlers.NewNutritionHandlers(nil, nil, log)
	srv := NewServer(cfg, log, h, healthcheck.New("test", log), nil, nil)

	require.NoError(t, srv.Start())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, srv.Shutdown(ctx))
}
