// Package apiserver provides the JSON API HTTP server
package apiserver

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/larderly/server/internal/infrastructure/config"
	"github.com/larderly/server/internal/infrastructure/http/handlers"
	"github.com/larderly/server/internal/infrastructure/http/middleware"
	"github.com/larderly/server/internal/infrastructure/monitoring"
	apperrors "github.com/larderly/server/pkg/errors"
	"github.com/larderly/server/pkg/healthcheck"
	"go.uber.org/zap"
)

const (
	livenessPath  = "/live"
	readinessPath = "/ready"
)

// Server is the pure JSON API server
type Server struct {
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
	router   *chi.Mux
	handlers *handlers.NutritionHandlers
	health   *healthcheck.HealthCheck
	metrics  *monitoring.MetricsCollector
	limiter  *middleware.RateLimiter
}

// NewServer builds the router. metrics and limiter are optional.
func NewServer(
	cfg *config.Config,
	log *zap.Logger,
	h *handlers.NutritionHandlers,
	health *healthcheck.HealthCheck,
	metrics *monitoring.MetricsCollector,
	limiter *middleware.RateLimiter,
) *Server {
	s := &Server{
		config:   cfg,
		logger:   log.Named("http"),
		handlers: h,
		health:   health,
		metrics:  metrics,
		limiter:  limiter,
	}

	s.router = s.setupRoutes()
	s.server = &http.Server{
		Addr:           cfg.Server.Addr(),
		Handler:        s.router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       zap.NewStdLog(s.logger),
	}

	return s
}

func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()
	mon := s.config.Monitoring

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger, mon.HealthCheckPath, livenessPath, readinessPath, mon.MetricsPath))
	r.Use(middleware.Recoverer(s.logger))
	r.Use(middleware.Tracing(mon.EnableTracing, s.config.App.Name))
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}
	r.Use(middleware.Security)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, r, apperrors.NewNotFoundError("Route"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, r, apperrors.NewAppError(apperrors.CodeMethodNotAllowed, "Method not allowed", r.Method))
	})

	r.Get(mon.HealthCheckPath, s.health.Handler())
	r.Get(readinessPath, s.health.ReadinessHandler())
	r.Get(livenessPath, s.health.LivenessHandler())
	if s.metrics != nil {
		r.Method(http.MethodGet, mon.MetricsPath, s.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.MaxBody(s.config.Server.MaxBodyBytes))
		r.Use(middleware.JSONOnly)
		if s.limiter != nil {
			r.Use(s.limiter.Middleware)
		}

		r.Get("/openapi.yaml", ServeOpenAPISpec)

		r.Route("/nutrition", func(r chi.Router) {
			r.Post("/calculate", s.handlers.Calculate)
			r.Get("/ingredients/resolve", s.handlers.Resolve)
		})
		r.Post("/recipes/enrich", s.handlers.EnrichRecipe)
	})

	return r
}

// Handler exposes the router, mostly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start binds the listener and serves in the background. Bind errors are
// returned; serve errors after that are logged.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}

	s.logger.Info("Starting JSON API server", zap.String("address", ln.Addr().String()))

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	if s.limiter != nil {
		s.limiter.Stop()
	}
	return s.server.Shutdown(ctx)
}
