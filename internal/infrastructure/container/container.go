// Package container wires the application with Uber FX
package container

import (
	"context"
	"errors"
	"time"

	nutritionapp "github.com/larderly/server/internal/application/nutrition"
	recipeapp "github.com/larderly/server/internal/application/recipe"
	"github.com/larderly/server/internal/domain/nutrition"
	"github.com/larderly/server/internal/infrastructure/ai"
	"github.com/larderly/server/internal/infrastructure/config"
	"github.com/larderly/server/internal/infrastructure/http/apiserver"
	"github.com/larderly/server/internal/infrastructure/http/handlers"
	"github.com/larderly/server/internal/infrastructure/http/middleware"
	"github.com/larderly/server/internal/infrastructure/monitoring"
	"github.com/larderly/server/internal/ports/inbound"
	"github.com/larderly/server/internal/ports/outbound"
	apperrors "github.com/larderly/server/pkg/errors"
	"github.com/larderly/server/pkg/healthcheck"
	"github.com/larderly/server/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// maintenanceInterval paces cache sweeping, pruning and hit-ratio publishing
const maintenanceInterval = time.Minute

// Module returns every module for the API server, reading configuration
// from configPath (empty means the default search paths)
func Module(configPath string) fx.Option {
	return fx.Options(
		fx.Provide(func() (*config.Config, error) {
			return config.Load(configPath)
		}),
		LoggerModule,
		MonitoringModule,
		CacheModule,
		ServiceModule,
		HTTPModule,
		fx.Invoke(RegisterHealthChecks, RegisterLifecycleHooks),
	)
}

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
		})
	},
)

// MonitoringModule provides the metrics registry and tracer
var MonitoringModule = fx.Provide(
	monitoring.NewRegistry,
	func(reg *prometheus.Registry, log *zap.Logger) *monitoring.MetricsCollector {
		return monitoring.NewMetricsCollector(reg, log.Named("metrics"))
	},
	func(cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
		return monitoring.NewTracingProvider(cfg.App, cfg.Monitoring, log.Named("tracing"))
	},
)

// CacheModule provides the nutrition cache backend
var CacheModule = fx.Provide(
	NewCacheBackend,
	func(b *CacheBackend) outbound.NutritionCache {
		return b.Cache
	},
)

// ServiceModule provides the knowledge base, estimator and application
// services
var ServiceModule = fx.Provide(
	nutrition.DefaultKnowledgeBase,

	func(cfg *config.Config, log *zap.Logger) (outbound.NutritionEstimator, error) {
		return ai.NewEstimator(ai.ProviderConfig{
			Provider:    cfg.AI.Provider,
			OpenAIKey:   cfg.AI.OpenAIKey,
			OpenAIURL:   cfg.AI.OpenAIURL,
			OpenAIModel: cfg.AI.OpenAIModel,
			OllamaHost:  cfg.AI.OllamaHost,
			OllamaModel: cfg.AI.OllamaModel,
			Temperature: cfg.AI.Temperature,
			MaxTokens:   cfg.AI.MaxTokens,
			Timeout:     cfg.AI.Timeout,
		}, log)
	},

	func(
		cfg *config.Config,
		kb *nutrition.KnowledgeBase,
		cache outbound.NutritionCache,
		estimator outbound.NutritionEstimator,
		metrics *monitoring.MetricsCollector,
		tracing *monitoring.TracingProvider,
		log *zap.Logger,
	) inbound.NutritionService {
		return nutritionapp.NewService(kb, cache, estimator, log.Named("nutrition"),
			nutritionapp.WithMetrics(metrics),
			nutritionapp.WithTracer(tracing.Tracer()),
			nutritionapp.WithEstimatorTimeout(cfg.Nutrition.EstimatorTimeout),
		)
	},

	fx.Annotate(
		recipeapp.NewRecipeService,
		fx.As(new(inbound.RecipeService)),
	),
)

// HTTPModule provides the API server and its collaborators
var HTTPModule = fx.Provide(
	handlers.NewNutritionHandlers,
	func(cfg *config.Config, log *zap.Logger) *healthcheck.HealthCheck {
		return healthcheck.New(cfg.App.Version, log.Named("health"))
	},
	func(
		cfg *config.Config,
		log *zap.Logger,
		h *handlers.NutritionHandlers,
		health *healthcheck.HealthCheck,
		metrics *monitoring.MetricsCollector,
	) *apiserver.Server {
		var limiter *middleware.RateLimiter
		if cfg.RateLimit.Enable {
			limiter = middleware.NewRateLimiter(cfg.RateLimit)
		}
		if !cfg.Monitoring.EnableMetrics {
			metrics = nil
		}
		return apiserver.NewServer(cfg, log, h, health, metrics, limiter)
	},
)

// RegisterHealthChecks registers the cache and estimator checks
func RegisterHealthChecks(
	health *healthcheck.HealthCheck,
	backend *CacheBackend,
	estimator outbound.NutritionEstimator,
) {
	health.Register("cache", backend.Checker())
	health.Register("estimator", EstimatorChecker(estimator))
}

// EstimatorChecker reports on the estimator backend. The deterministic path
// works without it, so failures only degrade.
func EstimatorChecker(estimator outbound.NutritionEstimator) healthcheck.Checker {
	return healthcheck.NewCustomChecker("estimator", func(ctx context.Context) (healthcheck.Status, string, interface{}) {
		if _, disabled := estimator.(ai.DisabledEstimator); disabled {
			return healthcheck.StatusHealthy, "disabled", nil
		}
		checker, ok := estimator.(outbound.HealthChecker)
		if !ok {
			return healthcheck.StatusHealthy, "", nil
		}
		if err := checker.HealthCheck(ctx); err != nil {
			appErr := apperrors.NewExternalServiceError("estimator", err)
			return healthcheck.StatusDegraded, err.Error(), map[string]interface{}{
				"code":    appErr.Code,
				"details": appErr.Details,
			}
		}
		return healthcheck.StatusHealthy, "", nil
	})
}

// RegisterLifecycleHooks starts and stops the server, the maintenance loop
// and the exporters
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	server *apiserver.Server,
	backend *CacheBackend,
	metrics *monitoring.MetricsCollector,
	tracing *monitoring.TracingProvider,
) {
	var stopMaintenance context.CancelFunc
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting Larderly",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
				zap.String("cache_backend", backend.Name))

			if err := server.Start(); err != nil {
				return err
			}

			var loopCtx context.Context
			loopCtx, stopMaintenance = context.WithCancel(context.Background())
			go func() {
				defer close(done)
				runMaintenance(loopCtx, cfg.Nutrition.Cache.Retention, backend, metrics, log)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down Larderly")

			shutdownCtx := ctx
			if cfg.Server.ShutdownTimeout > 0 {
				var cancel context.CancelFunc
				shutdownCtx, cancel = context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
				defer cancel()
			}

			var errs []error
			if err := server.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
			if stopMaintenance != nil {
				stopMaintenance()
				<-done
			}
			if err := tracing.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
			if err := backend.Close(); err != nil {
				errs = append(errs, err)
			}

			_ = log.Sync()
			return errors.Join(errs...)
		},
	})
}

func runMaintenance(
	ctx context.Context,
	retention time.Duration,
	backend *CacheBackend,
	metrics *monitoring.MetricsCollector,
	log *zap.Logger,
) {
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ratio, ok := backend.HitRatio(); ok {
				metrics.UpdateCacheHitRatio(backend.Name, ratio)
			}
			if swept := backend.SweepExpired(); swept > 0 {
				log.Debug("Swept expired cache entries", zap.Int("removed", swept))
			}
			if _, err := backend.Prune(ctx, retention); err != nil {
				log.Warn("Failed to prune nutrition cache", zap.Error(err))
			}
		}
	}
}
