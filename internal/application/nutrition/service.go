// Package nutrition provides the application layer for nutrition
// calculation: cache lookup, the deterministic knowledge-base path and the
// external estimator fallback.
package nutrition

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/larderly/server/internal/domain/nutrition"
	"github.com/larderly/server/internal/ports/inbound"
	"github.com/larderly/server/internal/ports/outbound"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const tracerName = "github.com/larderly/server/internal/application/nutrition"

var _ inbound.NutritionService = (*Service)(nil)

// Service implements inbound.NutritionService
type Service struct {
	kb        *nutrition.KnowledgeBase
	cache     outbound.NutritionCache
	estimator outbound.NutritionEstimator
	metrics   Metrics
	tracer    trace.Tracer
	logger    *zap.Logger
	timeout   time.Duration
	inflight  singleflight.Group
}

// Option configures a Service
type Option func(*Service)

// WithMetrics sets the metrics sink
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTracer overrides the tracer taken from the global provider
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithEstimatorTimeout bounds each estimator call. Zero leaves the caller's
// deadline in charge.
func WithEstimatorTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.timeout = d
	}
}

// NewService creates a new nutrition service
func NewService(
	kb *nutrition.KnowledgeBase,
	cache outbound.NutritionCache,
	estimator outbound.NutritionEstimator,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		kb:        kb,
		cache:     cache,
		estimator: estimator,
		metrics:   nopMetrics{},
		tracer:    otel.Tracer(tracerName),
		logger:    logger.Named("nutrition-service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CalculateNutritionFromIngredients returns the per-serving profile for the
// ingredient list, or nil when no source could produce one. Results are
// memoized by request; failures are logged and never cached.
func (s *Service) CalculateNutritionFromIngredients(ctx context.Context, ingredients []nutrition.IngredientRequest, servings int) *nutrition.Profile {
	if len(ingredients) == 0 {
		return nil
	}
	servings = nutrition.NormalizeServings(servings)

	ctx, span := s.tracer.Start(ctx, "nutrition.calculate", trace.WithAttributes(
		attribute.Int("nutrition.ingredients", len(ingredients)),
		attribute.Int("nutrition.servings", servings),
	))
	defer span.End()

	key := CacheKey(ingredients, servings)

	if cached, ok := s.cache.Get(ctx, key); ok {
		s.finish(span, OutcomeCacheHit)
		return cached
	}

	profile, err := s.kb.Calculate(ingredients, servings)
	if err == nil {
		s.cache.Put(outbound.WithSource(ctx, outbound.SourceDeterministic), key, profile)
		s.finish(span, OutcomeDeterministic)
		return profile
	}
	s.recordUnresolved(err)

	v, err, shared := s.inflight.Do(key, func() (interface{}, error) {
		return s.estimate(ctx, ingredients, servings)
	})
	if err != nil {
		s.logger.Warn("Nutrition unavailable",
			zap.Int("ingredients", len(ingredients)),
			zap.Int("servings", servings),
			zap.Error(err),
		)
		span.RecordError(err)
		s.finish(span, OutcomeUnavailable)
		return nil
	}

	estimated := v.(*nutrition.Profile)
	if shared {
		clone := estimated.Clone()
		estimated = &clone
	}
	s.cache.Put(outbound.WithSource(ctx, outbound.SourceEstimated), key, estimated)
	s.finish(span, OutcomeEstimated)
	return estimated
}

// Resolve explains how one ingredient line maps onto the knowledge base
func (s *Service) Resolve(ctx context.Context, ingredient nutrition.IngredientRequest) (nutrition.Resolution, error) {
	_, span := s.tracer.Start(ctx, "nutrition.resolve")
	defer span.End()

	res, err := s.kb.ResolveLine(ingredient)
	span.SetAttributes(
		attribute.String("nutrition.key", res.Key),
		attribute.Bool("nutrition.resolved", res.Resolved),
	)
	return res, err
}

func (s *Service) estimate(ctx context.Context, ingredients []nutrition.IngredientRequest, servings int) (*nutrition.Profile, error) {
	ctx, span := s.tracer.Start(ctx, "nutrition.estimate")
	defer span.End()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	profile, err := s.estimator.EstimateNutrition(ctx, RenderLines(ingredients), servings)
	if err == nil && (profile == nil || profile.IsEmpty()) {
		err = nutrition.ErrNoNutritionData
	}
	s.metrics.ObserveEstimator(time.Since(start), err)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	clean := profile.Sanitize()
	return &clean, nil
}

func (s *Service) recordUnresolved(err error) {
	reason := UnresolvedIngredient
	if errors.Is(err, nutrition.ErrUnknownUnit) {
		reason = UnresolvedUnit
	}
	s.metrics.RecordUnresolved(reason)
	s.logger.Debug("Deterministic nutrition incomplete, using estimator",
		zap.String("reason", reason),
		zap.Error(err),
	)
}

func (s *Service) finish(span trace.Span, outcome Outcome) {
	span.SetAttributes(attribute.String("nutrition.outcome", string(outcome)))
	s.metrics.RecordCalculation(outcome)
}

// RenderLines formats ingredients one per line for the estimator prompt
func RenderLines(ingredients []nutrition.IngredientRequest) string {
	lines := make([]string, len(ingredients))
	for i, ing := range ingredients {
		lines[i] = ing.Line()
	}
	return strings.Join(lines, "\n")
}
