package outbound

import (
	"context"

	"github.com/larderly/server/internal/domain/nutrition"
)

// NutritionEstimator is the external fallback used when the knowledge base
// cannot resolve every ingredient. ingredientLines holds one
// "<quantity> <unit> <name>" line per ingredient; the result is per serving.
type NutritionEstimator interface {
	EstimateNutrition(ctx context.Context, ingredientLines string, servings int) (*nutrition.Profile, error)
}

// HealthChecker is implemented by adapters that can report on their backend
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
