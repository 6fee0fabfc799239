// Package recipe provides the application layer for extracted recipes
// This implements the use cases defined in the inbound ports
package recipe

import (
	"context"

	"github.com/larderly/server/internal/domain/recipe"
	"github.com/larderly/server/internal/ports/inbound"
	"go.uber.org/zap"
)

// RecipeService implements the recipe use cases
type RecipeService struct {
	nutrition inbound.NutritionService
	logger    *zap.Logger
}

// NewRecipeService creates a new recipe service
func NewRecipeService(nutrition inbound.NutritionService, logger *zap.Logger) *RecipeService {
	return &RecipeService{
		nutrition: nutrition,
		logger:    logger.Named("recipe-service"),
	}
}

// EnrichNutrition fills in per-serving nutrition when the extractor did not
// supply it. A recipe with nutrition already set, or without ingredients, is
// left as is; missing nutrition is never an error.
func (s *RecipeService) EnrichNutrition(ctx context.Context, r *recipe.ExtractedRecipe) {
	if r == nil || !r.NeedsNutrition() {
		return
	}

	servings := r.ServingCount()
	profile := s.nutrition.CalculateNutritionFromIngredients(ctx, r.NutritionRequests(), servings)
	if profile == nil {
		s.logger.Info("Recipe left without nutrition",
			zap.String("title", r.Title),
			zap.Int("ingredients", len(r.Ingredients)),
		)
		return
	}

	r.Nutrition = profile
	s.logger.Debug("Recipe nutrition calculated",
		zap.String("title", r.Title),
		zap.Int("servings", servings),
	)
}
