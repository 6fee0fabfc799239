// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"

	"github.com/larderly/server/internal/domain/nutrition"
	"github.com/larderly/server/internal/domain/recipe"
)

// NutritionService computes per-serving nutrition for ingredient lists
type NutritionService interface {
	// CalculateNutritionFromIngredients returns nil when nutrition is
	// unavailable; it never fails
	CalculateNutritionFromIngredients(ctx context.Context, ingredients []nutrition.IngredientRequest, servings int) *nutrition.Profile

	// Resolve explains how a single ingredient line maps onto the
	// knowledge base
	Resolve(ctx context.Context, ingredient nutrition.IngredientRequest) (nutrition.Resolution, error)
}

// RecipeService enriches recipes produced by the extraction step
type RecipeService interface {
	EnrichNutrition(ctx context.Context, r *recipe.ExtractedRecipe)
}
