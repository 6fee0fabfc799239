// Package recipe holds the recipe shape produced by the extraction step.
// Persistence and CRUD live elsewhere; this package only carries the data
// that nutrition enrichment reads and writes.
package recipe

import (
	"strings"
	"unicode/utf8"

	"github.com/larderly/server/internal/domain/nutrition"
)

const (
	MaxTitleLength = 200
	MaxIngredients = 100

	// Defaults applied to extracted lines before nutrition lookup. "unit"
	// never converts to grams, so a line without a unit goes to the
	// estimator instead of being read as grams.
	DefaultQuantity = "1"
	DefaultUnit     = "unit"
)

// AisleCategory groups ingredients by store aisle
type AisleCategory string

const (
	AisleProduce     AisleCategory = "Produce"
	AisleDairy       AisleCategory = "Dairy"
	AisleMeatSeafood AisleCategory = "Meat & Seafood"
	AisleBakery      AisleCategory = "Bakery"
	AisleFrozen      AisleCategory = "Frozen"
	AislePantry      AisleCategory = "Pantry"
	AisleCannedGoods AisleCategory = "Canned Goods"
	AisleCondiments  AisleCategory = "Condiments"
	AisleBeverages   AisleCategory = "Beverages"
	AisleSnacks      AisleCategory = "Snacks"
	AisleSpices      AisleCategory = "Spices"
	AisleDeli        AisleCategory = "Deli"
	AisleOther       AisleCategory = "Other"
)

// ExtractedIngredient is one ingredient line as the extractor returns it
type ExtractedIngredient struct {
	Name          string        `json:"name" validate:"required,max=200"`
	Quantity      string        `json:"quantity" validate:"max=50"`
	Unit          string        `json:"unit" validate:"max=50"`
	AisleCategory AisleCategory `json:"aisleCategory,omitempty"`
}

// ExtractedStep is one numbered instruction
type ExtractedStep struct {
	StepNumber  int    `json:"stepNumber"`
	Instruction string `json:"instruction"`
}

// ExtractedRecipe is the structured result of recipe extraction
type ExtractedRecipe struct {
	Title       string                `json:"title" validate:"required,max=200"`
	Description string                `json:"description,omitempty"`
	Category    string                `json:"category,omitempty"`
	ImageURL    string                `json:"imageUrl,omitempty"`
	Servings    *string               `json:"servings,omitempty"`
	PrepTime    string                `json:"prepTime,omitempty"`
	CookTime    string                `json:"cookTime,omitempty"`
	Ingredients []ExtractedIngredient `json:"ingredients" validate:"max=100,dive"`
	Steps       []ExtractedStep       `json:"steps"`
	Nutrition   *nutrition.Profile    `json:"nutrition,omitempty"`
}

// Validate checks the recipe against the extraction limits
func (r *ExtractedRecipe) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrTitleRequired
	}
	if utf8.RuneCountInString(r.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if len(r.Ingredients) > MaxIngredients {
		return ErrTooManyIngredients
	}
	for _, ing := range r.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			return ErrIngredientNameEmpty
		}
	}
	for _, s := range r.Steps {
		if s.StepNumber < 1 {
			return ErrInvalidStepNumber
		}
	}
	return nil
}

// NeedsNutrition reports whether enrichment has anything to do
func (r *ExtractedRecipe) NeedsNutrition() bool {
	return r.Nutrition == nil && len(r.Ingredients) > 0
}

// NutritionRequests maps the ingredient lines onto nutrition requests,
// filling DefaultQuantity and DefaultUnit where the extractor left them empty
func (r *ExtractedRecipe) NutritionRequests() []nutrition.IngredientRequest {
	out := make([]nutrition.IngredientRequest, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		req := nutrition.IngredientRequest{Name: ing.Name, Quantity: ing.Quantity, Unit: ing.Unit}
		if strings.TrimSpace(req.Quantity) == "" {
			req.Quantity = DefaultQuantity
		}
		if strings.TrimSpace(req.Unit) == "" {
			req.Unit = DefaultUnit
		}
		out[i] = req
	}
	return out
}

// ServingCount parses the free-text servings field
func (r *ExtractedRecipe) ServingCount() int {
	return nutrition.ParseServings(r.Servings)
}
