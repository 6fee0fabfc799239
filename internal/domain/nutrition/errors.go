package nutrition

import "errors"

// Domain errors for nutrition resolution

var (
	// Resolution failures. The deterministic path treats these as a signal to
	// hand the whole request to the estimator, never as user-facing errors.
	ErrUnknownIngredient = errors.New("ingredient not in knowledge base")
	ErrUnknownUnit       = errors.New("unit cannot be converted to grams")

	// Estimator failures
	ErrNoNutritionData = errors.New("estimator returned no nutrition data")

	// Reference data errors
	ErrInvalidAmount       = errors.New("nutrient amount must be a finite non-negative number")
	ErrDuplicateIngredient = errors.New("ingredient key already exists in knowledge base")
	ErrDanglingAlias       = errors.New("alias points at unknown ingredient key")
	ErrEmptyIngredientKey  = errors.New("ingredient key is required")
	ErrInvalidGramsPerUnit = errors.New("grams per unit must be positive")
)
