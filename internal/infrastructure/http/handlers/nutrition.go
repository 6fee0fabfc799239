// Package handlers provides HTTP handlers for the REST API
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/larderly/server/internal/domain/nutrition"
	"github.com/larderly/server/internal/domain/recipe"
	"github.com/larderly/server/internal/infrastructure/http/middleware"
	"github.com/larderly/server/internal/ports/inbound"
	apperrors "github.com/larderly/server/pkg/errors"
	"go.uber.org/zap"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// CalculateRequest is the body of POST /nutrition/calculate. Servings wins
// over ServingsText; with neither the result is for one serving.
type CalculateRequest struct {
	Ingredients  []nutrition.IngredientRequest `json:"ingredients" validate:"max=100,dive"`
	Servings     *int                          `json:"servings" validate:"omitempty,min=0,max=10000"`
	ServingsText *string                       `json:"servings_text" validate:"omitempty,max=100"`
}

// ServingCount resolves the serving count the calculation divides by
func (r CalculateRequest) ServingCount() int {
	if r.Servings != nil {
		return nutrition.NormalizeServings(*r.Servings)
	}
	return nutrition.ParseServings(r.ServingsText)
}

// CalculateResponse carries a profile or the explicit absence of one
type CalculateResponse struct {
	Nutrition *nutrition.Profile `json:"nutrition"`
	Available bool               `json:"available"`
	Servings  int                `json:"servings"`
}

// NutritionHandlers serves the nutrition and recipe enrichment endpoints
type NutritionHandlers struct {
	nutrition inbound.NutritionService
	recipes   inbound.RecipeService
	validator *Validator
	logger    *zap.Logger
}

// NewNutritionHandlers creates the handlers
func NewNutritionHandlers(
	nutritionService inbound.NutritionService,
	recipeService inbound.RecipeService,
	logger *zap.Logger,
) *NutritionHandlers {
	return &NutritionHandlers{
		nutrition: nutritionService,
		recipes:   recipeService,
		validator: NewValidator(),
		logger:    logger.Named("handlers"),
	}
}

// Calculate handles POST /api/v1/nutrition/calculate. An unavailable result
// is a 200 with available=false.
func (h *NutritionHandlers) Calculate(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if appErr := h.decode(r, &req); appErr != nil {
		middleware.WriteError(w, r, appErr)
		return
	}
	if appErr := h.validator.Struct(req); appErr != nil {
		middleware.WriteError(w, r, appErr)
		return
	}

	servings := req.ServingCount()
	profile := h.nutrition.CalculateNutritionFromIngredients(r.Context(), req.Ingredients, servings)

	middleware.WriteJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: CalculateResponse{
			Nutrition: profile,
			Available: profile != nil,
			Servings:  servings,
		},
	})
}

// Resolve handles GET /api/v1/nutrition/ingredients/resolve
func (h *NutritionHandlers) Resolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := nutrition.IngredientRequest{
		Name:     strings.TrimSpace(q.Get("name")),
		Quantity: q.Get("quantity"),
		Unit:     q.Get("unit"),
	}
	if appErr := h.validator.Struct(req); appErr != nil {
		middleware.WriteError(w, r, appErr)
		return
	}

	res, err := h.nutrition.Resolve(r.Context(), req)
	switch {
	case err == nil:
		middleware.WriteJSON(w, http.StatusOK, APIResponse{Success: true, Data: res})
	case errors.Is(err, nutrition.ErrUnknownIngredient):
		middleware.WriteError(w, r, apperrors.NewUnknownIngredientError(req.Name, err).
			WithMetadata("resolution", res))
	case errors.Is(err, nutrition.ErrUnknownUnit):
		middleware.WriteError(w, r, apperrors.NewUnknownUnitError(req.Name, res.Unit, err).
			WithMetadata("resolution", res))
	default:
		h.logger.Error("Ingredient resolution failed", zap.String("name", req.Name), zap.Error(err))
		middleware.WriteError(w, r, apperrors.Wrap(err, "Failed to resolve ingredient"))
	}
}

// EnrichRecipe handles POST /api/v1/recipes/enrich. The recipe comes back
// unchanged when nutrition is already present or unavailable.
func (h *NutritionHandlers) EnrichRecipe(w http.ResponseWriter, r *http.Request) {
	var rec recipe.ExtractedRecipe
	if appErr := h.decode(r, &rec); appErr != nil {
		middleware.WriteError(w, r, appErr)
		return
	}
	if appErr := h.validator.Struct(rec); appErr != nil {
		middleware.WriteError(w, r, appErr)
		return
	}
	if err := rec.Validate(); err != nil {
		middleware.WriteError(w, r, apperrors.NewValidationError(err.Error()))
		return
	}

	h.recipes.EnrichNutrition(r.Context(), &rec)

	middleware.WriteJSON(w, http.StatusOK, APIResponse{Success: true, Data: rec})
}

func (h *NutritionHandlers) decode(r *http.Request, v interface{}) *apperrors.AppError {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if middleware.IsBodyTooLarge(err) {
			var maxErr *http.MaxBytesError
			errors.As(err, &maxErr)
			return apperrors.NewPayloadTooLargeError(maxErr.Limit)
		}
		return apperrors.NewBadRequestError("Invalid JSON body").WithCause(err)
	}
	if dec.More() {
		return apperrors.NewBadRequestError("Request body must contain a single JSON object")
	}
	return nil
}
