package recipe

import (
	"strings"
	"testing"

	"github.com/larderly/server/internal/domain/nutrition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestExtractedRecipe_NutritionRequests(t *testing.T) {
	r := &ExtractedRecipe{
		Title: "Pancakes",
		Ingredients: []ExtractedIngredient{
			{Name: "flour", Quantity: "1 1/2", Unit: "cups", AisleCategory: AislePantry},
			{Name: "eggs", Quantity: "2"},
			{Name: "salt", Unit: "pinch"},
		},
	}

	reqs := r.NutritionRequests()

	require.Len(t, reqs, 3)
	assert.Equal(t, nutrition.IngredientRequest{Name: "flour", Quantity: "1 1/2", Unit: "cups"}, reqs[0])
	assert.Equal(t, nutrition.IngredientRequest{Name: "eggs", Quantity: "2", Unit: DefaultUnit}, reqs[1])
	assert.Equal(t, nutrition.IngredientRequest{Name: "salt", Quantity: DefaultQuantity, Unit: "pinch"}, reqs[2])
}

func TestExtractedRecipe_NeedsNutrition(t *testing.T) {
	withIngredients := &ExtractedRecipe{Ingredients: []ExtractedIngredient{{Name: "rice"}}}
	assert.True(t, withIngredients.NeedsNutrition())

	withIngredients.Nutrition = &nutrition.Profile{}
	assert.False(t, withIngredients.NeedsNutrition())

	assert.False(t, (&ExtractedRecipe{}).NeedsNutrition())
}

func TestExtractedRecipe_ServingCount(t *testing.T) {
	assert.Equal(t, 4, (&ExtractedRecipe{Servings: strPtr("Serves 4-6")}).ServingCount())
	assert.Equal(t, 1, (&ExtractedRecipe{}).ServingCount())
}

func TestExtractedRecipe_Validate(t *testing.T) {
	valid := func() *ExtractedRecipe {
		return &ExtractedRecipe{
			Title:       "Tomato Soup",
			Ingredients: []ExtractedIngredient{{Name: "tomato", Quantity: "4"}},
			Steps:       []ExtractedStep{{StepNumber: 1, Instruction: "Simmer."}},
		}
	}

	assert.NoError(t, valid().Validate())

	r := valid()
	r.Title = " "
	assert.ErrorIs(t, r.Validate(), ErrTitleRequired)

	r = valid()
	r.Title = strings.Repeat("a", MaxTitleLength+1)
	assert.ErrorIs(t, r.Validate(), ErrTitleTooLong)

	r = valid()
	r.Ingredients = make([]ExtractedIngredient, MaxIngredients+1)
	assert.ErrorIs(t, r.Validate(), ErrTooManyIngredients)

	r = valid()
	r.Ingredients = append(r.Ingredients, ExtractedIngredient{Quantity: "1"})
	assert.ErrorIs(t, r.Validate(), ErrIngredientNameEmpty)

	r = valid()
	r.Steps[0].StepNumber = 0
	assert.ErrorIs(t, r.Validate(), ErrInvalidStepNumber)
}
