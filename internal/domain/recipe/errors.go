package recipe

import "errors"

// Domain errors for extracted recipes

var (
	ErrTitleRequired       = errors.New("recipe title is required")
	ErrTitleTooLong        = errors.New("recipe title must not exceed 200 characters")
	ErrTooManyIngredients  = errors.New("recipe must not exceed 100 ingredients")
	ErrIngredientNameEmpty = errors.New("ingredient name is required")
	ErrInvalidStepNumber   = errors.New("step numbers must be positive")
)
