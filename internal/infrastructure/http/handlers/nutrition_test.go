package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/larderly/server/internal/domain/nutrition"
	"github.com/larderly/server/internal/domain/recipe"
	"github.com/larderly/server/internal/infrastructure/http/middleware"
	apperrors "github.com/larderly/server/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

// MockNutritionService is a mock implementation of inbound.NutritionService
type MockNutritionService struct {
	mock.Mock
}

func (m *MockNutritionService) CalculateNutritionFromIngredients(ctx context.Context, ingredients []nutrition.IngredientRequest, servings int) *nutrition.Profile {
	args := m.Called(ctx, ingredients, servings)
	p, _ := args.Get(0).(*nutrition.Profile)
	return p
}

func (m *MockNutritionService) Resolve(ctx context.Context, ingredient nutrition.IngredientRequest) (nutrition.Resolution, error) {
	args := m.Called(ctx, ingredient)
	return args.Get(0).(nutrition.Resolution), args.Error(1)
}

// MockRecipeService is a mock implementation of inbound.RecipeService
type MockRecipeService struct {
	mock.Mock
}

func (m *MockRecipeService) EnrichNutrition(ctx context.Context, r *recipe.ExtractedRecipe) {
	m.Called(ctx, r)
}

type NutritionHandlersTestSuite struct {
	suite.Suite
	nutrition *MockNutritionService
	recipes   *MockRecipeService
	router    chi.Router
}

func (s *NutritionHandlersTestSuite) SetupTest() {
	s.nutrition = new(MockNutritionService)
	s.recipes = new(MockRecipeService)
	h := NewNutritionHandlers(s.nutrition, s.recipes, zap.NewNop())

	r := chi.NewRouter()
	r.Use(middleware.MaxBody(4096))
	r.Post("/calculate", h.Calculate)
	r.Get("/resolve", h.Resolve)
	r.Post("/enrich", h.EnrichRecipe)
	s.router = r
}

func (s *NutritionHandlersTestSuite) TearDownTest() {
	s.nutrition.AssertExpectations(s.T())
	s.recipes.AssertExpectations(s.T())
}

func (s *NutritionHandlersTestSuite) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *NutritionHandlersTestSuite) decode(rec *httptest.ResponseRecorder, v interface{}) {
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), v))
}

func (s *NutritionHandlersTestSuite) errorCode(rec *httptest.ResponseRecorder) apperrors.ErrorCode {
	var body apperrors.ErrorResponse
	s.decode(rec, &body)
	s.False(body.Success)
	return body.Error.Code
}

func (s *NutritionHandlersTestSuite) TestCalculate_Available() {
	// Arrange
	profile := nutrition.NewProfile(map[nutrition.NutrientKey]float64{nutrition.Calories: 206})
	want := []nutrition.IngredientRequest{{Name: "flour", Quantity: "200", Unit: "g"}}
	s.nutrition.On("CalculateNutritionFromIngredients", mock.Anything, want, 4).Return(&profile).Once()

	// Act
	rec := s.do(http.MethodPost, "/calculate",
		`{"ingredients":[{"name":"flour","quantity":"200","unit":"g"}],"servings":4}`)

	// Assert
	s.Equal(http.StatusOK, rec.Code)
	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Nutrition map[string]*float64 `json:"nutrition"`
			Available bool                `json:"available"`
			Servings  int                 `json:"servings"`
		} `json:"data"`
	}
	s.decode(rec, &body)
	s.True(body.Success)
	s.True(body.Data.Available)
	s.Equal(4, body.Data.Servings)
	s.Require().NotNil(body.Data.Nutrition["calories"])
	s.Equal(206.0, *body.Data.Nutrition["calories"])
	s.Nil(body.Data.Nutrition["protein_g"])
}

func (s *NutritionHandlersTestSuite) TestCalculate_UnavailableIsNotAnError() {
	s.nutrition.On("CalculateNutritionFromIngredients", mock.Anything, mock.Anything, 1).Return(nil).Once()

	rec := s.do(http.MethodPost, "/calculate", `{"ingredients":[{"name":"dragonfruit"}]}`)

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"success":true,"data":{"nutrition":null,"available":false,"servings":1}}`, rec.Body.String())
}

func (s *NutritionHandlersTestSuite) TestCalculate_ServingsText() {
	s.nutrition.On("CalculateNutritionFromIngredients", mock.Anything, mock.Anything, 4).Return(nil).Once()

	rec := s.do(http.MethodPost, "/calculate", `{"ingredients":[{"name":"rice"}],"servings_text":"Serves 4-6"}`)

	s.Equal(http.StatusOK, rec.Code)
}

func (s *NutritionHandlersTestSuite) TestCalculate_ValidationFailures() {
	tooMany := make([]string, 101)
	for i := range tooMany {
		tooMany[i] = fmt.Sprintf(`{"name":"item %d"}`, i)
	}

	cases := map[string]string{
		"MissingName":  `{"ingredients":[{"quantity":"1"}]}`,
		"TooMany":      `{"ingredients":[` + strings.Join(tooMany, ",") + `]}`,
		"NegativeServ": `{"ingredients":[{"name":"rice"}],"servings":-1}`,
	}

	for name, body := range cases {
		s.Run(name, func() {
			rec := s.do(http.MethodPost, "/calculate", body)

			s.Equal(http.StatusBadRequest, rec.Code)
			s.Equal(apperrors.CodeValidationFailed, s.errorCode(rec))
		})
	}
}

func (s *NutritionHandlersTestSuite) TestCalculate_FieldNamesUseJSONTags() {
	rec := s.do(http.MethodPost, "/calculate", `{"ingredients":[{"unit":"g"}]}`)

	s.Contains(rec.Body.String(), "ingredients[0].name is required")
}

func (s *NutritionHandlersTestSuite) TestCalculate_BadJSON() {
	rec := s.do(http.MethodPost, "/calculate", `{"ingredients":`)

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal(apperrors.CodeBadRequest, s.errorCode(rec))
}

func (s *NutritionHandlersTestSuite) TestCalculate_BodyTooLarge() {
	rec := s.do(http.MethodPost, "/calculate", `{"ingredients":[{"name":"`+strings.Repeat("a", 5000)+`"}]}`)

	s.Equal(http.StatusRequestEntityTooLarge, rec.Code)
	s.Equal(apperrors.CodePayloadTooLarge, s.errorCode(rec))
}

func (s *NutritionHandlersTestSuite) TestResolve() {
	s.Run("Resolved", func() {
		req := nutrition.IngredientRequest{Name: "Flour", Quantity: "1", Unit: "cup"}
		s.nutrition.On("Resolve", mock.Anything, req).
			Return(nutrition.Resolution{Name: "Flour", Key: "flour", Quantity: 1, Unit: "cup", Grams: 120, Resolved: true}, nil).Once()

		rec := s.do(http.MethodGet, "/resolve?name=Flour&quantity=1&unit=cup", "")

		s.Equal(http.StatusOK, rec.Code)
		s.Contains(rec.Body.String(), `"grams":120`)
	})

	s.Run("UnknownUnit", func() {
		req := nutrition.IngredientRequest{Name: "butter", Quantity: "1", Unit: "knob"}
		s.nutrition.On("Resolve", mock.Anything, req).
			Return(nutrition.Resolution{Name: "butter", Key: "butter", Quantity: 1, Unit: "knob"},
				fmt.Errorf("%w: knob", nutrition.ErrUnknownUnit)).Once()

		rec := s.do(http.MethodGet, "/resolve?name=butter&quantity=1&unit=knob", "")

		s.Equal(http.StatusUnprocessableEntity, rec.Code)
		s.Equal(apperrors.CodeUnknownUnit, s.errorCode(rec))
	})

	s.Run("UnknownIngredient", func() {
		req := nutrition.IngredientRequest{Name: "dragonfruit"}
		s.nutrition.On("Resolve", mock.Anything, req).
			Return(nutrition.Resolution{Name: "dragonfruit"}, nutrition.ErrUnknownIngredient).Once()

		rec := s.do(http.MethodGet, "/resolve?name=dragonfruit", "")

		s.Equal(http.StatusUnprocessableEntity, rec.Code)
		s.Equal(apperrors.CodeUnknownIngredient, s.errorCode(rec))
	})

	s.Run("MissingName", func() {
		rec := s.do(http.MethodGet, "/resolve?unit=g", "")

		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *NutritionHandlersTestSuite) TestEnrichRecipe() {
	profile := nutrition.NewProfile(map[nutrition.NutrientKey]float64{nutrition.Calories: 150})
	s.recipes.On("EnrichNutrition", mock.Anything, mock.MatchedBy(func(r *recipe.ExtractedRecipe) bool {
		return r.Title == "Pancakes" && len(r.Ingredients) == 2
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*recipe.ExtractedRecipe).Nutrition = &profile
	}).Once()

	rec := s.do(http.MethodPost, "/enrich",
		`{"title":"Pancakes","servings":"4","ingredients":[{"name":"flour","quantity":"1","unit":"cup"},{"name":"milk"}],"steps":[{"stepNumber":1,"instruction":"Mix"}]}`)

	s.Equal(http.StatusOK, rec.Code)
	var body struct {
		Data recipe.ExtractedRecipe `json:"data"`
	}
	s.decode(rec, &body)
	s.Require().NotNil(body.Data.Nutrition)
	cal, _ := body.Data.Nutrition.Get(nutrition.Calories)
	s.Equal(150.0, cal)
}

func (s *NutritionHandlersTestSuite) TestEnrichRecipe_Invalid() {
	s.Run("MissingTitle", func() {
		rec := s.do(http.MethodPost, "/enrich", `{"ingredients":[{"name":"flour"}]}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("BadStepNumber", func() {
		rec := s.do(http.MethodPost, "/enrich", `{"title":"Toast","steps":[{"stepNumber":0,"instruction":"Toast it"}]}`)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal(apperrors.CodeValidationFailed, s.errorCode(rec))
	})
}

func TestNutritionHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(NutritionHandlersTestSuite))
}
