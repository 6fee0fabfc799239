// Package prompt holds the nutrition estimation prompts shared by the chat
// completion adapters and the parser for their JSON replies
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/larderly/server/internal/domain/nutrition"
)

// System is the system message sent with every estimation request
const System = `You are a nutrition calculator. Given a list of ingredients with quantities, calculate the total nutritional values for the entire recipe, then divide by the number of servings to get per-serving values.

For each ingredient, look up standard nutritional values per unit (e.g., per cup, per gram, per piece). Then multiply by the quantity and sum all ingredients. Finally, divide by the number of servings.

Return ONLY valid JSON with this exact structure (all values should be numbers, or null if unknown):
{
  "calories": 250,
  "protein_g": 15.5,
  "carbs_g": 30.0,
  "fat_g": 8.5,
  "fiber_g": 5.0,
  "sugar_g": 10.0,
  "sodium_mg": 500.0,
  "cholesterol_mg": 50.0,
  "saturated_fat_g": 3.0
}

All values should be PER SERVING (already divided by servings). Use standard nutritional databases for common ingredients.`

// User builds the user message for an ingredient list
func User(ingredientLines string, servings int) string {
	return fmt.Sprintf(`Calculate nutrition per serving for this recipe:

Ingredients:
%s

Number of servings: %d

Return the nutrition data as JSON.`, ingredientLines, servings)
}

// ExtractJSON returns the text between the first '{' and the last '}'.
// Models sometimes wrap the object in prose or code fences.
func ExtractJSON(content string) (string, error) {
	content = strings.TrimSpace(content)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no valid JSON found in response")
	}
	return content[start : end+1], nil
}

// ParseProfile reads a model reply into a profile. Only numeric values
// count; a reply without a single number is ErrNoNutritionData.
func ParseProfile(content string) (*nutrition.Profile, error) {
	if strings.TrimSpace(content) == "" {
		return nil, nutrition.ErrNoNutritionData
	}
	jsonStr, err := ExtractJSON(content)
	if err != nil {
		return nil, err
	}

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	var p nutrition.Profile
	for _, key := range nutrition.AllNutrients {
		if v, ok := raw[string(key)].(float64); ok {
			p.Set(key, v)
		}
	}
	if p.IsEmpty() {
		return nil, nutrition.ErrNoNutritionData
	}
	return &p, nil
}
