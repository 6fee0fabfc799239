package nutrition

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/larderly/server/internal/domain/nutrition"
)

// CacheKeyPrefix namespaces and versions every cache key. Bump the version
// when the knowledge base or the key layout changes.
const CacheKeyPrefix = "nutrition:v1:"

type keyIngredient struct {
	N string `json:"n"`
	Q string `json:"q"`
	U string `json:"u"`
}

type keyMaterial struct {
	Ingredients []keyIngredient `json:"ingredients"`
	Servings    int             `json:"servings"`
}

// CacheKeyMaterial is the canonical JSON a cache key is derived from. Names
// and units are normalized; ingredient order is kept.
func CacheKeyMaterial(ingredients []nutrition.IngredientRequest, servings int) []byte {
	m := keyMaterial{
		Ingredients: make([]keyIngredient, len(ingredients)),
		Servings:    nutrition.NormalizeServings(servings),
	}
	for i, ing := range ingredients {
		m.Ingredients[i] = keyIngredient{
			N: nutrition.NormalizeName(ing.Name),
			Q: strings.TrimSpace(ing.Quantity),
			U: nutrition.NormalizeUnit(ing.Unit),
		}
	}
	// marshalling plain strings and ints cannot fail
	data, _ := json.Marshal(m)
	return data
}

// CacheKey returns the prefixed SHA-256 key for a request
func CacheKey(ingredients []nutrition.IngredientRequest, servings int) string {
	sum := sha256.Sum256(CacheKeyMaterial(ingredients, servings))
	return CacheKeyPrefix + hex.EncodeToString(sum[:])
}
