package nutrition

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// IngredientProfile is the reference data for one canonical ingredient
type IngredientProfile struct {
	Key     string
	Per100g Profile

	// GramsPerVolumeUnit overrides GenericUnitGrams for this ingredient,
	// keyed by canonical unit name
	GramsPerVolumeUnit map[string]float64

	// GramsPerPiece is the weight of one countable item, nil when the
	// ingredient is not counted in pieces
	GramsPerPiece *float64
}

// Validate checks the reference data of a single profile
func (p IngredientProfile) Validate() error {
	if strings.TrimSpace(p.Key) == "" {
		return ErrEmptyIngredientKey
	}
	if err := p.Per100g.Validate(); err != nil {
		return fmt.Errorf("ingredient %q: %w", p.Key, err)
	}
	for unit, g := range p.GramsPerVolumeUnit {
		if !(g > 0) {
			return fmt.Errorf("ingredient %q unit %q: %w", p.Key, unit, ErrInvalidGramsPerUnit)
		}
	}
	if p.GramsPerPiece != nil && !(*p.GramsPerPiece > 0) {
		return fmt.Errorf("ingredient %q piece: %w", p.Key, ErrInvalidGramsPerUnit)
	}
	return nil
}

// KnowledgeBase is the immutable ingredient table used by the deterministic
// calculation. Profiles keep their insertion order, which decides substring
// matches when several keys fit.
type KnowledgeBase struct {
	profiles []IngredientProfile
	index    map[string]int
	aliases  map[string]string
}

// NewKnowledgeBase validates and indexes the given profiles and aliases.
// Keys, alias spellings and per-profile unit names are normalized on the way
// in.
func NewKnowledgeBase(profiles []IngredientProfile, aliases map[string]string) (*KnowledgeBase, error) {
	kb := &KnowledgeBase{
		profiles: make([]IngredientProfile, 0, len(profiles)),
		index:    make(map[string]int, len(profiles)),
		aliases:  make(map[string]string, len(aliases)),
	}

	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		key := NormalizeName(p.Key)
		if _, exists := kb.index[key]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateIngredient, key)
		}

		units := make(map[string]float64, len(p.GramsPerVolumeUnit))
		for unit, g := range p.GramsPerVolumeUnit {
			units[NormalizeUnit(unit)] = g
		}
		var perPiece *float64
		if p.GramsPerPiece != nil {
			perPiece = grams(*p.GramsPerPiece)
		}

		kb.index[key] = len(kb.profiles)
		kb.profiles = append(kb.profiles, IngredientProfile{
			Key:                key,
			Per100g:            p.Per100g.Clone(),
			GramsPerVolumeUnit: units,
			GramsPerPiece:      perPiece,
		})
	}

	for variant, target := range aliases {
		key := NormalizeName(target)
		if _, ok := kb.index[key]; !ok {
			return nil, fmt.Errorf("%w: %q -> %q", ErrDanglingAlias, variant, target)
		}
		kb.aliases[NormalizeName(variant)] = key
	}

	return kb, nil
}

// MustKnowledgeBase is NewKnowledgeBase for static tables; it panics on
// invalid data
func MustKnowledgeBase(profiles []IngredientProfile, aliases map[string]string) *KnowledgeBase {
	kb, err := NewKnowledgeBase(profiles, aliases)
	if err != nil {
		panic(fmt.Sprintf("nutrition: invalid knowledge base: %v", err))
	}
	return kb
}

var defaultKnowledgeBase = sync.OnceValue(func() *KnowledgeBase {
	return MustKnowledgeBase(defaultProfiles(), defaultAliases())
})

// DefaultKnowledgeBase returns the built-in ingredient table. It is built on
// first use and shared afterwards.
func DefaultKnowledgeBase() *KnowledgeBase {
	return defaultKnowledgeBase()
}

// Profile looks up a canonical key
func (kb *KnowledgeBase) Profile(key string) (IngredientProfile, bool) {
	i, ok := kb.index[NormalizeName(key)]
	if !ok {
		return IngredientProfile{}, false
	}
	return kb.profiles[i], true
}

// Keys returns the canonical keys in insertion order
func (kb *KnowledgeBase) Keys() []string {
	keys := make([]string, len(kb.profiles))
	for i, p := range kb.profiles {
		keys[i] = p.Key
	}
	return keys
}

// Len returns the number of ingredients
func (kb *KnowledgeBase) Len() int {
	return len(kb.profiles)
}

// Aliases returns a copy of the alias table
func (kb *KnowledgeBase) Aliases() map[string]string {
	out := make(map[string]string, len(kb.aliases))
	for k, v := range kb.aliases {
		out[k] = v
	}
	return out
}

// NormalizeName folds an ingredient name for lookup: NFKC, lowercase, trimmed,
// inner whitespace collapsed to single spaces
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(norm.NFKC.String(name))), " ")
}

func grams(v float64) *float64 {
	return &v
}

// per100g builds a reference profile in AllNutrients order
func per100g(calories, protein, carbs, fat, fiber, sugar, sodium, cholesterol, saturatedFat float64) Profile {
	return NewProfile(map[NutrientKey]float64{
		Calories:      calories,
		ProteinG:      protein,
		CarbsG:        carbs,
		FatG:          fat,
		FiberG:        fiber,
		SugarG:        sugar,
		SodiumMg:      sodium,
		CholesterolMg: cholesterol,
		SaturatedFatG: saturatedFat,
	})
}

// defaultProfiles is ordered so that compound names come before the generic
// names they contain ("peanut butter" before "butter", "brown sugar" before
// "sugar"). Seasonings that show up inside other names sit at the end.
func defaultProfiles() []IngredientProfile {
	return []IngredientProfile{
		{
			Key:                "peanut butter",
			Per100g:            per100g(588, 25, 20, 50, 6, 9.2, 459, 0, 10.3),
			GramsPerVolumeUnit: map[string]float64{UnitCup: 258, UnitTablespoon: 16, UnitTeaspoon: 5.3},
		},
		{
			Key:                "brown sugar",
			Per100g:            per100g(380, 0.1, 98.1, 0, 0, 97, 28, 0, 0),
			GramsPerVolumeUnit: map[string]float64{UnitCup: 220, UnitTablespoon: 13.8, UnitTeaspoon: 4.6},
		},
		{
			Key:                "powdered sugar",
			Per100g:            per100g(389, 0, 99.8, 0, 0, 97.8, 2, 0, 0),
			GramsPerVolumeUnit: map[string]float64{UnitCup: 120, UnitTablespoon: 7.5, UnitTeaspoon: 2.5},
		},
		{
			Key:                "olive oil",
			Per100g:            per100g(884, 0, 0, 100, 0, 0, 2, 0, 13.8),
			GramsPerVolumeUnit: map[string]float64{UnitCup: 216, UnitTablespoon: 13.5, UnitTeaspoon: 4.5},
		},
		{
			Key:                "vegetable oil",
			Per100g:            per100g(884, 0, 0, 100, 0, 0, 0, 0, 7.4),
			GramsPerVolumeUnit: map[string]float64{UnitCup: 218, UnitTablespoon: 13.6, UnitTeaspoon: 4.5},
		},
		{
			Key:                "lemon juice",
			Per100g:            per100g(22, 0.4, 6.9, 0.2, 0.3, 2.5, 1, 0, 0),
			GramsPerVolumeUnit: map[string]float64{UnitCup: 244, UnitTablespoon: 15.3, UnitTeaspoon: 5.1},
		},
		{
			Key:           "chicken breast",
			Per100g:       per100g(120, 22.5, 0, 2.6, 0, 0, 45, 73, 0.6),
			GramsPerPiece: grams(174),
		},
		{
			Key:                "chicken broth",
			Per100g:            per100g(6, 0.6, 0.4, 0.2, 0, 0.2, 343, 1, 0.1),
			GramsPerVolumeUnit: map[string]float64{UnitCup: 240, UnitCan: 411},
		},
		{
			Key:     "ground beef",
			Per100g: per100g(254, 17.2, 0, 20, 0, 0, 66, 71, 7.6),
		},
		{
			Key:                "heavy cream",
			Per100g:            per100g(340, 2.8, 2.7, 36.1, 0, 2.9, 27, 113, 23),
			GramsPerVolumeUnit: map[string]float64{UnitCup: 238, UnitTablespoon: 15},
		},
		{
			Key:                "sour cream",
			Per100g:            per100g(198, 2.4, 4.6, 19.4, 0, 3.4, 31, 59, 10.1),
			GramsPerVolumeUnit: map[string]float64{UnitCup: 230, UnitTablespoon: 12},
		},
		{
			Key:                "buttermilk",
			Per100g:            per100g(40, 3.3, 4.8, 0.9, 0, 4.8, 105, 4, 0.5),
			GramsPerVolumeUnit: map[string]float64{UnitCup: 245},
		},
		{
			Key:                "cheddar cheese",
			Per100g:            per100g(403, 22.9, 3.1, 33.3, 0, 0.5, 653, 99, 18.9),
			GramsPerVolumeUnit: map[string]float64{UnitCup: 113},
			GramsPerPiece:      grams(28),
		},
		{
			Key:                "parmesan",
			Per100g:            per100g(392, 35.8, 3.2, 25.8, 0, 0.8, 1529, 68, 16.4),
			GramsPerVolumeUnit: map[string]float64{UnitCup: 100, UnitTablespoon: 5},
		},
		{
			Key:                "mozzarella",
			Per100g:            per100g(280, 27.5, 3.1, 17.1, 0, 1.2, 627, 54, 10.9),
			GramsPerVolumeUnit: map[string]float64{UnitCup: 112},
		},
		{
			Key:                "chocolate chips",
			Per100g:            per100g(479, 4.2, 63.9, 30, 5.9, 54.5, 11, 0, 17.8),
			GramsPerVolumeUnit: map[string]float64{UnitCup: 168, UnitTablespoon: 10.5},
		},
		{
			Key:                "cocoa powder",
			Per100g:            per100g(228, 19.6, 57.9, 13.7, 37, 1.8, 21, 0, 8.1),
			GramsPerVolumeUnit: map[string]float64{UnitCup: 86, UnitTablespoon: 5.4, UnitTeaspoon: 1.8},
		},
		{
			Key:                "baking soda",
			Per100g:            per100g(0, 0, 0, 0, 0, 0, 27360, 0, 0),
			GramsPerVolumeUnit: map[string]float64{UnitTeaspoon: 4.6, UnitTablespoon: 13.8},
		},
		{
			Key:                "baking powder",
			Per100g:            per100g(53, 0, 27.7, 0, 0.2, 0, 10600, 0, 0),
			GramsPerVolumeUnit: map[string]float64{UnitTeaspoon: 4.6, UnitTablespoon: 13.8},
		},
		{
			Key:                "maple syrup",
			Per100g:            per100g(260, 0, 67, 0.1, 0, 60.5, 12, 0, 0),
			GramsPerVolumeUnit: map[string]float64{UnitCup: 315, UnitTablespoon: 20, UnitTeaspoon: 6.7},
		},
		{
			Key:                "soy sauce",
			Per100g:            per100g(53, 8.1, 4.9, 0.6, 0.8, 0.4, 5493, 0, 0.1),
			GramsPerVolumeUnit: map[string]float64{UnitTablespoon: 16, UnitTeaspoon: 5.3},
		},
		{
			Key:                "vanilla extract",
			Per100g:            per100g(288, 0.1, 12.7, 0.1, 0, 12.7, 9, 0, 0),
			GramsPerVolumeUnit: map[string]float64{UnitTablespoon: 13, UnitTeaspoon: 4.2},
		},
		{
			Key:                "black beans",
			Per100g:            per100g(132, 8.9, 23.7, 0.5, 8.7, 0.3, 1, 0, 0.1),
			GramsPerVolumeUnit: map[string]float64{UnitCup: 172, UnitCan: 240},
		},
		{
			Key:                "bell pepper",
			Per100g:            per100g(26, 1, 6, 0.3, 2.1, 4.2, 4, 0, 0),
			GramsPerVolumeUnit: map[string]float64{UnitCup: 149},
			GramsPerPiece:      grams(119),
		},
		{
			Key:                "black pepper",
			Per100g:            per100g(251, 10.4, 64, 3.3, 25.3, 0.6, 20, 0, 1.4),
			GramsPerVolumeUnit: map[string]float64{UnitTeaspoon: 2.3, UnitTablespoon: 6.9},
		},
		{
			Key:                "cornstarch",
			Per100g:            per100g(381, 0.3, 91.3, 0.1, 0.9, 0, 9, 0, 0),
			GramsPerVolumeUnit: map[string]float64{UnitCup: 128, UnitTablespoon: 8, UnitTeaspoon: 2.7},
		},
		{
			Key:                "flour",
			Per100g:            per100g(364, 10.3, 76.3, 1, 2.7, 0.3, 2, 0, 0.2),
			GramsPerVolumeUnit: map[string]float64{UnitCup: 120, UnitTablespoon: 7.5, UnitTeaspoon: 2.5},
		},
		{
			Key:                "sugar",
			Per100g:            per100g(387, 0, 100, 0, 0, 99.8, 1, 0, 0),
			GramsPerVolumeUnit: map[string]float64{UnitCup: 200, UnitTablespoon: 12.5, UnitTeaspoon: 4.2},
		},
		{
			Key:                "butter",
			Per100g:            per100g(717, 0.9, 0.1, 81.1, 0, 0.1, 11, 215, 51.4),
			GramsPerVolumeUnit: map[string]float64{UnitCup: 227, UnitTablespoon: 14.2, UnitTeaspoon: 4.7, UnitStick: 113},
		},
		{
			Key:           "eggplant",
			Per100g:       per100g(25, 1, 5.9, 0.2, 3, 3.5, 2, 0, 0),
			GramsPerPiece: grams(458),
		},
		{
			Key:           "egg",
			Per100g:       per100g(143, 12.6, 0.7, 9.5, 0, 0.4, 142, 372, 3.1),
			GramsPerPiece: grams(50),
		},
		{
			Key:                "milk",
			Per100g:            per100g(61, 3.2, 4.8, 3.3, 0, 5.1, 43, 10, 1.9),
			GramsPerVolumeUnit: map[string]float64{UnitCup: 244, UnitTablespoon: 15.3},
		},
		{
			Key:                "yogurt",
			Per100g:            per100g(61, 3.5, 4.7, 3.3, 0, 4.7, 46, 13, 2.1),
			GramsPerVolumeUnit: map[string]float64{UnitCup: 245},
		},
		{
			Key:                "rice",
			Per100g:            per100g(365, 7.1, 80, 0.7, 1.3, 0.1, 5, 0, 0.2),
			GramsPerVolumeUnit: map[string]float64{UnitCup: 185},
		},
		{
			Key:                "pasta",
			Per100g:            per100g(371, 13, 74.7, 1.5, 3.2, 2.7, 6, 0, 0.3),
			GramsPerVolumeUnit: map[string]float64{UnitCup: 100},
		},
		{
			Key:                "oats",
			Per100g:            per100g(379, 13.2, 67.7, 6.5, 10.1, 1, 6, 0, 1.1),
			GramsPerVolumeUnit: map[string]float64{UnitCup: 81},
		},
		{
			Key:           "bacon",
			Per100g:       per100g(417, 12.6, 1.3, 40, 0, 0, 662, 66, 13.3),
			GramsPerPiece: grams(28),
		},
		{
			Key:           "salmon",
			Per100g:       per100g(208, 20.4, 0, 13.4, 0, 0, 59, 55, 3.1),
			GramsPerPiece: grams(170),
		},
		{
			Key:                "tofu",
			Per100g:            per100g(76, 8.1, 1.9, 4.8, 0.3, 0.6, 7, 0, 0.7),
			GramsPerVolumeUnit: map[string]float64{UnitCup: 248},
		},
		{
			Key:           "bread",
			Per100g:       per100g(265, 9, 49, 3.2, 2.7, 5, 491, 0, 0.7),
			GramsPerPiece: grams(29),
		},
		{
			Key:                "onion",
			Per100g:            per100g(40, 1.1, 9.3, 0.1, 1.7, 4.2, 4, 0, 0),
			GramsPerVolumeUnit: map[string]float64{UnitCup: 160},
			GramsPerPiece:      grams(110),
		},
		{
			Key:                "garlic",
			Per100g:            per100g(149, 6.4, 33.1, 0.5, 2.1, 1, 17, 0, 0.1),
			GramsPerVolumeUnit: map[string]float64{UnitClove: 3, UnitTeaspoon: 2.8, UnitTablespoon: 8.5},
			GramsPerPiece:      grams(3),
		},
		{
			Key:                "tomato",
			Per100g:            per100g(18, 0.9, 3.9, 0.2, 1.2, 2.6, 5, 0, 0),
			GramsPerVolumeUnit: map[string]float64{UnitCup: 180, UnitCan: 411},
			GramsPerPiece:      grams(123),
		},
		{
			Key:           "potato",
			Per100g:       per100g(77, 2, 17.5, 0.1, 2.2, 0.8, 6, 0, 0),
			GramsPerPiece: grams(213),
		},
		{
			Key:                "carrot",
			Per100g:            per100g(41, 0.9, 9.6, 0.2, 2.8, 4.7, 69, 0, 0),
			GramsPerVolumeUnit: map[string]float64{UnitCup: 128},
			GramsPerPiece:      grams(61),
		},
		{
			Key:                "celery",
			Per100g:            per100g(16, 0.7, 3, 0.2, 1.6, 1.3, 80, 0, 0),
			GramsPerVolumeUnit: map[string]float64{UnitCup: 101},
			GramsPerPiece:      grams(40),
		},
		{
			Key:                "spinach",
			Per100g:            per100g(23, 2.9, 3.6, 0.4, 2.2, 0.4, 79, 0, 0.1),
			GramsPerVolumeUnit: map[string]float64{UnitCup: 30},
		},
		{
			Key:           "lemon",
			Per100g:       per100g(29, 1.1, 9.3, 0.3, 2.8, 2.5, 2, 0, 0),
			GramsPerPiece: grams(58),
		},
		{
			Key:           "banana",
			Per100g:       per100g(89, 1.1, 22.8, 0.3, 2.6, 12.2, 1, 0, 0.1),
			GramsPerPiece: grams(118),
		},
		{
			Key:           "apple",
			Per100g:       per100g(52, 0.3, 13.8, 0.2, 2.4, 10.4, 1, 0, 0),
			GramsPerPiece: grams(182),
		},
		{
			Key:                "almonds",
			Per100g:            per100g(579, 21.2, 21.6, 49.9, 12.5, 4.4, 1, 0, 3.8),
			GramsPerVolumeUnit: map[string]float64{UnitCup: 143},
		},
		{
			Key:                "honey",
			Per100g:            per100g(304, 0.3, 82.4, 0, 0.2, 82.1, 4, 0, 0),
			GramsPerVolumeUnit: map[string]float64{UnitCup: 339, UnitTablespoon: 21, UnitTeaspoon: 7},
		},
		{
			Key:                "water",
			Per100g:            per100g(0, 0, 0, 0, 0, 0, 4, 0, 0),
			GramsPerVolumeUnit: map[string]float64{UnitCup: 237},
		},
		{
			Key:                "salt",
			Per100g:            per100g(0, 0, 0, 0, 0, 0, 38758, 0, 0),
			GramsPerVolumeUnit: map[string]float64{UnitTeaspoon: 6, UnitTablespoon: 18},
		},
	}
}

// defaultAliases maps common spellings that substring matching gets wrong,
// or would not find, onto canonical keys
func defaultAliases() map[string]string {
	return map[string]string{
		"all-purpose flour":      "flour",
		"all purpose flour":      "flour",
		"ap flour":               "flour",
		"plain flour":            "flour",
		"white flour":            "flour",
		"granulated sugar":       "sugar",
		"white sugar":            "sugar",
		"caster sugar":           "sugar",
		"cane sugar":             "sugar",
		"confectioners sugar":    "powdered sugar",
		"confectioners' sugar":   "powdered sugar",
		"icing sugar":            "powdered sugar",
		"unsalted butter":        "butter",
		"salted butter":          "butter",
		"eggs":                   "egg",
		"whole milk":             "milk",
		"heavy whipping cream":   "heavy cream",
		"whipping cream":         "heavy cream",
		"double cream":           "heavy cream",
		"extra virgin olive oil": "olive oil",
		"evoo":                   "olive oil",
		"canola oil":             "vegetable oil",
		"sunflower oil":          "vegetable oil",
		"kosher salt":            "salt",
		"sea salt":               "salt",
		"pepper":                 "black pepper",
		"ground black pepper":    "black pepper",
		"chicken breasts":        "chicken breast",
		"minced beef":            "ground beef",
		"chicken stock":          "chicken broth",
		"cheddar":                "cheddar cheese",
		"parmigiano reggiano":    "parmesan",
		"parmigiano-reggiano":    "parmesan",
		"semisweet chocolate":    "chocolate chips",
		"chocolate chip":         "chocolate chips",
		"cocoa":                  "cocoa powder",
		"bicarbonate of soda":    "baking soda",
		"vanilla":                "vanilla extract",
		"tamari":                 "soy sauce",
		"rolled oats":            "oats",
		"oatmeal":                "oats",
		"spaghetti":              "pasta",
		"penne":                  "pasta",
		"macaroni":               "pasta",
		"greek yogurt":           "yogurt",
		"corn starch":            "cornstarch",
		"scallions":              "onion",
	}
}
