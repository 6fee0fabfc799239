package nutrition

import (
	"fmt"
	"strings"
)

// IngredientRequest is one ingredient line as it arrives from callers
type IngredientRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Quantity string `json:"quantity" validate:"max=50"`
	Unit     string `json:"unit" validate:"max=50"`
}

// Line renders the request as "<quantity> <unit> <name>", skipping empty parts
func (r IngredientRequest) Line() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{r.Quantity, r.Unit, r.Name} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// Resolution describes how a single ingredient line maps onto the knowledge
// base
type Resolution struct {
	Name     string  `json:"name"`
	Key      string  `json:"key,omitempty"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Grams    float64 `json:"grams,omitempty"`
	Resolved bool    `json:"resolved"`
}

// ResolveIngredientKey finds the canonical key for a free-text name: exact
// alias, then exact key, then the first key (in table order) contained in
// the name.
func (kb *KnowledgeBase) ResolveIngredientKey(name string) (string, bool) {
	n := NormalizeName(name)
	if n == "" {
		return "", false
	}
	if key, ok := kb.aliases[n]; ok {
		return key, true
	}
	if _, ok := kb.index[n]; ok {
		return n, true
	}
	for _, p := range kb.profiles {
		if strings.Contains(n, p.Key) {
			return p.Key, true
		}
	}
	return "", false
}

// GramsForIngredient converts a quantity in a canonical unit to grams. The
// ingredient's own unit table wins, then its piece weight, then the generic
// unit table. A missing unit means the quantity is already in grams.
func GramsForIngredient(p IngredientProfile, quantity float64, unit string) (float64, bool) {
	if g, ok := p.GramsPerVolumeUnit[unit]; ok {
		return quantity * g, true
	}
	if unit == PieceUnit && p.GramsPerPiece != nil {
		return quantity * *p.GramsPerPiece, true
	}
	if g, ok := GenericUnitGrams(unit); ok {
		return quantity * g, true
	}
	if unit == "" {
		return quantity, true
	}
	return 0, false
}

// ResolveLine runs one ingredient through quantity parsing, unit
// normalization, key resolution and gram conversion. The returned Resolution
// is filled as far as resolution got; the error is ErrUnknownIngredient or
// ErrUnknownUnit when it stopped early.
func (kb *KnowledgeBase) ResolveLine(req IngredientRequest) (Resolution, error) {
	res := Resolution{
		Name:     req.Name,
		Quantity: ParseQuantity(req.Quantity),
		Unit:     NormalizeUnit(req.Unit),
	}

	key, ok := kb.ResolveIngredientKey(req.Name)
	if !ok {
		return res, fmt.Errorf("%w: %q", ErrUnknownIngredient, req.Name)
	}
	res.Key = key

	g, ok := GramsForIngredient(kb.profiles[kb.index[key]], res.Quantity, res.Unit)
	if !ok {
		return res, fmt.Errorf("%w: %q for %s", ErrUnknownUnit, res.Unit, key)
	}
	res.Grams = g
	res.Resolved = true
	return res, nil
}

// Calculate is CalculateDeterministic with the reason for failure. It stops
// at the first line that cannot be resolved and never returns a partial sum.
func (kb *KnowledgeBase) Calculate(ingredients []IngredientRequest, servings int) (*Profile, error) {
	divisor := float64(NormalizeServings(servings))

	var total Profile
	for _, ing := range ingredients {
		res, err := kb.ResolveLine(ing)
		if err != nil {
			return nil, err
		}
		per100 := kb.profiles[kb.index[res.Key]].Per100g
		total = total.Add(per100.Scale(res.Grams / 100 / divisor))
	}
	return &total, nil
}

// CalculateDeterministic computes the per-serving profile from the knowledge
// base alone. It returns false as soon as any ingredient or unit cannot be
// resolved.
func (kb *KnowledgeBase) CalculateDeterministic(ingredients []IngredientRequest, servings int) (*Profile, bool) {
	p, err := kb.Calculate(ingredients, servings)
	if err != nil {
		return nil, false
	}
	return p, true
}

// NormalizeServings treats non-positive serving counts as one
func NormalizeServings(servings int) int {
	if servings < 1 {
		return 1
	}
	return servings
}
