// Package nutrition holds the nutrition domain: nutrient profiles, the
// ingredient knowledge base, unit tables and the deterministic per-serving
// calculation built on top of them.
package nutrition

import (
	"fmt"
	"math"
)

// NutrientKey identifies one nutrient in a Profile
type NutrientKey string

const (
	Calories      NutrientKey = "calories"
	ProteinG      NutrientKey = "protein_g"
	CarbsG        NutrientKey = "carbs_g"
	FatG          NutrientKey = "fat_g"
	FiberG        NutrientKey = "fiber_g"
	SugarG        NutrientKey = "sugar_g"
	SodiumMg      NutrientKey = "sodium_mg"
	CholesterolMg NutrientKey = "cholesterol_mg"
	SaturatedFatG NutrientKey = "saturated_fat_g"
)

// AllNutrients is the fixed, ordered set of recognized nutrient keys
var AllNutrients = []NutrientKey{
	Calories,
	ProteinG,
	CarbsG,
	FatG,
	FiberG,
	SugarG,
	SodiumMg,
	CholesterolMg,
	SaturatedFatG,
}

// IsValid reports whether k is one of AllNutrients
func (k NutrientKey) IsValid() bool {
	for _, known := range AllNutrients {
		if k == known {
			return true
		}
	}
	return false
}

// Profile is a sparse set of nutrient amounts. A nil field means the amount is
// unknown. The same shape is used for per-100g reference data and for
// computed per-serving output.
type Profile struct {
	Calories      *float64 `json:"calories"`
	ProteinG      *float64 `json:"protein_g"`
	CarbsG        *float64 `json:"carbs_g"`
	FatG          *float64 `json:"fat_g"`
	FiberG        *float64 `json:"fiber_g"`
	SugarG        *float64 `json:"sugar_g"`
	SodiumMg      *float64 `json:"sodium_mg"`
	CholesterolMg *float64 `json:"cholesterol_mg"`
	SaturatedFatG *float64 `json:"saturated_fat_g"`
}

// NewProfile builds a profile from a map. Unknown keys are ignored.
func NewProfile(values map[NutrientKey]float64) Profile {
	var p Profile
	for k, v := range values {
		p.Set(k, v)
	}
	return p
}

func (p *Profile) slot(key NutrientKey) **float64 {
	switch key {
	case Calories:
		return &p.Calories
	case ProteinG:
		return &p.ProteinG
	case CarbsG:
		return &p.CarbsG
	case FatG:
		return &p.FatG
	case FiberG:
		return &p.FiberG
	case SugarG:
		return &p.SugarG
	case SodiumMg:
		return &p.SodiumMg
	case CholesterolMg:
		return &p.CholesterolMg
	case SaturatedFatG:
		return &p.SaturatedFatG
	default:
		return nil
	}
}

// Get returns the amount for key and whether it is known
func (p Profile) Get(key NutrientKey) (float64, bool) {
	s := p.slot(key)
	if s == nil || *s == nil {
		return 0, false
	}
	return **s, true
}

// Has reports whether the amount for key is known
func (p Profile) Has(key NutrientKey) bool {
	_, ok := p.Get(key)
	return ok
}

// Set stores an amount. Negative values are clamped to zero; NaN and infinite
// values leave the nutrient unknown.
func (p *Profile) Set(key NutrientKey, value float64) {
	s := p.slot(key)
	if s == nil {
		return
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		*s = nil
		return
	}
	if value < 0 {
		value = 0
	}
	v := value
	*s = &v
}

// Clear marks the nutrient as unknown
func (p *Profile) Clear(key NutrientKey) {
	if s := p.slot(key); s != nil {
		*s = nil
	}
}

// Keys returns the known nutrient keys in AllNutrients order
func (p Profile) Keys() []NutrientKey {
	keys := make([]NutrientKey, 0, len(AllNutrients))
	for _, k := range AllNutrients {
		if p.Has(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

// IsEmpty reports whether no nutrient is known
func (p Profile) IsEmpty() bool {
	return len(p.Keys()) == 0
}

// Values returns the known amounts as a map
func (p Profile) Values() map[NutrientKey]float64 {
	out := make(map[NutrientKey]float64, len(AllNutrients))
	for _, k := range AllNutrients {
		if v, ok := p.Get(k); ok {
			out[k] = v
		}
	}
	return out
}

// Add sums two profiles nutrient by nutrient. When both sides know a
// nutrient the amounts are added; when only one does, its amount is kept;
// when neither does, the result leaves it unknown.
func (p Profile) Add(other Profile) Profile {
	var out Profile
	for _, k := range AllNutrients {
		a, okA := p.Get(k)
		b, okB := other.Get(k)
		switch {
		case okA && okB:
			out.Set(k, a+b)
		case okA:
			out.Set(k, a)
		case okB:
			out.Set(k, b)
		}
	}
	return out
}

// Scale multiplies every known amount by factor
func (p Profile) Scale(factor float64) Profile {
	var out Profile
	for _, k := range AllNutrients {
		if v, ok := p.Get(k); ok {
			out.Set(k, v*factor)
		}
	}
	return out
}

// Clone returns a deep copy
func (p Profile) Clone() Profile {
	return p.Scale(1)
}

// Round returns a copy with every known amount rounded to decimals places
func (p Profile) Round(decimals int) Profile {
	pow := math.Pow(10, float64(decimals))
	var out Profile
	for _, k := range AllNutrients {
		if v, ok := p.Get(k); ok {
			out.Set(k, math.Round(v*pow)/pow)
		}
	}
	return out
}

// Validate checks that no known amount is negative or non-finite. Profiles
// built through Set always pass; this guards values decoded from JSON.
func (p Profile) Validate() error {
	for _, k := range AllNutrients {
		s := p.slot(k)
		if *s == nil {
			continue
		}
		v := **s
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %s=%v", ErrInvalidAmount, k, v)
		}
	}
	return nil
}

// Sanitize returns a copy that satisfies Validate
func (p Profile) Sanitize() Profile {
	var out Profile
	for _, k := range AllNutrients {
		s := p.slot(k)
		if *s != nil {
			out.Set(k, **s)
		}
	}
	return out
}

// FormatValue renders an amount for display: whole numbers without decimals,
// everything else with one decimal, and an em dash when unknown.
func (p Profile) FormatValue(key NutrientKey) string {
	v, ok := p.Get(key)
	if !ok {
		return "—"
	}
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}
