package nutrition

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Canonical unit names
const (
	UnitTeaspoon   = "teaspoon"
	UnitTablespoon = "tablespoon"
	UnitCup        = "cup"
	UnitFluidOunce = "fluid ounce"
	UnitPint       = "pint"
	UnitQuart      = "quart"
	UnitMilliliter = "milliliter"
	UnitLiter      = "liter"
	UnitGram       = "gram"
	UnitKilogram   = "kilogram"
	UnitOunce      = "ounce"
	UnitPound      = "pound"
	UnitPinch      = "pinch"
	UnitDash       = "dash"
	UnitStick      = "stick"
	UnitClove      = "clove"
	UnitCan        = "can"
	UnitPiece      = "piece"
	PieceUnit      = UnitPiece
)

// unitAliases maps free-text unit spellings to a canonical unit name
var unitAliases = map[string]string{
	// Volume
	"tsp":          UnitTeaspoon,
	"tsps":         UnitTeaspoon,
	"teaspoon":     UnitTeaspoon,
	"teaspoons":    UnitTeaspoon,
	"tbsp":         UnitTablespoon,
	"tbsps":        UnitTablespoon,
	"tbs":          UnitTablespoon,
	"tbl":          UnitTablespoon,
	"tablespoon":   UnitTablespoon,
	"tablespoons":  UnitTablespoon,
	"c":            UnitCup,
	"cup":          UnitCup,
	"cups":         UnitCup,
	"fl oz":        UnitFluidOunce,
	"fl. oz":       UnitFluidOunce,
	"fluid ounce":  UnitFluidOunce,
	"fluid ounces": UnitFluidOunce,
	"pt":           UnitPint,
	"pint":         UnitPint,
	"pints":        UnitPint,
	"qt":           UnitQuart,
	"quart":        UnitQuart,
	"quarts":       UnitQuart,
	"ml":           UnitMilliliter,
	"mls":          UnitMilliliter,
	"milliliter":   UnitMilliliter,
	"milliliters":  UnitMilliliter,
	"millilitre":   UnitMilliliter,
	"millilitres":  UnitMilliliter,
	"l":            UnitLiter,
	"liter":        UnitLiter,
	"liters":       UnitLiter,
	"litre":        UnitLiter,
	"litres":       UnitLiter,

	// Mass
	"g":         UnitGram,
	"gr":        UnitGram,
	"gram":      UnitGram,
	"grams":     UnitGram,
	"gramme":    UnitGram,
	"grammes":   UnitGram,
	"kg":        UnitKilogram,
	"kgs":       UnitKilogram,
	"kilogram":  UnitKilogram,
	"kilograms": UnitKilogram,
	"oz":        UnitOunce,
	"ounce":     UnitOunce,
	"ounces":    UnitOunce,
	"lb":        UnitPound,
	"lbs":       UnitPound,
	"pound":     UnitPound,
	"pounds":    UnitPound,

	// Small measures
	"pinch":   UnitPinch,
	"pinches": UnitPinch,
	"dash":    UnitDash,
	"dashes":  UnitDash,

	// Ingredient-specific counts
	"stick":  UnitStick,
	"sticks": UnitStick,
	"clove":  UnitClove,
	"cloves": UnitClove,
	"can":    UnitCan,
	"cans":   UnitCan,

	// Pieces
	"piece":  UnitPiece,
	"pieces": UnitPiece,
	"pc":     UnitPiece,
	"pcs":    UnitPiece,
	"whole":  UnitPiece,
	"each":   UnitPiece,
	"ea":     UnitPiece,
	"large":  UnitPiece,
	"medium": UnitPiece,
	"small":  UnitPiece,
	"slice":  UnitPiece,
	"slices": UnitPiece,
	"stalk":  UnitPiece,
	"stalks": UnitPiece,
}

// caseSensitiveUnits holds the cookbook abbreviations whose meaning depends
// on case
var caseSensitiveUnits = map[string]string{
	"T": UnitTablespoon,
	"t": UnitTeaspoon,
}

// genericUnitGrams is the default gram equivalent of one canonical unit,
// used when an ingredient carries no override of its own
var genericUnitGrams = map[string]float64{
	UnitTeaspoon:   5,
	UnitTablespoon: 15,
	UnitCup:        240,
	UnitFluidOunce: 29.57,
	UnitPint:       473,
	UnitQuart:      946,
	UnitMilliliter: 1,
	UnitLiter:      1000,
	UnitGram:       1,
	UnitKilogram:   1000,
	UnitOunce:      28.35,
	UnitPound:      453.59,
	UnitPinch:      0.36,
	UnitDash:       0.6,
}

// GenericUnitGrams returns the default gram equivalent of a canonical unit
func GenericUnitGrams(unit string) (float64, bool) {
	g, ok := genericUnitGrams[unit]
	return g, ok
}

// NormalizeUnit lowercases and trims a unit spelling and maps it to its
// canonical name. Unknown spellings come back trimmed and lowercased so they
// fail later, at gram conversion, rather than here.
func NormalizeUnit(text string) string {
	trimmed := strings.TrimSpace(text)
	if canonical, ok := caseSensitiveUnits[trimmed]; ok {
		return canonical
	}
	unit := strings.ToLower(trimmed)
	unit = strings.TrimSuffix(unit, ".")
	unit = strings.Join(strings.Fields(unit), " ")
	if canonical, ok := unitAliases[unit]; ok {
		return canonical
	}
	return unit
}

var vulgarFractions = map[rune]float64{
	'¼': 0.25,
	'½': 0.5,
	'¾': 0.75,
	'⅓': 1.0 / 3,
	'⅔': 2.0 / 3,
	'⅕': 0.2,
	'⅖': 0.4,
	'⅗': 0.6,
	'⅘': 0.8,
	'⅙': 1.0 / 6,
	'⅚': 5.0 / 6,
	'⅛': 0.125,
	'⅜': 0.375,
	'⅝': 0.625,
	'⅞': 0.875,
}

// ParseQuantity reads a free-text quantity: integers, decimals, simple
// fractions ("1/2"), mixed numbers ("2 1/2") and unicode vulgar fractions
// ("1½"). Anything it cannot read yields 1; it never fails.
func ParseQuantity(text string) float64 {
	fields := strings.Fields(expandVulgarFractions(text))
	var total float64
	switch len(fields) {
	case 1:
		v, ok := parseQuantityTerm(fields[0])
		if !ok {
			return 1
		}
		total = v
	case 2:
		whole, ok := parseNumber(fields[0])
		if !ok || whole != math.Trunc(whole) {
			return 1
		}
		frac, ok := parseFraction(fields[1])
		if !ok {
			return 1
		}
		total = whole + frac
	default:
		return 1
	}
	return total
}

// expandVulgarFractions rewrites "1½" as "1 1/2"-style text the rest of
// the parser understands
func expandVulgarFractions(text string) string {
	if !strings.ContainsFunc(text, func(r rune) bool { _, ok := vulgarFractions[r]; return ok }) {
		return text
	}
	var b strings.Builder
	for len(text) > 0 {
		r, size := utf8.DecodeRuneInString(text)
		text = text[size:]
		if v, ok := vulgarFractions[r]; ok {
			b.WriteByte(' ')
			b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func parseQuantityTerm(s string) (float64, bool) {
	if strings.Contains(s, "/") {
		return parseFraction(s)
	}
	return parseNumber(s)
}

func parseFraction(s string) (float64, bool) {
	num, den, found := strings.Cut(s, "/")
	if !found {
		// expanded vulgar fractions arrive as decimals below 1
		v, ok := parseNumber(s)
		if !ok || v >= 1 {
			return 0, false
		}
		return v, true
	}
	n, ok := parseNumber(num)
	if !ok {
		return 0, false
	}
	d, ok := parseNumber(den)
	if !ok || d == 0 {
		return 0, false
	}
	return n / d, true
}

func parseNumber(s string) (float64, bool) {
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return 0, false
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}
