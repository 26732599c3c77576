package units

import "strings"

// ounces maps a lower-cased unit token to the number of ounces in one unit.
// Volumes are treated as fluid ounces, which is close enough for a grocery list.
var ounces = map[string]float64{
	// mass
	"oz":     1,
	"ounce":  1,
	"ounces": 1,
	"lb":     16,
	"lbs":    16,
	"pound":  16,
	"pounds": 16,
	"g":      0.035274,
	"gram":   0.035274,
	"grams":  0.035274,
	"kg":     35.274,
	"kgs":    35.274,

	// volume
	"floz":        1,
	"cup":         8,
	"cups":        8,
	"c":           8,
	"tbsp":        0.5,
	"tbs":         0.5,
	"tablespoon":  0.5,
	"tablespoons": 0.5,
	"tsp":         1.0 / 6.0,
	"teaspoon":    1.0 / 6.0,
	"teaspoons":   1.0 / 6.0,
	"pint":        16,
	"pints":       16,
	"pt":          16,
	"quart":       32,
	"quarts":      32,
	"qt":          32,
	"gallon":      128,
	"gallons":     128,
	"gal":         128,
	"ml":          0.033814,
	"milliliter":  0.033814,
	"milliliters": 0.033814,
	"l":           33.814,
	"liter":       33.814,
	"liters":      33.814,
	"litre":       33.814,
	"litres":      33.814,
}

// Factor returns the ounce factor for unit and whether the unit is known.
func Factor(unit string) (float64, bool) {
	f, ok := ounces[strings.ToLower(strings.TrimSpace(unit))]
	return f, ok
}

// Convert returns quantity expressed in ounces. An unknown unit is assumed to
// already be in the base unit and the quantity is returned unchanged.
func Convert(quantity float64, unit string) float64 {
	f, ok := Factor(unit)
	if !ok {
		return quantity
	}
	return quantity * f
}
