package ingredient

import (
	"regexp"
	"strconv"
	"strings"

	"meal-planner/internal/units"
)

// BaseUnit is the unit every quantified ingredient is normalised to.
const BaseUnit = "oz"

var (
	hasDigit = regexp.MustCompile(`\d`)

	// "Tomatoes - 2lbs", "Flour: 500g"
	nameThenQuantity = regexp.MustCompile(`^(.+?)\s*[-:]\s*(\d+(?:\.\d+)?)([a-zA-Z]+)`)

	// "1.5 lbs Chicken", "200g flour"
	quantityThenName = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([a-zA-Z]+)\s+(.+)$`)
)

// Ingredient is a single parsed ingredient line.
// Quantity 0 with an empty Unit means the line carried no amount.
type Ingredient struct {
	Name     string
	Quantity float64
	Unit     string
}

// Unquantified reports whether the ingredient is tracked by presence only.
func (i Ingredient) Unquantified() bool {
	return i.Quantity == 0 && i.Unit == ""
}

// Parse reads a free-form ingredient line. The boolean is false when the line
// contains a number but matches neither supported layout; callers fall back
// to using the raw line as an unquantified key.
func Parse(line string) (Ingredient, bool) {
	line = strings.TrimSpace(line)

	if !hasDigit.MatchString(line) {
		return Ingredient{Name: line}, true
	}

	if m := nameThenQuantity.FindStringSubmatch(line); m != nil {
		q, err := strconv.ParseFloat(m[2], 64)
		if err == nil {
			return Ingredient{
				Name:     strings.TrimSpace(m[1]),
				Quantity: units.Convert(q, m[3]),
				Unit:     BaseUnit,
			}, true
		}
	}

	if m := quantityThenName.FindStringSubmatch(line); m != nil {
		q, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return Ingredient{
				Name:     strings.TrimSpace(m[3]),
				Quantity: units.Convert(q, m[2]),
				Unit:     BaseUnit,
			}, true
		}
	}

	return Ingredient{}, false
}
