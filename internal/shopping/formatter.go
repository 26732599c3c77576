package shopping

import (
	"math"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Format renders the session map as display lines, one per ingredient in
// insertion order. Unquantified ingredients render as the bare name.
func Format(r *Requirements) []string {
	lines := make([]string, 0, r.Len())
	for _, e := range r.Entries() {
		name := capitalize(e.Name)
		if e.Quantity > 0 {
			lines = append(lines, FormatQuantity(e.Quantity)+" "+e.Unit+" "+name)
		} else {
			lines = append(lines, name)
		}
	}
	return lines
}

// FormatQuantity prints q with at most two decimals and no trailing zeros.
// Positive amounts that would round to zero keep two significant digits.
func FormatQuantity(q float64) string {
	rounded := math.Round(q*100) / 100
	if rounded == 0 && q > 0 {
		scale := math.Pow(10, math.Ceil(-math.Log10(q))+1)
		rounded = math.Round(q*scale) / scale
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
