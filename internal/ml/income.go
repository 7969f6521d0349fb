package ml

import "math"

// IncomeBracket is an ordered price band.
type IncomeBracket int

const (
	VeryLow IncomeBracket = iota
	Low
	LowerMiddle
	Middle
	UpperMiddle
	High
	VeryHigh
)

var bracketLabels = [...]string{
	VeryLow:     "Very Low",
	Low:         "Low",
	LowerMiddle: "Lower-Middle",
	Middle:      "Middle",
	UpperMiddle: "Upper-Middle",
	High:        "High",
	VeryHigh:    "Very High",
}

// upper bounds, exclusive, for every bracket below VeryHigh
var bracketLimits = [...]float64{
	1_000_000,
	2_000_000,
	3_500_000,
	5_000_000,
	7_000_000,
	10_000_000,
}

func (b IncomeBracket) String() string {
	if b < VeryLow || b > VeryHigh {
		return "Unknown"
	}
	return bracketLabels[b]
}

// IncomeBrackets lists every bracket from lowest to highest.
func IncomeBrackets() []IncomeBracket {
	out := make([]IncomeBracket, 0, len(bracketLabels))
	for b := VeryLow; b <= VeryHigh; b++ {
		out = append(out, b)
	}
	return out
}

// Classify maps a price to its bracket. Every input has a bracket: negative
// prices and NaN are Very Low.
func Classify(price float64) IncomeBracket {
	if math.IsNaN(price) {
		return VeryLow
	}
	for i, limit := range bracketLimits {
		if price < limit {
			return IncomeBracket(i)
		}
	}
	return VeryHigh
}
