package nutrition

import "math"

const (
	lbPerKG = 2.20462
	cmPerIn = 2.54
)

// KGToLb converts kilograms to whole pounds.
func KGToLb(kg float64) int {
	return int(math.Round(kg * lbPerKG))
}

// StonesPounds is an imperial weight for display.
type StonesPounds struct {
	Stones int `json:"st"`
	Pounds int `json:"lb"`
}

// KGToStones converts kilograms to stones and remaining pounds.
func KGToStones(kg float64) StonesPounds {
	lb := KGToLb(kg)
	return StonesPounds{Stones: lb / 14, Pounds: lb % 14}
}

// CMToIn converts centimetres to whole inches.
func CMToIn(cm int) int {
	return int(math.Round(float64(cm) / cmPerIn))
}

// FeetInches is an imperial height for display.
type FeetInches struct {
	Feet   int `json:"ft"`
	Inches int `json:"in"`
}

// CMToFeet converts centimetres to feet and remaining inches.
func CMToFeet(cm int) FeetInches {
	in := CMToIn(cm)
	return FeetInches{Feet: in / 12, Inches: in % 12}
}

// BMI computes Body Mass Index to 1 decimal place. Returns ok=false
// when either metric is missing or height is zero.
func BMI(weightKG *float64, heightCM *int) (float64, bool) {
	if weightKG == nil || heightCM == nil || *heightCM == 0 {
		return 0, false
	}
	m := float64(*heightCM) / 100
	return Round1(*weightKG / (m * m)), true
}
