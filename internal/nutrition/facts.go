// Package nutrition implements the calorie/macronutrient engine: serving
// scaling, diary aggregation, remaining-allowance arithmetic and the
// target-derivation strategies. Everything here is pure computation over
// values already loaded from the database.
package nutrition

import (
	"fmt"
	"math"
	"strconv"

	"nutridiary/internal/models"
)

// Facts holds one set of nutrient amounts: energy in whole kcal, all
// macronutrients in grams. Sodium is never carried as a field; it is
// derived from salt (see Sodium).
type Facts struct {
	Energy       int     `json:"energy"`
	Fat          float64 `json:"fat"`
	Saturates    float64 `json:"saturates"`
	Carbohydrate float64 `json:"carbohydrate"`
	Sugars       float64 `json:"sugars"`
	Fibre        float64 `json:"fibre"`
	Protein      float64 `json:"protein"`
	Salt         float64 `json:"salt"`
}

// Sodium returns the derived sodium content in mg, rounded to the
// nearest whole mg. Computing from salt after any aggregation avoids
// compounding per-entry rounding error.
func (f Facts) Sodium() int {
	return int(math.Round(f.Salt * 400))
}

// FoodFacts extracts the per-reference-quantity facts of a food record.
func FoodFacts(food models.Food) Facts {
	return Facts{
		Energy:       food.Energy,
		Fat:          food.Fat,
		Saturates:    food.Saturates,
		Carbohydrate: food.Carbohydrate,
		Sugars:       food.Sugars,
		Fibre:        food.Fibre,
		Protein:      food.Protein,
		Salt:         food.Salt,
	}
}

// Scale multiplies reference facts by a consumed quantity q.
//
// Energy is rounded to the nearest whole kcal per entry (half away from
// zero, so 157.5 -> 158). All other nutrients keep full precision here;
// they are only rounded for display after aggregation.
func Scale(ref Facts, q float64) Facts {
	return Facts{
		Energy:       int(math.Round(q * float64(ref.Energy))),
		Fat:          q * ref.Fat,
		Saturates:    q * ref.Saturates,
		Carbohydrate: q * ref.Carbohydrate,
		Sugars:       q * ref.Sugars,
		Fibre:        q * ref.Fibre,
		Protein:      q * ref.Protein,
		Salt:         q * ref.Salt,
	}
}

// Sum aggregates scaled facts across a collection of diary entries or
// meal items. An empty collection yields all-zero totals, never an error.
//
// Energy totals are a sum of the per-entry rounded values (the displayed
// total has always been the integer column sum); every other nutrient is
// summed in full precision and rounded once at presentation.
func Sum(entries []Facts) Facts {
	var total Facts
	for _, e := range entries {
		total.Energy += e.Energy
		total.Fat += e.Fat
		total.Saturates += e.Saturates
		total.Carbohydrate += e.Carbohydrate
		total.Sugars += e.Sugars
		total.Fibre += e.Fibre
		total.Protein += e.Protein
		total.Salt += e.Salt
	}
	return total
}

// Remaining subtracts a day's aggregated total from the user's target.
// Negative values mean the user is over target and are valid output.
func Remaining(target, total Facts) Facts {
	return Facts{
		Energy:       target.Energy - total.Energy,
		Fat:          target.Fat - total.Fat,
		Saturates:    target.Saturates - total.Saturates,
		Carbohydrate: target.Carbohydrate - total.Carbohydrate,
		Sugars:       target.Sugars - total.Sugars,
		Fibre:        target.Fibre - total.Fibre,
		Protein:      target.Protein - total.Protein,
		Salt:         target.Salt - total.Salt,
	}
}

// TargetFacts extracts the target facts from a profile.
func TargetFacts(p models.Profile) Facts {
	return Facts{
		Energy:       p.Energy,
		Fat:          p.Fat,
		Saturates:    p.Saturates,
		Carbohydrate: p.Carbohydrate,
		Sugars:       p.Sugars,
		Fibre:        p.Fibre,
		Protein:      p.Protein,
		Salt:         p.Salt,
	}
}

// ServingLabel renders the consumed amount of a food for display.
// Grams and millilitres round to a whole number with the unit attached
// ("150g"); servings round to 1 decimal place and pluralise above one
// ("1.5 Servings", "0.5 Serving").
func ServingLabel(servingSize int, unit models.Unit, q float64) string {
	value := q * float64(servingSize)
	switch unit {
	case models.UnitGrams, models.UnitMillilitres:
		return fmt.Sprintf("%d%s", int(math.Round(value)), unit)
	default:
		rounded := Round1(value)
		word := " Serving"
		if rounded > 1 {
			word = " Servings"
		}
		return strconv.FormatFloat(rounded, 'f', -1, 64) + word
	}
}

// Round1 rounds to 1 decimal place, the display precision for
// macronutrient grams.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Round2 rounds to 2 decimal places, the display precision for salt.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Rounded returns the facts at presentation precision: whole kcal,
// macros to 1 decimal place, salt to 2.
func (f Facts) Rounded() Facts {
	return Facts{
		Energy:       f.Energy,
		Fat:          Round1(f.Fat),
		Saturates:    Round1(f.Saturates),
		Carbohydrate: Round1(f.Carbohydrate),
		Sugars:       Round1(f.Sugars),
		Fibre:        Round1(f.Fibre),
		Protein:      Round1(f.Protein),
		Salt:         Round2(f.Salt),
	}
}
