package nutrition

import (
	"errors"
	"math"
	"time"

	"nutridiary/internal/models"
)

// ErrInvalidProfileState is returned by the target-setting strategies
// when the profile has no usable body weight. Derivations divide by
// weight, so this is a caller usage error rather than a missing-input
// condition.
var ErrInvalidProfileState = errors.New("profile weight must be set and greater than zero")

// ErrIncompleteProfile is returned by SetRecommended when the
// BMR/TDEE/goal chain cannot be derived from the profile.
var ErrIncompleteProfile = errors.New("profile is missing metrics required for a recommended target")

// activityMultipliers maps an activity level to its TDEE multiplier.
// Single source of truth, also used to validate input.
var activityMultipliers = map[models.ActivityLevel]float64{
	models.Sedentary:        1.2,
	models.LightlyActive:    1.375,
	models.ModeratelyActive: 1.55,
	models.VeryActive:       1.725,
	models.ExtraActive:      1.9,
}

// goalMultipliers adjusts TDEE into a recommended calorie target.
// Building muscle runs a surplus despite "gain weight" naming.
var goalMultipliers = map[models.Goal]float64{
	models.LoseWeight:     0.8,
	models.MaintainWeight: 1.0,
	models.GainWeight:     1.1,
}

// Age computes completed years between a date of birth and now.
func Age(dateOfBirth, now time.Time) int {
	age := now.Year() - dateOfBirth.Year()
	if now.Month() < dateOfBirth.Month() ||
		(now.Month() == dateOfBirth.Month() && now.Day() < dateOfBirth.Day()) {
		age--
	}
	return age
}

// BMR computes the Basal Metabolic Rate via Mifflin-St Jeor. It needs
// sex, weight, height and date of birth; ok is false when any is missing.
func BMR(p models.Profile, now time.Time) (int, bool) {
	if p.Sex == nil || p.WeightKG == nil || p.HeightCM == nil || p.DateOfBirth == nil {
		return 0, false
	}
	modifier := 0.0
	switch *p.Sex {
	case models.SexMale:
		modifier = 5
	case models.SexFemale:
		modifier = -161
	default:
		return 0, false
	}
	age := Age(*p.DateOfBirth, now)
	bmr := 10**p.WeightKG + 6.25*float64(*p.HeightCM) - 5*float64(age) + modifier
	return int(math.Round(bmr)), true
}

// TDEE is BMR scaled by the profile's activity level.
func TDEE(p models.Profile, now time.Time) (int, bool) {
	bmr, ok := BMR(p, now)
	if !ok || p.ActivityLevel == nil {
		return 0, false
	}
	mult, found := activityMultipliers[*p.ActivityLevel]
	if !found {
		return 0, false
	}
	return int(math.Round(float64(bmr) * mult)), true
}

// RecommendedCalories is TDEE adjusted for the profile's goal.
func RecommendedCalories(p models.Profile, now time.Time) (int, bool) {
	tdee, ok := TDEE(p, now)
	if !ok || p.Goal == nil {
		return 0, false
	}
	mult, found := goalMultipliers[*p.Goal]
	if !found {
		return 0, false
	}
	return int(math.Round(float64(tdee) * mult)), true
}

// SetRecommended derives a full target from the profile's body metrics:
// calories from the BMR/TDEE/goal chain, macro split chosen by goal,
// grams rounded to whole numbers.
func SetRecommended(p *models.Profile, now time.Time) error {
	weight, err := requireWeight(p)
	if err != nil {
		return err
	}
	calories, ok := RecommendedCalories(*p, now)
	if !ok {
		return ErrIncompleteProfile
	}

	proteinPct, carbPct, fatPct := 25, 55, 20
	if *p.Goal == models.LoseWeight {
		proteinPct, carbPct, fatPct = 40, 40, 20
	}

	p.Energy = calories
	p.Protein = math.Round(float64(calories) * float64(proteinPct) / 100 / 4)
	p.Carbohydrate = math.Round(float64(calories) * float64(carbPct) / 100 / 4)
	p.Fat = math.Round(float64(calories) * float64(fatPct) / 100 / 9)
	p.ProteinPct = &proteinPct
	p.CarbohydratePct = &carbPct
	p.FatPct = &fatPct

	applyDerivedRules(p, float64(calories))
	recordPerKG(p, float64(calories), weight)
	method := models.MethodRecommended
	p.CalculationMethod = &method
	return nil
}

// SetPercent derives the target from caller-supplied calories and macro
// percentages. Grams are intentionally NOT rounded here; the recommended
// strategy rounds and this one never has. Kept distinct on purpose.
func SetPercent(p *models.Profile, calories, proteinPct, carbPct, fatPct int) error {
	weight, err := requireWeight(p)
	if err != nil {
		return err
	}

	p.Energy = calories
	p.Protein = float64(calories) * float64(proteinPct) / 100 / 4
	p.Carbohydrate = float64(calories) * float64(carbPct) / 100 / 4
	p.Fat = float64(calories) * float64(fatPct) / 100 / 9
	p.ProteinPct = &proteinPct
	p.CarbohydratePct = &carbPct
	p.FatPct = &fatPct

	applyDerivedRules(p, float64(calories))
	recordPerKG(p, float64(calories), weight)
	method := models.MethodPercent
	p.CalculationMethod = &method
	return nil
}

// SetGrams derives the target from grams of each macro per kilogram of
// body weight. Calories and percentages are back-derived from the grams.
func SetGrams(p *models.Profile, proteinPerKG, carbPerKG, fatPerKG float64) error {
	weight, err := requireWeight(p)
	if err != nil {
		return err
	}

	p.Protein = proteinPerKG * weight
	p.Carbohydrate = carbPerKG * weight
	p.Fat = fatPerKG * weight
	calories := p.Protein*4 + p.Carbohydrate*4 + p.Fat*9
	p.Energy = int(math.Round(calories))
	backDerivePercentages(p, calories)

	applyDerivedRules(p, calories)
	recordPerKG(p, calories, weight)
	method := models.MethodGrams
	p.CalculationMethod = &method
	return nil
}

// SetCustom sets every macro directly. No derived caps apply; calories
// and percentages are back-derived the same way as the grams strategy.
func SetCustom(p *models.Profile, protein, carbohydrate, fat, saturates, sugars, fibre, salt float64) error {
	weight, err := requireWeight(p)
	if err != nil {
		return err
	}

	p.Protein = protein
	p.Carbohydrate = carbohydrate
	p.Fat = fat
	p.Saturates = saturates
	p.Sugars = sugars
	p.Fibre = fibre
	p.Salt = salt
	calories := protein*4 + carbohydrate*4 + fat*9
	p.Energy = int(math.Round(calories))
	backDerivePercentages(p, calories)

	recordPerKG(p, calories, weight)
	method := models.MethodCustom
	p.CalculationMethod = &method
	return nil
}

func requireWeight(p *models.Profile) (float64, error) {
	if p.WeightKG == nil || *p.WeightKG <= 0 {
		return 0, ErrInvalidProfileState
	}
	return *p.WeightKG, nil
}

// applyDerivedRules fills the secondary nutrients after any strategy
// except custom. Saturates derive from fat and are capped per sex;
// the cap is independent of fat, so saturates <= fat is not guaranteed
// for extreme fat values. Sugars derive from calories and are capped by
// carbohydrate. Fibre and salt are fixed reference intakes.
func applyDerivedRules(p *models.Profile, calories float64) {
	p.Saturates = p.Fat * 0.35
	if p.Sex != nil {
		switch {
		case *p.Sex == models.SexMale && p.Saturates > 30:
			p.Saturates = 30
		case *p.Sex == models.SexFemale && p.Saturates > 20:
			p.Saturates = 20
		}
	}
	p.Sugars = calories * 0.045
	if p.Sugars > p.Carbohydrate {
		p.Sugars = p.Carbohydrate
	}
	p.Fibre = 30
	p.Salt = 6
}

func backDerivePercentages(p *models.Profile, calories float64) {
	if calories == 0 {
		p.ProteinPct, p.CarbohydratePct, p.FatPct = nil, nil, nil
		return
	}
	proteinPct := int(math.Round(p.Protein * 4 / calories * 100))
	carbPct := int(math.Round(p.Carbohydrate * 4 / calories * 100))
	fatPct := int(math.Round(p.Fat * 9 / calories * 100))
	p.ProteinPct = &proteinPct
	p.CarbohydratePct = &carbPct
	p.FatPct = &fatPct
}

// recordPerKG stores the per-kilogram view of the target so the numbers
// that produced it stay traceable.
func recordPerKG(p *models.Profile, calories, weight float64) {
	caloriesPerKG := int(math.Round(calories / weight))
	proteinPerKG := Round2(p.Protein / weight)
	carbPerKG := Round2(p.Carbohydrate / weight)
	fatPerKG := Round2(p.Fat / weight)
	p.CaloriesPerKG = &caloriesPerKG
	p.ProteinPerKG = &proteinPerKG
	p.CarbohydratePerKG = &carbPerKG
	p.FatPerKG = &fatPerKG
}
