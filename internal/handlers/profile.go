package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"nutridiary/internal/middleware"
	"nutridiary/internal/models"
	"nutridiary/internal/nutrition"
)

type ProfileHandler struct {
	db *sqlx.DB
}

func NewProfileHandler(db *sqlx.DB) *ProfileHandler {
	return &ProfileHandler{db: db}
}

const profileColumns = `id, user_id, sex, height_cm, weight_kg, date_of_birth, activity_level,
	goal_weight_kg, goal, calculation_method, energy, fat, saturates, carbohydrate, sugars,
	fibre, protein, salt, protein_pct, carbohydrate_pct, fat_pct, calories_per_kg,
	protein_per_kg, carbohydrate_per_kg, fat_per_kg, created_at, updated_at`

// GetMe returns the current user's profile, stats and target included.
func (h *ProfileHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	var p models.Profile
	if err := h.db.Get(&p, `SELECT `+profileColumns+` FROM profiles WHERE user_id=$1`, userID); err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type updateProfileRequest struct {
	Sex           *models.Sex           `json:"sex"`
	HeightCM      *int                  `json:"height_cm"`
	WeightKG      *float64              `json:"weight_kg"`
	DateOfBirth   *string               `json:"date_of_birth"` // YYYY-MM-DD
	ActivityLevel *models.ActivityLevel `json:"activity_level"`
	GoalWeightKG  *float64              `json:"goal_weight_kg"`
	Goal          *models.Goal          `json:"goal"`
}

// UpdateMe updates provided body-metric fields. A weight change mirrors
// into today's progress log in the same transaction, before the
// response is written: update the row in place when one exists for
// (user, today), otherwise create it.
func (h *ProfileHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	var body updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.WeightKG != nil && *body.WeightKG <= 0 {
		writeFieldErrors(w, map[string]string{"weight_kg": "weight must be greater than zero"})
		return
	}
	if body.DateOfBirth != nil {
		dob, err := parseDate(*body.DateOfBirth)
		if err != nil || dob.After(time.Now()) {
			writeFieldErrors(w, map[string]string{"date_of_birth": "expected a past date in YYYY-MM-DD format"})
			return
		}
	}

	tx, err := h.db.Beginx()
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	defer tx.Rollback()

	var p models.Profile
	if err := tx.Get(&p, `SELECT `+profileColumns+` FROM profiles WHERE user_id=$1 FOR UPDATE`, userID); err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	previousWeight := p.WeightKG
	if body.Sex != nil {
		p.Sex = body.Sex
	}
	if body.HeightCM != nil {
		p.HeightCM = body.HeightCM
	}
	if body.WeightKG != nil {
		p.WeightKG = body.WeightKG
	}
	if body.DateOfBirth != nil {
		dob, _ := parseDate(*body.DateOfBirth)
		p.DateOfBirth = &dob
	}
	if body.ActivityLevel != nil {
		p.ActivityLevel = body.ActivityLevel
	}
	if body.GoalWeightKG != nil {
		p.GoalWeightKG = body.GoalWeightKG
	}
	if body.Goal != nil {
		p.Goal = body.Goal
	}

	_, err = tx.Exec(`UPDATE profiles SET sex=$1, height_cm=$2, weight_kg=$3, date_of_birth=$4,
	                  activity_level=$5, goal_weight_kg=$6, goal=$7, updated_at=NOW()
	                  WHERE user_id=$8`,
		p.Sex, p.HeightCM, p.WeightKG, p.DateOfBirth, p.ActivityLevel, p.GoalWeightKG, p.Goal, userID)
	if err != nil {
		http.Error(w, "could not save profile", http.StatusInternalServerError)
		return
	}

	weightChanged := body.WeightKG != nil &&
		(previousWeight == nil || *previousWeight != *body.WeightKG)
	if weightChanged {
		_, err = tx.Exec(`INSERT INTO progress_entries (user_id, date, weight_kg)
		                  VALUES ($1, $2, $3)
		                  ON CONFLICT (user_id, date)
		                  DO UPDATE SET weight_kg = EXCLUDED.weight_kg, updated_at = NOW()`,
			userID, today(), *body.WeightKG)
		if err != nil {
			http.Error(w, "could not log weight", http.StatusInternalServerError)
			return
		}
	}

	if err := tx.Commit(); err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// derivedResponse carries the optional figures computed from body
// metrics. Fields stay null when the profile is missing an input; the
// caller simply omits them from display.
type derivedResponse struct {
	Age                 *int                     `json:"age,omitempty"`
	BMI                 *float64                 `json:"bmi,omitempty"`
	BMR                 *int                     `json:"bmr,omitempty"`
	TDEE                *int                     `json:"tdee,omitempty"`
	RecommendedCalories *int                     `json:"recommended_calories,omitempty"`
	WeightLb            *int                     `json:"weight_lb,omitempty"`
	WeightSt            *nutrition.StonesPounds  `json:"weight_st,omitempty"`
	GoalWeightLb        *int                     `json:"goal_weight_lb,omitempty"`
	GoalWeightSt        *nutrition.StonesPounds  `json:"goal_weight_st,omitempty"`
	HeightIn            *int                     `json:"height_in,omitempty"`
	HeightFt            *nutrition.FeetInches    `json:"height_ft,omitempty"`
	TargetSodium        int                      `json:"target_sodium"`
}

// GetDerived returns everything derivable from the profile's body
// metrics: age, BMI, the BMR/TDEE/recommended-calories chain and
// imperial conversions.
func (h *ProfileHandler) GetDerived(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	var p models.Profile
	if err := h.db.Get(&p, `SELECT `+profileColumns+` FROM profiles WHERE user_id=$1`, userID); err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	now := time.Now()
	var resp derivedResponse
	resp.TargetSodium = nutrition.TargetFacts(p).Sodium()
	if p.DateOfBirth != nil {
		age := nutrition.Age(*p.DateOfBirth, now)
		resp.Age = &age
	}
	if bmi, ok := nutrition.BMI(p.WeightKG, p.HeightCM); ok {
		resp.BMI = &bmi
	}
	if bmr, ok := nutrition.BMR(p, now); ok {
		resp.BMR = &bmr
	}
	if tdee, ok := nutrition.TDEE(p, now); ok {
		resp.TDEE = &tdee
	}
	if cal, ok := nutrition.RecommendedCalories(p, now); ok {
		resp.RecommendedCalories = &cal
	}
	if p.WeightKG != nil {
		lb := nutrition.KGToLb(*p.WeightKG)
		st := nutrition.KGToStones(*p.WeightKG)
		resp.WeightLb = &lb
		resp.WeightSt = &st
	}
	if p.GoalWeightKG != nil {
		lb := nutrition.KGToLb(*p.GoalWeightKG)
		st := nutrition.KGToStones(*p.GoalWeightKG)
		resp.GoalWeightLb = &lb
		resp.GoalWeightSt = &st
	}
	if p.HeightCM != nil {
		in := nutrition.CMToIn(*p.HeightCM)
		ft := nutrition.CMToFeet(*p.HeightCM)
		resp.HeightIn = &in
		resp.HeightFt = &ft
	}

	writeJSON(w, http.StatusOK, resp)
}

type percentTargetRequest struct {
	Calories        int `json:"calories"`
	ProteinPct      int `json:"protein_pct"`
	CarbohydratePct int `json:"carbohydrate_pct"`
	FatPct          int `json:"fat_pct"`
}

type gramsTargetRequest struct {
	ProteinPerKG      float64 `json:"protein_per_kg"`
	CarbohydratePerKG float64 `json:"carbohydrate_per_kg"`
	FatPerKG          float64 `json:"fat_per_kg"`
}

type customTargetRequest struct {
	Protein      float64 `json:"protein"`
	Carbohydrate float64 `json:"carbohydrate"`
	Fat          float64 `json:"fat"`
	Saturates    float64 `json:"saturates"`
	Sugars       float64 `json:"sugars"`
	Fibre        float64 `json:"fibre"`
	Salt         float64 `json:"salt"`
}

// SetRecommendedTarget derives the target from body metrics alone.
func (h *ProfileHandler) SetRecommendedTarget(w http.ResponseWriter, r *http.Request) {
	h.setTarget(w, r, func(p *models.Profile) error {
		return nutrition.SetRecommended(p, time.Now())
	})
}

func (h *ProfileHandler) SetPercentTarget(w http.ResponseWriter, r *http.Request) {
	var body percentTargetRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Calories <= 0 {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if sum := body.ProteinPct + body.CarbohydratePct + body.FatPct; sum != 100 {
		writeFieldErrors(w, map[string]string{"percentages": "protein, carbohydrate and fat percentages must sum to 100"})
		return
	}
	h.setTarget(w, r, func(p *models.Profile) error {
		return nutrition.SetPercent(p, body.Calories, body.ProteinPct, body.CarbohydratePct, body.FatPct)
	})
}

func (h *ProfileHandler) SetGramsTarget(w http.ResponseWriter, r *http.Request) {
	var body gramsTargetRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil ||
		body.ProteinPerKG < 0 || body.CarbohydratePerKG < 0 || body.FatPerKG < 0 {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	h.setTarget(w, r, func(p *models.Profile) error {
		return nutrition.SetGrams(p, body.ProteinPerKG, body.CarbohydratePerKG, body.FatPerKG)
	})
}

func (h *ProfileHandler) SetCustomTarget(w http.ResponseWriter, r *http.Request) {
	var body customTargetRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil ||
		body.Protein < 0 || body.Carbohydrate < 0 || body.Fat < 0 ||
		body.Saturates < 0 || body.Sugars < 0 || body.Fibre < 0 || body.Salt < 0 {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	h.setTarget(w, r, func(p *models.Profile) error {
		return nutrition.SetCustom(p, body.Protein, body.Carbohydrate, body.Fat,
			body.Saturates, body.Sugars, body.Fibre, body.Salt)
	})
}

// setTarget loads the profile, applies one derivation strategy and
// persists the resulting target fields.
func (h *ProfileHandler) setTarget(w http.ResponseWriter, r *http.Request, derive func(*models.Profile) error) {
	userID := middleware.UserID(r.Context())
	var p models.Profile
	if err := h.db.Get(&p, `SELECT `+profileColumns+` FROM profiles WHERE user_id=$1`, userID); err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	if err := derive(&p); err != nil {
		switch err {
		case nutrition.ErrInvalidProfileState:
			writeFieldErrors(w, map[string]string{"weight_kg": "set your body weight before deriving a target"})
		case nutrition.ErrIncompleteProfile:
			writeFieldErrors(w, map[string]string{"profile": "complete your sex, height, weight, date of birth, activity level and goal first"})
		default:
			http.Error(w, "could not derive target", http.StatusInternalServerError)
		}
		return
	}

	_, err := h.db.Exec(`UPDATE profiles SET calculation_method=$1, energy=$2, fat=$3, saturates=$4,
	                     carbohydrate=$5, sugars=$6, fibre=$7, protein=$8, salt=$9,
	                     protein_pct=$10, carbohydrate_pct=$11, fat_pct=$12,
	                     calories_per_kg=$13, protein_per_kg=$14, carbohydrate_per_kg=$15, fat_per_kg=$16,
	                     updated_at=NOW()
	                     WHERE user_id=$17`,
		p.CalculationMethod, p.Energy, p.Fat, p.Saturates, p.Carbohydrate, p.Sugars, p.Fibre,
		p.Protein, p.Salt, p.ProteinPct, p.CarbohydratePct, p.FatPct,
		p.CaloriesPerKG, p.ProteinPerKG, p.CarbohydratePerKG, p.FatPerKG, userID)
	if err != nil {
		http.Error(w, "could not save target", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
