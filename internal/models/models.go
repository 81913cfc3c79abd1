package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     *string   `db:"full_name" json:"full_name,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type Sex string

const (
	SexMale   Sex = "M"
	SexFemale Sex = "F"
)

type ActivityLevel string

const (
	Sedentary        ActivityLevel = "SD"
	LightlyActive    ActivityLevel = "LA"
	ModeratelyActive ActivityLevel = "MA"
	VeryActive       ActivityLevel = "VA"
	ExtraActive      ActivityLevel = "EA"
)

type Goal string

const (
	LoseWeight     Goal = "LW"
	MaintainWeight Goal = "MW"
	GainWeight     Goal = "GW"
)

type CalculationMethod string

const (
	MethodRecommended CalculationMethod = "REC"
	MethodPercent     CalculationMethod = "PER"
	MethodGrams       CalculationMethod = "GRA"
	MethodCustom      CalculationMethod = "CUS"
)

// Profile stores a user's body metrics and their current daily
// calorie/macronutrient target. One row per user, created at signup.
// Target defaults follow the recommended intake for an adult female.
type Profile struct {
	ID     uuid.UUID `db:"id" json:"id"`
	UserID uuid.UUID `db:"user_id" json:"user_id"`

	Sex           *Sex           `db:"sex" json:"sex,omitempty"`
	HeightCM      *int           `db:"height_cm" json:"height_cm,omitempty"`
	WeightKG      *float64       `db:"weight_kg" json:"weight_kg,omitempty"`
	DateOfBirth   *time.Time     `db:"date_of_birth" json:"date_of_birth,omitempty"`
	ActivityLevel *ActivityLevel `db:"activity_level" json:"activity_level,omitempty"`
	GoalWeightKG  *float64       `db:"goal_weight_kg" json:"goal_weight_kg,omitempty"`
	Goal          *Goal          `db:"goal" json:"goal,omitempty"`

	CalculationMethod *CalculationMethod `db:"calculation_method" json:"calculation_method,omitempty"`
	Energy            int                `db:"energy" json:"energy"`
	Fat               float64            `db:"fat" json:"fat"`
	Saturates         float64            `db:"saturates" json:"saturates"`
	Carbohydrate      float64            `db:"carbohydrate" json:"carbohydrate"`
	Sugars            float64            `db:"sugars" json:"sugars"`
	Fibre             float64            `db:"fibre" json:"fibre"`
	Protein           float64            `db:"protein" json:"protein"`
	Salt              float64            `db:"salt" json:"salt"`

	ProteinPct      *int `db:"protein_pct" json:"protein_pct,omitempty"`
	CarbohydratePct *int `db:"carbohydrate_pct" json:"carbohydrate_pct,omitempty"`
	FatPct          *int `db:"fat_pct" json:"fat_pct,omitempty"`

	CaloriesPerKG     *int     `db:"calories_per_kg" json:"calories_per_kg,omitempty"`
	ProteinPerKG      *float64 `db:"protein_per_kg" json:"protein_per_kg,omitempty"`
	CarbohydratePerKG *float64 `db:"carbohydrate_per_kg" json:"carbohydrate_per_kg,omitempty"`
	FatPerKG          *float64 `db:"fat_per_kg" json:"fat_per_kg,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type Brand struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Description *string    `db:"description" json:"description,omitempty"`
	CreatedBy   *uuid.UUID `db:"created_by" json:"created_by,omitempty"`
	UpdatedBy   *uuid.UUID `db:"updated_by" json:"updated_by,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

type Category struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Description *string    `db:"description" json:"description,omitempty"`
	CreatedBy   *uuid.UUID `db:"created_by" json:"created_by,omitempty"`
	UpdatedBy   *uuid.UUID `db:"updated_by" json:"updated_by,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

type Unit string

const (
	UnitGrams       Unit = "g"
	UnitMillilitres Unit = "ml"
	UnitServings    Unit = "srv"
)

// Food holds nutrition facts per one reference quantity
// (ServingSize in ServingUnit, e.g. 100g or 1 serving).
// Energy is whole kcal; macros are grams. Sodium is never stored,
// it is always derived from salt.
type Food struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	BrandID     uuid.UUID `db:"brand_id" json:"brand_id"`
	CategoryID  uuid.UUID `db:"category_id" json:"category_id"`
	ServingSize int       `db:"serving_size" json:"serving_size"`
	ServingUnit Unit      `db:"serving_unit" json:"serving_unit"`
	Description *string   `db:"description" json:"description,omitempty"`

	Energy       int     `db:"energy" json:"energy"`
	Fat          float64 `db:"fat" json:"fat"`
	Saturates    float64 `db:"saturates" json:"saturates"`
	Carbohydrate float64 `db:"carbohydrate" json:"carbohydrate"`
	Sugars       float64 `db:"sugars" json:"sugars"`
	Fibre        float64 `db:"fibre" json:"fibre"`
	Protein      float64 `db:"protein" json:"protein"`
	Salt         float64 `db:"salt" json:"salt"`

	// Unselect instead of deleting. Advisory only: list views and
	// aggregation do not filter on it.
	Active bool `db:"active" json:"active"`

	CreatedBy *uuid.UUID `db:"created_by" json:"created_by,omitempty"`
	UpdatedBy *uuid.UUID `db:"updated_by" json:"updated_by,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// MealSlot is one of the six fixed daily eating occasions used to
// bucket diary entries.
type MealSlot int

const (
	Breakfast MealSlot = iota + 1
	MorningSnack
	Lunch
	AfternoonSnack
	Dinner
	EveningSnack
)

var mealSlotNames = map[MealSlot]string{
	Breakfast:      "Breakfast",
	MorningSnack:   "Morning Snack",
	Lunch:          "Lunch",
	AfternoonSnack: "Afternoon Snack",
	Dinner:         "Dinner",
	EveningSnack:   "Evening Snack",
}

func (m MealSlot) Valid() bool { return m >= Breakfast && m <= EveningSnack }

func (m MealSlot) Name() string { return mealSlotNames[m] }

// DiaryEntry records that a user ate Quantity times a food's reference
// quantity on a date, in a meal slot. Quantity must be > 0.
type DiaryEntry struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Date      time.Time `db:"date" json:"date"`
	Meal      MealSlot  `db:"meal" json:"meal"`
	FoodID    uuid.UUID `db:"food_id" json:"food_id"`
	Quantity  float64   `db:"quantity" json:"quantity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Meal is a named, reusable template of food+quantity pairs a user can
// insert into their diary in bulk. Name is unique per user.
type Meal struct {
	ID          uuid.UUID `db:"id" json:"id"`
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type MealItem struct {
	ID        uuid.UUID `db:"id" json:"id"`
	MealID    uuid.UUID `db:"meal_id" json:"meal_id"`
	FoodID    uuid.UUID `db:"food_id" json:"food_id"`
	Quantity  float64   `db:"quantity" json:"quantity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Progress is a daily log of weight and notes, one row per (user, date).
// A profile weight change mirrors into the same-day row.
type Progress struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Date      time.Time `db:"date" json:"date"`
	WeightKG  *float64  `db:"weight_kg" json:"weight_kg,omitempty"`
	Notes     *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
