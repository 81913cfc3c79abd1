package handlers

import (
	"nutridiary/internal/models"
	"nutridiary/internal/nutrition"
)

// totalsDTO is a set of nutrient amounts at presentation precision:
// whole kcal, macros to 1 decimal place, salt to 2, sodium in whole mg.
// Values may be negative when used for remaining allowances.
type totalsDTO struct {
	Energy       int     `json:"energy"`
	Fat          float64 `json:"fat"`
	Saturates    float64 `json:"saturates"`
	Carbohydrate float64 `json:"carbohydrate"`
	Sugars       float64 `json:"sugars"`
	Fibre        float64 `json:"fibre"`
	Protein      float64 `json:"protein"`
	Salt         float64 `json:"salt"`
	Sodium       int     `json:"sodium"`
}

func toTotalsDTO(f nutrition.Facts) totalsDTO {
	r := f.Rounded()
	return totalsDTO{
		Energy:       r.Energy,
		Fat:          r.Fat,
		Saturates:    r.Saturates,
		Carbohydrate: r.Carbohydrate,
		Sugars:       r.Sugars,
		Fibre:        r.Fibre,
		Protein:      r.Protein,
		Salt:         r.Salt,
		Sodium:       f.Sodium(),
	}
}

// diaryEntryDTO is one diary row joined to its food, with facts scaled
// by the consumed quantity.
type diaryEntryDTO struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	Meal      int       `json:"meal"`
	MealName  string    `json:"meal_name"`
	FoodID    string    `json:"food_id"`
	FoodName  string    `json:"food_name"`
	BrandName string    `json:"brand_name"`
	Quantity  float64   `json:"quantity"`
	Serving   string    `json:"serving"`
	Facts     totalsDTO `json:"facts"`
}

// mealItemDTO is a saved-meal row joined to its food, scaled the same
// way diary rows are.
type mealItemDTO struct {
	ID        string    `json:"id"`
	FoodID    string    `json:"food_id"`
	FoodName  string    `json:"food_name"`
	BrandName string    `json:"brand_name"`
	Quantity  float64   `json:"quantity"`
	Serving   string    `json:"serving"`
	Facts     totalsDTO `json:"facts"`
}

// foodDTO augments a food record with its display serving and derived
// sodium.
type foodDTO struct {
	models.Food
	BrandName    string `json:"brand_name"`
	CategoryName string `json:"category_name"`
	Serving      string `json:"serving"`
	Sodium       int    `json:"sodium"`
}

func toFoodDTO(f models.Food, brandName, categoryName string) foodDTO {
	return foodDTO{
		Food:         f,
		BrandName:    brandName,
		CategoryName: categoryName,
		Serving:      nutrition.ServingLabel(f.ServingSize, f.ServingUnit, 1),
		Sodium:       nutrition.FoodFacts(f).Sodium(),
	}
}
