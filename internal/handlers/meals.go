package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"nutridiary/internal/middleware"
	"nutridiary/internal/models"
	"nutridiary/internal/nutrition"
)

// MealHandler manages a user's saved meals: named food+quantity
// templates that can be dropped into the diary in one action.
type MealHandler struct {
	db *sqlx.DB
}

func NewMealHandler(db *sqlx.DB) *MealHandler {
	return &MealHandler{db: db}
}

type mealItemRow struct {
	models.MealItem
	FoodName         string      `db:"food_name"`
	BrandName        string      `db:"brand_name"`
	ServingSize      int         `db:"serving_size"`
	ServingUnit      models.Unit `db:"serving_unit"`
	FoodEnergy       int         `db:"food_energy"`
	FoodFat          float64     `db:"food_fat"`
	FoodSaturates    float64     `db:"food_saturates"`
	FoodCarbohydrate float64     `db:"food_carbohydrate"`
	FoodSugars       float64     `db:"food_sugars"`
	FoodFibre        float64     `db:"food_fibre"`
	FoodProtein      float64     `db:"food_protein"`
	FoodSalt         float64     `db:"food_salt"`
}

func (row mealItemRow) scaled() (mealItemDTO, nutrition.Facts) {
	facts := nutrition.Scale(nutrition.Facts{
		Energy:       row.FoodEnergy,
		Fat:          row.FoodFat,
		Saturates:    row.FoodSaturates,
		Carbohydrate: row.FoodCarbohydrate,
		Sugars:       row.FoodSugars,
		Fibre:        row.FoodFibre,
		Protein:      row.FoodProtein,
		Salt:         row.FoodSalt,
	}, row.Quantity)
	return mealItemDTO{
		ID:        row.ID.String(),
		FoodID:    row.FoodID.String(),
		FoodName:  row.FoodName,
		BrandName: row.BrandName,
		Quantity:  row.Quantity,
		Serving:   nutrition.ServingLabel(row.ServingSize, row.ServingUnit, row.Quantity),
		Facts:     toTotalsDTO(facts),
	}, facts
}

const mealItemColumns = `i.id, i.meal_id, i.food_id, i.quantity, i.created_at, i.updated_at,
	f.name AS food_name, b.name AS brand_name, f.serving_size, f.serving_unit,
	f.energy AS food_energy, f.fat AS food_fat, f.saturates AS food_saturates,
	f.carbohydrate AS food_carbohydrate, f.sugars AS food_sugars,
	f.fibre AS food_fibre, f.protein AS food_protein, f.salt AS food_salt`

func (h *MealHandler) items(mealID uuid.UUID) ([]mealItemDTO, nutrition.Facts, error) {
	var rows []mealItemRow
	err := h.db.Select(&rows, `SELECT `+mealItemColumns+` FROM meal_items i
		JOIN foods f ON f.id = i.food_id
		JOIN brands b ON b.id = f.brand_id
		WHERE i.meal_id=$1 ORDER BY i.created_at`, mealID)
	if err != nil {
		return nil, nutrition.Facts{}, err
	}
	items := []mealItemDTO{}
	var facts []nutrition.Facts
	for _, row := range rows {
		dto, f := row.scaled()
		items = append(items, dto)
		facts = append(facts, f)
	}
	return items, nutrition.Sum(facts), nil
}

type mealResponse struct {
	models.Meal
	Items []mealItemDTO `json:"items"`
	Total totalsDTO     `json:"total"`
}

func (h *MealHandler) writeMeal(w http.ResponseWriter, status int, meal models.Meal) {
	items, total, err := h.items(meal.ID)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, status, mealResponse{Meal: meal, Items: items, Total: toTotalsDTO(total)})
}

const mealColumns = `id, user_id, name, description, created_at, updated_at`

func (h *MealHandler) ownedMeal(w http.ResponseWriter, r *http.Request) (models.Meal, bool) {
	userID := middleware.UserID(r.Context())
	mealID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid meal id", http.StatusBadRequest)
		return models.Meal{}, false
	}
	var meal models.Meal
	err = h.db.Get(&meal, `SELECT `+mealColumns+` FROM meals WHERE id=$1 AND user_id=$2`, mealID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "not found", http.StatusNotFound)
		} else {
			http.Error(w, "server error", http.StatusInternalServerError)
		}
		return models.Meal{}, false
	}
	return meal, true
}

func (h *MealHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	meals := []models.Meal{}
	err := h.db.Select(&meals, `SELECT `+mealColumns+` FROM meals WHERE user_id=$1 ORDER BY name`, userID)
	if err != nil {
		http.Error(w, "could not fetch meals", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, meals)
}

func (h *MealHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	var body nameRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		writeFieldErrors(w, map[string]string{"name": "name is required"})
		return
	}
	var meal models.Meal
	err := h.db.QueryRowx(`INSERT INTO meals (user_id, name, description)
		VALUES ($1, $2, $3) RETURNING `+mealColumns,
		userID, body.Name, body.Description).StructScan(&meal)
	if err != nil {
		if isUniqueViolation(err) {
			writeFieldErrors(w, map[string]string{"name": "you already have a meal with this name"})
			return
		}
		http.Error(w, "could not create meal", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, meal)
}

func (h *MealHandler) Get(w http.ResponseWriter, r *http.Request) {
	meal, ok := h.ownedMeal(w, r)
	if !ok {
		return
	}
	h.writeMeal(w, http.StatusOK, meal)
}

func (h *MealHandler) Update(w http.ResponseWriter, r *http.Request) {
	meal, ok := h.ownedMeal(w, r)
	if !ok {
		return
	}
	var body nameRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		writeFieldErrors(w, map[string]string{"name": "name is required"})
		return
	}
	err := h.db.QueryRowx(`UPDATE meals SET name=$1, description=$2, updated_at=NOW()
		WHERE id=$3 RETURNING `+mealColumns,
		body.Name, body.Description, meal.ID).StructScan(&meal)
	if err != nil {
		if isUniqueViolation(err) {
			writeFieldErrors(w, map[string]string{"name": "you already have a meal with this name"})
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	h.writeMeal(w, http.StatusOK, meal)
}

// Delete removes a meal and its items. Diary entries created from the
// meal are untouched; expansion copies rows, it does not link them.
func (h *MealHandler) Delete(w http.ResponseWriter, r *http.Request) {
	meal, ok := h.ownedMeal(w, r)
	if !ok {
		return
	}
	if _, err := h.db.Exec(`DELETE FROM meals WHERE id=$1`, meal.ID); err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type mealItemRequest struct {
	FoodID   uuid.UUID `json:"food_id"`
	Quantity float64   `json:"quantity"`
}

func (h *MealHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	meal, ok := h.ownedMeal(w, r)
	if !ok {
		return
	}
	var body mealItemRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.Quantity <= 0 {
		writeFieldErrors(w, map[string]string{"quantity": "quantity must be greater than zero"})
		return
	}
	_, err := h.db.Exec(`INSERT INTO meal_items (meal_id, food_id, quantity) VALUES ($1, $2, $3)`,
		meal.ID, body.FoodID, body.Quantity)
	if err != nil {
		writeFieldErrors(w, map[string]string{"food_id": "unknown food"})
		return
	}
	h.writeMeal(w, http.StatusCreated, meal)
}

func (h *MealHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	meal, ok := h.ownedMeal(w, r)
	if !ok {
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		http.Error(w, "invalid item id", http.StatusBadRequest)
		return
	}
	res, err := h.db.Exec(`DELETE FROM meal_items WHERE id=$1 AND meal_id=$2`, itemID, meal.ID)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
