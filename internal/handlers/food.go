package handlers

import (
	"database/sql"
	"encoding/json"
	"math"
	"net/http"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"nutridiary/internal/middleware"
	"nutridiary/internal/models"
)

type FoodHandler struct {
	db *sqlx.DB
}

func NewFoodHandler(db *sqlx.DB) *FoodHandler {
	return &FoodHandler{db: db}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// foodSortColumns whitelists the sortable fields of the food list.
var foodSortColumns = map[string]string{
	"name":          "f.name ASC",
	"-name":         "f.name DESC",
	"energy":        "f.energy ASC",
	"-energy":       "f.energy DESC",
	"protein":       "f.protein ASC",
	"-protein":      "f.protein DESC",
	"carbohydrate":  "f.carbohydrate ASC",
	"-carbohydrate": "f.carbohydrate DESC",
	"fat":           "f.fat ASC",
	"-fat":          "f.fat DESC",
	"-created":      "f.created_at DESC",
	"-updated":      "f.updated_at DESC",
}

type foodRow struct {
	models.Food
	BrandName    string `db:"brand_name"`
	CategoryName string `db:"category_name"`
}

const foodSelectColumns = `f.id, f.name, f.brand_id, f.category_id, f.serving_size, f.serving_unit,
	f.description, f.energy, f.fat, f.saturates, f.carbohydrate, f.sugars, f.fibre, f.protein,
	f.salt, f.active, f.created_by, f.updated_by, f.created_at, f.updated_at,
	b.name AS brand_name, c.name AS category_name`

// List searches the shared food database. Filters: q (name substring),
// brand, category; sort from the whitelist, name order by default.
// The active flag is advisory and deliberately not applied here.
func (h *FoodHandler) List(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	qb := psql.Select(foodSelectColumns).
		From("foods f").
		Join("brands b ON b.id = f.brand_id").
		Join("categories c ON c.id = f.category_id").
		Limit(100)

	if q := params.Get("q"); q != "" {
		qb = qb.Where(sq.ILike{"f.name": "%" + q + "%"})
	}
	if brand := params.Get("brand"); brand != "" {
		brandID, err := uuid.Parse(brand)
		if err != nil {
			http.Error(w, "invalid brand", http.StatusBadRequest)
			return
		}
		qb = qb.Where(sq.Eq{"f.brand_id": brandID})
	}
	if category := params.Get("category"); category != "" {
		categoryID, err := uuid.Parse(category)
		if err != nil {
			http.Error(w, "invalid category", http.StatusBadRequest)
			return
		}
		qb = qb.Where(sq.Eq{"f.category_id": categoryID})
	}
	order, ok := foodSortColumns[params.Get("sort")]
	if !ok {
		order = "f.name ASC"
	}
	qb = qb.OrderBy(order)

	query, args, err := qb.ToSql()
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	var rows []foodRow
	if err := h.db.Select(&rows, query, args...); err != nil {
		http.Error(w, "could not fetch food", http.StatusInternalServerError)
		return
	}

	out := make([]foodDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toFoodDTO(row.Food, row.BrandName, row.CategoryName))
	}
	writeJSON(w, http.StatusOK, out)
}

type foodRequest struct {
	Name         string      `json:"name"`
	BrandID      uuid.UUID   `json:"brand_id"`
	CategoryID   uuid.UUID   `json:"category_id"`
	ServingUnit  models.Unit `json:"serving_unit"`
	Description  *string     `json:"description"`
	Energy       int         `json:"energy"`
	Fat          float64     `json:"fat"`
	Saturates    float64     `json:"saturates"`
	Carbohydrate float64     `json:"carbohydrate"`
	Sugars       float64     `json:"sugars"`
	Fibre        float64     `json:"fibre"`
	Protein      float64     `json:"protein"`
	Salt         float64     `json:"salt"`
}

// servingSizeFor fixes the reference quantity per unit: facts are per
// 100g, per 100ml or per 1 serving.
func servingSizeFor(unit models.Unit) (int, bool) {
	switch unit {
	case models.UnitGrams, models.UnitMillilitres:
		return 100, true
	case models.UnitServings:
		return 1, true
	default:
		return 0, false
	}
}

// validateFood applies creation-time consistency checks. These are not
// standing data-layer invariants: rows edited before the checks existed
// may violate them, so aggregation never assumes they hold.
func validateFood(body foodRequest) map[string]string {
	errs := make(map[string]string)
	if body.Name == "" {
		errs["name"] = "name is required"
	}
	if _, ok := servingSizeFor(body.ServingUnit); !ok {
		errs["serving_unit"] = "serving unit must be g, ml or srv"
	}
	if body.Energy < 0 || body.Fat < 0 || body.Saturates < 0 || body.Carbohydrate < 0 ||
		body.Sugars < 0 || body.Fibre < 0 || body.Protein < 0 || body.Salt < 0 {
		errs["nutrients"] = "nutrient values must not be negative"
	}
	if body.Saturates > body.Fat {
		errs["saturates"] = "saturates must not exceed total fat"
	}
	if body.Sugars > body.Carbohydrate {
		errs["sugars"] = "sugars must not exceed total carbohydrate"
	}
	macroEnergy := int(math.Round(body.Fat*9 + body.Carbohydrate*4 + body.Protein*4))
	if macroEnergy > body.Energy {
		errs["energy"] = "energy is below the calories implied by the macronutrients provided"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (h *FoodHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	var body foodRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if errs := validateFood(body); errs != nil {
		writeFieldErrors(w, errs)
		return
	}
	servingSize, _ := servingSizeFor(body.ServingUnit)

	var food models.Food
	err := h.db.QueryRowx(`INSERT INTO foods (name, brand_id, category_id, serving_size, serving_unit,
	                       description, energy, fat, saturates, carbohydrate, sugars, fibre, protein, salt,
	                       created_by, updated_by)
	                       VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)
	                       RETURNING id, name, brand_id, category_id, serving_size, serving_unit, description,
	                       energy, fat, saturates, carbohydrate, sugars, fibre, protein, salt, active,
	                       created_by, updated_by, created_at, updated_at`,
		body.Name, body.BrandID, body.CategoryID, servingSize, body.ServingUnit, body.Description,
		body.Energy, body.Fat, body.Saturates, body.Carbohydrate, body.Sugars, body.Fibre,
		body.Protein, body.Salt, userID).StructScan(&food)
	if err != nil {
		if isUniqueViolation(err) {
			writeFieldErrors(w, map[string]string{"name": "a food with this name and brand already exists"})
			return
		}
		http.Error(w, "could not create food", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, food)
}

func (h *FoodHandler) Get(w http.ResponseWriter, r *http.Request) {
	foodID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid food id", http.StatusBadRequest)
		return
	}
	var row foodRow
	err = h.db.Get(&row, `SELECT `+foodSelectColumns+` FROM foods f
	                      JOIN brands b ON b.id = f.brand_id
	                      JOIN categories c ON c.id = f.category_id
	                      WHERE f.id=$1`, foodID)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toFoodDTO(row.Food, row.BrandName, row.CategoryName))
}

// Update replaces a food's serving and nutrient fields. Only the user
// who created the record may edit it.
func (h *FoodHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	foodID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid food id", http.StatusBadRequest)
		return
	}
	var body foodRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if errs := validateFood(body); errs != nil {
		writeFieldErrors(w, errs)
		return
	}
	servingSize, _ := servingSizeFor(body.ServingUnit)

	var food models.Food
	err = h.db.QueryRowx(`UPDATE foods SET name=$1, brand_id=$2, category_id=$3, serving_size=$4,
	                      serving_unit=$5, description=$6, energy=$7, fat=$8, saturates=$9,
	                      carbohydrate=$10, sugars=$11, fibre=$12, protein=$13, salt=$14,
	                      updated_by=$15, updated_at=NOW()
	                      WHERE id=$16 AND created_by=$17
	                      RETURNING id, name, brand_id, category_id, serving_size, serving_unit, description,
	                      energy, fat, saturates, carbohydrate, sugars, fibre, protein, salt, active,
	                      created_by, updated_by, created_at, updated_at`,
		body.Name, body.BrandID, body.CategoryID, servingSize, body.ServingUnit, body.Description,
		body.Energy, body.Fat, body.Saturates, body.Carbohydrate, body.Sugars, body.Fibre,
		body.Protein, body.Salt, userID, foodID, userID).StructScan(&food)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if isUniqueViolation(err) {
			writeFieldErrors(w, map[string]string{"name": "a food with this name and brand already exists"})
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, food)
}

// Delete deactivates a food instead of removing it; existing diary
// entries keep their reference. Creator only.
func (h *FoodHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	foodID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid food id", http.StatusBadRequest)
		return
	}
	res, err := h.db.Exec(`UPDATE foods SET active=FALSE, updated_by=$1, updated_at=NOW()
	                       WHERE id=$2 AND created_by=$1`, userID, foodID)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
