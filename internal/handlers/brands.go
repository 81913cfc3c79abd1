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
)

// BrandHandler serves the brand and category reference lists that food
// records point at. Both are shared between all users.
type BrandHandler struct {
	db *sqlx.DB
}

func NewBrandHandler(db *sqlx.DB) *BrandHandler {
	return &BrandHandler{db: db}
}

type nameRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

const brandColumns = `id, name, description, created_by, updated_by, created_at, updated_at`

func (h *BrandHandler) ListBrands(w http.ResponseWriter, r *http.Request) {
	brands := []models.Brand{}
	if err := h.db.Select(&brands, `SELECT `+brandColumns+` FROM brands ORDER BY name`); err != nil {
		http.Error(w, "could not fetch brands", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, brands)
}

func (h *BrandHandler) CreateBrand(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	var body nameRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		writeFieldErrors(w, map[string]string{"name": "name is required"})
		return
	}
	var brand models.Brand
	err := h.db.QueryRowx(`INSERT INTO brands (name, description, created_by, updated_by)
	                       VALUES ($1, $2, $3, $3) RETURNING `+brandColumns,
		body.Name, body.Description, userID).StructScan(&brand)
	if err != nil {
		if isUniqueViolation(err) {
			writeFieldErrors(w, map[string]string{"name": "brand already exists"})
			return
		}
		http.Error(w, "could not create brand", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, brand)
}

func (h *BrandHandler) GetBrand(w http.ResponseWriter, r *http.Request) {
	brandID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid brand id", http.StatusBadRequest)
		return
	}
	var brand models.Brand
	err = h.db.Get(&brand, `SELECT `+brandColumns+` FROM brands WHERE id=$1`, brandID)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, brand)
}

func (h *BrandHandler) UpdateBrand(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	brandID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid brand id", http.StatusBadRequest)
		return
	}
	var body nameRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		writeFieldErrors(w, map[string]string{"name": "name is required"})
		return
	}
	var brand models.Brand
	err = h.db.QueryRowx(`UPDATE brands SET name=$1, description=$2, updated_by=$3, updated_at=NOW()
	                      WHERE id=$4 RETURNING `+brandColumns,
		body.Name, body.Description, userID, brandID).StructScan(&brand)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if isUniqueViolation(err) {
			writeFieldErrors(w, map[string]string{"name": "brand already exists"})
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, brand)
}

func (h *BrandHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories := []models.Category{}
	if err := h.db.Select(&categories, `SELECT `+brandColumns+` FROM categories ORDER BY name`); err != nil {
		http.Error(w, "could not fetch categories", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *BrandHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid category id", http.StatusBadRequest)
		return
	}
	var category models.Category
	err = h.db.Get(&category, `SELECT `+brandColumns+` FROM categories WHERE id=$1`, categoryID)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (h *BrandHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	var body nameRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		writeFieldErrors(w, map[string]string{"name": "name is required"})
		return
	}
	var category models.Category
	err := h.db.QueryRowx(`INSERT INTO categories (name, description, created_by, updated_by)
	                       VALUES ($1, $2, $3, $3) RETURNING `+brandColumns,
		body.Name, body.Description, userID).StructScan(&category)
	if err != nil {
		if isUniqueViolation(err) {
			writeFieldErrors(w, map[string]string{"name": "category already exists"})
			return
		}
		http.Error(w, "could not create category", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (h *BrandHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	categoryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid category id", http.StatusBadRequest)
		return
	}
	var body nameRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		writeFieldErrors(w, map[string]string{"name": "name is required"})
		return
	}
	var category models.Category
	err = h.db.QueryRowx(`UPDATE categories SET name=$1, description=$2, updated_by=$3, updated_at=NOW()
	                      WHERE id=$4 RETURNING `+brandColumns,
		body.Name, body.Description, userID, categoryID).StructScan(&category)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if isUniqueViolation(err) {
			writeFieldErrors(w, map[string]string{"name": "category already exists"})
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, category)
}
