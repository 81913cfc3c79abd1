package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"nutridiary/internal/models"
)

func foodBody(mutate func(m map[string]any)) string {
	m := map[string]any{
		"name":         "Porridge Oats",
		"brand_id":     uuid.New().String(),
		"category_id":  uuid.New().String(),
		"serving_unit": "g",
		"energy":       379,
		"fat":          8.0,
		"saturates":    1.5,
		"carbohydrate": 60.0,
		"sugars":       1.1,
		"fibre":        9.0,
		"protein":      11.0,
		"salt":         0.02,
	}
	if mutate != nil {
		mutate(m)
	}
	b, _ := json.Marshal(m)
	return string(b)
}

func TestCreateFoodValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m map[string]any)
		field  string
	}{
		{
			name:   "missing name",
			mutate: func(m map[string]any) { m["name"] = "" },
			field:  "name",
		},
		{
			name:   "bad serving unit",
			mutate: func(m map[string]any) { m["serving_unit"] = "oz" },
			field:  "serving_unit",
		},
		{
			name:   "negative nutrient",
			mutate: func(m map[string]any) { m["protein"] = -1.0 },
			field:  "nutrients",
		},
		{
			name:   "saturates above fat",
			mutate: func(m map[string]any) { m["saturates"] = 9.0 },
			field:  "saturates",
		},
		{
			name:   "sugars above carbohydrate",
			mutate: func(m map[string]any) { m["sugars"] = 61.0 },
			field:  "sugars",
		},
		{
			name: "energy below macro calories",
			mutate: func(m map[string]any) {
				// 8g fat + 60g carb + 11g protein implies 356 kcal
				m["energy"] = 300
			},
			field: "energy",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			rec := httptest.NewRecorder()
			NewFoodHandler(db).Create(rec,
				authedRequest(http.MethodPost, "/api/food", foodBody(tc.mutate), uuid.New()))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), fmt.Sprintf("%q", tc.field))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCreateFoodDuplicateNameAndBrand(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`INSERT INTO foods`).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

	rec := httptest.NewRecorder()
	NewFoodHandler(db).Create(rec,
		authedRequest(http.MethodPost, "/api/food", foodBody(nil), uuid.New()))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "already exists")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateFoodFixesServingSizeByUnit(t *testing.T) {
	tests := []struct {
		unit string
		size int
	}{
		{"g", 100},
		{"ml", 100},
		{"srv", 1},
	}
	for _, tc := range tests {
		size, ok := servingSizeFor(models.Unit(tc.unit))
		assert.True(t, ok)
		assert.Equal(t, tc.size, size)
	}
}
