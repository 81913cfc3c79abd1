package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"nutridiary/internal/middleware"
	"nutridiary/internal/models"
)

// ProgressHandler serves the daily weight/notes log. One row per
// (user, date); writing twice for a date updates in place. Profile
// weight changes land here too, through the profile handler.
type ProgressHandler struct {
	db *sqlx.DB
}

func NewProgressHandler(db *sqlx.DB) *ProgressHandler {
	return &ProgressHandler{db: db}
}

const progressColumns = `id, user_id, date, weight_kg, notes, created_at, updated_at`

func (h *ProgressHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	entries := []models.Progress{}
	err := h.db.Select(&entries, `SELECT `+progressColumns+` FROM progress_entries
		WHERE user_id=$1 ORDER BY date DESC`, userID)
	if err != nil {
		http.Error(w, "could not fetch progress", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type progressRequest struct {
	WeightKG *float64 `json:"weight_kg"`
	Notes    *string  `json:"notes"`
}

// Upsert records weight and/or notes for the date in the URL.
func (h *ProgressHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	date, err := parseDate(chi.URLParam(r, "date"))
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	var body progressRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.WeightKG != nil && *body.WeightKG <= 0 {
		writeFieldErrors(w, map[string]string{"weight_kg": "weight must be greater than zero"})
		return
	}
	if body.WeightKG == nil && body.Notes == nil {
		writeFieldErrors(w, map[string]string{"weight_kg": "weight or notes is required"})
		return
	}

	var entry models.Progress
	err = h.db.QueryRowx(`INSERT INTO progress_entries (user_id, date, weight_kg, notes)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, date) DO UPDATE SET
			weight_kg = COALESCE(EXCLUDED.weight_kg, progress_entries.weight_kg),
			notes = COALESCE(EXCLUDED.notes, progress_entries.notes),
			updated_at = NOW()
		RETURNING `+progressColumns,
		userID, date, body.WeightKG, body.Notes).StructScan(&entry)
	if err != nil {
		http.Error(w, "could not save progress", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
