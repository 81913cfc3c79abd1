package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"nutridiary/internal/middleware"
	"nutridiary/internal/models"
	"nutridiary/internal/nutrition"
	"nutridiary/internal/session"
)

// DiaryHandler serves the food diary: day and meal-slot views with
// aggregated totals, entry management, bulk helpers and the staged
// delete-selection workflow.
type DiaryHandler struct {
	db         *sqlx.DB
	selections *session.Store
}

func NewDiaryHandler(db *sqlx.DB, selections *session.Store) *DiaryHandler {
	return &DiaryHandler{db: db, selections: selections}
}

// diaryRow is a diary entry joined to its food and brand. The food's
// reference facts ride along so scaling happens in one pass.
type diaryRow struct {
	models.DiaryEntry
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

func (row diaryRow) refFacts() nutrition.Facts {
	return nutrition.Facts{
		Energy:       row.FoodEnergy,
		Fat:          row.FoodFat,
		Saturates:    row.FoodSaturates,
		Carbohydrate: row.FoodCarbohydrate,
		Sugars:       row.FoodSugars,
		Fibre:        row.FoodFibre,
		Protein:      row.FoodProtein,
		Salt:         row.FoodSalt,
	}
}

// scaled returns the entry's DTO and its full-precision scaled facts.
// Display rounding happens in the DTO conversion only; the precise
// facts feed the day and slot sums.
func (row diaryRow) scaled() (diaryEntryDTO, nutrition.Facts) {
	facts := nutrition.Scale(row.refFacts(), row.Quantity)
	return diaryEntryDTO{
		ID:        row.ID.String(),
		Date:      row.Date.Format(dateLayout),
		Meal:      int(row.Meal),
		MealName:  row.Meal.Name(),
		FoodID:    row.FoodID.String(),
		FoodName:  row.FoodName,
		BrandName: row.BrandName,
		Quantity:  row.Quantity,
		Serving:   nutrition.ServingLabel(row.ServingSize, row.ServingUnit, row.Quantity),
		Facts:     toTotalsDTO(facts),
	}, facts
}

const diaryRowColumns = `d.id, d.user_id, d.date, d.meal, d.food_id, d.quantity, d.created_at, d.updated_at,
	f.name AS food_name, b.name AS brand_name, f.serving_size, f.serving_unit,
	f.energy AS food_energy, f.fat AS food_fat, f.saturates AS food_saturates,
	f.carbohydrate AS food_carbohydrate, f.sugars AS food_sugars,
	f.fibre AS food_fibre, f.protein AS food_protein, f.salt AS food_salt`

const diaryRowFrom = ` FROM diary_entries d
	JOIN foods f ON f.id = d.food_id
	JOIN brands b ON b.id = f.brand_id`

func (h *DiaryHandler) dayRows(userID uuid.UUID, date time.Time) ([]diaryRow, error) {
	var rows []diaryRow
	err := h.db.Select(&rows, `SELECT `+diaryRowColumns+diaryRowFrom+`
		WHERE d.user_id=$1 AND d.date=$2 ORDER BY d.meal, d.created_at`, userID, date)
	return rows, err
}

type slotDTO struct {
	Meal    int             `json:"meal"`
	Name    string          `json:"name"`
	Entries []diaryEntryDTO `json:"entries"`
	Total   totalsDTO       `json:"total"`
}

type dayResponse struct {
	Date      string    `json:"date"`
	Meals     []slotDTO `json:"meals"`
	Total     totalsDTO `json:"total"`
	Target    totalsDTO `json:"target"`
	Remaining totalsDTO `json:"remaining"`
}

// Day returns the full diary for a date: all six meal slots (present
// even when empty), the day total, the profile target and what remains
// of it.
func (h *DiaryHandler) Day(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	date, err := parseDate(chi.URLParam(r, "date"))
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	rows, err := h.dayRows(userID, date)
	if err != nil {
		http.Error(w, "could not fetch diary", http.StatusInternalServerError)
		return
	}

	var profile models.Profile
	if err := h.db.Get(&profile, `SELECT `+profileColumns+` FROM profiles WHERE user_id=$1`, userID); err != nil {
		http.Error(w, "could not fetch profile", http.StatusInternalServerError)
		return
	}
	target := nutrition.TargetFacts(profile)

	slotEntries := make(map[models.MealSlot][]diaryEntryDTO)
	slotFacts := make(map[models.MealSlot][]nutrition.Facts)
	var all []nutrition.Facts
	for _, row := range rows {
		dto, facts := row.scaled()
		slotEntries[row.Meal] = append(slotEntries[row.Meal], dto)
		slotFacts[row.Meal] = append(slotFacts[row.Meal], facts)
		all = append(all, facts)
	}

	meals := make([]slotDTO, 0, 6)
	for slot := models.Breakfast; slot <= models.EveningSnack; slot++ {
		entries := slotEntries[slot]
		if entries == nil {
			entries = []diaryEntryDTO{}
		}
		meals = append(meals, slotDTO{
			Meal:    int(slot),
			Name:    slot.Name(),
			Entries: entries,
			Total:   toTotalsDTO(nutrition.Sum(slotFacts[slot])),
		})
	}

	total := nutrition.Sum(all)
	writeJSON(w, http.StatusOK, dayResponse{
		Date:      date.Format(dateLayout),
		Meals:     meals,
		Total:     toTotalsDTO(total),
		Target:    toTotalsDTO(target),
		Remaining: toTotalsDTO(nutrition.Remaining(target, total)),
	})
}

func (h *DiaryHandler) dateAndSlot(w http.ResponseWriter, r *http.Request) (time.Time, models.MealSlot, bool) {
	date, err := parseDate(chi.URLParam(r, "date"))
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return time.Time{}, 0, false
	}
	n, err := strconv.Atoi(chi.URLParam(r, "slot"))
	slot := models.MealSlot(n)
	if err != nil || !slot.Valid() {
		http.Error(w, "invalid meal slot", http.StatusBadRequest)
		return time.Time{}, 0, false
	}
	return date, slot, true
}

// Slot returns a single meal slot for a date with its total.
func (h *DiaryHandler) Slot(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	date, slot, ok := h.dateAndSlot(w, r)
	if !ok {
		return
	}

	var rows []diaryRow
	err := h.db.Select(&rows, `SELECT `+diaryRowColumns+diaryRowFrom+`
		WHERE d.user_id=$1 AND d.date=$2 AND d.meal=$3 ORDER BY d.created_at`, userID, date, slot)
	if err != nil {
		http.Error(w, "could not fetch diary", http.StatusInternalServerError)
		return
	}

	entries := []diaryEntryDTO{}
	var facts []nutrition.Facts
	for _, row := range rows {
		dto, f := row.scaled()
		entries = append(entries, dto)
		facts = append(facts, f)
	}
	writeJSON(w, http.StatusOK, slotDTO{
		Meal:    int(slot),
		Name:    slot.Name(),
		Entries: entries,
		Total:   toTotalsDTO(nutrition.Sum(facts)),
	})
}

type addEntryRequest struct {
	FoodID   uuid.UUID `json:"food_id"`
	Quantity float64   `json:"quantity"`
}

// AddEntries bulk-inserts foods into a meal slot.
func (h *DiaryHandler) AddEntries(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	date, slot, ok := h.dateAndSlot(w, r)
	if !ok {
		return
	}

	var body []addEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body) == 0 {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	for _, item := range body {
		if item.Quantity <= 0 {
			writeFieldErrors(w, map[string]string{"quantity": "quantity must be greater than zero"})
			return
		}
	}

	tx, err := h.db.Beginx()
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	defer tx.Rollback()

	created := make([]models.DiaryEntry, 0, len(body))
	for _, item := range body {
		var entry models.DiaryEntry
		err := tx.QueryRowx(`INSERT INTO diary_entries (user_id, date, meal, food_id, quantity)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, user_id, date, meal, food_id, quantity, created_at, updated_at`,
			userID, date, slot, item.FoodID, item.Quantity).StructScan(&entry)
		if err != nil {
			writeFieldErrors(w, map[string]string{"food_id": "unknown food"})
			return
		}
		created = append(created, entry)
	}
	if err := tx.Commit(); err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type copiedResponse struct {
	Copied int64 `json:"copied"`
}

// CopyPreviousSlot copies the same meal slot from the previous day.
func (h *DiaryHandler) CopyPreviousSlot(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	date, slot, ok := h.dateAndSlot(w, r)
	if !ok {
		return
	}
	res, err := h.db.Exec(`INSERT INTO diary_entries (user_id, date, meal, food_id, quantity)
		SELECT user_id, $2, meal, food_id, quantity FROM diary_entries
		WHERE user_id=$1 AND date=$3 AND meal=$4`,
		userID, date, date.AddDate(0, 0, -1), slot)
	if err != nil {
		http.Error(w, "could not copy entries", http.StatusInternalServerError)
		return
	}
	n, _ := res.RowsAffected()
	writeJSON(w, http.StatusOK, copiedResponse{Copied: n})
}

// CopyPreviousDay copies every entry of the previous day onto this one,
// slot assignments preserved.
func (h *DiaryHandler) CopyPreviousDay(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	date, err := parseDate(chi.URLParam(r, "date"))
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	res, err := h.db.Exec(`INSERT INTO diary_entries (user_id, date, meal, food_id, quantity)
		SELECT user_id, $2, meal, food_id, quantity FROM diary_entries
		WHERE user_id=$1 AND date=$3`,
		userID, date, date.AddDate(0, 0, -1))
	if err != nil {
		http.Error(w, "could not copy entries", http.StatusInternalServerError)
		return
	}
	n, _ := res.RowsAffected()
	writeJSON(w, http.StatusOK, copiedResponse{Copied: n})
}

// AddMeal expands a saved meal into diary entries for the slot. The
// meal must belong to the requesting user.
func (h *DiaryHandler) AddMeal(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	date, slot, ok := h.dateAndSlot(w, r)
	if !ok {
		return
	}
	mealID, err := uuid.Parse(chi.URLParam(r, "mealID"))
	if err != nil {
		http.Error(w, "invalid meal id", http.StatusBadRequest)
		return
	}

	var owned bool
	err = h.db.Get(&owned, `SELECT EXISTS (SELECT 1 FROM meals WHERE id=$1 AND user_id=$2)`, mealID, userID)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	if !owned {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	res, err := h.db.Exec(`INSERT INTO diary_entries (user_id, date, meal, food_id, quantity)
		SELECT $1, $2, $3, food_id, quantity FROM meal_items WHERE meal_id=$4`,
		userID, date, slot, mealID)
	if err != nil {
		http.Error(w, "could not add meal", http.StatusInternalServerError)
		return
	}
	n, _ := res.RowsAffected()
	writeJSON(w, http.StatusCreated, copiedResponse{Copied: n})
}

type updateEntryRequest struct {
	Date     *string  `json:"date"`
	Meal     *int     `json:"meal"`
	Quantity *float64 `json:"quantity"`
}

// UpdateEntry changes an entry's date, slot or quantity.
func (h *DiaryHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	entryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid entry id", http.StatusBadRequest)
		return
	}
	var body updateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	var entry models.DiaryEntry
	err = h.db.Get(&entry, `SELECT id, user_id, date, meal, food_id, quantity, created_at, updated_at
		FROM diary_entries WHERE id=$1 AND user_id=$2`, entryID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	if body.Date != nil {
		date, err := parseDate(*body.Date)
		if err != nil {
			writeFieldErrors(w, map[string]string{"date": "invalid date"})
			return
		}
		entry.Date = date
	}
	if body.Meal != nil {
		slot := models.MealSlot(*body.Meal)
		if !slot.Valid() {
			writeFieldErrors(w, map[string]string{"meal": "meal slot must be between 1 and 6"})
			return
		}
		entry.Meal = slot
	}
	if body.Quantity != nil {
		if *body.Quantity <= 0 {
			writeFieldErrors(w, map[string]string{"quantity": "quantity must be greater than zero"})
			return
		}
		entry.Quantity = *body.Quantity
	}

	err = h.db.QueryRowx(`UPDATE diary_entries SET date=$1, meal=$2, quantity=$3, updated_at=NOW()
		WHERE id=$4 AND user_id=$5
		RETURNING id, user_id, date, meal, food_id, quantity, created_at, updated_at`,
		entry.Date, entry.Meal, entry.Quantity, entryID, userID).StructScan(&entry)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *DiaryHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	entryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid entry id", http.StatusBadRequest)
		return
	}
	res, err := h.db.Exec(`DELETE FROM diary_entries WHERE id=$1 AND user_id=$2`, entryID, userID)
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

type selectionRequest struct {
	EntryIDs []uuid.UUID `json:"entry_ids"`
}

// StageSelection stores a set of entry ids for later confirmed
// deletion. Every id must belong to the requesting user; the staged set
// replaces any previous one.
func (h *DiaryHandler) StageSelection(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	var body selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.EntryIDs) == 0 {
		writeFieldErrors(w, map[string]string{"entry_ids": "at least one entry id is required"})
		return
	}

	query, args, err := psql.Select("COUNT(*)").From("diary_entries").
		Where(sq.Eq{"id": body.EntryIDs, "user_id": userID}).ToSql()
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	var count int
	if err := h.db.Get(&count, query, args...); err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	if count != len(body.EntryIDs) {
		writeFieldErrors(w, map[string]string{"entry_ids": "one or more entries do not exist"})
		return
	}

	h.selections.Put(userID, body.EntryIDs)
	writeJSON(w, http.StatusOK, map[string]int{"staged": len(body.EntryIDs)})
}

// ReviewSelection returns the staged entries with scaled facts and a
// combined total, for a confirmation screen. Entries deleted since
// staging simply no longer appear.
func (h *DiaryHandler) ReviewSelection(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	ids := h.selections.Get(userID)
	entries := []diaryEntryDTO{}
	var facts []nutrition.Facts

	if len(ids) > 0 {
		query, args, err := psql.Select(diaryRowColumns).
			From("diary_entries d").
			Join("foods f ON f.id = d.food_id").
			Join("brands b ON b.id = f.brand_id").
			Where(sq.Eq{"d.id": ids, "d.user_id": userID}).
			OrderBy("d.date", "d.meal").ToSql()
		if err != nil {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		var rows []diaryRow
		if err := h.db.Select(&rows, query, args...); err != nil {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		for _, row := range rows {
			dto, f := row.scaled()
			entries = append(entries, dto)
			facts = append(facts, f)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"total":   toTotalsDTO(nutrition.Sum(facts)),
	})
}

// DeleteSelection removes the staged entries and clears the selection.
// Rows deleted by a concurrent request are skipped without error; the
// response reports how many were actually removed.
func (h *DiaryHandler) DeleteSelection(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	ids := h.selections.Pop(userID)
	if len(ids) == 0 {
		writeJSON(w, http.StatusOK, map[string]int64{"deleted": 0})
		return
	}

	query, args, err := psql.Delete("diary_entries").
		Where(sq.Eq{"id": ids, "user_id": userID}).ToSql()
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	res, err := h.db.Exec(query, args...)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	n, _ := res.RowsAffected()
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}
