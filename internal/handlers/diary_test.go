package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutridiary/internal/session"
)

func withURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func selectionBody(ids []uuid.UUID) string {
	body := map[string][]uuid.UUID{"entry_ids": ids}
	b, _ := json.Marshal(body)
	return string(b)
}

func TestStageSelectionRejectsForeignEntries(t *testing.T) {
	db, mock := newMockDB(t)
	userID := uuid.New()
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	// Only one of the two staged ids belongs to this user.
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM diary_entries`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	selections := session.NewStore(time.Minute)
	rec := httptest.NewRecorder()
	NewDiaryHandler(db, selections).StageSelection(rec,
		authedRequest(http.MethodPost, "/api/diary/selection", selectionBody(ids), userID))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, selections.Get(userID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStageSelectionStoresOwnedEntries(t *testing.T) {
	db, mock := newMockDB(t)
	userID := uuid.New()
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM diary_entries`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	selections := session.NewStore(time.Minute)
	rec := httptest.NewRecorder()
	NewDiaryHandler(db, selections).StageSelection(rec,
		authedRequest(http.MethodPost, "/api/diary/selection", selectionBody(ids), userID))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ids, selections.Get(userID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A row deleted between staging and confirmation is skipped without
// surfacing an error; the response counts what was actually removed.
func TestDeleteSelectionToleratesConcurrentDeletes(t *testing.T) {
	db, mock := newMockDB(t)
	userID := uuid.New()
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	mock.ExpectExec(`DELETE FROM diary_entries`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	selections := session.NewStore(time.Minute)
	selections.Put(userID, ids)
	rec := httptest.NewRecorder()
	NewDiaryHandler(db, selections).DeleteSelection(rec,
		authedRequest(http.MethodPost, "/api/diary/selection/delete", "", userID))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deleted":2`)
	assert.Nil(t, selections.Get(userID), "selection should be cleared after confirmation")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSelectionWithNothingStaged(t *testing.T) {
	db, mock := newMockDB(t)
	userID := uuid.New()

	selections := session.NewStore(time.Minute)
	rec := httptest.NewRecorder()
	NewDiaryHandler(db, selections).DeleteSelection(rec,
		authedRequest(http.MethodPost, "/api/diary/selection/delete", "", userID))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deleted":0`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddEntriesRejectsNonPositiveQuantity(t *testing.T) {
	db, mock := newMockDB(t)
	userID := uuid.New()

	body := fmt.Sprintf(`[{"food_id": "%s", "quantity": 0}]`, uuid.New())
	req := authedRequest(http.MethodPost, "/api/diary/2026-09-01/meal/3", body, userID)
	req = withURLParams(req, map[string]string{"date": "2026-09-01", "slot": "3"})

	rec := httptest.NewRecorder()
	NewDiaryHandler(db, session.NewStore(time.Minute)).AddEntries(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "quantity")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddEntriesRejectsBadSlot(t *testing.T) {
	db, mock := newMockDB(t)
	userID := uuid.New()

	body := fmt.Sprintf(`[{"food_id": "%s", "quantity": 1}]`, uuid.New())
	req := authedRequest(http.MethodPost, "/api/diary/2026-09-01/meal/7", body, userID)
	req = withURLParams(req, map[string]string{"date": "2026-09-01", "slot": "7"})

	rec := httptest.NewRecorder()
	NewDiaryHandler(db, session.NewStore(time.Minute)).AddEntries(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
