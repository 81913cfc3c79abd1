package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutridiary/internal/middleware"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func authedRequest(method, target, body string, userID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	return req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, userID))
}

var profileCols = []string{
	"id", "user_id", "sex", "height_cm", "weight_kg", "date_of_birth", "activity_level",
	"goal_weight_kg", "goal", "calculation_method", "energy", "fat", "saturates",
	"carbohydrate", "sugars", "fibre", "protein", "salt", "protein_pct", "carbohydrate_pct",
	"fat_pct", "calories_per_kg", "protein_per_kg", "carbohydrate_per_kg", "fat_per_kg",
	"created_at", "updated_at",
}

// profileRow builds a default-target profile row; weight is nil or a
// float64.
func profileRow(userID uuid.UUID, weight any) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(profileCols).AddRow(
		uuid.New().String(), userID.String(), nil, nil, weight, nil, nil,
		nil, nil, nil, 2000, 70.0, 20.0,
		260.0, 90.0, 30.0, 50.0, 6.0, nil, nil,
		nil, nil, nil, nil, nil,
		now, now,
	)
}

func TestUpdateMeWeightChangeMirrorsIntoProgress(t *testing.T) {
	db, mock := newMockDB(t)
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM profiles WHERE user_id=\$1 FOR UPDATE`).
		WillReturnRows(profileRow(userID, 70.0))
	mock.ExpectExec(`UPDATE profiles SET sex=`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO progress_entries`).
		WithArgs(userID, sqlmock.AnyArg(), 65.5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec := httptest.NewRecorder()
	NewProfileHandler(db).UpdateMe(rec, authedRequest(http.MethodPut, "/api/profile", `{"weight_kg": 65.5}`, userID))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMeUnchangedWeightSkipsProgress(t *testing.T) {
	db, mock := newMockDB(t)
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM profiles WHERE user_id=\$1 FOR UPDATE`).
		WillReturnRows(profileRow(userID, 70.0))
	mock.ExpectExec(`UPDATE profiles SET sex=`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec := httptest.NewRecorder()
	NewProfileHandler(db).UpdateMe(rec, authedRequest(http.MethodPut, "/api/profile", `{"weight_kg": 70}`, userID))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMeFirstWeightCreatesProgressRow(t *testing.T) {
	db, mock := newMockDB(t)
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM profiles WHERE user_id=\$1 FOR UPDATE`).
		WillReturnRows(profileRow(userID, nil))
	mock.ExpectExec(`UPDATE profiles SET sex=`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO progress_entries`).
		WithArgs(userID, sqlmock.AnyArg(), 82.0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	rec := httptest.NewRecorder()
	NewProfileHandler(db).UpdateMe(rec, authedRequest(http.MethodPut, "/api/profile", `{"weight_kg": 82}`, userID))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMeRejectsNonPositiveWeight(t *testing.T) {
	db, mock := newMockDB(t)
	userID := uuid.New()

	rec := httptest.NewRecorder()
	NewProfileHandler(db).UpdateMe(rec, authedRequest(http.MethodPut, "/api/profile", `{"weight_kg": 0}`, userID))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "weight_kg")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMeRejectsFutureDateOfBirth(t *testing.T) {
	db, mock := newMockDB(t)
	userID := uuid.New()

	future := time.Now().AddDate(1, 0, 0).Format("2006-01-02")
	rec := httptest.NewRecorder()
	NewProfileHandler(db).UpdateMe(rec, authedRequest(http.MethodPut, "/api/profile",
		`{"date_of_birth": "`+future+`"}`, userID))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "date_of_birth")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetRecommendedTargetIncompleteProfile(t *testing.T) {
	db, mock := newMockDB(t)
	userID := uuid.New()

	// Weight present but no sex/height/dob: the recommended strategy
	// needs the full BMR chain.
	mock.ExpectQuery(`FROM profiles WHERE user_id=\$1`).
		WillReturnRows(profileRow(userID, 70.0))

	rec := httptest.NewRecorder()
	NewProfileHandler(db).SetRecommendedTarget(rec,
		authedRequest(http.MethodPost, "/api/profile/target/recommended", "", userID))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "profile")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetGramsTargetRequiresWeight(t *testing.T) {
	db, mock := newMockDB(t)
	userID := uuid.New()

	mock.ExpectQuery(`FROM profiles WHERE user_id=\$1`).
		WillReturnRows(profileRow(userID, nil))

	rec := httptest.NewRecorder()
	NewProfileHandler(db).SetGramsTarget(rec, authedRequest(http.MethodPost,
		"/api/profile/target/grams", `{"protein_per_kg": 2, "carbohydrate_per_kg": 3, "fat_per_kg": 1}`, userID))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "weight_kg")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetPercentTargetPersistsDerivedFields(t *testing.T) {
	db, mock := newMockDB(t)
	userID := uuid.New()

	mock.ExpectQuery(`FROM profiles WHERE user_id=\$1`).
		WillReturnRows(profileRow(userID, 80.0))
	mock.ExpectExec(`UPDATE profiles SET calculation_method=`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := httptest.NewRecorder()
	NewProfileHandler(db).SetPercentTarget(rec, authedRequest(http.MethodPost,
		"/api/profile/target/percent",
		`{"calories": 2000, "protein_pct": 30, "carbohydrate_pct": 45, "fat_pct": 25}`, userID))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"calculation_method":"PER"`)
	assert.Contains(t, rec.Body.String(), `"energy":2000`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetPercentTargetRejectsBadSplit(t *testing.T) {
	db, mock := newMockDB(t)
	userID := uuid.New()

	rec := httptest.NewRecorder()
	NewProfileHandler(db).SetPercentTarget(rec, authedRequest(http.MethodPost,
		"/api/profile/target/percent",
		`{"calories": 2000, "protein_pct": 30, "carbohydrate_pct": 45, "fat_pct": 30}`, userID))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
