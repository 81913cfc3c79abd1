package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testSecret = []byte("test-secret")

func TestSignupCreatesUserAndProfileTogether(t *testing.T) {
	db, mock := newMockDB(t)
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "created_at"}).
			AddRow(userID.String(), "jo@example.com", "hash", nil, time.Now()))
	mock.ExpectExec(`INSERT INTO profiles \(user_id\) VALUES \(\$1\)`).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup",
		strings.NewReader(`{"email": "Jo@Example.com", "password": "hunter22"}`))
	NewAuthHandler(db, testSecret).Signup(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	token, err := jwt.Parse(resp["token"], func(*jwt.Token) (interface{}, error) { return testSecret, nil })
	require.NoError(t, err)
	sub, err := token.Claims.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, userID.String(), sub)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignupRequiresCredentials(t *testing.T) {
	db, mock := newMockDB(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup",
		strings.NewReader(`{"email": "", "password": ""}`))
	NewAuthHandler(db, testSecret).Signup(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginWrongPassword(t *testing.T) {
	db, mock := newMockDB(t)
	hashed, err := bcrypt.GenerateFromPassword([]byte("right-password"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery(`FROM users WHERE email=\$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "created_at"}).
			AddRow(uuid.New().String(), "jo@example.com", string(hashed), nil, time.Now()))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email": "jo@example.com", "password": "wrong-password"}`))
	NewAuthHandler(db, testSecret).Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginUnknownEmail(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`FROM users WHERE email=\$1`).
		WillReturnError(sql.ErrNoRows)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email": "nobody@example.com", "password": "x"}`))
	NewAuthHandler(db, testSecret).Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
