package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"recipeshare/internal/services"

	"github.com/stretchr/testify/require"
)

func newTestAuthHandler() *AuthHandler {
	return NewAuthHandler(
		services.NewAuthService("test-secret", time.Hour),
		services.NewUserService(),
	)
}

func TestRegisterEndpoint(t *testing.T) {
	setupTestDB(t)
	h := newTestAuthHandler()

	c, rec := newTestContext(http.MethodPost, "/api/users",
		`{"email":"vasya@example.com","username":"vasya","first_name":"Вася","last_name":"Пупкин","password":"correct-horse"}`)

	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		User struct {
			ID       uint   `json:"id"`
			Email    string `json:"email"`
			Username string `json:"username"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotZero(t, body.User.ID)
	require.Equal(t, "vasya", body.User.Username)
	// the password hash never leaves the server
	require.NotContains(t, rec.Body.String(), "password")
}

func TestRegisterEndpointFieldErrors(t *testing.T) {
	setupTestDB(t)
	h := newTestAuthHandler()

	c, _ := newTestContext(http.MethodPost, "/api/users", `{"email":"a@example.com"}`)

	httpErr := requireHTTPError(t, h.Register(c), http.StatusBadRequest)
	fieldErrs, ok := httpErr.Message.(services.FieldErrors)
	require.True(t, ok)
	require.Contains(t, fieldErrs, "username")
	require.Contains(t, fieldErrs, "password")
}

func TestLoginEndpoint(t *testing.T) {
	setupTestDB(t)
	h := newTestAuthHandler()

	c, _ := newTestContext(http.MethodPost, "/api/users",
		`{"email":"vasya@example.com","username":"vasya","first_name":"Вася","last_name":"Пупкин","password":"correct-horse"}`)
	require.NoError(t, h.Register(c))

	c, rec := newTestContext(http.MethodPost, "/api/auth/login",
		`{"email":"vasya@example.com","password":"correct-horse"}`)
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)
}

func TestLoginEndpointBadCredentials(t *testing.T) {
	setupTestDB(t)
	h := newTestAuthHandler()

	c, _ := newTestContext(http.MethodPost, "/api/auth/login",
		`{"email":"nobody@example.com","password":"wrong"}`)

	requireHTTPError(t, h.Login(c), http.StatusUnauthorized)
}

func TestLoginEndpointMissingFields(t *testing.T) {
	setupTestDB(t)
	h := newTestAuthHandler()

	c, _ := newTestContext(http.MethodPost, "/api/auth/login", `{"email":"a@example.com"}`)

	requireHTTPError(t, h.Login(c), http.StatusBadRequest)
}

func TestMeUnauthorized(t *testing.T) {
	setupTestDB(t)
	h := newTestAuthHandler()

	c, _ := newTestContext(http.MethodGet, "/api/users/me", "")

	requireHTTPError(t, h.Me(c), http.StatusUnauthorized)
}

func TestMeReturnsCurrentUser(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "alice")
	h := newTestAuthHandler()

	c, rec := newTestContext(http.MethodGet, "/api/users/me", "")
	authenticate(c, user.ID)

	require.NoError(t, h.Me(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		User struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "alice", body.User.Username)
}
