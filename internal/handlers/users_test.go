package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"recipeshare/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func TestSubscribeCreated(t *testing.T) {
	setupTestDB(t)
	reader := createTestUser(t, "reader")
	author := createTestUser(t, "author")
	createTestRecipe(t, author, "cake")

	h := NewUserHandler(services.NewUserService())

	c, rec := newTestContext(http.MethodPost, "/api/users/2/subscribe", "")
	authenticate(c, reader.ID)
	setPathID(c, author.ID)

	require.NoError(t, h.Subscribe(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		ID           uint `json:"id"`
		IsSubscribed bool `json:"is_subscribed"`
		RecipesCount int  `json:"recipes_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, author.ID, body.ID)
	require.True(t, body.IsSubscribed)
	require.Equal(t, 1, body.RecipesCount)
}

func TestSubscribeSelfReturns400(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "solo")

	h := NewUserHandler(services.NewUserService())

	c, _ := newTestContext(http.MethodPost, "/api/users/1/subscribe", "")
	authenticate(c, user.ID)
	setPathID(c, user.ID)

	httpErr := requireHTTPError(t, h.Subscribe(c), http.StatusBadRequest)
	require.Equal(t, echo.Map{"errors": "cannot subscribe to yourself"}, httpErr.Message)
}

func TestSubscribeTwiceReturns400(t *testing.T) {
	setupTestDB(t)
	reader := createTestUser(t, "reader")
	author := createTestUser(t, "author")

	h := NewUserHandler(services.NewUserService())

	c, _ := newTestContext(http.MethodPost, "/api/users/2/subscribe", "")
	authenticate(c, reader.ID)
	setPathID(c, author.ID)
	require.NoError(t, h.Subscribe(c))

	c, _ = newTestContext(http.MethodPost, "/api/users/2/subscribe", "")
	authenticate(c, reader.ID)
	setPathID(c, author.ID)

	httpErr := requireHTTPError(t, h.Subscribe(c), http.StatusBadRequest)
	require.Equal(t, echo.Map{"errors": "already subscribed to this author"}, httpErr.Message)
}

func TestSubscribeUnknownAuthorReturns404(t *testing.T) {
	setupTestDB(t)
	reader := createTestUser(t, "reader")

	h := NewUserHandler(services.NewUserService())

	c, _ := newTestContext(http.MethodPost, "/api/users/999/subscribe", "")
	authenticate(c, reader.ID)
	setPathID(c, 999)

	requireHTTPError(t, h.Subscribe(c), http.StatusNotFound)
}

func TestUnsubscribeAbsentReturns400(t *testing.T) {
	setupTestDB(t)
	reader := createTestUser(t, "reader")
	author := createTestUser(t, "author")

	h := NewUserHandler(services.NewUserService())

	c, _ := newTestContext(http.MethodDelete, "/api/users/2/subscribe", "")
	authenticate(c, reader.ID)
	setPathID(c, author.ID)

	httpErr := requireHTTPError(t, h.Unsubscribe(c), http.StatusBadRequest)
	require.Equal(t, echo.Map{"errors": "not subscribed to this author"}, httpErr.Message)
}

func TestSubscribeUnauthorized(t *testing.T) {
	setupTestDB(t)

	h := NewUserHandler(services.NewUserService())

	c, _ := newTestContext(http.MethodPost, "/api/users/1/subscribe", "")
	setPathID(c, 1)

	requireHTTPError(t, h.Subscribe(c), http.StatusUnauthorized)
}

func TestGetUserProfile(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "alice")

	h := NewUserHandler(services.NewUserService())

	c, rec := newTestContext(http.MethodGet, "/api/users/1", "")
	setPathID(c, user.ID)

	require.NoError(t, h.Get(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		User struct {
			Username     string `json:"username"`
			IsSubscribed bool   `json:"is_subscribed"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "alice", body.User.Username)
	require.False(t, body.User.IsSubscribed)
}

func TestGetUserNotFound(t *testing.T) {
	setupTestDB(t)

	h := NewUserHandler(services.NewUserService())

	c, _ := newTestContext(http.MethodGet, "/api/users/999", "")
	setPathID(c, 999)

	requireHTTPError(t, h.Get(c), http.StatusNotFound)
}
