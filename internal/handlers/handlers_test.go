package handlers

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"recipeshare/internal/database"
	"recipeshare/internal/middleware"
	"recipeshare/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	database.DB = db
	require.NoError(t, database.Migrate())
}

func createTestUser(t *testing.T, username string) *models.User {
	t.Helper()

	user := &models.User{
		Email:        username + "@example.com",
		Username:     username,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: "x",
	}
	require.NoError(t, database.DB.Create(user).Error)
	return user
}

func createTestRecipe(t *testing.T, author *models.User, name string) *models.Recipe {
	t.Helper()

	recipe := &models.Recipe{
		AuthorID:    author.ID,
		Name:        name,
		Image:       "recipes/images/" + name + ".png",
		Text:        "text for " + name,
		CookingTime: 4,
	}
	require.NoError(t, database.DB.Create(recipe).Error)
	return recipe
}

// newTestContext builds an echo context the way the router would, with an
// optional JSON body.
func newTestContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// authenticate mimics what the JWT middleware sets after a valid token.
func authenticate(c echo.Context, userID uint) {
	c.Set(string(middleware.UserIDKey), userID)
}

func setPathID(c echo.Context, id uint) {
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatUint(uint64(id), 10))
}

func requireHTTPError(t *testing.T, err error, code int) *echo.HTTPError {
	t.Helper()

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, code, httpErr.Code)
	return httpErr
}
