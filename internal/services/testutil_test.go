package services

import (
	"context"
	"testing"

	"recipeshare/internal/database"
	"recipeshare/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB points the package-global gorm handle at a fresh in-memory
// sqlite database. Single connection, so the memory database survives for
// the whole test.
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

func createTestAdmin(t *testing.T, username string) *models.User {
	t.Helper()

	user := createTestUser(t, username)
	require.NoError(t, database.DB.Model(user).Update("is_admin", true).Error)
	user.IsAdmin = true
	return user
}

func createTestTag(t *testing.T, name, slug string) *models.Tag {
	t.Helper()

	tag := &models.Tag{Name: name, Color: "#6AA84F", Slug: slug}
	require.NoError(t, database.DB.Create(tag).Error)
	return tag
}

func createTestIngredient(t *testing.T, name, unit string) *models.Ingredient {
	t.Helper()

	ingredient := &models.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(t, database.DB.Create(ingredient).Error)
	return ingredient
}

type testIngredientAmount struct {
	ingredient *models.Ingredient
	amount     int
}

func createTestRecipe(t *testing.T, author *models.User, name string, tags []*models.Tag, ingredients ...testIngredientAmount) *models.Recipe {
	t.Helper()

	recipe := &models.Recipe{
		AuthorID:    author.ID,
		Name:        name,
		Image:       "recipes/images/" + name + ".png",
		Text:        "text for " + name,
		CookingTime: 4,
	}
	for _, tag := range tags {
		recipe.Tags = append(recipe.Tags, *tag)
	}
	for _, ia := range ingredients {
		recipe.Ingredients = append(recipe.Ingredients, models.RecipeIngredient{
			IngredientID: ia.ingredient.ID,
			Amount:       ia.amount,
		})
	}
	require.NoError(t, database.DB.Create(recipe).Error)
	return recipe
}

func testCtx() context.Context {
	return context.Background()
}
