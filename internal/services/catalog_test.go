package services

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTagList(t *testing.T) {
	setupTestDB(t)
	breakfast := createTestTag(t, "Breakfast", "breakfast")
	dinner := createTestTag(t, "Dinner", "dinner")

	svc := NewTagService()

	tags, err := svc.List(testCtx())
	require.NoError(t, err)
	require.Len(t, tags, 2)
	require.Equal(t, breakfast.ID, tags[0].ID)
	require.Equal(t, dinner.ID, tags[1].ID)
}

func TestTagGetByID(t *testing.T) {
	setupTestDB(t)
	tag := createTestTag(t, "Breakfast", "breakfast")

	svc := NewTagService()

	found, err := svc.GetByID(testCtx(), tag.ID)
	require.NoError(t, err)
	require.Equal(t, "breakfast", found.Slug)

	_, err = svc.GetByID(testCtx(), 999)
	require.ErrorIs(t, err, ErrTagNotFound)
}

func TestIngredientSearchCaseInsensitive(t *testing.T) {
	setupTestDB(t)
	createTestIngredient(t, "Test Pepper", "г")
	createTestIngredient(t, "contest winner sauce", "мл")
	createTestIngredient(t, "соль", "г")

	svc := NewIngredientService()

	lower, err := svc.Search(testCtx(), "test")
	require.NoError(t, err)
	upper, err := svc.Search(testCtx(), "TEST")
	require.NoError(t, err)

	require.Len(t, lower, 2)
	require.Equal(t, lower, upper)
}

func TestIngredientSearchSubstring(t *testing.T) {
	setupTestDB(t)
	first := createTestIngredient(t, "ингредиент 1", "шт.")
	second := createTestIngredient(t, "ингредиент 2", "г")
	createTestIngredient(t, "соль", "г")

	svc := NewIngredientService()

	// interior fragment matches, not just a prefix
	found, err := svc.Search(testCtx(), "диент")
	require.NoError(t, err)
	require.Len(t, found, 2)
	require.Equal(t, first.ID, found[0].ID)
	require.Equal(t, second.ID, found[1].ID)
}

func TestIngredientSearchEmptyReturnsAll(t *testing.T) {
	setupTestDB(t)
	createTestIngredient(t, "соль", "г")
	createTestIngredient(t, "перец", "г")

	svc := NewIngredientService()

	found, err := svc.Search(testCtx(), "")
	require.NoError(t, err)
	require.Len(t, found, 2)
}

func TestIngredientSearchNoMatch(t *testing.T) {
	setupTestDB(t)
	createTestIngredient(t, "соль", "г")

	svc := NewIngredientService()

	found, err := svc.Search(testCtx(), "шоколад")
	require.NoError(t, err)
	require.Empty(t, found)
}

func TestIngredientGetByID(t *testing.T) {
	setupTestDB(t)
	salt := createTestIngredient(t, "соль", "г")

	svc := NewIngredientService()

	found, err := svc.GetByID(testCtx(), salt.ID)
	require.NoError(t, err)
	require.Equal(t, "соль", found.Name)
	require.Equal(t, "г", found.MeasurementUnit)

	_, err = svc.GetByID(testCtx(), 999)
	require.ErrorIs(t, err, ErrIngredientNotFound)
}
