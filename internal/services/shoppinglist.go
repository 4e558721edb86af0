package services

import (
	"context"
	"fmt"
	"strings"

	"recipeshare/internal/database"
	"recipeshare/internal/models"

	"go.opentelemetry.io/otel/attribute"
)

const shoppingListHeader = "Shopping list:"

type ShoppingListService struct{}

func NewShoppingListService() *ShoppingListService {
	return &ShoppingListService{}
}

type shoppingListItem struct {
	Name            string
	MeasurementUnit string
	Total           int
}

// Build aggregates the ingredient lines of every recipe in the user's
// shopping cart: grouped by (name, unit), amounts summed, one numbered line
// per group in first-encountered order. An empty cart yields the header
// alone.
func (s *ShoppingListService) Build(ctx context.Context, userID uint) (string, error) {
	ctx, span := tracer.Start(ctx, "shopping_list.build")
	defer span.End()

	span.SetAttributes(attribute.Int64("user.id", int64(userID)))

	var items []shoppingListItem
	err := database.DB.WithContext(ctx).
		Model(&models.RecipeIngredient{}).
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS total").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN shopping_carts ON shopping_carts.recipe_id = recipe_ingredients.recipe_id").
		Where("shopping_carts.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("MIN(recipe_ingredients.id)").
		Scan(&items).Error
	if err != nil {
		return "", err
	}

	span.SetAttributes(attribute.Int("shopping_list.items", len(items)))

	var b strings.Builder
	b.WriteString(shoppingListHeader)
	for i, item := range items {
		fmt.Fprintf(&b, "\n%d. %s - %d %s", i+1, item.Name, item.Total, item.MeasurementUnit)
	}
	return b.String(), nil
}
