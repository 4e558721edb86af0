package services

import (
	"context"
	"errors"
	"strings"

	"recipeshare/internal/database"
	"recipeshare/internal/models"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

var (
	ErrTagNotFound        = errors.New("tag not found")
	ErrIngredientNotFound = errors.New("ingredient not found")
)

// Tags and ingredients are static reference data loaded out of band; both
// services are read-only.

type TagService struct{}

func NewTagService() *TagService {
	return &TagService{}
}

func (s *TagService) List(ctx context.Context) ([]models.Tag, error) {
	ctx, span := tracer.Start(ctx, "tag.list")
	defer span.End()

	var tags []models.Tag
	if err := database.DB.WithContext(ctx).Order("id").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (s *TagService) GetByID(ctx context.Context, tagID uint) (*models.Tag, error) {
	ctx, span := tracer.Start(ctx, "tag.get_by_id")
	defer span.End()

	var tag models.Tag
	if err := database.DB.WithContext(ctx).First(&tag, tagID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}
	return &tag, nil
}

type IngredientService struct{}

func NewIngredientService() *IngredientService {
	return &IngredientService{}
}

// Search matches name as a case-insensitive substring. An empty fragment
// returns everything; results come back in insertion (id) order.
func (s *IngredientService) Search(ctx context.Context, name string) ([]models.Ingredient, error) {
	ctx, span := tracer.Start(ctx, "ingredient.search")
	defer span.End()

	span.SetAttributes(attribute.String("search.name", name))

	query := database.DB.WithContext(ctx).Order("id")
	if name != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}

	var ingredients []models.Ingredient
	if err := query.Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}

func (s *IngredientService) GetByID(ctx context.Context, ingredientID uint) (*models.Ingredient, error) {
	ctx, span := tracer.Start(ctx, "ingredient.get_by_id")
	defer span.End()

	var ingredient models.Ingredient
	if err := database.DB.WithContext(ctx).First(&ingredient, ingredientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIngredientNotFound
		}
		return nil, err
	}
	return &ingredient, nil
}
