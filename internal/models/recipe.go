package models

import (
	"time"
)

type Recipe struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AuthorID    uint      `gorm:"not null;index" json:"author_id"`
	Name        string    `gorm:"not null" json:"name"`
	Image       string    `json:"image,omitempty"`
	Text        string    `gorm:"type:text" json:"text"`
	CookingTime int       `gorm:"not null" json:"cooking_time"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Author      User               `gorm:"foreignKey:AuthorID" json:"-"`
	Tags        []Tag              `gorm:"many2many:recipe_tags" json:"-"`
	Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID" json:"-"`
}

// RecipeIngredient is one line of a recipe's ingredient list: an ingredient
// reference plus the amount used.
type RecipeIngredient struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	RecipeID     uint `gorm:"not null;index" json:"recipe_id"`
	IngredientID uint `gorm:"not null" json:"ingredient_id"`
	Amount       int  `gorm:"not null" json:"amount"`

	Ingredient Ingredient `gorm:"foreignKey:IngredientID" json:"-"`
}

type RecipeIngredientResponse struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

func (ri *RecipeIngredient) ToResponse() RecipeIngredientResponse {
	return RecipeIngredientResponse{
		ID:              ri.IngredientID,
		Name:            ri.Ingredient.Name,
		MeasurementUnit: ri.Ingredient.MeasurementUnit,
		Amount:          ri.Amount,
	}
}

type RecipeResponse struct {
	ID               uint                       `json:"id"`
	Tags             []Tag                      `json:"tags"`
	Author           UserResponse               `json:"author"`
	Ingredients      []RecipeIngredientResponse `json:"ingredients"`
	IsFavorited      bool                       `json:"is_favorited"`
	IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	Name             string                     `json:"name"`
	Image            *string                    `json:"image"`
	Text             string                     `json:"text"`
	CookingTime      int                        `json:"cooking_time"`
	CreatedAt        time.Time                  `json:"created_at"`
}

// ToResponse renders the recipe for a given viewer. The three flags are
// derived relative to that viewer and are always false for anonymous ones.
func (r *Recipe) ToResponse(favorited, inCart, subscribed bool) RecipeResponse {
	ingredients := make([]RecipeIngredientResponse, len(r.Ingredients))
	for i, ri := range r.Ingredients {
		ingredients[i] = ri.ToResponse()
	}

	tags := r.Tags
	if tags == nil {
		tags = []Tag{}
	}

	return RecipeResponse{
		ID:               r.ID,
		Tags:             tags,
		Author:           r.Author.ToResponse(subscribed),
		Ingredients:      ingredients,
		IsFavorited:      favorited,
		IsInShoppingCart: inCart,
		Name:             r.Name,
		Image:            imageRef(r.Image),
		Text:             r.Text,
		CookingTime:      r.CookingTime,
		CreatedAt:        r.CreatedAt,
	}
}

// RecipeSummary is the short representation returned by the membership
// toggles and embedded in subscription listings.
type RecipeSummary struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Image       *string `json:"image"`
	CookingTime int     `json:"cooking_time"`
}

func (r *Recipe) ToSummary() RecipeSummary {
	return RecipeSummary{
		ID:          r.ID,
		Name:        r.Name,
		Image:       imageRef(r.Image),
		CookingTime: r.CookingTime,
	}
}

func imageRef(image string) *string {
	if image == "" {
		return nil
	}
	return &image
}

type RecipesResponse struct {
	Recipes    []RecipeResponse `json:"recipes"`
	TotalCount int64            `json:"total_count"`
	Page       int              `json:"page"`
	PerPage    int              `json:"per_page"`
}
