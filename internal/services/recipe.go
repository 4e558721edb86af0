package services

import (
	"context"
	"errors"

	"recipeshare/internal/database"
	"recipeshare/internal/logging"
	"recipeshare/internal/models"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"gorm.io/gorm"
)

var (
	ErrRecipeNotFound  = errors.New("recipe not found")
	ErrNotRecipeAuthor = errors.New("not the author of this recipe")
)

var recipesCreatedCounter metric.Int64Counter

type RecipeService struct{}

func NewRecipeService() *RecipeService {
	var err error
	recipesCreatedCounter, err = meter.Int64Counter(
		"recipes.created",
		metric.WithDescription("Total number of recipes created"),
	)
	if err != nil {
		logging.Logger().Error().Err(err).Msg("failed to create recipes counter")
	}

	return &RecipeService{}
}

type RecipeIngredientInput struct {
	ID     uint `json:"id"`
	Amount int  `json:"amount"`
}

type CreateRecipeInput struct {
	Name        string                  `json:"name"`
	Image       string                  `json:"image"`
	Text        string                  `json:"text"`
	CookingTime int                     `json:"cooking_time"`
	Tags        []uint                  `json:"tags"`
	Ingredients []RecipeIngredientInput `json:"ingredients"`
}

type UpdateRecipeInput struct {
	Name        *string                  `json:"name"`
	Image       *string                  `json:"image"`
	Text        *string                  `json:"text"`
	CookingTime *int                     `json:"cooking_time"`
	Tags        *[]uint                  `json:"tags"`
	Ingredients *[]RecipeIngredientInput `json:"ingredients"`
}

// ListRecipesInput carries the composable filters of the recipe listing.
// The flag filters only apply to authenticated viewers; handlers leave them
// false otherwise.
type ListRecipesInput struct {
	Page      int
	PerPage   int
	AuthorID  uint
	TagSlugs  []string
	Favorited bool
	InCart    bool
}

func (s *RecipeService) Create(ctx context.Context, authorID uint, input CreateRecipeInput) (*models.Recipe, error) {
	ctx, span := tracer.Start(ctx, "recipe.create")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("author.id", int64(authorID)),
		attribute.String("recipe.name", input.Name),
	)

	fieldErrs := FieldErrors{}
	if input.Name == "" {
		fieldErrs.add("name", "this field is required")
	}
	if input.Text == "" {
		fieldErrs.add("text", "this field is required")
	}
	if input.Image == "" {
		fieldErrs.add("image", "this field is required")
	}
	validateCookingTime(fieldErrs, input.CookingTime)

	tags, err := s.resolveTags(ctx, fieldErrs, input.Tags)
	if err != nil {
		return nil, err
	}
	rows, err := s.resolveIngredients(ctx, fieldErrs, input.Ingredients)
	if err != nil {
		return nil, err
	}
	if len(fieldErrs) > 0 {
		return nil, fieldErrs
	}

	recipe := models.Recipe{
		AuthorID:    authorID,
		Name:        input.Name,
		Image:       input.Image,
		Text:        input.Text,
		CookingTime: input.CookingTime,
		Tags:        tags,
		Ingredients: rows,
	}

	if err := database.DB.WithContext(ctx).Create(&recipe).Error; err != nil {
		return nil, err
	}

	reloaded, err := s.GetByID(ctx, recipe.ID)
	if err != nil {
		return nil, err
	}

	if recipesCreatedCounter != nil {
		recipesCreatedCounter.Add(ctx, 1)
	}

	span.SetAttributes(attribute.Int64("recipe.id", int64(recipe.ID)))

	logging.Info(ctx).
		Uint("recipe_id", recipe.ID).
		Uint("author_id", authorID).
		Msg("recipe created")

	return reloaded, nil
}

func (s *RecipeService) GetByID(ctx context.Context, recipeID uint) (*models.Recipe, error) {
	ctx, span := tracer.Start(ctx, "recipe.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.Int64("recipe.id", int64(recipeID)))

	var recipe models.Recipe
	if err := database.DB.WithContext(ctx).
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		First(&recipe, recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}

	return &recipe, nil
}

// List applies the composed filters and renders each recipe relative to the
// viewer. The derived-flag lookups are batched: one query per relation for
// the whole page, not one per row.
func (s *RecipeService) List(ctx context.Context, viewerID *uint, input ListRecipesInput) (*models.RecipesResponse, error) {
	ctx, span := tracer.Start(ctx, "recipe.list")
	defer span.End()

	page, perPage := normalizePage(input.Page, input.PerPage)

	span.SetAttributes(
		attribute.Int("pagination.page", page),
		attribute.Int("pagination.per_page", perPage),
	)

	query := database.DB.WithContext(ctx).Model(&models.Recipe{})

	if input.AuthorID != 0 {
		query = query.Where("author_id = ?", input.AuthorID)
		span.SetAttributes(attribute.Int64("filter.author_id", int64(input.AuthorID)))
	}

	if len(input.TagSlugs) > 0 {
		// OR across slugs: any matching tag qualifies the recipe.
		tagged := database.DB.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", input.TagSlugs)
		query = query.Where("recipes.id IN (?)", tagged)
		span.SetAttributes(attribute.StringSlice("filter.tags", input.TagSlugs))
	}

	if viewerID != nil && input.Favorited {
		favorited := database.DB.Model(&models.Favorite{}).
			Select("recipe_id").
			Where("user_id = ?", *viewerID)
		query = query.Where("recipes.id IN (?)", favorited)
	}

	if viewerID != nil && input.InCart {
		inCart := database.DB.Model(&models.ShoppingCart{}).
			Select("recipe_id").
			Where("user_id = ?", *viewerID)
		query = query.Where("recipes.id IN (?)", inCart)
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return nil, err
	}

	var recipes []models.Recipe
	if err := query.
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		Order("created_at DESC, id DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&recipes).Error; err != nil {
		return nil, err
	}

	flags, err := s.viewerFlagMaps(ctx, viewerID, recipes)
	if err != nil {
		return nil, err
	}

	responses := make([]models.RecipeResponse, len(recipes))
	for i, recipe := range recipes {
		responses[i] = recipe.ToResponse(
			flags.favorited[recipe.ID],
			flags.inCart[recipe.ID],
			flags.subscribed[recipe.AuthorID],
		)
	}

	span.SetAttributes(
		attribute.Int64("result.total_count", totalCount),
		attribute.Int("result.count", len(recipes)),
	)

	return &models.RecipesResponse{
		Recipes:    responses,
		TotalCount: totalCount,
		Page:       page,
		PerPage:    perPage,
	}, nil
}

type recipeFlagMaps struct {
	favorited  map[uint]bool
	inCart     map[uint]bool
	subscribed map[uint]bool
}

func (s *RecipeService) viewerFlagMaps(ctx context.Context, viewerID *uint, recipes []models.Recipe) (recipeFlagMaps, error) {
	flags := recipeFlagMaps{
		favorited:  map[uint]bool{},
		inCart:     map[uint]bool{},
		subscribed: map[uint]bool{},
	}
	if viewerID == nil || len(recipes) == 0 {
		return flags, nil
	}

	recipeIDs := make([]uint, len(recipes))
	authorIDs := make([]uint, 0, len(recipes))
	seenAuthors := map[uint]bool{}
	for i, r := range recipes {
		recipeIDs[i] = r.ID
		if !seenAuthors[r.AuthorID] {
			seenAuthors[r.AuthorID] = true
			authorIDs = append(authorIDs, r.AuthorID)
		}
	}

	var favorites []models.Favorite
	if err := database.DB.WithContext(ctx).
		Where("user_id = ? AND recipe_id IN ?", *viewerID, recipeIDs).
		Find(&favorites).Error; err != nil {
		return flags, err
	}
	for _, f := range favorites {
		flags.favorited[f.RecipeID] = true
	}

	var carts []models.ShoppingCart
	if err := database.DB.WithContext(ctx).
		Where("user_id = ? AND recipe_id IN ?", *viewerID, recipeIDs).
		Find(&carts).Error; err != nil {
		return flags, err
	}
	for _, c := range carts {
		flags.inCart[c.RecipeID] = true
	}

	var subs []models.Subscription
	if err := database.DB.WithContext(ctx).
		Where("user_id = ? AND author_id IN ?", *viewerID, authorIDs).
		Find(&subs).Error; err != nil {
		return flags, err
	}
	for _, sub := range subs {
		flags.subscribed[sub.AuthorID] = true
	}

	return flags, nil
}

// ViewerFlags resolves the three derived flags for a single recipe.
func (s *RecipeService) ViewerFlags(ctx context.Context, viewerID *uint, recipe *models.Recipe) (favorited, inCart, subscribed bool) {
	if viewerID == nil {
		return false, false, false
	}
	favorited = pairExists[models.Favorite](ctx, *viewerID, "recipe_id", recipe.ID)
	inCart = pairExists[models.ShoppingCart](ctx, *viewerID, "recipe_id", recipe.ID)
	subscribed = pairExists[models.Subscription](ctx, *viewerID, "author_id", recipe.AuthorID)
	return favorited, inCart, subscribed
}

func (s *RecipeService) Update(ctx context.Context, recipeID, userID uint, input UpdateRecipeInput) (*models.Recipe, error) {
	ctx, span := tracer.Start(ctx, "recipe.update")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("recipe.id", int64(recipeID)),
		attribute.Int64("user.id", int64(userID)),
	)

	recipe, err := s.GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	if err := s.checkWriteAccess(ctx, recipe, userID); err != nil {
		return nil, err
	}

	fieldErrs := FieldErrors{}
	updates := map[string]interface{}{}
	if input.Name != nil {
		if *input.Name == "" {
			fieldErrs.add("name", "this field may not be blank")
		}
		updates["name"] = *input.Name
	}
	if input.Image != nil {
		if *input.Image == "" {
			fieldErrs.add("image", "this field may not be blank")
		}
		updates["image"] = *input.Image
	}
	if input.Text != nil {
		if *input.Text == "" {
			fieldErrs.add("text", "this field may not be blank")
		}
		updates["text"] = *input.Text
	}
	if input.CookingTime != nil {
		validateCookingTime(fieldErrs, *input.CookingTime)
		updates["cooking_time"] = *input.CookingTime
	}

	var tags []models.Tag
	if input.Tags != nil {
		tags, err = s.resolveTags(ctx, fieldErrs, *input.Tags)
		if err != nil {
			return nil, err
		}
	}

	var rows []models.RecipeIngredient
	if input.Ingredients != nil {
		rows, err = s.resolveIngredients(ctx, fieldErrs, *input.Ingredients)
		if err != nil {
			return nil, err
		}
	}

	if len(fieldErrs) > 0 {
		return nil, fieldErrs
	}

	err = database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(recipe).Updates(updates).Error; err != nil {
				return err
			}
		}
		if input.Tags != nil {
			if err := tx.Model(recipe).Association("Tags").Replace(tags); err != nil {
				return err
			}
		}
		if input.Ingredients != nil {
			if err := tx.Where("recipe_id = ?", recipe.ID).
				Delete(&models.RecipeIngredient{}).Error; err != nil {
				return err
			}
			for i := range rows {
				rows[i].RecipeID = recipe.ID
			}
			if len(rows) > 0 {
				if err := tx.Create(&rows).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Info(ctx).
		Uint("recipe_id", recipe.ID).
		Uint("user_id", userID).
		Msg("recipe updated")

	return s.GetByID(ctx, recipe.ID)
}

func (s *RecipeService) Delete(ctx context.Context, recipeID, userID uint) error {
	ctx, span := tracer.Start(ctx, "recipe.delete")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("recipe.id", int64(recipeID)),
		attribute.Int64("user.id", int64(userID)),
	)

	recipe, err := s.GetByID(ctx, recipeID)
	if err != nil {
		return err
	}

	if err := s.checkWriteAccess(ctx, recipe, userID); err != nil {
		return err
	}

	err = database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", recipe.ID).
			Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Model(recipe).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Delete(recipe).Error
	})
	if err != nil {
		return err
	}

	logging.Info(ctx).
		Uint("recipe_id", recipeID).
		Uint("user_id", userID).
		Msg("recipe deleted")

	return nil
}

// checkWriteAccess allows the recipe's author and administrators.
func (s *RecipeService) checkWriteAccess(ctx context.Context, recipe *models.Recipe, userID uint) error {
	if recipe.AuthorID == userID {
		return nil
	}

	var user models.User
	if err := database.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotRecipeAuthor
		}
		return err
	}
	if user.IsAdmin {
		return nil
	}
	return ErrNotRecipeAuthor
}

func (s *RecipeService) Favorite(ctx context.Context, recipeID, userID uint) (*models.RecipeSummary, error) {
	ctx, span := tracer.Start(ctx, "recipe.favorite")
	defer span.End()

	recipe, err := s.GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	fav := models.Favorite{UserID: userID, RecipeID: recipe.ID}
	if err := addPair(ctx, &fav, userID, "recipe_id", recipe.ID); err != nil {
		return nil, err
	}

	logging.Info(ctx).
		Uint("recipe_id", recipe.ID).
		Uint("user_id", userID).
		Msg("recipe favorited")

	summary := recipe.ToSummary()
	return &summary, nil
}

func (s *RecipeService) Unfavorite(ctx context.Context, recipeID, userID uint) error {
	ctx, span := tracer.Start(ctx, "recipe.unfavorite")
	defer span.End()

	if _, err := s.GetByID(ctx, recipeID); err != nil {
		return err
	}

	if err := removePair[models.Favorite](ctx, userID, "recipe_id", recipeID); err != nil {
		return err
	}

	logging.Info(ctx).
		Uint("recipe_id", recipeID).
		Uint("user_id", userID).
		Msg("recipe unfavorited")

	return nil
}

func (s *RecipeService) AddToShoppingCart(ctx context.Context, recipeID, userID uint) (*models.RecipeSummary, error) {
	ctx, span := tracer.Start(ctx, "recipe.add_to_shopping_cart")
	defer span.End()

	recipe, err := s.GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	item := models.ShoppingCart{UserID: userID, RecipeID: recipe.ID}
	if err := addPair(ctx, &item, userID, "recipe_id", recipe.ID); err != nil {
		return nil, err
	}

	logging.Info(ctx).
		Uint("recipe_id", recipe.ID).
		Uint("user_id", userID).
		Msg("recipe added to shopping cart")

	summary := recipe.ToSummary()
	return &summary, nil
}

func (s *RecipeService) RemoveFromShoppingCart(ctx context.Context, recipeID, userID uint) error {
	ctx, span := tracer.Start(ctx, "recipe.remove_from_shopping_cart")
	defer span.End()

	if _, err := s.GetByID(ctx, recipeID); err != nil {
		return err
	}

	if err := removePair[models.ShoppingCart](ctx, userID, "recipe_id", recipeID); err != nil {
		return err
	}

	logging.Info(ctx).
		Uint("recipe_id", recipeID).
		Uint("user_id", userID).
		Msg("recipe removed from shopping cart")

	return nil
}

func validateCookingTime(fieldErrs FieldErrors, cookingTime int) {
	if cookingTime < 1 {
		fieldErrs.add("cooking_time", "cooking time must be at least 1 minute")
	}
}

func (s *RecipeService) resolveTags(ctx context.Context, fieldErrs FieldErrors, tagIDs []uint) ([]models.Tag, error) {
	if len(tagIDs) == 0 {
		fieldErrs.add("tags", "at least one tag is required")
		return nil, nil
	}

	var tags []models.Tag
	if err := database.DB.WithContext(ctx).Where("id IN ?", tagIDs).Find(&tags).Error; err != nil {
		return nil, err
	}

	known := map[uint]bool{}
	for _, t := range tags {
		known[t.ID] = true
	}
	seen := map[uint]bool{}
	for _, id := range tagIDs {
		if !known[id] {
			fieldErrs.add("tags", "unknown tag id")
			return nil, nil
		}
		if seen[id] {
			fieldErrs.add("tags", "duplicate tag id")
			return nil, nil
		}
		seen[id] = true
	}

	return tags, nil
}

func (s *RecipeService) resolveIngredients(ctx context.Context, fieldErrs FieldErrors, inputs []RecipeIngredientInput) ([]models.RecipeIngredient, error) {
	if len(inputs) == 0 {
		fieldErrs.add("ingredients", "at least one ingredient is required")
		return nil, nil
	}

	ids := make([]uint, len(inputs))
	seen := map[uint]bool{}
	for i, in := range inputs {
		if in.Amount < 1 {
			fieldErrs.add("ingredients", "ingredient amount must be at least 1")
			return nil, nil
		}
		if seen[in.ID] {
			fieldErrs.add("ingredients", "duplicate ingredient id")
			return nil, nil
		}
		seen[in.ID] = true
		ids[i] = in.ID
	}

	var count int64
	if err := database.DB.WithContext(ctx).Model(&models.Ingredient{}).
		Where("id IN ?", ids).Count(&count).Error; err != nil {
		return nil, err
	}
	if count != int64(len(ids)) {
		fieldErrs.add("ingredients", "unknown ingredient id")
		return nil, nil
	}

	rows := make([]models.RecipeIngredient, len(inputs))
	for i, in := range inputs {
		rows[i] = models.RecipeIngredient{IngredientID: in.ID, Amount: in.Amount}
	}
	return rows, nil
}
