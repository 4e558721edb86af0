package services

import (
	"context"
	"errors"

	"recipeshare/internal/database"
	"recipeshare/internal/logging"
	"recipeshare/internal/models"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

type UserService struct{}

func NewUserService() *UserService {
	return &UserService{}
}

func (s *UserService) GetByID(ctx context.Context, userID uint) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "user.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.Int64("user.id", int64(userID)))

	var user models.User
	if err := database.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &user, nil
}

// Profile renders a user relative to the viewer: is_subscribed is true iff
// the viewer is authenticated and subscribed to the user.
func (s *UserService) Profile(ctx context.Context, viewerID *uint, userID uint) (*models.UserResponse, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	subscribed := false
	if viewerID != nil {
		subscribed = pairExists[models.Subscription](ctx, *viewerID, "author_id", user.ID)
	}

	resp := user.ToResponse(subscribed)
	return &resp, nil
}

func (s *UserService) List(ctx context.Context, viewerID *uint, page, perPage int) (*models.UsersResponse, error) {
	ctx, span := tracer.Start(ctx, "user.list")
	defer span.End()

	page, perPage = normalizePage(page, perPage)

	var totalCount int64
	if err := database.DB.WithContext(ctx).Model(&models.User{}).Count(&totalCount).Error; err != nil {
		return nil, err
	}

	var users []models.User
	if err := database.DB.WithContext(ctx).
		Order("id").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&users).Error; err != nil {
		return nil, err
	}

	subscribedTo := map[uint]bool{}
	if viewerID != nil {
		ids := make([]uint, len(users))
		for i, u := range users {
			ids[i] = u.ID
		}
		var subs []models.Subscription
		if err := database.DB.WithContext(ctx).
			Where("user_id = ? AND author_id IN ?", *viewerID, ids).
			Find(&subs).Error; err != nil {
			return nil, err
		}
		for _, sub := range subs {
			subscribedTo[sub.AuthorID] = true
		}
	}

	responses := make([]models.UserResponse, len(users))
	for i, u := range users {
		responses[i] = u.ToResponse(subscribedTo[u.ID])
	}

	return &models.UsersResponse{
		Users:      responses,
		TotalCount: totalCount,
		Page:       page,
		PerPage:    perPage,
	}, nil
}

// Subscribe adds a (user, author) subscription pair. Self-subscription is
// rejected before the existence check. On success the author's profile with
// recipe previews is returned.
func (s *UserService) Subscribe(ctx context.Context, userID, authorID uint, recipesLimit int) (*models.AuthorResponse, error) {
	ctx, span := tracer.Start(ctx, "user.subscribe")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user.id", int64(userID)),
		attribute.Int64("author.id", int64(authorID)),
	)

	if userID == authorID {
		return nil, ErrSelfSubscription
	}

	author, err := s.GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}

	sub := models.Subscription{UserID: userID, AuthorID: authorID}
	if err := addPair(ctx, &sub, userID, "author_id", authorID); err != nil {
		return nil, err
	}

	logging.Info(ctx).
		Uint("user_id", userID).
		Uint("author_id", authorID).
		Msg("subscribed to author")

	return s.buildAuthor(ctx, author, true, recipesLimit)
}

func (s *UserService) Unsubscribe(ctx context.Context, userID, authorID uint) error {
	ctx, span := tracer.Start(ctx, "user.unsubscribe")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user.id", int64(userID)),
		attribute.Int64("author.id", int64(authorID)),
	)

	if _, err := s.GetByID(ctx, authorID); err != nil {
		return err
	}

	if err := removePair[models.Subscription](ctx, userID, "author_id", authorID); err != nil {
		return err
	}

	logging.Info(ctx).
		Uint("user_id", userID).
		Uint("author_id", authorID).
		Msg("unsubscribed from author")

	return nil
}

// Subscriptions lists the authors the user is subscribed to, each with their
// newest recipes embedded.
func (s *UserService) Subscriptions(ctx context.Context, userID uint, page, perPage, recipesLimit int) (*models.AuthorsResponse, error) {
	ctx, span := tracer.Start(ctx, "user.subscriptions")
	defer span.End()

	span.SetAttributes(attribute.Int64("user.id", int64(userID)))

	page, perPage = normalizePage(page, perPage)

	var totalCount int64
	if err := database.DB.WithContext(ctx).Model(&models.Subscription{}).
		Where("user_id = ?", userID).
		Count(&totalCount).Error; err != nil {
		return nil, err
	}

	var subs []models.Subscription
	if err := database.DB.WithContext(ctx).
		Preload("Author").
		Where("user_id = ?", userID).
		Order("id").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&subs).Error; err != nil {
		return nil, err
	}

	authors := make([]models.AuthorResponse, len(subs))
	for i, sub := range subs {
		author, err := s.buildAuthor(ctx, &sub.Author, true, recipesLimit)
		if err != nil {
			return nil, err
		}
		authors[i] = *author
	}

	return &models.AuthorsResponse{
		Authors:    authors,
		TotalCount: totalCount,
		Page:       page,
		PerPage:    perPage,
	}, nil
}

func (s *UserService) buildAuthor(ctx context.Context, author *models.User, subscribed bool, recipesLimit int) (*models.AuthorResponse, error) {
	var recipesCount int64
	if err := database.DB.WithContext(ctx).Model(&models.Recipe{}).
		Where("author_id = ?", author.ID).
		Count(&recipesCount).Error; err != nil {
		return nil, err
	}

	query := database.DB.WithContext(ctx).
		Where("author_id = ?", author.ID).
		Order("created_at DESC, id DESC")
	if recipesLimit > 0 {
		query = query.Limit(recipesLimit)
	}

	var recipes []models.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		return nil, err
	}

	summaries := make([]models.RecipeSummary, len(recipes))
	for i, r := range recipes {
		summaries[i] = r.ToSummary()
	}

	return &models.AuthorResponse{
		UserResponse: author.ToResponse(subscribed),
		Recipes:      summaries,
		RecipesCount: recipesCount,
	}, nil
}

func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}
