package services

import (
	"context"
	"errors"

	"recipeshare/internal/database"
	"recipeshare/internal/models"

	"gorm.io/gorm"
)

var (
	ErrAlreadyExists    = errors.New("pair already exists")
	ErrNotPresent       = errors.New("pair not present")
	ErrSelfSubscription = errors.New("cannot subscribe to yourself")
)

// Favorite, ShoppingCart and Subscription are the same structure: a
// uniqueness-constrained (user, target) pair with add and remove. One generic
// implementation serves all three.
type pairModel interface {
	models.Favorite | models.ShoppingCart | models.Subscription
}

// addPair inserts record unless the (user, target) pair already exists.
// Double-add is an error, not a no-op. The existence check is advisory; the
// unique index is what decides a concurrent race, and the loser's
// duplicate-key error is mapped to ErrAlreadyExists.
func addPair[T pairModel](ctx context.Context, record *T, userID uint, targetColumn string, targetID uint) error {
	var count int64
	if err := database.DB.WithContext(ctx).Model(new(T)).
		Where("user_id = ? AND "+targetColumn+" = ?", userID, targetID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrAlreadyExists
	}

	if err := database.DB.WithContext(ctx).Create(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

// removePair deletes the (user, target) pair; removing an absent pair is an
// error.
func removePair[T pairModel](ctx context.Context, userID uint, targetColumn string, targetID uint) error {
	result := database.DB.WithContext(ctx).
		Where("user_id = ? AND "+targetColumn+" = ?", userID, targetID).
		Delete(new(T))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotPresent
	}
	return nil
}

func pairExists[T pairModel](ctx context.Context, userID uint, targetColumn string, targetID uint) bool {
	var count int64
	database.DB.WithContext(ctx).Model(new(T)).
		Where("user_id = ? AND "+targetColumn+" = ?", userID, targetID).
		Count(&count)
	return count > 0
}
