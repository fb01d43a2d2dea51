package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"plume/internal/models"
)

type FollowRepository interface {
	Create(ctx context.Context, follow *models.Follow) error
	Delete(ctx context.Context, userID, authorID uint) error
	Exists(ctx context.Context, userID, authorID uint) (bool, error)
	CountFollowers(ctx context.Context, authorID uint) (int64, error)
	CountFollowing(ctx context.Context, userID uint) (int64, error)
}

type followRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

// Create inserts the edge idempotently; following someone twice is a no-op.
func (r *followRepository) Create(ctx context.Context, follow *models.Follow) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(follow).Error
}

// Delete removes the edge if it exists; unfollowing a stranger is a no-op.
func (r *followRepository) Delete(ctx context.Context, userID, authorID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&models.Follow{}).Error
}

func (r *followRepository) Exists(ctx context.Context, userID, authorID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&count).Error
	return count > 0, err
}

func (r *followRepository) CountFollowers(ctx context.Context, authorID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("author_id = ?", authorID).
		Count(&count).Error
	return count, err
}

func (r *followRepository) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}
