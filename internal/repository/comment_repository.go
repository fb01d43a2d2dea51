package repository

import (
	"context"

	"gorm.io/gorm"

	"plume/internal/models"
)

type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListByPost(ctx context.Context, postID uint) ([]models.Comment, error)
	CountByPost(ctx context.Context, postID uint) (int64, error)
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// ListByPost returns comments oldest first, the reading order under a post.
func (r *commentRepository) ListByPost(ctx context.Context, postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	return comments, err
}

func (r *commentRepository) CountByPost(ctx context.Context, postID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("post_id = ?", postID).
		Count(&count).Error
	return count, err
}
