// Package repository contains the data access layer. Each aggregate gets an
// interface so handlers can be tested against mocks.
package repository

import (
	"context"

	"gorm.io/gorm"

	"plume/internal/models"
)

// listingOrder is the canonical feed ordering. The id tiebreaker keeps pages
// stable when posts share a creation timestamp.
const listingOrder = "posts.created_at DESC, posts.id DESC"

const commentsCountSelect = "posts.*, (SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id AND comments.deleted_at IS NULL) AS comments_count"

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	ListAll(ctx context.Context, limit, offset int) ([]models.Post, error)
	CountAll(ctx context.Context) (int64, error)
	ListByGroup(ctx context.Context, groupID uint, limit, offset int) ([]models.Post, error)
	CountByGroup(ctx context.Context, groupID uint) (int64, error)
	ListByAuthor(ctx context.Context, authorID uint, limit, offset int) ([]models.Post, error)
	CountByAuthor(ctx context.Context, authorID uint) (int64, error)
	ListFollowed(ctx context.Context, userID uint, limit, offset int) ([]models.Post, error)
	CountFollowed(ctx context.Context, userID uint) (int64, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Select(commentsCountSelect).
		Preload("User").
		Preload("Group").
		First(&post, id).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Model(post).
		Select("text", "image_path", "group_id", "updated_at").
		Updates(post).Error
}

func (r *postRepository) listing(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select(commentsCountSelect).
		Preload("User").
		Preload("Group").
		Order(listingOrder)
}

func (r *postRepository) ListAll(ctx context.Context, limit, offset int) ([]models.Post, error) {
	var posts []models.Post
	err := r.listing(ctx).Limit(limit).Offset(offset).Find(&posts).Error
	return posts, err
}

func (r *postRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Count(&count).Error
	return count, err
}

func (r *postRepository) ListByGroup(ctx context.Context, groupID uint, limit, offset int) ([]models.Post, error) {
	var posts []models.Post
	err := r.listing(ctx).
		Where("posts.group_id = ?", groupID).
		Limit(limit).Offset(offset).
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) CountByGroup(ctx context.Context, groupID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("group_id = ?", groupID).
		Count(&count).Error
	return count, err
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID uint, limit, offset int) ([]models.Post, error) {
	var posts []models.Post
	err := r.listing(ctx).
		Where("posts.user_id = ?", authorID).
		Limit(limit).Offset(offset).
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) CountByAuthor(ctx context.Context, authorID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("user_id = ?", authorID).
		Count(&count).Error
	return count, err
}

func (r *postRepository) ListFollowed(ctx context.Context, userID uint, limit, offset int) ([]models.Post, error) {
	var posts []models.Post
	err := r.listing(ctx).
		Joins("JOIN follows ON follows.author_id = posts.user_id").
		Where("follows.user_id = ?", userID).
		Limit(limit).Offset(offset).
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) CountFollowed(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Joins("JOIN follows ON follows.author_id = posts.user_id").
		Where("follows.user_id = ?", userID).
		Count(&count).Error
	return count, err
}
