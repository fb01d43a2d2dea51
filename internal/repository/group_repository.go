package repository

import (
	"context"

	"gorm.io/gorm"

	"plume/internal/models"
)

type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	GetBySlug(ctx context.Context, slug string) (*models.Group, error)
	List(ctx context.Context) ([]models.Group, error)
}

type groupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) Create(ctx context.Context, group *models.Group) error {
	return r.db.WithContext(ctx).Create(group).Error
}

// GetBySlug returns gorm.ErrRecordNotFound for unknown slugs; handlers map
// that to a 404.
func (r *groupRepository) GetBySlug(ctx context.Context, slug string) (*models.Group, error) {
	var group models.Group
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepository) List(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.WithContext(ctx).Order("title ASC").Find(&groups).Error
	return groups, err
}
