package models

import (
	"time"

	"gorm.io/gorm"
)

// Post represents a published entry. The author is fixed at creation time;
// edits change content, never ownership.
type Post struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Text      string `gorm:"type:text;not null" json:"text"`
	ImagePath string `json:"image,omitempty"`
	UserID    uint   `gorm:"not null;index" json:"user_id"`
	User      User   `gorm:"foreignKey:UserID" json:"author"`
	GroupID   *uint  `gorm:"index" json:"group_id,omitempty"`
	Group     *Group `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int            `gorm:"->" json:"comments_count"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}
