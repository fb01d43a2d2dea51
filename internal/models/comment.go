package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment is a reader's reply attached to a single post. Only authenticated
// users can create comments; anyone can read them.
type Comment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Text      string         `gorm:"type:text;not null" json:"text"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	PostID    uint           `gorm:"not null;index" json:"post_id"`
	User      User           `gorm:"foreignKey:UserID" json:"author"`
	Post      Post           `gorm:"foreignKey:PostID" json:"post,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
