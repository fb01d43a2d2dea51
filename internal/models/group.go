package models

import "time"

// Group is a topical label posts can optionally belong to. Groups are
// addressed by their unique human-readable slug.
type Group struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Slug        string    `gorm:"uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Posts       []Post    `gorm:"foreignKey:GroupID" json:"posts,omitempty"`
}
