package models

import "time"

// Follow is a directed edge recording that UserID follows AuthorID. The
// composite unique index makes duplicate edges impossible at the store level;
// creation goes through ON CONFLICT DO NOTHING so a repeat follow is a no-op.
type Follow struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_follows_user_author" json:"user_id"`
	AuthorID  uint      `gorm:"not null;uniqueIndex:idx_follows_user_author" json:"author_id"`
	CreatedAt time.Time `json:"created_at"`

	User   User `gorm:"foreignKey:UserID" json:"-"`
	Author User `gorm:"foreignKey:AuthorID" json:"-"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}
