package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"plume/internal/database"
	"plume/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// in-memory sqlite vanishes if a second connection opens
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed",
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createTestGroup(t *testing.T, db *gorm.DB, slug string) *models.Group {
	t.Helper()
	group := models.Group{
		Title: "Group " + slug,
		Slug:  slug,
	}
	require.NoError(t, db.Create(&group).Error)
	return &group
}

func createTestPost(t *testing.T, db *gorm.DB, userID uint, text string, groupID *uint, createdAt time.Time) *models.Post {
	t.Helper()
	post := models.Post{
		Text:      text,
		UserID:    userID,
		GroupID:   groupID,
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(&post).Error)
	return &post
}
