// Package seed populates a development database with plausible content.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"plume/internal/middleware"
	"plume/internal/models"
	"plume/internal/validation"
)

type Options struct {
	Users    int
	Groups   int
	Posts    int
	Comments int
	Follows  int
	Password string
}

func DefaultOptions() Options {
	return Options{
		Users:    10,
		Groups:   5,
		Posts:    80,
		Comments: 200,
		Follows:  30,
		Password: "password123",
	}
}

// Run fills the database with fake users, groups, posts, comments and follow
// edges. Posts get creation times spread over the past 90 days so listings
// have a believable timeline.
func Run(ctx context.Context, db *gorm.DB, opts Options) error {
	gofakeit.Seed(0)

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing seed password: %w", err)
	}

	users := make([]models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		users = append(users, models.User{
			Username: fmt.Sprintf("%s%d", gofakeit.Username(), i),
			Email:    fmt.Sprintf("seed%d_%s", i, gofakeit.Email()),
			Password: string(hash),
			Bio:      gofakeit.Sentence(12),
		})
	}
	if err := db.WithContext(ctx).Create(&users).Error; err != nil {
		return fmt.Errorf("seeding users: %w", err)
	}

	groups := make([]models.Group, 0, opts.Groups)
	for i := 0; i < opts.Groups; i++ {
		slug := fmt.Sprintf("%s-%d", gofakeit.Word(), i)
		if validation.ValidateSlug(slug) != nil {
			slug = fmt.Sprintf("topic-%d", i)
		}
		groups = append(groups, models.Group{
			Title:       gofakeit.BookTitle(),
			Slug:        slug,
			Description: gofakeit.Paragraph(1, 3, 10, " "),
		})
	}
	if err := db.WithContext(ctx).Create(&groups).Error; err != nil {
		return fmt.Errorf("seeding groups: %w", err)
	}

	posts := make([]models.Post, 0, opts.Posts)
	for i := 0; i < opts.Posts; i++ {
		post := models.Post{
			Text:      gofakeit.Paragraph(1, 4, 12, " "),
			UserID:    users[gofakeit.IntRange(0, len(users)-1)].ID,
			CreatedAt: time.Now().Add(-time.Duration(gofakeit.IntRange(0, 90*24)) * time.Hour),
		}
		if gofakeit.Bool() {
			gid := groups[gofakeit.IntRange(0, len(groups)-1)].ID
			post.GroupID = &gid
		}
		posts = append(posts, post)
	}
	if err := db.WithContext(ctx).Create(&posts).Error; err != nil {
		return fmt.Errorf("seeding posts: %w", err)
	}

	comments := make([]models.Comment, 0, opts.Comments)
	for i := 0; i < opts.Comments; i++ {
		comments = append(comments, models.Comment{
			Text:   gofakeit.Sentence(gofakeit.IntRange(4, 16)),
			UserID: users[gofakeit.IntRange(0, len(users)-1)].ID,
			PostID: posts[gofakeit.IntRange(0, len(posts)-1)].ID,
		})
	}
	if err := db.WithContext(ctx).Create(&comments).Error; err != nil {
		return fmt.Errorf("seeding comments: %w", err)
	}

	created := 0
	for created < opts.Follows {
		follower := users[gofakeit.IntRange(0, len(users)-1)]
		author := users[gofakeit.IntRange(0, len(users)-1)]
		if follower.ID == author.ID {
			continue
		}
		follow := models.Follow{UserID: follower.ID, AuthorID: author.ID}
		if err := db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&follow).Error; err != nil {
			return fmt.Errorf("seeding follows: %w", err)
		}
		created++
	}

	middleware.Logger.Info("seed complete",
		slog.Int("users", len(users)),
		slog.Int("groups", len(groups)),
		slog.Int("posts", len(posts)),
		slog.Int("comments", len(comments)),
		slog.Int("follows", created))
	return nil
}
