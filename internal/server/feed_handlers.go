package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"plume/internal/cache"
	"plume/internal/middleware"
	"plume/internal/models"
	"plume/internal/pagination"
)

type listingPage struct {
	Posts []models.Post   `json:"posts"`
	Page  pagination.Page `json:"page"`
}

// HomeListing serves the newest-first feed of all posts. The first page is
// cached process-wide under a fixed key; everyone sees the same snapshot
// until the TTL expires, including readers who just published.
func (s *Server) HomeListing(c *fiber.Ctx) error {
	page := parsePage(c)

	if page <= 1 {
		if body, ok := cache.GetListing(c.UserContext()); ok {
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Send(body)
		}
	}

	total, err := s.postRepo.CountAll(c.UserContext())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	resolved := pagination.Resolve(page, s.config.PageSize, total)

	posts, err := s.postRepo.ListAll(c.UserContext(), resolved.PerPage, resolved.Offset())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	payload := listingPage{Posts: posts, Page: resolved}

	if resolved.Number == 1 && page <= 1 {
		body, err := json.Marshal(payload)
		if err == nil {
			cache.SetListing(c.UserContext(), body,
				time.Duration(s.config.HomeCacheTTL)*time.Second)
		} else {
			middleware.Logger.Warn("listing marshal failed",
				slog.String("error", err.Error()))
		}
	}

	return c.JSON(payload)
}

// GroupListing serves one group's posts newest first. Unknown slugs 404.
func (s *Server) GroupListing(c *fiber.Ctx) error {
	slug := c.Params("slug")

	group, err := s.groupRepo.GetBySlug(c.UserContext(), slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("group", slug))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	total, err := s.postRepo.CountByGroup(c.UserContext(), group.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	resolved := pagination.Resolve(parsePage(c), s.config.PageSize, total)

	posts, err := s.postRepo.ListByGroup(c.UserContext(), group.ID, resolved.PerPage, resolved.Offset())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"group": group,
		"posts": posts,
		"page":  resolved,
	})
}

// ProfileListing serves one author's posts plus follower stats. When the
// viewer is authenticated, the response says whether they follow the author.
func (s *Server) ProfileListing(c *fiber.Ctx) error {
	username := c.Params("username")

	author, err := s.userRepo.GetByUsername(c.UserContext(), username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("profile", username))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	total, err := s.postRepo.CountByAuthor(c.UserContext(), author.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	resolved := pagination.Resolve(parsePage(c), s.config.PageSize, total)

	posts, err := s.postRepo.ListByAuthor(c.UserContext(), author.ID, resolved.PerPage, resolved.Offset())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	followers, err := s.followRepo.CountFollowers(c.UserContext(), author.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	followingCount, err := s.followRepo.CountFollowing(c.UserContext(), author.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	following := false
	if viewerID, ok := middleware.CurrentUserID(c); ok && viewerID != author.ID {
		following, err = s.followRepo.Exists(c.UserContext(), viewerID, author.ID)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		}
	}

	return c.JSON(fiber.Map{
		"author":          author,
		"posts":           posts,
		"page":            resolved,
		"posts_count":     total,
		"followers_count": followers,
		"following_count": followingCount,
		"following":       following,
	})
}

// FollowFeed serves posts by authors the current user follows, newest first.
// The feed is empty, not an error, when the user follows nobody.
func (s *Server) FollowFeed(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)

	total, err := s.postRepo.CountFollowed(c.UserContext(), userID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	resolved := pagination.Resolve(parsePage(c), s.config.PageSize, total)

	posts, err := s.postRepo.ListFollowed(c.UserContext(), userID, resolved.PerPage, resolved.Offset())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(listingPage{Posts: posts, Page: resolved})
}
