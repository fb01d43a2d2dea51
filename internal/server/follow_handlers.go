package server

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"plume/internal/middleware"
	"plume/internal/models"
)

// FollowAuthor subscribes the current user to an author's posts and redirects
// back to the profile. Self-follow and repeat follows are silent no-ops.
func (s *Server) FollowAuthor(c *fiber.Ctx) error {
	author, err := s.resolveAuthor(c)
	if err != nil {
		return nil
	}
	userID, _ := middleware.CurrentUserID(c)

	if userID != author.ID {
		follow := models.Follow{UserID: userID, AuthorID: author.ID}
		if err := s.followRepo.Create(c.UserContext(), &follow); err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		}
		middleware.Logger.Info("follow created",
			slog.Uint64("user_id", uint64(userID)),
			slog.Uint64("author_id", uint64(author.ID)))
	}

	return c.Redirect(profilePath(author.Username), fiber.StatusFound)
}

// UnfollowAuthor removes the subscription, if any, and redirects back to the
// profile.
func (s *Server) UnfollowAuthor(c *fiber.Ctx) error {
	author, err := s.resolveAuthor(c)
	if err != nil {
		return nil
	}
	userID, _ := middleware.CurrentUserID(c)

	if err := s.followRepo.Delete(c.UserContext(), userID, author.ID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Redirect(profilePath(author.Username), fiber.StatusFound)
}

// resolveAuthor looks up the target profile, writing the error response
// itself on failure.
func (s *Server) resolveAuthor(c *fiber.Ctx) (*models.User, error) {
	username := c.Params("username")
	author, err := s.userRepo.GetByUsername(c.UserContext(), username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("profile", username))
			return nil, errResponseWritten
		}
		_ = models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
		return nil, errResponseWritten
	}
	return author, nil
}
