package server

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"plume/internal/middleware"
	"plume/internal/models"
)

type commentForm struct {
	Text string `json:"text" form:"text"`
}

// AddComment attaches a comment to a post and redirects back to it. An
// anonymous submission is silently dropped: no comment is stored and the
// client still lands on the post detail, not the login page. Empty text is
// dropped the same way.
func (s *Server) AddComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if _, err := s.postRepo.GetByID(c.UserContext(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("post", id))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	userID, authed := middleware.CurrentUserID(c)
	if !authed {
		return c.Redirect(postPath(id), fiber.StatusFound)
	}

	var form commentForm
	if err := c.BodyParser(&form); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("invalid request body"))
	}
	form.Text = strings.TrimSpace(form.Text)
	if form.Text == "" {
		return c.Redirect(postPath(id), fiber.StatusFound)
	}

	comment := models.Comment{
		Text:   form.Text,
		UserID: userID,
		PostID: id,
	}
	if err := s.commentRepo.Create(c.UserContext(), &comment); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	middleware.Logger.Info("comment added",
		slog.Uint64("comment_id", uint64(comment.ID)),
		slog.Uint64("post_id", uint64(id)),
		slog.Uint64("user_id", uint64(userID)))

	return c.Redirect(postPath(id), fiber.StatusFound)
}
