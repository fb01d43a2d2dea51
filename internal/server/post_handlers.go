package server

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"plume/internal/middleware"
	"plume/internal/models"
	"plume/internal/observability"
	"plume/internal/validation"
)

type postForm struct {
	Text    string `json:"text" form:"text"`
	GroupID *uint  `json:"group" form:"group"`
}

// PostDetail serves one post with its comments. Unknown and malformed IDs
// both 404.
func (s *Server) PostDetail(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postRepo.GetByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("post", id))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	comments, err := s.commentRepo.ListByPost(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	authorPosts, err := s.postRepo.CountByAuthor(c.UserContext(), post.UserID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"post":               post,
		"comments":           comments,
		"author_posts_count": authorPosts,
	})
}

// CreatePostForm describes the creation form, mirroring what a template
// renderer would need.
func (s *Server) CreatePostForm(c *fiber.Ctx) error {
	groups, err := s.groupRepo.List(c.UserContext())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{
		"action": "/create/",
		"method": "POST",
		"fields": []string{"text", "group", "image"},
		"groups": groups,
	})
}

// CreatePost publishes a new post for the authenticated user and redirects to
// their profile. The author always comes from the session, never the form.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)

	var form postForm
	if err := c.BodyParser(&form); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("invalid request body"))
	}

	ctx, span := observability.Tracer.Start(c.UserContext(), "post.create")
	defer span.End()

	if formErrs := s.validatePostForm(c, &form); len(formErrs) > 0 {
		// invalid form re-renders with errors, same URL, 200
		return c.JSON(fiber.Map{
			"action": "/create/",
			"errors": formErrs,
			"values": form,
		})
	}

	imagePath, err := s.saveUploadedImage(c)
	if err != nil {
		return c.JSON(fiber.Map{
			"action": "/create/",
			"errors": map[string]string{"image": err.Error()},
			"values": form,
		})
	}

	post := models.Post{
		Text:      form.Text,
		GroupID:   form.GroupID,
		UserID:    userID,
		ImagePath: imagePath,
	}
	if err := s.postRepo.Create(ctx, &post); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	author, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	middleware.Logger.Info("post created",
		slog.Uint64("post_id", uint64(post.ID)),
		slog.Uint64("user_id", uint64(userID)))

	return c.Redirect(profilePath(author.Username), fiber.StatusFound)
}

// EditPostForm serves the edit form. Non-authors are bounced to the post.
func (s *Server) EditPostForm(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	post, redirected, err := s.loadOwnPost(c, id)
	if err != nil {
		return err
	}
	if redirected {
		return nil
	}

	groups, err := s.groupRepo.List(c.UserContext())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{
		"action": postPath(id) + "edit/",
		"post":   post,
		"groups": groups,
	})
}

// EditPost updates a post's content. Only the author may edit; anyone else is
// redirected to the post detail, not shown an error page.
func (s *Server) EditPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	post, redirected, err := s.loadOwnPost(c, id)
	if err != nil {
		return err
	}
	if redirected {
		return nil
	}

	var form postForm
	if err := c.BodyParser(&form); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("invalid request body"))
	}
	if formErrs := s.validatePostForm(c, &form); len(formErrs) > 0 {
		return c.JSON(fiber.Map{
			"action": postPath(id) + "edit/",
			"errors": formErrs,
			"values": form,
		})
	}

	imagePath, err := s.saveUploadedImage(c)
	if err != nil {
		return c.JSON(fiber.Map{
			"action": postPath(id) + "edit/",
			"errors": map[string]string{"image": err.Error()},
			"values": form,
		})
	}

	post.Text = form.Text
	post.GroupID = form.GroupID
	if imagePath != "" {
		post.ImagePath = imagePath
	}
	if err := s.postRepo.Update(c.UserContext(), post); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Redirect(postPath(id), fiber.StatusFound)
}

// loadOwnPost fetches the post and enforces authorship. When the viewer is
// not the author it writes a redirect to the post detail and reports
// redirected=true.
func (s *Server) loadOwnPost(c *fiber.Ctx, id uint) (*models.Post, bool, error) {
	post, err := s.postRepo.GetByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("post", id))
		}
		return nil, false, models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	userID, _ := middleware.CurrentUserID(c)
	if post.UserID != userID {
		return nil, true, c.Redirect(postPath(id), fiber.StatusFound)
	}
	return post, false, nil
}

func (s *Server) validatePostForm(c *fiber.Ctx, form *postForm) map[string]string {
	formErrs := map[string]string{}
	if form.Text == "" {
		formErrs["text"] = "text is required"
	}
	if form.GroupID != nil {
		if _, err := s.groupByID(c, *form.GroupID); err != nil {
			formErrs["group"] = "unknown group"
		}
	}
	return formErrs
}

func (s *Server) groupByID(c *fiber.Ctx, id uint) (*models.Group, error) {
	var group models.Group
	if err := s.db.WithContext(c.UserContext()).First(&group, id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// saveUploadedImage stores an optional multipart image under the media dir
// and returns its relative path. No file attached is not an error.
func (s *Server) saveUploadedImage(c *fiber.Ctx) (string, error) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return "", nil
	}
	if fileHeader.Size > validation.MaxImageBytes {
		return "", errors.New("image is too large")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return "", errors.New("could not read upload")
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, validation.MaxImageBytes+1))
	if err != nil {
		return "", errors.New("could not read upload")
	}

	format, err := validation.ValidateImage(data)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.config.MediaDir, 0o755); err != nil {
		return "", errors.New("could not store upload")
	}
	name := uuid.NewString() + validation.ImageExtension(format)
	fullPath := filepath.Join(s.config.MediaDir, name)
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", errors.New("could not store upload")
	}
	return filepath.ToSlash(filepath.Join("media", name)), nil
}
