package server

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"plume/internal/middleware"
	"plume/internal/models"
	"plume/internal/validation"
)

const sessionTTL = 7 * 24 * time.Hour

type signupRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Signup registers a new user and logs them in.
func (s *Server) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("invalid request body"))
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if err := validation.ValidateUsername(req.Username); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("a valid email is required"))
	}
	if len(req.Password) < 8 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("password must be at least 8 characters"))
	}

	if _, err := s.userRepo.GetByUsername(c.UserContext(), req.Username); err == nil {
		return models.RespondWithError(c, fiber.StatusConflict,
			models.NewValidationError("username is already taken"))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	if existing, err := s.userRepo.GetByEmail(c.UserContext(), req.Email); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	} else if existing != nil {
		return models.RespondWithError(c, fiber.StatusConflict,
			models.NewValidationError("email is already registered"))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	user := models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hash),
	}
	if err := s.userRepo.Create(c.UserContext(), &user); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	middleware.Logger.Info("user signed up",
		slog.Uint64("user_id", uint64(user.ID)),
		slog.String("username", user.Username))

	token, err := s.issueSession(c, user.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":  user,
		"token": token,
	})
}

// LoginForm describes the login endpoint; it exists so the redirect target of
// the auth guard resolves to something useful.
func (s *Server) LoginForm(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"action": "/auth/login/",
		"method": "POST",
		"fields": []string{"username", "password"},
		"next":   c.Query("next"),
	})
}

// Login checks credentials, sets the session cookie and redirects to the
// next URL when one was carried through the login flow.
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("invalid request body"))
	}

	user, err := s.userRepo.GetByUsername(c.UserContext(), strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("invalid credentials"))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("invalid credentials"))
	}

	token, err := s.issueSession(c, user.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	if next := safeNext(c.Query("next")); next != "" {
		return c.Redirect(next, fiber.StatusFound)
	}
	return c.JSON(fiber.Map{
		"user":  user,
		"token": token,
	})
}

// Logout clears the session cookie.
func (s *Server) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	})
	return c.Redirect("/", fiber.StatusFound)
}

func (s *Server) issueSession(c *fiber.Ctx, userID uint) (string, error) {
	token, err := middleware.GenerateToken(userID, uuid.NewString(), sessionTTL)
	if err != nil {
		return "", err
	}
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    token,
		Expires:  time.Now().Add(sessionTTL),
		HTTPOnly: true,
		SameSite: "Lax",
		Secure:   s.config.IsProduction(),
	})
	return token, nil
}

// safeNext only allows same-site relative redirect targets. Anything with a
// scheme or host is dropped to keep login off open-redirect lists.
func safeNext(next string) string {
	if next == "" {
		return ""
	}
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return ""
	}
	return next
}
