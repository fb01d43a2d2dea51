// Package server wires the HTTP surface: routing, middleware and handlers.
package server

import (
	"errors"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"plume/internal/config"
	"plume/internal/middleware"
	"plume/internal/models"
	"plume/internal/repository"
)

// ErrorHandler renders errors that escape handlers in the standard envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}
	return models.RespondWithError(c, code, err)
}

type Server struct {
	config *config.Config
	db     *gorm.DB
	redis  *redis.Client

	userRepo    repository.UserRepository
	postRepo    repository.PostRepository
	groupRepo   repository.GroupRepository
	commentRepo repository.CommentRepository
	followRepo  repository.FollowRepository
}

func NewServer(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *Server {
	return &Server{
		config:      cfg,
		db:          db,
		redis:       rdb,
		userRepo:    repository.NewUserRepository(db),
		postRepo:    repository.NewPostRepository(db),
		groupRepo:   repository.NewGroupRepository(db),
		commentRepo: repository.NewCommentRepository(db),
		followRepo:  repository.NewFollowRepository(db),
	}
}

func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(requestid.New())
	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())
	app.Use(middleware.RateLimit(s.redis, 300, time.Minute))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.AllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE",
		AllowCredentials: true,
	}))

	prom := fiberprometheus.New("plume")
	prom.RegisterAt(app, "/metrics")
	app.Use(prom.Middleware)
}

func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health", s.HealthCheck)

	auth := app.Group("/auth")
	auth.Post("/signup", s.Signup)
	auth.Get("/login/", s.LoginForm)
	auth.Post("/login/", s.Login)
	auth.Post("/logout/", s.Logout)

	// Public reads. OptionalAuth resolves the viewer for the profile
	// "following" flag; anonymous viewers pass through untouched.
	app.Get("/", middleware.OptionalAuth(), s.HomeListing)
	app.Get("/group/:slug/", s.GroupListing)
	app.Get("/profile/:username/", middleware.OptionalAuth(), s.ProfileListing)
	app.Get("/posts/:id/", s.PostDetail)

	// Comment creation is deliberately not behind the redirect guard:
	// anonymous submissions are dropped and redirected to the post.
	app.Post("/posts/:id/add_comment/", middleware.OptionalAuth(), s.AddComment)

	// Everything below redirects anonymous users to login. The guard sits on
	// each route rather than a catch-all group so unmatched paths still fall
	// through to the 404 handler.
	guard := middleware.AuthRequired()
	app.Get("/create/", guard, s.CreatePostForm)
	app.Post("/create/", guard, s.CreatePost)
	app.Get("/posts/:id/edit/", guard, s.EditPostForm)
	app.Post("/posts/:id/edit/", guard, s.EditPost)
	app.Get("/follow/", guard, s.FollowFeed)
	// Follow links are plain anchors in templates, so both verbs work.
	app.Get("/profile/:username/follow/", guard, s.FollowAuthor)
	app.Post("/profile/:username/follow/", guard, s.FollowAuthor)
	app.Get("/profile/:username/unfollow/", guard, s.UnfollowAuthor)
	app.Post("/profile/:username/unfollow/", guard, s.UnfollowAuthor)

	app.Use(s.NotFound)
}

func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// NotFound is the terminal handler for unmatched paths.
func (s *Server) NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": "page not found",
		"path":  c.Path(),
	})
}
