package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"plume/internal/cache"
	"plume/internal/config"
	"plume/internal/database"
	"plume/internal/middleware"
	"plume/internal/models"
)

const testPassword = "password123"

func setupTestServer(t *testing.T) (*Server, *fiber.App) {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	cfg := &config.Config{
		Env:          "test",
		JWTSecret:    "test-secret",
		PageSize:     10,
		HomeCacheTTL: 20,
		MediaDir:     t.TempDir(),
	}
	middleware.InitMiddleware(cfg)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	// caching off unless a test installs a client
	cache.SetClient(nil)

	s := NewServer(cfg, db, nil)
	app := fiber.New()
	s.SetupRoutes(app)
	return s, app
}

func createUser(t *testing.T, s *Server, username string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hash),
	}
	require.NoError(t, s.db.Create(&user).Error)
	return &user
}

func createPost(t *testing.T, s *Server, userID uint, text string, groupID *uint) *models.Post {
	t.Helper()
	post := models.Post{Text: text, UserID: userID, GroupID: groupID}
	require.NoError(t, s.db.Create(&post).Error)
	return &post
}

func createGroup(t *testing.T, s *Server, slug string) *models.Group {
	t.Helper()
	group := models.Group{Title: "Group " + slug, Slug: slug}
	require.NoError(t, s.db.Create(&group).Error)
	return &group
}

func authToken(t *testing.T, userID uint) string {
	t.Helper()
	token, err := middleware.GenerateToken(userID, uuid.NewString(), time.Hour)
	require.NoError(t, err)
	return token
}

type testRequest struct {
	method string
	target string
	form   url.Values
	token  string
	body   io.Reader
	ctype  string
}

func doRequest(t *testing.T, app *fiber.App, req testRequest) *http.Response {
	t.Helper()

	var body io.Reader
	ctype := req.ctype
	if req.form != nil {
		body = strings.NewReader(req.form.Encode())
		ctype = fiber.MIMEApplicationForm
	} else if req.body != nil {
		body = req.body
	}

	httpReq := httptest.NewRequest(req.method, req.target, body)
	if ctype != "" {
		httpReq.Header.Set(fiber.HeaderContentType, ctype)
	}
	if req.token != "" {
		httpReq.AddCookie(&http.Cookie{
			Name:  middleware.TokenCookieName,
			Value: req.token,
		})
	}

	resp, err := app.Test(httpReq, -1)
	require.NoError(t, err)
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return string(data)
}
