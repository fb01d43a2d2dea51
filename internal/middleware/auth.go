package middleware

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"plume/internal/config"
)

const (
	// TokenCookieName is the cookie the login handler sets and the auth
	// guard reads. A Bearer header works too, for API clients.
	TokenCookieName = "plume_token"

	TokenIssuer   = "plume-api"
	TokenAudience = "plume-web"
)

var jwtSecret []byte

// InitMiddleware wires config-dependent middleware state. Call once at startup.
func InitMiddleware(cfg *config.Config) {
	jwtSecret = []byte(cfg.JWTSecret)
}

// tokenFromRequest prefers the session cookie and falls back to the
// Authorization header.
func tokenFromRequest(c *fiber.Ctx) string {
	if tok := c.Cookies(TokenCookieName); tok != "" {
		return tok
	}
	auth := c.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// ParseUserID validates a token string and returns the user ID from its
// subject claim.
func ParseUserID(tokenStr string) (uint, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return jwtSecret, nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return 0, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, fmt.Errorf("invalid token claims")
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return 0, fmt.Errorf("missing subject: %w", err)
	}
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid subject: %w", err)
	}
	return uint(id), nil
}

// AuthRequired redirects anonymous requests to the login page, carrying the
// original URL in the next parameter so login can send the user back.
func AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok := tokenFromRequest(c)
		if tok != "" {
			if id, err := ParseUserID(tok); err == nil {
				c.Locals("userID", id)
				return c.Next()
			}
		}
		return c.Redirect("/auth/login/?next="+url.QueryEscape(c.OriginalURL()), fiber.StatusFound)
	}
}

// OptionalAuth resolves the current user when a valid token is present but
// never blocks the request.
func OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tok := tokenFromRequest(c); tok != "" {
			if id, err := ParseUserID(tok); err == nil {
				c.Locals("userID", id)
			}
		}
		return c.Next()
	}
}

// CurrentUserID returns the authenticated user's ID, if any.
func CurrentUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("userID").(uint)
	return id, ok
}

// GenerateToken issues a signed session token for the given user.
func GenerateToken(userID uint, jti string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iss": TokenIssuer,
		"aud": TokenAudience,
		"jti": jti,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}
