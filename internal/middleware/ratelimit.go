package middleware

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimit limits each client IP to max requests per window using a Redis
// counter. When Redis is unavailable the limiter fails open.
func RateLimit(rdb *redis.Client, max int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if os.Getenv("APP_ENV") == "test" || rdb == nil {
			return c.Next()
		}

		key := fmt.Sprintf("ratelimit:%s", c.IP())
		ctx := c.UserContext()

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			Logger.Warn("rate limiter unavailable, allowing request",
				slog.String("error", err.Error()))
			return c.Next()
		}
		if count == 1 {
			rdb.Expire(ctx, key, window)
		}
		if count > int64(max) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many requests",
			})
		}
		return c.Next()
	}
}
