// Package cache wraps Redis for the home listing cache. All operations are
// fail-open: a missing or broken Redis only disables caching, it never takes
// the site down.
package cache

import (
	"context"
	"log/slog"
	"net"

	"github.com/redis/go-redis/v9"

	"plume/internal/middleware"
	"plume/internal/observability"
)

var client *redis.Client

// metricsHook counts command errors so Redis trouble shows up on dashboards
// before it shows up as stale pages.
type metricsHook struct{}

func (metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		if err != nil {
			observability.RedisErrors.WithLabelValues("dial").Inc()
		}
		return conn, err
	}
}

func (metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && err != redis.Nil {
			observability.RedisErrors.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil {
			observability.RedisErrors.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

// InitRedis connects to Redis from a URL. On failure it logs and leaves the
// cache disabled.
func InitRedis(redisURL string) *redis.Client {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		middleware.Logger.Warn("invalid redis url, caching disabled",
			slog.String("error", err.Error()))
		return nil
	}

	rdb := redis.NewClient(opts)
	rdb.AddHook(metricsHook{})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		middleware.Logger.Warn("redis unreachable, caching disabled",
			slog.String("error", err.Error()))
		client = nil
		return nil
	}

	client = rdb
	return rdb
}

// GetClient returns the shared client, or nil when caching is disabled.
func GetClient() *redis.Client {
	return client
}

// SetClient swaps the shared client. Tests use it with miniredis.
func SetClient(rdb *redis.Client) {
	client = rdb
}
