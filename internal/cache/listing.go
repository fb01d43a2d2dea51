package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"plume/internal/middleware"
	"plume/internal/observability"
)

// ListingKey is the single cache key for the first page of the home listing.
// It is a fixed key: all visitors share one cached rendering.
const ListingKey = "index_page"

// GetListing returns the cached home listing body, if present.
func GetListing(ctx context.Context) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	body, err := client.Get(ctx, ListingKey).Bytes()
	if err == redis.Nil {
		observability.HomeCacheMisses.Inc()
		return nil, false
	}
	if err != nil {
		middleware.Logger.Warn("cache read failed", slog.String("error", err.Error()))
		observability.HomeCacheMisses.Inc()
		return nil, false
	}
	observability.HomeCacheHits.Inc()
	return body, true
}

// SetListing stores the home listing body for ttl. Errors are logged and
// swallowed.
func SetListing(ctx context.Context, body []byte, ttl time.Duration) {
	if client == nil || ttl <= 0 {
		return
	}
	if err := client.Set(ctx, ListingKey, body, ttl).Err(); err != nil {
		middleware.Logger.Warn("cache write failed", slog.String("error", err.Error()))
	}
}

// ClearListing drops the cached home listing. Nothing in the write path calls
// this; staleness up to the TTL is accepted. It exists for operational use.
func ClearListing(ctx context.Context) {
	if client == nil {
		return
	}
	if err := client.Del(ctx, ListingKey).Err(); err != nil {
		middleware.Logger.Warn("cache clear failed", slog.String("error", err.Error()))
	}
}
