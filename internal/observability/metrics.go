// Package observability holds metrics and tracing setup.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HomeCacheHits counts home listing requests served from the cache.
	HomeCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plume_home_cache_hits_total",
		Help: "Number of home listing requests served from the cache",
	})

	// HomeCacheMisses counts home listing requests that hit the database.
	HomeCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plume_home_cache_misses_total",
		Help: "Number of home listing requests rendered from the database",
	})

	// RedisErrors counts Redis command failures by operation.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plume_redis_errors_total",
		Help: "Number of Redis command errors",
	}, []string{"operation"})

	// DatabaseQueryLatency observes repository query durations.
	DatabaseQueryLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "plume_db_query_duration_seconds",
		Help:    "Database query latency",
		Buckets: prometheus.DefBuckets,
	})
)
