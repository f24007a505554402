// Package factory assembles rate limiters from the optional cache
// infrastructure so construction sites do not reimplement client sniffing
// and strategy selection.
package factory

import (
	"context"
	"time"

	"github.com/akashwadhwani35/inbox-party-waitlist/internal/log"
	"github.com/akashwadhwani35/inbox-party-waitlist/pkg/ratelimit"
	"github.com/go-redis/redis/v8"
)

type Cache interface {
	Ping(ctx context.Context) error
}

// RedisClientProvider is implemented by caches that can hand out their raw
// client. The distributed limiter strategy needs it for script evaluation.
type RedisClientProvider interface {
	GetClient() *redis.Client
}

type RateLimiterFactory interface {
	CreateRateLimiter() ratelimit.RateLimiter
}

type DefaultRateLimiterFactory struct {
	config *ratelimit.RateLimitConfig
}

// NewDefaultRateLimiterFactory resolves the limiter strategy once. A cache
// that exposes a reachable Redis client selects the distributed strategy;
// anything else falls back to the in-memory token bucket.
func NewDefaultRateLimiterFactory(requests int, window time.Duration, cache Cache, logger *log.Logger) *DefaultRateLimiterFactory {
	var redisClient *redis.Client

	if cache != nil {
		if provider, ok := cache.(RedisClientProvider); ok {
			redisClient = provider.GetClient()
		}
	}

	if redisClient != nil {
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warn("Failed to connect to Redis for rate limiting, falling back to in-memory", "error", err)
			redisClient = nil
		}
	}

	if redisClient != nil {
		logger.Info("Rate limiting initialized with Redis", "requests", requests, "window", window)
	} else {
		logger.Info("Rate limiting initialized with in-memory limiter", "requests", requests, "window", window)
	}

	return &DefaultRateLimiterFactory{
		config: &ratelimit.RateLimitConfig{
			Requests: requests,
			Window:   window,
			Redis:    redisClient,
			Logger:   logger,
		},
	}
}

func (f *DefaultRateLimiterFactory) CreateRateLimiter() ratelimit.RateLimiter {
	return ratelimit.NewRateLimiter(f.config)
}
