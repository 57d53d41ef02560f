package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window limiter backed by Redis, for deployments
// with more than one API instance. INCR creates the counter atomically;
// EXPIRE is set only on the first hit of the window.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	if limit <= 0 {
		limit = 5
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: "ratelimit:",
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := l.prefix + key

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, fmt.Errorf("rate limit expire: %w", err)
		}
	}

	return count <= int64(l.limit), nil
}
