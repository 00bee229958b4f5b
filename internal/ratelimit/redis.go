package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window limiter shared by every instance using the
// same Redis. The window starts at the first attempt and expires with the key.
type RedisLimiter struct {
	rdb     *redis.Client
	prefix  string
	maxReqs int
	period  time.Duration
}

// NewRedisClient parses a redis:// URL and checks the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return rdb, nil
}

// NewRedisLimiter creates a limiter storing its counters under "ratelimit:".
func NewRedisLimiter(rdb *redis.Client, maxRequests int, period time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, prefix: "ratelimit:", maxReqs: maxRequests, period: period}
}

// Allow implements Limiter.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return true, nil
	}
	k := l.prefix + key

	n, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("counting attempt: %w", err)
	}
	if n == 1 {
		if err := l.rdb.Expire(ctx, k, l.period).Err(); err != nil {
			return false, fmt.Errorf("setting window expiry: %w", err)
		}
	}

	return n <= int64(l.maxReqs), nil
}

// Reset implements Limiter.
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := l.rdb.Del(ctx, l.prefix+key).Err(); err != nil {
		return fmt.Errorf("resetting attempts: %w", err)
	}
	return nil
}
