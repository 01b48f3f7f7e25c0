package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window counter shared by every instance that
// points at the same Redis.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

// NewRedisClient parses a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	k := r.windowKey(key)

	count, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("redis incr failed: %w", err)
	}
	if count == 1 {
		if err := r.client.PExpire(ctx, k, r.window).Err(); err != nil {
			return Decision{}, fmt.Errorf("redis pexpire failed: %w", err)
		}
	}

	ttl, err := r.client.PTTL(ctx, k).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("redis pttl failed: %w", err)
	}
	if ttl < 0 {
		// A crash between INCR and PEXPIRE leaves a counter with no expiry.
		if err := r.client.PExpire(ctx, k, r.window).Err(); err != nil {
			return Decision{}, fmt.Errorf("redis pexpire failed: %w", err)
		}
		ttl = r.window
	}

	d := Decision{
		Allowed:   count <= int64(r.limit),
		Limit:     r.limit,
		Remaining: max(r.limit-int(count), 0),
	}
	if !d.Allowed {
		d.RetryAfter = ttl
	}
	return d, nil
}

func (r *RedisLimiter) windowKey(key string) string {
	return fmt.Sprintf("%s:%s", r.prefix, key)
}
