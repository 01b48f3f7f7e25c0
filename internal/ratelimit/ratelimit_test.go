package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestRedisLimiter_FixedWindow(t *testing.T) {
	client, mr := setupTestRedis(t)
	limiter := NewRedisLimiter(client, "ratelimit:image", 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := limiter.Allow(ctx, "203.0.113.7")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d", i+1)
		assert.Equal(t, 2-i, d.Remaining)
	}

	d, err := limiter.Allow(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, d.RetryAfter, time.Minute)

	// Other clients have their own window.
	d, err = limiter.Allow(ctx, "198.51.100.1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	mr.FastForward(time.Minute + time.Second)

	d, err = limiter.Allow(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRedisLimiter_SharedAcrossInstances(t *testing.T) {
	client, _ := setupTestRedis(t)
	a := NewRedisLimiter(client, "ratelimit:image", 2, time.Minute)
	b := NewRedisLimiter(client, "ratelimit:image", 2, time.Minute)
	ctx := context.Background()

	d, _ := a.Allow(ctx, "ip")
	assert.True(t, d.Allowed)
	d, _ = b.Allow(ctx, "ip")
	assert.True(t, d.Allowed)
	d, _ = a.Allow(ctx, "ip")
	assert.False(t, d.Allowed)
}

func TestRedisLimiter_RepairsMissingExpiry(t *testing.T) {
	client, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("ratelimit:image:ip", "1"))

	limiter := NewRedisLimiter(client, "ratelimit:image", 5, time.Minute)
	_, err := limiter.Allow(context.Background(), "ip")
	require.NoError(t, err)

	assert.Equal(t, time.Minute, mr.TTL("ratelimit:image:ip"))
}

func TestRedisLimiter_Unavailable(t *testing.T) {
	client, mr := setupTestRedis(t)
	mr.Close()

	_, err := NewRedisLimiter(client, "ratelimit:image", 5, time.Minute).Allow(context.Background(), "ip")
	assert.Error(t, err)
}

func TestMemoryLimiter(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewMemoryLimiter(5, time.Minute)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		d, err := limiter.Allow(ctx, "ip")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d", i+1)
	}

	d, err := limiter.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 12*time.Second, d.RetryAfter)
	assert.Equal(t, 12, d.RetryAfterSeconds())

	d, _ = limiter.Allow(ctx, "other")
	assert.True(t, d.Allowed)

	now = now.Add(12 * time.Second)
	d, _ = limiter.Allow(ctx, "ip")
	assert.True(t, d.Allowed)
}

func TestMemoryLimiter_EvictIdle(t *testing.T) {
	now := time.Now()
	limiter := NewMemoryLimiter(1, time.Minute)
	limiter.now = func() time.Time { return now }

	_, _ = limiter.Allow(context.Background(), "ip")
	assert.Len(t, limiter.limiters, 1)

	now = now.Add(3 * time.Minute)
	limiter.evictIdle()
	assert.Empty(t, limiter.limiters)
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 1, Decision{RetryAfter: 0}.RetryAfterSeconds())
	assert.Equal(t, 1, Decision{RetryAfter: 200 * time.Millisecond}.RetryAfterSeconds())
	assert.Equal(t, 2, Decision{RetryAfter: 1001 * time.Millisecond}.RetryAfterSeconds())
}
