package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return client, mr
}

func TestRedisLimiter(t *testing.T) {
	rdb, mr := setupTestRedis(t)
	l := NewRedisLimiter(rdb, 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "login:a")
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if !ok {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if ok, _ := l.Allow(ctx, "login:a"); ok {
		t.Error("third attempt should be throttled")
	}

	if ttl := mr.TTL("ratelimit:login:a"); ttl <= 0 || ttl > time.Minute {
		t.Errorf("expected window expiry within a minute, got %v", ttl)
	}

	mr.FastForward(time.Minute)
	if ok, _ := l.Allow(ctx, "login:a"); !ok {
		t.Error("attempt after the window should be allowed")
	}
}

func TestRedisLimiterReset(t *testing.T) {
	rdb, mr := setupTestRedis(t)
	l := NewRedisLimiter(rdb, 1, time.Hour)
	ctx := context.Background()

	l.Allow(ctx, "admin-login:10.0.0.1")
	if ok, _ := l.Allow(ctx, "admin-login:10.0.0.1"); ok {
		t.Fatal("expected throttling")
	}

	if err := l.Reset(ctx, "admin-login:10.0.0.1"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if mr.Exists("ratelimit:admin-login:10.0.0.1") {
		t.Error("expected counter removed")
	}
	if ok, _ := l.Allow(ctx, "admin-login:10.0.0.1"); !ok {
		t.Error("expected attempt allowed after reset")
	}
}

func TestNewRedisClient(t *testing.T) {
	_, mr := setupTestRedis(t)

	rdb, err := NewRedisClient(context.Background(), "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisClient: %v", err)
	}
	rdb.Close()

	if _, err := NewRedisClient(context.Background(), "not a url"); err == nil {
		t.Error("expected error for invalid url")
	}
}

func TestRedisLimiterError(t *testing.T) {
	rdb, mr := setupTestRedis(t)
	l := NewRedisLimiter(rdb, 1, time.Hour)
	mr.Close()

	if _, err := l.Allow(context.Background(), "k"); err == nil {
		t.Error("expected error when redis is unavailable")
	}
}

var (
	_ Limiter = (*MemoryLimiter)(nil)
	_ Limiter = (*RedisLimiter)(nil)
)
