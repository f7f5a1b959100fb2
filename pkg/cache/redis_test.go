package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

func skipIfNoRedis(t *testing.T) {
	if os.Getenv("REDIS_TEST_ADDR") == "" {
		t.Skip("REDIS_TEST_ADDR not set, skipping Redis tests")
	}
}

func newTestRedis(t *testing.T) *RedisCache {
	t.Helper()
	skipIfNoRedis(t)

	cache, err := NewRedisCache(&Options{
		Backend:       BackendRedis,
		RedisAddr:     os.Getenv("REDIS_TEST_ADDR"),
		RedisPassword: os.Getenv("REDIS_TEST_PASSWORD"),
		DefaultTTL:    time.Minute,
	})
	if err != nil {
		t.Fatalf("NewRedisCache() error = %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestRedisCache_SetGetDelete(t *testing.T) {
	cache := newTestRedis(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "mc-test:key", []byte("value"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := cache.Get(ctx, "mc-test:key")
	if err != nil || string(got) != "value" {
		t.Fatalf("Get() = %s, %v", got, err)
	}

	if err := cache.Delete(ctx, "mc-test:key"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := cache.Get(ctx, "mc-test:key"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestRedisCache_DeleteByPattern(t *testing.T) {
	cache := newTestRedis(t)
	ctx := context.Background()

	for _, k := range []string{"mc-test:p:1", "mc-test:p:2", "mc-test:q:1"} {
		_ = cache.Set(ctx, k, []byte("v"), time.Minute)
	}

	n, err := cache.DeleteByPattern(ctx, "mc-test:p:*")
	if err != nil {
		t.Fatalf("DeleteByPattern() error = %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d, want 2", n)
	}
	_ = cache.Delete(ctx, "mc-test:q:1")
}

func TestRedisCache_Stats(t *testing.T) {
	cache := newTestRedis(t)

	stats, err := cache.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Backend != BackendRedis {
		t.Errorf("Backend = %s", stats.Backend)
	}
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	_, err := NewRedisCache(&Options{RedisAddr: "127.0.0.1:1"})
	if err == nil {
		t.Error("expected error for unreachable redis")
	}
}

func TestParseInfoInt(t *testing.T) {
	if parseInfoInt("42") != 42 {
		t.Error("parseInfoInt(42)")
	}
	if parseInfoInt("n/a") != 0 {
		t.Error("non-numeric value should be 0")
	}
}
