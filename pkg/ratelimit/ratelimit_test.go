package ratelimit

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"montecarlo/pkg/config"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Requests <= 0 {
		t.Error("Requests should be positive")
	}
	if cfg.Window <= 0 {
		t.Error("Window should be positive")
	}
	if cfg.Strategy != StrategyTokenBucket {
		t.Errorf("Strategy = %s", cfg.Strategy)
	}
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(config.RateLimitConfig{
		Requests:  20,
		Window:    10 * time.Second,
		Strategy:  StrategySlidingWindow,
		Backend:   "redis",
		BurstSize: 0,
		RedisAddr: "redis:6379",
	})

	if cfg.Requests != 20 || cfg.Window != 10*time.Second {
		t.Errorf("limits not copied: %+v", cfg)
	}
	if cfg.Strategy != StrategySlidingWindow || cfg.Backend != "redis" || cfg.RedisAddr != "redis:6379" {
		t.Errorf("backend not copied: %+v", cfg)
	}
	if cfg.BurstSize != 0 {
		t.Errorf("BurstSize = %d, want 0", cfg.BurstSize)
	}

	empty := FromConfig(config.RateLimitConfig{})
	if empty.Requests != 100 || empty.Window != time.Minute {
		t.Errorf("defaults not kept: %+v", empty)
	}
}

func TestCosts(t *testing.T) {
	costs := Costs{"/svc/Compare": 3, "/svc/Broken": 0}

	if costs.Of("/svc/Compare") != 3 {
		t.Error("Compare should cost 3")
	}
	if costs.Of("/svc/Integrate") != 1 {
		t.Error("unknown procedure should cost 1")
	}
	if costs.Of("/svc/Broken") != 1 {
		t.Error("non-positive cost should fall back to 1")
	}
}

func TestMemoryLimiter_SlidingWindow(t *testing.T) {
	limiter := NewMemoryLimiter(&Config{
		Requests: 5,
		Window:   200 * time.Millisecond,
		Strategy: StrategySlidingWindow,
	})
	defer limiter.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		allowed, err := limiter.Allow(ctx, "client")
		if err != nil {
			t.Fatalf("Allow() error = %v", err)
		}
		if !allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	if allowed, _ := limiter.Allow(ctx, "client"); allowed {
		t.Error("6th request should be denied")
	}
	if allowed, _ := limiter.Allow(ctx, "other"); !allowed {
		t.Error("keys must be limited independently")
	}

	time.Sleep(250 * time.Millisecond)
	if allowed, _ := limiter.Allow(ctx, "client"); !allowed {
		t.Error("request should be allowed after the window slides")
	}
}

func TestMemoryLimiter_AllowN(t *testing.T) {
	limiter := NewMemoryLimiter(&Config{
		Requests: 5,
		Window:   time.Minute,
		Strategy: StrategySlidingWindow,
	})
	defer limiter.Close()

	ctx := context.Background()
	if allowed, _ := limiter.AllowN(ctx, "k", 3); !allowed {
		t.Fatal("first 3 should be allowed")
	}
	if allowed, _ := limiter.AllowN(ctx, "k", 3); allowed {
		t.Error("3 more would exceed the limit")
	}
	if allowed, _ := limiter.AllowN(ctx, "k", 2); !allowed {
		t.Error("denied request must not consume capacity")
	}
}

func TestMemoryLimiter_TokenBucket(t *testing.T) {
	limiter := NewMemoryLimiter(&Config{
		Requests:  2,
		Window:    time.Hour,
		Strategy:  StrategyTokenBucket,
		BurstSize: 1,
	})
	defer limiter.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if allowed, _ := limiter.Allow(ctx, "k"); !allowed {
			t.Fatalf("request %d should fit into Requests+BurstSize", i+1)
		}
	}
	if allowed, _ := limiter.Allow(ctx, "k"); allowed {
		t.Error("bucket should be empty")
	}

	info, err := limiter.Info(ctx, "k")
	if err != nil {
		t.Fatalf("Info() error = %v", err)
	}
	if info.Remaining != 0 || info.Limit != 2 {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestMemoryLimiter_InfoUnknownKey(t *testing.T) {
	limiter := NewMemoryLimiter(nil)
	defer limiter.Close()

	info, err := limiter.Info(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Info() error = %v", err)
	}
	if info.Remaining != info.Limit {
		t.Errorf("fresh key should have full quota: %+v", info)
	}
}

func TestMemoryLimiter_Reset(t *testing.T) {
	limiter := NewMemoryLimiter(&Config{Requests: 1, Window: time.Minute, Strategy: StrategySlidingWindow})
	defer limiter.Close()

	ctx := context.Background()
	_, _ = limiter.Allow(ctx, "k")
	if allowed, _ := limiter.Allow(ctx, "k"); allowed {
		t.Fatal("second request should be denied")
	}

	_ = limiter.Reset(ctx, "k")
	if allowed, _ := limiter.Allow(ctx, "k"); !allowed {
		t.Error("request should be allowed after Reset")
	}
}

func TestMemoryLimiter_RemoveIdle(t *testing.T) {
	limiter := NewMemoryLimiter(&Config{Requests: 1, Window: time.Millisecond, Strategy: StrategySlidingWindow})
	defer limiter.Close()

	_, _ = limiter.Allow(context.Background(), "k")
	limiter.removeIdle(time.Now().Add(time.Second))

	limiter.mu.Lock()
	n := len(limiter.clients)
	limiter.mu.Unlock()
	if n != 0 {
		t.Errorf("idle client should be removed, %d left", n)
	}
}

func TestMemoryLimiter_Closed(t *testing.T) {
	limiter := NewMemoryLimiter(nil)
	_ = limiter.Close()
	_ = limiter.Close()

	if _, err := limiter.Allow(context.Background(), "k"); !errors.Is(err, ErrLimiterClosed) {
		t.Errorf("expected ErrLimiterClosed, got %v", err)
	}
}

func TestNew(t *testing.T) {
	l, err := New(nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer l.Close()

	if _, ok := l.(*MemoryLimiter); !ok {
		t.Errorf("expected *MemoryLimiter, got %T", l)
	}
}

func TestTrimBefore(t *testing.T) {
	base := time.Now()
	ts := []time.Time{base, base.Add(time.Second), base.Add(2 * time.Second)}

	got := trimBefore(ts, base.Add(time.Second))
	if len(got) != 1 || !got[0].Equal(base.Add(2*time.Second)) {
		t.Errorf("trimBefore() = %v", got)
	}
}

func TestRedisLimiter(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set, skipping Redis tests")
	}

	limiter, err := NewRedisLimiter(&Config{
		Requests:  3,
		Window:    time.Second,
		RedisAddr: addr,
	})
	if err != nil {
		t.Fatalf("NewRedisLimiter() error = %v", err)
	}
	defer limiter.Close()

	ctx := context.Background()
	key := "mc-test-" + time.Now().Format("150405.000")
	defer limiter.Reset(ctx, key)

	if allowed, err := limiter.AllowN(ctx, key, 3); err != nil || !allowed {
		t.Fatalf("AllowN(3) = %v, %v", allowed, err)
	}
	if allowed, _ := limiter.Allow(ctx, key); allowed {
		t.Error("4th request should be denied")
	}

	info, err := limiter.Info(ctx, key)
	if err != nil || info.Remaining != 0 {
		t.Errorf("Info() = %+v, %v", info, err)
	}
}
