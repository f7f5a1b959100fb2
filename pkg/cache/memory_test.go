package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoryCache_SetGet(t *testing.T) {
	cache := NewMemoryCache(&Options{DefaultTTL: time.Minute, MaxEntries: 100})
	defer cache.Close()

	ctx := context.Background()
	if err := cache.Set(ctx, "k", []byte("value"), 0); err != nil {
		t.Fatalf("failed to set: %v", err)
	}

	got, err := cache.Get(ctx, "k")
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if string(got) != "value" {
		t.Errorf("expected value, got %s", got)
	}
}

func TestMemoryCache_ReturnsCopy(t *testing.T) {
	cache := NewMemoryCache(nil)
	defer cache.Close()

	ctx := context.Background()
	original := []byte("abc")
	_ = cache.Set(ctx, "k", original, 0)
	original[0] = 'x'

	got, _ := cache.Get(ctx, "k")
	got[1] = 'y'

	again, _ := cache.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("stored value was mutated: %s", again)
	}
}

func TestMemoryCache_GetNotFound(t *testing.T) {
	cache := NewMemoryCache(nil)
	defer cache.Close()

	_, err := cache.Get(context.Background(), "nonexistent")
	if !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestMemoryCache_Expiration(t *testing.T) {
	cache := NewMemoryCache(nil)
	defer cache.Close()

	ctx := context.Background()
	_ = cache.Set(ctx, "short", []byte("v"), 20*time.Millisecond)

	if ok, _ := cache.Exists(ctx, "short"); !ok {
		t.Fatal("key should exist right after Set")
	}

	time.Sleep(40 * time.Millisecond)

	if _, err := cache.Get(ctx, "short"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected expired key, got %v", err)
	}
	if ok, _ := cache.Exists(ctx, "short"); ok {
		t.Error("expired key should not exist")
	}
}

func TestMemoryCache_Overwrite(t *testing.T) {
	cache := NewMemoryCache(&Options{MaxEntries: 2})
	defer cache.Close()

	ctx := context.Background()
	_ = cache.Set(ctx, "a", []byte("1"), 0)
	_ = cache.Set(ctx, "a", []byte("2"), 0)
	_ = cache.Set(ctx, "b", []byte("3"), 0)

	got, err := cache.Get(ctx, "a")
	if err != nil || string(got) != "2" {
		t.Errorf("Get(a) = %s, %v", got, err)
	}
	if _, err := cache.Get(ctx, "b"); err != nil {
		t.Errorf("overwrite must not evict other keys: %v", err)
	}
}

func TestMemoryCache_LRUEviction(t *testing.T) {
	cache := NewMemoryCache(&Options{MaxEntries: 3})
	defer cache.Close()

	ctx := context.Background()
	for _, k := range []string{"a", "b", "c"} {
		_ = cache.Set(ctx, k, []byte(k), 0)
	}

	// a становится самым свежим, вытесняется b
	if _, err := cache.Get(ctx, "a"); err != nil {
		t.Fatalf("Get(a): %v", err)
	}
	_ = cache.Set(ctx, "d", []byte("d"), 0)

	if _, err := cache.Get(ctx, "b"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("b should have been evicted, err = %v", err)
	}
	for _, k := range []string{"a", "c", "d"} {
		if _, err := cache.Get(ctx, k); err != nil {
			t.Errorf("%s should be present: %v", k, err)
		}
	}
}

func TestMemoryCache_Delete(t *testing.T) {
	cache := NewMemoryCache(nil)
	defer cache.Close()

	ctx := context.Background()
	_ = cache.Set(ctx, "k", []byte("v"), 0)

	if err := cache.Delete(ctx, "k"); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}
	if ok, _ := cache.Exists(ctx, "k"); ok {
		t.Error("key should be deleted")
	}
	if err := cache.Delete(ctx, "missing"); err != nil {
		t.Errorf("deleting a missing key should not fail: %v", err)
	}
}

func TestMemoryCache_DeleteByPattern(t *testing.T) {
	cache := NewMemoryCache(nil)
	defer cache.Close()

	ctx := context.Background()
	keys := []string{"integrate:uniform:1", "integrate:uniform:2", "integrate:importance:1", "other"}
	for _, k := range keys {
		_ = cache.Set(ctx, k, []byte("v"), 0)
	}

	n, err := cache.DeleteByPattern(ctx, "integrate:uniform:*")
	if err != nil {
		t.Fatalf("DeleteByPattern() error = %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d keys, want 2", n)
	}
	if ok, _ := cache.Exists(ctx, "integrate:importance:1"); !ok {
		t.Error("importance key should survive")
	}
}

func TestMemoryCache_Stats(t *testing.T) {
	cache := NewMemoryCache(nil)
	defer cache.Close()

	ctx := context.Background()
	_ = cache.Set(ctx, "k", []byte("12345"), 0)
	_, _ = cache.Get(ctx, "k")
	_, _ = cache.Get(ctx, "k")
	_, _ = cache.Get(ctx, "missing")

	stats, err := cache.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalKeys != 1 || stats.Hits != 2 || stats.Misses != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.MemoryBytes != 5 {
		t.Errorf("MemoryBytes = %d, want 5", stats.MemoryBytes)
	}
	if stats.HitRate < 0.66 || stats.HitRate > 0.67 {
		t.Errorf("HitRate = %v", stats.HitRate)
	}

	hits, misses, size := cache.Counters()
	if hits != 2 || misses != 1 || size != 1 {
		t.Errorf("Counters() = %d %d %d", hits, misses, size)
	}
}

func TestMemoryCache_Clear(t *testing.T) {
	cache := NewMemoryCache(nil)
	defer cache.Close()

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		_ = cache.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"), 0)
	}
	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	stats, _ := cache.Stats(ctx)
	if stats.TotalKeys != 0 {
		t.Errorf("TotalKeys = %d after Clear", stats.TotalKeys)
	}
}

func TestMemoryCache_Closed(t *testing.T) {
	cache := NewMemoryCache(nil)
	if err := cache.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := cache.Close(); err != nil {
		t.Errorf("second Close() should be a no-op, got %v", err)
	}

	ctx := context.Background()
	if _, err := cache.Get(ctx, "k"); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Get on closed cache: %v", err)
	}
	if err := cache.Set(ctx, "k", nil, 0); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Set on closed cache: %v", err)
	}
}

func TestMemoryCache_Concurrent(t *testing.T) {
	cache := NewMemoryCache(&Options{MaxEntries: 50})
	defer cache.Close()

	ctx := context.Background()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (g*200+i)%75)
				_ = cache.Set(ctx, key, []byte("v"), 0)
				_, _ = cache.Get(ctx, key)
			}
		}(g)
	}
	wg.Wait()

	stats, _ := cache.Stats(ctx)
	if stats.TotalKeys > 50 {
		t.Errorf("TotalKeys = %d exceeds MaxEntries", stats.TotalKeys)
	}
}

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		pattern, key string
		want         bool
	}{
		{"*", "anything", true},
		{"integrate:*", "integrate:uniform:abc", true},
		{"integrate:*", "other:abc", false},
		{"*:abc", "integrate:abc", true},
		{"integrate:*:abc", "integrate:uniform:abc", true},
		{"integrate:*:abc", "integrate:abc", false},
		{"exact", "exact", true},
		{"exact", "exactly", false},
	}

	for _, tt := range tests {
		if got := matchPattern(tt.pattern, tt.key); got != tt.want {
			t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.pattern, tt.key, got, tt.want)
		}
	}
}
