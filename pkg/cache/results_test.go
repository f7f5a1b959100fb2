package cache

import (
	"context"
	"testing"
	"time"

	"montecarlo/pkg/api"
)

func TestResultCache_RoundTrip(t *testing.T) {
	mem := NewMemoryCache(nil)
	defer mem.Close()
	rc := NewResultCache(mem, 0)

	ctx := context.Background()
	key := benchmarkKey()

	if _, ok, err := rc.Get(ctx, key); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	resp := &api.IntegrateResponse{
		RunID:     "run-1",
		Integrand: "benchmark",
		Upper:     15,
		Policy:    api.PolicySize,
		Result: api.SamplingResult{
			Method:   api.MethodImportance,
			Estimate: 601.9,
			Samples:  100000,
			Interval: api.Interval{Lower: 601.1, Upper: 602.7, Width: 1.6, Text: "[601.100,602.700]"},
		},
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	if err := rc.Set(ctx, key, resp, 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok, err := rc.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got.Result.Estimate != 601.9 || got.Result.Interval.Text != "[601.100,602.700]" {
		t.Errorf("unexpected cached result: %+v", got.Result)
	}
	if !got.CreatedAt.Equal(resp.CreatedAt) {
		t.Errorf("CreatedAt = %v", got.CreatedAt)
	}
}

func TestResultCache_SkipsNonDeterministic(t *testing.T) {
	mem := NewMemoryCache(nil)
	defer mem.Close()
	rc := NewResultCache(mem, time.Minute)

	ctx := context.Background()
	key := benchmarkKey()
	key.Seed = nil

	if err := rc.Set(ctx, key, &api.IntegrateResponse{RunID: "x"}, 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	stats, _ := mem.Stats(ctx)
	if stats.TotalKeys != 0 {
		t.Errorf("unseeded result should not be stored, keys = %d", stats.TotalKeys)
	}
}

func TestResultCache_CorruptedEntry(t *testing.T) {
	mem := NewMemoryCache(nil)
	defer mem.Close()
	rc := NewResultCache(mem, time.Minute)

	ctx := context.Background()
	key := benchmarkKey()
	_ = mem.Set(ctx, BuildIntegrateKey(key), []byte("{not json"), 0)

	if _, ok, err := rc.Get(ctx, key); ok || err != nil {
		t.Fatalf("corrupted entry should be a miss, got ok=%v err=%v", ok, err)
	}
	if exists, _ := mem.Exists(ctx, BuildIntegrateKey(key)); exists {
		t.Error("corrupted entry should be removed")
	}
}

func TestResultCache_Invalidate(t *testing.T) {
	mem := NewMemoryCache(nil)
	defer mem.Close()
	rc := NewResultCache(mem, time.Minute)

	ctx := context.Background()
	for _, m := range api.Methods {
		k := benchmarkKey()
		k.Method = m
		_ = rc.Set(ctx, k, &api.IntegrateResponse{RunID: string(m)}, 0)
	}

	n, err := rc.InvalidateMethod(ctx, api.MethodUniform)
	if err != nil || n != 1 {
		t.Fatalf("InvalidateMethod() = %d, %v", n, err)
	}

	n, err = rc.InvalidateAll(ctx)
	if err != nil || n != 2 {
		t.Fatalf("InvalidateAll() = %d, %v", n, err)
	}
}
