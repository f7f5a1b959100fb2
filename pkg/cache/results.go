package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"montecarlo/pkg/api"
	"montecarlo/pkg/logger"
)

// ResultCache типизированный кэш ответов Integrate
type ResultCache struct {
	cache      Cache
	defaultTTL time.Duration
}

// NewResultCache оборачивает байтовый кэш
func NewResultCache(c Cache, defaultTTL time.Duration) *ResultCache {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	return &ResultCache{cache: c, defaultTTL: defaultTTL}
}

// Get возвращает (nil, false, nil) при промахе
func (rc *ResultCache) Get(ctx context.Context, key RunKey) (*api.IntegrateResponse, bool, error) {
	if !key.Cacheable() {
		return nil, false, nil
	}

	k := BuildIntegrateKey(key)
	data, err := rc.cache.Get(ctx, k)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var resp api.IntegrateResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		logger.Log.Warn("Dropping corrupted cache entry", "key", k, "error", err)
		_ = rc.cache.Delete(ctx, k) //nolint:errcheck // best effort cleanup
		return nil, false, nil
	}
	return &resp, true, nil
}

// Set сохраняет ответ; недетерминированные прогоны не кэшируются
func (rc *ResultCache) Set(ctx context.Context, key RunKey, resp *api.IntegrateResponse, ttl time.Duration) error {
	if resp == nil || !key.Cacheable() {
		return nil
	}
	if ttl <= 0 {
		ttl = rc.defaultTTL
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return rc.cache.Set(ctx, BuildIntegrateKey(key), data, ttl)
}

// InvalidateMethod удаляет все результаты метода
func (rc *ResultCache) InvalidateMethod(ctx context.Context, method api.Method) (int64, error) {
	return rc.cache.DeleteByPattern(ctx, keyPrefix+string(method)+":*")
}

// InvalidateAll удаляет все результаты
func (rc *ResultCache) InvalidateAll(ctx context.Context) (int64, error) {
	return rc.cache.DeleteByPattern(ctx, keyPrefix+"*")
}
