// Package ratelimit ограничивает частоту запросов к сервису интегрирования.
// Запросы имеют вес: Compare запускает несколько оценщиков и стоит дороже Integrate.
package ratelimit

import (
	"context"
	"errors"
	"time"

	"montecarlo/pkg/config"
)

// Стратегии
const (
	StrategyTokenBucket   = "token_bucket"
	StrategySlidingWindow = "sliding_window"
)

var (
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrLimiterClosed     = errors.New("limiter is closed")
)

// Limiter ограничитель запросов по ключу (адрес клиента)
type Limiter interface {
	// Allow эквивалент AllowN(ctx, key, 1)
	Allow(ctx context.Context, key string) (bool, error)
	// AllowN атомарно списывает n единиц или отказывает целиком
	AllowN(ctx context.Context, key string, n int) (bool, error)
	Reset(ctx context.Context, key string) error
	Info(ctx context.Context, key string) (*LimitInfo, error)
	Close() error
}

// LimitInfo состояние лимита ключа
type LimitInfo struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}

// Config конфигурация лимитера
type Config struct {
	Requests        int
	Window          time.Duration
	Strategy        string
	Backend         string
	BurstSize       int
	CleanupInterval time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// DefaultConfig конфигурация по умолчанию
func DefaultConfig() *Config {
	return &Config{
		Requests:        100,
		Window:          time.Minute,
		Strategy:        StrategyTokenBucket,
		Backend:         "memory",
		BurstSize:       10,
		CleanupInterval: 5 * time.Minute,
	}
}

// FromConfig переносит секцию rate_limit
func FromConfig(cfg config.RateLimitConfig) *Config {
	c := DefaultConfig()
	if cfg.Requests > 0 {
		c.Requests = cfg.Requests
	}
	if cfg.Window > 0 {
		c.Window = cfg.Window
	}
	if cfg.Strategy != "" {
		c.Strategy = cfg.Strategy
	}
	if cfg.Backend != "" {
		c.Backend = cfg.Backend
	}
	if cfg.BurstSize >= 0 {
		c.BurstSize = cfg.BurstSize
	}
	if cfg.CleanupInterval > 0 {
		c.CleanupInterval = cfg.CleanupInterval
	}
	c.RedisAddr = cfg.RedisAddr
	return c
}

// New создаёт лимитер на основе конфигурации
func New(cfg *Config) (Limiter, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if cfg.Backend == "redis" {
		return NewRedisLimiter(cfg)
	}
	return NewMemoryLimiter(cfg), nil
}

// Costs вес процедур; отсутствующая процедура стоит 1
type Costs map[string]int

// Of вес процедуры
func (c Costs) Of(procedure string) int {
	if n, ok := c[procedure]; ok && n > 0 {
		return n
	}
	return 1
}
