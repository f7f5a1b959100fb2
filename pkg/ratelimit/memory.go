package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MemoryLimiter in-memory лимитер одного процесса
type MemoryLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	config  *Config
	stopCh  chan struct{}
	closed  bool
}

type client struct {
	bucket   *rate.Limiter // token_bucket
	requests []time.Time   // sliding_window
	lastSeen time.Time
}

// NewMemoryLimiter создаёт лимитер и запускает очистку неактивных ключей
func NewMemoryLimiter(cfg *Config) *MemoryLimiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}

	l := &MemoryLimiter{
		clients: make(map[string]*client),
		config:  cfg,
		stopCh:  make(chan struct{}),
	}
	go l.cleanupLoop()

	return l
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return l.AllowN(ctx, key, 1)
}

func (l *MemoryLimiter) AllowN(_ context.Context, key string, n int) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return false, ErrLimiterClosed
	}

	now := time.Now()
	c := l.clientFor(key, now)
	c.lastSeen = now

	if l.config.Strategy == StrategySlidingWindow {
		return l.allowWindow(c, n, now), nil
	}
	return c.bucket.AllowN(now, n), nil
}

// clientFor вызывается под l.mu
func (l *MemoryLimiter) clientFor(key string, now time.Time) *client {
	c, ok := l.clients[key]
	if !ok {
		c = &client{
			bucket:   rate.NewLimiter(l.refillRate(), l.config.Requests+l.config.BurstSize),
			lastSeen: now,
		}
		l.clients[key] = c
	}
	return c
}

// refillRate Requests единиц за Window
func (l *MemoryLimiter) refillRate() rate.Limit {
	if l.config.Window <= 0 {
		return rate.Inf
	}
	return rate.Limit(float64(l.config.Requests) / l.config.Window.Seconds())
}

func (l *MemoryLimiter) allowWindow(c *client, n int, now time.Time) bool {
	c.requests = trimBefore(c.requests, now.Add(-l.config.Window))
	if len(c.requests)+n > l.config.Requests {
		return false
	}
	for i := 0; i < n; i++ {
		c.requests = append(c.requests, now)
	}
	return true
}

// trimBefore отбрасывает отметки не позже start (отметки упорядочены)
func trimBefore(ts []time.Time, start time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(start) {
		i++
	}
	return ts[i:]
}

func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.clients, key)
	l.mu.Unlock()
	return nil
}

func (l *MemoryLimiter) Info(_ context.Context, key string) (*LimitInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	info := &LimitInfo{Limit: l.config.Requests, Remaining: l.config.Requests, ResetAt: now.Add(l.config.Window)}

	c, ok := l.clients[key]
	if !ok {
		return info, nil
	}

	if l.config.Strategy == StrategySlidingWindow {
		c.requests = trimBefore(c.requests, now.Add(-l.config.Window))
		info.Remaining = l.config.Requests - len(c.requests)
		if len(c.requests) > 0 {
			info.ResetAt = c.requests[0].Add(l.config.Window)
		}
	} else {
		info.Remaining = int(c.bucket.TokensAt(now))
	}
	if info.Remaining < 0 {
		info.Remaining = 0
	}
	return info, nil
}

func (l *MemoryLimiter) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	close(l.stopCh)
	l.clients = nil
	return nil
}

func (l *MemoryLimiter) cleanupLoop() {
	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case now := <-ticker.C:
			l.removeIdle(now)
		}
	}
}

// removeIdle удаляет ключи без запросов дольше двух окон
func (l *MemoryLimiter) removeIdle(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idle := now.Add(-2 * l.config.Window)
	for key, c := range l.clients {
		if c.lastSeen.Before(idle) {
			delete(l.clients, key)
		}
	}
}
