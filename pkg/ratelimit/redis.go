package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// slidingWindowScript атомарно чистит окно, проверяет и добавляет n отметок
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local count = tonumber(ARGV[4])
local nonce = ARGV[5]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local current = redis.call('ZCARD', key)

if current + count > limit then
	return {0, limit - current}
end

for i = 1, count do
	redis.call('ZADD', key, now, nonce .. ':' .. i)
end
redis.call('PEXPIRE', key, window + 1000)
return {1, limit - current - count}
`)

// RedisLimiter sliding window в Redis, общий для реплик сервиса
type RedisLimiter struct {
	client *redis.Client
	config *Config
	seq    atomic.Uint64
}

// NewRedisLimiter проверяет соединение PING с таймаутом 5s
func NewRedisLimiter(cfg *Config) (*RedisLimiter, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisLimiter{client: client, config: cfg}, nil
}

func redisKey(key string) string {
	return "mcint:ratelimit:" + key
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return l.AllowN(ctx, key, 1)
}

func (l *RedisLimiter) AllowN(ctx context.Context, key string, n int) (bool, error) {
	now := time.Now()
	nonce := strconv.FormatInt(now.UnixNano(), 36) + "-" + strconv.FormatUint(l.seq.Add(1), 36)

	result, err := slidingWindowScript.Run(ctx, l.client, []string{redisKey(key)},
		l.config.Requests, l.config.Window.Milliseconds(), now.UnixMilli(), n, nonce).Int64Slice()
	if err != nil {
		return false, fmt.Errorf("redis script error: %w", err)
	}
	if len(result) == 0 {
		return false, fmt.Errorf("unexpected empty result from redis script")
	}

	return result[0] == 1, nil
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, redisKey(key)).Err()
}

// Info ResetAt по самой старой отметке в окне: тогда освободится первый слот
func (l *RedisLimiter) Info(ctx context.Context, key string) (*LimitInfo, error) {
	now := time.Now()
	k := redisKey(key)
	from := strconv.FormatInt(now.Add(-l.config.Window).UnixMilli(), 10)

	pipe := l.client.Pipeline()
	countCmd := pipe.ZCount(ctx, k, from, "+inf")
	oldestCmd := pipe.ZRangeByScoreWithScores(ctx, k, &redis.ZRangeBy{Min: from, Max: "+inf", Count: 1})
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis info: %w", err)
	}

	info := &LimitInfo{
		Limit:     l.config.Requests,
		Remaining: max(l.config.Requests-int(countCmd.Val()), 0),
		ResetAt:   now.Add(l.config.Window),
	}
	if oldest := oldestCmd.Val(); len(oldest) > 0 {
		info.ResetAt = time.UnixMilli(int64(oldest[0].Score)).Add(l.config.Window)
	}
	return info, nil
}

func (l *RedisLimiter) Close() error {
	return l.client.Close()
}
