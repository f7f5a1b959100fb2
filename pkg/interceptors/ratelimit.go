package interceptors

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"connectrpc.com/connect"

	"montecarlo/pkg/apperror"
	"montecarlo/pkg/logger"
	"montecarlo/pkg/ratelimit"
)

// KeyExtractor ключ лимита для запроса
type KeyExtractor func(req connect.AnyRequest) string

// DefaultKeyExtractor ключ по X-Forwarded-For, X-Real-IP или адресу соединения
func DefaultKeyExtractor(req connect.AnyRequest) string {
	if xff := req.Header().Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return "ip:" + strings.TrimSpace(first)
	}
	if xri := req.Header().Get("X-Real-IP"); xri != "" {
		return "ip:" + xri
	}
	if addr := req.Peer().Addr; addr != "" {
		if host, _, err := net.SplitHostPort(addr); err == nil {
			return "ip:" + host
		}
		return "ip:" + addr
	}
	return "unknown"
}

// RateLimitInterceptor списывает вес процедуры из лимита клиента
func RateLimitInterceptor(limiter ratelimit.Limiter, costs ratelimit.Costs, keyExtractor KeyExtractor) connect.UnaryInterceptorFunc {
	if keyExtractor == nil {
		keyExtractor = DefaultKeyExtractor
	}

	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			procedure := req.Spec().Procedure
			key := keyExtractor(req)
			cost := costs.Of(procedure)

			allowed, err := limiter.AllowN(ctx, key, cost)
			if err != nil {
				logger.WithContext(ctx).Warn("Rate limit check failed", "error", err, "key", key)
				// fail open
				return next(ctx, req)
			}

			if !allowed {
				info, infoErr := limiter.Info(ctx, key)
				if infoErr != nil {
					logger.WithContext(ctx).Warn("Failed to get rate limit info", "error", infoErr, "key", key)
					info = &ratelimit.LimitInfo{ResetAt: time.Now().Add(time.Minute)}
				}

				logger.WithContext(ctx).Warn("Rate limit exceeded",
					"key", key,
					"procedure", procedure,
					"cost", cost,
					"limit", info.Limit,
				)

				connectErr := apperror.Newf(apperror.CodeRateLimited,
					"rate limit exceeded: retry after %s", time.Until(info.ResetAt).Round(time.Second)).ConnectError()
				connectErr.Meta().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
				connectErr.Meta().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
				connectErr.Meta().Set("X-RateLimit-Reset", info.ResetAt.UTC().Format(time.RFC3339))
				return nil, connectErr
			}

			return next(ctx, req)
		}
	}
}
