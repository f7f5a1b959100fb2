// Package interceptors connect интерсепторы сервиса интегрирования
package interceptors

import (
	"time"

	"connectrpc.com/connect"

	"montecarlo/pkg/metrics"
	"montecarlo/pkg/ratelimit"
	"montecarlo/pkg/telemetry"
)

// ServerConfig конфигурация серверных интерсепторов
type ServerConfig struct {
	EnableTracing bool
	RateLimiter   ratelimit.Limiter
	Costs         ratelimit.Costs
	KeyExtractor  KeyExtractor
	Metrics       *metrics.Metrics
	Timeout       time.Duration // 0 - без ограничения
}

// Chain возвращает интерсепторы в порядке выполнения: первый - внешний
func Chain(cfg *ServerConfig) []connect.Interceptor {
	if cfg == nil {
		cfg = &ServerConfig{}
	}

	list := []connect.Interceptor{
		RecoveryInterceptor(),
		RequestIDInterceptor(),
	}

	if cfg.EnableTracing {
		list = append(list, telemetry.UnaryInterceptor())
	}

	m := cfg.Metrics
	if m == nil {
		m = metrics.Get()
	}
	list = append(list,
		MetricsInterceptor(m),
		LoggingInterceptor(),
	)

	// Rate Limiting после логирования, чтобы отказы попадали в лог
	if cfg.RateLimiter != nil {
		list = append(list, RateLimitInterceptor(cfg.RateLimiter, cfg.Costs, cfg.KeyExtractor))
	}

	list = append(list, ValidationInterceptor())

	if cfg.Timeout > 0 {
		list = append(list, TimeoutInterceptor(cfg.Timeout))
	}

	// ошибки приложения переводятся в connect последними
	return append(list, ErrorInterceptor())
}

// HandlerOptions опции connect handler: интерсепторы и JSON кодек
func HandlerOptions(cfg *ServerConfig, extra ...connect.HandlerOption) []connect.HandlerOption {
	opts := []connect.HandlerOption{connect.WithInterceptors(Chain(cfg)...)}
	return append(opts, extra...)
}
