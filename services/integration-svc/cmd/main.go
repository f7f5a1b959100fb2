// Package main is the entry point for integration-svc.
//
// integration-svc estimates definite integrals of one-dimensional functions
// with Monte Carlo methods and serves them over connect (Connect, gRPC and
// gRPC-Web protocols on a single HTTP port, JSON codec).
//
// # Service Overview
//
//   - Integrate: one estimate with uniform, importance or control variable sampling
//   - Compare: all methods with the same seed and stop rule, variance reduction vs uniform
//   - GetRun, ListRuns, DeleteRun: run history (PostgreSQL or in-memory)
//   - Report: csv, json, markdown, excel or pdf report over stored runs
//   - ListIntegrands: catalogue of built-in functions with default bounds
//
// Plain HTTP routes:
//
//	GET /health              - liveness
//	GET /ready               - dependency checks (database, cache)
//	GET /reports/download    - report as an attachment (?run_ids=a,b&format=pdf)
//	GET /metrics             - Prometheus (or on metrics.port)
//	GET /swagger/            - Swagger UI over the embedded OpenAPI document
//
// # Configuration
//
// Configuration is loaded with the following priority (highest to lowest):
//  1. Environment variables (prefix: MCINT_)
//  2. Config files (config.yaml, config/config.yaml, /etc/montecarlo/config.yaml)
//  3. Default values
//
// Key options:
//
//	MCINT_HTTP_PORT                 - API port (default: 8080)
//	MCINT_DATABASE_ENABLED          - Keep run history in PostgreSQL (default: false)
//	MCINT_CACHE_DRIVER              - memory, redis (default: memory)
//	MCINT_RATE_LIMIT_BACKEND        - memory, redis (default: memory)
//	MCINT_SAMPLING_SEED             - Default seed sequence, e.g. 24,512,42
//	MCINT_SAMPLING_DEFAULT_SIZE     - N for the size policy (default: 100000)
//	MCINT_REPORT_DEFAULT_FORMAT     - Report format when the request has none
//	MCINT_TRACING_ENABLED           - OpenTelemetry export over OTLP gRPC
//
// # Interceptor Chain
//
//  1. Recovery - panics become INTERNAL
//  2. RequestID - X-Request-ID propagation into logs
//  3. Tracing - OpenTelemetry spans (if enabled)
//  4. Metrics - request counters, latency, in-flight gauge
//  5. Logging - one structured line per request
//  6. RateLimit - per-client weighted limits (if enabled)
//  7. Validation - struct tags of request messages
//  8. Timeout - http.request_timeout
//  9. Error - application errors to connect codes
//
// # Example
//
//	curl -s localhost:8080/montecarlo.v1.IntegrationService/Integrate \
//	  -H 'Content-Type: application/json' \
//	  -d '{"integrand":{"name":"benchmark"},"method":"control_variable","seed":[24,512,42]}'
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"montecarlo/pkg/config"
	"montecarlo/pkg/interceptors"
	"montecarlo/pkg/logger"
	"montecarlo/pkg/metrics"
	"montecarlo/pkg/server"
	integrationsvc "montecarlo/services/integration-svc"
	"montecarlo/services/integration-svc/internal/handlers"
)

func main() {
	// =========================================================================
	// Configuration & Logger
	// =========================================================================
	cfg, err := config.LoadWithServiceDefaults("integration-svc", 8080)
	if err != nil {
		logger.Init("error")
		logger.Fatal("Failed to load config", "error", err)
	}

	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.InitMetrics(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)

	// =========================================================================
	// Components: history, cache, rate limiter, service
	// =========================================================================
	components, err := integrationsvc.Build(ctx, cfg, m)
	if err != nil {
		logger.Fatal("Failed to build service", "error", err)
	}

	// =========================================================================
	// HTTP Server
	// =========================================================================
	var middleware []server.Middleware
	if cfg.HTTP.CORS.Enabled {
		middleware = append(middleware, handlers.CORS(cfg.HTTP.CORS))
	}
	srv := server.New(cfg, server.WithMiddleware(middleware...))

	components.Handler.Register(srv.Mux(), interceptors.HandlerOptions(&interceptors.ServerConfig{
		EnableTracing: cfg.Tracing.Enabled,
		RateLimiter:   components.Limiter,
		Costs:         integrationsvc.Costs,
		Metrics:       m,
		Timeout:       cfg.HTTP.RequestTimeout,
	})...)

	srv.HandleFunc("GET /health", handlers.Health(cfg.App.Version))
	srv.HandleFunc("GET /ready", handlers.Ready(components.Checks))
	srv.HandleFunc(handlers.DownloadPath, components.Handler.Download)

	srv.OnShutdown("components", func(context.Context) error {
		return components.Close()
	})

	logger.Log.Info("Starting integration service",
		"port", cfg.HTTP.Port,
		"database", cfg.Database.Enabled,
		"cache", cfg.Cache.Enabled,
		"rate_limit", cfg.RateLimit.Enabled,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Fatal("Server failed", "error", err)
	}
}
