// Package server HTTP сервер connect API: h2c, служебные маршруты, graceful shutdown
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"montecarlo/gen/openapi"
	"montecarlo/pkg/config"
	"montecarlo/pkg/logger"
	"montecarlo/pkg/metrics"
	"montecarlo/pkg/swagger"
	"montecarlo/pkg/telemetry"
)

const defaultShutdownTimeout = 30 * time.Second

// Middleware обёртка над корневым handler
type Middleware func(http.Handler) http.Handler

// Closer освобождает ресурс при остановке
type Closer func(ctx context.Context) error

type closer struct {
	name string
	fn   Closer
}

// Server обёртка над http.Server
type Server struct {
	config     *config.Config
	mux        *http.ServeMux
	middleware []Middleware

	mu      sync.Mutex
	closers []closer
	addr    net.Addr
	ready   chan struct{}
}

// Option настройка сервера
type Option func(*Server)

// WithMiddleware добавляет middleware; первая - внешняя
func WithMiddleware(mw ...Middleware) Option {
	return func(s *Server) {
		s.middleware = append(s.middleware, mw...)
	}
}

// New создаёт сервер; swagger и /metrics монтируются по конфигурации
func New(cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		config: cfg,
		mux:    http.NewServeMux(),
		ready:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if cfg.Swagger.Enabled {
		spec, err := openapi.GetSpec()
		if err != nil {
			logger.Log.Error("Failed to load OpenAPI spec", "error", err)
		} else {
			swagger.RegisterRoutes(s.mux, swagger.FromConfig(cfg.Swagger), spec)
			logger.Log.Info("Swagger UI enabled", "path", "/swagger/")
		}
	}

	// метрики на основном порту, если отдельный сервер не настроен
	if cfg.Metrics.Enabled && (cfg.Metrics.Port == 0 || cfg.Metrics.Port == cfg.HTTP.Port) {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		s.mux.Handle(path, metrics.Handler())
	}

	return s
}

// Mux для регистрации connect процедур и HTTP маршрутов
func (s *Server) Mux() *http.ServeMux {
	return s.mux
}

// Handle регистрирует handler
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
}

// HandleFunc регистрирует функцию
func (s *Server) HandleFunc(pattern string, handler http.HandlerFunc) {
	s.mux.HandleFunc(pattern, handler)
}

// OnShutdown регистрирует освобождение ресурса; вызываются в обратном порядке
func (s *Server) OnShutdown(name string, fn Closer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closers = append(s.closers, closer{name: name, fn: fn})
}

// Handler корневой handler с middleware
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	for _, mw := range slices.Backward(s.middleware) {
		h = mw(h)
	}
	return h
}

// Addr адрес после старта; блокируется до готовности слушателя
func (s *Server) Addr() net.Addr {
	<-s.ready
	return s.addr
}

// Run запускает API и сервер метрик, блокируется до отмены ctx
func (s *Server) Run(ctx context.Context) error {
	cfg := s.config

	if cfg.Tracing.Enabled {
		tp, err := telemetry.Init(ctx, telemetry.Config{
			Enabled:     cfg.Tracing.Enabled,
			Endpoint:    cfg.Tracing.Endpoint,
			ServiceName: cfg.Tracing.ServiceName,
			Version:     cfg.App.Version,
			Environment: cfg.App.Environment,
			SampleRate:  cfg.Tracing.SampleRate,
		})
		if err != nil {
			logger.Log.Warn("Failed to init telemetry", "error", err)
		} else {
			s.OnShutdown("telemetry", tp.Shutdown)
			logger.Log.Info("Telemetry initialized",
				"endpoint", cfg.Tracing.Endpoint,
				"sample_rate", cfg.Tracing.SampleRate,
			)
		}
	}

	lc := net.ListenConfig{}
	lis, err := lc.Listen(ctx, "tcp", fmt.Sprintf(":%d", cfg.HTTP.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.addr = lis.Addr()
	close(s.ready)

	api := &http.Server{
		Handler:      h2c.NewHandler(s.Handler(), &http2.Server{}),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	servers := []*http.Server{api}
	if cfg.Metrics.Enabled && cfg.Metrics.Port != 0 && cfg.Metrics.Port != cfg.HTTP.Port {
		servers = append(servers, metrics.NewMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path))
	}

	metrics.Get().SetServiceInfo(cfg.App.Version, cfg.App.Environment)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Log.Info("Starting HTTP server",
			"service", cfg.App.Name,
			"addr", lis.Addr().String(),
			"protocol", "HTTP/1.1 + H2C (connect, gRPC, gRPC-Web)",
			"environment", cfg.App.Environment,
			"version", cfg.App.Version,
		)
		if err := api.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})

	for _, srv := range servers[1:] {
		g.Go(func() error {
			logger.Log.Info("Starting metrics server", "addr", srv.Addr, "path", cfg.Metrics.Path)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Log.Info("Shutting down", "reason", context.Cause(gctx))
		return s.shutdown(servers)
	})

	return g.Wait()
}

func (s *Server) shutdown(servers []*http.Server) error {
	timeout := s.config.HTTP.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Log.Warn("Forcing server stop", "error", err)
			errs = append(errs, srv.Close())
		}
	}

	s.mu.Lock()
	closers := slices.Clone(s.closers)
	s.mu.Unlock()

	for _, c := range slices.Backward(closers) {
		if err := c.fn(ctx); err != nil {
			logger.Log.Warn("Failed to close resource", "resource", c.name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
		}
	}

	logger.Log.Info("Server stopped")
	return errors.Join(errs...)
}
