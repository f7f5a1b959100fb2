// services/integration-svc/factory.go
package integrationsvc

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"montecarlo/migrations"
	"montecarlo/pkg/api"
	"montecarlo/pkg/cache"
	"montecarlo/pkg/config"
	"montecarlo/pkg/database"
	"montecarlo/pkg/logger"
	"montecarlo/pkg/metrics"
	"montecarlo/pkg/ratelimit"
	"montecarlo/services/integration-svc/internal/handlers"
	"montecarlo/services/integration-svc/internal/integrand"
	"montecarlo/services/integration-svc/internal/repository"
	"montecarlo/services/integration-svc/internal/service"
)

// Service операции сервиса без транспорта
type Service interface {
	Integrate(ctx context.Context, req *api.IntegrateRequest) (*api.IntegrateResponse, error)
	Compare(ctx context.Context, req *api.CompareRequest) (*api.CompareResponse, error)
	GetRun(ctx context.Context, req *api.GetRunRequest) (*api.Run, error)
	ListRuns(ctx context.Context, req *api.ListRunsRequest) (*api.ListRunsResponse, error)
	DeleteRun(ctx context.Context, req *api.DeleteRunRequest) (*api.DeleteRunResponse, error)
	Report(ctx context.Context, req *api.ReportRequest) (*api.ReportResponse, error)
	ListIntegrands(ctx context.Context, req *api.ListIntegrandsRequest) (*api.ListIntegrandsResponse, error)
}

// Costs вес процедур для ограничителя: Compare запускает три оценщика
var Costs = ratelimit.Costs{
	api.CompareProcedure: 3,
}

// Components собранные зависимости сервиса
type Components struct {
	Service Service
	Handler *handlers.IntegrationHandler
	Limiter ratelimit.Limiter
	Checks  map[string]handlers.Checker

	closers []func() error
}

// Build собирает сервис по конфигурации: история, кэш, ограничитель
func Build(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*Components, error) {
	c := &Components{Checks: make(map[string]handlers.Checker)}

	repo, err := c.buildRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := []service.Option{
		service.WithMetrics(m),
		service.WithReportConfig(cfg.Report),
	}

	if cfg.Cache.Enabled {
		baseCache, err := cache.New(cache.FromConfig(&cfg.Cache))
		if err != nil {
			logger.Log.Warn("Failed to create cache, continuing without cache", "error", err)
		} else {
			c.closers = append(c.closers, baseCache.Close)
			opts = append(opts, service.WithResultCache(cache.NewResultCache(baseCache, cfg.Cache.DefaultTTL), cfg.Cache.DefaultTTL))
			c.Checks["cache"] = func(ctx context.Context) error {
				_, err := baseCache.Stats(ctx)
				return err
			}
			registerCacheCollector(cfg, baseCache)
			logger.Log.Info("Result cache initialized",
				"driver", cfg.Cache.Driver,
				"ttl", cfg.Cache.DefaultTTL,
			)
		}
	}

	if cfg.RateLimit.Enabled {
		limiter, err := ratelimit.New(ratelimit.FromConfig(cfg.RateLimit))
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("failed to create rate limiter: %w", err)
		}
		c.Limiter = limiter
		c.closers = append(c.closers, limiter.Close)
	}

	svc := service.New(integrand.Default(), repo, cfg.Sampling, opts...)
	c.Service = svc
	c.Handler = handlers.NewIntegrationHandler(svc)
	return c, nil
}

func (c *Components) buildRepository(ctx context.Context, cfg *config.Config) (repository.RunRepository, error) {
	if !cfg.Database.Enabled {
		logger.Log.Info("Database disabled, run history is kept in memory")
		return repository.NewMemoryRunRepository(), nil
	}

	db, err := database.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(ctx, db.Pool, &cfg.Database, migrations.PostgresMigrations, migrations.PostgresDir); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	c.closers = append(c.closers, func() error {
		db.Close()
		return nil
	})
	c.Checks["database"] = db.HealthCheck
	return repository.NewPostgresRunRepository(db), nil
}

// registerCacheCollector счётчики попаданий есть только у кэша в памяти
func registerCacheCollector(cfg *config.Config, c cache.Cache) {
	mc, ok := c.(*cache.MemoryCache)
	if !ok || !cfg.Metrics.Enabled {
		return
	}
	collector := metrics.NewCacheCollector(cfg.Metrics.Namespace, cfg.Metrics.Subsystem, mc.Counters)
	if err := prometheus.Register(collector); err != nil {
		logger.Log.Warn("Failed to register cache collector", "error", err)
	}
}

// Close освобождает ресурсы в обратном порядке
func (c *Components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	c.closers = nil
	return errors.Join(errs...)
}

// NewLocalService сервис без сети и базы: история в памяти, метрики в отдельном реестре
func NewLocalService(sampling config.SamplingConfig, report config.ReportConfig) Service {
	m := metrics.NewWithRegistry(prometheus.NewRegistry(), "mcbench", "")
	return service.New(
		integrand.Default(),
		repository.NewMemoryRunRepository(),
		sampling,
		service.WithMetrics(m),
		service.WithReportConfig(report),
	)
}
