// Package service оркестрация оценщиков: каталог функций, кэш, история, метрики
package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"montecarlo/pkg/api"
	"montecarlo/pkg/apperror"
	"montecarlo/pkg/cache"
	"montecarlo/pkg/config"
	"montecarlo/pkg/logger"
	"montecarlo/pkg/metrics"
	"montecarlo/pkg/telemetry"
	"montecarlo/services/integration-svc/internal/integrand"
	"montecarlo/services/integration-svc/internal/repository"
)

// IntegrationService реализация процедур IntegrationService
type IntegrationService struct {
	registry *integrand.Registry
	repo     repository.RunRepository
	results  *cache.ResultCache
	cacheTTL time.Duration
	sampling config.SamplingConfig
	report   config.ReportConfig
	metrics  *metrics.Metrics
}

// Option настройка сервиса
type Option func(*IntegrationService)

// WithResultCache включает кэш результатов Integrate
func WithResultCache(rc *cache.ResultCache, ttl time.Duration) Option {
	return func(s *IntegrationService) {
		s.results = rc
		s.cacheTTL = ttl
	}
}

// WithMetrics заменяет глобальные метрики
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *IntegrationService) {
		s.metrics = m
	}
}

// WithReportConfig настройки отчётов
func WithReportConfig(cfg config.ReportConfig) Option {
	return func(s *IntegrationService) {
		s.report = cfg
	}
}

// New создаёт сервис
func New(registry *integrand.Registry, repo repository.RunRepository, sampling config.SamplingConfig, opts ...Option) *IntegrationService {
	s := &IntegrationService{
		registry: registry,
		repo:     repo,
		sampling: sampling,
		metrics:  metrics.Get(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Integrate одна оценка интеграла
func (s *IntegrationService) Integrate(ctx context.Context, req *api.IntegrateRequest) (*api.IntegrateResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "IntegrationService.Integrate",
		trace.WithAttributes(attribute.String(telemetry.AttrIntegrand, req.Integrand.Name)),
	)
	defer span.End()

	p, err := s.prepare(ctx, req.Integrand, req.Lower, req.Upper, req.Stop, req.Points, req.PilotSize,
		req.Seed, req.Precision, req.ConfidenceLevel)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	method := req.Method
	if method == "" {
		method = api.MethodUniform
	}

	key := p.key(req.Integrand, method)
	if !req.NoCache && s.results != nil {
		cached, found, err := s.results.Get(ctx, key)
		if err != nil {
			logger.WithContext(ctx).Warn("Result cache lookup failed", "error", err)
		}
		if key.Cacheable() {
			s.metrics.RecordCache("integrate", found)
		}
		if found {
			span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, true))
			cached.Cached = true
			return cached, nil
		}
	}
	span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, false))

	sampling, err := s.run(ctx, p, method)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	run := p.toRun(sampling, req.Tags)
	if err := s.repo.Save(ctx, run); err != nil {
		// результат вычислен, история не обязательна для ответа
		logger.WithContext(ctx).Error("Failed to save run", "error", err)
		run.ID = ""
	}

	resp := &api.IntegrateResponse{
		RunID:     run.ID,
		Integrand: p.name,
		Lower:     p.lower,
		Upper:     p.upper,
		Policy:    p.stop.Policy,
		Result:    toResult(sampling),
		Reference: p.reference,
		AbsError:  run.AbsError(),
		CreatedAt: run.CreatedAt,
	}

	if !req.NoCache && s.results != nil {
		if err := s.results.Set(ctx, key, resp, s.cacheTTL); err != nil {
			logger.WithContext(ctx).Warn("Failed to cache integrate result", "error", err)
		}
	}

	return resp, nil
}

// ListIntegrands каталог функций
func (s *IntegrationService) ListIntegrands(ctx context.Context, _ *api.ListIntegrandsRequest) (*api.ListIntegrandsResponse, error) {
	_, span := telemetry.StartSpan(ctx, "IntegrationService.ListIntegrands")
	defer span.End()

	return &api.ListIntegrandsResponse{Integrands: s.registry.List()}, nil
}

// GetRun прогон по ID
func (s *IntegrationService) GetRun(ctx context.Context, req *api.GetRunRequest) (*api.Run, error) {
	ctx, span := telemetry.StartSpan(ctx, "IntegrationService.GetRun",
		trace.WithAttributes(attribute.String(telemetry.AttrRunID, req.ID)),
	)
	defer span.End()

	return s.repo.Get(ctx, req.ID)
}

// ListRuns страница истории
func (s *IntegrationService) ListRuns(ctx context.Context, req *api.ListRunsRequest) (*api.ListRunsResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "IntegrationService.ListRuns")
	defer span.End()

	runs, total, err := s.repo.List(ctx, repository.ListFilter{
		Integrand: req.Integrand,
		Method:    req.Method,
		Tags:      req.Tags,
		Limit:     req.Limit,
		Offset:    req.Offset,
	})
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}
	return &api.ListRunsResponse{Runs: runs, Total: total}, nil
}

// DeleteRun удаляет прогон из истории
func (s *IntegrationService) DeleteRun(ctx context.Context, req *api.DeleteRunRequest) (*api.DeleteRunResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "IntegrationService.DeleteRun",
		trace.WithAttributes(attribute.String(telemetry.AttrRunID, req.ID)),
	)
	defer span.End()

	if err := s.repo.Delete(ctx, req.ID); err != nil {
		return nil, err
	}
	logger.WithContext(ctx).Info("Run deleted", "run_id", req.ID)
	return &api.DeleteRunResponse{Deleted: true}, nil
}

func errInvalid(field, format string, args ...any) error {
	return apperror.Newf(apperror.CodeInvalidArgument, format, args...).WithField(field)
}
