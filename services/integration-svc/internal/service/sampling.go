package service

import (
	"context"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"montecarlo/pkg/api"
	"montecarlo/pkg/apperror"
	"montecarlo/pkg/cache"
	"montecarlo/pkg/logger"
	"montecarlo/pkg/stats"
	"montecarlo/pkg/telemetry"
	"montecarlo/services/integration-svc/internal/engine"
	"montecarlo/services/integration-svc/internal/integrand"
)

// prepared параметры прогона после подстановки значений по умолчанию
type prepared struct {
	name       string
	g          integrand.Func
	lower      float64
	upper      float64
	stop       api.StopRule
	points     int
	pilotSize  int
	seed       []uint32
	precision  uint
	confidence float64
	z          float64
	reference  float64
}

func (s *IntegrationService) prepare(
	ctx context.Context,
	spec api.IntegrandSpec,
	lower, upper *float64,
	stop api.StopRule,
	points, pilotSize int,
	seed []uint32,
	precision *uint,
	confidence float64,
) (*prepared, error) {
	g, def, err := s.registry.Resolve(spec)
	if err != nil {
		return nil, err
	}

	p := &prepared{
		name:       def.Name,
		g:          g,
		lower:      def.Lower,
		upper:      def.Upper,
		points:     points,
		pilotSize:  pilotSize,
		seed:       seed,
		precision:  s.sampling.Precision,
		confidence: confidence,
	}
	if lower != nil {
		p.lower = *lower
	}
	if upper != nil {
		p.upper = *upper
	}
	if math.IsNaN(p.lower) || math.IsInf(p.lower, 0) || math.IsNaN(p.upper) || math.IsInf(p.upper, 0) {
		return nil, apperror.NewWithField(apperror.CodeInvalidBounds, "bounds must be finite", "lower")
	}
	if p.upper <= p.lower {
		return nil, apperror.Newf(apperror.CodeInvalidBounds,
			"upper bound %g must be greater than lower bound %g", p.upper, p.lower).WithField("upper")
	}

	if p.stop, err = s.normalizeStop(stop); err != nil {
		return nil, err
	}

	if p.points == 0 {
		p.points = s.sampling.Points
	}
	if p.pilotSize == 0 {
		p.pilotSize = s.sampling.PilotSize
	}
	if len(p.seed) == 0 {
		p.seed = s.sampling.Seed
	}
	if precision != nil {
		p.precision = *precision
	}
	if p.confidence == 0 {
		p.confidence = s.sampling.ConfidenceLevel
	}
	if p.z, err = stats.ZScore(p.confidence); err != nil {
		return nil, err
	}

	p.reference = integrand.Reference(g, p.lower, p.upper, s.sampling.ReferenceNodes)

	telemetry.SetAttributes(ctx, telemetry.IntegrandAttributes(p.name, p.lower, p.upper)...)
	return p, nil
}

// normalizeStop подставляет значения по умолчанию и обнуляет поля, не влияющие на результат
func (s *IntegrationService) normalizeStop(stop api.StopRule) (api.StopRule, error) {
	if stop.Policy == "" {
		stop.Policy = api.PolicySize
	}
	if stop.Step == 0 {
		stop.Step = s.sampling.BatchSize
		if stop.Step == 0 {
			stop.Step = engine.DefaultBatchSize
		}
	}

	switch stop.Policy {
	case api.PolicySize:
		if stop.Size == 0 {
			stop.Size = s.sampling.DefaultSize
		}
		if s.sampling.MaxSize > 0 && stop.Size > s.sampling.MaxSize {
			return stop, errInvalid("stop.size", "sample size %d exceeds limit %d", stop.Size, s.sampling.MaxSize)
		}
		// порции не меняют последовательность значений
		return api.StopRule{Policy: stop.Policy, Size: stop.Size}, nil

	case api.PolicyMaxWidth:
		if stop.Width == 0 {
			stop.Width = s.sampling.DefaultWidth
		}
		if !(stop.Width > 0) || math.IsInf(stop.Width, 0) {
			return stop, errInvalid("stop.width", "target width must be positive and finite")
		}
		return api.StopRule{Policy: stop.Policy, Width: stop.Width, Step: stop.Step}, nil

	case api.PolicyMaxTime:
		if stop.BudgetMs == 0 {
			stop.BudgetMs = s.sampling.DefaultTime.Milliseconds()
		}
		if stop.BudgetMs < 0 {
			return stop, errInvalid("stop.budget_ms", "time budget must not be negative")
		}
		if s.sampling.MaxTime > 0 && stop.Budget() > s.sampling.MaxTime {
			return stop, errInvalid("stop.budget_ms", "time budget %s exceeds limit %s", stop.Budget(), s.sampling.MaxTime)
		}
		return api.StopRule{Policy: stop.Policy, BudgetMs: stop.BudgetMs, Step: stop.Step}, nil

	default:
		return stop, apperror.Newf(apperror.CodeUnknownPolicy, "unknown stop policy %q", stop.Policy).WithField("stop.policy")
	}
}

// key ключ кэша результата
func (p *prepared) key(spec api.IntegrandSpec, method api.Method) cache.RunKey {
	return cache.RunKey{
		Integrand:    p.name,
		Params:       spec.Params,
		Coefficients: spec.Coefficients,
		Lower:        p.lower,
		Upper:        p.upper,
		Method:       method,
		Stop:         p.stop,
		Points:       p.points,
		PilotSize:    p.pilotSize,
		Seed:         p.seed,
		Precision:    p.precision,
		Confidence:   p.confidence,
	}
}

// run строит оценщик и выполняет один прогон по правилу остановки
func (s *IntegrationService) run(ctx context.Context, p *prepared, method api.Method) (engine.Sampling, error) {
	ctx, span := telemetry.StartSpan(ctx, "IntegrationService.run",
		trace.WithAttributes(
			attribute.String(telemetry.AttrMethod, string(method)),
			attribute.String(telemetry.AttrPolicy, string(p.stop.Policy)),
		),
	)
	defer span.End()

	begin := time.Now()
	res, err := s.sample(ctx, p, method)
	s.metrics.RecordSampling(string(method), string(p.stop.Policy), err == nil,
		time.Since(begin), res.N, res.ConfidenceInterval.HalfWidth())
	if err != nil {
		telemetry.SetError(ctx, err)
		logger.WithContext(ctx).Warn("Sampling failed",
			"method", method,
			"policy", p.stop.Policy,
			"error", err,
		)
		return engine.Sampling{}, err
	}

	if res.Coefficient != nil {
		s.metrics.RecordPilot(*res.Coefficient)
		telemetry.AddEvent(ctx, "pilot", attribute.Float64("coefficient", *res.Coefficient))
	}
	telemetry.SetAttributes(ctx, telemetry.SamplingAttributes(string(method), string(p.stop.Policy),
		res.N, res.AreaEstimator, res.ConfidenceInterval.HalfWidth(), res.Seconds())...)

	logger.WithContext(ctx).Info("Sampling finished",
		"integrand", p.name,
		"method", method,
		"policy", p.stop.Policy,
		"n", res.N,
		"estimate", res.AreaEstimator,
		"half_width", res.ConfidenceInterval.HalfWidth(),
		"elapsed", res.TimeElapsed,
	)
	return res, nil
}

func (s *IntegrationService) sample(ctx context.Context, p *prepared, method api.Method) (engine.Sampling, error) {
	d, err := engine.Build(engine.Integrand(p.g), engine.Params{
		Method:    method,
		Lower:     p.lower,
		Upper:     p.upper,
		Points:    p.points,
		PilotSize: p.pilotSize,
	})
	if err != nil {
		return engine.Sampling{}, err
	}

	e := engine.New(d,
		engine.WithSeed(p.seed...),
		engine.WithZ(p.z),
		engine.WithPrecision(p.precision),
		engine.WithBatchSize(s.sampling.BatchSize),
		engine.WithMaxSamples(s.sampling.MaxSamples),
	)

	switch p.stop.Policy {
	case api.PolicyMaxWidth:
		return e.SampleWithMaxWidthContext(ctx, p.stop.Width, p.stop.Step)
	case api.PolicyMaxTime:
		return e.SampleWithMaxTimeContext(ctx, p.stop.Budget(), p.stop.Step)
	default:
		return e.SampleWithSizeContext(ctx, p.stop.Size)
	}
}

// toRun запись истории
func (p *prepared) toRun(res engine.Sampling, tags []string) *api.Run {
	return &api.Run{
		Integrand:       p.name,
		Method:          res.Method,
		Policy:          p.stop.Policy,
		Lower:           p.lower,
		Upper:           p.upper,
		Estimate:        res.AreaEstimator,
		StdDev:          res.StdDev,
		HalfWidth:       res.ConfidenceInterval.HalfWidth(),
		Samples:         res.N,
		ElapsedMs:       milliseconds(res.TimeElapsed),
		Reference:       p.reference,
		Seed:            p.seed,
		Tags:            tags,
		Coefficient:     res.Coefficient,
		ConfidenceLevel: p.confidence,
	}
}

func toResult(res engine.Sampling) api.SamplingResult {
	ci := res.ConfidenceInterval
	return api.SamplingResult{
		Method:   res.Method,
		Estimate: res.AreaEstimator,
		StdDev:   res.StdDev,
		Interval: api.Interval{
			Lower: ci.Lower,
			Upper: ci.Upper,
			Width: ci.Width,
			Text:  ci.String(),
		},
		Samples:     res.N,
		ElapsedMs:   milliseconds(res.TimeElapsed),
		Coefficient: res.Coefficient,
	}
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
