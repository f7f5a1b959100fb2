package service

import (
	"context"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"montecarlo/pkg/api"
	"montecarlo/pkg/logger"
	"montecarlo/pkg/telemetry"
	"montecarlo/services/integration-svc/internal/engine"
)

// Compare прогоняет методы с одинаковым seed и правилом остановки.
// Каждый метод получает собственный движок, прогоны идут параллельно.
func (s *IntegrationService) Compare(ctx context.Context, req *api.CompareRequest) (*api.CompareResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "IntegrationService.Compare",
		trace.WithAttributes(attribute.String(telemetry.AttrIntegrand, req.Integrand.Name)),
	)
	defer span.End()

	p, err := s.prepare(ctx, req.Integrand, req.Lower, req.Upper, req.Stop, req.Points, req.PilotSize,
		req.Seed, req.Precision, 0)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	methods := uniqueMethods(req.Methods)
	results := make([]engine.Sampling, len(methods))

	g, gctx := errgroup.WithContext(ctx)
	for i, method := range methods {
		g.Go(func() error {
			res, err := s.run(gctx, p, method)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	resp := &api.CompareResponse{
		Integrand: p.name,
		Lower:     p.lower,
		Upper:     p.upper,
		Policy:    p.stop.Policy,
		Reference: p.reference,
		Results:   make([]api.SamplingResult, 0, len(results)),
		RunIDs:    make([]string, 0, len(results)),
	}

	runs := make([]*api.Run, 0, len(results))
	for _, res := range results {
		resp.Results = append(resp.Results, toResult(res))
		runs = append(runs, p.toRun(res, req.Tags))
	}

	if err := s.repo.SaveBatch(ctx, runs); err != nil {
		logger.WithContext(ctx).Error("Failed to save comparison runs", "error", err)
	} else {
		for _, run := range runs {
			resp.RunIDs = append(resp.RunIDs, run.ID)
		}
	}

	resp.VarianceReduction = VarianceReduction(results)
	for method, ratio := range resp.VarianceReduction {
		s.metrics.RecordVarianceReduction(string(method), ratio)
	}

	return resp, nil
}

// VarianceReduction отношение дисперсии одного значения uniform к дисперсии метода.
// Дисперсия одного значения восстанавливается как StdDev²·N, поэтому прогоны
// с разным N сравнимы. Метод с нулевой дисперсией в результат не попадает.
func VarianceReduction(results []engine.Sampling) map[api.Method]float64 {
	var base *engine.Sampling
	for i := range results {
		if results[i].Method == api.MethodUniform {
			base = &results[i]
			break
		}
	}
	if base == nil || base.N == 0 {
		return nil
	}
	baseVar := base.StdDev * base.StdDev * float64(base.N)

	ratios := make(map[api.Method]float64, len(results))
	for _, res := range results {
		v := res.StdDev * res.StdDev * float64(res.N)
		if res.N == 0 || v == 0 {
			continue
		}
		ratios[res.Method] = baseVar / v
	}
	return ratios
}

// uniqueMethods методы запроса без повторов; пусто - все методы
func uniqueMethods(requested []api.Method) []api.Method {
	if len(requested) == 0 {
		return slices.Clone(api.Methods)
	}
	methods := make([]api.Method, 0, len(requested))
	for _, m := range requested {
		if !slices.Contains(methods, m) {
			methods = append(methods, m)
		}
	}
	return methods
}
