package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"montecarlo/pkg/api"
	"montecarlo/pkg/logger"
	"montecarlo/pkg/telemetry"
	"montecarlo/services/integration-svc/internal/report"
)

// Report отчёт по сохранённым прогонам в порядке RunIDs
func (s *IntegrationService) Report(ctx context.Context, req *api.ReportRequest) (*api.ReportResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "IntegrationService.Report",
		trace.WithAttributes(
			attribute.String("report.format", req.Format),
			attribute.Int("report.runs", len(req.RunIDs)),
		),
	)
	defer span.End()

	if len(req.RunIDs) == 0 {
		return nil, errInvalid("run_ids", "at least one run id is required")
	}
	if s.report.MaxRuns > 0 && len(req.RunIDs) > s.report.MaxRuns {
		return nil, errInvalid("run_ids", "report is limited to %d runs, got %d", s.report.MaxRuns, len(req.RunIDs))
	}

	format := req.Format
	if format == "" {
		format = s.report.DefaultFormat
	}
	if format == "" {
		format = api.FormatMarkdown
	}

	gen, err := report.New(format, report.OptionsFromConfig(s.report))
	if err != nil {
		return nil, err
	}

	runs, err := s.repo.GetMany(ctx, req.RunIDs)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	now := time.Now().UTC()
	content, err := gen.Generate(ctx, &report.Data{
		Title:       req.Title,
		GeneratedAt: now,
		Runs:        runs,
	})
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	logger.WithContext(ctx).Info("Report generated",
		"format", format,
		"runs", len(runs),
		"size", len(content),
	)

	return &api.ReportResponse{
		Content:     content,
		ContentType: gen.ContentType(),
		Filename:    report.Filename(gen, now),
	}, nil
}
