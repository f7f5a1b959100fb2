// services/integration-svc/internal/report/json.go
package report

import (
	"context"
	"encoding/json"
	"fmt"

	"montecarlo/pkg/api"
)

// JSONGenerator генератор JSON отчётов
type JSONGenerator struct {
	BaseGenerator
}

func (g *JSONGenerator) Format() string { return api.FormatJSON }

func (g *JSONGenerator) ContentType() string { return "application/json" }

func (g *JSONGenerator) Extension() string { return "json" }

// JSONReport структура JSON отчёта
type JSONReport struct {
	Metadata JSONMetadata   `json:"metadata"`
	Summary  []*JSONSummary `json:"summary"`
	Runs     []*api.Run     `json:"runs"`
}

type JSONMetadata struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	GeneratedAt string `json:"generatedAt"`
	RunCount    int    `json:"runCount"`
	Version     string `json:"version"`
}

type JSONSummary struct {
	Method        api.Method `json:"method"`
	Runs          int        `json:"runs"`
	MeanAbsError  float64    `json:"meanAbsError"`
	MeanHalfWidth float64    `json:"meanHalfWidth"`
	MeanElapsedMs float64    `json:"meanElapsedMs"`
	TotalSamples  uint64     `json:"totalSamples"`
	Coverage      float64    `json:"coverage"`
}

// Generate генерирует JSON отчёт
func (g *JSONGenerator) Generate(ctx context.Context, data *Data) ([]byte, error) {
	report := JSONReport{
		Metadata: JSONMetadata{
			Title:       g.GetTitle(data),
			Author:      g.GetAuthor(data),
			GeneratedAt: g.GeneratedAt(data).Format("2006-01-02T15:04:05Z07:00"),
			RunCount:    len(data.Runs),
			Version:     "1.0",
		},
		Runs: data.Runs,
	}
	if report.Runs == nil {
		report.Runs = []*api.Run{}
	}

	for _, s := range Summarize(data.Runs) {
		report.Summary = append(report.Summary, &JSONSummary{
			Method:        s.Method,
			Runs:          s.Runs,
			MeanAbsError:  s.MeanAbsError,
			MeanHalfWidth: s.MeanHalfWidth,
			MeanElapsedMs: s.MeanElapsedMs,
			TotalSamples:  s.TotalSamples,
			Coverage:      s.Coverage,
		})
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json marshal error: %w", err)
	}
	return out, nil
}
