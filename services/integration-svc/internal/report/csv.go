// services/integration-svc/internal/report/csv.go
package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"montecarlo/pkg/api"
)

// CSVGenerator генератор CSV отчётов
type CSVGenerator struct {
	BaseGenerator
}

// Format возвращает формат генератора
func (g *CSVGenerator) Format() string { return api.FormatCSV }

func (g *CSVGenerator) ContentType() string { return "text/csv; charset=utf-8" }

func (g *CSVGenerator) Extension() string { return "csv" }

// csvWriter обёртка для отслеживания ошибок
type csvWriter struct {
	w   *csv.Writer
	err error
}

func (cw *csvWriter) Write(record []string) {
	if cw.err != nil {
		return
	}
	cw.err = cw.w.Write(record)
}

func (cw *csvWriter) Flush() {
	if cw.err != nil {
		return
	}
	cw.w.Flush()
	cw.err = cw.w.Error()
}

var csvHeader = []string{
	"id", "integrand", "method", "policy", "lower", "upper",
	"estimate", "std_dev", "ci_lower", "ci_upper", "samples", "elapsed_ms",
	"reference", "abs_error", "coefficient", "seed", "tags", "created_at",
}

// Generate одна строка на прогон, без заголовка отчёта: файл читается как таблица
func (g *CSVGenerator) Generate(ctx context.Context, data *Data) ([]byte, error) {
	var buf bytes.Buffer
	cw := &csvWriter{w: csv.NewWriter(&buf)}

	cw.Write(csvHeader)
	for _, run := range data.Runs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cw.Write(g.record(run))
	}

	cw.Flush()
	if cw.err != nil {
		return nil, fmt.Errorf("csv write error: %w", cw.err)
	}
	return buf.Bytes(), nil
}

func (g *CSVGenerator) record(run *api.Run) []string {
	coef := ""
	if run.Coefficient != nil {
		coef = formatRaw(*run.Coefficient)
	}

	seed := make([]string, len(run.Seed))
	for i, s := range run.Seed {
		seed[i] = strconv.FormatUint(uint64(s), 10)
	}

	return []string{
		run.ID,
		run.Integrand,
		string(run.Method),
		string(run.Policy),
		formatRaw(run.Lower),
		formatRaw(run.Upper),
		formatRaw(run.Estimate),
		formatRaw(run.StdDev),
		formatRaw(run.Estimate - run.HalfWidth),
		formatRaw(run.Estimate + run.HalfWidth),
		strconv.FormatUint(run.Samples, 10),
		g.FormatFloat(run.ElapsedMs, 3),
		formatRaw(run.Reference),
		formatRaw(run.AbsError()),
		coef,
		strings.Join(seed, " "),
		strings.Join(run.Tags, " "),
		run.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// formatRaw полная точность для машинной обработки
func formatRaw(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
