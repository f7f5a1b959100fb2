// services/integration-svc/internal/report/report.go
package report

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"montecarlo/pkg/api"
	"montecarlo/pkg/apperror"
	"montecarlo/pkg/config"
	"montecarlo/pkg/stats"
)

// Data данные для генерации отчёта
type Data struct {
	Title       string
	Author      string
	GeneratedAt time.Time
	Runs        []*api.Run
}

// Generator интерфейс генератора отчётов
type Generator interface {
	Generate(ctx context.Context, data *Data) ([]byte, error)
	Format() string
	ContentType() string
	Extension() string
}

// Options общие настройки генераторов
type Options struct {
	Title  string
	Author string
	PDF    config.PDFConfig
}

// OptionsFromConfig берёт настройки из секции report
func OptionsFromConfig(cfg config.ReportConfig) Options {
	return Options{Title: cfg.Title, Author: cfg.Author, PDF: cfg.PDF}
}

// New возвращает генератор для формата
func New(format string, opts Options) (Generator, error) {
	base := BaseGenerator{opts: opts}

	switch format {
	case api.FormatCSV:
		return &CSVGenerator{base}, nil
	case api.FormatJSON:
		return &JSONGenerator{base}, nil
	case api.FormatMarkdown:
		return &MarkdownGenerator{base}, nil
	case api.FormatExcel:
		return &ExcelGenerator{base}, nil
	case api.FormatPDF:
		return &PDFGenerator{base}, nil
	default:
		return nil, apperror.NewWithField(apperror.CodeUnknownFormat,
			fmt.Sprintf("unknown report format %q", format), "format")
	}
}

// Formats поддерживаемые форматы
func Formats() []string {
	return []string{api.FormatCSV, api.FormatJSON, api.FormatMarkdown, api.FormatExcel, api.FormatPDF}
}

// BaseGenerator базовые утилиты для генераторов
type BaseGenerator struct {
	opts Options
}

// GetTitle заголовок: из данных, из настроек или по умолчанию
func (b *BaseGenerator) GetTitle(data *Data) string {
	if data.Title != "" {
		return data.Title
	}
	if b.opts.Title != "" {
		return b.opts.Title
	}
	return "Monte Carlo Integration Report"
}

// GetAuthor возвращает автора отчёта
func (b *BaseGenerator) GetAuthor(data *Data) string {
	if data.Author != "" {
		return data.Author
	}
	if b.opts.Author != "" {
		return b.opts.Author
	}
	return "Monte Carlo Service"
}

// GeneratedAt время генерации; нулевое значение заменяется текущим
func (b *BaseGenerator) GeneratedAt(data *Data) time.Time {
	if data.GeneratedAt.IsZero() {
		return time.Now().UTC()
	}
	return data.GeneratedAt
}

// FormatFloat форматирует число с заданной точностью
func (b *BaseGenerator) FormatFloat(v float64, precision int) string {
	return fmt.Sprintf("%.*f", precision, v)
}

// FormatDuration форматирует длительность
func (b *BaseGenerator) FormatDuration(ms float64) string {
	if ms < 1000 {
		return fmt.Sprintf("%.2f ms", ms)
	}
	return fmt.Sprintf("%.2f s", ms/1000)
}

// FormatTimestamp форматирует время
func (b *BaseGenerator) FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// Interval доверительный интервал прогона в виде [lower,upper]
func (b *BaseGenerator) Interval(run *api.Run) string {
	return stats.NewConfidenceInterval(run.Estimate, run.HalfWidth, stats.DefaultPrecision).String()
}

// Coefficient коэффициент контрольной переменной или "-"
func (b *BaseGenerator) Coefficient(run *api.Run) string {
	if run.Coefficient == nil {
		return "-"
	}
	return b.FormatFloat(*run.Coefficient, 6)
}

// MethodSummary сводка по методу
type MethodSummary struct {
	Method        api.Method
	Runs          int
	MeanAbsError  float64
	MeanHalfWidth float64
	MeanElapsedMs float64
	TotalSamples  uint64
	// Доля прогонов, интервал которых накрыл эталон
	Coverage float64
}

// Summarize сводка по методам в порядке api.Methods
func Summarize(runs []*api.Run) []MethodSummary {
	acc := make(map[api.Method]*MethodSummary)
	covered := make(map[api.Method]int)

	for _, run := range runs {
		s, ok := acc[run.Method]
		if !ok {
			s = &MethodSummary{Method: run.Method}
			acc[run.Method] = s
		}
		s.Runs++
		s.MeanAbsError += run.AbsError()
		s.MeanHalfWidth += run.HalfWidth
		s.MeanElapsedMs += run.ElapsedMs
		s.TotalSamples += run.Samples
		if math.Abs(run.Estimate-run.Reference) <= run.HalfWidth {
			covered[run.Method]++
		}
	}

	result := make([]MethodSummary, 0, len(acc))
	for _, s := range acc {
		n := float64(s.Runs)
		s.MeanAbsError /= n
		s.MeanHalfWidth /= n
		s.MeanElapsedMs /= n
		s.Coverage = float64(covered[s.Method]) / n
		result = append(result, *s)
	}

	sort.Slice(result, func(i, j int) bool {
		return methodRank(result[i].Method) < methodRank(result[j].Method)
	})
	return result
}

func methodRank(m api.Method) int {
	for i, known := range api.Methods {
		if known == m {
			return i
		}
	}
	return len(api.Methods)
}

// Filename имя файла отчёта
func Filename(g Generator, at time.Time) string {
	return fmt.Sprintf("montecarlo-report-%s.%s", at.UTC().Format("20060102-150405"), g.Extension())
}
