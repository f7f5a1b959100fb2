// services/integration-svc/internal/report/markdown.go
package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"montecarlo/pkg/api"
)

// MarkdownGenerator генератор Markdown отчётов
type MarkdownGenerator struct {
	BaseGenerator
}

func (g *MarkdownGenerator) Format() string { return api.FormatMarkdown }

func (g *MarkdownGenerator) ContentType() string { return "text/markdown; charset=utf-8" }

func (g *MarkdownGenerator) Extension() string { return "md" }

// Generate генерирует Markdown отчёт
func (g *MarkdownGenerator) Generate(ctx context.Context, data *Data) ([]byte, error) {
	var buf bytes.Buffer

	g.writeHeader(&buf, data)

	if len(data.Runs) == 0 {
		buf.WriteString("*No runs selected*\n\n")
		g.writeFooter(&buf)
		return buf.Bytes(), nil
	}

	g.writeSummary(&buf, data)
	g.writeRuns(&buf, data)
	g.writeFooter(&buf)

	return buf.Bytes(), nil
}

func (g *MarkdownGenerator) writeHeader(buf *bytes.Buffer, data *Data) {
	fmt.Fprintf(buf, "# %s\n\n", g.GetTitle(data))

	buf.WriteString("## Report Information\n\n")
	fmt.Fprintf(buf, "- **Generated:** %s\n", g.FormatTimestamp(g.GeneratedAt(data)))
	fmt.Fprintf(buf, "- **Author:** %s\n", g.GetAuthor(data))
	fmt.Fprintf(buf, "- **Runs:** %d\n", len(data.Runs))
	buf.WriteString("\n---\n\n")
}

func (g *MarkdownGenerator) writeSummary(buf *bytes.Buffer, data *Data) {
	buf.WriteString("## Summary by Method\n\n")
	buf.WriteString("| Method | Runs | Mean abs error | Mean half-width | Coverage | Mean time |\n")
	buf.WriteString("|--------|------|----------------|-----------------|----------|-----------|\n")
	for _, s := range Summarize(data.Runs) {
		fmt.Fprintf(buf, "| %s | %d | %.6f | %.6f | %.0f%% | %s |\n",
			s.Method, s.Runs, s.MeanAbsError, s.MeanHalfWidth, s.Coverage*100, g.FormatDuration(s.MeanElapsedMs))
	}
	buf.WriteString("\n")
}

func (g *MarkdownGenerator) writeRuns(buf *bytes.Buffer, data *Data) {
	buf.WriteString("## Runs\n\n")
	buf.WriteString("| Integrand | Bounds | Method | Policy | Estimate | Interval | N | Reference | Abs error | c | Time |\n")
	buf.WriteString("|-----------|--------|--------|--------|----------|----------|---|-----------|-----------|---|------|\n")
	for _, run := range data.Runs {
		fmt.Fprintf(buf, "| %s | [%g, %g] | %s | %s | %.6f | %s | %d | %.6f | %.6f | %s | %s |\n",
			escapeCell(run.Integrand), run.Lower, run.Upper, run.Method, run.Policy,
			run.Estimate, g.Interval(run), run.Samples, run.Reference, run.AbsError(),
			g.Coefficient(run), g.FormatDuration(run.ElapsedMs))
	}
	buf.WriteString("\n")
}

func (g *MarkdownGenerator) writeFooter(buf *bytes.Buffer) {
	buf.WriteString("---\n\n")
	buf.WriteString("*Generated by Monte Carlo Integration Service*\n")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
