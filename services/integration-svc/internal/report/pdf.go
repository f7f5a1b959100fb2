// services/integration-svc/internal/report/pdf.go
package report

import (
	"context"
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/core/entity"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"montecarlo/pkg/api"
)

// PDFGenerator генератор PDF отчётов
type PDFGenerator struct {
	BaseGenerator
}

func (g *PDFGenerator) Format() string { return api.FormatPDF }

func (g *PDFGenerator) ContentType() string { return "application/pdf" }

func (g *PDFGenerator) Extension() string { return "pdf" }

// Стили
var (
	primaryColor   = &props.Color{Red: 52, Green: 152, Blue: 219}  // #3498db
	headerBgColor  = &props.Color{Red: 44, Green: 62, Blue: 80}    // #2c3e50
	successColor   = &props.Color{Red: 39, Green: 174, Blue: 96}   // #27ae60
	dangerColor    = &props.Color{Red: 231, Green: 76, Blue: 60}   // #e74c3c
	lightGrayColor = &props.Color{Red: 236, Green: 240, Blue: 241} // #ecf0f1
	darkGrayColor  = &props.Color{Red: 127, Green: 140, Blue: 141} // #7f8c8d

	titleStyle = props.Text{
		Size:  20,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: headerBgColor,
	}

	h2Style = props.Text{
		Size:  14,
		Style: fontstyle.Bold,
		Color: headerBgColor,
		Top:   4,
	}

	smallStyle = props.Text{
		Size:  8,
		Color: darkGrayColor,
	}

	tableHeaderStyle = &props.Cell{
		BackgroundColor: primaryColor,
	}

	tableHeaderTextStyle = props.Text{
		Size:  8,
		Style: fontstyle.Bold,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
		Align: align.Center,
	}

	tableCellStyle = &props.Cell{
		BorderType:  border.Bottom,
		BorderColor: lightGrayColor,
	}

	tableCellTextStyle = props.Text{
		Size:  8,
		Align: align.Center,
	}
)

// Generate генерирует PDF отчёт
func (g *PDFGenerator) Generate(ctx context.Context, data *Data) ([]byte, error) {
	m := maroto.New(g.config(data))

	g.addHeader(m, data)

	if len(data.Runs) == 0 {
		m.AddRow(8, text.NewCol(12, "No runs selected", smallStyle))
	} else {
		g.addSummary(m, data)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		g.addRuns(m, data)
	}

	g.addFooter(m, data)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

func (g *PDFGenerator) config(data *Data) *entity.Config {
	pdf := g.opts.PDF
	b := config.NewBuilder().
		WithTitle(g.GetTitle(data), true).
		WithAuthor(g.GetAuthor(data), true).
		WithLeftMargin(orDefault(pdf.MarginLeft, 15)).
		WithTopMargin(orDefault(pdf.MarginTop, 15)).
		WithRightMargin(orDefault(pdf.MarginRight, 15))
	if pdf.FontSize > 0 {
		b = b.WithDefaultFont(&props.Font{Size: pdf.FontSize})
	}
	if pdf.EnablePageNumbers {
		b = b.WithPageNumber()
	}
	return b.Build()
}

func orDefault(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}

func (g *PDFGenerator) addHeader(m core.Maroto, data *Data) {
	m.AddRow(14, text.NewCol(12, g.GetTitle(data), titleStyle))
	m.AddRow(4, line.NewCol(12))
	m.AddRow(6,
		text.NewCol(6, fmt.Sprintf("Author: %s", g.GetAuthor(data)), smallStyle),
		text.NewCol(6, fmt.Sprintf("Generated: %s", g.FormatTimestamp(g.GeneratedAt(data))),
			props.Text{Size: 8, Color: darkGrayColor, Align: align.Right}),
	)
	m.AddRow(6)
}

func (g *PDFGenerator) addSummary(m core.Maroto, data *Data) {
	m.AddRow(10, text.NewCol(12, "Summary by Method", h2Style))

	m.AddRow(7,
		text.NewCol(3, "Method", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(1, "Runs", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(2, "Mean abs error", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(2, "Mean half-width", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(2, "Coverage", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(2, "Mean time", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
	)

	for _, s := range Summarize(data.Runs) {
		coverageStyle := tableCellTextStyle
		if s.Coverage >= 0.9 {
			coverageStyle.Color = successColor
		} else {
			coverageStyle.Color = dangerColor
		}

		m.AddRow(6,
			text.NewCol(3, string(s.Method), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(1, fmt.Sprintf("%d", s.Runs), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(2, g.FormatFloat(s.MeanAbsError, 6), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(2, g.FormatFloat(s.MeanHalfWidth, 6), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(2, fmt.Sprintf("%.0f%%", s.Coverage*100), coverageStyle).WithStyle(tableCellStyle),
			text.NewCol(2, g.FormatDuration(s.MeanElapsedMs), tableCellTextStyle).WithStyle(tableCellStyle),
		)
	}
	m.AddRow(6)
}

func (g *PDFGenerator) addRuns(m core.Maroto, data *Data) {
	m.AddRow(10, text.NewCol(12, "Runs", h2Style))

	m.AddRow(7,
		text.NewCol(2, "Integrand", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(2, "Method", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(2, "Estimate", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(3, "Interval", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(1, "N", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(2, "Abs error", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
	)

	for _, run := range data.Runs {
		m.AddRow(6,
			text.NewCol(2, run.Integrand, tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(2, string(run.Method), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(2, g.FormatFloat(run.Estimate, 6), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(3, g.Interval(run), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(1, fmt.Sprintf("%d", run.Samples), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(2, g.FormatFloat(run.AbsError(), 6), tableCellTextStyle).WithStyle(tableCellStyle),
		)
	}
}

func (g *PDFGenerator) addFooter(m core.Maroto, data *Data) {
	m.AddRow(10)
	m.AddRow(2, line.NewCol(12, props.Line{Color: lightGrayColor}))
	m.AddRow(6,
		text.NewCol(12,
			fmt.Sprintf("Generated by Monte Carlo Integration Service | %s", g.FormatTimestamp(g.GeneratedAt(data))),
			props.Text{Size: 8, Color: darkGrayColor, Align: align.Center},
		),
	)
}
