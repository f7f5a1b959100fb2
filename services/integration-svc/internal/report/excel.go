// services/integration-svc/internal/report/excel.go
package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"montecarlo/pkg/api"
)

// ExcelGenerator генератор Excel отчётов
type ExcelGenerator struct {
	BaseGenerator
}

func (g *ExcelGenerator) Format() string { return api.FormatExcel }

func (g *ExcelGenerator) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (g *ExcelGenerator) Extension() string { return "xlsx" }

const (
	summarySheet = "Summary"
	runsSheet    = "Runs"
)

// Generate два листа: сводка по методам и прогоны
func (g *ExcelGenerator) Generate(ctx context.Context, data *Data) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(runsSheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	if err := g.writeSummary(f, data, headerStyle); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := g.writeRuns(f, data, headerStyle); err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *ExcelGenerator) writeSummary(f *excelize.File, data *Data, headerStyle int) error {
	rows := [][]any{
		{g.GetTitle(data)},
		{"Author", g.GetAuthor(data)},
		{"Generated", g.FormatTimestamp(g.GeneratedAt(data))},
		{"Runs", len(data.Runs)},
		{},
	}

	headerRow := len(rows) + 1
	rows = append(rows, []any{"Method", "Runs", "Mean abs error", "Mean half-width", "Coverage", "Mean time (ms)", "Total samples"})
	for _, s := range Summarize(data.Runs) {
		rows = append(rows, []any{
			string(s.Method), s.Runs, s.MeanAbsError, s.MeanHalfWidth, s.Coverage, s.MeanElapsedMs, s.TotalSamples,
		})
	}

	if err := setRows(f, summarySheet, rows); err != nil {
		return err
	}
	if err := f.MergeCell(summarySheet, "A1", "D1"); err != nil {
		return fmt.Errorf("merge title: %w", err)
	}
	if err := styleRow(f, summarySheet, headerRow, 7, headerStyle); err != nil {
		return err
	}
	return f.SetColWidth(summarySheet, "A", "G", 18)
}

func (g *ExcelGenerator) writeRuns(f *excelize.File, data *Data, headerStyle int) error {
	header := []any{
		"ID", "Integrand", "Method", "Policy", "Lower", "Upper", "Estimate", "Std dev",
		"CI lower", "CI upper", "Samples", "Elapsed (ms)", "Reference", "Abs error",
		"Coefficient", "Tags", "Created",
	}
	rows := [][]any{header}

	for _, run := range data.Runs {
		var coef any = ""
		if run.Coefficient != nil {
			coef = *run.Coefficient
		}
		rows = append(rows, []any{
			run.ID, run.Integrand, string(run.Method), string(run.Policy),
			run.Lower, run.Upper, run.Estimate, run.StdDev,
			run.Estimate - run.HalfWidth, run.Estimate + run.HalfWidth,
			run.Samples, run.ElapsedMs, run.Reference, run.AbsError(),
			coef, strings.Join(run.Tags, ", "), g.FormatTimestamp(run.CreatedAt),
		})
	}

	if err := setRows(f, runsSheet, rows); err != nil {
		return err
	}
	if err := styleRow(f, runsSheet, 1, len(header), headerStyle); err != nil {
		return err
	}
	if err := f.SetPanes(runsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}
	return f.SetColWidth(runsSheet, "A", "A", 38)
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d of %s: %w", i+1, sheet, err)
		}
	}
	return nil
}

func styleRow(f *excelize.File, sheet string, row, cols, style int) error {
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(cols, row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, first, last, style)
}
