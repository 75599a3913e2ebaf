// Package export renders a costing report as an xlsx workbook.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/iwvelando/costing-forecast/internal/costing"
	"github.com/iwvelando/costing-forecast/internal/forecast"
	"github.com/xuri/excelize/v2"
)

// Sheet names, in workbook order.
const (
	SheetVariable    = "Variable costing"
	SheetTraditional = "Traditional costing"
	SheetBreakEven   = "Break-even"
	SheetChartData   = "Chart data"
)

// ContentType is the MIME type of a written workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	currencyFormat = `"$"#,##0.00;-"$"#,##0.00`
	// excelize built-in number formats
	numFmtPercent  = 10
	numFmtServings = 4

	// letter paper
	pageSizeLetter = 1

	headerRow = 4
)

// Report is one named set of derived results to export.
type Report struct {
	Name        string
	GeneratedAt time.Time
	Results     costing.DerivedResults
}

// FromForecast builds a report from a computed forecast.
func FromForecast(f forecast.Forecast) Report {
	return Report{Name: f.Name, GeneratedAt: f.GeneratedAt, Results: f.Results}
}

type styles struct {
	title    int
	header   int
	currency int
	percent  int
	servings int
	subtotal int
	subPct   int
}

// WriteWorkbook writes report as an xlsx workbook to w.
func WriteWorkbook(w io.Writer, report Report) error {
	f, err := build(report)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveWorkbook writes report as an xlsx workbook at path.
func SaveWorkbook(path string, report Report) error {
	f, err := build(report)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func build(report Report) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetVariable); err != nil {
		_ = f.Close()
		return nil, err
	}
	for _, name := range []string{SheetTraditional, SheetBreakEven, SheetChartData} {
		if _, err := f.NewSheet(name); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	st, err := newStyles(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	results := report.Results
	steps := []func() error{
		func() error {
			return writeStatement(f, st, SheetVariable, report, "Variable costing statement", results.Variable.Statement)
		},
		func() error { return writeTraditional(f, st, report) },
		func() error {
			return writeStatement(f, st, SheetBreakEven, report, "Break-even analysis", results.BreakEven.Lines())
		},
		func() error { return writeChartData(f, st, results.Chart) },
		func() error { return addChart(f, len(results.Chart.Units)) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	for _, name := range f.GetSheetList() {
		if err := setupPage(f, name); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func newStyles(f *excelize.File) (styles, error) {
	currency := currencyFormat
	bold := &excelize.Font{Bold: true}

	var st styles
	defs := []struct {
		id    *int
		style *excelize.Style
	}{
		{&st.title, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}},
		{&st.header, &excelize.Style{
			Font:      bold,
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		}},
		{&st.currency, &excelize.Style{CustomNumFmt: &currency}},
		{&st.percent, &excelize.Style{NumFmt: numFmtPercent}},
		{&st.servings, &excelize.Style{NumFmt: numFmtServings}},
		{&st.subtotal, &excelize.Style{Font: bold, CustomNumFmt: &currency}},
		{&st.subPct, &excelize.Style{Font: bold, NumFmt: numFmtPercent}},
	}
	for _, def := range defs {
		id, err := f.NewStyle(def.style)
		if err != nil {
			return styles{}, fmt.Errorf("create style: %w", err)
		}
		*def.id = id
	}
	return st, nil
}

func writeHeading(f *excelize.File, st styles, sheet string, report Report, title string) error {
	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "A1", st.title); err != nil {
		return err
	}
	subtitle := report.Name
	if !report.GeneratedAt.IsZero() {
		subtitle = fmt.Sprintf("%s (%s)", report.Name, report.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC"))
	}
	if err := f.SetCellValue(sheet, "A2", subtitle); err != nil {
		return err
	}

	header := []interface{}{"Concept", "Amount", "% of sales"}
	if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", headerRow), &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", headerRow), fmt.Sprintf("C%d", headerRow), st.header); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "A", 42); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "B", "C", 18)
}

// writeStatement writes the heading and one row per line item.
func writeStatement(f *excelize.File, st styles, sheet string, report Report, title string, statement costing.Statement) error {
	if err := writeHeading(f, st, sheet, report, title); err != nil {
		return fmt.Errorf("%s heading: %w", sheet, err)
	}
	_, err := writeLines(f, st, sheet, headerRow+1, statement)
	return err
}

func writeLines(f *excelize.File, st styles, sheet string, row int, statement costing.Statement) (int, error) {
	for _, line := range statement.Lines {
		amountStyle, shareStyle := st.currency, st.percent
		switch {
		case line.Unit == costing.UnitPercent && line.Subtotal:
			amountStyle, shareStyle = st.subPct, st.subPct
		case line.Unit == costing.UnitPercent:
			amountStyle = st.percent
		case line.Unit == costing.UnitServings:
			amountStyle = st.servings
		case line.Subtotal:
			amountStyle, shareStyle = st.subtotal, st.subPct
		}

		values := []interface{}{line.Label, line.Amount}
		if line.Unit == costing.UnitCurrency && statement.Revenue != 0 {
			values = append(values, line.RevenueShare)
		}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return row, fmt.Errorf("%s row %d: %w", sheet, row, err)
		}
		if err := f.SetCellStyle(sheet, fmt.Sprintf("B%d", row), fmt.Sprintf("B%d", row), amountStyle); err != nil {
			return row, err
		}
		if err := f.SetCellStyle(sheet, fmt.Sprintf("C%d", row), fmt.Sprintf("C%d", row), shareStyle); err != nil {
			return row, err
		}
		row++
	}
	return row, nil
}

func writeTraditional(f *excelize.File, st styles, report Report) error {
	results := report.Results
	if err := writeHeading(f, st, SheetTraditional, report, "Traditional costing statement"); err != nil {
		return fmt.Errorf("%s heading: %w", SheetTraditional, err)
	}

	if results.Traditional == nil {
		msg := "Not available"
		if results.TraditionalError != "" {
			msg = fmt.Sprintf("Not available: %s", results.TraditionalError)
		}
		return f.SetCellValue(SheetTraditional, fmt.Sprintf("A%d", headerRow+1), msg)
	}

	row, err := writeLines(f, st, SheetTraditional, headerRow+1, results.Traditional.Statement)
	if err != nil {
		return err
	}
	if results.Reconciliation == nil {
		return nil
	}

	rec := results.Reconciliation
	row++
	reconciliation := costing.Statement{Lines: []costing.StatementLineItem{
		{Label: "Operating profit difference (variable - traditional)", Amount: rec.Difference, Unit: costing.UnitCurrency, Subtotal: true},
		{Label: "Commissions reclassified", Amount: rec.CommissionReclass, Unit: costing.UnitCurrency},
		{Label: "Allocation reclassified", Amount: rec.AllocationReclass, Unit: costing.UnitCurrency},
		{Label: "Unexplained", Amount: rec.Residual, Unit: costing.UnitCurrency},
	}}
	_, err = writeLines(f, st, SheetTraditional, row, reconciliation)
	return err
}

func writeChartData(f *excelize.File, st styles, chart costing.ChartSeries) error {
	sheet := SheetChartData
	header := []interface{}{"Servings", "Revenue", "Total cost", "Fixed cost", "", "Point", "Servings", "Value"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "H1", st.header); err != nil {
		return err
	}

	for i, units := range chart.Units {
		row := []interface{}{units, chart.Revenue[i], chart.TotalCost[i], chart.FixedCost}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return fmt.Errorf("chart row %d: %w", i+2, err)
		}
	}
	if n := len(chart.Units); n > 0 {
		if err := f.SetCellStyle(sheet, "B2", fmt.Sprintf("D%d", n+1), st.currency); err != nil {
			return err
		}
	}

	points := []struct {
		label string
		point costing.ChartPoint
	}{
		{"Break-even", chart.BreakEven},
		{"Current volume", chart.Current},
	}
	for i, p := range points {
		row := []interface{}{p.label, p.point.Units, p.point.Value}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("F%d", i+2), &row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheet, "H2", "H3", st.currency); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", "H", 16)
}

func addChart(f *excelize.File, points int) error {
	if points == 0 {
		return nil
	}
	last := points + 1
	ref := func(col string, from, to int) string {
		return fmt.Sprintf("'%s'!$%s$%d:$%s$%d", SheetChartData, col, from, col, to)
	}
	units := ref("A", 2, last)

	chart := &excelize.Chart{
		Type: excelize.Scatter,
		Series: []excelize.ChartSeries{
			{Name: fmt.Sprintf("'%s'!$B$1", SheetChartData), Categories: units, Values: ref("B", 2, last)},
			{Name: fmt.Sprintf("'%s'!$C$1", SheetChartData), Categories: units, Values: ref("C", 2, last)},
			{Name: fmt.Sprintf("'%s'!$D$1", SheetChartData), Categories: units, Values: ref("D", 2, last)},
			{
				Name:       fmt.Sprintf("'%s'!$F$2", SheetChartData),
				Categories: ref("G", 2, 2),
				Values:     ref("H", 2, 2),
				Marker:     excelize.ChartMarker{Symbol: "diamond", Size: 9},
			},
			{
				Name:       fmt.Sprintf("'%s'!$F$3", SheetChartData),
				Categories: ref("G", 3, 3),
				Values:     ref("H", 3, 3),
				Marker:     excelize.ChartMarker{Symbol: "circle", Size: 9},
			},
		},
		Title:     []excelize.RichTextRun{{Text: "Break-even point"}},
		XAxis:     excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Servings per month"}}},
		YAxis:     excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Amount"}}},
		Legend:    excelize.ChartLegend{Position: "bottom"},
		Dimension: excelize.ChartDimension{Width: 640, Height: 400},
	}
	if err := f.AddChart(SheetBreakEven, "E4", chart); err != nil {
		return fmt.Errorf("add break-even chart: %w", err)
	}
	return nil
}

func setupPage(f *excelize.File, sheet string) error {
	size := pageSizeLetter
	orientation := "portrait"
	fitToPage := true
	if err := f.SetPageLayout(sheet, &excelize.PageLayoutOptions{
		Size:        &size,
		Orientation: &orientation,
	}); err != nil {
		return fmt.Errorf("page layout %s: %w", sheet, err)
	}
	if err := f.SetSheetProps(sheet, &excelize.SheetPropsOptions{FitToPage: &fitToPage}); err != nil {
		return fmt.Errorf("sheet properties %s: %w", sheet, err)
	}
	return nil
}
