// Package output provides utilities for formatting and displaying forecast results.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iwvelando/costing-forecast/internal/costing"
	"github.com/iwvelando/costing-forecast/internal/forecast"
	"github.com/iwvelando/costing-forecast/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const rowFormat = "%-38s | %18s | %10s\n"

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, results []forecast.Forecast) {
	p := message.NewPrinter(language.English)
	for i, result := range results {
		_, _ = fmt.Fprintf(w, "--- Results for scenario %s ---\n", result.Name)

		if result.Series != nil {
			writeSeries(w, p, result)
		}

		if result.Results.Traditional != nil {
			writeStatement(w, p, "Traditional costing", result.Results.Traditional.Statement)
		} else {
			_, _ = fmt.Fprintf(w, "\nTraditional costing unavailable: %s\n", result.Results.TraditionalError)
		}
		writeStatement(w, p, "Variable costing", result.Results.Variable.Statement)
		writeStatement(w, p, "Break-even", result.Results.BreakEven.Lines())

		if rec := result.Results.Reconciliation; rec != nil {
			_, _ = p.Fprintf(w, "\nOperating profit difference (variable - traditional): $%.2f\n", rec.Difference)
		}
		if i < len(results)-1 {
			_, _ = fmt.Fprintf(w, "\n")
		}
	}
}

func writeSeries(w io.Writer, p *message.Printer, result forecast.Forecast) {
	s := result.Series
	_, _ = fmt.Fprintf(w, "\nSimulation over %d days\n", len(s.Volumes))
	_, _ = p.Fprintf(w, "Servings per day: min %.0f, max %.0f, mean %.1f, last %.0f\n",
		s.VolumeStats.Min, s.VolumeStats.Max, s.VolumeStats.Mean, s.VolumeStats.Last)
	_, _ = p.Fprintf(w, "Driver cost:      min $%.2f, max $%.2f, mean $%.2f, last $%.2f\n",
		s.CostStats.Min, s.CostStats.Max, s.CostStats.Mean, s.CostStats.Last)
}

func writeStatement(w io.Writer, p *message.Printer, title string, stmt costing.Statement) {
	_, _ = fmt.Fprintf(w, "\n%s\n", title)
	_, _ = fmt.Fprintf(w, rowFormat, "Item", "Amount", "% of sales")
	_, _ = fmt.Fprintf(w, rowFormat, "____", "______", "__________")
	for _, line := range stmt.Lines {
		share := ""
		if line.Unit == costing.UnitCurrency && stmt.Revenue != 0 {
			share = format.Percent(line.RevenueShare)
		}
		_, _ = fmt.Fprintf(w, rowFormat, line.Label, LineValue(p, line), share)
	}
}

// LineValue renders a line amount according to its unit.
func LineValue(p *message.Printer, line costing.StatementLineItem) string {
	switch line.Unit {
	case costing.UnitPercent:
		return format.Percent(line.Amount)
	case costing.UnitServings:
		return p.Sprintf("%.1f", line.Amount)
	default:
		return p.Sprintf("$%.2f", line.Amount)
	}
}

// CsvFormat outputs in comma-separated value format, one row per line item.
func CsvFormat(w io.Writer, results []forecast.Forecast) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"scenario", "statement", "key", "label", "amount", "revenue share"}); err != nil {
		return err
	}
	for _, result := range results {
		statements := []costing.Statement{result.Results.Variable.Statement, result.Results.BreakEven.Lines()}
		if result.Results.Traditional != nil {
			statements = append([]costing.Statement{result.Results.Traditional.Statement}, statements...)
		}
		for _, stmt := range statements {
			for _, line := range stmt.Lines {
				precision := 2
				if line.Unit == costing.UnitPercent {
					precision = 4
				}
				record := []string{
					result.Name,
					string(stmt.Kind),
					line.Key,
					line.Label,
					strconv.FormatFloat(line.Amount, 'f', precision, 64),
					strconv.FormatFloat(line.RevenueShare, 'f', 4, 64),
				}
				if err := cw.Write(record); err != nil {
					return err
				}
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// CsvString returns the CSV rendering of results, or an empty string if it
// cannot be produced.
func CsvString(results []forecast.Forecast) string {
	var b strings.Builder
	if err := CsvFormat(&b, results); err != nil {
		return ""
	}
	return b.String()
}
