package output

import (
	"fmt"
	"io"

	"github.com/iwvelando/costing-forecast/internal/compare"
	"github.com/iwvelando/costing-forecast/internal/store"
)

const (
	reportRowFormat  = "%-36s | %-24s | %-20s | %s\n"
	compareRowFormat = "%-38s | %18s | %18s | %18s%s\n"
)

// PrettyReports lists stored reports, newest first as given.
func PrettyReports(w io.Writer, reports []store.ReportSummary) {
	if len(reports) == 0 {
		_, _ = fmt.Fprintln(w, "No stored reports")
		return
	}
	_, _ = fmt.Fprintf(w, reportRowFormat, "ID", "Name", "Generated", "Traditional")
	_, _ = fmt.Fprintf(w, reportRowFormat, "__", "____", "_________", "___________")
	for _, r := range reports {
		traditional := "yes"
		if !r.HasTraditional {
			traditional = "no"
		}
		_, _ = fmt.Fprintf(w, reportRowFormat, r.ID, r.Name, r.GeneratedAt.UTC().Format("2006-01-02 15:04:05"), traditional)
	}
}

// PrettyComparison prints every section of c; changed rows are flagged with *.
func PrettyComparison(w io.Writer, c compare.Comparison) {
	_, _ = fmt.Fprintf(w, "--- Comparing %s (%s) against %s (%s) ---\n", c.Other.Name, c.Other.ID, c.Base.Name, c.Base.ID)
	for _, section := range c.Sections {
		_, _ = fmt.Fprintf(w, "\n%s\n", section.Title)
		_, _ = fmt.Fprintf(w, compareRowFormat, "Item", c.Base.Name, c.Other.Name, "Difference", "")
		for _, row := range section.Rows {
			base, other, diff := row.Render()
			mark := ""
			if row.Changed {
				mark = " *"
			}
			_, _ = fmt.Fprintf(w, compareRowFormat, row.Label, base, other, diff, mark)
		}
	}
}
