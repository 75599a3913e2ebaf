// Package compare diffs two stored reports line by line.
package compare

import (
	"errors"
	"math"

	"github.com/iwvelando/costing-forecast/internal/costing"
	"github.com/iwvelando/costing-forecast/internal/store"
	"github.com/iwvelando/costing-forecast/pkg/constants"
	"github.com/iwvelando/costing-forecast/pkg/format"
)

// ErrSameReport is returned when a report is compared with itself.
var ErrSameReport = errors.New("cannot compare a report with itself")

// Format tells how a compared value is rendered.
type Format string

const (
	FormatCurrency Format = "currency"
	FormatPercent  Format = "percent"
	FormatNumber   Format = "number"
)

// NotAvailable is rendered for a value missing on either side.
const NotAvailable = "N/A"

type concept struct {
	label  string
	key    string
	format Format
}

var traditionalConcepts = []concept{
	{"Sales", costing.LineRevenue, FormatCurrency},
	{"Raw materials", costing.LineMaterials, FormatCurrency},
	{"Direct labor", costing.LineDirectLabor, FormatCurrency},
	{"Manufacturing overhead (CIF)", costing.LineOverhead, FormatCurrency},
	{"Total cost of sales", costing.LineCostOfSales, FormatCurrency},
	{"Gross profit", costing.LineGrossProfit, FormatCurrency},
	{"Administration salaries", costing.LineAdminSalaries, FormatCurrency},
	{"Waitstaff salaries", costing.LineWaitstaffSalaries, FormatCurrency},
	{"Rent (sales & admin)", costing.LineRentSales, FormatCurrency},
	{"Depreciation (sales & admin)", costing.LineDepreciationSales, FormatCurrency},
	{"Municipal business tax", costing.LineMunicipalTax, FormatCurrency},
	{"Total sales & admin expenses", costing.LinePeriodExpense, FormatCurrency},
	{"Operating profit", costing.LineOperatingProfit, FormatCurrency},
}

var variableConcepts = []concept{
	{"Sales", costing.LineRevenue, FormatCurrency},
	{"Variable raw materials", costing.LineVariableMaterials, FormatCurrency},
	{"Variable utilities", costing.LineVariableUtilities, FormatCurrency},
	{"Variable commissions", costing.LineVariableCommissions, FormatCurrency},
	{"Variable municipal business tax", costing.LineVariableMunicipalTax, FormatCurrency},
	{"Total variable costs", costing.LineTotalVariableCost, FormatCurrency},
	{"Contribution margin", costing.LineContributionMargin, FormatCurrency},
	{"Fixed direct labor", costing.LineFixedDirectLabor, FormatCurrency},
	{"Fixed administration salary", costing.LineFixedAdminSalary, FormatCurrency},
	{"Fixed waitstaff salary", costing.LineFixedWaitstaffSalary, FormatCurrency},
	{"Rent", costing.LineFixedRent, FormatCurrency},
	{"Depreciation", costing.LineFixedDepreciation, FormatCurrency},
	{"Total fixed costs", costing.LineTotalFixedCost, FormatCurrency},
	{"Operating profit", costing.LineOperatingProfit, FormatCurrency},
	{"Return on sales", costing.LineProfitabilityRatio, FormatPercent},
}

var breakEvenConcepts = []concept{
	{"Break-even revenue", costing.LineBreakevenRevenue, FormatCurrency},
	{"Break-even servings (month)", costing.LineBreakevenUnitsMonth, FormatNumber},
	{"Break-even servings (day)", costing.LineBreakevenUnitsDay, FormatNumber},
	{"Safety margin", costing.LineSafetyMarginFraction, FormatPercent},
	{"Safety margin value", costing.LineSafetyMarginValue, FormatCurrency},
	{"Unit contribution margin", costing.LineUnitContributionMargin, FormatCurrency},
	{"Target servings (month)", costing.LineTargetUnitsMonth, FormatNumber},
	{"Target revenue", costing.LineTargetRevenue, FormatCurrency},
}

// Row compares one concept. Base, Other and Diff are nil when unavailable.
type Row struct {
	Label   string   `json:"label"`
	Key     string   `json:"key"`
	Format  Format   `json:"format"`
	Base    *float64 `json:"base"`
	Other   *float64 `json:"other"`
	Diff    *float64 `json:"diff"`
	Changed bool     `json:"changed"`
}

// Section holds the rows of one statement kind.
type Section struct {
	Kind  costing.StatementKind `json:"kind"`
	Title string                `json:"title"`
	Rows  []Row                 `json:"rows"`
}

// ReportRef identifies a compared report.
type ReportRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Comparison is other minus base for every concept.
type Comparison struct {
	Base     ReportRef `json:"base"`
	Other    ReportRef `json:"other"`
	Sections []Section `json:"sections"`
}

// Compare diffs other against base.
func Compare(base, other *store.Snapshot) (Comparison, error) {
	if base == nil || other == nil {
		return Comparison{}, errors.New("both reports are required")
	}
	if base.ID == other.ID {
		return Comparison{}, ErrSameReport
	}

	return Comparison{
		Base:  ReportRef{ID: base.ID, Name: base.Name},
		Other: ReportRef{ID: other.ID, Name: other.Name},
		Sections: []Section{
			section(costing.KindTraditional, "Traditional costing", traditionalConcepts, base.Traditional, other.Traditional),
			section(costing.KindVariable, "Variable costing", variableConcepts, base.Variable, other.Variable),
			section(costing.KindBreakEven, "Break-even", breakEvenConcepts, base.BreakEven, other.BreakEven),
		},
	}, nil
}

func section(kind costing.StatementKind, title string, concepts []concept, base, other store.Values) Section {
	rows := make([]Row, 0, len(concepts))
	for _, c := range concepts {
		row := Row{Label: c.label, Key: c.key, Format: c.format}
		if v, ok := base.Float(c.key); ok {
			row.Base = &v
		}
		if v, ok := other.Float(c.key); ok {
			row.Other = &v
		}
		if row.Base != nil && row.Other != nil {
			diff := *row.Other - *row.Base
			row.Diff = &diff
			row.Changed = math.Abs(diff) > constants.ChangeThreshold
		}
		rows = append(rows, row)
	}
	return Section{Kind: kind, Title: title, Rows: rows}
}

// Render returns the base, other and difference cells as display strings.
func (r Row) Render() (base, other, diff string) {
	return r.value(r.Base), r.value(r.Other), r.signed(r.Diff)
}

func (r Row) value(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	switch r.Format {
	case FormatPercent:
		return format.Percent(*v)
	case FormatNumber:
		return format.Number(*v)
	default:
		return format.Currency(*v)
	}
}

func (r Row) signed(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	switch r.Format {
	case FormatPercent:
		return format.SignedPercent(*v)
	case FormatNumber:
		return format.SignedNumber(*v)
	default:
		return format.SignedCurrency(*v)
	}
}
