package store

import (
	"math"
	"time"

	"github.com/iwvelando/costing-forecast/internal/costing"
	"github.com/shopspring/decimal"
)

// Record tables, one row per statement kind per computation.
const (
	tableTraditional = "traditional_statements"
	tableVariable    = "variable_statements"
	tableBreakEven   = "breakeven_results"
)

var traditionalColumns = []string{
	costing.LineRevenue,
	costing.LineMaterials,
	costing.LineDirectLabor,
	costing.LineOverhead,
	costing.LineCostOfSales,
	costing.LineGrossProfit,
	costing.LineAdminSalaries,
	costing.LineWaitstaffSalaries,
	costing.LineRentSales,
	costing.LineDepreciationSales,
	costing.LineMunicipalTax,
	costing.LinePeriodExpense,
	costing.LineOperatingProfit,
}

var variableColumns = []string{
	costing.LineRevenue,
	costing.LineVariableMaterials,
	costing.LineVariableUtilities,
	costing.LineVariableCommissions,
	costing.LineVariableMunicipalTax,
	costing.LineTotalVariableCost,
	costing.LineContributionMargin,
	costing.LineFixedDirectLabor,
	costing.LineFixedAdminSalary,
	costing.LineFixedWaitstaffSalary,
	costing.LineFixedRent,
	costing.LineFixedDepreciation,
	costing.LineTotalFixedCost,
	costing.LineOperatingProfit,
	costing.LineProfitabilityRatio,
}

var breakEvenColumns = []string{
	costing.LineFixedCosts,
	costing.LineUnitVariableCost,
	costing.LineUnitContributionMargin,
	costing.LineBreakevenUnitsMonth,
	costing.LineBreakevenUnitsDay,
	costing.LineBreakevenRevenue,
	costing.LineSafetyMarginFraction,
	costing.LineSafetyMarginValue,
	costing.LineTargetProfit,
	costing.LineTargetUnitsMonth,
	costing.LineTargetUnitsDay,
	costing.LineTargetRevenue,
}

// Values maps line keys to stored amounts.
type Values map[string]decimal.Decimal

// Float returns the amount for key and whether it was recorded.
func (v Values) Float(key string) (float64, bool) {
	d, ok := v[key]
	if !ok {
		return 0, false
	}
	return d.InexactFloat64(), true
}

// Snapshot is one persisted computation. Traditional is nil when the
// traditional statement could not be derived.
type Snapshot struct {
	ID          string                       `json:"id"`
	Name        string                       `json:"name"`
	GeneratedAt time.Time                    `json:"generatedAt"`
	Params      *costing.OperatingParameters `json:"params,omitempty"`
	Traditional Values                       `json:"traditional,omitempty"`
	Variable    Values                       `json:"variable"`
	BreakEven   Values                       `json:"breakEven"`

	// NonFinite lists line keys left out because their amount was NaN or
	// infinite. Such a snapshot can be compared but not saved.
	NonFinite []string `json:"nonFinite,omitempty"`
}

// ReportSummary lists a stored report without its statements.
type ReportSummary struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	GeneratedAt    time.Time `json:"generatedAt"`
	HasTraditional bool      `json:"hasTraditional"`
}

// NewSnapshot flattens derived results for persistence. Currency amounts are
// rounded to cents; ratios and servings keep four decimals.
func NewSnapshot(name string, generatedAt time.Time, results costing.DerivedResults) Snapshot {
	params := results.Params.Clone()
	snapshot := Snapshot{
		Name:        name,
		GeneratedAt: generatedAt.UTC(),
		Params:      &params,
	}
	snapshot.Variable = snapshot.flatten(results.Variable.Statement)
	snapshot.BreakEven = snapshot.flatten(results.BreakEven.Lines())
	if results.Traditional != nil {
		snapshot.Traditional = snapshot.flatten(results.Traditional.Statement)
	}
	return snapshot
}

func (s *Snapshot) flatten(stmt costing.Statement) Values {
	values := make(Values, len(stmt.Lines))
	for _, line := range stmt.Lines {
		if math.IsNaN(line.Amount) || math.IsInf(line.Amount, 0) {
			s.NonFinite = append(s.NonFinite, string(stmt.Kind)+"."+line.Key)
			continue
		}
		places := int32(2)
		if line.Unit != costing.UnitCurrency {
			places = 4
		}
		values[line.Key] = decimal.NewFromFloat(line.Amount).Round(places)
	}
	return values
}
