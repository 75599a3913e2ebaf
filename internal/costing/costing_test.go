package costing_test

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/costing-forecast/internal/costing"
	"github.com/iwvelando/costing-forecast/pkg/testutil"
)

const tolerance = 1e-6

func TestComputePersonnel(t *testing.T) {
	params := testutil.DefaultParameters()
	personnel := costing.ComputePersonnel(params)

	tests := []struct {
		role           string
		wantBase       float64
		wantCommission float64
		wantTotal      float64
	}{
		{costing.RoleCooks, 750000, 0, 750000 * 1.52},
		{costing.RoleKitchenAssistants, 1200000, 0, 1200000 * 1.52},
		{costing.RoleWaitstaff, 900000, 66000, (900000 + 66000) * 1.52},
		{costing.RoleAdministrators, 200000, 660000, (200000 + 660000) * 1.52},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			got := personnel[tt.role]
			if !testutil.AlmostEqual(got.BaseCost, tt.wantBase, tolerance) {
				t.Errorf("BaseCost = %v, want %v", got.BaseCost, tt.wantBase)
			}
			if !testutil.AlmostEqual(got.Commission, tt.wantCommission, tolerance) {
				t.Errorf("Commission = %v, want %v", got.Commission, tt.wantCommission)
			}
			if !testutil.AlmostEqual(got.Total, tt.wantTotal, tolerance) {
				t.Errorf("Total = %v, want %v", got.Total, tt.wantTotal)
			}
			if !testutil.AlmostEqual(got.BaseCost+got.Commission+got.Benefits, got.Total, tolerance) {
				t.Errorf("components do not add up to Total: %+v", got)
			}
		})
	}

	if got := personnel.Total("missing role"); got != 0 {
		t.Errorf("Total of an unstaffed role = %v, want 0", got)
	}
	if got := personnel.Total("Waitstaff"); got != personnel[costing.RoleWaitstaff].Total {
		t.Errorf("Total should normalize role names, got %v", got)
	}
}

func TestCommissionRate(t *testing.T) {
	tests := []struct {
		role string
		want float64
	}{
		{"waitstaff", 0.01},
		{"Administrators", 0.10},
		{"cooks", 0},
		{"dishwashers", 0},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			if got := costing.CommissionRate(tt.role); got != tt.want {
				t.Errorf("CommissionRate(%q) = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}

func TestReferenceOperation(t *testing.T) {
	params := testutil.DefaultParameters()
	personnel := costing.ComputePersonnel(params)

	trad, err := costing.ComputeTraditionalStatement(params, personnel)
	if err != nil {
		t.Fatalf("ComputeTraditionalStatement() error = %v", err)
	}
	variable, breakeven, err := costing.ComputeVariableStatement(params, personnel)
	if err != nil {
		t.Fatalf("ComputeVariableStatement() error = %v", err)
	}

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"revenue", trad.Revenue, 6600000},
		{"variable revenue", variable.Revenue, 6600000},
		{"materials", trad.Amount(costing.LineMaterials), 131010},
		{"direct labor", trad.Amount(costing.LineDirectLabor), 2964000},
		{"overhead", trad.Amount(costing.LineOverhead), 437000},
		{"cost of sales", trad.CostOfSales, 3532010},
		{"gross profit", trad.GrossProfit, 3067990},
		{"period expense", trad.PeriodExpense, 3653520},
		{"traditional operating profit", trad.OperatingProfit, -585530},
		{"total variable cost", variable.TotalVariableCost, 1399530},
		{"contribution margin", variable.ContributionMargin, 5200470},
		{"total fixed cost", variable.TotalFixedCost, 5786000},
		{"variable operating profit", variable.OperatingProfit, -585530},
		{"unit variable cost", breakeven.UnitVariableCost, 530.125},
		{"unit contribution margin", breakeven.UnitContributionMargin, 1969.875},
		{"break-even units", breakeven.BreakevenUnitsMonth, 5786000 / 1969.875},
		{"target units", breakeven.TargetUnitsMonth, (2500000 + 5786000) / 1969.875},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !testutil.AlmostEqual(tt.got, tt.want, tolerance) {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestTraditionalStatementIdentities(t *testing.T) {
	params := testutil.DefaultParameters()
	for _, volume := range []int{1, 60, 120, 400} {
		params.DailyVolume = volume
		trad, err := costing.ComputeTraditionalStatement(params, costing.ComputePersonnel(params))
		if err != nil {
			t.Fatalf("volume %d: unexpected error %v", volume, err)
		}
		if !testutil.AlmostEqual(trad.CostOfSales+trad.GrossProfit, trad.Revenue, tolerance) {
			t.Errorf("volume %d: cost of sales + gross profit != revenue", volume)
		}
		if !testutil.AlmostEqual(trad.PeriodExpense+trad.OperatingProfit, trad.GrossProfit, tolerance) {
			t.Errorf("volume %d: period expense + operating profit != gross profit", volume)
		}
	}
}

func TestTraditionalStatementLineOrder(t *testing.T) {
	params := testutil.DefaultParameters()
	trad, err := costing.ComputeTraditionalStatement(params, costing.ComputePersonnel(params))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	want := []string{
		costing.LineRevenue, costing.LineMaterials, costing.LineDirectLabor, costing.LineOverhead,
		costing.LineCostOfSales, costing.LineGrossProfit, costing.LineAdminSalaries,
		costing.LineWaitstaffSalaries, costing.LineRentSales, costing.LineDepreciationSales,
		costing.LineMunicipalTax, costing.LinePeriodExpense, costing.LineOperatingProfit,
	}
	var got []string
	for _, line := range trad.Lines {
		got = append(got, line.Key)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("line order = %v, want %v", got, want)
	}

	revenue, _ := trad.Line(costing.LineRevenue)
	if revenue.RevenueShare != 1 || !revenue.Subtotal {
		t.Errorf("revenue line = %+v, want share 1 and subtotal", revenue)
	}
}

func TestTraditionalStatementZeroRevenue(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*costing.OperatingParameters)
	}{
		{"zero volume", func(p *costing.OperatingParameters) { p.DailyVolume = 0 }},
		{"zero price", func(p *costing.OperatingParameters) { p.UnitPrice = 0 }},
		{"zero days", func(p *costing.OperatingParameters) { p.DaysPerMonth = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := testutil.DefaultParameters()
			tt.mutate(&params)

			trad, err := costing.ComputeTraditionalStatement(params, costing.ComputePersonnel(params))
			if !errors.Is(err, costing.ErrZeroRevenue) {
				t.Fatalf("error = %v, want ErrZeroRevenue", err)
			}
			var zre *costing.ZeroRevenueError
			if !errors.As(err, &zre) || zre.Statement != costing.KindTraditional {
				t.Errorf("error = %#v, want *ZeroRevenueError for the traditional statement", err)
			}
			if len(trad.Lines) != 0 {
				t.Errorf("expected no partial statement, got %d lines", len(trad.Lines))
			}
		})
	}
}

func TestVariableStatementIdentities(t *testing.T) {
	params := testutil.DefaultParameters()
	for _, volume := range []int{0, 1, 60, 120, 400} {
		params.DailyVolume = volume
		variable, _, err := costing.ComputeVariableStatement(params, costing.ComputePersonnel(params))
		if err != nil {
			t.Fatalf("volume %d: unexpected error %v", volume, err)
		}
		if !testutil.AlmostEqual(variable.ContributionMargin+variable.TotalVariableCost, variable.Revenue, tolerance) {
			t.Errorf("volume %d: contribution margin + variable cost != revenue", volume)
		}
		if !testutil.AlmostEqual(variable.OperatingProfit+variable.TotalFixedCost, variable.ContributionMargin, tolerance) {
			t.Errorf("volume %d: operating profit + fixed cost != contribution margin", volume)
		}
	}
}

func TestVariableStatementZeroVolume(t *testing.T) {
	params := testutil.DefaultParameters()
	params.DailyVolume = 0

	variable, breakeven, err := costing.ComputeVariableStatement(params, costing.ComputePersonnel(params))
	if err != nil {
		t.Fatalf("ComputeVariableStatement() error = %v", err)
	}
	if variable.ProfitabilityRatio != 0 {
		t.Errorf("ProfitabilityRatio = %v, want 0", variable.ProfitabilityRatio)
	}
	if breakeven.UnitVariableCost != 0 {
		t.Errorf("UnitVariableCost = %v, want 0", breakeven.UnitVariableCost)
	}
	if breakeven.SafetyMarginFraction != 0 {
		t.Errorf("SafetyMarginFraction = %v, want 0", breakeven.SafetyMarginFraction)
	}
	for _, line := range variable.Lines {
		if math.IsNaN(line.Amount) || math.IsInf(line.Amount, 0) || math.IsNaN(line.RevenueShare) {
			t.Errorf("line %s is not finite: %+v", line.Key, line)
		}
	}
}

func TestVariableStatementDeterministic(t *testing.T) {
	params := testutil.DefaultParameters()
	personnel := costing.ComputePersonnel(params)

	first, firstBE, _ := costing.ComputeVariableStatement(params, personnel)
	for i := 0; i < 20; i++ {
		again, againBE, _ := costing.ComputeVariableStatement(params, costing.ComputePersonnel(params))
		if !reflect.DeepEqual(first, again) || firstBE != againBE {
			t.Fatalf("run %d differs from the first run", i)
		}
	}
}

func TestBreakEvenIdentity(t *testing.T) {
	params := testutil.DefaultParameters()
	for _, price := range []float64{1500, 2500, 4000} {
		params.UnitPrice = price
		_, breakeven, _ := costing.ComputeVariableStatement(params, costing.ComputePersonnel(params))
		if breakeven.UnitContributionMargin == 0 {
			continue
		}
		got := breakeven.BreakevenUnitsMonth * breakeven.UnitContributionMargin
		if !testutil.AlmostEqual(got, breakeven.FixedCosts, 1e-6*breakeven.FixedCosts) {
			t.Errorf("price %v: units x margin = %v, want fixed costs %v", price, got, breakeven.FixedCosts)
		}
		if !testutil.AlmostEqual(breakeven.BreakevenRevenue, breakeven.BreakevenUnitsMonth*price, tolerance) {
			t.Errorf("price %v: break-even revenue mismatch", price)
		}
		if !testutil.AlmostEqual(breakeven.BreakevenUnitsDay*float64(params.DaysPerMonth), breakeven.BreakevenUnitsMonth, tolerance) {
			t.Errorf("price %v: daily break-even mismatch", price)
		}
	}
}

func TestBreakEvenZeroMargin(t *testing.T) {
	params := testutil.DefaultParameters()
	personnel := costing.ComputePersonnel(params)
	variable, _, _ := costing.ComputeVariableStatement(params, personnel)

	// Price equal to the unit variable cost leaves no margin to cover fixed costs.
	params.UnitPrice = variable.TotalVariableCost / params.MonthlyVolume()
	breakeven := costing.ComputeBreakEven(params, variable)
	if breakeven.UnitContributionMargin != 0 {
		t.Fatalf("UnitContributionMargin = %v, want 0", breakeven.UnitContributionMargin)
	}
	if breakeven.BreakevenUnitsMonth != 0 || breakeven.TargetUnitsMonth != 0 {
		t.Errorf("expected guarded zero results, got %+v", breakeven)
	}
}

func TestBreakEvenLines(t *testing.T) {
	params := testutil.DefaultParameters()
	_, breakeven, _ := costing.ComputeVariableStatement(params, costing.ComputePersonnel(params))

	stmt := breakeven.Lines()
	if stmt.Kind != costing.KindBreakEven {
		t.Errorf("Kind = %s, want %s", stmt.Kind, costing.KindBreakEven)
	}
	if len(stmt.Lines) != 12 {
		t.Errorf("expected 12 break-even lines, got %d", len(stmt.Lines))
	}
	units, ok := stmt.Line(costing.LineBreakevenUnitsMonth)
	if !ok || units.Unit != costing.UnitServings || units.Amount != breakeven.BreakevenUnitsMonth {
		t.Errorf("break-even units line = %+v", units)
	}
	margin, _ := stmt.Line(costing.LineSafetyMarginFraction)
	if margin.Unit != costing.UnitPercent {
		t.Errorf("safety margin unit = %s, want percent", margin.Unit)
	}
}

func TestReconcile(t *testing.T) {
	params := testutil.DefaultParameters()
	personnel := costing.ComputePersonnel(params)
	trad, _ := costing.ComputeTraditionalStatement(params, personnel)
	variable, _, _ := costing.ComputeVariableStatement(params, personnel)

	rec := costing.Reconcile(params, personnel, trad, variable)
	if !rec.Reconciled {
		t.Errorf("expected a reconciled result, got %+v", rec)
	}
	if !testutil.AlmostEqual(rec.Difference, 0, 1e-6) {
		t.Errorf("valid allocations should give equal profits, difference %v", rec.Difference)
	}

	// An allocation that loses part of the rent shows up as an allocation reclass.
	params.Allocation.RentSales = 0.5
	trad, _ = costing.ComputeTraditionalStatement(params, personnel)
	rec = costing.Reconcile(params, personnel, trad, variable)
	if !testutil.AlmostEqual(rec.AllocationReclass, -270000, 1e-6) {
		t.Errorf("AllocationReclass = %v, want -270000", rec.AllocationReclass)
	}
	if !testutil.AlmostEqual(rec.Difference, rec.CommissionReclass+rec.AllocationReclass, 1e-6) || !rec.Reconciled {
		t.Errorf("difference not explained: %+v", rec)
	}
}

func TestBreakEvenChart(t *testing.T) {
	params := testutil.DefaultParameters()
	personnel := costing.ComputePersonnel(params)
	variable, breakeven, _ := costing.ComputeVariableStatement(params, personnel)

	chart := costing.BreakEvenChart(params, variable, breakeven)

	if len(chart.Units) == 0 || len(chart.Units) != len(chart.Revenue) || len(chart.Units) != len(chart.TotalCost) {
		t.Fatalf("series lengths differ: %d %d %d", len(chart.Units), len(chart.Revenue), len(chart.TotalCost))
	}
	if chart.Units[0] != 0 || chart.TotalCost[0] != breakeven.FixedCosts {
		t.Errorf("chart should start at zero volume with fixed costs, got %v / %v", chart.Units[0], chart.TotalCost[0])
	}
	maxUnits := math.Max(breakeven.BreakevenUnitsMonth, params.MonthlyVolume()) * 1.3
	if last := chart.Units[len(chart.Units)-1]; last > maxUnits {
		t.Errorf("last unit %v beyond the 30%% headroom %v", last, maxUnits)
	}
	if len(chart.Units) < 10 || len(chart.Units) > 12 {
		t.Errorf("expected about ten steps, got %d points", len(chart.Units))
	}
	for i, u := range chart.Units {
		if !testutil.AlmostEqual(chart.Revenue[i], u*params.UnitPrice, tolerance) {
			t.Errorf("revenue at %v = %v", u, chart.Revenue[i])
		}
	}
	if chart.BreakEven.Units != breakeven.BreakevenUnitsMonth || chart.Current.Units != params.MonthlyVolume() {
		t.Errorf("marked points = %+v / %+v", chart.BreakEven, chart.Current)
	}
}

func TestBreakEvenChartZeroVolume(t *testing.T) {
	params := testutil.DefaultParameters()
	params.DailyVolume = 0
	params.UnitPrice = 0
	personnel := costing.ComputePersonnel(params)
	variable, breakeven, _ := costing.ComputeVariableStatement(params, personnel)

	chart := costing.BreakEvenChart(params, variable, breakeven)
	if len(chart.Units) != 1 || chart.Units[0] != 0 {
		t.Errorf("expected a single zero point, got %v", chart.Units)
	}
}

func TestRecompute(t *testing.T) {
	params := testutil.DefaultParameters()
	results := costing.Recompute(params)

	if results.Traditional == nil || results.TraditionalErr != nil {
		t.Fatalf("expected a traditional statement, got error %v", results.TraditionalErr)
	}
	if results.Traditional.Revenue != results.Variable.Revenue {
		t.Errorf("statements disagree on revenue: %v vs %v", results.Traditional.Revenue, results.Variable.Revenue)
	}
	if results.Reconciliation == nil || !results.Reconciliation.Reconciled {
		t.Errorf("expected a reconciled result, got %+v", results.Reconciliation)
	}

	// Recompute works on its own copy of the parameters.
	results.Params.StaffRoles[costing.RoleCooks] = costing.StaffRole{}
	if params.StaffRoles[costing.RoleCooks].Headcount != 1 {
		t.Error("Recompute shares maps with its input")
	}
}

func TestRecomputeZeroRevenue(t *testing.T) {
	params := testutil.DefaultParameters()
	params.DailyVolume = 0

	results := costing.Recompute(params)
	if results.Traditional != nil {
		t.Error("expected no traditional statement at zero revenue")
	}
	if !errors.Is(results.TraditionalErr, costing.ErrZeroRevenue) || results.TraditionalError == "" {
		t.Errorf("TraditionalErr = %v, TraditionalError = %q", results.TraditionalErr, results.TraditionalError)
	}
	if len(results.Variable.Lines) == 0 {
		t.Error("expected the variable statement to be computed")
	}
	if results.Reconciliation != nil {
		t.Error("expected no reconciliation without a traditional statement")
	}
}

func TestValidate(t *testing.T) {
	params := testutil.DefaultParameters()
	if err := params.Validate(); err != nil {
		t.Errorf("Validate() on reference parameters = %v", err)
	}

	params.Allocation.DepreciationSales = 0.7
	params.BenefitsFactor = -0.1
	if err := params.Validate(); err == nil {
		t.Error("expected Validate() to report the broken allocation and benefits factor")
	}
}

func TestUnitInputCost(t *testing.T) {
	params := testutil.DefaultParameters()
	if got := params.UnitInputCost(); !testutil.AlmostEqual(got, 49.625, tolerance) {
		t.Errorf("UnitInputCost() = %v, want 49.625", got)
	}
	params.Ingredients = nil
	if got := params.UnitInputCost(); got != 0 {
		t.Errorf("UnitInputCost() with no recipe = %v, want 0", got)
	}
}

func TestBreakEvenChartOverflowingFixedCosts(t *testing.T) {
	params := testutil.DefaultParameters()
	params.Overheads.Rent = 1e308
	params.Overheads.Depreciation = 1e308

	done := make(chan costing.DerivedResults, 1)
	go func() { done <- costing.Recompute(params) }()

	select {
	case results := <-done:
		if len(results.Chart.Units) != 0 || len(results.Chart.Revenue) != 0 || len(results.Chart.TotalCost) != 0 {
			t.Errorf("expected an empty chart grid, got %d points", len(results.Chart.Units))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Recompute did not return with overflowing fixed costs")
	}
}

func TestValidateNonFinite(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*costing.OperatingParameters)
	}{
		{"revenue overflows", func(p *costing.OperatingParameters) { p.UnitPrice = 1e307 }},
		{"overheads overflow", func(p *costing.OperatingParameters) {
			p.Overheads.Rent = 1e308
			p.Overheads.Depreciation = 1e308
		}},
		{"payroll overflows", func(p *costing.OperatingParameters) {
			p.StaffRoles[costing.RoleCooks] = costing.StaffRole{BaseSalary: 1e308, Headcount: 2}
		}},
		{"target profit is NaN", func(p *costing.OperatingParameters) { p.TargetProfit = math.NaN() }},
		{"utility rate is infinite", func(p *costing.OperatingParameters) { p.Overheads.UtilitiesRatePerServing = math.Inf(1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := testutil.DefaultParameters()
			tt.modify(&params)
			if err := params.Validate(); !errors.Is(err, costing.ErrNonFinite) {
				t.Errorf("Validate() error = %v, want ErrNonFinite", err)
			}
		})
	}
}

func TestComputePersonnelMergesEquivalentRoles(t *testing.T) {
	params := testutil.DefaultParameters()
	params.StaffRoles = map[string]costing.StaffRole{
		"Cooks":     {BaseSalary: 750000, Headcount: 1},
		"cooks ":    {BaseSalary: 750000, Headcount: 1},
		"Waitstaff": {BaseSalary: 300000, Headcount: 1},
		"waitstaff": {BaseSalary: 300000, Headcount: 2},
	}
	personnel := costing.ComputePersonnel(params)

	if len(personnel) != 2 {
		t.Fatalf("expected 2 merged roles, got %v", personnel.Roles())
	}
	if got, want := personnel.Total(costing.RoleCooks), 1500000*1.52; !testutil.AlmostEqual(got, want, tolerance) {
		t.Errorf("cooks total = %v, want %v", got, want)
	}
	commission := params.MonthlyRevenue() * costing.CommissionRate(costing.RoleWaitstaff)
	if got := personnel[costing.RoleWaitstaff].Commission; !testutil.AlmostEqual(got, commission, tolerance) {
		t.Errorf("waitstaff commission = %v, want it paid once: %v", got, commission)
	}
	if got := personnel.Base(costing.RoleWaitstaff); !testutil.AlmostEqual(got, 900000, tolerance) {
		t.Errorf("waitstaff base = %v, want 900000", got)
	}

	err := params.Validate()
	if err == nil || !strings.Contains(err.Error(), "same role") {
		t.Errorf("Validate() error = %v, want the duplicate roles reported", err)
	}
}
