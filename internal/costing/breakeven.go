package costing

import "github.com/iwvelando/costing-forecast/pkg/mathutil"

// Break-even line keys.
const (
	LineFixedCosts             = "fixed_costs"
	LineUnitVariableCost       = "unit_variable_cost"
	LineUnitContributionMargin = "unit_contribution_margin"
	LineBreakevenUnitsMonth    = "breakeven_units_month"
	LineBreakevenUnitsDay      = "breakeven_units_day"
	LineBreakevenRevenue       = "breakeven_revenue"
	LineSafetyMarginFraction   = "safety_margin_fraction"
	LineSafetyMarginValue      = "safety_margin_value"
	LineTargetProfit           = "target_profit"
	LineTargetUnitsMonth       = "target_units_month"
	LineTargetUnitsDay         = "target_units_day"
	LineTargetRevenue          = "target_revenue"
)

// BreakEvenResult holds the break-even and target-volume indicators.
type BreakEvenResult struct {
	FixedCosts             float64 `json:"fixedCosts"`
	UnitVariableCost       float64 `json:"unitVariableCost"`
	UnitContributionMargin float64 `json:"unitContributionMargin"`
	BreakevenUnitsMonth    float64 `json:"breakevenUnitsMonth"`
	BreakevenUnitsDay      float64 `json:"breakevenUnitsDay"`
	BreakevenRevenue       float64 `json:"breakevenRevenue"`
	SafetyMarginFraction   float64 `json:"safetyMarginFraction"`
	SafetyMarginValue      float64 `json:"safetyMarginValue"`
	TargetProfit           float64 `json:"targetProfit"`
	TargetUnitsMonth       float64 `json:"targetUnitsMonth"`
	TargetUnitsDay         float64 `json:"targetUnitsDay"`
	TargetRevenue          float64 `json:"targetRevenue"`
}

// ComputeBreakEven derives break-even indicators from the fixed/variable split
// of a variable statement. Every zero denominator yields 0.
func ComputeBreakEven(params OperatingParameters, variable VariableStatement) BreakEvenResult {
	volume := params.MonthlyVolume()
	days := float64(params.DaysPerMonth)
	price := params.UnitPrice
	fixed := variable.TotalFixedCost

	unitVariable := mathutil.SafeDivide(variable.TotalVariableCost, volume)
	unitMargin := price - unitVariable

	beUnits := mathutil.SafeDivide(fixed, unitMargin)
	beRevenue := beUnits * price

	targetUnits := mathutil.SafeDivide(params.TargetProfit+fixed, unitMargin)

	return BreakEvenResult{
		FixedCosts:             fixed,
		UnitVariableCost:       unitVariable,
		UnitContributionMargin: unitMargin,
		BreakevenUnitsMonth:    beUnits,
		BreakevenUnitsDay:      mathutil.SafeDivide(beUnits, days),
		BreakevenRevenue:       beRevenue,
		SafetyMarginFraction:   mathutil.SafeDivide(volume-beUnits, volume),
		SafetyMarginValue:      variable.Revenue - beRevenue,
		TargetProfit:           params.TargetProfit,
		TargetUnitsMonth:       targetUnits,
		TargetUnitsDay:         mathutil.SafeDivide(targetUnits, days),
		TargetRevenue:          targetUnits * price,
	}
}

// Lines presents the indicators as a statement for rendering and persistence.
// Break-even lines carry no revenue share.
func (r BreakEvenResult) Lines() Statement {
	b := &lineBuilder{}
	b.add(LineFixedCosts, "Total fixed costs", r.FixedCosts)
	b.add(LineUnitVariableCost, "Unit variable cost", r.UnitVariableCost)
	b.add(LineUnitContributionMargin, "Unit contribution margin", r.UnitContributionMargin)
	b.servings(LineBreakevenUnitsMonth, "Break-even (servings per month)", r.BreakevenUnitsMonth)
	b.servings(LineBreakevenUnitsDay, "Break-even (servings per day)", r.BreakevenUnitsDay)
	b.subtotal(LineBreakevenRevenue, "Break-even revenue", r.BreakevenRevenue)
	b.ratio(LineSafetyMarginFraction, "Safety margin", r.SafetyMarginFraction)
	b.add(LineSafetyMarginValue, "Safety margin value", r.SafetyMarginValue)
	b.add(LineTargetProfit, "Target profit", r.TargetProfit)
	b.servings(LineTargetUnitsMonth, "Target volume (servings per month)", r.TargetUnitsMonth)
	b.servings(LineTargetUnitsDay, "Target volume (servings per day)", r.TargetUnitsDay)
	b.subtotal(LineTargetRevenue, "Target revenue", r.TargetRevenue)
	return Statement{Kind: KindBreakEven, Lines: b.lines}
}
