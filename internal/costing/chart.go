package costing

import (
	"math"

	"github.com/iwvelando/costing-forecast/pkg/constants"
)

// ChartPoint is a marked (units, value) coordinate.
type ChartPoint struct {
	Units float64 `json:"units"`
	Value float64 `json:"value"`
}

// ChartSeries is the numeric content of the break-even chart: revenue and
// total cost lines over a grid of monthly servings.
type ChartSeries struct {
	Units     []float64  `json:"units"`
	Revenue   []float64  `json:"revenue"`
	TotalCost []float64  `json:"totalCost"`
	FixedCost float64    `json:"fixedCost"`
	BreakEven ChartPoint `json:"breakEven"`
	Current   ChartPoint `json:"current"`
}

// BreakEvenChart builds the chart series. The grid runs from zero to 30%
// past the larger of the break-even and current volumes in roughly ten steps.
// The grid is empty when that bound is not a finite number.
func BreakEvenChart(params OperatingParameters, variable VariableStatement, breakeven BreakEvenResult) ChartSeries {
	current := params.MonthlyVolume()
	maxUnits := math.Max(breakeven.BreakevenUnitsMonth, current) * constants.ChartHeadroomFactor
	step := math.Max(1, math.Floor(maxUnits/constants.ChartSteps))
	last := math.Floor(maxUnits)

	series := ChartSeries{
		Units:     []float64{},
		Revenue:   []float64{},
		TotalCost: []float64{},
		FixedCost: breakeven.FixedCosts,
		BreakEven: ChartPoint{Units: breakeven.BreakevenUnitsMonth, Value: breakeven.BreakevenRevenue},
		Current:   ChartPoint{Units: current, Value: variable.Revenue},
	}
	if math.IsNaN(maxUnits) || math.IsInf(maxUnits, 0) {
		return series
	}
	points := int(last/step) + 1
	for i := 0; i < points; i++ {
		u := float64(i) * step
		series.Units = append(series.Units, u)
		series.Revenue = append(series.Revenue, u*params.UnitPrice)
		series.TotalCost = append(series.TotalCost, breakeven.FixedCosts+u*breakeven.UnitVariableCost)
	}
	return series
}
