package config

import (
	"strings"

	"github.com/iwvelando/costing-forecast/internal/costing"
	"github.com/iwvelando/costing-forecast/internal/simulation"
)

// CommonScenarioName names the result computed from the common parameters
// when no scenario is active.
const CommonScenarioName = "common"

// ToOperatingParameters converts the common block into an engine snapshot.
// Role and ingredient names are folded to lower case.
func (c Common) ToOperatingParameters() costing.OperatingParameters {
	params := costing.OperatingParameters{
		UnitPrice:      c.UnitPrice,
		DaysPerMonth:   c.DaysPerMonth,
		DailyVolume:    c.DailyVolume,
		BenefitsFactor: c.BenefitsFactor,
		TargetProfit:   c.TargetProfit,
		Overheads:      c.Overheads,
		Allocation:     c.Allocation,
		StaffRoles:     make(map[string]costing.StaffRole, len(c.StaffRoles)),
		Ingredients:    make(map[string]costing.Ingredient, len(c.Ingredients)),
	}
	for name, role := range c.StaffRoles {
		params.StaffRoles[costing.NormalizeRole(name)] = role
	}
	for name, ing := range c.Ingredients {
		params.Ingredients[strings.ToLower(strings.TrimSpace(name))] = ing
	}
	return params
}

// ScenarioParameters applies a scenario's adjustments on top of the common
// parameters.
func (c *Configuration) ScenarioParameters(scenario Scenario) costing.OperatingParameters {
	params := c.Common.ToOperatingParameters()
	if scenario.UnitPrice != nil {
		params.UnitPrice = *scenario.UnitPrice
	}
	if scenario.DaysPerMonth != nil {
		params.DaysPerMonth = *scenario.DaysPerMonth
	}
	if scenario.DailyVolume != nil {
		params.DailyVolume = *scenario.DailyVolume
	}
	if scenario.BenefitsFactor != nil {
		params.BenefitsFactor = *scenario.BenefitsFactor
	}
	if scenario.TargetProfit != nil {
		params.TargetProfit = *scenario.TargetProfit
	}
	override(&params.Overheads.Rent, scenario.Overheads.Rent)
	override(&params.Overheads.UtilitiesRatePerServing, scenario.Overheads.UtilitiesRatePerServing)
	override(&params.Overheads.MunicipalTaxRate, scenario.Overheads.MunicipalTaxRate)
	override(&params.Overheads.Depreciation, scenario.Overheads.Depreciation)
	override(&params.Allocation.RentKitchen, scenario.Allocation.RentKitchen)
	override(&params.Allocation.RentSales, scenario.Allocation.RentSales)
	override(&params.Allocation.DepreciationKitchen, scenario.Allocation.DepreciationKitchen)
	override(&params.Allocation.DepreciationSales, scenario.Allocation.DepreciationSales)
	for name, role := range scenario.StaffRoles {
		params.StaffRoles[costing.NormalizeRole(name)] = role
	}
	for name, ing := range scenario.Ingredients {
		params.Ingredients[strings.ToLower(strings.TrimSpace(name))] = ing
	}
	return params
}

func override(dst *float64, value *float64) {
	if value != nil {
		*dst = *value
	}
}

// NamedParameters is one snapshot to compute, labelled for reporting.
type NamedParameters struct {
	Name   string
	Params costing.OperatingParameters
}

// ActiveParameters lists the snapshots to compute: one per active scenario,
// or the common parameters alone when no scenario is active.
func (c *Configuration) ActiveParameters() []NamedParameters {
	var out []NamedParameters
	for _, scenario := range c.Scenarios {
		if scenario.Active {
			out = append(out, NamedParameters{Name: scenario.Name, Params: c.ScenarioParameters(scenario)})
		}
	}
	if len(out) == 0 {
		out = append(out, NamedParameters{Name: CommonScenarioName, Params: c.Common.ToOperatingParameters()})
	}
	return out
}

// SimulationParams centres the simulation on params: the average volume is
// the daily volume and the average cost is the driver ingredient's price.
func (s SimulationConfig) SimulationParams(params costing.OperatingParameters) simulation.Params {
	driver := params.Ingredients[strings.ToLower(s.DriverIngredient)]
	return simulation.Params{
		Days:        s.Days,
		AvgVolume:   float64(params.DailyVolume),
		SigmaVolume: s.SigmaVolume,
		AvgCost:     driver.PricePerKg,
		MinCost:     s.MinCost,
		MaxCost:     s.MaxCost,
		ModeCost:    s.ModeCost,
	}
}

// ApplySimulation feeds the last simulated day back into params: the last
// volume becomes the daily volume and the last cost the driver's price.
func (s SimulationConfig) ApplySimulation(params costing.OperatingParameters, series simulation.SimulatedSeries) costing.OperatingParameters {
	out := params.Clone()
	if volume, ok := series.LastVolume(); ok {
		out.DailyVolume = volume
	}
	key := strings.ToLower(s.DriverIngredient)
	if cost, ok := series.LastCost(); ok {
		if ing, found := out.Ingredients[key]; found {
			ing.PricePerKg = cost
			out.Ingredients[key] = ing
		}
	}
	return out
}
