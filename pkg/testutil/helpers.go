// Package testutil provides common utility functions for testing.
package testutil

import (
	"math"

	"github.com/iwvelando/costing-forecast/internal/costing"
	"github.com/iwvelando/costing-forecast/internal/forecast"
)

// DefaultParameters returns the reference operation: 120 servings a day at
// 2500 over 22 days, four staff roles and a four-ingredient recipe.
func DefaultParameters() costing.OperatingParameters {
	return costing.OperatingParameters{
		UnitPrice:    2500,
		DaysPerMonth: 22,
		DailyVolume:  120,
		StaffRoles: map[string]costing.StaffRole{
			costing.RoleCooks:             {BaseSalary: 750000, Headcount: 1},
			costing.RoleKitchenAssistants: {BaseSalary: 600000, Headcount: 2},
			costing.RoleWaitstaff:         {BaseSalary: 300000, Headcount: 3},
			costing.RoleAdministrators:    {BaseSalary: 200000, Headcount: 1},
		},
		BenefitsFactor: 0.52,
		Ingredients: map[string]costing.Ingredient{
			"rice":     {PricePerKg: 50, GramsPerServing: 45},
			"meat":     {PricePerKg: 150, GramsPerServing: 200},
			"potato":   {PricePerKg: 200, GramsPerServing: 70},
			"plantain": {PricePerKg: 75, GramsPerServing: 45},
		},
		Overheads: costing.Overheads{
			Rent:                    900000,
			UtilitiesRatePerServing: 50,
			MunicipalTaxRate:        0.005,
			Depreciation:            250000,
		},
		Allocation: costing.Allocation{
			RentKitchen:         0.2,
			RentSales:           0.8,
			DepreciationKitchen: 0.5,
			DepreciationSales:   0.5,
		},
		TargetProfit: 2500000,
	}
}

// FindScenario finds a forecast by name in the results slice.
// Returns a pointer to the forecast if found, nil otherwise.
func FindScenario(results []forecast.Forecast, name string) *forecast.Forecast {
	for i := range results {
		if results[i].Name == name {
			return &results[i]
		}
	}
	return nil
}

// AlmostEqual reports whether a and b differ by at most tolerance.
func AlmostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}
