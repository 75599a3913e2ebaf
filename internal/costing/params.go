// Package costing derives absorption costing, variable costing and break-even
// indicators from one snapshot of operating parameters. Every function here is
// pure: results are freshly allocated and inputs are never modified.
package costing

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/iwvelando/costing-forecast/pkg/constants"
)

// Staff roles with special treatment in the statements.
const (
	RoleCooks             = "cooks"
	RoleKitchenAssistants = "kitchen assistants"
	RoleWaitstaff         = "waitstaff"
	RoleAdministrators    = "administrators"
)

// StaffRole is the payroll input for one role.
type StaffRole struct {
	BaseSalary float64 `json:"baseSalary" yaml:"baseSalary"`
	Headcount  int     `json:"headcount" yaml:"headcount"`
}

// Ingredient is the per-serving recipe input for one ingredient.
type Ingredient struct {
	PricePerKg      float64 `json:"pricePerKg" yaml:"pricePerKg"`
	GramsPerServing float64 `json:"gramsPerServing" yaml:"gramsPerServing"`
}

// Overheads are the monthly general expenses.
type Overheads struct {
	Rent                    float64 `json:"rent" yaml:"rent"`
	UtilitiesRatePerServing float64 `json:"utilitiesRatePerServing" yaml:"utilitiesRatePerServing"`
	MunicipalTaxRate        float64 `json:"municipalTaxRate" yaml:"municipalTaxRate"`
	Depreciation            float64 `json:"depreciation" yaml:"depreciation"`
}

// Allocation splits rent and depreciation between the kitchen (cost of sales)
// and sales & administration (period expense). Each pair sums to 1.
type Allocation struct {
	RentKitchen         float64 `json:"rentKitchen" yaml:"rentKitchen"`
	RentSales           float64 `json:"rentSales" yaml:"rentSales"`
	DepreciationKitchen float64 `json:"depreciationKitchen" yaml:"depreciationKitchen"`
	DepreciationSales   float64 `json:"depreciationSales" yaml:"depreciationSales"`
}

// OperatingParameters is the immutable snapshot driving every derivation.
type OperatingParameters struct {
	UnitPrice      float64               `json:"unitPrice" yaml:"unitPrice"`
	DaysPerMonth   int                   `json:"daysPerMonth" yaml:"daysPerMonth"`
	DailyVolume    int                   `json:"dailyVolume" yaml:"dailyVolume"`
	StaffRoles     map[string]StaffRole  `json:"staffRoles" yaml:"staffRoles"`
	BenefitsFactor float64               `json:"benefitsFactor" yaml:"benefitsFactor"`
	Ingredients    map[string]Ingredient `json:"ingredients" yaml:"ingredients"`
	Overheads      Overheads             `json:"overheads" yaml:"overheads"`
	Allocation     Allocation            `json:"allocation" yaml:"allocation"`
	TargetProfit   float64               `json:"targetProfit" yaml:"targetProfit"`
}

// MonthlyRevenue is unit price times servings per month.
func (p OperatingParameters) MonthlyRevenue() float64 {
	return p.UnitPrice * float64(p.DailyVolume) * float64(p.DaysPerMonth)
}

// MonthlyVolume is servings per month.
func (p OperatingParameters) MonthlyVolume() float64 {
	return float64(p.DailyVolume) * float64(p.DaysPerMonth)
}

// UnitInputCost is the ingredient cost of one serving. Ingredients are summed
// in name order so repeated calls are bit-identical.
func (p OperatingParameters) UnitInputCost() float64 {
	total := 0.0
	for _, name := range slices.Sorted(maps.Keys(p.Ingredients)) {
		ing := p.Ingredients[name]
		total += ing.PricePerKg * ing.GramsPerServing / constants.GramsPerKilogram
	}
	return total
}

// Clone returns a deep copy so callers can adjust a snapshot without sharing maps.
func (p OperatingParameters) Clone() OperatingParameters {
	clone := p
	clone.StaffRoles = maps.Clone(p.StaffRoles)
	clone.Ingredients = maps.Clone(p.Ingredients)
	return clone
}

// ErrNonFinite marks parameters whose monthly totals overflow float64.
var ErrNonFinite = errors.New("monthly totals are not finite")

// Validate reports the invariants the engine assumes but does not enforce.
func (p OperatingParameters) Validate() error {
	var errs []error
	if err := p.checkFinite(); err != nil {
		errs = append(errs, err)
	}
	if p.DaysPerMonth <= 0 {
		errs = append(errs, fmt.Errorf("daysPerMonth must be positive, got %d", p.DaysPerMonth))
	}
	if p.DailyVolume < 0 {
		errs = append(errs, fmt.Errorf("dailyVolume must not be negative, got %d", p.DailyVolume))
	}
	if p.BenefitsFactor < 0 {
		errs = append(errs, fmt.Errorf("benefitsFactor must not be negative, got %v", p.BenefitsFactor))
	}
	if !sumsToOne(p.Allocation.RentKitchen, p.Allocation.RentSales) {
		errs = append(errs, fmt.Errorf("rent allocation must sum to 1, got %v + %v",
			p.Allocation.RentKitchen, p.Allocation.RentSales))
	}
	if !sumsToOne(p.Allocation.DepreciationKitchen, p.Allocation.DepreciationSales) {
		errs = append(errs, fmt.Errorf("depreciation allocation must sum to 1, got %v + %v",
			p.Allocation.DepreciationKitchen, p.Allocation.DepreciationSales))
	}
	seen := make(map[string]string, len(p.StaffRoles))
	for _, name := range slices.Sorted(maps.Keys(p.StaffRoles)) {
		role := p.StaffRoles[name]
		if role.Headcount < 0 {
			errs = append(errs, fmt.Errorf("role %q headcount must not be negative, got %d", name, role.Headcount))
		}
		key := NormalizeRole(name)
		if first, ok := seen[key]; ok {
			errs = append(errs, fmt.Errorf("roles %q and %q are the same role, their payroll is added together", first, name))
			continue
		}
		seen[key] = name
	}
	return errors.Join(errs...)
}

// checkFinite rejects inputs whose monthly totals overflow, since no
// statement built from them can be stored or encoded.
func (p OperatingParameters) checkFinite() error {
	payroll := 0.0
	for _, role := range p.StaffRoles {
		payroll += role.BaseSalary * float64(role.Headcount)
	}
	totals := []struct {
		name  string
		value float64
	}{
		{"revenue", p.MonthlyRevenue()},
		{"materials", p.UnitInputCost() * p.MonthlyVolume()},
		{"payroll", payroll * (1 + p.BenefitsFactor)},
		{"overheads", p.Overheads.Rent + p.Overheads.Depreciation +
			p.Overheads.UtilitiesRatePerServing*p.MonthlyVolume()},
		{"target profit", p.TargetProfit},
	}
	for _, t := range totals {
		if math.IsNaN(t.value) || math.IsInf(t.value, 0) {
			return fmt.Errorf("%w: %s is %v", ErrNonFinite, t.name, t.value)
		}
	}
	return nil
}

func sumsToOne(a, b float64) bool {
	return math.Abs(a+b-1) <= constants.AllocationTolerance
}

// NormalizeRole folds a role name to the form used for commission lookups.
func NormalizeRole(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
