package costing

import (
	"maps"
	"slices"

	"github.com/iwvelando/costing-forecast/pkg/constants"
)

// PersonnelCost is the monthly cost of one staff role.
type PersonnelCost struct {
	Role       string  `json:"role"`
	BaseCost   float64 `json:"baseCost"`
	Commission float64 `json:"commission"`
	Benefits   float64 `json:"benefits"`
	Total      float64 `json:"total"`
}

// Personnel maps normalized role names to their monthly cost.
type Personnel map[string]PersonnelCost

// CommissionRate returns the share of monthly revenue paid to role as commission.
func CommissionRate(role string) float64 {
	switch NormalizeRole(role) {
	case RoleWaitstaff:
		return constants.WaitstaffCommissionRate
	case RoleAdministrators:
		return constants.AdministratorCommissionRate
	default:
		return 0
	}
}

// ComputePersonnel derives the cost of every configured role. Both statements
// consume these totals, so it must run before either of them. Role names that
// differ only in case or surrounding spaces are one role: their base payroll
// is added together and the commission is paid once.
func ComputePersonnel(params OperatingParameters) Personnel {
	revenue := params.MonthlyRevenue()
	payroll := make(map[string]float64, len(params.StaffRoles))
	for _, name := range slices.Sorted(maps.Keys(params.StaffRoles)) {
		role := params.StaffRoles[name]
		payroll[NormalizeRole(name)] += role.BaseSalary * float64(role.Headcount)
	}

	personnel := make(Personnel, len(payroll))
	for key, base := range payroll {
		commission := revenue * CommissionRate(key)
		benefits := (base + commission) * params.BenefitsFactor
		personnel[key] = PersonnelCost{
			Role:       key,
			BaseCost:   base,
			Commission: commission,
			Benefits:   benefits,
			Total:      base + commission + benefits,
		}
	}
	return personnel
}

// Total returns the full cost of role, 0 when the role is not staffed.
func (p Personnel) Total(role string) float64 {
	return p[NormalizeRole(role)].Total
}

// Base returns the base salary cost of role.
func (p Personnel) Base(role string) float64 {
	return p[NormalizeRole(role)].BaseCost
}

// Commissions sums the commission of every role in name order.
func (p Personnel) Commissions() float64 {
	total := 0.0
	for _, role := range p.Roles() {
		total += p[role].Commission
	}
	return total
}

// Roles returns the staffed roles sorted by name.
func (p Personnel) Roles() []string {
	return slices.Sorted(maps.Keys(p))
}
