package costing

import "github.com/iwvelando/costing-forecast/pkg/mathutil"

// Variable statement line keys. Revenue and operating profit share the
// traditional keys.
const (
	LineVariableMaterials    = "variable_materials"
	LineVariableUtilities    = "variable_utilities"
	LineVariableCommissions  = "variable_commissions"
	LineVariableMunicipalTax = "variable_municipal_tax"
	LineTotalVariableCost    = "total_variable_cost"
	LineContributionMargin   = "contribution_margin"
	LineFixedDirectLabor     = "fixed_direct_labor"
	LineFixedAdminSalary     = "fixed_admin_salary"
	LineFixedWaitstaffSalary = "fixed_waitstaff_salary"
	LineFixedRent            = "rent"
	LineFixedDepreciation    = "depreciation"
	LineTotalFixedCost       = "total_fixed_cost"
	LineProfitabilityRatio   = "profitability_ratio"
)

// VariableStatement is the marginal costing view: costs split strictly by
// behavior into variable and fixed.
type VariableStatement struct {
	Statement
	TotalVariableCost  float64 `json:"totalVariableCost"`
	ContributionMargin float64 `json:"contributionMargin"`
	TotalFixedCost     float64 `json:"totalFixedCost"`
	OperatingProfit    float64 `json:"operatingProfit"`
	ProfitabilityRatio float64 `json:"profitabilityRatio"`
}

// ComputeVariableStatement derives the marginal costing statement and the
// break-even indicators built on its fixed/variable split. Unlike the
// traditional statement it tolerates zero revenue and zero volume: every
// would-be division by zero yields 0. The error is reserved for the
// collaborator contract and is nil for every numeric input.
func ComputeVariableStatement(params OperatingParameters, personnel Personnel) (VariableStatement, BreakEvenResult, error) {
	statement := computeVariable(params, personnel)
	return statement, ComputeBreakEven(params, statement), nil
}

func computeVariable(params OperatingParameters, personnel Personnel) VariableStatement {
	revenue := params.MonthlyRevenue()
	volume := params.MonthlyVolume()
	oh := params.Overheads
	grossUp := 1 + params.BenefitsFactor

	materials := params.UnitInputCost() * volume
	utilities := oh.UtilitiesRatePerServing * float64(params.DailyVolume) * float64(params.DaysPerMonth)
	commissions := personnel.Commissions() * grossUp
	municipalTax := oh.MunicipalTaxRate * revenue
	totalVariable := materials + utilities + commissions + municipalTax
	contribution := revenue - totalVariable

	directLabor := personnel.Total(RoleCooks) + personnel.Total(RoleKitchenAssistants)
	adminFixed := personnel.Base(RoleAdministrators) * grossUp
	waitstaffFixed := personnel.Base(RoleWaitstaff) * grossUp
	totalFixed := directLabor + adminFixed + waitstaffFixed + oh.Rent + oh.Depreciation
	operatingProfit := contribution - totalFixed
	profitability := mathutil.SafeDivide(operatingProfit, revenue)

	b := &lineBuilder{revenue: revenue}
	b.subtotal(LineRevenue, "Sales", revenue)
	b.add(LineVariableMaterials, "Variable raw materials", materials)
	b.add(LineVariableUtilities, "Variable utilities", utilities)
	b.add(LineVariableCommissions, "Variable commissions", commissions)
	b.add(LineVariableMunicipalTax, "Variable municipal business tax", municipalTax)
	b.subtotal(LineTotalVariableCost, "Total variable costs", totalVariable)
	b.subtotal(LineContributionMargin, "Contribution margin", contribution)
	b.add(LineFixedDirectLabor, "Fixed direct labor", directLabor)
	b.add(LineFixedAdminSalary, "Fixed administration salary", adminFixed)
	b.add(LineFixedWaitstaffSalary, "Fixed waitstaff salary", waitstaffFixed)
	b.add(LineFixedRent, "Rent", oh.Rent)
	b.add(LineFixedDepreciation, "Depreciation", oh.Depreciation)
	b.subtotal(LineTotalFixedCost, "Total fixed costs", totalFixed)
	b.subtotal(LineOperatingProfit, "Operating profit", operatingProfit)
	b.ratio(LineProfitabilityRatio, "Return on sales", profitability)

	return VariableStatement{
		Statement: Statement{
			Kind:    KindVariable,
			Revenue: revenue,
			Lines:   b.lines,
		},
		TotalVariableCost:  totalVariable,
		ContributionMargin: contribution,
		TotalFixedCost:     totalFixed,
		OperatingProfit:    operatingProfit,
		ProfitabilityRatio: profitability,
	}
}
