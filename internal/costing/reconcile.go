package costing

import (
	"github.com/iwvelando/costing-forecast/pkg/constants"
	"github.com/iwvelando/costing-forecast/pkg/mathutil"
)

// Reconciliation explains the gap between the two operating profits.
type Reconciliation struct {
	TraditionalProfit float64 `json:"traditionalProfit"`
	VariableProfit    float64 `json:"variableProfit"`
	Difference        float64 `json:"difference"`
	CommissionReclass float64 `json:"commissionReclass"`
	AllocationReclass float64 `json:"allocationReclass"`
	Residual          float64 `json:"residual"`
	Reconciled        bool    `json:"reconciled"`
}

// Reconcile splits variable minus traditional operating profit into the
// personnel regrouping and the rent/depreciation allocation. Any remainder is
// reported as Residual; Reconciled holds when it is below one cent.
func Reconcile(params OperatingParameters, personnel Personnel, trad TraditionalStatement, variable VariableStatement) Reconciliation {
	grossUp := 1 + params.BenefitsFactor
	oh := params.Overheads
	alloc := params.Allocation

	traditionalPeople := personnel.Total(RoleAdministrators) + personnel.Total(RoleWaitstaff)
	variablePeople := (personnel.Commissions() + personnel.Base(RoleAdministrators) + personnel.Base(RoleWaitstaff)) * grossUp
	commission := traditionalPeople - variablePeople

	allocated := oh.Rent*(alloc.RentKitchen+alloc.RentSales) + oh.Depreciation*(alloc.DepreciationKitchen+alloc.DepreciationSales)
	allocation := allocated - (oh.Rent + oh.Depreciation)

	diff := variable.OperatingProfit - trad.OperatingProfit
	residual := diff - commission - allocation
	return Reconciliation{
		TraditionalProfit: trad.OperatingProfit,
		VariableProfit:    variable.OperatingProfit,
		Difference:        diff,
		CommissionReclass: commission,
		AllocationReclass: allocation,
		Residual:          residual,
		Reconciled:        mathutil.WithinTolerance(residual, 0, constants.CurrencyTolerance),
	}
}
