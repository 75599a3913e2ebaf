package costing

// Traditional statement line keys.
const (
	LineRevenue           = "revenue"
	LineMaterials         = "materials"
	LineDirectLabor       = "direct_labor"
	LineOverhead          = "overhead"
	LineCostOfSales       = "cost_of_sales"
	LineGrossProfit       = "gross_profit"
	LineAdminSalaries     = "admin_salaries"
	LineWaitstaffSalaries = "waitstaff_salaries"
	LineRentSales         = "rent_sales"
	LineDepreciationSales = "depreciation_sales"
	LineMunicipalTax      = "municipal_tax"
	LinePeriodExpense     = "period_expense"
	LineOperatingProfit   = "operating_profit"
)

// TraditionalStatement is the absorption costing view: product costs go to
// cost of sales, everything else is a period expense.
type TraditionalStatement struct {
	Statement
	CostOfSales     float64 `json:"costOfSales"`
	GrossProfit     float64 `json:"grossProfit"`
	PeriodExpense   float64 `json:"periodExpense"`
	OperatingProfit float64 `json:"operatingProfit"`
}

// ComputeTraditionalStatement derives the absorption costing statement. It
// fails with a *ZeroRevenueError when monthly revenue is zero, since every
// revenue share would be undefined; no partial statement is returned.
func ComputeTraditionalStatement(params OperatingParameters, personnel Personnel) (TraditionalStatement, error) {
	revenue := params.MonthlyRevenue()
	if revenue == 0 {
		return TraditionalStatement{}, &ZeroRevenueError{Statement: KindTraditional}
	}

	volume := params.MonthlyVolume()
	alloc := params.Allocation
	oh := params.Overheads

	materials := params.UnitInputCost() * volume
	directLabor := personnel.Total(RoleCooks) + personnel.Total(RoleKitchenAssistants)
	overhead := oh.Rent*alloc.RentKitchen +
		oh.UtilitiesRatePerServing*float64(params.DailyVolume)*float64(params.DaysPerMonth) +
		oh.Depreciation*alloc.DepreciationKitchen
	costOfSales := materials + directLabor + overhead
	grossProfit := revenue - costOfSales

	adminSalaries := personnel.Total(RoleAdministrators)
	waitstaffSalaries := personnel.Total(RoleWaitstaff)
	rentSales := oh.Rent * alloc.RentSales
	depreciationSales := oh.Depreciation * alloc.DepreciationSales
	municipalTax := oh.MunicipalTaxRate * revenue
	periodExpense := adminSalaries + waitstaffSalaries + rentSales + depreciationSales + municipalTax
	operatingProfit := grossProfit - periodExpense

	b := &lineBuilder{revenue: revenue}
	b.subtotal(LineRevenue, "Sales", revenue)
	b.add(LineMaterials, "Raw materials", materials)
	b.add(LineDirectLabor, "Direct labor", directLabor)
	b.add(LineOverhead, "Manufacturing overhead (CIF)", overhead)
	b.subtotal(LineCostOfSales, "Total cost of sales", costOfSales)
	b.subtotal(LineGrossProfit, "Gross profit", grossProfit)
	b.add(LineAdminSalaries, "Administration salaries", adminSalaries)
	b.add(LineWaitstaffSalaries, "Waitstaff salaries", waitstaffSalaries)
	b.add(LineRentSales, "Rent (sales & admin)", rentSales)
	b.add(LineDepreciationSales, "Depreciation (sales & admin)", depreciationSales)
	b.add(LineMunicipalTax, "Municipal business tax", municipalTax)
	b.subtotal(LinePeriodExpense, "Total sales & admin expenses", periodExpense)
	b.subtotal(LineOperatingProfit, "Operating profit", operatingProfit)

	return TraditionalStatement{
		Statement: Statement{
			Kind:    KindTraditional,
			Revenue: revenue,
			Lines:   b.lines,
		},
		CostOfSales:     costOfSales,
		GrossProfit:     grossProfit,
		PeriodExpense:   periodExpense,
		OperatingProfit: operatingProfit,
	}, nil
}
