package costing

// DerivedResults is everything computed from one parameter snapshot. When the
// traditional statement cannot be built Traditional is nil and TraditionalErr
// says why; the variable side is always present.
type DerivedResults struct {
	Params           OperatingParameters   `json:"params"`
	Personnel        Personnel             `json:"personnel"`
	Traditional      *TraditionalStatement `json:"traditional,omitempty"`
	TraditionalErr   error                 `json:"-"`
	TraditionalError string                `json:"traditionalError,omitempty"`
	Variable         VariableStatement     `json:"variable"`
	BreakEven        BreakEvenResult       `json:"breakEven"`
	Chart            ChartSeries           `json:"chart"`
	Reconciliation   *Reconciliation       `json:"reconciliation,omitempty"`
}

// Recompute runs the whole costing engine over params. It is pure and cheap
// enough to call on every edit.
func Recompute(params OperatingParameters) DerivedResults {
	snapshot := params.Clone()
	personnel := ComputePersonnel(snapshot)

	results := DerivedResults{
		Params:    snapshot,
		Personnel: personnel,
	}

	// The variable error is always nil; see ComputeVariableStatement.
	variable, breakeven, _ := ComputeVariableStatement(snapshot, personnel)
	results.Variable = variable
	results.BreakEven = breakeven
	results.Chart = BreakEvenChart(snapshot, variable, breakeven)

	trad, err := ComputeTraditionalStatement(snapshot, personnel)
	if err != nil {
		results.TraditionalErr = err
		results.TraditionalError = err.Error()
		return results
	}
	results.Traditional = &trad
	rec := Reconcile(snapshot, personnel, trad, variable)
	results.Reconciliation = &rec
	return results
}
