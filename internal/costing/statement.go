package costing

import (
	"errors"
	"fmt"

	"github.com/iwvelando/costing-forecast/pkg/mathutil"
)

// StatementKind names the three derived result sets.
type StatementKind string

const (
	KindTraditional StatementKind = "traditional"
	KindVariable    StatementKind = "variable"
	KindBreakEven   StatementKind = "breakeven"
)

// Unit tells renderers how to present a line amount.
type Unit string

const (
	UnitCurrency Unit = "currency"
	UnitPercent  Unit = "percent"
	UnitServings Unit = "servings"
)

// StatementLineItem is one row of a statement.
type StatementLineItem struct {
	Key          string  `json:"key"`
	Label        string  `json:"label"`
	Amount       float64 `json:"amount"`
	RevenueShare float64 `json:"revenueShare"`
	Unit         Unit    `json:"unit"`
	Subtotal     bool    `json:"subtotal,omitempty"`
}

// Statement is an ordered, never-mutated sequence of line items.
type Statement struct {
	Kind    StatementKind       `json:"kind"`
	Revenue float64             `json:"revenue"`
	Lines   []StatementLineItem `json:"lines"`
}

// Line looks up a line item by key.
func (s Statement) Line(key string) (StatementLineItem, bool) {
	for _, line := range s.Lines {
		if line.Key == key {
			return line, true
		}
	}
	return StatementLineItem{}, false
}

// Amount returns the amount of the line with key, 0 when absent.
func (s Statement) Amount(key string) float64 {
	line, _ := s.Line(key)
	return line.Amount
}

// Values flattens the statement into key/amount pairs for persistence.
func (s Statement) Values() map[string]float64 {
	values := make(map[string]float64, len(s.Lines))
	for _, line := range s.Lines {
		values[line.Key] = line.Amount
	}
	return values
}

type lineBuilder struct {
	revenue float64
	lines   []StatementLineItem
}

func (b *lineBuilder) add(key, label string, amount float64) {
	b.lines = append(b.lines, StatementLineItem{
		Key:          key,
		Label:        label,
		Amount:       amount,
		RevenueShare: mathutil.RevenueShare(amount, b.revenue),
		Unit:         UnitCurrency,
	})
}

func (b *lineBuilder) subtotal(key, label string, amount float64) {
	b.add(key, label, amount)
	b.lines[len(b.lines)-1].Subtotal = true
}

func (b *lineBuilder) ratio(key, label string, fraction float64) {
	b.lines = append(b.lines, StatementLineItem{
		Key:          key,
		Label:        label,
		Amount:       fraction,
		RevenueShare: fraction,
		Unit:         UnitPercent,
	})
}

func (b *lineBuilder) servings(key, label string, units float64) {
	b.lines = append(b.lines, StatementLineItem{
		Key:    key,
		Label:  label,
		Amount: units,
		Unit:   UnitServings,
	})
}

// ErrZeroRevenue is matched by every ZeroRevenueError.
var ErrZeroRevenue = errors.New("monthly revenue is zero")

// ZeroRevenueError reports a statement that cannot express revenue shares.
type ZeroRevenueError struct {
	Statement StatementKind
}

func (e *ZeroRevenueError) Error() string {
	return fmt.Sprintf("cannot compute %s statement: %v", e.Statement, ErrZeroRevenue)
}

// Is lets errors.Is(err, ErrZeroRevenue) match.
func (e *ZeroRevenueError) Is(target error) bool {
	return target == ErrZeroRevenue
}
