package services

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Default budget parameters of the housing-improvement programme.
const (
	DefaultMaxTotal            = 15_600_000
	DefaultDiagnosticDeduction = 1_300_000
)

// CostEntry is one enabled activity in one room, with its evaluated cost.
type CostEntry struct {
	Room               string  `json:"room"`
	Activity           string  `json:"activity"`
	Quantity           float64 `json:"quantity"`
	UnitPrice          float64 `json:"unit_price"`
	Height             float64 `json:"height,omitempty"`
	Cost               float64 `json:"cost"`
	MissingMeasurement bool    `json:"missing_measurement,omitempty"`
}

// Totals holds per-room subtotals and the grand total.
// Rooms lists the selected rooms in the order they were given.
type Totals struct {
	Subtotals  map[string]float64 `json:"subtotals"`
	Rooms      []string           `json:"rooms"`
	GrandTotal float64            `json:"grand_total"`
}

// Aggregate sums entry costs per selected room. Every selected room appears
// in Subtotals, with 0 when nothing is enabled there; entries for rooms that
// are not selected are ignored.
func Aggregate(selectedRooms []string, entries []CostEntry) Totals {
	totals := Totals{
		Subtotals: make(map[string]float64, len(selectedRooms)),
	}
	for _, room := range selectedRooms {
		if _, dup := totals.Subtotals[room]; dup {
			continue
		}
		totals.Subtotals[room] = 0
		totals.Rooms = append(totals.Rooms, room)
	}

	for _, e := range entries {
		if _, ok := totals.Subtotals[e.Room]; ok {
			totals.Subtotals[e.Room] += e.Cost
		}
	}
	for _, room := range totals.Rooms {
		totals.GrandTotal += totals.Subtotals[room]
	}
	return totals
}

// Budget holds the ceiling parameters.
type Budget struct {
	MaxTotal            float64 `json:"max_total"`
	DiagnosticDeduction float64 `json:"diagnostic_deduction"`
	ReductionPercent    float64 `json:"reduction_percent"`
}

// DefaultBudget returns the programme defaults with no reduction.
func DefaultBudget() Budget {
	return Budget{
		MaxTotal:            DefaultMaxTotal,
		DiagnosticDeduction: DefaultDiagnosticDeduction,
	}
}

// Validate checks the reduction is a percentage and the deduction fits in
// the maximum.
func (b Budget) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.MaxTotal, validation.Min(0.0)),
		validation.Field(&b.DiagnosticDeduction, validation.Min(0.0), validation.Max(b.MaxTotal)),
		validation.Field(&b.ReductionPercent, validation.Min(0.0), validation.Max(100.0)),
	)
}

// Ceiling is (max − diagnostic deduction) reduced by ReductionPercent.
func (b Budget) Ceiling() float64 {
	return (b.MaxTotal - b.DiagnosticDeduction) * (100 - b.ReductionPercent) / 100
}

// BudgetStatus is the outcome of comparing a total with the ceiling.
type BudgetStatus struct {
	Ceiling    float64 `json:"ceiling"`
	Total      float64 `json:"total"`
	Remaining  float64 `json:"remaining"`
	OverBudget bool    `json:"over_budget"`
}

// Check compares total with the ceiling. A total equal to the ceiling is
// within budget.
func (b Budget) Check(total float64) BudgetStatus {
	ceiling := b.Ceiling()
	return BudgetStatus{
		Ceiling:    ceiling,
		Total:      total,
		Remaining:  ceiling - total,
		OverBudget: total > ceiling,
	}
}
