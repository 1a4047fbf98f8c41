package models

import (
	"fmt"
	"time"
)

// SplitKind names a split strategy for storage and the wire format.
type SplitKind string

const (
	SplitEqual      SplitKind = "equal"
	SplitCustom     SplitKind = "custom"
	SplitIndividual SplitKind = "individual"
)

// ParseSplitKind validates a split kind string. An empty string means equal.
func ParseSplitKind(s string) (SplitKind, error) {
	switch SplitKind(s) {
	case "", SplitEqual:
		return SplitEqual, nil
	case SplitCustom, SplitIndividual:
		return SplitKind(s), nil
	default:
		return "", fmt.Errorf("unknown split type %q", s)
	}
}

// SplitStrategy decides how an expense is shared among members.
// The set of implementations is closed: EqualSplit, CustomSplit and IndividualSplit.
type SplitStrategy interface {
	Kind() SplitKind
	isSplitStrategy()
}

// EqualSplit divides the amount evenly across every member of the roster.
type EqualSplit struct{}

// CustomSplit assigns each listed member a percentage (0-100) of the amount.
type CustomSplit struct {
	// Percentages maps member ID to that member's percentage.
	// Members missing from the map owe nothing.
	Percentages map[string]float64
}

// IndividualSplit means the payer bears the whole cost privately.
type IndividualSplit struct{}

func (EqualSplit) Kind() SplitKind      { return SplitEqual }
func (CustomSplit) Kind() SplitKind     { return SplitCustom }
func (IndividualSplit) Kind() SplitKind { return SplitIndividual }

func (EqualSplit) isSplitStrategy()      {}
func (CustomSplit) isSplitStrategy()     {}
func (IndividualSplit) isSplitStrategy() {}

// NewSplitStrategy builds a strategy from its stored form.
// percentages is only used for custom splits.
func NewSplitStrategy(kind SplitKind, percentages map[string]float64) SplitStrategy {
	switch kind {
	case SplitCustom:
		return CustomSplit{Percentages: percentages}
	case SplitIndividual:
		return IndividualSplit{}
	default:
		return EqualSplit{}
	}
}

// Expense represents a manually logged payment on a trip.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// TripID is the trip this expense belongs to.
	TripID string

	// Title is the human-readable description (e.g., "Dinner at Ramiro").
	Title string

	// Amount is the non-negative amount paid, in the trip currency.
	Amount float64

	// Currency is the ISO code of Amount. It matches the trip currency.
	Currency string

	// Category is a free-form grouping label (e.g., "food", "transport").
	Category string

	// Date is the day the expense happened. The zero value means unscheduled.
	Date time.Time

	// PayerID is the member who paid.
	PayerID string

	// Split determines each member's share. A nil Split is treated as EqualSplit.
	Split SplitStrategy

	// CreatedAt is the Unix timestamp when the expense was logged.
	CreatedAt int64
}

// SplitKind returns the kind of the expense split, defaulting to equal.
func (e *Expense) SplitKind() SplitKind {
	if e.Split == nil {
		return SplitEqual
	}
	return e.Split.Kind()
}

// PlannedExpense is a cost estimate derived from an itinerary entry.
// It has no payer and is always shared equally. It never affects balances.
type PlannedExpense struct {
	// ID is the unique identifier for the planned expense (UUID format).
	ID string

	// TripID is the trip this estimate belongs to.
	TripID string

	// Title is the itinerary entry the estimate comes from.
	Title string

	// Amount is the estimated cost.
	Amount float64

	// Category is a free-form grouping label.
	Category string

	// Date is the scheduled day. The zero value means unscheduled.
	Date time.Time
}
