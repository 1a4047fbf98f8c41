package models

// Settlement is a payment that already happened between two trip members.
// It shifts their balances but is never an expense: it has no split and does
// not show up in the ledger view.
type Settlement struct {
	ID     string
	TripID string

	// FromMemberID paid ToMemberID. Both must be on the trip roster.
	FromMemberID string
	ToMemberID   string

	// Amount is positive, in the trip currency.
	Amount float64

	CreatedAt int64  // Unix seconds
	CreatedBy string // user ID of whoever recorded it, not necessarily a party

	Note string
}
