// Package api defines the request and response messages of the tripledger
// RPC services. Messages travel as JSON over the Connect protocol; see
// package apiconnect for handlers and clients.
//
// Dates are ISO calendar days ("2006-01-02"). An empty date means the
// entry is not scheduled yet.
package api

// Member is one person on a trip roster.
type Member struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Trip is a shared trip and its roster.
type Trip struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Currency  string   `json:"currency"`
	Budget    float64  `json:"budget,omitempty"`
	Members   []Member `json:"members"`
	CreatedAt int64    `json:"created_at"`
}

// Split describes how an expense is shared. Type is "equal", "custom" or
// "individual"; Percentages is only read for custom splits.
type Split struct {
	Type        string             `json:"type"`
	Percentages map[string]float64 `json:"percentages,omitempty"`
}

// Expense is a manually logged payment.
type Expense struct {
	ID        string  `json:"id,omitempty"`
	TripID    string  `json:"trip_id,omitempty"`
	Title     string  `json:"title"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency,omitempty"`
	Category  string  `json:"category,omitempty"`
	Date      string  `json:"date,omitempty"`
	PayerID   string  `json:"payer_id"`
	Split     Split   `json:"split"`
	CreatedAt int64   `json:"created_at,omitempty"`
}

// PlannedExpense is an itinerary cost estimate.
type PlannedExpense struct {
	ID       string  `json:"id,omitempty"`
	TripID   string  `json:"trip_id,omitempty"`
	Title    string  `json:"title"`
	Amount   float64 `json:"amount"`
	Category string  `json:"category,omitempty"`
	Date     string  `json:"date,omitempty"`
}

// Share is one member's portion of an expense.
type Share struct {
	Member Member  `json:"member"`
	Amount float64 `json:"amount"`
}

// Balance is a member's position across the trip ledger.
// Net is positive when the member is owed money.
type Balance struct {
	Member        Member  `json:"member"`
	Paid          float64 `json:"paid"`
	PaidPrivately float64 `json:"paid_privately"`
	OwedShare     float64 `json:"owed_share"`
	Sent          float64 `json:"sent"`
	Received      float64 `json:"received"`
	Net           float64 `json:"net"`
}

// Transfer is one suggested payment of a settlement plan.
type Transfer struct {
	From   Member  `json:"from"`
	To     Member  `json:"to"`
	Amount float64 `json:"amount"`
}

// Settlement is a payment between members that has happened.
type Settlement struct {
	ID           string  `json:"id"`
	TripID       string  `json:"trip_id"`
	FromMemberID string  `json:"from_member_id"`
	ToMemberID   string  `json:"to_member_id"`
	Amount       float64 `json:"amount"`
	CreatedAt    int64   `json:"created_at"`
	CreatedBy    string  `json:"created_by"`
	Note         string  `json:"note,omitempty"`
}

// LedgerEntry is one row of the combined ledger.
type LedgerEntry struct {
	Source            string  `json:"source"`
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	Amount            float64 `json:"amount"`
	Category          string  `json:"category,omitempty"`
	Date              string  `json:"date,omitempty"`
	PayerID           string  `json:"payer_id,omitempty"`
	PayerName         string  `json:"payer_name,omitempty"`
	SplitType         string  `json:"split_type,omitempty"`
	PerPersonEstimate float64 `json:"per_person_estimate,omitempty"`
}

// DateGroup holds the ledger entries of one day.
type DateGroup struct {
	Date        string        `json:"date,omitempty"`
	Unscheduled bool          `json:"unscheduled,omitempty"`
	Entries     []LedgerEntry `json:"entries"`
	Total       float64       `json:"total"`
}

// MemberTotal is how much a member paid across manual expenses.
type MemberTotal struct {
	Member Member  `json:"member"`
	Amount float64 `json:"amount"`
}

// LedgerView is the presentation-ready ledger of a trip.
type LedgerView struct {
	Groups           []DateGroup   `json:"groups"`
	TotalManualSpent float64       `json:"total_manual_spent"`
	TotalPlanned     float64       `json:"total_planned"`
	PlannedPerPerson float64       `json:"planned_per_person"`
	PercentOfBudget  *int          `json:"percent_of_budget,omitempty"`
	PaidByMember     []MemberTotal `json:"paid_by_member"`
}

// User is a registered account.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	CreatedAt   int64  `json:"created_at,omitempty"`
}
