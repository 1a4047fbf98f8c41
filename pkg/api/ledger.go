package api

type AddExpenseRequest struct {
	TripID  string  `json:"trip_id"`
	Expense Expense `json:"expense"`
}

type AddExpenseResponse struct {
	Expense Expense `json:"expense"`
	Shares  []Share `json:"shares"`
}

type UpdateExpenseRequest struct {
	Expense Expense `json:"expense"`
}

type UpdateExpenseResponse struct {
	Expense Expense `json:"expense"`
	Shares  []Share `json:"shares"`
}

type DeleteExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type DeleteExpenseResponse struct{}

type ListExpensesRequest struct {
	TripID string `json:"trip_id"`
}

type ListExpensesResponse struct {
	Expenses []Expense `json:"expenses"`
}

type AddPlannedExpenseRequest struct {
	TripID         string         `json:"trip_id"`
	PlannedExpense PlannedExpense `json:"planned_expense"`
}

type AddPlannedExpenseResponse struct {
	PlannedExpense PlannedExpense `json:"planned_expense"`
}

type ListPlannedExpensesRequest struct {
	TripID string `json:"trip_id"`
}

type ListPlannedExpensesResponse struct {
	PlannedExpenses []PlannedExpense `json:"planned_expenses"`
}

type DeletePlannedExpenseRequest struct {
	PlannedExpenseID string `json:"planned_expense_id"`
}

type DeletePlannedExpenseResponse struct{}

// PreviewSharesRequest computes the shares of an expense without saving it.
type PreviewSharesRequest struct {
	TripID  string  `json:"trip_id"`
	Expense Expense `json:"expense"`
}

type PreviewSharesResponse struct {
	Shares []Share `json:"shares"`
}

type GetBalancesRequest struct {
	TripID string `json:"trip_id"`
}

type GetBalancesResponse struct {
	Balances []Balance `json:"balances"`
}

type GetSettlementPlanRequest struct {
	TripID string `json:"trip_id"`
}

type GetSettlementPlanResponse struct {
	Transfers []Transfer `json:"transfers"`
	Total     float64    `json:"total"`
}

type GetLedgerViewRequest struct {
	TripID string `json:"trip_id"`
}

type GetLedgerViewResponse struct {
	View LedgerView `json:"view"`
}

type RecordSettlementRequest struct {
	TripID       string  `json:"trip_id"`
	FromMemberID string  `json:"from_member_id"`
	ToMemberID   string  `json:"to_member_id"`
	Amount       float64 `json:"amount"`
	Note         string  `json:"note,omitempty"`
}

type RecordSettlementResponse struct {
	Settlement Settlement `json:"settlement"`
}

type ListSettlementsRequest struct {
	TripID string `json:"trip_id"`
}

type ListSettlementsResponse struct {
	Settlements []Settlement `json:"settlements"`
}

type DeleteSettlementRequest struct {
	SettlementID string `json:"settlement_id"`
}

type DeleteSettlementResponse struct{}
