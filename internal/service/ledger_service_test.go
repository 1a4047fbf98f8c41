package service

import (
	"context"
	"math"
	"strings"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/tripledger/internal/events"
	"github.com/mmynk/tripledger/pkg/api"
)

var (
	bobMember     = api.Member{ID: "m-bob", Name: "Bob"}
	charlieMember = api.Member{ID: "m-charlie", Name: "Charlie"}
)

func approx(a, b float64) bool {
	return math.Abs(a-b) <= 0.01
}

func TestSettlementFlow(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "Alice")
	trip := env.createTrip(t, alice, 0, bobMember, charlieMember)
	ctx := context.Background()

	added, err := env.ledger.AddExpense(ctx, authed(alice.token, &api.AddExpenseRequest{
		TripID: trip.ID,
		Expense: api.Expense{
			Title:   "Dinner",
			Amount:  90,
			Date:    "2024-05-01",
			PayerID: alice.user.ID,
			Split:   api.Split{Type: "equal"},
		},
	}))
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}
	if len(added.Msg.Shares) != 3 {
		t.Fatalf("expected 3 shares, got %d", len(added.Msg.Shares))
	}
	for _, s := range added.Msg.Shares {
		if !approx(s.Amount, 30) {
			t.Errorf("share of %s: expected 30, got %.2f", s.Member.Name, s.Amount)
		}
	}

	balances, err := env.ledger.GetBalances(ctx, authed(alice.token, &api.GetBalancesRequest{TripID: trip.ID}))
	if err != nil {
		t.Fatalf("GetBalances failed: %v", err)
	}
	if got := balances.Msg.Balances[0]; got.Member.ID != alice.user.ID || !approx(got.Net, 60) {
		t.Errorf("expected Alice first with net 60, got %+v", got)
	}

	plan, err := env.ledger.GetSettlementPlan(ctx, authed(alice.token, &api.GetSettlementPlanRequest{TripID: trip.ID}))
	if err != nil {
		t.Fatalf("GetSettlementPlan failed: %v", err)
	}
	transfers := plan.Msg.Transfers
	if len(transfers) != 2 {
		t.Fatalf("expected 2 transfers, got %+v", transfers)
	}
	if transfers[0].From.ID != "m-bob" || transfers[1].From.ID != "m-charlie" {
		t.Errorf("expected Bob then Charlie to pay, got %s, %s", transfers[0].From.Name, transfers[1].From.Name)
	}
	for _, tr := range transfers {
		if tr.To.ID != alice.user.ID || !approx(tr.Amount, 30) {
			t.Errorf("unexpected transfer %+v", tr)
		}
	}
	if !approx(plan.Msg.Total, 60) {
		t.Errorf("expected total 60, got %.2f", plan.Msg.Total)
	}

	// Recording the suggested payments settles the trip.
	for _, tr := range transfers {
		_, err := env.ledger.RecordSettlement(ctx, authed(alice.token, &api.RecordSettlementRequest{
			TripID:       trip.ID,
			FromMemberID: tr.From.ID,
			ToMemberID:   tr.To.ID,
			Amount:       tr.Amount,
		}))
		if err != nil {
			t.Fatalf("RecordSettlement failed: %v", err)
		}
	}
	plan, err = env.ledger.GetSettlementPlan(ctx, authed(alice.token, &api.GetSettlementPlanRequest{TripID: trip.ID}))
	if err != nil {
		t.Fatalf("GetSettlementPlan failed: %v", err)
	}
	if len(plan.Msg.Transfers) != 0 {
		t.Errorf("expected settled trip, got %+v", plan.Msg.Transfers)
	}

	settlements, err := env.ledger.ListSettlements(ctx, authed(alice.token, &api.ListSettlementsRequest{TripID: trip.ID}))
	if err != nil {
		t.Fatalf("ListSettlements failed: %v", err)
	}
	if len(settlements.Msg.Settlements) != 2 || settlements.Msg.Settlements[0].CreatedBy != alice.user.ID {
		t.Errorf("unexpected settlements: %+v", settlements.Msg.Settlements)
	}

	// Deleting one reopens Charlie's debt.
	_, err = env.ledger.DeleteSettlement(ctx, authed(alice.token, &api.DeleteSettlementRequest{
		SettlementID: settlements.Msg.Settlements[0].ID,
	}))
	if err != nil {
		t.Fatalf("DeleteSettlement failed: %v", err)
	}
	plan, _ = env.ledger.GetSettlementPlan(ctx, authed(alice.token, &api.GetSettlementPlanRequest{TripID: trip.ID}))
	if len(plan.Msg.Transfers) != 1 {
		t.Errorf("expected one open transfer, got %+v", plan.Msg.Transfers)
	}
}

func TestIndividualExpenseLeavesPlanEmpty(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "Alice")
	trip := env.createTrip(t, alice, 0, bobMember)
	ctx := context.Background()

	_, err := env.ledger.AddExpense(ctx, authed(alice.token, &api.AddExpenseRequest{
		TripID:  trip.ID,
		Expense: api.Expense{Title: "Souvenir", Amount: 100, PayerID: "m-bob", Split: api.Split{Type: "individual"}},
	}))
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	balances, err := env.ledger.GetBalances(ctx, authed(alice.token, &api.GetBalancesRequest{TripID: trip.ID}))
	if err != nil {
		t.Fatalf("GetBalances failed: %v", err)
	}
	for _, b := range balances.Msg.Balances {
		if !approx(b.Net, 0) {
			t.Errorf("%s: expected net 0, got %.2f", b.Member.Name, b.Net)
		}
		if b.Member.ID == "m-bob" && !approx(b.PaidPrivately, 100) {
			t.Errorf("expected Bob to have paid 100 privately, got %.2f", b.PaidPrivately)
		}
	}

	plan, err := env.ledger.GetSettlementPlan(ctx, authed(alice.token, &api.GetSettlementPlanRequest{TripID: trip.ID}))
	if err != nil {
		t.Fatalf("GetSettlementPlan failed: %v", err)
	}
	if len(plan.Msg.Transfers) != 0 {
		t.Errorf("expected no transfers, got %+v", plan.Msg.Transfers)
	}
}

func TestAddExpenseValidation(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "Alice")
	trip := env.createTrip(t, alice, 0, bobMember)
	ctx := context.Background()

	tests := []struct {
		name    string
		expense api.Expense
		wantMsg string
	}{
		{
			name:    "unknown payer suggests roster ID",
			expense: api.Expense{Title: "Taxi", Amount: 10, PayerID: "m-bbo"},
			wantMsg: `did you mean "m-bob"`,
		},
		{
			name: "percentages off",
			expense: api.Expense{Title: "Hotel", Amount: 100, PayerID: "m-bob", Split: api.Split{
				Type: "custom", Percentages: map[string]float64{"m-bob": 50, alice.user.ID: 40},
			}},
			wantMsg: "invalid split",
		},
		{
			name:    "negative amount",
			expense: api.Expense{Title: "Refund", Amount: -5, PayerID: "m-bob"},
			wantMsg: "invalid split",
		},
		{
			name:    "foreign currency",
			expense: api.Expense{Title: "Taxi", Amount: 10, Currency: "USD", PayerID: "m-bob"},
			wantMsg: "does not match trip currency",
		},
		{
			name:    "bad date",
			expense: api.Expense{Title: "Taxi", Amount: 10, Date: "05/01/2024", PayerID: "m-bob"},
			wantMsg: "invalid date",
		},
		{
			name:    "unknown split type",
			expense: api.Expense{Title: "Taxi", Amount: 10, PayerID: "m-bob", Split: api.Split{Type: "weighted"}},
			wantMsg: "unknown split type",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.ledger.AddExpense(ctx, authed(alice.token, &api.AddExpenseRequest{TripID: trip.ID, Expense: tt.expense}))
			assertCode(t, err, connect.CodeInvalidArgument)
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected error containing %q, got %v", tt.wantMsg, err)
			}
		})
	}

	list, err := env.ledger.ListExpenses(ctx, authed(alice.token, &api.ListExpensesRequest{TripID: trip.ID}))
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(list.Msg.Expenses) != 0 {
		t.Errorf("expected rejected expenses not to be stored, got %d", len(list.Msg.Expenses))
	}
}

func TestUpdateAndDeleteExpense(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "Alice")
	trip := env.createTrip(t, alice, 0, bobMember)
	ctx := context.Background()

	added, err := env.ledger.AddExpense(ctx, authed(alice.token, &api.AddExpenseRequest{
		TripID:  trip.ID,
		Expense: api.Expense{Title: "Hotel", Amount: 200, PayerID: alice.user.ID},
	}))
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	edit := added.Msg.Expense
	edit.Split = api.Split{Type: "custom", Percentages: map[string]float64{alice.user.ID: 25, "m-bob": 75}}
	updated, err := env.ledger.UpdateExpense(ctx, authed(alice.token, &api.UpdateExpenseRequest{Expense: edit}))
	if err != nil {
		t.Fatalf("UpdateExpense failed: %v", err)
	}
	if updated.Msg.Expense.Split.Type != "custom" {
		t.Errorf("expected custom split, got %q", updated.Msg.Expense.Split.Type)
	}
	if got := updated.Msg.Shares[1]; got.Member.ID != "m-bob" || !approx(got.Amount, 150) {
		t.Errorf("expected Bob to owe 150, got %+v", got)
	}

	if _, err := env.ledger.DeleteExpense(ctx, authed(alice.token, &api.DeleteExpenseRequest{ExpenseID: edit.ID})); err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}
	_, err = env.ledger.DeleteExpense(ctx, authed(alice.token, &api.DeleteExpenseRequest{ExpenseID: edit.ID}))
	assertCode(t, err, connect.CodeNotFound)
}

func TestPreviewSharesDoesNotStore(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "Alice")
	trip := env.createTrip(t, alice, 0, bobMember, charlieMember)
	ctx := context.Background()

	resp, err := env.ledger.PreviewShares(ctx, authed(alice.token, &api.PreviewSharesRequest{
		TripID:  trip.ID,
		Expense: api.Expense{Title: "Museum", Amount: 100, PayerID: alice.user.ID},
	}))
	if err != nil {
		t.Fatalf("PreviewShares failed: %v", err)
	}
	var sum float64
	for _, s := range resp.Msg.Shares {
		sum += s.Amount
	}
	if !approx(sum, 100) {
		t.Errorf("expected shares to sum to 100, got %.4f", sum)
	}

	list, _ := env.ledger.ListExpenses(ctx, authed(alice.token, &api.ListExpensesRequest{TripID: trip.ID}))
	if len(list.Msg.Expenses) != 0 {
		t.Errorf("expected preview not to store anything, got %d expenses", len(list.Msg.Expenses))
	}
}

func TestLedgerView(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "Alice")
	trip := env.createTrip(t, alice, 400, bobMember)
	ctx := context.Background()

	expenses := []api.Expense{
		{Title: "Lunch", Amount: 40, Date: "2024-05-02", PayerID: alice.user.ID},
		{Title: "Train", Amount: 60, Date: "2024-05-01", PayerID: "m-bob"},
	}
	for _, e := range expenses {
		if _, err := env.ledger.AddExpense(ctx, authed(alice.token, &api.AddExpenseRequest{TripID: trip.ID, Expense: e})); err != nil {
			t.Fatalf("AddExpense failed: %v", err)
		}
	}
	planned := []api.PlannedExpense{
		{Title: "Castle tickets", Amount: 30, Date: "2024-05-01"},
		{Title: "Fado night", Amount: 50},
	}
	for _, p := range planned {
		if _, err := env.ledger.AddPlannedExpense(ctx, authed(alice.token, &api.AddPlannedExpenseRequest{TripID: trip.ID, PlannedExpense: p})); err != nil {
			t.Fatalf("AddPlannedExpense failed: %v", err)
		}
	}

	resp, err := env.ledger.GetLedgerView(ctx, authed(alice.token, &api.GetLedgerViewRequest{TripID: trip.ID}))
	if err != nil {
		t.Fatalf("GetLedgerView failed: %v", err)
	}
	view := resp.Msg.View

	if len(view.Groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(view.Groups))
	}
	first := view.Groups[0]
	if first.Date != "2024-05-01" || len(first.Entries) != 2 || first.Entries[0].Source != "manual" {
		t.Errorf("unexpected first group: %+v", first)
	}
	if !approx(first.Total, 90) {
		t.Errorf("expected first group total 90, got %.2f", first.Total)
	}
	if last := view.Groups[2]; !last.Unscheduled || last.Entries[0].Title != "Fado night" {
		t.Errorf("expected unscheduled bucket last, got %+v", last)
	}
	if !approx(view.TotalManualSpent, 100) || !approx(view.TotalPlanned, 80) || !approx(view.PlannedPerPerson, 40) {
		t.Errorf("unexpected totals: %+v", view)
	}
	if view.PercentOfBudget == nil || *view.PercentOfBudget != 25 {
		t.Errorf("expected 25%% of budget, got %v", view.PercentOfBudget)
	}
	if len(view.PaidByMember) != 2 || view.PaidByMember[0].Member.ID != "m-bob" {
		t.Errorf("expected Bob to lead paid-by-member, got %+v", view.PaidByMember)
	}

	list, err := env.ledger.ListPlannedExpenses(ctx, authed(alice.token, &api.ListPlannedExpensesRequest{TripID: trip.ID}))
	if err != nil {
		t.Fatalf("ListPlannedExpenses failed: %v", err)
	}
	if _, err := env.ledger.DeletePlannedExpense(ctx, authed(alice.token, &api.DeletePlannedExpenseRequest{
		PlannedExpenseID: list.Msg.PlannedExpenses[0].ID,
	})); err != nil {
		t.Fatalf("DeletePlannedExpense failed: %v", err)
	}
}

func TestRecordSettlementValidation(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "Alice")
	trip := env.createTrip(t, alice, 0, bobMember)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *api.RecordSettlementRequest
	}{
		{"zero amount", &api.RecordSettlementRequest{TripID: trip.ID, FromMemberID: "m-bob", ToMemberID: alice.user.ID}},
		{"self payment", &api.RecordSettlementRequest{TripID: trip.ID, FromMemberID: "m-bob", ToMemberID: "m-bob", Amount: 5}},
		{"unknown member", &api.RecordSettlementRequest{TripID: trip.ID, FromMemberID: "m-zed", ToMemberID: alice.user.ID, Amount: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.ledger.RecordSettlement(ctx, authed(alice.token, tt.req))
			assertCode(t, err, connect.CodeInvalidArgument)
		})
	}
}

func TestLedgerAccessControl(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "Alice")
	mallory := env.register(t, "Mallory")
	trip := env.createTrip(t, alice, 0, bobMember)
	ctx := context.Background()

	added, err := env.ledger.AddExpense(ctx, authed(alice.token, &api.AddExpenseRequest{
		TripID:  trip.ID,
		Expense: api.Expense{Title: "Taxi", Amount: 10, PayerID: alice.user.ID},
	}))
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	_, err = env.ledger.GetBalances(ctx, authed(mallory.token, &api.GetBalancesRequest{TripID: trip.ID}))
	assertCode(t, err, connect.CodePermissionDenied)

	_, err = env.ledger.DeleteExpense(ctx, authed(mallory.token, &api.DeleteExpenseRequest{ExpenseID: added.Msg.Expense.ID}))
	assertCode(t, err, connect.CodePermissionDenied)
}

func TestLedgerEventsPublished(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "Alice")
	trip := env.createTrip(t, alice, 0, bobMember)
	ctx := context.Background()

	added, err := env.ledger.AddExpense(ctx, authed(alice.token, &api.AddExpenseRequest{
		TripID:  trip.ID,
		Expense: api.Expense{Title: "Taxi", Amount: 10, PayerID: alice.user.ID},
	}))
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}
	if _, err := env.ledger.DeleteExpense(ctx, authed(alice.token, &api.DeleteExpenseRequest{ExpenseID: added.Msg.Expense.ID})); err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}

	got := env.recorder.Events()
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	first, ok := got[0].(events.LedgerChanged)
	if !ok {
		t.Fatalf("expected LedgerChanged, got %T", got[0])
	}
	if first.Action != events.ActionExpenseAdded || first.TripID != trip.ID || first.ActorID != alice.user.ID {
		t.Errorf("unexpected first event: %+v", first)
	}
	if got[1].(events.LedgerChanged).Action != events.ActionExpenseDeleted {
		t.Errorf("expected delete event second, got %+v", got[1])
	}
}
