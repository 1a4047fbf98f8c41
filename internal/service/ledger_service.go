package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/tripledger/internal/calculator"
	"github.com/mmynk/tripledger/internal/events"
	"github.com/mmynk/tripledger/internal/ledger"
	"github.com/mmynk/tripledger/internal/metrics"
	"github.com/mmynk/tripledger/internal/middleware"
	"github.com/mmynk/tripledger/internal/models"
	"github.com/mmynk/tripledger/internal/storage"
	"github.com/mmynk/tripledger/pkg/api"
	"github.com/mmynk/tripledger/pkg/api/apiconnect"
)

// LedgerService implements apiconnect.LedgerServiceHandler.
// Every procedure requires the caller to be on the trip roster.
type LedgerService struct {
	store     storage.Store
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

var _ apiconnect.LedgerServiceHandler = (*LedgerService)(nil)

// NewLedgerService creates a LedgerService. m may be nil.
func NewLedgerService(store storage.Store, publisher events.Publisher, m *metrics.Metrics, logger *slog.Logger) *LedgerService {
	return &LedgerService{store: store, publisher: publisher, metrics: m, logger: logger}
}

func (s *LedgerService) trip(ctx context.Context, tripID string) (*models.Trip, error) {
	return memberTrip(ctx, s.store, s.logger, tripID)
}

// fail maps err to a Connect error and counts balance invariant violations.
func (s *LedgerService) fail(msg string, err error, trip *models.Trip, attrs ...any) error {
	if errors.Is(err, calculator.ErrBalanceInvariant) {
		s.metrics.InvariantViolation()
	}
	var members []models.Member
	if trip != nil {
		members = trip.Members
		attrs = append(attrs, "trip_id", trip.ID)
	}
	return fail(s.logger, msg, err, members, attrs...)
}

func (s *LedgerService) publish(ctx context.Context, tripID, action, entityID string) {
	publish(ctx, s.publisher, s.logger, events.LedgerChanged{TripID: tripID, Action: action, EntityID: entityID})
}

// prepareExpense converts and validates an expense against the trip roster.
func (s *LedgerService) prepareExpense(e api.Expense, trip *models.Trip) (models.Expense, map[string]float64, error) {
	expense, err := toModelExpense(e, trip)
	if err != nil {
		return models.Expense{}, nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	shares, err := calculator.ComputeShares(expense, trip.Members)
	if err != nil {
		return models.Expense{}, nil, s.fail("Expense rejected", err, trip, "title", expense.Title)
	}
	return expense, shares, nil
}

// AddExpense validates and logs a manual expense.
func (s *LedgerService) AddExpense(ctx context.Context, req *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error) {
	s.logger.Info("AddExpense request received", "trip_id", req.Msg.TripID, "title", req.Msg.Expense.Title)

	trip, err := s.trip(ctx, req.Msg.TripID)
	if err != nil {
		return nil, err
	}
	req.Msg.Expense.ID = ""
	expense, shares, err := s.prepareExpense(req.Msg.Expense, trip)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateExpense(ctx, &expense); err != nil {
		return nil, s.fail("AddExpense failed", err, trip)
	}
	s.publish(ctx, trip.ID, events.ActionExpenseAdded, expense.ID)

	s.logger.Info("Expense added", "trip_id", trip.ID, "expense_id", expense.ID, "split", expense.SplitKind())
	return connect.NewResponse(&api.AddExpenseResponse{
		Expense: toAPIExpense(expense),
		Shares:  toAPIShares(shares, trip.Members),
	}), nil
}

// UpdateExpense replaces an expense. The trip cannot change.
func (s *LedgerService) UpdateExpense(ctx context.Context, req *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error) {
	expenseID := req.Msg.Expense.ID
	s.logger.Info("UpdateExpense request received", "expense_id", expenseID)
	if expenseID == "" {
		return nil, invalidArgument("expense id required")
	}

	existing, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, s.fail("UpdateExpense failed", err, nil, "expense_id", expenseID)
	}
	trip, err := s.trip(ctx, existing.TripID)
	if err != nil {
		return nil, err
	}
	expense, shares, err := s.prepareExpense(req.Msg.Expense, trip)
	if err != nil {
		return nil, err
	}
	expense.CreatedAt = existing.CreatedAt

	if err := s.store.UpdateExpense(ctx, &expense); err != nil {
		return nil, s.fail("UpdateExpense failed", err, trip, "expense_id", expenseID)
	}
	s.publish(ctx, trip.ID, events.ActionExpenseUpdated, expense.ID)

	s.logger.Info("Expense updated", "trip_id", trip.ID, "expense_id", expense.ID)
	return connect.NewResponse(&api.UpdateExpenseResponse{
		Expense: toAPIExpense(expense),
		Shares:  toAPIShares(shares, trip.Members),
	}), nil
}

// DeleteExpense removes an expense.
func (s *LedgerService) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	expenseID := req.Msg.ExpenseID
	if expenseID == "" {
		return nil, invalidArgument("expense_id required")
	}

	existing, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, s.fail("DeleteExpense failed", err, nil, "expense_id", expenseID)
	}
	trip, err := s.trip(ctx, existing.TripID)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteExpense(ctx, expenseID); err != nil {
		return nil, s.fail("DeleteExpense failed", err, trip, "expense_id", expenseID)
	}
	s.publish(ctx, trip.ID, events.ActionExpenseDeleted, expenseID)

	s.logger.Info("Expense deleted", "trip_id", trip.ID, "expense_id", expenseID)
	return connect.NewResponse(&api.DeleteExpenseResponse{}), nil
}

// ListExpenses returns the trip's manual expenses in logging order.
func (s *LedgerService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	trip, err := s.trip(ctx, req.Msg.TripID)
	if err != nil {
		return nil, err
	}
	expenses, err := s.store.ListExpensesByTrip(ctx, trip.ID)
	if err != nil {
		return nil, s.fail("ListExpenses failed", err, trip)
	}

	out := make([]api.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = toAPIExpense(e)
	}
	return connect.NewResponse(&api.ListExpensesResponse{Expenses: out}), nil
}

// AddPlannedExpense records an itinerary estimate.
func (s *LedgerService) AddPlannedExpense(ctx context.Context, req *connect.Request[api.AddPlannedExpenseRequest]) (*connect.Response[api.AddPlannedExpenseResponse], error) {
	trip, err := s.trip(ctx, req.Msg.TripID)
	if err != nil {
		return nil, err
	}

	p := req.Msg.PlannedExpense
	if strings.TrimSpace(p.Title) == "" {
		return nil, invalidArgument("title required")
	}
	if !validAmount(p.Amount) {
		return nil, invalidArgument("amount must be non-negative")
	}
	date, err := parseDate(p.Date)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	planned := models.PlannedExpense{
		TripID:   trip.ID,
		Title:    p.Title,
		Amount:   p.Amount,
		Category: p.Category,
		Date:     date,
	}
	if err := s.store.CreatePlannedExpense(ctx, &planned); err != nil {
		return nil, s.fail("AddPlannedExpense failed", err, trip)
	}
	s.publish(ctx, trip.ID, events.ActionPlannedAdded, planned.ID)

	s.logger.Info("Planned expense added", "trip_id", trip.ID, "planned_id", planned.ID)
	return connect.NewResponse(&api.AddPlannedExpenseResponse{PlannedExpense: toAPIPlanned(planned)}), nil
}

// ListPlannedExpenses returns the trip's estimates.
func (s *LedgerService) ListPlannedExpenses(ctx context.Context, req *connect.Request[api.ListPlannedExpensesRequest]) (*connect.Response[api.ListPlannedExpensesResponse], error) {
	trip, err := s.trip(ctx, req.Msg.TripID)
	if err != nil {
		return nil, err
	}
	planned, err := s.store.ListPlannedExpensesByTrip(ctx, trip.ID)
	if err != nil {
		return nil, s.fail("ListPlannedExpenses failed", err, trip)
	}

	out := make([]api.PlannedExpense, len(planned))
	for i, p := range planned {
		out[i] = toAPIPlanned(p)
	}
	return connect.NewResponse(&api.ListPlannedExpensesResponse{PlannedExpenses: out}), nil
}

// DeletePlannedExpense removes an estimate.
func (s *LedgerService) DeletePlannedExpense(ctx context.Context, req *connect.Request[api.DeletePlannedExpenseRequest]) (*connect.Response[api.DeletePlannedExpenseResponse], error) {
	plannedID := req.Msg.PlannedExpenseID
	if plannedID == "" {
		return nil, invalidArgument("planned_expense_id required")
	}

	existing, err := s.store.GetPlannedExpense(ctx, plannedID)
	if err != nil {
		return nil, s.fail("DeletePlannedExpense failed", err, nil, "planned_id", plannedID)
	}
	trip, err := s.trip(ctx, existing.TripID)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeletePlannedExpense(ctx, plannedID); err != nil {
		return nil, s.fail("DeletePlannedExpense failed", err, trip, "planned_id", plannedID)
	}
	s.publish(ctx, trip.ID, events.ActionPlannedDeleted, plannedID)

	return connect.NewResponse(&api.DeletePlannedExpenseResponse{}), nil
}

// PreviewShares computes the shares of an expense without saving it.
func (s *LedgerService) PreviewShares(ctx context.Context, req *connect.Request[api.PreviewSharesRequest]) (*connect.Response[api.PreviewSharesResponse], error) {
	trip, err := s.trip(ctx, req.Msg.TripID)
	if err != nil {
		return nil, err
	}
	_, shares, err := s.prepareExpense(req.Msg.Expense, trip)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.PreviewSharesResponse{Shares: toAPIShares(shares, trip.Members)}), nil
}

// balances computes the trip balances including recorded settlements.
func (s *LedgerService) balances(ctx context.Context, trip *models.Trip) (map[string]calculator.Balance, error) {
	expenses, err := s.store.ListExpensesByTrip(ctx, trip.ID)
	if err != nil {
		return nil, s.fail("Load expenses failed", err, trip)
	}
	settlements, err := s.store.ListSettlementsByTrip(ctx, trip.ID)
	if err != nil {
		return nil, s.fail("Load settlements failed", err, trip)
	}
	balances, err := calculator.TripBalances(expenses, settlements, trip.Members)
	if err != nil {
		return nil, s.fail("Balance computation failed", err, trip)
	}
	return balances, nil
}

// GetBalances returns every member's balance, creditors first.
func (s *LedgerService) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	trip, err := s.trip(ctx, req.Msg.TripID)
	if err != nil {
		return nil, err
	}
	balances, err := s.balances(ctx, trip)
	if err != nil {
		return nil, err
	}

	sorted := calculator.Sorted(balances)
	out := make([]api.Balance, len(sorted))
	for i, b := range sorted {
		out[i] = toAPIBalance(b)
	}
	s.logger.Info("GetBalances successful", "trip_id", trip.ID, "members_count", len(out))
	return connect.NewResponse(&api.GetBalancesResponse{Balances: out}), nil
}

// GetSettlementPlan returns the transfers that settle the trip.
func (s *LedgerService) GetSettlementPlan(ctx context.Context, req *connect.Request[api.GetSettlementPlanRequest]) (*connect.Response[api.GetSettlementPlanResponse], error) {
	trip, err := s.trip(ctx, req.Msg.TripID)
	if err != nil {
		return nil, err
	}
	balances, err := s.balances(ctx, trip)
	if err != nil {
		return nil, err
	}
	plan, err := calculator.Plan(balances)
	if err != nil {
		return nil, s.fail("Settlement planning failed", err, trip)
	}
	s.metrics.ObservePlan(len(plan))

	out := make([]api.Transfer, len(plan))
	for i, t := range plan {
		out[i] = toAPITransfer(t)
	}
	s.logger.Info("GetSettlementPlan successful", "trip_id", trip.ID, "transfers", len(plan))
	return connect.NewResponse(&api.GetSettlementPlanResponse{
		Transfers: out,
		Total:     calculator.TotalTransferred(plan),
	}), nil
}

// GetLedgerView returns the date-grouped ledger with budget usage.
func (s *LedgerService) GetLedgerView(ctx context.Context, req *connect.Request[api.GetLedgerViewRequest]) (*connect.Response[api.GetLedgerViewResponse], error) {
	trip, err := s.trip(ctx, req.Msg.TripID)
	if err != nil {
		return nil, err
	}
	expenses, err := s.store.ListExpensesByTrip(ctx, trip.ID)
	if err != nil {
		return nil, s.fail("GetLedgerView failed", err, trip)
	}
	planned, err := s.store.ListPlannedExpensesByTrip(ctx, trip.ID)
	if err != nil {
		return nil, s.fail("GetLedgerView failed", err, trip)
	}

	view, err := ledger.BuildView(expenses, planned, trip.Members, trip.Budget)
	if err != nil {
		return nil, s.fail("GetLedgerView failed", err, trip)
	}
	return connect.NewResponse(&api.GetLedgerViewResponse{View: toAPIView(view)}), nil
}

// RecordSettlement stores a payment that happened between two members.
func (s *LedgerService) RecordSettlement(ctx context.Context, req *connect.Request[api.RecordSettlementRequest]) (*connect.Response[api.RecordSettlementResponse], error) {
	trip, err := s.trip(ctx, req.Msg.TripID)
	if err != nil {
		return nil, err
	}

	settlement := models.Settlement{
		TripID:       trip.ID,
		FromMemberID: req.Msg.FromMemberID,
		ToMemberID:   req.Msg.ToMemberID,
		Amount:       req.Msg.Amount,
		CreatedBy:    middleware.GetUserID(ctx),
		Note:         req.Msg.Note,
	}
	if err := calculator.ValidateSettlement(settlement, trip.Members); err != nil {
		return nil, s.fail("Settlement rejected", err, trip)
	}
	if err := s.store.CreateSettlement(ctx, &settlement); err != nil {
		return nil, s.fail("RecordSettlement failed", err, trip)
	}
	s.publish(ctx, trip.ID, events.ActionSettlementRecorded, settlement.ID)

	s.logger.Info("Settlement recorded",
		"trip_id", trip.ID,
		"settlement_id", settlement.ID,
		"from", settlement.FromMemberID,
		"to", settlement.ToMemberID,
		"amount", settlement.Amount,
	)
	return connect.NewResponse(&api.RecordSettlementResponse{Settlement: toAPISettlement(settlement)}), nil
}

// ListSettlements returns recorded settlements, newest first.
func (s *LedgerService) ListSettlements(ctx context.Context, req *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	trip, err := s.trip(ctx, req.Msg.TripID)
	if err != nil {
		return nil, err
	}
	settlements, err := s.store.ListSettlementsByTrip(ctx, trip.ID)
	if err != nil {
		return nil, s.fail("ListSettlements failed", err, trip)
	}

	out := make([]api.Settlement, len(settlements))
	for i, st := range settlements {
		out[i] = toAPISettlement(st)
	}
	return connect.NewResponse(&api.ListSettlementsResponse{Settlements: out}), nil
}

// DeleteSettlement removes a recorded settlement.
func (s *LedgerService) DeleteSettlement(ctx context.Context, req *connect.Request[api.DeleteSettlementRequest]) (*connect.Response[api.DeleteSettlementResponse], error) {
	settlementID := req.Msg.SettlementID
	if settlementID == "" {
		return nil, invalidArgument("settlement_id required")
	}

	existing, err := s.store.GetSettlement(ctx, settlementID)
	if err != nil {
		return nil, s.fail("DeleteSettlement failed", err, nil, "settlement_id", settlementID)
	}
	trip, err := s.trip(ctx, existing.TripID)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteSettlement(ctx, settlementID); err != nil {
		return nil, s.fail("DeleteSettlement failed", err, trip, "settlement_id", settlementID)
	}
	s.publish(ctx, trip.ID, events.ActionSettlementDeleted, settlementID)

	return connect.NewResponse(&api.DeleteSettlementResponse{}), nil
}
