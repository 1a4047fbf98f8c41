// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/tripledger/internal/models"
)

// ErrNotFound is returned (wrapped) when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the interface for trip ledger storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// CreateTrip persists a new trip with its roster.
	// The trip.ID and trip.CreatedAt fields will be populated by the store.
	CreateTrip(ctx context.Context, trip *models.Trip) error

	// GetTrip retrieves a trip and its roster by ID.
	GetTrip(ctx context.Context, tripID string) (*models.Trip, error)

	// ListTrips retrieves all trips, newest first.
	ListTrips(ctx context.Context) ([]*models.Trip, error)

	// ListTripsByMember retrieves the trips a member belongs to, newest first.
	ListTripsByMember(ctx context.Context, memberID string) ([]*models.Trip, error)

	// UpdateTrip updates the name, currency and budget of a trip.
	// The roster is not touched; use AddTripMembers.
	UpdateTrip(ctx context.Context, trip *models.Trip) error

	// AddTripMembers appends members to a trip roster. Existing IDs are ignored.
	AddTripMembers(ctx context.Context, tripID string, members []models.Member) error

	// DeleteTrip removes a trip and everything recorded on it.
	DeleteTrip(ctx context.Context, tripID string) error

	// CreateExpense persists a new expense including its split details.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense by ID.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// UpdateExpense replaces an existing expense and its split details.
	UpdateExpense(ctx context.Context, expense *models.Expense) error

	// DeleteExpense removes an expense.
	DeleteExpense(ctx context.Context, expenseID string) error

	// ListExpensesByTrip retrieves the expenses of a trip in the order they were logged.
	ListExpensesByTrip(ctx context.Context, tripID string) ([]models.Expense, error)

	// CreatePlannedExpense persists a new itinerary estimate.
	CreatePlannedExpense(ctx context.Context, planned *models.PlannedExpense) error

	// GetPlannedExpense retrieves an estimate by ID.
	GetPlannedExpense(ctx context.Context, plannedID string) (*models.PlannedExpense, error)

	// ListPlannedExpensesByTrip retrieves the estimates of a trip in insertion order.
	ListPlannedExpensesByTrip(ctx context.Context, tripID string) ([]models.PlannedExpense, error)

	// DeletePlannedExpense removes an estimate.
	DeletePlannedExpense(ctx context.Context, plannedID string) error

	// CreateSettlement persists a payment between members.
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error

	// GetSettlement retrieves a settlement by ID.
	GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error)

	// ListSettlementsByTrip retrieves all settlements of a trip, newest first.
	ListSettlementsByTrip(ctx context.Context, tripID string) ([]models.Settlement, error)

	// DeleteSettlement removes a settlement.
	DeleteSettlement(ctx context.Context, settlementID string) error

	// Close releases any resources held by the store.
	Close() error
}
