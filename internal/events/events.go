// Package events publishes ledger notifications to a message broker so
// other processes (mailers, chat bots) can react to trip activity.
package events

import (
	"context"
	"sync"
	"time"
)

// Routing keys.
const (
	KeyLedgerChanged    = "ledger.changed"
	KeySettlementDigest = "settlement.digest"
)

// Event is a message with a routing key.
type Event interface {
	RoutingKey() string
}

// Publisher delivers events. Implementations are safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// LedgerChanged is emitted after every successful ledger mutation.
type LedgerChanged struct {
	TripID    string    `json:"trip_id"`
	Action    string    `json:"action"`
	EntityID  string    `json:"entity_id"`
	ActorID   string    `json:"actor_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (LedgerChanged) RoutingKey() string { return KeyLedgerChanged }

// Ledger actions.
const (
	ActionExpenseAdded       = "expense.added"
	ActionExpenseUpdated     = "expense.updated"
	ActionExpenseDeleted     = "expense.deleted"
	ActionPlannedAdded       = "planned.added"
	ActionPlannedDeleted     = "planned.deleted"
	ActionSettlementRecorded = "settlement.recorded"
	ActionSettlementDeleted  = "settlement.deleted"
	ActionMembersAdded       = "members.added"
	ActionTripDeleted        = "trip.deleted"
)

// SettlementDigest summarizes the outstanding transfers of a trip.
type SettlementDigest struct {
	TripID    string           `json:"trip_id"`
	TripName  string           `json:"trip_name"`
	Currency  string           `json:"currency"`
	Transfers []DigestTransfer `json:"transfers"`
	Total     float64          `json:"total"`
	Timestamp time.Time        `json:"timestamp"`
}

func (SettlementDigest) RoutingKey() string { return KeySettlementDigest }

// DigestTransfer is one suggested payment, by member name.
type DigestTransfer struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

// NoopPublisher drops every event. It is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
