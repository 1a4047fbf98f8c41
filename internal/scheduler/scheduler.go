// Package scheduler runs the periodic settlement digest.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mmynk/tripledger/internal/calculator"
	"github.com/mmynk/tripledger/internal/events"
	"github.com/mmynk/tripledger/internal/metrics"
	"github.com/mmynk/tripledger/internal/models"
)

// Store is the read side of the ledger the digest needs.
type Store interface {
	ListTrips(ctx context.Context) ([]*models.Trip, error)
	ListExpensesByTrip(ctx context.Context, tripID string) ([]models.Expense, error)
	ListSettlementsByTrip(ctx context.Context, tripID string) ([]models.Settlement, error)
}

// Scheduler publishes a settlement digest for every open trip on a cron schedule.
type Scheduler struct {
	cron      *cron.Cron
	store     Store
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a Scheduler. Call Register before Start.
func New(store Store, publisher events.Publisher, m *metrics.Metrics, logger *slog.Logger) *Scheduler {
	cl := cronLogger{logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		store:     store,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// Register schedules the digest. schedule uses the six-field cron format
// with a leading seconds field.
func (s *Scheduler) Register(ctx context.Context, schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if err := s.RunDigest(ctx); err != nil {
			s.logger.Error("Settlement digest failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("register digest %q: %w", schedule, err)
	}
	s.logger.Info("Settlement digest scheduled", "cron", schedule)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started")
}

// Stop stops the scheduler and waits for a running digest to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// RunDigest computes the settlement plan of every trip and publishes a digest
// for each trip that still has outstanding transfers. A failing trip does not
// stop the others; all failures are returned together.
func (s *Scheduler) RunDigest(ctx context.Context) error {
	trips, err := s.store.ListTrips(ctx)
	if err != nil {
		return fmt.Errorf("list trips: %w", err)
	}

	var errs []error
	published := 0
	for _, trip := range trips {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, err := s.digestTrip(ctx, trip)
		if err != nil {
			s.logger.Error("Digest failed for trip", "trip_id", trip.ID, "error", err)
			errs = append(errs, fmt.Errorf("trip %s: %w", trip.ID, err))
			continue
		}
		if ok {
			published++
		}
	}

	s.logger.Info("Settlement digest finished", "trips", len(trips), "published", published, "failed", len(errs))
	return errors.Join(errs...)
}

// digestTrip reports whether a digest was published.
func (s *Scheduler) digestTrip(ctx context.Context, trip *models.Trip) (bool, error) {
	expenses, err := s.store.ListExpensesByTrip(ctx, trip.ID)
	if err != nil {
		return false, err
	}
	settlements, err := s.store.ListSettlementsByTrip(ctx, trip.ID)
	if err != nil {
		return false, err
	}

	balances, err := calculator.TripBalances(expenses, settlements, trip.Members)
	if err != nil {
		s.countInvariant(err)
		return false, err
	}
	transfers, err := calculator.Plan(balances)
	if err != nil {
		s.countInvariant(err)
		return false, err
	}
	s.metrics.ObservePlan(len(transfers))

	if len(transfers) == 0 {
		s.logger.Debug("Trip settled", "trip_id", trip.ID)
		return false, nil
	}

	digest := events.SettlementDigest{
		TripID:    trip.ID,
		TripName:  trip.Name,
		Currency:  trip.Currency,
		Transfers: make([]events.DigestTransfer, len(transfers)),
		Total:     calculator.TotalTransferred(transfers),
		Timestamp: s.now().UTC(),
	}
	for i, t := range transfers {
		digest.Transfers[i] = events.DigestTransfer{From: t.From.Name, To: t.To.Name, Amount: t.Amount}
		s.logger.Info("Outstanding transfer",
			"trip_id", trip.ID,
			"from", t.From.Name,
			"to", t.To.Name,
			"amount", t.Amount,
			"currency", trip.Currency,
		)
	}

	if err := s.publisher.Publish(ctx, digest); err != nil {
		return false, fmt.Errorf("publish digest: %w", err)
	}
	return true, nil
}

func (s *Scheduler) countInvariant(err error) {
	if errors.Is(err, calculator.ErrBalanceInvariant) {
		s.metrics.InvariantViolation()
	}
}

// cronLogger routes cron's own logging through slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
