package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/tripledger/internal/events"
	"github.com/mmynk/tripledger/internal/middleware"
	"github.com/mmynk/tripledger/internal/models"
	"github.com/mmynk/tripledger/internal/storage"
	"github.com/mmynk/tripledger/pkg/api"
	"github.com/mmynk/tripledger/pkg/api/apiconnect"
)

// UserDirectory resolves account IDs to accounts. Unknown IDs are omitted.
type UserDirectory interface {
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
}

// TripService implements apiconnect.TripServiceHandler.
type TripService struct {
	store     storage.Store
	users     UserDirectory
	publisher events.Publisher
	logger    *slog.Logger
}

var _ apiconnect.TripServiceHandler = (*TripService)(nil)

// NewTripService creates a TripService.
func NewTripService(store storage.Store, users UserDirectory, publisher events.Publisher, logger *slog.Logger) *TripService {
	return &TripService{store: store, users: users, publisher: publisher, logger: logger}
}

// isMember reports whether userID is on the trip roster.
func isMember(userID string, trip *models.Trip) bool {
	return userID != "" && trip.HasMember(userID)
}

// memberTrip loads a trip the caller belongs to.
func memberTrip(ctx context.Context, store storage.Store, logger *slog.Logger, tripID string) (*models.Trip, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, errAuthRequired)
	}
	if tripID == "" {
		return nil, invalidArgument("trip_id required")
	}
	trip, err := store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, fail(logger, "Load trip failed", err, nil, "trip_id", tripID)
	}
	if !isMember(userID, trip) {
		logger.Warn("Trip access denied", "trip_id", tripID, "user_id", userID)
		return nil, connect.NewError(connect.CodePermissionDenied, errNotMember)
	}
	return trip, nil
}

func validateTripFields(name, currency string, budget float64) *connect.Error {
	if strings.TrimSpace(name) == "" {
		return invalidArgument("name required")
	}
	if len(currency) != 3 || strings.ToUpper(currency) != currency {
		return invalidArgument("currency must be a three-letter ISO code, got %q", currency)
	}
	if !validAmount(budget) {
		return invalidArgument("budget must be non-negative")
	}
	return nil
}

// resolveMembers fills missing member names from the account directory and
// rejects empty or duplicate IDs.
func (s *TripService) resolveMembers(ctx context.Context, members []api.Member) ([]models.Member, error) {
	resolved := toModelMembers(members)
	seen := make(map[string]bool, len(resolved))
	var missing []string
	for _, m := range resolved {
		if m.ID == "" {
			return nil, invalidArgument("member id required")
		}
		if seen[m.ID] {
			return nil, invalidArgument("duplicate member %q", m.ID)
		}
		seen[m.ID] = true
		if m.Name == "" {
			missing = append(missing, m.ID)
		}
	}
	if len(missing) == 0 {
		return resolved, nil
	}

	users, err := s.users.GetUsersByIDs(ctx, missing)
	if err != nil {
		return nil, fail(s.logger, "Resolve members failed", err, nil)
	}
	for i, m := range resolved {
		if m.Name != "" {
			continue
		}
		user, ok := users[m.ID]
		if !ok {
			return nil, invalidArgument("member %q has no name and no account", m.ID)
		}
		resolved[i].Name = user.DisplayName
	}
	return resolved, nil
}

// CreateTrip creates a trip. The caller is added to the roster when missing.
func (s *TripService) CreateTrip(ctx context.Context, req *connect.Request[api.CreateTripRequest]) (*connect.Response[api.CreateTripResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, errAuthRequired)
	}
	s.logger.Info("CreateTrip request received", "name", req.Msg.Name, "members_count", len(req.Msg.Members))

	if err := validateTripFields(req.Msg.Name, req.Msg.Currency, req.Msg.Budget); err != nil {
		return nil, err
	}

	requested := req.Msg.Members
	callerListed := false
	for _, m := range requested {
		if m.ID == userID {
			callerListed = true
			break
		}
	}
	if !callerListed {
		caller := api.Member{ID: userID, Name: middleware.GetUserName(ctx)}
		requested = append([]api.Member{caller}, requested...)
	}

	members, err := s.resolveMembers(ctx, requested)
	if err != nil {
		return nil, err
	}

	trip := &models.Trip{
		Name:     strings.TrimSpace(req.Msg.Name),
		Currency: req.Msg.Currency,
		Budget:   req.Msg.Budget,
		Members:  members,
	}
	if err := s.store.CreateTrip(ctx, trip); err != nil {
		return nil, fail(s.logger, "CreateTrip failed", err, nil)
	}

	s.logger.Info("Trip created", "trip_id", trip.ID, "members_count", len(trip.Members))
	return connect.NewResponse(&api.CreateTripResponse{Trip: toAPITrip(trip)}), nil
}

// GetTrip returns a trip the caller belongs to.
func (s *TripService) GetTrip(ctx context.Context, req *connect.Request[api.GetTripRequest]) (*connect.Response[api.GetTripResponse], error) {
	trip, err := memberTrip(ctx, s.store, s.logger, req.Msg.TripID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.GetTripResponse{Trip: toAPITrip(trip)}), nil
}

// ListTrips returns the trips the caller belongs to, newest first.
func (s *TripService) ListTrips(ctx context.Context, req *connect.Request[api.ListTripsRequest]) (*connect.Response[api.ListTripsResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, errAuthRequired)
	}

	trips, err := s.store.ListTripsByMember(ctx, userID)
	if err != nil {
		return nil, fail(s.logger, "ListTrips failed", err, nil, "user_id", userID)
	}

	out := make([]api.Trip, len(trips))
	for i, t := range trips {
		out[i] = toAPITrip(t)
	}
	s.logger.Info("ListTrips successful", "user_id", userID, "count", len(out))
	return connect.NewResponse(&api.ListTripsResponse{Trips: out}), nil
}

// UpdateTrip changes the name, currency or budget of a trip.
// The currency is fixed once expenses have been logged.
func (s *TripService) UpdateTrip(ctx context.Context, req *connect.Request[api.UpdateTripRequest]) (*connect.Response[api.UpdateTripResponse], error) {
	trip, err := memberTrip(ctx, s.store, s.logger, req.Msg.TripID)
	if err != nil {
		return nil, err
	}
	if err := validateTripFields(req.Msg.Name, req.Msg.Currency, req.Msg.Budget); err != nil {
		return nil, err
	}

	if req.Msg.Currency != trip.Currency {
		expenses, err := s.store.ListExpensesByTrip(ctx, trip.ID)
		if err != nil {
			return nil, fail(s.logger, "UpdateTrip failed", err, nil, "trip_id", trip.ID)
		}
		if len(expenses) > 0 {
			return nil, connect.NewError(connect.CodeFailedPrecondition,
				fmt.Errorf("currency cannot change after %d expenses were logged", len(expenses)))
		}
	}

	trip.Name = strings.TrimSpace(req.Msg.Name)
	trip.Currency = req.Msg.Currency
	trip.Budget = req.Msg.Budget
	if err := s.store.UpdateTrip(ctx, trip); err != nil {
		return nil, fail(s.logger, "UpdateTrip failed", err, nil, "trip_id", trip.ID)
	}

	s.logger.Info("Trip updated", "trip_id", trip.ID)
	return connect.NewResponse(&api.UpdateTripResponse{Trip: toAPITrip(trip)}), nil
}

// AddMembers appends members to the roster. Members already listed are ignored.
func (s *TripService) AddMembers(ctx context.Context, req *connect.Request[api.AddMembersRequest]) (*connect.Response[api.AddMembersResponse], error) {
	trip, err := memberTrip(ctx, s.store, s.logger, req.Msg.TripID)
	if err != nil {
		return nil, err
	}
	if len(req.Msg.Members) == 0 {
		return nil, invalidArgument("at least one member required")
	}

	var fresh []api.Member
	for _, m := range req.Msg.Members {
		if !trip.HasMember(m.ID) {
			fresh = append(fresh, m)
		}
	}
	members, err := s.resolveMembers(ctx, fresh)
	if err != nil {
		return nil, err
	}
	if len(members) > 0 {
		if err := s.store.AddTripMembers(ctx, trip.ID, members); err != nil {
			return nil, fail(s.logger, "AddMembers failed", err, trip.Members, "trip_id", trip.ID)
		}
		s.publish(ctx, events.LedgerChanged{TripID: trip.ID, Action: events.ActionMembersAdded, EntityID: trip.ID})
	}

	updated, err := s.store.GetTrip(ctx, trip.ID)
	if err != nil {
		return nil, fail(s.logger, "AddMembers failed", err, nil, "trip_id", trip.ID)
	}
	s.logger.Info("Members added", "trip_id", trip.ID, "added", len(members))
	return connect.NewResponse(&api.AddMembersResponse{Trip: toAPITrip(updated)}), nil
}

// DeleteTrip removes a trip with everything recorded on it.
func (s *TripService) DeleteTrip(ctx context.Context, req *connect.Request[api.DeleteTripRequest]) (*connect.Response[api.DeleteTripResponse], error) {
	trip, err := memberTrip(ctx, s.store, s.logger, req.Msg.TripID)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteTrip(ctx, trip.ID); err != nil {
		return nil, fail(s.logger, "DeleteTrip failed", err, nil, "trip_id", trip.ID)
	}
	s.publish(ctx, events.LedgerChanged{TripID: trip.ID, Action: events.ActionTripDeleted, EntityID: trip.ID})

	s.logger.Info("Trip deleted", "trip_id", trip.ID)
	return connect.NewResponse(&api.DeleteTripResponse{}), nil
}

func (s *TripService) publish(ctx context.Context, event events.LedgerChanged) {
	publish(ctx, s.publisher, s.logger, event)
}

// publish sends a ledger event. Delivery failures are logged, never returned:
// the mutation has already been committed.
func publish(ctx context.Context, publisher events.Publisher, logger *slog.Logger, event events.LedgerChanged) {
	event.ActorID = middleware.GetUserID(ctx)
	event.Timestamp = time.Now()
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Warn("Publish event failed", "trip_id", event.TripID, "action", event.Action, "error", err)
	}
}
