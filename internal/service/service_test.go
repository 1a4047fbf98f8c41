package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/tripledger/internal/auth"
	"github.com/mmynk/tripledger/internal/events"
	"github.com/mmynk/tripledger/internal/metrics"
	"github.com/mmynk/tripledger/internal/middleware"
	"github.com/mmynk/tripledger/internal/storage/sqlite"
	"github.com/mmynk/tripledger/pkg/api"
	"github.com/mmynk/tripledger/pkg/api/apiconnect"
)

type testEnv struct {
	trips    apiconnect.TripServiceClient
	ledger   apiconnect.LedgerServiceClient
	auth     apiconnect.AuthServiceClient
	recorder *events.Recorder
	metrics  *metrics.Metrics
}

// setupTestServer starts all three services on an httptest server backed by
// a temp SQLite database.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwtManager := auth.NewJWTManager("test-secret-0123456789", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)
	recorder := &events.Recorder{}
	m := metrics.New()

	requireAuth := connect.WithInterceptors(m.Interceptor(), middleware.RequireAuth(jwtManager))
	optionalAuth := connect.WithInterceptors(m.Interceptor(), middleware.OptionalAuth(jwtManager))

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewTripServiceHandler(NewTripService(store, store, recorder, logger), requireAuth))
	mux.Handle(apiconnect.NewLedgerServiceHandler(NewLedgerService(store, recorder, m, logger), requireAuth))
	mux.Handle(apiconnect.NewAuthServiceHandler(NewAuthService(authenticator, jwtManager, logger), optionalAuth))

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return &testEnv{
		trips:    apiconnect.NewTripServiceClient(http.DefaultClient, server.URL),
		ledger:   apiconnect.NewLedgerServiceClient(http.DefaultClient, server.URL),
		auth:     apiconnect.NewAuthServiceClient(http.DefaultClient, server.URL),
		recorder: recorder,
		metrics:  m,
	}
}

// authed wraps msg in a request carrying the bearer token.
func authed[T any](token string, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+token)
	return req
}

type session struct {
	user  api.User
	token string
}

func (e *testEnv) register(t *testing.T, name string) session {
	t.Helper()
	resp, err := e.auth.Register(context.Background(), connect.NewRequest(&api.RegisterRequest{
		Email:       name + "@example.com",
		DisplayName: name,
		Password:    "password-" + name,
	}))
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", name, err)
	}
	return session{user: resp.Msg.User, token: resp.Msg.Token}
}

// createTrip creates a EUR trip owned by owner with the extra members.
func (e *testEnv) createTrip(t *testing.T, owner session, budget float64, members ...api.Member) api.Trip {
	t.Helper()
	resp, err := e.trips.CreateTrip(context.Background(), authed(owner.token, &api.CreateTripRequest{
		Name:     "Lisbon",
		Currency: "EUR",
		Budget:   budget,
		Members:  members,
	}))
	if err != nil {
		t.Fatalf("CreateTrip failed: %v", err)
	}
	return resp.Msg.Trip
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Fatalf("expected code %v, got %v (%v)", want, got, err)
	}
}
