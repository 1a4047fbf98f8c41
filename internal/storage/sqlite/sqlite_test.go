package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmynk/tripledger/internal/models"
	"github.com/mmynk/tripledger/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestTrips(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	trip := &models.Trip{
		Name:     "Lisbon",
		Currency: "EUR",
		Budget:   1200,
		Members:  []models.Member{{ID: "a", Name: "Alice"}, {ID: "b", Name: "Bob"}},
	}
	if err := store.CreateTrip(ctx, trip); err != nil {
		t.Fatalf("CreateTrip failed: %v", err)
	}
	if trip.ID == "" || trip.CreatedAt == 0 {
		t.Fatalf("Expected ID and CreatedAt to be generated, got %+v", trip)
	}

	t.Run("GetTrip returns roster in order", func(t *testing.T) {
		got, err := store.GetTrip(ctx, trip.ID)
		if err != nil {
			t.Fatalf("GetTrip failed: %v", err)
		}
		if got.Name != "Lisbon" || got.Currency != "EUR" || got.Budget != 1200 {
			t.Errorf("Unexpected trip: %+v", got)
		}
		if len(got.Members) != 2 || got.Members[0].ID != "a" || got.Members[1].ID != "b" {
			t.Errorf("Unexpected roster: %+v", got.Members)
		}
	})

	t.Run("AddTripMembers appends and ignores known IDs", func(t *testing.T) {
		err := store.AddTripMembers(ctx, trip.ID, []models.Member{
			{ID: "b", Name: "Bobby"},
			{ID: "c", Name: "Charlie"},
		})
		if err != nil {
			t.Fatalf("AddTripMembers failed: %v", err)
		}
		got, _ := store.GetTrip(ctx, trip.ID)
		if len(got.Members) != 3 {
			t.Fatalf("Expected 3 members, got %d", len(got.Members))
		}
		if got.Members[1].Name != "Bob" {
			t.Errorf("Expected existing member untouched, got %q", got.Members[1].Name)
		}
		if got.Members[2].ID != "c" {
			t.Errorf("Expected c appended last, got %q", got.Members[2].ID)
		}
	})

	t.Run("AddTripMembers on missing trip", func(t *testing.T) {
		err := store.AddTripMembers(ctx, "missing", []models.Member{{ID: "x", Name: "X"}})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("UpdateTrip", func(t *testing.T) {
		trip.Budget = 1500
		trip.Name = "Lisbon & Porto"
		if err := store.UpdateTrip(ctx, trip); err != nil {
			t.Fatalf("UpdateTrip failed: %v", err)
		}
		got, _ := store.GetTrip(ctx, trip.ID)
		if got.Budget != 1500 || got.Name != "Lisbon & Porto" {
			t.Errorf("Update not persisted: %+v", got)
		}
	})

	t.Run("ListTripsByMember", func(t *testing.T) {
		other := &models.Trip{Name: "Oslo", Currency: "NOK", Members: []models.Member{{ID: "z", Name: "Zed"}}}
		if err := store.CreateTrip(ctx, other); err != nil {
			t.Fatalf("CreateTrip failed: %v", err)
		}

		trips, err := store.ListTripsByMember(ctx, "c")
		if err != nil {
			t.Fatalf("ListTripsByMember failed: %v", err)
		}
		if len(trips) != 1 || trips[0].ID != trip.ID {
			t.Errorf("Expected only Lisbon, got %d trips", len(trips))
		}

		all, err := store.ListTrips(ctx)
		if err != nil {
			t.Fatalf("ListTrips failed: %v", err)
		}
		if len(all) != 2 {
			t.Errorf("Expected 2 trips, got %d", len(all))
		}
	})

	t.Run("GetTrip missing", func(t *testing.T) {
		_, err := store.GetTrip(ctx, "missing")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestExpenses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	trip := &models.Trip{Name: "Kyoto", Currency: "JPY", Members: []models.Member{{ID: "a", Name: "Alice"}, {ID: "b", Name: "Bob"}}}
	if err := store.CreateTrip(ctx, trip); err != nil {
		t.Fatalf("CreateTrip failed: %v", err)
	}

	custom := &models.Expense{
		TripID:   trip.ID,
		Title:    "Ryokan",
		Amount:   300,
		Currency: "JPY",
		Category: "lodging",
		Date:     day("2024-04-02"),
		PayerID:  "a",
		Split:    models.CustomSplit{Percentages: map[string]float64{"a": 60, "b": 40}},
	}
	unscheduled := &models.Expense{
		TripID:   trip.ID,
		Title:    "Snacks",
		Amount:   12.5,
		Currency: "JPY",
		PayerID:  "b",
		Split:    models.EqualSplit{},
	}
	for _, e := range []*models.Expense{custom, unscheduled} {
		if err := store.CreateExpense(ctx, e); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
	}

	t.Run("GetExpense round trips split and date", func(t *testing.T) {
		got, err := store.GetExpense(ctx, custom.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		split, ok := got.Split.(models.CustomSplit)
		if !ok {
			t.Fatalf("Expected CustomSplit, got %T", got.Split)
		}
		if split.Percentages["a"] != 60 || split.Percentages["b"] != 40 {
			t.Errorf("Unexpected percentages: %v", split.Percentages)
		}
		if !got.Date.Equal(day("2024-04-02")) {
			t.Errorf("Expected date 2024-04-02, got %v", got.Date)
		}
	})

	t.Run("ListExpensesByTrip keeps logging order", func(t *testing.T) {
		got, err := store.ListExpensesByTrip(ctx, trip.ID)
		if err != nil {
			t.Fatalf("ListExpensesByTrip failed: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("Expected 2 expenses, got %d", len(got))
		}
		if got[0].ID != custom.ID || got[1].ID != unscheduled.ID {
			t.Errorf("Unexpected order: %s, %s", got[0].Title, got[1].Title)
		}
		if !got[1].Date.IsZero() {
			t.Errorf("Expected unscheduled expense to have zero date, got %v", got[1].Date)
		}
		if got[1].SplitKind() != models.SplitEqual {
			t.Errorf("Expected equal split, got %s", got[1].SplitKind())
		}
	})

	t.Run("UpdateExpense replaces split details", func(t *testing.T) {
		custom.Split = models.IndividualSplit{}
		custom.Amount = 320
		if err := store.UpdateExpense(ctx, custom); err != nil {
			t.Fatalf("UpdateExpense failed: %v", err)
		}
		got, _ := store.GetExpense(ctx, custom.ID)
		if got.SplitKind() != models.SplitIndividual || got.Amount != 320 {
			t.Errorf("Update not persisted: %+v", got)
		}
	})

	t.Run("DeleteExpense", func(t *testing.T) {
		if err := store.DeleteExpense(ctx, unscheduled.ID); err != nil {
			t.Fatalf("DeleteExpense failed: %v", err)
		}
		if err := store.DeleteExpense(ctx, unscheduled.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("planned expenses", func(t *testing.T) {
		p := &models.PlannedExpense{TripID: trip.ID, Title: "Temple pass", Amount: 40, Category: "sights", Date: day("2024-04-03")}
		if err := store.CreatePlannedExpense(ctx, p); err != nil {
			t.Fatalf("CreatePlannedExpense failed: %v", err)
		}
		got, err := store.ListPlannedExpensesByTrip(ctx, trip.ID)
		if err != nil {
			t.Fatalf("ListPlannedExpensesByTrip failed: %v", err)
		}
		if len(got) != 1 || got[0].Title != "Temple pass" || !got[0].Date.Equal(day("2024-04-03")) {
			t.Errorf("Unexpected planned expenses: %+v", got)
		}
		one, err := store.GetPlannedExpense(ctx, p.ID)
		if err != nil || one.TripID != trip.ID {
			t.Fatalf("GetPlannedExpense: got %+v, %v", one, err)
		}
		if err := store.DeletePlannedExpense(ctx, p.ID); err != nil {
			t.Fatalf("DeletePlannedExpense failed: %v", err)
		}
	})

	t.Run("DeleteTrip cascades", func(t *testing.T) {
		if err := store.DeleteTrip(ctx, trip.ID); err != nil {
			t.Fatalf("DeleteTrip failed: %v", err)
		}
		got, err := store.ListExpensesByTrip(ctx, trip.ID)
		if err != nil {
			t.Fatalf("ListExpensesByTrip failed: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("Expected expenses removed with trip, got %d", len(got))
		}
	})
}

func TestSettlements(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	trip := &models.Trip{Name: "Rome", Currency: "EUR", Members: []models.Member{{ID: "a", Name: "Alice"}, {ID: "b", Name: "Bob"}}}
	if err := store.CreateTrip(ctx, trip); err != nil {
		t.Fatalf("CreateTrip failed: %v", err)
	}

	first := &models.Settlement{TripID: trip.ID, FromMemberID: "b", ToMemberID: "a", Amount: 20, CreatedBy: "b", CreatedAt: 100}
	second := &models.Settlement{TripID: trip.ID, FromMemberID: "b", ToMemberID: "a", Amount: 5, CreatedBy: "a", CreatedAt: 200, Note: "cash"}
	for _, s := range []*models.Settlement{first, second} {
		if err := store.CreateSettlement(ctx, s); err != nil {
			t.Fatalf("CreateSettlement failed: %v", err)
		}
	}

	got, err := store.ListSettlementsByTrip(ctx, trip.ID)
	if err != nil {
		t.Fatalf("ListSettlementsByTrip failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != second.ID {
		t.Fatalf("Expected newest first, got %+v", got)
	}
	if got[0].Note != "cash" || got[1].Note != "" {
		t.Errorf("Unexpected notes: %q, %q", got[0].Note, got[1].Note)
	}

	if err := store.DeleteSettlement(ctx, first.ID); err != nil {
		t.Fatalf("DeleteSettlement failed: %v", err)
	}
	if _, err := store.GetSettlement(ctx, first.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := models.NewUser("alice@example.com", "Alice", "hash")
	bob := models.NewUser("bob@example.com", "Bob", "hash")
	for _, u := range []*models.User{alice, bob} {
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
	}

	got, err := store.GetUserByEmail(ctx, "alice@example.com")
	if err != nil || got == nil || got.ID != alice.ID {
		t.Fatalf("GetUserByEmail: got %+v, %v", got, err)
	}

	missing, err := store.GetUserByID(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("Expected nil, nil for unknown ID, got %+v, %v", missing, err)
	}

	users, err := store.GetUsersByIDs(ctx, []string{alice.ID, bob.ID, "nope"})
	if err != nil {
		t.Fatalf("GetUsersByIDs failed: %v", err)
	}
	if len(users) != 2 || users[bob.ID].DisplayName != "Bob" {
		t.Errorf("Unexpected users: %+v", users)
	}

	if err := store.CreateUser(ctx, models.NewUser("alice@example.com", "Again", "hash")); err == nil {
		t.Error("Expected duplicate email to fail")
	}
}
