package calculator

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/mmynk/tripledger/internal/models"
)

func TestAggregate(t *testing.T) {
	tests := []struct {
		name     string
		expenses []models.Expense
		members  []models.Member
		wantErr  error
		want     map[string]float64 // member -> expected net
	}{
		{
			name: "equal split of 90 paid by alice",
			expenses: []models.Expense{
				{ID: "e1", Amount: 90, PayerID: "alice", Split: models.EqualSplit{}},
			},
			members: []models.Member{alice, bob, charlie},
			want:    map[string]float64{"alice": 60, "bob": -30, "charlie": -30},
		},
		{
			name: "custom 70/30 paid by bob",
			expenses: []models.Expense{
				{ID: "e1", Amount: 100, PayerID: "bob", Split: models.CustomSplit{
					Percentages: map[string]float64{"alice": 70, "bob": 30},
				}},
			},
			members: []models.Member{alice, bob},
			want:    map[string]float64{"alice": -70, "bob": 70},
		},
		{
			name: "individual expense leaves balances untouched",
			expenses: []models.Expense{
				{ID: "e1", Amount: 50, PayerID: "alice", Split: models.IndividualSplit{}},
			},
			members: []models.Member{alice, bob},
			want:    map[string]float64{"alice": 0, "bob": 0},
		},
		{
			name:     "no expenses still lists every member",
			expenses: nil,
			members:  []models.Member{alice, bob, charlie},
			want:     map[string]float64{"alice": 0, "bob": 0, "charlie": 0},
		},
		{
			name: "mixed expenses net out",
			expenses: []models.Expense{
				{ID: "e1", Amount: 120, PayerID: "alice"},
				{ID: "e2", Amount: 60, PayerID: "bob", Split: models.CustomSplit{
					Percentages: map[string]float64{"charlie": 100},
				}},
				{ID: "e3", Amount: 15, PayerID: "charlie", Split: models.IndividualSplit{}},
			},
			members: []models.Member{alice, bob, charlie},
			// alice: 120 - 40 = 80; bob: 60 - 40 = 20; charlie: 0 - 40 - 60 = -100
			want: map[string]float64{"alice": 80, "bob": 20, "charlie": -100},
		},
		{
			name: "invalid custom split aborts aggregation",
			expenses: []models.Expense{
				{ID: "e1", Amount: 100, PayerID: "alice", Split: models.CustomSplit{
					Percentages: map[string]float64{"alice": 50, "bob": 49},
				}},
			},
			members: []models.Member{alice, bob},
			wantErr: ErrInvalidSplit,
		},
		{
			name: "unknown payer aborts aggregation",
			expenses: []models.Expense{
				{ID: "e1", Amount: 10, PayerID: "zoe"},
			},
			members: []models.Member{alice, bob},
			wantErr: ErrUnknownMember,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			balances, err := Aggregate(tt.expenses, tt.members)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Aggregate() error = %v, want %v", err, tt.wantErr)
				}
				if balances != nil {
					t.Errorf("expected no balances on error, got %v", balances)
				}
				return
			}
			if err != nil {
				t.Fatalf("Aggregate() unexpected error = %v", err)
			}

			if len(balances) != len(tt.want) {
				t.Fatalf("got %d balances, want %d", len(balances), len(tt.want))
			}
			for id, wantNet := range tt.want {
				b, ok := balances[id]
				if !ok {
					t.Errorf("missing balance for %s", id)
					continue
				}
				if math.Abs(b.Net-wantNet) > 0.01 {
					t.Errorf("%s net = %v, want %v", id, b.Net, wantNet)
				}
				if math.Abs(b.Net-(b.Paid-b.OwedShare)) > 1e-9 {
					t.Errorf("%s net %v != paid %v - owed %v", id, b.Net, b.Paid, b.OwedShare)
				}
			}
		})
	}
}

func TestAggregatePaidTotals(t *testing.T) {
	expenses := []models.Expense{
		{ID: "e1", Amount: 90, PayerID: "alice"},
		{ID: "e2", Amount: 50, PayerID: "alice", Split: models.IndividualSplit{}},
	}

	balances, err := Aggregate(expenses, []models.Member{alice, bob, charlie})
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	a := balances["alice"]
	if a.Paid != 90 {
		t.Errorf("alice Paid = %v, want 90", a.Paid)
	}
	if a.PaidPrivately != 50 {
		t.Errorf("alice PaidPrivately = %v, want 50", a.PaidPrivately)
	}
	if math.Abs(a.OwedShare-30) > 0.01 {
		t.Errorf("alice OwedShare = %v, want 30", a.OwedShare)
	}
	if a.Member != alice {
		t.Errorf("alice Member = %+v, want %+v", a.Member, alice)
	}
}

func TestAggregateZeroSum(t *testing.T) {
	members := []models.Member{alice, bob, charlie, diana}
	var expenses []models.Expense
	payers := []string{"alice", "bob", "charlie", "diana"}
	for i := 0; i < 40; i++ {
		e := models.Expense{ID: "e", Amount: float64(i*7%23) + 0.37*float64(i), PayerID: payers[i%4]}
		switch i % 3 {
		case 1:
			e.Split = models.CustomSplit{Percentages: map[string]float64{"alice": 10, "bob": 20, "charlie": 30, "diana": 40}}
		case 2:
			e.Split = models.IndividualSplit{}
		}
		expenses = append(expenses, e)
	}

	balances, err := Aggregate(expenses, members)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	var sum float64
	for _, b := range balances {
		sum += b.Net
	}
	if math.Abs(sum) > Epsilon {
		t.Errorf("sum of nets = %v, want 0", sum)
	}
}

func TestAggregateIdempotent(t *testing.T) {
	expenses := []models.Expense{
		{ID: "e1", Amount: 31.4, PayerID: "alice"},
		{ID: "e2", Amount: 27.1, PayerID: "bob", Split: models.CustomSplit{Percentages: map[string]float64{"alice": 60, "charlie": 40}}},
	}
	members := []models.Member{alice, bob, charlie}

	first, err := Aggregate(expenses, members)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	second, err := Aggregate(expenses, members)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Aggregate() not idempotent:\n%v\n%v", first, second)
	}
}

func TestApplySettlements(t *testing.T) {
	balances, err := Aggregate([]models.Expense{
		{ID: "e1", Amount: 90, PayerID: "alice"},
	}, []models.Member{alice, bob, charlie})
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	t.Run("partial settlement reduces debt", func(t *testing.T) {
		updated, err := ApplySettlements(balances, []models.Settlement{
			{ID: "s1", FromMemberID: "bob", ToMemberID: "alice", Amount: 20},
		})
		if err != nil {
			t.Fatalf("ApplySettlements() error = %v", err)
		}
		if math.Abs(updated["bob"].Net-(-10)) > 0.01 {
			t.Errorf("bob net = %v, want -10", updated["bob"].Net)
		}
		if math.Abs(updated["alice"].Net-40) > 0.01 {
			t.Errorf("alice net = %v, want 40", updated["alice"].Net)
		}
		if updated["bob"].Sent != 20 || updated["alice"].Received != 20 {
			t.Errorf("sent/received not recorded: %+v %+v", updated["bob"], updated["alice"])
		}
		// original untouched
		if math.Abs(balances["bob"].Net-(-30)) > 0.01 {
			t.Errorf("input mutated: bob net = %v", balances["bob"].Net)
		}
	})

	t.Run("unknown member", func(t *testing.T) {
		_, err := ApplySettlements(balances, []models.Settlement{
			{ID: "s1", FromMemberID: "zoe", ToMemberID: "alice", Amount: 20},
		})
		if !errors.Is(err, ErrUnknownMember) {
			t.Errorf("error = %v, want ErrUnknownMember", err)
		}
	})

	t.Run("non-positive amount", func(t *testing.T) {
		_, err := ApplySettlements(balances, []models.Settlement{
			{ID: "s1", FromMemberID: "bob", ToMemberID: "alice", Amount: 0},
		})
		if !errors.Is(err, ErrInvalidSplit) {
			t.Errorf("error = %v, want ErrInvalidSplit", err)
		}
	})

	t.Run("self payment", func(t *testing.T) {
		_, err := ApplySettlements(balances, []models.Settlement{
			{ID: "s1", FromMemberID: "bob", ToMemberID: "bob", Amount: 5},
		})
		if !errors.Is(err, ErrInvalidSplit) {
			t.Errorf("error = %v, want ErrInvalidSplit", err)
		}
	})
}

func TestTripBalances(t *testing.T) {
	members := []models.Member{alice, bob, charlie}
	expenses := []models.Expense{{ID: "e1", Amount: 90, PayerID: "alice"}}
	settlements := []models.Settlement{
		{ID: "s1", FromMemberID: "bob", ToMemberID: "alice", Amount: 30},
		{ID: "s2", FromMemberID: "charlie", ToMemberID: "alice", Amount: 30},
	}

	balances, err := TripBalances(expenses, settlements, members)
	if err != nil {
		t.Fatalf("TripBalances() error = %v", err)
	}
	for _, m := range members {
		if math.Abs(balances[m.ID].Net) > 0.01 {
			t.Errorf("%s net = %v, want 0 after settling up", m.ID, balances[m.ID].Net)
		}
	}

	plan, err := Plan(balances)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(plan) != 0 {
		t.Errorf("plan = %v, want no transfers once settled", plan)
	}
}

func TestValidateSettlement(t *testing.T) {
	members := []models.Member{alice, bob}
	tests := []struct {
		name string
		s    models.Settlement
		want error
	}{
		{"valid", models.Settlement{FromMemberID: "bob", ToMemberID: "alice", Amount: 10}, nil},
		{"zero amount", models.Settlement{FromMemberID: "bob", ToMemberID: "alice"}, ErrInvalidSplit},
		{"infinite amount", models.Settlement{FromMemberID: "bob", ToMemberID: "alice", Amount: math.Inf(1)}, ErrInvalidSplit},
		{"self payment", models.Settlement{FromMemberID: "bob", ToMemberID: "bob", Amount: 10}, ErrInvalidSplit},
		{"unknown receiver", models.Settlement{FromMemberID: "bob", ToMemberID: "zoe", Amount: 10}, ErrUnknownMember},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSettlement(tt.s, members)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSorted(t *testing.T) {
	balances := map[string]Balance{
		"bob":     {Member: bob, Net: -30},
		"alice":   {Member: alice, Net: 60},
		"charlie": {Member: charlie, Net: -30},
		"diana":   {Member: diana, Net: 0},
	}

	sorted := Sorted(balances)

	want := []string{"alice", "diana", "bob", "charlie"}
	for i, id := range want {
		if sorted[i].Member.ID != id {
			t.Errorf("position %d = %s, want %s", i, sorted[i].Member.ID, id)
		}
	}
}
