package calculator

import (
	"fmt"
	"math"
	"sort"

	"github.com/mmynk/tripledger/internal/models"
)

// Balance represents the financial position of one trip member.
type Balance struct {
	Member models.Member

	// Paid is the total of shared (equal or custom) expenses this member paid for.
	Paid float64

	// PaidPrivately is the total of individual expenses this member paid for.
	// It is for display only and never affects Net.
	PaidPrivately float64

	// OwedShare is this member's share across all shared expenses.
	OwedShare float64

	// Sent and Received are recorded settlement payments.
	Sent     float64
	Received float64

	// Net is Paid - OwedShare + Sent - Received.
	// Positive = owed money, Negative = owes money.
	Net float64
}

func (b *Balance) recomputeNet() {
	b.Net = b.Paid - b.OwedShare + b.Sent - b.Received
}

// Aggregate folds the expenses into one balance per roster member.
//
// Algorithm:
// - Every roster member starts at zero, so members without activity still appear
// - Shared expense: payer's Paid grows by the amount, each member's OwedShare by their share
// - Individual expense: only the payer's PaidPrivately grows
// - Net = Paid - OwedShare, and the nets must sum to zero within Epsilon
//
// Planned expenses have their own type and never reach this function.
func Aggregate(expenses []models.Expense, members []models.Member) (map[string]Balance, error) {
	index, err := indexMembers(opAggregate, members)
	if err != nil {
		return nil, err
	}

	balances := make(map[string]*Balance, len(members))
	for _, m := range members {
		balances[m.ID] = &Balance{Member: m}
	}

	for _, expense := range expenses {
		shares, err := computeShares(expense, members, index)
		if err != nil {
			return nil, err
		}

		if expense.SplitKind() == models.SplitIndividual {
			balances[expense.PayerID].PaidPrivately += expense.Amount
			continue
		}

		balances[expense.PayerID].Paid += expense.Amount
		for memberID, share := range shares {
			balances[memberID].OwedShare += share
		}
	}

	return finalize(opAggregate, balances)
}

// ApplySettlements returns a copy of balances with recorded settlement payments applied.
// The debtor's Sent and the creditor's Received grow by the settlement amount.
func ApplySettlements(balances map[string]Balance, settlements []models.Settlement) (map[string]Balance, error) {
	updated := make(map[string]*Balance, len(balances))
	for id, b := range balances {
		updated[id] = &b
	}

	for _, s := range settlements {
		if err := checkSettlement(s, func(id string) bool { _, ok := updated[id]; return ok }); err != nil {
			return nil, err
		}
		from, to := updated[s.FromMemberID], updated[s.ToMemberID]
		from.Sent += s.Amount
		to.Received += s.Amount
	}

	return finalize(opApplySettlements, updated)
}

// ValidateSettlement checks a settlement against a roster without applying it.
func ValidateSettlement(s models.Settlement, members []models.Member) error {
	index, err := indexMembers(opApplySettlements, members)
	if err != nil {
		return err
	}
	return checkSettlement(s, func(id string) bool { _, ok := index[id]; return ok })
}

func checkSettlement(s models.Settlement, onRoster func(id string) bool) error {
	if s.Amount <= 0 || math.IsNaN(s.Amount) || math.IsInf(s.Amount, 0) {
		return &Error{Op: opApplySettlements, Reason: fmt.Sprintf("settlement %s amount %v must be positive", s.ID, s.Amount), Err: ErrInvalidSplit}
	}
	if s.FromMemberID == s.ToMemberID {
		return &Error{Op: opApplySettlements, MemberID: s.FromMemberID, Reason: fmt.Sprintf("settlement %s pays itself", s.ID), Err: ErrInvalidSplit}
	}
	if !onRoster(s.FromMemberID) {
		return &Error{Op: opApplySettlements, MemberID: s.FromMemberID, Reason: fmt.Sprintf("settlement %s sender is not on the roster", s.ID), Err: ErrUnknownMember}
	}
	if !onRoster(s.ToMemberID) {
		return &Error{Op: opApplySettlements, MemberID: s.ToMemberID, Reason: fmt.Sprintf("settlement %s receiver is not on the roster", s.ID), Err: ErrUnknownMember}
	}
	return nil
}

// TripBalances aggregates expenses and then applies recorded settlements.
func TripBalances(expenses []models.Expense, settlements []models.Settlement, members []models.Member) (map[string]Balance, error) {
	balances, err := Aggregate(expenses, members)
	if err != nil {
		return nil, err
	}
	if len(settlements) == 0 {
		return balances, nil
	}
	return ApplySettlements(balances, settlements)
}

// finalize computes nets and enforces the zero-sum invariant.
func finalize(op string, balances map[string]*Balance) (map[string]Balance, error) {
	result := make(map[string]Balance, len(balances))
	for id, b := range balances {
		b.recomputeNet()
		result[id] = *b
	}
	if sum := netSum(result); math.Abs(sum) > Epsilon {
		return nil, &Error{Op: op, Reason: fmt.Sprintf("net balances sum to %.4f", sum), Err: ErrBalanceInvariant}
	}
	return result, nil
}

// netSum adds nets in member ID order so the result does not depend on map order.
func netSum(balances map[string]Balance) float64 {
	ids := make([]string, 0, len(balances))
	for id := range balances {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var sum float64
	for _, id := range ids {
		sum += balances[id].Net
	}
	return sum
}

// Sorted returns the balances ordered creditors first: by Net descending,
// ties broken by member ID.
func Sorted(balances map[string]Balance) []Balance {
	sorted := make([]Balance, 0, len(balances))
	for _, b := range balances {
		sorted = append(sorted, b)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Net != sorted[j].Net {
			return sorted[i].Net > sorted[j].Net
		}
		return sorted[i].Member.ID < sorted[j].Member.ID
	})
	return sorted
}
