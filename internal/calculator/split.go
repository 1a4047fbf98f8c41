package calculator

import (
	"fmt"
	"math"
	"sort"

	"github.com/mmynk/tripledger/internal/models"
)

// ComputeShares returns how much of the expense each member owes.
//
// Equal splits charge every roster member amount/len(members), the payer included.
// Custom splits charge each listed member their percentage of the amount and give
// every other member a zero share. Individual splits charge nobody and return an
// empty map: the payer bears the cost privately.
//
// The inputs are never modified.
func ComputeShares(expense models.Expense, members []models.Member) (map[string]float64, error) {
	index, err := indexMembers(opComputeShares, members)
	if err != nil {
		return nil, err
	}
	return computeShares(expense, members, index)
}

func computeShares(expense models.Expense, members []models.Member, index map[string]models.Member) (map[string]float64, error) {
	if len(members) == 0 {
		return nil, splitError(expense, "", "must have at least one member")
	}
	if expense.Amount < 0 || math.IsNaN(expense.Amount) || math.IsInf(expense.Amount, 0) {
		return nil, splitError(expense, "", fmt.Sprintf("amount %v must be a non-negative number", expense.Amount))
	}
	if _, ok := index[expense.PayerID]; !ok {
		return nil, &Error{Op: opComputeShares, ExpenseID: expense.ID, MemberID: expense.PayerID, Reason: "payer is not on the roster", Err: ErrUnknownMember}
	}

	switch split := expense.Split.(type) {
	case nil, models.EqualSplit:
		share := expense.Amount / float64(len(members))
		shares := make(map[string]float64, len(members))
		for _, m := range members {
			shares[m.ID] = share
		}
		return shares, nil

	case models.CustomSplit:
		return customShares(expense, split.Percentages, members, index)

	case models.IndividualSplit:
		return map[string]float64{}, nil

	default:
		return nil, splitError(expense, "", fmt.Sprintf("unsupported split strategy %T", split))
	}
}

// customShares validates percentages and converts them into shares.
// Percentages within Epsilon of 100 are scaled by their actual total so the
// shares always add back up to the expense amount.
func customShares(expense models.Expense, percentages map[string]float64, members []models.Member, index map[string]models.Member) (map[string]float64, error) {
	// Sorted so the first reported problem is stable across calls
	ids := make([]string, 0, len(percentages))
	for id := range percentages {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var total float64
	for _, id := range ids {
		if _, ok := index[id]; !ok {
			return nil, &Error{Op: opComputeShares, ExpenseID: expense.ID, MemberID: id, Reason: "split references a member not on the roster", Err: ErrUnknownMember}
		}
		pct := percentages[id]
		if pct < 0 || math.IsNaN(pct) {
			return nil, splitError(expense, id, fmt.Sprintf("percentage %v must not be negative", pct))
		}
		total += pct
	}
	if math.Abs(total-100) > Epsilon {
		return nil, splitError(expense, "", fmt.Sprintf("percentages sum to %.2f, want 100", total))
	}

	shares := make(map[string]float64, len(members))
	for _, m := range members {
		shares[m.ID] = 0
	}
	for _, id := range ids {
		shares[id] = expense.Amount * percentages[id] / total
	}
	return shares, nil
}

func splitError(expense models.Expense, memberID, reason string) error {
	return &Error{Op: opComputeShares, ExpenseID: expense.ID, MemberID: memberID, Reason: reason, Err: ErrInvalidSplit}
}
