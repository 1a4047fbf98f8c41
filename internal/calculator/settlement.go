package calculator

import (
	"fmt"
	"math"
	"sort"

	"github.com/mmynk/tripledger/internal/models"
)

// Transfer is one payment instruction in a settlement plan.
type Transfer struct {
	From   models.Member // Person who owes
	To     models.Member // Person who is owed
	Amount float64
}

// Plan derives transfers that settle every balance.
//
// Greedy two-pointer matching over the balances sorted creditors first:
// i walks down from the largest creditor, j walks up from the largest debtor,
// and each step moves min(credit, debt) from j to i. Residuals below Epsilon
// count as settled. The result is deterministic for identical input but is not
// guaranteed to use the fewest possible transfers.
func Plan(balances map[string]Balance) ([]Transfer, error) {
	if sum := netSum(balances); math.Abs(sum) > Epsilon {
		return nil, &Error{Op: opPlan, Reason: fmt.Sprintf("net balances sum to %.4f", sum), Err: ErrBalanceInvariant}
	}

	entries := settlementOrder(balances)
	nets := make([]float64, len(entries))
	for k, e := range entries {
		nets[k] = e.Net
	}

	transfers := make([]Transfer, 0)
	// Each step either moves a cursor or settles one side, so 3n steps is plenty
	maxSteps := 3*len(entries) + 1
	i, j := 0, len(entries)-1
	for steps := 0; i < j; steps++ {
		if steps > maxSteps {
			return nil, &Error{Op: opPlan, Reason: "settlement did not converge", Err: ErrBalanceInvariant}
		}

		switch {
		case nets[i] <= Epsilon:
			i++
		case nets[j] >= -Epsilon:
			j--
		default:
			amount := math.Min(nets[i], -nets[j])
			transfers = append(transfers, Transfer{
				From:   entries[j].Member,
				To:     entries[i].Member,
				Amount: amount,
			})
			nets[i] -= amount
			nets[j] += amount
		}
	}

	return transfers, nil
}

// settlementOrder sorts by Net descending. Ties are ordered so that both
// cursors visit members with equal nets in ascending ID order.
func settlementOrder(balances map[string]Balance) []Balance {
	entries := make([]Balance, 0, len(balances))
	for _, b := range balances {
		entries = append(entries, b)
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Net != b.Net {
			return a.Net > b.Net
		}
		if a.Net < 0 {
			// j walks this end backwards
			return a.Member.ID > b.Member.ID
		}
		return a.Member.ID < b.Member.ID
	})
	return entries
}

// TotalTransferred sums the amounts of a plan.
func TotalTransferred(transfers []Transfer) float64 {
	var total float64
	for _, t := range transfers {
		total += t.Amount
	}
	return total
}
