// Package ledger builds the presentation model of a trip budget: manual and
// planned expenses merged into date groups, plus spend totals.
//
// It runs over the same records as the calculator but never feeds it.
package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tripledger/internal/calculator"
	"github.com/mmynk/tripledger/internal/models"
)

// dateLayout is the ISO date used as the group key.
const dateLayout = "2006-01-02"

// Source tags where a ledger entry comes from.
type Source string

const (
	SourceManual  Source = "manual"
	SourcePlanned Source = "planned"
)

// Entry is one line in the ledger.
type Entry struct {
	Source   Source
	ID       string
	Title    string
	Amount   float64
	Category string
	Date     string // ISO date, empty when unscheduled

	// Manual entries only
	PayerID   string
	PayerName string
	SplitKind models.SplitKind

	// Planned entries only: Amount divided by the roster size, for display
	PerPersonEstimate float64
}

// DateGroup holds the entries of one calendar day.
type DateGroup struct {
	Date        string // ISO date, empty for the unscheduled bucket
	Unscheduled bool
	Entries     []Entry
	Total       float64
}

// MemberTotal is how much one member paid out of pocket.
type MemberTotal struct {
	Member models.Member
	Amount float64
}

// View is the grouped ledger for one trip.
type View struct {
	// Groups are ordered by date ascending; the unscheduled bucket comes last.
	Groups []DateGroup

	TotalManualSpent float64
	TotalPlanned     float64

	// PlannedPerPerson is TotalPlanned divided by the roster size.
	PlannedPerPerson float64

	// PercentOfBudget is min(100, round(spent/budget*100)), or nil when no budget is set.
	PercentOfBudget *int

	// PaidByMember lists members with a nonzero manual total, largest first.
	PaidByMember []MemberTotal
}

// BuildView merges manual and planned expenses into a grouped ledger.
// budget <= 0 means no budget is set.
func BuildView(manual []models.Expense, planned []models.PlannedExpense, members []models.Member, budget float64) (*View, error) {
	roster := make(map[string]models.Member, len(members))
	for _, m := range members {
		if _, exists := roster[m.ID]; exists {
			return nil, viewError(m.ID, "", calculator.ErrDuplicateMember, "")
		}
		roster[m.ID] = m
	}
	if len(planned) > 0 && len(members) == 0 {
		return nil, viewError("", planned[0].ID, calculator.ErrInvalidSplit, "planned expenses need at least one member")
	}

	entries := make([]Entry, 0, len(manual)+len(planned))
	spent := decimal.Zero
	paid := make(map[string]decimal.Decimal)

	for _, e := range manual {
		payer, ok := roster[e.PayerID]
		if !ok {
			return nil, viewError(e.PayerID, e.ID, calculator.ErrUnknownMember, "payer is not on the roster")
		}
		amount := decimal.NewFromFloat(e.Amount)
		spent = spent.Add(amount)
		paid[payer.ID] = paid[payer.ID].Add(amount)

		entries = append(entries, Entry{
			Source:    SourceManual,
			ID:        e.ID,
			Title:     e.Title,
			Amount:    e.Amount,
			Category:  e.Category,
			Date:      isoDate(e.Date),
			PayerID:   payer.ID,
			PayerName: payer.Name,
			SplitKind: e.SplitKind(),
		})
	}

	plannedTotal := decimal.Zero
	for _, p := range planned {
		plannedTotal = plannedTotal.Add(decimal.NewFromFloat(p.Amount))
		entries = append(entries, Entry{
			Source:            SourcePlanned,
			ID:                p.ID,
			Title:             p.Title,
			Amount:            p.Amount,
			Category:          p.Category,
			Date:              isoDate(p.Date),
			PerPersonEstimate: p.Amount / float64(len(members)),
		})
	}

	view := &View{
		Groups:           groupByDate(entries),
		TotalManualSpent: spent.InexactFloat64(),
		TotalPlanned:     plannedTotal.InexactFloat64(),
		PercentOfBudget:  percentOfBudget(spent, budget),
		PaidByMember:     paidByMember(paid, roster),
	}
	if len(members) > 0 {
		view.PlannedPerPerson = plannedTotal.Div(decimal.NewFromInt(int64(len(members)))).InexactFloat64()
	}
	return view, nil
}

func isoDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// groupByDate buckets entries per day. Inside a day manual entries come before
// planned ones; otherwise the incoming order is kept.
func groupByDate(entries []Entry) []DateGroup {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Date != b.Date {
			// Unscheduled (empty) sorts after every date
			if a.Date == "" || b.Date == "" {
				return b.Date == ""
			}
			return a.Date < b.Date
		}
		return a.Source == SourceManual && b.Source == SourcePlanned
	})

	groups := make([]DateGroup, 0)
	for _, e := range sorted {
		if n := len(groups); n == 0 || groups[n-1].Date != e.Date {
			groups = append(groups, DateGroup{Date: e.Date, Unscheduled: e.Date == ""})
		}
		g := &groups[len(groups)-1]
		g.Entries = append(g.Entries, e)
	}
	for i := range groups {
		total := decimal.Zero
		for _, e := range groups[i].Entries {
			total = total.Add(decimal.NewFromFloat(e.Amount))
		}
		groups[i].Total = total.InexactFloat64()
	}
	return groups
}

func percentOfBudget(spent decimal.Decimal, budget float64) *int {
	if budget <= 0 {
		return nil
	}
	pct := spent.Div(decimal.NewFromFloat(budget)).Mul(decimal.NewFromInt(100)).Round(0)
	if pct.GreaterThan(decimal.NewFromInt(100)) {
		pct = decimal.NewFromInt(100)
	}
	v := int(pct.IntPart())
	return &v
}

func paidByMember(paid map[string]decimal.Decimal, roster map[string]models.Member) []MemberTotal {
	totals := make([]MemberTotal, 0, len(paid))
	for id, amount := range paid {
		if amount.IsZero() {
			continue
		}
		totals = append(totals, MemberTotal{Member: roster[id], Amount: amount.InexactFloat64()})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Amount != totals[j].Amount {
			return totals[i].Amount > totals[j].Amount
		}
		return totals[i].Member.ID < totals[j].Member.ID
	})
	return totals
}

func viewError(memberID, expenseID string, kind error, reason string) error {
	return &calculator.Error{Op: "build view", ExpenseID: expenseID, MemberID: memberID, Reason: reason, Err: kind}
}

// String renders a group header the way logs and the CLI print it.
func (g DateGroup) String() string {
	if g.Unscheduled {
		return fmt.Sprintf("unscheduled (%d)", len(g.Entries))
	}
	return fmt.Sprintf("%s (%d)", g.Date, len(g.Entries))
}
