package service

import (
	"fmt"
	"math"
	"time"

	"github.com/mmynk/tripledger/internal/calculator"
	"github.com/mmynk/tripledger/internal/ledger"
	"github.com/mmynk/tripledger/internal/models"
	"github.com/mmynk/tripledger/pkg/api"
)

const dateLayout = "2006-01-02"

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return d, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func validAmount(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

func toAPIMember(m models.Member) api.Member {
	return api.Member{ID: m.ID, Name: m.Name}
}

func toAPIMembers(members []models.Member) []api.Member {
	out := make([]api.Member, len(members))
	for i, m := range members {
		out[i] = toAPIMember(m)
	}
	return out
}

func toModelMembers(members []api.Member) []models.Member {
	out := make([]models.Member, len(members))
	for i, m := range members {
		out[i] = models.Member{ID: m.ID, Name: m.Name}
	}
	return out
}

func toAPITrip(t *models.Trip) api.Trip {
	return api.Trip{
		ID:        t.ID,
		Name:      t.Name,
		Currency:  t.Currency,
		Budget:    t.Budget,
		Members:   toAPIMembers(t.Members),
		CreatedAt: t.CreatedAt,
	}
}

// toModelExpense converts and validates the wire form of an expense.
// Semantic checks (roster, percentages) are left to the calculator.
func toModelExpense(e api.Expense, trip *models.Trip) (models.Expense, error) {
	if e.Title == "" {
		return models.Expense{}, fmt.Errorf("title required")
	}
	if e.PayerID == "" {
		return models.Expense{}, fmt.Errorf("payer_id required")
	}
	currency := e.Currency
	if currency == "" {
		currency = trip.Currency
	}
	if currency != trip.Currency {
		return models.Expense{}, fmt.Errorf("currency %s does not match trip currency %s", currency, trip.Currency)
	}
	date, err := parseDate(e.Date)
	if err != nil {
		return models.Expense{}, err
	}
	kind, err := models.ParseSplitKind(e.Split.Type)
	if err != nil {
		return models.Expense{}, err
	}
	if kind != models.SplitCustom && len(e.Split.Percentages) > 0 {
		return models.Expense{}, fmt.Errorf("percentages are only allowed on custom splits")
	}

	return models.Expense{
		ID:       e.ID,
		TripID:   trip.ID,
		Title:    e.Title,
		Amount:   e.Amount,
		Currency: currency,
		Category: e.Category,
		Date:     date,
		PayerID:  e.PayerID,
		Split:    models.NewSplitStrategy(kind, e.Split.Percentages),
	}, nil
}

func toAPIExpense(e models.Expense) api.Expense {
	split := api.Split{Type: string(e.SplitKind())}
	if custom, ok := e.Split.(models.CustomSplit); ok {
		split.Percentages = custom.Percentages
	}
	return api.Expense{
		ID:        e.ID,
		TripID:    e.TripID,
		Title:     e.Title,
		Amount:    e.Amount,
		Currency:  e.Currency,
		Category:  e.Category,
		Date:      formatDate(e.Date),
		PayerID:   e.PayerID,
		Split:     split,
		CreatedAt: e.CreatedAt,
	}
}

func toAPIPlanned(p models.PlannedExpense) api.PlannedExpense {
	return api.PlannedExpense{
		ID:       p.ID,
		TripID:   p.TripID,
		Title:    p.Title,
		Amount:   p.Amount,
		Category: p.Category,
		Date:     formatDate(p.Date),
	}
}

// toAPIShares lists shares in roster order, skipping members not in shares.
func toAPIShares(shares map[string]float64, members []models.Member) []api.Share {
	out := make([]api.Share, 0, len(shares))
	for _, m := range members {
		if amount, ok := shares[m.ID]; ok {
			out = append(out, api.Share{Member: toAPIMember(m), Amount: amount})
		}
	}
	return out
}

func toAPIBalance(b calculator.Balance) api.Balance {
	return api.Balance{
		Member:        toAPIMember(b.Member),
		Paid:          b.Paid,
		PaidPrivately: b.PaidPrivately,
		OwedShare:     b.OwedShare,
		Sent:          b.Sent,
		Received:      b.Received,
		Net:           b.Net,
	}
}

func toAPITransfer(t calculator.Transfer) api.Transfer {
	return api.Transfer{From: toAPIMember(t.From), To: toAPIMember(t.To), Amount: t.Amount}
}

func toAPISettlement(s models.Settlement) api.Settlement {
	return api.Settlement{
		ID:           s.ID,
		TripID:       s.TripID,
		FromMemberID: s.FromMemberID,
		ToMemberID:   s.ToMemberID,
		Amount:       s.Amount,
		CreatedAt:    s.CreatedAt,
		CreatedBy:    s.CreatedBy,
		Note:         s.Note,
	}
}

func toAPIView(v *ledger.View) api.LedgerView {
	out := api.LedgerView{
		Groups:           make([]api.DateGroup, len(v.Groups)),
		TotalManualSpent: v.TotalManualSpent,
		TotalPlanned:     v.TotalPlanned,
		PlannedPerPerson: v.PlannedPerPerson,
		PercentOfBudget:  v.PercentOfBudget,
		PaidByMember:     make([]api.MemberTotal, len(v.PaidByMember)),
	}
	for i, g := range v.Groups {
		entries := make([]api.LedgerEntry, len(g.Entries))
		for j, e := range g.Entries {
			entries[j] = api.LedgerEntry{
				Source:            string(e.Source),
				ID:                e.ID,
				Title:             e.Title,
				Amount:            e.Amount,
				Category:          e.Category,
				Date:              e.Date,
				PayerID:           e.PayerID,
				PayerName:         e.PayerName,
				SplitType:         string(e.SplitKind),
				PerPersonEstimate: e.PerPersonEstimate,
			}
		}
		out.Groups[i] = api.DateGroup{Date: g.Date, Unscheduled: g.Unscheduled, Entries: entries, Total: g.Total}
	}
	for i, mt := range v.PaidByMember {
		out.PaidByMember[i] = api.MemberTotal{Member: toAPIMember(mt.Member), Amount: mt.Amount}
	}
	return out
}
