package main

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/mmynk/tripledger/internal/models"
)

// snapshot is a trip exported to YAML. Amounts are decimal strings so that
// "19.99" is read exactly.
type snapshot struct {
	Name     string `yaml:"name"`
	Currency string `yaml:"currency"`
	Budget   string `yaml:"budget"`
	Members  []struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"members"`
	Expenses []struct {
		ID          string             `yaml:"id"`
		Title       string             `yaml:"title"`
		Amount      string             `yaml:"amount"`
		Category    string             `yaml:"category"`
		Date        string             `yaml:"date"`
		Payer       string             `yaml:"payer"`
		Split       string             `yaml:"split"`
		Percentages map[string]float64 `yaml:"percentages"`
	} `yaml:"expenses"`
	Planned []struct {
		Title    string `yaml:"title"`
		Amount   string `yaml:"amount"`
		Category string `yaml:"category"`
		Date     string `yaml:"date"`
	} `yaml:"planned"`
	Settlements []struct {
		From   string `yaml:"from"`
		To     string `yaml:"to"`
		Amount string `yaml:"amount"`
		Note   string `yaml:"note"`
	} `yaml:"settlements"`
}

// trip is a snapshot converted to ledger records.
type trip struct {
	Name        string
	Currency    string
	Budget      float64
	Members     []models.Member
	Expenses    []models.Expense
	Planned     []models.PlannedExpense
	Settlements []models.Settlement
}

func readSnapshot(r io.Reader) (*trip, error) {
	var snap snapshot
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return snap.toTrip()
}

func (s *snapshot) toTrip() (*trip, error) {
	t := &trip{Name: s.Name, Currency: s.Currency}

	if s.Budget != "" {
		budget, err := parseAmount(s.Budget)
		if err != nil {
			return nil, fmt.Errorf("budget: %w", err)
		}
		t.Budget = budget
	}

	for _, m := range s.Members {
		name := m.Name
		if name == "" {
			name = m.ID
		}
		t.Members = append(t.Members, models.Member{ID: m.ID, Name: name})
	}

	for i, e := range s.Expenses {
		amount, err := parseAmount(e.Amount)
		if err != nil {
			return nil, fmt.Errorf("expense %d (%s): %w", i+1, e.Title, err)
		}
		date, err := parseDate(e.Date)
		if err != nil {
			return nil, fmt.Errorf("expense %d (%s): %w", i+1, e.Title, err)
		}
		kind, err := models.ParseSplitKind(e.Split)
		if err != nil {
			return nil, fmt.Errorf("expense %d (%s): %w", i+1, e.Title, err)
		}
		id := e.ID
		if id == "" {
			id = fmt.Sprintf("expense-%d", i+1)
		}
		t.Expenses = append(t.Expenses, models.Expense{
			ID:       id,
			Title:    e.Title,
			Amount:   amount,
			Currency: s.Currency,
			Category: e.Category,
			Date:     date,
			PayerID:  e.Payer,
			Split:    models.NewSplitStrategy(kind, e.Percentages),
		})
	}

	for i, p := range s.Planned {
		amount, err := parseAmount(p.Amount)
		if err != nil {
			return nil, fmt.Errorf("planned %d (%s): %w", i+1, p.Title, err)
		}
		date, err := parseDate(p.Date)
		if err != nil {
			return nil, fmt.Errorf("planned %d (%s): %w", i+1, p.Title, err)
		}
		t.Planned = append(t.Planned, models.PlannedExpense{
			ID:       fmt.Sprintf("planned-%d", i+1),
			Title:    p.Title,
			Amount:   amount,
			Category: p.Category,
			Date:     date,
		})
	}

	for i, st := range s.Settlements {
		amount, err := parseAmount(st.Amount)
		if err != nil {
			return nil, fmt.Errorf("settlement %d: %w", i+1, err)
		}
		t.Settlements = append(t.Settlements, models.Settlement{
			ID:           fmt.Sprintf("settlement-%d", i+1),
			FromMemberID: st.From,
			ToMemberID:   st.To,
			Amount:       amount,
			Note:         st.Note,
		})
	}
	return t, nil
}

// parseAmount reads a non-negative amount with at most two decimal places.
func parseAmount(s string) (float64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("negative amount %s", s)
	}
	if !d.Equal(d.Round(2)) {
		return 0, fmt.Errorf("amount %s has more than two decimal places", s)
	}
	return d.InexactFloat64(), nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return d, nil
}
