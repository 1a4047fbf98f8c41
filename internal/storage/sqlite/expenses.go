package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/tripledger/internal/models"
	"github.com/mmynk/tripledger/internal/storage"
)

const dateLayout = "2006-01-02"

// dateValue stores a calendar date as ISO text, or NULL when unscheduled.
func dateValue(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(dateLayout)
}

func parseDate(v sql.NullString) (time.Time, error) {
	if !v.Valid || v.String == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, v.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q: %w", v.String, err)
	}
	return t, nil
}

// CreateExpense persists a new expense and its custom split percentages.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, trip_id, title, amount, currency, category, expense_date, payer_id, split_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.TripID, expense.Title, expense.Amount, expense.Currency, expense.Category,
		dateValue(expense.Date), expense.PayerID, string(expense.SplitKind()), expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	if err := insertSplitDetails(ctx, tx, expense); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertSplitDetails(ctx context.Context, tx *sql.Tx, expense *models.Expense) error {
	custom, ok := expense.Split.(models.CustomSplit)
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(custom.Percentages))
	for id := range custom.Percentages {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO expense_split_details (expense_id, member_id, percentage) VALUES (?, ?, ?)",
			expense.ID, id, custom.Percentages[id],
		)
		if err != nil {
			return fmt.Errorf("failed to insert split detail: %w", err)
		}
	}
	return nil
}

// GetExpense retrieves an expense by ID, including its split details.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, trip_id, title, amount, currency, category, expense_date, payer_id, split_type, created_at
		 FROM expenses WHERE id = ?`,
		expenseID,
	)
	expense, kind, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	details, err := s.splitDetails(ctx, "WHERE expense_id = ?", expenseID)
	if err != nil {
		return nil, err
	}
	expense.Split = models.NewSplitStrategy(kind, details[expense.ID])
	return expense, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*models.Expense, models.SplitKind, error) {
	var (
		expense models.Expense
		date    sql.NullString
		kind    string
	)
	err := row.Scan(&expense.ID, &expense.TripID, &expense.Title, &expense.Amount, &expense.Currency,
		&expense.Category, &date, &expense.PayerID, &kind, &expense.CreatedAt)
	if err != nil {
		return nil, "", err
	}
	if expense.Date, err = parseDate(date); err != nil {
		return nil, "", err
	}
	splitKind, err := models.ParseSplitKind(kind)
	if err != nil {
		return nil, "", err
	}
	return &expense, splitKind, nil
}

// splitDetails loads custom split percentages keyed by expense ID.
func (s *SQLiteStore) splitDetails(ctx context.Context, where string, args ...any) (map[string]map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT expense_id, member_id, percentage FROM expense_split_details "+where,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get split details: %w", err)
	}
	defer rows.Close()

	details := make(map[string]map[string]float64)
	for rows.Next() {
		var (
			expenseID, memberID string
			pct                 float64
		)
		if err := rows.Scan(&expenseID, &memberID, &pct); err != nil {
			return nil, fmt.Errorf("failed to scan split detail: %w", err)
		}
		if details[expenseID] == nil {
			details[expenseID] = make(map[string]float64)
		}
		details[expenseID][memberID] = pct
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate split details: %w", err)
	}
	return details, nil
}

// UpdateExpense replaces an expense row and its split details.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE expenses SET title = ?, amount = ?, currency = ?, category = ?, expense_date = ?, payer_id = ?, split_type = ?
		 WHERE id = ?`,
		expense.Title, expense.Amount, expense.Currency, expense.Category,
		dateValue(expense.Date), expense.PayerID, string(expense.SplitKind()), expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if err := requireAffected(res, "expense", expense.ID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM expense_split_details WHERE expense_id = ?", expense.ID); err != nil {
		return fmt.Errorf("failed to clear split details: %w", err)
	}
	if err := insertSplitDetails(ctx, tx, expense); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteExpense removes an expense. Split details cascade.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return requireAffected(res, "expense", expenseID)
}

// ListExpensesByTrip retrieves all expenses of a trip in the order they were logged.
func (s *SQLiteStore) ListExpensesByTrip(ctx context.Context, tripID string) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, trip_id, title, amount, currency, category, expense_date, payer_id, split_type, created_at
		 FROM expenses WHERE trip_id = ? ORDER BY rowid`,
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var (
		expenses []models.Expense
		kinds    []models.SplitKind
	)
	for rows.Next() {
		expense, kind, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, *expense)
		kinds = append(kinds, kind)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	details, err := s.splitDetails(ctx,
		"WHERE expense_id IN (SELECT id FROM expenses WHERE trip_id = ?)",
		tripID,
	)
	if err != nil {
		return nil, err
	}
	for i := range expenses {
		expenses[i].Split = models.NewSplitStrategy(kinds[i], details[expenses[i].ID])
	}
	return expenses, nil
}

// CreatePlannedExpense persists a new itinerary estimate.
func (s *SQLiteStore) CreatePlannedExpense(ctx context.Context, planned *models.PlannedExpense) error {
	if planned.ID == "" {
		planned.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO planned_expenses (id, trip_id, title, amount, category, planned_date)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		planned.ID, planned.TripID, planned.Title, planned.Amount, planned.Category, dateValue(planned.Date),
	)
	if err != nil {
		return fmt.Errorf("failed to insert planned expense: %w", err)
	}
	return nil
}

func scanPlanned(row rowScanner) (*models.PlannedExpense, error) {
	var (
		p    models.PlannedExpense
		date sql.NullString
	)
	if err := row.Scan(&p.ID, &p.TripID, &p.Title, &p.Amount, &p.Category, &date); err != nil {
		return nil, err
	}
	var err error
	if p.Date, err = parseDate(date); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPlannedExpense retrieves an estimate by ID.
func (s *SQLiteStore) GetPlannedExpense(ctx context.Context, plannedID string) (*models.PlannedExpense, error) {
	planned, err := scanPlanned(s.db.QueryRowContext(ctx,
		`SELECT id, trip_id, title, amount, category, planned_date FROM planned_expenses WHERE id = ?`,
		plannedID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("planned expense %s: %w", plannedID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get planned expense: %w", err)
	}
	return planned, nil
}

// ListPlannedExpensesByTrip retrieves the estimates of a trip in insertion order.
func (s *SQLiteStore) ListPlannedExpensesByTrip(ctx context.Context, tripID string) ([]models.PlannedExpense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, trip_id, title, amount, category, planned_date
		 FROM planned_expenses WHERE trip_id = ? ORDER BY rowid`,
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list planned expenses: %w", err)
	}
	defer rows.Close()

	var planned []models.PlannedExpense
	for rows.Next() {
		p, err := scanPlanned(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan planned expense: %w", err)
		}
		planned = append(planned, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate planned expenses: %w", err)
	}
	return planned, nil
}

// DeletePlannedExpense removes an estimate.
func (s *SQLiteStore) DeletePlannedExpense(ctx context.Context, plannedID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM planned_expenses WHERE id = ?", plannedID)
	if err != nil {
		return fmt.Errorf("failed to delete planned expense: %w", err)
	}
	return requireAffected(res, "planned expense", plannedID)
}
