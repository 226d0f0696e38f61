// Package sqlite implements store.Store on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/gigledger/cashflow/internal/model"
	"github.com/gigledger/cashflow/internal/store"
)

// Store is a SQLite-backed store.Store.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open creates the database file if needed, applies migrations and returns
// a ready Store.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const entryColumns = `id, user_id, date, uber, bolt, freenow, horizoncars, other, expenses, balance, notes, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(r rowScanner) (model.DailyEntry, error) {
	var (
		e                model.DailyEntry
		date             string
		notes            sql.NullString
		created, updated int64
	)
	err := r.Scan(&e.ID, &e.UserID, &date,
		&e.Uber, &e.Bolt, &e.FreeNow, &e.HorizonCars, &e.Other, &e.Expenses, &e.Balance,
		&notes, &created, &updated)
	if err != nil {
		return model.DailyEntry{}, err
	}
	if e.Date, err = time.Parse(model.DateFormat, date); err != nil {
		return model.DailyEntry{}, fmt.Errorf("parsing entry date %q: %w", date, err)
	}
	e.Notes = notes.String
	e.CreatedAt = time.Unix(created, 0).UTC()
	e.UpdatedAt = time.Unix(updated, 0).UTC()
	return e, nil
}

// DailyEntries returns a user's entries for one month, ordered by date.
func (s *Store) DailyEntries(ctx context.Context, userID int64, year, month int) ([]model.DailyEntry, error) {
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM daily_entries
		 WHERE user_id = ? AND date >= ? AND date < ?
		 ORDER BY date`,
		userID, model.DateKey(from), model.DateKey(to))
	if err != nil {
		return nil, fmt.Errorf("query daily entries: %w", err)
	}
	defer rows.Close()

	var out []model.DailyEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan daily entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DailyEntry returns one entry or store.ErrNotFound.
func (s *Store) DailyEntry(ctx context.Context, userID int64, date time.Time) (model.DailyEntry, error) {
	return getEntry(ctx, s.db, userID, date)
}

func getEntry(ctx context.Context, q queryer, userID int64, date time.Time) (model.DailyEntry, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM daily_entries WHERE user_id = ? AND date = ?`,
		userID, model.DateKey(date))
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DailyEntry{}, store.ErrNotFound
	}
	if err != nil {
		return model.DailyEntry{}, fmt.Errorf("get daily entry: %w", err)
	}
	return e, nil
}

// UpsertDailyEntry inserts or replaces the entry for (user, date).
func (s *Store) UpsertDailyEntry(ctx context.Context, e model.DailyEntry) error {
	return upsertEntry(ctx, s.db, e, s.now())
}

func upsertEntry(ctx context.Context, q queryer, e model.DailyEntry, now time.Time) error {
	var notes sql.NullString
	if e.Notes != "" {
		notes = sql.NullString{String: e.Notes, Valid: true}
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO daily_entries (user_id, date, uber, bolt, freenow, horizoncars, other, expenses, balance, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, date) DO UPDATE SET
		   uber = excluded.uber,
		   bolt = excluded.bolt,
		   freenow = excluded.freenow,
		   horizoncars = excluded.horizoncars,
		   other = excluded.other,
		   expenses = excluded.expenses,
		   balance = excluded.balance,
		   notes = excluded.notes,
		   updated_at = excluded.updated_at`,
		e.UserID, model.DateKey(e.Date),
		money(e.Uber), money(e.Bolt), money(e.FreeNow), money(e.HorizonCars), money(e.Other),
		money(e.Expenses), money(e.Balance), notes, now.Unix(), now.Unix())
	if err != nil {
		return fmt.Errorf("upsert daily entry %s: %w", model.DateKey(e.Date), err)
	}
	return nil
}

// RecurringExpenses lists a user's recurring expenses in creation order.
func (s *Store) RecurringExpenses(ctx context.Context, userID int64) ([]model.RecurringExpense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, amount, day_of_month, category, created_at, updated_at
		 FROM recurring_expenses WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query recurring expenses: %w", err)
	}
	defer rows.Close()

	var out []model.RecurringExpense
	for rows.Next() {
		var (
			r                model.RecurringExpense
			category         sql.NullString
			created, updated int64
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.Name, &r.Amount, &r.DayOfMonth, &category, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan recurring expense: %w", err)
		}
		r.Category = category.String
		r.CreatedAt = time.Unix(created, 0).UTC()
		r.UpdatedAt = time.Unix(updated, 0).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// CreateRecurringExpense stores e and returns it with its ID set.
func (s *Store) CreateRecurringExpense(ctx context.Context, e model.RecurringExpense) (model.RecurringExpense, error) {
	now := s.now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO recurring_expenses (user_id, name, amount, day_of_month, category, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.Name, money(e.Amount), e.DayOfMonth, nullString(e.Category), now.Unix(), now.Unix())
	if err != nil {
		return model.RecurringExpense{}, fmt.Errorf("create recurring expense: %w", err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return model.RecurringExpense{}, fmt.Errorf("recurring expense id: %w", err)
	}
	e.CreatedAt = time.Unix(now.Unix(), 0).UTC()
	e.UpdatedAt = e.CreatedAt
	return e, nil
}

// DeleteRecurringExpense removes a user's recurring expense.
func (s *Store) DeleteRecurringExpense(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recurring_expenses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete recurring expense: %w", err)
	}
	return requireAffected(res)
}

// ImportedTransactions lists a user's transaction log, newest date first.
func (s *Store) ImportedTransactions(ctx context.Context, userID int64) ([]model.ImportedTransaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, date, description, amount, category, source, batch_id, verified, created_at
		 FROM imported_transactions WHERE user_id = ? ORDER BY date DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query imported transactions: %w", err)
	}
	defer rows.Close()

	var out []model.ImportedTransaction
	for rows.Next() {
		var (
			t                     model.ImportedTransaction
			date                  string
			desc, category, src sql.NullString
			created               int64
		)
		if err := rows.Scan(&t.ID, &t.UserID, &date, &desc, &t.Amount, &category, &src, &t.BatchID, &t.Verified, &created); err != nil {
			return nil, fmt.Errorf("scan imported transaction: %w", err)
		}
		if t.Date, err = time.Parse(model.DateFormat, date); err != nil {
			return nil, fmt.Errorf("parsing transaction date %q: %w", date, err)
		}
		t.Description = desc.String
		t.Category = category.String
		t.Source = src.String
		t.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteImportedTransaction removes one log row owned by userID.
func (s *Store) DeleteImportedTransaction(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM imported_transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete imported transaction: %w", err)
	}
	return requireAffected(res)
}

// ClearImportedTransactions removes every log row owned by userID.
func (s *Store) ClearImportedTransactions(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM imported_transactions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear imported transactions: %w", err)
	}
	return nil
}

// ApplyImport writes the batch in a single transaction.
func (s *Store) ApplyImport(ctx context.Context, userID int64, batch store.ImportBatch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	now := s.now()
	for _, t := range batch.Transactions {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO imported_transactions (user_id, date, description, amount, category, source, batch_id, verified, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			userID, model.DateKey(t.Date), nullString(t.Description), money(t.Amount),
			nullString(t.Category), nullString(t.Source), t.BatchID, t.Verified, now.Unix())
		if err != nil {
			return fmt.Errorf("insert imported transaction: %w", err)
		}
	}

	for _, d := range batch.Days {
		var existing *model.DailyEntry
		e, err := getEntry(ctx, tx, userID, d.Date)
		switch {
		case err == nil:
			existing = &e
		case !errors.Is(err, store.ErrNotFound):
			return err
		}
		if err := upsertEntry(ctx, tx, store.MergeEntry(existing, userID, d, batch.Merge, now), now); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
