// Package postgres implements store.Store on PostgreSQL through pgxpool.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gigledger/cashflow/internal/model"
	"github.com/gigledger/cashflow/internal/store"
)

//go:embed schema.sql
var schema string

// Store is a PostgreSQL-backed store.Store.
type Store struct {
	db *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

// Connect opens a pool for url and makes sure the schema exists.
func Connect(ctx context.Context, url string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}
	cfg.MaxConns = 5
	cfg.MinConns = 1
	cfg.MaxConnIdleTime = 2 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.db.Close()
	return nil
}

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const entrySelect = `SELECT id, user_id, "date", uber::text, bolt::text, freenow::text, horizoncars::text,
	other::text, expenses::text, balance::text, notes, created_at, updated_at FROM daily_entries`

func scanEntry(row pgx.Row) (model.DailyEntry, error) {
	var (
		e    model.DailyEntry
		amts [7]string
	)
	err := row.Scan(&e.ID, &e.UserID, &e.Date,
		&amts[0], &amts[1], &amts[2], &amts[3], &amts[4], &amts[5], &amts[6],
		&e.Notes, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return model.DailyEntry{}, err
	}
	dst := []*decimal.Decimal{&e.Uber, &e.Bolt, &e.FreeNow, &e.HorizonCars, &e.Other, &e.Expenses, &e.Balance}
	for i, a := range amts {
		if *dst[i], err = decimal.NewFromString(a); err != nil {
			return model.DailyEntry{}, fmt.Errorf("parsing amount %q: %w", a, err)
		}
	}
	e.Date = e.Date.UTC()
	return e, nil
}

// DailyEntries returns a user's entries for one month, ordered by date.
func (s *Store) DailyEntries(ctx context.Context, userID int64, year, month int) ([]model.DailyEntry, error) {
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	rows, err := s.db.Query(ctx,
		entrySelect+` WHERE user_id=$1 AND "date" >= $2 AND "date" < $3 ORDER BY "date"`,
		userID, from, to)
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

func getEntry(ctx context.Context, q querier, userID int64, date time.Time) (model.DailyEntry, error) {
	e, err := scanEntry(q.QueryRow(ctx, entrySelect+` WHERE user_id=$1 AND "date"=$2`, userID, date))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.DailyEntry{}, store.ErrNotFound
	}
	if err != nil {
		return model.DailyEntry{}, fmt.Errorf("get daily entry: %w", err)
	}
	return e, nil
}

// UpsertDailyEntry inserts or replaces the entry for (user, date).
func (s *Store) UpsertDailyEntry(ctx context.Context, e model.DailyEntry) error {
	return upsertEntry(ctx, s.db, e)
}

func upsertEntry(ctx context.Context, q querier, e model.DailyEntry) error {
	_, err := q.Exec(ctx,
		`INSERT INTO daily_entries (user_id, "date", uber, bolt, freenow, horizoncars, other, expenses, balance, notes)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 ON CONFLICT (user_id, "date") DO UPDATE SET
		   uber = EXCLUDED.uber,
		   bolt = EXCLUDED.bolt,
		   freenow = EXCLUDED.freenow,
		   horizoncars = EXCLUDED.horizoncars,
		   other = EXCLUDED.other,
		   expenses = EXCLUDED.expenses,
		   balance = EXCLUDED.balance,
		   notes = EXCLUDED.notes,
		   updated_at = now()`,
		e.UserID, e.Date,
		e.Uber.StringFixed(2), e.Bolt.StringFixed(2), e.FreeNow.StringFixed(2),
		e.HorizonCars.StringFixed(2), e.Other.StringFixed(2), e.Expenses.StringFixed(2),
		e.Balance.StringFixed(2), e.Notes)
	if err != nil {
		return fmt.Errorf("upsert daily entry %s: %w", model.DateKey(e.Date), err)
	}
	return nil
}

// RecurringExpenses lists a user's recurring expenses in creation order.
func (s *Store) RecurringExpenses(ctx context.Context, userID int64) ([]model.RecurringExpense, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, name, amount::text, day_of_month, category, created_at, updated_at
		 FROM recurring_expenses WHERE user_id=$1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query recurring expenses: %w", err)
	}
	defer rows.Close()

	var out []model.RecurringExpense
	for rows.Next() {
		var (
			r   model.RecurringExpense
			amt string
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.Name, &amt, &r.DayOfMonth, &r.Category, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan recurring expense: %w", err)
		}
		if r.Amount, err = decimal.NewFromString(amt); err != nil {
			return nil, fmt.Errorf("parsing amount %q: %w", amt, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CreateRecurringExpense stores e and returns it with its ID set.
func (s *Store) CreateRecurringExpense(ctx context.Context, e model.RecurringExpense) (model.RecurringExpense, error) {
	err := s.db.QueryRow(ctx,
		`INSERT INTO recurring_expenses (user_id, name, amount, day_of_month, category)
		 VALUES ($1,$2,$3,$4,$5) RETURNING id, created_at, updated_at`,
		e.UserID, e.Name, e.Amount.StringFixed(2), e.DayOfMonth, e.Category).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return model.RecurringExpense{}, fmt.Errorf("create recurring expense: %w", err)
	}
	return e, nil
}

// DeleteRecurringExpense removes a user's recurring expense.
func (s *Store) DeleteRecurringExpense(ctx context.Context, userID, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM recurring_expenses WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete recurring expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ImportedTransactions lists a user's transaction log, newest date first.
func (s *Store) ImportedTransactions(ctx context.Context, userID int64) ([]model.ImportedTransaction, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, "date", description, amount::text, category, source, batch_id, verified, created_at
		 FROM imported_transactions WHERE user_id=$1 ORDER BY "date" DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query imported transactions: %w", err)
	}
	defer rows.Close()

	var out []model.ImportedTransaction
	for rows.Next() {
		var (
			t   model.ImportedTransaction
			amt string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.Date, &t.Description, &amt, &t.Category, &t.Source, &t.BatchID, &t.Verified, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan imported transaction: %w", err)
		}
		if t.Amount, err = decimal.NewFromString(amt); err != nil {
			return nil, fmt.Errorf("parsing amount %q: %w", amt, err)
		}
		t.Date = t.Date.UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteImportedTransaction removes one log row owned by userID.
func (s *Store) DeleteImportedTransaction(ctx context.Context, userID, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM imported_transactions WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete imported transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ClearImportedTransactions removes every log row owned by userID.
func (s *Store) ClearImportedTransactions(ctx context.Context, userID int64) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM imported_transactions WHERE user_id=$1`, userID); err != nil {
		return fmt.Errorf("clear imported transactions: %w", err)
	}
	return nil
}

// ApplyImport writes the batch in a single transaction.
func (s *Store) ApplyImport(ctx context.Context, userID int64, batch store.ImportBatch) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	for _, t := range batch.Transactions {
		_, err := tx.Exec(ctx,
			`INSERT INTO imported_transactions (user_id, "date", description, amount, category, source, batch_id, verified)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			userID, t.Date, t.Description, t.Amount.StringFixed(2), t.Category, t.Source, t.BatchID, t.Verified)
		if err != nil {
			return fmt.Errorf("insert imported transaction: %w", err)
		}
	}

	now := time.Now()
	for _, d := range batch.Days {
		var existing *model.DailyEntry
		e, err := getEntry(ctx, tx, userID, d.Date)
		switch {
		case err == nil:
			existing = &e
		case !errors.Is(err, store.ErrNotFound):
			return err
		}
		if err := upsertEntry(ctx, tx, store.MergeEntry(existing, userID, d, batch.Merge, now)); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}
