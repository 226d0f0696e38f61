// Package store defines the persistence boundary of the ledger. Every
// operation is scoped to a user ID supplied by the caller.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gigledger/cashflow/internal/model"
)

// ErrNotFound is returned when a row does not exist for the given user.
var ErrNotFound = errors.New("not found")

// MergeMode controls how imported day totals combine with an existing
// daily entry.
type MergeMode string

const (
	// MergeAccumulate adds imported bucket values to the stored ones.
	MergeAccumulate MergeMode = "accumulate"
	// MergeOverwrite replaces stored bucket values with the imported ones.
	MergeOverwrite MergeMode = "overwrite"
)

// ParseMergeMode validates a merge mode name. Empty means accumulate.
func ParseMergeMode(s string) (MergeMode, error) {
	switch MergeMode(s) {
	case "", MergeAccumulate:
		return MergeAccumulate, nil
	case MergeOverwrite:
		return MergeOverwrite, nil
	}
	return "", fmt.Errorf("unknown merge mode %q: must be %s or %s", s, MergeAccumulate, MergeOverwrite)
}

// DayDelta is the aggregate of one import batch for one date.
type DayDelta struct {
	Date   time.Time
	Totals model.DayTotals
}

// ImportBatch is everything one import writes. Backends apply it atomically.
type ImportBatch struct {
	Transactions []model.ImportedTransaction
	Days         []DayDelta
	Merge        MergeMode
}

// Store is implemented by each persistence backend.
type Store interface {
	DailyEntries(ctx context.Context, userID int64, year, month int) ([]model.DailyEntry, error)
	DailyEntry(ctx context.Context, userID int64, date time.Time) (model.DailyEntry, error)
	UpsertDailyEntry(ctx context.Context, e model.DailyEntry) error

	RecurringExpenses(ctx context.Context, userID int64) ([]model.RecurringExpense, error)
	CreateRecurringExpense(ctx context.Context, e model.RecurringExpense) (model.RecurringExpense, error)
	DeleteRecurringExpense(ctx context.Context, userID, id int64) error

	ImportedTransactions(ctx context.Context, userID int64) ([]model.ImportedTransaction, error)
	DeleteImportedTransaction(ctx context.Context, userID, id int64) error
	ClearImportedTransactions(ctx context.Context, userID int64) error

	// ApplyImport appends the batch's transactions and merges its day
	// totals into the daily ledger in one unit.
	ApplyImport(ctx context.Context, userID int64, batch ImportBatch) error

	Close() error
}

// MergeEntry folds an import delta into existing (nil when the date has no
// entry yet). Balance is recomputed; notes are kept.
func MergeEntry(existing *model.DailyEntry, userID int64, d DayDelta, mode MergeMode, now time.Time) model.DailyEntry {
	e := model.DailyEntry{UserID: userID, Date: d.Date, CreatedAt: now}
	if existing != nil {
		e = *existing
	}

	if mode == MergeOverwrite || existing == nil {
		e.DayTotals = d.Totals
	} else {
		e.DayTotals = e.DayTotals.Add(d.Totals)
	}
	e.Balance = e.DayTotals.Net()
	e.UpdatedAt = now
	return e
}
