package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/gigledger/cashflow/internal/model"
)

// Memory is an in-process Store. It is safe for concurrent use.
type Memory struct {
	mu        sync.Mutex
	nextID    int64
	entries   map[int64]map[string]model.DailyEntry
	recurring []model.RecurringExpense
	txns      []model.ImportedTransaction
	now       func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[int64]map[string]model.DailyEntry),
		now:     time.Now,
	}
}

func (m *Memory) id() int64 {
	m.nextID++
	return m.nextID
}

// DailyEntries returns a user's entries for one month, ordered by date.
func (m *Memory) DailyEntries(_ context.Context, userID int64, year, month int) ([]model.DailyEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.DailyEntry
	for _, e := range m.entries[userID] {
		if e.Date.Year() == year && int(e.Date.Month()) == month {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b model.DailyEntry) int { return a.Date.Compare(b.Date) })
	return out, nil
}

// DailyEntry returns one entry or ErrNotFound.
func (m *Memory) DailyEntry(_ context.Context, userID int64, date time.Time) (model.DailyEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[userID][model.DateKey(date)]
	if !ok {
		return model.DailyEntry{}, ErrNotFound
	}
	return e, nil
}

// UpsertDailyEntry inserts or replaces the entry for (user, date).
func (m *Memory) UpsertDailyEntry(_ context.Context, e model.DailyEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putEntry(e)
	return nil
}

func (m *Memory) putEntry(e model.DailyEntry) {
	byDate, ok := m.entries[e.UserID]
	if !ok {
		byDate = make(map[string]model.DailyEntry)
		m.entries[e.UserID] = byDate
	}
	key := model.DateKey(e.Date)
	now := m.now()
	if old, ok := byDate[key]; ok {
		e.ID = old.ID
		e.CreatedAt = old.CreatedAt
	} else {
		e.ID = m.id()
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	byDate[key] = e
}

// RecurringExpenses lists a user's recurring expenses in creation order.
func (m *Memory) RecurringExpenses(_ context.Context, userID int64) ([]model.RecurringExpense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.RecurringExpense
	for _, r := range m.recurring {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

// CreateRecurringExpense stores e and returns it with its ID set.
func (m *Memory) CreateRecurringExpense(_ context.Context, e model.RecurringExpense) (model.RecurringExpense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	e.ID = m.id()
	e.CreatedAt = now
	e.UpdatedAt = now
	m.recurring = append(m.recurring, e)
	return e, nil
}

// DeleteRecurringExpense removes a user's recurring expense.
func (m *Memory) DeleteRecurringExpense(_ context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := slices.IndexFunc(m.recurring, func(r model.RecurringExpense) bool {
		return r.ID == id && r.UserID == userID
	})
	if i < 0 {
		return ErrNotFound
	}
	m.recurring = slices.Delete(m.recurring, i, i+1)
	return nil
}

// ImportedTransactions lists a user's transaction log, newest date first.
func (m *Memory) ImportedTransactions(_ context.Context, userID int64) ([]model.ImportedTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.ImportedTransaction
	for _, t := range m.txns {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, func(a, b model.ImportedTransaction) int { return b.Date.Compare(a.Date) })
	return out, nil
}

// DeleteImportedTransaction removes one log row owned by userID.
func (m *Memory) DeleteImportedTransaction(_ context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := slices.IndexFunc(m.txns, func(t model.ImportedTransaction) bool {
		return t.ID == id && t.UserID == userID
	})
	if i < 0 {
		return ErrNotFound
	}
	m.txns = slices.Delete(m.txns, i, i+1)
	return nil
}

// ClearImportedTransactions removes every log row owned by userID.
func (m *Memory) ClearImportedTransactions(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.txns = slices.DeleteFunc(m.txns, func(t model.ImportedTransaction) bool {
		return t.UserID == userID
	})
	return nil
}

// ApplyImport appends the log rows and merges day totals under one lock.
func (m *Memory) ApplyImport(_ context.Context, userID int64, batch ImportBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for _, t := range batch.Transactions {
		t.ID = m.id()
		t.UserID = userID
		t.CreatedAt = now
		m.txns = append(m.txns, t)
	}

	for _, d := range batch.Days {
		var existing *model.DailyEntry
		if e, ok := m.entries[userID][model.DateKey(d.Date)]; ok {
			existing = &e
		}
		m.putEntry(MergeEntry(existing, userID, d, batch.Merge, now))
	}
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
