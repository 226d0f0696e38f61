// Package storetest holds a behaviour suite every store backend must pass.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigledger/cashflow/internal/model"
	"github.com/gigledger/cashflow/internal/store"
)

// Run exercises a fresh store returned by newStore for each subtest.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"UpsertAndMonth", testUpsertAndMonth},
		{"DailyEntryNotFound", testDailyEntryNotFound},
		{"RecurringCRUD", testRecurringCRUD},
		{"ApplyImportAccumulate", testApplyImportAccumulate},
		{"ApplyImportOverwrite", testApplyImportOverwrite},
		{"TransactionOwnership", testTransactionOwnership},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(s string) time.Time {
	d, err := time.Parse(model.DateFormat, s)
	if err != nil {
		panic(err)
	}
	return d
}

func testUpsertAndMonth(t *testing.T, s store.Store) {
	ctx := context.Background()

	e := model.DailyEntry{
		UserID:    1,
		Date:      date("2026-02-03"),
		DayTotals: model.DayTotals{Uber: dec("150.50"), Expenses: dec("50.00")},
		Balance:   dec("100.50"),
		Notes:     "Test entry",
	}
	require.NoError(t, s.UpsertDailyEntry(ctx, e))
	require.NoError(t, s.UpsertDailyEntry(ctx, model.DailyEntry{UserID: 1, Date: date("2026-02-01"), DayTotals: model.DayTotals{Bolt: dec("10")}, Balance: dec("10")}))
	require.NoError(t, s.UpsertDailyEntry(ctx, model.DailyEntry{UserID: 1, Date: date("2026-03-01")}))
	require.NoError(t, s.UpsertDailyEntry(ctx, model.DailyEntry{UserID: 2, Date: date("2026-02-05")}))

	got, err := s.DailyEntries(ctx, 1, 2026, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2026-02-01", model.DateKey(got[0].Date))
	assert.Equal(t, "2026-02-03", model.DateKey(got[1].Date))
	assert.True(t, got[1].Uber.Equal(dec("150.50")))
	assert.True(t, got[1].Balance.Equal(dec("100.50")))
	assert.Equal(t, "Test entry", got[1].Notes)

	// Upsert replaces rather than duplicates.
	e.Notes = "edited"
	e.Uber = dec("1")
	require.NoError(t, s.UpsertDailyEntry(ctx, e))
	one, err := s.DailyEntry(ctx, 1, date("2026-02-03"))
	require.NoError(t, err)
	assert.Equal(t, "edited", one.Notes)
	assert.True(t, one.Uber.Equal(dec("1")))

	got, err = s.DailyEntries(ctx, 1, 2026, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func testDailyEntryNotFound(t *testing.T, s store.Store) {
	_, err := s.DailyEntry(context.Background(), 1, date("2026-01-01"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testRecurringCRUD(t *testing.T, s store.Store) {
	ctx := context.Background()

	rent, err := s.CreateRecurringExpense(ctx, model.RecurringExpense{UserID: 1, Name: "Test Rent", Amount: dec("700"), DayOfMonth: 15, Category: "Housing"})
	require.NoError(t, err)
	assert.NotZero(t, rent.ID)
	assert.Equal(t, "Test Rent", rent.Name)

	_, err = s.CreateRecurringExpense(ctx, model.RecurringExpense{UserID: 2, Name: "Other user", Amount: dec("1"), DayOfMonth: 1})
	require.NoError(t, err)

	list, err := s.RecurringExpenses(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Amount.Equal(dec("700")))
	assert.Equal(t, 15, list[0].DayOfMonth)
	assert.Equal(t, "Housing", list[0].Category)

	assert.ErrorIs(t, s.DeleteRecurringExpense(ctx, 2, rent.ID), store.ErrNotFound)
	require.NoError(t, s.DeleteRecurringExpense(ctx, 1, rent.ID))

	list, err = s.RecurringExpenses(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func importBatch(mode store.MergeMode) store.ImportBatch {
	return store.ImportBatch{
		Merge: mode,
		Transactions: []model.ImportedTransaction{
			{Date: date("2026-01-05"), Description: "UBER TRIP 123", Amount: dec("25.50"), Category: "uber", Source: "monzo", BatchID: "b1"},
			{Date: date("2026-01-05"), Description: "TESCO STORES 2031", Amount: dec("-34.12"), Category: "expense", Source: "monzo", BatchID: "b1"},
		},
		Days: []store.DayDelta{
			{Date: date("2026-01-05"), Totals: model.DayTotals{Uber: dec("25.50"), Expenses: dec("34.12")}},
		},
	}
}

func testApplyImportAccumulate(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.UpsertDailyEntry(ctx, model.DailyEntry{
		UserID:    1,
		Date:      date("2026-01-05"),
		DayTotals: model.DayTotals{Uber: dec("10.00"), Other: dec("5.00")},
		Balance:   dec("15.00"),
		Notes:     "manual",
	}))

	require.NoError(t, s.ApplyImport(ctx, 1, importBatch(store.MergeAccumulate)))

	e, err := s.DailyEntry(ctx, 1, date("2026-01-05"))
	require.NoError(t, err)
	assert.Equal(t, "35.50", e.Uber.StringFixed(2))
	assert.Equal(t, "5.00", e.Other.StringFixed(2))
	assert.Equal(t, "34.12", e.Expenses.StringFixed(2))
	assert.Equal(t, "6.38", e.Balance.StringFixed(2))
	assert.Equal(t, "manual", e.Notes)

	txns, err := s.ImportedTransactions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	for _, tx := range txns {
		assert.Equal(t, "b1", tx.BatchID)
		assert.Equal(t, "monzo", tx.Source)
		assert.False(t, tx.Verified)
		assert.NotZero(t, tx.ID)
	}
}

func testApplyImportOverwrite(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.UpsertDailyEntry(ctx, model.DailyEntry{
		UserID:    1,
		Date:      date("2026-01-05"),
		DayTotals: model.DayTotals{Uber: dec("10.00"), Other: dec("5.00")},
		Notes:     "manual",
	}))

	require.NoError(t, s.ApplyImport(ctx, 1, importBatch(store.MergeOverwrite)))

	e, err := s.DailyEntry(ctx, 1, date("2026-01-05"))
	require.NoError(t, err)
	assert.Equal(t, "25.50", e.Uber.StringFixed(2))
	assert.True(t, e.Other.IsZero())
	assert.Equal(t, "-8.62", e.Balance.StringFixed(2))
	assert.Equal(t, "manual", e.Notes)
}

func testTransactionOwnership(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.ApplyImport(ctx, 1, importBatch(store.MergeAccumulate)))
	require.NoError(t, s.ApplyImport(ctx, 2, importBatch(store.MergeAccumulate)))

	mine, err := s.ImportedTransactions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine, 2)

	// Another user cannot delete my rows.
	assert.ErrorIs(t, s.DeleteImportedTransaction(ctx, 2, mine[0].ID), store.ErrNotFound)
	require.NoError(t, s.DeleteImportedTransaction(ctx, 1, mine[0].ID))

	mine, err = s.ImportedTransactions(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	require.NoError(t, s.ClearImportedTransactions(ctx, 1))
	mine, err = s.ImportedTransactions(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, mine)

	theirs, err := s.ImportedTransactions(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, theirs, 2)
}
