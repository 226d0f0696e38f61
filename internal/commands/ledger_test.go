package commands_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerSetAndExport(t *testing.T) {
	dir := initProject(t)

	out, err := runCashflow(t, "--dir", dir, "ledger", "set", "2026-02-03", "--uber", "150.50", "--expenses", "50", "--notes", "Test entry")
	require.NoError(t, err, out)
	assert.Contains(t, out, "100.50")

	out, err = runCashflow(t, "--dir", dir, "ledger", "set", "2026-02-03", "--bolt", "20")
	require.NoError(t, err, out)
	assert.Contains(t, out, "120.50")

	export := filepath.Join(t.TempDir(), "feb.csv")
	out, err = runCashflow(t, "--dir", dir, "ledger", "export", "--month", "2026-02", "-o", export)
	require.NoError(t, err, out)

	data, err := os.ReadFile(export)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Date,Day,Uber,Bolt,FreeNow,Horizon Cars,Other,Total Income,Expenses,Balance,Notes")
	assert.Contains(t, string(data), "2026-02-03,Tue,150.50,20.00,0.00,0.00,0.00,170.50,50.00,120.50,Test entry")
}

func TestLedgerSet_Invalid(t *testing.T) {
	dir := initProject(t)

	_, err := runCashflow(t, "--dir", dir, "ledger", "set", "03/02/2026", "--uber", "1")
	require.Error(t, err)

	_, err = runCashflow(t, "--dir", dir, "ledger", "set", "2026-02-03", "--uber", "lots")
	require.Error(t, err)

	_, err = runCashflow(t, "--dir", dir, "ledger", "set", "2026-02-03", "--expenses", "-4")
	require.Error(t, err)
}

func TestLedgerExport_EmptyMonth(t *testing.T) {
	dir := initProject(t)
	_, err := runCashflow(t, "--dir", dir, "ledger", "export", "--month", "2026-02", "-o", "-")
	require.Error(t, err)
}

func TestLedgerShow_BadMonth(t *testing.T) {
	dir := initProject(t)
	_, err := runCashflow(t, "--dir", dir, "ledger", "show", "--month", "Feb")
	require.Error(t, err)
}

func TestRecurringLifecycle(t *testing.T) {
	dir := initProject(t)

	out, err := runCashflow(t, "--dir", dir, "recurring", "add", "--name", "Rent", "--amount", "1200", "--day", "1")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Added recurring expense 1")

	_, err = runCashflow(t, "--dir", dir, "recurring", "add", "--name", "Bad", "--amount", "10", "--day", "32")
	require.Error(t, err)

	out, err = runCashflow(t, "--dir", dir, "recurring", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Rent")
	assert.Contains(t, out, "Total per month: 1200.00")

	out, err = runCashflow(t, "--dir", dir, "ledger", "show", "--month", "2026-02")
	require.NoError(t, err)
	assert.Contains(t, out, "Planned expenses: 1200.00")

	_, err = runCashflow(t, "--dir", dir, "--user", "2", "recurring", "rm", "1")
	require.Error(t, err)

	out, err = runCashflow(t, "--dir", dir, "recurring", "rm", "1")
	require.NoError(t, err, out)
}

func TestTransactionsClearNeedsConfirmation(t *testing.T) {
	dir := initProject(t)
	src := filepath.Join(t.TempDir(), "monzo.csv")
	copyFixture(t, "monzo.csv", src)
	_, err := runCashflow(t, "--dir", dir, "import", src)
	require.NoError(t, err)

	_, err = runCashflow(t, "--dir", dir, "transactions", "clear")
	require.Error(t, err)

	_, err = runCashflow(t, "--dir", dir, "transactions", "clear", "--yes")
	require.NoError(t, err)

	out, err := runCashflow(t, "--dir", dir, "transactions", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No imported transactions.")
}
