package commands_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigledger/cashflow/internal/auditlog"
)

func initProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := runCashflow(t, "init", dir)
	require.NoError(t, err)
	return dir
}

func copyFixture(t *testing.T, name, dst string) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", name))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dst, data, 0o644))
}

func TestImport_FileThenShow(t *testing.T) {
	dir := initProject(t)
	src := filepath.Join(t.TempDir(), "monzo.csv")
	copyFixture(t, "monzo.csv", src)

	out, err := runCashflow(t, "--dir", dir, "import", src, "--format", "monzo")
	require.NoError(t, err, out)
	assert.Contains(t, out, "monzo.csv: 8 rows, 7 parsed, 1 skipped")
	assert.Contains(t, out, "skipped bad_date: 1")
	assert.Contains(t, out, "accepted 5, dates 2, excluded 1, zero 1")

	out, err = runCashflow(t, "--dir", dir, "ledger", "show", "--month", "2026-01")
	require.NoError(t, err, out)
	assert.Contains(t, out, "2026-01-05")
	assert.Contains(t, out, "2026-01-07")
	assert.Contains(t, out, "Actual income:    185.50")
	assert.Contains(t, out, "Actual expenses:  79.12")

	out, err = runCashflow(t, "--dir", dir, "transactions", "list")
	require.NoError(t, err, out)
	assert.Contains(t, out, "UBER TRIP 123")
	assert.NotContains(t, out, "Olowogboye")

	entries, err := auditlog.New(filepath.Join(dir, "logs", "import-audit.csv")).Read()
	require.NoError(t, err)
	assert.Len(t, entries, 7)
}

func TestImport_DryRunWritesNothing(t *testing.T) {
	dir := initProject(t)
	src := filepath.Join(t.TempDir(), "barclays.csv")
	copyFixture(t, "barclays.csv", src)

	out, err := runCashflow(t, "--dir", dir, "import", src, "--dry-run")
	require.NoError(t, err, out)
	assert.Contains(t, out, "dry run: nothing written")

	out, err = runCashflow(t, "--dir", dir, "transactions", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No imported transactions.")
}

func TestImport_InboxMovesProcessed(t *testing.T) {
	dir := initProject(t)
	copyFixture(t, "hsbc.csv", filepath.Join(dir, "import", "hsbc.csv"))

	out, err := runCashflow(t, "--dir", dir, "import")
	require.NoError(t, err, out)
	assert.Contains(t, out, "hsbc.csv:")

	_, err = os.Stat(filepath.Join(dir, "import", "processed", "hsbc.csv"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "import", "hsbc.csv"))
	assert.True(t, os.IsNotExist(err))

	out, err = runCashflow(t, "--dir", dir, "import")
	require.NoError(t, err)
	assert.Contains(t, out, "No CSV files")
}

func TestImport_MonzoFormatRejectsOtherBanks(t *testing.T) {
	dir := initProject(t)
	src := filepath.Join(t.TempDir(), "hsbc.csv")
	copyFixture(t, "hsbc.csv", src)

	_, err := runCashflow(t, "--dir", dir, "import", src, "--format", "monzo")
	require.Error(t, err)
}

func TestImport_UnknownFormat(t *testing.T) {
	dir := initProject(t)
	_, err := runCashflow(t, "--dir", dir, "import", "--format", "chase")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generic, monzo")
}

func TestImport_RequiresProject(t *testing.T) {
	_, err := runCashflow(t, "--dir", t.TempDir(), "import")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cashflow init")
}
