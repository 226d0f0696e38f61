package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigledger/cashflow/internal/model"
)

func parseTestdata(t *testing.T, p Parser, name string) Result {
	t.Helper()
	res, err := ParseFile(p, filepath.Join("..", "..", "testdata", name))
	require.NoError(t, err)
	return res
}

func TestGenericParser_Monzo(t *testing.T) {
	res := parseTestdata(t, &GenericParser{}, "monzo.csv")
	txns := res.Transactions
	require.Len(t, txns, 7)

	// Name precedes Description in Monzo's header, so Name wins.
	assert.Equal(t, "TESCO STORES 2031", txns[0].Description)
	assert.Equal(t, "-34.12", txns[0].Amount.StringFixed(2))
	assert.Equal(t, "2026-01-05", model.DateKey(txns[0].Date))

	assert.Equal(t, "UBER TRIP 123", txns[1].Description)
	assert.Equal(t, "25.50", txns[1].Amount.StringFixed(2))

	assert.Equal(t, "Monzo-to-Monzo", txns[3].Description)
	assert.True(t, txns[3].Amount.IsZero())

	assert.Equal(t, "Bolt Operations, OU", txns[4].Description)
	assert.Equal(t, "2026-01-07", model.DateKey(txns[4].Date))

	for _, txn := range txns {
		assert.Empty(t, txn.Category, "parser never assigns a category")
	}

	assert.Equal(t, 8, res.Report.Lines)
	assert.Equal(t, 7, res.Report.Parsed)
	assert.Equal(t, 1, res.Report.Skipped[SkipBadDate])
	require.Len(t, res.Report.Samples, 1)
	assert.Equal(t, 6, res.Report.Samples[0].Line)
}

func TestGenericParser_SingleAmountColumn(t *testing.T) {
	res := parseTestdata(t, &GenericParser{}, "barclays.csv")
	txns := res.Transactions
	require.Len(t, txns, 3)

	assert.Equal(t, "NETFLIX.COM", txns[0].Description)
	assert.Equal(t, "-12.99", txns[0].Amount.StringFixed(2))
	assert.Equal(t, "1250.00", txns[2].Amount.StringFixed(2))
	assert.Equal(t, "2026-02-14", model.DateKey(txns[2].Date))

	assert.Equal(t, 1, res.Report.Skipped[SkipBadAmount])
	assert.Equal(t, 1, res.Report.TotalSkipped())
}

func TestGenericParser_TextDatesAndCurrency(t *testing.T) {
	res := parseTestdata(t, &GenericParser{}, "hsbc.csv")
	txns := res.Transactions
	require.Len(t, txns, 3)

	assert.Equal(t, "2026-01-05", model.DateKey(txns[0].Date))
	assert.Equal(t, "80.00", txns[0].Amount.StringFixed(2))
	assert.Equal(t, "-3.40", txns[1].Amount.StringFixed(2))
	assert.Equal(t, "2026-01-07", model.DateKey(txns[2].Date))
	assert.Equal(t, 1, res.Report.Skipped[SkipBadDate])
}

func TestGenericParser_MoneyInOut(t *testing.T) {
	csv := "Date,Name,Money In,Money Out\n" +
		"01/03/2026,Wage,100.00,0\n" +
		"02/03/2026,Fuel,0,-45.00\n"
	res, err := (&GenericParser{}).Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, res.Transactions, 2)
	assert.Equal(t, "100.00", res.Transactions[0].Amount.StringFixed(2))
	assert.Equal(t, "-45.00", res.Transactions[1].Amount.StringFixed(2))
}

func TestGenericParser_TooFewLines(t *testing.T) {
	for _, in := range []string{"", "Date,Description,Amount\n", "\n\nDate,Amount\n\n"} {
		res, err := (&GenericParser{}).Parse(strings.NewReader(in))
		require.NoError(t, err)
		assert.Empty(t, res.Transactions)
		assert.Zero(t, res.Report.TotalSkipped())
	}
}

func TestGenericParser_NoDateColumn(t *testing.T) {
	csv := "Description,Amount\nUBER,10.00\nBOLT,5.00\n"
	res, err := (&GenericParser{}).Parse(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Empty(t, res.Transactions)
	assert.Equal(t, 2, res.Report.Skipped[SkipNoDateColumn])
}

func TestGenericParser_NoDescriptionColumn(t *testing.T) {
	csv := "Date,Amount\n2026-01-02,10.00\n"
	res, err := (&GenericParser{}).Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, res.Transactions, 1)
	assert.Equal(t, "", res.Transactions[0].Description)
}

func TestGenericParser_ShortRow(t *testing.T) {
	csv := "Description,Amount,Date\nUBER,10.00\n"
	res, err := (&GenericParser{}).Parse(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Empty(t, res.Transactions)
	assert.Equal(t, 1, res.Report.Skipped[SkipShortRow])
}

func TestGenericParser_SampleCap(t *testing.T) {
	var b strings.Builder
	b.WriteString("Date,Description,Amount\n")
	for range maxSamples + 5 {
		b.WriteString("nope,X,1.00\n")
	}
	res, err := (&GenericParser{}).Parse(strings.NewReader(b.String()))
	require.NoError(t, err)
	assert.Equal(t, maxSamples+5, res.Report.Skipped[SkipBadDate])
	assert.Len(t, res.Report.Samples, maxSamples)
}

func TestMonzoParser_RequiresSplitColumns(t *testing.T) {
	p := NewMonzoParser()
	assert.Equal(t, "monzo", p.Format())

	_, err := p.Parse(strings.NewReader("Date,Description,Amount\n2026-01-01,X,1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "money in/money out")

	res := parseTestdata(t, p, "monzo.csv")
	assert.Len(t, res.Transactions, 7)
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Get("nonexistent"))
}

func TestRegistry_CaseInsensitive(t *testing.T) {
	r := NewRegistry()
	r.Register(&GenericParser{})
	assert.NotNil(t, r.Get("Generic"))
	assert.NotNil(t, r.Get("GENERIC"))
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(&GenericParser{})
	assert.Panics(t, func() { r.Register(&GenericParser{}) })
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.NotNil(t, r.Get("generic"))
	assert.NotNil(t, r.Get("monzo"))
	assert.ElementsMatch(t, []string{"generic", "monzo"}, r.Formats())
}

func TestParseFile_Missing(t *testing.T) {
	_, err := ParseFile(&GenericParser{}, filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestScan_FindsCSVs(t *testing.T) {
	dir := t.TempDir()
	importDir := filepath.Join(dir, "import")
	require.NoError(t, os.MkdirAll(importDir, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(importDir, "bank.csv"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(importDir, "other.txt"), []byte("data"), 0o644))

	files, err := Scan(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.Equal(t, "bank.csv", files[0].Name)
}

func TestScan_IgnoresProcessedDir(t *testing.T) {
	dir := t.TempDir()
	processedDir := filepath.Join(InboxDir(dir), "processed")
	require.NoError(t, os.MkdirAll(processedDir, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(InboxDir(dir), "new.csv"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(processedDir, "old.csv"), []byte("data"), 0o644))

	files, err := Scan(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.Equal(t, "new.csv", files[0].Name)
}

func TestScan_EmptyDir(t *testing.T) {
	files, err := Scan(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, files)
}

func TestMarkProcessed(t *testing.T) {
	dir := t.TempDir()
	importDir := filepath.Join(dir, "import")
	require.NoError(t, os.MkdirAll(importDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(importDir, "bank.csv"), []byte("data"), 0o644))

	require.NoError(t, MarkProcessed(dir, "bank.csv"))

	_, err := os.Stat(filepath.Join(importDir, "bank.csv"))
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(filepath.Join(dir, "import", "processed", "bank.csv"))
	assert.NoError(t, err)
}
