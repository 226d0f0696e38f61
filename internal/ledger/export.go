package ledger

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/gigledger/cashflow/internal/model"
)

// ExportHeader is the header row of a month export.
var ExportHeader = []string{"Date", "Day", "Uber", "Bolt", "FreeNow", "Horizon Cars", "Other", "Total Income", "Expenses", "Balance", "Notes"}

// ExportFilename names the export file for a month.
func ExportFilename(year, month int) string {
	return fmt.Sprintf("cashflow-%04d-%02d.csv", year, month)
}

// MarshalEntry converts a daily entry to an export row.
func MarshalEntry(e model.DailyEntry) []string {
	return []string{
		model.DateKey(e.Date),
		e.Date.Format("Mon"),
		e.Uber.StringFixed(2),
		e.Bolt.StringFixed(2),
		e.FreeNow.StringFixed(2),
		e.HorizonCars.StringFixed(2),
		e.Other.StringFixed(2),
		e.TotalIncome().StringFixed(2),
		e.Expenses.StringFixed(2),
		e.Balance.StringFixed(2),
		e.Notes,
	}
}

// WriteCSV writes entries to w, header first.
func WriteCSV(w io.Writer, entries []model.DailyEntry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(ExportHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
