package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gigledger/cashflow/internal/model"
)

// DefaultPlannedIncome is the monthly income target when none is configured.
var DefaultPlannedIncome = decimal.NewFromInt(6000)

// Summary is the month overview shown above the ledger.
type Summary struct {
	PlannedIncome   decimal.Decimal `json:"plannedIncome"`
	ActualIncome    decimal.Decimal `json:"actualIncome"`
	PlannedExpenses decimal.Decimal `json:"plannedExpenses"`
	ActualExpenses  decimal.Decimal `json:"actualExpenses"`
	NetPosition     decimal.Decimal `json:"netPosition"`
	Variance        decimal.Decimal `json:"variance"`
}

// OnTarget reports whether actual income reached the plan.
func (s Summary) OnTarget() bool {
	return !s.Variance.IsNegative()
}

// Summarize totals a month of entries against the recurring expenses and
// the income target.
func Summarize(entries []model.DailyEntry, recurring []model.RecurringExpense, plannedIncome decimal.Decimal) Summary {
	s := Summary{PlannedIncome: plannedIncome}
	for _, e := range entries {
		s.ActualIncome = s.ActualIncome.Add(e.TotalIncome())
		s.ActualExpenses = s.ActualExpenses.Add(e.Expenses)
	}
	for _, r := range recurring {
		s.PlannedExpenses = s.PlannedExpenses.Add(r.Amount)
	}
	s.NetPosition = s.ActualIncome.Sub(s.ActualExpenses)
	s.Variance = s.ActualIncome.Sub(plannedIncome)
	return s
}

// DaysIn returns the number of days in the month.
func DaysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ProjectMonth maps each day of the month to the recurring expenses due on
// it. A due day past the end of a short month falls on its last day.
func ProjectMonth(year, month int, recurring []model.RecurringExpense) map[int][]model.RecurringExpense {
	last := DaysIn(year, month)
	out := make(map[int][]model.RecurringExpense)
	for _, r := range recurring {
		day := min(r.DayOfMonth, last)
		out[day] = append(out[day], r)
	}
	return out
}
