package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Income bucket keys of the daily ledger.
const (
	BucketUber        = "uber"
	BucketBolt        = "bolt"
	BucketFreeNow     = "freenow"
	BucketHorizonCars = "horizoncars"
	BucketOther       = "other"
	BucketExpenses    = "expenses"

	// CategoryExpense is the log category of every kept expense row.
	CategoryExpense = "expense"
)

// IncomeBuckets lists the income buckets in ledger column order.
var IncomeBuckets = []string{BucketUber, BucketBolt, BucketFreeNow, BucketHorizonCars, BucketOther}

// DayTotals holds bucket sums for one date.
type DayTotals struct {
	Uber        decimal.Decimal
	Bolt        decimal.Decimal
	FreeNow     decimal.Decimal
	HorizonCars decimal.Decimal
	Other       decimal.Decimal
	Expenses    decimal.Decimal
}

// Income returns the sum of all income buckets.
func (d DayTotals) Income() decimal.Decimal {
	return d.Uber.Add(d.Bolt).Add(d.FreeNow).Add(d.HorizonCars).Add(d.Other)
}

// Net returns income minus expenses.
func (d DayTotals) Net() decimal.Decimal {
	return d.Income().Sub(d.Expenses)
}

// Add returns the bucket-wise sum of d and o.
func (d DayTotals) Add(o DayTotals) DayTotals {
	return DayTotals{
		Uber:        d.Uber.Add(o.Uber),
		Bolt:        d.Bolt.Add(o.Bolt),
		FreeNow:     d.FreeNow.Add(o.FreeNow),
		HorizonCars: d.HorizonCars.Add(o.HorizonCars),
		Other:       d.Other.Add(o.Other),
		Expenses:    d.Expenses.Add(o.Expenses),
	}
}

// DailyEntry is one row of the daily ledger.
type DailyEntry struct {
	ID     int64
	UserID int64
	Date   time.Time
	DayTotals
	Balance   decimal.Decimal
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TotalIncome returns the sum of the entry's income buckets.
func (e DailyEntry) TotalIncome() decimal.Decimal {
	return e.DayTotals.Income()
}

// RecurringExpense is a monthly expense due on a fixed day.
type RecurringExpense struct {
	ID         int64
	UserID     int64
	Name       string
	Amount     decimal.Decimal
	DayOfMonth int // 1-31
	Category   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
