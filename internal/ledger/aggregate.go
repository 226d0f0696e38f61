// Package ledger turns classified bank rows into daily ledger updates and
// owns the month-level views of the ledger.
package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/gigledger/cashflow/internal/auditlog"
	"github.com/gigledger/cashflow/internal/classifier"
	"github.com/gigledger/cashflow/internal/model"
	"github.com/gigledger/cashflow/internal/store"
)

// Stats summarises one import batch.
type Stats struct {
	Accepted      int `json:"acceptedCount"`
	DatesAffected int `json:"datesAffected"`
	Excluded      int `json:"excludedCount"`
	SkippedZero   int `json:"skippedZeroCount"`
}

// Decision records what happened to one input row.
type Decision struct {
	Transaction    model.ParsedTransaction
	Classification model.Classification
	Amount         decimal.Decimal // rounded to pennies, after sign correction
	Category       string          // final log category, empty unless kept
	Outcome        auditlog.Outcome
}

// Batch is the pure result of aggregating one import.
type Batch struct {
	Decisions []Decision
	Kept      []model.ClassifiedTransaction
	Days      []store.DayDelta // ascending by date
	Stats     Stats
}

// Aggregate classifies txns in input order and folds the kept rows into
// per-date bucket totals. It has no side effects.
func Aggregate(c *classifier.Classifier, txns []model.ParsedTransaction) Batch {
	var b Batch
	days := make(map[string]*store.DayDelta)

	for _, t := range txns {
		cls := c.Classify(t.Description, t.Amount)
		d := Decision{Transaction: t, Classification: cls, Amount: t.Amount}

		if cls.Type == model.TypeExclude {
			d.Outcome = auditlog.OutcomeExcluded
			b.Stats.Excluded++
			b.Decisions = append(b.Decisions, d)
			continue
		}

		// Ledger columns hold pennies; sub-penny bank amounts round half away from zero.
		d.Amount = classifier.FixAmount(t.Amount.Round(2), cls)
		if d.Amount.IsZero() {
			d.Outcome = auditlog.OutcomeZero
			b.Stats.SkippedZero++
			b.Decisions = append(b.Decisions, d)
			continue
		}

		kept := model.ClassifiedTransaction{
			Date:        t.Date,
			Description: t.Description,
			Amount:      d.Amount,
			Type:        cls.Type,
		}
		if cls.Type == model.TypeIncome {
			kept.Category = c.CategorizeIncome(t.Description)
		} else {
			kept.Category = model.CategoryExpense
		}
		d.Category = kept.Category
		d.Outcome = auditlog.OutcomeKept

		key := model.DateKey(t.Date)
		day := days[key]
		if day == nil {
			day = &store.DayDelta{Date: t.Date}
			days[key] = day
		}
		addToBucket(&day.Totals, kept)

		b.Kept = append(b.Kept, kept)
		b.Decisions = append(b.Decisions, d)
	}

	for _, d := range days {
		b.Days = append(b.Days, *d)
	}
	sort.Slice(b.Days, func(i, j int) bool { return b.Days[i].Date.Before(b.Days[j].Date) })

	b.Stats.Accepted = len(b.Kept)
	b.Stats.DatesAffected = len(b.Days)
	return b
}

func addToBucket(day *model.DayTotals, t model.ClassifiedTransaction) {
	if t.Type == model.TypeExpense {
		day.Expenses = day.Expenses.Add(t.Amount.Abs())
		return
	}
	switch t.Category {
	case model.BucketUber:
		day.Uber = day.Uber.Add(t.Amount)
	case model.BucketBolt:
		day.Bolt = day.Bolt.Add(t.Amount)
	case model.BucketFreeNow:
		day.FreeNow = day.FreeNow.Add(t.Amount)
	case model.BucketHorizonCars:
		day.HorizonCars = day.HorizonCars.Add(t.Amount)
	default:
		if t.Amount.IsPositive() {
			day.Other = day.Other.Add(t.Amount)
		}
	}
}
