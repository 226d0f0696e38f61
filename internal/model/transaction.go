package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the canonical calendar-date layout used across the ledger.
const DateFormat = "2006-01-02"

// TxnType is the outcome of classifying a bank row.
type TxnType string

const (
	TypeIncome  TxnType = "income"
	TypeExpense TxnType = "expense"
	TypeExclude TxnType = "exclude"
	TypeUnknown TxnType = "unknown"
)

// ParsedTransaction is one bank row after CSV parsing, before classification.
type ParsedTransaction struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal // sign follows the bank's convention
	Category    string          // unset by the parser
	Source      string          // optional origin tag, e.g. "monzo"
}

// Classification is the decision attached to one transaction.
type Classification struct {
	Type       TxnType
	Confidence float64
	Category   string
}

// ClassifiedTransaction is a kept row: sign corrected and category assigned.
type ClassifiedTransaction struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal // positive = income, negative = expense
	Type        TxnType
	Category    string
}

// ImportedTransaction is a row in the persisted transaction log.
type ImportedTransaction struct {
	ID          int64
	UserID      int64
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Category    string
	Source      string
	BatchID     string
	Verified    bool
	CreatedAt   time.Time
}

// DateKey formats t as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.Format(DateFormat)
}
