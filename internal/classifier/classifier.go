// Package classifier decides whether a bank row is income, an expense or an
// internal transfer, using ordered keyword tables.
package classifier

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gigledger/cashflow/internal/model"
)

// Confidence levels assigned by Classify.
const (
	ConfidenceExclude  = 1.0
	ConfidenceKeyword  = 0.95
	ConfidenceSignOnly = 0.85
	ConfidenceTextOnly = 0.7
	ConfidenceCatchAll = 0.3
)

// Fixed categories that do not come from a keyword group.
const (
	CategoryInternal = "internal_transfer"
	CategoryOther    = "other"
	CategoryGeneric  = "generic"
	CategoryUnknown  = "unknown"
)

// Classifier applies a fixed set of Rules. It holds no mutable state and is
// safe for concurrent use.
type Classifier struct {
	rules Rules
}

// New returns a Classifier for rules. Keywords are matched case-insensitively.
func New(rules Rules) *Classifier {
	return &Classifier{rules: rules.normalized()}
}

// Default returns a Classifier using DefaultRules.
func Default() *Classifier {
	return New(DefaultRules())
}

// Classify decides the type and category of a transaction. Exclusion markers
// win over everything; otherwise the amount sign picks income or expense and
// keywords only refine the category. A zero amount falls back to keywords.
func (c *Classifier) Classify(description string, amount decimal.Decimal) model.Classification {
	desc := strings.ToLower(strings.TrimSpace(description))

	if containsAny(desc, c.rules.Exclude) {
		return model.Classification{Type: model.TypeExclude, Confidence: ConfidenceExclude, Category: CategoryInternal}
	}

	switch amount.Sign() {
	case 1:
		if g, ok := firstGroup(desc, c.rules.Income); ok {
			return model.Classification{Type: model.TypeIncome, Confidence: ConfidenceKeyword, Category: g}
		}
		return model.Classification{Type: model.TypeIncome, Confidence: ConfidenceSignOnly, Category: CategoryOther}
	case -1:
		if g, ok := firstGroup(desc, c.rules.Expense); ok {
			return model.Classification{Type: model.TypeExpense, Confidence: ConfidenceKeyword, Category: g}
		}
		if containsAny(desc, c.rules.ExpenseIndicators) {
			return model.Classification{Type: model.TypeExpense, Confidence: ConfidenceSignOnly, Category: CategoryGeneric}
		}
		return model.Classification{Type: model.TypeExpense, Confidence: ConfidenceSignOnly, Category: CategoryOther}
	}

	return c.classifyText(desc)
}

// ClassifyText classifies a row whose amount is unknown.
func (c *Classifier) ClassifyText(description string) model.Classification {
	return c.Classify(description, decimal.Zero)
}

func (c *Classifier) classifyText(desc string) model.Classification {
	if g, ok := firstGroup(desc, c.rules.Income); ok {
		return model.Classification{Type: model.TypeIncome, Confidence: ConfidenceTextOnly, Category: g}
	}
	if g, ok := firstGroup(desc, c.rules.Expense); ok {
		return model.Classification{Type: model.TypeExpense, Confidence: ConfidenceTextOnly, Category: g}
	}
	return model.Classification{Type: model.TypeExpense, Confidence: ConfidenceCatchAll, Category: CategoryUnknown}
}

// CategorizeIncome maps an income description to a ledger income bucket.
func (c *Classifier) CategorizeIncome(description string) string {
	desc := strings.ToLower(description)
	if g, ok := firstGroup(desc, c.rules.IncomeBrands); ok {
		return g
	}
	return model.BucketOther
}

// FixAmount makes the sign of amount agree with the classified type:
// expenses are negative, income is positive. Other types pass through.
func FixAmount(amount decimal.Decimal, cls model.Classification) decimal.Decimal {
	switch {
	case cls.Type == model.TypeExpense && amount.IsPositive():
		return amount.Neg()
	case cls.Type == model.TypeIncome && amount.IsNegative():
		return amount.Abs()
	}
	return amount
}

func firstGroup(desc string, groups []Group) (string, bool) {
	for _, g := range groups {
		if containsAny(desc, g.Keywords) {
			return g.Name, true
		}
	}
	return "", false
}

func containsAny(desc string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(desc, kw) {
			return true
		}
	}
	return false
}
