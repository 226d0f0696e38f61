package ledger

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gigledger/cashflow/internal/model"
)

// ErrInvalidBatch is returned when kept rows break a ledger invariant.
var ErrInvalidBatch = errors.New("invalid import batch")

// Rule names reported by ValidationError.
const (
	RuleType     = "type"
	RuleNonZero  = "non_zero"
	RuleSign     = "sign"
	RuleCategory = "category"
)

// ValidationError describes a single invariant violation.
type ValidationError struct {
	Rule        string
	Row         int // zero-based index into the validated slice
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s [row %d]: %s", e.Rule, e.Row, e.Description)
}

// ValidateClassified checks that every kept row can be written to the log.
func ValidateClassified(rows []model.ClassifiedTransaction) []ValidationError {
	var errs []ValidationError
	add := func(rule string, i int, format string, args ...any) {
		errs = append(errs, ValidationError{Rule: rule, Row: i, Description: fmt.Sprintf(format, args...)})
	}

	for i, r := range rows {
		if r.Type != model.TypeIncome && r.Type != model.TypeExpense {
			add(RuleType, i, "type %q is not income or expense", r.Type)
			continue
		}

		if r.Amount.IsZero() {
			add(RuleNonZero, i, "amount is zero")
		}

		if r.Type == model.TypeIncome && r.Amount.IsNegative() {
			add(RuleSign, i, "income amount %s is negative", r.Amount)
		}
		if r.Type == model.TypeExpense && r.Amount.IsPositive() {
			add(RuleSign, i, "expense amount %s is positive", r.Amount)
		}

		switch r.Type {
		case model.TypeIncome:
			if !slices.Contains(model.IncomeBuckets, r.Category) {
				add(RuleCategory, i, "unknown income category %q", r.Category)
			}
		case model.TypeExpense:
			if r.Category != model.CategoryExpense {
				add(RuleCategory, i, "expense category %q, want %q", r.Category, model.CategoryExpense)
			}
		}
	}
	return errs
}

// joinValidation folds validation errors into one error wrapping ErrInvalidBatch.
func joinValidation(verrs []ValidationError) error {
	errs := make([]error, len(verrs))
	for i, v := range verrs {
		errs[i] = v
	}
	return fmt.Errorf("%w: %w", ErrInvalidBatch, errors.Join(errs...))
}
