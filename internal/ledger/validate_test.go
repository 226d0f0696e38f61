package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigledger/cashflow/internal/model"
)

func validRows() []model.ClassifiedTransaction {
	return []model.ClassifiedTransaction{
		{Date: day("2026-01-05"), Description: "UBER", Amount: dec("25.50"), Type: model.TypeIncome, Category: model.BucketUber},
		{Date: day("2026-01-05"), Description: "TESCO", Amount: dec("-34.12"), Type: model.TypeExpense, Category: model.CategoryExpense},
	}
}

func TestValidateClassified_Valid(t *testing.T) {
	assert.Empty(t, ValidateClassified(validRows()))
}

func TestValidateClassified_Violations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *model.ClassifiedTransaction)
		rule   string
	}{
		{"excluded type", func(r *model.ClassifiedTransaction) { r.Type = model.TypeExclude }, RuleType},
		{"zero amount", func(r *model.ClassifiedTransaction) { r.Amount = dec("0") }, RuleNonZero},
		{"negative income", func(r *model.ClassifiedTransaction) { r.Amount = dec("-1") }, RuleSign},
		{"unknown bucket", func(r *model.ClassifiedTransaction) { r.Category = "rideshare" }, RuleCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := validRows()
			tt.mutate(&rows[0])
			errs := ValidateClassified(rows)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.rule, errs[0].Rule)
			assert.Equal(t, 0, errs[0].Row)
		})
	}
}

func TestValidateClassified_ExpenseRules(t *testing.T) {
	rows := validRows()
	rows[1].Amount = dec("34.12")
	rows[1].Category = "groceries"

	errs := ValidateClassified(rows)
	require.Len(t, errs, 2)
	assert.Equal(t, RuleSign, errs[0].Rule)
	assert.Equal(t, RuleCategory, errs[1].Rule)
	assert.Equal(t, 1, errs[1].Row)
}

func TestValidationError_Error(t *testing.T) {
	e := ValidationError{Rule: RuleSign, Row: 3, Description: "bad"}
	assert.Equal(t, "sign [row 3]: bad", e.Error())
}
