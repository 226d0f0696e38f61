package classifier

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/gigledger/cashflow/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestClassify(t *testing.T) {
	c := Default()

	tests := []struct {
		name       string
		desc       string
		amount     string
		wantType   model.TxnType
		wantCat    string
		wantConfid float64
	}{
		{"rideshare income", "UBER TRIP 123", "25.50", model.TypeIncome, "rideshare", 0.95},
		{"private hire income", "HORIZON CARS WEEKLY", "310.00", model.TypeIncome, "horizonCars", 0.95},
		{"unmatched income", "ACME LIMITED", "10.00", model.TypeIncome, "other", 0.85},
		{"internal transfer out", "Transfer to Olu Olowogboye", "-50.00", model.TypeExclude, "internal_transfer", 1.0},
		{"internal transfer in", "Transfer from savings", "50.00", model.TypeExclude, "internal_transfer", 1.0},
		{"groceries", "TESCO STORES 2031", "-34.12", model.TypeExpense, "groceries", 0.95},
		{"car expenses", "KWIK FIT LEEDS", "-80.00", model.TypeExpense, "carExpenses", 0.95},
		{"indicator only", "ACME LTD", "-10.00", model.TypeExpense, "generic", 0.85},
		{"unmatched expense", "ZXQ", "-5.00", model.TypeExpense, "other", 0.85},
		{"zero amount income keyword", "bolt.eu payout", "0", model.TypeIncome, "rideshare", 0.7},
		{"zero amount expense keyword", "NETFLIX.COM", "0", model.TypeExpense, "subscriptions", 0.7},
		{"zero amount no keyword", "Monzo-to-Monzo", "0.00", model.TypeExpense, "unknown", 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.desc, dec(tt.amount))
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantCat, got.Category)
			assert.InDelta(t, tt.wantConfid, got.Confidence, 0.0001)
		})
	}
}

func TestClassify_ExclusionIgnoresSign(t *testing.T) {
	c := Default()
	for _, amt := range []string{"-12.00", "0", "12.00"} {
		got := c.Classify("Monzo Pot withdrawal", dec(amt))
		assert.Equal(t, model.TypeExclude, got.Type, "amount %s", amt)
	}
}

func TestClassify_MarkersMatchAnywhere(t *testing.T) {
	// "pot" is a marker, so any description containing it is excluded.
	got := Default().Classify("SPOTIFY P1234", dec("-9.99"))
	assert.Equal(t, model.TypeExclude, got.Type)
}

func TestClassify_GroupOrderWins(t *testing.T) {
	// "uber eats" is a restaurant keyword, but rideshare is checked first for
	// positive amounts and fuel/parking/... precede restaurants for negatives.
	c := Default()
	assert.Equal(t, "rideshare", c.Classify("UBER EATS REFUND", dec("8.00")).Category)
	assert.Equal(t, "restaurants", c.Classify("UBER EATS", dec("-8.00")).Category)
}

func TestClassify_Deterministic(t *testing.T) {
	c := Default()
	inputs := []struct {
		desc   string
		amount string
	}{
		{"UBER TRIP 123", "25.50"},
		{"TESCO STORES 2031", "-34.12"},
		{"Monzo-to-Monzo", "0"},
		{"", "1"},
	}
	for _, in := range inputs {
		first := c.Classify(in.desc, dec(in.amount))
		for range 5 {
			assert.Equal(t, first, c.Classify(in.desc, dec(in.amount)))
		}
	}
}

func TestClassifyText(t *testing.T) {
	got := Default().ClassifyText("FREENOW payout")
	assert.Equal(t, model.TypeIncome, got.Type)
	assert.InDelta(t, 0.7, got.Confidence, 0.0001)
}

func TestFixAmount(t *testing.T) {
	income := model.Classification{Type: model.TypeIncome}
	expense := model.Classification{Type: model.TypeExpense}
	exclude := model.Classification{Type: model.TypeExclude}

	assert.Equal(t, "-12.50", FixAmount(dec("12.50"), expense).StringFixed(2))
	assert.Equal(t, "-12.50", FixAmount(dec("-12.50"), expense).StringFixed(2))
	assert.Equal(t, "12.50", FixAmount(dec("-12.50"), income).StringFixed(2))
	assert.Equal(t, "12.50", FixAmount(dec("12.50"), income).StringFixed(2))
	assert.Equal(t, "-3.00", FixAmount(dec("-3"), exclude).StringFixed(2))
	assert.True(t, FixAmount(decimal.Zero, expense).IsZero())
}

func TestFixAmount_SignAgreesWithType(t *testing.T) {
	c := Default()
	descs := []string{"UBER TRIP", "TESCO", "ACME LTD", "random", "NETFLIX"}
	for _, d := range descs {
		for _, amt := range []string{"7.25", "-7.25"} {
			a := dec(amt)
			cls := c.Classify(d, a)
			fixed := FixAmount(a, cls)
			if a.IsPositive() {
				assert.False(t, fixed.IsNegative(), "%s %s", d, amt)
			} else {
				assert.False(t, fixed.IsPositive(), "%s %s", d, amt)
			}
		}
	}
}

func TestCategorizeIncome(t *testing.T) {
	c := Default()
	tests := map[string]string{
		"UBER BV PAYOUT":       "uber",
		"Bolt.eu/O/2401":       "bolt",
		"FREE NOW MOBILITY":    "freenow",
		"freenow payout":       "freenow",
		"Horizon Cars Ltd":     "horizoncars",
		"BURAQQ MINICABS":      "horizoncars",
		"CITYWIDE CARS":        "other",
		"Salary ACME":          "other",
		"UBER BOLT settlement": "uber",
	}
	for desc, want := range tests {
		assert.Equal(t, want, c.CategorizeIncome(desc), desc)
	}
}

func TestNew_CaseInsensitiveKeywords(t *testing.T) {
	c := New(Rules{
		Income: []Group{{Name: "tips", Keywords: []string{"TIP"}}},
	})
	got := c.Classify("tip jar", dec("5"))
	assert.Equal(t, "tips", got.Category)
	assert.Equal(t, model.TypeIncome, got.Type)
}
