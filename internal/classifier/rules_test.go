package classifier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRules_Order(t *testing.T) {
	r := DefaultRules()
	require.NoError(t, r.Validate())

	var income []string
	for _, g := range r.Income {
		income = append(income, g.Name)
	}
	assert.Equal(t, []string{"rideshare", "horizonCars", "salary", "refunds", "transfers"}, income)

	var expense []string
	for _, g := range r.Expense {
		expense = append(expense, g.Name)
	}
	assert.Equal(t, []string{
		"fuel", "parking", "transport", "carExpenses", "groceries", "restaurants",
		"bills", "subscriptions", "shopping", "personal", "generic",
	}, expense)
}

func TestParseRules_Overlay(t *testing.T) {
	data := []byte(`
exclude:
  - "jane doe"
income:
  - name: delivery
    keywords: [just eat courier, stuart]
`)
	r, err := ParseRules(data)
	require.NoError(t, err)

	assert.Equal(t, []string{"jane doe"}, r.Exclude)
	require.Len(t, r.Income, 1)
	assert.Equal(t, "delivery", r.Income[0].Name)
	// Untouched sections keep their defaults.
	assert.Equal(t, DefaultRules().Expense, r.Expense)
	assert.Equal(t, DefaultRules().IncomeBrands, r.IncomeBrands)

	c := New(r)
	assert.Equal(t, "delivery", c.Classify("STUART DELIVERY", dec("12")).Category)
}

func TestParseRules_Invalid(t *testing.T) {
	data := []byte(`
expense:
  - name: fuel
    keywords: [shell]
  - name: fuel
    keywords: [bp]
  - name: ""
    keywords: [x]
`)
	_, err := ParseRules(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate group "fuel"`)
	assert.Contains(t, err.Error(), "empty group name")
}

func TestParseRules_BadYAML(t *testing.T) {
	_, err := ParseRules([]byte("income: [:"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing rules")
}

func TestSaveLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, SaveRules(path, DefaultRules()))

	got, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultRules(), got)
}

func TestLoadRules_NotFound(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
