package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigledger/cashflow/internal/model"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"05/01/2026", "2026-01-05"},
		{"5/1/2026", "2026-01-05"},
		{"5/1/26", "2026-01-05"},
		{"31/12/2025 23:59", "2025-12-31"},
		{"5 Jan 2026", "2026-01-05"},
		{"05 January 2026", "2026-01-05"},
		{"2026-01-05", "2026-01-05"},
		{"2026-01-05T22:30:00Z", "2026-01-05"},
		{"05-Jan-2026", "2026-01-05"},
		{"05.01.2026", "2026-01-05"},
		{"Jan 5, 2026", "2026-01-05"},
	}
	for _, tt := range tests {
		got, err := parseDate(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, model.DateKey(got), tt.in)
		assert.Zero(t, got.Hour(), tt.in)
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, in := range []string{"", "someday", "31/02/2026", "32/13/2026", "1/2", "aa/bb/cccc"} {
		_, err := parseDate(in)
		assert.Error(t, err, in)
	}
}

func TestParseAmount(t *testing.T) {
	tests := map[string]string{
		"12.50":     "12.50",
		"-12.50":    "-12.50",
		"£1,234.56": "1234.56",
		"-£3.40":    "-3.40",
		"(12.00)":   "-12.00",
		"12.00-":    "-12.00",
		"":          "0.00",
		" 7 ":       "7.00",
	}
	for in, want := range tests {
		got, err := parseAmount(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got.StringFixed(2), in)
	}

	_, err := parseAmount("abc")
	assert.Error(t, err)
}
