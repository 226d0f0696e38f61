package importer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// textDate matches "5 Jan 2024" and "05 January 2024".
var textDate = regexp.MustCompile(`^\d{1,2}\s+[A-Za-z]{3,9}\s+\d{4}$`)

var textLayouts = []string{"2 Jan 2006", "2 January 2006"}

// fallbackLayouts are tried in order when neither the slash nor the text
// form applies.
var fallbackLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02-Jan-2006",
	"2-Jan-06",
	"02.01.2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006/01/02",
}

// parseDate parses a bank date and returns it at UTC midnight.
// Slash dates are day-first (DD/MM/YYYY), as UK banks export them.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if strings.Contains(s, "/") {
		if t, ok := parseSlashDate(s); ok {
			return t, nil
		}
	}

	if textDate.MatchString(s) {
		for _, layout := range textLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return midnight(t), nil
			}
		}
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return midnight(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// parseSlashDate reads D/M/YYYY or D/M/YY, ignoring a trailing time.
func parseSlashDate(s string) (time.Time, bool) {
	if i := strings.IndexAny(s, " T"); i > 0 {
		s = s[:i]
	}
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	day, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if len(parts[2]) == 2 {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (31/02 -> 03/03); reject it instead.
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// parseAmount converts a bank amount like "-£1,234.56" or "(12.00)" to a
// decimal. An empty cell is zero.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	for _, sym := range []string{"£", "$", "€", ",", " ", "\u00a0"} {
		s = strings.ReplaceAll(s, sym, "")
	}
	if s == "" {
		return decimal.Zero, nil
	}

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	if strings.HasSuffix(s, "-") {
		neg = !neg
		s = strings.TrimSuffix(s, "-")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}
