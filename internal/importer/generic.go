package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gigledger/cashflow/internal/model"
)

// columns holds header indices; -1 means absent.
type columns struct {
	date     int
	desc     int
	amount   int
	moneyIn  int
	moneyOut int
}

func (c columns) hasSplit() bool {
	return c.moneyIn >= 0 && c.moneyOut >= 0
}

// findColumns matches headers case-insensitively by substring. For each
// field the first matching header wins.
func findColumns(header []string) columns {
	find := func(needles ...string) int {
		for i, h := range header {
			h = strings.ToLower(strings.TrimSpace(h))
			for _, n := range needles {
				if strings.Contains(h, n) {
					return i
				}
			}
		}
		return -1
	}
	return columns{
		date:     find("date"),
		desc:     find("description", "name", "memo"),
		amount:   find("amount", "value"),
		moneyIn:  find("money in"),
		moneyOut: find("money out"),
	}
}

// GenericParser reads any bank CSV whose header names its date, description
// and amount columns. Rows it cannot read are skipped and counted.
type GenericParser struct {
	// RequireSplit rejects files without "money in"/"money out" columns.
	RequireSplit bool
	name         string
}

// NewMonzoParser returns a GenericParser pinned to Monzo's split columns.
func NewMonzoParser() *GenericParser {
	return &GenericParser{RequireSplit: true, name: "monzo"}
}

// Format returns the parser name.
func (p *GenericParser) Format() string {
	if p.name != "" {
		return p.name
	}
	return "generic"
}

// Parse reads CSV text. It only fails when the input cannot be read or, with
// RequireSplit, when the header lacks the split columns.
func (p *GenericParser) Parse(r io.Reader) (Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	report := newReport()
	var header []string
	var cols columns
	var txns []model.ParsedTransaction

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			if header != nil {
				report.Lines++
				report.skip(perr.Line, SkipMalformed, perr.Err.Error())
			}
			continue
		}
		if err != nil {
			return Result{}, fmt.Errorf("reading CSV: %w", err)
		}
		if isBlank(rec) {
			continue
		}

		if header == nil {
			header = rec
			cols = findColumns(header)
			if p.RequireSplit && !cols.hasSplit() {
				return Result{}, fmt.Errorf("%s: header has no money in/money out columns", p.Format())
			}
			continue
		}

		report.Lines++
		line, _ := cr.FieldPos(0)
		txn, reason, detail := parseRow(rec, cols)
		if reason != "" {
			report.skip(line, reason, detail)
			continue
		}
		txns = append(txns, txn)
		report.Parsed++
	}

	return Result{Transactions: txns, Report: report}, nil
}

func parseRow(rec []string, cols columns) (model.ParsedTransaction, SkipReason, string) {
	if cols.date < 0 {
		return model.ParsedTransaction{}, SkipNoDateColumn, ""
	}

	field := func(i int) string {
		if i < 0 || i >= len(rec) {
			return ""
		}
		return strings.Trim(strings.TrimSpace(rec[i]), `"`)
	}

	if cols.date >= len(rec) {
		return model.ParsedTransaction{}, SkipShortRow, fmt.Sprintf("%d fields", len(rec))
	}

	amount := decimal.Zero
	switch {
	case cols.hasSplit():
		in, err := parseAmount(field(cols.moneyIn))
		if err != nil {
			return model.ParsedTransaction{}, SkipBadAmount, err.Error()
		}
		out, err := parseAmount(field(cols.moneyOut))
		if err != nil {
			return model.ParsedTransaction{}, SkipBadAmount, err.Error()
		}
		// Money out is already negative in split exports.
		amount = in.Add(out)
	case cols.amount >= 0:
		a, err := parseAmount(field(cols.amount))
		if err != nil {
			return model.ParsedTransaction{}, SkipBadAmount, err.Error()
		}
		amount = a
	}

	date, err := parseDate(field(cols.date))
	if err != nil {
		return model.ParsedTransaction{}, SkipBadDate, err.Error()
	}

	return model.ParsedTransaction{
		Date:        date,
		Description: field(cols.desc),
		Amount:      amount,
	}, "", ""
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
