// Package auditlog keeps an append-only CSV trail of per-row import
// decisions, so a user can see why a bank row was kept, excluded or dropped.
package auditlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gigledger/cashflow/internal/model"
)

// Outcome is what an import did with a row.
type Outcome string

const (
	OutcomeKept     Outcome = "kept"
	OutcomeExcluded Outcome = "excluded"
	OutcomeZero     Outcome = "skipped_zero"
)

// Entry is one row in the audit log.
type Entry struct {
	Timestamp   time.Time
	UserID      int64
	BatchID     string
	Date        time.Time
	Description string
	Amount      decimal.Decimal // as imported, before sign correction
	Type        model.TxnType
	Category    string
	Confidence  float64
	Outcome     Outcome
}

// Header is the CSV header of the audit log.
const Header = "timestamp,user_id,batch_id,date,description,amount,type,category,confidence,outcome"

const (
	numFields      = 10
	colTimestamp   = 0
	colUser        = 1
	colBatch       = 2
	colDate        = 3
	colDescription = 4
	colAmount      = 5
	colType        = 6
	colCategory    = 7
	colConfidence  = 8
	colOutcome     = 9
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colUser] = strconv.FormatInt(e.UserID, 10)
	row[colBatch] = e.BatchID
	row[colDate] = model.DateKey(e.Date)
	row[colDescription] = e.Description
	row[colAmount] = e.Amount.StringFixed(2)
	row[colType] = string(e.Type)
	row[colCategory] = e.Category
	row[colConfidence] = strconv.FormatFloat(e.Confidence, 'f', -1, 64)
	row[colOutcome] = string(e.Outcome)
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	user, err := strconv.ParseInt(record[colUser], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing user_id %q: %w", record[colUser], err)
	}
	date, err := time.Parse(model.DateFormat, record[colDate])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}
	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}
	conf, err := strconv.ParseFloat(record[colConfidence], 64)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing confidence %q: %w", record[colConfidence], err)
	}

	return Entry{
		Timestamp:   ts,
		UserID:      user,
		BatchID:     record[colBatch],
		Date:        date,
		Description: record[colDescription],
		Amount:      amount,
		Type:        model.TxnType(record[colType]),
		Category:    record[colCategory],
		Confidence:  conf,
		Outcome:     Outcome(record[colOutcome]),
	}, nil
}

// Log appends to a CSV file at a fixed path.
type Log struct {
	path string
}

// New returns a Log writing to path. The file is created on first Append.
func New(path string) *Log {
	return &Log{path: path}
}

// Path returns the file the log writes to.
func (l *Log) Path() string { return l.path }

// Append writes entries, creating the file and header if needed.
func (l *Log) Append(entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating audit log dir: %w", err)
	}

	needsHeader := false
	if _, err := os.Stat(l.path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	return cw.Error()
}

// Read returns all entries. A missing file yields no entries.
func (l *Log) Read() ([]Entry, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading audit log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
