package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gigledger/cashflow/internal/auditlog"
	"github.com/gigledger/cashflow/internal/classifier"
	cflog "github.com/gigledger/cashflow/internal/log"
	"github.com/gigledger/cashflow/internal/model"
	"github.com/gigledger/cashflow/internal/store"
)

// ErrInvalidInput marks a rejected manual edit.
var ErrInvalidInput = errors.New("invalid input")

// Service applies imports and manual edits to a user's ledger.
type Service struct {
	store      store.Store
	classifier *classifier.Classifier
	merge      store.MergeMode
	audit      *auditlog.Log
	logger     *log.Logger
	now        func() time.Time
	newBatchID func() string
}

// Option configures a Service.
type Option func(*Service)

// WithMergeMode sets how imports combine with existing daily entries.
func WithMergeMode(m store.MergeMode) Option {
	return func(s *Service) { s.merge = m }
}

// WithAuditLog records every import decision to l.
func WithAuditLog(l *auditlog.Log) Option {
	return func(s *Service) { s.audit = l }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = cflog.WithComponent(l, cflog.ComponentLedger) }
}

// NewService creates a ledger Service.
func NewService(st store.Store, c *classifier.Classifier, opts ...Option) *Service {
	s := &Service{
		store:      st,
		classifier: c,
		merge:      store.MergeAccumulate,
		logger:     cflog.Discard(),
		now:        time.Now,
		newBatchID: func() string { return uuid.NewString() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Classifier returns the classifier the service imports with.
func (s *Service) Classifier() *classifier.Classifier { return s.classifier }

// ImportResult is returned by Import.
type ImportResult struct {
	Stats     Stats      `json:"stats"`
	BatchID   string     `json:"batchId"`
	Decisions []Decision `json:"-"`
}

// Import classifies txns, appends the kept rows to the user's transaction
// log and merges the per-date totals into the daily ledger. Both writes
// happen in one store call.
func (s *Service) Import(ctx context.Context, userID int64, source string, txns []model.ParsedTransaction) (ImportResult, error) {
	b := Aggregate(s.classifier, txns)
	res := ImportResult{Stats: b.Stats, BatchID: s.newBatchID(), Decisions: b.Decisions}

	if verrs := ValidateClassified(b.Kept); len(verrs) > 0 {
		return ImportResult{}, joinValidation(verrs)
	}

	logger := s.logger.With(cflog.FieldUser, userID, cflog.FieldBatch, res.BatchID)

	if len(b.Kept) > 0 {
		batch := store.ImportBatch{Days: b.Days, Merge: s.merge}
		for _, k := range b.Kept {
			batch.Transactions = append(batch.Transactions, model.ImportedTransaction{
				UserID:      userID,
				Date:        k.Date,
				Description: k.Description,
				Amount:      k.Amount,
				Category:    k.Category,
				Source:      source,
				BatchID:     res.BatchID,
			})
		}
		if err := s.store.ApplyImport(ctx, userID, batch); err != nil {
			return ImportResult{}, fmt.Errorf("applying import: %w", err)
		}
	}

	logger.Info("import applied",
		"accepted", b.Stats.Accepted,
		"dates", b.Stats.DatesAffected,
		"excluded", b.Stats.Excluded,
		"skipped_zero", b.Stats.SkippedZero)

	if s.audit != nil {
		if err := s.audit.Append(s.auditEntries(userID, res.BatchID, b.Decisions)); err != nil {
			// Ledger is already committed.
			logger.Warn("audit log append failed", cflog.FieldError, err)
		}
	}
	return res, nil
}

func (s *Service) auditEntries(userID int64, batchID string, decisions []Decision) []auditlog.Entry {
	now := s.now()
	entries := make([]auditlog.Entry, 0, len(decisions))
	for _, d := range decisions {
		category := d.Category
		if category == "" {
			category = d.Classification.Category
		}
		entries = append(entries, auditlog.Entry{
			Timestamp:   now,
			UserID:      userID,
			BatchID:     batchID,
			Date:        d.Transaction.Date,
			Description: d.Transaction.Description,
			Amount:      d.Transaction.Amount,
			Type:        d.Classification.Type,
			Category:    category,
			Confidence:  d.Classification.Confidence,
			Outcome:     d.Outcome,
		})
	}
	return entries
}

// Month returns the user's daily entries for a month.
func (s *Service) Month(ctx context.Context, userID int64, year, month int) ([]model.DailyEntry, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: month %d out of range", ErrInvalidInput, month)
	}
	return s.store.DailyEntries(ctx, userID, year, month)
}

// EntryUpdate is a manual edit of one day. Nil fields keep their stored
// value; a nil Balance is recomputed from the buckets.
type EntryUpdate struct {
	Date        time.Time
	Uber        *decimal.Decimal
	Bolt        *decimal.Decimal
	FreeNow     *decimal.Decimal
	HorizonCars *decimal.Decimal
	Other       *decimal.Decimal
	Expenses    *decimal.Decimal
	Balance     *decimal.Decimal
	Notes       *string
}

// UpsertEntry applies a manual edit and returns the stored entry.
func (s *Service) UpsertEntry(ctx context.Context, userID int64, u EntryUpdate) (model.DailyEntry, error) {
	if u.Date.IsZero() {
		return model.DailyEntry{}, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	e, err := s.store.DailyEntry(ctx, userID, u.Date)
	switch {
	case errors.Is(err, store.ErrNotFound):
		e = model.DailyEntry{UserID: userID, Date: u.Date}
	case err != nil:
		return model.DailyEntry{}, err
	}

	fields := []struct {
		name string
		src  *decimal.Decimal
		dst  *decimal.Decimal
	}{
		{model.BucketUber, u.Uber, &e.Uber},
		{model.BucketBolt, u.Bolt, &e.Bolt},
		{model.BucketFreeNow, u.FreeNow, &e.FreeNow},
		{model.BucketHorizonCars, u.HorizonCars, &e.HorizonCars},
		{model.BucketOther, u.Other, &e.Other},
		{model.BucketExpenses, u.Expenses, &e.Expenses},
	}
	var problems []string
	for _, f := range fields {
		if f.src == nil {
			continue
		}
		if f.src.IsNegative() {
			problems = append(problems, fmt.Sprintf("%s must not be negative", f.name))
		}
		*f.dst = f.src.Round(2)
	}
	if len(problems) > 0 {
		return model.DailyEntry{}, fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(problems, "; "))
	}

	if u.Notes != nil {
		e.Notes = *u.Notes
	}
	if u.Balance != nil {
		e.Balance = u.Balance.Round(2)
	} else {
		e.Balance = e.DayTotals.Net()
	}

	if err := s.store.UpsertDailyEntry(ctx, e); err != nil {
		return model.DailyEntry{}, err
	}
	return s.store.DailyEntry(ctx, userID, u.Date)
}

// RecurringExpenses lists the user's recurring expenses.
func (s *Service) RecurringExpenses(ctx context.Context, userID int64) ([]model.RecurringExpense, error) {
	return s.store.RecurringExpenses(ctx, userID)
}

// AddRecurringExpense validates and stores a recurring expense.
func (s *Service) AddRecurringExpense(ctx context.Context, e model.RecurringExpense) (model.RecurringExpense, error) {
	var problems []string
	if strings.TrimSpace(e.Name) == "" {
		problems = append(problems, "name is required")
	}
	if !e.Amount.IsPositive() {
		problems = append(problems, "amount must be greater than zero")
	}
	if e.DayOfMonth < 1 || e.DayOfMonth > 31 {
		problems = append(problems, fmt.Sprintf("day of month %d not in 1..31", e.DayOfMonth))
	}
	if len(problems) > 0 {
		return model.RecurringExpense{}, fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(problems, "; "))
	}
	return s.store.CreateRecurringExpense(ctx, e)
}

// DeleteRecurringExpense removes one of the user's recurring expenses.
func (s *Service) DeleteRecurringExpense(ctx context.Context, userID, id int64) error {
	return s.store.DeleteRecurringExpense(ctx, userID, id)
}

// Transactions lists the user's imported transaction log.
func (s *Service) Transactions(ctx context.Context, userID int64) ([]model.ImportedTransaction, error) {
	return s.store.ImportedTransactions(ctx, userID)
}

// DeleteTransaction removes one log row. Rows of other users are reported
// as not found.
func (s *Service) DeleteTransaction(ctx context.Context, userID, id int64) error {
	return s.store.DeleteImportedTransaction(ctx, userID, id)
}

// ClearTransactions removes the user's whole transaction log. The daily
// ledger is left as is.
func (s *Service) ClearTransactions(ctx context.Context, userID int64) error {
	return s.store.ClearImportedTransactions(ctx, userID)
}
