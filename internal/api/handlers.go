package api

import (
	"bytes"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/gigledger/cashflow/internal/classifier"
	"github.com/gigledger/cashflow/internal/importer"
	"github.com/gigledger/cashflow/internal/ledger"
	"github.com/gigledger/cashflow/internal/model"
)

type entryJSON struct {
	ID          int64           `json:"id"`
	Date        string          `json:"date"`
	Uber        decimal.Decimal `json:"uber"`
	Bolt        decimal.Decimal `json:"bolt"`
	FreeNow     decimal.Decimal `json:"freenow"`
	HorizonCars decimal.Decimal `json:"horizoncars"`
	Other       decimal.Decimal `json:"other"`
	TotalIncome decimal.Decimal `json:"totalIncome"`
	Expenses    decimal.Decimal `json:"expenses"`
	Balance     decimal.Decimal `json:"balance"`
	Notes       string          `json:"notes"`
}

func toEntryJSON(e model.DailyEntry) entryJSON {
	return entryJSON{
		ID:          e.ID,
		Date:        model.DateKey(e.Date),
		Uber:        e.Uber,
		Bolt:        e.Bolt,
		FreeNow:     e.FreeNow,
		HorizonCars: e.HorizonCars,
		Other:       e.Other,
		TotalIncome: e.TotalIncome(),
		Expenses:    e.Expenses,
		Balance:     e.Balance,
		Notes:       e.Notes,
	}
}

type recurringJSON struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	DayOfMonth int             `json:"dayOfMonth"`
	Category   string          `json:"category,omitempty"`
}

func toRecurringJSON(r model.RecurringExpense) recurringJSON {
	return recurringJSON{ID: r.ID, Name: r.Name, Amount: r.Amount, DayOfMonth: r.DayOfMonth, Category: r.Category}
}

type transactionJSON struct {
	ID          int64           `json:"id"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Source      string          `json:"source,omitempty"`
	BatchID     string          `json:"batchId"`
	Verified    bool            `json:"verified"`
}

type monthResponse struct {
	Year      int                     `json:"year"`
	Month     int                     `json:"month"`
	Entries   []entryJSON             `json:"entries"`
	Summary   ledger.Summary          `json:"summary"`
	Recurring map[int][]recurringJSON `json:"recurringByDay"`
}

func (s *Server) handleMonth(c *fiber.Ctx) error {
	year, month, err := yearMonth(c)
	if err != nil {
		return err
	}
	uid := userID(c)

	entries, err := s.Ledger.Month(c.UserContext(), uid, year, month)
	if err != nil {
		return err
	}
	recurring, err := s.Ledger.RecurringExpenses(c.UserContext(), uid)
	if err != nil {
		return err
	}

	resp := monthResponse{
		Year:      year,
		Month:     month,
		Entries:   make([]entryJSON, 0, len(entries)),
		Summary:   ledger.Summarize(entries, recurring, s.PlannedIncome),
		Recurring: make(map[int][]recurringJSON),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, toEntryJSON(e))
	}
	for day, rs := range ledger.ProjectMonth(year, month, recurring) {
		for _, r := range rs {
			resp.Recurring[day] = append(resp.Recurring[day], toRecurringJSON(r))
		}
	}
	return c.JSON(resp)
}

func (s *Server) handleExport(c *fiber.Ctx) error {
	year, month, err := yearMonth(c)
	if err != nil {
		return err
	}
	entries, err := s.Ledger.Month(c.UserContext(), userID(c), year, month)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fiber.NewError(fiber.StatusNotFound, "no data to export for this month")
	}

	var buf bytes.Buffer
	if err := ledger.WriteCSV(&buf, entries); err != nil {
		return err
	}
	c.Attachment(ledger.ExportFilename(year, month))
	c.Set(fiber.HeaderContentType, "text/csv")
	return c.Send(buf.Bytes())
}

type entryRequest struct {
	Uber        *decimal.Decimal `json:"uber"`
	Bolt        *decimal.Decimal `json:"bolt"`
	FreeNow     *decimal.Decimal `json:"freenow"`
	HorizonCars *decimal.Decimal `json:"horizoncars"`
	Other       *decimal.Decimal `json:"other"`
	Expenses    *decimal.Decimal `json:"expenses"`
	Balance     *decimal.Decimal `json:"balance"`
	Notes       *string          `json:"notes"`
}

func (s *Server) handleUpsertEntry(c *fiber.Ctx) error {
	date, err := time.Parse(model.DateFormat, c.Params("date"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	var req entryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body: "+err.Error())
	}

	e, err := s.Ledger.UpsertEntry(c.UserContext(), userID(c), ledger.EntryUpdate{
		Date:        date,
		Uber:        req.Uber,
		Bolt:        req.Bolt,
		FreeNow:     req.FreeNow,
		HorizonCars: req.HorizonCars,
		Other:       req.Other,
		Expenses:    req.Expenses,
		Balance:     req.Balance,
		Notes:       req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(toEntryJSON(e))
}

func (s *Server) handleListRecurring(c *fiber.Ctx) error {
	list, err := s.Ledger.RecurringExpenses(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	out := make([]recurringJSON, 0, len(list))
	for _, r := range list {
		out = append(out, toRecurringJSON(r))
	}
	return c.JSON(out)
}

func (s *Server) handleCreateRecurring(c *fiber.Ctx) error {
	var req recurringJSON
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body: "+err.Error())
	}
	created, err := s.Ledger.AddRecurringExpense(c.UserContext(), model.RecurringExpense{
		UserID:     userID(c),
		Name:       req.Name,
		Amount:     req.Amount,
		DayOfMonth: req.DayOfMonth,
		Category:   req.Category,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toRecurringJSON(created))
}

func (s *Server) handleDeleteRecurring(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := s.Ledger.DeleteRecurringExpense(c.UserContext(), userID(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleListTransactions(c *fiber.Ctx) error {
	list, err := s.Ledger.Transactions(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	out := make([]transactionJSON, 0, len(list))
	for _, t := range list {
		out = append(out, transactionJSON{
			ID:          t.ID,
			Date:        model.DateKey(t.Date),
			Description: t.Description,
			Amount:      t.Amount,
			Category:    t.Category,
			Source:      t.Source,
			BatchID:     t.BatchID,
			Verified:    t.Verified,
		})
	}
	return c.JSON(out)
}

func (s *Server) handleDeleteTransaction(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := s.Ledger.DeleteTransaction(c.UserContext(), userID(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleClearTransactions(c *fiber.Ctx) error {
	if err := s.Ledger.ClearTransactions(c.UserContext(), userID(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type reportJSON struct {
	Lines   int                         `json:"lines"`
	Parsed  int                         `json:"parsed"`
	Skipped map[importer.SkipReason]int `json:"skipped"`
}

type importResponse struct {
	BatchID string       `json:"batchId"`
	Stats   ledger.Stats `json:"stats"`
	Report  reportJSON   `json:"report"`
}

// handleImport accepts a CSV either as a multipart "file" field or as the
// raw request body. ?format= picks the parser; the default is generic.
func (s *Server) handleImport(c *fiber.Ctx) error {
	format := c.Query("format", "generic")
	p := s.Parsers.Get(format)
	if p == nil {
		return fiber.NewError(fiber.StatusBadRequest, "unknown format "+format)
	}

	var r io.Reader = bytes.NewReader(c.Body())
	source := format
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
		source = fh.Filename
	}

	parsed, err := p.Parse(r)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if len(parsed.Transactions) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no transactions found in file")
	}

	res, err := s.Ledger.Import(c.UserContext(), userID(c), source, parsed.Transactions)
	if err != nil {
		return err
	}
	return c.JSON(importResponse{
		BatchID: res.BatchID,
		Stats:   res.Stats,
		Report: reportJSON{
			Lines:   parsed.Report.Lines,
			Parsed:  parsed.Report.Parsed,
			Skipped: parsed.Report.Skipped,
		},
	})
}

type classifyRequest struct {
	Description string           `json:"description"`
	Amount      *decimal.Decimal `json:"amount"` // nil when the caller has no amount
}

type classifyResponse struct {
	Type       model.TxnType    `json:"type"`
	Category   string           `json:"category"`
	Confidence float64          `json:"confidence"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
}

func (s *Server) handleClassify(c *fiber.Ctx) error {
	var req classifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body: "+err.Error())
	}
	if req.Amount == nil {
		cls := s.Ledger.Classifier().ClassifyText(req.Description)
		return c.JSON(classifyResponse{Type: cls.Type, Category: cls.Category, Confidence: cls.Confidence})
	}

	cls := s.Ledger.Classifier().Classify(req.Description, *req.Amount)
	fixed := classifier.FixAmount(*req.Amount, cls)
	return c.JSON(classifyResponse{
		Type:       cls.Type,
		Category:   cls.Category,
		Confidence: cls.Confidence,
		Amount:     &fixed,
	})
}
