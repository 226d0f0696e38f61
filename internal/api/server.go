// Package api exposes the ledger over a small JSON HTTP API. Every
// user-scoped route reads the caller's user ID from the X-User-ID header,
// which the fronting auth proxy sets.
package api

import (
	"errors"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/gigledger/cashflow/internal/buildinfo"
	"github.com/gigledger/cashflow/internal/importer"
	"github.com/gigledger/cashflow/internal/ledger"
	cflog "github.com/gigledger/cashflow/internal/log"
	"github.com/gigledger/cashflow/internal/store"
)

// UserHeader carries the authenticated user's numeric ID.
const UserHeader = "X-User-ID"

const maxUploadBytes = 10 << 20

// Server holds the HTTP handlers for the API.
type Server struct {
	Ledger        *ledger.Service
	Parsers       *importer.Registry
	PlannedIncome decimal.Decimal
	Logger        *log.Logger
}

// App builds the fiber app with all routes registered.
func (s *Server) App() *fiber.App {
	if s.Logger == nil {
		s.Logger = cflog.Discard()
	}
	app := fiber.New(fiber.Config{
		AppName:               "cashflow",
		BodyLimit:             maxUploadBytes,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	app.Use(s.logRequests)

	app.Get("/api/health", s.handleHealth)

	user := app.Group("/api", requireUser)
	user.Get("/ledger/:year/:month", s.handleMonth)
	user.Get("/ledger/:year/:month/export", s.handleExport)
	user.Put("/ledger/:date", s.handleUpsertEntry)

	user.Get("/recurring", s.handleListRecurring)
	user.Post("/recurring", s.handleCreateRecurring)
	user.Delete("/recurring/:id", s.handleDeleteRecurring)

	user.Get("/transactions", s.handleListTransactions)
	user.Delete("/transactions", s.handleClearTransactions)
	user.Delete("/transactions/:id", s.handleDeleteTransaction)

	user.Post("/import", s.handleImport)
	user.Post("/classify", s.handleClassify)
	return app
}

func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	status := c.Response().StatusCode()
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}
	s.Logger.Debug("request",
		cflog.FieldComponent, cflog.ComponentHTTP,
		cflog.FieldMethod, c.Method(),
		cflog.FieldPath, c.Path(),
		cflog.FieldStatus, status,
		cflog.FieldDuration, time.Since(start))
	return err
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case errors.Is(err, store.ErrNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, ledger.ErrInvalidInput):
		code = fiber.StatusBadRequest
	case errors.Is(err, ledger.ErrInvalidBatch):
		code = fiber.StatusUnprocessableEntity
	}
	if code == fiber.StatusInternalServerError {
		s.Logger.Error("request failed", cflog.FieldPath, c.Path(), cflog.FieldError, err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func requireUser(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Get(UserHeader), 10, 64)
	if err != nil || id <= 0 {
		return fiber.NewError(fiber.StatusUnauthorized, "missing or invalid "+UserHeader)
	}
	c.Locals(UserHeader, id)
	return c.Next()
}

func userID(c *fiber.Ctx) int64 {
	id, _ := c.Locals(UserHeader).(int64)
	return id
}

func paramID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func yearMonth(c *fiber.Ctx) (int, int, error) {
	year, err := c.ParamsInt("year")
	if err != nil {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "invalid year")
	}
	month, err := c.ParamsInt("month")
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "invalid month")
	}
	return year, month, nil
}
