// Package log builds the structured logger shared by the CLI and API.
package log

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// Common field names for structured logging.
const (
	FieldComponent = "component"
	FieldUser      = "user"
	FieldBatch     = "batch"
	FieldFile      = "file"
	FieldFormat    = "format"
	FieldDate      = "date"
	FieldMonth     = "month"
	FieldCount     = "count"
	FieldReason    = "reason"
	FieldError     = "err"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldDuration  = "duration"
)

// Component names.
const (
	ComponentCLI      = "cli"
	ComponentImporter = "importer"
	ComponentLedger   = "ledger"
	ComponentStorage  = "storage"
	ComponentHTTP     = "http"
)

// New returns a logger writing to w at the named level ("debug", "info",
// "warn", "error"). An empty level means info.
func New(w io.Writer, level string) (*log.Logger, error) {
	lvl := log.InfoLevel
	if level != "" {
		var err error
		if lvl, err = log.ParseLevel(level); err != nil {
			return nil, fmt.Errorf("parsing log level %q: %w", level, err)
		}
	}
	return log.NewWithOptions(w, log.Options{
		Prefix:          "cashflow",
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
	}), nil
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// WithComponent tags l with a component name.
func WithComponent(l *log.Logger, component string) *log.Logger {
	return l.With(FieldComponent, component)
}
