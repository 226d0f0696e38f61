// Package importer turns bank CSV exports into parsed transactions.
package importer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gigledger/cashflow/internal/model"
)

// Parser converts a bank CSV file into ParsedTransactions.
type Parser interface {
	Parse(r io.Reader) (Result, error)
	Format() string
}

// Result is the output of a Parser.
type Result struct {
	Transactions []model.ParsedTransaction
	Report       Report
}

// SkipReason says why a data row was dropped.
type SkipReason string

const (
	SkipNoDateColumn SkipReason = "no_date_column"
	SkipShortRow     SkipReason = "short_row"
	SkipBadAmount    SkipReason = "bad_amount"
	SkipBadDate      SkipReason = "bad_date"
	SkipMalformed    SkipReason = "malformed"
)

// maxSamples caps the skipped rows kept in a Report.
const maxSamples = 20

// SkippedRow records one dropped row.
type SkippedRow struct {
	Line   int
	Reason SkipReason
	Detail string
}

// Report counts what happened to each data row.
type Report struct {
	Lines   int // non-blank data rows seen
	Parsed  int
	Skipped map[SkipReason]int
	Samples []SkippedRow // first maxSamples skipped rows
}

func newReport() Report {
	return Report{Skipped: make(map[SkipReason]int)}
}

func (r *Report) skip(line int, reason SkipReason, detail string) {
	r.Skipped[reason]++
	if len(r.Samples) < maxSamples {
		r.Samples = append(r.Samples, SkippedRow{Line: line, Reason: reason, Detail: detail})
	}
}

// TotalSkipped returns the number of dropped rows.
func (r Report) TotalSkipped() int {
	n := 0
	for _, c := range r.Skipped {
		n += c
	}
	return n
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// FileInfo describes a CSV file in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// Formats returns the registered format names, sorted.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.parsers))
	for k := range r.parsers {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&GenericParser{})
	r.Register(NewMonzoParser())
	return r
}

// ParseFile opens path and parses it with p.
func ParseFile(p Parser, path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	res, err := p.Parse(f)
	if err != nil {
		return Result{}, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return res, nil
}

// importDir is the subdirectory for import CSVs.
const importDir = "import"

// processedDir is the subdirectory for processed CSVs.
const processedDir = "import/processed"

// InboxDir returns <root>/import.
func InboxDir(root string) string {
	return filepath.Join(root, importDir)
}

// Scan returns CSV files in <root>/import/.
func Scan(root string) ([]FileInfo, error) {
	dir := filepath.Join(root, importDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(root, fileName string) error {
	src := filepath.Join(root, importDir, fileName)
	dstDir := filepath.Join(root, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
