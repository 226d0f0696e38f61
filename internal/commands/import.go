package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gigledger/cashflow/internal/importer"
	"github.com/gigledger/cashflow/internal/ledger"
	cflog "github.com/gigledger/cashflow/internal/log"
	"github.com/gigledger/cashflow/internal/model"
)

func newImportCommand(opts *globalOptions) *cobra.Command {
	var format string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import a bank CSV, or every CSV in the import/ inbox",
		Long: "Import classifies each bank row, drops internal transfers and zero amounts, " +
			"and merges the per-day totals into the daily ledger. Without a file argument " +
			"every CSV in <dir>/import is imported and then moved to import/processed.",
		Args: cobra.MaximumNArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			p := a.parsers.Get(format)
			if p == nil {
				return fmt.Errorf("unknown format %q (available: %s)", format, strings.Join(a.parsers.Formats(), ", "))
			}

			if len(args) == 1 {
				info, err := os.Stat(args[0])
				if err != nil {
					return err
				}
				if !info.IsDir() {
					return importFile(cmd.Context(), cmd.OutOrStdout(), a, p, args[0], dryRun)
				}
			}
			return importInbox(cmd.Context(), cmd.OutOrStdout(), a, p, dryRun)
		}),
	}

	cmd.Flags().StringVar(&format, "format", "generic", "CSV format: generic or monzo")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "classify and report without writing")

	return cmd
}

func importInbox(ctx context.Context, w io.Writer, a *app, p importer.Parser, dryRun bool) error {
	files, err := importer.Scan(a.root)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintf(w, "No CSV files in %s\n", importer.InboxDir(a.root))
		return nil
	}

	for _, f := range files {
		if err := importFile(ctx, w, a, p, f.Path, dryRun); err != nil {
			return err
		}
		if dryRun {
			continue
		}
		if err := importer.MarkProcessed(a.root, f.Name); err != nil {
			return err
		}
	}
	return nil
}

func importFile(ctx context.Context, w io.Writer, a *app, p importer.Parser, path string, dryRun bool) error {
	name := filepath.Base(path)
	logger := cflog.WithComponent(a.logger, cflog.ComponentImporter).With(cflog.FieldFile, name)

	parsed, err := importer.ParseFile(p, path)
	if err != nil {
		return err
	}
	logger.Debug("parsed", cflog.FieldFormat, p.Format(), cflog.FieldCount, parsed.Report.Parsed)
	printReport(w, name, parsed.Report)

	if len(parsed.Transactions) == 0 {
		fmt.Fprintln(w, "  nothing to import")
		return nil
	}

	if dryRun {
		b := ledger.Aggregate(a.ledger.Classifier(), parsed.Transactions)
		for _, d := range b.Decisions {
			fmt.Fprintf(w, "  %s  %10s  %-8s %-18s %s\n",
				model.DateKey(d.Transaction.Date),
				d.Amount.StringFixed(2),
				d.Outcome,
				decisionCategory(d),
				d.Transaction.Description)
		}
		printStats(w, b.Stats)
		fmt.Fprintln(w, "  dry run: nothing written")
		return nil
	}

	res, err := a.ledger.Import(ctx, a.userID, p.Format(), parsed.Transactions)
	if err != nil {
		return fmt.Errorf("importing %s: %w", name, err)
	}
	printStats(w, res.Stats)
	fmt.Fprintf(w, "  batch %s\n", res.BatchID)
	return nil
}

func decisionCategory(d ledger.Decision) string {
	if d.Category != "" {
		return d.Category
	}
	return d.Classification.Category
}

func printReport(w io.Writer, name string, r importer.Report) {
	fmt.Fprintf(w, "%s: %d rows, %d parsed, %d skipped\n", name, r.Lines, r.Parsed, r.TotalSkipped())
	reasons := make([]string, 0, len(r.Skipped))
	for reason := range r.Skipped {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		fmt.Fprintf(w, "  skipped %s: %d\n", reason, r.Skipped[importer.SkipReason(reason)])
	}
	for _, s := range r.Samples {
		fmt.Fprintf(w, "    line %d (%s): %s\n", s.Line, s.Reason, s.Detail)
	}
}

func printStats(w io.Writer, s ledger.Stats) {
	fmt.Fprintf(w, "  accepted %d, dates %d, excluded %d, zero %d\n",
		s.Accepted, s.DatesAffected, s.Excluded, s.SkippedZero)
}
