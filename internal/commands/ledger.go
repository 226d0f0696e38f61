package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/gigledger/cashflow/internal/ledger"
	"github.com/gigledger/cashflow/internal/model"
)

func newLedgerCommand(opts *globalOptions) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Show and edit the daily ledger",
	}
	ledgerCmd.AddCommand(
		newLedgerShowCommand(opts),
		newLedgerSetCommand(opts),
		newLedgerExportCommand(opts),
	)
	return ledgerCmd
}

// parseMonth reads "YYYY-MM"; empty means the current month.
func parseMonth(s string) (int, int, error) {
	if s == "" {
		now := time.Now()
		return now.Year(), int(now.Month()), nil
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, fmt.Errorf("month must be YYYY-MM, got %q", s)
	}
	return t.Year(), int(t.Month()), nil
}

func newLedgerShowCommand(opts *globalOptions) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a month of daily entries with its summary",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			year, mon, err := parseMonth(month)
			if err != nil {
				return err
			}
			entries, err := a.ledger.Month(cmd.Context(), a.userID, year, mon)
			if err != nil {
				return err
			}
			recurring, err := a.ledger.RecurringExpenses(cmd.Context(), a.userID)
			if err != nil {
				return err
			}
			planned, err := a.cfg.PlannedIncome()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s %d\n\n", time.Month(mon), year)
			if err := printEntries(w, entries); err != nil {
				return err
			}
			printSummary(w, ledger.Summarize(entries, recurring, planned))
			return nil
		}),
	}

	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default: current month)")
	return cmd
}

func printEntries(w io.Writer, entries []model.DailyEntry) error {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No entries.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Date\tDay\tUber\tBolt\tFreeNow\tHorizon\tOther\tIncome\tExpenses\tBalance\t")
	for _, e := range entries {
		row := ledger.MarshalEntry(e)
		for _, col := range row[:10] {
			fmt.Fprintf(tw, "%s\t", col)
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, e := range entries {
		if e.Notes != "" {
			fmt.Fprintf(w, "  %s: %s\n", model.DateKey(e.Date), e.Notes)
		}
	}
	fmt.Fprintln(w)
	return nil
}

func printSummary(w io.Writer, s ledger.Summary) {
	status := "on target"
	if !s.OnTarget() {
		status = "below target"
	}
	fmt.Fprintf(w, "Planned income:   %s\n", s.PlannedIncome.StringFixed(2))
	fmt.Fprintf(w, "Actual income:    %s\n", s.ActualIncome.StringFixed(2))
	fmt.Fprintf(w, "Planned expenses: %s\n", s.PlannedExpenses.StringFixed(2))
	fmt.Fprintf(w, "Actual expenses:  %s\n", s.ActualExpenses.StringFixed(2))
	fmt.Fprintf(w, "Net position:     %s\n", s.NetPosition.StringFixed(2))
	fmt.Fprintf(w, "Variance:         %s (%s)\n", s.Variance.StringFixed(2), status)
}

func newLedgerSetCommand(opts *globalOptions) *cobra.Command {
	amounts := map[string]*string{}
	var notes string
	buckets := append(append([]string{}, model.IncomeBuckets...), model.BucketExpenses, "balance")

	cmd := &cobra.Command{
		Use:   "set <YYYY-MM-DD>",
		Short: "Edit one day of the ledger",
		Long:  "Only the flags given are changed. Balance is recomputed unless --balance is set.",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			date, err := time.Parse(model.DateFormat, args[0])
			if err != nil {
				return fmt.Errorf("date must be YYYY-MM-DD, got %q", args[0])
			}

			u := ledger.EntryUpdate{Date: date}
			targets := map[string]**decimal.Decimal{
				model.BucketUber:        &u.Uber,
				model.BucketBolt:        &u.Bolt,
				model.BucketFreeNow:     &u.FreeNow,
				model.BucketHorizonCars: &u.HorizonCars,
				model.BucketOther:       &u.Other,
				model.BucketExpenses:    &u.Expenses,
				"balance":               &u.Balance,
			}
			for _, name := range buckets {
				if !cmd.Flags().Changed(name) {
					continue
				}
				d, err := decimal.NewFromString(*amounts[name])
				if err != nil {
					return fmt.Errorf("--%s: %q is not a number", name, *amounts[name])
				}
				*targets[name] = &d
			}
			if cmd.Flags().Changed("notes") {
				u.Notes = &notes
			}

			e, err := a.ledger.UpsertEntry(cmd.Context(), a.userID, u)
			if err != nil {
				return err
			}
			return printEntries(cmd.OutOrStdout(), []model.DailyEntry{e})
		}),
	}

	for _, name := range buckets {
		amounts[name] = new(string)
		cmd.Flags().StringVar(amounts[name], name, "", name+" amount")
	}
	cmd.Flags().StringVar(&notes, "notes", "", "free-text notes for the day")
	return cmd
}

func newLedgerExportCommand(opts *globalOptions) *cobra.Command {
	var month, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a month of the ledger as CSV",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			year, mon, err := parseMonth(month)
			if err != nil {
				return err
			}
			entries, err := a.ledger.Month(cmd.Context(), a.userID, year, mon)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				return fmt.Errorf("no data to export for %04d-%02d", year, mon)
			}

			if output == "-" {
				return ledger.WriteCSV(cmd.OutOrStdout(), entries)
			}
			if output == "" {
				output = ledger.ExportFilename(year, mon)
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating export: %w", err)
			}
			defer f.Close()
			if err := ledger.WriteCSV(f, entries); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d days to %s\n", len(entries), output)
			return f.Close()
		}),
	}

	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default: current month)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default: cashflow-YYYY-MM.csv)")
	return cmd
}
