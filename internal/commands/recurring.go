package commands

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/gigledger/cashflow/internal/model"
)

func newRecurringCommand(opts *globalOptions) *cobra.Command {
	recurringCmd := &cobra.Command{
		Use:   "recurring",
		Short: "Manage monthly recurring expenses",
	}
	recurringCmd.AddCommand(
		newRecurringAddCommand(opts),
		newRecurringListCommand(opts),
		newRecurringRmCommand(opts),
	)
	return recurringCmd
}

func newRecurringAddCommand(opts *globalOptions) *cobra.Command {
	var name, amount, category string
	var day int

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a recurring expense",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			amt, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("--amount: %q is not a number", amount)
			}
			created, err := a.ledger.AddRecurringExpense(cmd.Context(), model.RecurringExpense{
				UserID:     a.userID,
				Name:       name,
				Amount:     amt,
				DayOfMonth: day,
				Category:   category,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added recurring expense %d: %s %s on day %d\n",
				created.ID, created.Name, created.Amount.StringFixed(2), created.DayOfMonth)
			return nil
		}),
	}

	cmd.Flags().StringVar(&name, "name", "", "expense name (required)")
	cmd.Flags().StringVar(&amount, "amount", "", "monthly amount (required)")
	cmd.Flags().IntVar(&day, "day", 1, "day of month it is due, 1-31")
	cmd.Flags().StringVar(&category, "category", "", "optional category")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newRecurringListCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recurring expenses",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			list, err := a.ledger.RecurringExpenses(cmd.Context(), a.userID)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(w, "No recurring expenses.")
				return nil
			}
			total := decimal.Zero
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tName\tAmount\tDay\tCategory")
			for _, r := range list {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", r.ID, r.Name, r.Amount.StringFixed(2), r.DayOfMonth, r.Category)
				total = total.Add(r.Amount)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(w, "Total per month: %s\n", total.StringFixed(2))
			return nil
		}),
	}
}

func newRecurringRmCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a recurring expense",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}
			if err := a.ledger.DeleteRecurringExpense(cmd.Context(), a.userID, id); err != nil {
				return fmt.Errorf("recurring expense %d: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted recurring expense %d\n", id)
			return nil
		}),
	}
}
