package commands

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gigledger/cashflow/internal/model"
)

func newTransactionsCommand(opts *globalOptions) *cobra.Command {
	txCmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "Inspect the imported transaction log",
	}
	txCmd.AddCommand(
		newTransactionsListCommand(opts),
		newTransactionsRmCommand(opts),
		newTransactionsClearCommand(opts),
	)
	return txCmd
}

func newTransactionsListCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List imported transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			list, err := a.ledger.Transactions(cmd.Context(), a.userID)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(w, "No imported transactions.")
				return nil
			}
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDate\tAmount\tCategory\tSource\tDescription")
			for _, t := range list {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
					t.ID, model.DateKey(t.Date), t.Amount.StringFixed(2), t.Category, t.Source, t.Description)
			}
			return tw.Flush()
		}),
	}
}

func newTransactionsRmCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete one imported transaction",
		Long:  "Removes the log row only. The daily ledger totals are not changed.",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}
			if err := a.ledger.DeleteTransaction(cmd.Context(), a.userID, id); err != nil {
				return fmt.Errorf("transaction %d: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted transaction %d\n", id)
			return nil
		}),
	}
}

func newTransactionsClearCommand(opts *globalOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every imported transaction",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear the transaction log without --yes")
			}
			if err := a.ledger.ClearTransactions(cmd.Context(), a.userID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cleared transaction log")
			return nil
		}),
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}
