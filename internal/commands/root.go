package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gigledger/cashflow/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "cashflow",
		Short:   "Daily cash-flow ledger for rideshare drivers",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.dir, "dir", ".", "project directory containing cashflow.yaml")
	pf.Int64Var(&opts.userID, "user", 1, "user ID to act as")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(
		newInitCommand(),
		newImportCommand(opts),
		newLedgerCommand(opts),
		newRecurringCommand(opts),
		newTransactionsCommand(opts),
		newServeCommand(opts),
	)

	return rootCmd
}
