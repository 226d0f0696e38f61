package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gigledger/cashflow/internal/api"
	cflog "github.com/gigledger/cashflow/internal/log"
)

func newServeCommand(opts *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			planned, err := a.cfg.PlannedIncome()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			srv := &api.Server{
				Ledger:        a.ledger,
				Parsers:       a.parsers,
				PlannedIncome: planned,
				Logger:        a.logger,
			}
			fiberApp := srv.App()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- fiberApp.Listen(addr) }()
			a.logger.Info("listening", cflog.FieldComponent, cflog.ComponentHTTP, "addr", addr)

			select {
			case err := <-errCh:
				return fmt.Errorf("serving: %w", err)
			case <-ctx.Done():
			}

			a.logger.Info("shutting down", cflog.FieldComponent, cflog.ComponentHTTP)
			if err := fiberApp.ShutdownWithTimeout(10 * time.Second); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr from cashflow.yaml)")
	return cmd
}
