package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/gigledger/cashflow/internal/auditlog"
	"github.com/gigledger/cashflow/internal/classifier"
	"github.com/gigledger/cashflow/internal/config"
	"github.com/gigledger/cashflow/internal/importer"
	"github.com/gigledger/cashflow/internal/ledger"
	cflog "github.com/gigledger/cashflow/internal/log"
	"github.com/gigledger/cashflow/internal/store"
	"github.com/gigledger/cashflow/internal/store/postgres"
	"github.com/gigledger/cashflow/internal/store/sqlite"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	dir     string
	userID  int64
	verbose bool
}

// app is the wired project a subcommand operates on.
type app struct {
	root    string
	userID  int64
	cfg     *config.Config
	store   store.Store
	ledger  *ledger.Service
	parsers *importer.Registry
	logger  *log.Logger
}

func (a *app) Close() error {
	return a.store.Close()
}

// openApp loads <dir>/cashflow.yaml and wires the store and ledger service.
func openApp(cmd *cobra.Command, opts *globalOptions) (*app, error) {
	root, err := filepath.Abs(opts.dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	if opts.userID <= 0 {
		return nil, fmt.Errorf("--user must be a positive ID, got %d", opts.userID)
	}

	cfg, err := config.Load(filepath.Join(root, config.FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no %s in %s: run `cashflow init` first", config.FileName, root)
		}
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if opts.verbose {
		level = "debug"
	}
	logger, err := cflog.New(cmd.ErrOrStderr(), level)
	if err != nil {
		return nil, err
	}

	rules := classifier.DefaultRules()
	if cfg.Import.RulesFile != "" {
		path := config.Resolve(root, cfg.Import.RulesFile)
		switch loaded, err := classifier.LoadRules(path); {
		case err == nil:
			rules = loaded
		case errors.Is(err, os.ErrNotExist):
			logger.Debug("rules file missing, using built-in rules", cflog.FieldFile, path)
		default:
			return nil, err
		}
	}

	st, err := openStore(cmd.Context(), cfg, root)
	if err != nil {
		return nil, err
	}
	logger.Debug("store opened",
		cflog.FieldComponent, cflog.ComponentStorage,
		"backend", cfg.Storage.Backend)

	svcOpts := []ledger.Option{
		ledger.WithMergeMode(cfg.MergeMode()),
		ledger.WithLogger(logger),
	}
	if cfg.Import.AuditLog != "" {
		svcOpts = append(svcOpts, ledger.WithAuditLog(auditlog.New(config.Resolve(root, cfg.Import.AuditLog))))
	}

	return &app{
		root:    root,
		userID:  opts.userID,
		cfg:     cfg,
		store:   st,
		ledger:  ledger.NewService(st, classifier.New(rules), svcOpts...),
		parsers: importer.DefaultRegistry(),
		logger:  logger,
	}, nil
}

func openStore(ctx context.Context, cfg *config.Config, root string) (store.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return store.NewMemory(), nil
	case config.BackendSQLite:
		return sqlite.Open(config.Resolve(root, cfg.Storage.SQLitePath))
	case config.BackendPostgres:
		return postgres.Connect(ctx, cfg.Storage.PostgresURL)
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

// withApp adapts a RunE body that needs a wired app.
func withApp(opts *globalOptions, fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, opts)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, a, args)
	}
}
