package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gigledger/cashflow/internal/classifier"
	"github.com/gigledger/cashflow/internal/config"
)

func newInitCommand() *cobra.Command {
	var backend string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new cashflow project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			if err := runInit(absDir, backend); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized cashflow project at %s\n", absDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&backend, "backend", config.BackendSQLite, "storage backend: memory, sqlite or postgres")

	return cmd
}

func runInit(dir, backend string) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists in %s", config.FileName, dir)
	}

	switch backend {
	case config.BackendMemory, config.BackendSQLite, config.BackendPostgres:
	default:
		return fmt.Errorf("unknown backend %q: must be memory, sqlite or postgres", backend)
	}
	cfg := config.Default()
	cfg.Storage.Backend = backend

	// Create directory structure.
	dirs := []string{
		"data",
		"rules",
		"logs",
		"import",
		filepath.Join("import", "processed"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Write the built-in classification rules so they can be edited.
	if err := classifier.SaveRules(config.Resolve(dir, cfg.Import.RulesFile), classifier.DefaultRules()); err != nil {
		return fmt.Errorf("writing rules: %w", err)
	}

	gitignore := "data/\nlogs/\n.env\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "import", ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	return nil
}
