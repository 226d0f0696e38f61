package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/gigledger/cashflow/internal/store"
)

// FileName is the project config file created by `cashflow init`.
const FileName = "cashflow.yaml"

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config represents the top-level cashflow.yaml configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Import  ImportConfig  `yaml:"import"`
	Summary SummaryConfig `yaml:"summary"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

// StorageConfig selects and locates the store backend.
type StorageConfig struct {
	Backend     string `yaml:"backend"`
	SQLitePath  string `yaml:"sqlite_path,omitempty"`  // relative to the project root
	PostgresURL string `yaml:"postgres_url,omitempty"` // usually set via DATABASE_URL
}

// ImportConfig controls how bank files are applied.
type ImportConfig struct {
	Merge     string `yaml:"merge"`      // accumulate or overwrite
	RulesFile string `yaml:"rules_file"` // classification rules override
	AuditLog  string `yaml:"audit_log"`  // empty disables the audit trail
}

// SummaryConfig holds month overview settings.
type SummaryConfig struct {
	PlannedIncome string `yaml:"planned_income"`
}

// ServerConfig configures `cashflow serve`.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads a cashflow.yaml file from disk and applies env overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:    BackendSQLite,
			SQLitePath: "data/cashflow.db",
		},
		Import: ImportConfig{
			Merge:     string(store.MergeAccumulate),
			RulesFile: "rules/classification-rules.yaml",
			AuditLog:  "logs/import-audit.csv",
		},
		Summary: SummaryConfig{
			PlannedIncome: "6000",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ApplyEnv overrides fields from CASHFLOW_* and DATABASE_URL.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("CASHFLOW_STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("CASHFLOW_SQLITE_PATH"); v != "" {
		c.Storage.SQLitePath = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Storage.PostgresURL = v
	}
	if v := os.Getenv("CASHFLOW_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate reports every problem found in the config at once.
func (c *Config) Validate() error {
	var errs []string

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			errs = append(errs, "storage.sqlite_path is required for the sqlite backend")
		}
	case BackendPostgres:
		if c.Storage.PostgresURL == "" {
			errs = append(errs, "storage.postgres_url (or DATABASE_URL) is required for the postgres backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("storage.backend %q must be memory, sqlite or postgres", c.Storage.Backend))
	}

	if _, err := store.ParseMergeMode(c.Import.Merge); err != nil {
		errs = append(errs, "import.merge: "+err.Error())
	}

	if _, err := c.PlannedIncome(); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// PlannedIncome parses summary.planned_income.
func (c *Config) PlannedIncome() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.Summary.PlannedIncome)
	if err != nil {
		return decimal.Zero, fmt.Errorf("summary.planned_income %q is not a number", c.Summary.PlannedIncome)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("summary.planned_income %s must not be negative", d)
	}
	return d, nil
}

// MergeMode returns the parsed import.merge setting.
func (c *Config) MergeMode() store.MergeMode {
	m, err := store.ParseMergeMode(c.Import.Merge)
	if err != nil {
		return store.MergeAccumulate
	}
	return m
}

// Resolve makes p absolute against the project root. Empty stays empty.
func Resolve(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
