package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigledger/cashflow/internal/store"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Storage.Backend = BackendMemory
	cfg.Import.Merge = string(store.MergeOverwrite)
	cfg.Summary.PlannedIncome = "4500.50"

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, got.Storage.Backend)
	assert.Equal(t, store.MergeOverwrite, got.MergeMode())
	assert.Equal(t, cfg.Import.RulesFile, got.Import.RulesFile)
	assert.Equal(t, cfg.Server.Addr, got.Server.Addr)

	pi, err := got.PlannedIncome()
	require.NoError(t, err)
	assert.Equal(t, "4500.5", pi.String())
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "data/cashflow.db", cfg.Storage.SQLitePath)
	assert.Equal(t, store.MergeAccumulate, cfg.MergeMode())
	assert.Equal(t, "rules/classification-rules.yaml", cfg.Import.RulesFile)
	assert.Equal(t, "info", cfg.Log.Level)
	require.NoError(t, cfg.Validate())

	pi, err := cfg.PlannedIncome()
	require.NoError(t, err)
	assert.Equal(t, "6000", pi.String())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  backend: memory\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, "6000", cfg.Summary.PlannedIncome)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("CASHFLOW_STORAGE_BACKEND", BackendPostgres)
	t.Setenv("DATABASE_URL", "postgres://localhost/cashflow")
	t.Setenv("CASHFLOW_SQLITE_PATH", "/tmp/x.db")
	t.Setenv("CASHFLOW_LOG_LEVEL", "debug")

	cfg := Default()
	cfg.ApplyEnv()
	assert.Equal(t, BackendPostgres, cfg.Storage.Backend)
	assert.Equal(t, "postgres://localhost/cashflow", cfg.Storage.PostgresURL)
	assert.Equal(t, "/tmp/x.db", cfg.Storage.SQLitePath)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Storage.Backend = "redis"
	cfg.Import.Merge = "sum"
	cfg.Summary.PlannedIncome = "lots"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.backend")
	assert.Contains(t, err.Error(), "import.merge")
	assert.Contains(t, err.Error(), "planned_income")
}

func TestValidate_PostgresNeedsURL(t *testing.T) {
	cfg := Default()
	cfg.Storage.Backend = BackendPostgres
	assert.ErrorContains(t, cfg.Validate(), "postgres_url")
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "backend: sqlite")
	assert.Contains(t, contents, "merge: accumulate")
	assert.Contains(t, contents, `planned_income: "6000"`)
	assert.NotContains(t, contents, "postgres_url")
}

func TestResolve(t *testing.T) {
	assert.Equal(t, filepath.Join("/proj", "data/x.db"), Resolve("/proj", "data/x.db"))
	assert.Equal(t, "/abs/x.db", Resolve("/proj", "/abs/x.db"))
	assert.Equal(t, "", Resolve("/proj", ""))
}
