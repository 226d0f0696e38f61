package commands_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/gigledger/cashflow/internal/commands"
)

// runCashflow executes the root command in-process and returns its
// combined stdout and stderr.
func runCashflow(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CASHFLOW_STORAGE_BACKEND", "")
	t.Setenv("CASHFLOW_SQLITE_PATH", "")
	t.Setenv("CASHFLOW_LOG_LEVEL", "")

	cmd := commands.NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}
