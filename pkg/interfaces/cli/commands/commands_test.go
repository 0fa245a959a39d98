package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copropiedad/ledger/pkg/domain/entities"
)

// runCLI executes one copro invocation against the SQLite database in dir
func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	for _, key := range []string{"COPRO_STORE", "COPRO_DB_PATH", "COPRO_LOG_LEVEL", "COPRO_LOG_FORMAT", "COPRO_CURRENCY"} {
		t.Setenv(key, "")
	}

	var out bytes.Buffer
	cli := NewCLI(&out)
	root := cli.Command()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{
		"--config", filepath.Join(dir, "copro.yaml"),
		"--db", filepath.Join(dir, "copro.db"),
		"--currency", "EUR",
	}, args...))

	err := root.ExecuteContext(context.Background())
	require.NoError(t, cli.close())
	return out.String(), err
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := runCLI(t, dir, args...)
	require.NoError(t, err, "copro %s", strings.Join(args, " "))
	return out
}

func TestPropertyLifecycle(t *testing.T) {
	dir := t.TempDir()

	out := mustRun(t, dir, "property", "create", "--id", "villa", "--name", "Villa Mar", "--total-price", "100.01", "--city", "Nerja")
	assert.Contains(t, out, "Villa Mar (villa)")
	assert.Contains(t, out, "25.01 EUR")
	assert.Contains(t, out, "2nd half of August")

	for _, share := range []string{"1", "2", "3"} {
		mustRun(t, dir, "property", "set-status", "villa", share, "sold")
	}
	out = mustRun(t, dir, "property", "show", "villa", "--format", "json")
	var view struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "available", view.Status)

	mustRun(t, dir, "property", "set-status", "villa", "4", "vendida")
	out = mustRun(t, dir, "property", "list", "--status", "sold")
	assert.Contains(t, out, "villa")
	assert.Contains(t, out, "0/0/4")

	out = mustRun(t, dir, "property", "history", "villa")
	assert.Contains(t, out, "property.created")
	assert.Contains(t, out, "share.status_changed")

	mustRun(t, dir, "property", "delete", "villa")
	_, err := runCLI(t, dir, "property", "show", "villa")
	assert.ErrorIs(t, err, entities.ErrPropertyNotFound)
}

func TestPropertyUpdateKeepsSharePrices(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "property", "create", "--id", "casa", "--name", "Casa", "--total-price", "100.00")
	mustRun(t, dir, "property", "set-price", "casa", "1", "40")

	out := mustRun(t, dir, "property", "update", "casa", "--name", "Casa Azul", "--total-price", "200", "--format", "csv")
	assert.Contains(t, out, "1,1st half of July,available,40.00")

	out = mustRun(t, dir, "property", "show", "casa")
	assert.Contains(t, out, "Casa Azul")
	assert.Contains(t, out, "200.00 EUR")
}

func TestRepriceRequiresConfirmation(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "property", "create", "--id", "casa", "--name", "Casa", "--total-price", "100.00")
	mustRun(t, dir, "property", "set-price", "casa", "1", "40")

	_, err := runCLI(t, dir, "property", "reprice", "casa")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")

	out := mustRun(t, dir, "property", "reprice", "casa", "--total-price", "100.03", "--yes", "--format", "csv")
	assert.Contains(t, out, "1,1st half of July,available,25.00")
	assert.Contains(t, out, "4,2nd half of August,available,25.01")
}

func TestInvalidShareNumber(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "property", "create", "--id", "casa", "--name", "Casa", "--total-price", "100")

	_, err := runCLI(t, dir, "property", "set-status", "casa", "5", "sold")
	assert.ErrorIs(t, err, entities.ErrInvalidShareNumber)

	_, err = runCLI(t, dir, "property", "set-status", "casa", "1", "rented")
	assert.ErrorIs(t, err, entities.ErrInvalidShareStatus)
}

func TestOwnerAssignment(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "property", "create", "--id", "casa", "--name", "Casa", "--total-price", "100.00")
	mustRun(t, dir, "owner", "create", "--id", "ana", "--first-name", "Ana", "--last-names", "Ruiz Vidal", "--email", "ana@example.com")
	mustRun(t, dir, "owner", "create", "--id", "luis", "--first-name", "Luis", "--last-names", "Torres", "--email", "luis@example.com")

	out := mustRun(t, dir, "owner", "assign", "ana", "casa", "2")
	assert.Contains(t, out, "Owner ana holds share 2 (2nd half of July) of casa for 25.00 EUR")

	_, err := runCLI(t, dir, "owner", "assign", "luis", "casa", "2")
	require.ErrorIs(t, err, entities.ErrShareAlreadyAssigned)
	assert.Contains(t, FormatError(err), "this share is already assigned to another owner")
	assert.Equal(t, 1, ExitCode(err))

	out = mustRun(t, dir, "owner", "assign", "ana", "casa", "2", "--purchase-price", "30")
	assert.Contains(t, out, "30.00 EUR")

	out = mustRun(t, dir, "property", "show", "casa")
	assert.Contains(t, out, "Ana Ruiz Vidal")

	out = mustRun(t, dir, "owner", "clear", "ana")
	assert.Contains(t, out, "Released 1 share(s) held by ana")
	mustRun(t, dir, "owner", "assign", "luis", "casa", "2")

	mustRun(t, dir, "owner", "delete", "luis")
	out = mustRun(t, dir, "owner", "list")
	assert.Contains(t, out, "ana")
	assert.NotContains(t, out, "luis")
}

func TestAgentAndCommissions(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "agent", "create", "--id", "eva", "--name", "Eva Navarro", "--email", "eva@example.com")
	mustRun(t, dir, "property", "create", "--id", "villa", "--name", "Villa", "--total-price", "100000",
		"--agent", "eva", "--commission", "3")

	out := mustRun(t, dir, "commission", "list", "--format", "csv")
	assert.Contains(t, out, "villa,Villa,eva,Eva Navarro,100000.00,3.00,pending,3000.00")

	mustRun(t, dir, "commission", "mark", "villa", "paid")
	out = mustRun(t, dir, "commission", "list")
	assert.Contains(t, out, "Paid:    3000.00 EUR")

	mustRun(t, dir, "commission", "toggle", "villa")
	out = mustRun(t, dir, "commission", "list")
	assert.Contains(t, out, "Pending: 3000.00 EUR")

	_, err := runCLI(t, dir, "commission", "set", "villa", "7")
	assert.ErrorIs(t, err, entities.ErrInvalidCommission)

	_, err = runCLI(t, dir, "agent", "delete", "eva")
	assert.ErrorIs(t, err, entities.ErrAgentInUse)

	out = mustRun(t, dir, "agent", "show", "eva", "--properties")
	assert.Contains(t, out, "villa")
}

func TestStatsOnMemoryStore(t *testing.T) {
	dir := t.TempDir()
	out := mustRun(t, dir, "--store", "memory", "stats", "--format", "json")

	var summary map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.EqualValues(t, 0, summary["total_properties"])
	_, err := os.Stat(filepath.Join(dir, "copro.db"))
	assert.True(t, os.IsNotExist(err), "memory store must not create a database")
}

func TestGenerateThenImport(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "demo")

	mustRun(t, dir, "generate", "--dir", data, "--properties", "5", "--owners", "4", "--agents", "2",
		"--occupancy", "1", "--seed", "42")
	for _, name := range []string{agentsFile, ownersFile, propertiesFile, assignmentsFile} {
		assert.FileExists(t, filepath.Join(data, name))
	}

	out := mustRun(t, dir, "import", "--dir", data, "--format", "json")
	var result map[string]int
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, map[string]int{"agents": 2, "owners": 4, "properties": 5, "assignments": 20}, result)

	out = mustRun(t, dir, "stats", "--format", "csv")
	assert.Contains(t, out, "properties,5\n")
	assert.Contains(t, out, "assignments,20\n")
}

func TestImportRequiresFiles(t *testing.T) {
	_, err := runCLI(t, t.TempDir(), "import")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to import")
}

func TestExportRoundTrip(t *testing.T) {
	src := t.TempDir()
	mustRun(t, src, "agent", "create", "--id", "eva", "--name", "Eva", "--email", "eva@example.com")
	mustRun(t, src, "owner", "create", "--id", "ana", "--first-name", "Ana", "--last-names", "Ruiz", "--email", "ana@example.com")
	mustRun(t, src, "property", "create", "--id", "p1", "--name", "First", "--total-price", "400", "--agent", "eva")
	mustRun(t, src, "property", "create", "--id", "p2", "--name", "Second", "--total-price", "800")
	mustRun(t, src, "owner", "assign", "ana", "p2", "3", "--purchase-price", "150")

	exportDir := filepath.Join(src, "export")
	out := mustRun(t, src, "export", "--dir", exportDir)
	assert.Contains(t, out, "Exported 1 agents, 1 owners, 2 properties, 1 assignments")

	dst := t.TempDir()
	mustRun(t, dst, "import", "--dir", exportDir)

	out = mustRun(t, dst, "owner", "show", "ana")
	assert.Contains(t, out, "Second")
	assert.Contains(t, out, "150.00 EUR")

	out = mustRun(t, dst, "property", "list", "--agent", "eva")
	assert.Contains(t, out, "p1")
	assert.NotContains(t, out, "p2")
}

func TestCalendarToFile(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "property", "create", "--id", "casa", "--name", "Casa", "--total-price", "100")

	path := filepath.Join(dir, "out", "calendar.svg")
	mustRun(t, dir, "calendar", "--output", path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<svg"))
	assert.Contains(t, string(data), "Casa")
}

func TestReport(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "property", "create", "--id", "casa", "--name", "Casa", "--total-price", "100")

	out := mustRun(t, dir, "report")
	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, "100.00 EUR")
}

func TestConfigInitAndShow(t *testing.T) {
	dir := t.TempDir()

	out := mustRun(t, dir, "config", "init")
	assert.Contains(t, out, "Wrote default configuration")
	assert.FileExists(t, filepath.Join(dir, "copro.yaml"))

	_, err := runCLI(t, dir, "config", "init")
	assert.Error(t, err)

	out = mustRun(t, dir, "config", "show")
	assert.Contains(t, out, "backend: sqlite")
	assert.Contains(t, out, "currency: EUR")
}

func TestInvalidFormat(t *testing.T) {
	_, err := runCLI(t, t.TempDir(), "stats", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(errors.New("boom")))

	retryable := entities.NewPersistenceError("save property", errors.New("database is locked"))
	assert.Equal(t, ExitRetryable, ExitCode(retryable))
	assert.Contains(t, FormatError(retryable), "Please try again")
}

func TestInvoiceLifecycle(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "property", "create", "--id", "casa", "--name", "Casa", "--total-price", "400.00")
	mustRun(t, dir, "owner", "create", "--id", "ana", "--first-name", "Ana", "--last-names", "Ruiz Vidal", "--email", "ana@example.com")
	mustRun(t, dir, "owner", "create", "--id", "luis", "--first-name", "Luis", "--last-names", "Torres", "--email", "luis@example.com")
	mustRun(t, dir, "owner", "assign", "ana", "casa", "1")

	_, err := runCLI(t, dir, "invoice", "create", "--owner", "luis", "--property", "casa", "--amount", "10")
	assert.ErrorIs(t, err, entities.ErrOwnerNotShareholder)

	out := mustRun(t, dir, "invoice", "create", "--id", "inv-1", "--number", "INV-202407-1",
		"--owner", "ana", "--property", "casa", "--amount", "85.40", "--date", "2024-07-05")
	assert.Contains(t, out, "Invoice INV-202407-1 (inv-1)")
	assert.Contains(t, out, "Ana Ruiz Vidal")
	assert.Contains(t, out, "85.40 EUR")
	assert.Contains(t, out, "Period:   2024-07")
	assert.Contains(t, out, "common_expenses")

	mustRun(t, dir, "invoice", "create", "--id", "inv-2", "--number", "INV-202408-1", "--owner", "ana",
		"--property", "casa", "--amount", "40", "--date", "2024-08-05", "--type", "management")

	_, err = runCLI(t, dir, "invoice", "create", "--number", "INV-202407-1", "--owner", "ana", "--property", "casa", "--amount", "1")
	assert.ErrorIs(t, err, entities.ErrDuplicateInvoice)

	out = mustRun(t, dir, "invoice", "mark", "inv-1", "--bank", "sent", "--payment", "paid")
	assert.Contains(t, out, "Bank:     sent")
	assert.Contains(t, out, "Payment:  paid")

	_, err = runCLI(t, dir, "invoice", "mark", "inv-1", "--payment", "sent")
	assert.ErrorIs(t, err, entities.ErrInvalidInvoice)

	out = mustRun(t, dir, "invoice", "list")
	assert.Less(t, strings.Index(out, "INV-202408-1"), strings.Index(out, "INV-202407-1"))
	assert.Contains(t, out, "Paid:        85.40 EUR")
	assert.Contains(t, out, "Outstanding: 40.00 EUR")

	out = mustRun(t, dir, "invoice", "list", "--payment", "pending", "--format", "csv")
	assert.Contains(t, out, "inv-2,INV-202408-1,ana,casa,2024-08-05,2024,8,40.00,management_expenses,pending,pending,")
	assert.NotContains(t, out, "inv-1")

	out = mustRun(t, dir, "invoice", "history", "inv-1")
	assert.Contains(t, out, "invoice.status_changed")

	mustRun(t, dir, "invoice", "delete", "inv-2")
	_, err = runCLI(t, dir, "invoice", "show", "inv-2")
	assert.ErrorIs(t, err, entities.ErrInvoiceNotFound)
}
