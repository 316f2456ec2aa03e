package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lockplane/sqlrunner/internal/config"
	"github.com/lockplane/sqlrunner/internal/executor"
	"github.com/lockplane/sqlrunner/internal/runerr"
	"github.com/lockplane/sqlrunner/internal/script"
)

const sqliteConfig = `default_environment = "test"
error_match = "substring"
ignorable_errors = ["no such table", "already exists"]

[environments.test]
database_url = ":memory:"
`

// setupRun writes a config and a script into a temp dir and points the
// command at the config.
func setupRun(t *testing.T, scriptText string) string {
	t.Helper()

	for _, key := range []string{"DATABASE_URL", "DB_DRIVER", "DB_USER", "DB_PASS", "ORACLE_DSN"} {
		t.Setenv(key, "")
	}

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, config.FileName)
	require.NoError(t, os.WriteFile(cfgPath, []byte(sqliteConfig), 0o600))
	scriptPath := filepath.Join(dir, "script.sql")
	require.NoError(t, os.WriteFile(scriptPath, []byte(scriptText), 0o600))

	originalConfig, originalEnv := configPath, envName
	configPath, envName = cfgPath, ""
	t.Cleanup(func() { configPath, envName = originalConfig, originalEnv })

	return scriptPath
}

func TestRunScriptSuccess(t *testing.T) {
	scriptPath := setupRun(t, `-- idempotent setup
DROP TABLE sales;
/
CREATE TABLE sales (id INTEGER, path TEXT DEFAULT '/data');
/
INSERT INTO sales (id) VALUES (1);
/
`)
	var out bytes.Buffer

	err := runScript(context.Background(), &out, scriptPath, runOptions{verbose: true})

	require.NoError(t, err)
	assert.Contains(t, out.String(), "--- Running SQL Script: "+scriptPath+" ---")
	assert.Contains(t, out.String(), "ignored")
	assert.Contains(t, out.String(), "2 succeeded, 1 suppressed, 0 failed")
	assert.Contains(t, out.String(), "SQL Script Executed Successfully.")
}

func TestRunScriptReportsEveryFailure(t *testing.T) {
	scriptPath := setupRun(t, `CREATE TABLE sales (id INTEGER);
/
INSERT INTO sales (id) VALUES (1, 2);
/
INSERT INTO sales (id, missing) VALUES (2, 3);
/
INSERT INTO sales (id) VALUES (3);
/
`)
	var out bytes.Buffer
	metricsPath := filepath.Join(t.TempDir(), "run.prom")

	err := runScript(context.Background(), &out, scriptPath, runOptions{metricsFile: metricsPath})

	require.Error(t, err)
	assert.Equal(t, runerr.ErrorTypeStatement, runerr.GetErrorType(err))
	reason, _ := runerr.GetRootCauseAndErrorType(err)
	assert.Equal(t, "2 of 4 statements failed", reason)

	assert.Equal(t, 2, strings.Count(out.String(), "Error executing command"))
	assert.Contains(t, out.String(), "at line 3:")
	assert.Contains(t, out.String(), "at line 5:")
	assert.Contains(t, out.String(), "Script finished with errors.")

	data, readErr := os.ReadFile(metricsPath)
	require.NoError(t, readErr)
	assert.Contains(t, string(data), `sqlrunner_statements_total{kind="simple",outcome="failed"} 2`)
}

func TestRunScriptMissingFileIsStructural(t *testing.T) {
	setupRun(t, "SELECT 1;")

	err := runScript(context.Background(), &bytes.Buffer{}, filepath.Join(t.TempDir(), "missing.sql"), runOptions{})

	require.Error(t, err)
	assert.True(t, runerr.IsStructural(err))
}

func TestRunScriptBadConnectionIsStructural(t *testing.T) {
	scriptPath := setupRun(t, "SELECT 1;")

	err := runScript(context.Background(), &bytes.Buffer{}, scriptPath, runOptions{
		databaseURL: filepath.Join(t.TempDir(), "nope.db"),
	})

	require.Error(t, err)
	assert.True(t, runerr.IsStructural(err))
	reason, _ := runerr.GetRootCauseAndErrorType(err)
	assert.Contains(t, reason, "[connect]")
}

func TestRunScriptBadMatchModeIsStructural(t *testing.T) {
	scriptPath := setupRun(t, "SELECT 1;")

	err := runScript(context.Background(), &bytes.Buffer{}, scriptPath, runOptions{errorMatch: "regex"})

	assert.True(t, runerr.IsStructural(err))
}

func TestBuildIgnorableSet(t *testing.T) {
	set, err := buildIgnorableSet(&config.ResolvedEnvironment{}, runOptions{ignore: []string{"ORA-01418"}})
	require.NoError(t, err)
	assert.Equal(t, executor.MatchCode, set.Mode())
	assert.Equal(t, append(append([]string(nil), executor.DefaultIgnorableCodes...), "ORA-01418"), set.Entries())

	set, err = buildIgnorableSet(&config.ResolvedEnvironment{
		IgnorableErrors: []string{"ORA-00942"},
		ErrorMatch:      "code",
	}, runOptions{errorMatch: "substring"})
	require.NoError(t, err)
	assert.Equal(t, executor.MatchSubstring, set.Mode())
	assert.Equal(t, []string{"ORA-00942"}, set.Entries())
}

func TestConnectionConfig(t *testing.T) {
	env := &config.ResolvedEnvironment{
		Driver:    "oracle",
		User:      "RETAIL_DW",
		Password:  "pw",
		OracleDSN: "oracle-db:1521/xepdb1",
	}

	cfg, err := connectionConfig(env, runOptions{})
	require.NoError(t, err)
	assert.Equal(t, "oracle", string(cfg.DatabaseType))
	assert.Equal(t, "oracle-db:1521/xepdb1", cfg.OracleDSN)

	cfg, err = connectionConfig(env, runOptions{driver: "postgres", databaseURL: "postgres://localhost/app"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", string(cfg.DatabaseType))
	assert.Equal(t, "postgres://localhost/app", cfg.URL)

	_, err = connectionConfig(env, runOptions{driver: "db2"})
	assert.Error(t, err)
}

func TestPrintPlan(t *testing.T) {
	var out bytes.Buffer
	printPlan(&out, script.Parse("BEGIN\n  NULL;\nEND\n/\nCREATE TABLE t (id NUMBER);\n"))

	assert.Equal(t, `-- [1/2] line 1, procedural
BEGIN
  NULL;
END;
/
-- [2/2] line 5, simple
CREATE TABLE t (id NUMBER)
/
-- 2 statements
`, out.String())
}
