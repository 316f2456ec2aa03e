package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/palantir/stacktrace"
	"github.com/spf13/cobra"

	"github.com/lockplane/sqlrunner/internal/config"
	"github.com/lockplane/sqlrunner/internal/database"
	"github.com/lockplane/sqlrunner/internal/executor"
	"github.com/lockplane/sqlrunner/internal/log"
	"github.com/lockplane/sqlrunner/internal/metrics"
	"github.com/lockplane/sqlrunner/internal/report"
	"github.com/lockplane/sqlrunner/internal/runerr"
	"github.com/lockplane/sqlrunner/internal/script"
)

var runCmd = &cobra.Command{
	Use:   "run <script.sql>",
	Short: "Execute a SQL script against the database",
	Long: `Execute a SQL script statement by statement.

Statements are separated by lines holding a single "/". PL/SQL blocks
(DECLARE, BEGIN, CREATE PROCEDURE/PACKAGE/FUNCTION/TRIGGER) keep their
trailing semicolon; plain SQL statements have it removed.

Every statement is attempted even after a failure. Errors listed as
ignorable (for example "table or view does not exist" during cleanup) are
reported but do not fail the run.`,
	Example: `  # Run against the default environment in sqlrunner.toml
  sqlrunner run sql/01_setup.sql

  # Run against another environment and also ignore ORA-01418
  sqlrunner run --env ci --ignore ORA-01418 sql/99_cleanup.sql`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScript(cmd.Context(), cmd.OutOrStdout(), args[0], runOpts)
	},
}

type runOptions struct {
	databaseURL      string
	driver           string
	ignore           []string
	errorMatch       string
	statementTimeout time.Duration
	metricsFile      string
	verbose          bool
}

var runOpts runOptions

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runOpts.databaseURL, "database-url", "", "Connection string, overrides the environment")
	runCmd.Flags().StringVar(&runOpts.driver, "driver", "", "Database driver: oracle, postgres, sqlite, libsql or mysql (detected from the URL when omitted)")
	runCmd.Flags().StringSliceVar(&runOpts.ignore, "ignore", nil, "Additional ignorable error codes")
	runCmd.Flags().StringVar(&runOpts.errorMatch, "error-match", "", `How ignorable errors match: "code" or "substring"`)
	runCmd.Flags().DurationVar(&runOpts.statementTimeout, "statement-timeout", 0, "Maximum time per statement (0 for none)")
	runCmd.Flags().StringVar(&runOpts.metricsFile, "metrics-file", "", "Write prometheus metrics to this file after the run")
	runCmd.Flags().BoolVarP(&runOpts.verbose, "verbose", "v", false, "Show a preview and the duration of every succeeded statement")
}

// runScript executes the script at path. Configuration, file and
// connection problems abort before any statement runs; statement
// failures are collected and returned as one error after the run.
func runScript(ctx context.Context, out io.Writer, path string, opts runOptions) error {
	fmt.Fprintf(out, "--- Running SQL Script: %s ---\n", path)

	cfg, err := loadConfig()
	if err != nil {
		return runerr.NewStructural("load config", err)
	}
	env, err := config.ResolveEnvironment(cfg, envName)
	if err != nil {
		return runerr.NewStructural("resolve environment", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return runerr.NewStructural("read script", err)
	}
	statements := script.Parse(string(content))
	log.Infof("parsed %d statements from %s", len(statements), path)

	ignorable, err := buildIgnorableSet(env, opts)
	if err != nil {
		return runerr.NewStructural("configure", err)
	}

	connCfg, err := connectionConfig(env, opts)
	if err != nil {
		return runerr.NewStructural("configure", err)
	}
	session, err := database.Open(ctx, connCfg)
	if err != nil {
		return runerr.NewStructural("connect", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warnf("failed to close connection: %v", err)
		}
	}()
	log.Infof("connected to %s database (environment %q)", session.Type, env.Name)

	timeout := env.StatementTimeout
	if opts.statementTimeout > 0 {
		timeout = opts.statementTimeout
	}

	printer := report.NewPrinter(out, len(statements), opts.verbose)
	recorder := metrics.NewRecorder()
	ex := executor.New(session,
		executor.WithIgnorable(ignorable),
		executor.WithStatementTimeout(timeout),
		executor.WithReporter(printer),
		executor.WithReporter(recorder),
	)

	summary := ex.Run(ctx, statements)
	printer.Summary(summary)
	recorder.Finish(summary)

	if opts.metricsFile != "" {
		if err := recorder.WriteTextfile(opts.metricsFile); err != nil {
			log.Warnf("%v", err)
		}
	}

	if summary.Aggregate() == executor.Failure {
		return stacktrace.Propagate(runerr.Statements{
			Failed: summary.Count(executor.Failed),
			Total:  len(summary.Results),
		}, "script %s finished with errors", path)
	}
	return nil
}

func buildIgnorableSet(env *config.ResolvedEnvironment, opts runOptions) (*executor.IgnorableSet, error) {
	matchSetting := env.ErrorMatch
	if opts.errorMatch != "" {
		matchSetting = opts.errorMatch
	}
	mode, err := executor.ParseMatchMode(matchSetting)
	if err != nil {
		return nil, err
	}

	entries := env.IgnorableErrors
	if len(entries) == 0 {
		entries = executor.DefaultIgnorableCodes
	}
	entries = append(append([]string(nil), entries...), opts.ignore...)

	return executor.NewIgnorableSet(entries, mode), nil
}

func connectionConfig(env *config.ResolvedEnvironment, opts runOptions) (database.ConnectionConfig, error) {
	cfg := database.ConnectionConfig{
		URL:       env.DatabaseURL,
		User:      env.User,
		Password:  env.Password,
		OracleDSN: env.OracleDSN,
	}
	if opts.databaseURL != "" {
		cfg.URL = opts.databaseURL
	}

	driver := env.Driver
	if opts.driver != "" {
		driver = opts.driver
	}
	if driver != "" {
		dbType, err := database.ParseDatabaseType(driver)
		if err != nil {
			return database.ConnectionConfig{}, err
		}
		cfg.DatabaseType = dbType
	}
	return cfg, nil
}
