package executor

import (
	"context"
	"database/sql"
	"time"

	"github.com/lockplane/sqlrunner/internal/log"
	"github.com/lockplane/sqlrunner/internal/script"
)

// Execer runs a single statement. *sql.DB, *sql.Conn and *sql.Tx
// implement it.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// State is the lifecycle position of one statement in a run.
// Succeeded, Suppressed and Failed are terminal.
type State int

const (
	Pending State = iota
	Executing
	Succeeded
	Suppressed
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Executing:
		return "executing"
	case Succeeded:
		return "succeeded"
	case Suppressed:
		return "suppressed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of one statement.
type Result struct {
	// Index is the 0-based position of the statement in the run.
	Index     int
	Statement script.Statement
	State     State
	// Code is the extracted error code when the statement failed.
	Code     string
	Err      error
	Duration time.Duration
}

// Reporter receives one Result per executed statement, in execution order.
type Reporter interface {
	Report(Result)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Result)

func (f ReporterFunc) Report(r Result) { f(r) }

// Aggregate is the binary outcome of a whole run.
type Aggregate int

const (
	Success Aggregate = iota
	Failure
)

func (a Aggregate) String() string {
	if a == Failure {
		return "failure"
	}
	return "success"
}

// Summary collects the results of a run.
type Summary struct {
	Results []Result
	Elapsed time.Duration
}

// Count returns how many results ended in state.
func (s Summary) Count(state State) int {
	n := 0
	for _, r := range s.Results {
		if r.State == state {
			n++
		}
	}
	return n
}

// Aggregate is Failure iff any statement Failed.
func (s Summary) Aggregate() Aggregate {
	if s.Count(Failed) > 0 {
		return Failure
	}
	return Success
}

// Option configures an Executor.
type Option func(*Executor)

// WithIgnorable sets the errors to suppress.
func WithIgnorable(set *IgnorableSet) Option {
	return func(e *Executor) { e.ignorable = set }
}

// WithReporter adds a reporter. Reporters are called in the order added.
func WithReporter(r Reporter) Option {
	return func(e *Executor) { e.reporters = append(e.reporters, r) }
}

// WithStatementTimeout bounds each statement. Zero means no bound.
func WithStatementTimeout(d time.Duration) Option {
	return func(e *Executor) { e.timeout = d }
}

// Executor runs normalized statements one at a time against a single
// connection it does not own.
type Executor struct {
	db        Execer
	ignorable *IgnorableSet
	reporters []Reporter
	timeout   time.Duration
}

// New creates an Executor for db.
func New(db Execer, opts ...Option) *Executor {
	e := &Executor{db: db}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes statements in order. A failed statement never stops the
// run; every statement is attempted and reported.
func (e *Executor) Run(ctx context.Context, statements []script.Statement) Summary {
	start := time.Now()
	summary := Summary{Results: make([]Result, 0, len(statements))}

	for i, stmt := range statements {
		result := e.execute(ctx, i, stmt)
		summary.Results = append(summary.Results, result)
		for _, r := range e.reporters {
			r.Report(result)
		}
	}

	summary.Elapsed = time.Since(start)
	return summary
}

func (e *Executor) execute(ctx context.Context, index int, stmt script.Statement) Result {
	result := Result{Index: index, Statement: stmt, State: Pending}

	execCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	log.Debugf("executing %s statement %d at line %d", stmt.Kind, index+1, stmt.Line)
	result.State = Executing
	started := time.Now()
	_, err := e.db.ExecContext(execCtx, stmt.Text)
	result.Duration = time.Since(started)

	if err == nil {
		result.State = Succeeded
		return result
	}

	result.Err = err
	code, ignorable := e.ignorable.Match(err)
	result.Code = code
	if ignorable {
		result.State = Suppressed
	} else {
		result.State = Failed
	}
	return result
}
