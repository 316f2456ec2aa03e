package runerr

import (
	"fmt"

	"github.com/palantir/stacktrace"
)

type ErrorType string

const (
	// ErrorTypeStructural aborts a run before any statement executes:
	// unreadable script, bad configuration, unreachable database.
	ErrorTypeStructural ErrorType = "STRUCTURAL_ERROR"
	// ErrorTypeStatement is a surfaced per-statement failure.
	ErrorTypeStatement ErrorType = "STATEMENT_ERROR"
	ErrorTypeUnknown   ErrorType = "UNKNOWN_ERROR"
)

type typed interface {
	ErrorType() ErrorType
}

// Structural is a fatal error raised while preparing a run.
type Structural struct {
	Phase  string
	Reason string
}

func (e Structural) Error() string {
	if e.Phase == "" {
		return e.Reason
	}
	return fmt.Sprintf("[%s]: %s", e.Phase, e.Reason)
}

func (e Structural) ErrorType() ErrorType {
	return ErrorTypeStructural
}

// Statements reports that a run finished with surfaced statement failures.
type Statements struct {
	Failed int
	Total  int
}

func (e Statements) Error() string {
	return fmt.Sprintf("%d of %d statements failed", e.Failed, e.Total)
}

func (e Statements) ErrorType() ErrorType {
	return ErrorTypeStatement
}

// NewStructural wraps err as a Structural error for phase, keeping a stack
// trace of where it was raised.
func NewStructural(phase string, err error) error {
	return stacktrace.Propagate(Structural{Phase: phase, Reason: err.Error()}, "%s failed", phase)
}

// GetErrorType returns the type of the root cause of err.
func GetErrorType(err error) ErrorType {
	if t, ok := stacktrace.RootCause(err).(typed); ok {
		return t.ErrorType()
	}
	return ErrorTypeUnknown
}

// IsStructural reports whether err aborted the run before execution.
func IsStructural(err error) bool {
	return GetErrorType(err) == ErrorTypeStructural
}

// GetRootCauseAndErrorType returns the message of the root cause of err and
// its type.
func GetRootCauseAndErrorType(err error) (string, ErrorType) {
	rootCause := stacktrace.RootCause(err)
	return rootCause.Error(), GetErrorType(err)
}
