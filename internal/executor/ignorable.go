package executor

import (
	"strings"

	"github.com/pkg/errors"
)

// MatchMode selects how the ignorable set is tested against an error.
type MatchMode string

const (
	// MatchCode compares the extracted error code for exact membership.
	MatchCode MatchMode = "code"
	// MatchSubstring looks for any entry anywhere in the error message.
	MatchSubstring MatchMode = "substring"
)

// DefaultIgnorableCodes are errors that mean an object is already absent
// or already present, the expected failures of re-runnable setup and
// cleanup scripts.
var DefaultIgnorableCodes = []string{
	"ORA-00942", // table or view does not exist
	"ORA-02289", // sequence does not exist
	"ORA-04043", // object does not exist
	"ORA-00955", // name is already used by an existing object
	"ORA-04080", // trigger does not exist
	"42P01",     // undefined_table
	"42P07",     // duplicate_table
	"42704",     // undefined_object
	"42710",     // duplicate_object
}

// ParseMatchMode parses a configured match mode. An empty string means
// MatchCode.
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", MatchCode:
		return MatchCode, nil
	case MatchSubstring:
		return MatchSubstring, nil
	default:
		return "", errors.Errorf("unknown error match mode %q, expected %q or %q", s, MatchCode, MatchSubstring)
	}
}

// IgnorableSet is the fixed collection of error codes whose failures are
// suppressed. A nil set ignores nothing.
type IgnorableSet struct {
	mode    MatchMode
	entries []string
	codes   map[string]struct{}
}

// NewIgnorableSet builds a set from entries. Blank entries are skipped.
func NewIgnorableSet(entries []string, mode MatchMode) *IgnorableSet {
	s := &IgnorableSet{
		mode:  mode,
		codes: make(map[string]struct{}, len(entries)),
	}
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		s.entries = append(s.entries, e)
		s.codes[strings.ToUpper(e)] = struct{}{}
	}
	return s
}

// Entries returns the configured entries in order.
func (s *IgnorableSet) Entries() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.entries...)
}

// Mode returns the match mode of the set.
func (s *IgnorableSet) Mode() MatchMode {
	if s == nil {
		return MatchCode
	}
	return s.mode
}

// Match returns the error code of err and whether err should be
// suppressed. In substring mode the returned code falls back to the
// matched entry when the error has no extractable code.
func (s *IgnorableSet) Match(err error) (string, bool) {
	code := ErrorCode(err)
	if s == nil || err == nil {
		return code, false
	}

	if s.mode == MatchSubstring {
		msg := err.Error()
		for _, e := range s.entries {
			if strings.Contains(msg, e) {
				if code == "" {
					code = e
				}
				return code, true
			}
		}
		return code, false
	}

	if code == "" {
		return "", false
	}
	_, ok := s.codes[strings.ToUpper(code)]
	return code, ok
}
