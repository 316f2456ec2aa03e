package script

import (
	"regexp"
	"strings"
)

// Kind is the execution class of a statement.
type Kind int

const (
	// Simple is a single SQL statement, sent without a trailing terminator.
	Simple Kind = iota
	// Procedural is a PL/SQL unit compiled as a whole, sent with its
	// trailing terminator.
	Procedural
)

func (k Kind) String() string {
	switch k {
	case Procedural:
		return "procedural"
	default:
		return "simple"
	}
}

const (
	lineComment  = "--"
	blockOpen    = "/*"
	blockClose   = "*/"
	terminator   = ";"
	createToken  = "CREATE"
	declareToken = "DECLARE"
	beginToken   = "BEGIN"
)

// storedUnitPattern finds the object kinds that turn a CREATE into a
// PL/SQL unit.
var storedUnitPattern = regexp.MustCompile(`(?i)\b(PROCEDURE|PACKAGE|FUNCTION|TRIGGER)\b`)

// Statement is a normalized fragment ready to hand to a driver.
type Statement struct {
	Text string
	Kind Kind
	Line int
}

// LeadToken returns the upper-cased first word of text, skipping blank
// lines, "--" comment lines and leading /* */ comments. It returns "" when
// text holds nothing but comments and whitespace, or when a /* comment is
// never closed.
func LeadToken(text string) string {
	code, _ := scanCode(text)
	if code == "" {
		return ""
	}
	return strings.ToUpper(strings.Fields(code)[0])
}

// scanCode returns the first line of real code in text, with any comment
// before it on that line removed. unclosed reports that text ended inside
// a /* comment.
func scanCode(text string) (code string, unclosed bool) {
	inBlock := false
	for _, line := range strings.Split(text, "\n") {
		s := strings.TrimSpace(line)
		for s != "" {
			if inBlock {
				end := strings.Index(s, blockClose)
				if end < 0 {
					s = ""
					break
				}
				inBlock = false
				s = strings.TrimSpace(s[end+len(blockClose):])
				continue
			}
			if strings.HasPrefix(s, lineComment) {
				s = ""
				break
			}
			if strings.HasPrefix(s, blockOpen) {
				inBlock = true
				s = s[len(blockOpen):]
				continue
			}
			return s, false
		}
	}
	return "", inBlock
}

// hasCode reports whether text must be sent to the driver. Text inside an
// unclosed /* comment counts as code so the database reports it.
func hasCode(text string) bool {
	code, unclosed := scanCode(text)
	return code != "" || unclosed
}

// Classify decides whether text is a procedural block. DECLARE and BEGIN
// lead tokens are procedural; a CREATE is procedural when it defines a
// procedure, package, function or trigger. Everything else is Simple.
func Classify(text string) Kind {
	switch LeadToken(text) {
	case declareToken, beginToken:
		return Procedural
	case createToken:
		if storedUnitPattern.MatchString(text) {
			return Procedural
		}
	}
	return Simple
}

// Normalize trims text and adjusts its terminator for kind: procedural
// blocks gain a trailing ";" if missing, simple statements lose one.
// Normalizing an already normalized statement returns it unchanged.
func Normalize(text string, kind Kind) string {
	clean := strings.TrimSpace(text)

	if kind == Procedural {
		if !strings.HasSuffix(clean, terminator) {
			clean += terminator
		}
		return clean
	}

	if strings.HasSuffix(clean, terminator) {
		clean = strings.TrimSpace(clean[:len(clean)-len(terminator)])
	}
	return clean
}

// ClassifyAndNormalize classifies f and returns its normalized statement.
func ClassifyAndNormalize(f Fragment) Statement {
	kind := Classify(f.Text)
	return Statement{
		Text: Normalize(f.Text, kind),
		Kind: kind,
		Line: f.Line,
	}
}

// Parse splits script and normalizes every fragment that holds code, in
// script order. Fragments left without code after normalization, such as a
// lone ";", are dropped.
func Parse(script string) []Statement {
	var statements []Statement
	for _, f := range Split(script) {
		if !hasCode(f.Text) {
			continue
		}
		stmt := ClassifyAndNormalize(f)
		if !hasCode(stmt.Text) {
			continue
		}
		statements = append(statements, stmt)
	}
	return statements
}
