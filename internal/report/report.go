package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kyokomi/emoji"

	"github.com/lockplane/sqlrunner/internal/executor"
	"github.com/lockplane/sqlrunner/internal/log"
)

// PreviewLength is how much of a failing statement is echoed back.
const PreviewLength = 50

// Printer writes one human-readable report per statement and a final
// summary. It implements executor.Reporter.
type Printer struct {
	out     io.Writer
	total   int
	verbose bool
}

// NewPrinter creates a Printer for a run of total statements. Every
// statement gets one progress line; verbose mode adds a preview of the
// statement and its duration to succeeded ones.
func NewPrinter(out io.Writer, total int, verbose bool) *Printer {
	return &Printer{out: out, total: total, verbose: verbose}
}

// Report prints the outcome of one statement and logs failures with their
// error code.
func (p *Printer) Report(r executor.Result) {
	position := fmt.Sprintf("[%d/%d] line %d", r.Index+1, p.total, r.Statement.Line)

	switch r.State {
	case executor.Succeeded:
		if p.verbose {
			fmt.Fprintf(p.out, "%s %s: %s (%s)\n",
				emoji.Sprint(":white_check_mark:"), position, Preview(r.Statement.Text, PreviewLength), r.Duration.Round(time.Millisecond))
			return
		}
		fmt.Fprintf(p.out, "%s %s: ok\n", emoji.Sprint(":white_check_mark:"), position)
	case executor.Suppressed:
		log.InfoWithValues("statement error suppressed", map[string]interface{}{
			"line": r.Statement.Line,
			"code": r.Code,
		})
		fmt.Fprintf(p.out, "%s %s: ignored %s\n", emoji.Sprint(":fast_forward:"), position, r.Code)
	case executor.Failed:
		log.ErrorWithValues("statement failed", map[string]interface{}{
			"line":      r.Statement.Line,
			"code":      r.Code,
			"kind":      r.Statement.Kind.String(),
			"statement": Preview(r.Statement.Text, PreviewLength),
		})
		fmt.Fprintf(p.out, "%s Error executing command at line %d:\n%s\n   Reason: %v\n",
			emoji.Sprint(":x:"), r.Statement.Line, Preview(r.Statement.Text, PreviewLength), r.Err)
	}
}

// Summary prints the counts and the overall verdict of a run.
func (p *Printer) Summary(s executor.Summary) {
	fmt.Fprintf(p.out, "%d succeeded, %d suppressed, %d failed in %s\n",
		s.Count(executor.Succeeded), s.Count(executor.Suppressed), s.Count(executor.Failed), s.Elapsed.Round(time.Millisecond))

	if s.Aggregate() == executor.Failure {
		fmt.Fprintf(p.out, "%s Script finished with errors.\n", emoji.Sprint(":rotating_light:"))
		return
	}
	fmt.Fprintf(p.out, "%s SQL Script Executed Successfully.\n", emoji.Sprint(":white_check_mark:"))
}

// Preview returns the first n characters of text followed by "..." when
// text is longer.
func Preview(text string, n int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n]) + "..."
}
