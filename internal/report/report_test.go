package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/lockplane/sqlrunner/internal/executor"
	"github.com/lockplane/sqlrunner/internal/script"
)

func result(index int, state executor.State, text string) executor.Result {
	return executor.Result{
		Index:     index,
		Statement: script.Statement{Text: text, Kind: script.Simple, Line: index*3 + 1},
		State:     state,
	}
}

func TestPrinterReportsFailureWithPreview(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, 3, false)

	long := "INSERT INTO sales (trans_id, cust_name, cust_email) VALUES (1, 'Ada', 'invalid_email')"
	r := result(1, executor.Failed, long)
	r.Code = "ORA-02290"
	r.Err = errors.New("ORA-02290: check constraint violated")
	p.Report(r)

	out := buf.String()
	assert.Contains(t, out, "Error executing command at line 4:")
	assert.Contains(t, out, long[:PreviewLength]+"...")
	assert.NotContains(t, out, "invalid_email")
	assert.Contains(t, out, "Reason: ORA-02290: check constraint violated")
}

func TestPrinterReportsEveryStatementByDefault(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, 2, false)

	p.Report(result(0, executor.Succeeded, "SELECT 1 FROM DUAL"))
	r := result(1, executor.Suppressed, "DROP TABLE t")
	r.Code = "ORA-00942"
	p.Report(r)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[1/2] line 1: ok")
	assert.NotContains(t, lines[0], "SELECT")
	assert.Contains(t, lines[1], "[2/2] line 4: ignored ORA-00942")
}

func TestPrinterVerboseShowsEveryStatement(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, 2, true)

	p.Report(result(0, executor.Succeeded, "SELECT 1 FROM DUAL"))
	r := result(1, executor.Suppressed, "DROP TABLE t")
	r.Code = "ORA-00942"
	p.Report(r)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[1/2] line 1: SELECT 1 FROM DUAL")
	assert.Contains(t, lines[1], "[2/2] line 4: ignored ORA-00942")
}

func TestPrinterSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, 3, false)

	p.Summary(executor.Summary{
		Results: []executor.Result{
			result(0, executor.Succeeded, "a"),
			result(1, executor.Suppressed, "b"),
			result(2, executor.Succeeded, "c"),
		},
		Elapsed: 1500 * time.Millisecond,
	})
	assert.Contains(t, buf.String(), "2 succeeded, 1 suppressed, 0 failed in 1.5s")
	assert.Contains(t, buf.String(), "SQL Script Executed Successfully.")

	buf.Reset()
	p.Summary(executor.Summary{Results: []executor.Result{result(0, executor.Failed, "a")}})
	assert.Contains(t, buf.String(), "Script finished with errors.")
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview("  short \n", 10))
	assert.Equal(t, "abcde...", Preview("abcdefgh", 5))
	assert.Equal(t, "héllo...", Preview("héllo wörld", 5))
}
