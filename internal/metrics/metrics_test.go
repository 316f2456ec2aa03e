package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lockplane/sqlrunner/internal/executor"
	"github.com/lockplane/sqlrunner/internal/script"
)

func TestRecorderCountsOutcomes(t *testing.T) {
	r := NewRecorder()

	r.Report(executor.Result{State: executor.Succeeded, Statement: script.Statement{Kind: script.Simple}, Duration: time.Millisecond})
	r.Report(executor.Result{State: executor.Succeeded, Statement: script.Statement{Kind: script.Procedural}})
	r.Report(executor.Result{State: executor.Suppressed, Statement: script.Statement{Kind: script.Simple}})
	r.Report(executor.Result{State: executor.Failed, Statement: script.Statement{Kind: script.Simple}})

	assert.Equal(t, 1.0, testutil.ToFloat64(r.statements.WithLabelValues("succeeded", "simple")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.statements.WithLabelValues("succeeded", "procedural")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.statements.WithLabelValues("suppressed", "simple")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.statements.WithLabelValues("failed", "simple")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.statements.WithLabelValues("failed", "procedural")))
	assert.Equal(t, 6, testutil.CollectAndCount(r.statements))
}

func TestRecorderFinish(t *testing.T) {
	r := NewRecorder()

	r.Finish(executor.Summary{Results: []executor.Result{{State: executor.Suppressed}}})
	assert.Equal(t, 1.0, testutil.ToFloat64(r.lastRun))

	r.Finish(executor.Summary{Results: []executor.Result{{State: executor.Failed}}})
	assert.Equal(t, 0.0, testutil.ToFloat64(r.lastRun))
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.Report(executor.Result{State: executor.Failed, Statement: script.Statement{Kind: script.Procedural}})
	r.Finish(executor.Summary{Results: []executor.Result{{State: executor.Failed}}})

	path := filepath.Join(t.TempDir(), "sqlrunner.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `sqlrunner_statements_total{kind="procedural",outcome="failed"} 1`)
	assert.Contains(t, string(data), "sqlrunner_last_run_success 0")
}
