package metrics

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lockplane/sqlrunner/internal/executor"
)

const namespace = "sqlrunner"

// Recorder counts statement outcomes on its own registry. It implements
// executor.Reporter.
type Recorder struct {
	registry   *prometheus.Registry
	statements *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	lastRun    prometheus.Gauge
}

// NewRecorder creates a Recorder with every outcome label initialized to
// zero so exported files always carry the full series set.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		statements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "statements_total",
			Help:      "Statements executed, by outcome and kind.",
		}, []string{"outcome", "kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "statement_duration_seconds",
			Help:      "Time spent executing a single statement.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"kind"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 if the last script run had no failed statement, else 0.",
		}),
	}
	r.registry.MustRegister(r.statements, r.duration, r.lastRun)

	for _, outcome := range []executor.State{executor.Succeeded, executor.Suppressed, executor.Failed} {
		for _, kind := range []string{"simple", "procedural"} {
			r.statements.WithLabelValues(outcome.String(), kind)
		}
	}
	return r
}

// Report records one statement outcome.
func (r *Recorder) Report(res executor.Result) {
	kind := res.Statement.Kind.String()
	r.statements.WithLabelValues(res.State.String(), kind).Inc()
	r.duration.WithLabelValues(kind).Observe(res.Duration.Seconds())
}

// Finish records the aggregate result of a run.
func (r *Recorder) Finish(s executor.Summary) {
	if s.Aggregate() == executor.Success {
		r.lastRun.Set(1)
		return
	}
	r.lastRun.Set(0)
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes all metrics to path in the text exposition format
// read by the node_exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return errors.Wrapf(err, "failed to write metrics to %s", path)
	}
	return nil
}
