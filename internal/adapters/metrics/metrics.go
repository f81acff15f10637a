// Package metrics records engine activity as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.trai.ch/fresh/internal/core/domain"
	"go.trai.ch/zerr"
)

const namespace = "fresh"

// Recorder implements ports.Metrics on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	verdicts      *prometheus.CounterVec
	checkDuration prometheus.Histogram
	buildDuration prometheus.Histogram
	builds        *prometheus.CounterVec
	commits       *prometheus.CounterVec
}

// New creates a Recorder with all metrics registered.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verdicts_total",
			Help:      "Checked units by verdict and dirty reason.",
		}, []string{"verdict", "reason"}),
		checkDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "check_duration_seconds",
			Help:      "Time spent deciding the freshness of a unit.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		buildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Time spent running unit build commands.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
		builds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "builds_total",
			Help:      "Unit builds by outcome.",
		}, []string{"outcome"}),
		commits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commits_total",
			Help:      "Fingerprint commits by outcome.",
		}, []string{"outcome"}),
	}
}

// Registry returns the registry holding the metrics.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveVerdict records a check and how long it took.
func (r *Recorder) ObserveVerdict(v domain.Verdict, elapsed time.Duration) {
	if v.Fresh {
		r.verdicts.WithLabelValues("fresh", "none").Inc()
	} else {
		r.verdicts.WithLabelValues("dirty", string(v.Reason.Kind)).Inc()
	}
	r.checkDuration.Observe(elapsed.Seconds())
}

// ObserveBuild records a build step and its outcome.
func (r *Recorder) ObserveBuild(elapsed time.Duration, err error) {
	r.builds.WithLabelValues(outcome(err)).Inc()
	r.buildDuration.Observe(elapsed.Seconds())
}

// ObserveCommit records a commit attempt and its outcome.
func (r *Recorder) ObserveCommit(err error) {
	r.commits.WithLabelValues(outcome(err)).Inc()
}

// WriteFile writes all metrics to path in the text exposition format.
func (r *Recorder) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrMetricsWriteFailed.Error()), "path", path)
	}
	return nil
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
