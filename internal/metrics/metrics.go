// Package metrics records how each vault step went during a run and writes
// the result in the Prometheus text format for a node_exporter textfile
// collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vaultfetch"

// Outcome labels
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// StepMetrics provides methods to record step metrics. Each instance owns its
// registry so one run never sees another's samples.
type StepMetrics struct {
	registry *prometheus.Registry

	stepDuration *prometheus.HistogramVec
	stepTotal    *prometheus.CounterVec
	lastRun      prometheus.Gauge
}

// NewStepMetrics creates a StepMetrics with its own registry.
func NewStepMetrics() *StepMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &StepMetrics{
		registry: reg,
		stepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "step_duration_seconds",
				Help:      "Duration of vault API steps in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30},
			},
			[]string{"step"},
		),
		stepTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "step_total",
				Help:      "Total number of vault API steps by outcome",
			},
			[]string{"step", "outcome"},
		),
		lastRun: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the last retrieval finished",
			},
		),
	}
}

// RecordStep records one step result. The signature matches vaultapi.Observer.
func (m *StepMetrics) RecordStep(step string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}

	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}

	m.stepDuration.WithLabelValues(step).Observe(elapsed.Seconds())
	m.stepTotal.WithLabelValues(step, outcome).Inc()
}

// MarkFinished stamps the end of a run
func (m *StepMetrics) MarkFinished(now time.Time) {
	if m == nil {
		return
	}
	m.lastRun.Set(float64(now.Unix()))
}

// Registry returns the underlying registry for testing.
func (m *StepMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes every metric to path. An empty path is a no-op.
func (m *StepMetrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
