// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from a calibration run.
//
// The package is intentionally minimal:
//
//   - It exposes a narrow interface (Backend) focused on counters and timing
//     data (histograms).
//   - It provides a global, pluggable backend that defaults to a no-op
//     implementation, so metrics are always safe to call even when no real
//     backend is configured.
//
// Concrete metric systems live in subpackages (prompush, datadog) so the rest
// of the codebase depends only on this package.
package metrics

import (
	"sync"
	"time"
)

// Metric names emitted by this package.
const (
	PhaseTotal    = "calibration_phase_total"
	PhaseDuration = "calibration_phase_duration_seconds"
	LinesTotal    = "calibration_lines_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordPhase counts one extraction phase and observes its duration, labeled
// by outcome.
func RecordPhase(job, part string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"part":   part,
		"status": status,
	}

	b := current()
	b.IncCounter(PhaseTotal, 1, lbls)
	b.ObserveHistogram(PhaseDuration, d.Seconds(), lbls)
}

// RecordLines adds n processed lines for the given part.
func RecordLines(job, part string, n int) {
	if n <= 0 {
		return
	}
	current().IncCounter(LinesTotal, float64(n), Labels{
		"job":  job,
		"part": part,
	})
}
