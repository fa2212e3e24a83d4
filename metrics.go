// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Regression Segment Costs for Change-Point Detection
// Class: 02-613 at Caregie Mellon University

package costmatrix

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "costmatrix"

// engineMetrics holds the collectors of one engine. A nil *engineMetrics is a
// valid no-op, used when no registerer was configured.
type engineMetrics struct {
	evaluated  prometheus.Counter
	degenerate prometheus.Counter
	cacheHits  prometheus.Counter
	duration   prometheus.Histogram
}

// newEngineMetrics builds and registers the collectors. Engines sharing a
// registry share the collectors.
func newEngineMetrics(reg prometheus.Registerer) (*engineMetrics, error) {
	if reg == nil {
		return nil, nil
	}

	evaluated, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "intervals_evaluated_total",
		Help:      "Number of intervals fitted by the cost engine.",
	}))
	if err != nil {
		return nil, err
	}

	degenerate, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "intervals_degenerate_total",
		Help:      "Number of fitted intervals left infeasible because their covariance was singular.",
	}))
	if err != nil {
		return nil, err
	}

	cacheHits, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "cache_hits_total",
		Help:      "Number of cost tables served from the fingerprint cache.",
	}))
	if err != nil {
		return nil, err
	}

	duration, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "compute_seconds",
		Help:      "Wall time of a full cost table computation.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	}))
	if err != nil {
		return nil, err
	}

	return &engineMetrics{
		evaluated:  evaluated,
		degenerate: degenerate,
		cacheHits:  cacheHits,
		duration:   duration,
	}, nil
}

// register adds c to reg, or returns the collector already registered under
// the same descriptor.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		var zero T
		return zero, fmt.Errorf("costmatrix: register metrics: %w", err)
	}
	return c, nil
}

func (m *engineMetrics) observeRun(evaluated, degenerate int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.evaluated.Add(float64(evaluated))
	m.degenerate.Add(float64(degenerate))
	m.duration.Observe(elapsed.Seconds())
}

func (m *engineMetrics) cacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}
