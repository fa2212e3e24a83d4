// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Regression Segment Costs for Change-Point Detection
// Class: 02-613 at Caregie Mellon University

package costmatrix

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestMetrics_NilIsNoop(t *testing.T) {
	m, err := newEngineMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, m)

	assert.NotPanics(t, func() {
		m.observeRun(3, 1, 0)
		m.cacheHit()
	})
}

func TestMetrics_CountRuns(t *testing.T) {
	reg := prometheus.NewRegistry()
	e, err := NewEngine(WithMinLength(1), WithMetrics(reg))
	require.NoError(t, err)

	// 5 single rows (exact fits) + 4 + 3 + 2 + 1 longer intervals
	y := mat.NewDense(5, 1, []float64{4, 1, 7, 2, 9})
	table, err := e.Compute(context.Background(), y, ones(5))
	require.NoError(t, err)
	require.Equal(t, 15, table.Evaluated)

	assert.Equal(t, 15.0, testutil.ToFloat64(e.metrics.evaluated))
	assert.Equal(t, 5.0, testutil.ToFloat64(e.metrics.degenerate))

	count, err := testutil.GatherAndCount(reg, "costmatrix_compute_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_SharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()

	e1, err := NewEngine(WithMinLength(2), WithMetrics(reg))
	require.NoError(t, err)
	e2, err := NewEngine(WithMinLength(2), WithMetrics(reg))
	require.NoError(t, err)

	y := mat.NewDense(4, 1, []float64{1, 5, 2, 8})
	_, err = e1.Compute(context.Background(), y, ones(4))
	require.NoError(t, err)
	_, err = e2.Compute(context.Background(), y, ones(4))
	require.NoError(t, err)

	// 3 + 2 + 1 intervals per run, both engines feed the same counter
	assert.Same(t, e1.metrics.evaluated, e2.metrics.evaluated)
	assert.Equal(t, 12.0, testutil.ToFloat64(e1.metrics.evaluated))
}

func TestMetrics_ConflictingRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	// same name, different help
	reg.MustRegister(prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "intervals_evaluated_total",
		Help:      "Something else entirely.",
	}))

	_, err := NewEngine(WithMetrics(reg))
	assert.Error(t, err)
}
