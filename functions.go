// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Regression Segment Costs for Change-Point Detection
// Class: 02-613 at Caregie Mellon University

package costmatrix

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Engine computes regression segment cost tables with a fixed configuration.
// An Engine is safe for concurrent use.
type Engine struct {
	opts    Options
	metrics *engineMetrics
	cache   *tableCache
}

var _ CostEstimator = (*Engine)(nil)

// NewEngine builds an engine from opts. It only fails when metric
// registration fails.
func NewEngine(opts ...Option) (*Engine, error) {
	o := gatherOptions(opts...)

	m, err := newEngineMetrics(o.Registerer)
	if err != nil {
		return nil, err
	}

	e := &Engine{opts: o, metrics: m}
	if o.CacheSize > 0 {
		e.cache = newTableCache(o.CacheSize)
	}
	return e, nil
}

// Options returns the resolved configuration.
func (e *Engine) Options() Options { return e.opts }

// CostMatrix computes the n x n cost table of y (n x d) regressed on x (n x p)
// for every interval of at least minLength rows. Cells that are not evaluated
// intervals hold Infeasible().
func CostMatrix(y, x mat.Matrix, minLength int, opts ...Option) (*mat.Dense, error) {
	if minLength < 1 {
		return nil, costErrorf(opCostMatrix, ErrInvalidMinLength, "got %d", minLength)
	}

	opts = append(opts[:len(opts):len(opts)], WithMinLength(minLength))
	e, err := NewEngine(opts...)
	if err != nil {
		return nil, err
	}
	return e.CostMatrix(y, x)
}

// CostMatrix returns only the table of Compute.
func (e *Engine) CostMatrix(y, x mat.Matrix) (*mat.Dense, error) {
	t, err := e.Compute(context.Background(), y, x)
	if err != nil {
		return nil, err
	}
	return t.C, nil
}

// Compute fills the cost table. Intervals are fanned out over the start row a,
// each task owning row a of the table and its own scratch matrices, so the
// result does not depend on the number of workers.
// Returns: the table with run statistics, or an error for invalid inputs or a
// cancelled context.
func (e *Engine) Compute(ctx context.Context, y, x mat.Matrix) (*CostTable, error) {
	n, d, p, err := e.validate(opCostMatrix, y, x)
	if err != nil {
		return nil, err
	}

	var key uint64
	if e.cache != nil {
		key = fingerprint(y, x, e.opts)
		if t, ok := e.cache.get(key); ok {
			e.metrics.cacheHit()
			e.opts.Logger.Debug("cost matrix served from cache", slog.Uint64("fingerprint", key))
			return t, nil
		}
	}

	start := time.Now()
	lmin := e.opts.MinLength

	data := make([]float64, n*n)
	for i := range data {
		data[i] = infeasible
	}
	table := &CostTable{
		C:         mat.NewDense(n, n, data),
		MinLength: lmin,
	}

	// No interval is long enough, nothing to evaluate
	if lmin > n {
		e.opts.Logger.Info("cost matrix skipped, minimum length exceeds series",
			slog.Int("n", n), slog.Int("min_length", lmin))
		e.finish(key, table, time.Since(start))
		return table, nil
	}

	// Dense copies so every task can take cheap row views
	yd := mat.DenseCopyOf(y)
	xd := mat.DenseCopyOf(x)

	lastStart := n - lmin
	evaluated := make([]int, lastStart+1)
	degenerate := make([]int, lastStart+1)

	workers := e.opts.workers()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for a := 0; a <= lastStart; a++ {
		a := a
		g.Go(func() error {
			for b := a + lmin - 1; b < n; b++ {
				if err := gctx.Err(); err != nil {
					return err
				}

				cost, err := e.intervalCost(yd, xd, a, b)
				evaluated[a]++
				if err != nil {
					degenerate[a]++
					e.opts.Logger.Debug("degenerate interval",
						slog.Int("a", a), slog.Int("b", b), slog.String("reason", err.Error()))
					continue
				}
				table.C.Set(a, b, cost)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", opCostMatrix, err)
	}

	for a := range evaluated {
		table.Evaluated += evaluated[a]
		table.Degenerate += degenerate[a]
	}

	elapsed := time.Since(start)
	e.opts.Logger.Info("cost matrix computed",
		slog.Int("n", n), slog.Int("d", d), slog.Int("p", p),
		slog.Int("min_length", lmin), slog.Int("workers", workers),
		slog.Int("evaluated", table.Evaluated), slog.Int("degenerate", table.Degenerate),
		slog.Duration("elapsed", elapsed))

	e.finish(key, table, elapsed)
	return table, nil
}

// finish records metrics and stores the table in the cache.
func (e *Engine) finish(key uint64, table *CostTable, elapsed time.Duration) {
	e.metrics.observeRun(table.Evaluated, table.Degenerate, elapsed)
	if e.cache != nil {
		e.cache.put(key, table)
	}
}

// IntervalCost returns the cost of the single interval [a, b] (0-based,
// inclusive), the same value Compute would store at C(a, b).
// Intervals shorter than the minimum length or degenerate intervals return
// Infeasible() without error. Only rows a..b are read past the shape checks.
func (e *Engine) IntervalCost(y, x mat.Matrix, a, b int) (float64, error) {
	n, _, _, err := e.validateShape(opIntervalCost, y, x)
	if err != nil {
		return infeasible, err
	}
	if a < 0 || b < a || b >= n {
		return infeasible, costErrorf(opIntervalCost, ErrIntervalOutOfRange, "a=%d b=%d n=%d", a, b, n)
	}
	if b-a+1 < e.opts.MinLength {
		return infeasible, nil
	}

	yab, xab := rowBlock(y, a, b), rowBlock(x, a, b)
	if e.opts.ValidateNaNInf {
		if err := checkFinite(opIntervalCost, yab, xab, a); err != nil {
			return infeasible, err
		}
	}

	cost, err := e.blockCost(yab, xab)
	if err != nil {
		e.opts.Logger.Debug("degenerate interval",
			slog.Int("a", a), slog.Int("b", b), slog.String("reason", err.Error()))
		return infeasible, nil
	}
	return cost, nil
}

// intervalCost fits rows a..b and evaluates their likelihood cost.
// A non-nil error means the interval is degenerate.
func (e *Engine) intervalCost(yd, xd *mat.Dense, a, b int) (float64, error) {
	return e.blockCost(rowBlock(yd, a, b), rowBlock(xd, a, b))
}

// blockCost fits one interval given as its own row blocks.
func (e *Engine) blockCost(yab, xab mat.Matrix) (float64, error) {
	rows, _ := yab.Dims()
	fit, err := fitInterval(yab, xab, e.opts.Divisor.count(rows), e.opts.PinvTolerance)
	if err != nil {
		return infeasible, err
	}
	return gaussianCost(fit, yab, e.opts.PinvTolerance, e.opts.ResidualFloor)
}

// rowBlock returns rows a..b of m, a view when m is a *mat.Dense and a copy of
// just those rows otherwise.
func rowBlock(m mat.Matrix, a, b int) mat.Matrix {
	_, c := m.Dims()
	if d, ok := m.(*mat.Dense); ok {
		return d.Slice(a, b+1, 0, c)
	}

	out := mat.NewDense(b-a+1, c, nil)
	for i := a; i <= b; i++ {
		for j := 0; j < c; j++ {
			out.Set(i-a, j, m.At(i, j))
		}
	}
	return out
}

// validate checks the structural preconditions once, before any computation.
// Returns: n, d, p
func (e *Engine) validate(op string, y, x mat.Matrix) (int, int, int, error) {
	n, d, p, err := e.validateShape(op, y, x)
	if err != nil {
		return 0, 0, 0, err
	}
	if e.opts.ValidateNaNInf {
		if err := checkFinite(op, y, x, 0); err != nil {
			return 0, 0, 0, err
		}
	}
	return n, d, p, nil
}

// validateShape rejects nil, empty and mismatched inputs.
func (e *Engine) validateShape(op string, y, x mat.Matrix) (int, int, int, error) {
	if isNilMatrix(y) || isNilMatrix(x) {
		return 0, 0, 0, costErrorf(op, ErrNilMatrix, "")
	}

	n, d := y.Dims()
	nx, p := x.Dims()
	if n == 0 || d == 0 {
		return 0, 0, 0, costErrorf(op, ErrEmptyMatrix, "response is %dx%d", n, d)
	}
	if nx == 0 || p == 0 {
		return 0, 0, 0, costErrorf(op, ErrEmptyMatrix, "design is %dx%d", nx, p)
	}
	if n != nx {
		return 0, 0, 0, costErrorf(op, ErrDimensionMismatch, "response has %d rows, design has %d", n, nx)
	}
	return n, d, p, nil
}

// checkFinite reports the first NaN or Inf of y, then x. offset is the row of
// y and x within the full inputs.
func checkFinite(op string, y, x mat.Matrix, offset int) error {
	if i, j, ok := firstNonFinite(y); ok {
		return costErrorf(op, ErrNaNInf, "response[%d,%d]", i+offset, j)
	}
	if i, j, ok := firstNonFinite(x); ok {
		return costErrorf(op, ErrNaNInf, "design[%d,%d]", i+offset, j)
	}
	return nil
}

// isNilMatrix catches both a nil interface and a typed nil *mat.Dense.
func isNilMatrix(m mat.Matrix) bool {
	if m == nil {
		return true
	}
	if d, ok := m.(*mat.Dense); ok && d == nil {
		return true
	}
	return false
}

// firstNonFinite returns the first NaN or Inf position of m in row-major order.
func firstNonFinite(m mat.Matrix) (int, int, bool) {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}
