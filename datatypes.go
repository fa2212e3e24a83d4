// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Regression Segment Costs for Change-Point Detection
// Class: 02-613 at Caregie Mellon University

package costmatrix

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// infeasible is the sentinel held by every cell of a cost table that is not an
// evaluated interval: too short, below the diagonal, or degenerate.
var infeasible = math.Inf(1)

// Infeasible returns the sentinel cost, +Inf. Test cells with
// math.IsInf(v, 1) or Feasible.
func Infeasible() float64 { return infeasible }

// Divisor selects the effective sample count nk used for the residual
// covariance and the likelihood terms of an interval of L rows.
type Divisor int

const (
	// DivisorRows uses nk = L (maximum likelihood covariance)
	DivisorRows Divisor = iota
	// DivisorSpan uses nk = L - 1, the span b - a of the interval
	DivisorSpan
)

// String returns the flag spelling of the divisor.
func (d Divisor) String() string {
	switch d {
	case DivisorRows:
		return "rows"
	case DivisorSpan:
		return "span"
	default:
		return "unknown"
	}
}

// count returns nk for an interval with the given number of rows.
func (d Divisor) count(rows int) int {
	if d == DivisorSpan {
		return rows - 1
	}
	return rows
}

// CostTable is the result of one engine run.
type CostTable struct {
	// n x n cost matrix, C(a, b) for the interval starting at row a and ending at row b
	C *mat.Dense

	// Minimum number of rows an interval needs to be evaluated
	MinLength int

	// Number of intervals that were fitted
	Evaluated int

	// Number of fitted intervals whose covariance was singular, left at Infeasible
	Degenerate int
}

// Cost returns C(a, b), or Infeasible when (a, b) is outside the table.
func (t *CostTable) Cost(a, b int) float64 {
	if t == nil || t.C == nil {
		return infeasible
	}
	n, _ := t.C.Dims()
	if a < 0 || b < 0 || a >= n || b >= n {
		return infeasible
	}
	return t.C.At(a, b)
}

// Feasible reports whether (a, b) holds a finite cost.
func (t *CostTable) Feasible(a, b int) bool {
	return !math.IsInf(t.Cost(a, b), 1)
}

// Size returns the number of observations n the table was built for.
func (t *CostTable) Size() int {
	if t == nil || t.C == nil {
		return 0
	}
	n, _ := t.C.Dims()
	return n
}

// intervalFit holds the scratch state of a single interval. Every interval
// gets its own, nothing is shared across tasks.
type intervalFit struct {
	// Regression coefficients (p x d)
	Beta *mat.Dense

	// Residuals (L x d)
	Z *mat.Dense

	// Residual covariance (d x d)
	Sigma2 *mat.SymDense

	// Effective sample count used as divisor
	NK int
}

// CostEstimator is implemented by anything that can produce a cost table for
// a response matrix y (n x d) and a design matrix x (n x p).
type CostEstimator interface {
	// Fits every admissible interval and returns the filled table
	CostMatrix(y, x mat.Matrix) (*mat.Dense, error)
	// Cost of the single interval [a, b]
	IntervalCost(y, x mat.Matrix, a, b int) (float64, error)
}
