// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Regression Segment Costs for Change-Point Detection
// Class: 02-613 at Caregie Mellon University

package costmatrix

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// machEps is the float64 unit roundoff used for the default pinv cutoff
const machEps = 0x1p-52

// fitRoundoffUlps bounds, in units of roundoff of the largest |y|, the
// residuals an exact fit can still leave behind
const fitRoundoffUlps = 100

var ln2Pi = math.Log(2 * math.Pi)

// Reasons an interval is left at Infeasible.
var (
	errNoDegreesOfFreedom = errors.New("effective sample count is not positive")
	errPerfectFit         = errors.New("residuals vanish, covariance is singular")
	errSingularCovariance = errors.New("residual covariance is singular")
	errSVDFailed          = errors.New("SVD factorization failed")
	errNonFiniteCost      = errors.New("cost is not finite")
)

// pseudoInverse computes the Moore-Penrose pseudo-inverse of a (r x c) from a
// thin SVD: pinv(a) = V * diag(1/s_i) * U^T, keeping only s_i > tol.
// tol <= 0 selects max(r, c) * s_max * eps.
// Returns the c x r inverse and the number of singular values kept (the numerical rank).
func pseudoInverse(a mat.Matrix, tol float64) (*mat.Dense, int, error) {
	r, c := a.Dims()

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, 0, errSVDFailed
	}

	// Singular values come back in descending order
	s := svd.Values(nil)
	if tol <= 0 {
		tol = float64(max(r, c)) * s[0] * machEps
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	// Scale the kept columns of V by 1/s_i, zero the rest
	k := len(s)
	vs := mat.NewDense(c, k, nil)
	rank := 0
	for i := 0; i < k; i++ {
		if s[i] <= tol {
			continue
		}
		rank++
		inv := 1 / s[i]
		for j := 0; j < c; j++ {
			vs.Set(j, i, v.At(j, i)*inv)
		}
	}

	out := mat.NewDense(c, r, nil)
	if rank == 0 {
		// (numerically) all-zero matrix, pinv is all zeros too
		return out, 0, nil
	}
	out.Mul(vs, u.T())

	return out, rank, nil
}

// fitInterval regresses yab (L x d) on xab (L x p) through pinv(X'X) X'Y and
// estimates the residual covariance Z'Z / nk.
func fitInterval(yab, xab mat.Matrix, nk int, tol float64) (*intervalFit, error) {
	if nk <= 0 {
		return nil, errNoDegreesOfFreedom
	}
	_, d := yab.Dims()

	// beta = pinv(X'X) * X'Y
	var xtx mat.Dense
	xtx.Mul(xab.T(), xab)

	xtxPinv, _, err := pseudoInverse(&xtx, tol)
	if err != nil {
		return nil, err
	}

	var xty mat.Dense
	xty.Mul(xab.T(), yab)

	beta := new(mat.Dense)
	beta.Mul(xtxPinv, &xty)

	// z = Y - X * beta
	var fitted mat.Dense
	fitted.Mul(xab, beta)

	z := new(mat.Dense)
	z.Sub(yab, &fitted)

	// sigma2 = Z'Z / nk, symmetric by construction
	sigma2 := mat.NewSymDense(d, nil)
	sigma2.SymOuterK(1/float64(nk), z.T())

	return &intervalFit{
		Beta:   beta,
		Z:      z,
		Sigma2: sigma2,
		NK:     nk,
	}, nil
}

// mahalanobis returns z_i' * prec * z_i for every row i of z.
func mahalanobis(z mat.Matrix, prec mat.Matrix) []float64 {
	rows, cols := z.Dims()

	var zp mat.Dense
	zp.Mul(z, prec)

	var prod mat.Dense
	prod.MulElem(&zp, z)

	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		out[i] = floats.Sum(prod.RawRowView(i)[:cols])
	}
	return out
}

// gaussianCost evaluates the multivariate Gaussian negative log-likelihood
//
//	nk*(d/2)*ln(2pi) + nk*0.5*ln det(sigma2) + 0.5*sum_i maha_i
//
// for a fitted interval. yab is only used to scale the perfect-fit check.
// The check compares the residual sum of squares with the column-centered
// total sum of squares, so shifting y by a constant does not change it.
func gaussianCost(fit *intervalFit, yab mat.Matrix, tol, residualFloor float64) (float64, error) {
	_, d := fit.Z.Dims()

	rss := mat.Norm(fit.Z, 2)
	rss *= rss
	if math.IsNaN(rss) || math.IsInf(rss, 0) {
		return infeasible, errNonFiniteCost
	}

	rows, _ := yab.Dims()
	tss, maxAbs := centeredSumSquares(yab)
	roundoff := fitRoundoffUlps * machEps * maxAbs
	if rss == 0 || rss <= residualFloor*tss || rss <= float64(rows*d)*roundoff*roundoff {
		return infeasible, errPerfectFit
	}

	prec, rank, err := pseudoInverse(fit.Sigma2, tol)
	if err != nil {
		return infeasible, err
	}
	if rank < d {
		return infeasible, errSingularCovariance
	}

	logDet, sign := mat.LogDet(fit.Sigma2)
	if sign <= 0 || math.IsNaN(logDet) || math.IsInf(logDet, 0) {
		return infeasible, errSingularCovariance
	}

	maha := floats.Sum(mahalanobis(fit.Z, prec))

	nk := float64(fit.NK)
	cost := nk*(float64(d)/2)*ln2Pi + nk*0.5*logDet + 0.5*maha
	if math.IsNaN(cost) || math.IsInf(cost, 0) {
		return infeasible, errNonFiniteCost
	}

	return cost, nil
}

// centeredSumSquares returns sum_j sum_i (y_ij - mean_j)^2 and max |y_ij|.
func centeredSumSquares(y mat.Matrix) (float64, float64) {
	rows, cols := y.Dims()

	var tss, maxAbs float64
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, y)
		mean := stat.Mean(col, nil)
		for _, v := range col {
			tss += (v - mean) * (v - mean)
			maxAbs = math.Max(maxAbs, math.Abs(v))
		}
	}
	return tss, maxAbs
}
