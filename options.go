// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Regression Segment Costs for Change-Point Detection
// Class: 02-613 at Caregie Mellon University

package costmatrix

import (
	"io"
	"log/slog"
	"math"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

// Defaults for Options.
const (
	// DefaultMinLength evaluates every interval with at least one row
	DefaultMinLength = 1

	// DefaultPinvTolerance of 0 selects max(rows, cols) * sigmaMax * eps per matrix
	DefaultPinvTolerance = 0.0

	// DefaultResidualFloor marks an interval as a perfect fit when its residual
	// sum of squares is at most this fraction of the column-centered total sum
	// of squares of y
	DefaultResidualFloor = 1e-12

	// DefaultValidateNaNInf rejects non-finite inputs before any computation
	DefaultValidateNaNInf = true
)

const (
	panicMinLength     = "costmatrix: WithMinLength: length must be >= 1"
	panicWorkers       = "costmatrix: WithWorkers: workers must be >= 0"
	panicDivisor       = "costmatrix: WithDivisor: unknown divisor"
	panicPinvTolerance = "costmatrix: WithPinvTolerance: tolerance must be finite and >= 0"
	panicResidualFloor = "costmatrix: WithResidualFloor: floor must be finite and >= 0"
	panicCacheSize     = "costmatrix: WithCache: size must be >= 0"
)

// Options holds the engine configuration. Build it with Option values.
type Options struct {
	// Minimum number of rows in an evaluated interval
	MinLength int

	// Number of concurrent interval tasks, 0 means runtime.NumCPU()
	Workers int

	// Effective sample count convention
	Divisor Divisor

	// Singular value cutoff for both pseudo-inverses, 0 means the default
	PinvTolerance float64

	// Relative residual sum of squares below which an interval is degenerate
	ResidualFloor float64

	// Reject NaN/Inf inputs
	ValidateNaNInf bool

	// Destination of run summaries and degenerate-cell reports
	Logger *slog.Logger

	// Optional prometheus registerer for engine metrics
	Registerer prometheus.Registerer

	// Number of tables kept in the fingerprint cache, 0 disables it
	CacheSize int
}

// Option mutates Options.
type Option func(*Options)

// defaultOptions returns the zero configuration.
func defaultOptions() Options {
	return Options{
		MinLength:      DefaultMinLength,
		Workers:        0,
		Divisor:        DivisorRows,
		PinvTolerance:  DefaultPinvTolerance,
		ResidualFloor:  DefaultResidualFloor,
		ValidateNaNInf: DefaultValidateNaNInf,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// gatherOptions applies opts over the defaults.
func gatherOptions(opts ...Option) Options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// workers resolves the effective worker count.
func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.NumCPU()
}

// WithMinLength sets the minimum segment length Lmin.
func WithMinLength(length int) Option {
	if length < 1 {
		panic(panicMinLength)
	}
	return func(o *Options) { o.MinLength = length }
}

// WithWorkers bounds the number of concurrent interval tasks.
func WithWorkers(workers int) Option {
	if workers < 0 {
		panic(panicWorkers)
	}
	return func(o *Options) { o.Workers = workers }
}

// WithDivisor selects the covariance divisor convention.
func WithDivisor(d Divisor) Option {
	if d != DivisorRows && d != DivisorSpan {
		panic(panicDivisor)
	}
	return func(o *Options) { o.Divisor = d }
}

// WithPinvTolerance sets the absolute singular value cutoff of both
// pseudo-inverses. 0 restores the per-matrix default.
func WithPinvTolerance(tol float64) Option {
	if tol < 0 || math.IsNaN(tol) || math.IsInf(tol, 0) {
		panic(panicPinvTolerance)
	}
	return func(o *Options) { o.PinvTolerance = tol }
}

// WithResidualFloor sets the perfect-fit threshold.
func WithResidualFloor(floor float64) Option {
	if floor < 0 || math.IsNaN(floor) || math.IsInf(floor, 0) {
		panic(panicResidualFloor)
	}
	return func(o *Options) { o.ResidualFloor = floor }
}

// WithValidateNaNInf toggles the finite-input check.
func WithValidateNaNInf(validate bool) Option {
	return func(o *Options) { o.ValidateNaNInf = validate }
}

// WithLogger routes engine logs to l. A nil logger keeps the discard default.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithMetrics registers the engine collectors on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *Options) { o.Registerer = reg }
}

// WithCache keeps up to size finished tables keyed by an input fingerprint.
func WithCache(size int) Option {
	if size < 0 {
		panic(panicCacheSize)
	}
	return func(o *Options) { o.CacheSize = size }
}

// MinLengthFromFloat converts a minimum segment length given as a real number.
// The value must be finite, at least 1, and a whole number of observations.
func MinLengthFromFloat(v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, costErrorf(opMinLength, ErrInvalidMinLength, "got %v", v)
	}
	if v < 1 || v != math.Trunc(v) {
		return 0, costErrorf(opMinLength, ErrInvalidMinLength, "got %v", v)
	}
	if v > math.MaxInt32 {
		return 0, costErrorf(opMinLength, ErrInvalidMinLength, "got %v", v)
	}
	return int(v), nil
}
