// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Regression Segment Costs for Change-Point Detection
// Class: 02-613 at Caregie Mellon University

package costmatrix

import (
	"errors"
	"fmt"
)

// Sentinel errors. Callers match them with errors.Is; the engine wraps them
// with the failing operation and the offending shapes.
var (
	// ErrNilMatrix is returned when y or x is nil.
	ErrNilMatrix = errors.New("costmatrix: nil matrix")

	// ErrEmptyMatrix is returned when y or x has zero rows or columns.
	ErrEmptyMatrix = errors.New("costmatrix: empty matrix")

	// ErrDimensionMismatch is returned when y and x do not have the same row count.
	ErrDimensionMismatch = errors.New("costmatrix: row count mismatch between response and design")

	// ErrInvalidMinLength is returned for a minimum segment length below 1 or not a whole number.
	ErrInvalidMinLength = errors.New("costmatrix: minimum segment length must be a whole number >= 1")

	// ErrNaNInf is returned when an input contains NaN or Inf and validation is enabled.
	ErrNaNInf = errors.New("costmatrix: NaN or Inf in input")

	// ErrIntervalOutOfRange is returned by IntervalCost for a, b outside [0, n) or b < a.
	ErrIntervalOutOfRange = errors.New("costmatrix: interval out of range")
)

// Operation tags used when wrapping sentinels.
const (
	opCostMatrix   = "CostMatrix"
	opIntervalCost = "IntervalCost"
	opMinLength    = "MinLength"
)

// costErrorf wraps err with an operation tag and extra context.
// err must be non-nil.
func costErrorf(op string, err error, format string, args ...any) error {
	if format == "" {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %s", op, err, fmt.Sprintf(format, args...))
}
