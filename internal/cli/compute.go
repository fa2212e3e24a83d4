// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Regression Segment Costs for Change-Point Detection
// Class: 02-613 at Caregie Mellon University

package cli

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/k0kubun/pp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gonum.org/v1/gonum/mat"

	"github.com/d-setiawan/costmatrix"
	"github.com/d-setiawan/costmatrix/internal/tableio"
)

func newComputeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute the cost table of a response/design pair",
		Long: `Load the response matrix (one column per response variable) and the design
matrix (one column per covariate) from CSV files with a header row, fit every
interval of at least --min-length rows and write the n x n cost table.
Without --design the design is a single intercept column. Files ending in
.zst, .sz or .lz4 are read and written compressed; --compression appends the
matching extension to --output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			return runCompute(cmd, cfg)
		},
	}

	f := cmd.Flags()
	f.StringP("response", "y", "", "CSV file of the response matrix (n x d)")
	f.StringP("design", "x", "", "CSV file of the design matrix (n x p)")
	f.Bool("intercept", false, "prepend a column of ones to the design")
	f.Float64P("min-length", "l", costmatrix.DefaultMinLength, "minimum number of rows in an evaluated interval")
	f.IntP("workers", "w", 0, "concurrent interval tasks (0 = number of CPUs)")
	f.String("divisor", "rows", "covariance divisor: rows (L) or span (L-1)")
	f.Float64("pinv-tolerance", costmatrix.DefaultPinvTolerance, "singular value cutoff of the pseudo-inverses (0 = automatic)")
	f.Float64("residual-floor", costmatrix.DefaultResidualFloor, "residual sum of squares, relative to the centered total, treated as a perfect fit")
	f.StringP("output", "o", "", "output CSV file (stdout when empty)")
	f.String("compression", "", "output codec: none, zstd, s2 or lz4 (default: from the --output extension)")

	for _, name := range []string{"response", "design", "intercept", "min-length", "workers",
		"divisor", "pinv-tolerance", "residual-floor", "output", "compression"} {
		_ = v.BindPFlag(name, f.Lookup(name))
	}

	return cmd
}

// runCompute loads the inputs, runs the engine and writes the table.
func runCompute(cmd *cobra.Command, cfg *Config) error {
	stderr := cmd.ErrOrStderr()
	if cfg.Debug {
		pp.Fprintln(stderr, cfg)
	}
	logger := newLogger(stderr, cfg.Debug)

	// 1. Load the response matrix
	resp, err := tableio.LoadCSV(cfg.Response)
	if err != nil {
		return err
	}

	// 2. Load or build the design matrix
	var design *mat.Dense
	switch {
	case cfg.Design != "":
		x, err := tableio.LoadCSV(cfg.Design)
		if err != nil {
			return err
		}
		design = x.Data
		if cfg.Intercept {
			design = tableio.WithIntercept(design)
		}
	default:
		design = tableio.Intercept(resp.Rows())
	}

	// 3. Run the engine
	reg := prometheus.NewRegistry()
	opts := append(cfg.engineOptions(),
		costmatrix.WithLogger(logger),
		costmatrix.WithMetrics(reg),
	)
	engine, err := costmatrix.NewEngine(opts...)
	if err != nil {
		return err
	}

	table, err := engine.Compute(cmd.Context(), resp.Data, design)
	if err != nil {
		return err
	}

	// 4. Write the table
	if cfg.Output == "" {
		if err := tableio.WriteCSV(cmd.OutOrStdout(), table.C, columnIndices(table.Size())); err != nil {
			return err
		}
	} else {
		out := cfg.outputPath()
		if err := tableio.WriteCostCSV(out, table.C); err != nil {
			return err
		}
		fmt.Fprintln(stderr, "Cost table written to", out)
	}

	printSummary(stderr, table, resp.Names, design)

	if cfg.Debug {
		return printMetrics(stderr, reg)
	}
	return nil
}

func columnIndices(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = strconv.Itoa(i)
	}
	return out
}

// printSummary reports the shape of the run and the cheapest feasible interval.
func printSummary(w io.Writer, t *costmatrix.CostTable, names []string, design mat.Matrix) {
	_, p := design.Dims()
	n := t.Size()

	fmt.Fprintln(w, "         Segment Cost Summary      ")
	fmt.Fprintf(w, "Number of observations (n): %d\n", n)
	fmt.Fprintf(w, "Response variables (d):     %d %v\n", len(names), names)
	fmt.Fprintf(w, "Covariates (p):             %d\n", p)
	fmt.Fprintf(w, "Minimum length (Lmin):      %d\n", t.MinLength)
	fmt.Fprintf(w, "Intervals evaluated:        %d\n", t.Evaluated)
	fmt.Fprintf(w, "Degenerate intervals:       %d\n", t.Degenerate)

	bestA, bestB, best := -1, -1, math.Inf(1)
	for a := 0; a < n; a++ {
		for b := a; b < n; b++ {
			if c := t.Cost(a, b); c < best {
				bestA, bestB, best = a, b, c
			}
		}
	}
	if bestA >= 0 {
		fmt.Fprintf(w, "Lowest cost interval:       [%d, %d] = %.6f\n", bestA, bestB, best)
	}
}

// printMetrics dumps the gathered engine metrics.
func printMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	fmt.Fprintln(w, "\n=== Metrics ===")
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				fmt.Fprintf(w, "%s %g\n", mf.GetName(), m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				fmt.Fprintf(w, "%s count=%d sum=%gs\n", mf.GetName(), h.GetSampleCount(), h.GetSampleSum())
			}
		}
	}
	return nil
}
