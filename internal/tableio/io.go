// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Regression Segment Costs for Change-Point Detection
// Class: 02-613 at Caregie Mellon University

// Package tableio reads the response and design matrices of the cost engine
// from CSV files and writes cost tables back out. Files ending in .zst, .sz or
// .lz4 are transparently (de)compressed.
package tableio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// Table is a numeric CSV file: one header row of column names and one row per
// observation.
type Table struct {
	// Matrix for data, rows are observations
	Data *mat.Dense
	// Column names from the header
	Names []string
}

// Rows returns the number of observations.
func (t *Table) Rows() int {
	r, _ := t.Data.Dims()
	return r
}

// LoadCSV loads a CSV file into a Table, decompressing by extension.
func LoadCSV(path string) (*Table, error) {
	// 1. Open file
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	// 2. Wrap in the codec the extension asks for
	r, err := newReader(f, CompressionFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer r.Close()

	t, err := ReadCSV(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ReadCSV parses a header row followed by numeric rows. "Inf", "+Inf" and
// "-Inf" are accepted as values.
func ReadCSV(src io.Reader) (*Table, error) {
	r := csv.NewReader(src)
	r.TrimLeadingSpace = true

	// Read header row
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty input")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) == 0 {
		return nil, fmt.Errorf("empty header")
	}
	K := len(header) // number of columns

	var (
		data []float64 // flat data for mat.Dense
		row  int       // row counter
	)

	// Read each data row
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row+2, err) // +2 for header + 1-based
		}

		// Skip completely empty lines
		if len(record) == 1 && record[0] == "" {
			continue
		}

		if len(record) != K {
			return nil, fmt.Errorf("row %d: expected %d columns, got %d", row+2, K, len(record))
		}

		for j, s := range record {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("parse float at row %d col %d (%q): %w", row+2, j+1, s, err)
			}
			data = append(data, v)
		}
		row++
	}

	if row == 0 {
		return nil, fmt.Errorf("no data rows")
	}

	return &Table{
		Data:  mat.NewDense(row, K, data),
		Names: header,
	}, nil
}

// WriteCostCSV writes an n x n cost table to path, compressing by extension.
// The header row holds the end index b of each column; sentinel cells are
// written as Inf.
func WriteCostCSV(path string, c mat.Matrix) error {
	_, cols := c.Dims()
	header := make([]string, cols)
	for j := range header {
		header[j] = strconv.Itoa(j)
	}
	return WriteMatrixCSV(path, c, header)
}

// WriteMatrixCSV writes m with the given header to path, compressing by
// extension.
func WriteMatrixCSV(path string, m mat.Matrix, header []string) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()

	w, err := newWriter(file, CompressionFromPath(path))
	if err != nil {
		return err
	}
	if err := WriteCSV(w, m, header); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// WriteCSV writes m as CSV to dst. A header whose length does not match the
// column count is replaced by Var1..VarK.
func WriteCSV(dst io.Writer, m mat.Matrix, header []string) error {
	rows, cols := m.Dims()

	// Initialize a new CSV writer
	writer := csv.NewWriter(dst)

	if len(header) != cols {
		header = make([]string, cols)
		for j := range header {
			header[j] = fmt.Sprintf("Var%d", j+1)
		}
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	// Write data rows
	record := make([]string, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			record[j] = formatValue(m.At(i, j))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatValue(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	default:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
}

// Intercept returns an n x 1 column of ones, the design of a mean-only model.
func Intercept(n int) *mat.Dense {
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}
	return mat.NewDense(n, 1, ones)
}

// WithIntercept returns [1 | x], x with a leading column of ones.
func WithIntercept(x mat.Matrix) *mat.Dense {
	r, c := x.Dims()
	out := mat.NewDense(r, c+1, nil)
	for i := 0; i < r; i++ {
		out.Set(i, 0, 1)
		for j := 0; j < c; j++ {
			out.Set(i, j+1, x.At(i, j))
		}
	}
	return out
}
