// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Regression Segment Costs for Change-Point Detection
// Class: 02-613 at Caregie Mellon University

package tableio

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestReadCSV(t *testing.T) {
	in := "flu, temp\n1.5, 20\n2,21\n\n3e2,-Inf\n"

	table, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []string{"flu", "temp"}, table.Names)
	assert.Equal(t, 3, table.Rows())
	assert.Equal(t, 1.5, table.Data.At(0, 0))
	assert.Equal(t, 21.0, table.Data.At(1, 1))
	assert.Equal(t, 300.0, table.Data.At(2, 0))
	assert.True(t, math.IsInf(table.Data.At(2, 1), -1))
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", "empty input"},
		{"header only", "a,b\n", "no data rows"},
		{"bad number", "a,b\n1,x\n", "parse float at row 2 col 2"},
		{"short row", "a,b\n1,2\n3\n", "row 3"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tc.in))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestWriteCSV(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{
		1.25, math.Inf(1),
		math.Inf(1), 7,
	})

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, m, nil))
	assert.Equal(t, "Var1,Var2\n1.25,Inf\nInf,7\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteCSV(&buf, m, []string{"0", "1"}))
	assert.True(t, strings.HasPrefix(buf.String(), "0,1\n"))

	// what we write, we can read back
	table, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.True(t, mat.Equal(m, table.Data))
}

func TestCostCSV_RoundTripCompressed(t *testing.T) {
	dir := t.TempDir()
	c := mat.NewDense(3, 3, []float64{
		math.Inf(1), 1.5, 2.75,
		math.Inf(1), math.Inf(1), -0.125,
		math.Inf(1), math.Inf(1), math.Inf(1),
	})

	for _, name := range []string{"costs.csv", "costs.csv.zst", "costs.csv.sz", "costs.csv.lz4"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, WriteCostCSV(path, c))

			table, err := LoadCSV(path)
			require.NoError(t, err)
			assert.Equal(t, []string{"0", "1", "2"}, table.Names)
			assert.True(t, mat.Equal(c, table.Data))
		})
	}
}

func TestCompressedFilesAreNotPlainText(t *testing.T) {
	dir := t.TempDir()
	m := mat.NewDense(50, 2, nil)
	for i := 0; i < 50; i++ {
		m.Set(i, 0, 1)
		m.Set(i, 1, float64(i%3))
	}

	for _, c := range []Compression{CompressionZstd, CompressionS2, CompressionLZ4} {
		path := filepath.Join(dir, "x.csv"+c.Extension())
		require.NoError(t, WriteMatrixCSV(path, m, []string{"a", "b"}))

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.False(t, bytes.HasPrefix(raw, []byte("a,b")), c.String())
	}
}

func TestLoadCSV_MissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestCompression(t *testing.T) {
	tests := []struct {
		name string
		want Compression
		ext  string
	}{
		{"none", CompressionNone, ""},
		{"zstd", CompressionZstd, ".zst"},
		{"s2", CompressionS2, ".sz"},
		{"lz4", CompressionLZ4, ".lz4"},
	}
	for _, tc := range tests {
		got, err := ParseCompression(tc.name)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
		assert.Equal(t, tc.name, got.String())
		assert.Equal(t, tc.ext, got.Extension())
	}

	got, err := ParseCompression(" ZSTD ")
	require.NoError(t, err)
	assert.Equal(t, CompressionZstd, got)

	got, err = ParseCompression("")
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, got)

	_, err = ParseCompression("gzip")
	assert.Error(t, err)
	assert.Equal(t, "unknown", Compression(42).String())

	assert.Equal(t, CompressionZstd, CompressionFromPath("data/y.csv.ZST"))
	assert.Equal(t, CompressionS2, CompressionFromPath("y.sz"))
	assert.Equal(t, CompressionLZ4, CompressionFromPath("y.csv.lz4"))
	assert.Equal(t, CompressionNone, CompressionFromPath("y.csv"))
}

func TestWithExtension(t *testing.T) {
	assert.Equal(t, "c.csv", WithExtension("c.csv", CompressionNone))
	assert.Equal(t, "c.csv.zst", WithExtension("c.csv", CompressionZstd))
	assert.Equal(t, "c.csv.zst", WithExtension("c.csv.zst", CompressionZstd))
	assert.Equal(t, "c.csv.sz.lz4", WithExtension("c.csv.sz", CompressionLZ4))

	// the returned path loads back with the requested codec
	dir := t.TempDir()
	path := WithExtension(filepath.Join(dir, "c.csv"), CompressionS2)
	require.NoError(t, WriteCostCSV(path, mat.NewDense(1, 1, []float64{2})))
	assert.Equal(t, CompressionS2, CompressionFromPath(path))

	table, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 2.0, table.Data.At(0, 0))
}

func TestIntercept(t *testing.T) {
	one := Intercept(3)
	assert.True(t, mat.Equal(mat.NewDense(3, 1, []float64{1, 1, 1}), one))

	x := mat.NewDense(2, 2, []float64{5, 6, 7, 8})
	got := WithIntercept(x)
	want := mat.NewDense(2, 3, []float64{1, 5, 6, 1, 7, 8})
	assert.True(t, mat.Equal(want, got))
}
