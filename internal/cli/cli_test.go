// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Regression Segment Costs for Change-Point Detection
// Class: 02-613 at Caregie Mellon University

package cli

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d-setiawan/costmatrix"
	"github.com/d-setiawan/costmatrix/internal/tableio"
)

const levelShiftCSV = "cases\n1\n2\n3\n10\n11\n12\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// run executes the command tree with args and returns stdout, stderr and the error.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
		assert.NotEmpty(t, c.Short, "command %q is missing a short description", c.Name())
		assert.NotEmpty(t, c.Long, "command %q is missing a long description", c.Name())
	}
	assert.True(t, names["compute"], "compute command not registered")
	assert.True(t, names["version"], "version command not registered")
}

func TestVersionCmd(t *testing.T) {
	stdout, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "costmatrix "+Version+"\n", stdout)
}

func TestComputeCmd_WritesOutputFile(t *testing.T) {
	dir := t.TempDir()
	y := writeFile(t, dir, "y.csv", levelShiftCSV)
	out := filepath.Join(dir, "costs.csv.zst")

	_, stderr, err := run(t, "compute", "-y", y, "-l", "2", "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Cost table written to")
	assert.Contains(t, stderr, "Intervals evaluated:        15")
	assert.Contains(t, stderr, "Minimum length (Lmin):      2")

	table, err := tableio.LoadCSV(out)
	require.NoError(t, err)
	assert.Equal(t, 6, table.Rows())
	assert.InDelta(t, 3.6486179, table.Data.At(0, 2), 1e-6)
	assert.InDelta(t, 17.6352701, table.Data.At(0, 5), 1e-6)
	assert.True(t, math.IsInf(table.Data.At(0, 0), 1))
	assert.True(t, math.IsInf(table.Data.At(5, 0), 1))
}

func TestComputeCmd_CompressionFlag(t *testing.T) {
	dir := t.TempDir()
	y := writeFile(t, dir, "y.csv", levelShiftCSV)
	out := filepath.Join(dir, "costs.csv")

	_, stderr, err := run(t, "compute", "-y", y, "-l", "2", "-o", out, "--compression", "lz4")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Cost table written to "+out+".lz4")

	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err), "uncompressed file should not be written")

	table, err := tableio.LoadCSV(out + ".lz4")
	require.NoError(t, err)
	assert.InDelta(t, 3.6486179, table.Data.At(3, 5), 1e-6)
}

func TestComputeCmd_StdoutWithDesign(t *testing.T) {
	dir := t.TempDir()
	y := writeFile(t, dir, "y.csv", "a,b\n1,0\n3,1\n2,5\n6,2\n4,4\n9,1\n")
	x := writeFile(t, dir, "x.csv", "t\n0\n1\n2\n3\n4\n5\n")

	stdout, stderr, err := run(t, "compute", "-y", y, "-x", x, "--intercept", "-l", "5", "--debug")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "0,1,2,3,4,5", lines[0])
	assert.True(t, strings.HasPrefix(lines[6], "Inf,Inf,Inf,Inf,Inf,Inf"))

	assert.Contains(t, stderr, "Covariates (p):             2")
	assert.Contains(t, stderr, "=== Metrics ===")
	assert.Contains(t, stderr, "costmatrix_intervals_evaluated_total 3")
}

func TestComputeCmd_ConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	y := writeFile(t, dir, "y.csv", levelShiftCSV)
	cfg := writeFile(t, dir, "costmatrix.yaml", "response: "+y+"\nmin-length: 2\ndivisor: span\n")

	_, stderr, err := run(t, "compute", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Minimum length (Lmin):      2")

	t.Setenv("COSTMATRIX_MIN_LENGTH", "4")
	_, stderr, err = run(t, "compute", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Minimum length (Lmin):      4")

	// flags win over env
	_, stderr, err = run(t, "compute", "--config", cfg, "-l", "3")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Minimum length (Lmin):      3")
}

func TestComputeCmd_Errors(t *testing.T) {
	dir := t.TempDir()
	y := writeFile(t, dir, "y.csv", levelShiftCSV)
	short := writeFile(t, dir, "x.csv", "t\n1\n2\n")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing response", []string{"compute"}, "response file is required"},
		{"fractional min length", []string{"compute", "-y", y, "-l", "2.5"}, "minimum segment length"},
		{"bad divisor", []string{"compute", "-y", y, "--divisor", "median"}, "unknown divisor"},
		{"negative workers", []string{"compute", "-y", y, "-w", "-2"}, "workers must be >= 0"},
		{"missing file", []string{"compute", "-y", filepath.Join(dir, "nope.csv")}, "nope.csv"},
		{"row mismatch", []string{"compute", "-y", y, "-x", short}, "row count mismatch"},
		{"unknown compression", []string{"compute", "-y", y, "-o", "c.csv", "--compression", "gzip"}, "unknown compression"},
		{"compression without output", []string{"compute", "-y", y, "--compression", "zstd"}, "needs an output file"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := run(t, tc.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestParseDivisor(t *testing.T) {
	d, err := parseDivisor("")
	require.NoError(t, err)
	assert.Equal(t, costmatrix.DivisorRows, d)

	d, err = parseDivisor(" Span ")
	require.NoError(t, err)
	assert.Equal(t, costmatrix.DivisorSpan, d)

	_, err = parseDivisor("mean")
	assert.Error(t, err)
}
