// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Regression Segment Costs for Change-Point Detection
// Class: 02-613 at Caregie Mellon University

package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/spf13/viper"

	"github.com/d-setiawan/costmatrix"
	"github.com/d-setiawan/costmatrix/internal/tableio"
)

// Config is everything the compute command needs, resolved from flags, env
// vars and the config file.
type Config struct {
	Response      string
	Design        string
	Intercept     bool
	MinLength     float64
	Workers       int
	Divisor       string
	PinvTolerance float64
	ResidualFloor float64
	Output        string
	Compression   string
	Debug         bool
}

// loadConfig reads the compute settings out of v and validates them.
func loadConfig(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Response:      v.GetString("response"),
		Design:        v.GetString("design"),
		Intercept:     v.GetBool("intercept"),
		MinLength:     v.GetFloat64("min-length"),
		Workers:       v.GetInt("workers"),
		Divisor:       v.GetString("divisor"),
		PinvTolerance: v.GetFloat64("pinv-tolerance"),
		ResidualFloor: v.GetFloat64("residual-floor"),
		Output:        v.GetString("output"),
		Compression:   v.GetString("compression"),
		Debug:         v.GetBool("debug"),
	}

	if cfg.Response == "" {
		return nil, errors.New("a response file is required (--response)")
	}
	if _, err := costmatrix.MinLengthFromFloat(cfg.MinLength); err != nil {
		return nil, err
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("workers must be >= 0, got %d", cfg.Workers)
	}
	if _, err := parseDivisor(cfg.Divisor); err != nil {
		return nil, err
	}
	if cfg.PinvTolerance < 0 || math.IsNaN(cfg.PinvTolerance) || math.IsInf(cfg.PinvTolerance, 0) {
		return nil, fmt.Errorf("pinv-tolerance must be finite and >= 0, got %v", cfg.PinvTolerance)
	}
	if cfg.ResidualFloor < 0 || math.IsNaN(cfg.ResidualFloor) || math.IsInf(cfg.ResidualFloor, 0) {
		return nil, fmt.Errorf("residual-floor must be finite and >= 0, got %v", cfg.ResidualFloor)
	}

	codec, err := tableio.ParseCompression(cfg.Compression)
	if err != nil {
		return nil, err
	}
	if codec != tableio.CompressionNone && cfg.Output == "" {
		return nil, fmt.Errorf("--compression %s needs an output file (--output)", codec)
	}

	return cfg, nil
}

// outputPath is the output file with the extension of the requested codec.
func (c *Config) outputPath() string {
	codec, _ := tableio.ParseCompression(c.Compression)
	return tableio.WithExtension(c.Output, codec)
}

// engineOptions turns a validated config into engine options.
func (c *Config) engineOptions() []costmatrix.Option {
	lmin, _ := costmatrix.MinLengthFromFloat(c.MinLength)
	divisor, _ := parseDivisor(c.Divisor)

	return []costmatrix.Option{
		costmatrix.WithMinLength(lmin),
		costmatrix.WithWorkers(c.Workers),
		costmatrix.WithDivisor(divisor),
		costmatrix.WithPinvTolerance(c.PinvTolerance),
		costmatrix.WithResidualFloor(c.ResidualFloor),
	}
}

func parseDivisor(name string) (costmatrix.Divisor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "rows":
		return costmatrix.DivisorRows, nil
	case "span":
		return costmatrix.DivisorSpan, nil
	default:
		return costmatrix.DivisorRows, fmt.Errorf("unknown divisor %q (options: rows, span)", name)
	}
}

// newLogger writes text logs to w, at debug level when debug is set.
func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
