package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"trade-montecarlo/internal/model"
)

// Environment variable names.
const (
	EnvStartingBalance = "STARTING_BALANCE"
	EnvNumWeeks        = "NUM_WEEKS"
	EnvPlot            = "PLOT"
	EnvMeanReturn      = "MEAN_RETURN"
	EnvStddevReturn    = "STDDEV_RETURN"
	EnvFeeAdjustment   = "FEE_ADJUSTMENT"
	EnvNumSimulations  = "NUM_SIMULATIONS"
	EnvRiskPerTrade    = "RISK_PER_TRADE"
	EnvSeed            = "SEED"
	EnvWorkers         = "WORKERS"
	EnvPlotDir         = "PLOT_DIR"
	EnvLogLevel        = "LOG_LEVEL"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// A missing file is not an error. Variables already set are left alone.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides c with any variables present in the environment.
func ApplyEnv(c *Config, lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{EnvStartingBalance, &c.Simulation.StartingBalance},
		{EnvMeanReturn, &c.Simulation.MeanReturn},
		{EnvStddevReturn, &c.Simulation.StddevReturn},
		{EnvRiskPerTrade, &c.Simulation.RiskPerTrade},
		{EnvFeeAdjustment, &c.Simulation.FeeAdjustment},
	}
	for _, f := range floats {
		if v, ok := get(f.key); ok {
			x, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return envError(f.key, err)
			}
			*f.dst = x
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{EnvNumWeeks, &c.Simulation.NumWeeks},
		{EnvNumSimulations, &c.Simulation.NumSimulations},
		{EnvWorkers, &c.Simulation.Workers},
	}
	for _, f := range ints {
		if v, ok := get(f.key); ok {
			x, err := strconv.Atoi(v)
			if err != nil {
				return envError(f.key, err)
			}
			*f.dst = x
		}
	}

	if v, ok := get(EnvSeed); ok {
		x, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return envError(EnvSeed, err)
		}
		c.Simulation.Seed = x
	}
	if v, ok := get(EnvPlot); ok {
		b, err := ParseFlag(v)
		if err != nil {
			return envError(EnvPlot, err)
		}
		c.Plot = b
	}
	if v, ok := get(EnvPlotDir); ok {
		c.PlotDir = v
	}
	if v, ok := get(EnvLogLevel); ok {
		c.LogLevel = v
	}
	return nil
}

func envError(key string, err error) error {
	return &model.ConfigError{Field: key, Reason: fmt.Sprintf("malformed value: %v", err)}
}

// Resolve builds the effective configuration: defaults, then the YAML file
// (if any), then the environment. Callers apply flags on top and validate.
func Resolve(path string, lookup LookupFunc) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(c, lookup); err != nil {
		return nil, err
	}
	return c, nil
}

// ParseFlag accepts strconv.ParseBool spellings plus yes/no and on/off.
func ParseFlag(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "on":
		return true, nil
	case "no", "n", "off", "":
		return false, nil
	}
	return strconv.ParseBool(s)
}
