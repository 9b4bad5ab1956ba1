package model

import (
	"errors"
	"fmt"
	"math"
	"runtime"
)

// ErrInvalidConfig is wrapped by every ConfigError so callers can test with errors.Is.
var ErrInvalidConfig = errors.New("invalid simulation config")

// ConfigError names the offending parameter.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidConfig, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

// Defaults for a weekly R-multiple simulation.
const (
	DefaultStartingBalance = 10000.0
	DefaultMeanReturn      = 11.4
	DefaultStddevReturn    = 7.657675888
	DefaultFeeAdjustment   = 0.8
	DefaultRiskPerTrade    = 0.01
	DefaultNumWeeks        = 52
	DefaultNumSimulations  = 1000
)

// SimulationConfig holds the parameters of one Monte Carlo run.
// Units:
// - StartingBalance: account currency
// - MeanReturn, StddevReturn: per-period outcome in R (multiples of the amount risked)
// - RiskPerTrade: fraction of the current balance risked each period, (0,1]
// - FeeAdjustment: multiplicative haircut on every outcome, (0,1]
//
// Seed 0 lets the engine pick a seed; Workers 0 means one worker per CPU.
type SimulationConfig struct {
	StartingBalance float64
	MeanReturn      float64
	StddevReturn    float64
	RiskPerTrade    float64
	FeeAdjustment   float64
	NumWeeks        int
	NumSimulations  int
	Seed            uint64
	Workers         int
}

func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		StartingBalance: DefaultStartingBalance,
		MeanReturn:      DefaultMeanReturn,
		StddevReturn:    DefaultStddevReturn,
		RiskPerTrade:    DefaultRiskPerTrade,
		FeeAdjustment:   DefaultFeeAdjustment,
		NumWeeks:        DefaultNumWeeks,
		NumSimulations:  DefaultNumSimulations,
	}
}

// ValidatePath checks the parameters a single path depends on.
func (c SimulationConfig) ValidatePath() error {
	if math.IsNaN(c.StartingBalance) || math.IsInf(c.StartingBalance, 0) {
		return &ConfigError{Field: "StartingBalance", Reason: "must be finite"}
	}
	if c.StartingBalance <= 0 {
		return &ConfigError{Field: "StartingBalance", Reason: "must be > 0"}
	}
	if math.IsNaN(c.MeanReturn) || math.IsInf(c.MeanReturn, 0) {
		return &ConfigError{Field: "MeanReturn", Reason: "must be finite"}
	}
	if math.IsNaN(c.StddevReturn) || math.IsInf(c.StddevReturn, 0) || c.StddevReturn < 0 {
		return &ConfigError{Field: "StddevReturn", Reason: "must be finite and >= 0"}
	}
	if !(c.RiskPerTrade > 0 && c.RiskPerTrade <= 1) {
		return &ConfigError{Field: "RiskPerTrade", Reason: "must be in (0, 1]"}
	}
	if !(c.FeeAdjustment > 0 && c.FeeAdjustment <= 1) {
		return &ConfigError{Field: "FeeAdjustment", Reason: "must be in (0, 1]"}
	}
	if c.NumWeeks <= 0 {
		return &ConfigError{Field: "NumWeeks", Reason: "must be > 0"}
	}
	return nil
}

// Validate checks the whole run, including ensemble size and worker count.
func (c SimulationConfig) Validate() error {
	if err := c.ValidatePath(); err != nil {
		return err
	}
	if c.NumSimulations <= 0 {
		return &ConfigError{Field: "NumSimulations", Reason: "must be > 0"}
	}
	if c.Workers < 0 {
		return &ConfigError{Field: "Workers", Reason: "must be >= 0"}
	}
	return nil
}

// EffectiveWorkers resolves Workers to a concrete pool size, never more than one per path.
func (c SimulationConfig) EffectiveWorkers() int {
	w := c.Workers
	if w <= 0 {
		w = runtime.NumCPU()
	}
	if c.NumSimulations > 0 && w > c.NumSimulations {
		w = c.NumSimulations
	}
	if w < 1 {
		w = 1
	}
	return w
}

// Path is one simulated balance trajectory. Path[0] is the balance after the
// first period; the starting balance itself is not stored.
type Path []float64

// Final returns the terminal balance, or NaN for an empty path.
func (p Path) Final() float64 {
	if len(p) == 0 {
		return math.NaN()
	}
	return p[len(p)-1]
}
