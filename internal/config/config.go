package config

import (
	"errors"
	"fmt"
	"os"

	"trade-montecarlo/internal/model"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	// Scenarios are named overrides of Simulation, used by compare.
	Scenarios []ScenarioConfig `yaml:"scenarios"`

	Plot     bool   `yaml:"plot"`
	PlotDir  string `yaml:"plot_dir"`
	LogLevel string `yaml:"log_level"`
}

type SimulationConfig struct {
	StartingBalance float64 `yaml:"starting_balance" json:"starting_balance,omitempty"`
	MeanReturn      float64 `yaml:"mean_return" json:"mean_return,omitempty"`
	StddevReturn    float64 `yaml:"stddev_return" json:"stddev_return,omitempty"`
	RiskPerTrade    float64 `yaml:"risk_per_trade" json:"risk_per_trade,omitempty"`
	FeeAdjustment   float64 `yaml:"fee_adjustment" json:"fee_adjustment,omitempty"`
	NumWeeks        int     `yaml:"num_weeks" json:"num_weeks,omitempty"`
	NumSimulations  int     `yaml:"num_simulations" json:"num_simulations,omitempty"`
	Seed            uint64  `yaml:"seed" json:"seed,omitempty"`
	Workers         int     `yaml:"workers" json:"workers,omitempty"`
}

type ScenarioConfig struct {
	Name             string `yaml:"name"`
	SimulationConfig `yaml:",inline"`
}

// Scenario is a fully resolved, named configuration.
type Scenario struct {
	Name       string
	Simulation model.SimulationConfig
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Simulation: FromModel(model.DefaultSimulationConfig()),
		PlotDir:    "results",
		LogLevel:   "info",
	}
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked decodes path over the defaults, but does not validate.
// Keys missing from the file keep their default, so an explicit zero in the
// file is honoured. An empty path yields the defaults.
func LoadUnchecked(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := c.Simulation.ToModel().Validate(); err != nil {
		return err
	}
	seen := map[string]bool{}
	for i, sc := range c.Scenarios {
		if sc.Name == "" {
			return &model.ConfigError{Field: fmt.Sprintf("scenarios[%d].name", i), Reason: "is required"}
		}
		if seen[sc.Name] {
			return &model.ConfigError{Field: fmt.Sprintf("scenarios[%d].name", i), Reason: fmt.Sprintf("duplicates %q", sc.Name)}
		}
		seen[sc.Name] = true
		if err := MergeSimulation(c.Simulation, sc.SimulationConfig).ToModel().Validate(); err != nil {
			return fmt.Errorf("scenario %q invalid: %w", sc.Name, err)
		}
	}
	return nil
}

// ResolvedScenarios returns each scenario with the base simulation applied underneath.
func (c *Config) ResolvedScenarios() []Scenario {
	out := make([]Scenario, 0, len(c.Scenarios))
	for _, sc := range c.Scenarios {
		out = append(out, Scenario{
			Name:       sc.Name,
			Simulation: MergeSimulation(c.Simulation, sc.SimulationConfig).ToModel(),
		})
	}
	return out
}

func (s SimulationConfig) ToModel() model.SimulationConfig {
	return model.SimulationConfig{
		StartingBalance: s.StartingBalance,
		MeanReturn:      s.MeanReturn,
		StddevReturn:    s.StddevReturn,
		RiskPerTrade:    s.RiskPerTrade,
		FeeAdjustment:   s.FeeAdjustment,
		NumWeeks:        s.NumWeeks,
		NumSimulations:  s.NumSimulations,
		Seed:            s.Seed,
		Workers:         s.Workers,
	}
}

func FromModel(m model.SimulationConfig) SimulationConfig {
	return SimulationConfig{
		StartingBalance: m.StartingBalance,
		MeanReturn:      m.MeanReturn,
		StddevReturn:    m.StddevReturn,
		RiskPerTrade:    m.RiskPerTrade,
		FeeAdjustment:   m.FeeAdjustment,
		NumWeeks:        m.NumWeeks,
		NumSimulations:  m.NumSimulations,
		Seed:            m.Seed,
		Workers:         m.Workers,
	}
}

// MergeSimulation overlays non-zero fields from override onto base.
// Used for scenarios and request bodies, where a zero means "not given".
func MergeSimulation(base, override SimulationConfig) SimulationConfig {
	out := base
	if override.StartingBalance != 0 {
		out.StartingBalance = override.StartingBalance
	}
	// Note: a zero mean or stddev cannot be expressed as an override; put it in
	// the simulation block instead.
	if override.MeanReturn != 0 {
		out.MeanReturn = override.MeanReturn
	}
	if override.StddevReturn != 0 {
		out.StddevReturn = override.StddevReturn
	}
	if override.RiskPerTrade != 0 {
		out.RiskPerTrade = override.RiskPerTrade
	}
	if override.FeeAdjustment != 0 {
		out.FeeAdjustment = override.FeeAdjustment
	}
	if override.NumWeeks != 0 {
		out.NumWeeks = override.NumWeeks
	}
	if override.NumSimulations != 0 {
		out.NumSimulations = override.NumSimulations
	}
	if override.Seed != 0 {
		out.Seed = override.Seed
	}
	if override.Workers != 0 {
		out.Workers = override.Workers
	}
	return out
}
