package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"trade-montecarlo/internal/analysis"
	"trade-montecarlo/internal/chart"
	"trade-montecarlo/internal/config"
	"trade-montecarlo/internal/logging"
	"trade-montecarlo/internal/model"
	"trade-montecarlo/internal/montecarlo"
	"trade-montecarlo/internal/report"
)

// loadConfig layers defaults, the YAML file, the environment and finally the
// command-line flags, then validates the result.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if err := config.LoadDotEnv(c.String("env-file")); err != nil {
		return nil, err
	}
	cfg, err := config.Resolve(c.String("config"), os.LookupEnv)
	if err != nil {
		return nil, err
	}
	applyFlags(c, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags overrides cfg with flags given explicitly on the command line.
// Unlike scenario overrides, an explicit zero here is honoured.
func applyFlags(c *cli.Context, cfg *config.Config) {
	s := &cfg.Simulation
	if c.IsSet("starting-balance") {
		s.StartingBalance = c.Float64("starting-balance")
	}
	if c.IsSet("mean-return") {
		s.MeanReturn = c.Float64("mean-return")
	}
	if c.IsSet("stddev-return") {
		s.StddevReturn = c.Float64("stddev-return")
	}
	if c.IsSet("risk-per-trade") {
		s.RiskPerTrade = c.Float64("risk-per-trade")
	}
	if c.IsSet("fee-adjustment") {
		s.FeeAdjustment = c.Float64("fee-adjustment")
	}
	if c.IsSet("weeks") {
		s.NumWeeks = c.Int("weeks")
	}
	if c.IsSet("simulations") {
		s.NumSimulations = c.Int("simulations")
	}
	if c.IsSet("seed") {
		s.Seed = c.Uint64("seed")
	}
	if c.IsSet("workers") {
		s.Workers = c.Int("workers")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("plot") {
		cfg.Plot = c.Bool("plot")
	}
	if c.IsSet("plot-dir") {
		cfg.PlotDir = c.String("plot-dir")
	}
}

func newLogger(c *cli.Context, cfg *config.Config) (*log.Logger, error) {
	logger, err := logging.New(c.App.ErrWriter, cfg.LogLevel)
	if err != nil {
		return nil, &model.ConfigError{Field: "LogLevel", Reason: err.Error()}
	}
	return logger, nil
}

func cmdSimulate(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger, err := newLogger(c, cfg)
	if err != nil {
		return err
	}

	res, err := runOne(c.Context, logger, cfg.Simulation.ToModel())
	if err != nil {
		return err
	}

	if out := c.String("out"); out != "" {
		if err := ensureDir(out); err != nil {
			return err
		}
		if err := montecarlo.WriteEnsembleCSV(out, res.Ensemble); err != nil {
			return err
		}
		logger.WithField("file", out).Info("wrote ensemble CSV")
	}
	if out := c.String("terminal-out"); out != "" {
		if err := ensureDir(out); err != nil {
			return err
		}
		if err := montecarlo.WriteTerminalCSV(out, res.Config.StartingBalance, res.Terminal); err != nil {
			return err
		}
		logger.WithField("file", out).Info("wrote terminal CSV")
	}
	if cfg.Plot {
		files, err := chart.SaveAll(cfg.PlotDir, res)
		if err != nil {
			return fmt.Errorf("plot: %w", err)
		}
		for _, f := range files {
			logger.WithField("file", f).Info("wrote chart")
		}
	}

	if c.Bool("json") {
		return report.WriteSummaryJSON(c.App.Writer, res.Config, res.Summary)
	}
	return report.WriteSummary(c.App.Writer, res.Config.StartingBalance, res.Config.NumWeeks, res.Summary)
}

func cmdCompare(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger, err := newLogger(c, cfg)
	if err != nil {
		return err
	}

	// Every scenario shares one seed so differences come from the parameters,
	// not from different draws.
	if cfg.Simulation.Seed == 0 {
		cfg.Simulation.Seed = uint64(time.Now().UnixNano())
	}

	scenarios := []config.Scenario{{Name: "base", Simulation: cfg.Simulation.ToModel()}}
	if c.IsSet("risk") {
		for _, r := range c.Float64Slice("risk") {
			sim := cfg.Simulation.ToModel()
			sim.RiskPerTrade = r
			scenarios = append(scenarios, config.Scenario{Name: fmt.Sprintf("risk=%g", r), Simulation: sim})
		}
	} else {
		scenarios = append(scenarios, cfg.ResolvedScenarios()...)
	}

	results := make([]analysis.ScenarioResult, 0, len(scenarios))
	for _, sc := range scenarios {
		if err := sc.Simulation.Validate(); err != nil {
			return fmt.Errorf("scenario %q: %w", sc.Name, err)
		}
		res, err := runOne(c.Context, logger.WithField("scenario", sc.Name), sc.Simulation)
		if err != nil {
			return fmt.Errorf("scenario %q: %w", sc.Name, err)
		}
		results = append(results, analysis.ScenarioResult{
			Name:    sc.Name,
			Config:  res.Config,
			Summary: res.Summary,
		})
	}

	return report.WriteRanking(c.App.Writer, analysis.RankByMedian(results))
}

func cmdDefaults(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(c.App.Writer)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

func runOne(ctx context.Context, logger log.FieldLogger, sim model.SimulationConfig) (*montecarlo.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := montecarlo.New().Run(ctx, sim)
	if err != nil {
		return nil, err
	}

	entry := logger.WithFields(log.Fields{
		"paths":   res.Config.NumSimulations,
		"weeks":   res.Config.NumWeeks,
		"seed":    res.Config.Seed,
		"workers": res.Config.EffectiveWorkers(),
		"elapsed": res.Elapsed,
	})
	if res.Summary.NonFinite > 0 {
		entry.WithField("non_finite", res.Summary.NonFinite).Warn("some balances overflowed; statistics include NaN/Inf")
	} else {
		entry.Info("simulation finished")
	}
	return res, nil
}

func ensureDir(file string) error {
	if dir := filepath.Dir(file); dir != "." {
		return os.MkdirAll(dir, 0o755)
	}
	return nil
}
