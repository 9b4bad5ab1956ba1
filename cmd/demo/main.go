package main

import (
	"context"
	"fmt"
	"os"

	"trade-montecarlo/internal/chart"
	"trade-montecarlo/internal/config"
	"trade-montecarlo/internal/logging"
	"trade-montecarlo/internal/montecarlo"
	"trade-montecarlo/internal/report"
)

// showPaths and showWeeks bound the table printed before the report.
const (
	showPaths = 5
	showWeeks = 8
)

// Demo:
// - Read settings from .env and the environment only (no flags)
// - Run the simulation
// - Print the first weeks of a few paths to show how balances compound
// - Plot when PLOT is set, then print the summary report
func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fail(err)
	}
	cfg, err := config.Resolve("", os.LookupEnv)
	if err != nil {
		fail(err)
	}
	if err := cfg.Validate(); err != nil {
		fail(err)
	}
	logger, err := logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		fail(err)
	}

	res, err := montecarlo.New().Run(context.Background(), cfg.Simulation.ToModel())
	if err != nil {
		fail(err)
	}
	logger.WithField("seed", res.Config.Seed).Info("replay this run with SEED")

	ens := res.Ensemble
	paths := min(showPaths, ens.NumPaths())
	weeks := min(showWeeks, ens.NumWeeks())

	fmt.Printf("%-6s", "week")
	for i := 0; i < paths; i++ {
		fmt.Printf(" %14s", fmt.Sprintf("path %d", i))
	}
	fmt.Println()
	for t := 0; t < weeks; t++ {
		fmt.Printf("%-6d", t+1)
		for i := 0; i < paths; i++ {
			fmt.Printf(" %14s", report.Amount(ens.At(t, i)))
		}
		fmt.Println()
	}
	if weeks < ens.NumWeeks() {
		fmt.Printf("... %d more weeks\n", ens.NumWeeks()-weeks)
	}
	fmt.Println()

	if cfg.Plot {
		files, err := chart.SaveAll(cfg.PlotDir, res)
		if err != nil {
			logger.WithError(err).Error("plot failed")
		}
		for _, f := range files {
			logger.WithField("file", f).Info("wrote chart")
		}
	}

	if err := report.WriteSummary(os.Stdout, res.Config.StartingBalance, res.Config.NumWeeks, res.Summary); err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
