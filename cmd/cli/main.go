package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"trade-montecarlo/internal/model"
)

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for configuration mistakes and 1 for everything else.
func exitCode(err error) int {
	if errors.Is(err, model.ErrInvalidConfig) {
		return 2
	}
	return 1
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "trade-montecarlo",
		Usage: "Monte Carlo simulation of a trading account's balance from weekly R-multiple outcomes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "load KEY=VALUE settings from this file (missing file is ignored)",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML file with a simulation block and optional scenarios",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "simulate",
				Usage:  "run one simulation and print the summary",
				Flags:  append(simulationFlags(), simulateOutputFlags()...),
				Action: cmdSimulate,
			},
			{
				Name:  "compare",
				Usage: "run the base configuration and each scenario, ranked by median final balance",
				Flags: append(simulationFlags(), &cli.Float64SliceFlag{
					Name:  "risk",
					Usage: "compare these risk-per-trade fractions instead of the configured scenarios",
				}),
				Action: cmdCompare,
			},
			{
				Name:   "defaults",
				Usage:  "print the effective configuration as YAML",
				Flags:  simulationFlags(),
				Action: cmdDefaults,
			},
		},
	}
}

func simulationFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Float64Flag{Name: "starting-balance", Usage: "account balance before week 1"},
		&cli.Float64Flag{Name: "mean-return", Usage: "mean weekly outcome in R"},
		&cli.Float64Flag{Name: "stddev-return", Usage: "standard deviation of the weekly outcome in R"},
		&cli.Float64Flag{Name: "risk-per-trade", Usage: "fraction of the balance risked each week, in (0, 1]"},
		&cli.Float64Flag{Name: "fee-adjustment", Usage: "multiplier applied to every outcome, in (0, 1]"},
		&cli.IntFlag{Name: "weeks", Aliases: []string{"num-weeks"}, Usage: "periods per path"},
		&cli.IntFlag{Name: "simulations", Aliases: []string{"n", "num-simulations"}, Usage: "number of paths"},
		&cli.Uint64Flag{Name: "seed", Usage: "master seed (0 = pick one and report it)"},
		&cli.IntFlag{Name: "workers", Usage: "concurrent path generators (0 = one per CPU)"},
		&cli.StringFlag{Name: "log-level", Usage: "panic, fatal, error, warn, info, debug or trace"},
	}
}

func simulateOutputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "out", Usage: "write every path to this CSV (one row per week)"},
		&cli.StringFlag{Name: "terminal-out", Usage: "write final balances and outcomes to this CSV"},
		&cli.BoolFlag{Name: "plot", Usage: "write histogram and path charts as PNG"},
		&cli.StringFlag{Name: "plot-dir", Usage: "directory for the charts"},
		&cli.BoolFlag{Name: "json", Usage: "print the summary as JSON"},
	}
}
