package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/shopspring/decimal"

	"trade-montecarlo/internal/analysis"
	"trade-montecarlo/internal/model"
)

// exactExponent is low enough for NewFromFloatWithExponent to keep every
// binary digit of a float64.
const exactExponent = -1100

// Currency renders x as dollars with two decimals. NaN and Inf are printed
// as-is so a blown-up run is visible in the report.
func Currency(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return fmt.Sprintf("$%v", x)
	}
	return "$" + fixed2(x)
}

// fixed2 rounds the exact binary value of x half to even, the way printf-style
// "%.2f" does, so 1.005 (stored as 1.00499...) gives 1.00 and 0.125 gives 0.12.
func fixed2(x float64) string {
	return decimal.NewFromFloatWithExponent(x, exactExponent).StringFixedBank(2)
}

// WriteSummary prints the human-readable report for one run.
func WriteSummary(w io.Writer, startingBalance float64, numWeeks int, s model.Summary) error {
	lines := []struct {
		label string
		value float64
	}{
		{"Starting Balance", startingBalance},
		{"Mean Final Balance", s.Mean},
		{"Median Final Balance", s.Median},
		{"1st Percentile (Extreme-Case)", s.P1},
		{"5th Percentile (Worst-Case)", s.P5},
		{"95th Percentile (Best-Case)", s.P95},
		{"99th Percentile (Dream-Case)", s.P99},
	}

	if _, err := fmt.Fprintf(w, "Monte Carlo Simulation Results After %d Weeks\n", numWeeks); err != nil {
		return err
	}
	for _, l := range lines {
		if _, err := fmt.Fprintf(w, "%s: %s\n", l.label, Currency(l.value)); err != nil {
			return err
		}
	}
	return nil
}

// SummaryJSON is the machine-readable form of a run.
type SummaryJSON struct {
	StartingBalance string  `json:"starting_balance"`
	NumWeeks        int     `json:"num_weeks"`
	NumSimulations  int     `json:"num_simulations"`
	Seed            uint64  `json:"seed"`
	Mean            string  `json:"mean"`
	Median          string  `json:"median"`
	P1              string  `json:"p1"`
	P5              string  `json:"p5"`
	P95             string  `json:"p95"`
	P99             string  `json:"p99"`
	Min             string  `json:"min"`
	Max             string  `json:"max"`
	StdDev          string  `json:"stddev"`
	RuinProbability float64 `json:"ruin_probability"`
	NonFinite       int     `json:"non_finite"`
}

// NewSummaryJSON converts amounts to fixed two-decimal strings; NaN and Inf
// have no JSON number form.
func NewSummaryJSON(cfg model.SimulationConfig, s model.Summary) SummaryJSON {
	return SummaryJSON{
		StartingBalance: Amount(cfg.StartingBalance),
		NumWeeks:        cfg.NumWeeks,
		NumSimulations:  s.Count,
		Seed:            cfg.Seed,
		Mean:            Amount(s.Mean),
		Median:          Amount(s.Median),
		P1:              Amount(s.P1),
		P5:              Amount(s.P5),
		P95:             Amount(s.P95),
		P99:             Amount(s.P99),
		Min:             Amount(s.Min),
		Max:             Amount(s.Max),
		StdDev:          Amount(s.StdDev),
		RuinProbability: s.RuinProbability,
		NonFinite:       s.NonFinite,
	}
}

func WriteSummaryJSON(w io.Writer, cfg model.SimulationConfig, s model.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewSummaryJSON(cfg, s))
}

// Amount is Currency without the dollar sign.
func Amount(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return fmt.Sprintf("%v", x)
	}
	return fixed2(x)
}

// WriteRanking prints a fixed-width comparison table.
func WriteRanking(w io.Writer, ranked []analysis.RankedScenario) error {
	if _, err := fmt.Fprintf(w, "%-4s %-18s %-8s %-8s %-14s %-14s %-14s %-8s\n",
		"rank", "scenario", "risk", "weeks", "p5", "median", "p95", "ruin%"); err != nil {
		return err
	}
	for _, r := range ranked {
		_, err := fmt.Fprintf(w, "%-4d %-18s %-8.4f %-8d %-14s %-14s %-14s %-8.2f\n",
			r.Rank,
			r.Name,
			r.Config.RiskPerTrade,
			r.Config.NumWeeks,
			Amount(r.Summary.P5),
			Amount(r.Summary.Median),
			Amount(r.Summary.P95),
			r.Summary.RuinProbability*100,
		)
		if err != nil {
			return err
		}
	}
	return nil
}
