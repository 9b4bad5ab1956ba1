package analysis

import (
	"sort"

	"trade-montecarlo/internal/model"
)

// ScenarioResult pairs a named configuration with its summary.
type ScenarioResult struct {
	Name    string
	Config  model.SimulationConfig
	Summary model.Summary
}

type RankedScenario struct {
	Rank int
	ScenarioResult
}

// RankByMedian sorts scenarios by median terminal balance, best first.
// Ties fall back to the 5th percentile (less downside wins), then name.
func RankByMedian(results []ScenarioResult) []RankedScenario {
	out := make([]RankedScenario, 0, len(results))
	for _, r := range results {
		out = append(out, RankedScenario{ScenarioResult: r})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Summary, out[j].Summary
		if a.Median != b.Median {
			return a.Median > b.Median
		}
		if a.P5 != b.P5 {
			return a.P5 > b.P5
		}
		return out[i].Name < out[j].Name
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
