package montecarlo

import (
	"fmt"

	"trade-montecarlo/internal/model"
	"trade-montecarlo/internal/returns"
)

// GeneratePath simulates one balance trajectory of cfg.NumWeeks periods.
//
// Each period risks cfg.RiskPerTrade of the current balance, so a sampled
// outcome of r R changes the balance by r * balance * risk * fee. Balances are
// never floored or capped: ruin (<= 0) and overflow to Inf stay visible.
func GeneratePath(cfg model.SimulationConfig, sampler returns.Sampler) (model.Path, error) {
	if err := cfg.ValidatePath(); err != nil {
		return nil, err
	}
	if sampler == nil {
		return nil, fmt.Errorf("sampler is nil")
	}

	path := make(model.Path, cfg.NumWeeks)
	balance := cfg.StartingBalance
	for t := range path {
		r := sampler.Sample()
		balance += r * (balance * cfg.RiskPerTrade) * cfg.FeeAdjustment
		path[t] = balance
	}
	return path, nil
}
