package returns

import "trade-montecarlo/internal/model"

// Sampler yields one per-period outcome in R units per call.
// A Sampler is owned by a single path and is not safe for concurrent use.
type Sampler interface {
	Sample() float64
}

// Factory builds the sampler for path pathIndex. Implementations must give
// each index its own stream so that paths are independent.
type Factory func(cfg model.SimulationConfig, pathIndex int) Sampler
