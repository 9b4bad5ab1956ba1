package returns

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"trade-montecarlo/internal/model"
)

// NormalSampler draws i.i.d. outcomes from Normal(mean, stddev).
type NormalSampler struct {
	dist distuv.Normal
}

func NewNormalSampler(mean, stddev float64, seed uint64) *NormalSampler {
	return &NormalSampler{dist: distuv.Normal{
		Mu:    mean,
		Sigma: stddev,
		Src:   rand.NewSource(seed),
	}}
}

func (s *NormalSampler) Sample() float64 { return s.dist.Rand() }

// NormalFactory gives path i a PCG stream seeded with PathSeed(cfg.Seed, i).
func NormalFactory(cfg model.SimulationConfig, pathIndex int) Sampler {
	return NewNormalSampler(cfg.MeanReturn, cfg.StddevReturn, PathSeed(cfg.Seed, pathIndex))
}

// PathSeed derives an independent per-path seed from the master seed using
// the splitmix64 finalizer, so neighbouring indices get unrelated streams.
func PathSeed(master uint64, pathIndex int) uint64 {
	z := master + uint64(pathIndex+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
