package returns

import "trade-montecarlo/internal/model"

// SequenceSampler replays a fixed list of outcomes, cycling when exhausted.
// Useful for what-if runs with a known return sequence.
type SequenceSampler struct {
	values []float64
	next   int
}

func NewSequenceSampler(values ...float64) *SequenceSampler {
	cp := make([]float64, len(values))
	copy(cp, values)
	return &SequenceSampler{values: cp}
}

func (s *SequenceSampler) Sample() float64 {
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.next]
	s.next = (s.next + 1) % len(s.values)
	return v
}

// SequenceFactory hands every path a fresh replay of the same sequence.
func SequenceFactory(values ...float64) Factory {
	return func(model.SimulationConfig, int) Sampler {
		return NewSequenceSampler(values...)
	}
}

// ConstantFactory makes every draw equal to r.
func ConstantFactory(r float64) Factory {
	return SequenceFactory(r)
}
