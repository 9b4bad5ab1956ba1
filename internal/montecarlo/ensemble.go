package montecarlo

import (
	"errors"
	"fmt"

	"trade-montecarlo/internal/model"
)

// ErrEmptyEnsemble is returned when there are no paths or no periods to hold.
var ErrEmptyEnsemble = errors.New("empty ensemble")

// Ensemble is the matrix of simulated balances, M[t][i] for period t and path i.
// Storage is path-major so that workers fill disjoint slots without locking.
type Ensemble struct {
	paths    []model.Path
	numWeeks int
}

// NewEnsemble wraps already generated paths. All paths must share one length.
func NewEnsemble(paths []model.Path) (*Ensemble, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no paths", ErrEmptyEnsemble)
	}
	weeks := len(paths[0])
	for i, p := range paths {
		if len(p) != weeks {
			return nil, fmt.Errorf("path %d has %d periods, want %d", i, len(p), weeks)
		}
	}
	if weeks == 0 {
		return nil, fmt.Errorf("%w: paths have no periods", ErrEmptyEnsemble)
	}
	return &Ensemble{paths: paths, numWeeks: weeks}, nil
}

func (e *Ensemble) NumPaths() int { return len(e.paths) }

func (e *Ensemble) NumWeeks() int { return e.numWeeks }

// Path returns path i. The slice is shared; callers must not modify it.
func (e *Ensemble) Path(i int) model.Path { return e.paths[i] }

// At returns M[t][i].
func (e *Ensemble) At(t, i int) float64 { return e.paths[i][t] }

// Row copies period t across all paths.
func (e *Ensemble) Row(t int) []float64 {
	out := make([]float64, len(e.paths))
	for i, p := range e.paths {
		out[i] = p[t]
	}
	return out
}

// Terminal returns the final-period balance of every path.
func (e *Ensemble) Terminal() []float64 { return e.Row(e.numWeeks - 1) }
