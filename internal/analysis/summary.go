package analysis

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"trade-montecarlo/internal/model"
)

// ErrNoValues is returned when summarizing an empty set of terminal balances.
var ErrNoValues = errors.New("no terminal balances to summarize")

// Summarize reduces terminal balances to the fixed summary record.
// The input slice is not modified. Non-finite values are counted and left in
// place, so they surface in the mean and in the tails instead of being masked.
func Summarize(terminal []float64) (model.Summary, error) {
	n := len(terminal)
	if n == 0 {
		return model.Summary{}, ErrNoValues
	}

	sorted := make([]float64, n)
	copy(sorted, terminal)
	sort.Float64s(sorted)

	s := model.Summary{
		Count:  n,
		Mean:   stat.Mean(terminal, nil),
		Median: Percentile(sorted, 0.50),
		P1:     Percentile(sorted, 0.01),
		P5:     Percentile(sorted, 0.05),
		P95:    Percentile(sorted, 0.95),
		P99:    Percentile(sorted, 0.99),
		Min:    sorted[0],
		Max:    sorted[n-1],
	}
	if n > 1 {
		s.StdDev = stat.StdDev(terminal, nil)
	}

	for _, v := range terminal {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			s.NonFinite++
			continue
		}
		if v <= 0 {
			s.RuinCount++
		}
	}
	s.RuinProbability = float64(s.RuinCount) / float64(n)
	return s, nil
}

// Percentile returns the q-quantile (q in [0,1]) of an ascending slice using
// linear interpolation between the two nearest ranks: pos = q*(n-1).
func Percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	a, b := sorted[lo], sorted[hi]
	if lo == hi || a == b {
		return a
	}
	frac := pos - float64(lo)
	// Interpolate from the nearer end so the result stays inside [a, b].
	if frac >= 0.5 {
		return b - (b-a)*(1-frac)
	}
	return a + (b-a)*frac
}
