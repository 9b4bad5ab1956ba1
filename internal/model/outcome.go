package model

import "math"

// Outcome is a human-friendly classification of a path's terminal balance.
// Keep these values stable; they are intended for CSV output.
type Outcome string

const (
	OutcomeRuin      Outcome = "RUIN"
	OutcomeLoss      Outcome = "LOSS"
	OutcomeFlat      Outcome = "FLAT"
	OutcomeGain      Outcome = "GAIN"
	OutcomeNonFinite Outcome = "NON_FINITE"
)

func OutcomeFromBalances(starting, final float64) Outcome {
	switch {
	case math.IsNaN(final) || math.IsInf(final, 0):
		return OutcomeNonFinite
	case final <= 0:
		return OutcomeRuin
	case final < starting:
		return OutcomeLoss
	case final > starting:
		return OutcomeGain
	default:
		return OutcomeFlat
	}
}
