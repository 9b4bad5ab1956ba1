package model

// Summary is the distribution of terminal balances across an ensemble.
// Percentiles use linear interpolation between order statistics.
type Summary struct {
	Count int

	Mean   float64
	Median float64
	P1     float64
	P5     float64
	P95    float64
	P99    float64

	Min    float64
	Max    float64
	StdDev float64

	// RuinCount is the number of paths ending at or below zero.
	RuinCount       int
	RuinProbability float64

	// NonFinite counts NaN/Inf terminal balances. They are kept in the
	// statistics rather than dropped, so a non-zero value taints the results.
	NonFinite int
}
