package models

import (
	"math"
	"strconv"

	"trade-montecarlo/internal/model"
	"trade-montecarlo/internal/report"
)

// Balance is an account balance that survives JSON encoding when it is not
// finite: NaN and ±Inf are written as the strings "NaN", "+Inf" and "-Inf".
type Balance float64

func (b Balance) MarshalJSON() ([]byte, error) {
	v := float64(b)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte(strconv.Quote(strconv.FormatFloat(v, 'g', -1, 64))), nil
	}
	return strconv.AppendFloat(nil, v, 'f', -1, 64), nil
}

func Balances(vs []float64) []Balance {
	out := make([]Balance, len(vs))
	for i, v := range vs {
		out[i] = Balance(v)
	}
	return out
}

// SimulationParams echoes the configuration a run actually used.
type SimulationParams struct {
	StartingBalance float64 `json:"starting_balance"`
	MeanReturn      float64 `json:"mean_return"`
	StddevReturn    float64 `json:"stddev_return"`
	RiskPerTrade    float64 `json:"risk_per_trade"`
	FeeAdjustment   float64 `json:"fee_adjustment"`
	NumWeeks        int     `json:"num_weeks"`
	NumSimulations  int     `json:"num_simulations"`
	Seed            uint64  `json:"seed"`
	Workers         int     `json:"workers"`
}

func ParamsFromModel(c model.SimulationConfig) SimulationParams {
	return SimulationParams{
		StartingBalance: c.StartingBalance,
		MeanReturn:      c.MeanReturn,
		StddevReturn:    c.StddevReturn,
		RiskPerTrade:    c.RiskPerTrade,
		FeeAdjustment:   c.FeeAdjustment,
		NumWeeks:        c.NumWeeks,
		NumSimulations:  c.NumSimulations,
		Seed:            c.Seed,
		Workers:         c.Workers,
	}
}

// SimulateResponse represents the response from a simulation run
type SimulateResponse struct {
	ID        string             `json:"id"`
	Status    string             `json:"status"`
	Config    SimulationParams   `json:"config"`
	Summary   report.SummaryJSON `json:"summary"`
	ElapsedMS int64              `json:"elapsed_ms"`
	Terminal  []Balance          `json:"terminal,omitempty"`
	Paths     [][]Balance        `json:"paths,omitempty"`
}

// TerminalResponse lists the final balance of every path
type TerminalResponse struct {
	ID       string    `json:"id"`
	Terminal []Balance `json:"terminal"`
}

// EnsembleResponse lists every path, one slice per simulation
type EnsembleResponse struct {
	ID       string      `json:"id"`
	NumWeeks int         `json:"num_weeks"`
	NumPaths int         `json:"num_paths"`
	Paths    [][]Balance `json:"paths"`
}

// CompareResponse represents the response from a comparison
type CompareResponse struct {
	Rankings []Ranking `json:"rankings"`
}

// Ranking represents one ranked variation
type Ranking struct {
	Rank    int                `json:"rank"`
	Name    string             `json:"name"`
	ID      string             `json:"id"`
	Config  SimulationParams   `json:"config"`
	Summary report.SummaryJSON `json:"summary"`
}

// DefaultsResponse describes the tunable parameters and their defaults
type DefaultsResponse struct {
	Defaults   SimulationParams `json:"defaults"`
	Parameters []ParameterInfo  `json:"parameters"`
}

// ParameterInfo describes a simulation parameter
type ParameterInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "float", "int", "uint"
	Description string      `json:"description"`
	Default     interface{} `json:"default,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
