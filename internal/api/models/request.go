package models

import "trade-montecarlo/internal/config"

// SimulateRequest represents the request body for running a simulation.
// Zero fields in Config fall back to the server defaults.
type SimulateRequest struct {
	Config  config.SimulationConfig `json:"config"`
	Options SimulateOptions         `json:"options,omitempty"`
}

// SimulateOptions controls how much of the ensemble is returned inline
type SimulateOptions struct {
	IncludeTerminal bool `json:"include_terminal,omitempty"` // default: false
	IncludePaths    bool `json:"include_paths,omitempty"`    // default: false
}

// CompareRequest represents a request to compare several configurations
type CompareRequest struct {
	BaseConfig config.SimulationConfig `json:"base_config"`
	Variations []Variation             `json:"variations" binding:"required,min=1,dive"`
}

// Variation defines a variation to test
type Variation struct {
	Name   string                  `json:"name" binding:"required"`
	Config config.SimulationConfig `json:"config"`
}
