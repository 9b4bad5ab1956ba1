package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trade-montecarlo/internal/api/models"
	"trade-montecarlo/internal/config"
)

// DefaultsHandler describes the simulation parameters
type DefaultsHandler struct {
	defaults config.SimulationConfig
}

// NewDefaultsHandler creates a new defaults handler
func NewDefaultsHandler(defaults config.SimulationConfig) *DefaultsHandler {
	return &DefaultsHandler{defaults: defaults}
}

// GetDefaults handles GET /api/v1/defaults
func (h *DefaultsHandler) GetDefaults(c *gin.Context) {
	d := h.defaults
	c.JSON(http.StatusOK, models.DefaultsResponse{
		Defaults: models.ParamsFromModel(d.ToModel()),
		Parameters: []models.ParameterInfo{
			{
				Name:        "starting_balance",
				Type:        "float",
				Description: "Account balance before the first period, in account currency",
				Default:     d.StartingBalance,
			},
			{
				Name:        "mean_return",
				Type:        "float",
				Description: "Mean weekly outcome in R (multiples of the amount risked)",
				Default:     d.MeanReturn,
			},
			{
				Name:        "stddev_return",
				Type:        "float",
				Description: "Standard deviation of the weekly outcome in R",
				Default:     d.StddevReturn,
			},
			{
				Name:        "risk_per_trade",
				Type:        "float",
				Description: "Fraction of the current balance risked each week, in (0, 1]",
				Default:     d.RiskPerTrade,
			},
			{
				Name:        "fee_adjustment",
				Type:        "float",
				Description: "Multiplier applied to every outcome for fees and slippage, in (0, 1]",
				Default:     d.FeeAdjustment,
			},
			{
				Name:        "num_weeks",
				Type:        "int",
				Description: "Number of periods per path",
				Default:     d.NumWeeks,
			},
			{
				Name:        "num_simulations",
				Type:        "int",
				Description: "Number of independent paths",
				Default:     d.NumSimulations,
			},
			{
				Name:        "seed",
				Type:        "uint",
				Description: "Master seed; 0 picks one and reports it so the run can be replayed",
				Default:     d.Seed,
			},
			{
				Name:        "workers",
				Type:        "int",
				Description: "Concurrent path generators; 0 uses one per CPU. Does not change results",
				Default:     d.Workers,
			},
		},
	})
}
