package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/plot/vg"

	"trade-montecarlo/internal/analysis"
	"trade-montecarlo/internal/api/models"
	"trade-montecarlo/internal/chart"
	"trade-montecarlo/internal/config"
	"trade-montecarlo/internal/data"
	"trade-montecarlo/internal/model"
	"trade-montecarlo/internal/montecarlo"
	"trade-montecarlo/internal/report"
)

// DefaultMaxCells caps NumSimulations*NumWeeks for a single request.
const DefaultMaxCells = 5_000_000

// Runner is the part of the engine the handlers need.
type Runner interface {
	Run(ctx context.Context, cfg model.SimulationConfig) (*montecarlo.Result, error)
}

// SimulationHandler handles simulation-related requests
type SimulationHandler struct {
	runner   Runner
	cache    *data.ResultCache
	defaults config.SimulationConfig
	maxCells int
	log      log.FieldLogger
	now      func() time.Time
}

// NewSimulationHandler creates a new simulation handler. Request fields left
// at zero are filled from defaults.
func NewSimulationHandler(runner Runner, cache *data.ResultCache, defaults config.SimulationConfig, logger log.FieldLogger) *SimulationHandler {
	return &SimulationHandler{
		runner:   runner,
		cache:    cache,
		defaults: defaults,
		maxCells: DefaultMaxCells,
		log:      logger,
		now:      time.Now,
	}
}

// SetMaxCells overrides DefaultMaxCells; n <= 0 removes the limit.
func (h *SimulationHandler) SetMaxCells(n int) { h.maxCells = n }

// Simulate handles POST /api/v1/simulate
func (h *SimulationHandler) Simulate(c *gin.Context) {
	var req models.SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	cfg := config.MergeSimulation(h.defaults, req.Config).ToModel()
	id, res, ok := h.run(c, cfg)
	if !ok {
		return
	}

	resp := models.SimulateResponse{
		ID:        id,
		Status:    "completed",
		Config:    models.ParamsFromModel(res.Config),
		Summary:   report.NewSummaryJSON(res.Config, res.Summary),
		ElapsedMS: res.Elapsed.Milliseconds(),
	}
	if req.Options.IncludeTerminal {
		resp.Terminal = models.Balances(res.Terminal)
	}
	if req.Options.IncludePaths {
		resp.Paths = ensemblePaths(res.Ensemble)
	}
	c.JSON(http.StatusOK, resp)
}

// Compare handles POST /api/v1/simulate/compare
func (h *SimulationHandler) Compare(c *gin.Context) {
	var req models.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	base := config.MergeSimulation(h.defaults, req.BaseConfig)
	// Every variation shares one seed so differences come from the parameters,
	// not from different draws.
	if base.Seed == 0 {
		base.Seed = uint64(h.now().UnixNano())
	}
	seen := make(map[string]bool, len(req.Variations))
	results := make([]analysis.ScenarioResult, 0, len(req.Variations))
	ids := make(map[string]string, len(req.Variations))

	for _, v := range req.Variations {
		if seen[v.Name] {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: models.ErrorDetail{
					Code:    "INVALID_REQUEST",
					Message: "duplicate variation name " + v.Name,
				},
			})
			return
		}
		seen[v.Name] = true

		cfg := config.MergeSimulation(base, v.Config).ToModel()
		id, res, ok := h.run(c, cfg, "variation", v.Name)
		if !ok {
			return
		}
		ids[v.Name] = id
		results = append(results, analysis.ScenarioResult{
			Name:    v.Name,
			Config:  res.Config,
			Summary: res.Summary,
		})
	}

	ranked := analysis.RankByMedian(results)
	out := models.CompareResponse{Rankings: make([]models.Ranking, 0, len(ranked))}
	for _, r := range ranked {
		out.Rankings = append(out.Rankings, models.Ranking{
			Rank:    r.Rank,
			Name:    r.Name,
			ID:      ids[r.Name],
			Config:  models.ParamsFromModel(r.Config),
			Summary: report.NewSummaryJSON(r.Config, r.Summary),
		})
	}
	c.JSON(http.StatusOK, out)
}

// GetTerminal handles GET /api/v1/simulations/:id/terminal
func (h *SimulationHandler) GetTerminal(c *gin.Context) {
	id, res, ok := h.lookup(c)
	if !ok {
		return
	}
	if c.Query("format") == "csv" {
		writeCSV(c, id+"_terminal.csv", func(w io.Writer) error {
			return montecarlo.EncodeTerminalCSV(w, res.Config.StartingBalance, res.Terminal)
		})
		return
	}
	c.JSON(http.StatusOK, models.TerminalResponse{
		ID:       id,
		Terminal: models.Balances(res.Terminal),
	})
}

// GetEnsemble handles GET /api/v1/simulations/:id/ensemble
func (h *SimulationHandler) GetEnsemble(c *gin.Context) {
	id, res, ok := h.lookup(c)
	if !ok {
		return
	}
	if c.Query("format") == "csv" {
		writeCSV(c, id+"_ensemble.csv", func(w io.Writer) error {
			return montecarlo.EncodeEnsembleCSV(w, res.Ensemble)
		})
		return
	}
	c.JSON(http.StatusOK, models.EnsembleResponse{
		ID:       id,
		NumWeeks: res.Ensemble.NumWeeks(),
		NumPaths: res.Ensemble.NumPaths(),
		Paths:    ensemblePaths(res.Ensemble),
	})
}

// GetHistogram handles GET /api/v1/simulations/:id/histogram.png
func (h *SimulationHandler) GetHistogram(c *gin.Context) {
	_, res, ok := h.lookup(c)
	if !ok {
		return
	}
	p, err := chart.Histogram(res.Terminal, res.Summary, res.Config.NumWeeks)
	if err != nil {
		abortWithError(c, http.StatusUnprocessableEntity, "PLOT_ERROR", err)
		return
	}
	c.Header("Content-Type", "image/png")
	if err := chart.EncodePNG(c.Writer, p, 10*vg.Inch, 6*vg.Inch); err != nil {
		h.log.WithError(err).Error("encode histogram")
	}
}

// run validates cfg, runs it and caches the result. On failure the error
// response has already been written.
func (h *SimulationHandler) run(c *gin.Context, cfg model.SimulationConfig, fields ...string) (string, *montecarlo.Result, bool) {
	entry := h.log
	for i := 0; i+1 < len(fields); i += 2 {
		entry = entry.WithField(fields[i], fields[i+1])
	}

	if err := cfg.Validate(); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_CONFIG", err)
		return "", nil, false
	}
	// Validate guarantees both sizes are positive; dividing avoids overflow.
	if h.maxCells > 0 && cfg.NumWeeks > h.maxCells/cfg.NumSimulations {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "TOO_LARGE",
				Message: "num_simulations * num_weeks exceeds the server limit",
				Details: map[string]interface{}{"max_cells": h.maxCells},
			},
		})
		return "", nil, false
	}

	res, err := h.runner.Run(c.Request.Context(), cfg)
	if err != nil {
		if errors.Is(err, model.ErrInvalidConfig) {
			abortWithError(c, http.StatusBadRequest, "INVALID_CONFIG", err)
		} else {
			abortWithError(c, http.StatusInternalServerError, "SIMULATION_ERROR", err)
		}
		return "", nil, false
	}

	id := data.ResultKey(res.Config)
	h.cache.Set(id, res)

	entry = entry.WithFields(log.Fields{
		"id":      id,
		"paths":   res.Config.NumSimulations,
		"weeks":   res.Config.NumWeeks,
		"seed":    res.Config.Seed,
		"elapsed": res.Elapsed,
	})
	if res.Summary.NonFinite > 0 {
		entry.WithField("non_finite", res.Summary.NonFinite).Warn("simulation produced non-finite balances")
	} else {
		entry.Info("simulation completed")
	}
	return id, res, true
}

func (h *SimulationHandler) lookup(c *gin.Context) (string, *montecarlo.Result, bool) {
	id := c.Param("id")
	res, ok := h.cache.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "NOT_FOUND",
				Message: "no simulation with id " + id + " (results expire after a while)",
			},
		})
		return "", nil, false
	}
	return id, res, true
}

func ensemblePaths(ens *montecarlo.Ensemble) [][]models.Balance {
	out := make([][]models.Balance, ens.NumPaths())
	for i := range out {
		out[i] = models.Balances(ens.Path(i))
	}
	return out
}

func writeCSV(c *gin.Context, filename string, encode func(io.Writer) error) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Status(http.StatusOK)
	if err := encode(c.Writer); err != nil {
		_ = c.Error(err)
	}
}

func abortWithError(c *gin.Context, status int, code string, err error) {
	detail := models.ErrorDetail{Code: code, Message: err.Error()}
	var cfgErr *model.ConfigError
	if errors.As(err, &cfgErr) {
		detail.Details = map[string]interface{}{"field": cfgErr.Field}
	}
	c.AbortWithStatusJSON(status, models.ErrorResponse{Error: detail})
}
