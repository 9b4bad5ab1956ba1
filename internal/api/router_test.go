package api

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-montecarlo/internal/api/handlers"
	"trade-montecarlo/internal/api/models"
	"trade-montecarlo/internal/config"
	"trade-montecarlo/internal/data"
	"trade-montecarlo/internal/model"
	"trade-montecarlo/internal/montecarlo"
	"trade-montecarlo/internal/returns"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, runner handlers.Runner) (*gin.Engine, *data.ResultCache) {
	t.Helper()
	return newTestRouterWithSeed(t, runner, 99)
}

func newTestRouterWithSeed(t *testing.T, runner handlers.Runner, seed uint64) (*gin.Engine, *data.ResultCache) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	defaults := model.DefaultSimulationConfig()
	defaults.NumWeeks = 6
	defaults.NumSimulations = 25
	defaults.Seed = seed

	cache := data.NewResultCache(0)
	r := NewRouter(Options{
		Runner:   runner,
		Cache:    cache,
		Defaults: config.FromModel(defaults),
		Logger:   logger,
		MaxCells: 10_000,
	})
	return r, cache
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Error struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var e errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e), w.Body.String())
	return e
}

type simulateBody struct {
	ID       string                  `json:"id"`
	Status   string                  `json:"status"`
	Config   models.SimulationParams `json:"config"`
	Summary  map[string]interface{}  `json:"summary"`
	Terminal []interface{}           `json:"terminal"`
	Paths    [][]interface{}         `json:"paths"`
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t, montecarlo.New())
	w := do(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestDefaults(t *testing.T) {
	r, _ := newTestRouter(t, montecarlo.New())
	w := do(r, http.MethodGet, "/api/v1/defaults", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body models.DefaultsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 6, body.Defaults.NumWeeks)
	assert.Equal(t, model.DefaultMeanReturn, body.Defaults.MeanReturn)
	assert.Len(t, body.Parameters, 9)
}

func TestSimulate_DefaultsAndOverrides(t *testing.T) {
	r, cache := newTestRouter(t, montecarlo.New())

	w := do(r, http.MethodPost, "/api/v1/simulate",
		`{"config":{"num_weeks":4,"risk_per_trade":0.02},"options":{"include_terminal":true,"include_paths":true}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body simulateBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "completed", body.Status)
	assert.NotEmpty(t, body.ID)
	assert.Equal(t, 4, body.Config.NumWeeks)
	assert.Equal(t, 0.02, body.Config.RiskPerTrade)
	assert.Equal(t, 25, body.Config.NumSimulations, "falls back to server default")
	assert.Equal(t, uint64(99), body.Config.Seed)
	assert.Len(t, body.Terminal, 25)
	require.Len(t, body.Paths, 25)
	assert.Len(t, body.Paths[0], 4)
	assert.Contains(t, body.Summary, "median")
	assert.Equal(t, 1, cache.Len())
}

func TestSimulate_EmptyBody(t *testing.T) {
	r, _ := newTestRouter(t, montecarlo.New())
	w := do(r, http.MethodPost, "/api/v1/simulate", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body simulateBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 6, body.Config.NumWeeks)
	assert.Nil(t, body.Terminal)
}

func TestSimulate_SameSeedSameID(t *testing.T) {
	r, _ := newTestRouter(t, montecarlo.New())
	var a, b simulateBody
	require.NoError(t, json.Unmarshal(do(r, http.MethodPost, "/api/v1/simulate", `{}`).Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(do(r, http.MethodPost, "/api/v1/simulate", `{"config":{"workers":3}}`).Body.Bytes(), &b))
	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, a.Summary, b.Summary)
}

func TestSimulate_InvalidConfig(t *testing.T) {
	r, _ := newTestRouter(t, montecarlo.New())
	w := do(r, http.MethodPost, "/api/v1/simulate", `{"config":{"risk_per_trade":1.5}}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	e := decodeError(t, w)
	assert.Equal(t, "INVALID_CONFIG", e.Error.Code)
	assert.Equal(t, "RiskPerTrade", e.Error.Details["field"])
}

func TestSimulate_MalformedJSON(t *testing.T) {
	r, _ := newTestRouter(t, montecarlo.New())
	w := do(r, http.MethodPost, "/api/v1/simulate", `{"config":`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", decodeError(t, w).Error.Code)
}

func TestSimulate_TooLarge(t *testing.T) {
	r, _ := newTestRouter(t, montecarlo.New())
	w := do(r, http.MethodPost, "/api/v1/simulate", `{"config":{"num_simulations":5000,"num_weeks":52}}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "TOO_LARGE", decodeError(t, w).Error.Code)
}

// countingRunner records calls and never simulates.
type countingRunner struct {
	calls int
}

func (r *countingRunner) Run(ctx context.Context, cfg model.SimulationConfig) (*montecarlo.Result, error) {
	r.calls++
	return nil, context.Canceled
}

func TestSimulate_TooLargeWithoutOverflow(t *testing.T) {
	runner := &countingRunner{}
	r, _ := newTestRouter(t, runner)

	// 2^32 * 2^32 wraps a 64-bit int to zero.
	w := do(r, http.MethodPost, "/api/v1/simulate", `{"config":{"num_simulations":4294967296,"num_weeks":4294967296}}`)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Equal(t, "TOO_LARGE", decodeError(t, w).Error.Code)

	// 3 * 3334 = 10002 is one path-week over the limit of 10000; 3 * 3333 fits.
	w = do(r, http.MethodPost, "/api/v1/simulate", `{"config":{"num_simulations":3,"num_weeks":3334}}`)
	assert.Equal(t, "TOO_LARGE", decodeError(t, w).Error.Code)
	assert.Equal(t, 0, runner.calls)

	w = do(r, http.MethodPost, "/api/v1/simulate", `{"config":{"num_simulations":3,"num_weeks":3333}}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 1, runner.calls, "a run at the limit reaches the engine")
}

func TestSimulate_NonFiniteBalancesEncode(t *testing.T) {
	r, _ := newTestRouter(t, montecarlo.NewWithSampler(returns.ConstantFactory(1e308)))
	w := do(r, http.MethodPost, "/api/v1/simulate",
		`{"config":{"num_weeks":3,"num_simulations":2,"risk_per_trade":1,"fee_adjustment":1},"options":{"include_terminal":true}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body simulateBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []interface{}{"+Inf", "+Inf"}, body.Terminal)
	assert.EqualValues(t, 2, body.Summary["non_finite"])
}

func TestGetTerminalAndEnsemble(t *testing.T) {
	r, _ := newTestRouter(t, montecarlo.NewWithSampler(returns.ConstantFactory(1)))
	w := do(r, http.MethodPost, "/api/v1/simulate", `{"config":{"num_weeks":2,"num_simulations":3,"fee_adjustment":1}}`)
	require.Equal(t, http.StatusOK, w.Code)
	var sim simulateBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sim))

	w = do(r, http.MethodGet, "/api/v1/simulations/"+sim.ID+"/terminal", "")
	require.Equal(t, http.StatusOK, w.Code)
	var term struct {
		ID       string    `json:"id"`
		Terminal []float64 `json:"terminal"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &term))
	require.Len(t, term.Terminal, 3)
	assert.InDelta(t, 10201.0, term.Terminal[0], 1e-9)

	w = do(r, http.MethodGet, "/api/v1/simulations/"+sim.ID+"/terminal?format=csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	rows, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"path", "final_balance", "outcome"}, rows[0])
	assert.Len(t, rows, 4)

	w = do(r, http.MethodGet, "/api/v1/simulations/"+sim.ID+"/ensemble", "")
	require.Equal(t, http.StatusOK, w.Code)
	var ens struct {
		NumWeeks int         `json:"num_weeks"`
		NumPaths int         `json:"num_paths"`
		Paths    [][]float64 `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ens))
	assert.Equal(t, 2, ens.NumWeeks)
	assert.Equal(t, 3, ens.NumPaths)
	assert.InDelta(t, 10100.0, ens.Paths[1][0], 1e-9)

	w = do(r, http.MethodGet, "/api/v1/simulations/"+sim.ID+"/ensemble?format=csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	rows, err = csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"week", "path_0", "path_1", "path_2"}, rows[0])
	assert.Len(t, rows, 3)

	w = do(r, http.MethodGet, "/api/v1/simulations/"+sim.ID+"/histogram.png", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "\x89PNG"))
}

func TestGetTerminal_UnknownID(t *testing.T) {
	r, _ := newTestRouter(t, montecarlo.New())
	w := do(r, http.MethodGet, "/api/v1/simulations/deadbeef/terminal", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, w).Error.Code)
}

func TestCompare_RanksByMedian(t *testing.T) {
	r, _ := newTestRouter(t, montecarlo.NewWithSampler(returns.ConstantFactory(1)))
	w := do(r, http.MethodPost, "/api/v1/simulate/compare", `{
		"base_config": {"num_weeks": 4, "fee_adjustment": 1},
		"variations": [
			{"name": "low", "config": {"risk_per_trade": 0.005}},
			{"name": "high", "config": {"risk_per_trade": 0.02}},
			{"name": "base", "config": {}}
		]
	}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Rankings []struct {
			Rank   int                     `json:"rank"`
			Name   string                  `json:"name"`
			ID     string                  `json:"id"`
			Config models.SimulationParams `json:"config"`
		} `json:"rankings"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Rankings, 3)
	assert.Equal(t, "high", body.Rankings[0].Name)
	assert.Equal(t, 1, body.Rankings[0].Rank)
	assert.Equal(t, "base", body.Rankings[1].Name)
	assert.Equal(t, "low", body.Rankings[2].Name)
	assert.Equal(t, 4, body.Rankings[2].Config.NumWeeks)
	assert.NotEmpty(t, body.Rankings[0].ID)
}

func TestCompare_UnseededVariationsShareSeed(t *testing.T) {
	r, _ := newTestRouterWithSeed(t, montecarlo.New(), 0)
	w := do(r, http.MethodPost, "/api/v1/simulate/compare", `{
		"variations": [
			{"name": "a", "config": {}},
			{"name": "b", "config": {}}
		]
	}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Rankings []struct {
			Name    string                  `json:"name"`
			ID      string                  `json:"id"`
			Config  models.SimulationParams `json:"config"`
			Summary map[string]interface{}  `json:"summary"`
		} `json:"rankings"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Rankings, 2)

	a, b := body.Rankings[0], body.Rankings[1]
	assert.NotZero(t, a.Config.Seed)
	assert.Equal(t, a.Config.Seed, b.Config.Seed)
	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, a.Summary["median"], b.Summary["median"])
}

func TestCompare_Errors(t *testing.T) {
	r, _ := newTestRouter(t, montecarlo.New())

	w := do(r, http.MethodPost, "/api/v1/simulate/compare", `{"variations": []}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/v1/simulate/compare",
		`{"variations": [{"name": "a", "config": {}}, {"name": "a", "config": {}}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/v1/simulate/compare",
		`{"variations": [{"name": "bad", "config": {"fee_adjustment": 2}}]}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_CONFIG", decodeError(t, w).Error.Code)
}

func TestCORSPreflight(t *testing.T) {
	r, _ := newTestRouter(t, montecarlo.New())
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/simulate", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNoRoute(t *testing.T) {
	r, _ := newTestRouter(t, montecarlo.New())
	w := do(r, http.MethodGet, "/api/v1/nope", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, w).Error.Code)
}
