package chart

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"

	"trade-montecarlo/internal/model"
	"trade-montecarlo/internal/montecarlo"
)

func smallRun(t *testing.T) *montecarlo.Result {
	t.Helper()
	cfg := model.DefaultSimulationConfig()
	cfg.NumWeeks = 8
	cfg.NumSimulations = 40
	cfg.Seed = 11
	res, err := montecarlo.New().Run(context.Background(), cfg)
	require.NoError(t, err)
	return res
}

func TestHistogram_TitleAndBins(t *testing.T) {
	res := smallRun(t)
	p, err := Histogram(res.Terminal, res.Summary, res.Config.NumWeeks)
	require.NoError(t, err)
	assert.Equal(t, "Monte Carlo Simulation of Final Balances After 8 Weeks", p.Title.Text)
	assert.Equal(t, "Final Balance ($)", p.X.Label.Text)
	assert.Equal(t, "Frequency", p.Y.Label.Text)
}

func TestHistogram_SkipsNonFinite(t *testing.T) {
	terminal := []float64{math.NaN(), 100, 200, math.Inf(1)}
	s := model.Summary{Mean: math.NaN(), Median: 150, P1: 100, P5: 100, P95: 200, P99: 200}
	p, err := Histogram(terminal, s, 3)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, EncodePNG(&buf, p, 4*vg.Inch, 3*vg.Inch))
	assert.Equal(t, []byte("\x89PNG"), buf.Bytes()[:4])
}

func TestHistogram_NothingFinite(t *testing.T) {
	_, err := Histogram([]float64{math.NaN(), math.Inf(-1)}, model.Summary{}, 1)
	require.ErrorIs(t, err, ErrNothingToPlot)
}

func TestPaths_CutsAtNonFinite(t *testing.T) {
	assert.Len(t, pathXYs(model.Path{1, 2, math.Inf(1), 4}), 2)
	assert.Len(t, pathXYs(model.Path{math.NaN()}), 0)

	xys := pathXYs(model.Path{10, 20})
	assert.Equal(t, 1.0, xys[0].X, "weeks start at 1")
	assert.Equal(t, 20.0, xys[1].Y)
}

func TestPaths_Title(t *testing.T) {
	res := smallRun(t)
	p, err := Paths(res.Ensemble)
	require.NoError(t, err)
	assert.Equal(t, "Monte Carlo Simulation of Account Balance Over 8 Weeks", p.Title.Text)
	assert.Equal(t, "Week", p.X.Label.Text)
	assert.Equal(t, "Account Balance ($)", p.Y.Label.Text)
}

func TestSaveAll(t *testing.T) {
	res := smallRun(t)
	dir := filepath.Join(t.TempDir(), "plots")

	files, err := SaveAll(dir, res)
	require.NoError(t, err)
	require.Len(t, files, 2)
	for _, f := range files {
		info, err := os.Stat(f)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
	assert.Equal(t, filepath.Join(dir, HistogramFile), files[0])
}
