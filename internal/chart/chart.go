package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"trade-montecarlo/internal/model"
	"trade-montecarlo/internal/montecarlo"
	"trade-montecarlo/internal/report"
)

const (
	HistogramFile = "final_balance_histogram.png"
	PathsFile     = "balance_paths.png"

	histogramBins = 50
)

// ErrNothingToPlot is returned when every value is NaN or Inf.
var ErrNothingToPlot = errors.New("no finite balances to plot")

var (
	blue   = color.RGBA{B: 255, A: 255}
	red    = color.RGBA{R: 255, A: 255}
	green  = color.RGBA{G: 128, A: 255}
	orange = color.RGBA{R: 255, G: 165, A: 255}
	purple = color.RGBA{R: 128, B: 128, A: 255}
	brown  = color.RGBA{R: 165, G: 42, B: 42, A: 255}

	// pathColor is blue at 10% opacity so dense regions read darker.
	pathColor = color.NRGBA{B: 255, A: 26}
)

type marker struct {
	label string
	value float64
	color color.Color
}

func markers(s model.Summary) []marker {
	return []marker{
		{"Mean", s.Mean, red},
		{"Median", s.Median, green},
		{"1st Percentile", s.P1, blue},
		{"5th Percentile", s.P5, orange},
		{"95th Percentile", s.P95, purple},
		{"99th Percentile", s.P99, brown},
	}
}

// Histogram plots terminal balances in 50 bins with a dashed vertical line at
// the mean, median and each reported percentile. Non-finite balances are left
// out of the bins.
func Histogram(terminal []float64, s model.Summary, numWeeks int) (*plot.Plot, error) {
	vs := finite(terminal)
	if len(vs) == 0 {
		return nil, ErrNothingToPlot
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Monte Carlo Simulation of Final Balances After %d Weeks", numWeeks)
	p.X.Label.Text = "Final Balance ($)"
	p.Y.Label.Text = "Frequency"

	h, err := plotter.NewHist(vs, histogramBins)
	if err != nil {
		return nil, fmt.Errorf("histogram: %w", err)
	}
	h.FillColor = blue
	h.LineStyle.Color = color.Black
	p.Add(h)

	top := 0.0
	for _, b := range h.Bins {
		top = math.Max(top, b.Weight)
	}

	for _, m := range markers(s) {
		if math.IsNaN(m.value) || math.IsInf(m.value, 0) {
			continue
		}
		l, err := plotter.NewLine(plotter.XYs{{X: m.value, Y: 0}, {X: m.value, Y: top}})
		if err != nil {
			return nil, fmt.Errorf("%s marker: %w", m.label, err)
		}
		l.Color = m.color
		l.Width = vg.Points(1)
		l.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		p.Add(l)
		p.Legend.Add(fmt.Sprintf("%s: %s", m.label, report.Currency(m.value)), l)
	}
	p.Legend.Top = true

	return p, nil
}

// Paths draws every path of the ensemble over weeks 1..N. A path is cut at
// its first non-finite balance.
func Paths(ens *montecarlo.Ensemble) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Monte Carlo Simulation of Account Balance Over %d Weeks", ens.NumWeeks())
	p.X.Label.Text = "Week"
	p.Y.Label.Text = "Account Balance ($)"

	drawn := 0
	for i := 0; i < ens.NumPaths(); i++ {
		xys := pathXYs(ens.Path(i))
		if len(xys) == 0 {
			continue
		}
		l, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("path %d: %w", i, err)
		}
		l.Color = pathColor
		l.Width = vg.Points(0.5)
		p.Add(l)
		drawn++
	}
	if drawn == 0 {
		return nil, ErrNothingToPlot
	}
	return p, nil
}

// SaveAll writes both charts for res into dir and returns the file paths.
func SaveAll(dir string, res *montecarlo.Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create plot dir: %w", err)
	}

	hist, err := Histogram(res.Terminal, res.Summary, res.Config.NumWeeks)
	if err != nil {
		return nil, err
	}
	histPath := filepath.Join(dir, HistogramFile)
	if err := hist.Save(10*vg.Inch, 6*vg.Inch, histPath); err != nil {
		return nil, fmt.Errorf("save histogram: %w", err)
	}

	paths, err := Paths(res.Ensemble)
	if err != nil {
		return nil, err
	}
	pathsPath := filepath.Join(dir, PathsFile)
	if err := paths.Save(12*vg.Inch, 7*vg.Inch, pathsPath); err != nil {
		return nil, fmt.Errorf("save paths: %w", err)
	}

	return []string{histPath, pathsPath}, nil
}

// EncodePNG renders p as a w x h inch PNG onto out.
func EncodePNG(out io.Writer, p *plot.Plot, w, h vg.Length) error {
	wt, err := p.WriterTo(w, h, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(out)
	return err
}

func finite(vs []float64) plotter.Values {
	out := make(plotter.Values, 0, len(vs))
	for _, v := range vs {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

func pathXYs(path model.Path) plotter.XYs {
	xys := make(plotter.XYs, 0, len(path))
	for t, v := range path {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			break
		}
		xys = append(xys, plotter.XY{X: float64(t + 1), Y: v})
	}
	return xys
}
