// Package gridplot renders quicklook figures for grid properties: PNG
// layer heatmaps and value histograms via gonum/plot, and interactive HTML
// layer maps via go-echarts. Plot sizes and point budgets come from the
// optional tuning config.
package gridplot

import (
	"fmt"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/strata-data/gridprop"
	"github.com/strata-data/gridprop/internal/config"
)

// viridis is the color ramp for value-mapped scatter layers.
var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// layerGrid adapts one layer of a property to the plotter grid interface.
// Masked cells surface as NaN, which the heat map leaves blank.
type layerGrid struct {
	p *gridprop.GridProperty
	k int
}

func (g layerGrid) Dims() (int, int) {
	ncol, nrow, _ := g.p.Dimensions()
	return ncol, nrow
}

func (g layerGrid) Z(c, r int) float64 {
	v, ok := g.p.At(c, r, g.k)
	if !ok {
		return math.NaN()
	}
	return v
}

func (g layerGrid) X(c int) float64 { return float64(c) }

func (g layerGrid) Y(r int) float64 { return float64(r) }

// LayerHeatmapPNG renders layer k (0-based) as a PNG heat map with row and
// column index axes. Masked cells render blank.
func LayerHeatmapPNG(p *gridprop.GridProperty, k int, outputFile string) error {
	_, _, nlay := p.Dimensions()
	if k < 0 || k >= nlay {
		return fmt.Errorf("layer %d out of range for %d layers", k, nlay)
	}

	hm := plotter.NewHeatMap(layerGrid{p: p, k: k}, palette.Heat(12, 1))
	plt := plot.New()
	plt.Title.Text = fmt.Sprintf("%s layer %d", p.Name(), k+1)
	plt.X.Label.Text = "column"
	plt.Y.Label.Text = "row"
	plt.Add(hm)

	cfg := config.LoadDefault()
	w := vg.Length(cfg.GetPlotWidthInches()) * vg.Inch
	h := vg.Length(cfg.GetPlotHeightInches()) * vg.Inch
	if err := plt.Save(w, h, outputFile); err != nil {
		return fmt.Errorf("save layer heatmap: %w", err)
	}
	return nil
}

// HistogramPNG renders the distribution of the defined cell values. A
// non-positive bins falls back to the configured default.
func HistogramPNG(p *gridprop.GridProperty, outputFile string, bins int) error {
	vals := p.ActiveFloat64s()
	if len(vals) == 0 {
		return fmt.Errorf("property %q has no defined cells to plot", p.Name())
	}
	if bins <= 0 {
		bins = config.LoadDefault().GetHistogramBins()
	}

	h, err := plotter.NewHist(plotter.Values(vals), bins)
	if err != nil {
		return fmt.Errorf("build histogram: %w", err)
	}
	plt := plot.New()
	plt.Title.Text = fmt.Sprintf("%s distribution (%d cells)", p.Name(), len(vals))
	plt.X.Label.Text = p.Name()
	plt.Y.Label.Text = "count"
	plt.Add(h)

	cfg := config.LoadDefault()
	w := vg.Length(cfg.GetPlotWidthInches()) * vg.Inch
	ht := vg.Length(cfg.GetPlotHeightInches()) * vg.Inch
	if err := plt.Save(w, ht, outputFile); err != nil {
		return fmt.Errorf("save histogram: %w", err)
	}
	return nil
}

// LayerMapHTML renders layer k (0-based) as an interactive HTML scatter of
// cell centers colored by value. The property must have a geometry for the
// coordinates. Layers larger than the configured point budget are
// downsampled by stride.
func LayerMapHTML(p *gridprop.GridProperty, k int, outputFile string) error {
	geom := p.Geometry()
	if geom == nil {
		return fmt.Errorf("property %q has no geometry for a map view", p.Name())
	}
	ncol, nrow, nlay := p.Dimensions()
	if k < 0 || k >= nlay {
		return fmt.Errorf("layer %d out of range for %d layers", k, nlay)
	}

	// Downsample by stride to stay within the point budget
	cells := ncol * nrow
	maxPoints := config.LoadDefault().GetHTMLPointBudget()
	stride := 1
	if cells > maxPoints {
		stride = int(math.Ceil(float64(cells) / float64(maxPoints)))
	}

	data := make([]opts.ScatterData, 0, cells/stride+1)
	minV := math.Inf(1)
	maxV := math.Inf(-1)
	for flat := 0; flat < cells; flat += stride {
		i := flat / nrow
		j := flat % nrow
		v, ok := p.At(i, j, k)
		if !ok {
			continue
		}
		x, y, ok := geom.CellPoint(i, j, k)
		if !ok {
			continue
		}
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
		data = append(data, opts.ScatterData{Value: []interface{}{x, y, v}})
	}
	if len(data) == 0 {
		return fmt.Errorf("layer %d of %q has no defined cells", k, p.Name())
	}
	if maxV == minV {
		maxV = minV + 1
	}

	title := fmt.Sprintf("%s layer %d", p.Name(), k+1)
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("points=%d stride=%d", len(data), stride)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "X", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Y", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(minV),
			Max:        float32(maxV),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	scatter.AddSeries(p.Name(), data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))

	f, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("create %s: %w", outputFile, err)
	}
	if err := scatter.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("render layer map: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", outputFile, err)
	}
	return nil
}
