package render

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/molecule-scanner/internal/cavity"
	"github.com/banshee-data/molecule-scanner/internal/scan"
)

// heatPalette is the viridis ramp used for every cavity heat map.
var heatPalette = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// ScanDashboardHTML writes a page with one line chart per value column of t.
// The default column comes first.
func ScanDashboardHTML(w io.Writer, t *scan.Table, title string) error {
	if t.Len() == 0 {
		return ErrNothingToPlot
	}
	x := make([]string, t.Len())
	for i, r := range t.Radii() {
		x[i] = strconv.FormatFloat(r, 'f', 3, 64)
	}

	page := components.NewPage()
	page.PageTitle = title
	for _, col := range orderedColumns(t.ValueColumns()) {
		vals, _ := t.Column(col)
		data := make([]opts.LineData, len(vals))
		for i, v := range vals {
			if math.IsNaN(v) {
				data[i] = opts.LineData{Value: "-"}
				continue
			}
			data[i] = opts.LineData{Value: v}
		}

		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px"}),
			charts.WithTitleOpts(opts.Title{Title: columnLabel(col), Subtitle: title}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
			charts.WithXAxisOpts(opts.XAxis{Name: "r (Å)", NameLocation: "middle", NameGap: 25}),
			charts.WithYAxisOpts(opts.YAxis{Name: columnLabel(col), Scale: opts.Bool(true)}),
		)
		line.SetXAxis(x).
			AddSeries(col, data, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}))
		page.AddCharts(line)
	}
	return page.Render(w)
}

// orderedColumns moves DefaultColumn to the front.
func orderedColumns(cols []string) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if c == DefaultColumn {
			out = append(out, c)
		}
	}
	for _, c := range cols {
		if c != DefaultColumn {
			out = append(out, c)
		}
	}
	return out
}

// CavityHTML writes a page holding the top and bottom heat maps of g.
// Missing samples are left out of the series.
func CavityHTML(w io.Writer, g *cavity.Grids, title string) error {
	rows, cols := g.Dims()
	if rows == 0 || cols == 0 {
		return ErrNothingToPlot
	}
	xs := make([]string, rows)
	for i := range xs {
		xs[i] = strconv.FormatFloat(g.X.At(i, 0), 'f', 2, 64)
	}
	ys := make([]string, cols)
	for j := range ys {
		ys[j] = strconv.FormatFloat(g.Y.At(0, j), 'f', 2, 64)
	}

	page := components.NewPage()
	page.PageTitle = title
	for _, s := range []Surface{TopSurface, BottomSurface} {
		z := s.matrix(g)
		lo, hi, ok := cavity.Range(z)
		if !ok {
			return fmt.Errorf("%s surface has no samples: %w", s, ErrNothingToPlot)
		}
		data := make([]opts.HeatMapData, 0, rows*cols)
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				v := z.At(i, j)
				if math.IsNaN(v) {
					continue
				}
				data = append(data, opts.HeatMapData{Value: [3]interface{}{i, j, v}})
			}
		}

		hm := charts.NewHeatMap()
		hm.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{Width: "760px", Height: "720px"}),
			charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("%s surface", s), Subtitle: title}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
			charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: "x (Å)", NameLocation: "middle", NameGap: 25}),
			charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: ys, Name: "y (Å)"}),
			charts.WithVisualMapOpts(opts.VisualMap{
				Show:       opts.Bool(true),
				Calculable: opts.Bool(true),
				Min:        float32(lo),
				Max:        float32(hi),
				InRange:    &opts.VisualMapInRange{Color: heatPalette},
			}),
		)
		hm.SetXAxis(xs).AddSeries(s.String(), data)
		page.AddCharts(hm)
	}
	return page.Render(w)
}
