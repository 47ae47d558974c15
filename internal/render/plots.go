// Package render draws scan curves and cavity surfaces, as PNG images with
// gonum/plot and as standalone HTML pages with go-echarts.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/molecule-scanner/internal/cavity"
	"github.com/banshee-data/molecule-scanner/internal/scan"
)

// DefaultColumn is the scan column plotted when none is requested.
const DefaultColumn = scan.PercentBuriedVolume

// ErrNothingToPlot is returned for tables or grids with no usable values.
var ErrNothingToPlot = errors.New("nothing to plot")

const (
	plotWidth   = 10 * vg.Inch
	plotHeight  = 6 * vg.Inch
	heatColours = 24
)

var lineColour = color.RGBA{R: 31, G: 119, B: 180, A: 255}

// ScanPlot draws column against the radius. Rows where the column is missing
// are skipped.
func ScanPlot(t *scan.Table, column string) (*plot.Plot, error) {
	if column == "" {
		column = DefaultColumn
	}
	vals, ok := t.Column(column)
	if !ok {
		return nil, fmt.Errorf("unknown column %q", column)
	}
	radii := t.Radii()
	pts := make(plotter.XYs, 0, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		pts = append(pts, plotter.XY{X: radii[i], Y: v})
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("%s: %w", column, ErrNothingToPlot)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s vs sphere radius", columnLabel(column))
	p.X.Label.Text = "Sphere radius (Å)"
	p.Y.Label.Text = columnLabel(column)
	p.Add(plotter.NewGrid())

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, err
	}
	line.Color = lineColour
	line.Width = vg.Points(1.5)
	points.Color = lineColour
	points.Radius = vg.Points(2.5)
	p.Add(line, points)
	return p, nil
}

// SaveScanPlot renders ScanPlot to path. The format follows the extension.
func SaveScanPlot(t *scan.Table, column, path string) error {
	p, err := ScanPlot(t, column)
	if err != nil {
		return err
	}
	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return fmt.Errorf("save scan plot: %w", err)
	}
	return nil
}

// Surface selects one of the two cavity surfaces.
type Surface int

const (
	TopSurface Surface = iota
	BottomSurface
)

func (s Surface) String() string {
	if s == BottomSurface {
		return "Bottom"
	}
	return "Top"
}

func (s Surface) matrix(g *cavity.Grids) *mat.Dense {
	if s == BottomSurface {
		return g.Bottom
	}
	return g.Top
}

// surfaceGrid adapts a cavity grid to plotter.GridXYZ. Columns of the heat
// map walk the x axis, which is the row index of the cavity matrices.
type surfaceGrid struct {
	x, y, z *mat.Dense
}

func (s surfaceGrid) Dims() (c, r int)   { return s.z.Dims() }
func (s surfaceGrid) Z(c, r int) float64 { return s.z.At(c, r) }
func (s surfaceGrid) X(c int) float64    { return s.x.At(c, 0) }
func (s surfaceGrid) Y(r int) float64    { return s.y.At(0, r) }

// CavityHeatMap draws one surface of g as a heat map. Missing samples are
// left transparent.
func CavityHeatMap(g *cavity.Grids, surface Surface) (*plot.Plot, error) {
	rows, cols := g.Dims()
	if rows < 2 || cols < 2 {
		return nil, fmt.Errorf("%dx%d grid: %w", rows, cols, ErrNothingToPlot)
	}
	z := surface.matrix(g)
	lo, hi, ok := cavity.Range(z)
	if !ok {
		return nil, fmt.Errorf("%s surface has no samples: %w", surface, ErrNothingToPlot)
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	hm := plotter.NewHeatMap(surfaceGrid{x: g.X, y: g.Y, z: z}, palette.Heat(heatColours, 1))
	hm.Min, hm.Max = lo, hi
	hm.NaN = color.Transparent

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s surface (z from %.2f to %.2f Å)", surface, lo, hi)
	p.X.Label.Text = "x (Å)"
	p.Y.Label.Text = "y (Å)"
	p.Add(hm)
	return p, nil
}

// SaveCavityPlots writes "<base>-top.png" and "<base>-bottom.png" into dir
// and returns their paths.
func SaveCavityPlots(g *cavity.Grids, dir, base string) ([]string, error) {
	var paths []string
	for _, s := range []Surface{TopSurface, BottomSurface} {
		p, err := CavityHeatMap(g, s)
		if err != nil {
			return paths, err
		}
		path := filepath.Join(dir, fmt.Sprintf("%s-%s.png", base, lowerSurface(s)))
		if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
			return paths, fmt.Errorf("save %s heat map: %w", s, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func lowerSurface(s Surface) string {
	if s == BottomSurface {
		return "bottom"
	}
	return "top"
}

var columnLabels = map[string]string{
	scan.FreeVolume:          "Free volume (Å³)",
	scan.BuriedVolume:        "Buried volume (Å³)",
	scan.TotalVolume:         "Total volume (Å³)",
	scan.ExactVolume:         "Exact volume (Å³)",
	scan.PercentFreeVolume:   "%V free",
	scan.PercentBuriedVolume: "%V buried",
	scan.PercentTotalVolume:  "%V total / exact",
}

func columnLabel(column string) string {
	if l, ok := columnLabels[column]; ok {
		return l
	}
	return column
}
