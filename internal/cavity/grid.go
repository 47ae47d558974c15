package cavity

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// ErrIncompleteLattice is returned when the samples do not fill a rectangle.
var ErrIncompleteLattice = errors.New("surface samples do not form a complete lattice")

// Sentinels are the values the calculator writes where a surface has no sample.
type Sentinels struct {
	Top    float64
	Bottom float64
}

// DefaultSentinels match the calculator's fixed out-of-range markers.
var DefaultSentinels = Sentinels{Top: -7.0, Bottom: 7.0}

// Grids holds the reshaped surfaces. All four matrices share one shape; rows
// follow the unique x values in scan order. Missing samples are NaN.
type Grids struct {
	X      *mat.Dense
	Y      *mat.Dense
	Top    *mat.Dense
	Bottom *mat.Dense
}

// Build reshapes points, which must be in lattice-scan order (every y for
// each x), into grids of shape (unique x count, len(points)/unique x count).
// Values equal to the sentinels become NaN. Sentinel matching is exact.
func Build(points []SurfacePoint, s Sentinels) (*Grids, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no samples", ErrIncompleteLattice)
	}
	seen := make(map[float64]struct{})
	for _, p := range points {
		seen[p.X] = struct{}{}
	}
	rows := len(seen)
	if len(points)%rows != 0 {
		return nil, fmt.Errorf("%w: %d samples over %d x values", ErrIncompleteLattice, len(points), rows)
	}
	cols := len(points) / rows

	x := make([]float64, len(points))
	y := make([]float64, len(points))
	top := make([]float64, len(points))
	bottom := make([]float64, len(points))
	for i, p := range points {
		x[i] = p.X
		y[i] = p.Y
		top[i] = maskSentinel(p.Top, s.Top)
		bottom[i] = maskSentinel(p.Bottom, s.Bottom)
	}

	return &Grids{
		X:      mat.NewDense(rows, cols, x),
		Y:      mat.NewDense(rows, cols, y),
		Top:    mat.NewDense(rows, cols, top),
		Bottom: mat.NewDense(rows, cols, bottom),
	}, nil
}

func maskSentinel(v, sentinel float64) float64 {
	if v == sentinel {
		return math.NaN()
	}
	return v
}

// Dims returns the grid shape.
func (g *Grids) Dims() (rows, cols int) {
	return g.X.Dims()
}

// XAxis returns the distinct x values, ascending.
func (g *Grids) XAxis() []float64 {
	return uniqueSorted(g.X.RawMatrix().Data)
}

// YAxis returns the distinct y values, ascending.
func (g *Grids) YAxis() []float64 {
	return uniqueSorted(g.Y.RawMatrix().Data)
}

// Range returns the smallest and largest non-NaN value of m. ok is false when
// every cell is NaN.
func Range(m mat.Matrix) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
			ok = true
		}
	}
	return lo, hi, ok
}

func uniqueSorted(vals []float64) []float64 {
	set := make(map[float64]struct{}, len(vals))
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if _, dup := set[v]; dup {
			continue
		}
		set[v] = struct{}{}
		out = append(out, v)
	}
	sort.Float64s(out)
	return out
}
