// Package testutil provides shared test utilities and calculator fixtures.
//
// The fixtures reproduce the layout of SambVca-style output files so the
// parser, runner and orchestrator tests can fake the external calculator
// without shipping the executable.
package testutil

import (
	"fmt"
	"strings"
	"testing"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertFloat fails the test if got differs from want by more than tol.
func AssertFloat(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if d := got - want; d > tol || d < -tol {
		t.Errorf("%s = %g, want %g (tol %g)", name, got, want, tol)
	}
}

// Volumes are the total-block numbers of a calculator output.
type Volumes struct {
	Free, Buried, Total, Exact          float64
	PercentFree, PercentBuried, PctTotEx float64
}

// ReferenceVolumes is the result block of the reference molecule at r = 3.5.
var ReferenceVolumes = Volumes{
	Free: 55.7, Buried: 123.8, Total: 179.4, Exact: 179.6,
	PercentFree: 31.0, PercentBuried: 69.0, PctTotEx: 99.9,
}

// VolumesForRadius returns a deterministic, radius-dependent result block.
func VolumesForRadius(r float64) Volumes {
	exact := 4.0 / 3.0 * 3.14159 * r * r * r
	buried := exact * 0.69
	return Volumes{
		Free:          round1(exact - buried),
		Buried:        round1(buried),
		Total:         round1(exact),
		Exact:         round1(exact),
		PercentFree:   31.0,
		PercentBuried: 69.0,
		PctTotEx:      100.0,
	}
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}

var (
	quadrants = []string{"SW", "NW", "NE", "SE"}
	octants   = []string{"SW-z", "NW-z", "NE-z", "SE-z", "SW+z", "NW+z", "NE+z", "SE+z"}
)

// CalculatorOutput renders a complete output file for v. Quadrant rows hold a
// quarter of each volume and octant rows an eighth.
func CalculatorOutput(v Volumes) string {
	var b strings.Builder
	b.WriteString(outputHeader)
	b.WriteString("     V Free    V Buried   V Total   V Exact\n")
	fmt.Fprintf(&b, "     %.1f     %.1f     %.1f     %.1f\n", v.Free, v.Buried, v.Total, v.Exact)
	b.WriteString("\n    %V Free   %V Buried  % V Tot/V Ex\n")
	fmt.Fprintf(&b, "     %.1f      %.1f      %.1f\n", v.PercentFree, v.PercentBuried, v.PctTotEx)
	b.WriteString("\n Quadrants analysis\n Quadrant     V f       V b       V t      %V f      %V b\n")
	for _, q := range quadrants {
		fmt.Fprintf(&b, " %-6s %9.1f %9.1f %9.1f %9.1f %9.1f\n", q, v.Free/4, v.Buried/4, v.Total/4, v.PercentFree, v.PercentBuried)
	}
	b.WriteString("\n Octants analysis\n Octant       V f       V b       V t      %V f      %V b\n")
	for _, o := range octants {
		fmt.Fprintf(&b, " %-6s %9.1f %9.1f %9.1f %9.1f %9.1f\n", o, v.Free/8, v.Buried/8, v.Total/8, v.PercentFree, v.PercentBuried)
	}
	return b.String()
}

// NoResultOutput is what the calculator writes when no volume can be found.
const NoResultOutput = outputHeader + "\n Error: the sphere does not intersect the molecule.\n"

const outputHeader = `
 ---------------------------------------------------
  Buried volume calculation
 ---------------------------------------------------

 Sphere radius       3.500
 Mesh step           0.100

`

// SurfaceFile renders a three-column surface sample file over an nx by ny
// lattice in scan order (all y for each x). z returns the value at (x, y).
func SurfaceFile(xs, ys []float64, z func(x, y float64) float64) string {
	var b strings.Builder
	for _, x := range xs {
		for _, y := range ys {
			fmt.Fprintf(&b, "  %8.3f  %8.3f  %8.3f\n", x, y, z(x, y))
		}
	}
	return b.String()
}
