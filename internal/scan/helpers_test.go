package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/banshee-data/molecule-scanner/internal/fsutil"
	"github.com/banshee-data/molecule-scanner/internal/molecule"
	"github.com/banshee-data/molecule-scanner/internal/testutil"
)

const waterXYZ = `3
water
O   0.000000   0.000000   0.117300
H   0.000000   0.757200  -0.469200
H   0.000000  -0.757200  -0.469200
`

const xyzPath = "/data/water.xyz"

// fakeCalculator writes a calculator output for every job. When empty
// reports true for a radius the output carries no result line.
func fakeCalculator(fsys fsutil.FileSystem, empty func(r float64) bool) CalculatorFunc {
	return func(ctx context.Context, job Job) error {
		out := testutil.CalculatorOutput(testutil.VolumesForRadius(job.Params.Radius))
		if empty != nil && empty(job.Params.Radius) {
			out = testutil.NoResultOutput
		}
		if job.Params.WriteSurfaceFiles {
			xs := []float64{-1, 0, 1}
			surface := testutil.SurfaceFile(xs, xs, func(x, y float64) float64 { return x * y })
			if err := fsys.WriteFile(job.TopSurfacePath, []byte(surface), 0o644); err != nil {
				return err
			}
			if err := fsys.WriteFile(job.BottomSurfacePath, []byte(surface), 0o644); err != nil {
				return err
			}
		}
		return fsys.WriteFile(job.OutputPath, []byte(out), 0o644)
	}
}

func waterSelection(t *testing.T) molecule.Selection {
	t.Helper()
	sel, err := molecule.ParseSelection("1", "2", "3", "")
	testutil.AssertNoError(t, err)
	return sel
}

// newMemoryRunner returns a runner over an in-memory filesystem holding the
// water molecule.
func newMemoryRunner(t *testing.T, calc func(fsutil.FileSystem) Calculator) (*Runner, *fsutil.MemoryFileSystem) {
	t.Helper()
	fsys := fsutil.NewMemoryFileSystem()
	testutil.AssertNoError(t, fsys.MkdirAll("/data", 0o755))
	testutil.AssertNoError(t, fsys.WriteFile(xyzPath, []byte(waterXYZ), 0o644))

	r, err := NewRunner(RunnerConfig{
		XYZPath:     xyzPath,
		Selection:   waterSelection(t),
		ScratchRoot: "/scratch",
		Calculator:  calc(fsys),
		FS:          fsys,
	})
	testutil.AssertNoError(t, err)
	return r, fsys
}

// newOSRunner returns a runner over the real filesystem, with the water
// molecule and the scratch root inside t.TempDir().
func newOSRunner(t *testing.T, calc Calculator, timeout time.Duration) *Runner {
	t.Helper()
	dir := t.TempDir()
	xyz := filepath.Join(dir, "water.xyz")
	testutil.AssertNoError(t, os.WriteFile(xyz, []byte(waterXYZ), 0o644))

	r, err := NewRunner(RunnerConfig{
		XYZPath:     xyz,
		Selection:   waterSelection(t),
		ScratchRoot: filepath.Join(dir, "scratch"),
		Calculator:  calc,
		JobTimeout:  timeout,
	})
	testutil.AssertNoError(t, err)
	return r
}
