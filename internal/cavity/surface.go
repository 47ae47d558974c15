// Package cavity reshapes the calculator's top and bottom surface samples into
// rectangular grids ready for contour or heat-map rendering.
package cavity

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/banshee-data/molecule-scanner/internal/fsutil"
)

// XYZ is one sample line of a surface file.
type XYZ struct {
	X, Y, Z float64
}

// SurfacePoint joins the top and bottom samples taken at the same (X, Y).
type SurfacePoint struct {
	X, Y   float64
	Top    float64
	Bottom float64
}

// ReadSurfaceFile reads whitespace-delimited samples, keeping the first three
// columns of each line. Blank lines are skipped.
func ReadSurfaceFile(r io.Reader) ([]XYZ, error) {
	var out []XYZ
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 3 {
			return nil, fmt.Errorf("line %d: expected 3 columns, got %d", lineNo, len(fields))
		}
		var v [3]float64
		for i := range v {
			f, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid value %q", lineNo, fields[i])
			}
			v[i] = f
		}
		out = append(out, XYZ{X: v[0], Y: v[1], Z: v[2]})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// JoinSurfaces pairs the two files row by row. X and Y come from the top file.
func JoinSurfaces(top, bottom []XYZ) ([]SurfacePoint, error) {
	if len(top) != len(bottom) {
		return nil, fmt.Errorf("surface files differ in length: top %d, bottom %d", len(top), len(bottom))
	}
	points := make([]SurfacePoint, len(top))
	for i := range top {
		points[i] = SurfacePoint{X: top[i].X, Y: top[i].Y, Top: top[i].Z, Bottom: bottom[i].Z}
	}
	return points, nil
}

// LoadSurfaces reads and joins a top and a bottom surface file from fsys.
func LoadSurfaces(fsys fsutil.FileSystem, topPath, bottomPath string) ([]SurfacePoint, error) {
	top, err := readSurfacePath(fsys, topPath)
	if err != nil {
		return nil, err
	}
	bottom, err := readSurfacePath(fsys, bottomPath)
	if err != nil {
		return nil, err
	}
	return JoinSurfaces(top, bottom)
}

func readSurfacePath(fsys fsutil.FileSystem, path string) ([]XYZ, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read surface file: %w", err)
	}

	samples, err := ReadSurfaceFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%s: %w", path, errEmptySurface)
	}
	return samples, nil
}

var errEmptySurface = errors.New("surface file holds no samples")
