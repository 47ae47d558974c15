// Package scan runs the buried-volume calculator over a range of sphere radii
// and gathers the parsed results into an ordered table.
//
// A scan is made of three layers:
//   - Runner prepares one key-named job directory, invokes the Calculator and
//     parses its output into a JobResult.
//   - Orchestrator spreads Runner calls over a bounded worker pool and merges
//     the results through a single collector goroutine.
//   - Table is the immutable, radius-sorted aggregate handed back to callers.
package scan

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/molecule-scanner/internal/molecule"
)

// Default calculator settings.
const (
	DefaultDisplacement = 0.0
	DefaultMeshSize     = 0.10
)

// Parameters fully determine one calculator invocation and its job key.
type Parameters struct {
	Radius            float64 `json:"radius"`
	Displacement      float64 `json:"displacement"`
	MeshSize          float64 `json:"mesh_size"`
	RemoveHydrogens   bool    `json:"remove_hydrogens"`
	OrientZ           bool    `json:"orient_z"`
	WriteSurfaceFiles bool    `json:"write_surface_files"`
}

// DefaultParameters returns the calculator defaults for the given radius.
func DefaultParameters(radius float64) Parameters {
	return Parameters{
		Radius:            radius,
		Displacement:      DefaultDisplacement,
		MeshSize:          DefaultMeshSize,
		RemoveHydrogens:   true,
		OrientZ:           true,
		WriteSurfaceFiles: true,
	}
}

// WithRadius returns a copy of p with Radius replaced.
func (p Parameters) WithRadius(r float64) Parameters {
	p.Radius = r
	return p
}

// Validate reports parameters the calculator cannot accept.
func (p Parameters) Validate() error {
	if math.IsNaN(p.Radius) || p.Radius <= 0 {
		return fmt.Errorf("sphere radius must be positive, got %g", p.Radius)
	}
	if math.IsNaN(p.MeshSize) || p.MeshSize <= 0 {
		return fmt.Errorf("mesh size must be positive, got %g", p.MeshSize)
	}
	if math.IsNaN(p.Displacement) || math.IsInf(p.Displacement, 0) {
		return errors.New("displacement must be finite")
	}
	return nil
}

func (p Parameters) settings() molecule.CalcSettings {
	return molecule.CalcSettings{
		SphereRadius:      p.Radius,
		Displacement:      p.Displacement,
		MeshSize:          p.MeshSize,
		RemoveHydrogens:   p.RemoveHydrogens,
		OrientZ:           p.OrientZ,
		WriteSurfaceFiles: p.WriteSurfaceFiles,
	}
}
