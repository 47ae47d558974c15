package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/molecule-scanner/internal/cavity"
	"github.com/banshee-data/molecule-scanner/internal/scan"
)

// DefaultConfigPath is the path to the canonical scan defaults file.
const DefaultConfigPath = "config/scan.defaults.json"

// ScanConfig holds the settings of a scan session. Every field is optional;
// the Get* methods supply the default for anything left out of the file.
type ScanConfig struct {
	// Calculator
	CalculatorPath *string `json:"calculator_path,omitempty"`
	JobTimeout     *string `json:"job_timeout,omitempty"` // duration string like "10m"; "0" disables
	InputBasename  *string `json:"input_basename,omitempty"`

	// Calculation parameters shared by every job of a scan
	Displacement      *float64 `json:"displacement,omitempty"`
	MeshSize          *float64 `json:"mesh_size,omitempty"`
	RemoveHydrogens   *bool    `json:"remove_hydrogens,omitempty"`
	OrientZ           *bool    `json:"orient_z,omitempty"`
	WriteSurfaceFiles *bool    `json:"write_surface_files,omitempty"`

	// Orchestration
	Parallelism *int    `json:"parallelism,omitempty"` // -1 = one worker per CPU
	ScratchRoot *string `json:"scratch_root,omitempty"`
	KeepScratch *bool   `json:"keep_scratch,omitempty"`

	// Cavity surfaces
	TopSentinel    *float64 `json:"top_sentinel,omitempty"`
	BottomSentinel *float64 `json:"bottom_sentinel,omitempty"`

	// Outputs
	PlotColumn   *string `json:"plot_column,omitempty"`
	DatabasePath *string `json:"database_path,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyScanConfig returns a ScanConfig with every field nil.
func EmptyScanConfig() *ScanConfig {
	return &ScanConfig{}
}

// DefaultScanConfig returns a ScanConfig with every field set to its default.
func DefaultScanConfig() *ScanConfig {
	c := EmptyScanConfig()
	return &ScanConfig{
		CalculatorPath:    ptrString(c.GetCalculatorPath()),
		JobTimeout:        ptrString(c.GetJobTimeout().String()),
		InputBasename:     ptrString(c.GetInputBasename()),
		Displacement:      ptrFloat64(c.GetDisplacement()),
		MeshSize:          ptrFloat64(c.GetMeshSize()),
		RemoveHydrogens:   ptrBool(c.GetRemoveHydrogens()),
		OrientZ:           ptrBool(c.GetOrientZ()),
		WriteSurfaceFiles: ptrBool(c.GetWriteSurfaceFiles()),
		Parallelism:       ptrInt(c.GetParallelism()),
		ScratchRoot:       ptrString(c.GetScratchRoot()),
		KeepScratch:       ptrBool(c.GetKeepScratch()),
		TopSentinel:       ptrFloat64(c.GetTopSentinel()),
		BottomSentinel:    ptrFloat64(c.GetBottomSentinel()),
		PlotColumn:        ptrString(c.GetPlotColumn()),
		DatabasePath:      ptrString(c.GetDatabasePath()),
	}
}

// LoadScanConfig loads a ScanConfig from a JSON file.
// The file must have a .json extension and be at most 1MB.
// Fields omitted from the file keep their defaults, so partial configs are safe.
func LoadScanConfig(path string) (*ScanConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyScanConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath from the current directory or
// one of its parents. Panics if the file cannot be loaded; intended for tests.
func MustLoadDefaultConfig() *ScanConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadScanConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *ScanConfig) Validate() error {
	if c.JobTimeout != nil && *c.JobTimeout != "" {
		d, err := time.ParseDuration(*c.JobTimeout)
		if err != nil {
			return fmt.Errorf("invalid job_timeout '%s': %w", *c.JobTimeout, err)
		}
		if d < 0 {
			return fmt.Errorf("job_timeout must not be negative, got %s", d)
		}
	}

	if c.MeshSize != nil && *c.MeshSize <= 0 {
		return fmt.Errorf("mesh_size must be positive, got %f", *c.MeshSize)
	}

	if c.Parallelism != nil && *c.Parallelism != -1 && *c.Parallelism < 1 {
		return fmt.Errorf("parallelism must be positive or -1, got %d", *c.Parallelism)
	}

	if c.PlotColumn != nil && *c.PlotColumn != "" && !isScanColumn(*c.PlotColumn) {
		return fmt.Errorf("unknown plot_column %q", *c.PlotColumn)
	}

	if c.InputBasename != nil && filepath.Base(*c.InputBasename) != *c.InputBasename {
		return fmt.Errorf("input_basename must be a bare file name, got %q", *c.InputBasename)
	}

	return nil
}

func isScanColumn(name string) bool {
	for _, k := range scan.TotalKeys {
		if k == name {
			return true
		}
	}
	return false
}

// GetCalculatorPath returns the calculator executable, default "sambvca21.x".
func (c *ScanConfig) GetCalculatorPath() string {
	if c.CalculatorPath == nil || *c.CalculatorPath == "" {
		return "sambvca21.x"
	}
	return *c.CalculatorPath
}

// GetJobTimeout parses and returns the JobTimeout. Zero disables the timeout.
func (c *ScanConfig) GetJobTimeout() time.Duration {
	if c.JobTimeout == nil || *c.JobTimeout == "" {
		return 10 * time.Minute // default
	}
	d, err := time.ParseDuration(*c.JobTimeout)
	if err != nil {
		return 10 * time.Minute // default on parse error
	}
	return d
}

// GetInputBasename returns the calculator input file stem.
func (c *ScanConfig) GetInputBasename() string {
	if c.InputBasename == nil || *c.InputBasename == "" {
		return scan.DefaultInputBase
	}
	return *c.InputBasename
}

// GetDisplacement returns the displacement value or the default.
func (c *ScanConfig) GetDisplacement() float64 {
	if c.Displacement == nil {
		return scan.DefaultDisplacement
	}
	return *c.Displacement
}

// GetMeshSize returns the mesh_size value or the default.
func (c *ScanConfig) GetMeshSize() float64 {
	if c.MeshSize == nil {
		return scan.DefaultMeshSize
	}
	return *c.MeshSize
}

// GetRemoveHydrogens returns the remove_hydrogens value or the default.
func (c *ScanConfig) GetRemoveHydrogens() bool {
	if c.RemoveHydrogens == nil {
		return true
	}
	return *c.RemoveHydrogens
}

// GetOrientZ returns the orient_z value or the default.
func (c *ScanConfig) GetOrientZ() bool {
	if c.OrientZ == nil {
		return true
	}
	return *c.OrientZ
}

// GetWriteSurfaceFiles returns the write_surface_files value or the default.
func (c *ScanConfig) GetWriteSurfaceFiles() bool {
	if c.WriteSurfaceFiles == nil {
		return true
	}
	return *c.WriteSurfaceFiles
}

// GetParallelism returns the parallelism value or the default.
func (c *ScanConfig) GetParallelism() int {
	if c.Parallelism == nil {
		return -1 // one worker per CPU
	}
	return *c.Parallelism
}

// GetScratchRoot returns the scratch root; empty means a fresh temp dir.
func (c *ScanConfig) GetScratchRoot() string {
	if c.ScratchRoot == nil {
		return ""
	}
	return *c.ScratchRoot
}

// GetKeepScratch returns the keep_scratch value or the default.
func (c *ScanConfig) GetKeepScratch() bool {
	if c.KeepScratch == nil {
		return false
	}
	return *c.KeepScratch
}

// GetTopSentinel returns the top_sentinel value or the default.
func (c *ScanConfig) GetTopSentinel() float64 {
	if c.TopSentinel == nil {
		return cavity.DefaultSentinels.Top
	}
	return *c.TopSentinel
}

// GetBottomSentinel returns the bottom_sentinel value or the default.
func (c *ScanConfig) GetBottomSentinel() float64 {
	if c.BottomSentinel == nil {
		return cavity.DefaultSentinels.Bottom
	}
	return *c.BottomSentinel
}

// GetPlotColumn returns the scan column to plot.
func (c *ScanConfig) GetPlotColumn() string {
	if c.PlotColumn == nil || *c.PlotColumn == "" {
		return scan.PercentBuriedVolume
	}
	return *c.PlotColumn
}

// GetDatabasePath returns the scan history database path.
func (c *ScanConfig) GetDatabasePath() string {
	if c.DatabasePath == nil || *c.DatabasePath == "" {
		return "molscan.db"
	}
	return *c.DatabasePath
}

// Template returns the job parameters for radius r.
func (c *ScanConfig) Template(r float64) scan.Parameters {
	return scan.Parameters{
		Radius:            r,
		Displacement:      c.GetDisplacement(),
		MeshSize:          c.GetMeshSize(),
		RemoveHydrogens:   c.GetRemoveHydrogens(),
		OrientZ:           c.GetOrientZ(),
		WriteSurfaceFiles: c.GetWriteSurfaceFiles(),
	}
}

// Sentinels returns the surface sentinel values.
func (c *ScanConfig) Sentinels() cavity.Sentinels {
	return cavity.Sentinels{Top: c.GetTopSentinel(), Bottom: c.GetBottomSentinel()}
}
