package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/banshee-data/molecule-scanner/internal/cavity"
	"github.com/banshee-data/molecule-scanner/internal/scan"
)

func TestEmptyScanConfigDefaults(t *testing.T) {
	cfg := EmptyScanConfig()

	if cfg.GetCalculatorPath() != "sambvca21.x" {
		t.Errorf("GetCalculatorPath() = %q, want sambvca21.x", cfg.GetCalculatorPath())
	}
	if cfg.GetJobTimeout() != 10*time.Minute {
		t.Errorf("GetJobTimeout() = %s, want 10m", cfg.GetJobTimeout())
	}
	if cfg.GetParallelism() != -1 {
		t.Errorf("GetParallelism() = %d, want -1", cfg.GetParallelism())
	}
	if cfg.GetPlotColumn() != scan.PercentBuriedVolume {
		t.Errorf("GetPlotColumn() = %q, want %q", cfg.GetPlotColumn(), scan.PercentBuriedVolume)
	}
	if cfg.Sentinels() != cavity.DefaultSentinels {
		t.Errorf("Sentinels() = %+v, want %+v", cfg.Sentinels(), cavity.DefaultSentinels)
	}
	if got, want := cfg.Template(3.5), scan.DefaultParameters(3.5); got != want {
		t.Errorf("Template(3.5) = %+v, want %+v", got, want)
	}
	if cfg.GetScratchRoot() != "" || cfg.GetKeepScratch() {
		t.Errorf("Expected temp scratch that is removed, got %q keep=%v", cfg.GetScratchRoot(), cfg.GetKeepScratch())
	}
}

func TestDefaultScanConfigMatchesGetters(t *testing.T) {
	cfg := DefaultScanConfig()
	if cfg.MeshSize == nil || *cfg.MeshSize != scan.DefaultMeshSize {
		t.Errorf("Expected MeshSize %v, got %v", scan.DefaultMeshSize, cfg.MeshSize)
	}
	if cfg.JobTimeout == nil || *cfg.JobTimeout != "10m0s" {
		t.Errorf("Expected JobTimeout 10m0s, got %v", cfg.JobTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults failed validation: %v", err)
	}
}

func TestLoadScanConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "scan.json")

	testJSON := `{
  "calculator_path": "/opt/sambvca/sambvca21.x",
  "job_timeout": "90s",
  "mesh_size": 0.05,
  "remove_hydrogens": false,
  "parallelism": 4,
  "top_sentinel": -9.5
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadScanConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GetCalculatorPath() != "/opt/sambvca/sambvca21.x" {
		t.Errorf("Unexpected calculator path %q", cfg.GetCalculatorPath())
	}
	if cfg.GetJobTimeout() != 90*time.Second {
		t.Errorf("GetJobTimeout() = %s, want 90s", cfg.GetJobTimeout())
	}
	if cfg.GetParallelism() != 4 {
		t.Errorf("GetParallelism() = %d, want 4", cfg.GetParallelism())
	}

	p := cfg.Template(2)
	if p.MeshSize != 0.05 || p.RemoveHydrogens || !p.OrientZ {
		t.Errorf("Unexpected template %+v", p)
	}
	if s := cfg.Sentinels(); s.Top != -9.5 || s.Bottom != 7 {
		t.Errorf("Unexpected sentinels %+v", s)
	}
}

func TestLoadScanConfigErrors(t *testing.T) {
	tmpDir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(tmpDir, name)
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
		return path
	}

	testCases := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"wrong_extension", write("scan.yaml", "{}"), ".json extension"},
		{"missing", filepath.Join(tmpDir, "missing.json"), "stat"},
		{"bad_json", write("bad.json", "{"), "parse"},
		{"bad_timeout", write("timeout.json", `{"job_timeout": "soon"}`), "job_timeout"},
		{"negative_timeout", write("neg.json", `{"job_timeout": "-1s"}`), "job_timeout"},
		{"zero_mesh", write("mesh.json", `{"mesh_size": 0}`), "mesh_size"},
		{"zero_parallelism", write("par.json", `{"parallelism": 0}`), "parallelism"},
		{"unknown_column", write("col.json", `{"plot_column": "volume"}`), "plot_column"},
		{"basename_path", write("base.json", `{"input_basename": "../x"}`), "input_basename"},
		{"too_large", write("large.json", `{"calculator_path": "`+strings.Repeat("x", 1024*1024)+`"}`), "too large"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadScanConfig(tc.path)
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	def := DefaultScanConfig()

	if cfg.GetDatabasePath() != def.GetDatabasePath() {
		t.Errorf("database_path %q differs from default %q", cfg.GetDatabasePath(), def.GetDatabasePath())
	}
	if cfg.Template(1) != def.Template(1) {
		t.Errorf("defaults file template %+v differs from code defaults %+v", cfg.Template(1), def.Template(1))
	}
	if cfg.Sentinels() != def.Sentinels() {
		t.Errorf("defaults file sentinels %+v differ from code defaults %+v", cfg.Sentinels(), def.Sentinels())
	}
	if cfg.GetJobTimeout() != def.GetJobTimeout() || cfg.GetParallelism() != def.GetParallelism() {
		t.Error("defaults file orchestration settings differ from code defaults")
	}
}

func TestJobTimeoutZeroDisables(t *testing.T) {
	zero := "0"
	cfg := &ScanConfig{JobTimeout: &zero}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if cfg.GetJobTimeout() != 0 {
		t.Errorf("GetJobTimeout() = %s, want 0", cfg.GetJobTimeout())
	}
}
