package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/banshee-data/molecule-scanner/internal/config"
	"github.com/banshee-data/molecule-scanner/internal/molecule"
	"github.com/banshee-data/molecule-scanner/internal/monitoring"
	"github.com/banshee-data/molecule-scanner/internal/scan"
)

// Environment overrides, usually set from a .env file.
const (
	envCalculator = "MOLSCAN_CALCULATOR"
	envScratch    = "MOLSCAN_SCRATCH"
)

// newCalculator builds the calculator for an executable path. Tests replace it.
var newCalculator = func(path string) scan.Calculator {
	return scan.ExecCalculator{Path: path}
}

// sessionFlags are the flags shared by the commands that run the calculator.
type sessionFlags struct {
	configPath  string
	envFile     string
	xyz         string
	center      string
	zAxis       string
	xzPlane     string
	deleteAtoms string
	calculator  string
	scratch     string
	keepScratch bool
	parallelism int
	timeout     time.Duration
	verbose     bool
	quiet       bool
}

func (s *sessionFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&s.configPath, "config", "", "JSON scan config (see "+config.DefaultConfigPath+")")
	fs.StringVar(&s.envFile, "env", ".env", "Optional env file with "+envCalculator+" and "+envScratch)
	fs.StringVar(&s.xyz, "xyz", "", "Molecule coordinate file (.xyz), required")
	fs.StringVar(&s.center, "center", "", "Sphere-centre atom ids, comma separated (1-based), required")
	fs.StringVar(&s.zAxis, "z-axis", "", "Z-axis atom ids, comma separated, required")
	fs.StringVar(&s.xzPlane, "xz-plane", "", "XZ-plane atom ids, comma separated, required")
	fs.StringVar(&s.deleteAtoms, "delete", "", "Atom ids to remove before the calculation, comma separated")
	fs.StringVar(&s.calculator, "calculator", "", "Calculator executable (overrides config and "+envCalculator+")")
	fs.StringVar(&s.scratch, "scratch", "", "Scratch root for job directories (overrides config and "+envScratch+")")
	fs.BoolVar(&s.keepScratch, "keep-scratch", false, "Keep the scratch root after the run")
	fs.IntVar(&s.parallelism, "parallel", 0, "Concurrent calculator jobs, -1 for one per CPU (default from config)")
	fs.DurationVar(&s.timeout, "timeout", 0, "Per-job timeout (default from config)")
	fs.BoolVar(&s.verbose, "v", false, "Log every job")
	fs.BoolVar(&s.quiet, "q", false, "Only log failures")
}

// session is one configured runner plus everything the commands need to
// drive it.
type session struct {
	cfg         *config.ScanConfig
	runner      *scan.Runner
	parallelism int
	keepScratch bool
}

func (s *sessionFlags) open() (*session, error) {
	switch {
	case s.verbose:
		monitoring.SetVerbosity(2)
	case s.quiet:
		monitoring.SetVerbosity(0)
	}

	if err := loadEnvFile(s.envFile); err != nil {
		return nil, err
	}

	cfg := config.EmptyScanConfig()
	if s.configPath != "" {
		loaded, err := config.LoadScanConfig(s.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if s.xyz == "" {
		return nil, errors.New("-xyz is required")
	}
	sel, err := molecule.ParseSelection(s.center, s.zAxis, s.xzPlane, s.deleteAtoms)
	if err != nil {
		return nil, err
	}

	calculatorPath := firstNonEmpty(s.calculator, os.Getenv(envCalculator), cfg.GetCalculatorPath())
	scratch := firstNonEmpty(s.scratch, os.Getenv(envScratch), cfg.GetScratchRoot())
	timeout := cfg.GetJobTimeout()
	if s.timeout > 0 {
		timeout = s.timeout
	}
	parallelism := cfg.GetParallelism()
	if s.parallelism != 0 {
		parallelism = s.parallelism
	}

	runner, err := scan.NewRunner(scan.RunnerConfig{
		XYZPath:     s.xyz,
		Selection:   sel,
		ScratchRoot: scratch,
		Calculator:  newCalculator(calculatorPath),
		InputBase:   cfg.GetInputBasename(),
		JobTimeout:  timeout,
	})
	if err != nil {
		return nil, err
	}
	monitoring.Debugf("calculator %s, scratch %s, timeout %s", calculatorPath, runner.ScratchRoot(), timeout)

	return &session{
		cfg:         cfg,
		runner:      runner,
		parallelism: parallelism,
		keepScratch: s.keepScratch || cfg.GetKeepScratch(),
	}, nil
}

// close removes a scratch root the runner created unless asked to keep it.
func (s *session) close() {
	if s.keepScratch {
		log.Printf("scratch kept at %s", s.runner.ScratchRoot())
		return
	}
	if err := s.runner.Cleanup(); err != nil {
		log.Printf("warning: failed to remove scratch root: %v", err)
	}
}

// loadEnvFile loads path into the environment. A missing file is not an
// error; variables already set win over the file.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
