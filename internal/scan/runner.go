package scan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/banshee-data/molecule-scanner/internal/fsutil"
	"github.com/banshee-data/molecule-scanner/internal/molecule"
	"github.com/banshee-data/molecule-scanner/internal/monitoring"
)

// DefaultInputBase is the file stem of the calculator input inside a job dir.
const DefaultInputBase = "molscan_input"

const (
	inputExt            = ".inp"
	outputExt           = ".out"
	topSurfaceSuffix    = "-TopSurface.dat"
	bottomSurfaceSuffix = "-BotSurface.dat"
)

// RunnerConfig is the per-session configuration of a Runner.
type RunnerConfig struct {
	// XYZPath is the molecule coordinate file. It must exist.
	XYZPath string
	// Selection holds the 1-based atom ids; validated against the molecule.
	Selection molecule.Selection
	// ScratchRoot holds one sub-directory per job key. When empty a fresh
	// temporary directory is created and owned by the Runner.
	ScratchRoot string
	// Calculator performs the calculation; required.
	Calculator Calculator
	// FS defaults to fsutil.OSFileSystem.
	FS fsutil.FileSystem
	// InputBase defaults to DefaultInputBase.
	InputBase string
	// JobTimeout bounds a single calculator call; zero disables it.
	JobTimeout time.Duration
}

// Runner executes single calculator jobs. It is safe for concurrent use: each
// job only touches its own key-named directory, and jobs sharing a key run one
// at a time.
type Runner struct {
	cfg         RunnerConfig
	fs          fsutil.FileSystem
	mol         *molecule.Molecule
	scratch     string
	ownsScratch bool

	locksMu sync.Mutex
	locks   map[Key]*sync.Mutex
}

// NewRunner reads and validates the molecule and prepares the scratch root.
// Any error here is a configuration error; no job has run yet.
func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if cfg.Calculator == nil {
		return nil, errors.New("scan: no calculator configured")
	}
	if cfg.FS == nil {
		cfg.FS = fsutil.OSFileSystem{}
	}
	if cfg.InputBase == "" {
		cfg.InputBase = DefaultInputBase
	}
	if cfg.JobTimeout < 0 {
		return nil, fmt.Errorf("scan: job timeout must not be negative, got %s", cfg.JobTimeout)
	}

	if !cfg.FS.Exists(cfg.XYZPath) {
		return nil, fmt.Errorf("scan: input file %q does not exist", cfg.XYZPath)
	}
	data, err := cfg.FS.ReadFile(cfg.XYZPath)
	if err != nil {
		return nil, fmt.Errorf("scan: read input file: %w", err)
	}
	mol, err := molecule.ParseXYZ(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("scan: %s: %w", cfg.XYZPath, err)
	}
	if err := cfg.Selection.Validate(mol.NumAtoms()); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	r := &Runner{cfg: cfg, fs: cfg.FS, mol: mol, scratch: cfg.ScratchRoot, locks: make(map[Key]*sync.Mutex)}
	if r.scratch == "" {
		dir, err := cfg.FS.MkdirTemp("", "molscan-")
		if err != nil {
			return nil, fmt.Errorf("scan: create scratch root: %w", err)
		}
		r.scratch = dir
		r.ownsScratch = true
	} else if err := cfg.FS.MkdirAll(r.scratch, 0o755); err != nil {
		return nil, fmt.Errorf("scan: create scratch root: %w", err)
	}
	return r, nil
}

// ScratchRoot returns the directory holding the job directories.
func (r *Runner) ScratchRoot() string { return r.scratch }

// FS returns the filesystem the job files live on.
func (r *Runner) FS() fsutil.FileSystem { return r.fs }

// Molecule returns the parsed input molecule.
func (r *Runner) Molecule() *molecule.Molecule { return r.mol }

// Cleanup removes the scratch root if the Runner created it.
func (r *Runner) Cleanup() error {
	if !r.ownsScratch {
		return nil
	}
	return r.fs.RemoveAll(r.scratch)
}

// JobFor returns the file layout of the job for p without touching disk.
func (r *Runner) JobFor(p Parameters) Job {
	key := DeriveKey(p)
	dir := filepath.Join(r.scratch, key.String())
	base := filepath.Join(dir, r.cfg.InputBase)
	return Job{
		Key:               key,
		Dir:               dir,
		InputPath:         base + inputExt,
		OutputPath:        base + outputExt,
		TopSurfacePath:    base + topSurfaceSuffix,
		BottomSurfacePath: base + bottomSurfaceSuffix,
		Params:            p,
	}
}

// Run executes one job and parses its output. Problems are reported in the
// returned JobResult, never as a panic, so a scan can carry on.
func (r *Runner) Run(ctx context.Context, p Parameters) JobResult {
	start := time.Now()
	res := JobResult{Params: p, Key: DeriveKey(p)}

	unlock := r.lockKey(res.Key)
	defer unlock()

	job, err := r.execute(ctx, p)
	if err != nil {
		return r.finish(&res, start, StatusFailure, err)
	}

	data, err := r.fs.ReadFile(job.OutputPath)
	if err != nil {
		return r.finish(&res, start, StatusFailure, fmt.Errorf("%w: no output file: %v", ErrExternalProcess, err))
	}

	out, err := ParseOutput(data)
	switch {
	case errors.Is(err, ErrNoVolumeFound):
		monitoring.Noticef("No volume could be found for r = %g, skipping output gathering.", p.Radius)
		return r.finish(&res, start, StatusEmpty, err)
	case err != nil:
		return r.finish(&res, start, StatusFailure, err)
	}

	res.Total = out.Total
	res.Quadrant = out.Quadrant
	res.Octant = out.Octant
	return r.finish(&res, start, StatusSuccess, nil)
}

// SurfaceFiles runs the job for p with surface output forced on and returns
// the top and bottom surface sample files, skipping result parsing.
func (r *Runner) SurfaceFiles(ctx context.Context, p Parameters) (top, bottom string, err error) {
	p.WriteSurfaceFiles = true
	unlock := r.lockKey(DeriveKey(p))
	defer unlock()

	job, err := r.execute(ctx, p)
	if err != nil {
		return "", "", err
	}
	for _, path := range []string{job.TopSurfacePath, job.BottomSurfacePath} {
		if !r.fs.Exists(path) {
			return "", "", fmt.Errorf("%w: surface file %s not written", ErrExternalProcess, filepath.Base(path))
		}
	}
	return job.TopSurfacePath, job.BottomSurfacePath, nil
}

// lockKey serializes jobs sharing a key; each of them resets the same directory.
func (r *Runner) lockKey(k Key) (unlock func()) {
	r.locksMu.Lock()
	mu, ok := r.locks[k]
	if !ok {
		mu = &sync.Mutex{}
		r.locks[k] = mu
	}
	r.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// execute stages the job directory and input file and runs the calculator.
func (r *Runner) execute(ctx context.Context, p Parameters) (Job, error) {
	if err := p.Validate(); err != nil {
		return Job{}, err
	}
	job := r.JobFor(p)

	// A directory left by an earlier run with the same key is cleared so its
	// output can never be read back as this job's result.
	if err := fsutil.ResetDir(r.fs, job.Dir); err != nil {
		return job, err
	}

	var input bytes.Buffer
	if err := molecule.WriteInput(&input, r.mol, r.cfg.Selection, p.settings()); err != nil {
		return job, fmt.Errorf("build input: %w", err)
	}
	if err := r.fs.WriteFile(job.InputPath, input.Bytes(), 0o644); err != nil {
		return job, fmt.Errorf("write input: %w", err)
	}

	monitoring.Debugf("job %s: r=%g dir=%s", job.Key, p.Radius, job.Dir)
	return job, r.invoke(ctx, job)
}

// invoke calls the calculator, enforcing the job timeout even when the
// calculator ignores its context.
func (r *Runner) invoke(ctx context.Context, job Job) error {
	if r.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.JobTimeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() { done <- r.cfg.Calculator.Calculate(ctx, job) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) && r.cfg.JobTimeout > 0 {
			return fmt.Errorf("%w after %s", ErrJobTimeout, r.cfg.JobTimeout)
		}
		return fmt.Errorf("calculator interrupted: %w", ctxErr)
	}
	return fmt.Errorf("%w: %w", ErrExternalProcess, err)
}

func (r *Runner) finish(res *JobResult, start time.Time, status Status, err error) JobResult {
	res.Status = status
	res.Err = err
	res.Duration = time.Since(start)
	if status == StatusFailure {
		monitoring.Logf("job failed: %v", res)
	}
	return *res
}
