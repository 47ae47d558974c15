package scan

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/molecule-scanner/internal/monitoring"
)

// JobRunner runs one job. *Runner implements it.
type JobRunner interface {
	Run(ctx context.Context, p Parameters) JobResult
}

// ScanSummary counts the outcomes of one RunRange call.
type ScanSummary struct {
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Empty     int           `json:"empty"`
	Failed    int           `json:"failed"`
	Elapsed   time.Duration `json:"elapsed"`
	Failures  []JobResult   `json:"-"`
}

// Orchestrator dispatches radius scans over a bounded worker pool.
type Orchestrator struct {
	runner JobRunner

	// Progress, when set, is called after each job completes. Calls come from
	// a single goroutine, in completion order.
	Progress func(done, total int, res JobResult)

	mu   sync.RWMutex
	last ScanSummary
}

// NewOrchestrator creates an orchestrator around runner.
func NewOrchestrator(runner JobRunner) *Orchestrator {
	return &Orchestrator{runner: runner}
}

// LastSummary returns the outcome counts of the most recent RunRange.
func (o *Orchestrator) LastSummary() ScanSummary {
	o.mu.RLock()
	defer o.mu.RUnlock()
	s := o.last
	s.Failures = append([]JobResult(nil), o.last.Failures...)
	return s
}

// ResolveParallelism maps the configured degree of parallelism to a worker
// count: -1 means one worker per CPU. The result never exceeds jobs.
func ResolveParallelism(parallelism, jobs int) (int, error) {
	switch {
	case parallelism == -1:
		parallelism = runtime.NumCPU()
	case parallelism < 1:
		return 0, fmt.Errorf("parallelism must be positive or -1, got %d", parallelism)
	}
	if jobs > 0 && parallelism > jobs {
		parallelism = jobs
	}
	return parallelism, nil
}

// indexedResult carries a job result together with its dispatch position.
type indexedResult struct {
	seq int
	res JobResult
}

// RunRange runs one job per radius of Linspace(rMin, rMax, steps), using tmpl
// for every other parameter, and returns the successful results sorted by
// radius. Empty and failed jobs are logged and left out; if none succeed the
// table has zero rows and the error is nil. Invalid arguments are rejected
// before any job starts. When ctx ends, no further jobs are started and the
// rows gathered so far are returned along with ctx.Err().
func (o *Orchestrator) RunRange(ctx context.Context, rMin, rMax float64, steps int, tmpl Parameters, parallelism int) (*Table, error) {
	spec := RangeSpec{Min: rMin, Max: rMax, Steps: steps}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := tmpl.WithRadius(rMin).Validate(); err != nil {
		return nil, err
	}
	// Spans narrower than a few ulps can round two steps onto one radius.
	radii := slices.Compact(spec.Values())
	workers, err := ResolveParallelism(parallelism, len(radii))
	if err != nil {
		return nil, err
	}

	start := time.Now()
	monitoring.Noticef("scan: %d radii over [%g, %g] with %d worker(s)", len(radii), rMin, rMax, workers)

	results := make(chan indexedResult)
	collected := make(chan collectorOutput, 1)
	go o.collect(results, len(radii), collected)

	var g errgroup.Group
	g.SetLimit(workers)
	for i, r := range radii {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// Go may have waited for a free slot; do not start after a cancel.
			if ctx.Err() != nil {
				return nil
			}
			results <- indexedResult{seq: i, res: o.runner.Run(ctx, tmpl.WithRadius(r))}
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	out := <-collected
	out.summary.Total = len(radii)
	out.summary.Elapsed = time.Since(start)
	o.mu.Lock()
	o.last = out.summary
	o.mu.Unlock()

	monitoring.Noticef("scan: %d succeeded, %d empty, %d failed in %s",
		out.summary.Succeeded, out.summary.Empty, out.summary.Failed, out.summary.Elapsed.Round(time.Millisecond))

	table := out.builder.Build()
	if err := ctx.Err(); err != nil {
		return table, err
	}
	return table, nil
}

type collectorOutput struct {
	builder *TableBuilder
	summary ScanSummary
}

// collect is the only goroutine touching the table builder.
func (o *Orchestrator) collect(results <-chan indexedResult, total int, done chan<- collectorOutput) {
	out := collectorOutput{builder: NewTableBuilder()}
	n := 0
	for ir := range results {
		n++
		switch ir.res.Status {
		case StatusSuccess:
			out.summary.Succeeded++
			out.builder.Add(ir.seq, ir.res.Params.Radius, ir.res.Total)
		case StatusEmpty:
			out.summary.Empty++
		default:
			out.summary.Failed++
			out.summary.Failures = append(out.summary.Failures, ir.res)
		}
		if o.Progress != nil {
			o.Progress(n, total, ir.res)
		}
	}
	done <- out
}
