package scan

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Job describes the files of one calculator run. All paths live inside Dir.
type Job struct {
	Key               Key
	Dir               string
	InputPath         string
	OutputPath        string
	TopSurfacePath    string
	BottomSurfacePath string
	Params            Parameters
}

// Calculator runs the external buried-volume calculation for a prepared job.
// It must block until the calculation has finished and leave its output at
// job.OutputPath (and the surface files when job.Params.WriteSurfaceFiles).
type Calculator interface {
	Calculate(ctx context.Context, job Job) error
}

// CalculatorFunc adapts a function to the Calculator interface.
type CalculatorFunc func(ctx context.Context, job Job) error

// Calculate calls f(ctx, job).
func (f CalculatorFunc) Calculate(ctx context.Context, job Job) error {
	return f(ctx, job)
}

// ExecCalculator invokes a SambVca-style executable. The executable receives
// the input path without its ".inp" extension and writes "<base>.out" next to
// it; it runs with the job directory as working directory.
type ExecCalculator struct {
	Path string
}

// maxStderrTail bounds how much process output is copied into an error.
const maxStderrTail = 512

// Calculate runs the executable. The process is killed when ctx ends.
func (c ExecCalculator) Calculate(ctx context.Context, job Job) error {
	if c.Path == "" {
		return fmt.Errorf("calculator executable not configured")
	}
	cmd := exec.CommandContext(ctx, c.Path, strings.TrimSuffix(job.InputPath, inputExt))
	cmd.Dir = job.Dir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: %w: %s", c.Path, err, tail(out.String(), maxStderrTail))
	}
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
