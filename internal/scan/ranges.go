package scan

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// maxSteps bounds the number of jobs in a single scan.
const maxSteps = 10000

// RangeSpec is a radius range sampled at Steps evenly spaced points.
type RangeSpec struct {
	Min   float64
	Max   float64
	Steps int
}

// ParseRangeSpec parses a "min:max:steps" string into a RangeSpec.
// Returns an error if the format is invalid or values cannot be parsed.
func ParseRangeSpec(s string) (RangeSpec, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return RangeSpec{}, fmt.Errorf("invalid range format %q: expected min:max:steps", s)
	}

	min, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return RangeSpec{}, fmt.Errorf("invalid min value %q: %w", parts[0], err)
	}

	max, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return RangeSpec{}, fmt.Errorf("invalid max value %q: %w", parts[1], err)
	}

	steps, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return RangeSpec{}, fmt.Errorf("invalid steps value %q: %w", parts[2], err)
	}

	spec := RangeSpec{Min: min, Max: max, Steps: steps}
	if err := spec.Validate(); err != nil {
		return RangeSpec{}, err
	}
	return spec, nil
}

// Validate checks that the range can be scanned.
func (s RangeSpec) Validate() error {
	if math.IsNaN(s.Min) || math.IsNaN(s.Max) || math.IsInf(s.Min, 0) || math.IsInf(s.Max, 0) {
		return fmt.Errorf("range bounds must be finite, got %g..%g", s.Min, s.Max)
	}
	if s.Min <= 0 {
		return fmt.Errorf("minimum radius must be positive, got %g", s.Min)
	}
	if s.Min > s.Max {
		return fmt.Errorf("minimum radius %g exceeds maximum %g", s.Min, s.Max)
	}
	if s.Steps < 1 {
		return fmt.Errorf("steps must be at least 1, got %d", s.Steps)
	}
	if s.Min == s.Max && s.Steps > 1 {
		return fmt.Errorf("range %g..%g is a single radius, steps must be 1, got %d", s.Min, s.Max, s.Steps)
	}
	if s.Steps > maxSteps {
		return fmt.Errorf("steps must not exceed %d, got %d", maxSteps, s.Steps)
	}
	return nil
}

// Values returns the radii of the range.
func (s RangeSpec) Values() []float64 {
	return Linspace(s.Min, s.Max, s.Steps)
}

// Linspace returns n evenly spaced values over [min, max], both ends included.
// n == 1 yields []float64{min}; n < 1 yields nil.
func Linspace(min, max float64, n int) []float64 {
	switch {
	case n < 1:
		return nil
	case n == 1:
		return []float64{min}
	}
	out := floats.Span(make([]float64, n), min, max)
	// l + i*step can overshoot by an ulp; pin the ends to the exact bounds.
	out[n-1] = max
	if min <= max {
		for i, v := range out {
			out[i] = math.Min(math.Max(v, min), max)
		}
	}
	return out
}
