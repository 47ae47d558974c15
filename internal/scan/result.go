package scan

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoVolumeFound marks a job whose output has no result line. It is an
	// expected outcome for radii outside the molecule's useful range.
	ErrNoVolumeFound = errors.New("no volume found")

	// ErrExternalProcess marks a calculator that failed or produced output
	// that could not be parsed.
	ErrExternalProcess = errors.New("external calculator failure")

	// ErrJobTimeout marks a calculator run that exceeded the job timeout.
	ErrJobTimeout = errors.New("calculator timed out")

	// ErrEmptyScanResult is for callers to report a scan whose table has no
	// rows. RunRange itself returns an empty table, not this error.
	ErrEmptyScanResult = errors.New("scan produced no results")
)

// Status tags the outcome of a single job.
type Status int

const (
	StatusSuccess Status = iota
	StatusEmpty
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusEmpty:
		return "empty"
	case StatusFailure:
		return "failure"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Metric names used in Total and as keys of RegionResults.
const (
	FreeVolume          = "free_volume"
	BuriedVolume        = "buried_volume"
	TotalVolume         = "total_volume"
	ExactVolume         = "exact_volume"
	PercentFreeVolume   = "percent_free_volume"
	PercentBuriedVolume = "percent_buried_volume"
	PercentTotalVolume  = "percent_total_volume"
)

// TotalKeys is the canonical column order of a total result block.
var TotalKeys = []string{
	FreeVolume, BuriedVolume, TotalVolume, ExactVolume,
	PercentFreeVolume, PercentBuriedVolume, PercentTotalVolume,
}

// RegionKeys are the metrics reported per quadrant and per octant.
var RegionKeys = []string{
	FreeVolume, BuriedVolume, TotalVolume, PercentFreeVolume, PercentBuriedVolume,
}

// RegionResults maps metric -> region label (e.g. "SW", "NE+z") -> value.
type RegionResults map[string]map[string]float64

// JobResult is the outcome of one calculator job. Total, Quadrant and Octant
// are set only for StatusSuccess; Err is set for the other two.
type JobResult struct {
	Status   Status
	Params   Parameters
	Key      Key
	Total    map[string]float64
	Quadrant RegionResults
	Octant   RegionResults
	Err      error
	Duration time.Duration
}

// OK reports whether the job produced a result.
func (r JobResult) OK() bool { return r.Status == StatusSuccess }

func (r JobResult) String() string {
	if r.Err != nil {
		return fmt.Sprintf("r=%g key=%s %s: %v", r.Params.Radius, r.Key, r.Status, r.Err)
	}
	return fmt.Sprintf("r=%g key=%s %s", r.Params.Radius, r.Key, r.Status)
}
