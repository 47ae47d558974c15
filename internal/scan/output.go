package scan

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strconv"
)

var (
	// resultLineRe is the success probe: free, buried, total and exact volume,
	// each left-padded by 5 or 6 spaces.
	resultLineRe = regexp.MustCompile(`^[ ]{5,6}(\d*\.\d*)[ ]{5,6}(\d*\.\d*)[ ]{5,6}(\d*\.\d*)[ ]{5,6}(\d*\.\d*)$`)

	// percentLineRe follows the result line: %free, %buried, %total/exact.
	percentLineRe = regexp.MustCompile(`^[ ]{5,6}(\d*\.\d*)[ ]{5,6}(\d*\.\d*)[ ]{5,6}(\d*\.\d*)$`)

	// regionLineRe matches a quadrant ("SW") or octant ("SW+z") row:
	// free, buried, total, %free, %buried.
	regionLineRe = regexp.MustCompile(`^\s*(SW|NW|NE|SE)([+-]z)?\s+(\d*\.\d*)\s+(\d*\.\d*)\s+(\d*\.\d*)\s+(\d*\.\d*)\s+(\d*\.\d*)\s*$`)
)

// maxOutputLine is the longest output line ParseOutput accepts.
const maxOutputLine = 1024 * 1024

// Output is the structured content of a calculator output file.
type Output struct {
	Total    map[string]float64
	Quadrant RegionResults
	Octant   RegionResults
}

// HasResult is the narrow probe: it reports whether data contains the
// four-column result line at all.
func HasResult(data []byte) bool {
	lines, _ := splitLines(data)
	for _, line := range lines {
		if resultLineRe.MatchString(line) {
			return true
		}
	}
	return false
}

// ParseOutput parses a calculator output file. It returns ErrNoVolumeFound
// when the result line is absent and wraps ErrExternalProcess when the line is
// present but the rest of the output cannot be read.
func ParseOutput(data []byte) (*Output, error) {
	lines, err := splitLines(data)
	if err != nil {
		return nil, fmt.Errorf("%w: read output: %v", ErrExternalProcess, err)
	}

	resultAt := -1
	for i, line := range lines {
		if resultLineRe.MatchString(line) {
			resultAt = i
			break
		}
	}
	if resultAt < 0 {
		return nil, ErrNoVolumeFound
	}

	out := &Output{
		Total:    make(map[string]float64, len(TotalKeys)),
		Quadrant: newRegionResults(),
		Octant:   newRegionResults(),
	}

	vols, err := parseFields(resultLineRe.FindStringSubmatch(lines[resultAt])[1:])
	if err != nil {
		return nil, fmt.Errorf("%w: result line %d: %v", ErrExternalProcess, resultAt+1, err)
	}
	out.Total[FreeVolume] = vols[0]
	out.Total[BuriedVolume] = vols[1]
	out.Total[TotalVolume] = vols[2]
	out.Total[ExactVolume] = vols[3]

	percentFound := false
	for i := resultAt + 1; i < len(lines); i++ {
		line := lines[i]
		if !percentFound {
			if m := percentLineRe.FindStringSubmatch(line); m != nil {
				pct, err := parseFields(m[1:])
				if err != nil {
					return nil, fmt.Errorf("%w: percent line %d: %v", ErrExternalProcess, i+1, err)
				}
				out.Total[PercentFreeVolume] = pct[0]
				out.Total[PercentBuriedVolume] = pct[1]
				out.Total[PercentTotalVolume] = pct[2]
				percentFound = true
				continue
			}
		}
		m := regionLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		vals, err := parseFields(m[3:])
		if err != nil {
			return nil, fmt.Errorf("%w: region line %d: %v", ErrExternalProcess, i+1, err)
		}
		target := out.Quadrant
		if m[2] != "" {
			target = out.Octant
		}
		label := m[1] + m[2]
		for k, metric := range RegionKeys {
			target[metric][label] = vals[k]
		}
	}
	if !percentFound {
		return nil, fmt.Errorf("%w: percent line missing after result line %d", ErrExternalProcess, resultAt+1)
	}
	return out, nil
}

func newRegionResults() RegionResults {
	rr := make(RegionResults, len(RegionKeys))
	for _, k := range RegionKeys {
		rr[k] = make(map[string]float64)
	}
	return rr
}

func parseFields(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", f)
		}
		out[i] = v
	}
	return out, nil
}

// splitLines returns the lines read before any scanner error, along with it.
func splitLines(data []byte) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), maxOutputLine)
	for sc.Scan() {
		lines = append(lines, string(bytes.TrimRight(sc.Bytes(), "\r")))
	}
	return lines, sc.Err()
}
