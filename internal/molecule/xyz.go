// Package molecule reads XYZ coordinate files and writes the calculator input
// that references them by 1-based atom index.
package molecule

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Atom is one coordinate line of an XYZ file.
type Atom struct {
	Element string
	X, Y, Z float64
}

// Molecule is a parsed XYZ file. Raw keeps the file bytes so the calculator
// input can embed them unchanged.
type Molecule struct {
	Comment string
	Atoms   []Atom
	Raw     []byte
}

// NumAtoms returns the atom count.
func (m *Molecule) NumAtoms() int {
	return len(m.Atoms)
}

// Elements returns the distinct element symbols in order of first appearance.
func (m *Molecule) Elements() []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range m.Atoms {
		if !seen[a.Element] {
			seen[a.Element] = true
			out = append(out, a.Element)
		}
	}
	return out
}

// ReadXYZFile loads and parses the XYZ file at path.
func ReadXYZFile(path string) (*Molecule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read xyz file: %w", err)
	}
	m, err := ParseXYZ(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.Raw = data
	return m, nil
}

// ParseXYZ parses the standard XYZ layout: an atom count line, a comment line,
// then one "element x y z" line per atom.
func ParseXYZ(r io.Reader) (*Molecule, error) {
	var raw bytes.Buffer
	tee := io.TeeReader(r, &raw)
	sc := bufio.NewScanner(tee)

	if !sc.Scan() {
		return nil, fmt.Errorf("xyz: missing atom count line")
	}
	count, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
	if err != nil || count < 1 {
		return nil, fmt.Errorf("xyz: invalid atom count %q", strings.TrimSpace(sc.Text()))
	}

	m := &Molecule{Atoms: make([]Atom, 0, count)}
	if sc.Scan() {
		m.Comment = strings.TrimSpace(sc.Text())
	}

	line := 2
	for sc.Scan() && len(m.Atoms) < count {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 4 {
			return nil, fmt.Errorf("xyz line %d: expected element and 3 coordinates, got %d fields", line, len(fields))
		}
		var coords [3]float64
		for i := 0; i < 3; i++ {
			v, err := strconv.ParseFloat(fields[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("xyz line %d: invalid coordinate %q: %w", line, fields[i+1], err)
			}
			coords[i] = v
		}
		m.Atoms = append(m.Atoms, Atom{Element: normalizeElement(fields[0]), X: coords[0], Y: coords[1], Z: coords[2]})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("xyz: %w", err)
	}
	if len(m.Atoms) != count {
		return nil, fmt.Errorf("xyz: header declares %d atoms, found %d", count, len(m.Atoms))
	}
	// Drain so Raw holds the whole file even when trailing lines exist.
	_, _ = io.Copy(io.Discard, tee)
	m.Raw = raw.Bytes()
	return m, nil
}

// normalizeElement turns "CL" or "cl" into "Cl".
func normalizeElement(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
