package molecule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidInputIndex is matched by every IndexError.
var ErrInvalidInputIndex = errors.New("invalid atom index")

// IndexError reports an atom index that is non-numeric or outside the molecule.
type IndexError struct {
	Field  string // selection the value came from, e.g. "sphere_center"
	Value  string // offending value as given by the user
	NAtoms int    // atom count checked against; 0 when the value did not parse
}

func (e *IndexError) Error() string {
	if e.NAtoms > 0 {
		return fmt.Sprintf("%s: atom index %s out of range 1..%d", e.Field, e.Value, e.NAtoms)
	}
	return fmt.Sprintf("%s: atom index %q is not a positive integer", e.Field, e.Value)
}

// Unwrap lets errors.Is match ErrInvalidInputIndex.
func (e *IndexError) Unwrap() error { return ErrInvalidInputIndex }

// ParseIndexList parses a comma-separated list of 1-based atom ids such as
// "1, 3, 9". Returns nil, nil for blank input. Values are never coerced: a
// fractional, negative or non-numeric entry yields an IndexError naming it.
func ParseIndexList(field, s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil || v < 1 {
			return nil, &IndexError{Field: field, Value: p}
		}
		out = append(out, v)
	}
	return out, nil
}

// Selection holds the user-chosen atom ids that define the reference frame.
type Selection struct {
	SphereCenter []int
	ZAxis        []int
	XZPlane      []int
	Delete       []int
}

// ParseSelection builds a Selection from the four comma-separated id strings.
func ParseSelection(center, zAxis, xzPlane, del string) (Selection, error) {
	var sel Selection
	var err error
	if sel.SphereCenter, err = ParseIndexList("sphere_center", center); err != nil {
		return Selection{}, err
	}
	if sel.ZAxis, err = ParseIndexList("z_axis", zAxis); err != nil {
		return Selection{}, err
	}
	if sel.XZPlane, err = ParseIndexList("xz_plane", xzPlane); err != nil {
		return Selection{}, err
	}
	if sel.Delete, err = ParseIndexList("delete", del); err != nil {
		return Selection{}, err
	}
	return sel, nil
}

// Validate checks the selection against a molecule with nAtoms atoms.
// The sphere centre, z axis and xz plane must each name at least one atom.
func (s Selection) Validate(nAtoms int) error {
	groups := []struct {
		field    string
		ids      []int
		required bool
	}{
		{"sphere_center", s.SphereCenter, true},
		{"z_axis", s.ZAxis, true},
		{"xz_plane", s.XZPlane, true},
		{"delete", s.Delete, false},
	}
	for _, g := range groups {
		if g.required && len(g.ids) == 0 {
			return fmt.Errorf("%s: at least one atom id is required", g.field)
		}
		for _, id := range g.ids {
			if id < 1 || id > nAtoms {
				return &IndexError{Field: g.field, Value: strconv.Itoa(id), NAtoms: nAtoms}
			}
		}
	}
	return nil
}
