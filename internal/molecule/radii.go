package molecule

import "sort"

// RadiiScale is the factor applied to Bondi radii for buried-volume work.
const RadiiScale = 1.17

// DefaultRadius is the unscaled radius used for elements missing from bondiRadii.
const DefaultRadius = 2.00

// Bondi van der Waals radii in Angstrom. Hydrogen uses the 1.10 value common in
// buried-volume studies; metals use the tabulated 2.00 fallback unless listed.
var bondiRadii = map[string]float64{
	"H": 1.10, "He": 1.40,
	"Li": 1.82, "Be": 1.53, "B": 1.92, "C": 1.70, "N": 1.55, "O": 1.52, "F": 1.47, "Ne": 1.54,
	"Na": 2.27, "Mg": 1.73, "Al": 1.84, "Si": 2.10, "P": 1.80, "S": 1.80, "Cl": 1.75, "Ar": 1.88,
	"K": 2.75, "Ca": 2.31, "Ni": 1.63, "Cu": 1.40, "Zn": 1.39, "Ga": 1.87, "Ge": 2.11,
	"As": 1.85, "Se": 1.90, "Br": 1.85, "Kr": 2.02,
	"Rb": 3.03, "Sr": 2.49, "Pd": 1.63, "Ag": 1.72, "Cd": 1.58, "In": 1.93, "Sn": 2.17,
	"Sb": 2.06, "Te": 2.06, "I": 1.98, "Xe": 2.16,
	"Cs": 3.43, "Ba": 2.68, "Pt": 1.75, "Au": 1.66, "Hg": 1.55, "Tl": 1.96, "Pb": 2.02,
	"Bi": 2.07, "U": 1.86,
}

// Radius returns the scaled radius for element and whether the element was
// tabulated.
func Radius(element string) (float64, bool) {
	r, ok := bondiRadii[normalizeElement(element)]
	if !ok {
		r = DefaultRadius
	}
	return r * RadiiScale, ok
}

// radiusEntry is one line of the calculator's radii table.
type radiusEntry struct {
	Element string
	Radius  float64
}

// radiiTable returns scaled radii for the given elements, sorted by symbol.
func radiiTable(elements []string) []radiusEntry {
	out := make([]radiusEntry, 0, len(elements))
	for _, el := range elements {
		r, _ := Radius(el)
		out = append(out, radiusEntry{Element: el, Radius: r})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Element < out[j].Element })
	return out
}
