package molecule

import (
	"bytes"
	"fmt"
	"io"
)

// CalcSettings are the numeric options written after the atom selections.
type CalcSettings struct {
	SphereRadius      float64
	Displacement      float64
	MeshSize          float64
	RemoveHydrogens   bool
	OrientZ           bool
	WriteSurfaceFiles bool
}

// WriteInput writes the calculator input: the four atom-id groups (count line,
// then one id per line), the sphere settings, the radii table for the
// elements present, and finally the XYZ file verbatim.
func WriteInput(w io.Writer, m *Molecule, sel Selection, s CalcSettings) error {
	var buf bytes.Buffer

	for _, ids := range [][]int{sel.Delete, sel.SphereCenter, sel.ZAxis, sel.XZPlane} {
		fmt.Fprintf(&buf, "%d\n", len(ids))
		for _, id := range ids {
			fmt.Fprintf(&buf, "%d\n", id)
		}
	}

	fmt.Fprintf(&buf, "%.3f\n", s.SphereRadius)
	fmt.Fprintf(&buf, "%.3f\n", s.Displacement)
	fmt.Fprintf(&buf, "%.3f\n", s.MeshSize)
	fmt.Fprintf(&buf, "%d\n", boolFlag(s.RemoveHydrogens))
	fmt.Fprintf(&buf, "%d\n", boolFlag(s.OrientZ))
	fmt.Fprintf(&buf, "%d\n", boolFlag(s.WriteSurfaceFiles))

	table := radiiTable(m.Elements())
	fmt.Fprintf(&buf, "%d\n", len(table))
	for _, e := range table {
		fmt.Fprintf(&buf, "%-2s %6.2f\n", e.Element, e.Radius)
	}

	raw := m.Raw
	if len(raw) == 0 {
		raw = formatXYZ(m)
	}
	buf.Write(raw)
	if len(raw) > 0 && raw[len(raw)-1] != '\n' {
		buf.WriteByte('\n')
	}

	_, err := w.Write(buf.Bytes())
	return err
}

func formatXYZ(m *Molecule) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d\n%s\n", len(m.Atoms), m.Comment)
	for _, a := range m.Atoms {
		fmt.Fprintf(&buf, "%-2s %12.6f %12.6f %12.6f\n", a.Element, a.X, a.Y, a.Z)
	}
	return buf.Bytes()
}

func boolFlag(b bool) int {
	if b {
		return 1
	}
	return 0
}
