package molecule

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const waterXYZ = `3
water
O   0.000000   0.000000   0.117300
h   0.000000   0.757200  -0.469200
H   0.000000  -0.757200  -0.469200
`

func TestParseXYZ(t *testing.T) {
	m, err := ParseXYZ(strings.NewReader(waterXYZ))
	if err != nil {
		t.Fatalf("ParseXYZ failed: %v", err)
	}
	if m.NumAtoms() != 3 {
		t.Errorf("expected 3 atoms, got %d", m.NumAtoms())
	}
	if m.Comment != "water" {
		t.Errorf("expected comment 'water', got %q", m.Comment)
	}
	if m.Atoms[1].Element != "H" {
		t.Errorf("expected normalised element H, got %q", m.Atoms[1].Element)
	}
	if m.Atoms[1].Y != 0.7572 {
		t.Errorf("expected y=0.7572, got %f", m.Atoms[1].Y)
	}
	if got := m.Elements(); len(got) != 2 || got[0] != "O" || got[1] != "H" {
		t.Errorf("Elements() = %v", got)
	}
	if string(m.Raw) != waterXYZ {
		t.Errorf("Raw should hold the original file, got %q", m.Raw)
	}
}

func TestParseXYZErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "missing atom count"},
		{"bad count", "three\nx\n", "invalid atom count"},
		{"short line", "1\nc\nC 0.0 1.0\n", "expected element and 3 coordinates"},
		{"bad coordinate", "1\nc\nC 0.0 abc 1.0\n", "invalid coordinate"},
		{"too few atoms", "2\nc\nC 0 0 0\n", "declares 2 atoms, found 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseXYZ(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestReadXYZFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "water.xyz")
	if err := os.WriteFile(path, []byte(waterXYZ), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := ReadXYZFile(path)
	if err != nil {
		t.Fatalf("ReadXYZFile failed: %v", err)
	}
	if m.NumAtoms() != 3 {
		t.Errorf("expected 3 atoms, got %d", m.NumAtoms())
	}

	if _, err := ReadXYZFile(filepath.Join(t.TempDir(), "missing.xyz")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseIndexList(t *testing.T) {
	got, err := ParseIndexList("xz_plane", " 1, 3,9 ,")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{1, 3, 9}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %d, got %d", i, want[i], got[i])
		}
	}

	if got, err := ParseIndexList("delete", "  "); err != nil || got != nil {
		t.Errorf("blank input: got %v, %v", got, err)
	}
}

func TestParseIndexListRejectsBadValues(t *testing.T) {
	for _, in := range []string{"1,a", "2.5", "0", "-3"} {
		_, err := ParseIndexList("z_axis", in)
		if !errors.Is(err, ErrInvalidInputIndex) {
			t.Errorf("%q: expected ErrInvalidInputIndex, got %v", in, err)
			continue
		}
		var ie *IndexError
		if !errors.As(err, &ie) || ie.Field != "z_axis" {
			t.Errorf("%q: expected IndexError for z_axis, got %#v", in, err)
			continue
		}
		if !strings.Contains(err.Error(), ie.Value) {
			t.Errorf("%q: message %q should name the offending value", in, err)
		}
	}
}

func TestSelectionValidate(t *testing.T) {
	sel, err := ParseSelection("1", "2", "1,3,9", "1")
	if err != nil {
		t.Fatalf("ParseSelection failed: %v", err)
	}
	if err := sel.Validate(25); err != nil {
		t.Errorf("expected valid selection, got %v", err)
	}

	err = sel.Validate(5)
	var ie *IndexError
	if !errors.As(err, &ie) {
		t.Fatalf("expected IndexError, got %v", err)
	}
	if ie.Field != "xz_plane" || ie.Value != "9" || ie.NAtoms != 5 {
		t.Errorf("unexpected error detail: %+v", ie)
	}

	if err := (Selection{ZAxis: []int{1}, XZPlane: []int{1}}).Validate(3); err == nil {
		t.Error("expected error for missing sphere centre")
	}
}

func TestRadius(t *testing.T) {
	r, ok := Radius("c")
	if !ok {
		t.Fatal("carbon should be tabulated")
	}
	if want := 1.70 * RadiiScale; r != want {
		t.Errorf("expected %f, got %f", want, r)
	}

	r, ok = Radius("Ru")
	if ok {
		t.Error("ruthenium is not tabulated")
	}
	if want := DefaultRadius * RadiiScale; r != want {
		t.Errorf("expected fallback %f, got %f", want, r)
	}
}

func TestWriteInput(t *testing.T) {
	m, err := ParseXYZ(strings.NewReader(waterXYZ))
	if err != nil {
		t.Fatal(err)
	}
	sel := Selection{SphereCenter: []int{1}, ZAxis: []int{2}, XZPlane: []int{1, 2, 3}}
	var buf bytes.Buffer
	err = WriteInput(&buf, m, sel, CalcSettings{
		SphereRadius:      3.5,
		MeshSize:          0.1,
		RemoveHydrogens:   true,
		OrientZ:           true,
		WriteSurfaceFiles: false,
	})
	if err != nil {
		t.Fatalf("WriteInput failed: %v", err)
	}

	lines := strings.Split(buf.String(), "\n")
	// deletions, sphere centre, z axis, xz plane, settings, radii count
	wantHead := []string{
		"0",
		"1", "1",
		"1", "2",
		"3", "1", "2", "3",
		"3.500", "0.000", "0.100",
		"1", "1", "0",
		"2",
	}
	if len(lines) < len(wantHead) {
		t.Fatalf("input too short: %q", buf.String())
	}
	for i, want := range wantHead {
		if lines[i] != want {
			t.Errorf("line %d: expected %q, got %q", i+1, want, lines[i])
		}
	}
	if !strings.HasPrefix(lines[len(wantHead)], "H ") || !strings.HasPrefix(lines[len(wantHead)+1], "O ") {
		t.Errorf("expected sorted radii table, got %q / %q", lines[len(wantHead)], lines[len(wantHead)+1])
	}
	if !strings.HasSuffix(buf.String(), waterXYZ) {
		t.Error("expected XYZ content at the end of the input")
	}
}
