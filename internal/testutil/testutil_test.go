package testutil

import (
	"errors"
	"regexp"
	"strings"
	"testing"
)

func TestAssertNoError(t *testing.T) {
	t.Parallel()
	AssertNoError(t, nil)
}

func TestAssertNoError_FailurePath(t *testing.T) {
	t.Parallel()

	ok := t.Run("unexpected error", func(t *testing.T) {
		AssertNoError(t, errors.New("boom"))
	})
	if ok {
		t.Fatal("expected subtest to fail when error is non-nil")
	}
}

func TestAssertError(t *testing.T) {
	t.Parallel()
	AssertError(t, errors.New("test error"))
}

func TestAssertError_FailurePath(t *testing.T) {
	t.Parallel()

	ok := t.Run("missing error", func(t *testing.T) {
		AssertError(t, nil)
	})
	if ok {
		t.Fatal("expected subtest to fail when error is nil")
	}
}

func TestAssertFloat_FailurePath(t *testing.T) {
	t.Parallel()

	AssertFloat(t, "close", 1.0, 1.05, 0.1)
	ok := t.Run("too far", func(t *testing.T) {
		AssertFloat(t, "far", 1.0, 2.0, 0.1)
	})
	if ok {
		t.Fatal("expected subtest to fail when values differ")
	}
}

func TestCalculatorOutputHasResultLine(t *testing.T) {
	t.Parallel()

	result := regexp.MustCompile(`(?m)^[ ]{5,6}(\d*\.\d*)[ ]{5,6}(\d*\.\d*)[ ]{5,6}(\d*\.\d*)[ ]{5,6}(\d*\.\d*)$`)
	out := CalculatorOutput(ReferenceVolumes)
	m := result.FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("result line not found in:\n%s", out)
	}
	if m[1] != "55.7" || m[4] != "179.6" {
		t.Errorf("unexpected fields %v", m[1:])
	}
	if result.MatchString(NoResultOutput) {
		t.Error("NoResultOutput must not contain a result line")
	}
}

func TestSurfaceFile(t *testing.T) {
	t.Parallel()

	out := SurfaceFile([]float64{0, 1}, []float64{0, 1, 2}, func(x, y float64) float64 { return x + y })
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d", len(lines))
	}
	if f := strings.Fields(lines[4]); f[0] != "1.000" || f[1] != "1.000" || f[2] != "2.000" {
		t.Errorf("unexpected line %q", lines[4])
	}
}
