package render

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/molecule-scanner/internal/cavity"
	"github.com/banshee-data/molecule-scanner/internal/scan"
)

func sampleTable() *scan.Table {
	b := scan.NewTableBuilder()
	for i, r := range scan.Linspace(2, 4, 5) {
		b.Add(i, r, map[string]float64{
			scan.FreeVolume:          10 * r,
			scan.BuriedVolume:        20 * r,
			scan.PercentBuriedVolume: 50 + r,
		})
	}
	return b.Build()
}

func sampleGrids(t *testing.T) *cavity.Grids {
	t.Helper()
	var pts []cavity.SurfacePoint
	for i := 0; i < 4; i++ {
		for j := 0; j < 3; j++ {
			x, y := float64(i), float64(j)
			pts = append(pts, cavity.SurfacePoint{X: x, Y: y, Top: x + y, Bottom: -x - y})
		}
	}
	pts[0].Top = cavity.DefaultSentinels.Top
	g, err := cavity.Build(pts, cavity.DefaultSentinels)
	require.NoError(t, err)
	return g
}

func isPNG(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, len(data) > 8, "%s is empty", path)
	assert.Equal(t, []byte("\x89PNG"), data[:4], "%s is not a PNG", path)
}

func TestSaveScanPlot(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "scan.png")
	require.NoError(t, SaveScanPlot(sampleTable(), "", path))
	isPNG(t, path)
}

func TestScanPlot_Errors(t *testing.T) {
	t.Parallel()

	_, err := ScanPlot(sampleTable(), "not_a_column")
	assert.Error(t, err)

	_, err = ScanPlot(scan.NewTableBuilder().Build(), scan.FreeVolume)
	assert.Error(t, err)

	b := scan.NewTableBuilder()
	b.Add(0, 1, map[string]float64{scan.FreeVolume: 1})
	b.Add(1, 2, map[string]float64{scan.BuriedVolume: 1})
	_, err = ScanPlot(b.Build(), scan.PercentBuriedVolume)
	assert.Error(t, err)
	p, err := ScanPlot(b.Build(), scan.FreeVolume)
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestSaveCavityPlots(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	paths, err := SaveCavityPlots(sampleGrids(t), dir, "cavity")
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "cavity-top.png"),
		filepath.Join(dir, "cavity-bottom.png"),
	}, paths)
	for _, p := range paths {
		isPNG(t, p)
	}
}

func TestCavityHeatMap_Degenerate(t *testing.T) {
	t.Parallel()

	line := []cavity.SurfacePoint{{X: 0, Y: 0, Top: 1, Bottom: 1}, {X: 1, Y: 0, Top: 1, Bottom: 1}}
	g, err := cavity.Build(line, cavity.DefaultSentinels)
	require.NoError(t, err)
	_, err = CavityHeatMap(g, TopSurface)
	assert.True(t, errors.Is(err, ErrNothingToPlot))

	empty := []cavity.SurfacePoint{
		{X: 0, Y: 0, Top: -7, Bottom: 7}, {X: 0, Y: 1, Top: -7, Bottom: 7},
		{X: 1, Y: 0, Top: -7, Bottom: 7}, {X: 1, Y: 1, Top: -7, Bottom: 7},
	}
	g, err = cavity.Build(empty, cavity.DefaultSentinels)
	require.NoError(t, err)
	_, err = CavityHeatMap(g, BottomSurface)
	assert.ErrorIs(t, err, ErrNothingToPlot)
}

func TestCavityHeatMap_FlatSurface(t *testing.T) {
	t.Parallel()

	flat := []cavity.SurfacePoint{
		{X: 0, Y: 0, Top: 2, Bottom: 2}, {X: 0, Y: 1, Top: 2, Bottom: 2},
		{X: 1, Y: 0, Top: 2, Bottom: 2}, {X: 1, Y: 1, Top: 2, Bottom: 2},
	}
	g, err := cavity.Build(flat, cavity.DefaultSentinels)
	require.NoError(t, err)
	p, err := CavityHeatMap(g, TopSurface)
	require.NoError(t, err)
	assert.Contains(t, p.Title.Text, "Top")
}

func TestScanDashboardHTML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, ScanDashboardHTML(&buf, sampleTable(), "water"))
	html := buf.String()
	assert.Contains(t, html, "<html")
	assert.Contains(t, html, "percent_buried_volume")
	assert.Contains(t, html, "free_volume")

	err := ScanDashboardHTML(&buf, scan.NewTableBuilder().Build(), "empty")
	assert.ErrorIs(t, err, ErrNothingToPlot)
}

func TestCavityHTML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, CavityHTML(&buf, sampleGrids(t), "water r=3.5"))
	html := buf.String()
	assert.Contains(t, html, "Top surface")
	assert.Contains(t, html, "Bottom surface")
}

func TestOrderedColumns(t *testing.T) {
	t.Parallel()

	got := orderedColumns([]string{scan.FreeVolume, scan.PercentBuriedVolume, scan.TotalVolume})
	assert.Equal(t, []string{scan.PercentBuriedVolume, scan.FreeVolume, scan.TotalVolume}, got)
	assert.Empty(t, orderedColumns(nil))
}
