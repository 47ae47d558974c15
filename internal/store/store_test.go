package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/molecule-scanner/internal/scan"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "scans.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testTable() *scan.Table {
	b := scan.NewTableBuilder()
	for i, r := range []float64{3.5, 3.0, 4.0} {
		b.Add(i, r, map[string]float64{
			scan.FreeVolume:          r * 10,
			scan.PercentBuriedVolume: 60 + r,
		})
	}
	return b.Build()
}

func TestOpen_Migrates(t *testing.T) {
	db := openTestDB(t)

	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	// idempotent
	require.NoError(t, db.MigrateUp())
}

func TestSaveAndLoadScan(t *testing.T) {
	db := openTestDB(t)

	rec := &ScanRecord{
		Label:     "water",
		XYZPath:   "/data/water.xyz",
		RMin:      3,
		RMax:      4,
		Steps:     3,
		Params:    scan.DefaultParameters(3),
		Succeeded: 3,
		Elapsed:   1500 * time.Millisecond,
	}
	table := testTable()
	require.NoError(t, db.SaveScan(rec, table))
	require.NotEmpty(t, rec.ScanID)
	assert.Equal(t, 3, rec.RowCount)
	assert.NotZero(t, rec.CreatedAt)

	got, loaded, err := db.LoadScan(rec.ScanID)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
	assert.Equal(t, table.Columns(), loaded.Columns())
	assert.Equal(t, []float64{3, 3.5, 4}, loaded.Radii())
	for i := 0; i < table.Len(); i++ {
		assert.Equal(t, table.Row(i), loaded.Row(i))
	}
}

func TestSaveScan_EmptyTable(t *testing.T) {
	db := openTestDB(t)

	rec := &ScanRecord{XYZPath: "a.xyz", RMin: 1, RMax: 2, Steps: 4, Params: scan.DefaultParameters(1), Empty: 4}
	require.NoError(t, db.SaveScan(rec, scan.NewTableBuilder().Build()))

	got, table, err := db.LoadScan(rec.ScanID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.RowCount)
	assert.Equal(t, 4, got.Empty)
	assert.Equal(t, 0, table.Len())
}

func TestListScans(t *testing.T) {
	db := openTestDB(t)

	for i, label := range []string{"first", "second", "third"} {
		rec := &ScanRecord{Label: label, XYZPath: "m.xyz", RMin: 1, RMax: 2, Steps: 2, Params: scan.DefaultParameters(1), CreatedAt: int64(i + 1)}
		require.NoError(t, db.SaveScan(rec, testTable()))
	}

	all, err := db.ListScans(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "third", all[0].Label)
	assert.Equal(t, "first", all[2].Label)

	limited, err := db.ListScans(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestLoadScan_NotFound(t *testing.T) {
	db := openTestDB(t)

	_, _, err := db.LoadScan("missing")
	assert.ErrorIs(t, err, ErrScanNotFound)
}

func TestDeleteScan(t *testing.T) {
	db := openTestDB(t)

	rec := &ScanRecord{XYZPath: "m.xyz", RMin: 1, RMax: 2, Steps: 2, Params: scan.DefaultParameters(1)}
	require.NoError(t, db.SaveScan(rec, testTable()))
	require.NoError(t, db.DeleteScan(rec.ScanID))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM scan_values WHERE scan_id = ?`, rec.ScanID).Scan(&n))
	assert.Zero(t, n, "values must cascade with the scan")

	assert.ErrorIs(t, db.DeleteScan(rec.ScanID), ErrScanNotFound)
}

func TestIsSQLiteBusy(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"database is locked", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"SQLITE_BUSY", errors.New("SQLITE_BUSY"), true},
		{"other error", errors.New("some other error"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isSQLiteBusy(tt.err); got != tt.expected {
				t.Errorf("isSQLiteBusy(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestRetryOnBusy(t *testing.T) {
	calls := 0
	err := retryOnBusy(func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = retryOnBusy(func() error {
		calls++
		return errors.New("constraint failed")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
