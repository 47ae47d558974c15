package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/molecule-scanner/internal/scan"
)

// ErrScanNotFound is returned by LoadScan and DeleteScan for unknown ids.
var ErrScanNotFound = errors.New("scan not found")

// ScanRecord is the metadata row of one persisted scan.
type ScanRecord struct {
	ScanID    string          `json:"scan_id"`
	Label     string          `json:"label"`
	XYZPath   string          `json:"xyz_path"`
	RMin      float64         `json:"r_min"`
	RMax      float64         `json:"r_max"`
	Steps     int             `json:"steps"`
	Params    scan.Parameters `json:"params"`
	RowCount  int             `json:"row_count"`
	Succeeded int             `json:"succeeded"`
	Empty     int             `json:"empty"`
	Failed    int             `json:"failed"`
	Elapsed   time.Duration   `json:"elapsed"`
	CreatedAt int64           `json:"created_at"`
}

// SaveScan stores rec and the rows of t in one transaction. An empty ScanID
// is filled with a new UUID; an empty CreatedAt with the current time.
func (db *DB) SaveScan(rec *ScanRecord, t *scan.Table) error {
	if rec.ScanID == "" {
		rec.ScanID = uuid.New().String()
	}
	if rec.CreatedAt == 0 {
		rec.CreatedAt = time.Now().UnixNano()
	}
	rec.RowCount = t.Len()

	params, err := json.Marshal(rec.Params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}

	return retryOnBusy(func() error {
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`
			INSERT INTO scans (
				scan_id, label, xyz_path, r_min, r_max, steps, params_json,
				row_count, succeeded, empty, failed, elapsed_ms, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ScanID, rec.Label, rec.XYZPath, rec.RMin, rec.RMax, rec.Steps, string(params),
			rec.RowCount, rec.Succeeded, rec.Empty, rec.Failed, rec.Elapsed.Milliseconds(), rec.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert scan: %w", err)
		}

		stmt, err := tx.Prepare(`INSERT INTO scan_values (scan_id, row_idx, r, column_name, value) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i := 0; i < t.Len(); i++ {
			row := t.Row(i)
			for col, v := range row.Values {
				if _, err := stmt.Exec(rec.ScanID, i, row.R, col, v); err != nil {
					return fmt.Errorf("insert row %d: %w", i, err)
				}
			}
		}
		return tx.Commit()
	})
}

// LoadScan returns the record and table of a stored scan.
func (db *DB) LoadScan(scanID string) (*ScanRecord, *scan.Table, error) {
	rec, err := scanRecord(db.QueryRow(selectScans+` WHERE scan_id = ?`, scanID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: %s", ErrScanNotFound, scanID)
	}
	if err != nil {
		return nil, nil, err
	}

	rows, err := db.Query(`
		SELECT row_idx, r, column_name, value
		FROM scan_values
		WHERE scan_id = ?
		ORDER BY row_idx`, scanID)
	if err != nil {
		return nil, nil, fmt.Errorf("query scan values: %w", err)
	}
	defer rows.Close()

	byRow := make(map[int]map[string]float64)
	radii := make(map[int]float64)
	for rows.Next() {
		var (
			idx int
			r   float64
			col string
			v   float64
		)
		if err := rows.Scan(&idx, &r, &col, &v); err != nil {
			return nil, nil, fmt.Errorf("scan value row: %w", err)
		}
		if byRow[idx] == nil {
			byRow[idx] = make(map[string]float64)
		}
		byRow[idx][col] = v
		radii[idx] = r
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	b := scan.NewTableBuilder()
	for idx, values := range byRow {
		b.Add(idx, radii[idx], values)
	}
	return rec, b.Build(), nil
}

// ListScans returns the most recent scans first. limit <= 0 means all.
func (db *DB) ListScans(limit int) ([]*ScanRecord, error) {
	query := selectScans + ` ORDER BY created_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query scans: %w", err)
	}
	defer rows.Close()

	var out []*ScanRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteScan removes a scan and its rows.
func (db *DB) DeleteScan(scanID string) error {
	return retryOnBusy(func() error {
		res, err := db.Exec(`DELETE FROM scans WHERE scan_id = ?`, scanID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", ErrScanNotFound, scanID)
		}
		return nil
	})
}

const selectScans = `
	SELECT scan_id, label, xyz_path, r_min, r_max, steps, params_json,
	       row_count, succeeded, empty, failed, elapsed_ms, created_at
	FROM scans`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*ScanRecord, error) {
	var (
		rec       ScanRecord
		params    string
		elapsedMS int64
	)
	err := row.Scan(
		&rec.ScanID, &rec.Label, &rec.XYZPath, &rec.RMin, &rec.RMax, &rec.Steps, &params,
		&rec.RowCount, &rec.Succeeded, &rec.Empty, &rec.Failed, &elapsedMS, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(params), &rec.Params); err != nil {
		return nil, fmt.Errorf("decode params of scan %s: %w", rec.ScanID, err)
	}
	rec.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	return &rec, nil
}
