package scan

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/floats"
)

// RadiusColumn is the mandatory swept-parameter column.
const RadiusColumn = "r"

// Row is one successful job: the radius and its total-result values.
type Row struct {
	R      float64
	Values map[string]float64
}

// Table is the radius-sorted aggregate of a scan. It is immutable once built.
type Table struct {
	columns []string
	rows    []Row
}

// TableBuilder accumulates rows in any order. It is not safe for concurrent
// use; the orchestrator feeds it from a single collector goroutine.
type TableBuilder struct {
	rows  []builderRow
	extra map[string]bool
}

type builderRow struct {
	seq int
	row Row
}

// NewTableBuilder returns an empty builder.
func NewTableBuilder() *TableBuilder {
	return &TableBuilder{extra: make(map[string]bool)}
}

// Add records a row. seq breaks ties between equal radii so the built table
// does not depend on arrival order.
func (b *TableBuilder) Add(seq int, r float64, total map[string]float64) {
	values := make(map[string]float64, len(total))
	for k, v := range total {
		values[k] = v
		if !isTotalKey(k) {
			b.extra[k] = true
		}
	}
	b.rows = append(b.rows, builderRow{seq: seq, row: Row{R: r, Values: values}})
}

// Len returns the number of rows added so far.
func (b *TableBuilder) Len() int { return len(b.rows) }

// Build sorts the rows ascending by radius and returns the table.
func (b *TableBuilder) Build() *Table {
	sorted := make([]builderRow, len(b.rows))
	copy(sorted, b.rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].row.R != sorted[j].row.R {
			return sorted[i].row.R < sorted[j].row.R
		}
		return sorted[i].seq < sorted[j].seq
	})

	t := &Table{rows: make([]Row, len(sorted))}
	for i, br := range sorted {
		t.rows[i] = br.row
	}

	t.columns = append(t.columns, RadiusColumn)
	present := make(map[string]bool)
	for _, br := range sorted {
		for k := range br.row.Values {
			present[k] = true
		}
	}
	for _, k := range TotalKeys {
		if present[k] {
			t.columns = append(t.columns, k)
		}
	}
	extras := make([]string, 0, len(b.extra))
	for k := range b.extra {
		extras = append(extras, k)
	}
	sort.Strings(extras)
	t.columns = append(t.columns, extras...)
	return t
}

func isTotalKey(k string) bool {
	for _, tk := range TotalKeys {
		if tk == k {
			return true
		}
	}
	return false
}

// Len returns the number of rows. Zero means no job produced a result.
func (t *Table) Len() int { return len(t.rows) }

// Columns returns the column names, "r" first.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// ValueColumns returns every column except "r".
func (t *Table) ValueColumns() []string {
	if len(t.columns) == 0 {
		return nil
	}
	return t.Columns()[1:]
}

// Row returns a copy of row i.
func (t *Table) Row(i int) Row {
	src := t.rows[i]
	values := make(map[string]float64, len(src.Values))
	for k, v := range src.Values {
		values[k] = v
	}
	return Row{R: src.R, Values: values}
}

// Radii returns the "r" column.
func (t *Table) Radii() []float64 {
	out := make([]float64, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.R
	}
	return out
}

// Column returns the values of the named column. Rows lacking the column
// hold NaN. The bool is false for unknown columns.
func (t *Table) Column(name string) ([]float64, bool) {
	if name == RadiusColumn {
		return t.Radii(), true
	}
	found := false
	for _, c := range t.columns {
		if c == name {
			found = true
			break
		}
	}
	if !found {
		return nil, false
	}
	out := make([]float64, len(t.rows))
	for i, r := range t.rows {
		v, ok := r.Values[name]
		if !ok {
			v = math.NaN()
		}
		out[i] = v
	}
	return out, true
}

// Peak returns the radius at which column reaches its maximum.
func (t *Table) Peak(column string) (r, value float64, err error) {
	vals, ok := t.Column(column)
	if !ok {
		return 0, 0, fmt.Errorf("unknown column %q", column)
	}
	if len(vals) == 0 {
		return 0, 0, ErrEmptyScanResult
	}
	// missing values never win
	clean := make([]float64, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) {
			v = math.Inf(-1)
		}
		clean[i] = v
	}
	idx := floats.MaxIdx(clean)
	return t.rows[idx].R, vals[idx], nil
}

// WriteCSV writes the table with a header row. Missing values are empty cells.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.columns); err != nil {
		return err
	}
	for _, r := range t.rows {
		rec := make([]string, len(t.columns))
		rec[0] = strconv.FormatFloat(r.R, 'f', 6, 64)
		for i, c := range t.columns[1:] {
			if v, ok := r.Values[c]; ok {
				rec[i+1] = strconv.FormatFloat(v, 'f', 6, 64)
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
