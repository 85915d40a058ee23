package sheet

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// DefaultHeaderRow is the row holding column names unless told otherwise.
const DefaultHeaderRow = 1

// arrayFormulaMarker identifies header formulas that fill their column.
const arrayFormulaMarker = "ARRAYFORMULA"

// Table is a record view over a Grid.
//
// Reads come in two flavors. FindAll and Update read the grid; Find, Pick
// and the existence check of Upsert read the cache that FindAll last
// filled. Insert and Clear never refresh the cache, so call FindAll after
// them to observe their effect.
//
// A Table is not safe for concurrent use.
type Table struct {
	grid      Grid
	headerRow int
	columns   ColumnIndex
	lastRow   int
	lastCol   int
	records   []Record
}

// New captures the grid extent, indexes the header row and loads all records.
//
// A header without any column is logged and yields a table whose fields
// never match anything.
func New(g Grid, headerRow int) (*Table, error) {
	if headerRow < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHeaderRow, headerRow)
	}
	rows, cols, err := g.Extent()
	if err != nil {
		return nil, fmt.Errorf("failed to get grid extent: %w", err)
	}
	t := &Table{grid: g, lastRow: rows, lastCol: cols}
	if err := t.SetHeaderRowIndex(headerRow); err != nil {
		return nil, err
	}
	if t.columns.Len() == 0 {
		slog.Warn("Sheet header defines no columns", "headerRow", headerRow, "err", &ConfigError{HeaderRow: headerRow, Err: ErrNoColumns})
	}
	if _, err := t.FindAll(); err != nil {
		return nil, err
	}
	return t, nil
}

// HeaderRowIndex returns the row holding column names.
func (t *Table) HeaderRowIndex() int { return t.headerRow }

// SetHeaderRowIndex moves the header and rebuilds the column index. The
// cached records are left as is; call FindAll to reload them.
func (t *Table) SetHeaderRowIndex(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidHeaderRow, n)
	}
	cols, err := BuildColumnIndex(t.grid, n, t.lastCol)
	if err != nil {
		return err
	}
	t.headerRow = n
	t.columns = cols
	return nil
}

// Columns returns the column index.
func (t *Table) Columns() ColumnIndex { return t.columns }

// LastRow returns the last used grid row as of the last extent capture.
func (t *Table) LastRow() int { return t.lastRow }

// LastColumn returns the last used grid column captured at construction.
func (t *Table) LastColumn() int { return t.lastCol }

// FindAll reads every data row from the grid and replaces the cache.
func (t *Table) FindAll() ([]Record, error) {
	n := t.lastRow - t.headerRow
	if n <= 0 || t.lastCol <= 0 {
		t.records = []Record{}
		return t.records, nil
	}
	rows, err := t.grid.ReadRange(t.headerRow+1, 1, n, t.lastCol)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows %d-%d: %w", t.headerRow+1, t.lastRow, err)
	}
	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		r := Record{Row: t.headerRow + i + 1, Fields: make(Data, t.columns.Len())}
		for name, p := range t.columns.pos {
			if p-1 < len(row) {
				r.Fields[name] = row[p-1]
			}
		}
		records = append(records, r)
	}
	t.records = records
	return t.records, nil
}

// Find filters the cached records. Nil or empty conditions return the whole
// cache in row order.
func (t *Table) Find(cond Conditions) []Record {
	return filter(t.records, cond)
}

// Pick returns a copy of the index-th cached record matching cond.
func (t *Table) Pick(cond Conditions, index int) (Record, bool) {
	found := t.Find(cond)
	if index < 0 || index >= len(found) {
		return Record{}, false
	}
	return found[index].Clone(), true
}

// Insert appends one row per element of data after the last used row, in a
// single write. Fields without a matching column are dropped.
func (t *Table) Insert(data ...Data) error {
	if len(data) == 0 {
		return nil
	}
	if t.lastCol <= 0 {
		return &ConfigError{HeaderRow: t.headerRow, Err: ErrNoColumns}
	}
	start := t.lastRow + 1
	base, err := t.grid.ReadRange(start, 1, len(data), t.lastCol)
	if err != nil {
		return fmt.Errorf("failed to read insert region at row %d: %w", start, err)
	}
	for i, d := range data {
		t.columns.overlay(base[i], d)
	}
	if err := t.grid.WriteRange(start, 1, base); err != nil {
		return fmt.Errorf("failed to write %d rows at row %d: %w", len(data), start, err)
	}
	return t.refreshLastRow()
}

// Update overwrites the fields of data on every row matching cond, reading
// the grid afresh to find them. It refuses to run without conditions and
// reports whether any row was written.
func (t *Table) Update(data Data, cond Conditions) (bool, error) {
	if len(cond) == 0 {
		return false, nil
	}
	all, err := t.FindAll()
	if err != nil {
		return false, err
	}
	updated := false
	for _, r := range filter(all, cond) {
		row, err := t.grid.ReadRange(r.Row, 1, 1, t.lastCol)
		if err != nil {
			return updated, fmt.Errorf("failed to read row %d: %w", r.Row, err)
		}
		t.columns.overlay(row[0], data)
		if err := t.grid.WriteRange(r.Row, 1, row); err != nil {
			return updated, fmt.Errorf("failed to write row %d: %w", r.Row, err)
		}
		updated = true
	}
	return updated, nil
}

// Upsert updates the rows matching cond when the cache has any, and inserts
// data otherwise. It reports whether the update path was taken.
//
// The check uses the cache while Update reads the grid, so a row removed
// since the last FindAll makes Upsert update nothing.
func (t *Table) Upsert(data Data, cond Conditions) (bool, error) {
	if len(t.Find(cond)) > 0 {
		if _, err := t.Update(data, cond); err != nil {
			return true, err
		}
		return true, nil
	}
	return false, t.Insert(data)
}

// Clear blanks the content of every data row, leaving the header in place.
func (t *Table) Clear() error {
	if n := t.lastRow - t.headerRow; n > 0 && t.lastCol > 0 {
		if err := t.grid.ClearRange(t.headerRow+1, 1, n, t.lastCol, true); err != nil {
			return fmt.Errorf("failed to clear rows %d-%d: %w", t.headerRow+1, t.lastRow, err)
		}
	}
	return t.refreshLastRow()
}

// RefreshFormula clears the data body of each column whose header holds an
// array formula so the host can fill it again.
func (t *Table) RefreshFormula() error {
	fg, ok := t.grid.(FormulaGrid)
	if !ok {
		return ErrFormulasUnsupported
	}
	if t.lastCol <= 0 {
		return nil
	}
	formulas, err := fg.Formulas(t.headerRow, 1, 1, t.lastCol)
	if err != nil {
		return fmt.Errorf("failed to read header formulas: %w", err)
	}
	n := t.lastRow - t.headerRow
	var errs []error
	for i, f := range formulas[0] {
		if !strings.Contains(f, arrayFormulaMarker) {
			continue
		}
		slog.Debug("Refreshing array formula column", "column", i+1, "formula", f)
		if n <= 0 {
			continue
		}
		if err := t.grid.ClearRange(t.headerRow+1, i+1, n, 1, false); err != nil {
			errs = append(errs, fmt.Errorf("column %d: %w", i+1, err))
		}
	}
	return errors.Join(errs...)
}

func (t *Table) refreshLastRow() error {
	rows, _, err := t.grid.Extent()
	if err != nil {
		return fmt.Errorf("failed to get grid extent: %w", err)
	}
	t.lastRow = rows
	return nil
}

// filter keeps the records satisfying every condition, in order.
func filter(records []Record, cond Conditions) []Record {
	if len(cond) == 0 {
		return records
	}
	out := make([]Record, 0, len(records))
	for i := range records {
		if records[i].matches(cond) {
			out = append(out, records[i])
		}
	}
	return out
}
