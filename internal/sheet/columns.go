// Builds the header-name to column-position mapping.

package sheet

import (
	"cmp"
	"fmt"
	"slices"
)

// ColumnIndex maps header names to 1-based column positions.
type ColumnIndex struct {
	pos map[string]int
}

// BuildColumnIndex reads the header row across lastCol columns.
//
// Later duplicates win. Blank header cells are skipped and a header named
// RowIndexKey is a *ConfigError.
func BuildColumnIndex(g Grid, headerRow, lastCol int) (ColumnIndex, error) {
	idx := ColumnIndex{pos: map[string]int{}}
	if lastCol <= 0 {
		return idx, nil
	}
	rows, err := g.ReadRange(headerRow, 1, 1, lastCol)
	if err != nil {
		return ColumnIndex{}, fmt.Errorf("failed to read header row %d: %w", headerRow, err)
	}
	if len(rows) == 0 {
		return idx, nil
	}
	for i, cell := range rows[0] {
		if cell.IsEmpty() {
			continue
		}
		name := cell.Text()
		if name == RowIndexKey {
			return ColumnIndex{}, &ConfigError{HeaderRow: headerRow, Column: i + 1, Err: ErrReservedColumn}
		}
		idx.pos[name] = i + 1
	}
	return idx, nil
}

// Len returns the number of distinct column names.
func (c ColumnIndex) Len() int { return len(c.pos) }

// Position returns the 1-based column of name.
func (c ColumnIndex) Position(name string) (int, bool) {
	p, ok := c.pos[name]
	return p, ok
}

// Names returns the column names ordered by position.
func (c ColumnIndex) Names() []string {
	names := make([]string, 0, len(c.pos))
	for n := range c.pos {
		names = append(names, n)
	}
	slices.SortFunc(names, func(a, b string) int { return cmp.Compare(c.pos[a], c.pos[b]) })
	return names
}

// overlay writes the known fields of d into row. Unknown fields and
// positions past the row width are ignored.
func (c ColumnIndex) overlay(row []Value, d Data) {
	for k, v := range d {
		p, ok := c.pos[k]
		if !ok || p > len(row) {
			continue
		}
		row[p-1] = v
	}
}
