// Package grid provides an in-memory sheet.Grid.
package grid

import (
	"errors"
	"fmt"
	"sync"

	"github.com/maruel/sheetdb/internal/sheet"
)

// ErrOutOfRange is returned for a range that starts before row or column 1
// or has a negative size.
var ErrOutOfRange = errors.New("range out of bounds")

type cell struct {
	value   sheet.Value
	formula string
	style   string
}

func (c *cell) used() bool {
	return !c.value.IsEmpty() || c.formula != ""
}

// Memory is a growable grid held in memory. It is safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	cells [][]cell
}

// NewMemory returns a grid whose first rows hold values.
func NewMemory(values ...[]sheet.Value) *Memory {
	m := &Memory{}
	m.load(values)
	return m
}

// Extent returns the last row and column holding a value or a formula.
func (m *Memory) Extent() (int, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows, cols := 0, 0
	for i, row := range m.cells {
		for j := range row {
			if row[j].used() {
				rows = i + 1
				cols = max(cols, j+1)
			}
		}
	}
	return rows, cols, nil
}

// ReadRange returns a numRows×numCols copy of the block.
func (m *Memory) ReadRange(row, col, numRows, numCols int) ([][]sheet.Value, error) {
	if err := checkRange(row, col, numRows, numCols); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([][]sheet.Value, numRows)
	for i := range out {
		out[i] = make([]sheet.Value, numCols)
		r := row - 1 + i
		if r >= len(m.cells) {
			continue
		}
		for j := range out[i] {
			if c := col - 1 + j; c < len(m.cells[r]) {
				out[i][j] = m.cells[r][c].value
			}
		}
	}
	return out, nil
}

// WriteRange stores values, growing the grid as needed. Writing a value
// drops any formula in that cell.
func (m *Memory) WriteRange(row, col int, values [][]sheet.Value) error {
	if err := checkRange(row, col, len(values), 0); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, vals := range values {
		for j, v := range vals {
			c := m.at(row+i, col+j)
			c.value = v
			c.formula = ""
		}
	}
	return nil
}

// ClearRange blanks values and formulas. Without contentOnly, styles are
// dropped too.
func (m *Memory) ClearRange(row, col, numRows, numCols int, contentOnly bool) error {
	if err := checkRange(row, col, numRows, numCols); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for r := row - 1; r < row-1+numRows && r < len(m.cells); r++ {
		for c := col - 1; c < col-1+numCols && c < len(m.cells[r]); c++ {
			x := &m.cells[r][c]
			x.value = sheet.Value{}
			x.formula = ""
			if !contentOnly {
				x.style = ""
			}
		}
	}
	return nil
}

// Formulas returns the formulas of the block.
func (m *Memory) Formulas(row, col, numRows, numCols int) ([][]string, error) {
	if err := checkRange(row, col, numRows, numCols); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([][]string, numRows)
	for i := range out {
		out[i] = make([]string, numCols)
		r := row - 1 + i
		if r >= len(m.cells) {
			continue
		}
		for j := range out[i] {
			if c := col - 1 + j; c < len(m.cells[r]) {
				out[i][j] = m.cells[r][c].formula
			}
		}
	}
	return out, nil
}

// SetFormula stores a formula in a cell, keeping its current value as the
// last computed result.
func (m *Memory) SetFormula(row, col int, formula string) error {
	if err := checkRange(row, col, 1, 1); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.at(row, col).formula = formula
	return nil
}

// SetStyle attaches an opaque formatting tag to a cell.
func (m *Memory) SetStyle(row, col int, style string) error {
	if err := checkRange(row, col, 1, 1); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.at(row, col).style = style
	return nil
}

// Style returns the formatting tag of a cell.
func (m *Memory) Style(row, col int) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if row < 1 || col < 1 || row > len(m.cells) || col > len(m.cells[row-1]) {
		return ""
	}
	return m.cells[row-1][col-1].style
}

// Snapshot returns the values within the extent.
func (m *Memory) Snapshot() [][]sheet.Value {
	rows, cols, _ := m.Extent()
	out, _ := m.ReadRange(1, 1, rows, cols)
	return out
}

// Replace discards every cell and loads values.
func (m *Memory) Replace(values [][]sheet.Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cells = nil
	m.load(values)
}

func (m *Memory) load(values [][]sheet.Value) {
	for i, vals := range values {
		for j, v := range vals {
			if !v.IsEmpty() {
				m.at(i+1, j+1).value = v
			}
		}
	}
}

// at returns the cell, growing the grid. Callers hold the write lock.
func (m *Memory) at(row, col int) *cell {
	for len(m.cells) < row {
		m.cells = append(m.cells, nil)
	}
	r := m.cells[row-1]
	if len(r) < col {
		r = append(r, make([]cell, col-len(r))...)
		m.cells[row-1] = r
	}
	return &r[col-1]
}

func checkRange(row, col, numRows, numCols int) error {
	if row < 1 || col < 1 || numRows < 0 || numCols < 0 {
		return fmt.Errorf("%w: row=%d col=%d rows=%d cols=%d", ErrOutOfRange, row, col, numRows, numCols)
	}
	return nil
}
