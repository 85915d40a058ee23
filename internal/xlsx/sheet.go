package xlsx

import (
	"fmt"
	"strconv"

	"github.com/maruel/sheetdb/internal/sheet"
	"github.com/xuri/excelize/v2"
)

// Sheet is one worksheet of a Workbook. It implements sheet.FormulaGrid.
type Sheet struct {
	wb   *Workbook
	name string
}

// Name returns the worksheet name.
func (s *Sheet) Name() string { return s.name }

// Extent returns the last row and column holding a value.
func (s *Sheet) Extent() (int, int, error) {
	s.wb.mu.Lock()
	defer s.wb.mu.Unlock()
	rows, err := s.wb.f.GetRows(s.name, excelize.Options{RawCellValue: true})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read sheet %q: %w", s.name, err)
	}
	lastRow, lastCol := 0, 0
	for i, r := range rows {
		for j, v := range r {
			if v != "" {
				lastRow = i + 1
				lastCol = max(lastCol, j+1)
			}
		}
	}
	return lastRow, lastCol, nil
}

// ReadRange returns the typed values of the block, blanks included.
func (s *Sheet) ReadRange(row, col, numRows, numCols int) ([][]sheet.Value, error) {
	if err := checkRange(row, col, numRows, numCols); err != nil {
		return nil, err
	}
	s.wb.mu.Lock()
	defer s.wb.mu.Unlock()
	rows, err := s.wb.f.GetRows(s.name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", s.name, err)
	}
	out := make([][]sheet.Value, numRows)
	for i := range out {
		out[i] = make([]sheet.Value, numCols)
		r := row - 1 + i
		if r >= len(rows) {
			continue
		}
		for j := range out[i] {
			c := col - 1 + j
			if c >= len(rows[r]) || rows[r][c] == "" {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			typ, err := s.wb.f.GetCellType(s.name, ref)
			if err != nil {
				return nil, fmt.Errorf("failed to read cell %s!%s: %w", s.name, ref, err)
			}
			out[i][j] = decode(typ, rows[r][c])
		}
	}
	return out, nil
}

// WriteRange stores values. Writing a cell drops its formula and keeps its
// style.
func (s *Sheet) WriteRange(row, col int, values [][]sheet.Value) error {
	if err := checkRange(row, col, len(values), 0); err != nil {
		return err
	}
	s.wb.mu.Lock()
	defer s.wb.mu.Unlock()
	for i, vals := range values {
		for j, v := range vals {
			ref, err := excelize.CoordinatesToCellName(col+j, row+i)
			if err != nil {
				return err
			}
			if err := s.setCell(ref, v); err != nil {
				return fmt.Errorf("failed to write cell %s!%s: %w", s.name, ref, err)
			}
		}
	}
	return nil
}

// ClearRange blanks values and formulas. Without contentOnly the cells also
// go back to the default style.
func (s *Sheet) ClearRange(row, col, numRows, numCols int, contentOnly bool) error {
	if err := checkRange(row, col, numRows, numCols); err != nil {
		return err
	}
	if numRows == 0 || numCols == 0 {
		return nil
	}
	s.wb.mu.Lock()
	defer s.wb.mu.Unlock()
	for r := row; r < row+numRows; r++ {
		for c := col; c < col+numCols; c++ {
			ref, err := excelize.CoordinatesToCellName(c, r)
			if err != nil {
				return err
			}
			if err := s.setCell(ref, sheet.Empty()); err != nil {
				return fmt.Errorf("failed to clear cell %s!%s: %w", s.name, ref, err)
			}
		}
	}
	if contentOnly {
		return nil
	}
	first, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(col+numCols-1, row+numRows-1)
	if err != nil {
		return err
	}
	if err := s.wb.f.SetCellStyle(s.name, first, last, 0); err != nil {
		return fmt.Errorf("failed to reset style of %s!%s:%s: %w", s.name, first, last, err)
	}
	return nil
}

// Formulas returns the formulas of the block, "" for plain cells.
func (s *Sheet) Formulas(row, col, numRows, numCols int) ([][]string, error) {
	if err := checkRange(row, col, numRows, numCols); err != nil {
		return nil, err
	}
	s.wb.mu.Lock()
	defer s.wb.mu.Unlock()
	out := make([][]string, numRows)
	for i := range out {
		out[i] = make([]string, numCols)
		for j := range out[i] {
			ref, err := excelize.CoordinatesToCellName(col+j, row+i)
			if err != nil {
				return nil, err
			}
			if out[i][j], err = s.wb.f.GetCellFormula(s.name, ref); err != nil {
				return nil, fmt.Errorf("failed to read formula %s!%s: %w", s.name, ref, err)
			}
		}
	}
	return out, nil
}

// SetFormula stores a formula in a cell.
func (s *Sheet) SetFormula(row, col int, formula string) error {
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	s.wb.mu.Lock()
	defer s.wb.mu.Unlock()
	return s.wb.f.SetCellFormula(s.name, ref, formula)
}

// setCell writes one value. Callers hold the workbook lock.
func (s *Sheet) setCell(ref string, v sheet.Value) error {
	f := s.wb.f
	if err := f.SetCellFormula(s.name, ref, ""); err != nil {
		return err
	}
	switch v.Kind() {
	case sheet.KindString:
		str, _ := v.Str()
		return f.SetCellStr(s.name, ref, str)
	case sheet.KindNumber:
		n, _ := v.Num()
		return f.SetCellFloat(s.name, ref, n, -1, 64)
	case sheet.KindBool:
		b, _ := v.Boolean()
		return f.SetCellBool(s.name, ref, b)
	default:
		return f.SetCellValue(s.name, ref, nil)
	}
}

// decode types a raw cell value.
func decode(typ excelize.CellType, raw string) sheet.Value {
	switch typ {
	case excelize.CellTypeBool:
		return sheet.Bool(raw == "1" || raw == "TRUE" || raw == "true")
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula, excelize.CellTypeError:
		return sheet.String(raw)
	default:
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return sheet.Number(n)
		}
		return sheet.String(raw)
	}
}

func checkRange(row, col, numRows, numCols int) error {
	if row < 1 || col < 1 || numRows < 0 || numCols < 0 {
		return fmt.Errorf("range out of bounds: row=%d col=%d rows=%d cols=%d", row, col, numRows, numCols)
	}
	return nil
}
