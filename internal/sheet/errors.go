package sheet

import (
	"errors"
	"fmt"
)

var (
	// ErrNoColumns is reported when the header row defines no column.
	ErrNoColumns = errors.New("header row has no columns")
	// ErrReservedColumn is reported when a header cell uses RowIndexKey.
	ErrReservedColumn = errors.New("column name is reserved")
	// ErrInvalidHeaderRow is returned for a header row index below 1.
	ErrInvalidHeaderRow = errors.New("header row index must be at least 1")
	// ErrFormulasUnsupported is returned by RefreshFormula when the grid
	// does not expose formulas.
	ErrFormulasUnsupported = errors.New("grid does not expose formulas")
)

// ConfigError describes a header row that cannot back a table.
type ConfigError struct {
	HeaderRow int
	// Column is the 1-based column at fault, 0 when not column specific.
	Column int
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Column > 0 {
		return fmt.Sprintf("header row %d, column %d: %v", e.HeaderRow, e.Column, e.Err)
	}
	return fmt.Sprintf("header row %d: %v", e.HeaderRow, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
