package sheet

// Grid is a rectangular store of scalar cells addressed by 1-based row and
// column. It is owned by the caller; a Table keeps a reference and never
// copies its storage.
type Grid interface {
	// Extent returns the last used row and column. Blank cells do not count.
	Extent() (rows, cols int, err error)
	// ReadRange returns exactly numRows×numCols values; cells past the used
	// area are blank.
	ReadRange(row, col, numRows, numCols int) ([][]Value, error)
	// WriteRange writes values with its top-left corner at row, col.
	WriteRange(row, col int, values [][]Value) error
	// ClearRange blanks the block. With contentOnly, cell formatting is
	// preserved where the host distinguishes it from content.
	ClearRange(row, col, numRows, numCols int, contentOnly bool) error
}

// FormulaGrid is a Grid that exposes cell formulas.
type FormulaGrid interface {
	Grid
	// Formulas returns numRows×numCols formulas, "" where a cell has none.
	Formulas(row, col, numRows, numCols int) ([][]string, error)
}
