package grid

import (
	"errors"
	"testing"

	"github.com/maruel/sheetdb/internal/sheet"
)

func TestMemory(t *testing.T) {
	t.Run("Extent", func(t *testing.T) {
		tests := []struct {
			name       string
			values     [][]sheet.Value
			rows, cols int
		}{
			{"empty", nil, 0, 0},
			{"single", [][]sheet.Value{{sheet.Int(1)}}, 1, 1},
			{"ragged", [][]sheet.Value{{sheet.Int(1)}, {sheet.Empty(), sheet.Empty(), sheet.Int(3)}}, 2, 3},
			{"trailing blanks", [][]sheet.Value{{sheet.Int(1), sheet.Empty()}, {sheet.Empty()}}, 1, 1},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rows, cols, err := NewMemory(tt.values...).Extent()
				if err != nil {
					t.Fatal(err)
				}
				if rows != tt.rows || cols != tt.cols {
					t.Errorf("Extent() = %d, %d; want %d, %d", rows, cols, tt.rows, tt.cols)
				}
			})
		}
	})

	t.Run("ReadRange pads", func(t *testing.T) {
		m := NewMemory([]sheet.Value{sheet.String("a")})
		got, err := m.ReadRange(1, 1, 3, 2)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 3 || len(got[2]) != 2 {
			t.Fatalf("ReadRange() shape = %d rows", len(got))
		}
		if !got[0][0].Equal(sheet.String("a")) || !got[2][1].IsEmpty() {
			t.Errorf("ReadRange() = %v", got)
		}
	})

	t.Run("WriteRange grows", func(t *testing.T) {
		m := NewMemory()
		if err := m.WriteRange(3, 2, [][]sheet.Value{{sheet.Int(1), sheet.Int(2)}}); err != nil {
			t.Fatal(err)
		}
		rows, cols, _ := m.Extent()
		if rows != 3 || cols != 3 {
			t.Errorf("Extent() = %d, %d; want 3, 3", rows, cols)
		}
		snap := m.Snapshot()
		if !snap[2][2].Equal(sheet.Int(2)) {
			t.Errorf("Snapshot() = %v", snap)
		}
	})

	t.Run("WriteRange drops formula", func(t *testing.T) {
		m := NewMemory()
		if err := m.SetFormula(1, 1, "=1+1"); err != nil {
			t.Fatal(err)
		}
		if err := m.WriteRange(1, 1, [][]sheet.Value{{sheet.Int(5)}}); err != nil {
			t.Fatal(err)
		}
		f, _ := m.Formulas(1, 1, 1, 1)
		if f[0][0] != "" {
			t.Errorf("formula kept: %q", f[0][0])
		}
	})

	t.Run("ClearRange", func(t *testing.T) {
		for _, contentOnly := range []bool{true, false} {
			m := NewMemory([]sheet.Value{sheet.Int(1), sheet.Int(2)})
			_ = m.SetStyle(1, 2, "bold")
			_ = m.SetFormula(1, 2, "=A1*2")
			if err := m.ClearRange(1, 2, 5, 5, contentOnly); err != nil {
				t.Fatal(err)
			}
			rows, cols, _ := m.Extent()
			if rows != 1 || cols != 1 {
				t.Errorf("contentOnly=%t: Extent() = %d, %d", contentOnly, rows, cols)
			}
			if got := m.Style(1, 2) == "bold"; got != contentOnly {
				t.Errorf("contentOnly=%t: style kept = %t", contentOnly, got)
			}
		}
	})

	t.Run("out of range", func(t *testing.T) {
		m := NewMemory()
		if _, err := m.ReadRange(0, 1, 1, 1); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("ReadRange(0) error = %v", err)
		}
		if err := m.WriteRange(1, 0, nil); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("WriteRange(col 0) error = %v", err)
		}
		if err := m.ClearRange(1, 1, -1, 1, true); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("ClearRange(-1 rows) error = %v", err)
		}
	})

	t.Run("Replace", func(t *testing.T) {
		m := NewMemory([]sheet.Value{sheet.Int(1), sheet.Int(2)}, []sheet.Value{sheet.Int(3)})
		m.Replace([][]sheet.Value{{sheet.String("x")}})
		if rows, cols, _ := m.Extent(); rows != 1 || cols != 1 {
			t.Errorf("Extent() = %d, %d; want 1, 1", rows, cols)
		}
	})
}

var _ sheet.FormulaGrid = (*Memory)(nil)
