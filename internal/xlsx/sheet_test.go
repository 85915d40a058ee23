package xlsx

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/maruel/sheetdb/internal/sheet"
	"github.com/xuri/excelize/v2"
)

func setupWorkbook(t *testing.T) (*Workbook, string) {
	path := filepath.Join(t.TempDir(), "book.xlsx")
	wb, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		_ = wb.Close()
	})
	return wb, path
}

func TestWorkbook(t *testing.T) {
	t.Run("sheets", func(t *testing.T) {
		wb, _ := setupWorkbook(t)
		if _, err := wb.Sheet("todo"); !errors.Is(err, ErrSheetNotFound) {
			t.Errorf("Sheet(missing) error = %v", err)
		}
		if _, err := wb.CreateSheet("todo"); err != nil {
			t.Fatalf("CreateSheet failed: %v", err)
		}
		if _, err := wb.CreateSheet("todo"); err != nil {
			t.Fatalf("CreateSheet again failed: %v", err)
		}
		if _, err := wb.Sheet("todo"); err != nil {
			t.Errorf("Sheet failed: %v", err)
		}
		if names := wb.SheetNames(); !slices.Contains(names, "todo") {
			t.Errorf("SheetNames() = %v", names)
		}
	})

	t.Run("save and reopen", func(t *testing.T) {
		wb, path := setupWorkbook(t)
		s, err := wb.CreateSheet("todo")
		if err != nil {
			t.Fatal(err)
		}
		values := [][]sheet.Value{
			{sheet.String("id"), sheet.String("title"), sheet.String("done")},
			{sheet.Int(1), sheet.String("milk"), sheet.Bool(true)},
			{sheet.Number(2.5), sheet.String("42"), sheet.Bool(false)},
		}
		if err := s.WriteRange(1, 1, values); err != nil {
			t.Fatalf("WriteRange failed: %v", err)
		}
		if err := wb.Save(); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		wb2, err := Open(path)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		defer func() {
			_ = wb2.Close()
		}()
		s2, err := wb2.Sheet("todo")
		if err != nil {
			t.Fatal(err)
		}
		rows, cols, err := s2.Extent()
		if err != nil {
			t.Fatal(err)
		}
		if rows != 3 || cols != 3 {
			t.Errorf("Extent() = %d, %d; want 3, 3", rows, cols)
		}
		got, err := s2.ReadRange(1, 1, 4, 4)
		if err != nil {
			t.Fatal(err)
		}
		for i, vals := range values {
			for j, want := range vals {
				if !got[i][j].Equal(want) {
					t.Errorf("cell (%d,%d) = %v (%s), want %v (%s)", i+1, j+1, got[i][j], got[i][j].Kind(), want, want.Kind())
				}
			}
		}
		if !got[3][3].IsEmpty() {
			t.Errorf("padding = %v", got[3][3])
		}
	})

	t.Run("Reload discards unsaved changes", func(t *testing.T) {
		wb, _ := setupWorkbook(t)
		s, err := wb.CreateSheet("todo")
		if err != nil {
			t.Fatal(err)
		}
		if err := s.WriteRange(1, 1, [][]sheet.Value{{sheet.String("a")}}); err != nil {
			t.Fatal(err)
		}
		if err := wb.Save(); err != nil {
			t.Fatal(err)
		}
		if err := s.WriteRange(2, 1, [][]sheet.Value{{sheet.String("b")}}); err != nil {
			t.Fatal(err)
		}
		if err := wb.Reload(); err != nil {
			t.Fatalf("Reload failed: %v", err)
		}
		if rows, _, _ := s.Extent(); rows != 1 {
			t.Errorf("Extent() rows = %d, want 1", rows)
		}
	})
}

func TestSheet_ClearRange(t *testing.T) {
	for _, contentOnly := range []bool{true, false} {
		wb, _ := setupWorkbook(t)
		s, err := wb.CreateSheet("todo")
		if err != nil {
			t.Fatal(err)
		}
		if err := s.WriteRange(1, 1, [][]sheet.Value{{sheet.String("h")}, {sheet.Int(1)}, {sheet.Int(2)}}); err != nil {
			t.Fatal(err)
		}
		style, err := wb.f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			t.Fatal(err)
		}
		if err := wb.f.SetCellStyle("todo", "A2", "A2", style); err != nil {
			t.Fatal(err)
		}
		if err := s.ClearRange(2, 1, 2, 1, contentOnly); err != nil {
			t.Fatalf("ClearRange failed: %v", err)
		}
		if rows, cols, _ := s.Extent(); rows != 1 || cols != 1 {
			t.Errorf("contentOnly=%t: Extent() = %d, %d; want 1, 1", contentOnly, rows, cols)
		}
		got, err := wb.f.GetCellStyle("todo", "A2")
		if err != nil {
			t.Fatal(err)
		}
		if kept := got == style; kept != contentOnly {
			t.Errorf("contentOnly=%t: style kept = %t", contentOnly, kept)
		}
	}
}

func TestSheet_Formulas(t *testing.T) {
	wb, _ := setupWorkbook(t)
	s, err := wb.CreateSheet("todo")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetFormula(1, 2, "ARRAYFORMULA(A2:A*2)"); err != nil {
		t.Fatal(err)
	}
	got, err := s.Formulas(1, 1, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if got[0][0] != "" || !strings.Contains(got[0][1], "ARRAYFORMULA") {
		t.Errorf("Formulas() = %q", got)
	}
	if err := s.WriteRange(1, 2, [][]sheet.Value{{sheet.String("x")}}); err != nil {
		t.Fatal(err)
	}
	if got, _ = s.Formulas(1, 2, 1, 1); got[0][0] != "" {
		t.Errorf("formula kept after write: %q", got[0][0])
	}
}

func TestTableOverSheet(t *testing.T) {
	wb, _ := setupWorkbook(t)
	s, err := wb.CreateSheet("todo")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.WriteRange(1, 1, [][]sheet.Value{{sheet.String("id"), sheet.String("title"), sheet.String("completed")}}); err != nil {
		t.Fatal(err)
	}
	tbl, err := sheet.New(s, sheet.DefaultHeaderRow)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	err = tbl.Insert(
		sheet.Data{"id": sheet.Int(1), "title": sheet.String("milk"), "completed": sheet.Bool(false)},
		sheet.Data{"id": sheet.Int(2), "title": sheet.String("eggs"), "completed": sheet.Bool(false)},
	)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	ok, err := tbl.Update(sheet.Data{"completed": sheet.Bool(true)}, sheet.Conditions{"id": sheet.Int(2)})
	if err != nil || !ok {
		t.Fatalf("Update = %t, %v", ok, err)
	}
	if _, err := tbl.FindAll(); err != nil {
		t.Fatal(err)
	}
	done := tbl.Find(sheet.Conditions{"completed": sheet.Bool(true)})
	if len(done) != 1 || done[0].Row != 3 {
		t.Fatalf("Find() = %v", done)
	}
	if title, _ := done[0].Get("title"); !title.Equal(sheet.String("eggs")) {
		t.Errorf("title = %v", title)
	}
}

var _ sheet.FormulaGrid = (*Sheet)(nil)
