package workbook

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/maruel/sheetdb/internal/sheet"
)

func openAll(t *testing.T) map[string]*Workbook {
	dir := t.TempDir()
	books := map[string]*Workbook{"memory": NewMemory()}
	for name, path := range map[string]string{
		"jsonl": filepath.Join(dir, "book"),
		"xlsx":  filepath.Join(dir, "book.xlsx"),
	} {
		wb, err := Open(path, Options{})
		if err != nil {
			t.Fatalf("Open(%s) failed: %v", path, err)
		}
		books[name] = wb
	}
	t.Cleanup(func() {
		for _, wb := range books {
			_ = wb.Close()
		}
	})
	return books
}

func TestWorkbook(t *testing.T) {
	for name, wb := range openAll(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := wb.At("todo", sheet.DefaultHeaderRow); !errors.Is(err, ErrSheetNotFound) {
				t.Fatalf("At(missing) error = %v", err)
			}
			if err := wb.InitHeader("todo", 1, []string{"id", "title", "completed"}); err != nil {
				t.Fatalf("InitHeader failed: %v", err)
			}
			if err := wb.InitHeader("todo", 1, []string{"other"}); !errors.Is(err, ErrHasHeader) {
				t.Errorf("InitHeader twice error = %v", err)
			}
			tbl, err := wb.At("todo", sheet.DefaultHeaderRow)
			if err != nil {
				t.Fatalf("At failed: %v", err)
			}
			if got := tbl.Columns().Names(); !slices.Equal(got, []string{"id", "title", "completed"}) {
				t.Errorf("Columns() = %v", got)
			}
			if err := tbl.Insert(sheet.Data{"id": sheet.Int(1), "title": sheet.String("milk")}); err != nil {
				t.Fatalf("Insert failed: %v", err)
			}
			if err := wb.Save(); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			again, err := wb.CreateOrFind("todo", sheet.DefaultHeaderRow)
			if err != nil {
				t.Fatal(err)
			}
			recs, err := again.FindAll()
			if err != nil {
				t.Fatal(err)
			}
			if len(recs) != 1 || recs[0].Row != 2 {
				t.Errorf("FindAll() = %v", recs)
			}

			names, err := wb.SheetNames()
			if err != nil {
				t.Fatal(err)
			}
			if !slices.Contains(names, "todo") {
				t.Errorf("SheetNames() = %v", names)
			}
		})
	}
}

func TestCreateOrFind_blank(t *testing.T) {
	wb := NewMemory()
	tbl, err := wb.CreateOrFind("empty", sheet.DefaultHeaderRow)
	if err != nil {
		t.Fatalf("CreateOrFind failed: %v", err)
	}
	if tbl.Columns().Len() != 0 || tbl.LastRow() != 0 {
		t.Errorf("blank sheet has %d columns, last row %d", tbl.Columns().Len(), tbl.LastRow())
	}
	if err := tbl.Insert(sheet.Data{"a": sheet.Int(1)}); !errors.Is(err, sheet.ErrNoColumns) {
		t.Errorf("Insert error = %v", err)
	}
}

func TestReopen(t *testing.T) {
	for _, name := range []string{"book", "book.xlsx"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			wb, err := Open(path, Options{Compress: true})
			if err != nil {
				t.Fatal(err)
			}
			if err := wb.InitHeader("todo", 1, []string{"id"}); err != nil {
				t.Fatal(err)
			}
			if err := wb.Save(); err != nil {
				t.Fatal(err)
			}
			_ = wb.Close()

			wb2, err := Open(path, Options{Compress: true})
			if err != nil {
				t.Fatal(err)
			}
			defer func() { _ = wb2.Close() }()
			tbl, err := wb2.At("todo", 1)
			if err != nil {
				t.Fatalf("At after reopen failed: %v", err)
			}
			if _, ok := tbl.Columns().Position("id"); !ok {
				t.Error("header lost after reopen")
			}
		})
	}
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	wb, err := Open(filepath.Join(dir, "book"), Options{Compress: true})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := wb.File("todo"), filepath.Join(dir, "book", "todo.jsonl.zst"); got != want {
		t.Errorf("File() = %q, want %q", got, want)
	}
	if got := NewMemory().File("todo"); got != "" {
		t.Errorf("memory File() = %q", got)
	}
}

func TestWatch(t *testing.T) {
	root := filepath.Join(t.TempDir(), "book")
	wb, err := Open(root, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if err := wb.InitHeader("todo", 1, []string{"id"}); err != nil {
		t.Fatal(err)
	}
	ctx := t.Context()
	done := make(chan error, 1)
	go func() { done <- wb.Watch(ctx) }()

	path := wb.File("todo")
	deadline := time.Now().Add(10 * time.Second)
	for {
		if err := os.WriteFile(path, []byte("[\"id\"]\n[7]\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		time.Sleep(100 * time.Millisecond)
		tbl, err := wb.At("todo", 1)
		if err != nil {
			t.Fatal(err)
		}
		if tbl.LastRow() == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("external change never reloaded")
		}
	}
}
