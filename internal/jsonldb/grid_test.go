package jsonldb

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/maruel/sheetdb/internal/sheet"
)

// setupGrid opens a grid in the test's temp directory.
func setupGrid(t *testing.T, name string) (*Grid, string) {
	path := filepath.Join(t.TempDir(), name)
	g, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return g, path
}

func TestGrid(t *testing.T) {
	t.Run("missing file is empty", func(t *testing.T) {
		g, path := setupGrid(t, "todo.jsonl")
		rows, cols, err := g.Extent()
		if err != nil {
			t.Fatal(err)
		}
		if rows != 0 || cols != 0 {
			t.Errorf("Extent() = %d, %d; want 0, 0", rows, cols)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("file created before first write: %v", err)
		}
	})

	t.Run("file format", func(t *testing.T) {
		g, path := setupGrid(t, "todo.jsonl")
		values := [][]sheet.Value{
			{sheet.String("id"), sheet.String("title"), sheet.String("done")},
			{sheet.Int(1), sheet.String("milk"), sheet.Empty()},
		}
		if err := g.WriteRange(1, 1, values); err != nil {
			t.Fatalf("WriteRange failed: %v", err)
		}
		if err := g.WriteRange(4, 3, [][]sheet.Value{{sheet.Bool(true)}}); err != nil {
			t.Fatalf("WriteRange failed: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		want := `["id","title","done"]
[1,"milk"]
[]
[null,null,true]
`
		if got := string(data); got != want {
			t.Errorf("file =\n%s\nwant\n%s", got, want)
		}
	})

	t.Run("reopen", func(t *testing.T) {
		for _, name := range []string{"todo.jsonl", "todo.jsonl.zst"} {
			t.Run(name, func(t *testing.T) {
				g, path := setupGrid(t, name)
				if err := g.WriteRange(1, 1, [][]sheet.Value{{sheet.String("a"), sheet.Number(2.5)}, {sheet.Bool(false)}}); err != nil {
					t.Fatalf("WriteRange failed: %v", err)
				}
				g2, err := Open(path)
				if err != nil {
					t.Fatalf("Open failed: %v", err)
				}
				got, err := g2.ReadRange(1, 1, 2, 2)
				if err != nil {
					t.Fatal(err)
				}
				if !got[0][0].Equal(sheet.String("a")) || !got[0][1].Equal(sheet.Number(2.5)) || !got[1][0].Equal(sheet.Bool(false)) || !got[1][1].IsEmpty() {
					t.Errorf("ReadRange() = %v", got)
				}
			})
		}
	})

	t.Run("compressed on disk", func(t *testing.T) {
		g, path := setupGrid(t, "todo.jsonl.zst")
		if err := g.WriteRange(1, 1, [][]sheet.Value{{sheet.String("hello")}}); err != nil {
			t.Fatal(err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if strings.Contains(string(data), "hello") {
			t.Error("file is not compressed")
		}
	})

	t.Run("ClearRange persists", func(t *testing.T) {
		g, path := setupGrid(t, "todo.jsonl")
		if err := g.WriteRange(1, 1, [][]sheet.Value{{sheet.String("h")}, {sheet.Int(1)}, {sheet.Int(2)}}); err != nil {
			t.Fatal(err)
		}
		if err := g.ClearRange(2, 1, 2, 1, true); err != nil {
			t.Fatal(err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if got := string(data); got != "[\"h\"]\n" {
			t.Errorf("file = %q", got)
		}
	})

	t.Run("Reload", func(t *testing.T) {
		g, path := setupGrid(t, "todo.jsonl")
		if err := os.WriteFile(path, []byte("[\"x\",1]\n\n[true]\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if err := g.Reload(); err != nil {
			t.Fatalf("Reload failed: %v", err)
		}
		rows, cols, _ := g.Extent()
		if rows != 2 || cols != 2 {
			t.Errorf("Extent() = %d, %d; want 2, 2", rows, cols)
		}
	})

	t.Run("corrupt line", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.jsonl")
		if err := os.WriteFile(path, []byte("[1]\n{\"a\":1}\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := Open(path); err == nil {
			t.Error("Open succeeded on corrupt file")
		}
	})
}

func TestDir(t *testing.T) {
	t.Run("CreateSheet and Sheet", func(t *testing.T) {
		d, err := OpenDir(filepath.Join(t.TempDir(), "book"), false)
		if err != nil {
			t.Fatalf("OpenDir failed: %v", err)
		}
		if _, err := d.Sheet("todo"); !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("Sheet(missing) error = %v", err)
		}
		g, err := d.CreateSheet("todo")
		if err != nil {
			t.Fatalf("CreateSheet failed: %v", err)
		}
		if _, err := os.Stat(filepath.Join(d.Root(), "todo.jsonl")); err != nil {
			t.Errorf("sheet file missing: %v", err)
		}
		g2, err := d.Sheet("todo")
		if err != nil {
			t.Fatal(err)
		}
		if g != g2 {
			t.Error("Sheet returned a different grid")
		}
	})

	t.Run("SheetNames", func(t *testing.T) {
		root := t.TempDir()
		for _, n := range []string{"b.jsonl", "a.jsonl.zst", "notes.txt"} {
			if err := os.WriteFile(filepath.Join(root, n), nil, 0o600); err != nil {
				t.Fatal(err)
			}
		}
		d, err := OpenDir(root, true)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := d.CreateSheet("c"); err != nil {
			t.Fatal(err)
		}
		names, err := d.SheetNames()
		if err != nil {
			t.Fatal(err)
		}
		if want := []string{"a", "b", "c"}; !slices.Equal(names, want) {
			t.Errorf("SheetNames() = %v, want %v", names, want)
		}
		if _, err := os.Stat(filepath.Join(root, "c.jsonl.zst")); err != nil {
			t.Errorf("compressed sheet missing: %v", err)
		}
	})

	t.Run("invalid names", func(t *testing.T) {
		d, err := OpenDir(t.TempDir(), false)
		if err != nil {
			t.Fatal(err)
		}
		for _, name := range []string{"", "..", "a/b"} {
			if _, err := d.CreateSheet(name); !errors.Is(err, errInvalidName) {
				t.Errorf("CreateSheet(%q) error = %v", name, err)
			}
		}
	})
}
