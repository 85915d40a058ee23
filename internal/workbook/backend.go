package workbook

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/maruel/sheetdb/internal/grid"
	"github.com/maruel/sheetdb/internal/jsonldb"
	"github.com/maruel/sheetdb/internal/sheet"
	"github.com/maruel/sheetdb/internal/xlsx"
)

// backend stores the sheets of a workbook.
type backend interface {
	// grid returns the named sheet, creating it when create is set. A missing
	// sheet is reported as ErrSheetNotFound.
	grid(name string, create bool) (sheet.Grid, error)
	sheetNames() ([]string, error)
	// file returns the path holding the sheet, "" when not file backed.
	file(name string) string
	// watch returns the directory to watch and which of its files belong to
	// the workbook. dir is "" when there is nothing on disk.
	watch() (dir string, match func(name string) bool)
	save() error
	reload() error
	close() error
}

type xlsxBackend struct {
	wb *xlsx.Workbook
}

func (b *xlsxBackend) grid(name string, create bool) (sheet.Grid, error) {
	get := b.wb.Sheet
	if create {
		get = b.wb.CreateSheet
	}
	s, err := get(name)
	if errors.Is(err, xlsx.ErrSheetNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (b *xlsxBackend) sheetNames() ([]string, error) { return b.wb.SheetNames(), nil }
func (b *xlsxBackend) file(string) string            { return b.wb.Path() }
func (b *xlsxBackend) save() error                   { return b.wb.Save() }
func (b *xlsxBackend) reload() error                 { return b.wb.Reload() }
func (b *xlsxBackend) close() error                  { return b.wb.Close() }

func (b *xlsxBackend) watch() (string, func(string) bool) {
	p := filepath.Clean(b.wb.Path())
	return filepath.Dir(p), func(name string) bool { return filepath.Clean(name) == p }
}

// jsonlBackend writes through on every change so save is a no-op.
type jsonlBackend struct {
	dir *jsonldb.Dir
}

func (b *jsonlBackend) grid(name string, create bool) (sheet.Grid, error) {
	get := b.dir.Sheet
	if create {
		get = b.dir.CreateSheet
	}
	g, err := get(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (b *jsonlBackend) sheetNames() ([]string, error) { return b.dir.SheetNames() }

func (b *jsonlBackend) file(name string) string {
	g, err := b.dir.Sheet(name)
	if err != nil {
		return b.dir.SheetPath(name)
	}
	return g.Path()
}

func (b *jsonlBackend) save() error   { return nil }
func (b *jsonlBackend) reload() error { return b.dir.Reload() }
func (b *jsonlBackend) close() error  { return nil }

func (b *jsonlBackend) watch() (string, func(string) bool) {
	return b.dir.Root(), func(name string) bool {
		return strings.HasSuffix(name, ".jsonl") || strings.HasSuffix(name, ".jsonl.zst")
	}
}

type memoryBackend struct {
	mu     sync.Mutex
	sheets map[string]*grid.Memory
}

func (b *memoryBackend) grid(name string, create bool) (sheet.Grid, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if g, ok := b.sheets[name]; ok {
		return g, nil
	}
	if !create {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}
	g := grid.NewMemory()
	b.sheets[name] = g
	return g, nil
}

func (b *memoryBackend) sheetNames() ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.sheets))
	for n := range b.sheets {
		names = append(names, n)
	}
	slices.Sort(names)
	return names, nil
}

func (b *memoryBackend) file(string) string                 { return "" }
func (b *memoryBackend) watch() (string, func(string) bool) { return "", nil }
func (b *memoryBackend) save() error                        { return nil }
func (b *memoryBackend) reload() error                      { return nil }
func (b *memoryBackend) close() error                       { return nil }
