// Package workbook opens a set of named sheets and hands out record tables
// over them.
//
// A workbook is either an .xlsx file or a directory of JSONL files, one per
// sheet. Tables are built fresh on every call to At or CreateOrFind and read
// the sheet as it is at that moment.
package workbook

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/maruel/sheetdb/internal/grid"
	"github.com/maruel/sheetdb/internal/jsonldb"
	"github.com/maruel/sheetdb/internal/sheet"
	"github.com/maruel/sheetdb/internal/xlsx"
)

var (
	// ErrSheetNotFound is returned when the workbook has no sheet by that name.
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrHasHeader is returned by InitHeader when the header row is not blank.
	ErrHasHeader = errors.New("header row already set")
)

// Options configures Open.
type Options struct {
	// Compress stores new JSONL sheets zstd compressed.
	Compress bool
}

// Workbook is a collection of named sheets.
type Workbook struct {
	path string
	b    backend

	// mu serializes whole-workbook operations against each other.
	mu       sync.Mutex
	lastSave time.Time
}

// Open opens the workbook at path. A path ending in ".xlsx" is an Excel file;
// anything else is a directory of JSONL sheets. Both are created on demand.
func Open(path string, opts Options) (*Workbook, error) {
	if path == "" {
		return nil, errors.New("workbook path is required")
	}
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		wb, err := xlsx.Open(path)
		if err != nil {
			return nil, err
		}
		return &Workbook{path: path, b: &xlsxBackend{wb: wb}}, nil
	}
	dir, err := jsonldb.OpenDir(path, opts.Compress)
	if err != nil {
		return nil, err
	}
	return &Workbook{path: path, b: &jsonlBackend{dir: dir}}, nil
}

// NewMemory returns a workbook that lives only in memory.
func NewMemory() *Workbook {
	return &Workbook{b: &memoryBackend{sheets: map[string]*grid.Memory{}}}
}

// Path returns where the workbook is stored, "" for an in-memory one.
func (w *Workbook) Path() string { return w.path }

// At returns a table over the named sheet.
func (w *Workbook) At(name string, headerRow int) (*sheet.Table, error) {
	g, err := w.b.grid(name, false)
	if err != nil {
		return nil, err
	}
	return sheet.New(g, headerRow)
}

// CreateOrFind returns a table over the named sheet, adding a blank sheet
// when missing.
func (w *Workbook) CreateOrFind(name string, headerRow int) (*sheet.Table, error) {
	g, err := w.b.grid(name, true)
	if err != nil {
		return nil, err
	}
	return sheet.New(g, headerRow)
}

// InitHeader writes column names into the header row of a sheet, creating
// the sheet when missing. It fails with ErrHasHeader when the row already
// holds a value.
func (w *Workbook) InitHeader(name string, headerRow int, columns []string) error {
	if headerRow < 1 {
		return fmt.Errorf("%w: %d", sheet.ErrInvalidHeaderRow, headerRow)
	}
	if len(columns) == 0 {
		return nil
	}
	g, err := w.b.grid(name, true)
	if err != nil {
		return err
	}
	_, lastCol, err := g.Extent()
	if err != nil {
		return err
	}
	if lastCol > 0 {
		cur, err := g.ReadRange(headerRow, 1, 1, lastCol)
		if err != nil {
			return err
		}
		for _, v := range cur[0] {
			if !v.IsEmpty() {
				return fmt.Errorf("sheet %q: %w", name, ErrHasHeader)
			}
		}
	}
	row := make([]sheet.Value, len(columns))
	for i, c := range columns {
		row[i] = sheet.String(c)
	}
	return g.WriteRange(headerRow, 1, [][]sheet.Value{row})
}

// SheetNames lists the sheets.
func (w *Workbook) SheetNames() ([]string, error) {
	return w.b.sheetNames()
}

// File returns the file holding the named sheet, "" for an in-memory
// workbook.
func (w *Workbook) File(name string) string {
	return w.b.file(name)
}

// Save flushes pending changes to disk.
func (w *Workbook) Save() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.b.save(); err != nil {
		return err
	}
	w.lastSave = time.Now()
	return nil
}

// Reload rereads the workbook from disk, dropping unsaved changes.
func (w *Workbook) Reload() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.b.reload(); err != nil {
		return err
	}
	slog.Debug("Workbook reloaded", "path", w.path)
	return nil
}

// Close releases the workbook without saving.
func (w *Workbook) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.b.close()
}

func (w *Workbook) savedSince(d time.Duration) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.lastSave.IsZero() && time.Since(w.lastSave) < d
}
