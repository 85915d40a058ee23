// Package xlsx exposes the sheets of an Excel workbook as sheet grids.
package xlsx

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"
)

// ErrSheetNotFound is returned for a sheet the workbook does not have.
var ErrSheetNotFound = errors.New("sheet not found")

// Workbook is an .xlsx file held open in memory. Changes reach the disk on
// Save.
type Workbook struct {
	path string

	mu sync.Mutex
	f  *excelize.File
}

// Open loads the workbook at path, or starts an empty one when the file does
// not exist yet.
func Open(path string) (*Workbook, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	return &Workbook{path: path, f: f}, nil
}

func openFile(path string) (*excelize.File, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return excelize.NewFile(), nil
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	return f, nil
}

// Path returns the file the workbook is saved to.
func (w *Workbook) Path() string { return w.path }

// Sheet returns the named sheet.
func (w *Workbook) Sheet(name string) (*Sheet, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	idx, err := w.f.GetSheetIndex(name)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", name, err)
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}
	return &Sheet{wb: w, name: name}, nil
}

// CreateSheet returns the named sheet, adding it when missing.
func (w *Workbook) CreateSheet(name string) (*Sheet, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	idx, err := w.f.GetSheetIndex(name)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", name, err)
	}
	if idx < 0 {
		if _, err := w.f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("failed to create sheet %q: %w", name, err)
		}
	}
	return &Sheet{wb: w, name: name}, nil
}

// SheetNames lists the sheets in workbook order.
func (w *Workbook) SheetNames() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.GetSheetList()
}

// Save writes the workbook to its path.
func (w *Workbook) Save() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.f.SaveAs(w.path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", w.path, err)
	}
	return nil
}

// Reload discards unsaved changes and reads the file again. Sheets handed
// out before keep working against the reloaded content.
func (w *Workbook) Reload() error {
	f, err := openFile(w.path)
	if err != nil {
		return err
	}
	w.mu.Lock()
	old := w.f
	w.f = f
	w.mu.Unlock()
	return old.Close()
}

// Close releases the workbook without saving.
func (w *Workbook) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}
