package jsonldb

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

const (
	ext           = ".jsonl"
	compressedExt = ".jsonl.zst"
)

// Dir is a workbook stored as a directory with one JSONL file per sheet.
type Dir struct {
	root     string
	compress bool

	mu     sync.Mutex
	sheets map[string]*Grid
}

// OpenDir opens the directory root, creating it when missing. New sheets are
// zstd compressed when compress is set.
func OpenDir(root string, compress bool) (*Dir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil { //nolint:gosec // G301: data directories are shared
		return nil, fmt.Errorf("failed to create workbook directory %s: %w", root, err)
	}
	return &Dir{root: root, compress: compress, sheets: map[string]*Grid{}}, nil
}

// Root returns the directory holding the sheets.
func (d *Dir) Root() string { return d.root }

// Sheet returns the named sheet. It returns an error wrapping fs.ErrNotExist
// when no file exists for it.
func (d *Dir) Sheet(name string) (*Grid, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if g, ok := d.sheets[name]; ok {
		return g, nil
	}
	path := d.existing(name)
	if path == "" {
		return nil, fmt.Errorf("sheet %q: %w", name, fs.ErrNotExist)
	}
	g, err := Open(path)
	if err != nil {
		return nil, err
	}
	d.sheets[name] = g
	return g, nil
}

// CreateSheet returns the named sheet, writing an empty file for it when
// missing.
func (d *Dir) CreateSheet(name string) (*Grid, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if g, ok := d.sheets[name]; ok {
		return g, nil
	}
	path := d.existing(name)
	if path == "" {
		path = d.SheetPath(name)
	}
	g, err := Open(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := g.save(); err != nil {
			return nil, err
		}
	}
	d.sheets[name] = g
	return g, nil
}

// SheetNames lists the sheets found in the directory, sorted.
func (d *Dir) SheetNames() ([]string, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("failed to list workbook directory %s: %w", d.root, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n := e.Name()
		switch {
		case strings.HasSuffix(n, compressedExt):
			names = append(names, strings.TrimSuffix(n, compressedExt))
		case strings.HasSuffix(n, ext):
			names = append(names, strings.TrimSuffix(n, ext))
		}
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}

// SheetPath returns the file a new sheet called name is written to.
func (d *Dir) SheetPath(name string) string {
	if d.compress {
		return filepath.Join(d.root, name+compressedExt)
	}
	return filepath.Join(d.root, name+ext)
}

// Reload rereads every sheet opened so far.
func (d *Dir) Reload() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for name, g := range d.sheets {
		if _, err := os.Stat(g.Path()); os.IsNotExist(err) {
			delete(d.sheets, name)
			continue
		}
		if err := g.Reload(); err != nil {
			return err
		}
	}
	return nil
}

// existing returns the file already holding the sheet, preferring the
// uncompressed one. Callers hold d.mu.
func (d *Dir) existing(name string) string {
	for _, e := range []string{ext, compressedExt} {
		p := filepath.Join(d.root, name+e)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`+"\x00") {
		return fmt.Errorf("%w: %q", errInvalidName, name)
	}
	return nil
}
