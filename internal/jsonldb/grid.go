// Package jsonldb stores sheet grids in JSONL files.
//
// # File Format
//
// One JSON array per grid row, in row order, with blank cells as null and
// trailing blanks trimmed. A blank row is written as []. Files whose name
// ends in ".zst" are zstd compressed.
//
// # Caching
//
// A [Grid] loads its file on open and serves reads from memory. Every write
// rewrites the whole file through a temporary file and a rename.
package jsonldb

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/maruel/sheetdb/internal/grid"
	"github.com/maruel/sheetdb/internal/sheet"
)

// maxLineSize bounds a single serialized row.
const maxLineSize = 16 << 20

// Grid is a sheet.Grid persisted to a JSONL file.
type Grid struct {
	path string
	mu   sync.Mutex

	mem *grid.Memory
}

// Open loads the grid at path. A missing file is an empty grid; the file is
// created on the first write.
func Open(path string) (*Grid, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec // G301: data directories are shared
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	g := &Grid{path: path, mem: grid.NewMemory()}
	if err := g.load(); err != nil {
		return nil, err
	}
	return g, nil
}

// Path returns the backing file.
func (g *Grid) Path() string { return g.path }

// Extent implements sheet.Grid.
func (g *Grid) Extent() (int, int, error) { return g.mem.Extent() }

// ReadRange implements sheet.Grid.
func (g *Grid) ReadRange(row, col, numRows, numCols int) ([][]sheet.Value, error) {
	return g.mem.ReadRange(row, col, numRows, numCols)
}

// WriteRange implements sheet.Grid and persists the grid.
func (g *Grid) WriteRange(row, col int, values [][]sheet.Value) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.mem.WriteRange(row, col, values); err != nil {
		return err
	}
	return g.save()
}

// ClearRange implements sheet.Grid and persists the grid. JSONL cells carry
// no formatting so contentOnly makes no difference.
func (g *Grid) ClearRange(row, col, numRows, numCols int, contentOnly bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.mem.ClearRange(row, col, numRows, numCols, contentOnly); err != nil {
		return err
	}
	return g.save()
}

// Reload discards the in-memory copy and reads the file again.
func (g *Grid) Reload() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.load()
}

func (g *Grid) compressed() bool {
	return strings.HasSuffix(g.path, ".zst")
}

func (g *Grid) load() error {
	f, err := os.Open(g.path)
	if err != nil {
		if os.IsNotExist(err) {
			g.mem.Replace(nil)
			return nil
		}
		return fmt.Errorf("failed to open grid file %s: %w", g.path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	var r io.Reader = f
	if g.compressed() {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return fmt.Errorf("failed to create zstd reader for %s: %w", g.path, err)
		}
		defer dec.Close()
		r = dec
	}

	var rows [][]sheet.Value
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var row []sheet.Value
		if err := json.Unmarshal(line, &row); err != nil {
			return fmt.Errorf("failed to unmarshal row %d in %s: %w", len(rows)+1, g.path, err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read grid file %s: %w", g.path, err)
	}
	g.mem.Replace(rows)
	return nil
}

// save rewrites the file. Callers hold g.mu.
func (g *Grid) save() error {
	tmp, err := os.CreateTemp(filepath.Dir(g.path), filepath.Base(g.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary grid file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if err := g.encode(tmp); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary grid file: %w", err)
	}
	if err := os.Rename(tmpName, g.path); err != nil {
		return fmt.Errorf("failed to replace grid file %s: %w", g.path, err)
	}
	return nil
}

func (g *Grid) encode(w io.Writer) (err error) {
	var enc *zstd.Encoder
	if g.compressed() {
		if enc, err = zstd.NewWriter(w); err != nil {
			return fmt.Errorf("failed to create zstd writer: %w", err)
		}
		w = enc
	}
	writer := bufio.NewWriter(w)
	for _, row := range g.mem.Snapshot() {
		data, err := json.Marshal(trimRow(row))
		if err != nil {
			return fmt.Errorf("failed to marshal row: %w", err)
		}
		if _, err := writer.Write(data); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("failed to write newline: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush writer: %w", err)
	}
	if enc != nil {
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to flush zstd writer: %w", err)
		}
	}
	return nil
}

func trimRow(row []sheet.Value) []sheet.Value {
	n := len(row)
	for n > 0 && row[n-1].IsEmpty() {
		n--
	}
	return row[:n]
}

// errInvalidName is returned for sheet names that cannot be file names.
var errInvalidName = errors.New("invalid sheet name")
