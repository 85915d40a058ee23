// Package handlers implements the HTTP API over a workbook.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/maruel/sheetdb/internal/server/reqctx"
	"github.com/maruel/sheetdb/internal/sheet"
	"github.com/maruel/sheetdb/internal/storage/git"
	"github.com/maruel/sheetdb/internal/workbook"
)

// Options configures a Handler.
type Options struct {
	// HeaderRow is used when a request does not name one.
	HeaderRow int
	// AutoIDColumn is filled on insert when blank. Empty disables it.
	AutoIDColumn string
	// History records each change when set.
	History *git.Repo
	// Version is reported by the health check.
	Version string
}

// Handler serves the API. Every request builds a fresh table over the sheet
// so external edits are always visible.
type Handler struct {
	wb   *workbook.Workbook
	opts Options

	// mu serializes mutations; a table computes the append row from its own
	// read of the sheet.
	mu sync.Mutex
}

// New returns a handler over wb.
func New(wb *workbook.Workbook, opts Options) *Handler {
	if opts.HeaderRow < 1 {
		opts.HeaderRow = sheet.DefaultHeaderRow
	}
	return &Handler{wb: wb, opts: opts}
}

func (h *Handler) headerRow(n int) int {
	if n == 0 {
		return h.opts.HeaderRow
	}
	return n
}

// table opens the named sheet.
func (h *Handler) table(name string, headerRow int) (*sheet.Table, error) {
	if name == "" {
		return nil, missingSheet()
	}
	t, err := h.wb.At(name, h.headerRow(headerRow))
	if err != nil {
		return nil, toAPIError(name, err)
	}
	return t, nil
}

// mutate runs fn on the named sheet under the write lock, then saves the
// workbook and records the change. fn returns the commit message.
func (h *Handler) mutate(ctx context.Context, name string, headerRow int, fn func(*sheet.Table) (string, error)) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, err := h.table(name, headerRow)
	if err != nil {
		return err
	}
	msg, err := fn(t)
	if err != nil {
		return toAPIError(name, err)
	}
	return h.persist(ctx, name, msg)
}

// persist saves the workbook and commits the sheet's file. Callers hold mu.
func (h *Handler) persist(ctx context.Context, name, msg string) error {
	if err := h.wb.Save(); err != nil {
		return toAPIError(name, err)
	}
	if h.opts.History == nil {
		return nil
	}
	file := h.wb.File(name)
	if file == "" {
		return nil
	}
	author := git.Author{Name: reqctx.Subject(ctx)}
	committed, err := h.opts.History.Commit(ctx, author, msg, file)
	if err != nil {
		// The change is on disk already.
		slog.ErrorContext(ctx, "Failed to record history", "sheet", name, "err", err)
		return nil
	}
	if committed {
		slog.DebugContext(ctx, "Recorded change", "sheet", name, "msg", msg)
	}
	return nil
}

func plural(n int, what string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", what)
	}
	return fmt.Sprintf("%d %ss", n, what)
}
