package handlers

import (
	"context"
	"fmt"

	apierrors "github.com/maruel/sheetdb/internal/errors"
	"github.com/maruel/sheetdb/internal/models"
	"github.com/maruel/sheetdb/internal/sheet"
)

// ListSheets lists the sheets of the workbook.
func (h *Handler) ListSheets(ctx context.Context, req models.ListSheetsRequest) (*models.ListSheetsResponse, error) {
	names, err := h.wb.SheetNames()
	if err != nil {
		return nil, apierrors.InternalWithError("failed to list sheets", err)
	}
	if names == nil {
		names = []string{}
	}
	return &models.ListSheetsResponse{Sheets: names}, nil
}

// CreateSheet creates a sheet unless it exists, then writes the header when
// columns are given and the header row is blank.
func (h *Handler) CreateSheet(ctx context.Context, req models.CreateSheetRequest) (*models.SheetResponse, error) {
	if req.Name == "" {
		return nil, apierrors.MissingField("name")
	}
	headerRow := h.headerRow(req.HeaderRow)
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(req.Columns) > 0 {
		if err := h.wb.InitHeader(req.Name, headerRow, req.Columns); err != nil {
			return nil, toAPIError(req.Name, err)
		}
	}
	t, err := h.wb.CreateOrFind(req.Name, headerRow)
	if err != nil {
		return nil, toAPIError(req.Name, err)
	}
	if err := h.persist(ctx, req.Name, fmt.Sprintf("create %s", req.Name)); err != nil {
		return nil, err
	}
	return sheetResponse(req.Name, t), nil
}

// GetSheet describes a sheet.
func (h *Handler) GetSheet(ctx context.Context, req models.SheetRequest) (*models.SheetResponse, error) {
	t, err := h.table(req.Sheet, req.HeaderRow)
	if err != nil {
		return nil, err
	}
	return sheetResponse(req.Sheet, t), nil
}

func sheetResponse(name string, t *sheet.Table) *models.SheetResponse {
	cols := t.Columns().Names()
	if cols == nil {
		cols = []string{}
	}
	return &models.SheetResponse{
		Name:      name,
		HeaderRow: t.HeaderRowIndex(),
		Columns:   cols,
		LastRow:   t.LastRow(),
		LastCol:   t.LastColumn(),
	}
}
