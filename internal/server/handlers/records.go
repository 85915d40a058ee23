package handlers

import (
	"context"
	"fmt"

	"github.com/maruel/ksid"
	apierrors "github.com/maruel/sheetdb/internal/errors"
	"github.com/maruel/sheetdb/internal/models"
	"github.com/maruel/sheetdb/internal/sheet"
)

// ListRecords returns every record of a sheet.
func (h *Handler) ListRecords(ctx context.Context, req models.ListRecordsRequest) (*models.RecordsResponse, error) {
	t, err := h.table(req.Sheet, req.HeaderRow)
	if err != nil {
		return nil, err
	}
	// The table loaded every record when it was built.
	return recordsResponse(t.Find(nil)), nil
}

// QueryRecords returns the records satisfying every condition.
func (h *Handler) QueryRecords(ctx context.Context, req models.QueryRecordsRequest) (*models.RecordsResponse, error) {
	t, err := h.table(req.Sheet, req.HeaderRow)
	if err != nil {
		return nil, err
	}
	return recordsResponse(t.Find(req.Where)), nil
}

// PickRecord returns the index-th record satisfying every condition.
func (h *Handler) PickRecord(ctx context.Context, req models.PickRecordRequest) (*models.RecordResponse, error) {
	if req.Index < 0 {
		return nil, apierrors.BadRequest("index must be non-negative")
	}
	t, err := h.table(req.Sheet, req.HeaderRow)
	if err != nil {
		return nil, err
	}
	r, ok := t.Pick(req.Where, req.Index)
	if !ok {
		return nil, apierrors.RecordNotFound().WithDetail("sheet", req.Sheet).WithDetail("index", req.Index)
	}
	return &models.RecordResponse{Record: r}, nil
}

// InsertRecords appends records after the last row, assigning IDs when an
// auto ID column is configured.
func (h *Handler) InsertRecords(ctx context.Context, req models.InsertRecordsRequest) (*models.InsertRecordsResponse, error) {
	if len(req.Records) == 0 {
		return nil, apierrors.MissingField("records")
	}
	resp := &models.InsertRecordsResponse{Inserted: len(req.Records)}
	err := h.mutate(ctx, req.Sheet, req.HeaderRow, func(t *sheet.Table) (string, error) {
		resp.IDs = h.assignIDs(t, req.Records)
		resp.FirstRow = t.LastRow() + 1
		if err := t.Insert(req.Records...); err != nil {
			return "", err
		}
		return fmt.Sprintf("insert %s into %s", plural(len(req.Records), "record"), req.Sheet), nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// assignIDs fills the auto ID column of records that leave it blank.
func (h *Handler) assignIDs(t *sheet.Table, records []sheet.Data) []string {
	col := h.opts.AutoIDColumn
	if col == "" {
		return nil
	}
	if _, ok := t.Columns().Position(col); !ok {
		return nil
	}
	ids := make([]string, len(records))
	for i, d := range records {
		if v, ok := d[col]; ok && !v.IsEmpty() {
			ids[i] = v.Text()
			continue
		}
		if d == nil {
			d = sheet.Data{}
			records[i] = d
		}
		id := ksid.NewID().String()
		d[col] = sheet.String(id)
		ids[i] = id
	}
	return ids
}

// UpdateRecords writes Set over every record matching Where.
func (h *Handler) UpdateRecords(ctx context.Context, req models.UpdateRecordsRequest) (*models.UpdateRecordsResponse, error) {
	if len(req.Where) == 0 {
		return nil, apierrors.MissingField("where")
	}
	resp := &models.UpdateRecordsResponse{}
	err := h.mutate(ctx, req.Sheet, req.HeaderRow, func(t *sheet.Table) (string, error) {
		ok, err := t.Update(req.Set, req.Where)
		resp.Updated = ok
		return fmt.Sprintf("update %s", req.Sheet), err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// UpsertRecord updates the records matching Where or inserts Set.
func (h *Handler) UpsertRecord(ctx context.Context, req models.UpsertRecordRequest) (*models.UpsertRecordResponse, error) {
	if len(req.Where) == 0 {
		return nil, apierrors.MissingField("where")
	}
	resp := &models.UpsertRecordResponse{}
	err := h.mutate(ctx, req.Sheet, req.HeaderRow, func(t *sheet.Table) (string, error) {
		updated, err := t.Upsert(req.Set, req.Where)
		if err != nil {
			return "", err
		}
		resp.Updated = updated
		resp.Inserted = !updated
		if updated {
			return fmt.Sprintf("upsert %s: update", req.Sheet), nil
		}
		return fmt.Sprintf("upsert %s: insert", req.Sheet), nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ClearRecords blanks every data row, keeping the header and formatting.
func (h *Handler) ClearRecords(ctx context.Context, req models.ClearRecordsRequest) (*models.OKResponse, error) {
	err := h.mutate(ctx, req.Sheet, req.HeaderRow, func(t *sheet.Table) (string, error) {
		return fmt.Sprintf("clear %s", req.Sheet), t.Clear()
	})
	if err != nil {
		return nil, err
	}
	return &models.OKResponse{OK: true}, nil
}

// RefreshFormula clears the cells under array formulas in the header row.
func (h *Handler) RefreshFormula(ctx context.Context, req models.RefreshFormulaRequest) (*models.OKResponse, error) {
	err := h.mutate(ctx, req.Sheet, req.HeaderRow, func(t *sheet.Table) (string, error) {
		return fmt.Sprintf("refresh formulas of %s", req.Sheet), t.RefreshFormula()
	})
	if err != nil {
		return nil, err
	}
	return &models.OKResponse{OK: true}, nil
}

func recordsResponse(recs []sheet.Record) *models.RecordsResponse {
	if recs == nil {
		recs = []sheet.Record{}
	}
	return &models.RecordsResponse{Records: recs}
}
