// Package models defines the request and response types of the HTTP API.
package models

import (
	"github.com/maruel/sheetdb/internal/sheet"
	"github.com/maruel/sheetdb/internal/storage/git"
)

// --- Health ---

// HealthRequest is the request type for health check (empty).
type HealthRequest struct{}

// HealthResponse is the response for health check.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// --- Sheets ---

// ListSheetsRequest is a request to list the sheets of the workbook.
type ListSheetsRequest struct{}

// ListSheetsResponse lists sheet names.
type ListSheetsResponse struct {
	Sheets []string `json:"sheets"`
}

// CreateSheetRequest creates a sheet unless it exists. Columns, when given,
// are written to the header row of a sheet that has none.
type CreateSheetRequest struct {
	Name      string   `json:"name"`
	HeaderRow int      `json:"header_row,omitempty"`
	Columns   []string `json:"columns,omitempty"`
}

// SheetResponse describes a sheet.
type SheetResponse struct {
	Name      string   `json:"name"`
	HeaderRow int      `json:"header_row"`
	Columns   []string `json:"columns"`
	LastRow   int      `json:"last_row"`
	LastCol   int      `json:"last_column"`
}

// SheetRequest addresses a sheet. HeaderRow 0 uses the server default.
type SheetRequest struct {
	Sheet     string `path:"sheet"`
	HeaderRow int    `query:"header_row"`
}

// --- Records ---

// ListRecordsRequest reads every record of a sheet.
type ListRecordsRequest struct {
	Sheet     string `path:"sheet"`
	HeaderRow int    `query:"header_row"`
}

// RecordsResponse holds records in row order.
type RecordsResponse struct {
	Records []sheet.Record `json:"records"`
}

// QueryRecordsRequest reads the records satisfying every condition.
type QueryRecordsRequest struct {
	Sheet     string           `path:"sheet"`
	HeaderRow int              `query:"header_row"`
	Where     sheet.Conditions `json:"where"`
}

// PickRecordRequest reads the index-th record satisfying the conditions.
type PickRecordRequest struct {
	Sheet     string           `path:"sheet"`
	HeaderRow int              `query:"header_row"`
	Where     sheet.Conditions `json:"where"`
	Index     int              `json:"index,omitempty"`
}

// RecordResponse holds one record.
type RecordResponse struct {
	Record sheet.Record `json:"record"`
}

// InsertRecordsRequest appends records after the last row.
type InsertRecordsRequest struct {
	Sheet     string       `path:"sheet"`
	HeaderRow int          `query:"header_row"`
	Records   []sheet.Data `json:"records"`
}

// InsertRecordsResponse reports the appended rows.
type InsertRecordsResponse struct {
	Inserted int      `json:"inserted"`
	FirstRow int      `json:"first_row,omitempty"`
	IDs      []string `json:"ids,omitempty"`
}

// UpdateRecordsRequest writes Set over every record matching Where.
type UpdateRecordsRequest struct {
	Sheet     string           `path:"sheet"`
	HeaderRow int              `query:"header_row"`
	Set       sheet.Data       `json:"set"`
	Where     sheet.Conditions `json:"where"`
}

// UpdateRecordsResponse reports whether a row was written.
type UpdateRecordsResponse struct {
	Updated bool `json:"updated"`
}

// UpsertRecordRequest updates the records matching Where, or inserts Set
// when none does.
type UpsertRecordRequest struct {
	Sheet     string           `path:"sheet"`
	HeaderRow int              `query:"header_row"`
	Set       sheet.Data       `json:"set"`
	Where     sheet.Conditions `json:"where"`
}

// UpsertRecordResponse reports which path was taken.
type UpsertRecordResponse struct {
	Updated  bool `json:"updated"`
	Inserted bool `json:"inserted"`
}

// ClearRecordsRequest blanks every data row of a sheet.
type ClearRecordsRequest struct {
	Sheet     string `path:"sheet"`
	HeaderRow int    `query:"header_row"`
}

// RefreshFormulaRequest clears the results of array formulas in the header.
type RefreshFormulaRequest struct {
	Sheet     string `path:"sheet"`
	HeaderRow int    `query:"header_row"`
}

// OKResponse acknowledges a change.
type OKResponse struct {
	OK bool `json:"ok"`
}

// --- Schema & history ---

// SchemaRequest asks for the JSON Schema of a sheet's records.
type SchemaRequest struct {
	Sheet     string `path:"sheet"`
	HeaderRow int    `query:"header_row"`
}

// HistoryRequest lists the commits touching a sheet.
type HistoryRequest struct {
	Sheet string `path:"sheet"`
	Limit int    `query:"limit"`
}

// HistoryResponse lists commits, newest first.
type HistoryResponse struct {
	Commits []git.Commit `json:"commits"`
}
