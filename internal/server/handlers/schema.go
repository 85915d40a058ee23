package handlers

import (
	"context"
	"slices"

	"github.com/invopop/jsonschema"
	"github.com/maruel/sheetdb/internal/models"
	"github.com/maruel/sheetdb/internal/sheet"
)

// Schema describes the records of a sheet as a JSON Schema. Column types are
// inferred from the values present; a column mixing kinds accepts any of
// them and an all-blank column accepts anything.
func (h *Handler) Schema(ctx context.Context, req models.SchemaRequest) (*jsonschema.Schema, error) {
	t, err := h.table(req.Sheet, req.HeaderRow)
	if err != nil {
		return nil, err
	}
	return recordSchema(req.Sheet, t.Columns().Names(), t.Find(nil)), nil
}

func recordSchema(name string, columns []string, recs []sheet.Record) *jsonschema.Schema {
	s := &jsonschema.Schema{
		Version:    jsonschema.Version,
		Title:      name,
		Type:       "object",
		Properties: jsonschema.NewProperties(),
		Required:   []string{sheet.RowIndexKey},
	}
	s.Properties.Set(sheet.RowIndexKey, &jsonschema.Schema{Type: "integer", Description: "1-based row of the record"})
	for _, col := range columns {
		s.Properties.Set(col, columnSchema(col, recs))
	}
	return s
}

func columnSchema(col string, recs []sheet.Record) *jsonschema.Schema {
	var seen []string
	for i := range recs {
		v, ok := recs[i].Get(col)
		if !ok || v.IsEmpty() {
			continue
		}
		typ := jsonType(v.Kind())
		if !slices.Contains(seen, typ) {
			seen = append(seen, typ)
		}
	}
	switch len(seen) {
	case 0:
		return &jsonschema.Schema{}
	case 1:
		return &jsonschema.Schema{Type: seen[0]}
	default:
		s := &jsonschema.Schema{}
		for _, typ := range seen {
			s.AnyOf = append(s.AnyOf, &jsonschema.Schema{Type: typ})
		}
		return s
	}
}

func jsonType(k sheet.Kind) string {
	switch k {
	case sheet.KindNumber:
		return "number"
	case sheet.KindBool:
		return "boolean"
	case sheet.KindString:
		return "string"
	default:
		return "null"
	}
}
