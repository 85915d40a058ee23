package sheet

import (
	"encoding/json"
	"fmt"
	"maps"
)

// RowIndexKey is the reserved field carrying a record's grid row in JSON and
// in Conditions. No header column may use it.
const RowIndexKey = "rowIndex"

// Data maps column names to cell values. It is the payload of Insert and Update.
type Data map[string]Value

// Conditions maps field names to the exact value they must hold. All
// conditions must match.
type Conditions map[string]Value

// Record is one data row.
type Record struct {
	// Row is the 1-based absolute grid row the record was read from.
	Row int
	// Fields holds every mapped column that physically exists in the grid.
	Fields Data
}

// Get returns the field value and whether the field is present.
func (r *Record) Get(name string) (Value, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// Clone returns a deep copy.
func (r Record) Clone() Record {
	return Record{Row: r.Row, Fields: maps.Clone(r.Fields)}
}

// matches reports whether every condition holds for the record.
func (r *Record) matches(cond Conditions) bool {
	for k, want := range cond {
		if !r.matchOne(k, want) {
			return false
		}
	}
	return true
}

func (r *Record) matchOne(key string, want Value) bool {
	if key == RowIndexKey {
		return want.Equal(Int(int64(r.Row)))
	}
	got, ok := r.Fields[key]
	return ok && got.Equal(want)
}

// MarshalJSON flattens the record into one object with the reserved row key.
func (r Record) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r.Fields)+1)
	for k, v := range r.Fields {
		m[k] = v
	}
	m[RowIndexKey] = r.Row
	return json.Marshal(m)
}

// UnmarshalJSON reads the flattened form produced by MarshalJSON.
func (r *Record) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := Record{Fields: make(Data, len(raw))}
	for k, msg := range raw {
		if k == RowIndexKey {
			if err := json.Unmarshal(msg, &out.Row); err != nil {
				return fmt.Errorf("%s: %w", RowIndexKey, err)
			}
			continue
		}
		var v Value
		if err := json.Unmarshal(msg, &v); err != nil {
			return fmt.Errorf("field %q: %w", k, err)
		}
		out.Fields[k] = v
	}
	*r = out
	return nil
}
