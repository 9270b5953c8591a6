/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package fielddef

import (
	"maps"
	"time"
)

type Table struct {
	ID   TableID `json:"id"`
	Base BaseID  `json:"baseId,omitempty"`
	Name string  `json:"name"`
}

// Record is a row of the table.
//
// Cells holds values keyed by field id. Concrete value types are:
//   - nil
//   - string
//   - float64
//   - bool
//   - time.Time
//   - LinkRef
//   - []any of the above
type Record struct {
	ID      RecordID
	Table   TableID
	Seq     int64
	Created time.Time
	Cells   map[FieldID]any
}

func NewRecord(table TableID, id RecordID) *Record {
	return &Record{
		ID:    id,
		Table: table,
		Cells: make(map[FieldID]any),
	}
}

// Returns cell value, nil if cell is empty
func (r *Record) Get(f FieldID) any {
	if r == nil {
		return nil
	}
	return r.Cells[f]
}

func (r *Record) Set(f FieldID, v any) {
	if r.Cells == nil {
		r.Cells = make(map[FieldID]any)
	}
	if v == nil {
		delete(r.Cells, f)
		return
	}
	r.Cells[f] = Normalize(v)
}

// Returns record copy. Cell slices are copied, scalar values are shared.
func (r *Record) Clone() *Record {
	c := *r
	c.Cells = maps.Clone(r.Cells)
	if c.Cells == nil {
		c.Cells = make(map[FieldID]any)
	}
	for f, v := range c.Cells {
		if arr, ok := v.([]any); ok {
			c.Cells[f] = append([]any(nil), arr...)
		}
	}
	return &c
}
