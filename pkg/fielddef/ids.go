/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package fielddef

import (
	"strings"

	"github.com/google/uuid"
)

type (
	FieldID  string
	TableID  string
	RecordID string
	BaseID   string
)

const (
	NullFieldID  = FieldID("")
	NullTableID  = TableID("")
	NullRecordID = RecordID("")
	NullBaseID   = BaseID("")
)

const (
	fieldIDPrefix  = "fld"
	tableIDPrefix  = "tbl"
	recordIDPrefix = "rec"
	idBodyLen      = 16
)

func newID(prefix string) string {
	s := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + s[:idBodyLen]
}

func NewFieldID() FieldID { return FieldID(newID(fieldIDPrefix)) }

func NewTableID() TableID { return TableID(newID(tableIDPrefix)) }

func NewRecordID() RecordID { return RecordID(newID(recordIDPrefix)) }

// Maps ids across copy/import boundary.
//
// Ids absent in maps are kept as is.
type IDMap struct {
	Fields map[FieldID]FieldID
	Tables map[TableID]TableID
	Bases  map[BaseID]BaseID
}

func (m IDMap) Field(id FieldID) FieldID {
	if n, ok := m.Fields[id]; ok {
		return n
	}
	return id
}

func (m IDMap) Table(id TableID) TableID {
	if n, ok := m.Tables[id]; ok {
		return n
	}
	return id
}

func (m IDMap) Base(id BaseID) BaseID {
	if n, ok := m.Bases[id]; ok {
		return n
	}
	return id
}

// Rewrites ids inside expression text, e.g. formula field references
type TextRemapper func(text string, m IDMap) (string, error)

// Returns copies of fields with all ids rewritten by map: field and table ids,
// options, filters and, through remapText, formula expressions.
//
// Missing field ids of the map are allocated, so fields which refer to each other
// are remapped consistently.
func RemapIDs(fields []*Field, m IDMap, remapText TextRemapper) ([]*Field, error) {
	if m.Fields == nil {
		m.Fields = make(map[FieldID]FieldID, len(fields))
	}
	for _, f := range fields {
		if _, ok := m.Fields[f.ID]; !ok {
			m.Fields[f.ID] = NewFieldID()
		}
	}
	res := make([]*Field, 0, len(fields))
	for _, f := range fields {
		c := f.Remap(m)
		if o, ok := c.Options.(*FormulaOptions); ok && remapText != nil {
			text, err := remapText(o.Expression, m)
			if err != nil {
				return nil, EnrichError(err, "%v", f)
			}
			o.Expression = text
		}
		res = append(res, c)
	}
	return res, nil
}
