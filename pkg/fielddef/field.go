/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package fielddef

import (
	"encoding/json"
	"fmt"
)

// Field of the table.
//
// Options payload type must match Kind, ref. NewOptions.
type Field struct {
	ID       FieldID   `json:"id"`
	Table    TableID   `json:"tableId"`
	Name     string    `json:"name"`
	Kind     FieldKind `json:"kind"`
	CellType CellType  `json:"cellType"`

	// Cell holds list of values
	IsMultiple bool `json:"isMultipleCellValue,omitempty"`
	IsPrimary  bool `json:"isPrimary,omitempty"`

	IsLookup            bool `json:"isLookup,omitempty"`
	IsConditionalLookup bool `json:"isConditionalLookup,omitempty"`

	// Field does not produce fresh values until incompatibility is resolved
	HasError bool `json:"hasError,omitempty"`

	// Creation order, used to break ties in recompute order
	Order int `json:"order"`

	Options    Options     `json:"-"`
	Formatting *Formatting `json:"formatting,omitempty"`
}

func (f *Field) IsComputed() bool { return f.Kind.IsComputed() }

func (f *Field) String() string {
	return fmt.Sprintf("%v field «%v» (%s)", f.Kind, f.ID, f.Name)
}

// Returns link options, nil if field is not a link
func (f *Field) Link() *LinkOptions {
	if o, ok := f.Options.(*LinkOptions); ok {
		return o
	}
	return nil
}

// Returns lookup options of lookup, rollup or conditional rollup, nil for other kinds
func (f *Field) Lookup() *LookupOptions {
	if o, ok := f.Options.(ILookupOptions); ok {
		return o.Lookup()
	}
	return nil
}

// Returns aggregation expression of rollup or conditional rollup, empty string for other kinds
func (f *Field) AggregateExpression() string {
	if o, ok := f.Options.(IAggregateOptions); ok {
		return o.AggregateExpression()
	}
	return ""
}

// Returns formula expression, empty string if field is not a formula
func (f *Field) Formula() string {
	if o, ok := f.Options.(*FormulaOptions); ok {
		return o.Expression
	}
	return ""
}

// Returns choices of select field
func (f *Field) Choices() []Choice {
	if o, ok := f.Options.(*ValueOptions); ok {
		return o.Choices
	}
	return nil
}

// Returns ids of fields referenced by options. Formula expression references are not included.
func (f *Field) References() []FieldID {
	if f.Options == nil {
		return nil
	}
	return f.Options.References()
}

// Returns deep copy of field
func (f *Field) Clone() *Field {
	c := *f
	if f.Options != nil {
		c.Options = f.Options.Clone()
	}
	if f.Formatting != nil {
		fm := *f.Formatting
		c.Formatting = &fm
	}
	return &c
}

// Returns field copy with all ids rewritten by map.
//
// Formula expression is not changed, ref. RemapIDs
func (f *Field) Remap(m IDMap) *Field {
	c := f.Clone()
	c.ID = m.Field(f.ID)
	c.Table = m.Table(f.Table)
	if c.Options != nil {
		c.Options.Remap(m)
	}
	return c
}

// Checks field shape: kind, options and cell type consistency
func (f *Field) Validate() error {
	if f.ID == NullFieldID {
		return ErrInvalid("field id is empty")
	}
	if f.Table == NullTableID {
		return ErrInvalid("%v: table id is empty", f)
	}
	if f.Kind == FieldKind_null || f.Kind >= FieldKind_count {
		return ErrInvalid("%v: invalid kind", f)
	}
	if f.Options == nil {
		f.Options = NewOptions(f.Kind)
	}
	if f.Options.Kind() != f.Kind {
		return ErrInvalid("%v: options of %v kind", f, f.Options.Kind())
	}
	switch o := f.Options.(type) {
	case *LinkOptions:
		if o.ForeignTable == NullTableID {
			return ErrInvalid("%v: foreign table is empty", f)
		}
		if o.Relationship == Relationship_null || o.Relationship >= Relationship_count {
			return ErrInvalid("%v: invalid relationship", f)
		}
	case ILookupOptions:
		lo := o.Lookup()
		if lo.ForeignTable == NullTableID {
			return ErrInvalid("%v: foreign table is empty", f)
		}
		if lo.LookupField == NullFieldID {
			return ErrInvalid("%v: lookup field is empty", f)
		}
		if lo.Limit < 0 {
			return ErrInvalid("%v: negative limit %d", f, lo.Limit)
		}
		if f.Kind == FieldKind_Rollup && lo.LinkField == NullFieldID {
			return ErrInvalid("%v: link field is empty", f)
		}
		if f.Kind == FieldKind_Lookup && lo.LinkField == NullFieldID && !f.IsConditionalLookup {
			return ErrInvalid("%v: link field is empty for not conditional lookup", f)
		}
	case *FormulaOptions:
		if o.Expression == "" {
			return ErrInvalid("%v: expression is empty", f)
		}
	}
	return nil
}

type fieldJSON struct {
	fieldAlias
	Options json.RawMessage `json:"options,omitempty"`
}

type fieldAlias Field

func (f Field) MarshalJSON() ([]byte, error) {
	fj := fieldJSON{fieldAlias: fieldAlias(f)}
	if f.Options != nil {
		raw, err := json.Marshal(f.Options)
		if err != nil {
			return nil, err
		}
		fj.Options = raw
	}
	return json.Marshal(fj)
}

func (f *Field) UnmarshalJSON(data []byte) error {
	fj := fieldJSON{}
	if err := json.Unmarshal(data, &fj); err != nil {
		return err
	}
	*f = Field(fj.fieldAlias)
	f.Options = NewOptions(f.Kind)
	if f.Options == nil {
		return ErrInvalid("field «%v»: invalid kind %v", f.ID, f.Kind)
	}
	if len(fj.Options) > 0 {
		if err := json.Unmarshal(fj.Options, f.Options); err != nil {
			return EnrichError(err, "field «%v» options", f.ID)
		}
	}
	return nil
}
