/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package fielddef

import (
	"slices"
)

// Field options payload. One implementation per field kind:
//   - *ValueOptions for FieldKind_Value,
//   - *LinkOptions for FieldKind_Link,
//   - *LookupOptions for FieldKind_Lookup,
//   - *RollupOptions for FieldKind_Rollup,
//   - *ConditionalRollupOptions for FieldKind_ConditionalRollup,
//   - *FormulaOptions for FieldKind_Formula.
type Options interface {
	Kind() FieldKind

	// Returns ids of fields the options refer to.
	//
	// Formula references are not returned, they are known from parsed expression only.
	References() []FieldID

	// Returns deep copy
	Clone() Options

	// Rewrites all ids inside options
	Remap(IDMap)
}

// Returns new empty options for specified field kind
func NewOptions(k FieldKind) Options {
	switch k {
	case FieldKind_Value:
		return &ValueOptions{}
	case FieldKind_Link:
		return &LinkOptions{}
	case FieldKind_Lookup:
		return &LookupOptions{}
	case FieldKind_Rollup:
		return &RollupOptions{}
	case FieldKind_ConditionalRollup:
		return &ConditionalRollupOptions{}
	case FieldKind_Formula:
		return &FormulaOptions{}
	}
	return nil
}

type Choice struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type ValueOptions struct {
	Choices []Choice `json:"choices,omitempty"`
}

func (*ValueOptions) Kind() FieldKind { return FieldKind_Value }

func (*ValueOptions) References() []FieldID { return nil }

func (o *ValueOptions) Clone() Options {
	return &ValueOptions{Choices: slices.Clone(o.Choices)}
}

func (*ValueOptions) Remap(IDMap) {}

// Returns choice index by name, -1 if not found
func (o *ValueOptions) ChoiceIndex(name string) int {
	return slices.IndexFunc(o.Choices, func(c Choice) bool { return c.Name == name })
}

type LinkOptions struct {
	Relationship Relationship `json:"relationship"`
	ForeignTable TableID      `json:"foreignTableId"`

	// Partition of the foreign table for cross-base links
	ForeignBase BaseID `json:"baseId,omitempty"`

	// Table (or junction relation for ManyMany) which holds foreign keys
	FKHostTable    string `json:"fkHostTableName,omitempty"`
	SelfKeyName    string `json:"selfKeyName,omitempty"`
	ForeignKeyName string `json:"foreignKeyName,omitempty"`

	// Paired back-reference field on the foreign table. Empty for one-way links
	SymmetricField FieldID `json:"symmetricFieldId,omitempty"`

	// Foreign field which supplies linked record titles
	LookupField FieldID `json:"lookupFieldId,omitempty"`

	// Requests one-way link on creation
	IsOneWay bool `json:"isOneWay,omitempty"`
}

func (*LinkOptions) Kind() FieldKind { return FieldKind_Link }

func (o *LinkOptions) References() []FieldID {
	if o.LookupField == NullFieldID {
		return nil
	}
	return []FieldID{o.LookupField}
}

func (o *LinkOptions) Clone() Options {
	c := *o
	return &c
}

func (o *LinkOptions) Remap(m IDMap) {
	o.ForeignTable = m.Table(o.ForeignTable)
	if o.ForeignBase != NullBaseID {
		o.ForeignBase = m.Base(o.ForeignBase)
	}
	if o.SymmetricField != NullFieldID {
		o.SymmetricField = m.Field(o.SymmetricField)
	}
	if o.LookupField != NullFieldID {
		o.LookupField = m.Field(o.LookupField)
	}
}

func (o *LinkOptions) IsTwoWay() bool { return o.SymmetricField != NullFieldID }

type LookupOptions struct {
	ForeignTable TableID `json:"foreignTableId"`

	// Link used to reach foreign records. Empty for conditional variants
	LinkField FieldID `json:"linkFieldId,omitempty"`

	LookupField FieldID    `json:"lookupFieldId"`
	Filter      *FilterSet `json:"filter,omitempty"`
	Sort        *SortSpec  `json:"sort,omitempty"`
	Limit       int        `json:"limit,omitempty"`
}

func (*LookupOptions) Kind() FieldKind { return FieldKind_Lookup }

func (o *LookupOptions) References() []FieldID {
	res := o.ForeignReferences()
	for _, f := range o.HostReferences() {
		if !slices.Contains(res, f) {
			res = append(res, f)
		}
	}
	return res
}

// Returns ids of the foreign table fields the options refer to
func (o *LookupOptions) ForeignReferences() []FieldID {
	res := make([]FieldID, 0, 1)
	res = appendRef(res, o.LookupField)
	for _, f := range o.Filter.Fields() {
		res = appendRef(res, f)
	}
	if o.Sort != nil {
		res = appendRef(res, o.Sort.FieldID)
	}
	return res
}

// Returns ids of the host table fields the options refer to
func (o *LookupOptions) HostReferences() []FieldID {
	var res []FieldID
	res = appendRef(res, o.LinkField)
	for _, f := range o.Filter.HostFields() {
		res = appendRef(res, f)
	}
	return res
}

func appendRef(refs []FieldID, f FieldID) []FieldID {
	if f == NullFieldID || slices.Contains(refs, f) {
		return refs
	}
	return append(refs, f)
}

func (o *LookupOptions) Clone() Options { return o.clone() }

func (o *LookupOptions) clone() *LookupOptions {
	c := *o
	c.Filter = o.Filter.Clone()
	if o.Sort != nil {
		s := *o.Sort
		c.Sort = &s
	}
	return &c
}

func (o *LookupOptions) Remap(m IDMap) {
	o.ForeignTable = m.Table(o.ForeignTable)
	if o.LinkField != NullFieldID {
		o.LinkField = m.Field(o.LinkField)
	}
	o.LookupField = m.Field(o.LookupField)
	if o.Filter != nil {
		o.Filter.Remap(m)
	}
	if o.Sort != nil {
		o.Sort.FieldID = m.Field(o.Sort.FieldID)
	}
}

// Returns is options select foreign records by filter instead of link
func (o *LookupOptions) IsConditional() bool { return o.LinkField == NullFieldID }

func (o *LookupOptions) Lookup() *LookupOptions { return o }

type RollupOptions struct {
	LookupOptions
	// Aggregation expression, e.g. `sum({values})`
	Expression string `json:"expression"`
}

func (*RollupOptions) Kind() FieldKind { return FieldKind_Rollup }

func (o *RollupOptions) Clone() Options {
	return &RollupOptions{LookupOptions: *o.LookupOptions.clone(), Expression: o.Expression}
}

type ConditionalRollupOptions struct {
	LookupOptions
	// Aggregation expression, e.g. `array_compact({values})`
	Expression string `json:"expression"`
}

func (*ConditionalRollupOptions) Kind() FieldKind { return FieldKind_ConditionalRollup }

func (o *ConditionalRollupOptions) Clone() Options {
	return &ConditionalRollupOptions{LookupOptions: *o.LookupOptions.clone(), Expression: o.Expression}
}

type FormulaOptions struct {
	Expression string `json:"expression"`
}

func (*FormulaOptions) Kind() FieldKind { return FieldKind_Formula }

func (*FormulaOptions) References() []FieldID { return nil }

func (o *FormulaOptions) Clone() Options {
	c := *o
	return &c
}

// Expression text ids are rewritten by formula package
func (*FormulaOptions) Remap(IDMap) {}

// Options which read foreign values
type ILookupOptions interface {
	Options
	Lookup() *LookupOptions
}

// Options with aggregation expression
type IAggregateOptions interface {
	ILookupOptions
	AggregateExpression() string
}

func (o *RollupOptions) AggregateExpression() string { return o.Expression }

func (o *ConditionalRollupOptions) AggregateExpression() string { return o.Expression }
