/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package fielddef

import (
	"encoding/json"
	"slices"
)

type Conjunction string

const (
	Conjunction_And Conjunction = "and"
	Conjunction_Or  Conjunction = "or"
)

type Operator string

const (
	Operator_Is             Operator = "is"
	Operator_IsNot          Operator = "isNot"
	Operator_IsGreater      Operator = "isGreater"
	Operator_IsGreaterEqual Operator = "isGreaterEqual"
	Operator_IsLess         Operator = "isLess"
	Operator_IsLessEqual    Operator = "isLessEqual"
	Operator_Contains       Operator = "contains"
	Operator_DoesNotContain Operator = "doesNotContain"
	Operator_IsEmpty        Operator = "isEmpty"
	Operator_IsNotEmpty     Operator = "isNotEmpty"
	Operator_IsBefore       Operator = "isBefore"
	Operator_IsAfter        Operator = "isAfter"
	Operator_IsOnOrBefore   Operator = "isOnOrBefore"
	Operator_IsOnOrAfter    Operator = "isOnOrAfter"
	Operator_IsAnyOf        Operator = "isAnyOf"
	Operator_IsNoneOf       Operator = "isNoneOf"
	Operator_HasAnyOf       Operator = "hasAnyOf"
	Operator_HasAllOf       Operator = "hasAllOf"
	Operator_HasNoneOf      Operator = "hasNoneOf"
	Operator_IsExactly      Operator = "isExactly"
)

// Reference to the host record field.
//
// Used as filter item value to compare candidate field with host field.
type FieldRef struct {
	FieldID FieldID `json:"fieldId"`
	TableID TableID `json:"tableId,omitempty"`
}

// Filter item value: literal or reference to the host field
type FilterValue struct {
	Literal any
	Ref     *FieldRef
}

func Literal(v any) FilterValue { return FilterValue{Literal: Normalize(v)} }

func HostRef(f FieldID, t TableID) FilterValue {
	return FilterValue{Ref: &FieldRef{FieldID: f, TableID: t}}
}

func (v FilterValue) IsRef() bool { return v.Ref != nil }

type filterValueRefJSON struct {
	Type    string  `json:"type"`
	FieldID FieldID `json:"fieldId"`
	TableID TableID `json:"tableId,omitempty"`
}

const filterValueRefType = "field"

func (v FilterValue) MarshalJSON() ([]byte, error) {
	if v.Ref != nil {
		return json.Marshal(filterValueRefJSON{Type: filterValueRefType, FieldID: v.Ref.FieldID, TableID: v.Ref.TableID})
	}
	return MarshalCell(v.Literal)
}

func (v *FilterValue) UnmarshalJSON(data []byte) error {
	ref := filterValueRefJSON{}
	if err := json.Unmarshal(data, &ref); err == nil && ref.Type == filterValueRefType && ref.FieldID != NullFieldID {
		v.Ref = &FieldRef{FieldID: ref.FieldID, TableID: ref.TableID}
		v.Literal = nil
		return nil
	}
	lit, err := UnmarshalCell(data)
	if err != nil {
		return err
	}
	v.Ref = nil
	v.Literal = lit
	return nil
}

// Single filter condition over the candidate field
type FilterItem struct {
	FieldID  FieldID     `json:"fieldId"`
	Operator Operator    `json:"operator"`
	Value    FilterValue `json:"value"`
}

// Filter set entry: either item or nested set
type FilterEntry struct {
	Item *FilterItem
	Set  *FilterSet
}

func (e FilterEntry) MarshalJSON() ([]byte, error) {
	if e.Set != nil {
		return json.Marshal(e.Set)
	}
	return json.Marshal(e.Item)
}

func (e *FilterEntry) UnmarshalJSON(data []byte) error {
	probe := struct {
		Conjunction *Conjunction `json:"conjunction"`
	}{}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Conjunction != nil {
		e.Set = &FilterSet{}
		return json.Unmarshal(data, e.Set)
	}
	e.Item = &FilterItem{}
	return json.Unmarshal(data, e.Item)
}

// Conjunction or disjunction of filter entries
type FilterSet struct {
	Conjunction Conjunction   `json:"conjunction"`
	Entries     []FilterEntry `json:"filterSet"`
}

func And(entries ...FilterEntry) *FilterSet {
	return &FilterSet{Conjunction: Conjunction_And, Entries: entries}
}

func Or(entries ...FilterEntry) *FilterSet {
	return &FilterSet{Conjunction: Conjunction_Or, Entries: entries}
}

func Item(f FieldID, op Operator, v FilterValue) FilterEntry {
	return FilterEntry{Item: &FilterItem{FieldID: f, Operator: op, Value: v}}
}

func Nested(s *FilterSet) FilterEntry { return FilterEntry{Set: s} }

// Enumerates all items of the set recursively.
//
// Enumeration stops if visit returns false.
func (s *FilterSet) Items(visit func(*FilterItem) bool) bool {
	if s == nil {
		return true
	}
	for _, e := range s.Entries {
		if e.Set != nil {
			if !e.Set.Items(visit) {
				return false
			}
			continue
		}
		if e.Item != nil && !visit(e.Item) {
			return false
		}
	}
	return true
}

// Returns ids of candidate fields filtered by the set
func (s *FilterSet) Fields() []FieldID {
	var res []FieldID
	s.Items(func(i *FilterItem) bool {
		if !slices.Contains(res, i.FieldID) {
			res = append(res, i.FieldID)
		}
		return true
	})
	return res
}

// Returns ids of host fields referenced by item values
func (s *FilterSet) HostFields() []FieldID {
	var res []FieldID
	s.Items(func(i *FilterItem) bool {
		if i.Value.Ref != nil && !slices.Contains(res, i.Value.Ref.FieldID) {
			res = append(res, i.Value.Ref.FieldID)
		}
		return true
	})
	return res
}

func (s *FilterSet) Clone() *FilterSet {
	if s == nil {
		return nil
	}
	c := &FilterSet{Conjunction: s.Conjunction, Entries: make([]FilterEntry, 0, len(s.Entries))}
	for _, e := range s.Entries {
		switch {
		case e.Set != nil:
			c.Entries = append(c.Entries, FilterEntry{Set: e.Set.Clone()})
		case e.Item != nil:
			i := *e.Item
			if i.Value.Ref != nil {
				r := *i.Value.Ref
				i.Value.Ref = &r
			}
			i.Value.Literal = cloneCell(i.Value.Literal)
			c.Entries = append(c.Entries, FilterEntry{Item: &i})
		}
	}
	return c
}

// Rewrites field and table ids
func (s *FilterSet) Remap(m IDMap) {
	s.Items(func(i *FilterItem) bool {
		i.FieldID = m.Field(i.FieldID)
		if i.Value.Ref != nil {
			i.Value.Ref.FieldID = m.Field(i.Value.Ref.FieldID)
			if i.Value.Ref.TableID != NullTableID {
				i.Value.Ref.TableID = m.Table(i.Value.Ref.TableID)
			}
		}
		return true
	})
}

func cloneCell(v any) any {
	if arr, ok := v.([]any); ok {
		return append([]any(nil), arr...)
	}
	return v
}

type SortOrder string

const (
	SortOrder_Asc  SortOrder = "asc"
	SortOrder_Desc SortOrder = "desc"
)

type SortSpec struct {
	FieldID FieldID   `json:"fieldId"`
	Order   SortOrder `json:"order"`
}

func (s SortSpec) Desc() bool { return s.Order == SortOrder_Desc }
