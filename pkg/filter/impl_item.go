/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package filter

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/voedger/fieldflow/pkg/fielddef"
)

type itemMatcher struct {
	item *fielddef.FilterItem
	fld  *fielddef.Field
	def  operatorDef
}

func compileItem(item *fielddef.FilterItem, fields FieldFunc) (IMatcher, error) {
	def, ok := operators[item.Operator]
	if !ok {
		return nil, fielddef.ErrInvalid("filter operator «%s»", item.Operator)
	}
	fld := fields(item.FieldID)
	if fld == nil {
		return nil, fielddef.ErrReferenceMissing("filter field «%v»", item.FieldID)
	}
	if !OperatorValid(item.Operator, fld.CellType, fld.IsMultiple) {
		return nil, fielddef.ErrTypeIncompatible("operator «%s» can not be applied to %v", item.Operator, fld)
	}
	if ref := item.Value.Ref; ref != nil {
		if fields(ref.FieldID) == nil {
			return nil, fielddef.ErrReferenceMissing("filter host field «%v»", ref.FieldID)
		}
	}
	return itemMatcher{item, fld, def}, nil
}

func (m itemMatcher) String() string {
	if m.def.operand == operand_None {
		return fmt.Sprintf("%s %s", m.item.FieldID, m.item.Operator)
	}
	if ref := m.item.Value.Ref; ref != nil {
		return fmt.Sprintf("%s %s host.%s", m.item.FieldID, m.item.Operator, ref.FieldID)
	}
	return fmt.Sprintf("%s %s %v", m.item.FieldID, m.item.Operator, m.item.Value.Literal)
}

func (m itemMatcher) Match(candidate, host *fielddef.Record) bool {
	var cv any
	if candidate != nil {
		cv = candidate.Get(m.item.FieldID)
	}

	switch m.item.Operator {
	case fielddef.Operator_IsEmpty:
		return fielddef.IsEmpty(cv)
	case fielddef.Operator_IsNotEmpty:
		return !fielddef.IsEmpty(cv)
	}

	operand := m.item.Value.Literal
	if ref := m.item.Value.Ref; ref != nil {
		operand = nil
		if host != nil {
			operand = host.Get(ref.FieldID)
		}
		if fielddef.IsEmpty(operand) {
			return m.def.negative
		}
	} else if fielddef.IsEmpty(operand) {
		// item without value is not applied
		return true
	}

	if m.fld.CellType == fielddef.CellType_Checkbox && !m.fld.IsMultiple {
		switch m.item.Operator {
		case fielddef.Operator_Is:
			return fielddef.ToBool(cv) == fielddef.ToBool(operand)
		case fielddef.Operator_IsNot:
			return fielddef.ToBool(cv) != fielddef.ToBool(operand)
		}
	}

	cc, oo := values(cv), values(operand)

	switch m.item.Operator {
	case fielddef.Operator_Is:
		return m.is(cc, oo)
	case fielddef.Operator_IsNot:
		return !m.is(cc, oo)
	case fielddef.Operator_IsGreater, fielddef.Operator_IsAfter:
		return m.compare(cc, oo, func(c int) bool { return c > 0 })
	case fielddef.Operator_IsGreaterEqual, fielddef.Operator_IsOnOrAfter:
		return m.compare(cc, oo, func(c int) bool { return c >= 0 })
	case fielddef.Operator_IsLess, fielddef.Operator_IsBefore:
		return m.compare(cc, oo, func(c int) bool { return c < 0 })
	case fielddef.Operator_IsLessEqual, fielddef.Operator_IsOnOrBefore:
		return m.compare(cc, oo, func(c int) bool { return c <= 0 })
	case fielddef.Operator_Contains:
		return contains(cc, oo)
	case fielddef.Operator_DoesNotContain:
		return !contains(cc, oo)
	case fielddef.Operator_IsAnyOf:
		return len(cc) > 0 && m.hasAny(oo, cc[:1])
	case fielddef.Operator_IsNoneOf:
		return len(cc) == 0 || !m.hasAny(oo, cc[:1])
	case fielddef.Operator_HasAnyOf:
		return m.hasAny(cc, oo)
	case fielddef.Operator_HasAllOf:
		return m.hasAll(cc, oo)
	case fielddef.Operator_HasNoneOf:
		return !m.hasAny(cc, oo)
	case fielddef.Operator_IsExactly:
		return m.hasAll(cc, oo) && m.hasAll(oo, cc)
	}
	return false
}

// Equality for single-valued sides, set membership if one side is multiple,
// set equality if both sides are multiple
func (m itemMatcher) is(cc, oo []any) bool {
	switch {
	case len(cc) == 0 || len(oo) == 0:
		return false
	case len(oo) == 1:
		return m.hasAny(cc, oo)
	case len(cc) == 1:
		return m.hasAny(oo, cc)
	}
	return m.hasAll(cc, oo) && m.hasAll(oo, cc)
}

func (m itemMatcher) compare(cc, oo []any, ok func(int) bool) bool {
	for _, c := range cc {
		for _, o := range oo {
			if res, can := m.cmp(c, o); can && ok(res) {
				return true
			}
		}
	}
	return false
}

func (m itemMatcher) cmp(a, b any) (int, bool) {
	switch m.fld.CellType {
	case fielddef.CellType_Date:
		x, okX := dayKey(a)
		y, okY := dayKey(b)
		return cmp.Compare(x, y), okX && okY
	case fielddef.CellType_Number:
		x, okX := fielddef.ToNumber(a)
		y, okY := fielddef.ToNumber(b)
		return cmp.Compare(x, y), okX && okY
	}
	if x, okX := fielddef.ToNumber(a); okX {
		if y, okY := fielddef.ToNumber(b); okY {
			return cmp.Compare(x, y), true
		}
	}
	return strings.Compare(fielddef.ToText(a), fielddef.ToText(b)), true
}

// Returns is any of values from list found in set
func (m itemMatcher) hasAny(set, list []any) bool {
	for _, v := range list {
		if m.has(set, v) {
			return true
		}
	}
	return false
}

// Returns is all values from list found in set
func (m itemMatcher) hasAll(set, list []any) bool {
	for _, v := range list {
		if !m.has(set, v) {
			return false
		}
	}
	return true
}

func (m itemMatcher) has(set []any, v any) bool {
	for _, s := range set {
		if m.equal(s, v) {
			return true
		}
	}
	return false
}

func (m itemMatcher) equal(a, b any) bool {
	if l, ok := a.(fielddef.LinkRef); ok {
		return linkEqual(l, b)
	}
	if l, ok := b.(fielddef.LinkRef); ok {
		return linkEqual(l, a)
	}
	switch m.fld.CellType {
	case fielddef.CellType_Number:
		x, okX := fielddef.ToNumber(a)
		y, okY := fielddef.ToNumber(b)
		return okX && okY && x == y
	case fielddef.CellType_Checkbox:
		return fielddef.ToBool(a) == fielddef.ToBool(b)
	case fielddef.CellType_Date:
		x, okX := dayKey(a)
		y, okY := dayKey(b)
		return okX && okY && x == y
	}
	return fielddef.ToText(a) == fielddef.ToText(b)
}

func linkEqual(l fielddef.LinkRef, v any) bool {
	switch x := v.(type) {
	case fielddef.LinkRef:
		return l.ID == x.ID
	case string:
		return string(l.ID) == x || (l.Title != "" && l.Title == x)
	}
	return false
}

// Substring search ignoring case
func contains(cc, oo []any) bool {
	for _, o := range oo {
		needle := strings.ToLower(fielddef.ToText(o))
		for _, c := range cc {
			if strings.Contains(strings.ToLower(fielddef.ToText(c)), needle) {
				return true
			}
		}
	}
	return false
}

// Non-empty values of cell as flat list
func values(v any) []any {
	list := fielddef.Flatten(fielddef.AsList(fielddef.Normalize(v))...)
	res := make([]any, 0, len(list))
	for _, i := range list {
		if !fielddef.IsEmpty(i) {
			res = append(res, i)
		}
	}
	return res
}

// Calendar day of the date value. Time zone is not converted
func dayKey(v any) (int, bool) {
	t, ok := fielddef.ToTime(v)
	if !ok {
		return 0, false
	}
	return t.Year()*1000 + t.YearDay(), true
}
