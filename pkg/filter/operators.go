/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package filter

import (
	"github.com/voedger/fieldflow/pkg/fielddef"
)

type operandKind uint8

const (
	operand_None operandKind = iota
	operand_Scalar
	operand_List
)

type operatorDef struct {
	// value operand expected by operator
	operand operandKind
	// negative operators are satisfied if host reference resolves to empty value
	negative bool
	// cell types operator can be applied to
	types []fielddef.CellType
	// operator can be applied to multiple cells of any type (lookups, rollups into lists)
	multiple bool
}

var (
	anyType     = []fielddef.CellType{fielddef.CellType_Text, fielddef.CellType_LongText, fielddef.CellType_Number, fielddef.CellType_Checkbox, fielddef.CellType_Date, fielddef.CellType_SingleSelect, fielddef.CellType_MultipleSelect, fielddef.CellType_User, fielddef.CellType_Link}
	equalable   = []fielddef.CellType{fielddef.CellType_Text, fielddef.CellType_LongText, fielddef.CellType_Number, fielddef.CellType_Checkbox, fielddef.CellType_Date, fielddef.CellType_SingleSelect, fielddef.CellType_MultipleSelect, fielddef.CellType_User, fielddef.CellType_Link}
	ordered     = []fielddef.CellType{fielddef.CellType_Number, fielddef.CellType_Date}
	textual     = []fielddef.CellType{fielddef.CellType_Text, fielddef.CellType_LongText, fielddef.CellType_SingleSelect, fielddef.CellType_MultipleSelect, fielddef.CellType_User, fielddef.CellType_Link}
	dates       = []fielddef.CellType{fielddef.CellType_Date}
	choosable   = []fielddef.CellType{fielddef.CellType_Text, fielddef.CellType_SingleSelect, fielddef.CellType_User, fielddef.CellType_Link}
	multiValued = []fielddef.CellType{fielddef.CellType_MultipleSelect, fielddef.CellType_User, fielddef.CellType_Link}
)

var operators = map[fielddef.Operator]operatorDef{
	fielddef.Operator_Is:             {operand: operand_Scalar, types: equalable, multiple: true},
	fielddef.Operator_IsNot:          {operand: operand_Scalar, negative: true, types: equalable, multiple: true},
	fielddef.Operator_IsGreater:      {operand: operand_Scalar, types: ordered, multiple: true},
	fielddef.Operator_IsGreaterEqual: {operand: operand_Scalar, types: ordered, multiple: true},
	fielddef.Operator_IsLess:         {operand: operand_Scalar, types: ordered, multiple: true},
	fielddef.Operator_IsLessEqual:    {operand: operand_Scalar, types: ordered, multiple: true},
	fielddef.Operator_Contains:       {operand: operand_Scalar, types: textual, multiple: true},
	fielddef.Operator_DoesNotContain: {operand: operand_Scalar, negative: true, types: textual, multiple: true},
	fielddef.Operator_IsEmpty:        {operand: operand_None, types: anyType, multiple: true},
	fielddef.Operator_IsNotEmpty:     {operand: operand_None, types: anyType, multiple: true},
	fielddef.Operator_IsBefore:       {operand: operand_Scalar, types: dates, multiple: true},
	fielddef.Operator_IsAfter:        {operand: operand_Scalar, types: dates, multiple: true},
	fielddef.Operator_IsOnOrBefore:   {operand: operand_Scalar, types: dates, multiple: true},
	fielddef.Operator_IsOnOrAfter:    {operand: operand_Scalar, types: dates, multiple: true},
	fielddef.Operator_IsAnyOf:        {operand: operand_List, types: choosable},
	fielddef.Operator_IsNoneOf:       {operand: operand_List, negative: true, types: choosable},
	fielddef.Operator_HasAnyOf:       {operand: operand_List, types: multiValued, multiple: true},
	fielddef.Operator_HasAllOf:       {operand: operand_List, types: multiValued, multiple: true},
	fielddef.Operator_HasNoneOf:      {operand: operand_List, negative: true, types: multiValued, multiple: true},
	fielddef.Operator_IsExactly:      {operand: operand_List, types: multiValued, multiple: true},
}

// Returns is operator can be applied to field with specified cell type.
//
// Multiple is true for multi-valued cells: multiple lookups, links to many records, multiple selects.
func OperatorValid(op fielddef.Operator, t fielddef.CellType, multiple bool) bool {
	def, ok := operators[op]
	if !ok {
		return false
	}
	multiple = multiple || t.IsMultiple()
	for _, ct := range def.types {
		if ct == t {
			return !multiple || def.multiple || t.IsMultiple()
		}
	}
	// list-only operators accept any multi-valued cell
	if multiple && def.operand == operand_List && def.multiple {
		return true
	}
	return false
}

// Returns operators applicable to field
func OperatorsFor(fld *fielddef.Field) []fielddef.Operator {
	res := make([]fielddef.Operator, 0, len(operators))
	for _, op := range allOperators {
		if OperatorValid(op, fld.CellType, fld.IsMultiple) {
			res = append(res, op)
		}
	}
	return res
}

var allOperators = []fielddef.Operator{
	fielddef.Operator_Is,
	fielddef.Operator_IsNot,
	fielddef.Operator_IsGreater,
	fielddef.Operator_IsGreaterEqual,
	fielddef.Operator_IsLess,
	fielddef.Operator_IsLessEqual,
	fielddef.Operator_Contains,
	fielddef.Operator_DoesNotContain,
	fielddef.Operator_IsEmpty,
	fielddef.Operator_IsNotEmpty,
	fielddef.Operator_IsBefore,
	fielddef.Operator_IsAfter,
	fielddef.Operator_IsOnOrBefore,
	fielddef.Operator_IsOnOrAfter,
	fielddef.Operator_IsAnyOf,
	fielddef.Operator_IsNoneOf,
	fielddef.Operator_HasAnyOf,
	fielddef.Operator_HasAllOf,
	fielddef.Operator_HasNoneOf,
	fielddef.Operator_IsExactly,
}
