/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package aggregate

import (
	"slices"

	"github.com/voedger/fieldflow/pkg/fielddef"
)

// Aggregation function of rollup
type Func string

const (
	Func_CountAll     Func = "countall"
	Func_CountA       Func = "counta"
	Func_Count        Func = "count"
	Func_Sum          Func = "sum"
	Func_Average      Func = "average"
	Func_Max          Func = "max"
	Func_Min          Func = "min"
	Func_And          Func = "and"
	Func_Or           Func = "or"
	Func_Xor          Func = "xor"
	Func_ArrayJoin    Func = "array_join"
	Func_Concatenate  Func = "concatenate"
	Func_ArrayUnique  Func = "array_unique"
	Func_ArrayCompact Func = "array_compact"
)

var allFuncs = []Func{
	Func_CountAll,
	Func_CountA,
	Func_Count,
	Func_Sum,
	Func_Average,
	Func_Max,
	Func_Min,
	Func_And,
	Func_Or,
	Func_Xor,
	Func_ArrayJoin,
	Func_Concatenate,
	Func_ArrayUnique,
	Func_ArrayCompact,
}

func (fn Func) Valid() bool { return slices.Contains(allFuncs, fn) }

// Returns is function result depends on values order.
//
// Sort and limit are meaningful only for such functions.
func (fn Func) IsArray() bool {
	switch fn {
	case Func_ArrayJoin, Func_Concatenate, Func_ArrayUnique, Func_ArrayCompact:
		return true
	}
	return false
}

// Returns is function can aggregate values of specified cell type
func (fn Func) ValidFor(t fielddef.CellType) bool {
	switch fn {
	case Func_Sum, Func_Average:
		return t == fielddef.CellType_Number
	case Func_Max, Func_Min:
		return t == fielddef.CellType_Number || t == fielddef.CellType_Date
	}
	return fn.Valid()
}

// Returns cell type and multiplicity of aggregation result for source cell type
func (fn Func) ResultType(src fielddef.CellType) (t fielddef.CellType, multiple bool) {
	switch fn {
	case Func_CountAll, Func_CountA, Func_Count, Func_Sum, Func_Average:
		return fielddef.CellType_Number, false
	case Func_Max, Func_Min:
		return src, false
	case Func_And, Func_Or, Func_Xor:
		return fielddef.CellType_Checkbox, false
	case Func_ArrayJoin, Func_Concatenate:
		return fielddef.CellType_Text, false
	}
	return src, true
}

func (fn Func) Expression() string { return string(fn) + "({values})" }
