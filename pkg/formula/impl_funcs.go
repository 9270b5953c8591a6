/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package formula

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/voedger/fieldflow/pkg/fielddef"
)

const (
	fn_If          = "IF"
	fn_And         = "AND"
	fn_Or          = "OR"
	fn_Not         = "NOT"
	fn_Sum         = "SUM"
	fn_Average     = "AVERAGE"
	fn_Max         = "MAX"
	fn_Min         = "MIN"
	fn_Concatenate = "CONCATENATE"
	fn_Len         = "LEN"
	fn_Upper       = "UPPER"
	fn_Lower       = "LOWER"
	fn_Round       = "ROUND"
	fn_Abs         = "ABS"
	fn_Blank       = "BLANK"
	fn_IsBlank     = "IS_BLANK"
)

type function struct {
	min, max int // max < 0 for variadic functions
	// result type, CellType_null if result has type of the second argument
	result fielddef.CellType
	call   func(args []any) (any, error)
}

var functions map[string]*function

func init() {
	functions = map[string]*function{
		fn_If:          {min: 2, max: 3},
		fn_And:         {min: 1, max: -1, result: fielddef.CellType_Checkbox, call: fnAnd},
		fn_Or:          {min: 1, max: -1, result: fielddef.CellType_Checkbox, call: fnOr},
		fn_Not:         {min: 1, max: 1, result: fielddef.CellType_Checkbox, call: fnNot},
		fn_Sum:         {min: 1, max: -1, result: fielddef.CellType_Number, call: fnSum},
		fn_Average:     {min: 1, max: -1, result: fielddef.CellType_Number, call: fnAverage},
		fn_Max:         {min: 1, max: -1, result: fielddef.CellType_Number, call: fnMax},
		fn_Min:         {min: 1, max: -1, result: fielddef.CellType_Number, call: fnMin},
		fn_Concatenate: {min: 1, max: -1, result: fielddef.CellType_Text, call: fnConcatenate},
		fn_Len:         {min: 1, max: 1, result: fielddef.CellType_Number, call: fnLen},
		fn_Upper:       {min: 1, max: 1, result: fielddef.CellType_Text, call: fnUpper},
		fn_Lower:       {min: 1, max: 1, result: fielddef.CellType_Text, call: fnLower},
		fn_Round:       {min: 1, max: 2, result: fielddef.CellType_Number, call: fnRound},
		fn_Abs:         {min: 1, max: 1, result: fielddef.CellType_Number, call: fnAbs},
		fn_Blank:       {min: 0, max: 0, result: fielddef.CellType_Text, call: fnBlank},
		fn_IsBlank:     {min: 1, max: 1, result: fielddef.CellType_Checkbox, call: fnIsBlank},
	}
}

func fnAnd(args []any) (any, error) {
	for _, v := range fielddef.Flatten(args...) {
		if !fielddef.ToBool(v) {
			return false, nil
		}
	}
	return true, nil
}

func fnOr(args []any) (any, error) {
	for _, v := range fielddef.Flatten(args...) {
		if fielddef.ToBool(v) {
			return true, nil
		}
	}
	return false, nil
}

func fnNot(args []any) (any, error) {
	return !fielddef.ToBool(args[0]), nil
}

// Numeric values of arguments. Blanks and non-numeric values are skipped
func numbers(args []any) []decimal.Decimal {
	res := make([]decimal.Decimal, 0, len(args))
	for _, v := range fielddef.Flatten(args...) {
		if fielddef.IsEmpty(v) {
			continue
		}
		if _, ok := v.(bool); ok {
			continue
		}
		if f, ok := fielddef.ToNumber(v); ok {
			res = append(res, decimal.NewFromFloat(f))
		}
	}
	return res
}

func fnSum(args []any) (any, error) {
	return decimal.Sum(decimal.Zero, numbers(args)...).InexactFloat64(), nil
}

func fnAverage(args []any) (any, error) {
	nn := numbers(args)
	if len(nn) == 0 {
		return nil, nil
	}
	return decimal.Avg(nn[0], nn[1:]...).InexactFloat64(), nil
}

func fnMax(args []any) (any, error) {
	nn := numbers(args)
	if len(nn) == 0 {
		return nil, nil
	}
	return decimal.Max(nn[0], nn[1:]...).InexactFloat64(), nil
}

func fnMin(args []any) (any, error) {
	nn := numbers(args)
	if len(nn) == 0 {
		return nil, nil
	}
	return decimal.Min(nn[0], nn[1:]...).InexactFloat64(), nil
}

func fnConcatenate(args []any) (any, error) {
	s := new(strings.Builder)
	for _, v := range args {
		s.WriteString(fielddef.ToText(v))
	}
	return s.String(), nil
}

func fnLen(args []any) (any, error) {
	return float64(utf8.RuneCountInString(fielddef.ToText(args[0]))), nil
}

func fnUpper(args []any) (any, error) {
	return strings.ToUpper(fielddef.ToText(args[0])), nil
}

func fnLower(args []any) (any, error) {
	return strings.ToLower(fielddef.ToText(args[0])), nil
}

func fnRound(args []any) (any, error) {
	d, err := toDecimal(args[0])
	if err != nil {
		return nil, err
	}
	var places int32
	if len(args) > 1 {
		p, err := toDecimal(args[1])
		if err != nil {
			return nil, err
		}
		places = int32(p.IntPart())
	}
	return d.Round(places).InexactFloat64(), nil
}

func fnAbs(args []any) (any, error) {
	d, err := toDecimal(args[0])
	if err != nil {
		return nil, err
	}
	return d.Abs().InexactFloat64(), nil
}

func fnBlank([]any) (any, error) {
	return nil, nil
}

func fnIsBlank(args []any) (any, error) {
	return fielddef.IsEmpty(args[0]), nil
}
