/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package aggregate

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/voedger/fieldflow/pkg/fielddef"
)

// Aggregates values. Nested lists are flattened, blank values are kept
// and counted by countall only.
func Aggregate(fn Func, values []any) (any, error) {
	values = fielddef.Flatten(values...)
	switch fn {
	case Func_CountAll:
		return float64(len(values)), nil
	case Func_CountA, Func_Count:
		return float64(len(compact(values))), nil
	case Func_Sum:
		return decimal.Sum(decimal.Zero, numbers(values)...).InexactFloat64(), nil
	case Func_Average:
		nn := numbers(values)
		if len(nn) == 0 {
			return nil, nil
		}
		return decimal.Avg(nn[0], nn[1:]...).InexactFloat64(), nil
	case Func_Max:
		return extreme(values, 1), nil
	case Func_Min:
		return extreme(values, -1), nil
	case Func_And:
		vv := compact(values)
		if len(vv) == 0 || len(vv) < len(values) {
			return false, nil
		}
		for _, v := range vv {
			if !fielddef.ToBool(v) {
				return false, nil
			}
		}
		return true, nil
	case Func_Or:
		for _, v := range values {
			if fielddef.ToBool(v) {
				return true, nil
			}
		}
		return false, nil
	case Func_Xor:
		odd := false
		for _, v := range values {
			if fielddef.ToBool(v) {
				odd = !odd
			}
		}
		return odd, nil
	case Func_ArrayJoin, Func_Concatenate:
		vv := compact(values)
		ss := make([]string, 0, len(vv))
		for _, v := range vv {
			ss = append(ss, fielddef.ToText(v))
		}
		return strings.Join(ss, joinSeparator), nil
	case Func_ArrayUnique:
		return fielddef.Normalize(unique(compact(values))), nil
	case Func_ArrayCompact:
		return fielddef.Normalize(compact(values)), nil
	}
	return nil, fielddef.ErrInvalid("unknown aggregation function «%s»", fn)
}

// Returns values of field from records, in records order
func Values(records []*fielddef.Record, field fielddef.FieldID) []any {
	res := make([]any, 0, len(records))
	for _, r := range records {
		res = append(res, r.Get(field))
	}
	return res
}

func compact(values []any) []any {
	res := make([]any, 0, len(values))
	for _, v := range values {
		if !fielddef.IsEmpty(v) {
			res = append(res, v)
		}
	}
	return res
}

func unique(values []any) []any {
	res := make([]any, 0, len(values))
	for _, v := range values {
		dup := false
		for _, u := range res {
			if fielddef.Equal(u, v) {
				dup = true
				break
			}
		}
		if !dup {
			res = append(res, v)
		}
	}
	return res
}

// Numeric values, blanks and non-numeric values are skipped
func numbers(values []any) []decimal.Decimal {
	res := make([]decimal.Decimal, 0, len(values))
	for _, v := range values {
		if fielddef.IsEmpty(v) {
			continue
		}
		if f, ok := fielddef.ToNumber(v); ok {
			res = append(res, decimal.NewFromFloat(f))
		}
	}
	return res
}

// Returns maximum (sign > 0) or minimum (sign < 0) of numbers or dates, nil if no values
func extreme(values []any, sign int) any {
	var (
		res  any
		best decimal.Decimal
		last time.Time
	)
	for _, v := range compact(values) {
		if t, ok := v.(time.Time); ok {
			if res == nil || t.Compare(last)*sign > 0 {
				res, last = t, t
			}
			continue
		}
		f, ok := fielddef.ToNumber(v)
		if !ok {
			continue
		}
		d := decimal.NewFromFloat(f)
		if _, isTime := res.(time.Time); isTime {
			continue
		}
		if res == nil || d.Cmp(best)*sign > 0 {
			res, best = f, d
		}
	}
	return res
}
