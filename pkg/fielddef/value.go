/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package fielddef

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Reference to the linked record with its human-readable title
type LinkRef struct {
	ID    RecordID `json:"id"`
	Title string   `json:"title,omitempty"`
}

const DateLayout = "2006-01-02"

// Converts value to one of concrete cell value types.
//
// Integer and float32 numbers become float64, typed slices become []any,
// empty slices become nil.
func Normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	case *LinkRef:
		if x == nil {
			return nil
		}
		return *x
	case RecordID:
		return LinkRef{ID: x}
	case []string:
		return sliceOf(x)
	case []float64:
		return sliceOf(x)
	case []int:
		return sliceOf(x)
	case []bool:
		return sliceOf(x)
	case []LinkRef:
		return sliceOf(x)
	case []RecordID:
		return sliceOf(x)
	case []any:
		if len(x) == 0 {
			return nil
		}
		res := make([]any, 0, len(x))
		for _, i := range x {
			res = append(res, Normalize(i))
		}
		return res
	}
	return v
}

func sliceOf[T any](s []T) any {
	if len(s) == 0 {
		return nil
	}
	res := make([]any, 0, len(s))
	for _, v := range s {
		res = append(res, Normalize(v))
	}
	return res
}

// Returns is value empty. Nil, empty string and empty list are empty.
func IsEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []any:
		for _, i := range x {
			if !IsEmpty(i) {
				return false
			}
		}
		return true
	}
	return false
}

// Returns values as flat list. Nested lists are expanded, nil values are kept.
func Flatten(values ...any) []any {
	res := make([]any, 0, len(values))
	for _, v := range values {
		if arr, ok := v.([]any); ok {
			res = append(res, Flatten(arr...)...)
			continue
		}
		res = append(res, v)
	}
	return res
}

// Returns value as list. Nil is empty list, scalar is list of one item.
func AsList(v any) []any {
	switch x := v.(type) {
	case nil:
		return nil
	case []any:
		return x
	}
	return []any{v}
}

func ToNumber(v any) (float64, bool) {
	switch x := Normalize(v).(type) {
	case float64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	case []any:
		if len(x) == 1 {
			return ToNumber(x[0])
		}
	}
	return 0, false
}

// Stringifies value. Lists are joined with ", ".
func ToText(v any) string {
	switch x := Normalize(v).(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(DateLayout)
		}
		return x.Format(time.RFC3339)
	case LinkRef:
		if x.Title != "" {
			return x.Title
		}
		return string(x.ID)
	case []any:
		ss := make([]string, 0, len(x))
		for _, i := range x {
			if IsEmpty(i) {
				continue
			}
			ss = append(ss, ToText(i))
		}
		return strings.Join(ss, ", ")
	}
	return fmt.Sprint(v)
}

func ToBool(v any) bool {
	switch x := Normalize(v).(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	case []any:
		for _, i := range x {
			if ToBool(i) {
				return true
			}
		}
		return false
	}
	return true
}

func ToTime(v any) (time.Time, bool) {
	switch x := Normalize(v).(type) {
	case time.Time:
		return x, true
	case string:
		for _, layout := range []string{time.RFC3339Nano, DateLayout, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
			if t, err := time.Parse(layout, strings.TrimSpace(x)); err == nil {
				return t, true
			}
		}
	case []any:
		if len(x) == 1 {
			return ToTime(x[0])
		}
	}
	return time.Time{}, false
}

// Returns ids of linked records from link cell value
func LinkIDs(v any) []RecordID {
	var res []RecordID
	for _, i := range AsList(Normalize(v)) {
		switch x := i.(type) {
		case LinkRef:
			res = append(res, x.ID)
		case string:
			res = append(res, RecordID(x))
		}
	}
	return res
}

// Returns is values equal as cell values
func Equal(a, b any) bool {
	a, b = Normalize(a), Normalize(b)
	if IsEmpty(a) && IsEmpty(b) {
		return true
	}
	switch x := a.(type) {
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	case LinkRef:
		y, ok := b.(LinkRef)
		return ok && x == y
	}
	return a == b
}

// Returns is values equal ignoring case for texts
func EqualFold(a, b any) bool {
	sa, okA := Normalize(a).(string)
	sb, okB := Normalize(b).(string)
	if okA && okB {
		return strings.EqualFold(sa, sb)
	}
	return Equal(a, b)
}

// Converts value to cell of specified type.
//
// Returns ErrConvert if value can not be represented as cell of the type.
func Coerce(v any, t CellType, multiple bool) (any, error) {
	v = Normalize(v)
	if v == nil {
		return nil, nil
	}
	if multiple || t.IsMultiple() {
		list := AsList(v)
		res := make([]any, 0, len(list))
		for _, i := range list {
			c, err := Coerce(i, t, false)
			if err != nil {
				return nil, err
			}
			if c != nil {
				res = append(res, c)
			}
		}
		if len(res) == 0 {
			return nil, nil
		}
		return res, nil
	}
	if list, ok := v.([]any); ok {
		switch len(list) {
		case 0:
			return nil, nil
		case 1:
			return Coerce(list[0], t, false)
		}
		if t.IsText() {
			return ToText(list), nil
		}
		return nil, ErrConvert("list of %d values to single %v", len(list), t)
	}
	switch t {
	case CellType_Number:
		if f, ok := ToNumber(v); ok {
			return f, nil
		}
		return nil, ErrConvert("«%v» to %v", v, t)
	case CellType_Checkbox:
		if !ToBool(v) {
			return nil, nil
		}
		return true, nil
	case CellType_Date:
		if tm, ok := ToTime(v); ok {
			return tm, nil
		}
		return nil, ErrConvert("«%v» to %v", v, t)
	case CellType_Link:
		switch x := v.(type) {
		case LinkRef:
			return x, nil
		case string:
			return LinkRef{ID: RecordID(x)}, nil
		}
		return nil, ErrConvert("«%v» to %v", v, t)
	}
	s := ToText(v)
	if s == "" {
		return nil, nil
	}
	return s, nil
}
