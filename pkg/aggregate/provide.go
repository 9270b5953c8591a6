/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package aggregate

import (
	"github.com/voedger/fieldflow/pkg/fielddef"
	"github.com/voedger/fieldflow/pkg/filter"
	"github.com/voedger/fieldflow/pkg/formula"
)

// Parses rollup expression like `sum({values})`.
//
// Returns ErrInvalid if expression is not a call of known aggregation function with single {values} argument.
func ParseExpression(text string) (Func, error) {
	name, args, err := formula.ParseCall(text)
	if err != nil {
		return "", err
	}
	fn := Func(name)
	if !fn.Valid() {
		return "", fielddef.ErrInvalid("unknown aggregation function «%s»", name)
	}
	if len(args) != 1 || args[0] != formula.ValuesRef {
		return "", fielddef.ErrInvalid("aggregation «%s» expects single {%s} argument", text, formula.ValuesRef)
	}
	return fn, nil
}

// Creates candidates selector for lookup options.
//
// Selector applies filter, then sort, then truncates to limit.
// If limit is not specified then maxArraySize is used.
//
// # Errors:
//   - ErrLimitExceeded if options limit exceeds maxArraySize,
//   - filter compilation errors, ref. filter.Compile.
//
// Sort by not existing field is ignored.
func NewSelector(opts *fielddef.LookupOptions, fields filter.FieldFunc, maxArraySize int) (*Selector, error) {
	return newSelector(opts, fields, maxArraySize)
}

// Selects candidates for host record from foreign records.
func Candidates(records []*fielddef.Record, host *fielddef.Record, opts *fielddef.LookupOptions, fields filter.FieldFunc, maxArraySize int) ([]*fielddef.Record, error) {
	s, err := newSelector(opts, fields, maxArraySize)
	if err != nil {
		return nil, err
	}
	return s.Select(records, host), nil
}

// Checks lookup limit against maximum array size
func CheckLimit(limit, maxArraySize int) error {
	if limit < 0 {
		return fielddef.ErrInvalid("negative limit %d", limit)
	}
	if limit > maxArraySize {
		return fielddef.ErrLimitExceeded("limit %d exceeds maximum %d", limit, maxArraySize)
	}
	return nil
}

// Drops sort and limit from options if aggregation function result does not depend on values order.
//
// Returns true if options were changed.
func DropOrdering(fn Func, opts *fielddef.LookupOptions) bool {
	if fn.IsArray() || (opts.Sort == nil && opts.Limit == 0) {
		return false
	}
	opts.Sort, opts.Limit = nil, 0
	return true
}
