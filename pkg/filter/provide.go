/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package filter

import (
	"github.com/voedger/fieldflow/pkg/fielddef"
)

// Compiles filter set into matcher.
//
// Nil or empty set matches all records.
//
// # Errors:
//   - ErrReferenceMissing if item field is not found,
//   - ErrTypeIncompatible if item operator can not be applied to field cell type,
//   - ErrInvalid if operator is unknown or conjunction is invalid.
func Compile(set *fielddef.FilterSet, fields FieldFunc) (IMatcher, error) {
	if set == nil {
		return trueMatcher{}, nil
	}
	return compileSet(set, fields)
}

// Evaluates filter set against candidate record, resolving field references against host record
func Evaluate(set *fielddef.FilterSet, candidate, host *fielddef.Record, fields FieldFunc) (bool, error) {
	m, err := Compile(set, fields)
	if err != nil {
		return false, err
	}
	return m.Match(candidate, host), nil
}

// Checks filter set items against fields. Returns first found error.
func Validate(set *fielddef.FilterSet, fields FieldFunc) error {
	_, err := Compile(set, fields)
	return err
}
