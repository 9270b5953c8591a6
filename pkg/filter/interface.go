/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package filter

import (
	"github.com/voedger/fieldflow/pkg/fielddef"
)

// Returns field by id, nil if field is not found
type FieldFunc func(fielddef.FieldID) *fielddef.Field

// Compiled filter set.
//
// Ref. Compile to obtain matcher
type IMatcher interface {
	// Returns is candidate record matched.
	//
	// Field references in item values are resolved against host record.
	Match(candidate, host *fielddef.Record) bool

	String() string
}
