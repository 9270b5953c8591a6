/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package istructs

import (
	"github.com/voedger/fieldflow/pkg/fielddef"
)

type QueryParams struct {
	// Records with specified ids only. All table records if empty
	IDs []fielddef.RecordID

	// Optional records filter
	Where func(*fielddef.Record) bool

	Offset int

	// Zero means no limit
	Limit int
}

type ComputedValues struct {
	Record fielddef.RecordID
	Values map[fielddef.FieldID]any
}

// Key of the junction relation: ordered pair of link field ids
type JunctionKey struct {
	Field1, Field2 fielddef.FieldID
}
