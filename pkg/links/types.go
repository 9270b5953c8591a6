/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package links

import (
	"github.com/voedger/fieldflow/pkg/fielddef"
	"github.com/voedger/fieldflow/pkg/istructs"
)

// Changed cells of the record
type Change struct {
	Table  fielddef.TableID
	Record fielddef.RecordID
	Fields []fielddef.FieldID
}

type ConvertResult struct {
	// Created or updated symmetric field, nil if converted link is one-way
	Symmetric *fielddef.Field

	// Symmetric field deleted by conversion
	DeletedSymmetric fielddef.FieldID

	// Host records with pruned cells
	Pruned []fielddef.RecordID
}

type manager struct {
	storage istructs.IStorage
}

// Link field with its options and optional symmetric counterpart
type pair struct {
	field *fielddef.Field
	opts  *fielddef.LinkOptions
	sym   *fielddef.Field
}
