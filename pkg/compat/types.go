/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package compat

import (
	"strconv"

	"github.com/voedger/fieldflow/pkg/depgraph"
	"github.com/voedger/fieldflow/pkg/fielddef"
	"github.com/voedger/fieldflow/pkg/istructs"
)

// Incompatibility kind enumeration
type ResultKind uint8

const (
	ResultKind_null ResultKind = iota
	ResultKind_OK

	// Link, lookup, filter or formula target does not exist
	ResultKind_ReferenceMissing

	// Aggregation function or filter operator does not apply to source cell type
	ResultKind_TypeIncompatible

	// Expression can not be parsed or limit is out of range
	ResultKind_Invalid

	// Field which the field depends on is errored
	ResultKind_UpstreamErrored

	ResultKind_count
)

var resultKindNames = [ResultKind_count]string{
	ResultKind_null:             "null",
	ResultKind_OK:               "ok",
	ResultKind_ReferenceMissing: "referenceMissing",
	ResultKind_TypeIncompatible: "typeIncompatible",
	ResultKind_Invalid:          "invalid",
	ResultKind_UpstreamErrored:  "upstreamErrored",
}

func (k ResultKind) String() string {
	if k < ResultKind_count {
		return resultKindNames[k]
	}
	return "ResultKind(" + strconv.FormatUint(uint64(k), 10) + ")"
}

type Result struct {
	Field  fielddef.FieldID
	OK     bool
	Kind   ResultKind
	Reason string
}

type RenameResult struct {
	// Dependents with rewritten filter literals
	Fields []fielddef.FieldID

	// Records with rewritten cells
	Records []fielddef.RecordID
}

type validator struct {
	storage      istructs.IStorage
	graph        depgraph.IGraph
	maxArraySize int
}
