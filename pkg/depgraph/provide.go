/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package depgraph

import (
	"github.com/voedger/fieldflow/pkg/fielddef"
)

// Returns new empty dependency graph. Graph is safe for concurrent use.
func New() IGraph {
	return newGraph()
}

// Returns direct dependencies of field derived from its options and formula expression.
//
// Returns ErrInvalid if formula can not be parsed.
func Dependencies(f *fielddef.Field) ([]fielddef.FieldID, error) {
	return dependencies(f)
}
