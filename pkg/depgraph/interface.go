/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package depgraph

import (
	"github.com/voedger/fieldflow/pkg/fielddef"
)

// Dependency graph of fields.
//
// Edge From → To means field To depends on field From.
// Edges are derived from field options and formula expressions.
// Graph is acyclic: field which would introduce a cycle is rejected.
type IGraph interface {
	// Registers field and its dependency edges. If field is already registered then its edges are replaced.
	//
	// # Errors:
	//   - ErrCycleDetected if field depends on itself, directly or transitively,
	//   - ErrInvalid if formula expression can not be parsed.
	//
	// Graph is not changed if error is returned.
	AddField(*fielddef.Field) error

	// Checks field as AddField does, but does not change the graph
	CheckField(*fielddef.Field) error

	// Unregisters field and its dependency edges.
	//
	// Edges from removed field to its dependents are kept, so restoring
	// field with the same id re-attaches dependents.
	RemoveField(fielddef.FieldID)

	// Returns is field registered
	Has(fielddef.FieldID) bool

	// Returns direct dependencies of field, as derived from field options
	DependenciesOf(fielddef.FieldID) []fielddef.FieldID

	// Returns registered direct dependents of field, in creation order
	DependentsOf(fielddef.FieldID) []fielddef.FieldID

	// Returns registered transitive dependents of fields, in creation order.
	// Specified fields are included only if they depend on other specified fields
	Closure(...fielddef.FieldID) []fielddef.FieldID

	// Returns specified fields in topological order, each field after all its
	// dependencies from the set. Ties are broken by creation order.
	TopoOrder([]fielddef.FieldID) ([]fielddef.FieldID, error)

	// Returns all registered fields in creation order
	Fields() []fielddef.FieldID
}
