/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package compat

import (
	"context"

	"github.com/voedger/fieldflow/pkg/fielddef"
)

// Compatibility validator decides whether computed fields may produce values.
//
// Errored field keeps its type and options but stops producing values
// until incompatibility is resolved.
type IValidator interface {
	// Checks field against current definitions of fields it refers to.
	//
	// Returns error if field can not be read.
	CheckField(ctx context.Context, id fielddef.FieldID) (Result, error)

	// Checks transitive dependents of field in dependency order.
	// Dependent of the incompatible field is reported as errored upstream.
	CheckDependents(ctx context.Context, id fielddef.FieldID) ([]Result, error)

	// Sets cell type and multiplicity of computed field from its sources.
	// Returns ReferenceMissing, TypeIncompatible or Invalid error if field can not be shaped.
	Shape(ctx context.Context, f *fielddef.Field) error

	// Renames choice of select field. Stored cells and filter literals of
	// dependents are rewritten.
	//
	// # Errors:
	//   - ErrNotFound if field or old choice does not exist,
	//   - ErrAlreadyExists if new choice exists,
	//   - ErrInvalid if field is not a select.
	RenameChoice(ctx context.Context, field fielddef.FieldID, old, new string) (RenameResult, error)

	// Removes sort from lookup options if sort field does not exist anymore.
	// Returns true if options were changed and saved.
	RepairMissingSort(ctx context.Context, id fielddef.FieldID) (bool, error)
}
