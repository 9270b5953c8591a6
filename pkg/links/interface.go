/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package links

import (
	"context"

	"github.com/voedger/fieldflow/pkg/fielddef"
)

// Relationship manager keeps link fields and their symmetric counterparts consistent.
//
// Link cells hold fielddef.LinkRef values. Two-way links are kept symmetric:
// if host record references foreign record through field F, then foreign record
// references host record through symmetric field of F.
//
// All methods are @ConcurrentAccess
type IManager interface {
	// Completes link options of the new host field, creates and saves
	// symmetric field (for two-way link) and host field.
	//
	// Returns symmetric field, nil for one-way link.
	//
	// # Errors:
	//   - ErrNotFound if host or foreign table does not exist,
	//   - ErrInvalid if field is not a valid link.
	CreateLink(ctx context.Context, host *fielddef.Field) (symmetric *fielddef.Field, err error)

	// Converts link field options. Cells which became illegal are pruned:
	// the most recently added link (highest offset in the cell array) wins.
	// Symmetric field is created, updated or deleted to match new options.
	//
	// New field definition is saved.
	ConvertLink(ctx context.Context, old, new *fielddef.Field) (ConvertResult, error)

	// Deletes link field with its symmetric counterpart and all their cells.
	//
	// Returns ids of deleted fields.
	// Dependent lookups and rollups are not deleted, caller marks them errored.
	DeleteLink(ctx context.Context, id fielddef.FieldID) (deleted []fielddef.FieldID, err error)

	// Clears all backlinks to the deleted record.
	// record is the snapshot of the deleted record.
	//
	// Returns changed cells of other records.
	OnRecordDeleted(ctx context.Context, table fielddef.TableID, record *fielddef.Record) ([]Change, error)

	// Resets title field of links which used deleted field to the foreign primary field.
	//
	// Returns ids of changed link fields.
	OnFieldDeleted(ctx context.Context, id fielddef.FieldID) ([]fielddef.FieldID, error)

	// Writes link cell of the host record and updates symmetric cells of foreign records.
	//
	// # Errors:
	//   - ErrDuplicateLink if target is already referenced through OneOne or OneMany link,
	//   - ErrReferenceMissing if target record does not exist,
	//   - ErrInvalid if many targets are written to single value cell.
	//
	// Returns changed cells, host record first.
	SetLinks(ctx context.Context, field fielddef.FieldID, record fielddef.RecordID, targets []fielddef.RecordID) ([]Change, error)
}
