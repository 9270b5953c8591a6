/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package engine

import (
	"context"

	"github.com/voedger/fieldflow/pkg/fielddef"
	"github.com/voedger/fieldflow/pkg/in10n"
)

// Computed-field propagation engine.
//
// Keeps computed cells (links titles, lookups, rollups, formulas) up to date on every
// structure or data change. Structural errors (cycles, duplicate links, invalid options)
// are returned synchronously and nothing is changed. Data level errors flag fields
// HasError and are published as FieldErrorChanged events.
//
// All methods are @ConcurrentAccess
type IEngine interface {
	ITables
	IFields
	IRecords

	// Consumes upstream events of external writers from broker until ctx is done
	Run(ctx context.Context, broker in10n.IN10nBroker) error

	Close()
}

type ITables interface {
	// Creates table with its primary field. Empty ids are allocated.
	CreateTable(ctx context.Context, table *fielddef.Table, primary *fielddef.Field) (*fielddef.Table, error)

	// Deletes table with its fields and records. Links to the table are deleted.
	// Errors: ErrNotFound
	DeleteTable(ctx context.Context, id fielddef.TableID) error
}

type IFields interface {
	// Errors: ErrNotFound
	Field(ctx context.Context, id fielddef.FieldID) (*fielddef.Field, error)

	// Returns table fields in creation order
	Fields(ctx context.Context, table fielddef.TableID) ([]*fielddef.Field, error)

	// Creates field and computes its values. Empty id is allocated.
	// Two-way link gets symmetric field on the foreign table.
	//
	// # Errors:
	//   - ErrAlreadyExists if field with the id exists,
	//   - ErrCycleDetected if field depends on itself,
	//   - ErrReferenceMissing, ErrTypeIncompatible, ErrLimitExceeded, ErrInvalid if options are wrong.
	CreateField(ctx context.Context, f *fielddef.Field) (*fielddef.Field, error)

	// Converts field to new kind, cell type or options. Values are coerced or recomputed.
	// Field is not changed if error is returned.
	ConvertField(ctx context.Context, f *fielddef.Field) (*fielddef.Field, error)

	// Deletes field. Dependents are flagged HasError until field is restored.
	// Errors: ErrNotFound, ErrInvalid for primary field
	DeleteField(ctx context.Context, id fielddef.FieldID) error

	// Restores deleted field definition with its id and order. Dependents are re-attached
	// and recomputed.
	RestoreField(ctx context.Context, f *fielddef.Field) (*fielddef.Field, error)

	// Creates copies of fields with ids rewritten by map, ref. fielddef.RemapIDs.
	// Fields are created in specified order.
	CopyFields(ctx context.Context, fields []*fielddef.Field, m fielddef.IDMap) ([]*fielddef.Field, error)

	// Renames choice of select field, cells and dependent filters follow the new name
	RenameChoice(ctx context.Context, field fielddef.FieldID, old, new string) error
}

type IRecords interface {
	// Errors: ErrNotFound
	Record(ctx context.Context, table fielddef.TableID, id fielddef.RecordID) (*fielddef.Record, error)

	// Returns table records in creation order
	Records(ctx context.Context, table fielddef.TableID) ([]*fielddef.Record, error)

	// Creates record with authored cells. Link cells hold target record ids.
	//
	// # Errors:
	//   - ErrNotFound if table or field does not exist,
	//   - ErrInvalid if computed cell is written,
	//   - ErrConvert if value does not match cell type,
	//   - ErrDuplicateLink, ErrReferenceMissing for wrong link targets.
	CreateRecord(ctx context.Context, table fielddef.TableID, cells map[fielddef.FieldID]any) (*fielddef.Record, error)

	// Updates authored cells of the record. Errors as for CreateRecord
	UpdateRecord(ctx context.Context, table fielddef.TableID, id fielddef.RecordID, cells map[fielddef.FieldID]any) (*fielddef.Record, error)

	// Deletes record and clears backlinks to it.
	// Errors: ErrNotFound
	DeleteRecord(ctx context.Context, table fielddef.TableID, id fielddef.RecordID) error

	// Replaces targets of the link cell.
	// Errors: ErrDuplicateLink, ErrReferenceMissing, ErrInvalid
	SetLinks(ctx context.Context, field fielddef.FieldID, record fielddef.RecordID, targets []fielddef.RecordID) error
}
