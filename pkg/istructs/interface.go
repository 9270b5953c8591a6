/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package istructs

import (
	"context"

	"github.com/voedger/fieldflow/pkg/fielddef"
)

// Storage collaborator of the engine: tables, fields, records,
// junction relations and uniqueness claims of one base.
//
// All methods are @ConcurrentAccess
type IStorage interface {
	ITables
	IFields
	IRecords
	IJunctions
	IClaims
}

type ITables interface {
	// Returns all tables ordered by name
	Tables(ctx context.Context) ([]*fielddef.Table, error)

	// Errors: ErrNotFound
	Table(ctx context.Context, id fielddef.TableID) (*fielddef.Table, error)

	SaveTable(ctx context.Context, table *fielddef.Table) error

	// Deletes table, its fields and records.
	// Errors: ErrNotFound
	DeleteTable(ctx context.Context, id fielddef.TableID) error
}

type IFields interface {
	// Returns field by id. Returned field is a copy and may be changed by caller.
	// Errors: ErrNotFound
	FieldMeta(ctx context.Context, id fielddef.FieldID) (*fielddef.Field, error)

	// Returns table fields ordered by creation order
	ListFields(ctx context.Context, table fielddef.TableID) ([]*fielddef.Field, error)

	// Creates or replaces field definition
	SaveField(ctx context.Context, field *fielddef.Field) error

	// Saves fields atomically
	SaveFields(ctx context.Context, fields ...*fielddef.Field) error

	// Deletes field definition. Cells of the field are not cleared.
	// Errors: ErrNotFound
	DeleteField(ctx context.Context, id fielddef.FieldID) error
}

type IRecords interface {
	// Errors: ErrNotFound
	GetRecord(ctx context.Context, table fielddef.TableID, id fielddef.RecordID) (*fielddef.Record, error)

	// Returns table records in creation order, filtered and paged by params
	QueryRecords(ctx context.Context, table fielddef.TableID, params QueryParams) ([]*fielddef.Record, error)

	// Creates or replaces record. New record gets next sequence number
	PutRecord(ctx context.Context, record *fielddef.Record) error

	// Atomic read-modify-write of the record.
	// update is called with record copy and may be called several times on concurrent changes.
	// Errors: ErrNotFound, error returned by update
	UpdateRecord(ctx context.Context, table fielddef.TableID, id fielddef.RecordID, update func(*fielddef.Record) error) (*fielddef.Record, error)

	// Errors: ErrNotFound
	DeleteRecord(ctx context.Context, table fielddef.TableID, id fielddef.RecordID) error

	// Writes computed cells of the record. Nil value clears the cell
	WriteComputedValues(ctx context.Context, table fielddef.TableID, id fielddef.RecordID, values map[fielddef.FieldID]any) error

	// Writes computed cells of many records of the table atomically.
	// Not existing records are skipped
	WriteComputedBatch(ctx context.Context, table fielddef.TableID, batch []ComputedValues) error
}

// Junction relations hold many-to-many link pairs
type IJunctions interface {
	// Returns junction name for the key, allocates new one if not exists
	EnsureJunction(ctx context.Context, key JunctionKey) (name string, err error)

	// Returns junction name, ok is false if junction does not exist
	Junction(ctx context.Context, key JunctionKey) (name string, ok bool, err error)

	DropJunction(ctx context.Context, key JunctionKey) error
}

// Uniqueness claims of link targets for OneOne and OneMany links.
// Claims are taken atomically: of two concurrent claimers exactly one succeeds
type IClaims interface {
	// Claims target record for owner record through link field.
	// Returns ok if claim is taken or is already held by owner, otherwise returns current holder
	Claim(ctx context.Context, field fielddef.FieldID, target, owner fielddef.RecordID) (ok bool, holder fielddef.RecordID, err error)

	// Releases claim if it is held by owner
	Release(ctx context.Context, field fielddef.FieldID, target, owner fielddef.RecordID) error

	// Returns claim holder, NullRecordID if target is not claimed
	Holder(ctx context.Context, field fielddef.FieldID, target fielddef.RecordID) (fielddef.RecordID, error)

	// Releases all claims of the link field
	ReleaseAll(ctx context.Context, field fielddef.FieldID) error
}
