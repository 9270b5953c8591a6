/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package recompute

import (
	"context"
	"strconv"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/voedger/fieldflow/pkg/compat"
	"github.com/voedger/fieldflow/pkg/depgraph"
	"github.com/voedger/fieldflow/pkg/fielddef"
	"github.com/voedger/fieldflow/pkg/formula"
	"github.com/voedger/fieldflow/pkg/in10n"
	"github.com/voedger/fieldflow/pkg/istructs"
	"github.com/voedger/fieldflow/pkg/links"
	"github.com/voedger/fieldflow/pkg/pipeline"
)

// Change event kind enumeration
type EventKind uint8

const (
	EventKind_null EventKind = iota

	// Authored cells of records changed
	EventKind_RecordChanged

	// Records created, all their cells are new
	EventKind_RecordCreated

	// Records deleted, backlinks are already cleared
	EventKind_RecordDeleted

	EventKind_FieldCreated
	EventKind_FieldConverted
	EventKind_FieldDeleted

	// Link cells changed
	EventKind_LinkChanged

	// Records set of the table changed
	EventKind_ForeignRecordsChanged

	EventKind_count
)

var eventKindNames = [EventKind_count]string{
	EventKind_null:                  "null",
	EventKind_RecordChanged:         "RecordChanged",
	EventKind_RecordCreated:         "RecordCreated",
	EventKind_RecordDeleted:         "RecordDeleted",
	EventKind_FieldCreated:          "FieldCreated",
	EventKind_FieldConverted:        "FieldConverted",
	EventKind_FieldDeleted:          "FieldDeleted",
	EventKind_LinkChanged:           "LinkChanged",
	EventKind_ForeignRecordsChanged: "ForeignRecordsChanged",
}

func (k EventKind) String() string {
	if k < EventKind_count {
		return eventKindNames[k]
	}
	return "EventKind(" + strconv.FormatUint(uint64(k), 10) + ")"
}

func (k EventKind) branch() string {
	switch k {
	case EventKind_RecordDeleted:
		return branch_Deleted
	case EventKind_FieldCreated, EventKind_FieldConverted, EventKind_FieldDeleted:
		return branch_Fields
	case EventKind_ForeignRecordsChanged:
		return branch_Table
	}
	return branch_Records
}

type Event struct {
	Kind EventKind

	// Field of field events
	Field fielddef.FieldID

	// Table of ForeignRecordsChanged event
	Table fielddef.TableID

	// Changed cells. Empty fields list means all cells of the record
	Changes []links.Change

	// Snapshots of deleted records
	Deleted []*fielddef.Record
}

// Event processing terminal state enumeration
type State uint8

const (
	State_null State = iota
	State_Committed
	State_PartiallyErrored

	State_count
)

var stateNames = [State_count]string{
	State_null:             "null",
	State_Committed:        "Committed",
	State_PartiallyErrored: "PartiallyErrored",
}

func (s State) String() string {
	if s < State_count {
		return stateNames[s]
	}
	return "State(" + strconv.FormatUint(uint64(s), 10) + ")"
}

type Result struct {
	State State

	// Fields in evaluation order
	Evaluated []fielddef.FieldID

	// Records with written computed cells, per table
	Written map[fielddef.TableID][]fielddef.RecordID

	// Fields flagged HasError by the event
	Errored []fielddef.FieldID

	// Fields with HasError cleared by the event
	Cleared []fielddef.FieldID
}

type Config struct {
	// Candidates cap of lookups and rollups, aggregate.DefaultMaxArraySize if zero
	MaxArraySize int

	// Records of one field evaluated in parallel, DefaultParallelism if zero
	Parallelism int

	// Parsed formulas cache size, DefaultFormulaCacheSize if zero
	FormulaCacheSize int
}

type scheduler struct {
	mu        sync.Mutex
	cfg       Config
	storage   istructs.IStorage
	graph     depgraph.IGraph
	validator compat.IValidator
	publisher in10n.IPublisher
	formulas  *lru.Cache[string, *formula.Expr]
	pipeline  pipeline.ISyncPipeline
}

// Work of the recompute pipeline: one event with its state
type workpiece struct {
	ctx   context.Context
	event Event

	// field definitions read during event processing, nil for not found
	fields map[fielddef.FieldID]*fielddef.Field
	// table fields read during event processing
	tableFields map[fielddef.TableID][]*fielddef.Field

	// records read during event processing with computed values applied
	records map[fielddef.TableID]map[fielddef.RecordID]*fielddef.Record
	// tables with all records read
	full map[fielddef.TableID]bool

	// records with changed field values
	changed map[fielddef.FieldID]map[fielddef.RecordID]bool
	// fields with all values changed
	changedAll map[fielddef.FieldID]bool
	// records to evaluate field for regardless of dependencies
	targets map[fielddef.FieldID]map[fielddef.RecordID]bool
	// fields to evaluate for all records
	targetAll map[fielddef.FieldID]bool

	order []fielddef.FieldID

	pending map[fielddef.TableID]map[fielddef.RecordID]map[fielddef.FieldID]any
	// tables in first-touch order
	touched []fielddef.TableID

	// HasError changes, in change order
	flags     map[fielddef.FieldID]bool
	flagOrder []fielddef.FieldID

	result Result
}
