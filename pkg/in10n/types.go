/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package in10n

import (
	"strconv"

	"github.com/voedger/fieldflow/pkg/fielddef"
)

type ChannelID string

type SubjectLogin string

// Event sequence number, assigned by broker
type Offset uint64

type EventKind uint8

const (
	EventKind_null EventKind = iota

	// Field HasError flag changed
	EventKind_FieldErrorChanged

	// Computed cells of the record changed
	EventKind_RecordComputedValuesChanged

	// Field was created, converted or deleted by external writer
	EventKind_UpstreamFieldChanged

	// Record was created or its authored cells were changed by external writer
	EventKind_UpstreamRecordChanged

	// Record was deleted by external writer
	EventKind_UpstreamRecordDeleted

	EventKind_count
)

var eventKindNames = [EventKind_count]string{
	EventKind_null:                        "null",
	EventKind_FieldErrorChanged:           "FieldErrorChanged",
	EventKind_RecordComputedValuesChanged: "RecordComputedValuesChanged",
	EventKind_UpstreamFieldChanged:        "UpstreamFieldChanged",
	EventKind_UpstreamRecordChanged:       "UpstreamRecordChanged",
	EventKind_UpstreamRecordDeleted:       "UpstreamRecordDeleted",
}

func (k EventKind) String() string {
	if k < EventKind_count {
		return eventKindNames[k]
	}
	return "EventKind(" + strconv.FormatUint(uint64(k), 10) + ")"
}

// Returns is event is published by external writer
func (k EventKind) IsUpstream() bool {
	return k >= EventKind_UpstreamFieldChanged && k < EventKind_count
}

type Event struct {
	Kind   EventKind
	Offset Offset
	Table  fielddef.TableID

	// Changed field for field events
	Field fielddef.FieldID

	// New HasError value for FieldErrorChanged
	HasError bool

	// Changed record for record events
	Record fielddef.RecordID

	// RecordComputedValuesChanged: changed computed fields.
	// UpstreamRecordChanged: changed authored fields, empty if record is created
	Fields []fielddef.FieldID

	// UpstreamRecordDeleted: record content before deletion
	Record0 *fielddef.Record

	// UpstreamFieldChanged: field definition before change, nil if field is created
	Field0 *fielddef.Field
}

// Subscription topic. Empty table subscribes to events of all tables
type Topic struct {
	Kind  EventKind
	Table fielddef.TableID
}

func (t Topic) String() string {
	if t.Table == fielddef.NullTableID {
		return t.Kind.String()
	}
	return t.Kind.String() + "/" + string(t.Table)
}

// Returns topics which match event: exact one and all-tables one
func (e Event) Topics() []Topic {
	all := Topic{Kind: e.Kind}
	if e.Table == fielddef.NullTableID {
		return []Topic{all}
	}
	return []Topic{{Kind: e.Kind, Table: e.Table}, all}
}

type Quotas struct {
	Channels                int
	ChannelsPerSubject      int
	Subscriptions           int
	SubscriptionsPerSubject int
}
