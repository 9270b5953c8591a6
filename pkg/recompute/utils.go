/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package recompute

import (
	"slices"

	"github.com/voedger/fieldflow/pkg/fielddef"
)

func appendNew[T comparable](s []T, v T) []T {
	if slices.Contains(s, v) {
		return s
	}
	return append(s, v)
}

// Returns host and foreign fields the field value is computed from
func sides(f *fielddef.Field, refs []fielddef.FieldID) (host, foreign []fielddef.FieldID) {
	switch {
	case f.Link() != nil:
		return nil, f.Link().References()
	case f.Lookup() != nil:
		lo := f.Lookup()
		return lo.HostReferences(), lo.ForeignReferences()
	}
	return refs, nil
}

// Returns link field which selects foreign records for the field,
// NullFieldID if foreign records are selected by condition
func linkFieldOf(f *fielddef.Field) fielddef.FieldID {
	if f.Link() != nil {
		return f.ID
	}
	if lo := f.Lookup(); lo != nil {
		return lo.LinkField
	}
	return fielddef.NullFieldID
}

// Returns foreign table of link or lookup field
func foreignTableOf(f *fielddef.Field) fielddef.TableID {
	if o := f.Link(); o != nil {
		return o.ForeignTable
	}
	if lo := f.Lookup(); lo != nil {
		return lo.ForeignTable
	}
	return fielddef.NullTableID
}
