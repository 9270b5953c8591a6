/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package istructs

import (
	"github.com/voedger/fieldflow/pkg/fielddef"
)

// Returns junction key for link field pair. Pair is sorted so that both sides
// of the link, as well as both ends of a self link, give the same key
func NewJunctionKey(f1, f2 fielddef.FieldID) JunctionKey {
	if f2 == fielddef.NullFieldID || f2 == f1 {
		return JunctionKey{Field1: f1, Field2: f1}
	}
	if f2 < f1 {
		f1, f2 = f2, f1
	}
	return JunctionKey{Field1: f1, Field2: f2}
}

func (k JunctionKey) String() string {
	if k.Field1 == k.Field2 {
		return string(k.Field1)
	}
	return string(k.Field1) + "_" + string(k.Field2)
}

// Returns is the record passes query params filter
func (p QueryParams) Match(r *fielddef.Record) bool {
	return p.Where == nil || p.Where(r)
}
