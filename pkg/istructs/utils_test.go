/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package istructs

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voedger/fieldflow/pkg/fielddef"
)

func TestNewJunctionKey(t *testing.T) {
	require := require.New(t)

	k1 := NewJunctionKey("fldB", "fldA")
	k2 := NewJunctionKey("fldA", "fldB")
	require.Equal(k1, k2)
	require.Equal("fldA_fldB", k1.String())

	self := NewJunctionKey("fldA", "fldA")
	require.Equal(self, NewJunctionKey("fldA", fielddef.NullFieldID))
	require.Equal("fldA", self.String())
}

func TestQueryParamsMatch(t *testing.T) {
	require := require.New(t)

	r := fielddef.NewRecord("tbl", "rec1")
	require.True(QueryParams{}.Match(r))

	p := QueryParams{Where: func(r *fielddef.Record) bool { return r.ID == "rec2" }}
	require.False(p.Match(r))
}
