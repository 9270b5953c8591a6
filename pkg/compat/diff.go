/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package compat

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/voedger/fieldflow/pkg/fielddef"
)

// Definition change of converted field
type Change struct {
	KindChanged     bool
	CellTypeChanged bool
	OptionsChanged  bool

	// Human readable options diff, empty if options are equal
	Diff string
}

// Returns is values of field must be recomputed or cleared after conversion
func (c Change) AffectsValues() bool {
	return c.KindChanged || c.CellTypeChanged || c.OptionsChanged
}

// Compares old and new field definitions. Presentation properties are not compared
func Compare(old, new *fielddef.Field) Change {
	c := Change{
		KindChanged:     old.Kind != new.Kind,
		CellTypeChanged: old.CellType != new.CellType || old.IsMultiple != new.IsMultiple,
	}
	if !cmp.Equal(old.Options, new.Options, cmpopts.EquateEmpty()) {
		c.OptionsChanged = true
		c.Diff = cmp.Diff(old.Options, new.Options, cmpopts.EquateEmpty())
	}
	return c
}
