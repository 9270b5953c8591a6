/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package filter

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/voedger/fieldflow/pkg/fielddef"
)

const (
	tblFoo fielddef.TableID = "tblFoo"
	tblBar fielddef.TableID = "tblBar"

	fldTitle  fielddef.FieldID = "fldTitle"
	fldScore  fielddef.FieldID = "fldScore"
	fldStatus fielddef.FieldID = "fldStatus"
	fldTags   fielddef.FieldID = "fldTags"
	fldDue    fielddef.FieldID = "fldDue"
	fldDone   fielddef.FieldID = "fldDone"
	fldOwners fielddef.FieldID = "fldOwners"

	fldHostStatus fielddef.FieldID = "fldHostStatus"
	fldHostScore  fielddef.FieldID = "fldHostScore"
)

func testFields() FieldFunc {
	ff := map[fielddef.FieldID]*fielddef.Field{
		fldTitle:      {ID: fldTitle, Table: tblFoo, Kind: fielddef.FieldKind_Value, CellType: fielddef.CellType_Text},
		fldScore:      {ID: fldScore, Table: tblFoo, Kind: fielddef.FieldKind_Value, CellType: fielddef.CellType_Number},
		fldStatus:     {ID: fldStatus, Table: tblFoo, Kind: fielddef.FieldKind_Value, CellType: fielddef.CellType_SingleSelect},
		fldTags:       {ID: fldTags, Table: tblFoo, Kind: fielddef.FieldKind_Value, CellType: fielddef.CellType_MultipleSelect, IsMultiple: true},
		fldDue:        {ID: fldDue, Table: tblFoo, Kind: fielddef.FieldKind_Value, CellType: fielddef.CellType_Date},
		fldDone:       {ID: fldDone, Table: tblFoo, Kind: fielddef.FieldKind_Value, CellType: fielddef.CellType_Checkbox},
		fldOwners:     {ID: fldOwners, Table: tblFoo, Kind: fielddef.FieldKind_Link, CellType: fielddef.CellType_Link, IsMultiple: true},
		fldHostStatus: {ID: fldHostStatus, Table: tblBar, Kind: fielddef.FieldKind_Value, CellType: fielddef.CellType_SingleSelect},
		fldHostScore:  {ID: fldHostScore, Table: tblBar, Kind: fielddef.FieldKind_Value, CellType: fielddef.CellType_Number},
	}
	return func(id fielddef.FieldID) *fielddef.Field { return ff[id] }
}

func testRecord() *fielddef.Record {
	r := fielddef.NewRecord(tblFoo, "rec1")
	r.Set(fldTitle, "Alpha project")
	r.Set(fldScore, 10)
	r.Set(fldStatus, "Active")
	r.Set(fldTags, []string{"red", "green"})
	r.Set(fldDue, time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC))
	r.Set(fldOwners, []fielddef.LinkRef{{ID: "recU1", Title: "Ann"}, {ID: "recU2", Title: "Bob"}})
	return r
}

func TestItems(t *testing.T) {
	rec := testRecord()
	fields := testFields()

	tests := []struct {
		name string
		fld  fielddef.FieldID
		op   fielddef.Operator
		v    any
		want bool
	}{
		{"text is", fldTitle, fielddef.Operator_Is, "Alpha project", true},
		{"text is other", fldTitle, fielddef.Operator_Is, "Beta", false},
		{"text isNot", fldTitle, fielddef.Operator_IsNot, "Beta", true},
		{"text contains ignoring case", fldTitle, fielddef.Operator_Contains, "PROJ", true},
		{"text doesNotContain", fldTitle, fielddef.Operator_DoesNotContain, "zzz", true},
		{"number is", fldScore, fielddef.Operator_Is, "10", true},
		{"number isGreater", fldScore, fielddef.Operator_IsGreater, 5, true},
		{"number isGreater equal", fldScore, fielddef.Operator_IsGreater, 10, false},
		{"number isGreaterEqual", fldScore, fielddef.Operator_IsGreaterEqual, 10, true},
		{"number isLess", fldScore, fielddef.Operator_IsLess, 10.5, true},
		{"number isLessEqual", fldScore, fielddef.Operator_IsLessEqual, 9, false},
		{"select isAnyOf", fldStatus, fielddef.Operator_IsAnyOf, []string{"Done", "Active"}, true},
		{"select isNoneOf", fldStatus, fielddef.Operator_IsNoneOf, []string{"Done"}, true},
		{"multi hasAnyOf", fldTags, fielddef.Operator_HasAnyOf, []string{"blue", "green"}, true},
		{"multi hasAllOf", fldTags, fielddef.Operator_HasAllOf, []string{"red", "green"}, true},
		{"multi hasAllOf missed", fldTags, fielddef.Operator_HasAllOf, []string{"red", "blue"}, false},
		{"multi hasNoneOf", fldTags, fielddef.Operator_HasNoneOf, []string{"blue"}, true},
		{"multi isExactly", fldTags, fielddef.Operator_IsExactly, []string{"green", "red"}, true},
		{"multi isExactly subset", fldTags, fielddef.Operator_IsExactly, []string{"green"}, false},
		{"multi is membership", fldTags, fielddef.Operator_Is, "red", true},
		{"date is same day", fldDue, fielddef.Operator_Is, "2024-03-15", true},
		{"date isBefore", fldDue, fielddef.Operator_IsBefore, "2024-03-16", true},
		{"date isBefore same day", fldDue, fielddef.Operator_IsBefore, "2024-03-15", false},
		{"date isOnOrBefore", fldDue, fielddef.Operator_IsOnOrBefore, "2024-03-15", true},
		{"date isAfter", fldDue, fielddef.Operator_IsAfter, "2024-01-01", true},
		{"date isOnOrAfter", fldDue, fielddef.Operator_IsOnOrAfter, "2024-03-16", false},
		{"checkbox is false", fldDone, fielddef.Operator_Is, false, true},
		{"checkbox is true", fldDone, fielddef.Operator_Is, true, false},
		{"link is by title", fldOwners, fielddef.Operator_Is, "Bob", true},
		{"link hasAnyOf by id", fldOwners, fielddef.Operator_HasAnyOf, []string{"recU2"}, true},
		{"empty literal is not applied", fldTitle, fielddef.Operator_Is, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := fielddef.And(fielddef.Item(tt.fld, tt.op, fielddef.Literal(tt.v)))
			ok, err := Evaluate(set, rec, nil, fields)
			require.NoError(t, err)
			require.Equal(t, tt.want, ok)
		})
	}
}

func TestEmptiness(t *testing.T) {
	require := require.New(t)
	rec := testRecord()
	fields := testFields()

	ok, err := Evaluate(fielddef.And(fielddef.Item(fldDone, fielddef.Operator_IsEmpty, fielddef.FilterValue{})), rec, nil, fields)
	require.NoError(err)
	require.True(ok)

	ok, err = Evaluate(fielddef.And(fielddef.Item(fldTags, fielddef.Operator_IsNotEmpty, fielddef.FilterValue{})), rec, nil, fields)
	require.NoError(err)
	require.True(ok)

	rec.Set(fldTags, []string{})
	ok, err = Evaluate(fielddef.And(fielddef.Item(fldTags, fielddef.Operator_IsEmpty, fielddef.FilterValue{})), rec, nil, fields)
	require.NoError(err)
	require.True(ok)
}

func TestConjunctions(t *testing.T) {
	require := require.New(t)
	rec := testRecord()
	fields := testFields()

	t.Run("nil and empty sets match all", func(t *testing.T) {
		ok, err := Evaluate(nil, rec, nil, fields)
		require.NoError(err)
		require.True(ok)

		ok, err = Evaluate(fielddef.Or(), rec, nil, fields)
		require.NoError(err)
		require.True(ok)
	})

	t.Run("nested sets", func(t *testing.T) {
		set := fielddef.And(
			fielddef.Item(fldScore, fielddef.Operator_IsGreater, fielddef.Literal(1)),
			fielddef.Nested(fielddef.Or(
				fielddef.Item(fldStatus, fielddef.Operator_Is, fielddef.Literal("Done")),
				fielddef.Item(fldTitle, fielddef.Operator_Contains, fielddef.Literal("alpha")),
			)),
		)
		m, err := Compile(set, fields)
		require.NoError(err)
		require.True(m.Match(rec, nil))
		require.Equal("fldScore isGreater 1 AND (fldStatus is Done OR fldTitle contains alpha)", m.String())

		rec2 := rec.Clone()
		rec2.Set(fldTitle, "Gamma")
		require.False(m.Match(rec2, nil))
	})
}

func TestHostReferences(t *testing.T) {
	require := require.New(t)
	fields := testFields()
	rec := testRecord()

	host := fielddef.NewRecord(tblBar, "recHost")
	host.Set(fldHostStatus, "Active")
	host.Set(fldHostScore, 7)

	set := fielddef.And(
		fielddef.Item(fldStatus, fielddef.Operator_Is, fielddef.HostRef(fldHostStatus, tblBar)),
		fielddef.Item(fldScore, fielddef.Operator_IsGreater, fielddef.HostRef(fldHostScore, tblBar)),
	)
	m, err := Compile(set, fields)
	require.NoError(err)
	require.True(m.Match(rec, host))

	host.Set(fldHostScore, 70)
	require.False(m.Match(rec, host))

	t.Run("empty host value", func(t *testing.T) {
		host := fielddef.NewRecord(tblBar, "recEmpty")
		is, err := Compile(fielddef.And(fielddef.Item(fldStatus, fielddef.Operator_Is, fielddef.HostRef(fldHostStatus, tblBar))), fields)
		require.NoError(err)
		require.False(is.Match(rec, host))

		isNot, err := Compile(fielddef.And(fielddef.Item(fldStatus, fielddef.Operator_IsNot, fielddef.HostRef(fldHostStatus, tblBar))), fields)
		require.NoError(err)
		require.True(isNot.Match(rec, host))
	})

	t.Run("single host value against multiple cell is membership", func(t *testing.T) {
		host := fielddef.NewRecord(tblBar, "recTag")
		host.Set(fldHostStatus, "green")
		ok, err := Evaluate(fielddef.And(fielddef.Item(fldTags, fielddef.Operator_Is, fielddef.HostRef(fldHostStatus, tblBar))), rec, host, fields)
		require.NoError(err)
		require.True(ok)
	})
}

func TestCompileErrors(t *testing.T) {
	require := require.New(t)
	fields := testFields()

	_, err := Compile(fielddef.And(fielddef.Item("fldUnknown", fielddef.Operator_Is, fielddef.Literal(1))), fields)
	require.ErrorIs(err, fielddef.ErrReferenceMissingError)

	_, err = Compile(fielddef.And(fielddef.Item(fldTitle, fielddef.Operator_Is, fielddef.HostRef("fldGone", tblBar))), fields)
	require.ErrorIs(err, fielddef.ErrReferenceMissingError)

	_, err = Compile(fielddef.And(fielddef.Item(fldTitle, fielddef.Operator_IsGreater, fielddef.Literal(1))), fields)
	require.ErrorIs(err, fielddef.ErrTypeIncompatibleError)

	_, err = Compile(fielddef.And(fielddef.Item(fldTitle, "isSomething", fielddef.Literal(1))), fields)
	require.ErrorIs(err, fielddef.ErrInvalidError)

	err = Validate(&fielddef.FilterSet{Conjunction: "xor"}, fields)
	require.True(errors.Is(err, fielddef.ErrInvalidError))
}

func TestOperatorValid(t *testing.T) {
	require := require.New(t)

	require.True(OperatorValid(fielddef.Operator_IsGreater, fielddef.CellType_Number, false))
	require.True(OperatorValid(fielddef.Operator_IsGreater, fielddef.CellType_Number, true))
	require.False(OperatorValid(fielddef.Operator_IsGreater, fielddef.CellType_Text, false))
	require.True(OperatorValid(fielddef.Operator_IsBefore, fielddef.CellType_Date, false))
	require.False(OperatorValid(fielddef.Operator_IsBefore, fielddef.CellType_Number, false))
	require.True(OperatorValid(fielddef.Operator_IsAnyOf, fielddef.CellType_SingleSelect, false))
	require.False(OperatorValid(fielddef.Operator_IsAnyOf, fielddef.CellType_MultipleSelect, true))
	require.True(OperatorValid(fielddef.Operator_HasAllOf, fielddef.CellType_MultipleSelect, true))
	require.True(OperatorValid(fielddef.Operator_HasAnyOf, fielddef.CellType_Text, true))
	require.False(OperatorValid(fielddef.Operator_HasAnyOf, fielddef.CellType_Text, false))
	require.False(OperatorValid("unknown", fielddef.CellType_Text, false))

	ops := OperatorsFor(&fielddef.Field{CellType: fielddef.CellType_Checkbox})
	require.Equal([]fielddef.Operator{fielddef.Operator_Is, fielddef.Operator_IsNot, fielddef.Operator_IsEmpty, fielddef.Operator_IsNotEmpty}, ops)
}
