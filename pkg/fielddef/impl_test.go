/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package fielddef

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRelationship_Inverse(t *testing.T) {
	require := require.New(t)

	require.Equal(Relationship_ManyOne, Relationship_OneMany.Inverse())
	require.Equal(Relationship_OneMany, Relationship_ManyOne.Inverse())
	require.Equal(Relationship_OneOne, Relationship_OneOne.Inverse())
	require.Equal(Relationship_ManyMany, Relationship_ManyMany.Inverse())

	require.True(Relationship_OneMany.IsMultiple())
	require.False(Relationship_ManyOne.IsMultiple())
	require.True(Relationship_OneOne.IsUniqueTarget())
	require.False(Relationship_ManyMany.IsUniqueTarget())
}

func TestEnum_UnmarshalText(t *testing.T) {
	require := require.New(t)

	var k FieldKind
	require.NoError(k.UnmarshalText([]byte("conditionalRollup")))
	require.Equal(FieldKind_ConditionalRollup, k)

	var r Relationship
	require.NoError(r.UnmarshalText([]byte("manyMany")))
	require.Equal(Relationship_ManyMany, r)

	var c CellType
	err := c.UnmarshalText([]byte("unknown"))
	require.ErrorIs(err, ErrConvertError)
}

func TestIsEmpty(t *testing.T) {
	tests := []struct {
		v    any
		want bool
	}{
		{nil, true},
		{"", true},
		{[]any{}, true},
		{[]any{nil, ""}, true},
		{"a", false},
		{0.0, false},
		{false, false},
		{[]any{nil, "x"}, false},
	}
	require := require.New(t)
	for i, test := range tests {
		require.Equal(test.want, IsEmpty(test.v), "test %d", i)
	}
}

func TestCoerce(t *testing.T) {
	require := require.New(t)

	v, err := Coerce("42", CellType_Number, false)
	require.NoError(err)
	require.Equal(42.0, v)

	_, err = Coerce("abc", CellType_Number, false)
	require.ErrorIs(err, ErrConvertError)

	v, err = Coerce([]string{"a", "b"}, CellType_MultipleSelect, false)
	require.NoError(err)
	require.Equal([]any{"a", "b"}, v)

	v, err = Coerce("2024-05-01", CellType_Date, false)
	require.NoError(err)
	require.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), v)

	v, err = Coerce(false, CellType_Checkbox, false)
	require.NoError(err)
	require.Nil(v, "unchecked checkbox is empty")
}

func TestEqual(t *testing.T) {
	require := require.New(t)

	require.True(Equal(1, 1.0))
	require.True(Equal(nil, ""))
	require.False(Equal([]any{"a", 1}, []string{"a", "1"}))
	require.True(Equal([]any{"a", 1.0}, []any{"a", 1}))
	require.True(Equal(LinkRef{ID: "rec1", Title: "A"}, LinkRef{ID: "rec1", Title: "A"}))
	require.False(Equal(LinkRef{ID: "rec1", Title: "A"}, LinkRef{ID: "rec1", Title: "B"}))
}

func TestRecord_JSON(t *testing.T) {
	require := require.New(t)

	r := NewRecord("tbl1", "rec1")
	r.Seq = 7
	r.Set("fldText", "hello")
	r.Set("fldNum", 10)
	r.Set("fldDate", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	r.Set("fldLink", []LinkRef{{ID: "rec2", Title: "Two"}})
	r.Set("fldEmpty", nil)

	data, err := json.Marshal(r)
	require.NoError(err)

	got := &Record{}
	require.NoError(json.Unmarshal(data, got))
	require.Equal(r.ID, got.ID)
	require.Equal(r.Seq, got.Seq)
	require.Len(got.Cells, 4)
	for f, v := range r.Cells {
		require.True(Equal(v, got.Cells[f]), "field %v", f)
	}
}

func TestField_JSON(t *testing.T) {
	require := require.New(t)

	f := &Field{
		ID:       "fldRollup",
		Table:    "tblHost",
		Name:     "Top scores",
		Kind:     FieldKind_ConditionalRollup,
		CellType: CellType_Text,
		Options: &ConditionalRollupOptions{
			LookupOptions: LookupOptions{
				ForeignTable: "tblForeign",
				LookupField:  "fldName",
				Filter: And(
					Item("fldStatus", Operator_Is, Literal("Active")),
					Nested(Or(
						Item("fldTitle", Operator_Is, HostRef("fldHostTitle", "tblHost")),
						Item("fldScore", Operator_IsGreater, Literal(10)),
					)),
				),
				Sort:  &SortSpec{FieldID: "fldScore", Order: SortOrder_Desc},
				Limit: 2,
			},
			Expression: "array_compact({values})",
		},
	}

	data, err := json.Marshal(f)
	require.NoError(err)

	got := &Field{}
	require.NoError(json.Unmarshal(data, got))
	require.Equal(f.Kind, got.Kind)
	require.Equal(f.Options, got.Options)
	require.Equal([]FieldID{"fldName", "fldStatus", "fldTitle", "fldScore", "fldHostTitle"}, got.References())
}

func TestField_Remap(t *testing.T) {
	require := require.New(t)

	f := &Field{
		ID:    "fldLookup",
		Table: "tblA",
		Kind:  FieldKind_Lookup,
		Options: &LookupOptions{
			ForeignTable: "tblB",
			LinkField:    "fldLink",
			LookupField:  "fldName",
			Filter:       And(Item("fldName", Operator_Is, HostRef("fldKey", "tblA"))),
		},
	}
	m := IDMap{
		Fields: map[FieldID]FieldID{"fldLookup": "fldLookup2", "fldLink": "fldLink2", "fldName": "fldName2", "fldKey": "fldKey2"},
		Tables: map[TableID]TableID{"tblA": "tblA2", "tblB": "tblB2"},
	}

	c := f.Remap(m)
	require.Equal(FieldID("fldLookup2"), c.ID)
	require.Equal(TableID("tblA2"), c.Table)
	lo := c.Lookup()
	require.Equal(TableID("tblB2"), lo.ForeignTable)
	require.Equal([]FieldID{"fldName2", "fldLink2", "fldKey2"}, lo.References())
	require.Equal(TableID("tblA2"), lo.Filter.Entries[0].Item.Value.Ref.TableID)

	require.Equal(FieldID("fldLink"), f.Lookup().LinkField, "source field must not be changed")
}

func TestField_Validate(t *testing.T) {
	require := require.New(t)

	f := &Field{ID: "fld1", Table: "tbl1", Kind: FieldKind_Rollup, Options: &RollupOptions{
		LookupOptions: LookupOptions{ForeignTable: "tbl2", LookupField: "fld2"},
		Expression:    "sum({values})",
	}}
	err := f.Validate()
	require.ErrorIs(err, ErrInvalidError, "rollup without link")

	f.Options = &LinkOptions{ForeignTable: "tbl2", Relationship: Relationship_ManyOne}
	err = f.Validate()
	require.True(errors.Is(err, ErrInvalidError), "options kind mismatch")

	f.Kind = FieldKind_Link
	require.NoError(f.Validate())
}

func TestFormatting(t *testing.T) {
	require := require.New(t)

	require.Equal("15.00", (&Formatting{Type: FormattingType_Decimal, Precision: 2}).Format(15))
	require.Equal("25%", (&Formatting{Type: FormattingType_Percent}).Format(0.25))
	require.Equal("$3.5", (&Formatting{Type: FormattingType_Currency, Precision: 1, Symbol: "$"}).Format(3.5))
	require.Equal("abc", (*Formatting)(nil).Format("abc"))
}
