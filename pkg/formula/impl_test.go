/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package formula

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/voedger/fieldflow/pkg/fielddef"
)

func row(values map[fielddef.FieldID]any) Bindings {
	return func(id fielddef.FieldID) (any, bool) {
		v, ok := values[id]
		return v, ok
	}
}

func TestEval(t *testing.T) {
	b := row(map[fielddef.FieldID]any{
		"fldPrice": 10.5,
		"fldQty":   3,
		"fldName":  "Widget",
		"fldEmpty": nil,
		"fldDone":  true,
		"fldDate":  time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		"fldTags":  []any{"a", "b"},
	})

	tests := []struct {
		text string
		want any
	}{
		{"1 + 2 * 3", 7.0},
		{"(1 + 2) * 3", 9.0},
		{"0.1 + 0.2", 0.3},
		{"-{fldPrice}", -10.5},
		{"{fldPrice} * {fldQty}", 31.5},
		{"{fldPrice} / 0", nil},
		{"{fldEmpty} + 1", 1.0},
		{"{fldName} & \" x\" & {fldQty}", "Widget x3"},
		{"{fldQty} > 2", true},
		{"{fldQty} = '3'", true},
		{"{fldName} != 'Widget'", false},
		{"{fldEmpty} = BLANK()", true},
		{"{fldEmpty} <> ''", false},
		{"{fldDate} < '2024-03-16'", true},
		{"IF({fldDone}, 'yes', 'no')", "yes"},
		{"if(not({fldDone}), 'yes')", nil},
		{"AND({fldDone}, {fldQty} > 1)", true},
		{"OR(FALSE, {fldEmpty})", false},
		{"SUM({fldPrice}, {fldQty}, 'x', {fldEmpty})", 13.5},
		{"AVERAGE(1, 2, 6)", 3.0},
		{"AVERAGE({fldEmpty})", nil},
		{"MAX(1, 7, 3)", 7.0},
		{"MIN(4, {fldQty})", 3.0},
		{"CONCATENATE({fldName}, '-', {fldTags})", "Widget-a, b"},
		{"LEN('héllo')", 5.0},
		{"UPPER({fldName})", "WIDGET"},
		{"LOWER({fldName})", "widget"},
		{"ROUND(2.345, 2)", 2.35},
		{"ROUND(2.5)", 3.0},
		{"ABS(-4)", 4.0},
		{"IS_BLANK({fldEmpty})", true},
		{"IS_BLANK({fldName})", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			e, err := Parse(tt.text)
			require.NoError(t, err)
			v, err := e.Eval(b)
			require.NoError(t, err)
			require.Equal(t, tt.want, v)
		})
	}
}

func TestEvalErrors(t *testing.T) {
	require := require.New(t)
	b := row(map[fielddef.FieldID]any{"fldName": "Widget"})

	_, err := MustParse("{fldGone} + 1").Eval(b)
	require.ErrorIs(err, fielddef.ErrReferenceMissingError)

	_, err = MustParse("{fldName} * 2").Eval(b)
	require.ErrorIs(err, fielddef.ErrTypeIncompatibleError)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		text string
		err  error
	}{
		{"1 +", ErrSyntax},
		{"(1", ErrSyntax},
		{"FOO(1)", ErrUnknownFunction},
		{"IF(1)", ErrArgumentCount},
		{"NOT(1, 2)", ErrArgumentCount},
		{"SUM(1, BLANK(2))", ErrArgumentCount},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			_, err := Parse(tt.text)
			require.ErrorIs(t, err, tt.err)
			require.True(t, errors.Is(err, fielddef.ErrInvalidError))
		})
	}
}

func TestRefs(t *testing.T) {
	require := require.New(t)

	e := MustParse("IF({fldA} > {fldB}, {fldA} & {fldC}, -{fldB})")
	require.Equal([]fielddef.FieldID{"fldA", "fldB", "fldC"}, e.Refs())
	require.Equal("IF({fldA} > {fldB}, {fldA} & {fldC}, -{fldB})", e.String())

	t.Run("rewrite refs", func(t *testing.T) {
		r := e.RewriteRefs(map[fielddef.FieldID]fielddef.FieldID{"fldA": "fldX", "fldC": "fldY"})
		require.Equal([]fielddef.FieldID{"fldX", "fldB", "fldY"}, r.Refs())
		require.Equal("IF({fldX} > {fldB}, {fldX} & {fldY}, -{fldB})", r.Text())
		require.Equal([]fielddef.FieldID{"fldA", "fldB", "fldC"}, e.Refs(), "source expression must not be changed")
	})

	t.Run("remap text", func(t *testing.T) {
		text, err := RemapText("sum( {fldA} ) + 'a'", fielddef.IDMap{Fields: map[fielddef.FieldID]fielddef.FieldID{"fldA": "fldZ"}})
		require.NoError(err)
		require.Equal(`SUM({fldZ}) + "a"`, text)
	})
}

func TestFunc(t *testing.T) {
	require := require.New(t)

	name, ok := MustParse("sum({values})").Func()
	require.True(ok)
	require.Equal("SUM", name)
	require.Equal([]fielddef.FieldID{ValuesRef}, MustParse("sum({values})").Refs())

	_, ok = MustParse("sum({values}) + 1").Func()
	require.False(ok)

	_, ok = MustParse("{fldA}").Func()
	require.False(ok)
}

func TestResultType(t *testing.T) {
	types := func(id fielddef.FieldID) fielddef.CellType {
		if id == "fldDate" {
			return fielddef.CellType_Date
		}
		return fielddef.CellType_null
	}
	tests := []struct {
		text string
		want fielddef.CellType
	}{
		{"1 + {fldA}", fielddef.CellType_Number},
		{"{fldA} & 'x'", fielddef.CellType_Text},
		{"{fldA} > 1", fielddef.CellType_Checkbox},
		{"{fldDate}", fielddef.CellType_Date},
		{"({fldDate})", fielddef.CellType_Date},
		{"{fldUnknown}", fielddef.CellType_Text},
		{"IF(TRUE, 1, 2)", fielddef.CellType_Number},
		{"NOT(TRUE)", fielddef.CellType_Checkbox},
		{"UPPER('a')", fielddef.CellType_Text},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			require.Equal(t, tt.want, MustParse(tt.text).ResultType(types))
		})
	}
}

func TestParseCall(t *testing.T) {
	require := require.New(t)

	name, args, err := ParseCall("COUNTALL({values})")
	require.NoError(err)
	require.Equal("countall", name)
	require.Equal([]fielddef.FieldID{ValuesRef}, args)

	_, _, err = ParseCall("sum({values}) + 1")
	require.ErrorIs(err, fielddef.ErrInvalidError)

	_, _, err = ParseCall("sum(1)")
	require.ErrorIs(err, fielddef.ErrInvalidError)

	_, _, err = ParseCall("sum(")
	require.ErrorIs(err, ErrSyntax)
}
