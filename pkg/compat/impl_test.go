/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package compat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voedger/fieldflow/pkg/depgraph"
	"github.com/voedger/fieldflow/pkg/fielddef"
	"github.com/voedger/fieldflow/pkg/istorage"
	"github.com/voedger/fieldflow/pkg/istorage/mem"
	"github.com/voedger/fieldflow/pkg/istructs"
	"github.com/voedger/fieldflow/pkg/istructsmem"
)

const (
	tblOrders fielddef.TableID = "tblOrders"
	tblItems  fielddef.TableID = "tblItems"

	fldOrderName fielddef.FieldID = "fldOrderName"
	fldItems     fielddef.FieldID = "fldItems"
	fldTotal     fielddef.FieldID = "fldTotal"
	fldOpenNames fielddef.FieldID = "fldOpenNames"
	fldLabel     fielddef.FieldID = "fldLabel"

	fldItemName fielddef.FieldID = "fldItemName"
	fldQty      fielddef.FieldID = "fldQty"
	fldStatus   fielddef.FieldID = "fldStatus"
)

type testEnv struct {
	ctx       context.Context
	storage   istructs.IStorage
	graph     depgraph.IGraph
	validator IValidator
}

func newTestEnv(t *testing.T) *testEnv {
	require := require.New(t)
	ctx := context.Background()

	storage, err := istructsmem.Open(mem.Provide(), istorage.MustSafeName("compat"), 0)
	require.NoError(err)
	require.NoError(storage.SaveTable(ctx, &fielddef.Table{ID: tblOrders, Name: "Orders"}))
	require.NoError(storage.SaveTable(ctx, &fielddef.Table{ID: tblItems, Name: "Items"}))

	fields := []*fielddef.Field{
		{ID: fldItemName, Table: tblItems, Name: "Name", Kind: fielddef.FieldKind_Value, CellType: fielddef.CellType_Text, IsPrimary: true, Order: 1},
		{ID: fldQty, Table: tblItems, Name: "Qty", Kind: fielddef.FieldKind_Value, CellType: fielddef.CellType_Number, Order: 2},
		{ID: fldStatus, Table: tblItems, Name: "Status", Kind: fielddef.FieldKind_Value, CellType: fielddef.CellType_SingleSelect, Order: 3,
			Options: &fielddef.ValueOptions{Choices: []fielddef.Choice{{Name: "Open"}, {Name: "Done"}}}},
		{ID: fldOrderName, Table: tblOrders, Name: "Name", Kind: fielddef.FieldKind_Value, CellType: fielddef.CellType_Text, IsPrimary: true, Order: 4},
		{ID: fldItems, Table: tblOrders, Name: "Items", Kind: fielddef.FieldKind_Link, CellType: fielddef.CellType_Link, IsMultiple: true, Order: 5,
			Options: &fielddef.LinkOptions{Relationship: fielddef.Relationship_ManyMany, ForeignTable: tblItems, LookupField: fldItemName}},
		{ID: fldTotal, Table: tblOrders, Name: "Total", Kind: fielddef.FieldKind_Rollup, CellType: fielddef.CellType_Number, Order: 6,
			Options: &fielddef.RollupOptions{
				LookupOptions: fielddef.LookupOptions{ForeignTable: tblItems, LinkField: fldItems, LookupField: fldQty,
					Filter: fielddef.And(fielddef.Item(fldQty, fielddef.Operator_IsGreater, fielddef.Literal(0)))},
				Expression: "sum({values})",
			}},
		{ID: fldOpenNames, Table: tblOrders, Name: "Open items", Kind: fielddef.FieldKind_Lookup, Order: 7,
			Options: &fielddef.LookupOptions{ForeignTable: tblItems, LinkField: fldItems, LookupField: fldItemName,
				Filter: fielddef.And(fielddef.Item(fldStatus, fielddef.Operator_Is, fielddef.Literal("Open"))),
				Sort:   &fielddef.SortSpec{FieldID: fldQty, Order: fielddef.SortOrder_Desc}}},
		{ID: fldLabel, Table: tblOrders, Name: "Label", Kind: fielddef.FieldKind_Formula, Order: 8,
			Options: &fielddef.FormulaOptions{Expression: "{fldOrderName} & \": \" & {fldTotal}"}},
	}

	e := &testEnv{ctx: ctx, storage: storage, graph: depgraph.New()}
	e.validator = Provide(storage, e.graph, 0)
	for _, f := range fields {
		require.NoError(e.validator.Shape(ctx, f), f.ID)
		require.NoError(storage.SaveField(ctx, f))
		require.NoError(e.graph.AddField(f))
	}
	return e
}

func TestShape(t *testing.T) {
	require := require.New(t)
	e := newTestEnv(t)

	lookup, err := e.storage.FieldMeta(e.ctx, fldOpenNames)
	require.NoError(err)
	require.Equal(fielddef.CellType_Text, lookup.CellType)
	require.True(lookup.IsMultiple)
	require.True(lookup.IsLookup)
	require.False(lookup.IsConditionalLookup)

	label, err := e.storage.FieldMeta(e.ctx, fldLabel)
	require.NoError(err)
	require.Equal(fielddef.CellType_Text, label.CellType)

	t.Run("Should drop sort and limit of scalar aggregation", func(t *testing.T) {
		f := &fielddef.Field{ID: "fldMax", Table: tblOrders, Kind: fielddef.FieldKind_Rollup,
			Options: &fielddef.RollupOptions{
				LookupOptions: fielddef.LookupOptions{ForeignTable: tblItems, LinkField: fldItems, LookupField: fldQty,
					Sort: &fielddef.SortSpec{FieldID: fldQty}, Limit: 2},
				Expression: "max({values})",
			}}
		require.NoError(e.validator.Shape(e.ctx, f))
		require.Nil(f.Lookup().Sort)
		require.Zero(f.Lookup().Limit)
		require.Equal(fielddef.CellType_Number, f.CellType)
		require.False(f.IsMultiple)
	})

	t.Run("Should keep sort and limit of array aggregation", func(t *testing.T) {
		f := &fielddef.Field{ID: "fldNames", Table: tblOrders, Kind: fielddef.FieldKind_Rollup,
			Options: &fielddef.RollupOptions{
				LookupOptions: fielddef.LookupOptions{ForeignTable: tblItems, LinkField: fldItems, LookupField: fldItemName,
					Sort: &fielddef.SortSpec{FieldID: fldItemName}, Limit: 2},
				Expression: "array_unique({values})",
			}}
		require.NoError(e.validator.Shape(e.ctx, f))
		require.NotNil(f.Lookup().Sort)
		require.Equal(2, f.Lookup().Limit)
		require.True(f.IsMultiple)
	})

	t.Run("Should reject sum of text values", func(t *testing.T) {
		f := &fielddef.Field{ID: "fldBad", Table: tblOrders, Kind: fielddef.FieldKind_Rollup,
			Options: &fielddef.RollupOptions{
				LookupOptions: fielddef.LookupOptions{ForeignTable: tblItems, LinkField: fldItems, LookupField: fldItemName},
				Expression:    "sum({values})",
			}}
		require.ErrorIs(e.validator.Shape(e.ctx, f), fielddef.ErrTypeIncompatibleError)
	})

	t.Run("Should reject limit above maximum array size", func(t *testing.T) {
		f := &fielddef.Field{ID: "fldBig", Table: tblOrders, Kind: fielddef.FieldKind_Lookup,
			Options: &fielddef.LookupOptions{ForeignTable: tblItems, LinkField: fldItems, LookupField: fldItemName, Limit: 10000}}
		require.ErrorIs(e.validator.Shape(e.ctx, f), fielddef.ErrLimitExceededError)
	})

	t.Run("Should reject missing lookup field", func(t *testing.T) {
		f := &fielddef.Field{ID: "fldMissing", Table: tblOrders, Kind: fielddef.FieldKind_Lookup,
			Options: &fielddef.LookupOptions{ForeignTable: tblItems, LinkField: fldItems, LookupField: "fldX"}}
		require.ErrorIs(e.validator.Shape(e.ctx, f), fielddef.ErrReferenceMissingError)
	})
}

func TestCheckField(t *testing.T) {
	t.Run("Should pass valid fields", func(t *testing.T) {
		require := require.New(t)
		e := newTestEnv(t)
		for _, id := range []fielddef.FieldID{fldItems, fldTotal, fldOpenNames, fldLabel} {
			res, err := e.validator.CheckField(e.ctx, id)
			require.NoError(err)
			require.True(res.OK, res)
			require.NoError(res.Err())
		}
	})

	t.Run("Should report incompatible aggregation after source type change", func(t *testing.T) {
		require := require.New(t)
		e := newTestEnv(t)
		qty, err := e.storage.FieldMeta(e.ctx, fldQty)
		require.NoError(err)
		qty.CellType = fielddef.CellType_Text
		require.NoError(e.storage.SaveField(e.ctx, qty))

		res, err := e.validator.CheckField(e.ctx, fldTotal)
		require.NoError(err)
		require.False(res.OK)
		require.Equal(ResultKind_TypeIncompatible, res.Kind)
		require.ErrorIs(res.Err(), fielddef.ErrTypeIncompatibleError)
	})

	t.Run("Should report missing link and errored dependents", func(t *testing.T) {
		require := require.New(t)
		e := newTestEnv(t)
		require.NoError(e.storage.DeleteField(e.ctx, fldItems))
		e.graph.RemoveField(fldItems)

		res, err := e.validator.CheckDependents(e.ctx, fldItems)
		require.NoError(err)
		require.Len(res, 3)

		byID := make(map[fielddef.FieldID]Result)
		for _, r := range res {
			byID[r.Field] = r
		}
		require.Equal(ResultKind_ReferenceMissing, byID[fldTotal].Kind)
		require.Equal(ResultKind_ReferenceMissing, byID[fldOpenNames].Kind)
		require.Equal(ResultKind_UpstreamErrored, byID[fldLabel].Kind)
	})

	t.Run("Should report filter operator not applicable anymore", func(t *testing.T) {
		require := require.New(t)
		e := newTestEnv(t)
		qty, err := e.storage.FieldMeta(e.ctx, fldQty)
		require.NoError(err)
		qty.CellType = fielddef.CellType_Checkbox
		require.NoError(e.storage.SaveField(e.ctx, qty))

		res, err := e.validator.CheckField(e.ctx, fldTotal)
		require.NoError(err)
		require.Equal(ResultKind_TypeIncompatible, res.Kind)
	})

	t.Run("Should return error for unknown field", func(t *testing.T) {
		require := require.New(t)
		e := newTestEnv(t)
		_, err := e.validator.CheckField(e.ctx, "fldX")
		require.ErrorIs(err, fielddef.ErrNotFoundError)
	})
}

func TestRenameChoice(t *testing.T) {
	require := require.New(t)
	e := newTestEnv(t)

	for i, status := range []string{"Open", "Done", "Open"} {
		r := fielddef.NewRecord(tblItems, fielddef.RecordID("recI"+string(rune('1'+i))))
		r.Set(fldStatus, status)
		require.NoError(e.storage.PutRecord(e.ctx, r))
	}

	res, err := e.validator.RenameChoice(e.ctx, fldStatus, "Open", "Active")
	require.NoError(err)
	require.Equal([]fielddef.RecordID{"recI1", "recI3"}, res.Records)
	require.Equal([]fielddef.FieldID{fldOpenNames}, res.Fields)

	r, err := e.storage.GetRecord(e.ctx, tblItems, "recI3")
	require.NoError(err)
	require.Equal("Active", r.Get(fldStatus))

	lookup, err := e.storage.FieldMeta(e.ctx, fldOpenNames)
	require.NoError(err)
	require.Equal("Active", lookup.Lookup().Filter.Entries[0].Item.Value.Literal)

	status, err := e.storage.FieldMeta(e.ctx, fldStatus)
	require.NoError(err)
	require.Equal([]fielddef.Choice{{Name: "Active"}, {Name: "Done"}}, status.Choices())

	t.Run("Should fail on unknown or existing choice", func(t *testing.T) {
		_, err := e.validator.RenameChoice(e.ctx, fldStatus, "Open", "Closed")
		require.ErrorIs(err, fielddef.ErrNotFoundError)
		_, err = e.validator.RenameChoice(e.ctx, fldStatus, "Active", "Done")
		require.ErrorIs(err, fielddef.ErrAlreadyExistsError)
		_, err = e.validator.RenameChoice(e.ctx, fldQty, "1", "2")
		require.ErrorIs(err, fielddef.ErrInvalidError)
	})
}

func TestRepairMissingSort(t *testing.T) {
	require := require.New(t)
	e := newTestEnv(t)

	repaired, err := e.validator.RepairMissingSort(e.ctx, fldOpenNames)
	require.NoError(err)
	require.False(repaired)

	require.NoError(e.storage.DeleteField(e.ctx, fldQty))

	repaired, err = e.validator.RepairMissingSort(e.ctx, fldOpenNames)
	require.NoError(err)
	require.True(repaired)

	f, err := e.storage.FieldMeta(e.ctx, fldOpenNames)
	require.NoError(err)
	require.Nil(f.Lookup().Sort)

	res, err := e.validator.CheckField(e.ctx, fldOpenNames)
	require.NoError(err)
	require.True(res.OK, "deleted sort field is not an error")
}

func TestCompare(t *testing.T) {
	require := require.New(t)
	e := newTestEnv(t)

	old, err := e.storage.FieldMeta(e.ctx, fldTotal)
	require.NoError(err)

	renamed := old.Clone()
	renamed.Name = "Sum"
	renamed.Formatting = &fielddef.Formatting{Type: fielddef.FormattingType_Currency}
	require.False(Compare(old, renamed).AffectsValues())

	conv := old.Clone()
	conv.Options.(*fielddef.RollupOptions).Expression = "average({values})"
	c := Compare(old, conv)
	require.True(c.OptionsChanged)
	require.False(c.KindChanged)
	require.Contains(c.Diff, "average")
}
