/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package recompute

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/voedger/fieldflow/pkg/compat"
	"github.com/voedger/fieldflow/pkg/depgraph"
	"github.com/voedger/fieldflow/pkg/fielddef"
	"github.com/voedger/fieldflow/pkg/in10n"
	"github.com/voedger/fieldflow/pkg/istorage"
	"github.com/voedger/fieldflow/pkg/istorage/mem"
	"github.com/voedger/fieldflow/pkg/istructs"
	"github.com/voedger/fieldflow/pkg/istructsmem"
	"github.com/voedger/fieldflow/pkg/links"
)

const (
	tblOrders fielddef.TableID = "tblOrders"
	tblItems  fielddef.TableID = "tblItems"

	fldItemName fielddef.FieldID = "fldItemName"
	fldQty      fielddef.FieldID = "fldQty"

	fldOrderName fielddef.FieldID = "fldOrderName"
	fldItems     fielddef.FieldID = "fldItems"
	fldTotal     fielddef.FieldID = "fldTotal"
	fldAvg       fielddef.FieldID = "fldAvg"
	fldCount     fielddef.FieldID = "fldCount"
	fldCountAll  fielddef.FieldID = "fldCountAll"
	fldUnique    fielddef.FieldID = "fldUnique"
	fldTop       fielddef.FieldID = "fldTop"
	fldAlphaQty  fielddef.FieldID = "fldAlphaQty"
	fldLabel     fielddef.FieldID = "fldLabel"

	recO1 fielddef.RecordID = "recO1"
	recI1 fielddef.RecordID = "recI1"
	recI2 fielddef.RecordID = "recI2"
	recI3 fielddef.RecordID = "recI3"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(event in10n.Event) in10n.Offset {
	return m.Called(event).Get(0).(in10n.Offset)
}

type testEnv struct {
	ctx       context.Context
	storage   istructs.IStorage
	graph     depgraph.IGraph
	publisher *mockPublisher
	scheduler IScheduler
}

func rollup(id fielddef.FieldID, lookup fielddef.FieldID, expr string) *fielddef.Field {
	return &fielddef.Field{ID: id, Table: tblOrders, Name: string(id), Kind: fielddef.FieldKind_Rollup,
		Options: &fielddef.RollupOptions{
			LookupOptions: fielddef.LookupOptions{ForeignTable: tblItems, LinkField: fldItems, LookupField: lookup},
			Expression:    expr,
		}}
}

func newTestEnv(t *testing.T) *testEnv {
	require := require.New(t)
	ctx := context.Background()

	storage, err := istructsmem.Open(mem.Provide(), istorage.MustSafeName("recompute"), 0)
	require.NoError(err)
	require.NoError(storage.SaveTable(ctx, &fielddef.Table{ID: tblOrders, Name: "Orders"}))
	require.NoError(storage.SaveTable(ctx, &fielddef.Table{ID: tblItems, Name: "Items"}))

	fields := []*fielddef.Field{
		{ID: fldItemName, Table: tblItems, Name: "Name", Kind: fielddef.FieldKind_Value, CellType: fielddef.CellType_Text, IsPrimary: true},
		{ID: fldQty, Table: tblItems, Name: "Qty", Kind: fielddef.FieldKind_Value, CellType: fielddef.CellType_Number},
		{ID: fldOrderName, Table: tblOrders, Name: "Name", Kind: fielddef.FieldKind_Value, CellType: fielddef.CellType_Text, IsPrimary: true},
		{ID: fldItems, Table: tblOrders, Name: "Items", Kind: fielddef.FieldKind_Link, CellType: fielddef.CellType_Link, IsMultiple: true,
			Options: &fielddef.LinkOptions{Relationship: fielddef.Relationship_ManyMany, ForeignTable: tblItems, LookupField: fldItemName, IsOneWay: true}},
		rollup(fldTotal, fldQty, "sum({values})"),
		rollup(fldAvg, fldQty, "average({values})"),
		rollup(fldCount, fldQty, "count({values})"),
		rollup(fldCountAll, fldQty, "countall({values})"),
		rollup(fldUnique, fldItemName, "array_unique({values})"),
		{ID: fldTop, Table: tblOrders, Name: "Top", Kind: fielddef.FieldKind_Lookup,
			Options: &fielddef.LookupOptions{ForeignTable: tblItems, LinkField: fldItems, LookupField: fldItemName,
				Sort: &fielddef.SortSpec{FieldID: fldQty, Order: fielddef.SortOrder_Desc}, Limit: 2}},
		{ID: fldAlphaQty, Table: tblOrders, Name: "Alpha qty", Kind: fielddef.FieldKind_ConditionalRollup,
			Options: &fielddef.ConditionalRollupOptions{
				LookupOptions: fielddef.LookupOptions{ForeignTable: tblItems, LookupField: fldQty,
					Filter: fielddef.And(fielddef.Item(fldItemName, fielddef.Operator_Is, fielddef.Literal("Alpha")))},
				Expression: "sum({values})",
			}},
		{ID: fldLabel, Table: tblOrders, Name: "Label", Kind: fielddef.FieldKind_Formula,
			Options: &fielddef.FormulaOptions{Expression: `{fldOrderName} & ": " & {fldTotal}`}},
	}

	e := &testEnv{ctx: ctx, storage: storage, graph: depgraph.New(), publisher: &mockPublisher{}}
	validator := compat.Provide(storage, e.graph, 0)
	for i, f := range fields {
		f.Order = i + 1
		require.NoError(validator.Shape(ctx, f), f.ID)
		require.NoError(storage.SaveField(ctx, f))
		require.NoError(e.graph.AddField(f))
	}

	items := []struct {
		id   fielddef.RecordID
		name string
		qty  any
	}{
		{recI1, "Alpha", 10},
		{recI2, "Beta", 20},
		{recI3, "Alpha", nil},
	}
	for _, i := range items {
		r := fielddef.NewRecord(tblItems, i.id)
		r.Set(fldItemName, i.name)
		r.Set(fldQty, i.qty)
		require.NoError(storage.PutRecord(ctx, r))
	}
	o := fielddef.NewRecord(tblOrders, recO1)
	o.Set(fldOrderName, "First")
	o.Set(fldItems, []fielddef.LinkRef{{ID: recI1, Title: "Alpha"}, {ID: recI2, Title: "Beta"}, {ID: recI3, Title: "Alpha"}})
	require.NoError(storage.PutRecord(ctx, o))

	e.publisher.On("Publish", mock.Anything).Return(in10n.Offset(0))
	e.scheduler = Provide(Config{Parallelism: 2}, storage, e.graph, validator, e.publisher)
	t.Cleanup(e.scheduler.Close)
	return e
}

func (e *testEnv) order(t *testing.T) *fielddef.Record {
	r, err := e.storage.GetRecord(e.ctx, tblOrders, recO1)
	require.NoError(t, err)
	return r
}

func (e *testEnv) process(t *testing.T, event Event) Result {
	res, err := e.scheduler.Process(e.ctx, event)
	require.NoError(t, err)
	return res
}

func (e *testEnv) setItem(t *testing.T, id fielddef.RecordID, f fielddef.FieldID, v any) {
	_, err := e.storage.UpdateRecord(e.ctx, tblItems, id, func(r *fielddef.Record) error {
		r.Set(f, v)
		return nil
	})
	require.NoError(t, err)
}

func (e *testEnv) field(t *testing.T, id fielddef.FieldID) *fielddef.Field {
	f, err := e.storage.FieldMeta(e.ctx, id)
	require.NoError(t, err)
	return f
}

func TestRecordCreated(t *testing.T) {
	require := require.New(t)
	e := newTestEnv(t)

	res := e.process(t, Event{Kind: EventKind_RecordCreated, Changes: []links.Change{{Table: tblOrders, Record: recO1}}})
	require.Equal(State_Committed, res.State)
	require.Equal([]fielddef.RecordID{recO1}, res.Written[tblOrders])
	require.Empty(res.Errored)

	o := e.order(t)
	require.Equal(30.0, o.Get(fldTotal))
	require.Equal(15.0, o.Get(fldAvg))
	require.Equal(2.0, o.Get(fldCount))
	require.Equal(3.0, o.Get(fldCountAll))
	require.Equal([]any{"Alpha", "Beta"}, o.Get(fldUnique))
	require.Equal([]any{"Beta", "Alpha"}, o.Get(fldTop))
	require.Equal(10.0, o.Get(fldAlphaQty))
	require.Equal("First: 30", o.Get(fldLabel))

	require.Less(indexOf(res.Evaluated, fldTotal), indexOf(res.Evaluated, fldLabel))

	e.publisher.AssertCalled(t, "Publish", mock.MatchedBy(func(ev in10n.Event) bool {
		return ev.Kind == in10n.EventKind_RecordComputedValuesChanged && ev.Table == tblOrders && ev.Record == recO1 &&
			len(ev.Fields) == 8
	}))

	t.Run("Should not write unchanged values", func(t *testing.T) {
		res := e.process(t, Event{Kind: EventKind_RecordCreated, Changes: []links.Change{{Table: tblOrders, Record: recO1}}})
		require.Empty(res.Written)
		require.NotEmpty(res.Evaluated)
	})
}

func TestForeignChanges(t *testing.T) {
	require := require.New(t)
	e := newTestEnv(t)
	e.process(t, Event{Kind: EventKind_RecordCreated, Changes: []links.Change{{Table: tblOrders, Record: recO1}}})

	t.Run("Should recompute linked host records when foreign value changes", func(t *testing.T) {
		e.setItem(t, recI2, fldQty, 40)
		res := e.process(t, Event{Kind: EventKind_RecordChanged, Changes: []links.Change{{Table: tblItems, Record: recI2, Fields: []fielddef.FieldID{fldQty}}}})
		require.Equal([]fielddef.RecordID{recO1}, res.Written[tblOrders])

		o := e.order(t)
		require.Equal(50.0, o.Get(fldTotal))
		require.Equal(25.0, o.Get(fldAvg))
		require.Equal("First: 50", o.Get(fldLabel))
		require.Equal(10.0, o.Get(fldAlphaQty))
	})

	t.Run("Should refresh link titles when foreign title changes", func(t *testing.T) {
		e.setItem(t, recI2, fldItemName, "Bravo")
		e.process(t, Event{Kind: EventKind_RecordChanged, Changes: []links.Change{{Table: tblItems, Record: recI2, Fields: []fielddef.FieldID{fldItemName}}}})

		o := e.order(t)
		require.Equal([]any{
			fielddef.LinkRef{ID: recI1, Title: "Alpha"},
			fielddef.LinkRef{ID: recI2, Title: "Bravo"},
			fielddef.LinkRef{ID: recI3, Title: "Alpha"},
		}, o.Get(fldItems))
		require.Equal([]any{"Alpha", "Bravo"}, o.Get(fldUnique))
		require.Equal([]any{"Bravo", "Alpha"}, o.Get(fldTop))
	})

	t.Run("Should recompute conditional rollup when foreign record is deleted", func(t *testing.T) {
		i1, err := e.storage.GetRecord(e.ctx, tblItems, recI1)
		require.NoError(err)
		require.NoError(e.storage.DeleteRecord(e.ctx, tblItems, recI1))
		_, err = e.storage.UpdateRecord(e.ctx, tblOrders, recO1, func(r *fielddef.Record) error {
			r.Set(fldItems, []fielddef.LinkRef{{ID: recI2, Title: "Bravo"}, {ID: recI3, Title: "Alpha"}})
			return nil
		})
		require.NoError(err)

		res := e.process(t, Event{
			Kind:    EventKind_RecordDeleted,
			Deleted: []*fielddef.Record{i1},
			Changes: []links.Change{{Table: tblOrders, Record: recO1, Fields: []fielddef.FieldID{fldItems}}},
		})
		require.Equal(State_Committed, res.State)

		o := e.order(t)
		require.Equal(0.0, o.Get(fldAlphaQty))
		require.Equal(40.0, o.Get(fldTotal))
		require.Equal(2.0, o.Get(fldCountAll))
		require.Equal([]any{"Bravo", "Alpha"}, o.Get(fldUnique))
	})
}

func TestErrorPropagation(t *testing.T) {
	require := require.New(t)
	e := newTestEnv(t)
	e.process(t, Event{Kind: EventKind_RecordCreated, Changes: []links.Change{{Table: tblOrders, Record: recO1}}})

	qty := e.field(t, fldQty)
	require.NoError(e.storage.DeleteField(e.ctx, fldQty))
	e.graph.RemoveField(fldQty)

	res := e.process(t, Event{Kind: EventKind_FieldDeleted, Field: fldQty})
	require.Equal(State_PartiallyErrored, res.State)
	require.Equal([]fielddef.FieldID{fldTotal, fldAvg, fldCount, fldCountAll, fldAlphaQty, fldLabel}, res.Errored)

	t.Run("Should flag errored fields and keep their cells", func(t *testing.T) {
		for _, id := range res.Errored {
			require.True(e.field(t, id).HasError, id)
		}
		o := e.order(t)
		require.Equal(30.0, o.Get(fldTotal))
		require.Equal("First: 30", o.Get(fldLabel))

		e.publisher.AssertCalled(t, "Publish", in10n.Event{Kind: in10n.EventKind_FieldErrorChanged, Table: tblOrders, Field: fldTotal, HasError: true})
		e.publisher.AssertCalled(t, "Publish", in10n.Event{Kind: in10n.EventKind_FieldErrorChanged, Table: tblOrders, Field: fldLabel, HasError: true})
	})

	t.Run("Should drop missing sort and recompute lookup", func(t *testing.T) {
		top := e.field(t, fldTop)
		require.False(top.HasError)
		require.Nil(top.Lookup().Sort)
		require.Equal([]any{"Alpha", "Beta"}, e.order(t).Get(fldTop))
	})

	t.Run("Should not clear error on unrelated changes", func(t *testing.T) {
		res := e.process(t, Event{Kind: EventKind_RecordChanged, Changes: []links.Change{{Table: tblOrders, Record: recO1, Fields: []fielddef.FieldID{fldOrderName}}}})
		require.NotContains(res.Evaluated, fldLabel)
		require.True(e.field(t, fldLabel).HasError)
	})

	t.Run("Should clear errors and recompute when field is restored", func(t *testing.T) {
		require.NoError(e.storage.SaveField(e.ctx, qty))
		require.NoError(e.graph.AddField(qty))

		res := e.process(t, Event{Kind: EventKind_FieldCreated, Field: fldQty})
		require.Equal(State_Committed, res.State)
		require.ElementsMatch([]fielddef.FieldID{fldTotal, fldAvg, fldCount, fldCountAll, fldAlphaQty, fldLabel}, res.Cleared)
		for _, id := range res.Cleared {
			require.False(e.field(t, id).HasError, id)
		}
		require.Equal("First: 30", e.order(t).Get(fldLabel))
		e.publisher.AssertCalled(t, "Publish", in10n.Event{Kind: in10n.EventKind_FieldErrorChanged, Table: tblOrders, Field: fldLabel, HasError: false})
	})
}

func TestInvalidEvents(t *testing.T) {
	require := require.New(t)
	e := newTestEnv(t)

	_, err := e.scheduler.Process(e.ctx, Event{})
	require.ErrorIs(err, fielddef.ErrInvalidError)

	_, err = e.scheduler.Process(e.ctx, Event{Kind: EventKind_FieldCreated})
	require.ErrorIs(err, fielddef.ErrInvalidError)

	_, err = e.scheduler.Process(e.ctx, Event{Kind: EventKind_FieldConverted, Field: "fldUnknown"})
	require.ErrorIs(err, fielddef.ErrNotFoundError)

	t.Run("Should process events after failure", func(t *testing.T) {
		res := e.process(t, Event{Kind: EventKind_RecordCreated, Changes: []links.Change{{Table: tblOrders, Record: recO1}}})
		require.Equal(State_Committed, res.State)
	})
}

func indexOf(ids []fielddef.FieldID, id fielddef.FieldID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
