/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package istructsmem

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voedger/fieldflow/pkg/fielddef"
	"github.com/voedger/fieldflow/pkg/istorage"
	"github.com/voedger/fieldflow/pkg/istorage/bbolt"
	"github.com/voedger/fieldflow/pkg/istorage/mem"
	"github.com/voedger/fieldflow/pkg/istoragecache"
	"github.com/voedger/fieldflow/pkg/istructs"
)

func newTestStructs(t *testing.T) istructs.IStorage {
	s, err := Open(mem.Provide(), istorage.MustSafeName("test"), 0)
	require.NoError(t, err)
	return s
}

func TestTables(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	s := newTestStructs(t)

	require.NoError(s.SaveTable(ctx, &fielddef.Table{ID: "tblB", Name: "Orders"}))
	require.NoError(s.SaveTable(ctx, &fielddef.Table{ID: "tblA", Name: "Customers"}))

	tables, err := s.Tables(ctx)
	require.NoError(err)
	require.Len(tables, 2)
	require.Equal("Customers", tables[0].Name)
	require.Equal("Orders", tables[1].Name)

	t.Run("Should return ErrNotFound for unknown table", func(t *testing.T) {
		_, err := s.Table(ctx, "tblX")
		require.ErrorIs(err, fielddef.ErrNotFoundError)
	})

	t.Run("Should delete table with fields and records", func(t *testing.T) {
		require.NoError(s.SaveField(ctx, &fielddef.Field{ID: "fldA", Table: "tblA", Kind: fielddef.FieldKind_Value, CellType: fielddef.CellType_Text}))
		require.NoError(s.PutRecord(ctx, fielddef.NewRecord("tblA", "rec1")))

		require.NoError(s.DeleteTable(ctx, "tblA"))

		_, err := s.Table(ctx, "tblA")
		require.ErrorIs(err, fielddef.ErrNotFoundError)
		_, err = s.FieldMeta(ctx, "fldA")
		require.ErrorIs(err, fielddef.ErrNotFoundError)
		recs, err := s.QueryRecords(ctx, "tblA", istructs.QueryParams{})
		require.NoError(err)
		require.Empty(recs)
	})
}

func TestFields(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	s := newTestStructs(t)

	lookup := &fielddef.Field{
		ID: "fldLookup", Table: "tblA", Name: "Lookup", Order: 2,
		Kind: fielddef.FieldKind_Lookup, CellType: fielddef.CellType_Text, IsMultiple: true, IsLookup: true,
		Options: &fielddef.LookupOptions{ForeignTable: "tblB", LinkField: "fldLink", LookupField: "fldName"},
	}
	link := &fielddef.Field{
		ID: "fldLink", Table: "tblA", Name: "Link", Order: 1,
		Kind: fielddef.FieldKind_Link, CellType: fielddef.CellType_Link, IsMultiple: true,
		Options: &fielddef.LinkOptions{Relationship: fielddef.Relationship_ManyMany, ForeignTable: "tblB"},
	}
	require.NoError(s.SaveFields(ctx, lookup, link))

	fields, err := s.ListFields(ctx, "tblA")
	require.NoError(err)
	require.Len(fields, 2)
	require.Equal(fielddef.FieldID("fldLink"), fields[0].ID)
	require.Equal(fielddef.FieldID("fldLookup"), fields[1].ID)

	t.Run("Should return field copy", func(t *testing.T) {
		f, err := s.FieldMeta(ctx, "fldLookup")
		require.NoError(err)
		require.Equal(fielddef.FieldID("fldName"), f.Lookup().LookupField)

		f.Lookup().LookupField = "fldOther"
		f, err = s.FieldMeta(ctx, "fldLookup")
		require.NoError(err)
		require.Equal(fielddef.FieldID("fldName"), f.Lookup().LookupField)
	})

	t.Run("Should return updated field after save", func(t *testing.T) {
		f, err := s.FieldMeta(ctx, "fldLookup")
		require.NoError(err)
		f.HasError = true
		require.NoError(s.SaveField(ctx, f))

		f, err = s.FieldMeta(ctx, "fldLookup")
		require.NoError(err)
		require.True(f.HasError)
	})

	t.Run("Should delete field", func(t *testing.T) {
		require.NoError(s.DeleteField(ctx, "fldLookup"))
		_, err := s.FieldMeta(ctx, "fldLookup")
		require.ErrorIs(err, fielddef.ErrNotFoundError)
		require.ErrorIs(s.DeleteField(ctx, "fldLookup"), fielddef.ErrNotFoundError)
	})

	t.Run("Should reject field without table", func(t *testing.T) {
		require.ErrorIs(s.SaveField(ctx, &fielddef.Field{ID: "fldX"}), fielddef.ErrInvalidError)
	})
}

func TestRecords(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	s := newTestStructs(t)

	for i := 1; i <= 3; i++ {
		r := fielddef.NewRecord("tblA", fielddef.RecordID(fmt.Sprintf("rec%d", 4-i)))
		r.Set("fldNum", i*10)
		require.NoError(s.PutRecord(ctx, r))
		require.Equal(int64(i), r.Seq)
		require.False(r.Created.IsZero())
	}

	t.Run("Should query records in creation order", func(t *testing.T) {
		recs, err := s.QueryRecords(ctx, "tblA", istructs.QueryParams{})
		require.NoError(err)
		require.Len(recs, 3)
		require.Equal(fielddef.RecordID("rec3"), recs[0].ID)
		require.Equal(fielddef.RecordID("rec1"), recs[2].ID)
		require.Equal(10.0, recs[0].Get("fldNum"))
	})

	t.Run("Should query records by ids, filter and page", func(t *testing.T) {
		recs, err := s.QueryRecords(ctx, "tblA", istructs.QueryParams{IDs: []fielddef.RecordID{"rec1", "recX", "rec2"}})
		require.NoError(err)
		require.Len(recs, 2)
		require.Equal(fielddef.RecordID("rec2"), recs[0].ID)

		recs, err = s.QueryRecords(ctx, "tblA", istructs.QueryParams{
			Where: func(r *fielddef.Record) bool { return r.Get("fldNum").(float64) > 10 },
			Offset: 1,
			Limit:  5,
		})
		require.NoError(err)
		require.Len(recs, 1)
		require.Equal(fielddef.RecordID("rec1"), recs[0].ID)
	})

	t.Run("Should update record", func(t *testing.T) {
		r, err := s.UpdateRecord(ctx, "tblA", "rec1", func(r *fielddef.Record) error {
			r.Set("fldText", "hello")
			return nil
		})
		require.NoError(err)
		require.Equal("hello", r.Get("fldText"))

		r, err = s.GetRecord(ctx, "tblA", "rec1")
		require.NoError(err)
		require.Equal("hello", r.Get("fldText"))
		require.Equal(30.0, r.Get("fldNum"))
	})

	t.Run("Should return update error", func(t *testing.T) {
		testErr := fmt.Errorf("test error")
		_, err := s.UpdateRecord(ctx, "tblA", "rec1", func(*fielddef.Record) error { return testErr })
		require.ErrorIs(err, testErr)

		_, err = s.UpdateRecord(ctx, "tblA", "recX", func(*fielddef.Record) error { return nil })
		require.ErrorIs(err, fielddef.ErrNotFoundError)
	})

	t.Run("Should write computed values", func(t *testing.T) {
		require.NoError(s.WriteComputedValues(ctx, "tblA", "rec2", map[fielddef.FieldID]any{"fldSum": 60, "fldNum": nil}))
		r, err := s.GetRecord(ctx, "tblA", "rec2")
		require.NoError(err)
		require.Equal(60.0, r.Get("fldSum"))
		require.Nil(r.Get("fldNum"))

		require.NoError(s.WriteComputedBatch(ctx, "tblA", []istructs.ComputedValues{
			{Record: "rec3", Values: map[fielddef.FieldID]any{"fldSum": 1}},
			{Record: "recX", Values: map[fielddef.FieldID]any{"fldSum": 2}},
			{Record: "rec2", Values: map[fielddef.FieldID]any{"fldSum": nil}},
		}))
		r, err = s.GetRecord(ctx, "tblA", "rec3")
		require.NoError(err)
		require.Equal(1.0, r.Get("fldSum"))
		r, err = s.GetRecord(ctx, "tblA", "rec2")
		require.NoError(err)
		require.Nil(r.Get("fldSum"))
		_, err = s.GetRecord(ctx, "tblA", "recX")
		require.ErrorIs(err, fielddef.ErrNotFoundError)
	})

	t.Run("Should delete record", func(t *testing.T) {
		require.NoError(s.DeleteRecord(ctx, "tblA", "rec3"))
		_, err := s.GetRecord(ctx, "tblA", "rec3")
		require.ErrorIs(err, fielddef.ErrNotFoundError)
		require.ErrorIs(s.DeleteRecord(ctx, "tblA", "rec3"), fielddef.ErrNotFoundError)
	})

	t.Run("Should continue sequence after delete", func(t *testing.T) {
		r := fielddef.NewRecord("tblA", "rec4")
		require.NoError(s.PutRecord(ctx, r))
		require.Equal(int64(4), r.Seq)
	})
}

func TestConcurrentUpdates(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	s := newTestStructs(t)

	require.NoError(s.PutRecord(ctx, fielddef.NewRecord("tblA", "rec1")))

	const writers = 20
	wg := sync.WaitGroup{}
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.UpdateRecord(ctx, "tblA", "rec1", func(r *fielddef.Record) error {
				links := fielddef.AsList(r.Get("fldLink"))
				r.Set("fldLink", append(links, fielddef.LinkRef{ID: fielddef.RecordID(fmt.Sprintf("recB%d", i))}))
				return nil
			})
			require.NoError(err)
		}(i)
	}
	wg.Wait()

	r, err := s.GetRecord(ctx, "tblA", "rec1")
	require.NoError(err)
	require.Len(fielddef.LinkIDs(r.Get("fldLink")), writers)
}

func TestJunctions(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	s := newTestStructs(t)

	key := istructs.NewJunctionKey("fldB", "fldA")

	_, ok, err := s.Junction(ctx, key)
	require.NoError(err)
	require.False(ok)

	name, err := s.EnsureJunction(ctx, key)
	require.NoError(err)
	require.Equal("jnc_fldA_fldB", name)

	name2, err := s.EnsureJunction(ctx, istructs.NewJunctionKey("fldA", "fldB"))
	require.NoError(err)
	require.Equal(name, name2)

	require.NoError(s.DropJunction(ctx, key))
	_, ok, err = s.Junction(ctx, key)
	require.NoError(err)
	require.False(ok)
}

func TestClaims(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	s := newTestStructs(t)

	ok, holder, err := s.Claim(ctx, "fldLink", "recB", "recA1")
	require.NoError(err)
	require.True(ok)
	require.Equal(fielddef.RecordID("recA1"), holder)

	t.Run("Should be idempotent for the holder", func(t *testing.T) {
		ok, _, err := s.Claim(ctx, "fldLink", "recB", "recA1")
		require.NoError(err)
		require.True(ok)
	})

	t.Run("Should return holder to other owner", func(t *testing.T) {
		ok, holder, err := s.Claim(ctx, "fldLink", "recB", "recA2")
		require.NoError(err)
		require.False(ok)
		require.Equal(fielddef.RecordID("recA1"), holder)
	})

	t.Run("Should release by holder only", func(t *testing.T) {
		require.NoError(s.Release(ctx, "fldLink", "recB", "recA2"))
		h, err := s.Holder(ctx, "fldLink", "recB")
		require.NoError(err)
		require.Equal(fielddef.RecordID("recA1"), h)

		require.NoError(s.Release(ctx, "fldLink", "recB", "recA1"))
		h, err = s.Holder(ctx, "fldLink", "recB")
		require.NoError(err)
		require.Equal(fielddef.NullRecordID, h)
	})

	t.Run("Should release all claims of the field", func(t *testing.T) {
		for _, target := range []fielddef.RecordID{"recB1", "recB2"} {
			ok, _, err := s.Claim(ctx, "fldLink", target, "recA1")
			require.NoError(err)
			require.True(ok)
		}
		require.NoError(s.ReleaseAll(ctx, "fldLink"))
		h, err := s.Holder(ctx, "fldLink", "recB2")
		require.NoError(err)
		require.Equal(fielddef.NullRecordID, h)
	})

	t.Run("Should give target to exactly one of concurrent claimers", func(t *testing.T) {
		const claimers = 10
		wins := make(chan fielddef.RecordID, claimers)
		wg := sync.WaitGroup{}
		for i := 0; i < claimers; i++ {
			wg.Add(1)
			go func(owner fielddef.RecordID) {
				defer wg.Done()
				ok, _, err := s.Claim(ctx, "fldLink", "recRace", owner)
				require.NoError(err)
				if ok {
					wins <- owner
				}
			}(fielddef.RecordID(fmt.Sprintf("recA%d", i)))
		}
		wg.Wait()
		close(wins)
		require.Len(wins, 1)
	})
}

func TestPersistentStorage(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	factory := istoragecache.Provide(1024*1024, bbolt.Provide(bbolt.ParamsType{DBDir: t.TempDir()}))
	defer func() { require.NoError(factory.Close()) }()

	s, err := Open(factory, istorage.MustSafeName("base1"), 16)
	require.NoError(err)

	r := fielddef.NewRecord("tblA", "rec1")
	r.Set("fldLink", []fielddef.LinkRef{{ID: "recB", Title: "Alpha"}})
	require.NoError(s.PutRecord(ctx, r))

	s2, err := Open(factory, istorage.MustSafeName("base1"), 16)
	require.NoError(err)
	r2, err := s2.GetRecord(ctx, "tblA", "rec1")
	require.NoError(err)
	require.Equal([]fielddef.RecordID{"recB"}, fielddef.LinkIDs(r2.Get("fldLink")))
}
