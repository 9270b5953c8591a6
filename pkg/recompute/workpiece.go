/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package recompute

import (
	"cmp"
	"context"
	"errors"
	"slices"

	"github.com/voedger/fieldflow/pkg/fielddef"
	"github.com/voedger/fieldflow/pkg/istructs"
)

func newWorkpiece(ctx context.Context, event Event) *workpiece {
	return &workpiece{
		ctx:         ctx,
		event:       event,
		fields:      make(map[fielddef.FieldID]*fielddef.Field),
		tableFields: make(map[fielddef.TableID][]*fielddef.Field),
		records:     make(map[fielddef.TableID]map[fielddef.RecordID]*fielddef.Record),
		full:        make(map[fielddef.TableID]bool),
		changed:     make(map[fielddef.FieldID]map[fielddef.RecordID]bool),
		changedAll:  make(map[fielddef.FieldID]bool),
		targets:     make(map[fielddef.FieldID]map[fielddef.RecordID]bool),
		targetAll:   make(map[fielddef.FieldID]bool),
		pending:     make(map[fielddef.TableID]map[fielddef.RecordID]map[fielddef.FieldID]any),
		flags:       make(map[fielddef.FieldID]bool),
		result: Result{
			State:   State_Committed,
			Written: make(map[fielddef.TableID][]fielddef.RecordID),
		},
	}
}

// Returns field definition, nil if field does not exist
func (wp *workpiece) field(s istructs.IStorage, id fielddef.FieldID) (*fielddef.Field, error) {
	if f, ok := wp.fields[id]; ok {
		return f, nil
	}
	f, err := s.FieldMeta(wp.ctx, id)
	if err != nil {
		if !errors.Is(err, fielddef.ErrNotFoundError) {
			return nil, err
		}
		f = nil
	}
	wp.fields[id] = f
	return f, nil
}

func (wp *workpiece) fieldsOf(s istructs.IStorage, table fielddef.TableID) ([]*fielddef.Field, error) {
	if ff, ok := wp.tableFields[table]; ok {
		return ff, nil
	}
	ff, err := s.ListFields(wp.ctx, table)
	if err != nil {
		return nil, err
	}
	for _, f := range ff {
		if _, ok := wp.fields[f.ID]; !ok {
			wp.fields[f.ID] = f
		}
	}
	wp.tableFields[table] = ff
	return ff, nil
}

// Returns field HasError flag with changes made by the event
func (wp *workpiece) hasError(f *fielddef.Field) bool {
	if flag, ok := wp.flags[f.ID]; ok {
		return flag
	}
	return f.HasError
}

func (wp *workpiece) setFlag(f *fielddef.Field, hasError bool) {
	if wp.hasError(f) == hasError {
		return
	}
	if _, ok := wp.flags[f.ID]; ok && f.HasError == hasError {
		// back to the stored state
		delete(wp.flags, f.ID)
		wp.flagOrder = slices.DeleteFunc(wp.flagOrder, func(id fielddef.FieldID) bool { return id == f.ID })
		return
	}
	wp.flags[f.ID] = hasError
	wp.flagOrder = append(wp.flagOrder, f.ID)
}

func (wp *workpiece) markChanged(f fielddef.FieldID, rec fielddef.RecordID) {
	m, ok := wp.changed[f]
	if !ok {
		m = make(map[fielddef.RecordID]bool)
		wp.changed[f] = m
	}
	m[rec] = true
}

func (wp *workpiece) markTarget(f fielddef.FieldID, rec fielddef.RecordID) {
	m, ok := wp.targets[f]
	if !ok {
		m = make(map[fielddef.RecordID]bool)
		wp.targets[f] = m
	}
	m[rec] = true
}

// Loads records with specified ids into cache. Not existing records are skipped
func (wp *workpiece) load(s istructs.IStorage, table fielddef.TableID, ids []fielddef.RecordID) error {
	cache := wp.cache(table)
	if wp.full[table] {
		return nil
	}
	missed := make([]fielddef.RecordID, 0, len(ids))
	for _, id := range ids {
		if _, ok := cache[id]; !ok && !slices.Contains(missed, id) {
			missed = append(missed, id)
		}
	}
	if len(missed) == 0 {
		return nil
	}
	rr, err := s.QueryRecords(wp.ctx, table, istructs.QueryParams{IDs: missed})
	if err != nil {
		return err
	}
	for _, r := range rr {
		cache[r.ID] = r
	}
	for _, id := range missed {
		if _, ok := cache[id]; !ok {
			cache[id] = nil
		}
	}
	return nil
}

// Loads all table records into cache
func (wp *workpiece) loadAll(s istructs.IStorage, table fielddef.TableID) error {
	if wp.full[table] {
		return nil
	}
	rr, err := s.QueryRecords(wp.ctx, table, istructs.QueryParams{})
	if err != nil {
		return err
	}
	cache := wp.cache(table)
	for _, r := range rr {
		if _, ok := cache[r.ID]; !ok {
			cache[r.ID] = r
		}
	}
	for id, r := range cache {
		if r == nil {
			delete(cache, id)
		}
	}
	wp.full[table] = true
	return nil
}

func (wp *workpiece) cache(table fielddef.TableID) map[fielddef.RecordID]*fielddef.Record {
	cache, ok := wp.records[table]
	if !ok {
		cache = make(map[fielddef.RecordID]*fielddef.Record)
		wp.records[table] = cache
	}
	return cache
}

// Returns cached records with specified ids in ids order, not existing records are skipped.
// Records must be loaded before
func (wp *workpiece) cached(table fielddef.TableID, ids []fielddef.RecordID) []*fielddef.Record {
	cache := wp.records[table]
	res := make([]*fielddef.Record, 0, len(ids))
	for _, id := range ids {
		if r := cache[id]; r != nil {
			res = append(res, r)
		}
	}
	return res
}

// Returns all cached records of the table in creation order.
// Table must be loaded before
func (wp *workpiece) all(table fielddef.TableID) []*fielddef.Record {
	cache := wp.records[table]
	res := make([]*fielddef.Record, 0, len(cache))
	for _, r := range cache {
		if r != nil {
			res = append(res, r)
		}
	}
	slices.SortFunc(res, func(a, b *fielddef.Record) int {
		return cmp.Or(cmp.Compare(a.Seq, b.Seq), cmp.Compare(a.ID, b.ID))
	})
	return res
}

// Drops record from cache, record is not loaded again
func (wp *workpiece) forget(table fielddef.TableID, id fielddef.RecordID) {
	wp.cache(table)[id] = nil
}

// Applies computed value to cached record and schedules it for persisting
func (wp *workpiece) write(r *fielddef.Record, f fielddef.FieldID, v any) {
	r.Set(f, v)
	recs, ok := wp.pending[r.Table]
	if !ok {
		recs = make(map[fielddef.RecordID]map[fielddef.FieldID]any)
		wp.pending[r.Table] = recs
		wp.touched = append(wp.touched, r.Table)
	}
	vals, ok := recs[r.ID]
	if !ok {
		vals = make(map[fielddef.FieldID]any)
		recs[r.ID] = vals
	}
	vals[f] = v
	wp.markChanged(f, r.ID)
}
