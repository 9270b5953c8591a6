/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package engine

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/untillpro/goutils/logger"

	"github.com/voedger/fieldflow/pkg/fielddef"
	"github.com/voedger/fieldflow/pkg/istructs"
	"github.com/voedger/fieldflow/pkg/links"
	"github.com/voedger/fieldflow/pkg/recompute"
)

func (e *engine) Record(ctx context.Context, table fielddef.TableID, id fielddef.RecordID) (*fielddef.Record, error) {
	return e.storage.GetRecord(ctx, table, id)
}

func (e *engine) Records(ctx context.Context, table fielddef.TableID) ([]*fielddef.Record, error) {
	if _, err := e.storage.Table(ctx, table); err != nil {
		return nil, err
	}
	return e.storage.QueryRecords(ctx, table, istructs.QueryParams{})
}

// Authored cells split into values and link targets
type cells struct {
	values map[fielddef.FieldID]any
	links  map[fielddef.FieldID][]fielddef.RecordID
}

func (c cells) linkFields() []fielddef.FieldID {
	return slices.Sorted(maps.Keys(c.links))
}

// Checks and coerces authored cells
func (e *engine) cells(ctx context.Context, table fielddef.TableID, values map[fielddef.FieldID]any) (cells, error) {
	res := cells{
		values: make(map[fielddef.FieldID]any, len(values)),
		links:  make(map[fielddef.FieldID][]fielddef.RecordID),
	}
	for _, id := range slices.Sorted(maps.Keys(values)) {
		f, err := e.storage.FieldMeta(ctx, id)
		if err != nil {
			return res, err
		}
		v := values[id]
		switch {
		case f.Table != table:
			return res, fielddef.ErrInvalid("%v does not belong to table «%v»", f, table)
		case f.IsComputed():
			return res, fielddef.ErrInvalid("%v is computed", f)
		case f.Kind == fielddef.FieldKind_Link:
			res.links[id] = fielddef.LinkIDs(v)
		default:
			c, err := fielddef.Coerce(v, f.CellType, f.IsMultiple)
			if err != nil {
				return res, fmt.Errorf("%v: %w", f, err)
			}
			if err := checkChoices(f, c); err != nil {
				return res, err
			}
			res.values[id] = c
		}
	}
	return res, nil
}

func checkChoices(f *fielddef.Field, v any) error {
	opts, ok := f.Options.(*fielddef.ValueOptions)
	if !f.CellType.IsSelect() || !ok {
		return nil
	}
	for _, c := range fielddef.AsList(v) {
		if opts.ChoiceIndex(fielddef.ToText(c)) < 0 {
			return fielddef.ErrInvalid("%v: «%v» is not a choice", f, c)
		}
	}
	return nil
}

func (e *engine) CreateRecord(ctx context.Context, table fielddef.TableID, values map[fielddef.FieldID]any) (*fielddef.Record, error) {
	if _, err := e.storage.Table(ctx, table); err != nil {
		return nil, err
	}
	cc, err := e.cells(ctx, table, values)
	if err != nil {
		return nil, err
	}

	r := fielddef.NewRecord(table, fielddef.NewRecordID())
	for id, v := range cc.values {
		r.Set(id, v)
	}
	if err := e.storage.PutRecord(ctx, r); err != nil {
		return nil, err
	}

	changes := []links.Change{{Table: table, Record: r.ID}}
	for _, id := range cc.linkFields() {
		ch, err := e.links.SetLinks(ctx, id, r.ID, cc.links[id])
		if err != nil {
			e.rollback(ctx, table, r.ID)
			return nil, err
		}
		// host cell is covered by whole record change
		changes = append(changes, ch[1:]...)
	}

	if err := e.process(ctx, recompute.Event{Kind: recompute.EventKind_RecordCreated, Changes: changes}); err != nil {
		return nil, err
	}
	return e.storage.GetRecord(ctx, table, r.ID)
}

// Deletes partially created record
func (e *engine) rollback(ctx context.Context, table fielddef.TableID, id fielddef.RecordID) {
	r, err := e.storage.GetRecord(ctx, table, id)
	if err == nil {
		_, err = e.links.OnRecordDeleted(ctx, table, r)
	}
	if err == nil {
		err = e.storage.DeleteRecord(ctx, table, id)
	}
	if err != nil {
		logger.Error(fmt.Sprintf("record «%v» rollback failed: %v", id, err))
	}
}

func (e *engine) UpdateRecord(ctx context.Context, table fielddef.TableID, id fielddef.RecordID, values map[fielddef.FieldID]any) (*fielddef.Record, error) {
	cc, err := e.cells(ctx, table, values)
	if err != nil {
		return nil, err
	}

	var changes []links.Change
	if len(cc.values) > 0 {
		_, err := e.storage.UpdateRecord(ctx, table, id, func(r *fielddef.Record) error {
			for f, v := range cc.values {
				r.Set(f, v)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		changes = append(changes, links.Change{Table: table, Record: id, Fields: slices.Sorted(maps.Keys(cc.values))})
	} else if _, err := e.storage.GetRecord(ctx, table, id); err != nil {
		return nil, err
	}

	var errs []error
	for _, f := range cc.linkFields() {
		ch, err := e.links.SetLinks(ctx, f, id, cc.links[f])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		changes = append(changes, ch...)
	}
	if len(changes) > 0 {
		errs = append(errs, e.process(ctx, recompute.Event{Kind: recompute.EventKind_RecordChanged, Changes: changes}))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return e.storage.GetRecord(ctx, table, id)
}

func (e *engine) DeleteRecord(ctx context.Context, table fielddef.TableID, id fielddef.RecordID) error {
	r, err := e.storage.GetRecord(ctx, table, id)
	if err != nil {
		return err
	}
	changes, err := e.links.OnRecordDeleted(ctx, table, r)
	if err != nil {
		return err
	}
	if err := e.storage.DeleteRecord(ctx, table, id); err != nil {
		return err
	}
	return e.process(ctx, recompute.Event{Kind: recompute.EventKind_RecordDeleted, Deleted: []*fielddef.Record{r}, Changes: changes})
}

func (e *engine) SetLinks(ctx context.Context, field fielddef.FieldID, record fielddef.RecordID, targets []fielddef.RecordID) error {
	changes, err := e.links.SetLinks(ctx, field, record, targets)
	if err != nil {
		return err
	}
	return e.process(ctx, recompute.Event{Kind: recompute.EventKind_LinkChanged, Changes: changes})
}
