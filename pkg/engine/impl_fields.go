/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/untillpro/goutils/logger"

	"github.com/voedger/fieldflow/pkg/compat"
	"github.com/voedger/fieldflow/pkg/fielddef"
	"github.com/voedger/fieldflow/pkg/formula"
	"github.com/voedger/fieldflow/pkg/istructs"
	"github.com/voedger/fieldflow/pkg/links"
	"github.com/voedger/fieldflow/pkg/recompute"
)

func (e *engine) Field(ctx context.Context, id fielddef.FieldID) (*fielddef.Field, error) {
	return e.storage.FieldMeta(ctx, id)
}

func (e *engine) Fields(ctx context.Context, table fielddef.TableID) ([]*fielddef.Field, error) {
	if _, err := e.storage.Table(ctx, table); err != nil {
		return nil, err
	}
	return e.storage.ListFields(ctx, table)
}

func (e *engine) CreateField(ctx context.Context, f *fielddef.Field) (*fielddef.Field, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	f = f.Clone()
	if f.ID == fielddef.NullFieldID {
		f.ID = fielddef.NewFieldID()
	} else if err := e.absent(ctx, f.ID); err != nil {
		return nil, err
	}
	f.Order = e.nextOrder()
	if err := e.create(ctx, f); err != nil {
		return nil, err
	}
	return e.storage.FieldMeta(ctx, f.ID)
}

func (e *engine) RestoreField(ctx context.Context, f *fielddef.Field) (*fielddef.Field, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	f = f.Clone()
	if err := e.absent(ctx, f.ID); err != nil {
		return nil, err
	}
	if f.Order == 0 {
		f.Order = e.nextOrder()
	}
	e.lastOrder = max(e.lastOrder, f.Order)
	if err := e.create(ctx, f); err != nil {
		return nil, err
	}
	logger.Info(fmt.Sprintf("%v restored", f))
	return e.storage.FieldMeta(ctx, f.ID)
}

func (e *engine) CopyFields(ctx context.Context, fields []*fielddef.Field, m fielddef.IDMap) ([]*fielddef.Field, error) {
	copies, err := fielddef.RemapIDs(fields, m, formula.RemapText)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	res := make([]*fielddef.Field, 0, len(copies))
	for _, c := range copies {
		if err := e.absent(ctx, c.ID); err != nil {
			return res, err
		}
		if lo := c.Link(); lo != nil {
			lo.SymmetricField, lo.FKHostTable, lo.SelfKeyName, lo.ForeignKeyName = fielddef.NullFieldID, "", "", ""
		}
		c.Order = e.nextOrder()
		if err := e.create(ctx, c); err != nil {
			return res, err
		}
		f, err := e.storage.FieldMeta(ctx, c.ID)
		if err != nil {
			return res, err
		}
		res = append(res, f)
	}
	return res, nil
}

// Returns ErrAlreadyExists if field exists
func (e *engine) absent(ctx context.Context, id fielddef.FieldID) error {
	_, err := e.storage.FieldMeta(ctx, id)
	switch {
	case err == nil:
		return fielddef.ErrAlreadyExists("field «%v»", id)
	case errors.Is(err, fielddef.ErrNotFoundError):
		return nil
	}
	return err
}

func (e *engine) nextOrder() int {
	e.lastOrder++
	return e.lastOrder
}

// Creates field: shapes, checks cycles, saves, registers in graph and computes values
func (e *engine) create(ctx context.Context, f *fielddef.Field) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if err := e.checkTable(ctx, f); err != nil {
		return err
	}
	f.HasError = false

	if f.Kind == fielddef.FieldKind_Link {
		if err := e.graph.CheckField(f); err != nil {
			return err
		}
		sym, err := e.links.CreateLink(ctx, f)
		if err != nil {
			return err
		}
		events, err := e.register(ctx, f, sym, recompute.EventKind_FieldCreated)
		if err != nil {
			return err
		}
		return e.process(ctx, events...)
	}

	if err := e.validator.Shape(ctx, f); err != nil {
		return err
	}
	if err := e.graph.CheckField(f); err != nil {
		return err
	}
	if err := e.storage.SaveField(ctx, f); err != nil {
		return err
	}
	if err := e.graph.AddField(f); err != nil {
		return err
	}
	if logger.IsVerbose() {
		logger.Verbose(fmt.Sprintf("%v created", f))
	}
	return e.process(ctx, recompute.Event{Kind: recompute.EventKind_FieldCreated, Field: f.ID})
}

// Checks field table, primary flag and name uniqueness
func (e *engine) checkTable(ctx context.Context, f *fielddef.Field) error {
	if _, err := e.storage.Table(ctx, f.Table); err != nil {
		return err
	}
	if f.IsPrimary && (f.Kind == fielddef.FieldKind_Link) {
		return fielddef.ErrInvalid("%v: link can not be primary", f)
	}
	fields, err := e.storage.ListFields(ctx, f.Table)
	if err != nil {
		return err
	}
	for _, o := range fields {
		if o.ID == f.ID {
			continue
		}
		if f.IsPrimary && o.IsPrimary {
			return fielddef.ErrInvalid("%v: table «%v» has primary field «%v»", f, f.Table, o.ID)
		}
		if strings.EqualFold(o.Name, f.Name) && f.Name != "" {
			return fielddef.ErrAlreadyExists("%v: field name «%s» is used by «%v»", f, f.Name, o.ID)
		}
	}
	return nil
}

// Registers link field and its new symmetric field in graph.
// Returns events to process
func (e *engine) register(ctx context.Context, f, sym *fielddef.Field, kind recompute.EventKind) ([]recompute.Event, error) {
	if err := e.graph.AddField(f); err != nil {
		return nil, err
	}
	events := []recompute.Event{{Kind: kind, Field: f.ID}}
	if sym == nil {
		return events, nil
	}
	sym.Order = e.nextOrder()
	if err := e.storage.SaveField(ctx, sym); err != nil {
		return nil, err
	}
	if err := e.graph.AddField(sym); err != nil {
		return nil, err
	}
	return append(events, recompute.Event{Kind: recompute.EventKind_FieldCreated, Field: sym.ID}), nil
}

func (e *engine) ConvertField(ctx context.Context, f *fielddef.Field) (*fielddef.Field, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	old, err := e.storage.FieldMeta(ctx, f.ID)
	if err != nil {
		return nil, err
	}
	f = f.Clone()
	f.Table, f.Order, f.IsPrimary, f.HasError = old.Table, old.Order, old.IsPrimary, old.HasError
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if err := e.checkTable(ctx, f); err != nil {
		return nil, err
	}

	switch {
	case old.Kind == fielddef.FieldKind_Link && f.Kind == fielddef.FieldKind_Link:
		err = e.convertLink(ctx, old, f)
	case f.Kind == fielddef.FieldKind_Link:
		err = e.toLink(ctx, old, f)
	case old.Kind == fielddef.FieldKind_Link:
		err = e.fromLink(ctx, old, f)
	default:
		err = e.convert(ctx, old, f)
	}
	if err != nil {
		return nil, err
	}
	return e.storage.FieldMeta(ctx, f.ID)
}

func (e *engine) convert(ctx context.Context, old, f *fielddef.Field) error {
	if err := e.validator.Shape(ctx, f); err != nil {
		return err
	}
	if err := e.graph.CheckField(f); err != nil {
		return err
	}

	change := compat.Compare(old, f)
	if change.AffectsValues() && !f.IsComputed() {
		if err := e.coerceCells(ctx, f); err != nil {
			return err
		}
	}
	if err := e.storage.SaveField(ctx, f); err != nil {
		return err
	}
	if err := e.graph.AddField(f); err != nil {
		return err
	}
	if !change.AffectsValues() {
		return nil
	}
	if logger.IsVerbose() {
		logger.Verbose(fmt.Sprintf("%v converted:\n%s", f, change.Diff))
	}
	return e.process(ctx, recompute.Event{Kind: recompute.EventKind_FieldConverted, Field: f.ID})
}

// Coerces stored cells to the field cell type. Not convertible values are cleared.
// Unknown select values are added to choices
func (e *engine) coerceCells(ctx context.Context, f *fielddef.Field) error {
	records, err := e.storage.QueryRecords(ctx, f.Table, istructs.QueryParams{
		Where: func(r *fielddef.Record) bool { return r.Get(f.ID) != nil },
	})
	if err != nil {
		return err
	}
	opts, _ := f.Options.(*fielddef.ValueOptions)

	batch := make([]istructs.ComputedValues, 0, len(records))
	for _, r := range records {
		v, err := fielddef.Coerce(r.Get(f.ID), f.CellType, f.IsMultiple)
		if err != nil {
			if logger.IsVerbose() {
				logger.Verbose(fmt.Sprintf("%v, record «%v»: %v", f, r.ID, err))
			}
			v = nil
		}
		if f.CellType.IsSelect() && opts != nil {
			for _, c := range fielddef.AsList(v) {
				if name := fielddef.ToText(c); opts.ChoiceIndex(name) < 0 {
					opts.Choices = append(opts.Choices, fielddef.Choice{Name: name})
				}
			}
		}
		if !fielddef.Equal(v, r.Get(f.ID)) {
			batch = append(batch, istructs.ComputedValues{Record: r.ID, Values: map[fielddef.FieldID]any{f.ID: v}})
		}
	}
	return e.storage.WriteComputedBatch(ctx, f.Table, batch)
}

func (e *engine) convertLink(ctx context.Context, old, f *fielddef.Field) error {
	if err := e.graph.CheckField(f); err != nil {
		return err
	}
	res, err := e.links.ConvertLink(ctx, old, f)
	if err != nil {
		return err
	}

	var sym *fielddef.Field
	if res.Symmetric != nil && res.Symmetric.ID != old.Link().SymmetricField {
		sym = res.Symmetric
	}
	events, err := e.register(ctx, f, sym, recompute.EventKind_FieldConverted)
	if err != nil {
		return err
	}
	if res.Symmetric != nil && sym == nil {
		if err := e.graph.AddField(res.Symmetric); err != nil {
			return err
		}
		events = append(events, recompute.Event{Kind: recompute.EventKind_FieldConverted, Field: res.Symmetric.ID})
	}
	if res.DeletedSymmetric != fielddef.NullFieldID {
		e.graph.RemoveField(res.DeletedSymmetric)
		events = append(events, recompute.Event{Kind: recompute.EventKind_FieldDeleted, Field: res.DeletedSymmetric})
	}
	return e.process(ctx, events...)
}

// Converts value or computed field to link. Texts of cells are matched with foreign titles
func (e *engine) toLink(ctx context.Context, old, f *fielddef.Field) error {
	if old.IsPrimary {
		return fielddef.ErrInvalid("%v: primary field can not be a link", old)
	}
	if err := e.graph.CheckField(f); err != nil {
		return err
	}
	records, err := e.storage.QueryRecords(ctx, old.Table, istructs.QueryParams{
		Where: func(r *fielddef.Record) bool { return r.Get(old.ID) != nil },
	})
	if err != nil {
		return err
	}

	sym, err := e.links.CreateLink(ctx, f)
	if err != nil {
		return err
	}
	titles := make(map[fielddef.RecordID][]string, len(records))
	batch := make([]istructs.ComputedValues, 0, len(records))
	for _, r := range records {
		titles[r.ID] = splitTitles(r.Get(old.ID))
		batch = append(batch, istructs.ComputedValues{Record: r.ID, Values: map[fielddef.FieldID]any{old.ID: nil}})
	}
	if err := e.storage.WriteComputedBatch(ctx, old.Table, batch); err != nil {
		return err
	}

	events, err := e.register(ctx, f, sym, recompute.EventKind_FieldConverted)
	if err != nil {
		return err
	}
	changes, err := e.relink(ctx, f, titles)
	if err != nil {
		return err
	}
	if len(changes) > 0 {
		events = append(events, recompute.Event{Kind: recompute.EventKind_LinkChanged, Changes: changes})
	}
	return e.process(ctx, events...)
}

// Links records to foreign records with matching titles
func (e *engine) relink(ctx context.Context, f *fielddef.Field, titles map[fielddef.RecordID][]string) ([]links.Change, error) {
	lo := f.Link()
	foreign, err := e.storage.QueryRecords(ctx, lo.ForeignTable, istructs.QueryParams{})
	if err != nil {
		return nil, err
	}

	ids := make([]fielddef.RecordID, 0, len(titles))
	for id := range titles {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var changes []links.Change
	for _, id := range ids {
		var targets []fielddef.RecordID
		for _, t := range titles[id] {
			for _, r := range foreign {
				if fielddef.EqualFold(fielddef.ToText(r.Get(lo.LookupField)), t) {
					targets = append(targets, r.ID)
					break
				}
			}
		}
		if len(targets) == 0 {
			continue
		}
		if !f.IsMultiple {
			targets = targets[len(targets)-1:]
		}
		ch, err := e.links.SetLinks(ctx, f.ID, id, targets)
		if err != nil {
			if errors.Is(err, fielddef.ErrDuplicateLinkError) {
				logger.Warning(fmt.Sprintf("%v, record «%v»: %v", f, id, err))
				continue
			}
			return changes, err
		}
		changes = append(changes, ch...)
	}
	return changes, nil
}

func splitTitles(v any) []string {
	var res []string
	for _, i := range fielddef.AsList(fielddef.Normalize(v)) {
		for _, s := range strings.Split(fielddef.ToText(i), titlesSeparator) {
			if s = strings.TrimSpace(s); s != "" {
				res = append(res, s)
			}
		}
	}
	return res
}

// Converts link to value or computed field. Link titles become texts
func (e *engine) fromLink(ctx context.Context, old, f *fielddef.Field) error {
	if err := e.validator.Shape(ctx, f); err != nil {
		return err
	}
	if err := e.graph.CheckField(f); err != nil {
		return err
	}
	records, err := e.storage.QueryRecords(ctx, old.Table, istructs.QueryParams{
		Where: func(r *fielddef.Record) bool { return r.Get(old.ID) != nil },
	})
	if err != nil {
		return err
	}

	deleted, err := e.links.DeleteLink(ctx, old.ID)
	if err != nil {
		return err
	}
	if err := e.storage.SaveField(ctx, f); err != nil {
		return err
	}
	if err := e.graph.AddField(f); err != nil {
		return err
	}

	if !f.IsComputed() {
		batch := make([]istructs.ComputedValues, 0, len(records))
		for _, r := range records {
			v, err := fielddef.Coerce(fielddef.ToText(r.Get(old.ID)), f.CellType, f.IsMultiple)
			if err != nil {
				continue
			}
			batch = append(batch, istructs.ComputedValues{Record: r.ID, Values: map[fielddef.FieldID]any{f.ID: v}})
		}
		if err := e.storage.WriteComputedBatch(ctx, f.Table, batch); err != nil {
			return err
		}
	}

	events := []recompute.Event{{Kind: recompute.EventKind_FieldConverted, Field: f.ID}}
	for _, id := range deleted {
		if id != f.ID {
			e.graph.RemoveField(id)
			events = append(events, recompute.Event{Kind: recompute.EventKind_FieldDeleted, Field: id})
		}
	}
	return e.process(ctx, events...)
}

func (e *engine) DeleteField(ctx context.Context, id fielddef.FieldID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	f, err := e.storage.FieldMeta(ctx, id)
	if err != nil {
		return err
	}
	if f.IsPrimary {
		return fielddef.ErrInvalid("%v: primary field can not be deleted", f)
	}

	deleted := []fielddef.FieldID{id}
	if f.Kind == fielddef.FieldKind_Link {
		if deleted, err = e.links.DeleteLink(ctx, id); err != nil {
			return err
		}
	} else if err := e.storage.DeleteField(ctx, id); err != nil {
		return err
	}
	events, err := e.dropped(ctx, deleted...)
	if err != nil {
		return err
	}
	logger.Info(fmt.Sprintf("%v deleted", f))
	return e.process(ctx, events...)
}

// Unregisters deleted fields and retitles links which used them.
// Returns events to process
func (e *engine) dropped(ctx context.Context, deleted ...fielddef.FieldID) ([]recompute.Event, error) {
	var (
		events   []recompute.Event
		retitled []recompute.Event
	)
	for _, id := range deleted {
		e.graph.RemoveField(id)
		events = append(events, recompute.Event{Kind: recompute.EventKind_FieldDeleted, Field: id})

		changed, err := e.links.OnFieldDeleted(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, c := range changed {
			lf, err := e.storage.FieldMeta(ctx, c)
			if err != nil {
				return nil, err
			}
			if err := e.graph.AddField(lf); err != nil {
				return nil, err
			}
			retitled = append(retitled, recompute.Event{Kind: recompute.EventKind_FieldConverted, Field: c})
		}
	}
	return append(events, retitled...), nil
}

func (e *engine) RenameChoice(ctx context.Context, field fielddef.FieldID, old, new string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	res, err := e.validator.RenameChoice(ctx, field, old, new)
	if err != nil {
		return err
	}
	f, err := e.storage.FieldMeta(ctx, field)
	if err != nil {
		return err
	}
	for _, id := range res.Fields {
		dep, err := e.storage.FieldMeta(ctx, id)
		if err != nil {
			return err
		}
		if err := e.graph.AddField(dep); err != nil {
			return err
		}
	}
	if len(res.Records) == 0 {
		return nil
	}
	changes := make([]links.Change, 0, len(res.Records))
	for _, id := range res.Records {
		changes = append(changes, links.Change{Table: f.Table, Record: id, Fields: []fielddef.FieldID{field}})
	}
	return e.process(ctx, recompute.Event{Kind: recompute.EventKind_RecordChanged, Changes: changes})
}

// Processes events one by one. Errors of all events are joined
func (e *engine) process(ctx context.Context, events ...recompute.Event) error {
	var errs []error
	for _, ev := range events {
		res, err := e.scheduler.Process(ctx, ev)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if res.State == recompute.State_PartiallyErrored {
			logger.Warning(fmt.Sprintf("%v: fields errored: %v", ev.Kind, res.Errored))
		}
	}
	return errors.Join(errs...)
}
