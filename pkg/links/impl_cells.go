/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package links

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/untillpro/goutils/logger"

	"github.com/voedger/fieldflow/pkg/fielddef"
	"github.com/voedger/fieldflow/pkg/istructs"
)

func (m *manager) SetLinks(ctx context.Context, field fielddef.FieldID, record fielddef.RecordID, targets []fielddef.RecordID) ([]Change, error) {
	p, err := m.pair(ctx, field)
	if err != nil {
		return nil, err
	}
	targets = dedupe(targets)
	if !p.opts.Relationship.IsMultiple() && len(targets) > 1 {
		return nil, fielddef.ErrInvalid("%v: %d links to single value %v cell", p.field, len(targets), p.opts.Relationship)
	}
	refs, err := m.refs(ctx, p.opts.ForeignTable, p.opts.LookupField, targets)
	if err != nil {
		return nil, err
	}

	host, err := m.storage.GetRecord(ctx, p.field.Table, record)
	if err != nil {
		return nil, err
	}
	old := fielddef.LinkIDs(host.Get(field))
	added := diff(targets, old)
	removed := diff(old, targets)

	claimed, err := m.claim(ctx, p, record, added, removed)
	if err != nil {
		return nil, err
	}

	_, err = m.storage.UpdateRecord(ctx, p.field.Table, record, func(r *fielddef.Record) error {
		r.Set(field, cellValue(refs, p.opts.Relationship.IsMultiple()))
		return nil
	})
	if err != nil {
		m.release(ctx, claimed)
		return nil, err
	}
	m.release(ctx, p.claims(record, removed))

	changes := []Change{{Table: p.field.Table, Record: record, Fields: []fielddef.FieldID{field}}}
	if p.sym == nil {
		return changes, nil
	}

	symOpts := p.sym.Link()
	hostRef := fielddef.LinkRef{ID: record, Title: title(host, symOpts.LookupField)}
	for _, t := range added {
		if err := m.updateCell(ctx, p.sym, t, func(refs []fielddef.LinkRef) []fielddef.LinkRef {
			if !symOpts.Relationship.IsMultiple() {
				return []fielddef.LinkRef{hostRef}
			}
			return append(removeRef(refs, record), hostRef)
		}); err != nil {
			return changes, err
		}
		changes = append(changes, Change{Table: p.sym.Table, Record: t, Fields: []fielddef.FieldID{p.sym.ID}})
	}
	for _, t := range removed {
		if err := m.updateCell(ctx, p.sym, t, func(refs []fielddef.LinkRef) []fielddef.LinkRef {
			return removeRef(refs, record)
		}); err != nil {
			return changes, err
		}
		changes = append(changes, Change{Table: p.sym.Table, Record: t, Fields: []fielddef.FieldID{p.sym.ID}})
	}
	return changes, nil
}

// Atomically rewrites link cell of the record. Missing record is skipped
func (m *manager) updateCell(ctx context.Context, f *fielddef.Field, record fielddef.RecordID, update func([]fielddef.LinkRef) []fielddef.LinkRef) error {
	multiple := f.Link().Relationship.IsMultiple()
	_, err := m.storage.UpdateRecord(ctx, f.Table, record, func(r *fielddef.Record) error {
		r.Set(f.ID, cellValue(update(linkRefs(r.Get(f.ID))), multiple))
		return nil
	})
	if errors.Is(err, fielddef.ErrNotFoundError) {
		return nil
	}
	return err
}

type claim struct {
	field         fielddef.FieldID
	target, owner fielddef.RecordID
}

// Returns claims which link between host record and targets requires.
//
// Target is claimed through the field if relationship is OneOne or OneMany.
// Host record is claimed through symmetric field if symmetric relationship is OneOne or OneMany.
func (p *pair) claims(record fielddef.RecordID, targets []fielddef.RecordID) []claim {
	res := make([]claim, 0, 2*len(targets))
	for _, t := range targets {
		if p.opts.Relationship.IsUniqueTarget() {
			res = append(res, claim{field: p.field.ID, target: t, owner: record})
		}
		if p.sym != nil && p.sym.Link().Relationship.IsUniqueTarget() {
			res = append(res, claim{field: p.sym.ID, target: record, owner: t})
		}
	}
	return res
}

// Takes claims for the new links. All or nothing: on error taken claims are released.
//
// Single value host cell replaces its link, so symmetric claims of removed links are released first.
func (m *manager) claim(ctx context.Context, p *pair, record fielddef.RecordID, added, removed []fielddef.RecordID) ([]claim, error) {
	var released []claim
	if p.sym != nil && p.sym.Link().Relationship.IsUniqueTarget() {
		for _, t := range removed {
			c := claim{field: p.sym.ID, target: record, owner: t}
			if err := m.storage.Release(ctx, c.field, c.target, c.owner); err != nil {
				return nil, err
			}
			released = append(released, c)
		}
	}

	claims := p.claims(record, added)
	taken := make([]claim, 0, len(claims))
	for _, c := range claims {
		ok, holder, err := m.storage.Claim(ctx, c.field, c.target, c.owner)
		if err == nil && !ok {
			err = fielddef.ErrDuplicateLink("«%v» is already linked with «%v» through «%v»", c.target, holder, c.field)
		}
		if err != nil {
			m.release(ctx, taken)
			m.restore(ctx, released)
			return nil, err
		}
		taken = append(taken, c)
	}
	return taken, nil
}

// Takes back claims released by failed write
func (m *manager) restore(ctx context.Context, claims []claim) {
	for _, c := range claims {
		if ok, holder, err := m.storage.Claim(ctx, c.field, c.target, c.owner); err != nil || !ok {
			logger.Error(fmt.Sprintf("restore claim of «%v» by «%v» through «%v»: holder «%v», %v", c.target, c.owner, c.field, holder, err))
		}
	}
}

func (m *manager) release(ctx context.Context, claims []claim) {
	for _, c := range claims {
		if err := m.storage.Release(ctx, c.field, c.target, c.owner); err != nil {
			logger.Error(fmt.Sprintf("release claim of «%v» by «%v» through «%v»: %v", c.target, c.owner, c.field, err))
		}
	}
}

func (m *manager) OnRecordDeleted(ctx context.Context, table fielddef.TableID, record *fielddef.Record) (changes []Change, err error) {
	tables, err := m.storage.Tables(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range tables {
		fields, err := m.storage.ListFields(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		for _, f := range fields {
			opts := f.Link()
			if opts == nil {
				continue
			}
			if f.Table == table {
				if ids := fielddef.LinkIDs(record.Get(f.ID)); len(ids) > 0 {
					p, err := m.pair(ctx, f.ID)
					if err != nil {
						return changes, err
					}
					m.release(ctx, p.claims(record.ID, ids))
				}
			}
			if opts.ForeignTable != table {
				continue
			}
			c, err := m.dropBacklinks(ctx, f, record.ID)
			if err != nil {
				return changes, err
			}
			changes = append(changes, c...)
		}
	}
	if logger.IsVerbose() {
		logger.Verbose(fmt.Sprintf("record «%v» of «%v» deleted, %d backlinks cleared", record.ID, table, len(changes)))
	}
	return changes, nil
}

// Removes references to the record from link cells of the field
func (m *manager) dropBacklinks(ctx context.Context, f *fielddef.Field, record fielddef.RecordID) (changes []Change, err error) {
	holders, err := m.storage.QueryRecords(ctx, f.Table, istructs.QueryParams{
		Where: func(r *fielddef.Record) bool { return slices.Contains(fielddef.LinkIDs(r.Get(f.ID)), record) },
	})
	if err != nil {
		return nil, err
	}
	for _, h := range holders {
		if err := m.updateCell(ctx, f, h.ID, func(refs []fielddef.LinkRef) []fielddef.LinkRef {
			return removeRef(refs, record)
		}); err != nil {
			return changes, err
		}
		if f.Link().Relationship.IsUniqueTarget() {
			if err := m.storage.Release(ctx, f.ID, record, h.ID); err != nil {
				return changes, err
			}
		}
		changes = append(changes, Change{Table: f.Table, Record: h.ID, Fields: []fielddef.FieldID{f.ID}})
	}
	return changes, nil
}

// Returns references to the records of the table with titles from lookup field.
//
// Returns ErrReferenceMissing if any record does not exist.
func (m *manager) refs(ctx context.Context, table fielddef.TableID, lookup fielddef.FieldID, ids []fielddef.RecordID) ([]fielddef.LinkRef, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	records, err := m.storage.QueryRecords(ctx, table, istructs.QueryParams{IDs: ids})
	if err != nil {
		return nil, err
	}
	byID := make(map[fielddef.RecordID]*fielddef.Record, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}
	res := make([]fielddef.LinkRef, 0, len(ids))
	for _, id := range ids {
		r, ok := byID[id]
		if !ok {
			return nil, fielddef.ErrReferenceMissing("record «%v» of table «%v»", id, table)
		}
		res = append(res, fielddef.LinkRef{ID: id, Title: title(r, lookup)})
	}
	return res, nil
}

func title(r *fielddef.Record, lookup fielddef.FieldID) string {
	if lookup == fielddef.NullFieldID {
		return ""
	}
	return fielddef.ToText(r.Get(lookup))
}

// Returns link references of the cell in cell order
func linkRefs(v any) []fielddef.LinkRef {
	list := fielddef.AsList(fielddef.Normalize(v))
	res := make([]fielddef.LinkRef, 0, len(list))
	for _, i := range list {
		switch x := i.(type) {
		case fielddef.LinkRef:
			res = append(res, x)
		case string:
			res = append(res, fielddef.LinkRef{ID: fielddef.RecordID(x)})
		}
	}
	return res
}

// Returns cell value for references: list for many value cell, single reference otherwise
func cellValue(refs []fielddef.LinkRef, multiple bool) any {
	switch {
	case len(refs) == 0:
		return nil
	case multiple:
		return fielddef.Normalize(refs)
	}
	return refs[len(refs)-1]
}

func removeRef(refs []fielddef.LinkRef, id fielddef.RecordID) []fielddef.LinkRef {
	return slices.DeleteFunc(refs, func(r fielddef.LinkRef) bool { return r.ID == id })
}

func dedupe(ids []fielddef.RecordID) []fielddef.RecordID {
	res := make([]fielddef.RecordID, 0, len(ids))
	for _, id := range ids {
		if id != fielddef.NullRecordID && !slices.Contains(res, id) {
			res = append(res, id)
		}
	}
	return res
}

// Returns ids of a which are not in b
func diff(a, b []fielddef.RecordID) []fielddef.RecordID {
	var res []fielddef.RecordID
	for _, id := range a {
		if !slices.Contains(b, id) {
			res = append(res, id)
		}
	}
	return res
}

// Returns link cell with titles refreshed from linked records.
// References to records absent in records keep their titles
func RefreshTitles(cell any, multiple bool, lookup fielddef.FieldID, records map[fielddef.RecordID]*fielddef.Record) any {
	refs := linkRefs(cell)
	for i, ref := range refs {
		if r := records[ref.ID]; r != nil {
			refs[i].Title = title(r, lookup)
		}
	}
	return cellValue(refs, multiple)
}
