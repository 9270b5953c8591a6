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

func (m *manager) CreateLink(ctx context.Context, host *fielddef.Field) (*fielddef.Field, error) {
	if err := m.complete(ctx, host); err != nil {
		return nil, err
	}
	opts := host.Link()

	var sym *fielddef.Field
	if !opts.IsOneWay {
		s, err := m.newSymmetric(ctx, host)
		if err != nil {
			return nil, err
		}
		sym = s
	}
	if err := m.setKeys(ctx, host, sym); err != nil {
		return nil, err
	}

	fields := []*fielddef.Field{host}
	if sym != nil {
		fields = append(fields, sym)
	}
	if err := m.storage.SaveFields(ctx, fields...); err != nil {
		return nil, err
	}
	if logger.IsVerbose() {
		logger.Verbose(fmt.Sprintf("%v created, relationship %v, symmetric «%v»", host, opts.Relationship, opts.SymmetricField))
	}
	return sym, nil
}

// Fills derived link options and cell shape of host field
func (m *manager) complete(ctx context.Context, host *fielddef.Field) error {
	if host.Kind != fielddef.FieldKind_Link {
		return fielddef.ErrInvalid("%v is not a link", host)
	}
	if err := host.Validate(); err != nil {
		return err
	}
	opts := host.Link()

	hostTable, err := m.storage.Table(ctx, host.Table)
	if err != nil {
		return err
	}
	foreignTable, err := m.storage.Table(ctx, opts.ForeignTable)
	if err != nil {
		return err
	}
	opts.ForeignBase = fielddef.NullBaseID
	if foreignTable.Base != hostTable.Base {
		opts.ForeignBase = foreignTable.Base
	}

	host.CellType = fielddef.CellType_Link
	host.IsMultiple = opts.Relationship.IsMultiple()
	host.IsPrimary = false

	if opts.LookupField == fielddef.NullFieldID {
		primary, err := m.primary(ctx, opts.ForeignTable)
		if err != nil {
			return err
		}
		opts.LookupField = primary
	}
	return nil
}

// Returns new symmetric field for two-way host link. Host options get symmetric field id.
func (m *manager) newSymmetric(ctx context.Context, host *fielddef.Field) (*fielddef.Field, error) {
	opts := host.Link()

	hostTable, err := m.storage.Table(ctx, host.Table)
	if err != nil {
		return nil, err
	}
	foreignFields, err := m.storage.ListFields(ctx, opts.ForeignTable)
	if err != nil {
		return nil, err
	}
	primary, err := m.primary(ctx, host.Table)
	if err != nil {
		return nil, err
	}

	order := 0
	names := make([]string, 0, len(foreignFields))
	for _, f := range foreignFields {
		order = max(order, f.Order)
		names = append(names, f.Name)
	}
	if opts.ForeignTable == host.Table {
		order = max(order, host.Order)
		names = append(names, host.Name)
	}

	sym := &fielddef.Field{
		ID:         fielddef.NewFieldID(),
		Table:      opts.ForeignTable,
		Name:       uniqueName(hostTable.Name, names),
		Kind:       fielddef.FieldKind_Link,
		CellType:   fielddef.CellType_Link,
		IsMultiple: opts.Relationship.Inverse().IsMultiple(),
		Order:      order + 1,
		Options: &fielddef.LinkOptions{
			Relationship:   opts.Relationship.Inverse(),
			ForeignTable:   host.Table,
			SymmetricField: host.ID,
			LookupField:    primary,
		},
	}
	if opts.ForeignBase != fielddef.NullBaseID {
		sym.Link().ForeignBase = hostTable.Base
	}
	opts.SymmetricField = sym.ID
	opts.IsOneWay = false
	return sym, nil
}

// Sets foreign key layout of the link and its symmetric field
func (m *manager) setKeys(ctx context.Context, host, sym *fielddef.Field) error {
	opts := host.Link()
	hostKey := keyFKPrefix + string(host.ID)
	symKey := keyID
	if sym != nil {
		symKey = keyFKPrefix + string(sym.ID)
	}

	switch opts.Relationship {
	case fielddef.Relationship_ManyMany:
		key := istructs.NewJunctionKey(host.ID, opts.SymmetricField)
		name, err := m.storage.EnsureJunction(ctx, key)
		if err != nil {
			return err
		}
		opts.FKHostTable, opts.SelfKeyName, opts.ForeignKeyName = name, symKey, hostKey
	case fielddef.Relationship_OneMany:
		opts.FKHostTable, opts.SelfKeyName, opts.ForeignKeyName = string(opts.ForeignTable), symKey, keyID
	default:
		opts.FKHostTable, opts.SelfKeyName, opts.ForeignKeyName = string(host.Table), keyID, hostKey
	}

	if sym != nil {
		so := sym.Link()
		so.FKHostTable = opts.FKHostTable
		so.SelfKeyName, so.ForeignKeyName = opts.ForeignKeyName, opts.SelfKeyName
	}
	return nil
}

func (m *manager) primary(ctx context.Context, table fielddef.TableID) (fielddef.FieldID, error) {
	fields, err := m.storage.ListFields(ctx, table)
	if err != nil {
		return fielddef.NullFieldID, err
	}
	for _, f := range fields {
		if f.IsPrimary {
			return f.ID, nil
		}
	}
	if len(fields) > 0 {
		return fields[0].ID, nil
	}
	return fielddef.NullFieldID, fielddef.ErrNotFound("primary field of table «%v»", table)
}

func uniqueName(name string, used []string) string {
	res := name
	for i := 2; slices.Contains(used, res); i++ {
		res = fmt.Sprintf("%s %d", name, i)
	}
	return res
}

func (m *manager) ConvertLink(ctx context.Context, old, new *fielddef.Field) (res ConvertResult, err error) {
	if old.Link() == nil {
		return res, fielddef.ErrInvalid("%v is not a link", old)
	}
	if err := m.complete(ctx, new); err != nil {
		return res, err
	}
	oldOpts, newOpts := old.Link(), new.Link()

	var oldSym *fielddef.Field
	if oldOpts.IsTwoWay() {
		if oldSym, err = m.storage.FieldMeta(ctx, oldOpts.SymmetricField); err != nil && !errors.Is(err, fielddef.ErrNotFoundError) {
			return res, err
		}
	}

	retarget := oldOpts.ForeignTable != newOpts.ForeignTable
	keepSym := oldSym != nil && !retarget && !newOpts.IsOneWay

	if oldSym != nil && !keepSym {
		if err := m.dropField(ctx, oldSym); err != nil {
			return res, err
		}
		res.DeletedSymmetric = oldSym.ID
	}
	if oldOpts.Relationship == fielddef.Relationship_ManyMany && (newOpts.Relationship != fielddef.Relationship_ManyMany || !keepSym) {
		if err := m.storage.DropJunction(ctx, istructs.NewJunctionKey(old.ID, oldOpts.SymmetricField)); err != nil {
			return res, err
		}
	}

	if retarget {
		if err := m.clearCells(ctx, old.Table, old.ID); err != nil {
			return res, err
		}
		if err := m.storage.ReleaseAll(ctx, old.ID); err != nil {
			return res, err
		}
	} else if res.Pruned, err = m.prune(ctx, new); err != nil {
		return res, err
	}

	var sym *fielddef.Field
	switch {
	case keepSym:
		sym = oldSym
		so := sym.Link()
		so.Relationship = newOpts.Relationship.Inverse()
		so.ForeignBase = fielddef.NullBaseID
		if newOpts.ForeignBase != fielddef.NullBaseID {
			t, err := m.storage.Table(ctx, new.Table)
			if err != nil {
				return res, err
			}
			so.ForeignBase = t.Base
		}
		sym.IsMultiple = so.Relationship.IsMultiple()
		newOpts.SymmetricField = sym.ID
	case !newOpts.IsOneWay:
		if sym, err = m.newSymmetric(ctx, new); err != nil {
			return res, err
		}
	default:
		newOpts.SymmetricField = fielddef.NullFieldID
	}
	if err := m.setKeys(ctx, new, sym); err != nil {
		return res, err
	}

	fields := []*fielddef.Field{new}
	if sym != nil {
		fields = append(fields, sym)
	}
	if err := m.storage.SaveFields(ctx, fields...); err != nil {
		return res, err
	}
	if sym != nil {
		if err := m.rebuildSymmetric(ctx, &pair{field: new, opts: newOpts, sym: sym}); err != nil {
			return res, err
		}
	}
	res.Symmetric = sym

	if logger.IsVerbose() {
		logger.Verbose(fmt.Sprintf("%v converted: %v → %v, %d records pruned", new, oldOpts.Relationship, newOpts.Relationship, len(res.Pruned)))
	}
	return res, nil
}

// Removes link cells which became illegal for field relationship and rebuilds field claims.
//
// Records are visited from most recent to oldest, references of the cell from the highest
// offset to the lowest, so the most recently added link wins.
func (m *manager) prune(ctx context.Context, f *fielddef.Field) (pruned []fielddef.RecordID, err error) {
	opts := f.Link()
	records, err := m.storage.QueryRecords(ctx, f.Table, istructs.QueryParams{})
	if err != nil {
		return nil, err
	}
	if err := m.storage.ReleaseAll(ctx, f.ID); err != nil {
		return nil, err
	}

	taken := make(map[fielddef.RecordID]bool)
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		refs := linkRefs(r.Get(f.ID))
		kept := make([]fielddef.LinkRef, 0, len(refs))
		for j := len(refs) - 1; j >= 0; j-- {
			ref := refs[j]
			if !opts.Relationship.IsMultiple() && len(kept) > 0 {
				break
			}
			if opts.Relationship.IsUniqueTarget() {
				if taken[ref.ID] {
					continue
				}
				taken[ref.ID] = true
			}
			kept = append(kept, ref)
		}
		slices.Reverse(kept)

		if len(kept) != len(refs) {
			if _, err := m.storage.UpdateRecord(ctx, f.Table, r.ID, func(r *fielddef.Record) error {
				r.Set(f.ID, cellValue(kept, opts.Relationship.IsMultiple()))
				return nil
			}); err != nil {
				return nil, err
			}
			pruned = append(pruned, r.ID)
		} else if !opts.Relationship.IsMultiple() && len(kept) == 1 {
			if _, isList := r.Get(f.ID).([]any); isList {
				if err := m.storage.WriteComputedValues(ctx, f.Table, r.ID, map[fielddef.FieldID]any{f.ID: kept[0]}); err != nil {
					return nil, err
				}
			}
		}

		if opts.Relationship.IsUniqueTarget() {
			for _, ref := range kept {
				if _, _, err := m.storage.Claim(ctx, f.ID, ref.ID, r.ID); err != nil {
					return nil, err
				}
			}
		}
	}
	slices.Reverse(pruned)
	return pruned, nil
}

// Rewrites symmetric cells from host cells and rebuilds symmetric field claims
func (m *manager) rebuildSymmetric(ctx context.Context, p *pair) error {
	hosts, err := m.storage.QueryRecords(ctx, p.field.Table, istructs.QueryParams{})
	if err != nil {
		return err
	}
	back := make(map[fielddef.RecordID][]fielddef.RecordID)
	for _, h := range hosts {
		for _, id := range fielddef.LinkIDs(h.Get(p.field.ID)) {
			back[id] = append(back[id], h.ID)
		}
	}

	symOpts := p.sym.Link()
	if err := m.storage.ReleaseAll(ctx, p.sym.ID); err != nil {
		return err
	}
	foreign, err := m.storage.QueryRecords(ctx, p.sym.Table, istructs.QueryParams{})
	if err != nil {
		return err
	}
	batch := make([]istructs.ComputedValues, 0, len(foreign))
	for _, f := range foreign {
		ids := back[f.ID]
		if !symOpts.Relationship.IsMultiple() && len(ids) > 1 {
			ids = ids[len(ids)-1:]
		}
		refs, err := m.refs(ctx, p.field.Table, symOpts.LookupField, ids)
		if err != nil {
			return err
		}
		v := cellValue(refs, symOpts.Relationship.IsMultiple())
		if !fielddef.Equal(v, f.Get(p.sym.ID)) {
			batch = append(batch, istructs.ComputedValues{Record: f.ID, Values: map[fielddef.FieldID]any{p.sym.ID: v}})
		}
		if symOpts.Relationship.IsUniqueTarget() {
			for _, id := range ids {
				if _, _, err := m.storage.Claim(ctx, p.sym.ID, id, f.ID); err != nil {
					return err
				}
			}
		}
	}
	return m.storage.WriteComputedBatch(ctx, p.sym.Table, batch)
}

func (m *manager) DeleteLink(ctx context.Context, id fielddef.FieldID) (deleted []fielddef.FieldID, err error) {
	p, err := m.pair(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.opts.Relationship == fielddef.Relationship_ManyMany {
		if err := m.storage.DropJunction(ctx, istructs.NewJunctionKey(p.field.ID, p.opts.SymmetricField)); err != nil {
			return nil, err
		}
	}
	if p.sym != nil {
		if err := m.dropField(ctx, p.sym); err != nil {
			return nil, err
		}
		deleted = append(deleted, p.sym.ID)
	}
	if err := m.dropField(ctx, p.field); err != nil {
		return nil, err
	}
	return append([]fielddef.FieldID{p.field.ID}, deleted...), nil
}

// Clears field cells, releases field claims and deletes field definition
func (m *manager) dropField(ctx context.Context, f *fielddef.Field) error {
	if err := m.clearCells(ctx, f.Table, f.ID); err != nil {
		return err
	}
	if err := m.storage.ReleaseAll(ctx, f.ID); err != nil {
		return err
	}
	if err := m.storage.DeleteField(ctx, f.ID); err != nil && !errors.Is(err, fielddef.ErrNotFoundError) {
		return err
	}
	if logger.IsVerbose() {
		logger.Verbose(fmt.Sprintf("%v dropped", f))
	}
	return nil
}

func (m *manager) clearCells(ctx context.Context, table fielddef.TableID, field fielddef.FieldID) error {
	records, err := m.storage.QueryRecords(ctx, table, istructs.QueryParams{
		Where: func(r *fielddef.Record) bool { return r.Get(field) != nil },
	})
	if err != nil {
		return err
	}
	batch := make([]istructs.ComputedValues, 0, len(records))
	for _, r := range records {
		batch = append(batch, istructs.ComputedValues{Record: r.ID, Values: map[fielddef.FieldID]any{field: nil}})
	}
	return m.storage.WriteComputedBatch(ctx, table, batch)
}

func (m *manager) OnFieldDeleted(ctx context.Context, id fielddef.FieldID) (changed []fielddef.FieldID, err error) {
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
			if opts == nil || opts.LookupField != id {
				continue
			}
			primary, err := m.primary(ctx, opts.ForeignTable)
			if err != nil && !errors.Is(err, fielddef.ErrNotFoundError) {
				return nil, err
			}
			if primary == id {
				primary = fielddef.NullFieldID
			}
			opts.LookupField = primary
			if err := m.storage.SaveField(ctx, f); err != nil {
				return nil, err
			}
			changed = append(changed, f.ID)
		}
	}
	return changed, nil
}

// Returns link field with its symmetric field
func (m *manager) pair(ctx context.Context, id fielddef.FieldID) (*pair, error) {
	f, err := m.storage.FieldMeta(ctx, id)
	if err != nil {
		return nil, err
	}
	opts := f.Link()
	if opts == nil {
		return nil, fielddef.ErrInvalid("%v is not a link", f)
	}
	p := &pair{field: f, opts: opts}
	if opts.IsTwoWay() {
		sym, err := m.storage.FieldMeta(ctx, opts.SymmetricField)
		switch {
		case err == nil:
			p.sym = sym
		case errors.Is(err, fielddef.ErrNotFoundError):
			logger.Warning(fmt.Sprintf("%v: symmetric field «%v» not found", f, opts.SymmetricField))
		default:
			return nil, err
		}
	}
	return p, nil
}
