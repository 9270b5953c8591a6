/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package compat

import (
	"context"
	"errors"
	"fmt"

	"github.com/untillpro/goutils/logger"

	"github.com/voedger/fieldflow/pkg/aggregate"
	"github.com/voedger/fieldflow/pkg/fielddef"
	"github.com/voedger/fieldflow/pkg/filter"
	"github.com/voedger/fieldflow/pkg/formula"
)

// Field definitions read during one check. Not found fields are cached as nil
type fieldsCache struct {
	ctx context.Context
	v   *validator
	m   map[fielddef.FieldID]*fielddef.Field
	err error
}

func (v *validator) newFieldsCache(ctx context.Context) *fieldsCache {
	return &fieldsCache{ctx: ctx, v: v, m: make(map[fielddef.FieldID]*fielddef.Field)}
}

func (c *fieldsCache) get(id fielddef.FieldID) *fielddef.Field {
	if f, ok := c.m[id]; ok {
		return f
	}
	f, err := c.v.storage.FieldMeta(c.ctx, id)
	if err != nil {
		f = nil
		if !errors.Is(err, fielddef.ErrNotFoundError) && c.err == nil {
			c.err = err
		}
	}
	c.m[id] = f
	return f
}

func (c *fieldsCache) put(f *fielddef.Field) { c.m[f.ID] = f }

func (v *validator) CheckField(ctx context.Context, id fielddef.FieldID) (Result, error) {
	fields := v.newFieldsCache(ctx)
	f := fields.get(id)
	if fields.err != nil {
		return Result{}, fields.err
	}
	if f == nil {
		return Result{}, fielddef.ErrFieldNotFound(id)
	}
	res := v.check(ctx, f, fields, nil)
	return res, fields.err
}

func (v *validator) CheckDependents(ctx context.Context, id fielddef.FieldID) ([]Result, error) {
	fields := v.newFieldsCache(ctx)
	errored := make(map[fielddef.FieldID]bool)
	if f := fields.get(id); f == nil || f.HasError {
		errored[id] = true
	}

	deps := v.graph.Closure(id)
	order, err := v.graph.TopoOrder(deps)
	if err != nil {
		return nil, err
	}
	res := make([]Result, 0, len(order))
	for _, d := range order {
		f := fields.get(d)
		if f == nil {
			continue
		}
		r := v.check(ctx, f, fields, errored)
		if !r.OK {
			errored[d] = true
		}
		res = append(res, r)
	}
	if logger.IsVerbose() {
		logger.Verbose(fmt.Sprintf("«%v»: %d dependents checked, %d errored", id, len(res), len(errored)))
	}
	return res, fields.err
}

// Checks field. Fields from errored map are treated as errored regardless of HasError flag
func (v *validator) check(ctx context.Context, f *fielddef.Field, fields *fieldsCache, errored map[fielddef.FieldID]bool) Result {
	isErrored := func(d *fielddef.Field) bool {
		if e, ok := errored[d.ID]; ok {
			return e
		}
		return d.HasError && d.IsComputed()
	}

	switch o := f.Options.(type) {
	case *fielddef.LinkOptions:
		if _, err := v.storage.Table(ctx, o.ForeignTable); err != nil {
			return failed(f.ID, ResultKind_ReferenceMissing, "foreign table «%v» not found", o.ForeignTable)
		}
		if o.LookupField != fielddef.NullFieldID {
			lf := fields.get(o.LookupField)
			if lf == nil || lf.Table != o.ForeignTable {
				return failed(f.ID, ResultKind_ReferenceMissing, "title field «%v» not found", o.LookupField)
			}
		}
	case fielddef.ILookupOptions:
		lo := o.Lookup()
		if _, err := v.storage.Table(ctx, lo.ForeignTable); err != nil {
			return failed(f.ID, ResultKind_ReferenceMissing, "foreign table «%v» not found", lo.ForeignTable)
		}
		if !lo.IsConditional() {
			link := fields.get(lo.LinkField)
			if link == nil || link.Table != f.Table {
				return failed(f.ID, ResultKind_ReferenceMissing, "link field «%v» not found", lo.LinkField)
			}
			if link.Link() == nil || link.Link().ForeignTable != lo.ForeignTable {
				return failed(f.ID, ResultKind_TypeIncompatible, "«%v» is not a link to «%v»", lo.LinkField, lo.ForeignTable)
			}
		}
		lookup := fields.get(lo.LookupField)
		if lookup == nil || lookup.Table != lo.ForeignTable {
			return failed(f.ID, ResultKind_ReferenceMissing, "lookup field «%v» not found", lo.LookupField)
		}
		if isErrored(lookup) {
			return failed(f.ID, ResultKind_UpstreamErrored, "lookup field «%v» is errored", lookup.ID)
		}
		if err := filter.Validate(lo.Filter, fields.get); err != nil {
			return fromError(f.ID, err)
		}
		if err := aggregate.CheckLimit(lo.Limit, v.maxArraySize); err != nil {
			return fromError(f.ID, err)
		}
		if agg, ok := o.(fielddef.IAggregateOptions); ok {
			fn, err := aggregate.ParseExpression(agg.AggregateExpression())
			if err != nil {
				return fromError(f.ID, err)
			}
			if !fn.ValidFor(lookup.CellType) {
				return failed(f.ID, ResultKind_TypeIncompatible, "%s is not applicable to %v", fn, lookup.CellType)
			}
		}
	case *fielddef.FormulaOptions:
		e, err := formula.Parse(o.Expression)
		if err != nil {
			return fromError(f.ID, err)
		}
		for _, ref := range e.Refs() {
			rf := fields.get(ref)
			if rf == nil || rf.Table != f.Table {
				return failed(f.ID, ResultKind_ReferenceMissing, "formula field «%v» not found", ref)
			}
			if isErrored(rf) {
				return failed(f.ID, ResultKind_UpstreamErrored, "formula field «%v» is errored", ref)
			}
		}
	}
	return ok(f.ID)
}

func (v *validator) Shape(ctx context.Context, f *fielddef.Field) error {
	if err := f.Validate(); err != nil {
		return err
	}
	fields := v.newFieldsCache(ctx)
	fields.put(f)

	switch o := f.Options.(type) {
	case *fielddef.ValueOptions:
		if f.CellType == fielddef.CellType_null || f.CellType == fielddef.CellType_Link {
			return fielddef.ErrInvalid("%v: cell type %v", f, f.CellType)
		}
		if f.CellType.IsMultiple() {
			f.IsMultiple = true
		}
	case *fielddef.LinkOptions:
		f.CellType = fielddef.CellType_Link
		f.IsMultiple = o.Relationship.IsMultiple()
	case fielddef.ILookupOptions:
		lo := o.Lookup()
		if err := aggregate.CheckLimit(lo.Limit, v.maxArraySize); err != nil {
			return fmt.Errorf("%v: %w", f, err)
		}
		lookup := fields.get(lo.LookupField)
		if lookup == nil {
			if fields.err != nil {
				return fields.err
			}
			return fielddef.ErrReferenceMissing("%v: lookup field «%v»", f, lo.LookupField)
		}
		agg, isAggregate := o.(fielddef.IAggregateOptions)
		if !isAggregate {
			f.CellType, f.IsMultiple = lookup.CellType, true
			f.IsLookup, f.IsConditionalLookup = true, lo.IsConditional()
			break
		}
		fn, err := aggregate.ParseExpression(agg.AggregateExpression())
		if err != nil {
			return err
		}
		if !fn.ValidFor(lookup.CellType) {
			return fielddef.ErrTypeIncompatible("%v: %s is not applicable to %v", f, fn, lookup.CellType)
		}
		aggregate.DropOrdering(fn, lo)
		f.CellType, f.IsMultiple = fn.ResultType(lookup.CellType)
		f.IsLookup, f.IsConditionalLookup = false, false
	case *fielddef.FormulaOptions:
		e, err := formula.Parse(o.Expression)
		if err != nil {
			return err
		}
		f.CellType = e.ResultType(func(id fielddef.FieldID) fielddef.CellType {
			if rf := fields.get(id); rf != nil {
				return rf.CellType
			}
			return fielddef.CellType_null
		})
		f.IsMultiple = false
	}

	// field over errored source is created errored
	if res := v.check(ctx, f, fields, nil); !res.OK && res.Kind != ResultKind_UpstreamErrored {
		if fields.err != nil {
			return fields.err
		}
		return res.Err()
	}
	return fields.err
}
