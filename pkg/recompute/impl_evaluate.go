/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package recompute

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/untillpro/goutils/logger"
	"golang.org/x/sync/errgroup"

	"github.com/voedger/fieldflow/pkg/aggregate"
	"github.com/voedger/fieldflow/pkg/fielddef"
	"github.com/voedger/fieldflow/pkg/formula"
	"github.com/voedger/fieldflow/pkg/links"
)

// Evaluates affected fields in order. Failed field is flagged errored,
// its dependents in the event are flagged errored upstream
func (s *scheduler) evaluate(_ context.Context, work any) error {
	wp := work.(*workpiece)
	failed := make(map[fielddef.FieldID]bool)

	for _, id := range wp.order {
		if err := wp.ctx.Err(); err != nil {
			return err
		}
		f, err := wp.field(s.storage, id)
		if err != nil {
			return err
		}
		if f == nil || (!f.IsComputed() && f.Link() == nil) || wp.hasError(f) {
			continue
		}

		if up := s.failedDependency(id, failed); up != fielddef.NullFieldID {
			logger.Warning(fmt.Sprintf("%v errored: depends on errored field «%v»", f, up))
			failed[id] = true
			wp.setFlag(f, true)
			continue
		}

		err = s.evaluateField(wp, f)
		if err == nil {
			wp.result.Evaluated = append(wp.result.Evaluated, id)
			continue
		}
		if !isDataError(err) {
			return err
		}
		logger.Warning(fmt.Sprintf("%v errored: %v", f, err))
		failed[id] = true
		wp.setFlag(f, true)
	}
	return nil
}

func (s *scheduler) failedDependency(id fielddef.FieldID, failed map[fielddef.FieldID]bool) fielddef.FieldID {
	for _, d := range s.graph.DependenciesOf(id) {
		if failed[d] {
			return d
		}
	}
	return fielddef.NullFieldID
}

func (s *scheduler) evaluateField(wp *workpiece, f *fielddef.Field) error {
	hosts, err := s.hosts(wp, f)
	if err != nil || len(hosts) == 0 {
		return err
	}

	var eval func(*fielddef.Record) (any, error)
	switch f.Kind {
	case fielddef.FieldKind_Link:
		eval, err = s.titles(wp, f, hosts)
	case fielddef.FieldKind_Lookup, fielddef.FieldKind_Rollup, fielddef.FieldKind_ConditionalRollup:
		eval, err = s.lookup(wp, f, hosts)
	case fielddef.FieldKind_Formula:
		eval, err = s.formulaOf(wp, f)
	default:
		err = fielddef.ErrInvalid("%v is not computed", f)
	}
	if err != nil {
		return err
	}

	values, err := s.run(wp.ctx, hosts, eval)
	if err != nil {
		return err
	}
	for i, h := range hosts {
		if !fielddef.Equal(h.Get(f.ID), values[i]) {
			wp.write(h, f.ID, values[i])
		}
	}
	if logger.IsVerbose() {
		logger.Verbose(fmt.Sprintf("%v evaluated for %d record(s)", f, len(hosts)))
	}
	return nil
}

// Evaluates records in parallel. Returns values in records order
func (s *scheduler) run(ctx context.Context, records []*fielddef.Record, eval func(*fielddef.Record) (any, error)) ([]any, error) {
	res := make([]any, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Parallelism)
	for i, r := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := eval(r)
			if err != nil {
				return fmt.Errorf("record «%v»: %w", r.ID, err)
			}
			res[i] = fielddef.Normalize(v)
			return nil
		})
	}
	return res, g.Wait()
}

// Returns records field must be evaluated for, loaded into cache
func (s *scheduler) hosts(wp *workpiece, f *fielddef.Field) ([]*fielddef.Record, error) {
	all, ids, err := s.targetsOf(wp, f)
	if err != nil {
		return nil, err
	}
	if all {
		if err := wp.loadAll(s.storage, f.Table); err != nil {
			return nil, err
		}
		return wp.all(f.Table), nil
	}
	if err := wp.load(s.storage, f.Table, ids); err != nil {
		return nil, err
	}
	return wp.cached(f.Table, ids), nil
}

// Derives records to evaluate from changed dependencies: host side change
// affects the same records, foreign side change affects records linked to
// changed foreign records or all records if foreign records are selected by condition
func (s *scheduler) targetsOf(wp *workpiece, f *fielddef.Field) (all bool, ids []fielddef.RecordID, err error) {
	if wp.targetAll[f.ID] {
		return true, nil, nil
	}

	var refs []fielddef.FieldID
	if text := f.Formula(); text != "" {
		e, err := s.expr(text)
		if err != nil {
			return false, nil, err
		}
		refs = e.Refs()
	}
	host, foreign := sides(f, refs)
	link := linkFieldOf(f)

	set := make(map[fielddef.RecordID]bool)
	for id := range wp.targets[f.ID] {
		set[id] = true
	}
	var touched []fielddef.RecordID
	for _, dep := range s.graph.DependenciesOf(f.ID) {
		changed, changedAll := wp.changed[dep], wp.changedAll[dep]
		if len(changed) == 0 && !changedAll {
			continue
		}
		if slices.Contains(host, dep) {
			if changedAll {
				return true, nil, nil
			}
			for id := range changed {
				set[id] = true
			}
		}
		if slices.Contains(foreign, dep) {
			if changedAll || link == fielddef.NullFieldID {
				return true, nil, nil
			}
			for id := range changed {
				touched = appendNew(touched, id)
			}
		}
	}

	if len(touched) > 0 {
		holders, err := s.holders(wp, f.Table, link, touched)
		if err != nil {
			return false, nil, err
		}
		for _, id := range holders {
			set[id] = true
		}
	}

	ids = make([]fielddef.RecordID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return false, ids, nil
}

// Returns records of the table which link cell refers to any of the foreign records.
// Two-way link holders are read from symmetric cells of foreign records
func (s *scheduler) holders(wp *workpiece, table fielddef.TableID, link fielddef.FieldID, foreign []fielddef.RecordID) ([]fielddef.RecordID, error) {
	lf, err := wp.field(s.storage, link)
	if err != nil || lf == nil || lf.Link() == nil {
		return nil, err
	}
	lo := lf.Link()

	var res []fielddef.RecordID
	if lo.IsTwoWay() {
		if err := wp.load(s.storage, lo.ForeignTable, foreign); err != nil {
			return nil, err
		}
		for _, r := range wp.cached(lo.ForeignTable, foreign) {
			for _, id := range fielddef.LinkIDs(r.Get(lo.SymmetricField)) {
				res = appendNew(res, id)
			}
		}
		return res, nil
	}

	if err := wp.loadAll(s.storage, table); err != nil {
		return nil, err
	}
	for _, h := range wp.all(table) {
		for _, id := range fielddef.LinkIDs(h.Get(link)) {
			if slices.Contains(foreign, id) {
				res = append(res, h.ID)
				break
			}
		}
	}
	return res, nil
}

// Refreshes titles of link cells from foreign title field
func (s *scheduler) titles(wp *workpiece, f *fielddef.Field, hosts []*fielddef.Record) (func(*fielddef.Record) (any, error), error) {
	lo := f.Link()
	var ids []fielddef.RecordID
	for _, h := range hosts {
		ids = append(ids, fielddef.LinkIDs(h.Get(f.ID))...)
	}
	if err := wp.load(s.storage, lo.ForeignTable, ids); err != nil {
		return nil, err
	}
	foreign := wp.records[lo.ForeignTable]
	return func(h *fielddef.Record) (any, error) {
		return links.RefreshTitles(h.Get(f.ID), f.IsMultiple, lo.LookupField, foreign), nil
	}, nil
}

// Selects foreign records by link or condition, then filters, sorts, limits
// and aggregates their values
func (s *scheduler) lookup(wp *workpiece, f *fielddef.Field, hosts []*fielddef.Record) (func(*fielddef.Record) (any, error), error) {
	lo := f.Lookup()
	fn := aggregate.Func_ArrayCompact
	if expr := f.AggregateExpression(); expr != "" {
		var err error
		if fn, err = aggregate.ParseExpression(expr); err != nil {
			return nil, err
		}
	}

	for _, t := range []fielddef.TableID{f.Table, lo.ForeignTable} {
		if _, err := wp.fieldsOf(s.storage, t); err != nil {
			return nil, err
		}
	}
	sel, err := aggregate.NewSelector(lo, func(id fielddef.FieldID) *fielddef.Field { return wp.fields[id] }, s.cfg.MaxArraySize)
	if err != nil {
		return nil, err
	}

	var conditional []*fielddef.Record
	if lo.IsConditional() {
		if err := wp.loadAll(s.storage, lo.ForeignTable); err != nil {
			return nil, err
		}
		conditional = wp.all(lo.ForeignTable)
	} else {
		var ids []fielddef.RecordID
		for _, h := range hosts {
			ids = append(ids, fielddef.LinkIDs(h.Get(lo.LinkField))...)
		}
		if err := wp.load(s.storage, lo.ForeignTable, ids); err != nil {
			return nil, err
		}
	}

	return func(h *fielddef.Record) (any, error) {
		candidates := conditional
		if !lo.IsConditional() {
			candidates = wp.cached(lo.ForeignTable, fielddef.LinkIDs(h.Get(lo.LinkField)))
		}
		return aggregate.Aggregate(fn, aggregate.Values(sel.Select(candidates, h), lo.LookupField))
	}, nil
}

func (s *scheduler) formulaOf(wp *workpiece, f *fielddef.Field) (func(*fielddef.Record) (any, error), error) {
	e, err := s.expr(f.Formula())
	if err != nil {
		return nil, err
	}
	for _, ref := range e.Refs() {
		if _, err := wp.field(s.storage, ref); err != nil {
			return nil, err
		}
	}
	return func(h *fielddef.Record) (any, error) {
		return e.Eval(func(id fielddef.FieldID) (any, bool) {
			if ref := wp.fields[id]; ref == nil || ref.Table != h.Table {
				return nil, false
			}
			return h.Get(id), true
		})
	}, nil
}

// Returns parsed formula from cache
func (s *scheduler) expr(text string) (*formula.Expr, error) {
	if e, ok := s.formulas.Get(text); ok {
		return e, nil
	}
	e, err := formula.Parse(text)
	if err != nil {
		return nil, err
	}
	s.formulas.Add(text, e)
	return e, nil
}

// Returns is error caused by field definitions or data rather than by storage
func isDataError(err error) bool {
	for _, target := range []error{
		fielddef.ErrReferenceMissingError,
		fielddef.ErrTypeIncompatibleError,
		fielddef.ErrInvalidError,
		fielddef.ErrLimitExceededError,
		fielddef.ErrConvertError,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
