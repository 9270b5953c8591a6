/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package recompute

import (
	"context"
	"fmt"

	"github.com/untillpro/goutils/logger"

	"github.com/voedger/fieldflow/pkg/compat"
	"github.com/voedger/fieldflow/pkg/fielddef"
	"github.com/voedger/fieldflow/pkg/links"
)

func (s *scheduler) expandRecords(_ context.Context, work any) error {
	wp := work.(*workpiece)
	return s.expandChanges(wp, wp.event.Changes, wp.event.Kind == EventKind_RecordCreated)
}

// Marks changed cells. Computed cells of created records are marked for evaluation
func (s *scheduler) expandChanges(wp *workpiece, changes []links.Change, created bool) error {
	for _, ch := range changes {
		ids := ch.Fields
		whole := len(ids) == 0
		if whole {
			ff, err := wp.fieldsOf(s.storage, ch.Table)
			if err != nil {
				return err
			}
			for _, f := range ff {
				ids = append(ids, f.ID)
			}
		}
		for _, id := range ids {
			wp.markChanged(id, ch.Record)
			if !created && !whole {
				continue
			}
			f, err := wp.field(s.storage, id)
			if err != nil {
				return err
			}
			if f != nil && f.IsComputed() {
				wp.markTarget(id, ch.Record)
			}
		}
	}
	return nil
}

func (s *scheduler) expandDeleted(_ context.Context, work any) error {
	wp := work.(*workpiece)
	for _, r := range wp.event.Deleted {
		ff, err := wp.fieldsOf(s.storage, r.Table)
		if err != nil {
			return err
		}
		for _, f := range ff {
			wp.markChanged(f.ID, r.ID)
		}
		wp.forget(r.Table, r.ID)
	}
	return s.expandChanges(wp, wp.event.Changes, false)
}

func (s *scheduler) expandTable(_ context.Context, work any) error {
	wp := work.(*workpiece)
	ff, err := wp.fieldsOf(s.storage, wp.event.Table)
	if err != nil {
		return err
	}
	for _, f := range ff {
		wp.changedAll[f.ID] = true
		if f.IsComputed() {
			wp.targetAll[f.ID] = true
		}
	}
	return nil
}

// Revalidates changed field and its dependents. Fields which became
// compatible are evaluated for all records
func (s *scheduler) expandFields(_ context.Context, work any) error {
	wp := work.(*workpiece)
	id := wp.event.Field

	if wp.event.Kind == EventKind_FieldDeleted {
		for _, dep := range s.graph.DependentsOf(id) {
			repaired, err := s.validator.RepairMissingSort(wp.ctx, dep)
			if err != nil {
				return err
			}
			if repaired {
				delete(wp.fields, dep)
				wp.targetAll[dep] = true
			}
		}
	} else {
		f, err := wp.field(s.storage, id)
		if err != nil {
			return err
		}
		if f == nil {
			return fielddef.ErrFieldNotFound(id)
		}
		res, err := s.validator.CheckField(wp.ctx, id)
		if err != nil {
			return err
		}
		s.flag(wp, f, res)
		if res.OK && (f.IsComputed() || f.Link() != nil) {
			wp.targetAll[id] = true
		}
		wp.changedAll[id] = true
	}

	results, err := s.validator.CheckDependents(wp.ctx, id)
	if err != nil {
		return err
	}
	for _, res := range results {
		f, err := wp.field(s.storage, res.Field)
		if err != nil {
			return err
		}
		if f == nil {
			continue
		}
		errored := wp.hasError(f)
		s.flag(wp, f, res)
		if res.OK && errored {
			wp.targetAll[f.ID] = true
		}
	}
	return nil
}

func (s *scheduler) flag(wp *workpiece, f *fielddef.Field, res compat.Result) {
	if !res.OK && !wp.hasError(f) {
		logger.Warning(fmt.Sprintf("%v errored: %v", f, res))
	}
	wp.setFlag(f, !res.OK)
}

// Orders affected fields: dependents of changed fields and fields to evaluate
func (s *scheduler) orderFields(_ context.Context, work any) error {
	wp := work.(*workpiece)

	seeds := make([]fielddef.FieldID, 0, len(wp.changed)+len(wp.changedAll))
	for id := range wp.changed {
		seeds = append(seeds, id)
	}
	for id := range wp.changedAll {
		seeds = append(seeds, id)
	}
	affected := s.graph.Closure(seeds...)
	for id := range wp.targetAll {
		affected = appendNew(affected, id)
	}
	for id := range wp.targets {
		affected = appendNew(affected, id)
	}

	order, err := s.graph.TopoOrder(affected)
	if err != nil {
		return err
	}
	wp.order = order
	if logger.IsVerbose() && len(order) > 0 {
		logger.Verbose(fmt.Sprintf("recompute %v: %d field(s) affected: %v", wp.event.Kind, len(order), order))
	}
	return nil
}
