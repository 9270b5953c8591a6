/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package recompute

import (
	"context"
	"fmt"
	"slices"

	"github.com/untillpro/goutils/logger"

	"github.com/voedger/fieldflow/pkg/fielddef"
	"github.com/voedger/fieldflow/pkg/in10n"
	"github.com/voedger/fieldflow/pkg/istructs"
)

// Writes computed values table by table in first-touch order, then HasError flags
func (s *scheduler) persist(_ context.Context, work any) error {
	wp := work.(*workpiece)

	for _, table := range wp.touched {
		recs := wp.pending[table]
		ids := make([]fielddef.RecordID, 0, len(recs))
		for id := range recs {
			ids = append(ids, id)
		}
		slices.Sort(ids)

		batch := make([]istructs.ComputedValues, 0, len(ids))
		for _, id := range ids {
			batch = append(batch, istructs.ComputedValues{Record: id, Values: recs[id]})
		}
		if err := s.storage.WriteComputedBatch(wp.ctx, table, batch); err != nil {
			return fmt.Errorf("table «%v»: %w", table, err)
		}
		wp.result.Written[table] = ids
	}

	for _, id := range wp.flagOrder {
		f, err := s.storage.FieldMeta(wp.ctx, id)
		if err != nil {
			return err
		}
		f.HasError = wp.flags[id]
		if err := s.storage.SaveField(wp.ctx, f); err != nil {
			return err
		}
		if f.HasError {
			wp.result.Errored = append(wp.result.Errored, id)
			wp.result.State = State_PartiallyErrored
		} else {
			wp.result.Cleared = append(wp.result.Cleared, id)
		}
	}
	return nil
}

// Publishes HasError changes and computed values changes
func (s *scheduler) propagate(_ context.Context, work any) error {
	wp := work.(*workpiece)

	for _, id := range wp.flagOrder {
		f := wp.fields[id]
		s.publisher.Publish(in10n.Event{
			Kind:     in10n.EventKind_FieldErrorChanged,
			Table:    f.Table,
			Field:    id,
			HasError: wp.flags[id],
		})
	}

	for _, table := range wp.touched {
		for _, id := range wp.result.Written[table] {
			vals := wp.pending[table][id]
			fields := make([]fielddef.FieldID, 0, len(vals))
			for f := range vals {
				fields = append(fields, f)
			}
			slices.Sort(fields)
			s.publisher.Publish(in10n.Event{
				Kind:   in10n.EventKind_RecordComputedValuesChanged,
				Table:  table,
				Record: id,
				Fields: fields,
			})
		}
	}

	if logger.IsVerbose() {
		logger.Verbose(fmt.Sprintf("recompute %v: %v, %d field(s) evaluated, %d table(s) written, %d flag(s) changed",
			wp.event.Kind, wp.result.State, len(wp.result.Evaluated), len(wp.touched), len(wp.flagOrder)))
	}
	return nil
}
