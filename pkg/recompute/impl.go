/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package recompute

import (
	"context"
	"fmt"

	"github.com/untillpro/goutils/logger"

	"github.com/voedger/fieldflow/pkg/fielddef"
	"github.com/voedger/fieldflow/pkg/pipeline"
)

func (s *scheduler) Process(ctx context.Context, event Event) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wp := newWorkpiece(ctx, event)
	if err := s.pipeline.SendSync(wp); err != nil {
		return Result{}, err
	}
	return wp.result, nil
}

func (s *scheduler) Close() {
	s.pipeline.Close()
}

func (s *scheduler) receive(_ context.Context, work any) error {
	wp := work.(*workpiece)
	ev := wp.event
	switch {
	case ev.Kind == EventKind_null || ev.Kind >= EventKind_count:
		return fielddef.ErrInvalid("unknown event kind %v", ev.Kind)
	case ev.Kind.branch() == branch_Fields && ev.Field == fielddef.NullFieldID:
		return fielddef.ErrInvalid("%v event without field", ev.Kind)
	case ev.Kind == EventKind_ForeignRecordsChanged && ev.Table == fielddef.NullTableID:
		return fielddef.ErrInvalid("%v event without table", ev.Kind)
	}
	if err := wp.ctx.Err(); err != nil {
		return err
	}
	if logger.IsVerbose() {
		logger.Verbose(fmt.Sprintf("recompute %v: field «%v», table «%v», %d change(s), %d deleted", ev.Kind, ev.Field, ev.Table, len(ev.Changes), len(ev.Deleted)))
	}
	return nil
}

// Logs failed event processing and passes error to the caller
type catcher struct {
	pipeline.NOOP
}

func (c *catcher) OnErr(err error, work any, wctx pipeline.IWorkpieceContext) error {
	wp := work.(*workpiece)
	logger.Error(fmt.Sprintf("%s: %v event failed: %v", wctx.GetPipelineName(), wp.event.Kind, err))
	return err
}
