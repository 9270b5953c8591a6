/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/untillpro/goutils/logger"

	"github.com/voedger/fieldflow/pkg/fielddef"
	"github.com/voedger/fieldflow/pkg/in10n"
	"github.com/voedger/fieldflow/pkg/links"
	"github.com/voedger/fieldflow/pkg/recompute"
)

func (e *engine) Run(ctx context.Context, broker in10n.IN10nBroker) error {
	channel, cleanup, err := broker.NewChannel(subjectEngine, in10n.DefaultChannelDuration)
	if err != nil {
		return err
	}
	defer cleanup()

	for _, kind := range upstreamKinds {
		if err := broker.Subscribe(channel, in10n.Topic{Kind: kind}); err != nil {
			return err
		}
	}
	logger.Info("engine: watching upstream events")

	broker.WatchChannel(ctx, channel, func(event in10n.Event) {
		if err := e.onUpstream(ctx, event); err != nil {
			logger.Error(fmt.Sprintf("engine: %v event #%d failed: %v", event.Kind, event.Offset, err))
		}
	})
	logger.Info("engine: upstream watching stopped")
	return nil
}

// Handles change made by external writer. Storage is already changed
func (e *engine) onUpstream(ctx context.Context, event in10n.Event) error {
	if logger.IsVerbose() {
		logger.Verbose(fmt.Sprintf("engine: upstream %v #%d: table «%v», field «%v», record «%v»", event.Kind, event.Offset, event.Table, event.Field, event.Record))
	}
	switch event.Kind {
	case in10n.EventKind_UpstreamFieldChanged:
		return e.onFieldChanged(ctx, event)
	case in10n.EventKind_UpstreamRecordChanged:
		kind := recompute.EventKind_RecordChanged
		if len(event.Fields) == 0 {
			kind = recompute.EventKind_RecordCreated
		}
		return e.process(ctx, recompute.Event{Kind: kind, Changes: []links.Change{{Table: event.Table, Record: event.Record, Fields: event.Fields}}})
	case in10n.EventKind_UpstreamRecordDeleted:
		if event.Record0 == nil {
			return fielddef.ErrInvalid("%v: record content is missed", event.Kind)
		}
		changes, err := e.links.OnRecordDeleted(ctx, event.Table, event.Record0)
		if err != nil {
			return err
		}
		return e.process(ctx, recompute.Event{Kind: recompute.EventKind_RecordDeleted, Deleted: []*fielddef.Record{event.Record0}, Changes: changes})
	}
	return fielddef.ErrInvalid("unexpected event kind %v", event.Kind)
}

func (e *engine) onFieldChanged(ctx context.Context, event in10n.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	f, err := e.storage.FieldMeta(ctx, event.Field)
	if errors.Is(err, fielddef.ErrNotFoundError) {
		events, err := e.dropped(ctx, event.Field)
		if err != nil {
			return err
		}
		return e.process(ctx, events...)
	}
	if err != nil {
		return err
	}

	e.lastOrder = max(e.lastOrder, f.Order)
	if err := e.graph.AddField(f); err != nil {
		if !f.HasError {
			f.HasError = true
			if sErr := e.storage.SaveField(ctx, f); sErr != nil {
				return errors.Join(err, sErr)
			}
			e.publisher.Publish(in10n.Event{Kind: in10n.EventKind_FieldErrorChanged, Table: f.Table, Field: f.ID, HasError: true})
		}
		return err
	}

	kind := recompute.EventKind_FieldConverted
	if event.Field0 == nil {
		kind = recompute.EventKind_FieldCreated
	}
	return e.process(ctx, recompute.Event{Kind: kind, Field: f.ID})
}

func (e *engine) Close() {
	e.scheduler.Close()
}
