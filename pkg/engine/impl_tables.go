/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/untillpro/goutils/logger"

	"github.com/voedger/fieldflow/pkg/fielddef"
)

func (e *engine) CreateTable(ctx context.Context, table *fielddef.Table, primary *fielddef.Field) (*fielddef.Table, error) {
	if primary == nil {
		return nil, fielddef.ErrInvalid("table «%s»: primary field is required", table.Name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	t := *table
	if t.ID == fielddef.NullTableID {
		t.ID = fielddef.NewTableID()
	} else if _, err := e.storage.Table(ctx, t.ID); err == nil {
		return nil, fielddef.ErrAlreadyExists("table «%v»", t.ID)
	} else if !errors.Is(err, fielddef.ErrNotFoundError) {
		return nil, err
	}
	if err := e.storage.SaveTable(ctx, &t); err != nil {
		return nil, err
	}

	p := primary.Clone()
	p.Table, p.IsPrimary = t.ID, true
	if p.ID == fielddef.NullFieldID {
		p.ID = fielddef.NewFieldID()
	}
	p.Order = e.nextOrder()
	if err := e.create(ctx, p); err != nil {
		if dErr := e.storage.DeleteTable(ctx, t.ID); dErr != nil {
			logger.Error(fmt.Sprintf("table «%v» rollback failed: %v", t.ID, dErr))
		}
		return nil, err
	}
	logger.Info(fmt.Sprintf("table «%v» (%s) created", t.ID, t.Name))
	return &t, nil
}

func (e *engine) DeleteTable(ctx context.Context, id fielddef.TableID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.storage.Table(ctx, id); err != nil {
		return err
	}
	tables, err := e.storage.Tables(ctx)
	if err != nil {
		return err
	}

	var deleted []fielddef.FieldID
	for _, t := range tables {
		fields, err := e.storage.ListFields(ctx, t.ID)
		if err != nil {
			return err
		}
		for _, f := range fields {
			lo := f.Link()
			if lo == nil || slices.Contains(deleted, f.ID) || (t.ID != id && lo.ForeignTable != id) {
				continue
			}
			dd, err := e.links.DeleteLink(ctx, f.ID)
			if err != nil {
				return err
			}
			deleted = append(deleted, dd...)
		}
	}

	fields, err := e.storage.ListFields(ctx, id)
	if err != nil {
		return err
	}
	for _, f := range fields {
		deleted = append(deleted, f.ID)
	}
	if err := e.storage.DeleteTable(ctx, id); err != nil {
		return err
	}

	events, err := e.dropped(ctx, deleted...)
	if err != nil {
		return err
	}
	logger.Info(fmt.Sprintf("table «%v» deleted with %d field(s)", id, len(deleted)))
	return e.process(ctx, events...)
}
