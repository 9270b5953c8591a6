/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package engine

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/untillpro/goutils/logger"

	"github.com/voedger/fieldflow/pkg/compat"
	"github.com/voedger/fieldflow/pkg/depgraph"
	"github.com/voedger/fieldflow/pkg/fielddef"
	"github.com/voedger/fieldflow/pkg/in10n"
	"github.com/voedger/fieldflow/pkg/istructs"
	"github.com/voedger/fieldflow/pkg/links"
	"github.com/voedger/fieldflow/pkg/recompute"
)

// Provide: constructs engine over storage. Dependency graph is built from stored fields.
// Engine publishes computed values and HasError changes to publisher.
//
// Engine must be closed after use.
func Provide(ctx context.Context, cfg Config, storage istructs.IStorage, publisher in10n.IPublisher) (IEngine, error) {
	graph := depgraph.New()
	validator := compat.Provide(storage, graph, cfg.MaxArraySize)
	e := &engine{
		storage:   storage,
		graph:     graph,
		links:     links.Provide(storage),
		validator: validator,
		publisher: publisher,
	}
	if err := e.buildGraph(ctx); err != nil {
		return nil, err
	}
	e.scheduler = recompute.Provide(recompute.Config{
		MaxArraySize:     cfg.MaxArraySize,
		Parallelism:      cfg.Parallelism,
		FormulaCacheSize: cfg.FormulaCacheSize,
	}, storage, graph, validator, publisher)
	return e, nil
}

func (e *engine) buildGraph(ctx context.Context) error {
	tables, err := e.storage.Tables(ctx)
	if err != nil {
		return err
	}
	var fields []*fielddef.Field
	for _, t := range tables {
		ff, err := e.storage.ListFields(ctx, t.ID)
		if err != nil {
			return err
		}
		fields = append(fields, ff...)
	}
	slices.SortFunc(fields, func(a, b *fielddef.Field) int {
		return cmp.Or(cmp.Compare(a.Order, b.Order), cmp.Compare(a.ID, b.ID))
	})
	for _, f := range fields {
		if err := e.graph.AddField(f); err != nil {
			return fmt.Errorf("%v: %w", f, err)
		}
		e.lastOrder = max(e.lastOrder, f.Order)
	}
	logger.Info(fmt.Sprintf("engine started: %d table(s), %d field(s)", len(tables), len(fields)))
	return nil
}
