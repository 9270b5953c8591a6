/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package recompute

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/voedger/fieldflow/pkg/aggregate"
	"github.com/voedger/fieldflow/pkg/compat"
	"github.com/voedger/fieldflow/pkg/depgraph"
	"github.com/voedger/fieldflow/pkg/formula"
	"github.com/voedger/fieldflow/pkg/in10n"
	"github.com/voedger/fieldflow/pkg/istructs"
	"github.com/voedger/fieldflow/pkg/pipeline"
)

// Provide: constructs scheduler. Scheduler must be closed after use.
func Provide(cfg Config, storage istructs.IStorage, graph depgraph.IGraph, validator compat.IValidator, publisher in10n.IPublisher) IScheduler {
	if cfg.MaxArraySize <= 0 {
		cfg.MaxArraySize = aggregate.DefaultMaxArraySize
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = DefaultParallelism
	}
	if cfg.FormulaCacheSize <= 0 {
		cfg.FormulaCacheSize = DefaultFormulaCacheSize
	}
	formulas, err := lru.New[string, *formula.Expr](cfg.FormulaCacheSize)
	if err != nil {
		// notest: size is positive
		panic(err)
	}

	s := &scheduler{
		cfg:       cfg,
		storage:   storage,
		graph:     graph,
		validator: validator,
		publisher: publisher,
		formulas:  formulas,
	}
	s.pipeline = pipeline.NewSyncPipeline(context.Background(), pipelineName,
		pipeline.WireFunc(op_Receive, s.receive),
		pipeline.WireSyncOperator(op_Expand, pipeline.SwitchOperator(
			pipeline.SwitchFunc(func(work any) (string, error) { return work.(*workpiece).event.Kind.branch(), nil }),
			pipeline.SwitchBranch(branch_Records, pipeline.NewSyncOp(s.expandRecords)),
			pipeline.SwitchBranch(branch_Deleted, pipeline.NewSyncOp(s.expandDeleted)),
			pipeline.SwitchBranch(branch_Fields, pipeline.NewSyncOp(s.expandFields)),
			pipeline.SwitchBranch(branch_Table, pipeline.NewSyncOp(s.expandTable)),
		)),
		pipeline.WireFunc(op_Order, s.orderFields),
		pipeline.WireFunc(op_Evaluate, s.evaluate),
		pipeline.WireFunc(op_Persist, s.persist),
		pipeline.WireFunc(op_Propagate, s.propagate),
		pipeline.WireSyncOperator(op_Catch, &catcher{}),
	)
	return s
}
