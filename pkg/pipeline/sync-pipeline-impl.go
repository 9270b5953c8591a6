/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package pipeline

import (
	"context"
	"strings"

	"github.com/untillpro/goutils/logger"
)

func NewSyncPipeline(ctx context.Context, name string, first *WiredOperator, others ...*WiredOperator) ISyncPipeline {
	var pstruct strings.Builder
	pipeline := &SyncPipeline{
		ctx:       ctx,
		name:      name,
		stdin:     make(chan any, 1),
		operators: make([]*WiredOperator, 1),
	}
	pipeline.operators[0] = first
	first.Stdin = pipeline.stdin
	pstruct.WriteString(first.String())
	last := first

	for _, next := range others {
		next.Stdin = last.Stdout
		pipeline.operators = append(pipeline.operators, next)
		last = next
		pstruct.WriteString(", ")
		pstruct.WriteString(next.String())
	}
	pipeline.stdout = last.Stdout
	pipeline.wctx = NewWorkpieceContext(name, pstruct.String())

	for _, op := range pipeline.operators {
		op.ctx = ctx
		op.wctx = pipeline.wctx
	}
	for _, op := range pipeline.operators {
		go puller_sync(op)
	}
	if logger.IsVerbose() {
		logger.Verbose("pipeline «" + name + "» started: " + pstruct.String())
	}
	return pipeline
}

func (p SyncPipeline) DoSync(_ context.Context, work any) (err error) {
	return p.SendSync(work)
}

func (p SyncPipeline) SendSync(work any) (err error) {
	if p.ctx.Err() != nil {
		return p.ctx.Err()
	}
	p.stdin <- work
	outWork := <-p.stdout
	if err, ok := outWork.(error); ok {
		return err
	}
	return nil
}

func (p SyncPipeline) Close() {
	close(p.stdin)
	for range p.stdout {
	}
}

func puller_sync(wo *WiredOperator) {
	for work := range wo.Stdin {
		if work == nil {
			pipelinePanic("nil in puller_sync stdin", wo.name, wo.wctx)
		}
		if err, ok := work.(IErrorPipeline); ok {
			if catch, ok := wo.Operator.(ICatch); ok {
				if newerr := catch.OnErr(err, err.GetWork(), wo.wctx); newerr != nil {
					wo.Stdout <- wo.NewError(newerr, err.GetWork(), placeCatchOnErr)
					continue
				}
			} else {
				wo.Stdout <- err
				continue
			}
			work = err.GetWork() // restore from error
		}

		if err := wo.doSync(work); err != nil {
			wo.Stdout <- err
		} else {
			wo.Stdout <- work
		}
	}
	wo.Operator.Close()
	close(wo.Stdout)
}
