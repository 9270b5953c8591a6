/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package pipeline

import (
	"context"
)

type NOOP struct{}

type implISyncOperatorSimple struct {
	NOOP
	doSync func(ctx context.Context, work any) (err error)
}

func (n *NOOP) Close() {}

func (n *NOOP) DoSync(context.Context, any) (err error) {
	return
}

func (so *implISyncOperatorSimple) DoSync(ctx context.Context, work any) (err error) {
	if so.doSync != nil {
		return so.doSync(ctx, work)
	}
	return
}

// based on ISyncOperator
func WireFunc(name string, doSync func(ctx context.Context, work any) (err error)) *WiredOperator {
	return WireSyncOperator(name, NewSyncOp(doSync))
}

func NewSyncOp(doSync func(ctx context.Context, work any) (err error)) ISyncOperator {
	return &implISyncOperatorSimple{doSync: doSync}
}
