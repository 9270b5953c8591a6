/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package pipeline

import (
	"fmt"
)

func WireSyncOperator(name string, op ISyncOperator) *WiredOperator {
	return &WiredOperator{
		name:     name,
		Stdin:    nil,
		Stdout:   make(chan any, 1),
		Operator: op,
	}
}

func (wo WiredOperator) String() string {
	return "operator: " + wo.name
}

func (wo *WiredOperator) NewError(err error, work any, place string) IErrorPipeline {
	return &errPipeline{
		err:    fmt.Errorf("[%s/%s] %w", wo.name, place, err),
		work:   work,
		opName: wo.name,
		place:  place,
	}
}

func (wo *WiredOperator) doSync(work any) IErrorPipeline {
	if e := wo.Operator.DoSync(wo.ctx, work); e != nil {
		return wo.NewError(e, work, placeDoSync)
	}
	return nil
}
