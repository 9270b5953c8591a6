/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package pipeline

import (
	"errors"
	"fmt"
)

var ErrUnknownBranch = errors.New("unknown switch branch")

type errPipeline struct {
	err    error
	work   any
	opName string
	place  string
}

func (e errPipeline) Error() string {
	return e.err.Error()
}

func (e errPipeline) Unwrap() error {
	return e.err
}

func (e errPipeline) GetWork() any {
	return e.work
}

func (e errPipeline) GetOpName() string {
	return e.opName
}

func (e errPipeline) GetPlace() string {
	return e.place
}

func pipelinePanic(msg string, operatorName string, context IWorkpieceContext) {
	panic(fmt.Sprintf("critical error in operator '%s': %s. Pipeline '%s' [%s]", operatorName, msg, context.GetPipelineName(), context.GetPipelineStruct()))
}
