/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package pipeline

import "context"

type WorkpieceContext struct {
	pipelineName   string
	pipelineStruct string
}

func (c WorkpieceContext) GetPipelineName() string {
	return c.pipelineName
}

func (c WorkpieceContext) GetPipelineStruct() string {
	return c.pipelineStruct
}

func NewWorkpieceContext(pName, pStruct string) WorkpieceContext {
	return WorkpieceContext{
		pipelineName:   pName,
		pipelineStruct: pStruct,
	}
}

type SyncPipeline struct {
	name string
	wctx IWorkpieceContext
	ctx  context.Context
	// stdin created by pipeline
	stdin chan any
	// stdout points to the Stdout of the last operator
	stdout    chan any
	operators []*WiredOperator
}

type WiredOperator struct {
	name     string
	wctx     IWorkpieceContext
	Stdin    chan any // Stdin is provided by the builder
	Stdout   chan any // Stdout is owned by WiredOperator
	Operator ISyncOperator
	ctx      context.Context
}

type switchOperator struct {
	switchLogic ISwitch
	branches    map[string]ISyncOperator
}

type SwitchOperatorOptionFunc func(*switchOperator)
