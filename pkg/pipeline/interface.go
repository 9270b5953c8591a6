/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package pipeline

import "context"

// Pipeline of sync operators. Work goes through all operators in the wiring order.
type ISyncPipeline interface {
	ISyncOperator

	// Blocks until all operators finish processing of the work.
	// Returns error of the first failed operator which was not caught by ICatch operator
	SendSync(work any) (err error)
}

type IOperator interface {
	Close()
}

type ISyncOperator interface {
	IOperator
	DoSync(ctx context.Context, work any) (err error)
}

// Operator which implements ICatch receives errors of previous operators.
// If OnErr returns nil then work continues to the operator DoSync
type ICatch interface {
	OnErr(err error, work any, context IWorkpieceContext) (newErr error)
}

// Selects switch operator branch by work
type ISwitch interface {
	Switch(work any) (branchName string, err error)
}

type IWorkpieceContext interface {
	GetPipelineName() string
	GetPipelineStruct() string
}

type IErrorPipeline interface {
	error
	GetWork() any
	GetOpName() string
	GetPlace() string
}
