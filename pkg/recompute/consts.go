/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package recompute

const (
	DefaultParallelism      = 8
	DefaultFormulaCacheSize = 512
)

const pipelineName = "recompute"

// Operator names
const (
	op_Receive   = "receive"
	op_Expand    = "expand"
	op_Order     = "order"
	op_Evaluate  = "evaluate"
	op_Persist   = "persist"
	op_Propagate = "propagate"
	op_Catch     = "catch"
)

// Expand branches
const (
	branch_Records = "records"
	branch_Deleted = "deleted"
	branch_Fields  = "fields"
	branch_Table   = "table"
)
