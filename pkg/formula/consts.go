/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package formula

// Reference to the sequence of aggregated values in rollup expressions, e.g. `sum({values})`
const ValuesRef = "values"

const (
	op_Eq    = "="
	op_NotEq = "!="
	op_Ne    = "<>"
	op_Le    = "<="
	op_Ge    = ">="
	op_Lt    = "<"
	op_Gt    = ">"
)
