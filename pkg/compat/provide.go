/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package compat

import (
	"github.com/voedger/fieldflow/pkg/aggregate"
	"github.com/voedger/fieldflow/pkg/depgraph"
	"github.com/voedger/fieldflow/pkg/istructs"
)

// Provide: constructs validator over storage and dependency graph.
//
// Lookup limits are checked against maxArraySize, aggregate.DefaultMaxArraySize if zero.
func Provide(storage istructs.IStorage, graph depgraph.IGraph, maxArraySize int) IValidator {
	if maxArraySize <= 0 {
		maxArraySize = aggregate.DefaultMaxArraySize
	}
	return &validator{storage: storage, graph: graph, maxArraySize: maxArraySize}
}
