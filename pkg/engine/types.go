/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package engine

import (
	"sync"

	"github.com/voedger/fieldflow/pkg/compat"
	"github.com/voedger/fieldflow/pkg/depgraph"
	"github.com/voedger/fieldflow/pkg/in10n"
	"github.com/voedger/fieldflow/pkg/istructs"
	"github.com/voedger/fieldflow/pkg/links"
	"github.com/voedger/fieldflow/pkg/recompute"
)

type Config struct {
	// Candidates cap of lookups and rollups, aggregate.DefaultMaxArraySize if zero
	MaxArraySize int

	// Records of one field evaluated in parallel, recompute.DefaultParallelism if zero
	Parallelism int

	// Parsed formulas cache size, recompute.DefaultFormulaCacheSize if zero
	FormulaCacheSize int
}

type engine struct {
	// serializes structure changes
	mu sync.Mutex

	storage   istructs.IStorage
	graph     depgraph.IGraph
	links     links.IManager
	validator compat.IValidator
	scheduler recompute.IScheduler
	publisher in10n.IPublisher

	lastOrder int
}
