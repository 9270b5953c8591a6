/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package istructsmem

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/voedger/fieldflow/pkg/fielddef"
	"github.com/voedger/fieldflow/pkg/istorage"
)

// implements istructs.IStorage
type structs struct {
	storage istorage.IStorage

	// field definitions cache
	fields *lru.Cache[fielddef.FieldID, *fielddef.Field]

	locksMu sync.Mutex
	locks   map[fielddef.TableID]*tableLock
}

// serializes record writes of the table
type tableLock struct {
	sync.Mutex
}
