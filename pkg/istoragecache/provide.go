/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package istoragecache

import (
	"github.com/voedger/fieldflow/pkg/istorage"
)

// Provide wraps the storage factory so that every storage it returns keeps
// a fastcache of maxBytes in front of the underlying storage
func Provide(maxBytes int, storageFactory istorage.IStorageFactory) istorage.IStorageFactory {
	return &cachingStorageFactory{
		maxBytes:       maxBytes,
		storageFactory: storageFactory,
		storages:       make(map[string]*cachedStorage),
	}
}
