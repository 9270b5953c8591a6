/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package mem

import (
	"github.com/voedger/fieldflow/pkg/istorage"
)

// Returns in-memory storage factory. Data is lost when factory is released
func Provide() istorage.IStorageFactory {
	return &storageFactory{
		storages: make(map[string]*storage),
	}
}
