/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package links

import (
	"github.com/voedger/fieldflow/pkg/istructs"
)

func Provide(storage istructs.IStorage) IManager {
	return &manager{storage: storage}
}
