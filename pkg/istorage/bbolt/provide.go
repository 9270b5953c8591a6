/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package bbolt

import (
	"github.com/voedger/fieldflow/pkg/istorage"
)

func Provide(params ParamsType) istorage.IStorageFactory {
	return &storageFactory{
		params: params,
		opened: make(map[string]*storageType),
	}
}
