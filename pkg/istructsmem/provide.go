/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package istructsmem

import (
	"errors"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/voedger/fieldflow/pkg/fielddef"
	"github.com/voedger/fieldflow/pkg/istorage"
	"github.com/voedger/fieldflow/pkg/istructs"
)

// Provide: constructs storage collaborator over key-value storage.
//
// Field definitions are cached in LRU cache of fieldMetaCacheSize items.
func Provide(storage istorage.IStorage, fieldMetaCacheSize int) (istructs.IStorage, error) {
	if fieldMetaCacheSize <= 0 {
		fieldMetaCacheSize = DefaultFieldMetaCacheSize
	}
	cache, err := lru.New[fielddef.FieldID, *fielddef.Field](fieldMetaCacheSize)
	if err != nil {
		return nil, err
	}
	return &structs{
		storage: storage,
		fields:  cache,
		locks:   make(map[fielddef.TableID]*tableLock),
	}, nil
}

// Opens named storage from factory, initializes it if it does not exist
func Open(factory istorage.IStorageFactory, name istorage.SafeName, fieldMetaCacheSize int) (istructs.IStorage, error) {
	if err := factory.Init(name); err != nil && !errors.Is(err, istorage.ErrStorageAlreadyExists) {
		return nil, err
	}
	storage, err := factory.Storage(name)
	if err != nil {
		return nil, err
	}
	return Provide(storage, fieldMetaCacheSize)
}
