/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package istorage

import (
	"context"
)

// Implemented by a certain driver
type IStorageFactory interface {
	// Returns storage for an existing base
	// Returns ErrStorageDoesNotExist
	Storage(name SafeName) (storage IStorage, err error)

	// Creates new storage
	// Returns ErrStorageAlreadyExists
	Init(name SafeName) error

	// Closes all opened storages
	Close() error
}

// Key-value storage partitioned by primary key.
//
// Rows of the partition are sorted by clustering columns.
type IStorage interface {
	// len(cCols) may be 0 (nil or empty array)
	// @ConcurrentAccess
	Put(pKey []byte, cCols []byte, value []byte) (err error)

	// Writes all items atomically
	// @ConcurrentAccess
	PutBatch(items []BatchItem) (err error)

	// ok == false means that row does not exist
	// @ConcurrentAccess
	Get(pKey []byte, cCols []byte, data *[]byte) (ok bool, err error)

	// Gets and appends result to items[i].Data
	// items[i].Ok==false means row is not found
	// items[i].Ok & Data are undefined in case of error
	GetBatch(pKey []byte, items []GetBatchItem) (err error)

	// startCCols can be empty (nil or zero len), in this case reads from start of partition.
	// finishCCols can be empty (nil or zero len) too. In this case reads to the end of partition
	// @ConcurrentAccess
	Read(ctx context.Context, pKey []byte, startCCols, finishCCols []byte, cb ReadCallback) (err error)

	// Deleting not existing row is not an error
	// @ConcurrentAccess
	Delete(pKey []byte, cCols []byte) (err error)

	// Writes value if row does not exist.
	// ok == false means that row exists and is not changed
	// @ConcurrentAccess
	InsertIfNotExists(pKey []byte, cCols []byte, value []byte) (ok bool, err error)

	// Replaces row value if current value equals oldValue.
	// ok == false means that row does not exist or its value differs from oldValue
	// @ConcurrentAccess
	CompareAndSwap(pKey []byte, cCols []byte, oldValue, newValue []byte) (ok bool, err error)

	// Deletes row if current value equals expectedValue
	// @ConcurrentAccess
	CompareAndDelete(pKey []byte, cCols []byte, expectedValue []byte) (ok bool, err error)
}

// ccols and value are temporary internal values, must NOT be changed
type ReadCallback func(ccols []byte, value []byte) (err error)

type BatchItem struct {
	PKey  []byte
	CCols []byte
	// Nil value deletes row
	Value []byte
}

type GetBatchItem struct {
	CCols []byte
	Ok    bool
	Data  *[]byte
}
