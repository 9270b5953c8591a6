/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package istoragecache

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/valyala/bytebufferpool"

	"github.com/voedger/fieldflow/pkg/istorage"
)

type cachingStorageFactory struct {
	maxBytes       int
	storageFactory istorage.IStorageFactory
	mu             sync.Mutex
	storages       map[string]*cachedStorage
}

func (f *cachingStorageFactory) Storage(name istorage.SafeName) (istorage.IStorage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if s, ok := f.storages[name.String()]; ok {
		return s, nil
	}
	nonCachingStorage, err := f.storageFactory.Storage(name)
	if err != nil {
		return nil, err
	}
	s := newCachingStorage(f.maxBytes, nonCachingStorage)
	f.storages[name.String()] = s
	return s, nil
}

func (f *cachingStorageFactory) Init(name istorage.SafeName) error {
	return f.storageFactory.Init(name)
}

func (f *cachingStorageFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for name, s := range f.storages {
		s.cache.Reset()
		delete(f.storages, name)
	}
	return f.storageFactory.Close()
}

type cachedStorage struct {
	cache   *fastcache.Cache
	storage istorage.IStorage
}

func newCachingStorage(maxBytes int, nonCachingStorage istorage.IStorage) *cachedStorage {
	return &cachedStorage{
		cache:   fastcache.New(maxBytes),
		storage: nonCachingStorage,
	}
}

func (s *cachedStorage) Put(pKey []byte, cCols []byte, value []byte) (err error) {
	err = s.storage.Put(pKey, cCols, value)
	if err == nil {
		s.set(pKey, cCols, value)
	}
	return err
}

func (s *cachedStorage) PutBatch(items []istorage.BatchItem) (err error) {
	err = s.storage.PutBatch(items)
	if err == nil {
		for _, i := range items {
			if i.Value == nil {
				s.del(i.PKey, i.CCols)
				continue
			}
			s.set(i.PKey, i.CCols, i.Value)
		}
	}
	return err
}

func (s *cachedStorage) Get(pKey []byte, cCols []byte, data *[]byte) (ok bool, err error) {
	k := key(pKey, cCols)
	defer bytebufferpool.Put(k)

	*data, ok = s.cache.HasGet((*data)[0:0], k.B)
	if ok {
		return true, nil
	}
	ok, err = s.storage.Get(pKey, cCols, data)
	if err != nil {
		return false, err
	}
	if ok {
		s.cache.Set(k.B, *data)
	}
	return ok, nil
}

func (s *cachedStorage) GetBatch(pKey []byte, items []istorage.GetBatchItem) (err error) {
	if !s.getBatchFromCache(pKey, items) {
		return s.getBatchFromStorage(pKey, items)
	}
	return nil
}

func (s *cachedStorage) getBatchFromCache(pKey []byte, items []istorage.GetBatchItem) bool {
	for i := range items {
		k := key(pKey, items[i].CCols)
		*items[i].Data, items[i].Ok = s.cache.HasGet((*items[i].Data)[0:0], k.B)
		bytebufferpool.Put(k)
		if !items[i].Ok {
			return false
		}
	}
	return true
}

func (s *cachedStorage) getBatchFromStorage(pKey []byte, items []istorage.GetBatchItem) (err error) {
	err = s.storage.GetBatch(pKey, items)
	if err != nil {
		return err
	}
	for _, item := range items {
		if item.Ok {
			s.set(pKey, item.CCols, *item.Data)
		} else {
			s.del(pKey, item.CCols)
		}
	}
	return nil
}

func (s *cachedStorage) Read(ctx context.Context, pKey []byte, startCCols, finishCCols []byte, cb istorage.ReadCallback) (err error) {
	return s.storage.Read(ctx, pKey, startCCols, finishCCols, cb)
}

func (s *cachedStorage) Delete(pKey []byte, cCols []byte) (err error) {
	s.del(pKey, cCols)
	err = s.storage.Delete(pKey, cCols)
	s.del(pKey, cCols)
	return err
}

func (s *cachedStorage) InsertIfNotExists(pKey []byte, cCols []byte, value []byte) (ok bool, err error) {
	ok, err = s.storage.InsertIfNotExists(pKey, cCols, value)
	if ok && err == nil {
		s.set(pKey, cCols, value)
	}
	return ok, err
}

func (s *cachedStorage) CompareAndSwap(pKey []byte, cCols []byte, oldValue, newValue []byte) (ok bool, err error) {
	ok, err = s.storage.CompareAndSwap(pKey, cCols, oldValue, newValue)
	if err != nil {
		return false, err
	}
	if ok {
		s.set(pKey, cCols, newValue)
	} else {
		// the cached value is stale if it differs from the stored one
		s.del(pKey, cCols)
	}
	return ok, nil
}

func (s *cachedStorage) CompareAndDelete(pKey []byte, cCols []byte, expectedValue []byte) (ok bool, err error) {
	ok, err = s.storage.CompareAndDelete(pKey, cCols, expectedValue)
	s.del(pKey, cCols)
	return ok, err
}

func (s *cachedStorage) set(pKey, cCols, value []byte) {
	k := key(pKey, cCols)
	s.cache.Set(k.B, value)
	bytebufferpool.Put(k)
}

func (s *cachedStorage) del(pKey, cCols []byte) {
	k := key(pKey, cCols)
	s.cache.Del(k.B)
	bytebufferpool.Put(k)
}

// key returns pooled buffer with length-prefixed pKey followed by cCols
func key(pKey []byte, cCols []byte) *bytebufferpool.ByteBuffer {
	bb := bytebufferpool.Get()
	var l [pKeyLenSize]byte
	binary.BigEndian.PutUint16(l[:], uint16(len(pKey)))
	_, _ = bb.Write(l[:])
	_, _ = bb.Write(pKey)
	_, _ = bb.Write(cCols)
	return bb
}
