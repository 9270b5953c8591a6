/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package mem

import (
	"bytes"
	"context"
	"slices"
	"sync"

	"github.com/voedger/fieldflow/pkg/istorage"
)

type storageFactory struct {
	mu       sync.Mutex
	storages map[string]*storage
}

func (f *storageFactory) Storage(name istorage.SafeName) (istorage.IStorage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.storages[name.String()]
	if !ok {
		return nil, istorage.ErrStorageDoesNotExist
	}
	return s, nil
}

func (f *storageFactory) Init(name istorage.SafeName) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.storages[name.String()]; ok {
		return istorage.ErrStorageAlreadyExists
	}
	f.storages[name.String()] = &storage{data: make(map[string]map[string][]byte)}
	return nil
}

func (f *storageFactory) Close() error { return nil }

type storage struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

func (s *storage) Put(pKey []byte, cCols []byte, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.put(pKey, cCols, value)
	return nil
}

func (s *storage) put(pKey []byte, cCols []byte, value []byte) {
	p, ok := s.data[string(pKey)]
	if !ok {
		p = make(map[string][]byte)
		s.data[string(pKey)] = p
	}
	p[string(cCols)] = bytes.Clone(value)
	if p[string(cCols)] == nil {
		p[string(cCols)] = []byte{}
	}
}

func (s *storage) delete(pKey []byte, cCols []byte) {
	if p, ok := s.data[string(pKey)]; ok {
		delete(p, string(cCols))
		if len(p) == 0 {
			delete(s.data, string(pKey))
		}
	}
}

func (s *storage) PutBatch(items []istorage.BatchItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, i := range items {
		if i.Value == nil {
			s.delete(i.PKey, i.CCols)
			continue
		}
		s.put(i.PKey, i.CCols, i.Value)
	}
	return nil
}

func (s *storage) Get(pKey []byte, cCols []byte, data *[]byte) (ok bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	*data = (*data)[0:0]
	v, ok := s.get(pKey, cCols)
	if ok {
		*data = append(*data, v...)
	}
	return ok, nil
}

func (s *storage) get(pKey []byte, cCols []byte) ([]byte, bool) {
	p, ok := s.data[string(pKey)]
	if !ok {
		return nil, false
	}
	v, ok := p[string(cCols)]
	return v, ok
}

func (s *storage) GetBatch(pKey []byte, items []istorage.GetBatchItem) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range items {
		v, ok := s.get(pKey, items[i].CCols)
		items[i].Ok = ok
		*items[i].Data = append((*items[i].Data)[0:0], v...)
	}
	return nil
}

func (s *storage) Read(ctx context.Context, pKey []byte, startCCols, finishCCols []byte, cb istorage.ReadCallback) error {
	if (len(startCCols) > 0) && (len(finishCCols) > 0) && (bytes.Compare(startCCols, finishCCols) >= 0) {
		return nil // absurd range
	}

	type row struct {
		cCols string
		value []byte
	}

	s.mu.RLock()
	p := s.data[string(pKey)]
	rows := make([]row, 0, len(p))
	for c, v := range p {
		if len(startCCols) > 0 && c < string(startCCols) {
			continue
		}
		if len(finishCCols) > 0 && c > string(finishCCols) {
			continue
		}
		rows = append(rows, row{c, v})
	}
	s.mu.RUnlock()

	slices.SortFunc(rows, func(a, b row) int { return bytes.Compare([]byte(a.cCols), []byte(b.cCols)) })

	for _, r := range rows {
		if ctx.Err() != nil {
			return nil
		}
		if cb != nil {
			if err := cb([]byte(r.cCols), r.value); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *storage) Delete(pKey []byte, cCols []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.delete(pKey, cCols)
	return nil
}

func (s *storage) InsertIfNotExists(pKey []byte, cCols []byte, value []byte) (ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.get(pKey, cCols); exists {
		return false, nil
	}
	s.put(pKey, cCols, value)
	return true, nil
}

func (s *storage) CompareAndSwap(pKey []byte, cCols []byte, oldValue, newValue []byte) (ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, exists := s.get(pKey, cCols)
	if !exists || !bytes.Equal(v, oldValue) {
		return false, nil
	}
	s.put(pKey, cCols, newValue)
	return true, nil
}

func (s *storage) CompareAndDelete(pKey []byte, cCols []byte, expectedValue []byte) (ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, exists := s.get(pKey, cCols)
	if !exists || !bytes.Equal(v, expectedValue) {
		return false, nil
	}
	s.delete(pKey, cCols)
	return true, nil
}
