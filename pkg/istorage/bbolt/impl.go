/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package bbolt

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/untillpro/goutils/logger"
	bolt "go.etcd.io/bbolt"

	"github.com/voedger/fieldflow/pkg/istorage"
)

type storageFactory struct {
	params ParamsType
	mu     sync.Mutex
	opened map[string]*storageType
}

func (p *storageFactory) dbName(name istorage.SafeName) string {
	return filepath.Join(p.params.DBDir, name.String()+dbFileExt)
}

func (p *storageFactory) Storage(name istorage.SafeName) (s istorage.IStorage, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s, ok := p.opened[name.String()]; ok {
		return s, nil
	}

	dbName := p.dbName(name)
	exists, err := fileExists(dbName)
	if err != nil {
		// notest
		return nil, err
	}
	if !exists {
		return nil, istorage.ErrStorageDoesNotExist
	}
	db, err := bolt.Open(dbName, fileMode_rw_rw_rw_, bolt.DefaultOptions)
	if err != nil {
		// notest
		return nil, err
	}

	if err := initDB(db); err != nil {
		return nil, errors.Join(err, db.Close())
	}

	impl := &storageType{db: db}
	p.opened[name.String()] = impl
	return impl, nil
}

func (p *storageFactory) Init(name istorage.SafeName) error {
	dbName := p.dbName(name)
	exists, err := fileExists(dbName)
	if err != nil {
		// notest
		return err
	}
	if exists {
		return istorage.ErrStorageAlreadyExists
	}
	if err = os.MkdirAll(p.params.DBDir, fileMode_rwxrwxrwx); err != nil {
		// notest
		return err
	}
	db, err := bolt.Open(dbName, fileMode_rw_rw_rw_, bolt.DefaultOptions)
	if err != nil {
		// notest
		return err
	}

	if err := initDB(db); err != nil {
		return errors.Join(err, db.Close())
	}

	return db.Close()
}

func (p *storageFactory) Close() (err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for name, s := range p.opened {
		if e := s.db.Close(); e != nil {
			logger.Error("bbolt storage «" + name + "»: failed to close: " + e.Error())
			err = errors.Join(err, e)
		}
		delete(p.opened, name)
	}
	return err
}

func fileExists(name string) (bool, error) {
	_, err := os.Stat(name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// if the key is empty or equal to nil, then convert it to nullKey
func safeKey(value []byte) []byte {
	if len(value) == 0 {
		return nullKey
	}
	return value
}

// if the key is nullKey, then convert it to nil
func unSafeKey(value []byte) []byte {
	if len(value) == 0 || (len(value) == 1 && value[0] == 0) {
		return nil
	}
	return value
}

// implementation for istorage.IStorage
type storageType struct {
	db *bolt.DB
}

func (s *storageType) Put(pKey []byte, cCols []byte, value []byte) (err error) {
	return s.db.Update(func(tx *bolt.Tx) error {
		return putValue(tx, pKey, cCols, value)
	})
}

func (s *storageType) PutBatch(items []istorage.BatchItem) (err error) {
	return s.db.Update(func(tx *bolt.Tx) error {
		for i := 0; i < len(items); i++ {
			if items[i].Value == nil {
				if err := deleteValue(tx, items[i].PKey, items[i].CCols); err != nil {
					return err
				}
				continue
			}
			if err := putValue(tx, items[i].PKey, items[i].CCols, items[i].Value); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *storageType) Get(pKey []byte, cCols []byte, data *[]byte) (ok bool, err error) {
	*data = (*data)[0:0]

	err = s.db.View(func(tx *bolt.Tx) error {
		v, err := getValue(tx, pKey, cCols)
		if err != nil || v == nil {
			return err
		}
		*data = append(*data, v...)
		ok = true
		return nil
	})

	return ok, err
}

func (s *storageType) GetBatch(pKey []byte, items []istorage.GetBatchItem) (err error) {
	return s.db.View(func(tx *bolt.Tx) error {
		dataBucket := tx.Bucket([]byte(dataBucketName))
		if dataBucket == nil {
			return ErrDataBucketNotFound
		}

		bucket := dataBucket.Bucket(pKey)
		if bucket == nil {
			for i := 0; i < len(items); i++ {
				items[i].Ok = false
				*items[i].Data = (*items[i].Data)[0:0]
			}
			return nil
		}

		for i := 0; i < len(items); i++ {
			v := bucket.Get(safeKey(items[i].CCols))
			items[i].Ok = v != nil
			*items[i].Data = append((*items[i].Data)[0:0], v...)
		}

		return nil
	})
}

func (s *storageType) Read(ctx context.Context, pKey []byte, startCCols, finishCCols []byte, cb istorage.ReadCallback) (err error) {
	if (len(startCCols) > 0) && (len(finishCCols) > 0) && (bytes.Compare(startCCols, finishCCols) >= 0) {
		return nil // absurd range
	}

	return s.db.View(func(tx *bolt.Tx) error {
		dataBucket := tx.Bucket([]byte(dataBucketName))
		if dataBucket == nil {
			return ErrDataBucketNotFound
		}

		startCCols = unSafeKey(startCCols)
		finishCCols = unSafeKey(finishCCols)

		var (
			k []byte
			v []byte
		)

		bucket := dataBucket.Bucket(pKey)
		if bucket == nil {
			return nil
		}

		cr := bucket.Cursor()
		if startCCols == nil {
			k, v = cr.First()
		} else {
			k, v = cr.Seek(safeKey(startCCols))
		}

		for (k != nil) && (finishCCols == nil || string(k) <= string(finishCCols)) {
			if ctx.Err() != nil {
				return nil
			}
			if cb != nil {
				if err := cb(unSafeKey(k), v); err != nil {
					return err
				}
			}
			k, v = cr.Next()
		}

		return nil
	})
}

func (s *storageType) Delete(pKey []byte, cCols []byte) (err error) {
	return s.db.Update(func(tx *bolt.Tx) error {
		return deleteValue(tx, pKey, cCols)
	})
}

func (s *storageType) InsertIfNotExists(pKey []byte, cCols []byte, value []byte) (ok bool, err error) {
	err = s.db.Update(func(tx *bolt.Tx) error {
		v, err := getValue(tx, pKey, cCols)
		if err != nil || v != nil {
			return err
		}
		ok = true
		return putValue(tx, pKey, cCols, value)
	})
	return ok && err == nil, err
}

func (s *storageType) CompareAndSwap(pKey []byte, cCols []byte, oldValue, newValue []byte) (ok bool, err error) {
	err = s.db.Update(func(tx *bolt.Tx) error {
		v, err := getValue(tx, pKey, cCols)
		if err != nil || v == nil || !bytes.Equal(v, oldValue) {
			return err
		}
		ok = true
		return putValue(tx, pKey, cCols, newValue)
	})
	return ok && err == nil, err
}

func (s *storageType) CompareAndDelete(pKey []byte, cCols []byte, expectedValue []byte) (ok bool, err error) {
	err = s.db.Update(func(tx *bolt.Tx) error {
		v, err := getValue(tx, pKey, cCols)
		if err != nil || v == nil || !bytes.Equal(v, expectedValue) {
			return err
		}
		ok = true
		return deleteValue(tx, pKey, cCols)
	})
	return ok && err == nil, err
}

// Returns nil if value is not found. Returned slice is valid only inside transaction
func getValue(tx *bolt.Tx, pKey, cCols []byte) ([]byte, error) {
	dataBucket := tx.Bucket([]byte(dataBucketName))
	if dataBucket == nil {
		return nil, ErrDataBucketNotFound
	}

	bucket := dataBucket.Bucket(pKey)
	if bucket == nil {
		return nil, nil
	}

	return bucket.Get(safeKey(cCols)), nil
}

func putValue(tx *bolt.Tx, pKey, cCols, value []byte) error {
	dataBucket, err := tx.CreateBucketIfNotExists([]byte(dataBucketName))
	if err != nil {
		return err
	}

	bucket, err := dataBucket.CreateBucketIfNotExists(pKey)
	if err != nil {
		return err
	}

	if value == nil {
		value = []byte{}
	}
	return bucket.Put(safeKey(cCols), value)
}

func deleteValue(tx *bolt.Tx, pKey, cCols []byte) error {
	dataBucket := tx.Bucket([]byte(dataBucketName))
	if dataBucket == nil {
		return ErrDataBucketNotFound
	}

	bucket := dataBucket.Bucket(pKey)
	if bucket == nil {
		return nil
	}

	if err := bucket.Delete(safeKey(cCols)); err != nil {
		return err
	}

	// if the bucket is empty, then delete it
	if k, _ := bucket.Cursor().First(); k == nil {
		return dataBucket.DeleteBucket(pKey)
	}
	return nil
}

func initDB(db *bolt.DB) error {
	return db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(dataBucketName))
		return err
	})
}
