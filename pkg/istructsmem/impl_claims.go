/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package istructsmem

import (
	"context"

	"github.com/voedger/fieldflow/pkg/fielddef"
	"github.com/voedger/fieldflow/pkg/istorage"
	"github.com/voedger/fieldflow/pkg/istructs"
)

func (s *structs) EnsureJunction(ctx context.Context, key istructs.JunctionKey) (string, error) {
	if name, ok, err := s.Junction(ctx, key); err != nil || ok {
		return name, err
	}
	name := junctionNamePrefix + key.String()
	err := withPKey(prefix_Junctions, "", func(pKey []byte) error {
		_, err := s.storage.InsertIfNotExists(pKey, cCols(key.String()), []byte(name))
		return err
	})
	if err != nil {
		return "", err
	}
	// concurrent allocator may win, its name is returned
	name, _, err = s.Junction(ctx, key)
	return name, err
}

func (s *structs) Junction(_ context.Context, key istructs.JunctionKey) (name string, ok bool, err error) {
	data := make([]byte, 0)
	err = withPKey(prefix_Junctions, "", func(pKey []byte) (err error) {
		ok, err = s.storage.Get(pKey, cCols(key.String()), &data)
		return err
	})
	if err != nil || !ok {
		return "", false, err
	}
	return string(data), true, nil
}

func (s *structs) DropJunction(_ context.Context, key istructs.JunctionKey) error {
	return withPKey(prefix_Junctions, "", func(pKey []byte) error {
		return s.storage.Delete(pKey, cCols(key.String()))
	})
}

func (s *structs) Claim(ctx context.Context, field fielddef.FieldID, target, owner fielddef.RecordID) (ok bool, holder fielddef.RecordID, err error) {
	if owner == fielddef.NullRecordID {
		return false, fielddef.NullRecordID, fielddef.ErrInvalid("claim owner of «%v» is empty", target)
	}
	err = withPKey(prefix_Claims, field, func(pKey []byte) error {
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			inserted, err := s.storage.InsertIfNotExists(pKey, cCols(target), []byte(owner))
			if err != nil {
				return err
			}
			if inserted {
				ok, holder = true, owner
				return nil
			}
			data := make([]byte, 0)
			exists, err := s.storage.Get(pKey, cCols(target), &data)
			if err != nil {
				return err
			}
			if !exists {
				// released between insert and get
				continue
			}
			holder = fielddef.RecordID(data)
			ok = holder == owner
			return nil
		}
	})
	return ok, holder, err
}

func (s *structs) Release(_ context.Context, field fielddef.FieldID, target, owner fielddef.RecordID) error {
	return withPKey(prefix_Claims, field, func(pKey []byte) error {
		_, err := s.storage.CompareAndDelete(pKey, cCols(target), []byte(owner))
		return err
	})
}

func (s *structs) Holder(_ context.Context, field fielddef.FieldID, target fielddef.RecordID) (holder fielddef.RecordID, err error) {
	err = withPKey(prefix_Claims, field, func(pKey []byte) error {
		data := make([]byte, 0)
		ok, err := s.storage.Get(pKey, cCols(target), &data)
		if ok {
			holder = fielddef.RecordID(data)
		}
		return err
	})
	return holder, err
}

func (s *structs) ReleaseAll(ctx context.Context, field fielddef.FieldID) error {
	return withPKey(prefix_Claims, field, func(pKey []byte) error {
		batch := make([]istorage.BatchItem, 0)
		err := s.storage.Read(ctx, pKey, nil, nil, func(target []byte, _ []byte) error {
			batch = append(batch, istorage.BatchItem{PKey: pKey, CCols: append([]byte(nil), target...)})
			return nil
		})
		if err != nil || len(batch) == 0 {
			return err
		}
		return s.storage.PutBatch(batch)
	})
}
