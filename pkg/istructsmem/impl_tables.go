/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package istructsmem

import (
	"context"
	"encoding/json"
	"slices"
	"strings"

	"github.com/voedger/fieldflow/pkg/fielddef"
	"github.com/voedger/fieldflow/pkg/istorage"
)

func (s *structs) Tables(ctx context.Context) (tables []*fielddef.Table, err error) {
	err = withPKey(prefix_Tables, "", func(pKey []byte) error {
		return s.storage.Read(ctx, pKey, nil, nil, func(_ []byte, data []byte) error {
			t := &fielddef.Table{}
			if err := json.Unmarshal(data, t); err != nil {
				return err
			}
			tables = append(tables, t)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(tables, func(a, b *fielddef.Table) int { return strings.Compare(a.Name, b.Name) })
	return tables, nil
}

func (s *structs) Table(_ context.Context, id fielddef.TableID) (*fielddef.Table, error) {
	data := make([]byte, 0)
	var ok bool
	err := withPKey(prefix_Tables, "", func(pKey []byte) (err error) {
		ok, err = s.storage.Get(pKey, cCols(id), &data)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fielddef.ErrTableNotFound(id)
	}
	t := &fielddef.Table{}
	if err := json.Unmarshal(data, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *structs) SaveTable(_ context.Context, table *fielddef.Table) error {
	if table.ID == fielddef.NullTableID {
		return fielddef.ErrInvalid("table id is empty")
	}
	data, err := json.Marshal(table)
	if err != nil {
		return err
	}
	return withPKey(prefix_Tables, "", func(pKey []byte) error {
		return s.storage.Put(pKey, cCols(table.ID), data)
	})
}

func (s *structs) DeleteTable(ctx context.Context, id fielddef.TableID) error {
	if _, err := s.Table(ctx, id); err != nil {
		return err
	}
	fields, err := s.ListFields(ctx, id)
	if err != nil {
		return err
	}

	l := s.tableLock(id)
	l.Lock()
	defer l.Unlock()

	var k keys
	defer k.release()

	batch := make([]istorage.BatchItem, 0)
	for _, f := range fields {
		batch = append(batch,
			istorage.BatchItem{PKey: k.pKey(prefix_Fields, string(id)), CCols: cCols(f.ID)},
			istorage.BatchItem{PKey: k.pKey(prefix_FieldTables, ""), CCols: cCols(f.ID)},
		)
	}
	recPKey := k.pKey(prefix_Records, string(id))
	err = s.storage.Read(ctx, recPKey, nil, nil, func(recID []byte, _ []byte) error {
		batch = append(batch, istorage.BatchItem{PKey: recPKey, CCols: append([]byte(nil), recID...)})
		return nil
	})
	if err != nil {
		return err
	}
	batch = append(batch,
		istorage.BatchItem{PKey: k.pKey(prefix_Seqs, ""), CCols: cCols(id)},
		istorage.BatchItem{PKey: k.pKey(prefix_Tables, ""), CCols: cCols(id)},
	)
	if err := s.storage.PutBatch(batch); err != nil {
		return err
	}
	for _, f := range fields {
		s.fields.Remove(f.ID)
	}
	return nil
}

func (s *structs) tableLock(id fielddef.TableID) *tableLock {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	l, ok := s.locks[id]
	if !ok {
		l = &tableLock{}
		s.locks[id] = l
	}
	return l
}
