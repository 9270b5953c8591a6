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

func (s *structs) FieldMeta(_ context.Context, id fielddef.FieldID) (*fielddef.Field, error) {
	if f, ok := s.fields.Get(id); ok {
		return f.Clone(), nil
	}

	table, ok, err := s.fieldTable(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fielddef.ErrFieldNotFound(id)
	}

	data := make([]byte, 0)
	err = withPKey(prefix_Fields, table, func(pKey []byte) (err error) {
		ok, err = s.storage.Get(pKey, cCols(id), &data)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fielddef.ErrFieldNotFound(id)
	}
	f := &fielddef.Field{}
	if err := json.Unmarshal(data, f); err != nil {
		return nil, err
	}
	s.fields.Add(id, f)
	return f.Clone(), nil
}

func (s *structs) fieldTable(id fielddef.FieldID) (table fielddef.TableID, ok bool, err error) {
	data := make([]byte, 0)
	err = withPKey(prefix_FieldTables, "", func(pKey []byte) (err error) {
		ok, err = s.storage.Get(pKey, cCols(id), &data)
		return err
	})
	return fielddef.TableID(data), ok, err
}

func (s *structs) ListFields(ctx context.Context, table fielddef.TableID) (fields []*fielddef.Field, err error) {
	err = withPKey(prefix_Fields, table, func(pKey []byte) error {
		return s.storage.Read(ctx, pKey, nil, nil, func(_ []byte, data []byte) error {
			f := &fielddef.Field{}
			if err := json.Unmarshal(data, f); err != nil {
				return err
			}
			fields = append(fields, f)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(fields, func(a, b *fielddef.Field) int {
		if a.Order != b.Order {
			return a.Order - b.Order
		}
		return strings.Compare(string(a.ID), string(b.ID))
	})
	return fields, nil
}

func (s *structs) SaveField(ctx context.Context, field *fielddef.Field) error {
	return s.SaveFields(ctx, field)
}

func (s *structs) SaveFields(_ context.Context, fields ...*fielddef.Field) error {
	var k keys
	defer k.release()

	batch := make([]istorage.BatchItem, 0, 2*len(fields))
	for _, f := range fields {
		if f.ID == fielddef.NullFieldID || f.Table == fielddef.NullTableID {
			return fielddef.ErrInvalid("%v: field id and table must be set", f)
		}
		data, err := json.Marshal(f)
		if err != nil {
			return err
		}
		batch = append(batch,
			istorage.BatchItem{PKey: k.pKey(prefix_Fields, string(f.Table)), CCols: cCols(f.ID), Value: data},
			istorage.BatchItem{PKey: k.pKey(prefix_FieldTables, ""), CCols: cCols(f.ID), Value: []byte(f.Table)},
		)
	}
	err := s.storage.PutBatch(batch)
	for _, f := range fields {
		s.fields.Remove(f.ID)
	}
	return err
}

func (s *structs) DeleteField(_ context.Context, id fielddef.FieldID) error {
	table, ok, err := s.fieldTable(id)
	if err != nil {
		return err
	}
	if !ok {
		return fielddef.ErrFieldNotFound(id)
	}

	var k keys
	defer k.release()

	err = s.storage.PutBatch([]istorage.BatchItem{
		{PKey: k.pKey(prefix_Fields, string(table)), CCols: cCols(id)},
		{PKey: k.pKey(prefix_FieldTables, ""), CCols: cCols(id)},
	})
	s.fields.Remove(id)
	return err
}
