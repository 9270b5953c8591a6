/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package istructsmem

import (
	"context"
	"encoding/json"
	"slices"
	"time"

	"github.com/untillpro/goutils/logger"

	"github.com/voedger/fieldflow/pkg/fielddef"
	"github.com/voedger/fieldflow/pkg/istorage"
	"github.com/voedger/fieldflow/pkg/istructs"
)

func (s *structs) GetRecord(_ context.Context, table fielddef.TableID, id fielddef.RecordID) (*fielddef.Record, error) {
	r, _, err := s.getRecord(table, id)
	return r, err
}

// Returns record and its raw data
func (s *structs) getRecord(table fielddef.TableID, id fielddef.RecordID) (*fielddef.Record, []byte, error) {
	data := make([]byte, 0)
	var ok bool
	err := withPKey(prefix_Records, table, func(pKey []byte) (err error) {
		ok, err = s.storage.Get(pKey, cCols(id), &data)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, fielddef.ErrRecordNotFound(table, id)
	}
	r := &fielddef.Record{}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, nil, fielddef.EnrichError(err, "record «%v» of table «%v»", id, table)
	}
	return r, data, nil
}

func (s *structs) QueryRecords(ctx context.Context, table fielddef.TableID, params istructs.QueryParams) (records []*fielddef.Record, err error) {
	unmarshal := func(data []byte) error {
		r := &fielddef.Record{}
		if err := json.Unmarshal(data, r); err != nil {
			return err
		}
		if params.Match(r) {
			records = append(records, r)
		}
		return nil
	}

	err = withPKey(prefix_Records, table, func(pKey []byte) error {
		if len(params.IDs) == 0 {
			return s.storage.Read(ctx, pKey, nil, nil, func(_ []byte, data []byte) error {
				return unmarshal(data)
			})
		}
		items := make([]istorage.GetBatchItem, len(params.IDs))
		for i, id := range params.IDs {
			data := make([]byte, 0)
			items[i] = istorage.GetBatchItem{CCols: cCols(id), Data: &data}
		}
		if err := s.storage.GetBatch(pKey, items); err != nil {
			return err
		}
		for _, item := range items {
			if item.Ok {
				if err := unmarshal(*item.Data); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(records, func(a, b *fielddef.Record) int {
		switch {
		case a.Seq < b.Seq:
			return -1
		case a.Seq > b.Seq:
			return 1
		}
		return 0
	})
	records = slices.CompactFunc(records, func(a, b *fielddef.Record) bool { return a.ID == b.ID })

	if params.Offset > 0 {
		if params.Offset >= len(records) {
			return nil, nil
		}
		records = records[params.Offset:]
	}
	if params.Limit > 0 && params.Limit < len(records) {
		records = records[:params.Limit]
	}
	return records, nil
}

func (s *structs) PutRecord(_ context.Context, record *fielddef.Record) error {
	if record.ID == fielddef.NullRecordID || record.Table == fielddef.NullTableID {
		return fielddef.ErrInvalid("record id and table must be set")
	}

	l := s.tableLock(record.Table)
	l.Lock()
	defer l.Unlock()

	if record.Seq == 0 {
		seq, err := s.nextSeq(record.Table)
		if err != nil {
			return err
		}
		record.Seq = seq
	}
	if record.Created.IsZero() {
		record.Created = time.Now().UTC()
	}
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return withPKey(prefix_Records, record.Table, func(pKey []byte) error {
		return s.storage.Put(pKey, cCols(record.ID), data)
	})
}

// Returns next record sequence number of the table
func (s *structs) nextSeq(table fielddef.TableID) (seq int64, err error) {
	err = withPKey(prefix_Seqs, "", func(pKey []byte) error {
		for {
			data := make([]byte, 0, seqSize)
			ok, err := s.storage.Get(pKey, cCols(table), &data)
			if err != nil {
				return err
			}
			if !ok {
				seq = 1
				ok, err = s.storage.InsertIfNotExists(pKey, cCols(table), seqToBytes(seq))
			} else {
				seq = seqFromBytes(data) + 1
				ok, err = s.storage.CompareAndSwap(pKey, cCols(table), data, seqToBytes(seq))
			}
			if err != nil || ok {
				return err
			}
		}
	})
	return seq, err
}

func (s *structs) UpdateRecord(ctx context.Context, table fielddef.TableID, id fielddef.RecordID, update func(*fielddef.Record) error) (*fielddef.Record, error) {
	l := s.tableLock(table)
	l.Lock()
	defer l.Unlock()

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, old, err := s.getRecord(table, id)
		if err != nil {
			return nil, err
		}
		if err := update(r); err != nil {
			return nil, err
		}
		r.ID, r.Table = id, table
		data, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		var ok bool
		err = withPKey(prefix_Records, table, func(pKey []byte) (err error) {
			ok, err = s.storage.CompareAndSwap(pKey, cCols(id), old, data)
			return err
		})
		if err != nil {
			return nil, err
		}
		if ok {
			return r, nil
		}
		if logger.IsVerbose() {
			logger.Verbose("record", string(id), "of table", string(table), "changed concurrently, attempt", attempt)
		}
	}
}

func (s *structs) DeleteRecord(_ context.Context, table fielddef.TableID, id fielddef.RecordID) error {
	l := s.tableLock(table)
	l.Lock()
	defer l.Unlock()

	if _, _, err := s.getRecord(table, id); err != nil {
		return err
	}
	return withPKey(prefix_Records, table, func(pKey []byte) error {
		return s.storage.Delete(pKey, cCols(id))
	})
}

func (s *structs) WriteComputedValues(ctx context.Context, table fielddef.TableID, id fielddef.RecordID, values map[fielddef.FieldID]any) error {
	_, err := s.UpdateRecord(ctx, table, id, func(r *fielddef.Record) error {
		for f, v := range values {
			r.Set(f, v)
		}
		return nil
	})
	return err
}

func (s *structs) WriteComputedBatch(_ context.Context, table fielddef.TableID, batch []istructs.ComputedValues) error {
	if len(batch) == 0 {
		return nil
	}

	l := s.tableLock(table)
	l.Lock()
	defer l.Unlock()

	return withPKey(prefix_Records, table, func(pKey []byte) error {
		items := make([]istorage.BatchItem, 0, len(batch))
		for _, cv := range batch {
			r, _, err := s.getRecord(table, cv.Record)
			if err != nil {
				if logger.IsVerbose() {
					logger.Verbose("skip computed values of", string(cv.Record), ":", err.Error())
				}
				continue
			}
			for f, v := range cv.Values {
				r.Set(f, v)
			}
			data, err := json.Marshal(r)
			if err != nil {
				return err
			}
			items = append(items, istorage.BatchItem{PKey: pKey, CCols: cCols(cv.Record), Value: data})
		}
		if len(items) == 0 {
			return nil
		}
		return s.storage.PutBatch(items)
	})
}
