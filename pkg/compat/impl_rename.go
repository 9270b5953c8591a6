/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package compat

import (
	"context"
	"errors"
	"fmt"

	"github.com/untillpro/goutils/logger"

	"github.com/voedger/fieldflow/pkg/fielddef"
	"github.com/voedger/fieldflow/pkg/istructs"
)

func (v *validator) RenameChoice(ctx context.Context, field fielddef.FieldID, old, new string) (res RenameResult, err error) {
	f, err := v.storage.FieldMeta(ctx, field)
	if err != nil {
		return res, err
	}
	opts, ok := f.Options.(*fielddef.ValueOptions)
	if !ok || !f.CellType.IsSelect() {
		return res, fielddef.ErrInvalid("%v is not a select", f)
	}
	idx := opts.ChoiceIndex(old)
	if idx < 0 {
		return res, fielddef.ErrNotFound("%v: choice «%s»", f, old)
	}
	if old == new {
		return res, nil
	}
	if opts.ChoiceIndex(new) >= 0 {
		return res, fielddef.ErrAlreadyExists("%v: choice «%s»", f, new)
	}
	opts.Choices[idx].Name = new
	if err := v.storage.SaveField(ctx, f); err != nil {
		return res, err
	}

	records, err := v.storage.QueryRecords(ctx, f.Table, istructs.QueryParams{
		Where: func(r *fielddef.Record) bool { return hasChoice(r.Get(field), old) },
	})
	if err != nil {
		return res, err
	}
	for _, r := range records {
		_, err := v.storage.UpdateRecord(ctx, f.Table, r.ID, func(r *fielddef.Record) error {
			r.Set(field, renameChoice(r.Get(field), old, new))
			return nil
		})
		if err != nil && !errors.Is(err, fielddef.ErrNotFoundError) {
			return res, err
		}
		res.Records = append(res.Records, r.ID)
	}

	for _, d := range v.graph.DependentsOf(field) {
		dep, err := v.storage.FieldMeta(ctx, d)
		if errors.Is(err, fielddef.ErrNotFoundError) {
			continue
		}
		if err != nil {
			return res, err
		}
		lo := dep.Lookup()
		if lo == nil || lo.Filter == nil {
			continue
		}
		changed := false
		lo.Filter.Items(func(i *fielddef.FilterItem) bool {
			if i.FieldID == field && !i.Value.IsRef() && hasChoice(i.Value.Literal, old) {
				i.Value.Literal = renameChoice(i.Value.Literal, old, new)
				changed = true
			}
			return true
		})
		if !changed {
			continue
		}
		if err := v.storage.SaveField(ctx, dep); err != nil {
			return res, err
		}
		res.Fields = append(res.Fields, d)
	}

	if logger.IsVerbose() {
		logger.Verbose(fmt.Sprintf("%v: choice «%s» renamed to «%s», %d records and %d filters rewritten", f, old, new, len(res.Records), len(res.Fields)))
	}
	return res, nil
}

func hasChoice(v any, choice string) bool {
	for _, i := range fielddef.AsList(fielddef.Normalize(v)) {
		if s, ok := i.(string); ok && s == choice {
			return true
		}
	}
	return false
}

func renameChoice(v any, old, new string) any {
	switch x := fielddef.Normalize(v).(type) {
	case string:
		if x == old {
			return new
		}
		return x
	case []any:
		res := make([]any, len(x))
		for i, c := range x {
			if s, ok := c.(string); ok && s == old {
				c = new
			}
			res[i] = c
		}
		return res
	}
	return v
}

func (v *validator) RepairMissingSort(ctx context.Context, id fielddef.FieldID) (bool, error) {
	f, err := v.storage.FieldMeta(ctx, id)
	if err != nil {
		return false, err
	}
	lo := f.Lookup()
	if lo == nil || lo.Sort == nil {
		return false, nil
	}
	sf, err := v.storage.FieldMeta(ctx, lo.Sort.FieldID)
	switch {
	case err == nil && sf.Table == lo.ForeignTable:
		return false, nil
	case err != nil && !errors.Is(err, fielddef.ErrNotFoundError):
		return false, err
	}
	logger.Info(fmt.Sprintf("%v: sort field «%v» not found, sort removed", f, lo.Sort.FieldID))
	lo.Sort = nil
	return true, v.storage.SaveField(ctx, f)
}
