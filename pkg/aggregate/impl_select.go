/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package aggregate

import (
	"cmp"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/voedger/fieldflow/pkg/fielddef"
	"github.com/voedger/fieldflow/pkg/filter"
)

// Compiled candidates selection: filter, sort and limit.
//
// Ref. NewSelector
type Selector struct {
	matcher  filter.IMatcher
	sort     *fielddef.SortSpec
	sortType fielddef.CellType
	limit    int
}

func newSelector(opts *fielddef.LookupOptions, fields filter.FieldFunc, maxArraySize int) (*Selector, error) {
	if maxArraySize <= 0 {
		maxArraySize = DefaultMaxArraySize
	}
	if err := CheckLimit(opts.Limit, maxArraySize); err != nil {
		return nil, err
	}
	m, err := filter.Compile(opts.Filter, fields)
	if err != nil {
		return nil, err
	}
	s := &Selector{matcher: m, limit: opts.Limit}
	if s.limit == 0 {
		s.limit = maxArraySize
	}
	if opts.Sort != nil {
		if fld := fields(opts.Sort.FieldID); fld != nil {
			sort := *opts.Sort
			s.sort, s.sortType = &sort, fld.CellType
		}
	}
	return s, nil
}

// Returns limit applied by selector
func (s *Selector) Limit() int { return s.limit }

// Selects records matched filter, sorted and truncated to limit.
//
// Records order is kept if sort is not specified, sort is stable.
func (s *Selector) Select(records []*fielddef.Record, host *fielddef.Record) []*fielddef.Record {
	res := make([]*fielddef.Record, 0, min(len(records), s.limit))
	for _, r := range records {
		if s.matcher.Match(r, host) {
			res = append(res, r)
		}
	}
	if s.sort != nil {
		s.sortRecords(res)
	}
	if len(res) > s.limit {
		res = res[:s.limit]
	}
	return res
}

// Blank values are placed last regardless of sort order
func (s *Selector) sortRecords(records []*fielddef.Record) {
	var col *collate.Collator
	if s.sortType.IsText() || s.sortType.IsSelect() || s.sortType == fielddef.CellType_User || s.sortType == fielddef.CellType_Link {
		col = collate.New(language.Und, collate.IgnoreCase)
	}
	slices.SortStableFunc(records, func(a, b *fielddef.Record) int {
		va, vb := a.Get(s.sort.FieldID), b.Get(s.sort.FieldID)
		ea, eb := fielddef.IsEmpty(va), fielddef.IsEmpty(vb)
		switch {
		case ea && eb:
			return 0
		case ea:
			return 1
		case eb:
			return -1
		}
		c := s.compare(col, va, vb)
		if s.sort.Desc() {
			return -c
		}
		return c
	})
}

func (s *Selector) compare(col *collate.Collator, a, b any) int {
	switch s.sortType {
	case fielddef.CellType_Number:
		x, _ := fielddef.ToNumber(a)
		y, _ := fielddef.ToNumber(b)
		return cmp.Compare(x, y)
	case fielddef.CellType_Date:
		x, _ := fielddef.ToTime(a)
		y, _ := fielddef.ToTime(b)
		return x.Compare(y)
	case fielddef.CellType_Checkbox:
		x, y := fielddef.ToBool(a), fielddef.ToBool(b)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	}
	if col != nil {
		return col.CompareString(fielddef.ToText(a), fielddef.ToText(b))
	}
	return cmp.Compare(fielddef.ToText(a), fielddef.ToText(b))
}
