/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package filter

import (
	"fmt"
	"strings"

	"github.com/voedger/fieldflow/pkg/fielddef"
)

type trueMatcher struct{}

func (trueMatcher) Match(_, _ *fielddef.Record) bool { return true }

func (trueMatcher) String() string { return "TRUE" }

// andMatcher realizes filter conjunction. Empty conjunction matches all records
type andMatcher struct {
	children []IMatcher
}

func (m andMatcher) Match(candidate, host *fielddef.Record) bool {
	for _, c := range m.children {
		if !c.Match(candidate, host) {
			return false
		}
	}
	return true
}

func (m andMatcher) String() string { return join(m.children, " AND ") }

// orMatcher realizes filter disjunction. Empty disjunction matches all records
type orMatcher struct {
	children []IMatcher
}

func (m orMatcher) Match(candidate, host *fielddef.Record) bool {
	if len(m.children) == 0 {
		return true
	}
	for _, c := range m.children {
		if c.Match(candidate, host) {
			return true
		}
	}
	return false
}

func (m orMatcher) String() string { return join(m.children, " OR ") }

func join(mm []IMatcher, sep string) string {
	ss := make([]string, 0, len(mm))
	for _, m := range mm {
		s := m.String()
		switch m.(type) {
		case andMatcher, orMatcher:
			s = fmt.Sprintf("(%s)", s)
		}
		ss = append(ss, s)
	}
	return strings.Join(ss, sep)
}

func compileSet(set *fielddef.FilterSet, fields FieldFunc) (IMatcher, error) {
	children := make([]IMatcher, 0, len(set.Entries))
	for _, e := range set.Entries {
		var (
			m   IMatcher
			err error
		)
		switch {
		case e.Set != nil:
			m, err = compileSet(e.Set, fields)
		case e.Item != nil:
			m, err = compileItem(e.Item, fields)
		default:
			continue
		}
		if err != nil {
			return nil, err
		}
		children = append(children, m)
	}
	switch set.Conjunction {
	case fielddef.Conjunction_And, "":
		return andMatcher{children}, nil
	case fielddef.Conjunction_Or:
		return orMatcher{children}, nil
	}
	return nil, fielddef.ErrInvalid("filter conjunction «%s»", set.Conjunction)
}
