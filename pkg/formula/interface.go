/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package formula

import (
	"github.com/voedger/fieldflow/pkg/fielddef"
)

// Returns value of referenced field in the evaluated row.
// Returns false if field does not exist.
type Bindings func(fielddef.FieldID) (any, bool)

// Returns cell type of referenced field
type TypeFunc func(fielddef.FieldID) fielddef.CellType

// Parsed formula.
//
// Ref. Parse to obtain
type Expr struct {
	text string
	ast  *exprAST
}

// Source text formula was parsed from
func (e *Expr) Text() string { return e.text }

// Canonical formula text
func (e *Expr) String() string { return e.ast.String() }

// Returns referenced field ids in order of appearance, without duplicates
func (e *Expr) Refs() []fielddef.FieldID {
	var (
		res  []fielddef.FieldID
		seen = make(map[fielddef.FieldID]bool)
	)
	e.ast.visit(func(p *primaryAST) bool {
		if p.Field != nil && !seen[p.Field.ID] {
			seen[p.Field.ID] = true
			res = append(res, p.Field.ID)
		}
		return true
	})
	return res
}

// Returns copy of formula with field references replaced using ids map.
// Ids absent in map are kept as is.
func (e *Expr) RewriteRefs(m map[fielddef.FieldID]fielddef.FieldID) *Expr {
	text := e.String()
	c := MustParse(text)
	c.ast.visit(func(p *primaryAST) bool {
		if p.Field != nil {
			if id, ok := m[p.Field.ID]; ok {
				p.Field.ID = id
			}
		}
		return true
	})
	c.text = c.String()
	return c
}

// Returns function name if whole formula is a single function call, e.g. `sum({values})`
func (e *Expr) Func() (name string, ok bool) {
	if p := e.ast.single(); p != nil && p.Call != nil {
		return p.Call.Name, true
	}
	return "", false
}

// Evaluates formula against row bindings
//
// # Errors:
//   - ErrReferenceMissing if referenced field does not exist,
//   - ErrTypeIncompatible if value can not be used as operand.
func (e *Expr) Eval(b Bindings) (any, error) {
	v, err := e.ast.eval(b)
	if err != nil {
		return nil, err
	}
	return fielddef.Normalize(v), nil
}

// Infers cell type of formula result
func (e *Expr) ResultType(types TypeFunc) fielddef.CellType {
	return e.ast.cellType(types)
}
