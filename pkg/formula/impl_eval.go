/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package formula

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/voedger/fieldflow/pkg/fielddef"
)

func (e *exprAST) eval(b Bindings) (any, error) {
	v, err := e.Left.eval(b)
	if err != nil || len(e.Right) == 0 {
		return v, err
	}
	for _, r := range e.Right {
		w, err := r.Operand.eval(b)
		if err != nil {
			return nil, err
		}
		v = compare(r.Op, v, w)
	}
	return v, nil
}

func (e *concatAST) eval(b Bindings) (any, error) {
	v, err := e.Left.eval(b)
	if err != nil || len(e.Right) == 0 {
		return v, err
	}
	s := new(strings.Builder)
	s.WriteString(fielddef.ToText(v))
	for _, r := range e.Right {
		w, err := r.Operand.eval(b)
		if err != nil {
			return nil, err
		}
		s.WriteString(fielddef.ToText(w))
	}
	return s.String(), nil
}

func (e *sumAST) eval(b Bindings) (any, error) {
	v, err := e.Left.eval(b)
	if err != nil || len(e.Right) == 0 {
		return v, err
	}
	acc, err := toDecimal(v)
	if err != nil {
		return nil, err
	}
	for _, r := range e.Right {
		w, err := r.Operand.eval(b)
		if err != nil {
			return nil, err
		}
		d, err := toDecimal(w)
		if err != nil {
			return nil, err
		}
		if r.Op == "+" {
			acc = acc.Add(d)
		} else {
			acc = acc.Sub(d)
		}
	}
	return acc.InexactFloat64(), nil
}

func (e *productAST) eval(b Bindings) (any, error) {
	v, err := e.Left.eval(b)
	if err != nil || len(e.Right) == 0 {
		return v, err
	}
	acc, err := toDecimal(v)
	if err != nil {
		return nil, err
	}
	for _, r := range e.Right {
		w, err := r.Operand.eval(b)
		if err != nil {
			return nil, err
		}
		d, err := toDecimal(w)
		if err != nil {
			return nil, err
		}
		if r.Op == "*" {
			acc = acc.Mul(d)
			continue
		}
		if d.IsZero() {
			// division by zero produces blank cell
			return nil, nil
		}
		acc = acc.Div(d)
	}
	return acc.InexactFloat64(), nil
}

func (e *unaryAST) eval(b Bindings) (any, error) {
	v, err := e.Operand.eval(b)
	if err != nil || !e.Neg {
		return v, err
	}
	d, err := toDecimal(v)
	if err != nil {
		return nil, err
	}
	return d.Neg().InexactFloat64(), nil
}

func (p *primaryAST) eval(b Bindings) (any, error) {
	switch {
	case p.Number != nil:
		return *p.Number, nil
	case p.Str != nil:
		return *p.Str, nil
	case p.Bool != nil:
		return bool(*p.Bool), nil
	case p.Field != nil:
		v, ok := b(p.Field.ID)
		if !ok {
			return nil, fielddef.ErrReferenceMissing("formula field «%v»", p.Field.ID)
		}
		return fielddef.Normalize(v), nil
	case p.Call != nil:
		return p.Call.eval(b)
	case p.Sub != nil:
		return p.Sub.eval(b)
	}
	return nil, nil
}

func (c *callAST) eval(b Bindings) (any, error) {
	if c.Name == fn_If {
		cond, err := c.Args[0].eval(b)
		if err != nil {
			return nil, err
		}
		if fielddef.ToBool(cond) {
			return c.Args[1].eval(b)
		}
		if len(c.Args) > 2 {
			return c.Args[2].eval(b)
		}
		return nil, nil
	}
	args := make([]any, 0, len(c.Args))
	for _, a := range c.Args {
		v, err := a.eval(b)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return functions[c.Name].call(args)
}

// Returns primary if expression is a single primary without operators
func (e *exprAST) single() *primaryAST {
	if len(e.Right) > 0 || len(e.Left.Right) > 0 {
		return nil
	}
	s := e.Left.Left
	if len(s.Right) > 0 || len(s.Left.Right) > 0 {
		return nil
	}
	u := s.Left.Left
	if u.Neg {
		return nil
	}
	return u.Operand
}

// Converts operand of arithmetic operation. Blank is zero
func toDecimal(v any) (decimal.Decimal, error) {
	if fielddef.IsEmpty(v) {
		return decimal.Zero, nil
	}
	f, ok := fielddef.ToNumber(v)
	if !ok {
		return decimal.Zero, errNotNumber(v)
	}
	return decimal.NewFromFloat(f), nil
}

func compare(op string, a, b any) bool {
	a, b = fielddef.Normalize(a), fielddef.Normalize(b)
	ea, eb := fielddef.IsEmpty(a), fielddef.IsEmpty(b)
	if ea || eb {
		switch op {
		case op_Eq:
			return ea && eb
		case op_NotEq, op_Ne:
			return ea != eb
		}
	}
	c := order(a, b)
	switch op {
	case op_Eq:
		return c == 0
	case op_NotEq, op_Ne:
		return c != 0
	case op_Lt:
		return c < 0
	case op_Le:
		return c <= 0
	case op_Gt:
		return c > 0
	case op_Ge:
		return c >= 0
	}
	return false
}

// Compares values as dates if any of them is a date, as numbers if both are numeric,
// as booleans if any of them is boolean, otherwise as texts
func order(a, b any) int {
	_, ta := a.(time.Time)
	_, tb := b.(time.Time)
	if ta || tb {
		x, _ := fielddef.ToTime(a)
		y, _ := fielddef.ToTime(b)
		return x.Compare(y)
	}
	x, okX := numberOrZero(a)
	y, okY := numberOrZero(b)
	if okX && okY {
		return x.Cmp(y)
	}
	_, ba := a.(bool)
	_, bb := b.(bool)
	if ba || bb {
		x, y := fielddef.ToBool(a), fielddef.ToBool(b)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	}
	return strings.Compare(fielddef.ToText(a), fielddef.ToText(b))
}

func numberOrZero(v any) (decimal.Decimal, bool) {
	if fielddef.IsEmpty(v) {
		return decimal.Zero, true
	}
	if _, ok := v.(bool); ok {
		return decimal.Zero, false
	}
	f, ok := fielddef.ToNumber(v)
	return decimal.NewFromFloat(f), ok
}
