/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package formula

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/voedger/fieldflow/pkg/fielddef"
)

func (e *exprAST) String() string {
	s := new(strings.Builder)
	s.WriteString(e.Left.String())
	for _, r := range e.Right {
		fmt.Fprintf(s, " %s %s", r.Op, r.Operand)
	}
	return s.String()
}

func (e *concatAST) String() string {
	s := new(strings.Builder)
	s.WriteString(e.Left.String())
	for _, r := range e.Right {
		fmt.Fprintf(s, " & %s", r.Operand)
	}
	return s.String()
}

func (e *sumAST) String() string {
	s := new(strings.Builder)
	s.WriteString(e.Left.String())
	for _, r := range e.Right {
		fmt.Fprintf(s, " %s %s", r.Op, r.Operand)
	}
	return s.String()
}

func (e *productAST) String() string {
	s := new(strings.Builder)
	s.WriteString(e.Left.String())
	for _, r := range e.Right {
		fmt.Fprintf(s, " %s %s", r.Op, r.Operand)
	}
	return s.String()
}

func (e *unaryAST) String() string {
	if e.Neg {
		return "-" + e.Operand.String()
	}
	return e.Operand.String()
}

func (p *primaryAST) String() string {
	switch {
	case p.Number != nil:
		return strconv.FormatFloat(*p.Number, 'f', -1, 64)
	case p.Str != nil:
		return strconv.Quote(*p.Str)
	case p.Bool != nil:
		if *p.Bool {
			return "TRUE"
		}
		return "FALSE"
	case p.Field != nil:
		return "{" + string(p.Field.ID) + "}"
	case p.Call != nil:
		args := make([]string, 0, len(p.Call.Args))
		for _, a := range p.Call.Args {
			args = append(args, a.String())
		}
		return fmt.Sprintf("%s(%s)", p.Call.Name, strings.Join(args, ", "))
	case p.Sub != nil:
		return "(" + p.Sub.String() + ")"
	}
	return ""
}

func (e *exprAST) cellType(types TypeFunc) fielddef.CellType {
	if len(e.Right) > 0 {
		return fielddef.CellType_Checkbox
	}
	if len(e.Left.Right) > 0 {
		return fielddef.CellType_Text
	}
	s := e.Left.Left
	if len(s.Right) > 0 || len(s.Left.Right) > 0 || s.Left.Left.Neg {
		return fielddef.CellType_Number
	}
	return s.Left.Left.Operand.cellType(types)
}

func (p *primaryAST) cellType(types TypeFunc) fielddef.CellType {
	switch {
	case p.Number != nil:
		return fielddef.CellType_Number
	case p.Str != nil:
		return fielddef.CellType_Text
	case p.Bool != nil:
		return fielddef.CellType_Checkbox
	case p.Field != nil:
		if t := types(p.Field.ID); t != fielddef.CellType_null {
			return t
		}
	case p.Call != nil:
		if t := functions[p.Call.Name].result; t != fielddef.CellType_null {
			return t
		}
		return p.Call.Args[1].cellType(types)
	case p.Sub != nil:
		return p.Sub.cellType(types)
	}
	return fielddef.CellType_Text
}
