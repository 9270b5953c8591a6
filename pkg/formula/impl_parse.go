/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package formula

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/voedger/fieldflow/pkg/fielddef"
)

var formulaLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "FieldRef", Pattern: `\{[^{}]+\}`},
	{Name: "Number", Pattern: `\d*\.\d+|\d+`},
	{Name: "String", Pattern: `("(\\"|[^"])*")|('(\\'|[^'])*')`},
	{Name: "Operators", Pattern: `<>|!=|<=|>=|[-+*/&=<>(),]`},
	{Name: "Ident", Pattern: `[a-zA-Z_]\w*`},
	{Name: "Whitespace", Pattern: `[ \r\n\t]+`},
})

var formulaParser = participle.MustBuild[exprAST](
	participle.Lexer(formulaLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
	participle.CaseInsensitive("Ident"),
)

func parseImpl(text string) (*exprAST, error) {
	ast, err := formulaParser.ParseString("", text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %w", fielddef.ErrInvalidError, ErrSyntax, err)
	}
	if err := checkCalls(ast); err != nil {
		return nil, err
	}
	return ast, nil
}

// Resolves function names and checks arguments count
func checkCalls(ast *exprAST) (err error) {
	ast.visit(func(p *primaryAST) bool {
		if p.Call == nil {
			return true
		}
		name := strings.ToUpper(p.Call.Name)
		f, ok := functions[name]
		if !ok {
			err = errUnknownFunction(p.Call.Name, p.Call.Pos)
			return false
		}
		if n := len(p.Call.Args); n < f.min || (f.max >= 0 && n > f.max) {
			err = errArgumentCount(name, n, f, p.Call.Pos)
			return false
		}
		p.Call.Name = name
		return true
	})
	return err
}

// Calls visit for each primary in expression tree, depth first, left to right.
// Stops if visit returns false.
func (e *exprAST) visit(visit func(*primaryAST) bool) bool {
	if !e.Left.visit(visit) {
		return false
	}
	for _, r := range e.Right {
		if !r.Operand.visit(visit) {
			return false
		}
	}
	return true
}

func (e *concatAST) visit(visit func(*primaryAST) bool) bool {
	if !e.Left.visit(visit) {
		return false
	}
	for _, r := range e.Right {
		if !r.Operand.visit(visit) {
			return false
		}
	}
	return true
}

func (e *sumAST) visit(visit func(*primaryAST) bool) bool {
	if !e.Left.visit(visit) {
		return false
	}
	for _, r := range e.Right {
		if !r.Operand.visit(visit) {
			return false
		}
	}
	return true
}

func (e *productAST) visit(visit func(*primaryAST) bool) bool {
	if !e.Left.visit(visit) {
		return false
	}
	for _, r := range e.Right {
		if !r.Operand.visit(visit) {
			return false
		}
	}
	return true
}

func (e *unaryAST) visit(visit func(*primaryAST) bool) bool {
	return e.Operand.visit(visit)
}

func (p *primaryAST) visit(visit func(*primaryAST) bool) bool {
	if !visit(p) {
		return false
	}
	switch {
	case p.Call != nil:
		for _, a := range p.Call.Args {
			if !a.visit(visit) {
				return false
			}
		}
	case p.Sub != nil:
		return p.Sub.visit(visit)
	}
	return true
}
