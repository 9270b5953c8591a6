/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package formula

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/voedger/fieldflow/pkg/fielddef"
)

// Comparison is the lowest precedence level
type exprAST struct {
	Pos   lexer.Position
	Left  *concatAST   `parser:"@@"`
	Right []*compareOp `parser:"@@*"`
}

type compareOp struct {
	Op      string     `parser:"@('=' | '!=' | '<>' | '<=' | '>=' | '<' | '>')"`
	Operand *concatAST `parser:"@@"`
}

type concatAST struct {
	Left  *sumAST     `parser:"@@"`
	Right []*concatOp `parser:"@@*"`
}

type concatOp struct {
	Operand *sumAST `parser:"'&' @@"`
}

type sumAST struct {
	Left  *productAST `parser:"@@"`
	Right []*sumOp    `parser:"@@*"`
}

type sumOp struct {
	Op      string      `parser:"@('+' | '-')"`
	Operand *productAST `parser:"@@"`
}

type productAST struct {
	Left  *unaryAST   `parser:"@@"`
	Right []*productOp `parser:"@@*"`
}

type productOp struct {
	Op      string    `parser:"@('*' | '/')"`
	Operand *unaryAST `parser:"@@"`
}

type unaryAST struct {
	Neg     bool        `parser:"@'-'?"`
	Operand *primaryAST `parser:"@@"`
}

type primaryAST struct {
	Pos    lexer.Position
	Number *float64  `parser:"  @Number"`
	Str    *string   `parser:"| @String"`
	Bool   *boolLit  `parser:"| @('TRUE' | 'FALSE')"`
	Field  *fieldRef `parser:"| @FieldRef"`
	Call   *callAST  `parser:"| @@"`
	Sub    *exprAST  `parser:"| '(' @@ ')'"`
}

type callAST struct {
	Pos  lexer.Position
	Name string     `parser:"@Ident '('"`
	Args []*exprAST `parser:"( @@ ( ',' @@ )* )? ')'"`
}

type boolLit bool

func (b *boolLit) Capture(values []string) error {
	*b = boolLit(strings.EqualFold(values[0], "TRUE"))
	return nil
}

// Field reference written as {fldXXX}
type fieldRef struct {
	ID fielddef.FieldID
}

func (f *fieldRef) Capture(values []string) error {
	f.ID = fielddef.FieldID(strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(values[0], "{"), "}")))
	return nil
}
