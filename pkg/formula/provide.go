/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package formula

import (
	"fmt"
	"strings"

	"github.com/voedger/fieldflow/pkg/fielddef"
)

// Parses formula text.
//
// Field references are written as `{fldXXX}`. Function names are case insensitive.
//
// # Errors:
//   - ErrSyntax if text can not be parsed,
//   - ErrUnknownFunction if unknown function is called,
//   - ErrArgumentCount if function is called with wrong number of arguments.
//
// All errors are also ErrInvalidError from fielddef.
func Parse(text string) (*Expr, error) {
	ast, err := parseImpl(text)
	if err != nil {
		return nil, err
	}
	return &Expr{text: text, ast: ast}, nil
}

// Parses formula text and panics if error
func MustParse(text string) *Expr {
	e, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return e
}

// Rewrites field references in formula text using ids map.
// Returns canonical text of rewritten formula.
func RemapText(text string, m fielddef.IDMap) (string, error) {
	e, err := Parse(text)
	if err != nil {
		return "", err
	}
	return e.RewriteRefs(m.Fields).String(), nil
}

// Parses single function call of field references, e.g. `sum({values})`.
//
// Function name is not resolved and returned as is, lower cased.
// Returns ErrInvalid if text is not a single call or arguments are not field references.
func ParseCall(text string) (name string, args []fielddef.FieldID, err error) {
	ast, err := formulaParser.ParseString("", text)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w: %w", fielddef.ErrInvalidError, ErrSyntax, err)
	}
	p := ast.single()
	if p == nil || p.Call == nil {
		return "", nil, fielddef.ErrInvalid("«%s» is not a function call", text)
	}
	for _, a := range p.Call.Args {
		arg := a.single()
		if arg == nil || arg.Field == nil {
			return "", nil, fielddef.ErrInvalid("«%s»: argument «%v» is not a field reference", text, a)
		}
		args = append(args, arg.Field.ID)
	}
	return strings.ToLower(p.Call.Name), args, nil
}
