/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package formula

import (
	"errors"
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/voedger/fieldflow/pkg/fielddef"
)

var ErrSyntax = errors.New("formula syntax error")

var ErrUnknownFunction = errors.New("unknown function")

var ErrArgumentCount = errors.New("wrong number of arguments")

func errUnknownFunction(name string, pos lexer.Position) error {
	return fmt.Errorf("%w: %w «%s» at %d:%d", fielddef.ErrInvalidError, ErrUnknownFunction, name, pos.Line, pos.Column)
}

func errArgumentCount(name string, got int, f *function, pos lexer.Position) error {
	want := fmt.Sprint(f.min)
	switch {
	case f.max < 0:
		want = fmt.Sprintf("at least %d", f.min)
	case f.max != f.min:
		want = fmt.Sprintf("%d..%d", f.min, f.max)
	}
	return fmt.Errorf("%w: %w: %s expects %s, got %d at %d:%d", fielddef.ErrInvalidError, ErrArgumentCount, name, want, got, pos.Line, pos.Column)
}

func errNotNumber(v any) error {
	return fielddef.ErrTypeIncompatible("«%v» is not a number", v)
}
