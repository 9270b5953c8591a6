/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package compat

import (
	"errors"
	"fmt"

	"github.com/voedger/fieldflow/pkg/fielddef"
)

func ok(id fielddef.FieldID) Result {
	return Result{Field: id, OK: true, Kind: ResultKind_OK}
}

func failed(id fielddef.FieldID, kind ResultKind, reason string, args ...any) Result {
	return Result{Field: id, Kind: kind, Reason: fmt.Sprintf(reason, args...)}
}

// Returns result for error returned by filter, aggregate or formula packages
func fromError(id fielddef.FieldID, err error) Result {
	kind := ResultKind_Invalid
	switch {
	case errors.Is(err, fielddef.ErrReferenceMissingError):
		kind = ResultKind_ReferenceMissing
	case errors.Is(err, fielddef.ErrTypeIncompatibleError):
		kind = ResultKind_TypeIncompatible
	}
	return Result{Field: id, Kind: kind, Reason: err.Error()}
}

// Returns error for not OK result, nil otherwise
func (r Result) Err() error {
	switch r.Kind {
	case ResultKind_OK:
		return nil
	case ResultKind_ReferenceMissing:
		return fielddef.ErrReferenceMissing("%v: %s", r.Field, r.Reason)
	case ResultKind_TypeIncompatible, ResultKind_UpstreamErrored:
		return fielddef.ErrTypeIncompatible("%v: %s", r.Field, r.Reason)
	}
	return fielddef.ErrInvalid("%v: %s", r.Field, r.Reason)
}

func (r Result) String() string {
	if r.OK {
		return fmt.Sprintf("«%v»: ok", r.Field)
	}
	return fmt.Sprintf("«%v»: %v, %s", r.Field, r.Kind, r.Reason)
}
