/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package fielddef

import (
	"errors"
	"fmt"
)

func EnrichError(err error, msg string, args ...any) error {
	s := msg
	if len(args) > 0 {
		s = fmt.Sprintf(msg, args...)
	}
	return fmt.Errorf("%w: %s", err, s)
}

// Structural errors. Returned synchronously, no state is changed.

var ErrCycleDetectedError = errors.New("cycle detected")

func ErrCycleDetected(msg string, args ...any) error {
	return EnrichError(ErrCycleDetectedError, msg, args...)
}

var ErrDuplicateLinkError = errors.New("duplicate link")

func ErrDuplicateLink(msg string, args ...any) error {
	return EnrichError(ErrDuplicateLinkError, msg, args...)
}

var ErrLimitExceededError = errors.New("limit exceeded")

func ErrLimitExceeded(msg string, args ...any) error {
	return EnrichError(ErrLimitExceededError, msg, args...)
}

// Data-level errors. Recorded on the field as HasError.

var ErrTypeIncompatibleError = errors.New("type incompatible")

func ErrTypeIncompatible(msg string, args ...any) error {
	return EnrichError(ErrTypeIncompatibleError, msg, args...)
}

var ErrReferenceMissingError = errors.New("reference missing")

func ErrReferenceMissing(msg string, args ...any) error {
	return EnrichError(ErrReferenceMissingError, msg, args...)
}

// Generic errors

var ErrNotFoundError = errors.New("not found")

func ErrNotFound(msg string, args ...any) error {
	return EnrichError(ErrNotFoundError, msg, args...)
}

func ErrFieldNotFound(id FieldID) error {
	return ErrNotFound("field «%v»", id)
}

func ErrTableNotFound(id TableID) error {
	return ErrNotFound("table «%v»", id)
}

func ErrRecordNotFound(table TableID, id RecordID) error {
	return ErrNotFound("record «%v» in table «%v»", id, table)
}

var ErrInvalidError = errors.New("not valid")

func ErrInvalid(msg string, args ...any) error {
	return EnrichError(ErrInvalidError, msg, args...)
}

var ErrAlreadyExistsError = errors.New("already exists")

func ErrAlreadyExists(msg string, args ...any) error {
	return EnrichError(ErrAlreadyExistsError, msg, args...)
}

var ErrConvertError = errors.New("convert error")

func ErrConvert(msg string, args ...any) error {
	return EnrichError(ErrConvertError, msg, args...)
}
