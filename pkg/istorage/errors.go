/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package istorage

import "errors"

var (
	ErrStorageAlreadyExists = errors.New("storage already exists")
	ErrStorageDoesNotExist  = errors.New("storage does not exist")
	ErrInvalidSafeName      = errors.New("invalid safe storage name")
)
