/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package bbolt

import "errors"

var (
	ErrDataBucketNotFound = errors.New("data bucket not found")
)
