/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package bbolt

type ParamsType struct {
	// Directory where database files are placed, one file per storage
	DBDir string
}
