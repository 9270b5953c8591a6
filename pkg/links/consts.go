/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package links

// Names of key columns recorded in link options
const (
	keyID       = "__id"
	keyFKPrefix = "__fk_"
)
