/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package aggregate

// Default maximum number of candidate records for lookups and rollups
const DefaultMaxArraySize = 5000

const joinSeparator = ", "
