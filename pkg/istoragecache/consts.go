/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package istoragecache

// size of the pKey length prefix in the cache key
const pKeyLenSize = 2
