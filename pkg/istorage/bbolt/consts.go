/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package bbolt

import "os"

const (
	dataBucketName = "dataBucket"
	dbFileExt      = ".db"
)

const (
	fileMode_rw_rw_rw_ os.FileMode = 0666
	fileMode_rwxrwxrwx os.FileMode = 0777
)

// bbolt does not accept empty keys
var nullKey = []byte{0}
