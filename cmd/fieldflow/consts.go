/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package main

// Default size of the read-through storage cache
const defaultStorageCacheBytes = 32 * 1024 * 1024

// Name of the storage used by scenarios
const storageName = "fieldflow"

// Scenario step operations
const (
	op_Update       = "update"
	op_Delete       = "delete"
	op_Create       = "create"
	op_Link         = "link"
	op_CreateField  = "createField"
	op_ConvertField = "convertField"
	op_DeleteField  = "deleteField"
	op_RestoreField = "restoreField"
	op_RenameChoice = "renameChoice"
)
