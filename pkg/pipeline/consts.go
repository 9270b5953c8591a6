/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package pipeline

// Error places
const (
	placeCatchOnErr = "catch-onErr"
	placeDoSync     = "doSync"
)
