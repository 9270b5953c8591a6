/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package recompute

import (
	"context"
)

// Recompute scheduler brings computed cells up to date after change event.
//
// Event is processed in stages: receive, expand to affected fields and records,
// order fields topologically, evaluate, persist per table, propagate notifications.
// Events are processed one at a time.
type IScheduler interface {
	// Processes event. Data-level failures do not return error: failed fields are
	// flagged HasError and result state is PartiallyErrored.
	//
	// Returns error if event is not valid or storage fails.
	// @ConcurrentAccess
	Process(ctx context.Context, event Event) (Result, error)

	Close()
}
