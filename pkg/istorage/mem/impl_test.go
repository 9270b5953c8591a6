/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package mem

import (
	"testing"

	"github.com/voedger/fieldflow/pkg/istorage"
)

func TestTCK(t *testing.T) {
	istorage.TechnologyCompatibilityKit(t, Provide())
}
