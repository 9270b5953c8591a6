/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package engine

import "github.com/voedger/fieldflow/pkg/in10n"

// Subject of the engine channel which consumes upstream events
const subjectEngine in10n.SubjectLogin = "fieldflow"

var upstreamKinds = []in10n.EventKind{
	in10n.EventKind_UpstreamFieldChanged,
	in10n.EventKind_UpstreamRecordChanged,
	in10n.EventKind_UpstreamRecordDeleted,
}

// Separator of texts converted into links
const titlesSeparator = ","
