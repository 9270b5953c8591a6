/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package in10nmem

import (
	"github.com/voedger/fieldflow/pkg/in10n"
)

func Provide(quotas in10n.Quotas) in10n.IN10nBroker {
	return &N10nBroker{
		topics:          make(map[in10n.Topic]map[in10n.ChannelID]*channelType),
		channels:        make(map[in10n.ChannelID]*channelType),
		metricBySubject: make(map[in10n.SubjectLogin]*metricType),
		quotas:          quotas,
	}
}
