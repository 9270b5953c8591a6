/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package in10n

import "time"

// Quotas for single process engine
var DefaultQuotas = Quotas{
	Channels:                100,
	ChannelsPerSubject:      10,
	Subscriptions:           1000,
	SubscriptionsPerSubject: 100,
}

// Default duration for engine own channels
const DefaultChannelDuration = 100 * 365 * 24 * time.Hour
