/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package in10nmem

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/voedger/fieldflow/pkg/in10n"
)

type N10nBroker struct {
	sync.RWMutex
	topics           map[in10n.Topic]map[in10n.ChannelID]*channelType
	channels         map[in10n.ChannelID]*channelType
	quotas           in10n.Quotas
	metricBySubject  map[in10n.SubjectLogin]*metricType
	numSubscriptions int
	offset           atomic.Uint64
}

type channelType struct {
	subject         in10n.SubjectLogin
	subscriptions   map[in10n.Topic]struct{}
	channelDuration time.Duration
	createTime      time.Time

	// signals that queue is not empty
	cchan chan struct{}

	mu    sync.Mutex
	queue []in10n.Event
}

type metricType struct {
	numChannels      int
	numSubscriptions int
}
