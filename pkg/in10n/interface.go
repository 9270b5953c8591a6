/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package in10n

import (
	"context"
	"time"
)

// Change-notification broker.
//
// Engine publishes FieldErrorChanged and RecordComputedValuesChanged events,
// external writers publish Upstream* events which engine consumes.
type IN10nBroker interface {
	IPublisher

	// Errors: ErrQuotaExceeded_Channels*
	// @ConcurrentAccess
	NewChannel(subject SubjectLogin, channelDuration time.Duration) (channelID ChannelID, channelCleanup func(), err error)

	// ChannelID must be taken from NewChannel()
	// Errors: ErrChannelDoesNotExist, ErrQuotaExceeded_Subscriptions*
	// @ConcurrentAccess
	Subscribe(channelID ChannelID, topic Topic) (err error)

	// Panics if a Channel with ChannelID does not exist
	// Terminates if channelDuration expired or ctx is Done
	// Events are delivered in publishing order, no event published after Subscribe() is lost
	// Only one client must call WatchChannel, concurrent use is not allowed
	WatchChannel(ctx context.Context, channelID ChannelID, notifySubscriber func(event Event))

	// ChannelID must be taken from NewChannel()
	// Errors: ErrChannelDoesNotExist
	// @ConcurrentAccess
	Unsubscribe(channelID ChannelID, topic Topic) (err error)

	// @ConcurrentAccess
	MetricNumChannels() int
	// @ConcurrentAccess
	MetricNumSubscriptions() int
	// @ConcurrentAccess
	MetricNumTopicSubscriptions(topic Topic) int
}

type IPublisher interface {
	// Delivers event to all channels subscribed to the event topic.
	// Returns offset assigned to the event. Does not block on slow watchers
	// @ConcurrentAccess
	Publish(event Event) Offset
}
