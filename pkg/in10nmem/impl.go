/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package in10nmem

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/untillpro/goutils/logger"

	"github.com/voedger/fieldflow/pkg/in10n"
)

// NewChannel @ConcurrentAccess
// Create new channel.
// On timeout channel will be closed. channelDuration determines time during with it will be open.
func (nb *N10nBroker) NewChannel(subject in10n.SubjectLogin, channelDuration time.Duration) (channelID in10n.ChannelID, cleanup func(), err error) {
	nb.Lock()
	defer nb.Unlock()
	if len(nb.channels) >= nb.quotas.Channels {
		return "", nil, in10n.ErrQuotaExceeded_Channels
	}
	metric := nb.metricBySubject[subject]
	if metric != nil {
		if metric.numChannels >= nb.quotas.ChannelsPerSubject {
			return "", nil, in10n.ErrQuotaExceeded_ChannelsPerSubject
		}
	} else {
		metric = new(metricType)
		nb.metricBySubject[subject] = metric
	}
	metric.numChannels++
	channelID = in10n.ChannelID(uuid.New().String())
	nb.channels[channelID] = &channelType{
		subject:         subject,
		subscriptions:   make(map[in10n.Topic]struct{}),
		channelDuration: channelDuration,
		createTime:      time.Now(),
		cchan:           make(chan struct{}, 1),
	}
	return channelID, func() { nb.removeChannel(channelID) }, nil
}

// Subscribe @ConcurrentAccess
// Subscribe to the channel for the topic. If channel does not exist: will return error ErrChannelDoesNotExist
func (nb *N10nBroker) Subscribe(channelID in10n.ChannelID, topic in10n.Topic) (err error) {
	nb.Lock()
	defer nb.Unlock()
	channel, ok := nb.channels[channelID]
	if !ok {
		return in10n.ErrChannelDoesNotExist
	}
	if _, ok := channel.subscriptions[topic]; ok {
		return nil
	}
	metric := nb.metricBySubject[channel.subject]
	if nb.numSubscriptions >= nb.quotas.Subscriptions {
		return in10n.ErrQuotaExceeded_Subscriptions
	}
	if metric.numSubscriptions >= nb.quotas.SubscriptionsPerSubject {
		return in10n.ErrQuotaExceeded_SubscriptionsPerSubject
	}

	channel.subscriptions[topic] = struct{}{}
	subscribed := nb.topics[topic]
	if subscribed == nil {
		subscribed = make(map[in10n.ChannelID]*channelType)
		nb.topics[topic] = subscribed
	}
	subscribed[channelID] = channel
	metric.numSubscriptions++
	nb.numSubscriptions++
	return nil
}

func (nb *N10nBroker) Unsubscribe(channelID in10n.ChannelID, topic in10n.Topic) (err error) {
	nb.Lock()
	defer nb.Unlock()

	channel, ok := nb.channels[channelID]
	if !ok {
		return in10n.ErrChannelDoesNotExist
	}
	nb.unsubscribe(channelID, channel, topic)
	return nil
}

func (nb *N10nBroker) unsubscribe(channelID in10n.ChannelID, channel *channelType, topic in10n.Topic) {
	if _, ok := channel.subscriptions[topic]; !ok {
		return
	}
	delete(channel.subscriptions, topic)
	if subscribed := nb.topics[topic]; subscribed != nil {
		delete(subscribed, channelID)
		if len(subscribed) == 0 {
			delete(nb.topics, topic)
		}
	}
	nb.metricBySubject[channel.subject].numSubscriptions--
	nb.numSubscriptions--
}

func (nb *N10nBroker) removeChannel(channelID in10n.ChannelID) {
	nb.Lock()
	defer nb.Unlock()

	channel, ok := nb.channels[channelID]
	if !ok {
		return
	}
	for topic := range channel.subscriptions {
		nb.unsubscribe(channelID, channel, topic)
	}
	metric := nb.metricBySubject[channel.subject]
	metric.numChannels--
	if metric.numChannels == 0 {
		delete(nb.metricBySubject, channel.subject)
	}
	delete(nb.channels, channelID)
}

// WatchChannel @ConcurrentAccess
// Delivers queued events of the channel to notifySubscriber until ctx is done or channel is expired.
// Channel is removed on exit
func (nb *N10nBroker) WatchChannel(ctx context.Context, channelID in10n.ChannelID, notifySubscriber func(event in10n.Event)) {
	channel := func() *channelType {
		nb.RLock()
		defer nb.RUnlock()
		channel, ok := nb.channels[channelID]
		if !ok {
			panic(fmt.Errorf("channel with channelID: %s must exists %w", channelID, in10n.ErrChannelDoesNotExist))
		}
		return channel
	}()

	defer nb.removeChannel(channelID)

	var expired <-chan time.Time
	if channel.channelDuration > 0 {
		timer := time.NewTimer(channel.channelDuration - time.Since(channel.createTime))
		defer timer.Stop()
		expired = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-expired:
			logger.Error(fmt.Sprintf("%s: subjectlogin %s", in10n.ErrChannelExpired.Error(), channel.subject))
			return
		case <-channel.cchan:
			for _, event := range channel.takeQueue() {
				if ctx.Err() != nil {
					return
				}
				if logger.IsTrace() {
					logger.Trace("channel", string(channelID), "event", event.Kind.String(), strconv.FormatUint(uint64(event.Offset), 10))
				}
				notifySubscriber(event)
			}
		}
	}
}

// Publish @ConcurrentAccess
// Appends event to queues of subscribed channels
func (nb *N10nBroker) Publish(event in10n.Event) in10n.Offset {
	nb.Lock()
	defer nb.Unlock()

	event.Offset = in10n.Offset(nb.offset.Add(1))

	delivered := 0
	for _, topic := range event.Topics() {
		for _, channel := range nb.topics[topic] {
			channel.push(event)
			delivered++
		}
	}
	if logger.IsVerbose() {
		logger.Verbose("published", event.Kind.String(), string(event.Table), "offset", strconv.FormatUint(uint64(event.Offset), 10), "channels", strconv.Itoa(delivered))
	}
	return event.Offset
}

func (ch *channelType) push(event in10n.Event) {
	ch.mu.Lock()
	ch.queue = append(ch.queue, event)
	ch.mu.Unlock()
	select {
	case ch.cchan <- struct{}{}:
	default:
	}
}

func (ch *channelType) takeQueue() []in10n.Event {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	q := ch.queue
	ch.queue = nil
	return q
}

// MetricNumChannels @ConcurrentAccess
// return channels count
func (nb *N10nBroker) MetricNumChannels() int {
	nb.RLock()
	defer nb.RUnlock()
	return len(nb.channels)
}

func (nb *N10nBroker) MetricNumSubscriptions() int {
	nb.RLock()
	defer nb.RUnlock()
	return nb.numSubscriptions
}

func (nb *N10nBroker) MetricNumTopicSubscriptions(topic in10n.Topic) int {
	nb.RLock()
	defer nb.RUnlock()
	return len(nb.topics[topic])
}
