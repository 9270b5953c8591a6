/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package in10n

import "errors"

var (
	ErrChannelDoesNotExist                   = errors.New("channel does not exist")
	ErrChannelExpired                        = errors.New("channel time expired")
	ErrQuotaExceeded_Channels                = errors.New("channels quota exceeded")
	ErrQuotaExceeded_ChannelsPerSubject      = errors.New("channels per subject quota exceeded")
	ErrQuotaExceeded_Subscriptions           = errors.New("subscriptions quota exceeded")
	ErrQuotaExceeded_SubscriptionsPerSubject = errors.New("subscriptions per subject quota exceeded")
)
