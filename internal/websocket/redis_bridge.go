package websocket

import (
	"context"
	"errors"
	"strings"
	"time"

	"nearbuy-chat/internal/events"
	"nearbuy-chat/internal/redis"
	"nearbuy-chat/pkg/logger"

	"github.com/google/uuid"
)

// Bridge forwards notification payloads published on personal Redis channels
// to the matching live session on this instance. Instances without a session
// for the identity simply drop the payload.
type Bridge struct {
	subscriber *redis.Subscriber
	hub        *Hub
	log        *logger.Logger
}

func NewBridge(subscriber *redis.Subscriber, hub *Hub, log *logger.Logger) *Bridge {
	return &Bridge{subscriber: subscriber, hub: hub, log: log}
}

// Run blocks, resubscribing on transient failures, until the context is
// cancelled.
func (b *Bridge) Run(ctx context.Context) {
	for {
		err := b.subscriber.Subscribe(ctx, []string{events.ChannelPatternUser}, b.forward)
		if err == nil || errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return
		}
		b.log.Warnf("notification subscription dropped, reconnecting: %v", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

func (b *Bridge) forward(channel string, payload []byte) {
	raw := strings.TrimPrefix(channel, events.ChannelPrefixUser)
	userID, err := uuid.Parse(raw)
	if err != nil {
		b.log.Warnf("ignoring payload on malformed channel %q", channel)
		return
	}
	b.hub.BroadcastToUser(userID, payload)
}
