package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Publisher pushes payloads onto pub/sub channels. The dispatch worker uses
// it to land notifications on personal user channels, where whichever
// instance holds the recipient's session picks them up.
type Publisher struct {
	rdb *redis.Client
}

func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

// Publish delivers one payload to the channel. Pub/sub is at-most-once per
// subscriber; durability lives in the outbox, not here.
func (p *Publisher) Publish(ctx context.Context, channel string, payload []byte) error {
	return p.rdb.Publish(ctx, channel, payload).Err()
}
