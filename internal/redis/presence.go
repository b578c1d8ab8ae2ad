package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Redis key prefixes for presence and moderation state
const (
	presenceKeyPrefix = "presence:"
	blockedUsersSet   = "blocked:users"
)

// PresenceStore mirrors gateway liveness into Redis with a TTL, so other
// instances (and the dispatch worker) can answer "is this identity online
// anywhere" without talking to every gateway.
type PresenceStore struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewPresenceStore(client *goredis.Client, ttl time.Duration) *PresenceStore {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &PresenceStore{client: client, ttl: ttl}
}

// SetOnline marks a user as online
func (p *PresenceStore) SetOnline(ctx context.Context, userID string) error {
	return p.client.Set(ctx, presenceKeyPrefix+userID, "1", p.ttl).Err()
}

// SetOffline marks a user as offline
func (p *PresenceStore) SetOffline(ctx context.Context, userID string) error {
	return p.client.Del(ctx, presenceKeyPrefix+userID).Err()
}

// Refresh extends the online TTL; called from the connection heartbeat.
func (p *PresenceStore) Refresh(ctx context.Context, userID string) error {
	return p.client.Expire(ctx, presenceKeyPrefix+userID, p.ttl).Err()
}

// IsOnline reports whether any instance currently holds a session for userID.
func (p *PresenceStore) IsOnline(ctx context.Context, userID string) (bool, error) {
	n, err := p.client.Exists(ctx, presenceKeyPrefix+userID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IsBlocked reports whether moderation has blocked the account. The set is
// maintained by the admin surface; the chat core only reads it during the
// connection handshake.
func (p *PresenceStore) IsBlocked(ctx context.Context, userID string) (bool, error) {
	return p.client.SIsMember(ctx, blockedUsersSet, userID).Result()
}
