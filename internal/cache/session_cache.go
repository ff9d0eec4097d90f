package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AhmedAbdelmoaty/Assessment/internal/models"
)

// SessionCache is a read-through/write-through cache of session-state blobs
// keyed by session id. The durable store stays the source of truth: every
// method is a no-op on a nil client, and dropping the cache entirely does
// not change observable behavior.
type SessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionCache(client *redis.Client, ttl time.Duration) *SessionCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionCache{client: client, ttl: ttl}
}

func (c *SessionCache) key(sessionID string) string {
	return "assessment:session:" + sessionID
}

// Get returns the cached state, or nil on a miss. Cache errors are treated
// as misses.
func (c *SessionCache) Get(ctx context.Context, sessionID string) *models.SessionState {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := c.client.Get(ctx, c.key(sessionID)).Bytes()
	if err != nil {
		return nil
	}
	var state models.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil
	}
	return models.NormalizeSessionState(&state, sessionID)
}

// Put stores the state with the configured TTL. Write errors are ignored;
// the durable write already succeeded.
func (c *SessionCache) Put(ctx context.Context, sessionID string, state *models.SessionState) {
	if c == nil || c.client == nil || state == nil {
		return
	}
	data, err := json.Marshal(state)
	if err != nil {
		return
	}
	c.client.Set(ctx, c.key(sessionID), data, c.ttl)
}

// Invalidate drops the cached entry.
func (c *SessionCache) Invalidate(ctx context.Context, sessionID string) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Del(ctx, c.key(sessionID))
}
