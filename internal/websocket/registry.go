package websocket

import (
	"sync"

	"github.com/google/uuid"
)

// Registry tracks the single live session per identity. Registering an
// identity that already has a session atomically swaps the handle and returns
// the displaced one, so the caller can close it; the connection that
// registered last always wins.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Client
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[uuid.UUID]*Client)}
}

// Register installs client as the identity's session and returns the
// previous session, if any.
func (r *Registry) Register(client *Client) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	previous := r.sessions[client.UserID]
	r.sessions[client.UserID] = client
	if previous == client {
		return nil
	}
	return previous
}

// Unregister removes the identity's session only if it is still this exact
// handle. A session displaced by a newer connection unregisters as a no-op,
// so teardown of the old connection never evicts the new one.
func (r *Registry) Unregister(client *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[client.UserID] != client {
		return false
	}
	delete(r.sessions, client.UserID)
	return true
}

// Lookup returns the identity's live session, or nil.
func (r *Registry) Lookup(userID uuid.UUID) *Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[userID]
}

// Sessions returns a snapshot of every live session handle.
func (r *Registry) Sessions() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sessions := make([]*Client, 0, len(r.sessions))
	for _, client := range r.sessions {
		sessions = append(sessions, client)
	}
	return sessions
}

// OnlineIdentities returns every identity with a live session.
func (r *Registry) OnlineIdentities() []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
