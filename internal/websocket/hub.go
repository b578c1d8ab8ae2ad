package websocket

import (
	"sync"

	"github.com/google/uuid"
)

// Hub manages session registration and conversation room membership. Rooms
// exist only while at least one session has them open; broadcast to a room
// reaches exactly its current members.
type Hub struct {
	mu       sync.RWMutex
	registry *Registry
	rooms    map[uuid.UUID]map[*Client]struct{}
}

func NewHub(registry *Registry) *Hub {
	return &Hub{
		registry: registry,
		rooms:    make(map[uuid.UUID]map[*Client]struct{}),
	}
}

// Register installs the client as its identity's session, returning any
// displaced session for the caller to close.
func (h *Hub) Register(client *Client) *Client {
	return h.registry.Register(client)
}

// Unregister tears the client down: room memberships first, then the
// registry entry (a no-op when a newer session already replaced it). It
// returns whether the client was still the identity's current session.
func (h *Hub) Unregister(client *Client) bool {
	h.mu.Lock()
	for _, conversationID := range client.Rooms() {
		h.removeFromRoom(client, conversationID)
	}
	h.mu.Unlock()

	current := h.registry.Unregister(client)
	client.closeSend()
	return current
}

// Join adds the client to a conversation room. The caller has already
// verified membership.
func (h *Hub) Join(client *Client, conversationID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[conversationID]; !ok {
		h.rooms[conversationID] = make(map[*Client]struct{})
	}
	h.rooms[conversationID][client] = struct{}{}
	client.joinRoom(conversationID)
}

// Leave drops the client from a conversation room.
func (h *Hub) Leave(client *Client, conversationID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromRoom(client, conversationID)
}

func (h *Hub) removeFromRoom(client *Client, conversationID uuid.UUID) {
	if members, ok := h.rooms[conversationID]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, conversationID)
		}
	}
	client.leaveRoom(conversationID)
}

// InRoom reports whether the identity has the conversation open right now.
func (h *Hub) InRoom(conversationID, userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[conversationID] {
		if client.UserID == userID {
			return true
		}
	}
	return false
}

// RoomMembers returns the identities currently in the room.
func (h *Hub) RoomMembers(conversationID uuid.UUID) []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	members := make([]uuid.UUID, 0, len(h.rooms[conversationID]))
	for client := range h.rooms[conversationID] {
		members = append(members, client.UserID)
	}
	return members
}

// Broadcast sends a payload to every session in the room. A nil except skips
// nobody.
func (h *Hub) Broadcast(conversationID uuid.UUID, payload []byte, except *Client) {
	h.mu.RLock()
	for client := range h.rooms[conversationID] {
		if client == except {
			continue
		}
		client.SendMessage(payload)
	}
	h.mu.RUnlock()
}

// BroadcastAll sends a payload to every live session on this instance,
// regardless of room membership. Used for presence announcements.
func (h *Hub) BroadcastAll(payload []byte, except *Client) {
	for _, client := range h.registry.Sessions() {
		if client == except {
			continue
		}
		client.SendMessage(payload)
	}
}

// BroadcastToUser sends a payload to the identity's session, if one is live
// on this instance.
func (h *Hub) BroadcastToUser(userID uuid.UUID, payload []byte) {
	if client := h.registry.Lookup(userID); client != nil {
		client.SendMessage(payload)
	}
}

// SessionCount returns the number of live sessions on this instance.
func (h *Hub) SessionCount() int {
	return h.registry.Count()
}
