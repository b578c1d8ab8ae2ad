package websocket

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	return NewHub(NewRegistry())
}

func drain(c *Client) [][]byte {
	var out [][]byte
	for {
		select {
		case msg := <-c.Send:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestHubRoomMembershipAndPresence(t *testing.T) {
	hub := newTestHub()
	conversationID := uuid.New()

	client := NewClient(nil, uuid.New())
	hub.Register(client)

	assert.False(t, hub.InRoom(conversationID, client.UserID))

	hub.Join(client, conversationID)
	assert.True(t, hub.InRoom(conversationID, client.UserID))
	assert.True(t, client.InRoom(conversationID))
	assert.ElementsMatch(t, []uuid.UUID{client.UserID}, hub.RoomMembers(conversationID))

	hub.Leave(client, conversationID)
	assert.False(t, hub.InRoom(conversationID, client.UserID))
	assert.Empty(t, hub.RoomMembers(conversationID))
}

func TestHubBroadcastReachesRoomExceptSender(t *testing.T) {
	hub := newTestHub()
	conversationID := uuid.New()

	sender := NewClient(nil, uuid.New())
	peer := NewClient(nil, uuid.New())
	outsider := NewClient(nil, uuid.New())
	for _, c := range []*Client{sender, peer, outsider} {
		hub.Register(c)
	}
	hub.Join(sender, conversationID)
	hub.Join(peer, conversationID)

	hub.Broadcast(conversationID, []byte("typing"), sender)

	assert.Empty(t, drain(sender))
	require.Len(t, drain(peer), 1)
	assert.Empty(t, drain(outsider))

	// Nil except reaches everyone in the room.
	hub.Broadcast(conversationID, []byte("message"), nil)
	assert.Len(t, drain(sender), 1)
	assert.Len(t, drain(peer), 1)
}

func TestHubBroadcastToUser(t *testing.T) {
	hub := newTestHub()

	client := NewClient(nil, uuid.New())
	hub.Register(client)

	hub.BroadcastToUser(client.UserID, []byte("notification"))
	require.Len(t, drain(client), 1)

	// No session on this instance: payload is dropped.
	hub.BroadcastToUser(uuid.New(), []byte("notification"))
}

func TestHubSendAfterUnregisterIsDropped(t *testing.T) {
	hub := newTestHub()

	client := NewClient(nil, uuid.New())
	hub.Register(client)

	// A delivery path may still hold a handle it looked up before teardown
	// started; the late send must be dropped, not panic.
	handle := hub.registry.Lookup(client.UserID)
	require.NotNil(t, handle)

	require.True(t, hub.Unregister(client))
	handle.SendMessage([]byte("late notification"))
	hub.BroadcastToUser(client.UserID, []byte("late notification"))

	_, open := <-client.Send
	assert.False(t, open)
}

func TestHubBroadcastAllReachesOtherSessions(t *testing.T) {
	hub := newTestHub()

	self := NewClient(nil, uuid.New())
	a := NewClient(nil, uuid.New())
	b := NewClient(nil, uuid.New())
	for _, c := range []*Client{self, a, b} {
		hub.Register(c)
	}

	hub.BroadcastAll([]byte("online"), self)

	assert.Empty(t, drain(self))
	require.Len(t, drain(a), 1)
	require.Len(t, drain(b), 1)
}

func TestHubUnregisterClearsRooms(t *testing.T) {
	hub := newTestHub()
	conversationID := uuid.New()

	client := NewClient(nil, uuid.New())
	hub.Register(client)
	hub.Join(client, conversationID)

	assert.True(t, hub.Unregister(client))
	assert.False(t, hub.InRoom(conversationID, client.UserID))
	assert.Zero(t, hub.SessionCount())

	// Send channel is closed so the write loop exits.
	_, open := <-client.Send
	assert.False(t, open)
}
