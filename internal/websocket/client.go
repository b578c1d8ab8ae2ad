package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client represents one live WebSocket session
type Client struct {
	ID     string          // Unique session ID
	UserID uuid.UUID       // Authenticated identity
	Conn   *websocket.Conn // WebSocket connection
	Send   chan []byte     // Outbound message channel
	rooms  map[uuid.UUID]bool
	closed bool
	mu     sync.RWMutex // Protects rooms, closed, and conn writes
}

func NewClient(conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		rooms:  make(map[uuid.UUID]bool),
	}
}

// joinRoom records a room membership (hub internal use only)
func (c *Client) joinRoom(conversationID uuid.UUID) {
	c.mu.Lock()
	c.rooms[conversationID] = true
	c.mu.Unlock()
}

// leaveRoom drops a room membership (hub internal use only)
func (c *Client) leaveRoom(conversationID uuid.UUID) {
	c.mu.Lock()
	delete(c.rooms, conversationID)
	c.mu.Unlock()
}

// InRoom reports whether this session currently has the conversation open.
func (c *Client) InRoom(conversationID uuid.UUID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rooms[conversationID]
}

// Rooms returns a copy of the session's open conversations.
func (c *Client) Rooms() []uuid.UUID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rooms := make([]uuid.UUID, 0, len(c.rooms))
	for id := range c.rooms {
		rooms = append(rooms, id)
	}
	return rooms
}

// WriteLoop handles outbound messages from the Send channel
func (c *Client) WriteLoop(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.close()
			return
		case msg, ok := <-c.Send:
			if !ok {
				c.close()
				return
			}
			c.mu.Lock()
			_ = c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			_ = c.Conn.WriteMessage(websocket.TextMessage, msg)
			c.mu.Unlock()
		case <-ticker.C:
			c.mu.Lock()
			_ = c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			_ = c.Conn.WriteMessage(websocket.PingMessage, []byte("ping"))
			c.mu.Unlock()
		}
	}
}

// close closes the WebSocket connection
func (c *Client) close() {
	c.mu.Lock()
	_ = c.Conn.Close()
	c.mu.Unlock()
}

// closeSend shuts the Send channel exactly once. It takes the same lock
// SendMessage holds, so a delivery racing with teardown either lands before
// the close or sees the closed flag and drops the frame.
func (c *Client) closeSend() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
	c.mu.Unlock()
}

// SendMessage queues a message for delivery (non-blocking). A slow consumer
// whose buffer is full loses the frame rather than stalling the sender, and
// a torn-down session drops it outright.
func (c *Client) SendMessage(msg []byte) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- msg:
	default:
		// Channel full, message dropped
	}
}
