package websocket

import (
	"context"
	"net/http"
	"time"

	"nearbuy-chat/internal/redis"
	"nearbuy-chat/internal/services"
	"nearbuy-chat/internal/transport/httpdto"
	nearbuy_errors "nearbuy-chat/pkg/errors"
	"nearbuy-chat/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	handshakeTimeout = 10 * time.Second
	readTimeout      = 60 * time.Second
)

// Handler owns the WebSocket connection lifecycle: authenticate, register
// (displacing any previous session for the identity), pump frames through
// the gateway, tear down.
type Handler struct {
	auth     *services.AuthService
	hub      *Hub
	gateway  *Gateway
	presence *redis.PresenceStore
	log      *logger.Logger
}

func NewHandler(auth *services.AuthService, hub *Hub, gateway *Gateway, presence *redis.PresenceStore, log *logger.Logger) *Handler {
	return &Handler{auth: auth, hub: hub, gateway: gateway, presence: presence, log: log}
}

func (h *Handler) Connect(c *gin.Context) {
	token := c.Query("token")

	var userID uuid.UUID
	if token != "" {
		id, err := h.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
			return
		}
		userID = id
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	// No query token: the first frame must authenticate within the
	// handshake window or the connection is dropped.
	if userID == uuid.Nil {
		id, err := h.awaitAuthFrame(conn)
		if err != nil {
			_ = conn.SetWriteDeadline(time.Now().Add(time.Second))
			_ = conn.WriteMessage(websocket.TextMessage, ErrorFrame(err))
			_ = conn.Close()
			return
		}
		userID = id
	}

	client := NewClient(conn, userID)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Last connection wins: any prior session for this identity is closed
	// and its teardown becomes a no-op in the registry.
	if previous := h.hub.Register(client); previous != nil {
		previous.close()
	}
	go client.WriteLoop(ctx)

	if h.presence != nil {
		if err := h.presence.SetOnline(ctx, userID.String()); err != nil {
			h.log.Warnf("presence set online failed for user %s: %v", userID, err)
		}
	}
	h.hub.BroadcastAll(PresenceFrame(EventUserOnline, userID, time.Now()), client)
	h.log.Infof("session opened user=%s session=%s", userID, client.ID)

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		if h.presence != nil {
			_ = h.presence.Refresh(ctx, userID.String())
		}
		h.gateway.HandleFrame(ctx, client, raw)
	}

	// A displaced session stays quiet: the identity is still online through
	// the connection that replaced it.
	if h.hub.Unregister(client) {
		h.hub.BroadcastAll(PresenceFrame(EventUserOffline, userID, time.Now()), nil)
		if h.presence != nil {
			if err := h.presence.SetOffline(context.Background(), userID.String()); err != nil {
				h.log.Warnf("presence set offline failed for user %s: %v", userID, err)
			}
		}
	}
	h.log.Infof("session closed user=%s session=%s", userID, client.ID)
}

func (h *Handler) awaitAuthFrame(conn *websocket.Conn) (uuid.UUID, error) {
	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return uuid.Nil, nearbuy_errors.ErrUnauthorized
	}

	ev, err := ParseClientEvent(raw)
	if err != nil || ev.Event != EventAuth {
		return uuid.Nil, nearbuy_errors.ErrUnauthorized
	}

	ctx, cancel := context.WithTimeout(context.Background(), handshakeTimeout)
	defer cancel()
	return h.auth.Authenticate(ctx, ev.Token)
}
