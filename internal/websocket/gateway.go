package websocket

import (
	"context"

	"nearbuy-chat/internal/domain"
	"nearbuy-chat/internal/services"
	nearbuy_errors "nearbuy-chat/pkg/errors"

	"github.com/google/uuid"
)

// Gateway translates inbound frames from an authenticated session into chat
// service calls and room broadcasts. Every durable effect goes through the
// service first; a frame is only fanned out after the store accepted it.
type Gateway struct {
	hub  *Hub
	chat *services.ChatService
}

func NewGateway(hub *Hub, chat *services.ChatService) *Gateway {
	return &Gateway{hub: hub, chat: chat}
}

// HandleFrame processes one inbound frame. Failures are reported back on the
// same session as error frames; the connection stays open.
func (g *Gateway) HandleFrame(ctx context.Context, client *Client, raw []byte) {
	ev, err := ParseClientEvent(raw)
	if err != nil {
		client.SendMessage(ErrorFrame(err))
		return
	}

	switch ev.Event {
	case EventJoinChat:
		g.handleJoin(ctx, client, ev)
	case EventLeaveChat:
		g.handleLeave(client, ev)
	case EventSendMessage:
		g.handleSend(ctx, client, ev)
	case EventTyping:
		g.relayTyping(client, ev, EventUserTyping)
	case EventStopTyping:
		g.relayTyping(client, ev, EventUserStopTyping)
	case EventMarkRead:
		g.handleMarkRead(ctx, client, ev)
	default:
		// Auth frames after the handshake fall through here.
		client.SendMessage(ErrorFrame(nearbuy_errors.ErrValidation))
	}
}

func (g *Gateway) handleJoin(ctx context.Context, client *Client, ev ClientEvent) {
	conversationID, _ := ev.Conversation()

	ok, err := g.chat.IsParticipant(ctx, conversationID, client.UserID)
	if err != nil {
		client.SendMessage(ErrorFrame(err))
		return
	}
	if !ok {
		client.SendMessage(ErrorFrame(nearbuy_errors.ErrForbidden))
		return
	}

	g.hub.Join(client, conversationID)
	client.SendMessage(RoomAckFrame(EventJoinedChat, conversationID))

	// Opening a chat reads it: clear the counter and tell the room.
	if err := g.chat.MarkRead(ctx, conversationID, client.UserID, nil); err == nil {
		g.hub.Broadcast(conversationID, MessagesReadFrame(conversationID, client.UserID, nil), client)
	}
}

func (g *Gateway) handleLeave(client *Client, ev ClientEvent) {
	conversationID, _ := ev.Conversation()
	g.hub.Leave(client, conversationID)
	client.SendMessage(RoomAckFrame(EventLeftChat, conversationID))
}

func (g *Gateway) handleSend(ctx context.Context, client *Client, ev ClientEvent) {
	conversationID, _ := ev.Conversation()

	// Join-before-send: membership was checked at join time.
	if !client.InRoom(conversationID) {
		client.SendMessage(ErrorFrame(nearbuy_errors.ErrForbidden))
		return
	}

	input := services.AppendInput{
		ConversationID: conversationID,
		SenderID:       client.UserID,
		Content:        ev.Content,
		Kind:           domain.MessageKind(ev.Kind),
	}
	if ev.ReplyTo != "" {
		replyTo, err := uuid.Parse(ev.ReplyTo)
		if err != nil {
			client.SendMessage(ErrorFrame(nearbuy_errors.ErrValidation))
			return
		}
		input.ReplyTo = uuid.NullUUID{UUID: replyTo, Valid: true}
	}
	for _, a := range ev.Attachments {
		input.Attachments = append(input.Attachments, services.AttachmentInput{
			FileName:  a.FileName,
			MimeType:  a.MimeType,
			SizeBytes: a.SizeBytes,
			URL:       a.URL,
		})
	}

	msg, err := g.chat.Append(ctx, input)
	if err != nil {
		client.SendMessage(ErrorFrame(err))
		return
	}

	// Durably appended; fan out to the room, sender included, so every
	// member sees the store-assigned ordering.
	g.hub.Broadcast(msg.ConversationID, NewMessageFrame(msg), nil)
}

func (g *Gateway) relayTyping(client *Client, ev ClientEvent, outEvent string) {
	conversationID, _ := ev.Conversation()
	// Typing outside an open room is dropped, not an error.
	if !client.InRoom(conversationID) {
		return
	}
	g.hub.Broadcast(conversationID, TypingFrame(outEvent, conversationID, client.UserID), client)
}

func (g *Gateway) handleMarkRead(ctx context.Context, client *Client, ev ClientEvent) {
	conversationID, _ := ev.Conversation()
	messageIDs, err := ev.ParsedMessageIDs()
	if err != nil {
		client.SendMessage(ErrorFrame(err))
		return
	}

	if err := g.chat.MarkRead(ctx, conversationID, client.UserID, messageIDs); err != nil {
		client.SendMessage(ErrorFrame(err))
		return
	}

	g.hub.Broadcast(conversationID, MessagesReadFrame(conversationID, client.UserID, messageIDs), client)
}
