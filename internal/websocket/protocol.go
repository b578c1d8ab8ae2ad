package websocket

import (
	"encoding/json"
	"time"

	"nearbuy-chat/internal/domain"
	nearbuy_errors "nearbuy-chat/pkg/errors"

	"github.com/google/uuid"
)

// Client-to-server event names
const (
	EventAuth        = "auth"
	EventJoinChat    = "join_chat"
	EventLeaveChat   = "leave_chat"
	EventSendMessage = "send_message"
	EventTyping      = "typing"
	EventStopTyping  = "stop_typing"
	EventMarkRead    = "mark_read"
)

// Server-to-client event names
const (
	EventJoinedChat     = "joined_chat"
	EventLeftChat       = "left_chat"
	EventNewMessage     = "new_message"
	EventUserTyping     = "user_typing"
	EventUserStopTyping = "user_stop_typing"
	EventMessagesRead   = "messages_read"
	EventUserOnline     = "user_online"
	EventUserOffline    = "user_offline"
	EventError          = "error"
)

// AttachmentPayload describes one already-uploaded object referenced by a
// send_message frame.
type AttachmentPayload struct {
	FileName  string `json:"file_name"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
	URL       string `json:"url"`
}

// ClientEvent is the envelope for every inbound frame. Fields beyond Event
// are populated per event type.
type ClientEvent struct {
	Event          string              `json:"event"`
	Token          string              `json:"token,omitempty"`
	ConversationID string              `json:"conversation_id,omitempty"`
	Content        string              `json:"content,omitempty"`
	Kind           string              `json:"kind,omitempty"`
	ReplyTo        string              `json:"reply_to,omitempty"`
	MessageIDs     []string            `json:"message_ids,omitempty"`
	Attachments    []AttachmentPayload `json:"attachments,omitempty"`
}

// ParseClientEvent decodes and shape-checks an inbound frame. Unknown event
// names and malformed envelopes are validation errors; the connection stays
// open and the client gets an error frame.
func ParseClientEvent(raw []byte) (ClientEvent, error) {
	var ev ClientEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return ClientEvent{}, nearbuy_errors.ErrValidation
	}
	switch ev.Event {
	case EventAuth:
		if ev.Token == "" {
			return ClientEvent{}, nearbuy_errors.ErrValidation
		}
	case EventJoinChat, EventLeaveChat, EventTyping, EventStopTyping, EventMarkRead:
		if _, err := ev.Conversation(); err != nil {
			return ClientEvent{}, err
		}
	case EventSendMessage:
		if _, err := ev.Conversation(); err != nil {
			return ClientEvent{}, err
		}
		if ev.Content == "" && len(ev.Attachments) == 0 {
			return ClientEvent{}, nearbuy_errors.ErrValidation
		}
	default:
		return ClientEvent{}, nearbuy_errors.ErrValidation
	}
	return ev, nil
}

// Conversation parses the frame's conversation id.
func (ev ClientEvent) Conversation() (uuid.UUID, error) {
	id, err := uuid.Parse(ev.ConversationID)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, nearbuy_errors.ErrValidation
	}
	return id, nil
}

// ParsedMessageIDs parses the mark_read id list.
func (ev ClientEvent) ParsedMessageIDs() ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(ev.MessageIDs))
	for _, raw := range ev.MessageIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, nearbuy_errors.ErrValidation
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// MessagePayload is the wire shape of one message in new_message frames and
// REST responses alike.
type MessagePayload struct {
	ID             uuid.UUID           `json:"id"`
	ConversationID uuid.UUID           `json:"conversation_id"`
	SenderID       uuid.UUID           `json:"sender_id"`
	Seq            int64               `json:"seq"`
	Kind           string              `json:"kind"`
	Content        string              `json:"content"`
	ReplyTo        *uuid.UUID          `json:"reply_to,omitempty"`
	Deleted        bool                `json:"deleted"`
	EditedAt       *time.Time          `json:"edited_at,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	Attachments    []AttachmentPayload `json:"attachments,omitempty"`
}

func NewMessagePayload(m domain.Message) MessagePayload {
	p := MessagePayload{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Seq:            m.Seq,
		Kind:           string(m.Kind),
		Content:        m.Content,
		Deleted:        m.Deleted,
		EditedAt:       m.EditedAt,
		CreatedAt:      m.CreatedAt,
	}
	if m.ReplyToMsgID.Valid {
		id := m.ReplyToMsgID.UUID
		p.ReplyTo = &id
	}
	for _, a := range m.Attachments {
		p.Attachments = append(p.Attachments, AttachmentPayload{
			FileName:  a.FileName,
			MimeType:  a.MimeType,
			SizeBytes: a.SizeBytes,
			URL:       a.URL,
		})
	}
	return p
}

type serverEvent struct {
	Event          string          `json:"event"`
	ConversationID *uuid.UUID      `json:"conversation_id,omitempty"`
	UserID         *uuid.UUID      `json:"user_id,omitempty"`
	Timestamp      *time.Time      `json:"timestamp,omitempty"`
	Message        *MessagePayload `json:"message,omitempty"`
	MessageIDs     []uuid.UUID     `json:"message_ids,omitempty"`
	Code           string          `json:"code,omitempty"`
	Error          string          `json:"error,omitempty"`
}

func marshalEvent(ev serverEvent) []byte {
	payload, _ := json.Marshal(ev)
	return payload
}

func RoomAckFrame(event string, conversationID uuid.UUID) []byte {
	return marshalEvent(serverEvent{Event: event, ConversationID: &conversationID})
}

func NewMessageFrame(m domain.Message) []byte {
	payload := NewMessagePayload(m)
	return marshalEvent(serverEvent{Event: EventNewMessage, ConversationID: &m.ConversationID, Message: &payload})
}

func TypingFrame(event string, conversationID, userID uuid.UUID) []byte {
	return marshalEvent(serverEvent{Event: event, ConversationID: &conversationID, UserID: &userID})
}

func MessagesReadFrame(conversationID, readerID uuid.UUID, messageIDs []uuid.UUID) []byte {
	return marshalEvent(serverEvent{Event: EventMessagesRead, ConversationID: &conversationID, UserID: &readerID, MessageIDs: messageIDs})
}

// PresenceFrame announces an identity coming online or going offline. It is
// connection-scoped, not room-scoped, and goes to every other live session.
func PresenceFrame(event string, userID uuid.UUID, at time.Time) []byte {
	return marshalEvent(serverEvent{Event: event, UserID: &userID, Timestamp: &at})
}

// ErrorFrame carries the taxonomy code so clients can react without parsing
// human-readable text.
func ErrorFrame(err error) []byte {
	return marshalEvent(serverEvent{Event: EventError, Code: nearbuy_errors.Code(err), Error: nearbuy_errors.Message(err)})
}
