package events

import (
	"time"

	"github.com/google/uuid"
)

// Outbox event types. These follow the format: domain.action
const (
	EventTypeMessageCreated = "message.created"
)

// Wire event name clients see on their personal channel. Distinct from the
// outbox event type, which never leaves the server.
const EventMessageNotification = "message_notification"

// Aggregate type constants
const (
	AggregateTypeMessage      = "message"
	AggregateTypeConversation = "conversation"
)

// Redis channel prefixes. User channels carry room-independent delivery
// (message notifications, presence); conversation channels are reserved for
// cross-instance room fanout.
const (
	ChannelPrefixUser         = "channel:user:"
	ChannelPrefixConversation = "channel:conversation:"
	ChannelPatternUser        = "channel:user:*"
)

func UserChannel(userID uuid.UUID) string {
	return ChannelPrefixUser + userID.String()
}

// MessageCreated is the outbox payload recorded with every append. It carries
// everything Notification Dispatch needs so dispatch never re-reads the
// message row.
type MessageCreated struct {
	MessageID      uuid.UUID   `json:"message_id"`
	ConversationID uuid.UUID   `json:"conversation_id"`
	SenderID       uuid.UUID   `json:"sender_id"`
	Preview        string      `json:"preview"`
	DeepLink       string      `json:"deep_link"`
	Recipients     []uuid.UUID `json:"recipients"`
	SentAt         time.Time   `json:"sent_at"`
}

// MessageNotification is what lands on a recipient's personal channel when a
// message arrives in a conversation they do not have open.
type MessageNotification struct {
	Event          string    `json:"event"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	Preview        string    `json:"preview"`
	UnreadCount    int64     `json:"unread_count"`
	DeepLink       string    `json:"deep_link"`
}
