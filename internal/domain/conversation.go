package domain

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is a durable chat context between exactly two participants
// scoped to one service listing. The participant pair is stored normalized
// (lexically smaller uuid first) so uniqueness is order-independent.
type Conversation struct {
	ID             uuid.UUID     `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	ParticipantLow uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_conversations_pair_service,where:active" json:"participant_low"`
	ParticipantHi  uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_conversations_pair_service,where:active" json:"participant_high"`
	ServiceID      uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_conversations_pair_service,where:active" json:"service_id"`
	BookingID      uuid.NullUUID `gorm:"type:uuid" json:"booking_id,omitempty"`
	LastMessageID  uuid.NullUUID `gorm:"type:uuid" json:"last_message_id,omitempty"`
	LastActivityAt time.Time     `gorm:"not null;index:idx_conversations_activity,sort:desc" json:"last_activity_at"`
	Active         bool          `gorm:"not null;default:true" json:"active"`
	CreatedAt      time.Time     `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// NormalizePair orders two participant ids so (a, b) and (b, a) address the
// same conversation row.
func NormalizePair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() > b.String() {
		return b, a
	}
	return a, b
}

// HasParticipant reports whether the given identity is a member.
func (c Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.ParticipantLow == userID || c.ParticipantHi == userID
}

// OtherParticipant returns the member that is not userID. The zero uuid is
// returned when userID is not a member.
func (c Conversation) OtherParticipant(userID uuid.UUID) uuid.UUID {
	switch userID {
	case c.ParticipantLow:
		return c.ParticipantHi
	case c.ParticipantHi:
		return c.ParticipantLow
	}
	return uuid.Nil
}

// ConversationUnread is the per-participant unread counter row. The count is
// only ever mutated through atomic single-statement updates.
type ConversationUnread struct {
	ConversationID uuid.UUID `gorm:"type:uuid;primaryKey" json:"conversation_id"`
	UserID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Count          int64     `gorm:"not null;default:0" json:"count"`
}

// ConversationSummary is a conversation annotated with one participant's
// unread count, as returned by the listing query.
type ConversationSummary struct {
	Conversation
	UnreadCount int64 `json:"unread_count"`
}
