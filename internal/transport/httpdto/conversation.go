package httpdto

import (
	"time"

	"github.com/google/uuid"
)

type OpenConversationRequest struct {
	PeerID    string `json:"peer_id" binding:"required"`
	ServiceID string `json:"service_id" binding:"required"`
	BookingID string `json:"booking_id"`
}

type ConversationResponse struct {
	ID             uuid.UUID  `json:"id"`
	ParticipantLow uuid.UUID  `json:"participant_low"`
	ParticipantHi  uuid.UUID  `json:"participant_hi"`
	ServiceID      uuid.UUID  `json:"service_id"`
	BookingID      *uuid.UUID `json:"booking_id,omitempty"`
	LastMessageID  *uuid.UUID `json:"last_message_id,omitempty"`
	LastActivityAt time.Time  `json:"last_activity_at"`
	Active         bool       `json:"active"`
	CreatedAt      time.Time  `json:"created_at"`
}

type ConversationSummaryResponse struct {
	ConversationResponse
	UnreadCount int64 `json:"unread_count"`
}
