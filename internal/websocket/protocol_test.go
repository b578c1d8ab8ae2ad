package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"nearbuy-chat/internal/domain"
	nearbuy_errors "nearbuy-chat/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClientEvent(t *testing.T) {
	conversationID := uuid.New()

	ev, err := ParseClientEvent([]byte(`{"event":"join_chat","conversation_id":"` + conversationID.String() + `"}`))
	require.NoError(t, err)
	assert.Equal(t, EventJoinChat, ev.Event)
	parsed, err := ev.Conversation()
	require.NoError(t, err)
	assert.Equal(t, conversationID, parsed)

	ev, err = ParseClientEvent([]byte(`{"event":"send_message","conversation_id":"` + conversationID.String() + `","content":"hi"}`))
	require.NoError(t, err)
	assert.Equal(t, "hi", ev.Content)
}

func TestParseClientEventRejectsMalformedFrames(t *testing.T) {
	cases := map[string]string{
		"not json":              `{{{`,
		"unknown event":         `{"event":"launch_missiles"}`,
		"missing conversation":  `{"event":"join_chat"}`,
		"bad conversation id":   `{"event":"join_chat","conversation_id":"nope"}`,
		"empty send":            `{"event":"send_message","conversation_id":"` + uuid.New().String() + `"}`,
		"auth without token":    `{"event":"auth"}`,
		"empty event name":      `{"content":"hi"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseClientEvent([]byte(raw))
			assert.ErrorIs(t, err, nearbuy_errors.ErrValidation)
		})
	}
}

func TestParsedMessageIDs(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	ev := ClientEvent{MessageIDs: []string{a.String(), b.String()}}
	ids, err := ev.ParsedMessageIDs()
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a, b}, ids)

	ev = ClientEvent{MessageIDs: []string{"garbage"}}
	_, err = ev.ParsedMessageIDs()
	assert.ErrorIs(t, err, nearbuy_errors.ErrValidation)
}

func TestNewMessageFrame(t *testing.T) {
	replyTo := uuid.New()
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	msg := domain.Message{
		ID:             uuid.New(),
		ConversationID: uuid.New(),
		SenderID:       uuid.New(),
		Seq:            42,
		Kind:           domain.MessageKindText,
		Content:        "hello",
		ReplyToMsgID:   uuid.NullUUID{UUID: replyTo, Valid: true},
		CreatedAt:      now,
		Attachments: []domain.Attachment{{
			FileName:  "photo.jpg",
			MimeType:  "image/jpeg",
			SizeBytes: 1024,
			URL:       "https://cdn.example.com/photo.jpg",
		}},
	}

	var decoded struct {
		Event   string         `json:"event"`
		Message MessagePayload `json:"message"`
	}
	require.NoError(t, json.Unmarshal(NewMessageFrame(msg), &decoded))
	assert.Equal(t, EventNewMessage, decoded.Event)
	assert.Equal(t, msg.ID, decoded.Message.ID)
	assert.Equal(t, int64(42), decoded.Message.Seq)
	require.NotNil(t, decoded.Message.ReplyTo)
	assert.Equal(t, replyTo, *decoded.Message.ReplyTo)
	require.Len(t, decoded.Message.Attachments, 1)
	assert.Equal(t, "photo.jpg", decoded.Message.Attachments[0].FileName)
}

func TestPresenceFrameCarriesIdentityAndTimestamp(t *testing.T) {
	userID := uuid.New()
	at := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(PresenceFrame(EventUserOnline, userID, at), &decoded))
	assert.Equal(t, EventUserOnline, decoded["event"])
	assert.Equal(t, userID.String(), decoded["user_id"])
	assert.Equal(t, "2026-03-14T12:00:00Z", decoded["timestamp"])

	// Presence is connection-scoped, never tied to a conversation.
	_, hasConversation := decoded["conversation_id"]
	assert.False(t, hasConversation)
}

func TestErrorFrameCarriesTaxonomyCode(t *testing.T) {
	var decoded struct {
		Event string `json:"event"`
		Code  string `json:"code"`
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(ErrorFrame(nearbuy_errors.ErrForbidden), &decoded))
	assert.Equal(t, EventError, decoded.Event)
	assert.Equal(t, "ACCESS_DENIED", decoded.Code)
	assert.Equal(t, "forbidden", decoded.Error)
}
