package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"nearbuy-chat/internal/config"
	"nearbuy-chat/internal/domain"
	"nearbuy-chat/internal/repository"
	"nearbuy-chat/internal/services"
	nearbuy_errors "nearbuy-chat/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConvRepo struct {
	repository.ConversationRepository
	conv domain.Conversation
}

func (r *stubConvRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Conversation, error) {
	if id != r.conv.ID {
		return domain.Conversation{}, nearbuy_errors.ErrNotFound
	}
	return r.conv, nil
}

func (r *stubConvRepo) SetLastMessage(ctx context.Context, conversationID, messageID uuid.UUID, at time.Time) error {
	return nil
}

func (r *stubConvRepo) IncrementUnread(ctx context.Context, conversationID, userID uuid.UUID) error {
	return nil
}

func (r *stubConvRepo) ResetUnread(ctx context.Context, conversationID, userID uuid.UUID) error {
	return nil
}

type stubMsgRepo struct {
	repository.MessageRepository
	seq int64
}

func (r *stubMsgRepo) Create(ctx context.Context, m *domain.Message) error {
	r.seq++
	m.Seq = r.seq
	return nil
}

func (r *stubMsgRepo) BulkMarkRead(ctx context.Context, messageIDs []uuid.UUID, userID uuid.UUID, at time.Time) error {
	return nil
}

type stubOutboxRepo struct {
	repository.OutboxRepository
	created int
}

func (r *stubOutboxRepo) Create(ctx context.Context, e *domain.OutboxEvent) error {
	r.created++
	return nil
}

type gatewayFixture struct {
	hub     *Hub
	gateway *Gateway
	conv    domain.Conversation
	member  *Client
	peer    *Client
}

func newGatewayFixture(t *testing.T) *gatewayFixture {
	t.Helper()
	a, b := uuid.New(), uuid.New()
	low, high := domain.NormalizePair(a, b)
	conv := domain.Conversation{
		ID:             uuid.New(),
		ParticipantLow: low,
		ParticipantHi:  high,
		ServiceID:      uuid.New(),
		Active:         true,
		CreatedAt:      time.Now(),
	}

	chat := services.NewChatService(nil, &stubConvRepo{conv: conv}, &stubMsgRepo{}, &stubOutboxRepo{}, config.ChatConfig{})

	hub := NewHub(NewRegistry())
	chat.SetPresence(hub)
	gateway := NewGateway(hub, chat)

	member := NewClient(nil, low)
	peer := NewClient(nil, high)
	hub.Register(member)
	hub.Register(peer)

	return &gatewayFixture{hub: hub, gateway: gateway, conv: conv, member: member, peer: peer}
}

func decodeFrame(t *testing.T, raw []byte) map[string]interface{} {
	t.Helper()
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	return decoded
}

func joinFrame(conversationID uuid.UUID) []byte {
	return []byte(`{"event":"join_chat","conversation_id":"` + conversationID.String() + `"}`)
}

func TestGatewayJoinAdmitsMember(t *testing.T) {
	f := newGatewayFixture(t)

	f.gateway.HandleFrame(context.Background(), f.member, joinFrame(f.conv.ID))

	frames := drain(f.member)
	require.Len(t, frames, 1)
	assert.Equal(t, EventJoinedChat, decodeFrame(t, frames[0])["event"])
	assert.True(t, f.hub.InRoom(f.conv.ID, f.member.UserID))
}

func TestGatewayJoinRejectsNonMember(t *testing.T) {
	f := newGatewayFixture(t)
	outsider := NewClient(nil, uuid.New())
	f.hub.Register(outsider)

	f.gateway.HandleFrame(context.Background(), outsider, joinFrame(f.conv.ID))

	frames := drain(outsider)
	require.Len(t, frames, 1)
	decoded := decodeFrame(t, frames[0])
	assert.Equal(t, EventError, decoded["event"])
	assert.Equal(t, "ACCESS_DENIED", decoded["code"])
	assert.False(t, f.hub.InRoom(f.conv.ID, outsider.UserID))
}

func TestGatewaySendBroadcastsAfterAppend(t *testing.T) {
	f := newGatewayFixture(t)
	f.gateway.HandleFrame(context.Background(), f.member, joinFrame(f.conv.ID))
	f.gateway.HandleFrame(context.Background(), f.peer, joinFrame(f.conv.ID))
	drain(f.member)
	drain(f.peer)

	f.gateway.HandleFrame(context.Background(), f.member,
		[]byte(`{"event":"send_message","conversation_id":"`+f.conv.ID.String()+`","content":"hello"}`))

	// Both room members see the message, sender included.
	for _, c := range []*Client{f.member, f.peer} {
		frames := drain(c)
		require.Len(t, frames, 1)
		decoded := decodeFrame(t, frames[0])
		assert.Equal(t, EventNewMessage, decoded["event"])
		msg := decoded["message"].(map[string]interface{})
		assert.Equal(t, "hello", msg["content"])
		assert.Equal(t, float64(1), msg["seq"])
	}
}

func TestGatewaySendValidationFailureStaysPrivate(t *testing.T) {
	f := newGatewayFixture(t)
	f.gateway.HandleFrame(context.Background(), f.member, joinFrame(f.conv.ID))
	f.gateway.HandleFrame(context.Background(), f.peer, joinFrame(f.conv.ID))
	drain(f.member)
	drain(f.peer)

	f.gateway.HandleFrame(context.Background(), f.member,
		[]byte(`{"event":"send_message","conversation_id":"`+f.conv.ID.String()+`","content":"   "}`))

	frames := drain(f.member)
	require.Len(t, frames, 1)
	assert.Equal(t, "VALIDATION_ERROR", decodeFrame(t, frames[0])["code"])
	assert.Empty(t, drain(f.peer))
}

func TestGatewayTypingRequiresRoom(t *testing.T) {
	f := newGatewayFixture(t)
	typing := []byte(`{"event":"typing","conversation_id":"` + f.conv.ID.String() + `"}`)

	// Not in the room yet: dropped without a reply.
	f.gateway.HandleFrame(context.Background(), f.member, typing)
	assert.Empty(t, drain(f.member))

	f.gateway.HandleFrame(context.Background(), f.member, joinFrame(f.conv.ID))
	f.gateway.HandleFrame(context.Background(), f.peer, joinFrame(f.conv.ID))
	drain(f.member)
	drain(f.peer)

	f.gateway.HandleFrame(context.Background(), f.member, typing)
	assert.Empty(t, drain(f.member))
	frames := drain(f.peer)
	require.Len(t, frames, 1)
	assert.Equal(t, EventUserTyping, decodeFrame(t, frames[0])["event"])
}

func TestGatewayMarkReadNotifiesRoom(t *testing.T) {
	f := newGatewayFixture(t)
	f.gateway.HandleFrame(context.Background(), f.member, joinFrame(f.conv.ID))
	f.gateway.HandleFrame(context.Background(), f.peer, joinFrame(f.conv.ID))
	drain(f.member)
	drain(f.peer)

	messageID := uuid.New()
	f.gateway.HandleFrame(context.Background(), f.peer,
		[]byte(`{"event":"mark_read","conversation_id":"`+f.conv.ID.String()+`","message_ids":["`+messageID.String()+`"]}`))

	assert.Empty(t, drain(f.peer))
	frames := drain(f.member)
	require.Len(t, frames, 1)
	decoded := decodeFrame(t, frames[0])
	assert.Equal(t, EventMessagesRead, decoded["event"])
	assert.Equal(t, f.peer.UserID.String(), decoded["user_id"])
}
