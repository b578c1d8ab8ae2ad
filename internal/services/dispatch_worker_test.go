package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"nearbuy-chat/internal/domain"
	"nearbuy-chat/internal/events"
	"nearbuy-chat/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	published map[string][][]byte
	fail      bool
}

func (p *capturePublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	if p.fail {
		return errors.New("redis down")
	}
	if p.published == nil {
		p.published = make(map[string][][]byte)
	}
	p.published[channel] = append(p.published[channel], payload)
	return nil
}

func pendingMessageEvent(t *testing.T, recipient uuid.UUID, conversationID uuid.UUID) *domain.OutboxEvent {
	t.Helper()
	payload, err := json.Marshal(events.MessageCreated{
		MessageID:      uuid.New(),
		ConversationID: conversationID,
		SenderID:       uuid.New(),
		Preview:        "hello",
		DeepLink:       "nearbuy://chat/" + conversationID.String(),
		Recipients:     []uuid.UUID{recipient},
		SentAt:         time.Now(),
	})
	require.NoError(t, err)
	return &domain.OutboxEvent{
		ID:        uuid.New(),
		EventType: events.EventTypeMessageCreated,
		Payload:   payload,
		Status:    domain.OutboxStatusPending,
	}
}

func TestDispatchPublishesNotificationWithUnreadCount(t *testing.T) {
	convs := newFakeConvRepo()
	outbox := &fakeOutboxRepo{}
	publisher := &capturePublisher{}

	recipient := uuid.New()
	conversationID := uuid.New()
	convs.unreads[unreadKey(conversationID, recipient)] = 3

	event := pendingMessageEvent(t, recipient, conversationID)
	require.NoError(t, outbox.Create(context.Background(), event))

	w := NewDispatchWorker(outbox, convs, publisher, NewLogNotifier(logger.NewNop()), logger.NewNop())
	w.processBatch()

	channel := events.UserChannel(recipient)
	require.Len(t, publisher.published[channel], 1)

	var notification events.MessageNotification
	require.NoError(t, json.Unmarshal(publisher.published[channel][0], &notification))
	assert.Equal(t, events.EventMessageNotification, notification.Event)
	assert.Equal(t, conversationID, notification.ConversationID)
	assert.Equal(t, int64(3), notification.UnreadCount)
	assert.Equal(t, "hello", notification.Preview)

	assert.Equal(t, domain.OutboxStatusCompleted, outbox.events[0].Status)
}

func TestDispatchRetriesOnPublishFailure(t *testing.T) {
	convs := newFakeConvRepo()
	outbox := &fakeOutboxRepo{}
	publisher := &capturePublisher{fail: true}

	event := pendingMessageEvent(t, uuid.New(), uuid.New())
	require.NoError(t, outbox.Create(context.Background(), event))

	w := NewDispatchWorker(outbox, convs, publisher, nil, logger.NewNop())
	w.processBatch()

	// Back to pending with the retry counted; a later tick picks it up.
	assert.Equal(t, domain.OutboxStatusPending, outbox.events[0].Status)
	assert.Equal(t, 1, outbox.events[0].RetryCount)

	publisher.fail = false
	w.processBatch()
	assert.Equal(t, domain.OutboxStatusCompleted, outbox.events[0].Status)
}

func TestDispatchFailsAfterMaxRetries(t *testing.T) {
	convs := newFakeConvRepo()
	outbox := &fakeOutboxRepo{}
	publisher := &capturePublisher{fail: true}

	event := pendingMessageEvent(t, uuid.New(), uuid.New())
	event.RetryCount = maxDispatchRetries
	require.NoError(t, outbox.Create(context.Background(), event))

	w := NewDispatchWorker(outbox, convs, publisher, nil, logger.NewNop())
	w.processBatch()

	assert.Equal(t, domain.OutboxStatusFailed, outbox.events[0].Status)
}

func TestDispatchMarksMalformedPayloadFailed(t *testing.T) {
	convs := newFakeConvRepo()
	outbox := &fakeOutboxRepo{}

	require.NoError(t, outbox.Create(context.Background(), &domain.OutboxEvent{
		ID:        uuid.New(),
		EventType: events.EventTypeMessageCreated,
		Payload:   []byte("not json"),
		Status:    domain.OutboxStatusPending,
	}))

	w := NewDispatchWorker(outbox, convs, &capturePublisher{}, nil, logger.NewNop())
	w.processBatch()

	assert.Equal(t, domain.OutboxStatusFailed, outbox.events[0].Status)
}
