package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"nearbuy-chat/internal/domain"
	"nearbuy-chat/internal/events"
	"nearbuy-chat/internal/repository"
	"nearbuy-chat/pkg/logger"
)

const maxDispatchRetries = 9

// EventPublisher pushes payloads onto a named channel. Satisfied by the
// Redis publisher.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// DispatchWorker drains the notification outbox. For every pending
// message.created event it builds one notification per recipient, publishes
// it to the recipient's personal channel for any live gateway to pick up,
// and hands it to the push notifier. Publish failures are retried on later
// ticks; notifier failures are logged and dropped.
type DispatchWorker struct {
	outboxRepo repository.OutboxRepository
	convRepo   repository.ConversationRepository
	publisher  EventPublisher
	notifier   Notifier
	log        *logger.Logger
	interval   time.Duration
	batchSize  int
	stopChan   chan struct{}
	wg         sync.WaitGroup
}

func NewDispatchWorker(outboxRepo repository.OutboxRepository, convRepo repository.ConversationRepository, publisher EventPublisher, notifier Notifier, log *logger.Logger) *DispatchWorker {
	return &DispatchWorker{
		outboxRepo: outboxRepo,
		convRepo:   convRepo,
		publisher:  publisher,
		notifier:   notifier,
		log:        log,
		interval:   100 * time.Millisecond,
		batchSize:  100,
		stopChan:   make(chan struct{}),
	}
}

// Start begins the worker loop
func (w *DispatchWorker) Start() {
	w.wg.Add(1)
	go w.run()
}

// Stop gracefully shuts down
func (w *DispatchWorker) Stop() {
	close(w.stopChan)
	w.wg.Wait()
}

func (w *DispatchWorker) run() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.processBatch()
		}
	}
}

func (w *DispatchWorker) processBatch() {
	ctx := context.Background()
	pending, err := w.outboxRepo.GetPending(ctx, w.batchSize)
	if err != nil {
		w.log.Errorf("outbox poll failed: %v", err)
		return
	}

	for _, event := range pending {
		w.processEvent(ctx, &event)
	}
}

func (w *DispatchWorker) processEvent(ctx context.Context, event *domain.OutboxEvent) {
	// Prevent duplicate processing
	if err := w.outboxRepo.MarkProcessing(ctx, event.ID); err != nil {
		return
	}

	if event.EventType != events.EventTypeMessageCreated {
		w.outboxRepo.MarkFailed(ctx, event.ID, "unknown event type "+event.EventType)
		return
	}

	var created events.MessageCreated
	if err := json.Unmarshal(event.Payload, &created); err != nil {
		w.outboxRepo.MarkFailed(ctx, event.ID, "failed to unmarshal")
		return
	}

	if err := w.dispatch(ctx, created); err != nil {
		w.outboxRepo.IncrementRetry(ctx, event.ID)
		if event.RetryCount >= maxDispatchRetries {
			w.outboxRepo.MarkFailed(ctx, event.ID, err.Error())
		}
		return
	}

	w.outboxRepo.MarkCompleted(ctx, event.ID)
}

func (w *DispatchWorker) dispatch(ctx context.Context, created events.MessageCreated) error {
	for _, recipient := range created.Recipients {
		unread, err := w.convRepo.GetUnread(ctx, created.ConversationID, recipient)
		if err != nil {
			return err
		}

		notification := events.MessageNotification{
			Event:          events.EventMessageNotification,
			ConversationID: created.ConversationID,
			SenderID:       created.SenderID,
			Preview:        created.Preview,
			UnreadCount:    unread,
			DeepLink:       created.DeepLink,
		}

		payload, err := json.Marshal(notification)
		if err != nil {
			return err
		}
		if err := w.publisher.Publish(ctx, events.UserChannel(recipient), payload); err != nil {
			return err
		}

		if w.notifier != nil {
			if err := w.notifier.Notify(ctx, recipient, notification); err != nil {
				w.log.Warnf("push notify failed for user %s: %v", recipient, err)
			}
		}
	}
	return nil
}
