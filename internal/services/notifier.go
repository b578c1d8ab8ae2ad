package services

import (
	"context"

	"nearbuy-chat/internal/events"
	"nearbuy-chat/pkg/logger"

	"github.com/google/uuid"
)

// Notifier hands a notification to an external push provider. Delivery is
// best effort; dispatch never retries through this interface.
type Notifier interface {
	Notify(ctx context.Context, recipient uuid.UUID, n events.MessageNotification) error
}

// LogNotifier is the default sink when no push provider is configured. It
// records what would have been sent, which is also what the staging
// environment runs with.
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(ctx context.Context, recipient uuid.UUID, msg events.MessageNotification) error {
	n.log.Infof("notify user=%s conversation=%s unread=%d", recipient, msg.ConversationID, msg.UnreadCount)
	return nil
}
