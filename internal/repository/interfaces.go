package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nearbuy-chat/internal/domain"
	nearbuy_errors "nearbuy-chat/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConversationRepository is the conversation directory: the durable mapping
// from (participant pair, service) to a conversation plus its unread counters.
type ConversationRepository interface {
	Create(ctx context.Context, c *domain.Conversation) error
	GetByID(ctx context.Context, id uuid.UUID) (domain.Conversation, error)
	FindActiveByPairService(ctx context.Context, low, high, serviceID uuid.UUID) (domain.Conversation, error)
	ListForParticipant(ctx context.Context, userID uuid.UUID) ([]domain.ConversationSummary, error)
	SetLastMessage(ctx context.Context, conversationID, messageID uuid.UUID, at time.Time) error
	EnsureUnreadRow(ctx context.Context, conversationID, userID uuid.UUID) error
	IncrementUnread(ctx context.Context, conversationID, userID uuid.UUID) error
	ResetUnread(ctx context.Context, conversationID, userID uuid.UUID) error
	GetUnread(ctx context.Context, conversationID, userID uuid.UUID) (int64, error)
	Archive(ctx context.Context, conversationID uuid.UUID) error
}

// MessageRepository is the message store: the ordered per-conversation log.
type MessageRepository interface {
	Create(ctx context.Context, m *domain.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (domain.Message, error)
	GetConversationMessages(ctx context.Context, conversationID uuid.UUID, beforeSeq int64, limit int) ([]domain.Message, error)
	SetContentEdited(ctx context.Context, id uuid.UUID, content string, at time.Time) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	MarkRead(ctx context.Context, messageID, userID uuid.UUID, at time.Time) error
	BulkMarkRead(ctx context.Context, messageIDs []uuid.UUID, userID uuid.UUID, at time.Time) error
}

// OutboxRepository stores notification events pending dispatch.
type OutboxRepository interface {
	Create(ctx context.Context, e *domain.OutboxEvent) error
	GetPending(ctx context.Context, limit int) ([]domain.OutboxEvent, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errorMsg string) error
	IncrementRetry(ctx context.Context, id uuid.UUID) error
}

// translateErr maps gorm errors onto the shared taxonomy. Anything that is
// not a recognized data condition is treated as a transient store failure.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nearbuy_errors.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nearbuy_errors.ErrAlreadyExists
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", nearbuy_errors.ErrStoreUnavailable, err)
}
