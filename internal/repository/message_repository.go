package repository

import (
	"context"
	"time"

	"nearbuy-chat/internal/domain"
	nearbuy_errors "nearbuy-chat/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &PostgresMessageRepository{db: db}
}

func (r *PostgresMessageRepository) Create(ctx context.Context, m *domain.Message) error {
	res := r.db.WithContext(ctx).Create(m)
	if res.Error != nil {
		return translateErr(res.Error)
	}
	return nil
}

func (r *PostgresMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Message, error) {
	var m domain.Message
	err := r.db.WithContext(ctx).
		Preload("Attachments").
		Preload("Reads").
		Where("id = ?", id).
		First(&m).Error
	if err != nil {
		return domain.Message{}, translateErr(err)
	}
	return m, nil
}

// GetConversationMessages pages backwards through the log. Soft-deleted
// messages are included; their content is already the tombstone.
func (r *PostgresMessageRepository) GetConversationMessages(ctx context.Context, conversationID uuid.UUID, beforeSeq int64, limit int) ([]domain.Message, error) {
	q := r.db.WithContext(ctx).
		Preload("Attachments").
		Preload("Reads").
		Where("conversation_id = ?", conversationID)

	if beforeSeq > 0 {
		q = q.Where("seq < ?", beforeSeq)
	}

	var messages []domain.Message
	if err := q.Order("seq DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, translateErr(err)
	}
	return messages, nil
}

func (r *PostgresMessageRepository) SetContentEdited(ctx context.Context, id uuid.UUID, content string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"content":   content,
			"edited_at": at,
		})
	if res.Error != nil {
		return translateErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return nearbuy_errors.ErrNotFound
	}
	return nil
}

// SoftDelete tombstones the message in place; repeated calls are no-ops.
func (r *PostgresMessageRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"deleted": true,
			"content": domain.TombstoneContent,
		})
	if res.Error != nil {
		return translateErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return nearbuy_errors.ErrNotFound
	}
	return nil
}

// MarkRead appends a read marker; the composite primary key plus DO NOTHING
// makes re-marking idempotent.
func (r *PostgresMessageRepository) MarkRead(ctx context.Context, messageID, userID uuid.UUID, at time.Time) error {
	row := domain.MessageRead{MessageID: messageID, UserID: userID, ReadAt: at}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row)
	return translateErr(res.Error)
}

func (r *PostgresMessageRepository) BulkMarkRead(ctx context.Context, messageIDs []uuid.UUID, userID uuid.UUID, at time.Time) error {
	if len(messageIDs) == 0 {
		return nil
	}
	rows := make([]domain.MessageRead, 0, len(messageIDs))
	for _, id := range messageIDs {
		rows = append(rows, domain.MessageRead{MessageID: id, UserID: userID, ReadAt: at})
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows)
	return translateErr(res.Error)
}
