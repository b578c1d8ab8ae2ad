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

type PostgresConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &PostgresConversationRepository{db: db}
}

func (r *PostgresConversationRepository) Create(ctx context.Context, c *domain.Conversation) error {
	res := r.db.WithContext(ctx).Create(c)
	if res.Error != nil {
		return translateErr(res.Error)
	}
	return nil
}

func (r *PostgresConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Conversation, error) {
	var c domain.Conversation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		return domain.Conversation{}, translateErr(err)
	}
	return c, nil
}

func (r *PostgresConversationRepository) FindActiveByPairService(ctx context.Context, low, high, serviceID uuid.UUID) (domain.Conversation, error) {
	var c domain.Conversation
	err := r.db.WithContext(ctx).
		Where("participant_low = ? AND participant_hi = ? AND service_id = ? AND active", low, high, serviceID).
		First(&c).Error
	if err != nil {
		return domain.Conversation{}, translateErr(err)
	}
	return c, nil
}

func (r *PostgresConversationRepository) ListForParticipant(ctx context.Context, userID uuid.UUID) ([]domain.ConversationSummary, error) {
	var summaries []domain.ConversationSummary
	err := r.db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Select("conversations.*, COALESCE(cu.count, 0) AS unread_count").
		Joins("LEFT JOIN conversation_unreads cu ON cu.conversation_id = conversations.id AND cu.user_id = ?", userID).
		Where("(conversations.participant_low = ? OR conversations.participant_hi = ?) AND conversations.active", userID, userID).
		Order("conversations.last_activity_at DESC").
		Find(&summaries).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return summaries, nil
}

func (r *PostgresConversationRepository) SetLastMessage(ctx context.Context, conversationID, messageID uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ?", conversationID).
		Updates(map[string]interface{}{
			"last_message_id":  messageID,
			"last_activity_at": at,
		})
	if res.Error != nil {
		return translateErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return nearbuy_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresConversationRepository) EnsureUnreadRow(ctx context.Context, conversationID, userID uuid.UUID) error {
	row := domain.ConversationUnread{ConversationID: conversationID, UserID: userID, Count: 0}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row)
	return translateErr(res.Error)
}

// IncrementUnread is a single upsert statement so concurrent sends never lose
// increments to read-modify-write races.
func (r *PostgresConversationRepository) IncrementUnread(ctx context.Context, conversationID, userID uuid.UUID) error {
	row := domain.ConversationUnread{ConversationID: conversationID, UserID: userID, Count: 1}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "conversation_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("conversation_unreads.count + 1")}),
		}).
		Create(&row)
	return translateErr(res.Error)
}

// ResetUnread is idempotent; repeated calls leave the counter at exactly 0.
func (r *PostgresConversationRepository) ResetUnread(ctx context.Context, conversationID, userID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&domain.ConversationUnread{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Update("count", 0)
	return translateErr(res.Error)
}

func (r *PostgresConversationRepository) GetUnread(ctx context.Context, conversationID, userID uuid.UUID) (int64, error) {
	var row domain.ConversationUnread
	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		First(&row).Error
	if err != nil {
		if translateErr(err) == nearbuy_errors.ErrNotFound {
			return 0, nil
		}
		return 0, translateErr(err)
	}
	return row.Count, nil
}

func (r *PostgresConversationRepository) Archive(ctx context.Context, conversationID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ?", conversationID).
		Update("active", false)
	if res.Error != nil {
		return translateErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return nearbuy_errors.ErrNotFound
	}
	return nil
}
