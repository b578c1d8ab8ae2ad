package repository

import (
	"context"
	"time"

	"nearbuy-chat/internal/domain"
	nearbuy_errors "nearbuy-chat/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresOutboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &PostgresOutboxRepository{db: db}
}

func (r *PostgresOutboxRepository) Create(ctx context.Context, e *domain.OutboxEvent) error {
	res := r.db.WithContext(ctx).Create(e)
	return translateErr(res.Error)
}

func (r *PostgresOutboxRepository) GetPending(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	var events []domain.OutboxEvent
	err := r.db.WithContext(ctx).
		Where("status = ? AND retry_count < ?", domain.OutboxStatusPending, 10).
		Order("created_at ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return events, nil
}

func (r *PostgresOutboxRepository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&domain.OutboxEvent{}).
		Where("id = ? AND status = ?", id, domain.OutboxStatusPending).
		Updates(map[string]interface{}{
			"status":     domain.OutboxStatusProcessing,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return translateErr(res.Error)
	}
	if res.RowsAffected == 0 {
		// Someone else picked it up first.
		return nearbuy_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresOutboxRepository) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&domain.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       domain.OutboxStatusCompleted,
			"processed_at": now,
			"updated_at":   now,
		})
	return translateErr(res.Error)
}

func (r *PostgresOutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, errorMsg string) error {
	res := r.db.WithContext(ctx).
		Model(&domain.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     domain.OutboxStatusFailed,
			"error":      errorMsg,
			"updated_at": time.Now(),
		})
	return translateErr(res.Error)
}

func (r *PostgresOutboxRepository) IncrementRetry(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&domain.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      domain.OutboxStatusPending,
			"retry_count": gorm.Expr("retry_count + 1"),
		})
	return translateErr(res.Error)
}
