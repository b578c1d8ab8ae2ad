package domain

import (
	"time"

	"github.com/google/uuid"
)

// OutboxStatus represents the processing state of an outbox event
type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "PENDING"
	OutboxStatusProcessing OutboxStatus = "PROCESSING"
	OutboxStatusCompleted  OutboxStatus = "COMPLETED"
	OutboxStatusFailed     OutboxStatus = "FAILED"
)

// OutboxEvent stores notification signals waiting to be dispatched. Rows are
// written in the same transaction as the message append, so the send path
// never waits on (or fails because of) notification delivery.
type OutboxEvent struct {
	ID            uuid.UUID    `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	EventType     string       `gorm:"type:varchar(50);not null"`
	AggregateType string       `gorm:"type:varchar(50);not null"`
	AggregateID   uuid.UUID    `gorm:"type:uuid;not null"`
	Payload       []byte       `gorm:"type:jsonb;not null"`
	Status        OutboxStatus `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_outbox_pending"`
	RetryCount    int          `gorm:"default:0"`
	Error         string       `gorm:"type:text"`
	CreatedAt     time.Time    `gorm:"not null;default:now()"`
	UpdatedAt     time.Time    `gorm:"not null;default:now()"`
	ProcessedAt   *time.Time
}

// TableName returns the database table name
func (OutboxEvent) TableName() string {
	return "outbox_events"
}
