package database

import (
	"fmt"
	"time"

	"nearbuy-chat/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SeedResult summarizes what development seeding created.
type SeedResult struct {
	Customer     uuid.UUID
	Provider     uuid.UUID
	Conversation domain.Conversation
	Messages     []domain.Message
}

// SeedDevelopment populates one conversation between a fixed customer and
// provider pair with a short message history. Identities are external, so
// only chat rows are written.
func SeedDevelopment(db *gorm.DB) (*SeedResult, error) {
	customer := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	provider := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	serviceID := uuid.MustParse("33333333-3333-3333-3333-333333333333")

	low, high := domain.NormalizePair(customer, provider)
	now := time.Now()

	conv := domain.Conversation{
		ID:             uuid.New(),
		ParticipantLow: low,
		ParticipantHi:  high,
		ServiceID:      serviceID,
		LastActivityAt: now,
		Active:         true,
		CreatedAt:      now,
	}

	var messages []domain.Message
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&conv).Error; err != nil {
			return fmt.Errorf("seed conversation: %w", err)
		}
		for _, userID := range []uuid.UUID{low, high} {
			row := domain.ConversationUnread{ConversationID: conv.ID, UserID: userID}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("seed unread row: %w", err)
			}
		}

		samples := []struct {
			sender  uuid.UUID
			content string
		}{
			{customer, "Hi, is the plumbing slot on Saturday still open?"},
			{provider, "Yes, I have 10am and 2pm available."},
			{customer, "10am works. See you then."},
		}
		for i, s := range samples {
			msg := domain.Message{
				ID:             uuid.New(),
				ConversationID: conv.ID,
				SenderID:       s.sender,
				Kind:           domain.MessageKindText,
				Content:        s.content,
				CreatedAt:      now.Add(time.Duration(i) * time.Minute),
			}
			if err := tx.Create(&msg).Error; err != nil {
				return fmt.Errorf("seed message: %w", err)
			}
			messages = append(messages, msg)
		}

		last := messages[len(messages)-1]
		return tx.Model(&domain.Conversation{}).
			Where("id = ?", conv.ID).
			Updates(map[string]interface{}{
				"last_message_id":  last.ID,
				"last_activity_at": last.CreatedAt,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	return &SeedResult{
		Customer:     customer,
		Provider:     provider,
		Conversation: conv,
		Messages:     messages,
	}, nil
}
