package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"nearbuy-chat/internal/config"
	"nearbuy-chat/internal/domain"
	"nearbuy-chat/internal/events"
	"nearbuy-chat/internal/repository"
	nearbuy_errors "nearbuy-chat/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoomPresence reports whether an identity currently has the given
// conversation open on a live connection. The realtime hub implements it;
// a nil presence means nobody has any room open (HTTP-only deployments).
type RoomPresence interface {
	InRoom(conversationID, userID uuid.UUID) bool
}

// ChatService owns the business rules over the message store and the
// conversation directory. Both the REST handlers and the realtime gateway go
// through it, so the two surfaces always produce the same store effects.
type ChatService struct {
	db         *gorm.DB
	convRepo   repository.ConversationRepository
	msgRepo    repository.MessageRepository
	outboxRepo repository.OutboxRepository
	presence   RoomPresence

	maxContentLength int
	editWindow       time.Duration
	pageSize         int
	now              func() time.Time
}

func NewChatService(db *gorm.DB, convRepo repository.ConversationRepository, msgRepo repository.MessageRepository, outboxRepo repository.OutboxRepository, cfg config.ChatConfig) *ChatService {
	if cfg.MaxContentLength <= 0 {
		cfg.MaxContentLength = 4000
	}
	if cfg.EditWindow <= 0 {
		cfg.EditWindow = 5 * time.Minute
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}
	return &ChatService{
		db:               db,
		convRepo:         convRepo,
		msgRepo:          msgRepo,
		outboxRepo:       outboxRepo,
		maxContentLength: cfg.MaxContentLength,
		editWindow:       cfg.EditWindow,
		pageSize:         cfg.PageSize,
		now:              time.Now,
	}
}

// SetPresence wires the realtime hub in after construction; the hub and the
// service are created independently in main.
func (s *ChatService) SetPresence(p RoomPresence) {
	s.presence = p
}

// FindOrCreate returns the active conversation for an (unordered participant
// pair, service) tuple, creating it with zeroed unread counters on first
// contact.
func (s *ChatService) FindOrCreate(ctx context.Context, a, b, serviceID uuid.UUID, bookingID uuid.NullUUID) (domain.Conversation, error) {
	if a == uuid.Nil || b == uuid.Nil || serviceID == uuid.Nil || a == b {
		return domain.Conversation{}, nearbuy_errors.ErrValidation
	}

	low, high := domain.NormalizePair(a, b)

	conv, err := s.convRepo.FindActiveByPairService(ctx, low, high, serviceID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, nearbuy_errors.ErrNotFound) {
		return domain.Conversation{}, err
	}

	conv = domain.Conversation{
		ID:             uuid.New(),
		ParticipantLow: low,
		ParticipantHi:  high,
		ServiceID:      serviceID,
		BookingID:      bookingID,
		LastActivityAt: s.now(),
		Active:         true,
		CreatedAt:      s.now(),
	}

	err = s.withTx(ctx, func(convRepo repository.ConversationRepository, _ repository.MessageRepository, _ repository.OutboxRepository) error {
		if err := convRepo.Create(ctx, &conv); err != nil {
			return err
		}
		if err := convRepo.EnsureUnreadRow(ctx, conv.ID, low); err != nil {
			return err
		}
		return convRepo.EnsureUnreadRow(ctx, conv.ID, high)
	})
	if err != nil {
		// Lost a creation race; the partial unique index guarantees a
		// single winner, so fetch theirs.
		if errors.Is(err, nearbuy_errors.ErrAlreadyExists) {
			return s.convRepo.FindActiveByPairService(ctx, low, high, serviceID)
		}
		return domain.Conversation{}, err
	}
	return conv, nil
}

func (s *ChatService) ListForParticipant(ctx context.Context, userID uuid.UUID) ([]domain.ConversationSummary, error) {
	return s.convRepo.ListForParticipant(ctx, userID)
}

// GetConversation fetches by id, enforcing membership. Archived
// conversations stay fetchable.
func (s *ChatService) GetConversation(ctx context.Context, conversationID, requesterID uuid.UUID) (domain.Conversation, error) {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return domain.Conversation{}, err
	}
	if !conv.HasParticipant(requesterID) {
		return domain.Conversation{}, nearbuy_errors.ErrForbidden
	}
	return conv, nil
}

// IsParticipant is the membership check the gateway runs before admitting a
// session into a conversation room.
func (s *ChatService) IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, nearbuy_errors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return conv.HasParticipant(userID), nil
}

type AttachmentInput struct {
	FileName  string
	MimeType  string
	SizeBytes int64
	URL       string
}

type AppendInput struct {
	ConversationID uuid.UUID
	SenderID       uuid.UUID
	Content        string
	Kind           domain.MessageKind
	Attachments    []AttachmentInput
	ReplyTo        uuid.NullUUID
}

// Append validates and durably appends one message, advances the
// conversation's last-activity state, bumps unread counters for members not
// currently reading the room, and records the notification outbox event.
// Everything happens in one transaction; callers broadcast only after Append
// returns successfully.
func (s *ChatService) Append(ctx context.Context, in AppendInput) (domain.Message, error) {
	kind := in.Kind
	if kind == "" {
		kind = domain.MessageKindText
	}
	if !kind.Valid() {
		return domain.Message{}, nearbuy_errors.ErrValidation
	}
	content := strings.TrimSpace(in.Content)
	if kind == domain.MessageKindText && content == "" {
		return domain.Message{}, nearbuy_errors.ErrValidation
	}
	if utf8.RuneCountInString(content) > s.maxContentLength {
		return domain.Message{}, nearbuy_errors.ErrValidation
	}

	conv, err := s.convRepo.GetByID(ctx, in.ConversationID)
	if err != nil {
		return domain.Message{}, err
	}
	if !conv.Active {
		return domain.Message{}, nearbuy_errors.ErrNotFound
	}
	if !conv.HasParticipant(in.SenderID) {
		return domain.Message{}, nearbuy_errors.ErrForbidden
	}

	if in.ReplyTo.Valid {
		parent, err := s.msgRepo.GetByID(ctx, in.ReplyTo.UUID)
		if err != nil {
			if errors.Is(err, nearbuy_errors.ErrNotFound) {
				return domain.Message{}, nearbuy_errors.ErrInvalidReference
			}
			return domain.Message{}, err
		}
		if parent.ConversationID != conv.ID {
			return domain.Message{}, nearbuy_errors.ErrInvalidReference
		}
	}

	now := s.now()
	msg := domain.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SenderID:       in.SenderID,
		Kind:           kind,
		Content:        content,
		ReplyToMsgID:   in.ReplyTo,
		CreatedAt:      now,
	}
	for _, a := range in.Attachments {
		msg.Attachments = append(msg.Attachments, domain.Attachment{
			ID:         uuid.New(),
			MessageID:  msg.ID,
			UploaderID: in.SenderID,
			FileName:   a.FileName,
			MimeType:   a.MimeType,
			SizeBytes:  a.SizeBytes,
			URL:        a.URL,
			CreatedAt:  now,
		})
	}

	err = s.withTx(ctx, func(convRepo repository.ConversationRepository, msgRepo repository.MessageRepository, outboxRepo repository.OutboxRepository) error {
		if err := msgRepo.Create(ctx, &msg); err != nil {
			return err
		}
		if err := convRepo.SetLastMessage(ctx, conv.ID, msg.ID, now); err != nil {
			return err
		}

		var recipients []uuid.UUID
		other := conv.OtherParticipant(in.SenderID)
		if other != uuid.Nil && !s.inRoom(conv.ID, other) {
			if err := convRepo.IncrementUnread(ctx, conv.ID, other); err != nil {
				return err
			}
			recipients = append(recipients, other)
		}

		if len(recipients) == 0 {
			return nil
		}
		payload, err := json.Marshal(events.MessageCreated{
			MessageID:      msg.ID,
			ConversationID: conv.ID,
			SenderID:       in.SenderID,
			Preview:        preview(kind, content, msg.Attachments),
			DeepLink:       "nearbuy://chat/" + conv.ID.String(),
			Recipients:     recipients,
			SentAt:         now,
		})
		if err != nil {
			return err
		}
		return outboxRepo.Create(ctx, &domain.OutboxEvent{
			ID:            uuid.New(),
			EventType:     events.EventTypeMessageCreated,
			AggregateType: events.AggregateTypeMessage,
			AggregateID:   msg.ID,
			Payload:       payload,
			Status:        domain.OutboxStatusPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	})
	if err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

// ListPage returns one reverse-chronological history page plus a has-more
// flag. Tombstoned messages stay visible as deletion markers.
func (s *ChatService) ListPage(ctx context.Context, conversationID, requesterID uuid.UUID, beforeSeq int64, limit int) ([]domain.Message, bool, error) {
	if _, err := s.GetConversation(ctx, conversationID, requesterID); err != nil {
		return nil, false, err
	}
	if limit <= 0 || limit > s.pageSize {
		limit = s.pageSize
	}

	messages, err := s.msgRepo.GetConversationMessages(ctx, conversationID, beforeSeq, limit+1)
	if err != nil {
		return nil, false, err
	}
	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[:limit]
	}
	return messages, hasMore, nil
}

// MarkRead clears the reader's unread counter and, when explicit message ids
// are given, appends read markers to exactly those messages. Both paths are
// idempotent, so a duplicate call never drives the counter below zero.
func (s *ChatService) MarkRead(ctx context.Context, conversationID, readerID uuid.UUID, messageIDs []uuid.UUID) error {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(readerID) {
		return nearbuy_errors.ErrForbidden
	}

	if len(messageIDs) > 0 {
		if err := s.msgRepo.BulkMarkRead(ctx, messageIDs, readerID, s.now()); err != nil {
			return err
		}
	}
	return s.convRepo.ResetUnread(ctx, conversationID, readerID)
}

// Edit replaces a message's content. Only the sender may edit, only within
// the edit window, and never after soft-deletion.
func (s *ChatService) Edit(ctx context.Context, messageID, editorID uuid.UUID, newContent string) (domain.Message, error) {
	content := strings.TrimSpace(newContent)
	if content == "" || utf8.RuneCountInString(content) > s.maxContentLength {
		return domain.Message{}, nearbuy_errors.ErrValidation
	}

	msg, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return domain.Message{}, err
	}
	if msg.Deleted {
		return domain.Message{}, nearbuy_errors.ErrAlreadyDeleted
	}
	if msg.SenderID != editorID {
		return domain.Message{}, nearbuy_errors.ErrForbidden
	}
	now := s.now()
	if now.Sub(msg.CreatedAt) > s.editWindow {
		return domain.Message{}, nearbuy_errors.ErrExpiredWindow
	}

	if err := s.msgRepo.SetContentEdited(ctx, messageID, content, now); err != nil {
		return domain.Message{}, err
	}
	msg.Content = content
	msg.EditedAt = &now
	return msg, nil
}

// SoftDelete tombstones a message. Only the sender may delete; repeated
// calls are no-ops.
func (s *ChatService) SoftDelete(ctx context.Context, messageID, requesterID uuid.UUID) (domain.Message, error) {
	msg, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return domain.Message{}, err
	}
	if msg.SenderID != requesterID {
		return domain.Message{}, nearbuy_errors.ErrForbidden
	}
	if msg.Deleted {
		return msg, nil
	}

	if err := s.msgRepo.SoftDelete(ctx, messageID); err != nil {
		return domain.Message{}, err
	}
	msg.Deleted = true
	msg.Content = domain.TombstoneContent
	return msg, nil
}

// Archive clears the active flag; the conversation stays queryable by id but
// drops out of listings.
func (s *ChatService) Archive(ctx context.Context, conversationID, requesterID uuid.UUID) error {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(requesterID) {
		return nearbuy_errors.ErrForbidden
	}
	return s.convRepo.Archive(ctx, conversationID)
}

func (s *ChatService) UnreadCount(ctx context.Context, conversationID, userID uuid.UUID) (int64, error) {
	return s.convRepo.GetUnread(ctx, conversationID, userID)
}

func (s *ChatService) inRoom(conversationID, userID uuid.UUID) bool {
	return s.presence != nil && s.presence.InRoom(conversationID, userID)
}

// withTx runs fn against transaction-scoped repositories when a database is
// configured, and against the injected repositories otherwise (tests).
func (s *ChatService) withTx(ctx context.Context, fn func(repository.ConversationRepository, repository.MessageRepository, repository.OutboxRepository) error) error {
	if s.db == nil {
		return fn(s.convRepo, s.msgRepo, s.outboxRepo)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(
			repository.NewConversationRepository(tx),
			repository.NewMessageRepository(tx),
			repository.NewOutboxRepository(tx),
		)
	})
}

func preview(kind domain.MessageKind, content string, attachments []domain.Attachment) string {
	if kind != domain.MessageKindText {
		if len(attachments) > 0 && attachments[0].FileName != "" {
			return attachments[0].FileName
		}
		return "Attachment"
	}
	// Truncate on a rune boundary so a multibyte character is never split.
	const max = 80
	if utf8.RuneCountInString(content) <= max {
		return content
	}
	return string([]rune(content)[:max])
}
