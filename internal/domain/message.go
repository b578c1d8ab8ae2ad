package domain

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_history,priority:1" json:"conversation_id"`
	SenderID       uuid.UUID `gorm:"type:uuid;not null" json:"sender_id"`
	// Seq is store-assigned and monotonically increasing; it is the
	// tie-break for the total order within a conversation.
	Seq          int64         `gorm:"autoIncrement;uniqueIndex;index:idx_messages_history,priority:2,sort:desc" json:"seq"`
	Kind         MessageKind   `gorm:"type:varchar(16);default:'TEXT';not null" json:"kind"`
	Content      string        `gorm:"type:text;not null" json:"content"`
	ReplyToMsgID uuid.NullUUID `gorm:"type:uuid" json:"reply_to_msg_id,omitempty"`
	Deleted      bool          `gorm:"not null;default:false" json:"deleted"`
	EditedAt     *time.Time    `json:"edited_at,omitempty"`
	CreatedAt    time.Time     `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`

	// Relations
	Attachments []Attachment  `gorm:"foreignKey:MessageID" json:"attachments,omitempty"`
	Reads       []MessageRead `gorm:"foreignKey:MessageID" json:"reads,omitempty"`
}

// Attachment is one descriptor attached to a message. URL is the retrieval
// locator handed out by the upload flow.
type Attachment struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	MessageID  uuid.UUID `gorm:"type:uuid;not null;index:idx_attachments_message" json:"message_id"`
	UploaderID uuid.UUID `gorm:"type:uuid;not null" json:"uploader_id"`
	FileName   string    `gorm:"type:text;not null" json:"file_name"`
	MimeType   string    `gorm:"type:text;not null" json:"mime_type"`
	SizeBytes  int64     `gorm:"not null" json:"size_bytes"`
	URL        string    `gorm:"type:text;not null" json:"url"`
	CreatedAt  time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// MessageRead is a per-recipient read marker. The composite primary key makes
// re-marking a no-op.
type MessageRead struct {
	MessageID uuid.UUID `gorm:"type:uuid;primaryKey" json:"message_id"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	ReadAt    time.Time `gorm:"not null" json:"read_at"`
}
