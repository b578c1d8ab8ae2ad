package httpdto

type AttachmentRequest struct {
	FileName  string `json:"file_name" binding:"required"`
	MimeType  string `json:"mime_type" binding:"required"`
	SizeBytes int64  `json:"size_bytes" binding:"required"`
	URL       string `json:"url" binding:"required"`
}

type SendMessageRequest struct {
	ConversationID string              `json:"conversation_id" binding:"required"`
	Content        string              `json:"content"`
	Kind           string              `json:"kind"`
	ReplyTo        string              `json:"reply_to"`
	Attachments    []AttachmentRequest `json:"attachments"`
}

type EditMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

type MarkReadRequest struct {
	MessageIDs []string `json:"message_ids"`
}
