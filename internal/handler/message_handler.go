package handler

import (
	"net/http"
	"strconv"

	"nearbuy-chat/internal/domain"
	"nearbuy-chat/internal/services"
	"nearbuy-chat/internal/transport/httpdto"
	"nearbuy-chat/internal/websocket"
	nearbuy_errors "nearbuy-chat/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RoomBroadcaster fans a frame out to a conversation room's live sessions.
// Implemented by the realtime hub; REST writes go through it so connected
// clients see store changes regardless of which surface made them.
type RoomBroadcaster interface {
	Broadcast(conversationID uuid.UUID, payload []byte, except *websocket.Client)
}

type MessageHandler struct {
	chat *services.ChatService
	hub  RoomBroadcaster
}

func NewMessageHandler(chat *services.ChatService, hub RoomBroadcaster) *MessageHandler {
	return &MessageHandler{chat: chat, hub: hub}
}

func (h *MessageHandler) Send(c *gin.Context) {
	var req httpdto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, nearbuy_errors.ErrValidation)
		return
	}

	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		respondError(c, nearbuy_errors.ErrUnauthorized)
		return
	}

	conversationID, err := uuid.Parse(req.ConversationID)
	if err != nil {
		respondError(c, nearbuy_errors.ErrValidation)
		return
	}

	input := services.AppendInput{
		ConversationID: conversationID,
		SenderID:       userID,
		Content:        req.Content,
		Kind:           domain.MessageKind(req.Kind),
	}
	if req.ReplyTo != "" {
		replyTo, err := uuid.Parse(req.ReplyTo)
		if err != nil {
			respondError(c, nearbuy_errors.ErrValidation)
			return
		}
		input.ReplyTo = uuid.NullUUID{UUID: replyTo, Valid: true}
	}
	for _, a := range req.Attachments {
		input.Attachments = append(input.Attachments, services.AttachmentInput{
			FileName:  a.FileName,
			MimeType:  a.MimeType,
			SizeBytes: a.SizeBytes,
			URL:       a.URL,
		})
	}

	msg, err := h.chat.Append(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(msg.ConversationID, websocket.NewMessageFrame(msg), nil)
	}

	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(websocket.NewMessagePayload(msg)))
}

// List pages conversation history, newest first. before_seq=0 starts from
// the head.
func (h *MessageHandler) List(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, nearbuy_errors.ErrValidation)
		return
	}
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		respondError(c, nearbuy_errors.ErrUnauthorized)
		return
	}

	beforeSeq, err := parseInt64(c.Query("before_seq"))
	if err != nil {
		respondError(c, nearbuy_errors.ErrValidation)
		return
	}
	limit, err := parseInt(c.Query("limit"))
	if err != nil {
		respondError(c, nearbuy_errors.ErrValidation)
		return
	}

	messages, hasMore, err := h.chat.ListPage(c.Request.Context(), conversationID, userID, beforeSeq, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]websocket.MessagePayload, 0, len(messages))
	for _, m := range messages {
		items = append(items, websocket.NewMessagePayload(m))
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{
		"messages": items,
		"has_more": hasMore,
	}))
}

func (h *MessageHandler) Edit(c *gin.Context) {
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, nearbuy_errors.ErrValidation)
		return
	}
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		respondError(c, nearbuy_errors.ErrUnauthorized)
		return
	}

	var req httpdto.EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, nearbuy_errors.ErrValidation)
		return
	}

	msg, err := h.chat.Edit(c.Request.Context(), messageID, userID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(msg.ConversationID, websocket.NewMessageFrame(msg), nil)
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(websocket.NewMessagePayload(msg)))
}

func (h *MessageHandler) Delete(c *gin.Context) {
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, nearbuy_errors.ErrValidation)
		return
	}
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		respondError(c, nearbuy_errors.ErrUnauthorized)
		return
	}

	msg, err := h.chat.SoftDelete(c.Request.Context(), messageID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(msg.ConversationID, websocket.NewMessageFrame(msg), nil)
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(websocket.NewMessagePayload(msg)))
}

func parseInt(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func parseInt64(value string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.ParseInt(value, 10, 64)
}
