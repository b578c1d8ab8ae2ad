package handler

import (
	"net/http"

	"nearbuy-chat/internal/domain"
	"nearbuy-chat/internal/services"
	"nearbuy-chat/internal/transport/httpdto"
	nearbuy_errors "nearbuy-chat/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ConversationHandler struct {
	chat *services.ChatService
}

func NewConversationHandler(chat *services.ChatService) *ConversationHandler {
	return &ConversationHandler{chat: chat}
}

// Open finds or creates the conversation for the caller, a peer, and a
// service listing. Opening twice always lands on the same conversation.
func (h *ConversationHandler) Open(c *gin.Context) {
	var req httpdto.OpenConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, nearbuy_errors.ErrValidation)
		return
	}

	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		respondError(c, nearbuy_errors.ErrUnauthorized)
		return
	}

	peerID, err := uuid.Parse(req.PeerID)
	if err != nil {
		respondError(c, nearbuy_errors.ErrValidation)
		return
	}
	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		respondError(c, nearbuy_errors.ErrValidation)
		return
	}
	var bookingID uuid.NullUUID
	if req.BookingID != "" {
		id, err := uuid.Parse(req.BookingID)
		if err != nil {
			respondError(c, nearbuy_errors.ErrValidation)
			return
		}
		bookingID = uuid.NullUUID{UUID: id, Valid: true}
	}

	conv, err := h.chat.FindOrCreate(c.Request.Context(), userID, peerID, serviceID, bookingID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(conversationResponse(conv)))
}

// List returns the caller's active conversations with unread counts, most
// recently active first.
func (h *ConversationHandler) List(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		respondError(c, nearbuy_errors.ErrUnauthorized)
		return
	}

	summaries, err := h.chat.ListForParticipant(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]httpdto.ConversationSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		items = append(items, httpdto.ConversationSummaryResponse{
			ConversationResponse: conversationResponse(s.Conversation),
			UnreadCount:          s.UnreadCount,
		})
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"conversations": items}))
}

func (h *ConversationHandler) GetByID(c *gin.Context) {
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

	conv, err := h.chat.GetConversation(c.Request.Context(), conversationID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(conversationResponse(conv)))
}

func (h *ConversationHandler) Archive(c *gin.Context) {
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

	if err := h.chat.Archive(c.Request.Context(), conversationID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *ConversationHandler) MarkRead(c *gin.Context) {
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

	var req httpdto.MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		respondError(c, nearbuy_errors.ErrValidation)
		return
	}
	messageIDs := make([]uuid.UUID, 0, len(req.MessageIDs))
	for _, raw := range req.MessageIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, nearbuy_errors.ErrValidation)
			return
		}
		messageIDs = append(messageIDs, id)
	}

	if err := h.chat.MarkRead(c.Request.Context(), conversationID, userID, messageIDs); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func conversationResponse(conv domain.Conversation) httpdto.ConversationResponse {
	resp := httpdto.ConversationResponse{
		ID:             conv.ID,
		ParticipantLow: conv.ParticipantLow,
		ParticipantHi:  conv.ParticipantHi,
		ServiceID:      conv.ServiceID,
		LastActivityAt: conv.LastActivityAt,
		Active:         conv.Active,
		CreatedAt:      conv.CreatedAt,
	}
	if conv.BookingID.Valid {
		id := conv.BookingID.UUID
		resp.BookingID = &id
	}
	if conv.LastMessageID.Valid {
		id := conv.LastMessageID.UUID
		resp.LastMessageID = &id
	}
	return resp
}

func respondError(c *gin.Context, err error) {
	c.JSON(nearbuy_errors.HTTPStatus(err), httpdto.NewErrorResponse(nearbuy_errors.Message(err), nearbuy_errors.Code(err)))
}
