package handler

import (
	"net/http"

	"nearbuy-chat/internal/services"
	"nearbuy-chat/internal/transport/httpdto"
	nearbuy_errors "nearbuy-chat/pkg/errors"

	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	uploads *services.UploadS3Service
}

func NewUploadHandler(uploads *services.UploadS3Service) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// Presign hands the client a short-lived URL to PUT attachment bytes
// directly to object storage.
func (h *UploadHandler) Presign(c *gin.Context) {
	var req httpdto.PresignUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, nearbuy_errors.ErrValidation)
		return
	}

	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		respondError(c, nearbuy_errors.ErrUnauthorized)
		return
	}

	result, err := h.uploads.CreatePresignedUpload(c.Request.Context(), services.PresignInput{
		UploaderID:  userID,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		FileSize:    req.FileSize,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.PresignUploadResponse{
		UploadURL: result.UploadURL,
		UploadKey: result.UploadKey,
		FileURL:   result.FileURL,
		Headers:   result.Headers,
	}))
}
