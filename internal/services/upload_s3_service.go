package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"nearbuy-chat/internal/storage"
	nearbuy_errors "nearbuy-chat/pkg/errors"

	"github.com/google/uuid"
)

// Attachment uploads bypass the chat service entirely: the client asks for a
// presigned URL, PUTs the bytes straight to object storage, then references
// the resulting URL in a normal message append.
type UploadS3Service struct {
	storage      *storage.Client
	maxSizeBytes int64
}

type PresignInput struct {
	UploaderID  uuid.UUID
	FileName    string
	ContentType string
	FileSize    int64
}

type PresignResult struct {
	UploadURL string
	UploadKey string
	FileURL   string
	Headers   map[string]string
}

func NewUploadS3Service(storage *storage.Client, maxSizeBytes int64) *UploadS3Service {
	if maxSizeBytes <= 0 {
		maxSizeBytes = 25 << 20
	}
	return &UploadS3Service{storage: storage, maxSizeBytes: maxSizeBytes}
}

func (s *UploadS3Service) CreatePresignedUpload(ctx context.Context, input PresignInput) (PresignResult, error) {
	if s.storage == nil {
		return PresignResult{}, errors.New("s3 storage is not configured")
	}
	if input.UploaderID == uuid.Nil || input.FileName == "" || input.ContentType == "" || input.FileSize <= 0 {
		return PresignResult{}, nearbuy_errors.ErrValidation
	}
	if input.FileSize > s.maxSizeBytes {
		return PresignResult{}, nearbuy_errors.ErrValidation
	}
	if err := s.storage.ValidateContentType(input.ContentType); err != nil {
		return PresignResult{}, nearbuy_errors.ErrValidation
	}

	key := buildObjectKey(input.UploaderID, input.FileName)

	presignedURL, headers, err := s.storage.PresignPut(ctx, key, input.ContentType, input.FileSize)
	if err != nil {
		return PresignResult{}, err
	}

	return PresignResult{
		UploadURL: presignedURL,
		UploadKey: key,
		FileURL:   s.storage.FileURL(key),
		Headers:   headers,
	}, nil
}

func buildObjectKey(uploaderID uuid.UUID, fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	base := fmt.Sprintf("attachments/%s/%s", uploaderID.String(), uuid.New().String())
	if ext == "" {
		return base
	}
	return base + ext
}
