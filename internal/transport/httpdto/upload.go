package httpdto

type PresignUploadRequest struct {
	FileName    string `json:"file_name" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	FileSize    int64  `json:"file_size" binding:"required"`
}

type PresignUploadResponse struct {
	UploadURL string            `json:"upload_url"`
	UploadKey string            `json:"upload_key"`
	FileURL   string            `json:"file_url,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
}
