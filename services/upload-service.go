package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"taskmanager/backend/apperrors"
	"taskmanager/backend/logging"
	"taskmanager/backend/metrics"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/jpg":  true,
	"image/webp": true,
}

// BlobStore persists an object and returns its public URL.
type BlobStore interface {
	Upload(ctx context.Context, objectName, contentType string, body io.Reader) (string, error)
}

// UploadedImage is a file received from a multipart form.
type UploadedImage struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type UploadService struct {
	store    BlobStore
	breaker  *gobreaker.CircuitBreaker
	maxBytes int64
	metrics  *metrics.Metrics
}

func NewUploadService(store BlobStore, breaker *gobreaker.CircuitBreaker, maxBytes int64, m *metrics.Metrics) *UploadService {
	return &UploadService{store: store, breaker: breaker, maxBytes: maxBytes, metrics: m}
}

// UploadImage checks type and size, then stores the file as
// "<uuid>-<original name>" through the circuit breaker.
func (s *UploadService) UploadImage(ctx context.Context, img *UploadedImage) (string, error) {
	if img == nil || img.Body == nil {
		return "", apperrors.NewValidation("No file uploaded")
	}
	if !allowedImageTypes[strings.ToLower(img.ContentType)] {
		return "", apperrors.NewValidation("Only .jpeg, .jpg, .png and .webp formats are allowed")
	}
	if s.maxBytes > 0 && img.Size > s.maxBytes {
		return "", apperrors.NewValidation("File too large, the limit is %d bytes", s.maxBytes)
	}
	if s.store == nil {
		return "", fmt.Errorf("image storage is not configured")
	}

	objectName := fmt.Sprintf("%s-%s", uuid.New().String(), filepath.Base(img.Filename))
	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.store.Upload(ctx, objectName, img.ContentType, img.Body)
	})
	if err != nil {
		s.metrics.UploadFailed()
		logging.Logger.Errorf("Event ID: IMAGE_UPLOAD_FAILED, Description: Failed to store %s: %v", objectName, err)
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	url := result.(string)
	logging.Logger.Infof("Event ID: IMAGE_UPLOADED, Description: Stored %s", objectName)
	return url, nil
}
