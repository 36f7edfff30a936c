// Package storage holds the blob store used for profile image uploads.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"taskmanager/backend/logging"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// GCSStore writes objects to a Cloud Storage bucket (the bucket behind a
// Firebase Storage project) and hands out Firebase download URLs.
type GCSStore struct {
	client *gcs.Client
	bucket string
}

// NewGCSStore connects with the given service account key, or with
// application default credentials when credentialsFile is empty.
func NewGCSStore(ctx context.Context, bucket, credentialsFile string, opts ...option.ClientOption) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	if credentialsFile != "" {
		if _, err := os.Stat(credentialsFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("service account key not found at path: %s", credentialsFile)
		}
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

// Upload streams body into objectName and returns its public download URL.
func (s *GCSStore) Upload(ctx context.Context, objectName, contentType string, body io.Reader) (string, error) {
	writer := s.client.Bucket(s.bucket).Object(objectName).NewWriter(ctx)
	writer.ContentType = contentType
	writer.Metadata = map[string]string{
		"firebaseStorageDownloadTokens": uuid.New().String(),
	}

	if _, err := io.Copy(writer, body); err != nil {
		writer.Close()
		return "", fmt.Errorf("failed to write GCS object %s: %w", objectName, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer for %s: %w", objectName, err)
	}

	logging.Logger.Debugf("Event ID: GCS_OBJECT_WRITTEN, Description: Uploaded gs://%s/%s", s.bucket, objectName)
	return PublicURL(s.bucket, objectName), nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

// PublicURL is the Firebase Storage download URL for an object.
func PublicURL(bucket, objectName string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(objectName), "+", "%20")
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media", bucket, escaped)
}
