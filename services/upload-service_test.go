package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"taskmanager/backend/apperrors"
	"taskmanager/backend/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memBlobStore struct {
	objects map[string]string
	err     error
}

func (s *memBlobStore) Upload(ctx context.Context, objectName, contentType string, body io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.objects[objectName] = string(data)
	return "https://blobs.example/" + objectName, nil
}

func testBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "test-uploads",
		Timeout: time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 2
		},
	})
}

func image(name, contentType string, body string) *UploadedImage {
	return &UploadedImage{Filename: name, ContentType: contentType, Size: int64(len(body)), Body: strings.NewReader(body)}
}

func TestUploadService_UploadImage(t *testing.T) {
	store := &memBlobStore{objects: map[string]string{}}
	svc := NewUploadService(store, testBreaker(), 1024, nil)

	url, err := svc.UploadImage(context.Background(), image("avatar.png", "image/png", "pngdata"))
	require.NoError(t, err)

	require.Len(t, store.objects, 1)
	for name, data := range store.objects {
		assert.True(t, strings.HasSuffix(name, "-avatar.png"), name)
		assert.Len(t, name, 36+len("-avatar.png"))
		assert.Equal(t, "pngdata", data)
		assert.Equal(t, "https://blobs.example/"+name, url)
	}
}

func TestUploadService_Rejects(t *testing.T) {
	svc := NewUploadService(&memBlobStore{objects: map[string]string{}}, testBreaker(), 4, nil)
	ctx := context.Background()

	_, err := svc.UploadImage(ctx, nil)
	assertKind(t, err, apperrors.Validation)

	_, err = svc.UploadImage(ctx, image("doc.pdf", "application/pdf", "pdf"))
	assertKind(t, err, apperrors.Validation)

	_, err = svc.UploadImage(ctx, image("big.jpg", "image/jpeg", "too large"))
	assertKind(t, err, apperrors.Validation)
}

func TestUploadService_BreakerOpensAfterFailures(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	store := &memBlobStore{objects: map[string]string{}, err: errors.New("bucket unavailable")}
	svc := NewUploadService(store, testBreaker(), 1024, m)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := svc.UploadImage(ctx, image("a.webp", "image/webp", "x"))
		require.Error(t, err)
	}

	store.err = nil
	_, err := svc.UploadImage(ctx, image("a.webp", "image/webp", "x"))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Empty(t, store.objects)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.UploadFailures))
}

func TestUploadService_NoStore(t *testing.T) {
	svc := NewUploadService(nil, testBreaker(), 1024, nil)
	_, err := svc.UploadImage(context.Background(), image("a.png", "image/png", "x"))
	require.Error(t, err)
	_, isAPI := apperrors.As(err)
	assert.False(t, isAPI)
}
