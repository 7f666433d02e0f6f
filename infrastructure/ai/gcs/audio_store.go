// Package gcs fetches uploaded voice recordings from Google Cloud Storage.
package gcs

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"notegraph-backend/application/ports"
	pkgerrors "notegraph-backend/pkg/errors"
)

const fetchTimeout = 2 * time.Minute

// AudioStore implements ports.AudioStore over a GCS bucket. audioRef is
// either a bare object key within the configured bucket or a full
// gs://bucket/key URI.
type AudioStore struct {
	client *storage.Client
	bucket string
	logger *zap.Logger
}

// NewAudioStore creates an audio store backed by a GCS client.
// Credentials come from the environment (ADC) unless opts override them.
func NewAudioStore(ctx context.Context, bucket string, logger *zap.Logger, opts ...option.ClientOption) (*AudioStore, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, pkgerrors.NewExternalError(pkgerrors.ServiceBlobStore, err)
	}

	return &AudioStore{
		client: client,
		bucket: bucket,
		logger: logger,
	}, nil
}

// Close releases the underlying client
func (s *AudioStore) Close() error {
	return s.client.Close()
}

// Fetch downloads the recording and returns its bytes and content type
func (s *AudioStore) Fetch(ctx context.Context, audioRef string) ([]byte, string, error) {
	bucket, key, err := s.resolve(audioRef)
	if err != nil {
		return nil, "", err
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	reader, err := s.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, "", pkgerrors.NewExternalError(pkgerrors.ServiceBlobStore, err)
	}
	defer reader.Close()

	audio, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", pkgerrors.NewExternalError(pkgerrors.ServiceBlobStore, err)
	}

	s.logger.Debug("fetched audio",
		zap.String("bucket", bucket),
		zap.String("key", key),
		zap.Int("bytes", len(audio)),
	)

	return audio, reader.Attrs.ContentType, nil
}

func (s *AudioStore) resolve(audioRef string) (bucket, key string, err error) {
	if strings.HasPrefix(audioRef, "gs://") {
		rest := strings.TrimPrefix(audioRef, "gs://")
		parts := strings.SplitN(rest, "/", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return "", "", pkgerrors.NewValidationError(fmt.Sprintf("malformed audio reference %q", audioRef))
		}
		return parts[0], parts[1], nil
	}
	if audioRef == "" {
		return "", "", pkgerrors.NewValidationError("audio reference cannot be empty")
	}
	return s.bucket, audioRef, nil
}

var _ ports.AudioStore = (*AudioStore)(nil)
