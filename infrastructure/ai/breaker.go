// Package ai wraps the external AI collaborators with circuit breakers so
// a struggling provider fails fast instead of stalling every pipeline run.
package ai

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"notegraph-backend/application/ports"
	pkgerrors "notegraph-backend/pkg/errors"
)

func newBreaker(name string, logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// breakerErr maps gobreaker's open-circuit errors onto the external error
// taxonomy so callers see a uniform failure shape.
func breakerErr(service pkgerrors.ExternalService, err error) error {
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return pkgerrors.NewExternalError(service, err)
	}
	return err
}

// BreakerTranscriber wraps a Transcriber with a circuit breaker
type BreakerTranscriber struct {
	inner ports.Transcriber
	cb    *gobreaker.CircuitBreaker
}

// NewBreakerTranscriber wraps the transcriber
func NewBreakerTranscriber(inner ports.Transcriber, logger *zap.Logger) *BreakerTranscriber {
	return &BreakerTranscriber{inner: inner, cb: newBreaker("transcription", logger)}
}

// Transcribe delegates through the breaker
func (b *BreakerTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Transcribe(ctx, audio, mimeType)
	})
	if err != nil {
		return "", breakerErr(pkgerrors.ServiceTranscription, err)
	}
	return result.(string), nil
}

// BreakerExtractor wraps a ConceptExtractor with a circuit breaker
type BreakerExtractor struct {
	inner ports.ConceptExtractor
	cb    *gobreaker.CircuitBreaker
}

// NewBreakerExtractor wraps the extractor
func NewBreakerExtractor(inner ports.ConceptExtractor, logger *zap.Logger) *BreakerExtractor {
	return &BreakerExtractor{inner: inner, cb: newBreaker("extraction", logger)}
}

// Extract delegates through the breaker
func (b *BreakerExtractor) Extract(ctx context.Context, transcript string, contextExcerpts []string) (*ports.ExtractionResult, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Extract(ctx, transcript, contextExcerpts)
	})
	if err != nil {
		return nil, breakerErr(pkgerrors.ServiceExtraction, err)
	}
	return result.(*ports.ExtractionResult), nil
}

// BreakerEmbedder wraps an EmbeddingProvider with a circuit breaker
type BreakerEmbedder struct {
	inner ports.EmbeddingProvider
	cb    *gobreaker.CircuitBreaker
}

// NewBreakerEmbedder wraps the embedding provider
func NewBreakerEmbedder(inner ports.EmbeddingProvider, logger *zap.Logger) *BreakerEmbedder {
	return &BreakerEmbedder{inner: inner, cb: newBreaker("embedding", logger)}
}

// Embed delegates through the breaker
func (b *BreakerEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Embed(ctx, text)
	})
	if err != nil {
		return nil, breakerErr(pkgerrors.ServiceEmbedding, err)
	}
	return result.([]float32), nil
}

// BreakerIndex wraps a NearestNeighborIndex with a circuit breaker
type BreakerIndex struct {
	inner ports.NearestNeighborIndex
	cb    *gobreaker.CircuitBreaker
}

// NewBreakerIndex wraps the nearest-neighbor index
func NewBreakerIndex(inner ports.NearestNeighborIndex, logger *zap.Logger) *BreakerIndex {
	return &BreakerIndex{inner: inner, cb: newBreaker("index", logger)}
}

// Upsert delegates through the breaker
func (b *BreakerIndex) Upsert(ctx context.Context, ownerID, nodeID string, vector []float32, kind string) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.inner.Upsert(ctx, ownerID, nodeID, vector, kind)
	})
	return breakerErr(pkgerrors.ServiceIndex, err)
}

// Query delegates through the breaker
func (b *BreakerIndex) Query(ctx context.Context, vector []float32, k int, filter ports.NeighborFilter) ([]ports.NeighborMatch, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Query(ctx, vector, k, filter)
	})
	if err != nil {
		return nil, breakerErr(pkgerrors.ServiceIndex, err)
	}
	return result.([]ports.NeighborMatch), nil
}

var (
	_ ports.Transcriber          = (*BreakerTranscriber)(nil)
	_ ports.ConceptExtractor     = (*BreakerExtractor)(nil)
	_ ports.EmbeddingProvider    = (*BreakerEmbedder)(nil)
	_ ports.NearestNeighborIndex = (*BreakerIndex)(nil)
)
