package ports

import "context"

// AudioStore fetches uploaded recordings by their blob reference
type AudioStore interface {
	// Fetch returns the audio bytes and MIME type for a stored recording
	Fetch(ctx context.Context, audioRef string) ([]byte, string, error)
}

// Transcriber converts an audio recording into text.
// Failures surface as ExternalServiceError (transcription).
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// Concept is one atomic idea extracted from a transcript, destined to
// become a single note
type Concept struct {
	Title          string   `json:"title"`
	Content        string   `json:"content"`
	SuggestedLinks []string `json:"suggestedLinks"`
	Tags           []string `json:"tags"`
}

// ExtractionResult is the concept extractor's response
type ExtractionResult struct {
	Concepts []Concept `json:"concepts"`
	Summary  string    `json:"summary"`
}

// ConceptExtractor breaks a transcript into atomic concepts, steered by
// excerpts of the owner's existing notes so suggested links can point at
// real titles. Failures surface as ExternalServiceError (extraction).
type ConceptExtractor interface {
	Extract(ctx context.Context, transcript string, contextExcerpts []string) (*ExtractionResult, error)
}

// EmbeddingProvider produces a fixed-length vector for a text.
// Failures surface as ExternalServiceError (embedding).
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// NeighborMatch is one ranked nearest-neighbor result
type NeighborMatch struct {
	NodeID string
	Score  float64
}

// NeighborFilter scopes a nearest-neighbor query
type NeighborFilter struct {
	OwnerID    string
	Kind       string
	ExcludeIDs []string
}

// NearestNeighborIndex answers similarity queries over node embeddings.
// Vectors must be upserted before they become searchable. Failures
// surface as ExternalServiceError (index).
type NearestNeighborIndex interface {
	Upsert(ctx context.Context, ownerID, nodeID string, vector []float32, kind string) error
	Query(ctx context.Context, vector []float32, k int, filter NeighborFilter) ([]NeighborMatch, error)
}
