// Package pinecone implements the nearest-neighbor index collaborator
// against the Pinecone data-plane HTTP API.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"notegraph-backend/application/ports"
	pkgerrors "notegraph-backend/pkg/errors"
)

const apiVersion = "2025-01"

// Index implements ports.NearestNeighborIndex on one Pinecone index host.
// Owner and kind travel as vector metadata so queries can filter on them.
type Index struct {
	httpClient *http.Client
	host       string
	apiKey     string
	namespace  string
	logger     *zap.Logger
}

// NewIndex creates a Pinecone index client for the given data-plane host
func NewIndex(host, apiKey, namespace string, logger *zap.Logger) *Index {
	return &Index{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		host:       strings.TrimPrefix(strings.TrimSpace(host), "https://"),
		apiKey:     apiKey,
		namespace:  namespace,
		logger:     logger,
	}
}

type vector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type upsertRequest struct {
	Vectors   []vector `json:"vectors"`
	Namespace string   `json:"namespace,omitempty"`
}

type upsertResponse struct {
	UpsertedCount int64 `json:"upsertedCount"`
}

type queryRequest struct {
	Namespace string         `json:"namespace,omitempty"`
	Vector    []float32      `json:"vector"`
	TopK      int            `json:"topK"`
	Filter    map[string]any `json:"filter,omitempty"`
}

type queryResponse struct {
	Matches []struct {
		ID    string  `json:"id"`
		Score float64 `json:"score"`
	} `json:"matches"`
}

// Upsert stores or replaces a node's vector, keyed by node id
func (x *Index) Upsert(ctx context.Context, ownerID, nodeID string, vec []float32, kind string) error {
	req := upsertRequest{
		Namespace: x.namespace,
		Vectors: []vector{{
			ID:     nodeID,
			Values: vec,
			Metadata: map[string]any{
				"ownerId": ownerID,
				"kind":    kind,
			},
		}},
	}

	var resp upsertResponse
	if err := x.do(ctx, "/vectors/upsert", req, &resp); err != nil {
		return pkgerrors.NewExternalError(pkgerrors.ServiceIndex, err)
	}
	return nil
}

// Query returns up to k neighbors ranked by similarity. ExcludeIDs are
// filtered server-side via metadata; the caller still guards against the
// filter being ignored.
func (x *Index) Query(ctx context.Context, vec []float32, k int, filter ports.NeighborFilter) ([]ports.NeighborMatch, error) {
	meta := map[string]any{
		"ownerId": map[string]any{"$eq": filter.OwnerID},
	}
	if filter.Kind != "" {
		meta["kind"] = map[string]any{"$eq": filter.Kind}
	}

	req := queryRequest{
		Namespace: x.namespace,
		Vector:    vec,
		TopK:      k + len(filter.ExcludeIDs),
		Filter:    meta,
	}

	var resp queryResponse
	if err := x.do(ctx, "/query", req, &resp); err != nil {
		return nil, pkgerrors.NewExternalError(pkgerrors.ServiceIndex, err)
	}

	excluded := make(map[string]bool, len(filter.ExcludeIDs))
	for _, id := range filter.ExcludeIDs {
		excluded[id] = true
	}

	matches := make([]ports.NeighborMatch, 0, k)
	for _, m := range resp.Matches {
		if excluded[m.ID] {
			continue
		}
		matches = append(matches, ports.NeighborMatch{NodeID: m.ID, Score: m.Score})
		if len(matches) == k {
			break
		}
	}

	x.logger.Debug("neighbor query finished",
		zap.Int("requested", k),
		zap.Int("returned", len(matches)),
	)

	return matches, nil
}

func (x *Index) do(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://"+x.host+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Api-Key", x.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Pinecone-Api-Version", apiVersion)

	resp, err := x.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("pinecone %s returned %d: %s", path, resp.StatusCode, string(raw))
	}

	return json.Unmarshal(raw, out)
}

var _ ports.NearestNeighborIndex = (*Index)(nil)
