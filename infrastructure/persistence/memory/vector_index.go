package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"notegraph-backend/application/ports"
)

type vectorEntry struct {
	ownerID string
	nodeID  string
	kind    string
	vector  []float32
}

// VectorIndex is an in-memory ports.NearestNeighborIndex ranking by cosine
// similarity. It exists for local development and tests; production uses
// the hosted index.
type VectorIndex struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]vectorEntry
}

// NewVectorIndex creates an empty in-memory vector index
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{
		entries: make(map[string]vectorEntry),
	}
}

// Upsert stores or replaces a node's vector
func (x *VectorIndex) Upsert(_ context.Context, ownerID, nodeID string, vector []float32, kind string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if _, exists := x.entries[nodeID]; !exists {
		x.order = append(x.order, nodeID)
	}
	stored := make([]float32, len(vector))
	copy(stored, vector)
	x.entries[nodeID] = vectorEntry{
		ownerID: ownerID,
		nodeID:  nodeID,
		kind:    kind,
		vector:  stored,
	}
	return nil
}

// Query returns up to k entries ranked by cosine similarity, scoped by the
// filter. Ties keep insertion order.
func (x *VectorIndex) Query(_ context.Context, vector []float32, k int, filter ports.NeighborFilter) ([]ports.NeighborMatch, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	excluded := make(map[string]bool, len(filter.ExcludeIDs))
	for _, id := range filter.ExcludeIDs {
		excluded[id] = true
	}

	matches := make([]ports.NeighborMatch, 0, len(x.entries))
	for _, id := range x.order {
		entry := x.entries[id]
		if entry.ownerID != filter.OwnerID || excluded[id] {
			continue
		}
		if filter.Kind != "" && entry.kind != filter.Kind {
			continue
		}
		matches = append(matches, ports.NeighborMatch{
			NodeID: id,
			Score:  cosineSimilarity(vector, entry.vector),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

var _ ports.NearestNeighborIndex = (*VectorIndex)(nil)
