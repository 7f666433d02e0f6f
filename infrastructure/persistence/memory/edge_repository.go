package memory

import (
	"context"
	"sync"

	"notegraph-backend/application/ports"
	"notegraph-backend/domain/core/entities"
	"notegraph-backend/domain/core/valueobjects"
	pkgerrors "notegraph-backend/pkg/errors"
)

// EdgeRepository is an in-memory ports.EdgeRepository
type EdgeRepository struct {
	mu    sync.RWMutex
	order []string
	edges map[string]*entities.Edge
}

// NewEdgeRepository creates an empty in-memory edge repository
func NewEdgeRepository() *EdgeRepository {
	return &EdgeRepository{
		edges: make(map[string]*entities.Edge),
	}
}

// Save stores or replaces an edge
func (r *EdgeRepository) Save(_ context.Context, edge *entities.Edge) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := edge.ID().String()
	if _, exists := r.edges[key]; !exists {
		r.order = append(r.order, key)
	}
	r.edges[key] = edge
	return nil
}

// FindByID returns the edge or NotFoundError
func (r *EdgeRepository) FindByID(_ context.Context, ownerID string, id valueobjects.EdgeID) (*entities.Edge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	edge, exists := r.edges[id.String()]
	if !exists || edge.OwnerID() != ownerID {
		return nil, pkgerrors.NewNotFoundError("edge")
	}
	return edge, nil
}

// FindByOwner returns the owner's edges in insertion order
func (r *EdgeRepository) FindByOwner(_ context.Context, ownerID string) ([]*entities.Edge, error) {
	return r.filter(func(e *entities.Edge) bool {
		return e.OwnerID() == ownerID
	}), nil
}

// FindBySource returns the edges leaving a node
func (r *EdgeRepository) FindBySource(_ context.Context, ownerID string, sourceID valueobjects.NodeID) ([]*entities.Edge, error) {
	return r.filter(func(e *entities.Edge) bool {
		return e.OwnerID() == ownerID && e.SourceID().Equals(sourceID)
	}), nil
}

// FindByTarget returns the edges entering a node
func (r *EdgeRepository) FindByTarget(_ context.Context, ownerID string, targetID valueobjects.NodeID) ([]*entities.Edge, error) {
	return r.filter(func(e *entities.Edge) bool {
		return e.OwnerID() == ownerID && e.TargetID().Equals(targetID)
	}), nil
}

// Delete removes the edge record or returns NotFoundError
func (r *EdgeRepository) Delete(_ context.Context, ownerID string, id valueobjects.EdgeID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := id.String()
	edge, exists := r.edges[key]
	if !exists || edge.OwnerID() != ownerID {
		return pkgerrors.NewNotFoundError("edge")
	}

	delete(r.edges, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *EdgeRepository) filter(keep func(*entities.Edge) bool) []*entities.Edge {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*entities.Edge, 0)
	for _, key := range r.order {
		if edge := r.edges[key]; keep(edge) {
			matched = append(matched, edge)
		}
	}
	return matched
}

var _ ports.EdgeRepository = (*EdgeRepository)(nil)
