// Package memory provides in-memory repository implementations used for
// local development and as test fixtures. Iteration order over a store
// follows insertion order, matching the documented "first match in
// repository iteration order" tie-break.
package memory

import (
	"context"
	"sync"

	"notegraph-backend/application/ports"
	"notegraph-backend/domain/core/entities"
	"notegraph-backend/domain/core/valueobjects"
	pkgerrors "notegraph-backend/pkg/errors"
)

// NodeRepository is an in-memory ports.NodeRepository
type NodeRepository struct {
	mu    sync.RWMutex
	order []string
	nodes map[string]*entities.Node
}

// NewNodeRepository creates an empty in-memory node repository
func NewNodeRepository() *NodeRepository {
	return &NodeRepository{
		nodes: make(map[string]*entities.Node),
	}
}

// Save stores or replaces a node
func (r *NodeRepository) Save(_ context.Context, node *entities.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := node.ID().String()
	if _, exists := r.nodes[key]; !exists {
		r.order = append(r.order, key)
	}
	r.nodes[key] = node
	return nil
}

// FindByID returns the node or NotFoundError
func (r *NodeRepository) FindByID(_ context.Context, ownerID string, id valueobjects.NodeID) (*entities.Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	node, exists := r.nodes[id.String()]
	if !exists || node.OwnerID() != ownerID {
		return nil, pkgerrors.NewNotFoundError("node")
	}
	return node, nil
}

// FindByOwner returns the owner's nodes in insertion order
func (r *NodeRepository) FindByOwner(_ context.Context, ownerID string) ([]*entities.Node, error) {
	return r.filter(func(n *entities.Node) bool {
		return n.OwnerID() == ownerID
	}), nil
}

// FindByKind returns the owner's nodes of one kind in insertion order
func (r *NodeRepository) FindByKind(_ context.Context, ownerID string, kind entities.NodeKind) ([]*entities.Node, error) {
	return r.filter(func(n *entities.Node) bool {
		return n.OwnerID() == ownerID && n.Kind() == kind
	}), nil
}

// FindBySourceID returns the nodes produced from one source record
func (r *NodeRepository) FindBySourceID(_ context.Context, ownerID, sourceID string) ([]*entities.Node, error) {
	return r.filter(func(n *entities.Node) bool {
		return n.OwnerID() == ownerID && n.SourceID() == sourceID
	}), nil
}

// FindByParent returns the nodes nested under a parent node
func (r *NodeRepository) FindByParent(_ context.Context, ownerID, parentNodeID string) ([]*entities.Node, error) {
	return r.filter(func(n *entities.Node) bool {
		return n.OwnerID() == ownerID && n.ParentNodeID() == parentNodeID
	}), nil
}

// Delete removes the node record or returns NotFoundError
func (r *NodeRepository) Delete(_ context.Context, ownerID string, id valueobjects.NodeID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := id.String()
	node, exists := r.nodes[key]
	if !exists || node.OwnerID() != ownerID {
		return pkgerrors.NewNotFoundError("node")
	}

	delete(r.nodes, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *NodeRepository) filter(keep func(*entities.Node) bool) []*entities.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*entities.Node, 0)
	for _, key := range r.order {
		if node := r.nodes[key]; keep(node) {
			matched = append(matched, node)
		}
	}
	return matched
}

var _ ports.NodeRepository = (*NodeRepository)(nil)
