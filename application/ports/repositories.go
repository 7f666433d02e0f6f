package ports

import (
	"context"

	"notegraph-backend/domain/core/entities"
	"notegraph-backend/domain/core/valueobjects"
)

// NodeRepository persists nodes. Single-record operations are atomic;
// anything multi-record is composed above this interface and is not.
type NodeRepository interface {
	// Save creates or replaces a node record
	Save(ctx context.Context, node *entities.Node) error

	// FindByID retrieves a node scoped to its owner
	FindByID(ctx context.Context, ownerID string, id valueobjects.NodeID) (*entities.Node, error)

	// FindByOwner retrieves all nodes for an owner. Iteration order follows
	// the backing index and is not otherwise guaranteed.
	FindByOwner(ctx context.Context, ownerID string) ([]*entities.Node, error)

	// FindByKind retrieves an owner's nodes of one kind
	FindByKind(ctx context.Context, ownerID string, kind entities.NodeKind) ([]*entities.Node, error)

	// FindBySourceID retrieves nodes originating from one source record
	// (e.g. all notes produced from a voice note)
	FindBySourceID(ctx context.Context, ownerID, sourceID string) ([]*entities.Node, error)

	// FindByParent retrieves nodes nested under a parent node
	FindByParent(ctx context.Context, ownerID, parentNodeID string) ([]*entities.Node, error)

	// Delete removes a single node record. Incident edges are NOT removed
	// here; cascade deletion is composed in the application layer.
	Delete(ctx context.Context, ownerID string, id valueobjects.NodeID) error
}

// EdgeRepository persists edges with by-source and by-target indexes
type EdgeRepository interface {
	// Save creates or replaces an edge record
	Save(ctx context.Context, edge *entities.Edge) error

	// FindByID retrieves an edge scoped to its owner
	FindByID(ctx context.Context, ownerID string, id valueobjects.EdgeID) (*entities.Edge, error)

	// FindByOwner retrieves all edges for an owner
	FindByOwner(ctx context.Context, ownerID string) ([]*entities.Edge, error)

	// FindBySource retrieves edges whose source is the given node
	FindBySource(ctx context.Context, ownerID string, sourceID valueobjects.NodeID) ([]*entities.Edge, error)

	// FindByTarget retrieves edges whose target is the given node
	FindByTarget(ctx context.Context, ownerID string, targetID valueobjects.NodeID) ([]*entities.Edge, error)

	// Delete removes an edge record
	Delete(ctx context.Context, ownerID string, id valueobjects.EdgeID) error
}

// VoiceNoteRepository persists voice note records. The engine never
// deletes voice notes, so the interface offers no Delete.
type VoiceNoteRepository interface {
	// Save creates or replaces a voice note record
	Save(ctx context.Context, voiceNote *entities.VoiceNote) error

	// FindByID retrieves a voice note scoped to its owner
	FindByID(ctx context.Context, ownerID string, id valueobjects.VoiceNoteID) (*entities.VoiceNote, error)

	// FindByOwner retrieves all voice notes for an owner
	FindByOwner(ctx context.Context, ownerID string) ([]*entities.VoiceNote, error)

	// FindByStatus retrieves an owner's voice notes in one pipeline state
	FindByStatus(ctx context.Context, ownerID string, status entities.VoiceNoteStatus) ([]*entities.VoiceNote, error)
}
