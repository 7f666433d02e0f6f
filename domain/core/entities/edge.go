package entities

import (
	"time"

	"notegraph-backend/domain/core/valueobjects"
	pkgerrors "notegraph-backend/pkg/errors"
)

// Edge is a directed, optionally labeled connection between two nodes.
// Duplicate edges between the same pair are permitted; self-loops are not.
type Edge struct {
	id        valueobjects.EdgeID
	ownerID   string
	sourceID  valueobjects.NodeID
	targetID  valueobjects.NodeID
	label     string
	createdAt time.Time
}

// NewEdge creates a new edge with validation
func NewEdge(ownerID string, sourceID, targetID valueobjects.NodeID, label string) (*Edge, error) {
	if ownerID == "" {
		return nil, pkgerrors.NewValidationError("ownerID cannot be empty")
	}
	if sourceID.IsZero() || targetID.IsZero() {
		return nil, pkgerrors.NewValidationError("source and target node IDs are required")
	}
	if sourceID.Equals(targetID) {
		return nil, pkgerrors.NewValidationError("cannot create an edge from a node to itself")
	}

	return &Edge{
		id:        valueobjects.NewEdgeID(),
		ownerID:   ownerID,
		sourceID:  sourceID,
		targetID:  targetID,
		label:     label,
		createdAt: time.Now(),
	}, nil
}

// ReconstructEdge rebuilds an edge from repository data
func ReconstructEdge(id valueobjects.EdgeID, ownerID string, sourceID, targetID valueobjects.NodeID, label string, createdAt time.Time) (*Edge, error) {
	if ownerID == "" {
		return nil, pkgerrors.NewValidationError("ownerID cannot be empty")
	}
	return &Edge{
		id:        id,
		ownerID:   ownerID,
		sourceID:  sourceID,
		targetID:  targetID,
		label:     label,
		createdAt: createdAt,
	}, nil
}

// ID returns the edge's unique identifier
func (e *Edge) ID() valueobjects.EdgeID { return e.id }

// OwnerID returns the owner's ID
func (e *Edge) OwnerID() string { return e.ownerID }

// SourceID returns the source node ID
func (e *Edge) SourceID() valueobjects.NodeID { return e.sourceID }

// TargetID returns the target node ID
func (e *Edge) TargetID() valueobjects.NodeID { return e.targetID }

// Label returns the edge label (e.g. "87%" for similarity edges)
func (e *Edge) Label() string { return e.label }

// CreatedAt returns when the edge was created
func (e *Edge) CreatedAt() time.Time { return e.createdAt }

// Touches reports whether the edge is incident to the given node
func (e *Edge) Touches(nodeID valueobjects.NodeID) bool {
	return e.sourceID.Equals(nodeID) || e.targetID.Equals(nodeID)
}
