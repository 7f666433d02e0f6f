package events

import (
	"time"

	"notegraph-backend/domain/core/valueobjects"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }

// NodeCreated is raised when a new node is created
type NodeCreated struct {
	BaseEvent
	NodeID     valueobjects.NodeID `json:"node_id"`
	OwnerID    string              `json:"owner_id"`
	Kind       string              `json:"kind"`
	SourceKind string              `json:"source_kind"`
	SourceID   string              `json:"source_id,omitempty"`
}

// NewNodeCreated creates a NodeCreated event
func NewNodeCreated(nodeID valueobjects.NodeID, ownerID, kind, sourceKind, sourceID string, timestamp time.Time) NodeCreated {
	return NodeCreated{
		BaseEvent: BaseEvent{
			AggregateID: nodeID.String(),
			EventType:   "node.created",
			Timestamp:   timestamp,
		},
		NodeID:     nodeID,
		OwnerID:    ownerID,
		Kind:       kind,
		SourceKind: sourceKind,
		SourceID:   sourceID,
	}
}

// NodeContentUpdated is raised when node content changes. OutgoingLinks
// carries the freshly recomputed referenced titles.
type NodeContentUpdated struct {
	BaseEvent
	NodeID        valueobjects.NodeID `json:"node_id"`
	OutgoingLinks []string            `json:"outgoing_links"`
}

// NewNodeContentUpdated creates a NodeContentUpdated event
func NewNodeContentUpdated(nodeID valueobjects.NodeID, outgoingLinks []string, timestamp time.Time) NodeContentUpdated {
	return NodeContentUpdated{
		BaseEvent: BaseEvent{
			AggregateID: nodeID.String(),
			EventType:   "node.content_updated",
			Timestamp:   timestamp,
		},
		NodeID:        nodeID,
		OutgoingLinks: outgoingLinks,
	}
}

// NodeDeleted is raised after a node and its incident edges are removed
type NodeDeleted struct {
	BaseEvent
	NodeID       valueobjects.NodeID `json:"node_id"`
	OwnerID      string              `json:"owner_id"`
	EdgesRemoved int                 `json:"edges_removed"`
}

// NewNodeDeleted creates a NodeDeleted event
func NewNodeDeleted(nodeID valueobjects.NodeID, ownerID string, edgesRemoved int, timestamp time.Time) NodeDeleted {
	return NodeDeleted{
		BaseEvent: BaseEvent{
			AggregateID: nodeID.String(),
			EventType:   "node.deleted",
			Timestamp:   timestamp,
		},
		NodeID:       nodeID,
		OwnerID:      ownerID,
		EdgesRemoved: edgesRemoved,
	}
}

// EdgeCreated is raised when a new edge is created
type EdgeCreated struct {
	BaseEvent
	EdgeID   valueobjects.EdgeID `json:"edge_id"`
	SourceID valueobjects.NodeID `json:"source_id"`
	TargetID valueobjects.NodeID `json:"target_id"`
	Label    string              `json:"label,omitempty"`
}

// NewEdgeCreated creates an EdgeCreated event
func NewEdgeCreated(edgeID valueobjects.EdgeID, sourceID, targetID valueobjects.NodeID, label string, timestamp time.Time) EdgeCreated {
	return EdgeCreated{
		BaseEvent: BaseEvent{
			AggregateID: edgeID.String(),
			EventType:   "edge.created",
			Timestamp:   timestamp,
		},
		EdgeID:   edgeID,
		SourceID: sourceID,
		TargetID: targetID,
		Label:    label,
	}
}

// EdgeDeleted is raised when an edge is removed
type EdgeDeleted struct {
	BaseEvent
	EdgeID valueobjects.EdgeID `json:"edge_id"`
}

// NewEdgeDeleted creates an EdgeDeleted event
func NewEdgeDeleted(edgeID valueobjects.EdgeID, timestamp time.Time) EdgeDeleted {
	return EdgeDeleted{
		BaseEvent: BaseEvent{
			AggregateID: edgeID.String(),
			EventType:   "edge.deleted",
			Timestamp:   timestamp,
		},
		EdgeID: edgeID,
	}
}

// VoiceNoteStatusChanged is raised on every ingestion pipeline transition
type VoiceNoteStatusChanged struct {
	BaseEvent
	VoiceNoteID  valueobjects.VoiceNoteID `json:"voice_note_id"`
	OwnerID      string                   `json:"owner_id"`
	OldStatus    string                   `json:"old_status"`
	NewStatus    string                   `json:"new_status"`
	ErrorMessage string                   `json:"error_message,omitempty"`
}

// NewVoiceNoteStatusChanged creates a VoiceNoteStatusChanged event
func NewVoiceNoteStatusChanged(id valueobjects.VoiceNoteID, ownerID, oldStatus, newStatus, errorMessage string, timestamp time.Time) VoiceNoteStatusChanged {
	return VoiceNoteStatusChanged{
		BaseEvent: BaseEvent{
			AggregateID: id.String(),
			EventType:   "voice_note.status_changed",
			Timestamp:   timestamp,
		},
		VoiceNoteID:  id,
		OwnerID:      ownerID,
		OldStatus:    oldStatus,
		NewStatus:    newStatus,
		ErrorMessage: errorMessage,
	}
}
