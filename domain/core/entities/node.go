package entities

import (
	"time"

	"notegraph-backend/domain/core/valueobjects"
	"notegraph-backend/domain/events"
	pkgerrors "notegraph-backend/pkg/errors"
)

// NodeKind represents the kind of content unit a node holds
type NodeKind string

const (
	KindText          NodeKind = "text"
	KindChatReference NodeKind = "chat_reference"
	KindNote          NodeKind = "note"
)

// IsValid reports whether the kind is one of the known node kinds
func (k NodeKind) IsValid() bool {
	switch k {
	case KindText, KindChatReference, KindNote:
		return true
	}
	return false
}

// SourceKind records where a node originated
type SourceKind string

const (
	SourceManual      SourceKind = "manual"
	SourceVoice       SourceKind = "voice"
	SourceChat        SourceKind = "chat"
	SourceAIExtracted SourceKind = "ai_extracted"
	SourceWeb         SourceKind = "web"
	SourceYouTube     SourceKind = "youtube"
	SourceReadwise    SourceKind = "readwise"
)

// IsValid reports whether the source kind is known
func (s SourceKind) IsValid() bool {
	switch s {
	case SourceManual, SourceVoice, SourceChat, SourceAIExtracted, SourceWeb, SourceYouTube, SourceReadwise:
		return true
	}
	return false
}

// LinkExtractor derives the referenced titles from raw content. The node
// entity keeps outgoingLinks as a pure function of content by re-running
// the extractor on every content write.
type LinkExtractor interface {
	ExtractReferencedTitles(content string) []string
}

// Node is the main entity representing a content unit on the graph
// This is a rich domain model with encapsulated business logic
type Node struct {
	id              valueobjects.NodeID
	ownerID         string
	kind            NodeKind
	content         string
	position        valueobjects.Position
	size            valueobjects.Size
	messageRef      string
	conversationRef string
	sourceKind      SourceKind
	sourceID        string
	sourceURL       string
	parentNodeID    string
	outgoingLinks   []string
	embedding       []float32
	createdAt       time.Time
	updatedAt       time.Time

	// Domain events that occurred during this entity's lifetime
	events []events.DomainEvent
}

// NewNode creates a new node with full business rule validation.
// outgoingLinks is derived from content via the extractor; size and
// sourceKind receive their defaults when unset.
func NewNode(ownerID string, kind NodeKind, content string, position valueobjects.Position, extractor LinkExtractor) (*Node, error) {
	if ownerID == "" {
		return nil, pkgerrors.NewValidationError("ownerID cannot be empty")
	}
	if !kind.IsValid() {
		return nil, pkgerrors.NewValidationError("kind must be one of: text, chat_reference, note")
	}
	if extractor == nil {
		return nil, pkgerrors.NewValidationError("link extractor is required")
	}

	now := time.Now()
	node := &Node{
		id:            valueobjects.NewNodeID(),
		ownerID:       ownerID,
		kind:          kind,
		content:       content,
		position:      position,
		size:          valueobjects.DefaultSize(),
		sourceKind:    SourceManual,
		outgoingLinks: extractor.ExtractReferencedTitles(content),
		createdAt:     now,
		updatedAt:     now,
		events:        []events.DomainEvent{},
	}

	node.addEvent(events.NewNodeCreated(
		node.id,
		ownerID,
		string(kind),
		string(node.sourceKind),
		node.sourceID,
		now,
	))

	return node, nil
}

// NodeSnapshot carries persisted node state for reconstruction
type NodeSnapshot struct {
	ID              valueobjects.NodeID
	OwnerID         string
	Kind            NodeKind
	Content         string
	Position        valueobjects.Position
	Size            valueobjects.Size
	MessageRef      string
	ConversationRef string
	SourceKind      SourceKind
	SourceID        string
	SourceURL       string
	ParentNodeID    string
	OutgoingLinks   []string
	Embedding       []float32
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ReconstructNode rebuilds a node from repository data with preserved
// timestamps. No events are recorded and no derivation runs: outgoingLinks
// is restored as written, which may be stale for records persisted before
// the derivation existed — link consumers fall back to a live content scan.
func ReconstructNode(s NodeSnapshot) (*Node, error) {
	if s.OwnerID == "" {
		return nil, pkgerrors.NewValidationError("ownerID cannot be empty")
	}
	if !s.Kind.IsValid() {
		return nil, pkgerrors.NewValidationError("kind must be one of: text, chat_reference, note")
	}

	size := s.Size
	if size.IsZero() {
		size = valueobjects.DefaultSize()
	}
	sourceKind := s.SourceKind
	if sourceKind == "" {
		sourceKind = SourceManual
	}

	return &Node{
		id:              s.ID,
		ownerID:         s.OwnerID,
		kind:            s.Kind,
		content:         s.Content,
		position:        s.Position,
		size:            size,
		messageRef:      s.MessageRef,
		conversationRef: s.ConversationRef,
		sourceKind:      sourceKind,
		sourceID:        s.SourceID,
		sourceURL:       s.SourceURL,
		parentNodeID:    s.ParentNodeID,
		outgoingLinks:   s.OutgoingLinks,
		embedding:       s.Embedding,
		createdAt:       s.CreatedAt,
		updatedAt:       s.UpdatedAt,
		events:          []events.DomainEvent{},
	}, nil
}

// ID returns the node's unique identifier
func (n *Node) ID() valueobjects.NodeID { return n.id }

// OwnerID returns the owner's ID
func (n *Node) OwnerID() string { return n.ownerID }

// Kind returns the node kind
func (n *Node) Kind() NodeKind { return n.kind }

// Content returns the raw content
func (n *Node) Content() string { return n.content }

// Position returns the node's position
func (n *Node) Position() valueobjects.Position { return n.position }

// Size returns the node's size
func (n *Node) Size() valueobjects.Size { return n.size }

// MessageRef returns the referenced chat message, if any
func (n *Node) MessageRef() string { return n.messageRef }

// ConversationRef returns the referenced conversation, if any
func (n *Node) ConversationRef() string { return n.conversationRef }

// SourceKind returns where this node originated
func (n *Node) SourceKind() SourceKind { return n.sourceKind }

// SourceID returns the originating record ID (e.g. a voice note)
func (n *Node) SourceID() string { return n.sourceID }

// SourceURL returns the originating URL, if any
func (n *Node) SourceURL() string { return n.sourceURL }

// ParentNodeID returns the parent node ID, if any
func (n *Node) ParentNodeID() string { return n.parentNodeID }

// OutgoingLinks returns the cached referenced titles (lowercased,
// first-seen order). This is a cache over content, not a source of truth.
func (n *Node) OutgoingLinks() []string {
	links := make([]string, len(n.outgoingLinks))
	copy(links, n.outgoingLinks)
	return links
}

// Embedding returns the node's embedding vector, or nil when the node has
// never been embedded (and is therefore excluded from similarity search)
func (n *Node) Embedding() []float32 {
	if n.embedding == nil {
		return nil
	}
	vec := make([]float32, len(n.embedding))
	copy(vec, n.embedding)
	return vec
}

// HasEmbedding reports whether the node carries an embedding vector
func (n *Node) HasEmbedding() bool { return len(n.embedding) > 0 }

// CreatedAt returns when the node was created
func (n *Node) CreatedAt() time.Time { return n.createdAt }

// UpdatedAt returns when the node was last updated
func (n *Node) UpdatedAt() time.Time { return n.updatedAt }

// UpdateContent replaces the node's content and recomputes outgoingLinks
func (n *Node) UpdateContent(content string, extractor LinkExtractor) error {
	if extractor == nil {
		return pkgerrors.NewValidationError("link extractor is required")
	}

	n.content = content
	n.outgoingLinks = extractor.ExtractReferencedTitles(content)
	n.Touch()

	n.addEvent(events.NewNodeContentUpdated(n.id, n.OutgoingLinks(), n.updatedAt))

	return nil
}

// MoveTo moves the node to a new position
func (n *Node) MoveTo(position valueobjects.Position) {
	if position.Equals(n.position) {
		return
	}
	n.position = position
	n.Touch()
}

// Resize changes the node's dimensions
func (n *Node) Resize(size valueobjects.Size) error {
	if size.IsZero() {
		return pkgerrors.NewValidationError("size dimensions must be positive")
	}
	n.size = size
	n.Touch()
	return nil
}

// SetSource records where the node originated
func (n *Node) SetSource(kind SourceKind, sourceID, sourceURL string) error {
	if !kind.IsValid() {
		return pkgerrors.NewValidationError("unknown source kind")
	}
	n.sourceKind = kind
	n.sourceID = sourceID
	n.sourceURL = sourceURL
	n.Touch()
	return nil
}

// SetParent links the node under a parent node
func (n *Node) SetParent(parentNodeID string) {
	n.parentNodeID = parentNodeID
	n.Touch()
}

// SetChatRefs attaches chat message/conversation references
func (n *Node) SetChatRefs(messageRef, conversationRef string) {
	n.messageRef = messageRef
	n.conversationRef = conversationRef
	n.Touch()
}

// UpdateEmbedding replaces the node's embedding vector. Once set, the
// embedding only changes through an explicit re-embed via this method.
func (n *Node) UpdateEmbedding(vector []float32) error {
	if len(vector) == 0 {
		return pkgerrors.NewValidationError("embedding vector cannot be empty")
	}
	n.embedding = make([]float32, len(vector))
	copy(n.embedding, vector)
	n.Touch()
	return nil
}

// GetUncommittedEvents returns all uncommitted domain events
func (n *Node) GetUncommittedEvents() []events.DomainEvent {
	return n.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (n *Node) MarkEventsAsCommitted() {
	n.events = []events.DomainEvent{}
}

func (n *Node) addEvent(event events.DomainEvent) {
	n.events = append(n.events, event)
}

// Touch bumps updatedAt. Every write through UpdateNode bumps the
// timestamp even when no field changed value.
func (n *Node) Touch() {
	n.updatedAt = time.Now()
}
