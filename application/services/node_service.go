package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"notegraph-backend/application/ports"
	"notegraph-backend/domain/core/entities"
	"notegraph-backend/domain/core/valueobjects"
	"notegraph-backend/domain/events"
	pkgerrors "notegraph-backend/pkg/errors"
)

// NodeService owns node and edge lifecycle: creation, partial updates,
// cascade deletion, and the listing queries. Multi-record operations
// (cascade delete) are composed here from single-record repository calls
// and are not transactional.
type NodeService struct {
	nodeRepo  ports.NodeRepository
	edgeRepo  ports.EdgeRepository
	parser    entities.LinkExtractor
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewNodeService creates a new node service
func NewNodeService(
	nodeRepo ports.NodeRepository,
	edgeRepo ports.EdgeRepository,
	parser entities.LinkExtractor,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *NodeService {
	return &NodeService{
		nodeRepo:  nodeRepo,
		edgeRepo:  edgeRepo,
		parser:    parser,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateNodeInput carries the fields for node creation. Kind, Content and
// the position are required; everything else receives its default.
type CreateNodeInput struct {
	Kind            entities.NodeKind
	Content         string
	X               float64
	Y               float64
	Width           float64
	Height          float64
	SourceKind      entities.SourceKind
	SourceID        string
	SourceURL       string
	ParentNodeID    string
	MessageRef      string
	ConversationRef string
}

// CreateNode creates a node for the owner. The node's id, timestamps,
// default size and default source kind are assigned here; outgoingLinks
// is derived from the content.
func (s *NodeService) CreateNode(ctx context.Context, ownerID string, in CreateNodeInput) (*entities.Node, error) {
	position, err := valueobjects.NewPosition(in.X, in.Y)
	if err != nil {
		return nil, err
	}

	node, err := entities.NewNode(ownerID, in.Kind, in.Content, position, s.parser)
	if err != nil {
		return nil, err
	}

	if in.Width != 0 || in.Height != 0 {
		size, err := valueobjects.NewSize(in.Width, in.Height)
		if err != nil {
			return nil, err
		}
		if err := node.Resize(size); err != nil {
			return nil, err
		}
	}
	if in.SourceKind != "" {
		if err := node.SetSource(in.SourceKind, in.SourceID, in.SourceURL); err != nil {
			return nil, err
		}
	}
	if in.ParentNodeID != "" {
		node.SetParent(in.ParentNodeID)
	}
	if in.MessageRef != "" || in.ConversationRef != "" {
		node.SetChatRefs(in.MessageRef, in.ConversationRef)
	}

	if err := s.nodeRepo.Save(ctx, node); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to save node")
	}

	s.publishEvents(ctx, node.GetUncommittedEvents())
	node.MarkEventsAsCommitted()

	s.logger.Debug("node created",
		zap.String("nodeID", node.ID().String()),
		zap.String("ownerID", ownerID),
		zap.String("kind", string(in.Kind)),
	)

	return node, nil
}

// UpdateNodeInput carries a partial field set for updateNode. Nil pointers
// mean "leave unchanged"; Width and Height must be provided together.
type UpdateNodeInput struct {
	Content         *string
	X               *float64
	Y               *float64
	Width           *float64
	Height          *float64
	SourceKind      *entities.SourceKind
	SourceID        *string
	SourceURL       *string
	ParentNodeID    *string
	MessageRef      *string
	ConversationRef *string
}

// UpdateNode merges the provided fields into the node and saves it.
// updatedAt is bumped on every call, even when the input changes nothing.
// A content update recomputes outgoingLinks.
func (s *NodeService) UpdateNode(ctx context.Context, ownerID string, id valueobjects.NodeID, in UpdateNodeInput) (*entities.Node, error) {
	node, err := s.nodeRepo.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if in.Content != nil {
		if err := node.UpdateContent(*in.Content, s.parser); err != nil {
			return nil, err
		}
	}
	if in.X != nil || in.Y != nil {
		x, y := node.Position().X(), node.Position().Y()
		if in.X != nil {
			x = *in.X
		}
		if in.Y != nil {
			y = *in.Y
		}
		position, err := valueobjects.NewPosition(x, y)
		if err != nil {
			return nil, err
		}
		node.MoveTo(position)
	}
	if in.Width != nil || in.Height != nil {
		w, h := node.Size().Width(), node.Size().Height()
		if in.Width != nil {
			w = *in.Width
		}
		if in.Height != nil {
			h = *in.Height
		}
		size, err := valueobjects.NewSize(w, h)
		if err != nil {
			return nil, err
		}
		if err := node.Resize(size); err != nil {
			return nil, err
		}
	}
	if in.SourceKind != nil || in.SourceID != nil || in.SourceURL != nil {
		kind := node.SourceKind()
		if in.SourceKind != nil {
			kind = *in.SourceKind
		}
		sourceID := node.SourceID()
		if in.SourceID != nil {
			sourceID = *in.SourceID
		}
		sourceURL := node.SourceURL()
		if in.SourceURL != nil {
			sourceURL = *in.SourceURL
		}
		if err := node.SetSource(kind, sourceID, sourceURL); err != nil {
			return nil, err
		}
	}
	if in.ParentNodeID != nil {
		node.SetParent(*in.ParentNodeID)
	}
	if in.MessageRef != nil || in.ConversationRef != nil {
		messageRef := node.MessageRef()
		if in.MessageRef != nil {
			messageRef = *in.MessageRef
		}
		conversationRef := node.ConversationRef()
		if in.ConversationRef != nil {
			conversationRef = *in.ConversationRef
		}
		node.SetChatRefs(messageRef, conversationRef)
	}

	// Every update bumps updatedAt, including an empty field set.
	node.Touch()

	if err := s.nodeRepo.Save(ctx, node); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to save node")
	}

	s.publishEvents(ctx, node.GetUncommittedEvents())
	node.MarkEventsAsCommitted()

	return node, nil
}

// GetNode retrieves a node by id
func (s *NodeService) GetNode(ctx context.Context, ownerID string, id valueobjects.NodeID) (*entities.Node, error) {
	return s.nodeRepo.FindByID(ctx, ownerID, id)
}

// ListNodesByOwner returns all of an owner's nodes
func (s *NodeService) ListNodesByOwner(ctx context.Context, ownerID string) ([]*entities.Node, error) {
	return s.nodeRepo.FindByOwner(ctx, ownerID)
}

// ListNodesByKind returns an owner's nodes of one kind
func (s *NodeService) ListNodesByKind(ctx context.Context, ownerID string, kind entities.NodeKind) ([]*entities.Node, error) {
	if !kind.IsValid() {
		return nil, pkgerrors.NewValidationError("kind must be one of: text, chat_reference, note")
	}
	return s.nodeRepo.FindByKind(ctx, ownerID, kind)
}

// ListNodesBySource returns the nodes produced from one source record
func (s *NodeService) ListNodesBySource(ctx context.Context, ownerID, sourceID string) ([]*entities.Node, error) {
	if sourceID == "" {
		return nil, pkgerrors.NewValidationError("sourceID cannot be empty")
	}
	return s.nodeRepo.FindBySourceID(ctx, ownerID, sourceID)
}

// ListNodesByParent returns the nodes nested under a parent node
func (s *NodeService) ListNodesByParent(ctx context.Context, ownerID, parentNodeID string) ([]*entities.Node, error) {
	if parentNodeID == "" {
		return nil, pkgerrors.NewValidationError("parentNodeID cannot be empty")
	}
	return s.nodeRepo.FindByParent(ctx, ownerID, parentNodeID)
}

// DeleteNode deletes the node, then sequentially deletes every edge whose
// source or target is the node. The steps are not atomic with each other:
// a failure partway through can leave a dangling edge, which read paths
// filter defensively.
func (s *NodeService) DeleteNode(ctx context.Context, ownerID string, id valueobjects.NodeID) error {
	if _, err := s.nodeRepo.FindByID(ctx, ownerID, id); err != nil {
		return err
	}

	if err := s.nodeRepo.Delete(ctx, ownerID, id); err != nil {
		return pkgerrors.Wrap(err, "failed to delete node")
	}

	removed := 0
	outgoing, err := s.edgeRepo.FindBySource(ctx, ownerID, id)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to list outgoing edges for cascade delete")
	}
	for _, edge := range outgoing {
		if err := s.edgeRepo.Delete(ctx, ownerID, edge.ID()); err != nil {
			return pkgerrors.NewConsistencyError(
				fmt.Sprintf("cascade delete left dangling edge %s", edge.ID().String()),
			).WithCause(err)
		}
		removed++
	}

	incoming, err := s.edgeRepo.FindByTarget(ctx, ownerID, id)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to list incoming edges for cascade delete")
	}
	for _, edge := range incoming {
		if err := s.edgeRepo.Delete(ctx, ownerID, edge.ID()); err != nil {
			return pkgerrors.NewConsistencyError(
				fmt.Sprintf("cascade delete left dangling edge %s", edge.ID().String()),
			).WithCause(err)
		}
		removed++
	}

	s.publishEvents(ctx, []events.DomainEvent{
		events.NewNodeDeleted(id, ownerID, removed, time.Now()),
	})

	s.logger.Info("node deleted",
		zap.String("nodeID", id.String()),
		zap.String("ownerID", ownerID),
		zap.Int("edgesRemoved", removed),
	)

	return nil
}

// CreateEdge creates a directed edge between two nodes. Neither endpoint's
// existence is verified; duplicate edges between the same pair are allowed.
// Self-loops are rejected with a validation error.
func (s *NodeService) CreateEdge(ctx context.Context, ownerID string, sourceID, targetID valueobjects.NodeID, label string) (*entities.Edge, error) {
	edge, err := entities.NewEdge(ownerID, sourceID, targetID, label)
	if err != nil {
		return nil, err
	}

	if err := s.edgeRepo.Save(ctx, edge); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to save edge")
	}

	s.publishEvents(ctx, []events.DomainEvent{
		events.NewEdgeCreated(edge.ID(), sourceID, targetID, label, edge.CreatedAt()),
	})

	return edge, nil
}

// DeleteEdge removes a single edge
func (s *NodeService) DeleteEdge(ctx context.Context, ownerID string, id valueobjects.EdgeID) error {
	edge, err := s.edgeRepo.FindByID(ctx, ownerID, id)
	if err != nil {
		return err
	}

	if err := s.edgeRepo.Delete(ctx, ownerID, id); err != nil {
		return pkgerrors.Wrap(err, "failed to delete edge")
	}

	s.publishEvents(ctx, []events.DomainEvent{
		events.NewEdgeDeleted(edge.ID(), time.Now()),
	})

	return nil
}

// ListEdgesByOwner returns all of an owner's edges
func (s *NodeService) ListEdgesByOwner(ctx context.Context, ownerID string) ([]*entities.Edge, error) {
	return s.edgeRepo.FindByOwner(ctx, ownerID)
}

// GetEdge retrieves an edge by id
func (s *NodeService) GetEdge(ctx context.Context, ownerID string, id valueobjects.EdgeID) (*entities.Edge, error) {
	return s.edgeRepo.FindByID(ctx, ownerID, id)
}

// publishEvents publishes domain events best-effort: failures are logged
// and never fail the originating operation.
func (s *NodeService) publishEvents(ctx context.Context, evts []events.DomainEvent) {
	if s.publisher == nil || len(evts) == 0 {
		return
	}
	if err := s.publisher.PublishBatch(ctx, evts); err != nil {
		s.logger.Warn("failed to publish domain events",
			zap.Int("count", len(evts)),
			zap.Error(err),
		)
	}
}
