package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"notegraph-backend/application/ports"
	"notegraph-backend/domain/core/entities"
	"notegraph-backend/domain/core/valueobjects"
	domainservices "notegraph-backend/domain/services"
	pkgerrors "notegraph-backend/pkg/errors"
)

// Backlink pairs a linking node with the label of the edge that links it
type Backlink struct {
	Node      *entities.Node
	EdgeLabel string
}

// TextualBacklink is a note that references a title in its content,
// paired with that note's own display title
type TextualBacklink struct {
	Node  *entities.Node
	Title string
}

// LinkService resolves wiki-style references between notes: title lookup,
// navigate-or-create, and both edge-based and text-based backlinks.
type LinkService struct {
	nodeRepo  ports.NodeRepository
	edgeRepo  ports.EdgeRepository
	parser    domainservices.ContentParser
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewLinkService creates a new link service
func NewLinkService(
	nodeRepo ports.NodeRepository,
	edgeRepo ports.EdgeRepository,
	parser domainservices.ContentParser,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *LinkService {
	return &LinkService{
		nodeRepo:  nodeRepo,
		edgeRepo:  edgeRepo,
		parser:    parser,
		publisher: publisher,
		logger:    logger,
	}
}

// FindNodeByTitle matches the title case-insensitively against the derived
// display title of every note node and returns the first match in
// repository iteration order, or nil when nothing matches. When several
// notes share a title, which one wins is unspecified.
func (s *LinkService) FindNodeByTitle(ctx context.Context, ownerID, title string) (*entities.Node, error) {
	if strings.TrimSpace(title) == "" {
		return nil, pkgerrors.NewValidationError("title cannot be empty")
	}

	notes, err := s.nodeRepo.FindByKind(ctx, ownerID, entities.KindNote)
	if err != nil {
		return nil, err
	}

	want := strings.ToLower(strings.TrimSpace(title))
	for _, note := range notes {
		if strings.ToLower(s.parser.ExtractTitle(note.Content())) == want {
			return note, nil
		}
	}

	return nil, nil
}

// ResolveOrCreate returns the note matching the title, creating a minimal
// heading-stub note when no match exists. This is the navigate-or-create
// semantics behind following a reference to a note that does not exist yet.
func (s *LinkService) ResolveOrCreate(ctx context.Context, ownerID, title string) (*entities.Node, error) {
	existing, err := s.FindNodeByTitle(ctx, ownerID, title)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	position, err := valueobjects.NewPosition(0, 0)
	if err != nil {
		return nil, err
	}

	stub := fmt.Sprintf("# %s", strings.TrimSpace(title))
	node, err := entities.NewNode(ownerID, entities.KindNote, stub, position, s.parser)
	if err != nil {
		return nil, err
	}

	if err := s.nodeRepo.Save(ctx, node); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to save note stub")
	}

	if s.publisher != nil {
		if err := s.publisher.PublishBatch(ctx, node.GetUncommittedEvents()); err != nil {
			s.logger.Warn("failed to publish domain events", zap.Error(err))
		}
	}
	node.MarkEventsAsCommitted()

	s.logger.Debug("created note stub for unresolved reference",
		zap.String("nodeID", node.ID().String()),
		zap.String("title", title),
	)

	return node, nil
}

// GetBacklinks returns every node holding an edge into the given node,
// paired with the edge's label. Edges whose source node no longer resolves
// are dropped: an interrupted cascade delete can leave a dangling edge
// behind, and this read path is where that gap is papered over.
func (s *LinkService) GetBacklinks(ctx context.Context, ownerID string, nodeID valueobjects.NodeID) ([]Backlink, error) {
	edges, err := s.edgeRepo.FindByTarget(ctx, ownerID, nodeID)
	if err != nil {
		return nil, err
	}

	backlinks := make([]Backlink, 0, len(edges))
	for _, edge := range edges {
		source, err := s.nodeRepo.FindByID(ctx, ownerID, edge.SourceID())
		if err != nil {
			if pkgerrors.IsNotFound(err) {
				s.logger.Warn("dropping dangling edge from backlinks",
					zap.String("edgeID", edge.ID().String()),
					zap.String("sourceID", edge.SourceID().String()),
				)
				continue
			}
			return nil, err
		}
		backlinks = append(backlinks, Backlink{Node: source, EdgeLabel: edge.Label()})
	}

	return backlinks, nil
}

// GetTextualBacklinks returns every note whose content references the
// title, matched case-insensitively against the note's cached
// outgoingLinks or, failing that, a live re-scan of its raw content. The
// re-scan covers notes persisted before outgoingLinks was derived. Results
// are de-duplicated by node id and carry each note's own display title.
func (s *LinkService) GetTextualBacklinks(ctx context.Context, ownerID, title string) ([]TextualBacklink, error) {
	if strings.TrimSpace(title) == "" {
		return nil, pkgerrors.NewValidationError("title cannot be empty")
	}

	notes, err := s.nodeRepo.FindByKind(ctx, ownerID, entities.KindNote)
	if err != nil {
		return nil, err
	}

	want := strings.ToLower(strings.TrimSpace(title))
	seen := make(map[string]bool, len(notes))
	results := make([]TextualBacklink, 0)

	for _, note := range notes {
		id := note.ID().String()
		if seen[id] {
			continue
		}

		if !containsTitle(note.OutgoingLinks(), want) &&
			!containsTitle(s.parser.ExtractReferencedTitles(note.Content()), want) {
			continue
		}

		seen[id] = true
		results = append(results, TextualBacklink{
			Node:  note,
			Title: s.parser.ExtractTitle(note.Content()),
		})
	}

	return results, nil
}

func containsTitle(titles []string, want string) bool {
	for _, t := range titles {
		if t == want {
			return true
		}
	}
	return false
}
