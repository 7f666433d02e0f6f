package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"notegraph-backend/application/ports"
	"notegraph-backend/domain/core/entities"
	"notegraph-backend/domain/core/valueobjects"
	"notegraph-backend/domain/events"
	pkgerrors "notegraph-backend/pkg/errors"
)

// DefaultNeighborCount is the number of nearest neighbors linked when the
// caller does not ask for a specific k
const DefaultNeighborCount = 3

// SimilarityService materializes semantic similarity as graph edges: it
// embeds a node's text, keeps the nearest-neighbor index in sync, and
// links the node to its top-k neighbors with score-labeled edges.
type SimilarityService struct {
	nodeRepo  ports.NodeRepository
	edgeRepo  ports.EdgeRepository
	embedder  ports.EmbeddingProvider
	index     ports.NearestNeighborIndex
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewSimilarityService creates a new similarity service
func NewSimilarityService(
	nodeRepo ports.NodeRepository,
	edgeRepo ports.EdgeRepository,
	embedder ports.EmbeddingProvider,
	index ports.NearestNeighborIndex,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *SimilarityService {
	return &SimilarityService{
		nodeRepo:  nodeRepo,
		edgeRepo:  edgeRepo,
		embedder:  embedder,
		index:     index,
		publisher: publisher,
		logger:    logger,
	}
}

// LinkBySimilarity embeds the text, persists the vector on the node,
// upserts it into the nearest-neighbor index, then links the node to up to
// k of its nearest neighbors (same owner, same kind, never itself or an
// excluded id) with edges labeled by the rounded match percentage.
//
// Each call is independent: neighbors are de-duplicated within the call
// only, so repeated calls with overlapping neighbor sets create duplicate
// parallel edges. k <= 0 selects DefaultNeighborCount.
func (s *SimilarityService) LinkBySimilarity(
	ctx context.Context,
	ownerID string,
	nodeID valueobjects.NodeID,
	text string,
	k int,
	excludeIDs []string,
) ([]*entities.Edge, error) {
	if k <= 0 {
		k = DefaultNeighborCount
	}

	node, err := s.nodeRepo.FindByID(ctx, ownerID, nodeID)
	if err != nil {
		return nil, err
	}

	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := node.UpdateEmbedding(vector); err != nil {
		return nil, err
	}
	if err := s.nodeRepo.Save(ctx, node); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to persist embedding")
	}

	// The index only answers for vectors it has seen, so this node must be
	// upserted before later calls can discover it as a neighbor.
	if err := s.index.Upsert(ctx, ownerID, nodeID.String(), vector, string(node.Kind())); err != nil {
		return nil, err
	}

	filter := ports.NeighborFilter{
		OwnerID:    ownerID,
		Kind:       string(node.Kind()),
		ExcludeIDs: append([]string{nodeID.String()}, excludeIDs...),
	}
	matches, err := s.index.Query(ctx, vector, k, filter)
	if err != nil {
		return nil, err
	}

	// Per-call dedup only. The linked set starts with the node itself and
	// the excluded ids in case the index ignores the filter.
	linked := make(map[string]bool, len(matches)+len(excludeIDs)+1)
	linked[nodeID.String()] = true
	for _, id := range excludeIDs {
		linked[id] = true
	}

	created := make([]*entities.Edge, 0, k)
	for _, match := range matches {
		if len(created) >= k {
			break
		}
		if linked[match.NodeID] {
			continue
		}

		targetID, err := valueobjects.NewNodeIDFromString(match.NodeID)
		if err != nil {
			s.logger.Warn("skipping neighbor with malformed id",
				zap.String("neighborID", match.NodeID),
				zap.Error(err),
			)
			continue
		}

		label := fmt.Sprintf("%d%%", int(math.Round(match.Score*100)))
		edge, err := entities.NewEdge(ownerID, nodeID, targetID, label)
		if err != nil {
			return created, err
		}
		if err := s.edgeRepo.Save(ctx, edge); err != nil {
			return created, pkgerrors.Wrap(err, "failed to save similarity edge")
		}

		linked[match.NodeID] = true
		created = append(created, edge)

		if s.publisher != nil {
			if err := s.publisher.Publish(ctx, events.NewEdgeCreated(
				edge.ID(), nodeID, targetID, label, time.Now(),
			)); err != nil {
				s.logger.Warn("failed to publish edge event", zap.Error(err))
			}
		}
	}

	s.logger.Debug("similarity linking finished",
		zap.String("nodeID", nodeID.String()),
		zap.Int("neighbors", len(matches)),
		zap.Int("edgesCreated", len(created)),
	)

	return created, nil
}
