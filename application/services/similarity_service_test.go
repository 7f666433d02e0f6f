package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"notegraph-backend/domain/core/entities"
	"notegraph-backend/domain/core/valueobjects"
	domainservices "notegraph-backend/domain/services"
	"notegraph-backend/infrastructure/persistence/memory"
	pkgerrors "notegraph-backend/pkg/errors"
)

// stubEmbedder returns canned vectors keyed by the exact input text. A
// non-zero failAfter makes every call past that count fail.
type stubEmbedder struct {
	vectors   map[string][]float32
	err       error
	failAfter int
	calls     int
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.failAfter > 0 && s.calls > s.failAfter {
		return nil, pkgerrors.NewExternalError(pkgerrors.ServiceEmbedding, errSimulated)
	}
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

var errSimulated = errors.New("simulated failure")

type similarityFixture struct {
	svc      *SimilarityService
	nodeRepo *memory.NodeRepository
	edgeRepo *memory.EdgeRepository
	index    *memory.VectorIndex
	embedder *stubEmbedder
}

func newSimilarityFixture(t *testing.T) *similarityFixture {
	t.Helper()
	nodeRepo := memory.NewNodeRepository()
	edgeRepo := memory.NewEdgeRepository()
	index := memory.NewVectorIndex()
	embedder := &stubEmbedder{vectors: map[string][]float32{}}
	logger := zap.NewNop()
	svc := NewSimilarityService(nodeRepo, edgeRepo, embedder, index, memory.NewEventPublisher(logger), logger)
	return &similarityFixture{svc: svc, nodeRepo: nodeRepo, edgeRepo: edgeRepo, index: index, embedder: embedder}
}

// addIndexedNote persists a note and registers its vector in the index
func (f *similarityFixture) addIndexedNote(t *testing.T, owner, content string, vector []float32) *entities.Node {
	t.Helper()
	ctx := context.Background()
	node, err := entities.NewNode(owner, entities.KindNote, content, valueobjects.Position{}, domainservices.NewDefaultContentParser())
	require.NoError(t, err)
	require.NoError(t, f.nodeRepo.Save(ctx, node))
	require.NoError(t, f.index.Upsert(ctx, owner, node.ID().String(), vector, string(entities.KindNote)))
	return node
}

func TestSimilarityService_LinkBySimilarity_LinksTopNeighbors(t *testing.T) {
	f := newSimilarityFixture(t)
	ctx := context.Background()
	owner := "user-1"

	closest := f.addIndexedNote(t, owner, "# Closest", []float32{1, 0, 0})
	nearby := f.addIndexedNote(t, owner, "# Nearby", []float32{0.6, 0.8, 0})
	f.addIndexedNote(t, owner, "# Distant", []float32{0, 0, 1})

	subject := f.addIndexedNote(t, owner, "# Subject", []float32{1, 0, 0})
	f.embedder.vectors["subject text"] = []float32{1, 0, 0}

	edges, err := f.svc.LinkBySimilarity(ctx, owner, subject.ID(), "subject text", 2, nil)

	require.NoError(t, err)
	require.Len(t, edges, 2)

	assert.True(t, edges[0].SourceID().Equals(subject.ID()))
	assert.True(t, edges[0].TargetID().Equals(closest.ID()))
	assert.Equal(t, "100%", edges[0].Label())

	assert.True(t, edges[1].TargetID().Equals(nearby.ID()))
	assert.Equal(t, "60%", edges[1].Label())

	// The subject node itself was in the index and must never self-link.
	for _, edge := range edges {
		assert.False(t, edge.TargetID().Equals(subject.ID()))
	}
}

func TestSimilarityService_LinkBySimilarity_PersistsEmbedding(t *testing.T) {
	f := newSimilarityFixture(t)
	ctx := context.Background()
	owner := "user-1"

	subject := f.addIndexedNote(t, owner, "# Subject", nil)
	f.embedder.vectors["text"] = []float32{0.5, 0.5, 0}

	_, err := f.svc.LinkBySimilarity(ctx, owner, subject.ID(), "text", 3, nil)
	require.NoError(t, err)

	persisted, err := f.nodeRepo.FindByID(ctx, owner, subject.ID())
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5, 0}, persisted.Embedding())
}

func TestSimilarityService_LinkBySimilarity_ExcludedIDsNeverLinked(t *testing.T) {
	f := newSimilarityFixture(t)
	ctx := context.Background()
	owner := "user-1"

	excluded := f.addIndexedNote(t, owner, "# Excluded", []float32{1, 0, 0})
	other := f.addIndexedNote(t, owner, "# Other", []float32{0.9, 0.1, 0})
	subject := f.addIndexedNote(t, owner, "# Subject", nil)
	f.embedder.vectors["text"] = []float32{1, 0, 0}

	edges, err := f.svc.LinkBySimilarity(ctx, owner, subject.ID(), "text", 2, []string{excluded.ID().String()})

	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.True(t, edges[0].TargetID().Equals(other.ID()))
}

func TestSimilarityService_LinkBySimilarity_KindScoped(t *testing.T) {
	f := newSimilarityFixture(t)
	ctx := context.Background()
	owner := "user-1"

	// Same owner, identical vector, but a different node kind.
	textNode, err := entities.NewNode(owner, entities.KindText, "raw text", valueobjects.Position{}, domainservices.NewDefaultContentParser())
	require.NoError(t, err)
	require.NoError(t, f.nodeRepo.Save(ctx, textNode))
	require.NoError(t, f.index.Upsert(ctx, owner, textNode.ID().String(), []float32{1, 0, 0}, string(entities.KindText)))

	subject := f.addIndexedNote(t, owner, "# Subject", nil)
	f.embedder.vectors["text"] = []float32{1, 0, 0}

	edges, err := f.svc.LinkBySimilarity(ctx, owner, subject.ID(), "text", 3, nil)

	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestSimilarityService_LinkBySimilarity_DefaultK(t *testing.T) {
	f := newSimilarityFixture(t)
	ctx := context.Background()
	owner := "user-1"

	for i := 0; i < 5; i++ {
		f.addIndexedNote(t, owner, "# Neighbor", []float32{1, 0, 0})
	}
	subject := f.addIndexedNote(t, owner, "# Subject", nil)
	f.embedder.vectors["text"] = []float32{1, 0, 0}

	edges, err := f.svc.LinkBySimilarity(ctx, owner, subject.ID(), "text", 0, nil)

	require.NoError(t, err)
	assert.Len(t, edges, DefaultNeighborCount)
}

func TestSimilarityService_LinkBySimilarity_NodeNotFound(t *testing.T) {
	f := newSimilarityFixture(t)

	_, err := f.svc.LinkBySimilarity(context.Background(), "user-1", valueobjects.NewNodeID(), "text", 3, nil)

	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestSimilarityService_LinkBySimilarity_EmbedderFailure(t *testing.T) {
	f := newSimilarityFixture(t)
	ctx := context.Background()
	owner := "user-1"

	subject := f.addIndexedNote(t, owner, "# Subject", nil)
	f.embedder.err = pkgerrors.NewExternalError(pkgerrors.ServiceEmbedding, assert.AnError)

	_, err := f.svc.LinkBySimilarity(ctx, owner, subject.ID(), "text", 3, nil)

	require.Error(t, err)
	edges, listErr := f.edgeRepo.FindByOwner(ctx, owner)
	require.NoError(t, listErr)
	assert.Empty(t, edges)
}
