package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"notegraph-backend/domain/core/entities"
	"notegraph-backend/domain/core/valueobjects"
	domainservices "notegraph-backend/domain/services"
	"notegraph-backend/infrastructure/persistence/memory"
	pkgerrors "notegraph-backend/pkg/errors"
)

func newTestNodeService(t *testing.T) (*NodeService, *memory.NodeRepository, *memory.EdgeRepository) {
	t.Helper()
	nodeRepo := memory.NewNodeRepository()
	edgeRepo := memory.NewEdgeRepository()
	logger := zap.NewNop()
	svc := NewNodeService(nodeRepo, edgeRepo, domainservices.NewDefaultContentParser(), memory.NewEventPublisher(logger), logger)
	return svc, nodeRepo, edgeRepo
}

func TestNodeService_CreateNode_Defaults(t *testing.T) {
	svc, _, _ := newTestNodeService(t)
	ctx := context.Background()

	node, err := svc.CreateNode(ctx, "user-1", CreateNodeInput{
		Kind:    entities.KindNote,
		Content: "# Alpha\n\nSee [[Beta]] and [[Gamma]]",
		X:       10,
		Y:       20,
	})

	require.NoError(t, err)
	assert.Equal(t, entities.KindNote, node.Kind())
	assert.Equal(t, entities.SourceManual, node.SourceKind())
	assert.Equal(t, valueobjects.DefaultSize(), node.Size())
	assert.Equal(t, []string{"beta", "gamma"}, node.OutgoingLinks())
	assert.False(t, node.HasEmbedding())
	assert.Empty(t, node.GetUncommittedEvents())
}

func TestNodeService_CreateNode_InvalidKind(t *testing.T) {
	svc, _, _ := newTestNodeService(t)

	_, err := svc.CreateNode(context.Background(), "user-1", CreateNodeInput{
		Kind:    "diagram",
		Content: "x",
	})

	assert.True(t, pkgerrors.IsValidation(err))
}

func TestNodeService_UpdateNode_RecomputesOutgoingLinks(t *testing.T) {
	svc, _, _ := newTestNodeService(t)
	ctx := context.Background()

	node, err := svc.CreateNode(ctx, "user-1", CreateNodeInput{
		Kind:    entities.KindNote,
		Content: "links to [[Old Target]]",
	})
	require.NoError(t, err)

	content := `now points at <span data-title="New Target"></span>`
	updated, err := svc.UpdateNode(ctx, "user-1", node.ID(), UpdateNodeInput{Content: &content})

	require.NoError(t, err)
	assert.Equal(t, []string{"new target"}, updated.OutgoingLinks())
	assert.Equal(t, content, updated.Content())
}

func TestNodeService_UpdateNode_EmptyInputBumpsUpdatedAt(t *testing.T) {
	svc, _, _ := newTestNodeService(t)
	ctx := context.Background()

	node, err := svc.CreateNode(ctx, "user-1", CreateNodeInput{
		Kind:    entities.KindText,
		Content: "unchanged",
	})
	require.NoError(t, err)

	before := node.UpdatedAt()
	time.Sleep(5 * time.Millisecond)

	updated, err := svc.UpdateNode(ctx, "user-1", node.ID(), UpdateNodeInput{})

	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt().After(before))
	assert.Equal(t, "unchanged", updated.Content())
}

func TestNodeService_UpdateNode_PartialPositionMerge(t *testing.T) {
	svc, _, _ := newTestNodeService(t)
	ctx := context.Background()

	node, err := svc.CreateNode(ctx, "user-1", CreateNodeInput{
		Kind: entities.KindText,
		X:    100,
		Y:    200,
	})
	require.NoError(t, err)

	x := 300.0
	updated, err := svc.UpdateNode(ctx, "user-1", node.ID(), UpdateNodeInput{X: &x})

	require.NoError(t, err)
	assert.Equal(t, 300.0, updated.Position().X())
	assert.Equal(t, 200.0, updated.Position().Y())
}

func TestNodeService_UpdateNode_NotFound(t *testing.T) {
	svc, _, _ := newTestNodeService(t)

	_, err := svc.UpdateNode(context.Background(), "user-1", valueobjects.NewNodeID(), UpdateNodeInput{})

	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestNodeService_DeleteNode_CascadesIncidentEdges(t *testing.T) {
	// Deleting a node removes every edge it touches, in either direction;
	// edges between surviving nodes are untouched.
	svc, nodeRepo, edgeRepo := newTestNodeService(t)
	ctx := context.Background()
	owner := "user-1"

	a, err := svc.CreateNode(ctx, owner, CreateNodeInput{Kind: entities.KindNote, Content: "# A"})
	require.NoError(t, err)
	b, err := svc.CreateNode(ctx, owner, CreateNodeInput{Kind: entities.KindNote, Content: "# B"})
	require.NoError(t, err)
	c, err := svc.CreateNode(ctx, owner, CreateNodeInput{Kind: entities.KindNote, Content: "# C"})
	require.NoError(t, err)

	_, err = svc.CreateEdge(ctx, owner, a.ID(), b.ID(), "related")
	require.NoError(t, err)
	_, err = svc.CreateEdge(ctx, owner, b.ID(), c.ID(), "related")
	require.NoError(t, err)
	survivor, err := svc.CreateEdge(ctx, owner, c.ID(), a.ID(), "related")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteNode(ctx, owner, b.ID()))

	_, err = nodeRepo.FindByID(ctx, owner, b.ID())
	assert.True(t, pkgerrors.IsNotFound(err))

	remaining, err := edgeRepo.FindByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.True(t, remaining[0].ID().Equals(survivor.ID()))
}

func TestNodeService_DeleteNode_NotFound(t *testing.T) {
	svc, _, _ := newTestNodeService(t)

	err := svc.DeleteNode(context.Background(), "user-1", valueobjects.NewNodeID())

	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestNodeService_CreateEdge_RejectsSelfLoop(t *testing.T) {
	svc, _, _ := newTestNodeService(t)
	id := valueobjects.NewNodeID()

	_, err := svc.CreateEdge(context.Background(), "user-1", id, id, "loop")

	assert.True(t, pkgerrors.IsValidation(err))
}

func TestNodeService_CreateEdge_AllowsDuplicatePairs(t *testing.T) {
	svc, _, edgeRepo := newTestNodeService(t)
	ctx := context.Background()
	source, target := valueobjects.NewNodeID(), valueobjects.NewNodeID()

	_, err := svc.CreateEdge(ctx, "user-1", source, target, "first")
	require.NoError(t, err)
	_, err = svc.CreateEdge(ctx, "user-1", source, target, "second")
	require.NoError(t, err)

	edges, err := edgeRepo.FindBySource(ctx, "user-1", source)
	require.NoError(t, err)
	assert.Len(t, edges, 2)
}

func TestNodeService_DeleteEdge(t *testing.T) {
	svc, _, _ := newTestNodeService(t)
	ctx := context.Background()

	edge, err := svc.CreateEdge(ctx, "user-1", valueobjects.NewNodeID(), valueobjects.NewNodeID(), "")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEdge(ctx, "user-1", edge.ID()))

	_, err = svc.GetEdge(ctx, "user-1", edge.ID())
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestNodeService_ListNodesByKind_RejectsUnknownKind(t *testing.T) {
	svc, _, _ := newTestNodeService(t)

	_, err := svc.ListNodesByKind(context.Background(), "user-1", "diagram")

	assert.True(t, pkgerrors.IsValidation(err))
}
