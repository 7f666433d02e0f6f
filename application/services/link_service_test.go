package services

import (
	"context"
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

func newTestLinkService(t *testing.T) (*LinkService, *NodeService, *memory.NodeRepository, *memory.EdgeRepository) {
	t.Helper()
	nodeRepo := memory.NewNodeRepository()
	edgeRepo := memory.NewEdgeRepository()
	parser := domainservices.NewDefaultContentParser()
	logger := zap.NewNop()
	publisher := memory.NewEventPublisher(logger)
	linkSvc := NewLinkService(nodeRepo, edgeRepo, parser, publisher, logger)
	nodeSvc := NewNodeService(nodeRepo, edgeRepo, parser, publisher, logger)
	return linkSvc, nodeSvc, nodeRepo, edgeRepo
}

func TestLinkService_FindNodeByTitle(t *testing.T) {
	linkSvc, nodeSvc, _, _ := newTestLinkService(t)
	ctx := context.Background()
	owner := "user-1"

	alpha, err := nodeSvc.CreateNode(ctx, owner, CreateNodeInput{
		Kind:    entities.KindNote,
		Content: "# Alpha\n\nsome body",
	})
	require.NoError(t, err)
	_, err = nodeSvc.CreateNode(ctx, owner, CreateNodeInput{
		Kind:    entities.KindText,
		Content: "# Alpha", // not a note, never matched
	})
	require.NoError(t, err)

	t.Run("case-insensitive match on derived title", func(t *testing.T) {
		found, err := linkSvc.FindNodeByTitle(ctx, owner, "aLpHa")

		require.NoError(t, err)
		require.NotNil(t, found)
		assert.True(t, found.ID().Equals(alpha.ID()))
	})

	t.Run("no match returns nil without error", func(t *testing.T) {
		found, err := linkSvc.FindNodeByTitle(ctx, owner, "Beta")

		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("empty title rejected", func(t *testing.T) {
		_, err := linkSvc.FindNodeByTitle(ctx, owner, "   ")

		assert.True(t, pkgerrors.IsValidation(err))
	})
}

func TestLinkService_ResolveOrCreate(t *testing.T) {
	linkSvc, _, nodeRepo, _ := newTestLinkService(t)
	ctx := context.Background()
	owner := "user-1"

	t.Run("creates a heading stub for an unresolved title", func(t *testing.T) {
		node, err := linkSvc.ResolveOrCreate(ctx, owner, "Spaced Repetition")

		require.NoError(t, err)
		assert.Equal(t, entities.KindNote, node.Kind())
		assert.Equal(t, "# Spaced Repetition", node.Content())
		assert.Equal(t, 0.0, node.Position().X())
		assert.Equal(t, 0.0, node.Position().Y())

		persisted, err := nodeRepo.FindByID(ctx, owner, node.ID())
		require.NoError(t, err)
		assert.Equal(t, node.Content(), persisted.Content())
	})

	t.Run("second resolve returns the existing note", func(t *testing.T) {
		first, err := linkSvc.ResolveOrCreate(ctx, owner, "Active Recall")
		require.NoError(t, err)

		second, err := linkSvc.ResolveOrCreate(ctx, owner, "active recall")
		require.NoError(t, err)

		assert.True(t, first.ID().Equals(second.ID()))
	})
}

func TestLinkService_GetTextualBacklinks(t *testing.T) {
	// Scenario: two notes reference "Alpha" - one with delimited syntax, one
	// with rich markup - and an unrelated note stays out of the results.
	linkSvc, nodeSvc, _, _ := newTestLinkService(t)
	ctx := context.Background()
	owner := "user-1"

	_, err := nodeSvc.CreateNode(ctx, owner, CreateNodeInput{
		Kind:    entities.KindNote,
		Content: "# Alpha\n\nthe note being referenced",
	})
	require.NoError(t, err)

	delimited, err := nodeSvc.CreateNode(ctx, owner, CreateNodeInput{
		Kind:    entities.KindNote,
		Content: "# First Referrer\n\nbuilds on [[alpha]]",
	})
	require.NoError(t, err)

	markup, err := nodeSvc.CreateNode(ctx, owner, CreateNodeInput{
		Kind:    entities.KindNote,
		Content: `<h1>Second Referrer</h1><p>see <span data-title="Alpha"></span></p>`,
	})
	require.NoError(t, err)

	_, err = nodeSvc.CreateNode(ctx, owner, CreateNodeInput{
		Kind:    entities.KindNote,
		Content: "# Unrelated\n\nabout [[Beta]]",
	})
	require.NoError(t, err)

	backlinks, err := linkSvc.GetTextualBacklinks(ctx, owner, "Alpha")

	require.NoError(t, err)
	require.Len(t, backlinks, 2)
	assert.True(t, backlinks[0].Node.ID().Equals(delimited.ID()))
	assert.Equal(t, "First Referrer", backlinks[0].Title)
	assert.True(t, backlinks[1].Node.ID().Equals(markup.ID()))
	assert.Equal(t, "Second Referrer", backlinks[1].Title)
}

func TestLinkService_GetTextualBacklinks_FallsBackToContentScan(t *testing.T) {
	// Records persisted before outgoingLinks was derived carry an empty
	// cache; the live re-scan still finds the reference.
	linkSvc, _, nodeRepo, _ := newTestLinkService(t)
	ctx := context.Background()
	owner := "user-1"

	legacy, err := entities.ReconstructNode(entities.NodeSnapshot{
		ID:      valueobjects.NewNodeID(),
		OwnerID: owner,
		Kind:    entities.KindNote,
		Content: "# Legacy\n\nreferences [[Alpha]]",
	})
	require.NoError(t, err)
	require.Empty(t, legacy.OutgoingLinks())
	require.NoError(t, nodeRepo.Save(ctx, legacy))

	backlinks, err := linkSvc.GetTextualBacklinks(ctx, owner, "alpha")

	require.NoError(t, err)
	require.Len(t, backlinks, 1)
	assert.Equal(t, "Legacy", backlinks[0].Title)
}

func TestLinkService_GetBacklinks(t *testing.T) {
	linkSvc, nodeSvc, nodeRepo, _ := newTestLinkService(t)
	ctx := context.Background()
	owner := "user-1"

	target, err := nodeSvc.CreateNode(ctx, owner, CreateNodeInput{Kind: entities.KindNote, Content: "# Target"})
	require.NoError(t, err)
	linker, err := nodeSvc.CreateNode(ctx, owner, CreateNodeInput{Kind: entities.KindNote, Content: "# Linker"})
	require.NoError(t, err)
	dangler, err := nodeSvc.CreateNode(ctx, owner, CreateNodeInput{Kind: entities.KindNote, Content: "# Dangler"})
	require.NoError(t, err)

	_, err = nodeSvc.CreateEdge(ctx, owner, linker.ID(), target.ID(), "87%")
	require.NoError(t, err)
	_, err = nodeSvc.CreateEdge(ctx, owner, dangler.ID(), target.ID(), "related")
	require.NoError(t, err)

	// Remove the source node directly, bypassing the cascade, to simulate
	// an interrupted delete that left its edge behind.
	require.NoError(t, nodeRepo.Delete(ctx, owner, dangler.ID()))

	backlinks, err := linkSvc.GetBacklinks(ctx, owner, target.ID())

	require.NoError(t, err)
	require.Len(t, backlinks, 1)
	assert.True(t, backlinks[0].Node.ID().Equals(linker.ID()))
	assert.Equal(t, "87%", backlinks[0].EdgeLabel)
}
