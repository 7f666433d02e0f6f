package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"notegraph-backend/application/ports"
	"notegraph-backend/domain/core/entities"
	"notegraph-backend/domain/core/valueobjects"
	pkgerrors "notegraph-backend/pkg/errors"
	"notegraph-backend/pkg/utils"
)

// EdgeRepository implements ports.EdgeRepository on DynamoDB. Edges are
// indexed three ways: by owner (base table), by source node (GSI2) and by
// target node (GSI3), so cascade deletes and backlink queries stay
// single-query operations.
type EdgeRepository struct {
	client        *dynamodb.Client
	tableName     string
	gsi2IndexName string
	gsi3IndexName string
	logger        *zap.Logger
}

// NewEdgeRepository creates a new DynamoDB edge repository
func NewEdgeRepository(client *dynamodb.Client, tableName, gsi2IndexName, gsi3IndexName string, logger *zap.Logger) *EdgeRepository {
	return &EdgeRepository{
		client:        client,
		tableName:     tableName,
		gsi2IndexName: gsi2IndexName,
		gsi3IndexName: gsi3IndexName,
		logger:        logger,
	}
}

// edgeItem represents the DynamoDB item structure for an edge
type edgeItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI2PK     string `dynamodbav:"GSI2PK"`
	GSI2SK     string `dynamodbav:"GSI2SK"`
	GSI3PK     string `dynamodbav:"GSI3PK"`
	GSI3SK     string `dynamodbav:"GSI3SK"`
	EntityType string `dynamodbav:"EntityType"`
	EdgeID     string `dynamodbav:"EdgeID"`
	OwnerID    string `dynamodbav:"OwnerID"`
	SourceID   string `dynamodbav:"SourceID"`
	TargetID   string `dynamodbav:"TargetID"`
	Label      string `dynamodbav:"Label,omitempty"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
}

// Save persists an edge with PutItem (create-or-replace)
func (r *EdgeRepository) Save(ctx context.Context, edge *entities.Edge) error {
	item := edgeItem{
		PK:         userKeyPrefix + edge.OwnerID(),
		SK:         edgeKeyPrefix + edge.ID().String(),
		GSI2PK:     fmt.Sprintf("ESRC#%s#%s", edge.OwnerID(), edge.SourceID().String()),
		GSI2SK:     edgeKeyPrefix + edge.ID().String(),
		GSI3PK:     fmt.Sprintf("ETGT#%s#%s", edge.OwnerID(), edge.TargetID().String()),
		GSI3SK:     edgeKeyPrefix + edge.ID().String(),
		EntityType: "EDGE",
		EdgeID:     edge.ID().String(),
		OwnerID:    edge.OwnerID(),
		SourceID:   edge.SourceID().String(),
		TargetID:   edge.TargetID().String(),
		Label:      edge.Label(),
		CreatedAt:  utils.FormatTimestamp(edge.CreatedAt()),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return pkgerrors.NewDatabaseError("marshal edge", err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		r.logger.Error("failed to save edge",
			zap.String("edgeID", edge.ID().String()),
			zap.Error(err),
		)
		return pkgerrors.NewDatabaseError("save edge", err)
	}

	return nil
}

// FindByID retrieves an edge with GetItem on the owner-scoped key
func (r *EdgeRepository) FindByID(ctx context.Context, ownerID string, id valueobjects.EdgeID) (*entities.Edge, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userKeyPrefix + ownerID},
			"SK": &types.AttributeValueMemberS{Value: edgeKeyPrefix + id.String()},
		},
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get edge", err)
	}
	if result.Item == nil {
		return nil, pkgerrors.NewNotFoundError("edge")
	}

	return unmarshalEdge(result.Item)
}

// FindByOwner queries the owner partition for all edge records
func (r *EdgeRepository) FindByOwner(ctx context.Context, ownerID string) ([]*entities.Edge, error) {
	return r.queryEdges(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: userKeyPrefix + ownerID},
			":sk": &types.AttributeValueMemberS{Value: edgeKeyPrefix},
		},
	})
}

// FindBySource queries GSI2 for the edges leaving a node
func (r *EdgeRepository) FindBySource(ctx context.Context, ownerID string, sourceID valueobjects.NodeID) ([]*entities.Edge, error) {
	return r.queryEdges(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(r.gsi2IndexName),
		KeyConditionExpression: aws.String("GSI2PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("ESRC#%s#%s", ownerID, sourceID.String())},
		},
	})
}

// FindByTarget queries GSI3 for the edges entering a node
func (r *EdgeRepository) FindByTarget(ctx context.Context, ownerID string, targetID valueobjects.NodeID) ([]*entities.Edge, error) {
	return r.queryEdges(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(r.gsi3IndexName),
		KeyConditionExpression: aws.String("GSI3PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("ETGT#%s#%s", ownerID, targetID.String())},
		},
	})
}

// Delete removes an edge record, NotFoundError when absent
func (r *EdgeRepository) Delete(ctx context.Context, ownerID string, id valueobjects.EdgeID) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userKeyPrefix + ownerID},
			"SK": &types.AttributeValueMemberS{Value: edgeKeyPrefix + id.String()},
		},
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return pkgerrors.NewNotFoundError("edge")
		}
		return pkgerrors.NewDatabaseError("delete edge", err)
	}
	return nil
}

func (r *EdgeRepository) queryEdges(ctx context.Context, input *dynamodb.QueryInput) ([]*entities.Edge, error) {
	edges := make([]*entities.Edge, 0)

	paginator := dynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("query edges", err)
		}
		for _, item := range page.Items {
			edge, err := unmarshalEdge(item)
			if err != nil {
				r.logger.Warn("skipping unreadable edge record", zap.Error(err))
				continue
			}
			edges = append(edges, edge)
		}
	}

	return edges, nil
}

func unmarshalEdge(av map[string]types.AttributeValue) (*entities.Edge, error) {
	var item edgeItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal edge", err)
	}

	id, err := valueobjects.NewEdgeIDFromString(item.EdgeID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "stored edge has malformed id")
	}
	sourceID, err := valueobjects.NewNodeIDFromString(item.SourceID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "stored edge has malformed source id")
	}
	targetID, err := valueobjects.NewNodeIDFromString(item.TargetID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "stored edge has malformed target id")
	}
	return entities.ReconstructEdge(id, item.OwnerID, sourceID, targetID, item.Label, utils.ParseTimestamp(item.CreatedAt))
}

var _ ports.EdgeRepository = (*EdgeRepository)(nil)
