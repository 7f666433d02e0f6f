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

// Single-table layout. Every record is keyed under its owner:
//
//	Node       PK=USER#<owner>  SK=NODE#<id>   GSI2PK=SRC#<owner>#<sourceID>
//	Edge       PK=USER#<owner>  SK=EDGE#<id>   GSI2PK=ESRC#<owner>#<source>  GSI3PK=ETGT#<owner>#<target>
//	VoiceNote  PK=USER#<owner>  SK=VOICE#<id>
const (
	userKeyPrefix  = "USER#"
	nodeKeyPrefix  = "NODE#"
	edgeKeyPrefix  = "EDGE#"
	voiceKeyPrefix = "VOICE#"
)

// NodeRepository implements ports.NodeRepository on DynamoDB
type NodeRepository struct {
	client        *dynamodb.Client
	tableName     string
	gsi2IndexName string
	logger        *zap.Logger
}

// NewNodeRepository creates a new DynamoDB node repository
func NewNodeRepository(client *dynamodb.Client, tableName, gsi2IndexName string, logger *zap.Logger) *NodeRepository {
	return &NodeRepository{
		client:        client,
		tableName:     tableName,
		gsi2IndexName: gsi2IndexName,
		logger:        logger,
	}
}

// nodeItem represents the DynamoDB item structure for a node
type nodeItem struct {
	PK              string    `dynamodbav:"PK"`
	SK              string    `dynamodbav:"SK"`
	GSI2PK          string    `dynamodbav:"GSI2PK,omitempty"`
	GSI2SK          string    `dynamodbav:"GSI2SK,omitempty"`
	EntityType      string    `dynamodbav:"EntityType"`
	NodeID          string    `dynamodbav:"NodeID"`
	OwnerID         string    `dynamodbav:"OwnerID"`
	Kind            string    `dynamodbav:"Kind"`
	Content         string    `dynamodbav:"Content"`
	PositionX       float64   `dynamodbav:"PositionX"`
	PositionY       float64   `dynamodbav:"PositionY"`
	Width           float64   `dynamodbav:"Width"`
	Height          float64   `dynamodbav:"Height"`
	MessageRef      string    `dynamodbav:"MessageRef,omitempty"`
	ConversationRef string    `dynamodbav:"ConversationRef,omitempty"`
	SourceKind      string    `dynamodbav:"SourceKind"`
	SourceID        string    `dynamodbav:"SourceID,omitempty"`
	SourceURL       string    `dynamodbav:"SourceURL,omitempty"`
	ParentNodeID    string    `dynamodbav:"ParentNodeID,omitempty"`
	OutgoingLinks   []string  `dynamodbav:"OutgoingLinks,omitempty"`
	Embedding       []float32 `dynamodbav:"Embedding,omitempty"`
	CreatedAt       string    `dynamodbav:"CreatedAt"`
	UpdatedAt       string    `dynamodbav:"UpdatedAt"`
}

// Save persists a node with PutItem (create-or-replace)
func (r *NodeRepository) Save(ctx context.Context, node *entities.Node) error {
	item := nodeItem{
		PK:              userKeyPrefix + node.OwnerID(),
		SK:              nodeKeyPrefix + node.ID().String(),
		EntityType:      "NODE",
		NodeID:          node.ID().String(),
		OwnerID:         node.OwnerID(),
		Kind:            string(node.Kind()),
		Content:         node.Content(),
		PositionX:       node.Position().X(),
		PositionY:       node.Position().Y(),
		Width:           node.Size().Width(),
		Height:          node.Size().Height(),
		MessageRef:      node.MessageRef(),
		ConversationRef: node.ConversationRef(),
		SourceKind:      string(node.SourceKind()),
		SourceID:        node.SourceID(),
		SourceURL:       node.SourceURL(),
		ParentNodeID:    node.ParentNodeID(),
		OutgoingLinks:   node.OutgoingLinks(),
		Embedding:       node.Embedding(),
		CreatedAt:       utils.FormatTimestamp(node.CreatedAt()),
		UpdatedAt:       utils.FormatTimestamp(node.UpdatedAt()),
	}
	if node.SourceID() != "" {
		item.GSI2PK = fmt.Sprintf("SRC#%s#%s", node.OwnerID(), node.SourceID())
		item.GSI2SK = nodeKeyPrefix + node.ID().String()
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return pkgerrors.NewDatabaseError("marshal node", err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		r.logger.Error("failed to save node",
			zap.String("nodeID", node.ID().String()),
			zap.Error(err),
		)
		return pkgerrors.NewDatabaseError("save node", err)
	}

	return nil
}

// FindByID retrieves a node with GetItem on the owner-scoped key
func (r *NodeRepository) FindByID(ctx context.Context, ownerID string, id valueobjects.NodeID) (*entities.Node, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userKeyPrefix + ownerID},
			"SK": &types.AttributeValueMemberS{Value: nodeKeyPrefix + id.String()},
		},
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get node", err)
	}
	if result.Item == nil {
		return nil, pkgerrors.NewNotFoundError("node")
	}

	return unmarshalNode(result.Item)
}

// FindByOwner queries the owner partition for all node records
func (r *NodeRepository) FindByOwner(ctx context.Context, ownerID string) ([]*entities.Node, error) {
	return r.queryNodes(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: userKeyPrefix + ownerID},
			":sk": &types.AttributeValueMemberS{Value: nodeKeyPrefix},
		},
	})
}

// FindByKind queries the owner partition filtered to one node kind
func (r *NodeRepository) FindByKind(ctx context.Context, ownerID string, kind entities.NodeKind) ([]*entities.Node, error) {
	return r.queryNodes(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		FilterExpression:       aws.String("Kind = :kind"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":   &types.AttributeValueMemberS{Value: userKeyPrefix + ownerID},
			":sk":   &types.AttributeValueMemberS{Value: nodeKeyPrefix},
			":kind": &types.AttributeValueMemberS{Value: string(kind)},
		},
	})
}

// FindBySourceID queries GSI2 for the nodes produced from one source record
func (r *NodeRepository) FindBySourceID(ctx context.Context, ownerID, sourceID string) ([]*entities.Node, error) {
	return r.queryNodes(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(r.gsi2IndexName),
		KeyConditionExpression: aws.String("GSI2PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("SRC#%s#%s", ownerID, sourceID)},
		},
	})
}

// FindByParent queries the owner partition filtered to one parent node
func (r *NodeRepository) FindByParent(ctx context.Context, ownerID, parentNodeID string) ([]*entities.Node, error) {
	return r.queryNodes(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		FilterExpression:       aws.String("ParentNodeID = :parent"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: userKeyPrefix + ownerID},
			":sk":     &types.AttributeValueMemberS{Value: nodeKeyPrefix},
			":parent": &types.AttributeValueMemberS{Value: parentNodeID},
		},
	})
}

// Delete removes the single node record. Missing records return
// NotFoundError; incident edges are the caller's responsibility.
func (r *NodeRepository) Delete(ctx context.Context, ownerID string, id valueobjects.NodeID) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userKeyPrefix + ownerID},
			"SK": &types.AttributeValueMemberS{Value: nodeKeyPrefix + id.String()},
		},
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return pkgerrors.NewNotFoundError("node")
		}
		return pkgerrors.NewDatabaseError("delete node", err)
	}
	return nil
}

func (r *NodeRepository) queryNodes(ctx context.Context, input *dynamodb.QueryInput) ([]*entities.Node, error) {
	nodes := make([]*entities.Node, 0)

	paginator := dynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("query nodes", err)
		}
		for _, item := range page.Items {
			node, err := unmarshalNode(item)
			if err != nil {
				r.logger.Warn("skipping unreadable node record", zap.Error(err))
				continue
			}
			nodes = append(nodes, node)
		}
	}

	return nodes, nil
}

func unmarshalNode(av map[string]types.AttributeValue) (*entities.Node, error) {
	var item nodeItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal node", err)
	}

	id, err := valueobjects.NewNodeIDFromString(item.NodeID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "stored node has malformed id")
	}
	position, err := valueobjects.NewPosition(item.PositionX, item.PositionY)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "stored node has malformed position")
	}
	size, err := valueobjects.NewSize(item.Width, item.Height)
	if err != nil {
		size = valueobjects.DefaultSize()
	}
	return entities.ReconstructNode(entities.NodeSnapshot{
		ID:              id,
		OwnerID:         item.OwnerID,
		Kind:            entities.NodeKind(item.Kind),
		Content:         item.Content,
		Position:        position,
		Size:            size,
		MessageRef:      item.MessageRef,
		ConversationRef: item.ConversationRef,
		SourceKind:      entities.SourceKind(item.SourceKind),
		SourceID:        item.SourceID,
		SourceURL:       item.SourceURL,
		ParentNodeID:    item.ParentNodeID,
		OutgoingLinks:   item.OutgoingLinks,
		Embedding:       item.Embedding,
		CreatedAt:       utils.ParseTimestamp(item.CreatedAt),
		UpdatedAt:       utils.ParseTimestamp(item.UpdatedAt),
	})
}

var _ ports.NodeRepository = (*NodeRepository)(nil)
