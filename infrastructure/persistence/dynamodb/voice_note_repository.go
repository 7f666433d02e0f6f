package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"notegraph-backend/application/ports"
	"notegraph-backend/domain/core/entities"
	"notegraph-backend/domain/core/valueobjects"
	pkgerrors "notegraph-backend/pkg/errors"
	"notegraph-backend/pkg/utils"
)

// VoiceNoteRepository implements ports.VoiceNoteRepository on DynamoDB.
// Records are never deleted; a voice note's row is rewritten on every
// pipeline transition.
type VoiceNoteRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewVoiceNoteRepository creates a new DynamoDB voice note repository
func NewVoiceNoteRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) *VoiceNoteRepository {
	return &VoiceNoteRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// voiceNoteItem represents the DynamoDB item structure for a voice note
type voiceNoteItem struct {
	PK              string  `dynamodbav:"PK"`
	SK              string  `dynamodbav:"SK"`
	EntityType      string  `dynamodbav:"EntityType"`
	VoiceNoteID     string  `dynamodbav:"VoiceNoteID"`
	OwnerID         string  `dynamodbav:"OwnerID"`
	AudioRef        string  `dynamodbav:"AudioRef"`
	DurationSeconds float64 `dynamodbav:"DurationSeconds"`
	Transcription   string  `dynamodbav:"Transcription,omitempty"`
	Summary         string  `dynamodbav:"Summary,omitempty"`
	NoteStatus      string  `dynamodbav:"NoteStatus"`
	ErrorMessage    string  `dynamodbav:"ErrorMessage,omitempty"`
	CreatedAt       string  `dynamodbav:"CreatedAt"`
	UpdatedAt       string  `dynamodbav:"UpdatedAt"`
}

// Save persists a voice note with PutItem (create-or-replace)
func (r *VoiceNoteRepository) Save(ctx context.Context, voiceNote *entities.VoiceNote) error {
	item := voiceNoteItem{
		PK:              userKeyPrefix + voiceNote.OwnerID(),
		SK:              voiceKeyPrefix + voiceNote.ID().String(),
		EntityType:      "VOICE_NOTE",
		VoiceNoteID:     voiceNote.ID().String(),
		OwnerID:         voiceNote.OwnerID(),
		AudioRef:        voiceNote.AudioRef(),
		DurationSeconds: voiceNote.DurationSeconds(),
		Transcription:   voiceNote.Transcription(),
		Summary:         voiceNote.Summary(),
		NoteStatus:      string(voiceNote.Status()),
		ErrorMessage:    voiceNote.ErrorMessage(),
		CreatedAt:       utils.FormatTimestamp(voiceNote.CreatedAt()),
		UpdatedAt:       utils.FormatTimestamp(voiceNote.UpdatedAt()),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return pkgerrors.NewDatabaseError("marshal voice note", err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		r.logger.Error("failed to save voice note",
			zap.String("voiceNoteID", voiceNote.ID().String()),
			zap.Error(err),
		)
		return pkgerrors.NewDatabaseError("save voice note", err)
	}

	return nil
}

// FindByID retrieves a voice note with GetItem on the owner-scoped key
func (r *VoiceNoteRepository) FindByID(ctx context.Context, ownerID string, id valueobjects.VoiceNoteID) (*entities.VoiceNote, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userKeyPrefix + ownerID},
			"SK": &types.AttributeValueMemberS{Value: voiceKeyPrefix + id.String()},
		},
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get voice note", err)
	}
	if result.Item == nil {
		return nil, pkgerrors.NewNotFoundError("voice note")
	}

	return unmarshalVoiceNote(result.Item)
}

// FindByOwner queries the owner partition for all voice note records
func (r *VoiceNoteRepository) FindByOwner(ctx context.Context, ownerID string) ([]*entities.VoiceNote, error) {
	keyExpr := expression.Key("PK").Equal(expression.Value(userKeyPrefix + ownerID)).
		And(expression.Key("SK").BeginsWith(voiceKeyPrefix))

	expr, err := expression.NewBuilder().WithKeyCondition(keyExpr).Build()
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("build voice note query", err)
	}

	return r.queryVoiceNotes(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
}

// FindByStatus queries the owner partition filtered to one pipeline state
func (r *VoiceNoteRepository) FindByStatus(ctx context.Context, ownerID string, status entities.VoiceNoteStatus) ([]*entities.VoiceNote, error) {
	keyExpr := expression.Key("PK").Equal(expression.Value(userKeyPrefix + ownerID)).
		And(expression.Key("SK").BeginsWith(voiceKeyPrefix))
	filterExpr := expression.Name("NoteStatus").Equal(expression.Value(string(status)))

	expr, err := expression.NewBuilder().
		WithKeyCondition(keyExpr).
		WithFilter(filterExpr).
		Build()
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("build voice note query", err)
	}

	return r.queryVoiceNotes(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
}

func (r *VoiceNoteRepository) queryVoiceNotes(ctx context.Context, input *dynamodb.QueryInput) ([]*entities.VoiceNote, error) {
	voiceNotes := make([]*entities.VoiceNote, 0)

	paginator := dynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("query voice notes", err)
		}
		for _, item := range page.Items {
			voiceNote, err := unmarshalVoiceNote(item)
			if err != nil {
				r.logger.Warn("skipping unreadable voice note record", zap.Error(err))
				continue
			}
			voiceNotes = append(voiceNotes, voiceNote)
		}
	}

	return voiceNotes, nil
}

func unmarshalVoiceNote(av map[string]types.AttributeValue) (*entities.VoiceNote, error) {
	var item voiceNoteItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal voice note", err)
	}

	id, err := valueobjects.NewVoiceNoteIDFromString(item.VoiceNoteID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "stored voice note has malformed id")
	}
	return entities.ReconstructVoiceNote(
		id,
		item.OwnerID,
		item.AudioRef,
		item.DurationSeconds,
		item.Transcription,
		item.Summary,
		entities.VoiceNoteStatus(item.NoteStatus),
		item.ErrorMessage,
		utils.ParseTimestamp(item.CreatedAt),
		utils.ParseTimestamp(item.UpdatedAt),
	)
}

var _ ports.VoiceNoteRepository = (*VoiceNoteRepository)(nil)
