package di

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"notegraph-backend/application/ports"
	"notegraph-backend/application/services"
	"notegraph-backend/domain/core/entities"
	domainservices "notegraph-backend/domain/services"
	"notegraph-backend/infrastructure/ai"
	"notegraph-backend/infrastructure/ai/gcs"
	"notegraph-backend/infrastructure/ai/openai"
	"notegraph-backend/infrastructure/ai/pinecone"
	"notegraph-backend/infrastructure/ai/speech"
	"notegraph-backend/infrastructure/config"
	"notegraph-backend/infrastructure/messaging/eventbridge"
	"notegraph-backend/infrastructure/persistence/dynamodb"
	"notegraph-backend/infrastructure/persistence/memory"
	"notegraph-backend/interfaces/http/rest"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	if cfg.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}

	if err != nil {
		return nil, err
	}

	return logger, nil
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideContentParser creates the dual-encoding link parser
func ProvideContentParser() domainservices.ContentParser {
	return domainservices.NewDefaultContentParser()
}

// ProvideLinkExtractor exposes the parser under the narrower interface
// entities depend on
func ProvideLinkExtractor(parser domainservices.ContentParser) entities.LinkExtractor {
	return parser
}

// ProvideNodeRepository creates a node repository
func ProvideNodeRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.NodeRepository {
	if cfg.Persistence == config.PersistenceMemory {
		return memory.NewNodeRepository()
	}
	return dynamodb.NewNodeRepository(
		client,
		cfg.DynamoDBTable,
		cfg.GSI2IndexName,
		logger,
	)
}

// ProvideEdgeRepository creates an edge repository
func ProvideEdgeRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.EdgeRepository {
	if cfg.Persistence == config.PersistenceMemory {
		return memory.NewEdgeRepository()
	}
	return dynamodb.NewEdgeRepository(
		client,
		cfg.DynamoDBTable,
		cfg.GSI2IndexName,
		cfg.GSI3IndexName,
		logger,
	)
}

// ProvideVoiceNoteRepository creates a voice note repository
func ProvideVoiceNoteRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.VoiceNoteRepository {
	if cfg.Persistence == config.PersistenceMemory {
		return memory.NewVoiceNoteRepository()
	}
	return dynamodb.NewVoiceNoteRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideEventPublisher creates the domain event publisher
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	if cfg.Persistence == config.PersistenceMemory {
		return memory.NewEventPublisher(logger)
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideOpenAIClient creates the OpenAI client used for embeddings and
// concept extraction
func ProvideOpenAIClient(cfg *config.Config, logger *zap.Logger) *openai.Client {
	return openai.NewClient(
		cfg.OpenAIAPIKey,
		cfg.OpenAIBaseURL,
		cfg.EmbeddingModel,
		cfg.ExtractionModel,
		logger,
	)
}

// ProvideEmbeddingProvider wraps the OpenAI client in a circuit breaker
func ProvideEmbeddingProvider(client *openai.Client, logger *zap.Logger) ports.EmbeddingProvider {
	return ai.NewBreakerEmbedder(client, logger)
}

// ProvideConceptExtractor wraps the OpenAI client in a circuit breaker
func ProvideConceptExtractor(client *openai.Client, logger *zap.Logger) ports.ConceptExtractor {
	return ai.NewBreakerExtractor(client, logger)
}

// ProvideNeighborIndex creates the nearest-neighbor index. Memory mode
// uses the in-process cosine index so the whole engine runs without
// external services.
func ProvideNeighborIndex(cfg *config.Config, logger *zap.Logger) ports.NearestNeighborIndex {
	if cfg.Persistence == config.PersistenceMemory {
		return memory.NewVectorIndex()
	}
	index := pinecone.NewIndex(cfg.PineconeIndexHost, cfg.PineconeAPIKey, cfg.PineconeNamespace, logger)
	return ai.NewBreakerIndex(index, logger)
}

// ProvideTranscriber creates the speech-to-text client. In memory mode a
// missing credential setup falls back to an unauthenticated client so the
// server still starts; transcription calls then fail per-request and land
// on the voice note's error state.
func ProvideTranscriber(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.Transcriber, error) {
	transcriber, err := speech.NewTranscriber(ctx, cfg.SpeechLanguageCode, logger)
	if err != nil && cfg.Persistence == config.PersistenceMemory {
		logger.Warn("speech client unavailable, starting without credentials", zap.Error(err))
		transcriber, err = speech.NewTranscriber(ctx, cfg.SpeechLanguageCode, logger, option.WithoutAuthentication())
	}
	if err != nil {
		return nil, err
	}
	return ai.NewBreakerTranscriber(transcriber, logger), nil
}

// ProvideAudioStore creates the GCS-backed audio store, with the same
// development fallback as the transcriber
func ProvideAudioStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.AudioStore, error) {
	store, err := gcs.NewAudioStore(ctx, cfg.AudioBucket, logger)
	if err != nil && cfg.Persistence == config.PersistenceMemory {
		logger.Warn("storage client unavailable, starting without credentials", zap.Error(err))
		store, err = gcs.NewAudioStore(ctx, cfg.AudioBucket, logger, option.WithoutAuthentication())
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}

// ProvideNodeService creates the node/edge application service
func ProvideNodeService(
	nodeRepo ports.NodeRepository,
	edgeRepo ports.EdgeRepository,
	extractor entities.LinkExtractor,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *services.NodeService {
	return services.NewNodeService(nodeRepo, edgeRepo, extractor, publisher, logger)
}

// ProvideLinkService creates the title-resolution and backlink service
func ProvideLinkService(
	nodeRepo ports.NodeRepository,
	edgeRepo ports.EdgeRepository,
	parser domainservices.ContentParser,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *services.LinkService {
	return services.NewLinkService(nodeRepo, edgeRepo, parser, publisher, logger)
}

// ProvideSimilarityService creates the embedding-based linking service
func ProvideSimilarityService(
	nodeRepo ports.NodeRepository,
	edgeRepo ports.EdgeRepository,
	embedder ports.EmbeddingProvider,
	index ports.NearestNeighborIndex,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *services.SimilarityService {
	return services.NewSimilarityService(nodeRepo, edgeRepo, embedder, index, publisher, logger)
}

// ProvideIngestionService creates the voice note processing pipeline
func ProvideIngestionService(
	voiceRepo ports.VoiceNoteRepository,
	nodeRepo ports.NodeRepository,
	audioStore ports.AudioStore,
	transcriber ports.Transcriber,
	extractor ports.ConceptExtractor,
	similarity *services.SimilarityService,
	linkExtractor entities.LinkExtractor,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *services.IngestionService {
	return services.NewIngestionService(
		voiceRepo,
		nodeRepo,
		audioStore,
		transcriber,
		extractor,
		similarity,
		linkExtractor,
		publisher,
		logger,
	)
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	nodeService *services.NodeService,
	linkService *services.LinkService,
	ingestionService *services.IngestionService,
	cfg *config.Config,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(nodeService, linkService, ingestionService, cfg, logger)
}
