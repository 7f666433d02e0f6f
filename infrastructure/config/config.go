package config

import (
	"fmt"
	"os"
	"strconv"
)

// Persistence backend selectors
const (
	PersistenceDynamoDB = "dynamodb"
	PersistenceMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Persistence: "dynamodb" or "memory" (local development)
	Persistence string

	// AWS configuration
	AWSRegion     string
	DynamoDBTable string
	IndexName     string // GSI1 - direct node/edge id lookups
	GSI2IndexName string // GSI2 - edges by source, nodes by sourceID
	GSI3IndexName string // GSI3 - edges by target, voice notes by status
	EventBusName  string

	// Lambda configuration
	IsLambda           bool
	LambdaFunctionName string

	// Audio storage (GCS)
	AudioBucket string

	// Transcription (GCP Speech)
	SpeechLanguageCode string

	// OpenAI (embeddings + concept extraction)
	OpenAIAPIKey         string
	OpenAIBaseURL        string
	EmbeddingModel       string
	ExtractionModel      string
	EmbeddingDimension   int
	SimilarityNeighbors  int

	// Pinecone (nearest-neighbor index)
	PineconeAPIKey    string
	PineconeIndexHost string
	PineconeNamespace string

	// Authentication
	JWTSecret string
	JWTIssuer string

	// Logging and features
	LogLevel   string
	EnableCORS bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		Persistence:   getEnv("PERSISTENCE", PersistenceDynamoDB),

		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable: getEnv("TABLE_NAME", "notegraph"),
		IndexName:     getEnv("INDEX_NAME", "RecordIndex"),
		GSI2IndexName: getEnv("GSI2_INDEX_NAME", "SourceIndex"),
		GSI3IndexName: getEnv("GSI3_INDEX_NAME", "TargetIndex"),
		EventBusName:  getEnv("EVENT_BUS_NAME", "notegraph-events"),

		IsLambda:           getEnvBool("IS_LAMBDA", false),
		LambdaFunctionName: getEnv("AWS_LAMBDA_FUNCTION_NAME", ""),

		AudioBucket:        getEnv("AUDIO_BUCKET", "notegraph-audio"),
		SpeechLanguageCode: getEnv("SPEECH_LANGUAGE_CODE", "en-US"),

		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:       getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		EmbeddingModel:      getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		ExtractionModel:     getEnv("EXTRACTION_MODEL", "gpt-4o-mini"),
		EmbeddingDimension:  getEnvInt("EMBEDDING_DIMENSION", 1536),
		SimilarityNeighbors: getEnvInt("SIMILARITY_NEIGHBORS", 3),

		PineconeAPIKey:    getEnv("PINECONE_API_KEY", ""),
		PineconeIndexHost: getEnv("PINECONE_INDEX_HOST", ""),
		PineconeNamespace: getEnv("PINECONE_NAMESPACE", "notegraph"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "notegraph-backend"),

		LogLevel:   getEnv("LOG_LEVEL", "info"),
		EnableCORS: getEnvBool("ENABLE_CORS", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.Persistence != PersistenceDynamoDB && c.Persistence != PersistenceMemory {
		return fmt.Errorf("PERSISTENCE must be %q or %q", PersistenceDynamoDB, PersistenceMemory)
	}

	if c.Environment == "production" {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.Persistence == PersistenceMemory {
			return fmt.Errorf("PERSISTENCE=memory is not allowed in production")
		}
		if c.DynamoDBTable == "" {
			return fmt.Errorf("TABLE_NAME is required")
		}
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required in production")
		}
		if c.PineconeAPIKey == "" || c.PineconeIndexHost == "" {
			return fmt.Errorf("PINECONE_API_KEY and PINECONE_INDEX_HOST are required in production")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
