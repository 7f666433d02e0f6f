package di

import (
	"go.uber.org/zap"

	"notegraph-backend/application/ports"
	"notegraph-backend/application/services"
	"notegraph-backend/infrastructure/config"
	"notegraph-backend/interfaces/http/rest"
)

// Container holds all application dependencies
type Container struct {
	Config            *config.Config
	Logger            *zap.Logger
	NodeRepo          ports.NodeRepository
	EdgeRepo          ports.EdgeRepository
	VoiceNoteRepo     ports.VoiceNoteRepository
	Publisher         ports.EventPublisher
	NodeService       *services.NodeService
	LinkService       *services.LinkService
	SimilarityService *services.SimilarityService
	IngestionService  *services.IngestionService
	Router            *rest.Router
}
