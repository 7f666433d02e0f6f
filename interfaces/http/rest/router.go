package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"notegraph-backend/application/services"
	"notegraph-backend/infrastructure/config"
	"notegraph-backend/interfaces/http/rest/handlers"
	"notegraph-backend/interfaces/http/rest/middleware"
)

// Router creates and configures the HTTP router
type Router struct {
	nodeService      *services.NodeService
	linkService      *services.LinkService
	ingestionService *services.IngestionService
	cfg              *config.Config
	logger           *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	nodeService *services.NodeService,
	linkService *services.LinkService,
	ingestionService *services.IngestionService,
	cfg *config.Config,
	logger *zap.Logger,
) *Router {
	return &Router{
		nodeService:      nodeService,
		linkService:      linkService,
		ingestionService: ingestionService,
		cfg:              cfg,
		logger:           logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "https://*.notegraph.app"},
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	// API routes
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.cfg.JWTSecret, rt.cfg.JWTIssuer, rt.logger))

		// Node endpoints
		r.Route("/nodes", func(r chi.Router) {
			nodeHandler := handlers.NewNodeHandler(rt.nodeService, rt.logger)
			linkHandler := handlers.NewLinkHandler(rt.linkService, rt.logger)
			r.Post("/", nodeHandler.CreateNode)
			r.Get("/", nodeHandler.ListNodes)
			r.Get("/{nodeID}", nodeHandler.GetNode)
			r.Patch("/{nodeID}", nodeHandler.UpdateNode)
			r.Delete("/{nodeID}", nodeHandler.DeleteNode)
			r.Get("/{nodeID}/backlinks", linkHandler.GetBacklinks)
		})

		// Edge endpoints
		r.Route("/edges", func(r chi.Router) {
			edgeHandler := handlers.NewEdgeHandler(rt.nodeService, rt.logger)
			r.Post("/", edgeHandler.CreateEdge)
			r.Get("/", edgeHandler.ListEdges)
			r.Delete("/{edgeID}", edgeHandler.DeleteEdge)
		})

		// Title resolution and textual backlinks
		r.Route("/links", func(r chi.Router) {
			linkHandler := handlers.NewLinkHandler(rt.linkService, rt.logger)
			r.Post("/resolve", linkHandler.Resolve)
			r.Get("/backlinks", linkHandler.GetTextualBacklinks)
		})

		// Voice note endpoints
		r.Route("/voice-notes", func(r chi.Router) {
			voiceHandler := handlers.NewVoiceHandler(rt.ingestionService, rt.logger)
			r.Post("/", voiceHandler.Register)
			r.Get("/", voiceHandler.List)
			r.Get("/{voiceNoteID}", voiceHandler.Get)
			r.Post("/{voiceNoteID}/process", voiceHandler.Process)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
