package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"notegraph-backend/application/services"
	"notegraph-backend/domain/core/valueobjects"
	"notegraph-backend/pkg/utils"
)

// EdgeHandler handles edge HTTP requests
type EdgeHandler struct {
	nodeService *services.NodeService
	logger      *zap.Logger
}

// NewEdgeHandler creates a new edge handler
func NewEdgeHandler(nodeService *services.NodeService, logger *zap.Logger) *EdgeHandler {
	return &EdgeHandler{
		nodeService: nodeService,
		logger:      logger,
	}
}

// CreateEdgeRequest represents the request body for creating an edge
type CreateEdgeRequest struct {
	Source string `json:"source" validate:"required,uuid"`
	Target string `json:"target" validate:"required,uuid"`
	Label  string `json:"label,omitempty" validate:"omitempty,max=200"`
}

// CreateEdge handles POST /edges
func (h *EdgeHandler) CreateEdge(w http.ResponseWriter, r *http.Request) {
	var req CreateEdgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		respondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	sourceID, err := valueobjects.NewNodeIDFromString(req.Source)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid source node ID")
		return
	}
	targetID, err := valueobjects.NewNodeIDFromString(req.Target)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid target node ID")
		return
	}

	edge, err := h.nodeService.CreateEdge(r.Context(), owner, sourceID, targetID, req.Label)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toEdgeResponse(edge))
}

// ListEdges handles GET /edges
func (h *EdgeHandler) ListEdges(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	edges, err := h.nodeService.ListEdgesByOwner(r.Context(), owner)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"edges": toEdgeResponses(edges),
		"count": len(edges),
	})
}

// DeleteEdge handles DELETE /edges/{edgeID}
func (h *EdgeHandler) DeleteEdge(w http.ResponseWriter, r *http.Request) {
	id, err := valueobjects.NewEdgeIDFromString(chi.URLParam(r, "edgeID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid edge ID format")
		return
	}
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	if err := h.nodeService.DeleteEdge(r.Context(), owner, id); err != nil {
		respondAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
